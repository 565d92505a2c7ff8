package payments

import (
	"context"

	"github.com/m04kA/SMC-FacilityBookingService/internal/domain"
)

// PaymentRepository журнал оплат
type PaymentRepository interface {
	Create(ctx context.Context, p *domain.Payment) (*domain.Payment, error)
}

// Metrics счетчик неудачных записей оплат
type Metrics interface {
	IncPaymentFailure()
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

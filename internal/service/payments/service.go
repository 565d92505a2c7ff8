package payments

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-FacilityBookingService/internal/domain"
)

const defaultTimeout = 5 * time.Second

// Recorder фиксирует оплату разовой игры после допуска.
// Работает в фоне: ошибка только логируется и считается, бронь не откатывается
type Recorder struct {
	repo    PaymentRepository
	metrics Metrics
	logger  Logger
	amount  float64
	timeout time.Duration
	enabled bool

	wg sync.WaitGroup
}

func NewRecorder(repo PaymentRepository, metrics Metrics, logger Logger, enabled bool, amount float64, timeout time.Duration) *Recorder {
	if amount <= 0 {
		amount = domain.DefaultSingleGameAmount
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Recorder{
		repo:    repo,
		metrics: metrics,
		logger:  logger,
		amount:  amount,
		timeout: timeout,
		enabled: enabled,
	}
}

// Record запускает запись и сразу возвращается
func (r *Recorder) Record(res *domain.Reservation) {
	if !r.enabled {
		return
	}

	payment := &domain.Payment{
		UserID:        res.UserID,
		ReservationID: res.ID,
		Amount:        r.amount,
		Type:          domain.PaymentSingleGame,
		Status:        domain.PaymentSuccess,
		TransactionID: uuid.NewString(),
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		// свой контекст: запрос клиента к этому моменту может быть уже завершён
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		if _, err := r.repo.Create(ctx, payment); err != nil {
			r.metrics.IncPaymentFailure()
			r.logger.Error("RecordPayment: reservation id=%d, transaction=%s: %v", res.ID, payment.TransactionID, err)
			return
		}
		r.logger.Info("RecordPayment: reservation id=%d, amount=%.2f, transaction=%s", res.ID, payment.Amount, payment.TransactionID)
	}()
}

// Wait ждёт завершения начатых записей (остановка сервера, тесты)
func (r *Recorder) Wait() {
	r.wg.Wait()
}

package domain

import "time"

type PaymentType string

const (
	PaymentSingleGame PaymentType = "single_game"
	PaymentMembership PaymentType = "membership"
)

type PaymentStatus string

const (
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
	PaymentPending PaymentStatus = "pending"
)

// DefaultSingleGameAmount сумма разовой игры по умолчанию
const DefaultSingleGameAmount = 100.00

// Payment запись об оплате брони. На допуск не влияет
type Payment struct {
	ID            int64
	UserID        int64
	ReservationID int64
	Amount        float64
	Type          PaymentType
	Status        PaymentStatus
	TransactionID string
	CreatedAt     time.Time
}

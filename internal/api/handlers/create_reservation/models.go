package create_reservation

import (
	"time"

	"github.com/m04kA/SMC-FacilityBookingService/internal/domain"
	createReservation "github.com/m04kA/SMC-FacilityBookingService/internal/usecase/create_reservation"
)

// CreateReservationRequest HTTP request model.
// UserID необязателен: если передан, должен совпадать с X-User-ID
type CreateReservationRequest struct {
	UserID      *int64 `json:"user_id,omitempty"`
	FacilityID  int64  `json:"facility_id"`
	SlotID      int64  `json:"slot_id"`
	BookingDate string `json:"booking_date"` // "2025-10-15"
}

// ReservationResponse HTTP response model
type ReservationResponse struct {
	ReservationID int64  `json:"reservation_id"`
	FacilityID    int64  `json:"facility_id"`
	SlotID        int64  `json:"slot_id"`
	BookingDate   string `json:"booking_date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	Session       string `json:"session"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
}

// ActsFor true, если тело не указывает пользователя или указывает того же, что в заголовке
func (r *CreateReservationRequest) ActsFor(userID int64) bool {
	return r.UserID == nil || *r.UserID == userID
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateReservationRequest) ToUseCaseRequest(userID int64) (*createReservation.Request, error) {
	bookingDate, err := time.Parse(domain.DateFormat, r.BookingDate)
	if err != nil {
		return nil, err
	}

	return &createReservation.Request{
		UserID:     userID,
		FacilityID: r.FacilityID,
		SlotID:     r.SlotID,
		Date:       bookingDate,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createReservation.Response) *ReservationResponse {
	return &ReservationResponse{
		ReservationID: resp.ID,
		FacilityID:    resp.FacilityID,
		SlotID:        resp.SlotID,
		BookingDate:   resp.BookingDate.Format(domain.DateFormat),
		StartTime:     resp.StartTime.String(),
		EndTime:       resp.EndTime.String(),
		Session:       resp.Session,
		Status:        resp.Status,
		CreatedAt:     resp.CreatedAt.Format(time.RFC3339),
	}
}

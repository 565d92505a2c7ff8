package userservice

import "github.com/m04kA/SMC-FacilityBookingService/internal/domain"

// User модель пользователя из UserService
type User struct {
	ID       int64  `json:"id"`
	Status   string `json:"status"`   // pending, approved, rejected, banned
	Category string `json:"category"` // student, staff, guest ...
}

func (u *User) ToDomain() *domain.User {
	return &domain.User{ID: u.ID, Status: u.Status, Category: u.Category}
}

// MembershipResponse ответ на проверку абонемента
type MembershipResponse struct {
	Valid     bool   `json:"valid"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

// ErrorResponse модель ошибки от UserService
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

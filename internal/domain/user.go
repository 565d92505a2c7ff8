package domain

// UserStatusApproved единственный статус, с которым можно бронировать
const UserStatusApproved = "approved"

// User пользователь глазами сервиса бронирования (данные из UserService)
type User struct {
	ID       int64
	Status   string
	Category string
}

func (u *User) IsApproved() bool {
	return u.Status == UserStatusApproved
}

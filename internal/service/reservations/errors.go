package reservations

import "errors"

var (
	// ErrReservationNotFound возвращается, когда бронирование не найдено
	ErrReservationNotFound = errors.New("reservations: reservation not found")

	// ErrNotOwner бронирование принадлежит другому пользователю
	ErrNotOwner = errors.New("reservations: requester is not the owner")

	// ErrPastDateImmutable бронь на прошедшую дату не меняется
	ErrPastDateImmutable = errors.New("reservations: past reservations cannot be changed")

	// ErrCannotCancel бронь уже отменена или завершена
	ErrCannotCancel = errors.New("reservations: reservation cannot be cancelled")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("reservations: invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("reservations: internal error")
)

package userservice

import "errors"

var (
	// ErrUserNotFound пользователь неизвестен UserService
	ErrUserNotFound = errors.New("userservice client: user not found")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("userservice client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = errors.New("userservice client: invalid response")

	// ErrUnavailable сервис не ответил. Запрос можно повторить
	ErrUnavailable = errors.New("userservice client: service unavailable")
)

package create_reservation

import "errors"

var (
	// ErrTransient сбой инфраструктуры (хранилище, блокировка, внешний сервис).
	// Бронь не создана, запрос можно безопасно повторить
	ErrTransient = errors.New("create_reservation: transient failure, retry later")
)

package reservation

import "errors"

var (
	// ErrReservationNotFound возвращается, когда бронирование не найдено
	ErrReservationNotFound = errors.New("reservation.repository: reservation not found")

	// ErrDuplicateReservation нарушен уникальный индекс (user, slot, date) среди active
	ErrDuplicateReservation = errors.New("reservation.repository: duplicate active reservation")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("reservation.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("reservation.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("reservation.repository: failed to scan row")

	// ErrCannotCancel бронирование уже отменено или завершено
	ErrCannotCancel = errors.New("reservation.repository: reservation cannot be cancelled")
)

package get_availability

import "errors"

var (
	// ErrFacilityNotFound возвращается, когда площадка не найдена
	ErrFacilityNotFound = errors.New("get_availability: facility not found")

	// ErrFacilityInactive площадка выключена
	ErrFacilityInactive = errors.New("get_availability: facility is not active")

	// ErrInvalidDate возвращается при дате в прошлом
	ErrInvalidDate = errors.New("get_availability: invalid date")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("get_availability: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("get_availability: internal error")
)

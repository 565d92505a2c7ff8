package snapshot

import "errors"

var (
	// ErrLoad ошибка инфраструктуры при сборке снимка
	ErrLoad = errors.New("snapshot: failed to load")
)

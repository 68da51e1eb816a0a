package pool

import "errors"

// Ошибки пула ресурсов.
var (
	// ErrResourceUnavailable — нет подходящего аккаунта или прокси.
	ErrResourceUnavailable = errors.New("no eligible resource available")

	// ErrUnknownResource — ресурс не зарегистрирован в пуле.
	ErrUnknownResource = errors.New("unknown resource")

	// ErrNotHeld — ресурс не выдан, release/report невозможен.
	ErrNotHeld = errors.New("resource not held")
)

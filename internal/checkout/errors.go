package checkout

import "errors"

// Ошибки пакета checkout.
var (
	// ErrPlatformNotFound — платформа не зарегистрирована в реестре.
	ErrPlatformNotFound = errors.New("platform not registered")
)

// errTaskFailed — внутренний маркер: шаг довёл задачу до терминального
// FAILED, дальнейшие шаги не выполняются. Наружу не выходит.
var errTaskFailed = errors.New("task failed")

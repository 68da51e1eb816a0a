package orchestrator

import "errors"

// Ошибки оркестратора.
var (
	// ErrBackpressure — очередь задач заполнена, запрос отклонён.
	ErrBackpressure = errors.New("task queue is full")

	// ErrTaskNotFound — задача с таким ID неизвестна.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskFinished — задача уже в терминальном состоянии.
	ErrTaskFinished = errors.New("task already finished")

	// ErrUnknownPlatform — платформа не зарегистрирована.
	ErrUnknownPlatform = errors.New("unknown platform")

	// ErrInvalidRequest — в запросе не хватает обязательных полей.
	ErrInvalidRequest = errors.New("invalid task request")
)

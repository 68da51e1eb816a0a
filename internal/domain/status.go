package domain

// TaskState — состояние checkout-задачи.
//
// Жизненный цикл (переходы только вперёд, кроме retry текущего шага):
//
//	PENDING → ACQUIRING → AUTHENTICATING → (QUEUEING) → LOCATING_PRODUCT
//	        → SELECTING_SIZE → ADDING_TO_CART → REACHING_CHECKOUT → COMPLETED
//
// Из любого состояния возможен переход в FAILED или CANCELLED.
type TaskState string

const (
	// TaskStatePending — задача в очереди, ожидает воркера.
	TaskStatePending TaskState = "PENDING"

	// TaskStateAcquiring — воркер получает аккаунт и прокси из пула.
	TaskStateAcquiring TaskState = "ACQUIRING"

	// TaskStateAuthenticating — вход в аккаунт платформы.
	TaskStateAuthenticating TaskState = "AUTHENTICATING"

	// TaskStateQueueing — ожидание допуска в очереди платформы.
	// Опциональный шаг: требуется не всем платформам.
	TaskStateQueueing TaskState = "QUEUEING"

	// TaskStateLocatingProduct — поиск товара.
	TaskStateLocatingProduct TaskState = "LOCATING_PRODUCT"

	// TaskStateSelectingSize — выбор размера.
	TaskStateSelectingSize TaskState = "SELECTING_SIZE"

	// TaskStateAddingToCart — добавление в корзину.
	TaskStateAddingToCart TaskState = "ADDING_TO_CART"

	// TaskStateReachingCheckout — переход к оформлению заказа.
	TaskStateReachingCheckout TaskState = "REACHING_CHECKOUT"

	// TaskStateCompleted — checkout достигнут, задача успешна.
	TaskStateCompleted TaskState = "COMPLETED"

	// TaskStateFailed — задача завершилась с ошибкой.
	TaskStateFailed TaskState = "FAILED"

	// TaskStateCancelled — задача отменена (явно или по таймауту).
	TaskStateCancelled TaskState = "CANCELLED"
)

// IsTerminal возвращает true, если состояние финальное.
func (s TaskState) IsTerminal() bool {
	switch s {
	case TaskStateCompleted, TaskStateFailed, TaskStateCancelled:
		return true
	default:
		return false
	}
}

// TaskResult — итог выполнения задачи. Пустой, пока задача не завершена.
type TaskResult string

const (
	TaskResultSuccess   TaskResult = "SUCCESS"
	TaskResultFailed    TaskResult = "FAILED"
	TaskResultCancelled TaskResult = "CANCELLED"
)

// AccountStatus — статус аккаунта в пуле ресурсов.
type AccountStatus string

const (
	// AccountStatusActive — аккаунт доступен для выдачи.
	AccountStatusActive AccountStatus = "ACTIVE"

	// AccountStatusInactive — аккаунт отключён вручную.
	AccountStatusInactive AccountStatus = "INACTIVE"

	// AccountStatusDegraded — аккаунт понижен после серии ошибок.
	// Возврат в ACTIVE только вручную.
	AccountStatusDegraded AccountStatus = "DEGRADED"
)

// ProxyStatus — статус прокси в пуле ресурсов.
//
// Понижение прогрессивное: HEALTHY → DEGRADED → DEAD.
// Успешное использование возвращает UNTESTED/DEGRADED в HEALTHY.
type ProxyStatus string

const (
	// ProxyStatusUntested — прокси загружен из списка, но не проверен.
	ProxyStatusUntested ProxyStatus = "UNTESTED"

	// ProxyStatusHealthy — прокси работал при последних использованиях.
	ProxyStatusHealthy ProxyStatus = "HEALTHY"

	// ProxyStatusDegraded — серия ошибок; выдаётся только если нет лучших.
	ProxyStatusDegraded ProxyStatus = "DEGRADED"

	// ProxyStatusDead — прокси исключён из выдачи.
	ProxyStatusDead ProxyStatus = "DEAD"
)

// ChallengeState — состояние CAPTCHA-challenge.
//
// Автоматический режим: PENDING → SUBMITTED → POLLING → SOLVED | FAILED | TIMED_OUT.
// Ручной режим: PENDING → AWAITING_OPERATOR → SOLVED | CANCELLED.
type ChallengeState string

const (
	ChallengeStatePending          ChallengeState = "PENDING"
	ChallengeStateSubmitted        ChallengeState = "SUBMITTED"
	ChallengeStatePolling          ChallengeState = "POLLING"
	ChallengeStateAwaitingOperator ChallengeState = "AWAITING_OPERATOR"
	ChallengeStateSolved           ChallengeState = "SOLVED"
	ChallengeStateFailed           ChallengeState = "FAILED"
	ChallengeStateTimedOut         ChallengeState = "TIMED_OUT"
	ChallengeStateCancelled        ChallengeState = "CANCELLED"
)

// IsTerminal возвращает true, если challenge завершён.
func (s ChallengeState) IsTerminal() bool {
	switch s {
	case ChallengeStateSolved, ChallengeStateFailed, ChallengeStateTimedOut, ChallengeStateCancelled:
		return true
	default:
		return false
	}
}

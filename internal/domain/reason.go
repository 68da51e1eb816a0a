package domain

// ReasonCode — код причины терминального исхода задачи.
//
// Коды делятся на уровни:
//   - шаговые (transient_error, not_found, fatal_error) — зафиксированы
//     state machine после исчерпания retry или сразу;
//   - challenge-уровень (challenge_failed, challenge_timeout);
//   - задачные (resource_unavailable, timeout, cancelled);
//   - уровень подачи (backpressure) — задача вообще не была принята.
type ReasonCode string

const (
	// ReasonNone — причины нет (успех или задача ещё выполняется).
	ReasonNone ReasonCode = ""

	// ReasonResourceUnavailable — нет доступного аккаунта или прокси.
	ReasonResourceUnavailable ReasonCode = "RESOURCE_UNAVAILABLE"

	// ReasonTransientError — временная ошибка шага, retry исчерпан.
	ReasonTransientError ReasonCode = "TRANSIENT_ERROR"

	// ReasonChallengeFailed — CAPTCHA не решена (отказ сервиса или оператора).
	ReasonChallengeFailed ReasonCode = "CHALLENGE_FAILED"

	// ReasonChallengeTimeout — решение CAPTCHA не пришло за отведённое время.
	ReasonChallengeTimeout ReasonCode = "CHALLENGE_TIMEOUT"

	// ReasonQueueTimeout — допуск в очередь платформы не получен вовремя.
	ReasonQueueTimeout ReasonCode = "QUEUE_TIMEOUT"

	// ReasonNotFound — товар или размер не найден.
	ReasonNotFound ReasonCode = "NOT_FOUND"

	// ReasonFatalError — шаг сообщил, что продолжение невозможно.
	ReasonFatalError ReasonCode = "FATAL_ERROR"

	// ReasonBackpressure — очередь задач заполнена, подача отклонена.
	ReasonBackpressure ReasonCode = "BACKPRESSURE"

	// ReasonTimeout — превышен wall-clock бюджет задачи.
	ReasonTimeout ReasonCode = "TIMEOUT"

	// ReasonCancelled — задача отменена вызывающей стороной.
	ReasonCancelled ReasonCode = "CANCELLED"
)

// IsTaskRetryable возвращает true, если оркестратор может
// повторно поставить задачу в очередь с этой причиной.
func (r ReasonCode) IsTaskRetryable() bool {
	return r == ReasonResourceUnavailable
}

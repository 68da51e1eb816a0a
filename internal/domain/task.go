package domain

import (
	"time"

	"github.com/google/uuid"
)

// CheckoutTask — одна end-to-end попытка выкупа на одной платформе.
//
// Task создаётся Orchestrator'ом при подаче запроса и изменяется
// только Orchestrator'ом и state machine, которую он ведёт.
// После записи терминального MetricEvent задача архивируется.
type CheckoutTask struct {
	// ID — уникальный идентификатор задачи.
	ID uuid.UUID `json:"id"`

	// Platform — платформа (nike, adidas, footsites, ...).
	Platform string `json:"platform"`

	// Product — ссылка на товар: URL или поисковый запрос.
	Product string `json:"product"`

	// Size — целевой размер.
	Size string `json:"size"`

	// AccountID — выданный аккаунт. Nil, пока ресурсы не получены.
	AccountID *uuid.UUID `json:"account_id,omitempty"`

	// ProxyID — выданный прокси. Nil, пока ресурсы не получены.
	ProxyID *uuid.UUID `json:"proxy_id,omitempty"`

	// State — текущее состояние.
	State TaskState `json:"state"`

	// Attempt — номер попытки задачи целиком (начиная с 1).
	// Увеличивается при re-enqueue оркестратором, не при retry шага.
	Attempt int `json:"attempt"`

	// Result — итог. Пустой, пока задача не завершена.
	Result TaskResult `json:"result,omitempty"`

	// Reason — код причины терминального исхода.
	Reason ReasonCode `json:"reason,omitempty"`

	// Error — текст последней ошибки.
	Error string `json:"error,omitempty"`

	// StartedAt — время первого перехода из PENDING.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время достижения терминального состояния.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// CreatedAt — время подачи запроса.
	CreatedAt time.Time `json:"created_at"`
}

// NewCheckoutTask создаёт задачу в состоянии PENDING.
func NewCheckoutTask(platform, product, size string) *CheckoutTask {
	return &CheckoutTask{
		ID:        uuid.New(),
		Platform:  platform,
		Product:   product,
		Size:      size,
		State:     TaskStatePending,
		CreatedAt: time.Now(),
	}
}

// Duration возвращает продолжительность выполнения.
func (t *CheckoutTask) Duration() time.Duration {
	if t.StartedAt == nil || t.FinishedAt == nil {
		return 0
	}
	return t.FinishedAt.Sub(*t.StartedAt)
}

// IsFinished возвращает true, если задача завершена.
func (t *CheckoutTask) IsFinished() bool {
	return t.State.IsTerminal()
}

// MarkStarted переводит задачу в ACQUIRING и увеличивает Attempt.
func (t *CheckoutTask) MarkStarted() {
	now := time.Now()
	t.State = TaskStateAcquiring
	if t.StartedAt == nil {
		t.StartedAt = &now
	}
	t.Attempt++
}

// BindResources привязывает выданные аккаунт и прокси.
func (t *CheckoutTask) BindResources(accountID, proxyID uuid.UUID) {
	t.AccountID = &accountID
	t.ProxyID = &proxyID
}

// ReleaseResources снимает привязку после возврата ресурсов в пул.
func (t *CheckoutTask) ReleaseResources() {
	t.AccountID = nil
	t.ProxyID = nil
}

// SetState переводит задачу на следующий шаг.
// Терминальные состояния выставляются только через Mark*-методы.
func (t *CheckoutTask) SetState(state TaskState) {
	if t.State.IsTerminal() {
		return
	}
	t.State = state
}

// MarkCompleted переводит задачу в COMPLETED с результатом SUCCESS.
func (t *CheckoutTask) MarkCompleted() {
	now := time.Now()
	t.State = TaskStateCompleted
	t.Result = TaskResultSuccess
	t.Reason = ReasonNone
	t.FinishedAt = &now
}

// MarkFailed переводит задачу в FAILED с причиной.
func (t *CheckoutTask) MarkFailed(reason ReasonCode, errText string) {
	now := time.Now()
	t.State = TaskStateFailed
	t.Result = TaskResultFailed
	t.Reason = reason
	t.Error = errText
	t.FinishedAt = &now
}

// MarkCancelled переводит задачу в CANCELLED с причиной
// (CANCELLED для явной отмены, TIMEOUT для истёкшего бюджета).
func (t *CheckoutTask) MarkCancelled(reason ReasonCode) {
	now := time.Now()
	t.State = TaskStateCancelled
	t.Result = TaskResultCancelled
	t.Reason = reason
	t.FinishedAt = &now
}

// ResetForRetry готовит задачу к повторной постановке в очередь.
// Attempt сохраняется — увеличится в следующем MarkStarted.
func (t *CheckoutTask) ResetForRetry() {
	t.State = TaskStatePending
	t.Result = ""
	t.Reason = ReasonNone
	t.Error = ""
	t.FinishedAt = nil
}

// CanRetry проверяет, остались ли попытки на уровне задачи.
func (t *CheckoutTask) CanRetry(maxAttempts int) bool {
	return t.Attempt < maxAttempts
}

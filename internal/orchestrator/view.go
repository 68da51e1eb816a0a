package orchestrator

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Copflow/internal/domain"
)

// TaskView — неизменяемый снимок задачи для Status и API.
type TaskView struct {
	ID       uuid.UUID         `json:"id"`
	Platform string            `json:"platform"`
	Product  string            `json:"product"`
	Size     string            `json:"size"`
	State    domain.TaskState  `json:"state"`
	Result   domain.TaskResult `json:"result,omitempty"`
	Reason   domain.ReasonCode `json:"reason,omitempty"`
	Error    string            `json:"error,omitempty"`
	Attempt  int               `json:"attempt"`

	AccountID *uuid.UUID `json:"account_id,omitempty"`
	ProxyID   *uuid.UUID `json:"proxy_id,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	DurationMs int64      `json:"duration_ms,omitempty"`
}

// taskEntry — задача внутри оркестратора.
//
// Сама задача принадлежит ровно одной горутине в каждый момент
// времени (Submit до постановки в очередь, затем воркер). Наружу
// читается только view — снимок, который владелец публикует под
// мьютексом в ключевых точках выполнения.
type taskEntry struct {
	task *domain.CheckoutTask

	mu        sync.Mutex
	view      TaskView
	cancel    func()
	cancelled bool
}

// ViewOf строит снимок состояния задачи.
func ViewOf(t *domain.CheckoutTask) TaskView {
	return TaskView{
		ID:         t.ID,
		Platform:   t.Platform,
		Product:    t.Product,
		Size:       t.Size,
		State:      t.State,
		Result:     t.Result,
		Reason:     t.Reason,
		Error:      t.Error,
		Attempt:    t.Attempt,
		AccountID:  t.AccountID,
		ProxyID:    t.ProxyID,
		CreatedAt:  t.CreatedAt,
		StartedAt:  t.StartedAt,
		FinishedAt: t.FinishedAt,
		DurationMs: t.Duration().Milliseconds(),
	}
}

// publish обновляет снимок задачи. Вызывается только владельцем.
func (e *taskEntry) publish() {
	view := ViewOf(e.task)

	e.mu.Lock()
	e.view = view
	e.mu.Unlock()
}

// snapshot возвращает текущий снимок.
func (e *taskEntry) snapshot() TaskView {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view
}

// markCancelRequested помечает задачу на отмену и возвращает функцию
// прерывания текущего выполнения, если оно идёт.
func (e *taskEntry) markCancelRequested() (func(), error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.view.State.IsTerminal() {
		return nil, ErrTaskFinished
	}
	e.cancelled = true
	return e.cancel, nil
}

// cancelRequested сообщает, запрошена ли отмена.
func (e *taskEntry) cancelRequested() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancelled
}

// bindCancel привязывает функцию прерывания на время выполнения.
// Возвращает true, если отмена уже запрошена.
func (e *taskEntry) bindCancel(cancel func()) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancel = cancel
	return e.cancelled
}

// unbindCancel снимает функцию прерывания после выполнения.
// Возвращает true, если отмена была запрошена.
func (e *taskEntry) unbindCancel() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancel = nil
	return e.cancelled
}

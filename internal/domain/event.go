package domain

import (
	"time"

	"github.com/google/uuid"
)

// Типы MetricEvent.
const (
	// EventTypeStep — выполнение одного шага state machine.
	EventTypeStep = "step"

	// EventTypeCaptcha — попытка решения CAPTCHA.
	EventTypeCaptcha = "captcha"

	// EventTypeProxy — обратная связь по прокси.
	EventTypeProxy = "proxy"

	// EventTypeTask — жизненный цикл задачи; терминальное событие
	// задачи имеет этот тип и Terminal=true.
	EventTypeTask = "task"
)

// MetricEvent — одно событие жизненного цикла задачи.
//
// Поток событий append-only: производится задачами на всём протяжении
// выполнения, потребляется только Analytics Recorder'ом. У каждой
// терминальной задачи ровно одно событие с Terminal=true.
type MetricEvent struct {
	// ID — уникальный идентификатор события.
	ID uuid.UUID `json:"id"`

	// TaskID — задача, к которой относится событие.
	TaskID uuid.UUID `json:"task_id"`

	// Platform — платформа задачи (дублируется для агрегации).
	Platform string `json:"platform"`

	// Type — тип события: step, captcha, proxy, task.
	Type string `json:"type"`

	// Name — имя события (имя шага, тип капчи, "terminal").
	Name string `json:"name"`

	// OffsetMs — монотонное смещение от старта задачи в миллисекундах.
	OffsetMs int64 `json:"offset_ms"`

	// Terminal — true для единственного терминального события задачи.
	Terminal bool `json:"terminal,omitempty"`

	// Detail — структурированные детали (outcome, attempt, cost, ...).
	Detail map[string]any `json:"detail,omitempty"`

	// RecordedAt — время записи события.
	RecordedAt time.Time `json:"recorded_at"`
}

// NewMetricEvent создаёт событие для задачи.
func NewMetricEvent(task *CheckoutTask, eventType, name string, detail map[string]any) *MetricEvent {
	var offset int64
	if task.StartedAt != nil {
		offset = time.Since(*task.StartedAt).Milliseconds()
	}
	return &MetricEvent{
		ID:         uuid.New(),
		TaskID:     task.ID,
		Platform:   task.Platform,
		Type:       eventType,
		Name:       name,
		OffsetMs:   offset,
		Detail:     detail,
		RecordedAt: time.Now(),
	}
}

// NewTerminalEvent создаёт терминальное событие задачи.
// Detail включает result, reason, attempt и длительность.
func NewTerminalEvent(task *CheckoutTask) *MetricEvent {
	ev := NewMetricEvent(task, EventTypeTask, "terminal", map[string]any{
		"result":      string(task.Result),
		"reason":      string(task.Reason),
		"attempt":     task.Attempt,
		"duration_ms": task.Duration().Milliseconds(),
	})
	if task.Error != "" {
		ev.Detail["error"] = task.Error
	}
	ev.Terminal = true
	return ev
}

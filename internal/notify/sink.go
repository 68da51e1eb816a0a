package notify

import (
	"context"
	"log/slog"
)

// Типы уведомлений.
const (
	EventSuccess   = "success"
	EventFailure   = "failure"
	EventCancelled = "cancelled"
)

// Sink — один канал доставки уведомлений.
type Sink interface {
	Notify(ctx context.Context, eventType, message string) error
}

// Multi — fan-out по нескольким каналам.
//
// Ошибка одного канала логируется и не мешает остальным;
// Notify у Multi всегда возвращает nil.
type Multi struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewMulti создаёт fan-out по sinks. Nil-элементы игнорируются.
func NewMulti(logger *slog.Logger, sinks ...Sink) *Multi {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Multi{logger: logger}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Notify рассылает уведомление по всем каналам.
func (m *Multi) Notify(ctx context.Context, eventType, message string) error {
	for _, s := range m.sinks {
		if err := s.Notify(ctx, eventType, message); err != nil {
			m.logger.Warn("notification delivery failed",
				"event_type", eventType,
				"error", err,
			)
		}
	}
	return nil
}

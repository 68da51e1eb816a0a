package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Copflow/internal/domain"
)

// EventRepo — append-only хранилище MetricEvent'ов.
type EventRepo struct {
	pool *pgxpool.Pool
}

// NewEventRepo создаёт новый EventRepo.
func NewEventRepo(pool *pgxpool.Pool) *EventRepo {
	return &EventRepo{pool: pool}
}

// Insert записывает событие. События никогда не обновляются.
func (r *EventRepo) Insert(ctx context.Context, ev *domain.MetricEvent) error {
	detailJSON, err := json.Marshal(ev.Detail)
	if err != nil {
		return fmt.Errorf("marshal detail: %w", err)
	}

	query := `
		INSERT INTO metric_events (id, task_id, platform, type, name, offset_ms, terminal, detail, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = r.pool.Exec(ctx, query,
		ev.ID,
		ev.TaskID,
		ev.Platform,
		ev.Type,
		ev.Name,
		ev.OffsetMs,
		ev.Terminal,
		detailJSON,
		ev.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("insert metric event: %w", err)
	}
	return nil
}

// ListSince возвращает события платформы, записанные не раньше since.
func (r *EventRepo) ListSince(ctx context.Context, platform string, since time.Time) ([]domain.MetricEvent, error) {
	query := `
		SELECT id, task_id, platform, type, name, offset_ms, terminal, detail, recorded_at
		FROM metric_events
		WHERE platform = $1 AND recorded_at >= $2
		ORDER BY recorded_at ASC
	`
	rows, err := r.pool.Query(ctx, query, platform, since)
	if err != nil {
		return nil, fmt.Errorf("list metric events: %w", err)
	}
	defer rows.Close()

	var events []domain.MetricEvent
	for rows.Next() {
		var ev domain.MetricEvent
		var detailJSON []byte
		if err := rows.Scan(
			&ev.ID,
			&ev.TaskID,
			&ev.Platform,
			&ev.Type,
			&ev.Name,
			&ev.OffsetMs,
			&ev.Terminal,
			&detailJSON,
			&ev.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf("scan metric event: %w", err)
		}
		if len(detailJSON) > 0 {
			if err := json.Unmarshal(detailJSON, &ev.Detail); err != nil {
				return nil, fmt.Errorf("unmarshal detail: %w", err)
			}
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

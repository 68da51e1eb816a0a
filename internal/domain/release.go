package domain

import (
	"time"

	"github.com/google/uuid"
)

// Release — запланированный дроп: платформа, товар и время запуска.
//
// Расписание задаётся либо cron-выражением (минутная точность),
// либо интервалом в секундах. NextDueAt пересчитывается планировщиком
// после каждого запуска.
type Release struct {
	// ID — уникальный идентификатор релиза.
	ID uuid.UUID `json:"id"`

	// Platform — целевая платформа.
	Platform string `json:"platform"`

	// Product — ссылка на товар: URL или поисковый запрос.
	Product string `json:"product"`

	// Size — целевой размер.
	Size string `json:"size"`

	// CronExpr — cron-выражение (пустое для интервальных релизов).
	CronExpr string `json:"cron_expr,omitempty"`

	// IntervalSec — интервал в секундах (0 для cron-релизов).
	IntervalSec int `json:"interval_sec,omitempty"`

	// Timezone — timezone для cron-выражения (default: UTC).
	Timezone string `json:"timezone,omitempty"`

	// Enabled — участвует ли релиз в тиках планировщика.
	Enabled bool `json:"enabled"`

	// MaxRuns — максимум запусков (0 = без ограничения).
	MaxRuns int `json:"max_runs,omitempty"`

	// Runs — сколько задач уже поставлено этим релизом.
	Runs int `json:"runs"`

	// NextDueAt — следующее время запуска.
	NextDueAt time.Time `json:"next_due_at"`

	// LastRunAt — время последнего запуска.
	LastRunAt *time.Time `json:"last_run_at,omitempty"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`
}

// NewRelease создаёт включённый релиз. NextDueAt вычисляет планировщик.
func NewRelease(platform, product, size string) *Release {
	return &Release{
		ID:        uuid.New(),
		Platform:  platform,
		Product:   product,
		Size:      size,
		Enabled:   true,
		CreatedAt: time.Now(),
	}
}

// IsCron сообщает, задан ли релиз cron-выражением.
func (r *Release) IsCron() bool {
	return r.CronExpr != ""
}

// IsInterval сообщает, задан ли релиз интервалом.
func (r *Release) IsInterval() bool {
	return r.IntervalSec > 0
}

// Exhausted сообщает, исчерпан ли лимит запусков.
func (r *Release) Exhausted() bool {
	return r.MaxRuns > 0 && r.Runs >= r.MaxRuns
}

package api

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shaiso/Copflow/internal/analytics"
	"github.com/shaiso/Copflow/internal/captcha"
	"github.com/shaiso/Copflow/internal/domain"
	"github.com/shaiso/Copflow/internal/orchestrator"
	"github.com/shaiso/Copflow/internal/pool"
	"github.com/shaiso/Copflow/internal/scheduler"
)

// TaskReader читает завершённые задачи из архива.
type TaskReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.CheckoutTask, error)
	ListByPlatform(ctx context.Context, platform string, limit int) ([]domain.CheckoutTask, error)
}

// Handler — главный обработчик API с зависимостями.
//
// Scheduler, Gate и Archive опциональны: без планировщика маршруты
// релизов отвечают 503, без операторского шлюза — маршруты ручной
// CAPTCHA, без архива — история задач платформы.
type Handler struct {
	orch      *orchestrator.Orchestrator
	pool      *pool.Manager
	recorder  *analytics.Recorder
	scheduler *scheduler.Scheduler
	gate      *captcha.OperatorGate
	archive   TaskReader
	logger    *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Orchestrator *orchestrator.Orchestrator
	Pool         *pool.Manager
	Recorder     *analytics.Recorder
	Scheduler    *scheduler.Scheduler
	Gate         *captcha.OperatorGate
	Archive      TaskReader
	Logger       *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		orch:      cfg.Orchestrator,
		pool:      cfg.Pool,
		recorder:  cfg.Recorder,
		scheduler: cfg.Scheduler,
		gate:      cfg.Gate,
		archive:   cfg.Archive,
		logger:    logger,
	}
}

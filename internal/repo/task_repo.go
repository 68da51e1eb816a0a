package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Copflow/internal/domain"
)

// TaskRepo — архив завершённых задач.
//
// Живые задачи держит в памяти оркестратор; сюда задача попадает
// один раз — при достижении терминального состояния.
type TaskRepo struct {
	pool *pgxpool.Pool
}

// NewTaskRepo создаёт новый TaskRepo.
func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{pool: pool}
}

const taskColumns = `id, platform, product, size, account_id, proxy_id, state, attempt,
	result, reason, error, started_at, finished_at, created_at`

// Archive сохраняет терминальную задачу.
func (r *TaskRepo) Archive(ctx context.Context, task *domain.CheckoutTask) error {
	query := `
		INSERT INTO tasks (id, platform, product, size, account_id, proxy_id, state, attempt,
		                   result, reason, error, started_at, finished_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.pool.Exec(ctx, query,
		task.ID,
		task.Platform,
		task.Product,
		task.Size,
		task.AccountID,
		task.ProxyID,
		task.State,
		task.Attempt,
		task.Result,
		task.Reason,
		task.Error,
		task.StartedAt,
		task.FinishedAt,
		task.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("archive task: %w", err)
	}
	return nil
}

// GetByID возвращает архивную задачу по ID.
func (r *TaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.CheckoutTask, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	return scanTask(r.pool.QueryRow(ctx, query, id))
}

// ListByPlatform возвращает архивные задачи платформы, новые первыми.
func (r *TaskRepo) ListByPlatform(ctx context.Context, platform string, limit int) ([]domain.CheckoutTask, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE platform = $1
		ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, platform, limit)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.CheckoutTask
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func scanTask(row pgx.Row) (*domain.CheckoutTask, error) {
	var task domain.CheckoutTask
	err := row.Scan(
		&task.ID,
		&task.Platform,
		&task.Product,
		&task.Size,
		&task.AccountID,
		&task.ProxyID,
		&task.State,
		&task.Attempt,
		&task.Result,
		&task.Reason,
		&task.Error,
		&task.StartedAt,
		&task.FinishedAt,
		&task.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}
	return &task, nil
}

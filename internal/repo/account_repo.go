package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Copflow/internal/domain"
)

// AccountRepo — репозиторий для работы с аккаунтами.
type AccountRepo struct {
	pool *pgxpool.Pool
}

// NewAccountRepo создаёт новый AccountRepo.
func NewAccountRepo(pool *pgxpool.Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

const accountColumns = `id, platform, email, credentials, status, successes, failures,
	consecutive_failures, last_used_at, created_at`

// Create создаёт новый аккаунт.
func (r *AccountRepo) Create(ctx context.Context, acc *domain.Account) error {
	query := `
		INSERT INTO accounts (id, platform, email, credentials, status, successes, failures,
		                      consecutive_failures, last_used_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.pool.Exec(ctx, query,
		acc.ID,
		acc.Platform,
		acc.Email,
		acc.Credentials,
		acc.Status,
		acc.Successes,
		acc.Failures,
		acc.ConsecutiveFailures,
		acc.LastUsedAt,
		acc.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return fmt.Errorf("%w: account %s", ErrAlreadyExists, acc.Email)
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// ListAll возвращает все аккаунты (для загрузки пула при старте).
func (r *AccountRepo) ListAll(ctx context.Context) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list all accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *acc)
	}
	return accounts, rows.Err()
}

// Update обновляет изменяемые поля аккаунта.
func (r *AccountRepo) Update(ctx context.Context, acc *domain.Account) error {
	query := `
		UPDATE accounts
		SET status = $2, successes = $3, failures = $4,
		    consecutive_failures = $5, last_used_at = $6
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		acc.ID,
		acc.Status,
		acc.Successes,
		acc.Failures,
		acc.ConsecutiveFailures,
		acc.LastUsedAt,
	)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: account %s", ErrNotFound, acc.ID)
	}
	return nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var acc domain.Account
	err := row.Scan(
		&acc.ID,
		&acc.Platform,
		&acc.Email,
		&acc.Credentials,
		&acc.Status,
		&acc.Successes,
		&acc.Failures,
		&acc.ConsecutiveFailures,
		&acc.LastUsedAt,
		&acc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return &acc, nil
}

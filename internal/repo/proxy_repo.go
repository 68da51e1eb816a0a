package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Copflow/internal/domain"
)

// ProxyRepo — репозиторий для работы с прокси.
type ProxyRepo struct {
	pool *pgxpool.Pool
}

// NewProxyRepo создаёт новый ProxyRepo.
func NewProxyRepo(pool *pgxpool.Pool) *ProxyRepo {
	return &ProxyRepo{pool: pool}
}

const proxyColumns = `id, address, protocol, username, password, status, successes,
	failures, consecutive_failures, last_latency_ms, last_tested_at, created_at`

// Upsert вставляет прокси или обновляет существующий по адресу.
// Адрес — естественный ключ: повторная загрузка списка не плодит дубликаты.
func (r *ProxyRepo) Upsert(ctx context.Context, p *domain.Proxy) error {
	query := `
		INSERT INTO proxies (id, address, protocol, username, password, status, successes,
		                     failures, consecutive_failures, last_latency_ms, last_tested_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (address) DO UPDATE
		SET protocol = EXCLUDED.protocol,
		    username = EXCLUDED.username,
		    password = EXCLUDED.password
	`
	_, err := r.pool.Exec(ctx, query,
		p.ID,
		p.Address,
		p.Protocol,
		p.Username,
		p.Password,
		p.Status,
		p.Successes,
		p.Failures,
		p.ConsecutiveFailures,
		p.LastLatency.Milliseconds(),
		p.LastTestedAt,
		p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert proxy: %w", err)
	}
	return nil
}

// List возвращает прокси. Пустой status означает любой статус.
func (r *ProxyRepo) List(ctx context.Context, status domain.ProxyStatus) ([]domain.Proxy, error) {
	query := `SELECT ` + proxyColumns + ` FROM proxies`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list proxies: %w", err)
	}
	defer rows.Close()

	var proxies []domain.Proxy
	for rows.Next() {
		p, err := scanProxy(rows)
		if err != nil {
			return nil, err
		}
		proxies = append(proxies, *p)
	}
	return proxies, rows.Err()
}

// Update обновляет изменяемые поля прокси.
func (r *ProxyRepo) Update(ctx context.Context, p *domain.Proxy) error {
	query := `
		UPDATE proxies
		SET status = $2, successes = $3, failures = $4, consecutive_failures = $5,
		    last_latency_ms = $6, last_tested_at = $7
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		p.ID,
		p.Status,
		p.Successes,
		p.Failures,
		p.ConsecutiveFailures,
		p.LastLatency.Milliseconds(),
		p.LastTestedAt,
	)
	if err != nil {
		return fmt.Errorf("update proxy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: proxy %s", ErrNotFound, p.ID)
	}
	return nil
}

func scanProxy(row pgx.Row) (*domain.Proxy, error) {
	var p domain.Proxy
	var latencyMs int64
	err := row.Scan(
		&p.ID,
		&p.Address,
		&p.Protocol,
		&p.Username,
		&p.Password,
		&p.Status,
		&p.Successes,
		&p.Failures,
		&p.ConsecutiveFailures,
		&latencyMs,
		&p.LastTestedAt,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan proxy: %w", err)
	}
	p.LastLatency = time.Duration(latencyMs) * time.Millisecond
	return &p, nil
}

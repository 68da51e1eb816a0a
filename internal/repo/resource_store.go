package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Copflow/internal/domain"
)

// ResourceStore объединяет репозитории аккаунтов и прокси
// под интерфейс pool.Store.
type ResourceStore struct {
	accounts *AccountRepo
	proxies  *ProxyRepo
}

// NewResourceStore создаёт ResourceStore.
func NewResourceStore(pool *pgxpool.Pool) *ResourceStore {
	return &ResourceStore{
		accounts: NewAccountRepo(pool),
		proxies:  NewProxyRepo(pool),
	}
}

// InsertAccount фиксирует новый аккаунт.
func (s *ResourceStore) InsertAccount(ctx context.Context, acc *domain.Account) error {
	return s.accounts.Create(ctx, acc)
}

// UpdateAccount сохраняет изменённый аккаунт.
func (s *ResourceStore) UpdateAccount(ctx context.Context, acc *domain.Account) error {
	return s.accounts.Update(ctx, acc)
}

// InsertProxy фиксирует новый прокси. Делегирует Upsert: адрес —
// естественный ключ, повторный провижининг не плодит дубликаты.
func (s *ResourceStore) InsertProxy(ctx context.Context, p *domain.Proxy) error {
	return s.proxies.Upsert(ctx, p)
}

// UpdateProxy сохраняет изменённый прокси.
func (s *ResourceStore) UpdateProxy(ctx context.Context, p *domain.Proxy) error {
	return s.proxies.Update(ctx, p)
}

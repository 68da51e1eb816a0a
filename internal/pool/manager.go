package pool

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Copflow/internal/domain"
)

// Default configuration values.
const (
	defaultAccountDemotionThreshold = 3
	defaultProxyDemotionThreshold   = 3
	defaultProxyDeathThreshold      = 3
)

// Store — опциональное durable-хранилище для записей пула.
// Nil store означает чисто in-memory режим.
//
// Insert* фиксируют новые ресурсы (провижининг во время работы),
// Update* — изменения уже существующих записей.
type Store interface {
	InsertAccount(ctx context.Context, acc *domain.Account) error
	UpdateAccount(ctx context.Context, acc *domain.Account) error
	InsertProxy(ctx context.Context, p *domain.Proxy) error
	UpdateProxy(ctx context.Context, p *domain.Proxy) error
}

// AccountHandle — выданный аккаунт. Снимок полей, нужных адаптеру;
// сам *domain.Account наружу не отдаётся.
type AccountHandle struct {
	ID          uuid.UUID
	Platform    string
	Email       string
	Credentials string
}

// ProxyHandle — выданный прокси.
type ProxyHandle struct {
	ID       uuid.UUID
	Address  string
	Protocol string
	URL      string
}

// Manager — пул аккаунтов и прокси с эксклюзивной выдачей.
//
// Вся выдача и учёт атомарны под одним мьютексом: двойная выдача
// одного ресурса и потерянные обновления счётчиков невозможны.
type Manager struct {
	mu sync.Mutex

	accounts map[uuid.UUID]*domain.Account
	proxies  map[uuid.UUID]*domain.Proxy

	// heldAccounts, heldProxies — выданные сейчас ресурсы.
	// Состояние чисто транзитное: живёт только пока задача держит handle.
	heldAccounts map[uuid.UUID]bool
	heldProxies  map[uuid.UUID]bool

	accountDemotionThreshold int
	proxyDemotionThreshold   int
	proxyDeathThreshold      int

	store  Store
	logger *slog.Logger
}

// Config — конфигурация Manager.
type Config struct {
	// AccountDemotionThreshold — подряд идущих неудач до DEGRADED (default: 3).
	AccountDemotionThreshold int

	// ProxyDemotionThreshold — подряд идущих неудач до DEGRADED (default: 3).
	ProxyDemotionThreshold int

	// ProxyDeathThreshold — неудач в DEGRADED до DEAD (default: 3).
	ProxyDeathThreshold int

	// Store — durable-хранилище (опционально; nil = in-memory).
	Store Store

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Manager.
func New(cfg Config) *Manager {
	accountThreshold := cfg.AccountDemotionThreshold
	if accountThreshold <= 0 {
		accountThreshold = defaultAccountDemotionThreshold
	}
	proxyThreshold := cfg.ProxyDemotionThreshold
	if proxyThreshold <= 0 {
		proxyThreshold = defaultProxyDemotionThreshold
	}
	deathThreshold := cfg.ProxyDeathThreshold
	if deathThreshold <= 0 {
		deathThreshold = defaultProxyDeathThreshold
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		accounts:                 make(map[uuid.UUID]*domain.Account),
		proxies:                  make(map[uuid.UUID]*domain.Proxy),
		heldAccounts:             make(map[uuid.UUID]bool),
		heldProxies:              make(map[uuid.UUID]bool),
		accountDemotionThreshold: accountThreshold,
		proxyDemotionThreshold:   proxyThreshold,
		proxyDeathThreshold:      deathThreshold,
		store:                    cfg.Store,
		logger:                   logger,
	}
}

// AddAccount регистрирует уже существующий аккаунт в пуле
// (загрузка при старте). Store не трогается.
func (m *Manager) AddAccount(acc *domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[acc.ID] = acc
}

// AddProxy регистрирует уже существующий прокси в пуле
// (загрузка при старте). Store не трогается.
func (m *Manager) AddProxy(p *domain.Proxy) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.proxies[p.ID] = p
}

// ProvisionAccount регистрирует новый аккаунт и фиксирует его в store.
// При отказе store регистрация откатывается: аккаунт, который не
// переживёт рестарт, не должен молча раздаваться задачам.
func (m *Manager) ProvisionAccount(ctx context.Context, acc *domain.Account) error {
	m.mu.Lock()
	m.accounts[acc.ID] = acc
	m.mu.Unlock()

	if m.store == nil {
		return nil
	}
	if err := m.store.InsertAccount(ctx, acc); err != nil {
		m.mu.Lock()
		delete(m.accounts, acc.ID)
		m.mu.Unlock()
		return fmt.Errorf("persist account: %w", err)
	}
	return nil
}

// ProvisionProxy регистрирует новый прокси и фиксирует его в store.
func (m *Manager) ProvisionProxy(ctx context.Context, p *domain.Proxy) error {
	m.mu.Lock()
	m.proxies[p.ID] = p
	m.mu.Unlock()

	if m.store == nil {
		return nil
	}
	if err := m.store.InsertProxy(ctx, p); err != nil {
		m.mu.Lock()
		delete(m.proxies, p.ID)
		m.mu.Unlock()
		return fmt.Errorf("persist proxy: %w", err)
	}
	return nil
}

// AcquireAccount выдаёт случайный активный аккаунт платформы.
// Не блокирует: если свободных активных аккаунтов нет,
// возвращает ErrResourceUnavailable.
func (m *Manager) AcquireAccount(ctx context.Context, platform string) (AccountHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var eligible []*domain.Account
	for _, acc := range m.accounts {
		if acc.Platform == platform && acc.Status == domain.AccountStatusActive && !m.heldAccounts[acc.ID] {
			eligible = append(eligible, acc)
		}
	}
	if len(eligible) == 0 {
		return AccountHandle{}, ErrResourceUnavailable
	}

	acc := eligible[rand.IntN(len(eligible))]
	m.heldAccounts[acc.ID] = true
	acc.MarkUsed()
	m.persistAccount(ctx, acc)

	return AccountHandle{
		ID:          acc.ID,
		Platform:    acc.Platform,
		Email:       acc.Email,
		Credentials: acc.Credentials,
	}, nil
}

// AcquireProxy выдаёт прокси, предпочитая HEALTHY > UNTESTED > DEGRADED.
// Внутри выигравшего уровня выбор случайный, чтобы размазать нагрузку.
// DEAD прокси никогда не выдаются.
func (m *Manager) AcquireProxy(ctx context.Context) (ProxyHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tiers := []domain.ProxyStatus{
		domain.ProxyStatusHealthy,
		domain.ProxyStatusUntested,
		domain.ProxyStatusDegraded,
	}

	for _, tier := range tiers {
		var eligible []*domain.Proxy
		for _, p := range m.proxies {
			if p.Status == tier && !m.heldProxies[p.ID] {
				eligible = append(eligible, p)
			}
		}
		if len(eligible) == 0 {
			continue
		}

		p := eligible[rand.IntN(len(eligible))]
		m.heldProxies[p.ID] = true
		p.MarkTested()
		m.persistProxy(ctx, p)

		return ProxyHandle{
			ID:       p.ID,
			Address:  p.Address,
			Protocol: p.Protocol,
			URL:      p.URL(),
		}, nil
	}

	return ProxyHandle{}, ErrResourceUnavailable
}

// ReleaseAccount возвращает аккаунт в доступный набор.
func (m *Manager) ReleaseAccount(ctx context.Context, h AccountHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	acc, ok := m.accounts[h.ID]
	if !ok {
		return ErrUnknownResource
	}
	if !m.heldAccounts[h.ID] {
		return ErrNotHeld
	}
	delete(m.heldAccounts, h.ID)
	acc.MarkUsed()
	m.persistAccount(ctx, acc)
	return nil
}

// ReleaseProxy возвращает прокси в доступный набор.
func (m *Manager) ReleaseProxy(ctx context.Context, h ProxyHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.proxies[h.ID]
	if !ok {
		return ErrUnknownResource
	}
	if !m.heldProxies[h.ID] {
		return ErrNotHeld
	}
	delete(m.heldProxies, h.ID)
	p.MarkTested()
	m.persistProxy(ctx, p)
	return nil
}

// ReportAccount фиксирует итог использования аккаунта.
// Понижение до DEGRADED происходит после серии неудач; обратно
// аккаунт возвращается только явным ReactivateAccount.
func (m *Manager) ReportAccount(ctx context.Context, h AccountHandle, success bool, detail string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	acc, ok := m.accounts[h.ID]
	if !ok {
		return ErrUnknownResource
	}

	if success {
		acc.RecordSuccess()
	} else if acc.RecordFailure(m.accountDemotionThreshold) {
		m.logger.Warn("account demoted",
			"account_id", acc.ID,
			"platform", acc.Platform,
			"failures", acc.ConsecutiveFailures,
			"detail", detail,
		)
	}
	m.persistAccount(ctx, acc)
	return nil
}

// ReportProxy фиксирует итог использования прокси.
func (m *Manager) ReportProxy(ctx context.Context, h ProxyHandle, success bool, latency time.Duration, detail string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.proxies[h.ID]
	if !ok {
		return ErrUnknownResource
	}

	p.MarkTested()
	if success {
		p.RecordSuccess(latency)
	} else if p.RecordFailure(m.proxyDemotionThreshold, m.proxyDeathThreshold) {
		m.logger.Warn("proxy demoted",
			"proxy", p.Address,
			"status", p.Status,
			"detail", detail,
		)
	}
	m.persistProxy(ctx, p)
	return nil
}

// ReactivateAccount вручную возвращает аккаунт в ACTIVE.
func (m *Manager) ReactivateAccount(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	acc, ok := m.accounts[id]
	if !ok {
		return ErrUnknownResource
	}
	acc.Reactivate()
	m.persistAccount(ctx, acc)
	return nil
}

// DeactivateAccount вручную отключает аккаунт.
func (m *Manager) DeactivateAccount(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	acc, ok := m.accounts[id]
	if !ok {
		return ErrUnknownResource
	}
	acc.Deactivate()
	m.persistAccount(ctx, acc)
	return nil
}

// Accounts возвращает снимок аккаунтов платформы.
// Пустая platform означает все платформы.
func (m *Manager) Accounts(platform string) []domain.Account {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Account
	for _, acc := range m.accounts {
		if platform == "" || acc.Platform == platform {
			out = append(out, *acc)
		}
	}
	return out
}

// Proxies возвращает снимок всех прокси.
func (m *Manager) Proxies() []domain.Proxy {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Proxy, 0, len(m.proxies))
	for _, p := range m.proxies {
		out = append(out, *p)
	}
	return out
}

// persistAccount сохраняет аккаунт в store. Ошибка хранилища не
// ломает операцию пула — источник истины в памяти.
func (m *Manager) persistAccount(ctx context.Context, acc *domain.Account) {
	if m.store == nil {
		return
	}
	if err := m.store.UpdateAccount(ctx, acc); err != nil {
		m.logger.Warn("failed to persist account", "account_id", acc.ID, "error", err)
	}
}

func (m *Manager) persistProxy(ctx context.Context, p *domain.Proxy) {
	if m.store == nil {
		return
	}
	if err := m.store.UpdateProxy(ctx, p); err != nil {
		m.logger.Warn("failed to persist proxy", "proxy", p.Address, "error", err)
	}
}

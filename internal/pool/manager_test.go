package pool

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Copflow/internal/domain"
)

func newTestManager() *Manager {
	return New(Config{})
}

// --- Account Tests ---

func TestAcquireAccount_Exclusive(t *testing.T) {
	m := newTestManager()
	m.AddAccount(domain.NewAccount("nike", "a@example.com", "secret"))

	ctx := context.Background()

	h, err := m.AcquireAccount(ctx, "nike")
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	if h.Email != "a@example.com" {
		t.Errorf("unexpected account: %s", h.Email)
	}

	// Единственный аккаунт выдан — второй acquire должен упасть сразу
	if _, err := m.AcquireAccount(ctx, "nike"); !errors.Is(err, ErrResourceUnavailable) {
		t.Errorf("expected ErrResourceUnavailable, got %v", err)
	}

	// После release аккаунт снова доступен
	if err := m.ReleaseAccount(ctx, h); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if _, err := m.AcquireAccount(ctx, "nike"); err != nil {
		t.Errorf("acquire after release failed: %v", err)
	}
}

func TestAcquireAccount_NoActiveAccounts(t *testing.T) {
	m := newTestManager()

	acc := domain.NewAccount("adidas", "b@example.com", "secret")
	acc.Deactivate()
	m.AddAccount(acc)

	_, err := m.AcquireAccount(context.Background(), "adidas")
	if !errors.Is(err, ErrResourceUnavailable) {
		t.Errorf("expected ErrResourceUnavailable, got %v", err)
	}
}

func TestAcquireAccount_PlatformIsolation(t *testing.T) {
	m := newTestManager()
	m.AddAccount(domain.NewAccount("nike", "a@example.com", "secret"))

	_, err := m.AcquireAccount(context.Background(), "adidas")
	if !errors.Is(err, ErrResourceUnavailable) {
		t.Errorf("expected ErrResourceUnavailable for other platform, got %v", err)
	}
}

func TestAcquireAccount_ConcurrentExclusivity(t *testing.T) {
	m := newTestManager()
	for i := 0; i < 4; i++ {
		m.AddAccount(domain.NewAccount("nike", uuid.NewString()+"@example.com", "secret"))
	}

	ctx := context.Background()

	var mu sync.Mutex
	held := make(map[uuid.UUID]bool)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := m.AcquireAccount(ctx, "nike")
			if err != nil {
				return // пул исчерпан — это нормально
			}

			mu.Lock()
			if held[h.ID] {
				t.Errorf("account %s held by two tasks at once", h.ID)
			}
			held[h.ID] = true
			mu.Unlock()

			time.Sleep(time.Millisecond) // окно, в котором handle удерживается

			mu.Lock()
			delete(held, h.ID)
			mu.Unlock()

			if err := m.ReleaseAccount(ctx, h); err != nil {
				t.Errorf("release failed: %v", err)
			}
		}()
	}
	wg.Wait()
}

func TestReportAccount_Demotion(t *testing.T) {
	m := New(Config{AccountDemotionThreshold: 3})

	acc := domain.NewAccount("nike", "a@example.com", "secret")
	m.AddAccount(acc)

	ctx := context.Background()

	for i := 0; i < 3; i++ {
		h, err := m.AcquireAccount(ctx, "nike")
		if err != nil {
			t.Fatalf("acquire %d failed: %v", i, err)
		}
		if err := m.ReportAccount(ctx, h, false, "login rejected"); err != nil {
			t.Fatalf("report failed: %v", err)
		}
		if err := m.ReleaseAccount(ctx, h); err != nil {
			t.Fatalf("release failed: %v", err)
		}
	}

	// Порог достигнут — аккаунт понижен и больше не выдаётся
	if _, err := m.AcquireAccount(ctx, "nike"); !errors.Is(err, ErrResourceUnavailable) {
		t.Errorf("expected degraded account to be excluded, got %v", err)
	}

	// Ручная реактивация возвращает аккаунт в выдачу
	if err := m.ReactivateAccount(ctx, acc.ID); err != nil {
		t.Fatalf("reactivate failed: %v", err)
	}
	if _, err := m.AcquireAccount(ctx, "nike"); err != nil {
		t.Errorf("acquire after reactivate failed: %v", err)
	}
}

func TestReportAccount_SuccessResetsStreak(t *testing.T) {
	m := New(Config{AccountDemotionThreshold: 3})

	acc := domain.NewAccount("nike", "a@example.com", "secret")
	m.AddAccount(acc)

	ctx := context.Background()

	h, _ := m.AcquireAccount(ctx, "nike")
	m.ReportAccount(ctx, h, false, "")
	m.ReportAccount(ctx, h, false, "")
	m.ReportAccount(ctx, h, true, "")
	m.ReportAccount(ctx, h, false, "")
	m.ReleaseAccount(ctx, h)

	if acc.Status != domain.AccountStatusActive {
		t.Errorf("expected account to stay ACTIVE, got %s", acc.Status)
	}
	if acc.ConsecutiveFailures != 1 {
		t.Errorf("expected streak 1, got %d", acc.ConsecutiveFailures)
	}
}

// --- Proxy Tests ---

func TestAcquireProxy_TierPreference(t *testing.T) {
	m := newTestManager()

	healthy := domain.NewProxy("10.0.0.1:8080", "http")
	healthy.RecordSuccess(50 * time.Millisecond)
	untested := domain.NewProxy("10.0.0.2:8080", "http")
	m.AddProxy(healthy)
	m.AddProxy(untested)

	h, err := m.AcquireProxy(context.Background())
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if h.Address != "10.0.0.1:8080" {
		t.Errorf("expected healthy proxy preferred, got %s", h.Address)
	}
}

func TestAcquireProxy_DeadExcluded(t *testing.T) {
	m := newTestManager()

	dead := domain.NewProxy("10.0.0.1:8080", "http")
	dead.Status = domain.ProxyStatusDead
	m.AddProxy(dead)

	_, err := m.AcquireProxy(context.Background())
	if !errors.Is(err, ErrResourceUnavailable) {
		t.Errorf("expected ErrResourceUnavailable, got %v", err)
	}
}

func TestReportProxy_DemotionLadder(t *testing.T) {
	m := New(Config{ProxyDemotionThreshold: 3, ProxyDeathThreshold: 3})

	p := domain.NewProxy("10.0.0.1:8080", "http")
	p.RecordSuccess(time.Millisecond) // healthy
	m.AddProxy(p)

	ctx := context.Background()
	report := func(n int) {
		t.Helper()
		for i := 0; i < n; i++ {
			h, err := m.AcquireProxy(ctx)
			if err != nil {
				t.Fatalf("acquire failed: %v", err)
			}
			if err := m.ReportProxy(ctx, h, false, 0, "timeout"); err != nil {
				t.Fatalf("report failed: %v", err)
			}
			if err := m.ReleaseProxy(ctx, h); err != nil {
				t.Fatalf("release failed: %v", err)
			}
		}
	}

	report(3)
	if p.Status != domain.ProxyStatusDegraded {
		t.Fatalf("expected DEGRADED after 3 failures, got %s", p.Status)
	}

	report(3)
	if p.Status != domain.ProxyStatusDead {
		t.Fatalf("expected DEAD after 3 more failures, got %s", p.Status)
	}

	// dead прокси никогда не выдаётся
	if _, err := m.AcquireProxy(ctx); !errors.Is(err, ErrResourceUnavailable) {
		t.Errorf("expected dead proxy excluded, got %v", err)
	}
}

func TestReportProxy_SuccessPromotes(t *testing.T) {
	m := newTestManager()

	p := domain.NewProxy("10.0.0.1:8080", "http")
	m.AddProxy(p)

	ctx := context.Background()
	h, _ := m.AcquireProxy(ctx)
	if err := m.ReportProxy(ctx, h, true, 120*time.Millisecond, ""); err != nil {
		t.Fatalf("report failed: %v", err)
	}

	if p.Status != domain.ProxyStatusHealthy {
		t.Errorf("expected HEALTHY after success, got %s", p.Status)
	}
	if p.LastLatency != 120*time.Millisecond {
		t.Errorf("expected latency recorded, got %v", p.LastLatency)
	}
}

// --- Provisioning Tests ---

type fakeStore struct {
	mu               sync.Mutex
	insertedAccounts []string
	insertedProxies  []string
	insertErr        error
}

func (s *fakeStore) InsertAccount(_ context.Context, acc *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	s.insertedAccounts = append(s.insertedAccounts, acc.Email)
	return nil
}

func (s *fakeStore) UpdateAccount(context.Context, *domain.Account) error { return nil }

func (s *fakeStore) InsertProxy(_ context.Context, p *domain.Proxy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	s.insertedProxies = append(s.insertedProxies, p.Address)
	return nil
}

func (s *fakeStore) UpdateProxy(context.Context, *domain.Proxy) error { return nil }

func TestProvisionAccount_Persists(t *testing.T) {
	store := &fakeStore{}
	m := New(Config{Store: store})

	acc := domain.NewAccount("nike", "a@example.com", "secret")
	if err := m.ProvisionAccount(context.Background(), acc); err != nil {
		t.Fatalf("provision failed: %v", err)
	}

	if len(store.insertedAccounts) != 1 || store.insertedAccounts[0] != "a@example.com" {
		t.Errorf("expected account written to store, got %v", store.insertedAccounts)
	}
	if _, err := m.AcquireAccount(context.Background(), "nike"); err != nil {
		t.Errorf("provisioned account not acquirable: %v", err)
	}
}

func TestProvisionAccount_StoreErrorRollsBack(t *testing.T) {
	storeErr := errors.New("connection refused")
	m := New(Config{Store: &fakeStore{insertErr: storeErr}})

	acc := domain.NewAccount("nike", "a@example.com", "secret")
	err := m.ProvisionAccount(context.Background(), acc)
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store error propagated, got %v", err)
	}

	// Незафиксированный аккаунт не должен остаться в пуле
	if got := m.Accounts("nike"); len(got) != 0 {
		t.Errorf("expected rollback, pool still holds %d accounts", len(got))
	}
}

func TestProvisionProxy_Persists(t *testing.T) {
	store := &fakeStore{}
	m := New(Config{Store: store})

	p := domain.NewProxy("10.0.0.1:8080", "http")
	if err := m.ProvisionProxy(context.Background(), p); err != nil {
		t.Fatalf("provision failed: %v", err)
	}

	if len(store.insertedProxies) != 1 || store.insertedProxies[0] != "10.0.0.1:8080" {
		t.Errorf("expected proxy written to store, got %v", store.insertedProxies)
	}
	if _, err := m.AcquireProxy(context.Background()); err != nil {
		t.Errorf("provisioned proxy not acquirable: %v", err)
	}
}

func TestProvisionProxy_StoreErrorRollsBack(t *testing.T) {
	storeErr := errors.New("connection refused")
	m := New(Config{Store: &fakeStore{insertErr: storeErr}})

	err := m.ProvisionProxy(context.Background(), domain.NewProxy("10.0.0.1:8080", "http"))
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store error propagated, got %v", err)
	}
	if got := m.Proxies(); len(got) != 0 {
		t.Errorf("expected rollback, pool still holds %d proxies", len(got))
	}
}

func TestRelease_UnknownHandle(t *testing.T) {
	m := newTestManager()

	err := m.ReleaseAccount(context.Background(), AccountHandle{ID: uuid.New()})
	if !errors.Is(err, ErrUnknownResource) {
		t.Errorf("expected ErrUnknownResource, got %v", err)
	}
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Proxy — сетевой прокси из пула ресурсов.
//
// Создаётся из конфигурируемого списка (см. pool.ParseProxyList),
// изменяется health-тестами и обратной связью от задач.
type Proxy struct {
	// ID — уникальный идентификатор прокси.
	ID uuid.UUID `json:"id"`

	// Address — адрес host:port.
	Address string `json:"address"`

	// Protocol — протокол: "http", "socks4", "socks5".
	Protocol string `json:"protocol"`

	// Username, Password — опциональные inline-credentials из списка.
	Username string `json:"-"`
	Password string `json:"-"`

	// Status — текущий статус здоровья.
	Status ProxyStatus `json:"status"`

	// Successes — счётчик успешных использований.
	Successes int `json:"successes"`

	// Failures — счётчик неудачных использований.
	Failures int `json:"failures"`

	// ConsecutiveFailures — подряд идущие неудачи.
	ConsecutiveFailures int `json:"consecutive_failures"`

	// LastLatency — время ответа при последнем использовании.
	LastLatency time.Duration `json:"last_latency_ms"`

	// LastTestedAt — время последней проверки или использования.
	LastTestedAt *time.Time `json:"last_tested_at,omitempty"`

	// CreatedAt — время добавления в пул.
	CreatedAt time.Time `json:"created_at"`
}

// NewProxy создаёт непроверенный прокси.
func NewProxy(address, protocol string) *Proxy {
	if protocol == "" {
		protocol = "http"
	}
	return &Proxy{
		ID:        uuid.New(),
		Address:   address,
		Protocol:  protocol,
		Status:    ProxyStatusUntested,
		CreatedAt: time.Now(),
	}
}

// URL возвращает адрес в виде protocol://[user:pass@]host:port.
func (p *Proxy) URL() string {
	auth := ""
	if p.Username != "" {
		auth = p.Username + ":" + p.Password + "@"
	}
	return p.Protocol + "://" + auth + p.Address
}

// MarkTested обновляет время последней проверки.
func (p *Proxy) MarkTested() {
	now := time.Now()
	p.LastTestedAt = &now
}

// RecordSuccess фиксирует успешное использование: сбрасывает серию
// неудач и возвращает UNTESTED/DEGRADED прокси в HEALTHY.
// DEAD прокси успехом не воскрешается.
func (p *Proxy) RecordSuccess(latency time.Duration) {
	p.Successes++
	p.ConsecutiveFailures = 0
	p.LastLatency = latency
	if p.Status == ProxyStatusUntested || p.Status == ProxyStatusDegraded || p.Status == ProxyStatusHealthy {
		p.Status = ProxyStatusHealthy
	}
}

// RecordFailure фиксирует неудачу и применяет прогрессивное понижение:
// после degradeThreshold подряд идущих неудач — DEGRADED, после ещё
// deathThreshold неудач в DEGRADED — DEAD. Возвращает true, если
// статус изменился.
func (p *Proxy) RecordFailure(degradeThreshold, deathThreshold int) bool {
	p.Failures++
	p.ConsecutiveFailures++

	switch p.Status {
	case ProxyStatusHealthy, ProxyStatusUntested:
		if degradeThreshold > 0 && p.ConsecutiveFailures >= degradeThreshold {
			p.Status = ProxyStatusDegraded
			p.ConsecutiveFailures = 0
			return true
		}
	case ProxyStatusDegraded:
		if deathThreshold > 0 && p.ConsecutiveFailures >= deathThreshold {
			p.Status = ProxyStatusDead
			return true
		}
	}
	return false
}

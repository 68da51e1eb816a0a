package domain

import (
	"time"

	"github.com/google/uuid"
)

// Account — аккаунт платформы из пула ресурсов.
//
// Создаётся внешним провижинингом, изменяется Pool Manager'ом
// при выдаче/возврате и по итогам задач. Ядро никогда не удаляет
// аккаунты: деактивация — это смена статуса.
type Account struct {
	// ID — уникальный идентификатор аккаунта.
	ID uuid.UUID `json:"id"`

	// Platform — платформа, к которой относится аккаунт.
	Platform string `json:"platform"`

	// Email — логин аккаунта.
	Email string `json:"email"`

	// Credentials — непрозрачный credential blob (пароль, cookie, токены).
	// Ядро его не интерпретирует, только передаёт адаптеру платформы.
	Credentials string `json:"-"`

	// Status — текущий статус.
	Status AccountStatus `json:"status"`

	// Successes — счётчик успешных задач.
	Successes int `json:"successes"`

	// Failures — счётчик неудачных задач.
	Failures int `json:"failures"`

	// ConsecutiveFailures — подряд идущие неудачи.
	// Сбрасывается любым успехом; используется для понижения.
	ConsecutiveFailures int `json:"consecutive_failures"`

	// LastUsedAt — время последней выдачи.
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`

	// CreatedAt — время создания записи.
	CreatedAt time.Time `json:"created_at"`
}

// NewAccount создаёт активный аккаунт.
func NewAccount(platform, email, credentials string) *Account {
	return &Account{
		ID:          uuid.New(),
		Platform:    platform,
		Email:       email,
		Credentials: credentials,
		Status:      AccountStatusActive,
		CreatedAt:   time.Now(),
	}
}

// MarkUsed обновляет время последней выдачи.
func (a *Account) MarkUsed() {
	now := time.Now()
	a.LastUsedAt = &now
}

// RecordSuccess фиксирует успешную задачу и сбрасывает серию неудач.
func (a *Account) RecordSuccess() {
	a.Successes++
	a.ConsecutiveFailures = 0
}

// RecordFailure фиксирует неудачу. Когда серия достигает threshold,
// аккаунт понижается до DEGRADED. Возвращает true при понижении.
func (a *Account) RecordFailure(threshold int) bool {
	a.Failures++
	a.ConsecutiveFailures++
	if a.Status == AccountStatusActive && threshold > 0 && a.ConsecutiveFailures >= threshold {
		a.Status = AccountStatusDegraded
		return true
	}
	return false
}

// Deactivate отключает аккаунт вручную.
func (a *Account) Deactivate() {
	a.Status = AccountStatusInactive
}

// Reactivate возвращает аккаунт в ACTIVE и обнуляет серию неудач.
func (a *Account) Reactivate() {
	a.Status = AccountStatusActive
	a.ConsecutiveFailures = 0
}

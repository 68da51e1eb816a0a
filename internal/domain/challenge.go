package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChallengeParams — параметры CAPTCHA, обнаруженной адаптером платформы.
type ChallengeParams struct {
	// Type — тип капчи: "recaptcha_v2", "recaptcha_v3", "hcaptcha".
	Type string `json:"type"`

	// SiteKey — site key со страницы.
	SiteKey string `json:"site_key"`

	// PageURL — URL страницы, на которой появилась капча.
	PageURL string `json:"page_url"`
}

// CaptchaChallenge — один challenge в рамках одного шага задачи.
//
// Challenge живёт не дольше породившего его шага: при retry шага
// создаётся новый экземпляр. Client никогда не переиспользует
// challenge после терминального состояния.
type CaptchaChallenge struct {
	// ID — уникальный идентификатор challenge.
	ID uuid.UUID `json:"id"`

	// TaskID — задача, которой принадлежит challenge.
	TaskID uuid.UUID `json:"task_id"`

	// Params — параметры для решения.
	Params ChallengeParams `json:"params"`

	// State — текущее состояние.
	State ChallengeState `json:"state"`

	// RemoteID — идентификатор, выданный внешним solver-сервисом.
	RemoteID string `json:"remote_id,omitempty"`

	// Token — токен решения.
	Token string `json:"token,omitempty"`

	// Cost — стоимость решения в долларах. Ноль для ручного режима.
	Cost float64 `json:"cost"`

	// Error — текст ошибки при FAILED.
	Error string `json:"error,omitempty"`

	// CreatedAt — время обнаружения капчи.
	CreatedAt time.Time `json:"created_at"`

	// SolvedAt — время получения терминального состояния.
	SolvedAt *time.Time `json:"solved_at,omitempty"`
}

// NewCaptchaChallenge создаёт challenge в состоянии PENDING.
func NewCaptchaChallenge(taskID uuid.UUID, params ChallengeParams) *CaptchaChallenge {
	return &CaptchaChallenge{
		ID:        uuid.New(),
		TaskID:    taskID,
		Params:    params,
		State:     ChallengeStatePending,
		CreatedAt: time.Now(),
	}
}

// SolveDuration возвращает время от создания до терминального состояния.
func (c *CaptchaChallenge) SolveDuration() time.Duration {
	if c.SolvedAt == nil {
		return 0
	}
	return c.SolvedAt.Sub(c.CreatedAt)
}

// MarkSubmitted фиксирует принятую сервисом отправку.
func (c *CaptchaChallenge) MarkSubmitted(remoteID string) {
	c.State = ChallengeStateSubmitted
	c.RemoteID = remoteID
}

// MarkPolling переводит challenge в ожидание решения от сервиса.
func (c *CaptchaChallenge) MarkPolling() {
	c.State = ChallengeStatePolling
}

// MarkAwaitingOperator переводит challenge в ожидание оператора.
func (c *CaptchaChallenge) MarkAwaitingOperator() {
	c.State = ChallengeStateAwaitingOperator
}

// MarkSolved фиксирует решение с токеном и стоимостью.
func (c *CaptchaChallenge) MarkSolved(token string, cost float64) {
	now := time.Now()
	c.State = ChallengeStateSolved
	c.Token = token
	c.Cost = cost
	c.SolvedAt = &now
}

// MarkFailed фиксирует отказ сервиса или оператора.
func (c *CaptchaChallenge) MarkFailed(errText string) {
	now := time.Now()
	c.State = ChallengeStateFailed
	c.Error = errText
	c.SolvedAt = &now
}

// MarkTimedOut фиксирует истечение максимального времени ожидания.
func (c *CaptchaChallenge) MarkTimedOut() {
	now := time.Now()
	c.State = ChallengeStateTimedOut
	c.SolvedAt = &now
}

// MarkCancelled фиксирует отмену в ручном режиме.
func (c *CaptchaChallenge) MarkCancelled() {
	now := time.Now()
	c.State = ChallengeStateCancelled
	c.SolvedAt = &now
}

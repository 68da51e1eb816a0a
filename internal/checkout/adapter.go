package checkout

import (
	"context"

	"github.com/shaiso/Copflow/internal/domain"
)

// Outcome — исход одного вызова шага адаптера.
type Outcome string

const (
	// OutcomeSuccess — шаг выполнен, можно переходить дальше.
	OutcomeSuccess Outcome = "success"

	// OutcomeNotFound — товар или размер не существует. Терминально.
	OutcomeNotFound Outcome = "not_found"

	// OutcomeChallengeRequired — платформа показала CAPTCHA.
	// StepResult.Challenge содержит параметры challenge.
	OutcomeChallengeRequired Outcome = "challenge_required"

	// OutcomeTransientError — временный сбой, шаг можно повторить.
	OutcomeTransientError Outcome = "transient_error"

	// OutcomeFatalError — невосстановимый сбой. Терминально.
	OutcomeFatalError Outcome = "fatal_error"
)

// StepResult — результат одного вызова шага.
type StepResult struct {
	// Outcome — исход вызова.
	Outcome Outcome

	// Challenge — параметры CAPTCHA (только для challenge_required).
	Challenge *domain.ChallengeParams

	// Detail — человекочитаемая деталь исхода.
	Detail string
}

// Session — контекст одной задачи, с которым конструируется адаптер:
// выданный аккаунт и прокси. Ядро не интерпретирует credentials,
// только передаёт их адаптеру.
type Session struct {
	Platform    string
	Email       string
	Credentials string

	// ProxyURL — полный URL прокси (protocol://[user:pass@]host:port).
	// Пустая строка означает прямое соединение.
	ProxyURL string
}

// PlatformAdapter — реализация шагов checkout для одной платформы.
//
// Адаптер создаётся на каждую задачу и не переиспользуется.
// Все методы должны проверять ctx.Done() на блокирующих операциях.
type PlatformAdapter interface {
	// Authenticate выполняет вход под аккаунтом сессии.
	Authenticate(ctx context.Context) (StepResult, error)

	// LocateProduct находит товар по URL или поисковому запросу.
	LocateProduct(ctx context.Context, ref string) (StepResult, error)

	// SelectSize выбирает размер найденного товара.
	SelectSize(ctx context.Context, size string) (StepResult, error)

	// AddToCart кладёт выбранный товар в корзину.
	AddToCart(ctx context.Context) (StepResult, error)

	// ReachCheckout доводит сессию до страницы оплаты.
	ReachCheckout(ctx context.Context) (StepResult, error)

	// NeedsQueue сообщает, использует ли платформа очередь входа.
	NeedsQueue() bool

	// ProbeQueue опрашивает очередь входа: success — допущены,
	// transient_error — всё ещё в очереди.
	ProbeQueue(ctx context.Context) (StepResult, error)

	// SubmitChallengeToken передаёт платформе токен решённой CAPTCHA.
	SubmitChallengeToken(ctx context.Context, token string) error
}

package api

// CreateAccountRequest — тело запроса на добавление аккаунта в пул.
type CreateAccountRequest struct {
	Platform    string `json:"platform"`
	Email       string `json:"email"`
	Credentials string `json:"credentials"`
}

// CreateProxyRequest — тело запроса на добавление прокси в пул.
type CreateProxyRequest struct {
	Address  string `json:"address"`
	Protocol string `json:"protocol"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// CreateReleaseRequest — тело запроса на регистрацию релиза.
// Задаётся либо cron-выражение, либо интервал в секундах.
type CreateReleaseRequest struct {
	Platform    string `json:"platform"`
	Product     string `json:"product"`
	Size        string `json:"size,omitempty"`
	CronExpr    string `json:"cron_expr,omitempty"`
	IntervalSec int    `json:"interval_sec,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
	MaxRuns     int    `json:"max_runs,omitempty"`
}

// CaptchaTokenRequest — токен, введённый оператором для challenge.
type CaptchaTokenRequest struct {
	Token string `json:"token"`
}

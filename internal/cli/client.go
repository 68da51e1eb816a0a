package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// --- Response types (дублируются из api, CLI не импортирует internal/api) ---

// TaskResponse — задача чекаута из API.
type TaskResponse struct {
	ID         string `json:"id"`
	Platform   string `json:"platform"`
	Product    string `json:"product"`
	Size       string `json:"size,omitempty"`
	State      string `json:"state"`
	Result     string `json:"result,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Error      string `json:"error,omitempty"`
	Attempt    int    `json:"attempt"`
	CreatedAt  string `json:"created_at"`
	StartedAt  string `json:"started_at,omitempty"`
	FinishedAt string `json:"finished_at,omitempty"`
	DurationMs int64  `json:"duration_ms,omitempty"`
}

// AccountResponse — аккаунт пула из API.
type AccountResponse struct {
	ID                  string `json:"id"`
	Platform            string `json:"platform"`
	Email               string `json:"email"`
	Status              string `json:"status"`
	Successes           int    `json:"successes"`
	Failures            int    `json:"failures"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
	LastUsedAt          string `json:"last_used_at,omitempty"`
}

// ProxyResponse — прокси пула из API.
type ProxyResponse struct {
	ID        string `json:"id"`
	Address   string `json:"address"`
	Protocol  string `json:"protocol"`
	Status    string `json:"status"`
	Successes int    `json:"successes"`
	Failures  int    `json:"failures"`
}

// ReleaseResponse — релиз планировщика из API.
type ReleaseResponse struct {
	ID          string `json:"id"`
	Platform    string `json:"platform"`
	Product     string `json:"product"`
	Size        string `json:"size,omitempty"`
	CronExpr    string `json:"cron_expr,omitempty"`
	IntervalSec int    `json:"interval_sec,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
	Enabled     bool   `json:"enabled"`
	MaxRuns     int    `json:"max_runs,omitempty"`
	Runs        int    `json:"runs"`
	NextDueAt   string `json:"next_due_at,omitempty"`
}

// SummaryResponse — сводка платформы из API.
type SummaryResponse struct {
	Platform               string  `json:"platform"`
	WindowDays             int     `json:"window_days"`
	Attempts               int     `json:"attempts"`
	Successes              int     `json:"successes"`
	Failures               int     `json:"failures"`
	Cancellations          int     `json:"cancellations"`
	SuccessRate            float64 `json:"success_rate"`
	MeanDurationMs         float64 `json:"mean_duration_ms"`
	ChallengeEncounterRate float64 `json:"challenge_encounter_rate"`
	ChallengeSolveRate     float64 `json:"challenge_solve_rate"`
	DetectionRate          float64 `json:"detection_rate"`
	CaptchaCost            float64 `json:"captcha_cost"`
}

// --- Request types ---

// SubmitTaskRequest — постановка задачи чекаута.
type SubmitTaskRequest struct {
	Platform string `json:"platform"`
	Product  string `json:"product"`
	Size     string `json:"size,omitempty"`
}

// CreateAccountRequest — добавление аккаунта.
type CreateAccountRequest struct {
	Platform    string `json:"platform"`
	Email       string `json:"email"`
	Credentials string `json:"credentials"`
}

// CreateProxyRequest — добавление прокси.
type CreateProxyRequest struct {
	Address  string `json:"address"`
	Protocol string `json:"protocol,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// CreateReleaseRequest — регистрация релиза.
type CreateReleaseRequest struct {
	Platform    string `json:"platform"`
	Product     string `json:"product"`
	Size        string `json:"size,omitempty"`
	CronExpr    string `json:"cron_expr,omitempty"`
	IntervalSec int    `json:"interval_sec,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
	MaxRuns     int    `json:"max_runs,omitempty"`
}

// CaptchaTokenRequest — токен оператора.
type CaptchaTokenRequest struct {
	Token string `json:"token"`
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для Copflow API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Tasks ---

// SubmitTask ставит задачу чекаута в очередь.
func (c *Client) SubmitTask(req SubmitTaskRequest) (*TaskResponse, error) {
	var task TaskResponse
	err := c.post("/api/v1/tasks", req, &task)
	return &task, err
}

// ListTasks возвращает все задачи.
func (c *Client) ListTasks() ([]TaskResponse, error) {
	var tasks []TaskResponse
	err := c.list("/api/v1/tasks", nil, &tasks)
	return tasks, err
}

// GetTask возвращает задачу по ID.
func (c *Client) GetTask(id string) (*TaskResponse, error) {
	var task TaskResponse
	err := c.get("/api/v1/tasks/"+id, &task)
	return &task, err
}

// CancelTask отменяет задачу.
func (c *Client) CancelTask(id string) error {
	return c.post("/api/v1/tasks/"+id+"/cancel", nil, nil)
}

// --- Analytics ---

// GetSummary возвращает сводку платформы.
func (c *Client) GetSummary(platform string, days int) (*SummaryResponse, error) {
	params := url.Values{}
	if days > 0 {
		params.Set("days", fmt.Sprintf("%d", days))
	}
	path := "/api/v1/platforms/" + platform + "/summary"
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	var summary SummaryResponse
	err := c.get(path, &summary)
	return &summary, err
}

// --- Resources ---

// ListAccounts возвращает аккаунты пула, опционально по платформе.
func (c *Client) ListAccounts(platform string) ([]AccountResponse, error) {
	params := url.Values{}
	if platform != "" {
		params.Set("platform", platform)
	}

	var accounts []AccountResponse
	err := c.list("/api/v1/resources/accounts", params, &accounts)
	return accounts, err
}

// CreateAccount добавляет аккаунт в пул.
func (c *Client) CreateAccount(req CreateAccountRequest) (*AccountResponse, error) {
	var acc AccountResponse
	err := c.post("/api/v1/resources/accounts", req, &acc)
	return &acc, err
}

// ReactivateAccount возвращает аккаунт в строй.
func (c *Client) ReactivateAccount(id string) error {
	return c.post("/api/v1/resources/accounts/"+id+"/reactivate", nil, nil)
}

// DeactivateAccount отключает аккаунт.
func (c *Client) DeactivateAccount(id string) error {
	return c.post("/api/v1/resources/accounts/"+id+"/deactivate", nil, nil)
}

// ListProxies возвращает все прокси пула.
func (c *Client) ListProxies() ([]ProxyResponse, error) {
	var proxies []ProxyResponse
	err := c.list("/api/v1/resources/proxies", nil, &proxies)
	return proxies, err
}

// CreateProxy добавляет прокси в пул.
func (c *Client) CreateProxy(req CreateProxyRequest) (*ProxyResponse, error) {
	var p ProxyResponse
	err := c.post("/api/v1/resources/proxies", req, &p)
	return &p, err
}

// --- Releases ---

// ListReleases возвращает зарегистрированные релизы.
func (c *Client) ListReleases() ([]ReleaseResponse, error) {
	var releases []ReleaseResponse
	err := c.list("/api/v1/releases", nil, &releases)
	return releases, err
}

// CreateRelease регистрирует релиз.
func (c *Client) CreateRelease(req CreateReleaseRequest) (*ReleaseResponse, error) {
	var rel ReleaseResponse
	err := c.post("/api/v1/releases", req, &rel)
	return &rel, err
}

// DeleteRelease снимает релиз с планирования.
func (c *Client) DeleteRelease(id string) error {
	return c.delete("/api/v1/releases/" + id)
}

// --- Captcha ---

// ProvideCaptchaToken передаёт токен оператора ожидающему challenge.
func (c *Client) ProvideCaptchaToken(challengeID, token string) error {
	return c.post("/api/v1/captcha/"+challengeID+"/token", CaptchaTokenRequest{Token: token}, nil)
}

// CancelCaptcha отклоняет challenge от имени оператора.
func (c *Client) CancelCaptcha(challengeID string) error {
	return c.post("/api/v1/captcha/"+challengeID+"/cancel", nil, nil)
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) delete(path string) error {
	resp, err := c.do(http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.checkError(resp)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if len(lr.Data) == 0 || string(lr.Data) == "null" {
		return nil
	}
	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}

package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shaiso/Copflow/internal/domain"
)

// PollState — состояние решения на стороне сервиса.
type PollState string

const (
	PollStatePending PollState = "pending"
	PollStateSolved  PollState = "solved"
	PollStateFailed  PollState = "failed"
)

// PollResult — ответ сервиса на опрос.
type PollResult struct {
	State PollState

	// Token — токен решения (только для solved).
	Token string

	// Cost — стоимость решения, если сервис её сообщил.
	Cost float64

	// Error — текст терминальной ошибки (только для failed).
	Error string
}

// Solver — внешний сервис решения CAPTCHA.
//
// Submit возвращает идентификатор принятого challenge или ошибку
// отклонения. Poll опрашивается до solved/failed или до дедлайна
// вызывающей стороны.
type Solver interface {
	Submit(ctx context.Context, params domain.ChallengeParams) (string, error)
	Poll(ctx context.Context, remoteID string) (PollResult, error)
}

const defaultSolverTimeout = 30 * time.Second

// HTTPSolver — клиент solver-сервиса с 2captcha-совместимым API:
// POST /in.php — отправка, GET /res.php — опрос.
type HTTPSolver struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPSolver создаёт HTTPSolver.
func NewHTTPSolver(baseURL, apiKey string) *HTTPSolver {
	return &HTTPSolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: defaultSolverTimeout,
		},
	}
}

// solverResponse — конверт ответа сервиса (json=1).
type solverResponse struct {
	Status  int    `json:"status"`
	Request string `json:"request"`
}

// Submit отправляет challenge на решение.
func (s *HTTPSolver) Submit(ctx context.Context, params domain.ChallengeParams) (string, error) {
	form := url.Values{}
	form.Set("key", s.apiKey)
	form.Set("method", solverMethod(params.Type))
	form.Set("googlekey", params.SiteKey)
	form.Set("pageurl", params.PageURL)
	form.Set("json", "1")

	resp, err := s.postForm(ctx, s.baseURL+"/in.php", form)
	if err != nil {
		return "", err
	}
	if resp.Status != 1 {
		return "", fmt.Errorf("%w: %s", ErrChallengeFailed, resp.Request)
	}
	return resp.Request, nil
}

// Poll опрашивает результат решения.
func (s *HTTPSolver) Poll(ctx context.Context, remoteID string) (PollResult, error) {
	q := url.Values{}
	q.Set("key", s.apiKey)
	q.Set("action", "get")
	q.Set("id", remoteID)
	q.Set("json", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/res.php?"+q.Encode(), nil)
	if err != nil {
		return PollResult{}, fmt.Errorf("build poll request: %w", err)
	}

	resp, err := s.do(req)
	if err != nil {
		return PollResult{}, err
	}

	switch {
	case resp.Status == 1:
		return PollResult{State: PollStateSolved, Token: resp.Request}, nil
	case resp.Request == "CAPCHA_NOT_READY":
		return PollResult{State: PollStatePending}, nil
	default:
		return PollResult{State: PollStateFailed, Error: resp.Request}, nil
	}
}

func (s *HTTPSolver) postForm(ctx context.Context, rawURL string, form url.Values) (*solverResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(req)
}

func (s *HTTPSolver) do(req *http.Request) (*solverResponse, error) {
	httpResp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("solver request: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read solver response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("solver returned HTTP %d", httpResp.StatusCode)
	}

	var resp solverResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode solver response: %w", err)
	}
	return &resp, nil
}

// solverMethod переводит тип капчи в метод API сервиса.
func solverMethod(captchaType string) string {
	switch captchaType {
	case "hcaptcha":
		return "hcaptcha"
	case "recaptcha_v3":
		return "userrecaptcha" // v3 идёт тем же методом с version=v3 у сервиса
	default:
		return "userrecaptcha"
	}
}

package config

import (
	"os"
	"strconv"
	"time"
)

// Значения по умолчанию.
//
// Пороговые значения и константы backoff — настройки, не поведение:
// разумные инженерные дефолты, переопределяемые окружением.
const (
	defaultWorkers           = 5
	defaultQueueCapacity     = 50
	defaultStepMaxAttempts   = 3
	defaultStepBackoffBase   = time.Second
	defaultStepBackoffMax    = 60 * time.Second
	defaultStepBackoffFactor = 2.0
	defaultTaskTimeout       = 15 * time.Minute
	defaultTaskMaxAttempts   = 3
	defaultTaskRetryDelay    = 5 * time.Second

	defaultCaptchaMode         = "auto"
	defaultCaptchaPollInterval = 5 * time.Second
	defaultCaptchaMaxWait      = 120 * time.Second
	defaultCaptchaCost         = 0.003

	defaultQueuePollInterval = 5 * time.Second
	defaultQueueMaxWait      = 10 * time.Minute

	defaultAccountDemotionThreshold = 3
	defaultProxyDemotionThreshold   = 3
	defaultProxyDeathThreshold      = 3

	defaultHTTPPort = "8080"
)

// Config — конфигурация всех компонентов.
//
// Загружается один раз при старте процесса из переменных окружения
// и передаётся компонентам явно. Глобального состояния нет.
type Config struct {
	// Orchestrator
	Workers         int           // WORKERS — размер пула воркеров
	QueueCapacity   int           // QUEUE_CAPACITY — ёмкость очереди задач
	TaskTimeout     time.Duration // TASK_TIMEOUT — wall-clock бюджет задачи
	TaskMaxAttempts int           // TASK_MAX_ATTEMPTS — попытки задачи целиком
	TaskRetryDelay  time.Duration // TASK_RETRY_DELAY — пауза перед re-enqueue

	// Checkout state machine
	StepMaxAttempts   int           // STEP_MAX_ATTEMPTS — попытки одного шага
	StepBackoffBase   time.Duration // STEP_BACKOFF_BASE
	StepBackoffMax    time.Duration // STEP_BACKOFF_MAX
	StepBackoffFactor float64       // STEP_BACKOFF_FACTOR
	QueuePollInterval time.Duration // QUEUE_POLL_INTERVAL — проба очереди платформы
	QueueMaxWait      time.Duration // QUEUE_MAX_WAIT — максимум ожидания допуска

	// CAPTCHA
	CaptchaMode         string        // CAPTCHA_MODE — "auto" | "manual"
	CaptchaAPIURL       string        // CAPTCHA_API_URL — база solver-сервиса
	CaptchaAPIKey       string        // CAPTCHA_API_KEY
	CaptchaPollInterval time.Duration // CAPTCHA_POLL_INTERVAL
	CaptchaMaxWait      time.Duration // CAPTCHA_MAX_WAIT
	CaptchaCost         float64       // CAPTCHA_COST — цена решения, если сервис её не вернул

	// Resource pool
	AccountDemotionThreshold int    // ACCOUNT_DEMOTION_THRESHOLD
	ProxyDemotionThreshold   int    // PROXY_DEMOTION_THRESHOLD
	ProxyDeathThreshold      int    // PROXY_DEATH_THRESHOLD
	ProxyFile                string // PROXY_FILE — путь к списку прокси

	// Внешние сервисы
	DatabaseURL string // DB_URL — PostgreSQL; пусто = только in-memory
	RabbitURL   string // RABBITMQ_URL — AMQP sink; пусто = выключен
	WebhookURL  string // WEBHOOK_URL — webhook sink; пусто = выключен

	// Уведомления
	NotifyOnSuccess bool // NOTIFY_ON_SUCCESS (default true)
	NotifyOnFailure bool // NOTIFY_ON_FAILURE (default true)

	// HTTP
	HTTPPort string // HTTP_PORT
}

// Load читает конфигурацию из окружения, подставляя дефолты.
func Load() *Config {
	return &Config{
		Workers:         envInt("WORKERS", defaultWorkers),
		QueueCapacity:   envInt("QUEUE_CAPACITY", defaultQueueCapacity),
		TaskTimeout:     envDuration("TASK_TIMEOUT", defaultTaskTimeout),
		TaskMaxAttempts: envInt("TASK_MAX_ATTEMPTS", defaultTaskMaxAttempts),
		TaskRetryDelay:  envDuration("TASK_RETRY_DELAY", defaultTaskRetryDelay),

		StepMaxAttempts:   envInt("STEP_MAX_ATTEMPTS", defaultStepMaxAttempts),
		StepBackoffBase:   envDuration("STEP_BACKOFF_BASE", defaultStepBackoffBase),
		StepBackoffMax:    envDuration("STEP_BACKOFF_MAX", defaultStepBackoffMax),
		StepBackoffFactor: envFloat("STEP_BACKOFF_FACTOR", defaultStepBackoffFactor),
		QueuePollInterval: envDuration("QUEUE_POLL_INTERVAL", defaultQueuePollInterval),
		QueueMaxWait:      envDuration("QUEUE_MAX_WAIT", defaultQueueMaxWait),

		CaptchaMode:         envString("CAPTCHA_MODE", defaultCaptchaMode),
		CaptchaAPIURL:       envString("CAPTCHA_API_URL", "http://2captcha.com"),
		CaptchaAPIKey:       os.Getenv("CAPTCHA_API_KEY"),
		CaptchaPollInterval: envDuration("CAPTCHA_POLL_INTERVAL", defaultCaptchaPollInterval),
		CaptchaMaxWait:      envDuration("CAPTCHA_MAX_WAIT", defaultCaptchaMaxWait),
		CaptchaCost:         envFloat("CAPTCHA_COST", defaultCaptchaCost),

		AccountDemotionThreshold: envInt("ACCOUNT_DEMOTION_THRESHOLD", defaultAccountDemotionThreshold),
		ProxyDemotionThreshold:   envInt("PROXY_DEMOTION_THRESHOLD", defaultProxyDemotionThreshold),
		ProxyDeathThreshold:      envInt("PROXY_DEATH_THRESHOLD", defaultProxyDeathThreshold),
		ProxyFile:                os.Getenv("PROXY_FILE"),

		DatabaseURL: os.Getenv("DB_URL"),
		RabbitURL:   os.Getenv("RABBITMQ_URL"),
		WebhookURL:  os.Getenv("WEBHOOK_URL"),

		NotifyOnSuccess: envBool("NOTIFY_ON_SUCCESS", true),
		NotifyOnFailure: envBool("NOTIFY_ON_FAILURE", true),

		HTTPPort: envString("HTTP_PORT", defaultHTTPPort),
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}

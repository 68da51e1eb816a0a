// Copflow daemon — ядро автоматизации чекаута.
//
// Поднимает пул ресурсов, оркестратор задач, планировщик релизов
// и HTTP API. PostgreSQL, RabbitMQ и webhook опциональны: без них
// демон работает в in-memory режиме.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shaiso/Copflow/internal/analytics"
	"github.com/shaiso/Copflow/internal/api"
	"github.com/shaiso/Copflow/internal/captcha"
	"github.com/shaiso/Copflow/internal/checkout"
	"github.com/shaiso/Copflow/internal/config"
	"github.com/shaiso/Copflow/internal/notify"
	"github.com/shaiso/Copflow/internal/orchestrator"
	"github.com/shaiso/Copflow/internal/pool"
	"github.com/shaiso/Copflow/internal/repo"
	"github.com/shaiso/Copflow/internal/scheduler"
	"github.com/shaiso/Copflow/internal/telemetry"
)

var startTime = time.Now()

func main() {
	logger := telemetry.SetupLogger()
	logger.Info("starting copflow")

	cfg := config.Load()
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// PostgreSQL опционален: без DB_URL состояние живёт в памяти.
	var (
		eventRepo     *repo.EventRepo
		taskRepo      *repo.TaskRepo
		accountRepo   *repo.AccountRepo
		proxyRepo     *repo.ProxyRepo
		resourceStore *repo.ResourceStore
	)
	if cfg.DatabaseURL != "" {
		db, err := repo.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		logger.Info("connected to database")

		eventRepo = repo.NewEventRepo(db)
		taskRepo = repo.NewTaskRepo(db)
		accountRepo = repo.NewAccountRepo(db)
		proxyRepo = repo.NewProxyRepo(db)
		resourceStore = repo.NewResourceStore(db)
	} else {
		logger.Warn("DB_URL is not set, running in-memory only")
	}

	// Пул ресурсов.
	poolCfg := pool.Config{
		AccountDemotionThreshold: cfg.AccountDemotionThreshold,
		ProxyDemotionThreshold:   cfg.ProxyDemotionThreshold,
		ProxyDeathThreshold:      cfg.ProxyDeathThreshold,
		Logger:                   logger,
	}
	if resourceStore != nil {
		poolCfg.Store = resourceStore
	}
	pm := pool.New(poolCfg)

	if accountRepo != nil {
		accounts, err := accountRepo.ListAll(ctx)
		if err != nil {
			logger.Error("failed to load accounts", "error", err)
		}
		for i := range accounts {
			pm.AddAccount(&accounts[i])
		}
		logger.Info("accounts loaded", "count", len(accounts))
	}
	if proxyRepo != nil {
		proxies, err := proxyRepo.List(ctx, "")
		if err != nil {
			logger.Error("failed to load proxies", "error", err)
		}
		for i := range proxies {
			pm.AddProxy(&proxies[i])
		}
		logger.Info("proxies loaded", "count", len(proxies))
	}
	if cfg.ProxyFile != "" {
		proxies, err := pool.LoadProxyFile(cfg.ProxyFile)
		if err != nil {
			logger.Error("failed to load proxy file", "path", cfg.ProxyFile, "error", err)
		} else {
			for _, p := range proxies {
				if err := pm.ProvisionProxy(ctx, p); err != nil {
					logger.Error("failed to provision proxy", "address", p.Address, "error", err)
				}
			}
			logger.Info("proxy file loaded", "path", cfg.ProxyFile, "count", len(proxies))
		}
	}

	// CAPTCHA.
	gate := captcha.NewOperatorGate()
	captchaCfg := captcha.Config{
		Mode:         captcha.Mode(cfg.CaptchaMode),
		Gate:         gate,
		PollInterval: cfg.CaptchaPollInterval,
		MaxWait:      cfg.CaptchaMaxWait,
		DefaultCost:  cfg.CaptchaCost,
		Logger:       logger,
	}
	if cfg.CaptchaAPIKey != "" {
		captchaCfg.Solver = captcha.NewHTTPSolver(cfg.CaptchaAPIURL, cfg.CaptchaAPIKey)
	} else if captchaCfg.Mode == captcha.ModeAuto {
		logger.Warn("CAPTCHA_API_KEY is not set, auto captcha solving is disabled")
	}
	captchaClient := captcha.New(captchaCfg)

	// Аналитика.
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	recorderCfg := analytics.Config{
		Metrics: analytics.NewMetrics(registry),
		Logger:  logger,
	}
	if eventRepo != nil {
		recorderCfg.Store = eventRepo
	}
	recorder := analytics.NewRecorder(recorderCfg)

	// Уведомления.
	var sinks []notify.Sink
	if cfg.WebhookURL != "" {
		sinks = append(sinks, notify.NewWebhookSink(cfg.WebhookURL))
		logger.Info("webhook sink enabled")
	}
	if cfg.RabbitURL != "" {
		conn, err := notify.NewConnection(cfg.RabbitURL, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
		} else {
			defer conn.Close()
			sink, err := notify.NewAMQPSink(conn)
			if err != nil {
				logger.Error("failed to declare notify exchange", "error", err)
			} else {
				sinks = append(sinks, sink)
				logger.Info("amqp sink enabled")
			}
		}
	}
	notifier := notify.NewMulti(logger, sinks...)

	// Машина чекаута и оркестратор. Адаптеры платформ регистрируются
	// отдельными сборками, registry здесь пуст.
	adapters := checkout.NewRegistry()
	machine := checkout.NewMachine(checkout.Config{
		Captcha:         captchaClient,
		Recorder:        recorder,
		StepMaxAttempts: cfg.StepMaxAttempts,
		Backoff: checkout.Backoff{
			Base:   cfg.StepBackoffBase,
			Factor: cfg.StepBackoffFactor,
			Cap:    cfg.StepBackoffMax,
		},
		QueuePollInterval: cfg.QueuePollInterval,
		QueueMaxWait:      cfg.QueueMaxWait,
		Logger:            logger,
	})

	orchCfg := orchestrator.Config{
		Pool:            pm,
		Registry:        adapters,
		Machine:         machine,
		Recorder:        recorder,
		Notifier:        notifier,
		Workers:         cfg.Workers,
		QueueCapacity:   cfg.QueueCapacity,
		TaskTimeout:     cfg.TaskTimeout,
		TaskMaxAttempts: cfg.TaskMaxAttempts,
		TaskRetryDelay:  cfg.TaskRetryDelay,
		NotifyOnSuccess: cfg.NotifyOnSuccess,
		NotifyOnFailure: cfg.NotifyOnFailure,
		Logger:          logger,
	}
	if taskRepo != nil {
		orchCfg.Archive = taskRepo
	}
	orch := orchestrator.New(orchCfg)
	if err := orch.Start(ctx); err != nil {
		logger.Error("failed to start orchestrator", "error", err)
		os.Exit(1)
	}
	defer orch.Stop()

	// Планировщик релизов.
	sched := scheduler.New(scheduler.Config{
		Submitter: orch,
		Logger:    logger,
	})
	if err := sched.Start(ctx); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	// HTTP API.
	apiCfg := api.Config{
		Orchestrator: orch,
		Pool:         pm,
		Recorder:     recorder,
		Scheduler:    sched,
		Gate:         gate,
		Logger:       logger,
	}
	if taskRepo != nil {
		apiCfg.Archive = taskRepo
	}
	handler := api.NewHandler(apiCfg)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	handler.RegisterRoutes(mux)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: mux,
	}

	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}

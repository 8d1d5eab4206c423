package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hotel-guest-concierge/internal/config"
	"hotel-guest-concierge/internal/infra/adapters/ai"
	"hotel-guest-concierge/internal/infra/adapters/email"
	"hotel-guest-concierge/internal/infra/adapters/sheets"
	"hotel-guest-concierge/internal/infra/api"
	pg "hotel-guest-concierge/internal/infra/db/postgres"
	"hotel-guest-concierge/internal/infra/i18n"
	"hotel-guest-concierge/internal/infra/langfuse"
	"hotel-guest-concierge/internal/infra/logging"
	"hotel-guest-concierge/internal/infra/metrics"
	red "hotel-guest-concierge/internal/infra/redis"
	"hotel-guest-concierge/internal/infra/security"
	"hotel-guest-concierge/internal/infra/tracing"
	"hotel-guest-concierge/internal/infra/worker"
	"hotel-guest-concierge/internal/usecase"

	"hotel-guest-concierge/internal/domain/ports/adapter"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, noop email)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("developer mode enabled")
	}

	metrics.MustRegister()

	// ---- Tracing ----
	tracer, shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing.Endpoint, cfg.Tracing.ServiceName)
	if err != nil {
		logger.Fatal().Err(err).Msg("tracing setup failed")
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("tracing shutdown failed")
		}
	}()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()
	if err := pg.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("schema setup failed")
	}
	tenantRepo := pg.NewPostgresTenantRepo(pool, logger)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer redisClient.Close()

	var encSvc *security.EncryptionService
	if cfg.Session.EncryptionKey != "" {
		encSvc, err = security.NewEncryptionService(cfg.Session.EncryptionKey)
		if err != nil {
			logger.Fatal().Err(err).Msg("encryption setup failed")
		}
	}
	sessionStore := red.NewSessionStore(redisClient, cfg.Session.TTL, cfg.Session.Retention, encSvc)
	knowledgeCache := red.NewKnowledgeCache(redisClient, cfg.Knowledge.KeepFor)
	rateLimiter := red.NewRateLimiter(redisClient)

	var locker usecase.SessionLocker
	if cfg.Session.Lock {
		locker = red.NewLocker(redisClient)
	}

	// ---- Providers ----
	registry := ai.NewRegistry(
		ai.NewOpenAIAdapter(cfg.AI.OpenAIKey),
		ai.NewGeminiAdapter(ctx, cfg.AI.GeminiKey),
		ai.NewAnthropicAdapter(cfg.AI.AnthropicKey),
		ai.NewOpenRouterAdapter(cfg.AI.OpenRouterKey),
		ai.NewGroqAdapter(cfg.AI.GroqKey),
	)

	// ---- Knowledge and prompts ----
	knowledgeLoader := usecase.NewKnowledgeLoader(
		sheets.NewClient(), knowledgeCache, cfg.Knowledge.FreshFor, logger)
	promptProvider := langfuse.NewClient(
		cfg.Langfuse.BaseURL, cfg.Langfuse.PublicKey, cfg.Langfuse.SecretKey,
		cfg.Langfuse.CacheTTL, logger)
	if !promptProvider.IsConfigured() {
		logger.Info().Msg("prompt registry not configured, using built-in prompts")
	}

	// ---- Email ----
	var emailSender adapter.EmailSender
	if cfg.Email.BaseURL != "" && cfg.Email.APIKey != "" && !cfg.Runtime.Dev {
		emailSender = email.NewHTTPSender(cfg.Email.BaseURL, cfg.Email.APIKey, cfg.Email.From)
	} else {
		emailSender = email.NewNoopSender(logger)
	}
	workerPool := worker.NewPool(cfg.Email.Workers, logger)
	workerPool.Start(ctx)
	defer workerPool.Stop()

	// ---- Chat pipeline ----
	collector := usecase.NewDataCollector(
		promptProvider, tenantRepo, sessionStore, knowledgeLoader,
		cfg.Knowledge.DefaultSpreadsheetID, logger)
	chatSvc := usecase.NewChatService(
		collector, registry, sessionStore, emailSender, workerPool, locker, tracer,
		usecase.ChatConfig{
			Window:         cfg.Session.Window,
			CallTimeout:    cfg.Server.CallTimeout,
			TokenBudget:    cfg.Knowledge.TokenBudget,
			DefaultEmailTo: cfg.Email.DefaultTo,
			Dev:            cfg.Runtime.Dev,
		},
		logger)

	// ---- HTTP ----
	bundle, err := i18n.NewBundle(i18n.LocalesFS, "en", "pl")
	if err != nil {
		logger.Fatal().Err(err).Msg("locale bundle failed")
	}
	authMgr := api.NewAuthManager(cfg.Server.JWTSecret, 30*time.Minute)
	srv := api.NewServer(
		chatSvc, tenantRepo, authMgr, rateLimiter, bundle,
		cfg.Server.AdminAPIKey, cfg.Server.RateLimit, cfg.Server.RateWindow,
		logger)

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("http server listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// ---- Shutdown ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info().Msg("shutting down")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	if err := httpSrv.Shutdown(shutCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/codeverse-ai/codeverse/internal/adapter/claudecli"
	cvhttp "github.com/codeverse-ai/codeverse/internal/adapter/http"
	"github.com/codeverse-ai/codeverse/internal/adapter/otel"
	"github.com/codeverse-ai/codeverse/internal/adapter/postgres"
	"github.com/codeverse-ai/codeverse/internal/adapter/ristretto"
	"github.com/codeverse-ai/codeverse/internal/adapter/scripted"
	"github.com/codeverse-ai/codeverse/internal/adapter/stt"
	"github.com/codeverse-ai/codeverse/internal/adapter/ws"
	"github.com/codeverse-ai/codeverse/internal/config"
	"github.com/codeverse-ai/codeverse/internal/domain/section"
	"github.com/codeverse-ai/codeverse/internal/logger"
	"github.com/codeverse-ai/codeverse/internal/middleware"
	"github.com/codeverse-ai/codeverse/internal/port/agentbridge"
	"github.com/codeverse-ai/codeverse/internal/service"
)

func main() {
	fallback := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(fallback)

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logCloser := logger.New(cfg.Logging)
	defer logCloser.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"agent_bridge", cfg.Agent.Bridge,
		"pg_max_conns", cfg.Postgres.MaxConns,
	)

	ctx := context.Background()

	// --- Infrastructure ---

	// PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	// Run migrations
	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	// Plan version cache
	versionCache, err := ristretto.New(cfg.Cache.L1MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer versionCache.Close()

	// Tracing and metrics
	shutdownTracer, err := otel.InitTracer(ctx, cfg.Logging.Service, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(flushCtx)
	}()

	shutdownMeter, err := otel.InitMeter(ctx, cfg.Logging.Service, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("otel meter: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownMeter(flushCtx)
	}()

	metrics, err := otel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Agent Bridges ---
	claudecli.Register(cfg.Agent.Binary, cfg.Agent.Timeout)
	scripted.Register()

	bridge, err := agentbridge.New(cfg.Agent.Bridge, nil)
	if err != nil {
		return fmt.Errorf("agent bridge: %w", err)
	}

	transcriber := stt.New(cfg.STT.APIKey, cfg.STT.Model, cfg.STT.Timeout)

	// --- Services ---
	hub := ws.NewHub()
	store := postgres.NewStore(pool)
	repoSvc := service.NewRepositoryService(store)
	planSvc := service.NewPlanService(store, versionCache)
	chatSvc := service.NewChatService(store)
	generateSvc := service.NewGenerateService(store, bridge, section.Default(), hub, metrics)
	transcribeSvc := service.NewTranscribeService(store, transcriber, service.TranscribeLimits{
		MaxBytes:   cfg.STT.MaxAudioBytes,
		MaxSeconds: cfg.STT.MaxAudioSeconds,
	})

	// --- HTTP ---
	handlers := &cvhttp.Handlers{
		Repos:      repoSvc,
		Plans:      planSvc,
		Chats:      chatSvc,
		Generate:   generateSvc,
		Transcribe: transcribeSvc,
		// Base64 inflates the audio by 4/3; leave slack for the JSON envelope.
		TranscribeBodyLimit: int64(cfg.STT.MaxAudioBytes)*4/3 + 4096,
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(cvhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(cvhttp.SecurityHeaders)
	r.Use(cvhttp.Logger)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(otel.HTTPMiddleware(cfg.Logging.Service))

	if cfg.Rate.Enabled {
		limiter := middleware.NewRateLimiter(cfg.Rate)
		stopCleanup := limiter.StartCleanup(time.Minute, 10*time.Minute)
		defer stopCleanup()
		r.Use(limiter.Handler)
	}

	// Health endpoint with service status
	r.Get("/health", healthHandler(cfg))

	// WebSocket endpoint
	r.Get("/ws", hub.HandleWS)

	// API routes
	cvhttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Generation streams SSE for up to the agent timeout; the SSE and
		// websocket endpoints cannot live under a write deadline.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	// SIGHUP re-reads the YAML config; a failed reload keeps the old one.
	// Only the log level takes effect on a running process; everything else
	// is wired at startup and needs a restart.
	holder := config.NewHolder(cfg, config.DefaultConfigFile)
	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	go func() {
		for range reload {
			if err := holder.Reload(); err != nil {
				slog.Error("config reload failed", "error", err)
				continue
			}
			logger.SetLevel(holder.Get().Logging.Level)
			slog.Info("config reloaded", "log_level", holder.Get().Logging.Level)
		}
	}()

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// healthHandler returns an http.HandlerFunc that reports service health.
func healthHandler(cfg *config.Config) http.HandlerFunc {
	type healthStatus struct {
		Status      string `json:"status"`
		AgentBridge string `json:"agent_bridge"`
		STTModel    string `json:"stt_model"`
	}

	return func(w http.ResponseWriter, _ *http.Request) {
		status := healthStatus{
			Status:      "ok",
			AgentBridge: cfg.Agent.Bridge,
			STTModel:    cfg.STT.Model,
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(status)
	}
}

// Command korli serves the language tutor over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/randalmurphal/korli/pkg/flowgraph/checkpoint"
	"github.com/randalmurphal/korli/pkg/flowgraph/llm"
	"github.com/randalmurphal/korli/pkg/flowgraph/observability"
	"github.com/randalmurphal/korli/pkg/tutor/api"
	"github.com/randalmurphal/korli/pkg/tutor/chat"
	"github.com/randalmurphal/korli/pkg/tutor/session"
	"github.com/randalmurphal/korli/pkg/tutor/settings"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "korli:", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := settings.Load()
	if err != nil {
		return err
	}

	logger, err := observability.NewLogger(os.Stdout, cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, observability.TelemetryConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		Tracing:        cfg.Telemetry.Tracing,
		Metrics:        cfg.Telemetry.Metrics,
	})
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(sctx); err != nil {
			logger.Warn("telemetry shutdown", "error", err)
		}
	}()

	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("close checkpoint store", "error", err)
		}
	}()

	var spans observability.SpanManager
	var metrics observability.MetricsRecorder
	if cfg.Telemetry.Tracing {
		spans = observability.NewSpanManager()
	}
	if cfg.Telemetry.Metrics {
		metrics = observability.NewMetricsRecorder()
	}
	client := llm.Instrument(
		llm.NewOpenAI(
			llm.WithAPIKey(cfg.LLM.APIKey),
			llm.WithBaseURL(cfg.LLM.BaseURL),
			llm.WithModel(cfg.LLM.StrongModel),
			llm.WithMaxRetries(cfg.LLM.MaxRetries),
			llm.WithRequestTimeout(cfg.LLM.RequestTimeout)),
		spans, metrics, logger, cfg.LLM.StrongModel)

	workflow, err := chat.NewWorkflow(cfg.ChatConfig())
	if err != nil {
		return err
	}

	svc, err := session.New(workflow, store, client,
		session.WithLogger(logger),
		session.WithTelemetry(spans, metrics))
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:        cfg.Server.Addr(),
		Handler:     api.NewRouter(api.NewHandler(svc, logger)),
		ReadTimeout: cfg.Server.ReadTimeout,
		// Streams stay open for the whole turn.
		WriteTimeout: 0,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			"addr", srv.Addr,
			"version", version,
			"store", cfg.Store.Driver,
			"corrections", cfg.Conversation.CorrectResponses)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func openStore(ctx context.Context, cfg settings.Store) (checkpoint.Store, error) {
	switch cfg.Driver {
	case settings.DriverSQLite:
		return checkpoint.NewSQLiteStore(cfg.SQLitePath)
	case settings.DriverPostgres:
		return checkpoint.NewPostgresStore(ctx, cfg.DatabaseURL)
	case settings.DriverMemory, "":
		return checkpoint.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

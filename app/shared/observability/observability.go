// Package observability builds the logger, tracer and metrics shared by the service.
package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Black-And-White-Club/koth-bot/app/shared/observability/kothmetrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Config controls observability setup.
type Config struct {
	ServiceName    string
	Environment    string
	LogLevel       string
	MetricsAddress string
}

// Provider owns the process logger.
type Provider struct {
	Logger *slog.Logger
}

// Registry owns tracing and metrics handles.
type Registry struct {
	Tracer      trace.Tracer
	Prometheus  *prometheus.Registry
	KothMetrics kothmetrics.KothMetrics
}

// Observability bundles everything modules need to emit telemetry.
type Observability struct {
	Provider *Provider
	Registry *Registry
	cfg      Config
	server   *http.Server
}

// Init creates the logger, tracer and prometheus registry.
func Init(cfg Config) (*Observability, error) {
	return initWithWriter(cfg, os.Stdout)
}

func initWithWriter(cfg Config, w io.Writer) (*Observability, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "koth-bot"
	}

	logger := newLogger(cfg, w)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	metrics, err := kothmetrics.NewPrometheus(reg)
	if err != nil {
		return nil, fmt.Errorf("failed to register koth metrics: %w", err)
	}

	return &Observability{
		Provider: &Provider{Logger: logger},
		Registry: &Registry{
			Tracer:      otel.Tracer(cfg.ServiceName),
			Prometheus:  reg,
			KothMetrics: metrics,
		},
		cfg: cfg,
	}, nil
}

func newLogger(cfg Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Environment, "development") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler).With(
		slog.String("service", cfg.ServiceName),
		slog.String("environment", cfg.Environment),
	)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Handler exposes /metrics and /healthz.
func (o *Observability) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(o.Registry.Prometheus, promhttp.HandlerOpts{}))
	return r
}

// Serve runs the metrics server until ctx is cancelled. An empty metrics
// address disables the server.
func (o *Observability) Serve(ctx context.Context) error {
	if o.cfg.MetricsAddress == "" {
		return nil
	}

	o.server = &http.Server{
		Addr:              o.cfg.MetricsAddress,
		Handler:           o.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		o.Provider.Logger.Info("Metrics server listening", slog.String("address", o.cfg.MetricsAddress))
		if err := o.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return o.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

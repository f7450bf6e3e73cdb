package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/tourguide/internal/config"
	httpAdapter "github.com/aretw0/tourguide/pkg/adapters/http"
	"github.com/aretw0/tourguide/pkg/tourconfig"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// ServeOptions configures the visibility API server.
type ServeOptions struct {
	Settings *config.Settings
	Version  string
	Out      io.Writer
	Logger   *slog.Logger
}

// NewAPI builds the API server over an opened backend and a config holder.
func NewAPI(s *config.Settings, backend *Backend, holder *tourconfig.Holder, version string, logger *slog.Logger) (*httpAdapter.Server, func(), error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	reporter, flush, err := NewReporter(s, logger, reg)
	if err != nil {
		return nil, flush, err
	}

	opts := []httpAdapter.Option{
		httpAdapter.WithVersion(version),
		httpAdapter.WithLogger(logger),
		httpAdapter.WithReporter(reporter),
		httpAdapter.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
	}
	if backend.Locker != nil {
		opts = append(opts, httpAdapter.WithLocker(backend.Locker))
	}
	return httpAdapter.NewServer(backend.KV, holder, opts...), flush, nil
}

// Serve runs the API until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, opts ServeOptions) error {
	s := opts.Settings
	logger := opts.Logger
	if logger == nil {
		logger = createLogger(s)
	}

	backend, err := OpenBackend(ctx, s)
	if err != nil {
		return err
	}
	defer backend.Close()

	holder := tourconfig.NewHolder(NewConfigSource(s))
	if err := holder.Reload(ctx); err != nil {
		logger.Error("Failed to load config", "config", s.Config, "error", err)
	}

	api, flush, err := NewAPI(s, backend, holder, opts.Version, logger)
	if err != nil {
		return err
	}
	defer flush()

	if holder.Watch(ctx, logger, func(id string) {
		api.Streams.Broadcast(httpAdapter.GlobalTopic, "reload")
	}) {
		logger.Info("Watching config for changes", "config", s.Config)
	}

	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		if opts.Out != nil {
			printSystemMessage(opts.Out, "Serving tour visibility on %s (backend %s)", srv.Addr, s.Backend)
		}
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Graceful shutdown did not complete", "timeout", shutdownTimeout, "error", err)
			return srv.Close()
		}
		return nil
	}
}

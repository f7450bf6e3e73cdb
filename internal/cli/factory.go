package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/tourguide/internal/adapters/file"
	"github.com/aretw0/tourguide/internal/config"
	"github.com/aretw0/tourguide/pkg/adapters/memory"
	"github.com/aretw0/tourguide/pkg/adapters/redis"
	"github.com/aretw0/tourguide/pkg/domain"
	"github.com/aretw0/tourguide/pkg/persistence/middleware"
	"github.com/aretw0/tourguide/pkg/policy"
	"github.com/aretw0/tourguide/pkg/ports"
	"github.com/aretw0/tourguide/pkg/report"
	"github.com/aretw0/tourguide/pkg/tourconfig"
	"github.com/prometheus/client_golang/prometheus"
)

// Backend is the opened state backend.
type Backend struct {
	KV     ports.KVStore
	Locker ports.DistributedLocker
	close  func() error
}

// Close releases the backend connection, if any.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// OpenBackend opens the state backend selected in s, encrypting records when
// an encryption key is configured.
func OpenBackend(ctx context.Context, s *config.Settings) (*Backend, error) {
	b, err := openStore(ctx, s)
	if err != nil {
		return nil, err
	}

	enc, err := s.Encryption()
	if err == nil && enc != nil {
		var mw middleware.Middleware
		if mw, err = middleware.NewEncryptionMiddleware(*enc); err == nil {
			b.KV = middleware.Chain(b.KV, mw)
		}
	}
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	return b, nil
}

func openStore(ctx context.Context, s *config.Settings) (*Backend, error) {
	switch s.Backend {
	case config.BackendMemory:
		return &Backend{KV: memory.NewStore()}, nil
	case config.BackendFile:
		return &Backend{KV: file.New(s.StateDir)}, nil
	case config.BackendRedis:
		store := redis.New(s.RedisAddr, s.RedisPassword, s.RedisDB, redis.WithPrefix(s.RedisPrefix))
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("redis backend unavailable: %w", err)
		}
		return &Backend{
			KV:     store,
			Locker: redis.NewLocker(store.Client(), s.RedisPrefix),
			close:  store.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", s.Backend)
	}
}

// NewPolicy builds the policy over the visitor's records.
func NewPolicy(b *Backend, visitor string, logger *slog.Logger) *policy.Policy {
	return policy.NewVisitors(b.KV, b.Locker, logger).For(visitor)
}

// NewReporter builds the diagnostics sink: always a log, plus a beacon when a
// report URL is set and a counter when reg is not nil.
// The returned flush waits for pending beacons.
func NewReporter(s *config.Settings, logger *slog.Logger, reg prometheus.Registerer) (ports.Reporter, func(), error) {
	flush := func() {}
	reporters := []ports.Reporter{report.Log{Logger: logger}}
	if s.ReportURL != "" {
		opts := []report.BeaconOption{report.WithBeaconLogger(logger)}
		if s.Visitor != "" {
			opts = append(opts, report.WithClientID(s.Visitor))
		}
		beacon := report.NewHTTPReporter(s.ReportURL, opts...)
		reporters = append(reporters, beacon)
		flush = beacon.Flush
	}
	if reg != nil {
		counter, err := report.NewCounter(reg)
		if err != nil {
			return nil, flush, err
		}
		reporters = append(reporters, counter)
	}
	return report.Multi(reporters...), flush, nil
}

// NewConfigSource picks the configuration source for s.Config.
func NewConfigSource(s *config.Settings) ports.ConfigSource {
	return tourconfig.NewSource(s.Config, &http.Client{Timeout: 30 * time.Second})
}

// assetRequests builds the stylesheet and script requests from s.
func assetRequests(s *config.Settings) (css, js domain.AssetRequest) {
	css = domain.AssetRequest{Kind: domain.AssetStylesheet, URLs: s.CSSURLs, Timeout: s.AssetTimeout}
	js = domain.AssetRequest{Kind: domain.AssetScript, URLs: s.JSURLs, Timeout: s.AssetTimeout}
	return css, js
}

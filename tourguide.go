package tourguide

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/tourguide/pkg/adapters/memory"
	"github.com/aretw0/tourguide/pkg/assets"
	"github.com/aretw0/tourguide/pkg/domain"
	"github.com/aretw0/tourguide/pkg/policy"
	"github.com/aretw0/tourguide/pkg/ports"
	"github.com/aretw0/tourguide/pkg/report"
	"github.com/aretw0/tourguide/pkg/tour"
	"github.com/aretw0/tourguide/pkg/tourconfig"
)

// Guide is the high-level entry point for embedding tours.
// It wires the visibility policy, the asset loader and the controller for one page.
type Guide struct {
	ctrl   *tour.Controller
	policy *policy.Policy

	source   ports.ConfigSource
	kv       ports.KVStore
	locker   ports.DistributedLocker
	visitor  string
	reporter ports.Reporter
	head     ports.ResourceHead
	mirrors  [2][]string
	timeout  time.Duration
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	now      func() time.Time
}

// Option defines a functional option for configuring the Guide.
type Option func(*Guide)

// WithConfigSource sets where the tour configuration comes from.
func WithConfigSource(src ports.ConfigSource) Option {
	return func(g *Guide) {
		g.source = src
	}
}

// WithConfigLocation loads the configuration from a URL, a file or a directory of page documents.
func WithConfigLocation(location string) Option {
	return func(g *Guide) {
		g.source = tourconfig.NewSource(location, nil)
	}
}

// WithStore persists visibility records in kv instead of memory.
func WithStore(kv ports.KVStore) Option {
	return func(g *Guide) {
		g.kv = kv
	}
}

// WithVisitor scopes the records to one visitor of a shared store.
func WithVisitor(visitor string) Option {
	return func(g *Guide) {
		g.visitor = visitor
	}
}

// WithLocker serializes record updates across processes.
func WithLocker(l ports.DistributedLocker) Option {
	return func(g *Guide) {
		g.locker = l
	}
}

// WithReporter sets the diagnostics sink.
func WithReporter(r ports.Reporter) Option {
	return func(g *Guide) {
		g.reporter = r
	}
}

// WithAssets loads the overlay stylesheet and script into head before the
// configuration is fetched. Empty mirror lists use the defaults.
func WithAssets(head ports.ResourceHead, css, js []string) Option {
	return func(g *Guide) {
		g.head = head
		g.mirrors = [2][]string{css, js}
	}
}

// WithAssetTimeout bounds each asset attempt.
func WithAssetTimeout(d time.Duration) Option {
	return func(g *Guide) {
		g.timeout = d
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(g *Guide) {
		g.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Guide) {
		g.logger = logger
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Guide) {
		g.now = now
	}
}

// New creates a Guide driving overlay on page.
func New(overlay ports.Overlay, page ports.Page, opts ...Option) *Guide {
	g := &Guide{
		kv:       memory.NewStore(),
		reporter: report.Nop{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.logger == nil {
		g.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if g.source == nil {
		g.source = &tourconfig.StaticSource{}
	}

	g.policy = policy.NewVisitors(g.kv, g.locker, g.logger).For(g.visitor)

	tourOpts := []tour.Option{
		tour.WithConfigSource(g.source),
		tour.WithReporter(g.reporter),
		tour.WithLogger(g.logger),
		tour.WithClock(g.now),
		tour.WithLifecycleHooks(g.hooks),
	}
	if g.head != nil {
		loader := assets.NewLoader(g.head,
			assets.WithLogger(g.logger),
			assets.WithLifecycleHooks(g.hooks),
		)
		css := assets.StylesheetRequest(g.mirrors[0]...)
		js := assets.ScriptRequest(g.mirrors[1]...)
		if g.timeout > 0 {
			css.Timeout, js.Timeout = g.timeout, g.timeout
		}
		tourOpts = append(tourOpts, tour.WithAssets(loader, css, js))
	}

	g.ctrl = tour.New(g.policy, overlay, page, tourOpts...)
	return g
}

// Run loads assets and configuration, then starts the tour when the policy allows it.
// It may only be called once.
func (g *Guide) Run(ctx context.Context) error {
	return g.ctrl.Run(ctx)
}

// ForceStart starts the tour of the current page regardless of the policy.
func (g *Guide) ForceStart(ctx context.Context) error {
	return g.ctrl.ForceStart(ctx)
}

// Phase returns the lifecycle phase of the tour.
func (g *Guide) Phase() domain.Phase {
	return g.ctrl.Phase()
}

// Status reports the persisted state of page.
func (g *Guide) Status(ctx context.Context, page domain.PageID) policy.Status {
	return g.policy.Status(ctx, page, g.now())
}

// Policy exposes the visibility policy.
func (g *Guide) Policy() *policy.Policy {
	return g.policy
}

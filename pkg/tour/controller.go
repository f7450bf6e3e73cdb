package tour

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/tourguide/internal/logging"
	"github.com/aretw0/tourguide/pkg/domain"
	"github.com/aretw0/tourguide/pkg/policy"
	"github.com/aretw0/tourguide/pkg/ports"
	"github.com/aretw0/tourguide/pkg/report"
	"github.com/aretw0/tourguide/pkg/tourconfig"
)

var (
	// ErrAlreadyRun is returned when Run is called twice.
	ErrAlreadyRun = errors.New("tour controller already run")
	// ErrNotReady is returned by ForceStart before the configuration is loaded.
	ErrNotReady = errors.New("tour configuration not loaded")
	// ErrNoSteps is returned when the page has no steps defined.
	ErrNoSteps = errors.New("no steps defined for page")
)

// AssetLoader loads the overlay engine resources.
type AssetLoader interface {
	LoadResources(ctx context.Context, css, js domain.AssetRequest) error
}

// Controller runs the tour state machine for one page.
type Controller struct {
	policy   *policy.Policy
	overlay  ports.Overlay
	page     ports.Page
	assets   AssetLoader
	css, js  domain.AssetRequest
	source   ports.ConfigSource
	reporter ports.Reporter
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	now      func() time.Time

	mu      sync.Mutex
	phase   domain.Phase
	cfg     *domain.TourConfig
	pageID  domain.PageID
	steps   []domain.Step
	stepNum int
	forced  bool
	// gen identifies the current overlay run; callbacks of older runs are ignored.
	gen int
	// ctx is handed to overlay callbacks, which carry none of their own.
	ctx context.Context
}

// Option configures a Controller.
type Option func(*Controller)

// WithAssets loads css then js before fetching the configuration.
func WithAssets(loader AssetLoader, css, js domain.AssetRequest) Option {
	return func(c *Controller) {
		c.assets = loader
		c.css = css
		c.js = js
	}
}

// WithConfigSource sets where the configuration comes from.
func WithConfigSource(src ports.ConfigSource) Option {
	return func(c *Controller) {
		c.source = src
	}
}

// WithReporter sets the diagnostics sink.
func WithReporter(r ports.Reporter) Option {
	return func(c *Controller) {
		c.reporter = r
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Controller) {
		c.hooks = hooks
	}
}

// New creates a controller in the Idle phase.
func New(pol *policy.Policy, overlay ports.Overlay, page ports.Page, opts ...Option) *Controller {
	c := &Controller{
		policy:   pol,
		overlay:  overlay,
		page:     page,
		source:   &tourconfig.StaticSource{},
		reporter: report.Nop{},
		logger:   logging.NewNop(),
		now:      time.Now,
		phase:    domain.PhaseIdle,
		cfg:      domain.EmptyTourConfig(),
		ctx:      context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Phase returns the current phase.
func (c *Controller) Phase() domain.Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// StepIndex returns the diagnostic step counter, starting at 1 for a running tour.
func (c *Controller) StepIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stepNum
}

// Page returns the page identity of the last started tour.
func (c *Controller) Page() domain.PageID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pageID
}

// Config returns the loaded configuration.
func (c *Controller) Config() *domain.TourConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// Run performs the startup sequence once. Asset and configuration failures are
// logged and never returned; the tour simply does not start.
func (c *Controller) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.phase != domain.PhaseIdle {
		c.mu.Unlock()
		return ErrAlreadyRun
	}
	c.phase = domain.PhaseLoading
	c.ctx = context.WithoutCancel(ctx)
	c.mu.Unlock()

	if c.assets != nil {
		if err := c.assets.LoadResources(ctx, c.css, c.js); err != nil {
			c.logger.Warn("Failed to load tour assets", "error", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg, err := c.source.Load(ctx)
	if err != nil {
		c.logger.Error("Failed to load config", "error", err)
		cfg = domain.EmptyTourConfig()
	}
	c.mu.Lock()
	c.cfg = cfg
	c.phase = domain.PhaseConfigLoaded
	c.mu.Unlock()

	path := c.page.Path()
	selector := cfg.ForceStartSelector(path)
	ok := c.page.OnClick(selector, func() {
		c.logger.Info("Start element clicked", "selector", selector)
		if err := c.ForceStart(c.baseContext()); err != nil {
			c.logger.Warn("Forced start failed", "error", err)
		}
	})
	if !ok {
		c.logger.Warn("Start element not found", "selector", selector)
	}

	page, err := cfg.ResolvePage(path)
	if err != nil {
		c.logger.Warn("No tour for path", "path", path, "error", err)
		c.enterNotStarted()
		return nil
	}

	if !c.policy.ShouldStart(ctx, page, c.now()) {
		c.logger.Info("Tour should not start", "page", page)
		c.enterNotStarted()
		return nil
	}

	if err := c.start(ctx, page, false); err != nil {
		c.logger.Warn("Tour did not start", "page", page, "error", err)
	}
	return nil
}

// ForceStart runs the tour for the current page, bypassing the policy.
func (c *Controller) ForceStart(ctx context.Context) error {
	c.mu.Lock()
	phase, cfg := c.phase, c.cfg
	c.mu.Unlock()
	if phase == domain.PhaseIdle || phase == domain.PhaseLoading {
		return ErrNotReady
	}

	page, err := cfg.ResolvePage(c.page.Path())
	if err != nil {
		return err
	}
	return c.start(ctx, page, true)
}

func (c *Controller) start(ctx context.Context, page domain.PageID, forced bool) error {
	c.mu.Lock()
	cfg := c.cfg
	c.mu.Unlock()

	steps := cfg.Steps(page)
	if len(steps) == 0 {
		c.logger.Warn("No steps defined for page", "page", page)
		c.enterNotStarted()
		return fmt.Errorf("%w: %s", ErrNoSteps, page)
	}

	opts, err := tourconfig.DecodeOverlayOptions(cfg.InitConfig)
	if err != nil {
		c.logger.Warn("Ignoring invalid overlay options", "error", err)
	}

	c.mu.Lock()
	if !c.phase.CanTransition(domain.PhaseRunning) {
		phase := c.phase
		c.mu.Unlock()
		return fmt.Errorf("cannot start tour from phase %s", phase)
	}
	c.gen++
	gen := c.gen
	c.phase = domain.PhaseRunning
	c.pageID = page
	c.steps = steps
	c.stepNum = 1
	c.forced = forced
	c.mu.Unlock()

	opts.OnNext = func() { c.handleNext(gen) }
	opts.OnDeselected = func() { c.handleDismiss(gen) }

	if err := c.overlay.Configure(opts); err != nil {
		return c.abort(gen, fmt.Errorf("overlay configure: %w", err))
	}
	if err := c.overlay.DefineSteps(steps); err != nil {
		return c.abort(gen, fmt.Errorf("overlay steps: %w", err))
	}

	label := domain.LabelAutomaticStart
	if forced {
		label = domain.LabelManualStart
	}
	c.reporter.Report(ctx, label)
	c.emit(ctx, c.hooks.OnTourStart, domain.EventTourStart, page, 1, forced)
	c.logger.Info("Tour started", "page", page, "steps", len(steps), "forced", forced)

	// Start may block until the tour ends; callbacks take the lock themselves.
	if err := c.overlay.Start(ctx); err != nil {
		return c.abort(gen, fmt.Errorf("overlay start: %w", err))
	}
	return nil
}

func (c *Controller) abort(gen int, err error) error {
	c.mu.Lock()
	if gen == c.gen && c.phase == domain.PhaseRunning {
		c.phase = domain.PhaseNotStarted
	}
	c.mu.Unlock()
	c.logger.Error("Overlay failed", "error", err)
	return err
}

func (c *Controller) handleNext(gen int) {
	c.mu.Lock()
	if gen != c.gen || c.phase != domain.PhaseRunning {
		c.mu.Unlock()
		return
	}
	page, steps, idx, forced := c.pageID, c.steps, c.stepNum, c.forced
	c.mu.Unlock()

	ctx := c.baseContext()

	if !c.overlay.HasNextStep() {
		if err := c.policy.RecordCompletion(ctx, page); err != nil {
			c.logger.Error("Failed to record completion", "page", page, "error", err)
		}
		if !c.finish(gen, domain.PhaseCompleted) {
			return
		}
		c.reporter.Report(ctx, domain.LabelCompleted)
		c.emit(ctx, c.hooks.OnTourComplete, domain.EventTourComplete, page, idx, forced)
		c.logger.Info("Tour completed", "page", page)
		return
	}

	if idx >= 1 && idx < len(steps) {
		c.progress(steps[idx-1], steps[idx])
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.stepNum++
	idx = c.stepNum
	c.mu.Unlock()

	c.emit(ctx, c.hooks.OnStepAdvance, domain.EventStepAdvance, page, idx, forced)
	c.logger.Debug("Tour step advanced", "page", page, "step", idx)
}

// progress clicks current.NextClick when next's expected element is missing.
func (c *Controller) progress(current, next domain.Step) {
	if hope := next.Popover.HopeElement; hope != "" {
		if _, ok := c.page.Query(hope); ok {
			return
		}
	}
	target := current.Popover.NextClick
	if target == "" {
		return
	}

	el, ok := c.page.Query(target)
	if !ok {
		c.logger.Warn("Auto-advance click skipped", "error", fmt.Errorf("%w: %s", domain.ErrMissingStepTarget, target))
		return
	}
	if err := el.Click(); err != nil {
		c.logger.Warn("Auto-advance click failed", "selector", target, "error", err)
	}
}

func (c *Controller) handleDismiss(gen int) {
	c.mu.Lock()
	if gen != c.gen || c.phase != domain.PhaseRunning {
		c.mu.Unlock()
		return
	}
	page, idx, forced := c.pageID, c.stepNum, c.forced
	c.mu.Unlock()

	ctx := c.baseContext()
	now := c.now()

	// A dismissal only counts while the policy would still offer the tour.
	if c.policy.ShouldStart(ctx, page, now) {
		c.reporter.Report(ctx, domain.LabelClosed)
		if err := c.policy.RecordDismissal(ctx, page, now); err != nil {
			c.logger.Error("Failed to record dismissal", "page", page, "error", err)
		}
	}

	if !c.finish(gen, domain.PhaseDismissed) {
		return
	}
	c.emit(ctx, c.hooks.OnTourDismiss, domain.EventTourDismissed, page, idx, forced)
	c.logger.Info("Tour dismissed", "page", page, "step", idx)
}

func (c *Controller) finish(gen int, next domain.Phase) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || !c.phase.CanTransition(next) {
		return false
	}
	c.phase = next
	return true
}

func (c *Controller) enterNotStarted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase.CanTransition(domain.PhaseNotStarted) {
		c.phase = domain.PhaseNotStarted
	}
}

func (c *Controller) baseContext() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctx
}

func (c *Controller) emit(ctx context.Context, hook func(context.Context, *domain.TourEvent), typ domain.EventType, page domain.PageID, step int, forced bool) {
	if hook == nil {
		return
	}
	hook(ctx, &domain.TourEvent{
		EventBase: domain.EventBase{Timestamp: c.now(), Type: typ},
		Page:      page,
		Step:      step,
		Forced:    forced,
	})
}

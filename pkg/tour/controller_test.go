package tour

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/tourguide/internal/adapters/page"
	"github.com/aretw0/tourguide/pkg/adapters/memory"
	"github.com/aretw0/tourguide/pkg/domain"
	"github.com/aretw0/tourguide/pkg/policy"
	"github.com/aretw0/tourguide/pkg/report"
	"github.com/aretw0/tourguide/pkg/tourconfig"
	"github.com/aretw0/tourguide/pkg/visibility"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOverlay mimics the step cursor of the overlay engine.
// Next on the last step finishes the tour and deselects, as the real engine does.
type fakeOverlay struct {
	mu       sync.Mutex
	opts     domain.OverlayOptions
	steps    []domain.Step
	cursor   int
	started  int
	startErr error
}

func (o *fakeOverlay) Configure(opts domain.OverlayOptions) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opts = opts
	return nil
}

func (o *fakeOverlay) DefineSteps(steps []domain.Step) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.steps = steps
	return nil
}

func (o *fakeOverlay) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.startErr != nil {
		return o.startErr
	}
	o.started++
	o.cursor = 0
	return nil
}

func (o *fakeOverlay) HasNextStep() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cursor < len(o.steps)-1
}

func (o *fakeOverlay) Next() {
	o.mu.Lock()
	onNext, onDeselected := o.opts.OnNext, o.opts.OnDeselected
	last := o.cursor >= len(o.steps)-1
	o.mu.Unlock()

	onNext()

	if last {
		onDeselected()
		return
	}
	o.mu.Lock()
	o.cursor++
	o.mu.Unlock()
}

func (o *fakeOverlay) Close() {
	o.mu.Lock()
	onDeselected := o.opts.OnDeselected
	o.mu.Unlock()
	onDeselected()
}

func (o *fakeOverlay) Started() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.started
}

type sourceFunc func(ctx context.Context) (*domain.TourConfig, error)

func (f sourceFunc) Load(ctx context.Context) (*domain.TourConfig, error) { return f(ctx) }

type assetsFunc func(ctx context.Context, css, js domain.AssetRequest) error

func (f assetsFunc) LoadResources(ctx context.Context, css, js domain.AssetRequest) error {
	return f(ctx, css, js)
}

var now = time.UnixMilli(1_700_000_000_000)

func homeConfig() *domain.TourConfig {
	cfg := domain.EmptyTourConfig()
	cfg.PageList["/"] = "home"
	cfg.PageList["/empty"] = "empty"
	cfg.PageDrivers["home"] = []domain.Step{
		{Element: "#intro", Popover: domain.Popover{Title: "Welcome", NextClick: "#menu"}},
		{Element: "#menu-item", Popover: domain.Popover{Title: "Menu", HopeElement: "#menu-item"}},
		{Element: "#done", Popover: domain.Popover{Title: "Bye"}},
	}
	cfg.InitConfig["doneBtnText"] = "Finish"
	return cfg
}

type fixture struct {
	store    *visibility.Store
	overlay  *fakeOverlay
	page     *page.Static
	reporter *report.Recorder
	ctrl     *Controller
}

func newFixture(t *testing.T, path string, cfg *domain.TourConfig, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		store:    visibility.New(memory.NewStore()),
		overlay:  &fakeOverlay{},
		page:     page.New(path, "#navStart", "#intro", "#menu", "#done"),
		reporter: &report.Recorder{},
	}
	f.page.RevealOnClick("#menu", "#menu-item")

	base := []Option{
		WithConfigSource(&tourconfig.StaticSource{Config: cfg}),
		WithReporter(f.reporter),
		WithClock(func() time.Time { return now }),
	}
	f.ctrl = New(policy.New(f.store), f.overlay, f.page, append(base, opts...)...)
	return f
}

func TestRun_FirstVisitStartsAutomatically(t *testing.T) {
	f := newFixture(t, "/", homeConfig())

	require.NoError(t, f.ctrl.Run(context.Background()))

	assert.Equal(t, domain.PhaseRunning, f.ctrl.Phase())
	assert.Equal(t, 1, f.ctrl.StepIndex())
	assert.Equal(t, domain.PageID("home"), f.ctrl.Page())
	assert.Equal(t, 1, f.overlay.Started())
	assert.Equal(t, "Finish", f.overlay.opts.DoneBtnText)
	assert.Len(t, f.overlay.steps, 3)
	assert.Equal(t, []string{domain.LabelAutomaticStart}, f.reporter.Labels())
}

func TestRun_Completion(t *testing.T) {
	f := newFixture(t, "/", homeConfig())
	ctx := context.Background()
	require.NoError(t, f.ctrl.Run(ctx))

	f.overlay.Next()
	f.overlay.Next()
	assert.Equal(t, 3, f.ctrl.StepIndex())
	assert.Equal(t, domain.PhaseRunning, f.ctrl.Phase())

	// Done on the last step: completion, then the engine deselects.
	f.overlay.Next()
	assert.Equal(t, domain.PhaseCompleted, f.ctrl.Phase())

	entry, ok := f.store.Viewed(ctx, "home")
	require.True(t, ok)
	assert.True(t, entry.Completed)
	assert.Equal(t, 0, f.store.DismissCountOf(ctx, "home"))
	assert.Equal(t, []string{domain.LabelAutomaticStart, domain.LabelCompleted}, f.reporter.Labels())
}

func TestRun_Dismissal(t *testing.T) {
	f := newFixture(t, "/", homeConfig())
	ctx := context.Background()
	require.NoError(t, f.ctrl.Run(ctx))

	f.overlay.Close()

	assert.Equal(t, domain.PhaseDismissed, f.ctrl.Phase())
	entry, ok := f.store.Viewed(ctx, "home")
	require.True(t, ok)
	assert.False(t, entry.Completed)
	assert.Equal(t, now.UnixMilli(), entry.DismissedAt.UnixMilli())
	assert.Equal(t, 1, f.store.DismissCountOf(ctx, "home"))
	assert.Equal(t, []string{domain.LabelAutomaticStart, domain.LabelClosed}, f.reporter.Labels())

	// A second close of the same run is ignored.
	f.overlay.Close()
	assert.Equal(t, 1, f.store.DismissCountOf(ctx, "home"))
}

func TestRun_RespectsCooldown(t *testing.T) {
	tests := []struct {
		name      string
		dismissed time.Duration
		count     int
		want      domain.Phase
	}{
		{"within one hour after first dismissal", 30 * time.Minute, 1, domain.PhaseNotStarted},
		{"after one hour", 2 * time.Hour, 1, domain.PhaseRunning},
		{"second dismissal needs sixteen hours", 10 * time.Hour, 2, domain.PhaseNotStarted},
		{"opted out after four dismissals", 24 * 365 * time.Hour, 4, domain.PhaseNotStarted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "/", homeConfig())
			ctx := context.Background()
			require.NoError(t, f.store.SetViewed(ctx, "home", domain.DismissedEntry(now.Add(-tt.dismissed))))
			require.NoError(t, f.store.SetDismissCount(ctx, "home", tt.count))

			require.NoError(t, f.ctrl.Run(ctx))
			assert.Equal(t, tt.want, f.ctrl.Phase())
		})
	}
}

func TestForcedStart_BypassesPolicy(t *testing.T) {
	f := newFixture(t, "/", homeConfig())
	ctx := context.Background()
	require.NoError(t, f.store.SetViewed(ctx, "home", domain.CompletedEntry()))

	require.NoError(t, f.ctrl.Run(ctx))
	assert.Equal(t, domain.PhaseNotStarted, f.ctrl.Phase())
	assert.Equal(t, 0, f.overlay.Started())

	require.NoError(t, f.page.Click(domain.DefaultForceStartSelector))
	assert.Equal(t, domain.PhaseRunning, f.ctrl.Phase())
	assert.Equal(t, 1, f.overlay.Started())
	assert.Equal(t, []string{domain.LabelManualStart}, f.reporter.Labels())

	// Closing a forced tour of a completed page leaves the records alone.
	f.overlay.Close()
	assert.Equal(t, domain.PhaseDismissed, f.ctrl.Phase())
	entry, _ := f.store.Viewed(ctx, "home")
	assert.True(t, entry.Completed)
	assert.Equal(t, 0, f.store.DismissCountOf(ctx, "home"))
}

func TestForcedStart_CustomSelector(t *testing.T) {
	cfg := homeConfig()
	cfg.ForceStartSelectors["/"] = "#help"
	f := newFixture(t, "/", cfg)
	f.page.Add("#help")
	ctx := context.Background()
	require.NoError(t, f.store.SetViewed(ctx, "home", domain.CompletedEntry()))

	require.NoError(t, f.ctrl.Run(ctx))
	require.NoError(t, f.page.Click("#navStart"))
	assert.Equal(t, domain.PhaseNotStarted, f.ctrl.Phase())

	require.NoError(t, f.page.Click("#help"))
	assert.Equal(t, domain.PhaseRunning, f.ctrl.Phase())
}

func TestForcedStart_RestartIgnoresStaleCallbacks(t *testing.T) {
	f := newFixture(t, "/", homeConfig())
	ctx := context.Background()
	require.NoError(t, f.ctrl.Run(ctx))

	stale := f.overlay.opts.OnDeselected
	require.NoError(t, f.ctrl.ForceStart(ctx))
	assert.Equal(t, 2, f.overlay.Started())

	stale()
	assert.Equal(t, domain.PhaseRunning, f.ctrl.Phase())
	assert.Equal(t, 0, f.store.DismissCountOf(ctx, "home"))
}

func TestForceStart_BeforeRun(t *testing.T) {
	f := newFixture(t, "/", homeConfig())
	assert.ErrorIs(t, f.ctrl.ForceStart(context.Background()), ErrNotReady)
}

func TestRun_Twice(t *testing.T) {
	f := newFixture(t, "/", homeConfig())
	require.NoError(t, f.ctrl.Run(context.Background()))
	assert.ErrorIs(t, f.ctrl.Run(context.Background()), ErrAlreadyRun)
}

func TestRun_UnmappedPath(t *testing.T) {
	f := newFixture(t, "/nowhere", homeConfig())
	require.NoError(t, f.ctrl.Run(context.Background()))

	assert.Equal(t, domain.PhaseNotStarted, f.ctrl.Phase())
	assert.Equal(t, 0, f.overlay.Started())
	assert.ErrorIs(t, f.ctrl.ForceStart(context.Background()), domain.ErrUnmappedPage)
}

func TestRun_NoSteps(t *testing.T) {
	f := newFixture(t, "/empty", homeConfig())
	require.NoError(t, f.ctrl.Run(context.Background()))

	assert.Equal(t, domain.PhaseNotStarted, f.ctrl.Phase())
	assert.Equal(t, 0, f.overlay.Started())
	assert.ErrorIs(t, f.ctrl.ForceStart(context.Background()), ErrNoSteps)
}

func TestRun_MissingStartElement(t *testing.T) {
	f := newFixture(t, "/", homeConfig())
	f.page.Remove(domain.DefaultForceStartSelector)

	require.NoError(t, f.ctrl.Run(context.Background()))
	assert.Equal(t, domain.PhaseRunning, f.ctrl.Phase())
}

func TestRun_DegradesOnFailures(t *testing.T) {
	var order []string
	assets := assetsFunc(func(ctx context.Context, css, js domain.AssetRequest) error {
		order = append(order, "assets")
		return errors.New("all mirrors down")
	})
	source := sourceFunc(func(ctx context.Context) (*domain.TourConfig, error) {
		order = append(order, "config")
		return nil, domain.ErrConfigFetchFailed
	})

	f := newFixture(t, "/", nil,
		WithAssets(assets, domain.AssetRequest{}, domain.AssetRequest{}),
		WithConfigSource(source),
	)
	require.NoError(t, f.ctrl.Run(context.Background()))

	assert.Equal(t, []string{"assets", "config"}, order)
	assert.Equal(t, domain.PhaseNotStarted, f.ctrl.Phase())
	assert.NotNil(t, f.ctrl.Config())
	assert.Empty(t, f.reporter.Labels())
}

func TestRun_CanceledDuringAssets(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	assets := assetsFunc(func(ctx context.Context, css, js domain.AssetRequest) error {
		cancel()
		return ctx.Err()
	})
	f := newFixture(t, "/", homeConfig(), WithAssets(assets, domain.AssetRequest{}, domain.AssetRequest{}))

	assert.ErrorIs(t, f.ctrl.Run(ctx), context.Canceled)
	assert.Equal(t, 0, f.overlay.Started())
}

func TestNext_AutoClicksWhenExpectedElementMissing(t *testing.T) {
	f := newFixture(t, "/", homeConfig())
	require.NoError(t, f.ctrl.Run(context.Background()))

	f.overlay.Next()
	assert.Equal(t, []string{"#menu"}, f.page.Clicks())
	_, ok := f.page.Query("#menu-item")
	assert.True(t, ok)

	// Step 3 declares no hopeElement and step 2 no nextClick.
	f.overlay.Next()
	assert.Equal(t, []string{"#menu"}, f.page.Clicks())
}

func TestNext_NoClickWhenExpectedElementPresent(t *testing.T) {
	f := newFixture(t, "/", homeConfig())
	f.page.Add("#menu-item")
	require.NoError(t, f.ctrl.Run(context.Background()))

	f.overlay.Next()
	assert.Empty(t, f.page.Clicks())
	assert.Equal(t, 2, f.ctrl.StepIndex())
}

func TestNext_MissingClickTargetIsNotFatal(t *testing.T) {
	f := newFixture(t, "/", homeConfig())
	f.page.Remove("#menu")
	require.NoError(t, f.ctrl.Run(context.Background()))

	f.overlay.Next()
	assert.Empty(t, f.page.Clicks())
	assert.Equal(t, 2, f.ctrl.StepIndex())
	assert.Equal(t, domain.PhaseRunning, f.ctrl.Phase())
}

func TestRun_OverlayStartFailure(t *testing.T) {
	f := newFixture(t, "/", homeConfig())
	f.overlay.startErr = errors.New("engine missing")

	require.NoError(t, f.ctrl.Run(context.Background()))
	assert.Equal(t, domain.PhaseNotStarted, f.ctrl.Phase())
}

func TestLifecycleHooks(t *testing.T) {
	var (
		mu     sync.Mutex
		events []domain.EventType
	)
	record := func(ctx context.Context, e *domain.TourEvent) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e.Type)
	}
	hooks := domain.LifecycleHooks{
		OnTourStart:    record,
		OnStepAdvance:  record,
		OnTourComplete: record,
		OnTourDismiss:  record,
	}

	f := newFixture(t, "/", homeConfig(), WithLifecycleHooks(hooks))
	require.NoError(t, f.ctrl.Run(context.Background()))
	f.overlay.Next()
	f.overlay.Next()
	f.overlay.Next()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []domain.EventType{
		domain.EventTourStart,
		domain.EventStepAdvance,
		domain.EventStepAdvance,
		domain.EventTourComplete,
	}, events)
}

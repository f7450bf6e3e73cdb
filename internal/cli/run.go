package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/aretw0/tourguide/internal/adapters/page"
	"github.com/aretw0/tourguide/internal/config"
	"github.com/aretw0/tourguide/internal/metrics"
	"github.com/aretw0/tourguide/internal/presentation/tui"
	"github.com/aretw0/tourguide/pkg/assets"
	"github.com/aretw0/tourguide/pkg/domain"
	"github.com/aretw0/tourguide/pkg/ports"
	"github.com/aretw0/tourguide/pkg/tour"
	"github.com/prometheus/client_golang/prometheus"
)

// RunOptions configures one terminal tour.
type RunOptions struct {
	Settings *config.Settings
	Version  string
	// Force clicks the start element when the policy declines the tour.
	Force bool
	// Debug logs every lifecycle hook.
	Debug bool

	In     io.Reader
	Out    io.Writer
	Logger *slog.Logger
	// Source overrides the source built from Settings.Config.
	Source ports.ConfigSource
	// Registerer receives the tour, asset and report collectors.
	Registerer prometheus.Registerer
}

// RunTour runs the tour for Settings.Path in the terminal and returns the final phase.
func RunTour(ctx context.Context, opts RunOptions) (domain.Phase, error) {
	s := opts.Settings
	in, out := opts.In, opts.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	logger := opts.Logger
	if logger == nil {
		logger = createLogger(s)
	}

	backend, err := OpenBackend(ctx, s)
	if err != nil {
		return domain.PhaseIdle, err
	}
	defer backend.Close()

	reporter, flush, err := NewReporter(s, logger, opts.Registerer)
	if err != nil {
		return domain.PhaseIdle, err
	}
	defer flush()

	var hooks domain.LifecycleHooks
	if opts.Debug {
		hooks = createDebugHooks(logger)
	}
	if opts.Registerer != nil {
		m, err := metrics.New(opts.Registerer)
		if err != nil {
			return domain.PhaseIdle, err
		}
		hooks = m.Hooks(hooks)
	}

	render := tui.PlainRenderer
	if f, ok := out.(*os.File); ok && tui.IsInteractive(f) {
		tui.PrintBanner(out, opts.Version)
		render = tui.NewRenderer()
	}
	overlay := tui.NewOverlay(in, out, tui.WithRenderer(render))
	defer overlay.Close()
	host := page.NewOpen(s.Path)

	src := opts.Source
	if src == nil {
		src = NewConfigSource(s)
	}
	tourOpts := []tour.Option{
		tour.WithConfigSource(src),
		tour.WithReporter(reporter),
		tour.WithLogger(logger),
		tour.WithLifecycleHooks(hooks),
	}
	if !s.SkipAssets {
		loader := assets.NewLoader(assets.NewDocument(),
			assets.WithLogger(logger),
			assets.WithLifecycleHooks(hooks),
			assets.WithHTTPClient(&http.Client{}),
		)
		css, js := assetRequests(s)
		tourOpts = append(tourOpts, tour.WithAssets(loader, css, js))
	}

	ctrl := tour.New(NewPolicy(backend, s.Visitor, logger), overlay, host, tourOpts...)
	if err := ctrl.Run(ctx); err != nil {
		return ctrl.Phase(), err
	}

	if opts.Force && ctrl.Phase() == domain.PhaseNotStarted {
		selector := ctrl.Config().ForceStartSelector(s.Path)
		if err := host.Click(selector); err != nil {
			return ctrl.Phase(), fmt.Errorf("forced start: %w", err)
		}
	}

	phase := ctrl.Phase()
	printSystemMessage(out, "Tour %s (page %q)", phase, ctrl.Page())
	return phase, nil
}

package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/tourguide/internal/logging"
	"github.com/aretw0/tourguide/pkg/domain"
	"github.com/aretw0/tourguide/pkg/tourconfig"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.UnixMilli(1_700_000_000_000)

func homeSource() *tourconfig.StaticSource {
	cfg := domain.EmptyTourConfig()
	cfg.PageList["/"] = "home"
	cfg.PageDrivers["home"] = []domain.Step{
		{Element: "#a", Popover: domain.Popover{Title: "First"}},
		{Element: "#b", Popover: domain.Popover{Title: "Second"}},
	}
	return &tourconfig.StaticSource{Config: cfg}
}

func runOnce(t *testing.T, opts RunOptions, input string) (domain.Phase, string) {
	t.Helper()
	var out bytes.Buffer
	opts.In = strings.NewReader(input)
	opts.Out = &out
	opts.Logger = logging.NewNop()
	if opts.Source == nil {
		opts.Source = homeSource()
	}
	phase, err := RunTour(context.Background(), opts)
	require.NoError(t, err)
	return phase, out.String()
}

func TestRunTour_Completes(t *testing.T) {
	s := testSettings(t)
	phase, out := runOnce(t, RunOptions{Settings: s}, "\n\n")

	assert.Equal(t, domain.PhaseCompleted, phase)
	assert.Contains(t, out, "First")
	assert.Contains(t, out, "Second")
	assert.Contains(t, out, `>>> Tour completed (page "home")`)

	// Completion is terminal for the next run.
	phase, _ = runOnce(t, RunOptions{Settings: s}, "")
	assert.Equal(t, domain.PhaseNotStarted, phase)
}

func TestRunTour_DismissThenForce(t *testing.T) {
	s := testSettings(t)

	phase, _ := runOnce(t, RunOptions{Settings: s}, "q\n")
	assert.Equal(t, domain.PhaseDismissed, phase)

	phase, _ = runOnce(t, RunOptions{Settings: s}, "")
	assert.Equal(t, domain.PhaseNotStarted, phase)

	phase, out := runOnce(t, RunOptions{Settings: s, Force: true}, "\n\n")
	assert.Equal(t, domain.PhaseCompleted, phase)
	assert.Contains(t, out, "Second")
}

func TestRunTour_UnmappedPath(t *testing.T) {
	s := testSettings(t)
	s.Path = "/settings"

	phase, out := runOnce(t, RunOptions{Settings: s, Force: true}, "")
	assert.Equal(t, domain.PhaseNotStarted, phase)
	assert.NotContains(t, out, "First")
}

func TestRunTour_MetricsAndAssets(t *testing.T) {
	var cssHits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ".css") {
			cssHits.Add(1)
			w.Header().Set("Content-Type", "text/css")
			_, _ = w.Write([]byte(".driver-popover { color: black; }"))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	s := testSettings(t)
	s.SkipAssets = false
	s.CSSURLs = []string{srv.URL + "/driver.css"}
	s.JSURLs = []string{srv.URL + "/missing.js"}
	s.AssetTimeout = time.Second
	reg := prometheus.NewRegistry()

	phase, _ := runOnce(t, RunOptions{Settings: s, Registerer: reg}, "\n\n")
	assert.Equal(t, domain.PhaseCompleted, phase)
	assert.Equal(t, int32(1), cssHits.Load())

	n, err := testutil.GatherAndCount(reg, "tourguide_asset_attempts_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n) // stylesheet loaded, script failed

	n, err = testutil.GatherAndCount(reg, "tourguide_reports_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n) // Automatic Start, Completed
}

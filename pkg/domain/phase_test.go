package domain

import (
	"errors"
	"testing"
)

func TestPhase_CanTransition(t *testing.T) {
	tests := []struct {
		from, to Phase
		want     bool
	}{
		{PhaseIdle, PhaseLoading, true},
		{PhaseIdle, PhaseRunning, false},
		{PhaseLoading, PhaseConfigLoaded, true},
		{PhaseConfigLoaded, PhaseNotStarted, true},
		{PhaseConfigLoaded, PhaseRunning, true},
		{PhaseNotStarted, PhaseRunning, true},
		{PhaseNotStarted, PhaseCompleted, false},
		{PhaseRunning, PhaseCompleted, true},
		{PhaseRunning, PhaseDismissed, true},
		{PhaseCompleted, PhaseDismissed, false},
		{PhaseCompleted, PhaseRunning, true},
		{PhaseDismissed, PhaseRunning, true},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestPhase_Terminal(t *testing.T) {
	for _, p := range []Phase{PhaseCompleted, PhaseDismissed} {
		if !p.Terminal() {
			t.Errorf("%s should be terminal", p)
		}
	}
	for _, p := range []Phase{PhaseIdle, PhaseLoading, PhaseConfigLoaded, PhaseNotStarted, PhaseRunning} {
		if p.Terminal() {
			t.Errorf("%s should not be terminal", p)
		}
	}
}

func TestTourConfig_Lookups(t *testing.T) {
	cfg := EmptyTourConfig()
	cfg.PageList["/"] = "home"
	cfg.PageList["/blank"] = ""
	cfg.PageDrivers["home"] = []Step{{Element: "#a"}}
	cfg.ForceStartSelectors["/"] = "#start"

	page, err := cfg.ResolvePage("/")
	if err != nil || page != "home" {
		t.Fatalf("ResolvePage(/) = %q, %v", page, err)
	}
	for _, path := range []string{"/blank", "/missing"} {
		if _, err := cfg.ResolvePage(path); !errors.Is(err, ErrUnmappedPage) {
			t.Errorf("ResolvePage(%s) err = %v, want ErrUnmappedPage", path, err)
		}
	}
	var nilCfg *TourConfig
	if _, err := nilCfg.ResolvePage("/"); !errors.Is(err, ErrUnmappedPage) {
		t.Errorf("nil config err = %v", err)
	}

	if got := len(cfg.Steps("home")); got != 1 {
		t.Errorf("Steps(home) = %d", got)
	}
	if cfg.Steps("other") != nil {
		t.Error("Steps(other) should be nil")
	}

	if got := cfg.ForceStartSelector("/"); got != "#start" {
		t.Errorf("ForceStartSelector(/) = %q", got)
	}
	if got := cfg.ForceStartSelector("/other"); got != DefaultForceStartSelector {
		t.Errorf("ForceStartSelector(/other) = %q", got)
	}
}

func TestAssetErrors_MatchSentinels(t *testing.T) {
	src := &AssetSourceError{Kind: AssetScript, URL: "u1", Err: errors.New("boom")}
	all := &AllSourcesFailedError{Kind: AssetScript, Failed: []string{"u1"}, Causes: []error{src}}

	if !errors.Is(all, ErrAllSourcesFailed) {
		t.Error("want ErrAllSourcesFailed")
	}
	if !errors.Is(all, ErrAssetSourceFailed) {
		t.Error("causes should match ErrAssetSourceFailed")
	}
	if all.Error() != "all script sources failed: [u1]" {
		t.Errorf("Error() = %q", all.Error())
	}
}

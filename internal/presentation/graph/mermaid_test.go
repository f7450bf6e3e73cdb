package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/tourguide/internal/presentation/graph"
	"github.com/aretw0/tourguide/pkg/domain"
)

func sampleConfig() *domain.TourConfig {
	cfg := domain.EmptyTourConfig()
	cfg.PageList["/"] = "home"
	cfg.PageList["/index.html"] = "home"
	cfg.ForceStartSelectors["/"] = "#help"
	cfg.PageDrivers["home"] = []domain.Step{
		{Element: "#intro", Popover: domain.Popover{Title: "Welcome", NextClick: "#menu"}},
		{Element: "#menu-item", Popover: domain.Popover{HopeElement: "#menu-item"}},
		{Element: "#done", Popover: domain.Popover{Title: `Say "bye"`}},
	}
	return cfg
}

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		progress map[domain.PageID]graph.Progress
		contains []string
		excludes []string
	}{
		{
			name: "Structure",
			contains: []string{
				"graph TD",
				`path__[/"/"/] --> page_home`,
				`path__index_html[/"/index.html"/] --> page_home`,
				`path__ -. "force #help" .-> page_home`,
				`page_home(("home"))`,
				`page_home_1["1. Welcome"]`,
				`page_home --> page_home_1`,
				`page_home_2["2. #menu-item <br/> expects #menu-item"]`,
				`page_home_1 -. "click #menu" .-> page_home_2`,
				`page_home_2 --> page_home_3`,
				`page_home_3["3. Say 'bye'"]`,
			},
			excludes: []string{"classDef"},
		},
		{
			name:     "Progress",
			progress: map[domain.PageID]graph.Progress{"home": {Reached: 2}},
			contains: []string{
				"class page_home_1 visited;",
				"class page_home_2 current;",
			},
			excludes: []string{"class page_home_3"},
		},
		{
			name:     "Completed",
			progress: map[domain.PageID]graph.Progress{"home": {Completed: true}},
			contains: []string{"class page_home completed;"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := graph.GenerateMermaid(sampleConfig(), tt.progress)
			for _, want := range tt.contains {
				if !strings.Contains(out, want) {
					t.Errorf("expected output to contain %q\n%s", want, out)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(out, unwanted) {
					t.Errorf("expected output not to contain %q\n%s", unwanted, out)
				}
			}
		})
	}
}

func TestGenerateMermaid_Empty(t *testing.T) {
	out := graph.GenerateMermaid(domain.EmptyTourConfig(), nil)
	if strings.TrimSpace(out) != "graph TD" {
		t.Errorf("unexpected output: %q", out)
	}
}

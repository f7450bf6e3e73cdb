// Package graph renders tour configurations as Mermaid flowcharts.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/tourguide/pkg/domain"
)

// Progress marks how far a visitor got through a page's tour.
type Progress struct {
	// Reached is the number of steps seen, starting at 1.
	Reached   int
	Completed bool
}

// GenerateMermaid produces a flowchart of every page tour in cfg:
// - Paths: [/Parallelogram/] pointing at their page
// - Page: ((Circle))
// - Step: [Rectangle], chained in order
// - Auto-advance clicks: dotted edges labelled with the clicked selector
// Progress, when given for a page, styles the steps already seen.
func GenerateMermaid(cfg *domain.TourConfig, progress map[domain.PageID]Progress) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	paths := make([]string, 0, len(cfg.PageList))
	for p := range cfg.PageList {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		page := cfg.PageList[p]
		pathID := "path_" + sanitizeMermaidID(p)
		sb.WriteString(fmt.Sprintf("    %s[/\"%s\"/] --> %s\n", pathID, escape(p), pageID(page)))
		if sel, ok := cfg.ForceStartSelectors[p]; ok {
			sb.WriteString(fmt.Sprintf("    %s -. \"force %s\" .-> %s\n", pathID, escape(sel), pageID(page)))
		}
	}

	pages := make([]string, 0, len(cfg.PageDrivers))
	for page := range cfg.PageDrivers {
		pages = append(pages, string(page))
	}
	sort.Strings(pages)

	for _, name := range pages {
		page := domain.PageID(name)
		steps := cfg.PageDrivers[page]
		sb.WriteString(fmt.Sprintf("    %s((\"%s\"))\n", pageID(page), escape(name)))

		prev := pageID(page)
		for i, step := range steps {
			id := stepID(page, i)
			label := step.Popover.Title
			if label == "" {
				label = step.Element
			}
			if step.Popover.HopeElement != "" {
				label = fmt.Sprintf("%s <br/> expects %s", label, step.Popover.HopeElement)
			}
			sb.WriteString(fmt.Sprintf("    %s[\"%d. %s\"]\n", id, i+1, escape(label)))

			arrow := "-->"
			if i > 0 && steps[i-1].Popover.NextClick != "" {
				arrow = fmt.Sprintf("-. \"click %s\" .->", escape(steps[i-1].Popover.NextClick))
			}
			sb.WriteString(fmt.Sprintf("    %s %s %s\n", prev, arrow, id))
			prev = id
		}
	}

	if len(progress) > 0 {
		sb.WriteString("\n    %% Progress Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString("    classDef completed fill:#c8e6c9,stroke:#2e7d32,stroke-width:2px,color:#000;\n")

		for _, name := range pages {
			page := domain.PageID(name)
			pr, ok := progress[page]
			if !ok {
				continue
			}
			steps := cfg.PageDrivers[page]
			if pr.Completed {
				sb.WriteString(fmt.Sprintf("    class %s completed;\n", pageID(page)))
				continue
			}
			for i := 0; i < pr.Reached && i < len(steps); i++ {
				class := "visited"
				if i == pr.Reached-1 {
					class = "current"
				}
				sb.WriteString(fmt.Sprintf("    class %s %s;\n", stepID(page, i), class))
			}
		}
	}

	return sb.String()
}

func pageID(page domain.PageID) string {
	return "page_" + sanitizeMermaidID(string(page))
}

func stepID(page domain.PageID, i int) string {
	return fmt.Sprintf("%s_%d", pageID(page), i+1)
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", "#", "_", " ", "_")
	return r.Replace(id)
}

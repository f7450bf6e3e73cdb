package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/aretw0/tourguide/pkg/domain"
	"github.com/aretw0/tourguide/pkg/policy"
)

// PageStatuses reports the status of every page of cfg, sorted by page.
func PageStatuses(ctx context.Context, pol *policy.Policy, cfg *domain.TourConfig, now time.Time) []policy.Status {
	seen := map[domain.PageID]bool{}
	var pages []domain.PageID
	add := func(p domain.PageID) {
		if p != "" && !seen[p] {
			seen[p] = true
			pages = append(pages, p)
		}
	}
	for _, p := range cfg.PageList {
		add(p)
	}
	for p := range cfg.PageDrivers {
		add(p)
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i] < pages[j] })

	out := make([]policy.Status, 0, len(pages))
	for _, p := range pages {
		out = append(out, pol.Status(ctx, p, now))
	}
	return out
}

// WriteStatuses prints statuses as JSON or as one line per page.
func WriteStatuses(w io.Writer, statuses []policy.Status, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(statuses)
	}

	for _, st := range statuses {
		var state string
		switch {
		case st.Completed:
			state = "completed"
		case st.OptedOut:
			state = fmt.Sprintf("opted out after %d dismissals", st.DismissCount)
		case st.ShouldStart:
			state = "will start"
		default:
			state = fmt.Sprintf("cooling down, retry in %s", st.RetryIn.Round(time.Second))
		}
		if _, err := fmt.Fprintf(w, "%-20s %s\n", st.Page, state); err != nil {
			return err
		}
	}
	return nil
}

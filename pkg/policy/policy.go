// Package policy decides when a tutorial may start on its own and keeps the
// dismissal bookkeeping that drives the cool-down.
package policy

import (
	"context"
	"time"

	"github.com/aretw0/tourguide/pkg/domain"
	"github.com/aretw0/tourguide/pkg/visibility"
)

// MaxDismissals is the count at which a page never auto-starts again.
const MaxDismissals = 4

// Cooldown returns the wait after the n-th dismissal: n^4 hours.
func Cooldown(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	h := time.Duration(n) * time.Duration(n) * time.Duration(n) * time.Duration(n)
	return h * time.Hour
}

// Decide is the pure decision over one page's records.
// present reports whether entry exists; n is the page's dismissal count.
func Decide(entry domain.ViewedEntry, present bool, n int, now time.Time) bool {
	if !present {
		return true
	}
	if entry.Completed {
		return false
	}
	if n >= MaxDismissals {
		return false
	}
	return now.Sub(entry.DismissedAt) > Cooldown(n)
}

// Remaining returns how long until the page may auto-start again.
// Zero means it may start now; ok is false when it never will.
func Remaining(entry domain.ViewedEntry, present bool, n int, now time.Time) (d time.Duration, ok bool) {
	if !present {
		return 0, true
	}
	if entry.Completed || n >= MaxDismissals {
		return 0, false
	}
	if Decide(entry, present, n, now) {
		return 0, true
	}
	// Strictly greater than the cool-down, hence the extra millisecond.
	return entry.DismissedAt.Add(Cooldown(n)).Sub(now) + time.Millisecond, true
}

// Policy binds the decision rules to a visibility store.
type Policy struct {
	store *visibility.Store
}

// New creates a Policy over store.
func New(store *visibility.Store) *Policy {
	return &Policy{store: store}
}

// Store returns the underlying visibility store.
func (p *Policy) Store() *visibility.Store {
	return p.store
}

// ShouldStart reports whether the tour of page should start on its own at now.
func (p *Policy) ShouldStart(ctx context.Context, page domain.PageID, now time.Time) bool {
	entry, present := p.store.Viewed(ctx, page)
	return Decide(entry, present, p.store.DismissCountOf(ctx, page), now)
}

// Status describes the persisted state of one page.
type Status struct {
	Page         domain.PageID `json:"page"`
	Seen         bool          `json:"seen"`
	Completed    bool          `json:"completed"`
	DismissedAt  *time.Time    `json:"dismissed_at,omitempty"`
	DismissCount int           `json:"dismiss_count"`
	ShouldStart  bool          `json:"should_start"`
	OptedOut     bool          `json:"opted_out"`
	RetryIn      time.Duration `json:"retry_in"`
}

// Status reports the records and the decision for page at now.
func (p *Policy) Status(ctx context.Context, page domain.PageID, now time.Time) Status {
	entry, present := p.store.Viewed(ctx, page)
	n := p.store.DismissCountOf(ctx, page)
	remaining, ok := Remaining(entry, present, n, now)

	st := Status{
		Page:         page,
		Seen:         present,
		Completed:    present && entry.Completed,
		DismissCount: n,
		ShouldStart:  Decide(entry, present, n, now),
		OptedOut:     !ok && !entry.Completed,
		RetryIn:      remaining,
	}
	if present && !entry.Completed {
		at := entry.DismissedAt
		st.DismissedAt = &at
	}
	return st
}

// RecordDismissal stores a dismissal at now and increments the page counter.
// A completed page is terminal: neither record changes.
func (p *Policy) RecordDismissal(ctx context.Context, page domain.PageID, now time.Time) error {
	return p.store.Update(ctx, func(viewed domain.ViewedRecord, counts domain.DismissCount) error {
		if entry, ok := viewed[page]; ok && entry.Completed {
			return nil
		}
		viewed[page] = domain.DismissedEntry(now)
		counts[page]++
		return nil
	})
}

// RecordCompletion marks page as completed. The dismissal counter is untouched.
func (p *Policy) RecordCompletion(ctx context.Context, page domain.PageID) error {
	return p.store.SetViewed(ctx, page, domain.CompletedEntry())
}

package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// PageID is the canonical name of a navigable page.
type PageID string

// ViewedEntry is the per-page visibility state.
// The zero value is not a valid entry; absence is represented by a missing map key.
type ViewedEntry struct {
	// Completed is terminal: once set, the tour never auto-starts again.
	Completed bool
	// DismissedAt is the time of the last dismissal before completion.
	DismissedAt time.Time
}

// CompletedEntry returns the terminal entry.
func CompletedEntry() ViewedEntry {
	return ViewedEntry{Completed: true}
}

// DismissedEntry returns an entry recording a dismissal at t.
func DismissedEntry(t time.Time) ViewedEntry {
	return ViewedEntry{DismissedAt: t}
}

// MarshalJSON encodes a completed entry as `true` and a dismissal as epoch milliseconds.
func (e ViewedEntry) MarshalJSON() ([]byte, error) {
	if e.Completed {
		return []byte("true"), nil
	}
	return json.Marshal(e.DismissedAt.UnixMilli())
}

// UnmarshalJSON accepts `true` or a number of epoch milliseconds.
func (e *ViewedEntry) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("true")) {
		*e = CompletedEntry()
		return nil
	}

	var ms json.Number
	if err := json.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("invalid viewed entry %s: %w", data, err)
	}
	v, err := ms.Float64()
	if err != nil {
		return fmt.Errorf("invalid viewed timestamp %s: %w", data, err)
	}
	*e = DismissedEntry(time.UnixMilli(int64(v)))
	return nil
}

// ViewedRecord maps pages to their visibility state.
type ViewedRecord map[PageID]ViewedEntry

// DismissCount maps pages to the number of dismissals before completion.
type DismissCount map[PageID]int

// Clone returns a shallow copy safe for mutation.
func (r ViewedRecord) Clone() ViewedRecord {
	out := make(ViewedRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Clone returns a shallow copy safe for mutation.
func (c DismissCount) Clone() DismissCount {
	out := make(DismissCount, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

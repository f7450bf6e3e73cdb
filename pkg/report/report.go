// Package report provides diagnostics sinks for tour events.
//
// Every Reporter swallows its own failures; a broken sink never affects the tour.
package report

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/tourguide/pkg/ports"
)

// Nop discards every report.
type Nop struct{}

func (Nop) Report(ctx context.Context, label string) {}

// Log writes each report as a structured log line.
type Log struct {
	Logger *slog.Logger
}

func (l Log) Report(ctx context.Context, label string) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "tour event", "label", label)
}

// Multi fans a report out to every sink, in order.
func Multi(reporters ...ports.Reporter) ports.Reporter {
	return multi(reporters)
}

type multi []ports.Reporter

func (m multi) Report(ctx context.Context, label string) {
	for _, r := range m {
		if r != nil {
			r.Report(ctx, label)
		}
	}
}

// Recorder keeps reported labels in memory.
type Recorder struct {
	mu     sync.Mutex
	labels []string
}

func (r *Recorder) Report(ctx context.Context, label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.labels = append(r.labels, label)
}

// Labels returns a copy of the recorded labels.
func (r *Recorder) Labels() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.labels...)
}

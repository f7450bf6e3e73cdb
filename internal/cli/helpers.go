package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/tourguide/internal/config"
	"github.com/aretw0/tourguide/internal/logging"
	"github.com/aretw0/tourguide/pkg/domain"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	start  sync.Once
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	sc.start.Do(func() {
		signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case sig := <-sc.sigCh:
				sc.mu.Lock()
				sc.sigVal = sig
				sc.mu.Unlock()
				sc.Cancel()
			case <-sc.Context.Done():
				// Context cancelled elsewhere
			}
			sc.stop.Do(func() {
				signal.Stop(sc.sigCh)
			})
		}()
	})

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// createLogger configures the application logger on Stderr, keeping Stdout for the overlay.
func createLogger(s *config.Settings) *slog.Logger {
	return logging.NewWithWriter(os.Stderr, logging.ParseLevel(s.LogLevel), s.LogFormat == "json")
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnAssetAttempt: func(ctx context.Context, e *domain.AssetEvent) {
			logger.Debug("Asset Attempt", "kind", e.Kind, "url", e.URL, "outcome", e.Outcome, "duration", e.Duration)
		},
		OnTourStart: func(ctx context.Context, e *domain.TourEvent) {
			logger.Debug("Tour Start", "page", e.Page, "forced", e.Forced)
		},
		OnStepAdvance: func(ctx context.Context, e *domain.TourEvent) {
			logger.Debug("Step Advance", "page", e.Page, "step", e.Step)
		},
		OnTourComplete: func(ctx context.Context, e *domain.TourEvent) {
			logger.Debug("Tour Complete", "page", e.Page)
		},
		OnTourDismiss: func(ctx context.Context, e *domain.TourEvent) {
			logger.Debug("Tour Dismiss", "page", e.Page, "step", e.Step)
		},
	}
}

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, io.EOF)
}

// HandleExecutionError maps interruptions to a clean exit.
func HandleExecutionError(err error) error {
	if err == nil || isInterrupted(err) {
		return nil // Exit 0 for interruptions
	}
	return err
}

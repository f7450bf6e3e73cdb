package tourconfig

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/aretw0/tourguide/pkg/domain"
	"github.com/aretw0/tourguide/pkg/ports"
)

// Holder keeps the current configuration of a long-running process.
type Holder struct {
	src ports.ConfigSource
	cur atomic.Pointer[domain.TourConfig]
}

// NewHolder creates a holder serving an empty configuration until Reload.
func NewHolder(src ports.ConfigSource) *Holder {
	h := &Holder{src: src}
	h.cur.Store(domain.EmptyTourConfig())
	return h
}

// Current returns the last successfully loaded configuration.
func (h *Holder) Current() *domain.TourConfig {
	return h.cur.Load()
}

// Load implements ports.ConfigSource with the current value.
func (h *Holder) Load(ctx context.Context) (*domain.TourConfig, error) {
	return h.Current(), nil
}

// Reload fetches the configuration again. On failure the previous one is kept.
func (h *Holder) Reload(ctx context.Context) error {
	cfg, err := h.src.Load(ctx)
	if err != nil {
		return err
	}
	h.cur.Store(cfg)
	return nil
}

// Watch reloads on every change signalled by the source and calls onReload with
// the changed document ID. It returns false when the source cannot be watched.
func (h *Holder) Watch(ctx context.Context, logger *slog.Logger, onReload func(id string)) bool {
	w, ok := h.src.(ports.Watchable)
	if !ok {
		return false
	}
	events, err := w.Watch(ctx)
	if err != nil {
		logger.Warn("Config watch unavailable", "error", err)
		return false
	}

	go func() {
		for id := range events {
			if err := h.Reload(ctx); err != nil {
				logger.Error("Config reload failed, keeping previous", "changed", id, "error", err)
				continue
			}
			logger.Info("Config reloaded", "changed", id)
			if onReload != nil {
				onReload(id)
			}
		}
	}()
	return true
}

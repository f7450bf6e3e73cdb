package ports

import (
	"context"

	"github.com/aretw0/tourguide/pkg/domain"
)

// Overlay is the external step-overlay engine.
// The controller depends only on this capability, never on the engine's internals.
// The engine fires options.OnNext on every step advance and options.OnDeselected when
// the user closes it.
type Overlay interface {
	Configure(options domain.OverlayOptions) error
	DefineSteps(steps []domain.Step) error
	Start(ctx context.Context) error
	HasNextStep() bool
}

// Reporter is a fire-and-forget diagnostics sink.
// Implementations must never panic or block the caller on transport failures.
type Reporter interface {
	Report(ctx context.Context, label string)
}

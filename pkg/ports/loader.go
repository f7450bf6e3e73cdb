package ports

import (
	"context"

	"github.com/aretw0/tourguide/pkg/domain"
)

// ConfigSource defines how the controller retrieves the tour configuration.
type ConfigSource interface {
	// Load fetches and parses the configuration.
	// Errors wrap domain.ErrConfigFetchFailed.
	Load(ctx context.Context) (*domain.TourConfig, error)
}

// Watchable defines an interface for sources that can notify about backend changes.
// This is typically used to reload the configuration of a long-running server.
type Watchable interface {
	// Watch returns a channel that is signaled when the underlying configuration changes.
	Watch(ctx context.Context) (<-chan string, error)
}

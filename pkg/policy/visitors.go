package policy

import (
	"log/slog"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/aretw0/tourguide/pkg/ports"
	"github.com/aretw0/tourguide/pkg/visibility"
)

// visitorStripes is the number of local mutexes shared by all visitors.
const visitorStripes = 64

// Visitors hands out policies scoped to one visitor over a shared store.
// It holds no per-visitor state: visitor ids come from clients and are unbounded.
type Visitors struct {
	kv      ports.KVStore
	locker  ports.DistributedLocker
	logger  *slog.Logger
	stripes [visitorStripes]sync.Mutex
}

// NewVisitors scopes kv per visitor. locker and logger may be nil.
func NewVisitors(kv ports.KVStore, locker ports.DistributedLocker, logger *slog.Logger) *Visitors {
	return &Visitors{kv: kv, locker: locker, logger: logger}
}

// For returns a policy over the visitor's records. Policies of the same
// visitor serialize their updates, even across calls.
func (v *Visitors) For(visitor string) *Policy {
	opts := []visibility.Option{visibility.WithMutex(v.stripe(visitor))}
	if v.logger != nil {
		opts = append(opts, visibility.WithLogger(v.logger))
	}
	if v.locker != nil {
		opts = append(opts, visibility.WithLocker(v.locker, "visibility:"+visitor))
	}
	return New(visibility.New(visibility.Namespace(v.kv, visitor), opts...))
}

func (v *Visitors) stripe(visitor string) *sync.Mutex {
	return &v.stripes[xxhash.Sum64String(visitor)%visitorStripes]
}

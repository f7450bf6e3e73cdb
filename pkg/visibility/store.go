package visibility

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/tourguide/internal/logging"
	"github.com/aretw0/tourguide/pkg/domain"
	"github.com/aretw0/tourguide/pkg/ports"
)

// Store is the persistence facade over the two visibility records.
type Store struct {
	kv ports.KVStore

	mu      sync.Locker             // serializes local read-modify-write
	locker  ports.DistributedLocker // optional, serializes across processes
	lockKey string
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithLocker enables distributed locking of read-modify-write cycles.
// key scopes the lock, typically the visitor namespace.
func WithLocker(locker ports.DistributedLocker, key string) Option {
	return func(s *Store) {
		s.locker = locker
		if key != "" {
			s.lockKey = key
		}
	}
}

// WithMutex shares mu with other stores over the same records, so that
// short-lived stores still serialize their read-modify-write cycles.
func WithMutex(mu sync.Locker) Option {
	return func(s *Store) {
		if mu != nil {
			s.mu = mu
		}
	}
}

// WithLockTTL bounds how long a crashed writer can hold the lock.
func WithLockTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.lockTTL = ttl
	}
}

// WithLogger configures a logger for corrupt-record warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a Store over kv.
func New(kv ports.KVStore, opts ...Option) *Store {
	s := &Store{
		kv:      kv,
		mu:      &sync.Mutex{},
		lockKey: "visibility",
		lockTTL: 10 * time.Second,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetViewed returns the viewed record, empty when missing or unreadable.
func (s *Store) GetViewed(ctx context.Context) domain.ViewedRecord {
	record := domain.ViewedRecord{}
	s.read(ctx, domain.KeyViewed, &record)
	if record == nil {
		record = domain.ViewedRecord{}
	}
	return record
}

// GetDismissCount returns the dismissal counters, empty when missing or unreadable.
func (s *Store) GetDismissCount(ctx context.Context) domain.DismissCount {
	counts := domain.DismissCount{}
	s.read(ctx, domain.KeyDismissCount, &counts)
	if counts == nil {
		counts = domain.DismissCount{}
	}
	return counts
}

// Viewed returns the entry of one page and whether it exists.
func (s *Store) Viewed(ctx context.Context, page domain.PageID) (domain.ViewedEntry, bool) {
	entry, ok := s.GetViewed(ctx)[page]
	return entry, ok
}

// DismissCountOf returns the dismissal count of one page (0 when absent).
func (s *Store) DismissCountOf(ctx context.Context, page domain.PageID) int {
	return s.GetDismissCount(ctx)[page]
}

// SetViewed writes one page entry, keeping the others.
func (s *Store) SetViewed(ctx context.Context, page domain.PageID, entry domain.ViewedEntry) error {
	return s.withLock(ctx, func(ctx context.Context) error {
		record := s.GetViewed(ctx)
		record[page] = entry
		return s.write(ctx, domain.KeyViewed, record)
	})
}

// SetDismissCount writes one page counter, keeping the others.
func (s *Store) SetDismissCount(ctx context.Context, page domain.PageID, n int) error {
	if n < 0 {
		return fmt.Errorf("dismiss count cannot be negative: %d", n)
	}
	return s.withLock(ctx, func(ctx context.Context) error {
		counts := s.GetDismissCount(ctx)
		counts[page] = n
		return s.write(ctx, domain.KeyDismissCount, counts)
	})
}

// Update runs fn over both records and writes back whichever fn changed.
// fn may mutate the maps in place.
func (s *Store) Update(ctx context.Context, fn func(domain.ViewedRecord, domain.DismissCount) error) error {
	return s.withLock(ctx, func(ctx context.Context) error {
		viewed := s.GetViewed(ctx)
		counts := s.GetDismissCount(ctx)
		origViewed, origCounts := viewed.Clone(), counts.Clone()

		if err := fn(viewed, counts); err != nil {
			return err
		}

		if !sameViewed(origViewed, viewed) {
			if err := s.write(ctx, domain.KeyViewed, viewed); err != nil {
				return err
			}
		}
		if !sameCounts(origCounts, counts) {
			if err := s.write(ctx, domain.KeyDismissCount, counts); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) read(ctx context.Context, key string, dst any) {
	data, err := s.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("Visibility record unavailable, using empty mapping", "key", key, "err", err)
		}
		return
	}
	if len(data) == 0 {
		return
	}
	if err := json.Unmarshal(data, dst); err != nil {
		s.logger.Warn("Visibility record corrupt, using empty mapping", "key", key, "err", err)
		// Partial decodes must not leak through.
		switch v := dst.(type) {
		case *domain.ViewedRecord:
			*v = domain.ViewedRecord{}
		case *domain.DismissCount:
			*v = domain.DismissCount{}
		}
	}
}

func (s *Store) write(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, data); err != nil {
		return fmt.Errorf("failed to persist %s: %w", key, err)
	}
	return nil
}

// withLock executes fn while holding the local lock and, if configured, the distributed one.
func (s *Store) withLock(ctx context.Context, fn func(context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, s.lockKey, s.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				s.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"lock_key", s.lockKey,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

func sameViewed(a, b domain.ViewedRecord) bool {
	if len(a) != len(b) {
		return false
	}
	for k, va := range a {
		vb, ok := b[k]
		if !ok || va.Completed != vb.Completed || !va.DismissedAt.Equal(vb.DismissedAt) {
			return false
		}
	}
	return true
}

func sameCounts(a, b domain.DismissCount) bool {
	if len(a) != len(b) {
		return false
	}
	for k, va := range a {
		if vb, ok := b[k]; !ok || va != vb {
			return false
		}
	}
	return true
}

package policy_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/tourguide/pkg/adapters/memory"
	"github.com/aretw0/tourguide/pkg/domain"
	"github.com/aretw0/tourguide/pkg/policy"
	"github.com/aretw0/tourguide/pkg/visibility"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newPolicy() (*policy.Policy, *memory.Store) {
	kv := memory.NewStore()
	return policy.New(visibility.New(kv)), kv
}

// dismissN records n dismissals, the last one at "at".
func dismissN(t *testing.T, p *policy.Policy, page domain.PageID, n int, at time.Time) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, p.RecordDismissal(context.Background(), page, at))
	}
}

func TestCooldown(t *testing.T) {
	assert.Equal(t, time.Duration(0), policy.Cooldown(0))
	assert.Equal(t, time.Hour, policy.Cooldown(1))
	assert.Equal(t, 16*time.Hour, policy.Cooldown(2))
	assert.Equal(t, 81*time.Hour, policy.Cooldown(3))
	assert.Equal(t, 256*time.Hour, policy.Cooldown(4))
}

func TestShouldStart_FirstVisit(t *testing.T) {
	p, _ := newPolicy()
	assert.True(t, p.ShouldStart(context.Background(), "home", t0))
}

func TestShouldStart_OneDismissal(t *testing.T) {
	p, _ := newPolicy()
	ctx := context.Background()
	dismissN(t, p, "home", 1, t0)

	assert.False(t, p.ShouldStart(ctx, "home", t0.Add(30*time.Minute)))
	assert.False(t, p.ShouldStart(ctx, "home", t0.Add(time.Hour)), "cool-down must be strictly exceeded")
	assert.True(t, p.ShouldStart(ctx, "home", t0.Add(2*time.Hour)))
}

func TestShouldStart_GrowingCooldown(t *testing.T) {
	ctx := context.Background()

	p, _ := newPolicy()
	dismissN(t, p, "home", 2, t0)
	assert.False(t, p.ShouldStart(ctx, "home", t0.Add(15*time.Hour)))
	assert.True(t, p.ShouldStart(ctx, "home", t0.Add(17*time.Hour)))

	p, _ = newPolicy()
	dismissN(t, p, "home", 3, t0)
	assert.False(t, p.ShouldStart(ctx, "home", t0.Add(80*time.Hour)))
	assert.True(t, p.ShouldStart(ctx, "home", t0.Add(82*time.Hour)))
}

func TestShouldStart_OptOutAfterFourDismissals(t *testing.T) {
	p, _ := newPolicy()
	ctx := context.Background()
	dismissN(t, p, "home", 4, t0)

	assert.False(t, p.ShouldStart(ctx, "home", t0.Add(24*365*time.Hour)))
	assert.False(t, p.ShouldStart(ctx, "home", t0.Add(100*24*365*time.Hour)))
}

func TestRecordDismissal_Monotonic(t *testing.T) {
	p, _ := newPolicy()
	ctx := context.Background()
	store := p.Store()

	require.NoError(t, p.RecordDismissal(ctx, "home", t0))
	assert.Equal(t, 1, store.DismissCountOf(ctx, "home"))

	require.NoError(t, p.RecordDismissal(ctx, "home", t0.Add(time.Second)))
	assert.Equal(t, 2, store.DismissCountOf(ctx, "home"))

	entry, ok := store.Viewed(ctx, "home")
	require.True(t, ok)
	assert.True(t, entry.DismissedAt.Equal(t0.Add(time.Second)))
}

func TestRecordCompletion_IsTerminal(t *testing.T) {
	p, kv := newPolicy()
	ctx := context.Background()

	dismissN(t, p, "home", 2, t0)
	require.NoError(t, p.RecordCompletion(ctx, "home"))

	// Reload from the same backend.
	reloaded := policy.New(visibility.New(kv))
	entry, ok := reloaded.Store().Viewed(ctx, "home")
	require.True(t, ok)
	assert.True(t, entry.Completed)

	require.NoError(t, reloaded.RecordDismissal(ctx, "home", t0.Add(time.Hour)))

	entry, _ = reloaded.Store().Viewed(ctx, "home")
	assert.True(t, entry.Completed, "completion must not be downgraded")
	assert.Equal(t, 2, reloaded.Store().DismissCountOf(ctx, "home"), "count is frozen once completed")
	assert.False(t, reloaded.ShouldStart(ctx, "home", t0.Add(1000*time.Hour)))
}

func TestRecordCompletion_KeepsCount(t *testing.T) {
	p, _ := newPolicy()
	ctx := context.Background()

	dismissN(t, p, "home", 1, t0)
	require.NoError(t, p.RecordCompletion(ctx, "home"))
	assert.Equal(t, 1, p.Store().DismissCountOf(ctx, "home"))
}

func TestStatus(t *testing.T) {
	p, _ := newPolicy()
	ctx := context.Background()

	st := p.Status(ctx, "home", t0)
	assert.True(t, st.ShouldStart)
	assert.False(t, st.Seen)

	dismissN(t, p, "home", 2, t0)
	st = p.Status(ctx, "home", t0.Add(10*time.Hour))
	assert.False(t, st.ShouldStart)
	assert.Equal(t, 2, st.DismissCount)
	assert.Equal(t, 6*time.Hour+time.Millisecond, st.RetryIn)
	require.NotNil(t, st.DismissedAt)

	dismissN(t, p, "home", 2, t0)
	st = p.Status(ctx, "home", t0)
	assert.True(t, st.OptedOut)

	require.NoError(t, p.RecordCompletion(ctx, "other"))
	st = p.Status(ctx, "other", t0)
	assert.True(t, st.Completed)
	assert.False(t, st.OptedOut)
	assert.Nil(t, st.DismissedAt)
}

func TestDecide_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 10).Draw(t, "n")
		elapsed := time.Duration(rapid.Int64Range(0, int64(2000*time.Hour)).Draw(t, "elapsed"))
		now := t0.Add(elapsed)

		if !policy.Decide(domain.ViewedEntry{}, false, n, now) {
			t.Fatalf("unseen page must start")
		}
		if policy.Decide(domain.CompletedEntry(), true, n, now) {
			t.Fatalf("completed page must never start")
		}

		got := policy.Decide(domain.DismissedEntry(t0), true, n, now)
		want := n < policy.MaxDismissals && elapsed > policy.Cooldown(n)
		if got != want {
			t.Fatalf("Decide(n=%d, elapsed=%s) = %v, want %v", n, elapsed, got, want)
		}
	})
}

func TestRecordDismissal_CountProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p, _ := newPolicy()
		ctx := context.Background()
		calls := rapid.IntRange(1, 8).Draw(rt, "calls")

		prev := 0
		for i := 0; i < calls; i++ {
			if err := p.RecordDismissal(ctx, "home", t0); err != nil {
				rt.Fatalf("RecordDismissal: %v", err)
			}
			n := p.Store().DismissCountOf(ctx, "home")
			if n != prev+1 {
				rt.Fatalf("count after call %d = %d, want %d", i+1, n, prev+1)
			}
			prev = n
		}
	})
}

func TestVisitors_Scope(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewStore()
	visitors := policy.NewVisitors(kv, nil, nil)

	require.NoError(t, visitors.For("alice").RecordCompletion(ctx, "home"))

	assert.True(t, visitors.For("bob").ShouldStart(ctx, "home", t0))
	assert.False(t, visitors.For("alice").ShouldStart(ctx, "home", t0))

	_, err := kv.Get(ctx, "alice."+domain.KeyViewed)
	assert.NoError(t, err)
}

func TestVisitors_SerializesAcrossCalls(t *testing.T) {
	ctx := context.Background()
	visitors := policy.NewVisitors(memory.NewStore(), nil, nil)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, visitors.For("alice").RecordDismissal(ctx, "home", t0))
		}()
	}
	wg.Wait()

	assert.Equal(t, n, visitors.For("alice").Store().DismissCountOf(ctx, "home"))
}

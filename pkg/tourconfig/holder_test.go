package tourconfig

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/tourguide/internal/logging"
	"github.com/aretw0/tourguide/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedSource struct {
	configs []*domain.TourConfig
	errs    []error
	calls   int
	events  chan string
}

func (s *scriptedSource) Load(ctx context.Context) (*domain.TourConfig, error) {
	i := s.calls
	s.calls++
	return s.configs[i], s.errs[i]
}

func (s *scriptedSource) Watch(ctx context.Context) (<-chan string, error) {
	return s.events, nil
}

func TestHolder_ReloadKeepsPreviousOnFailure(t *testing.T) {
	first := domain.EmptyTourConfig()
	first.PageList["/"] = "home"
	src := &scriptedSource{
		configs: []*domain.TourConfig{first, nil},
		errs:    []error{nil, errors.New("boom")},
	}

	h := NewHolder(src)
	assert.Empty(t, h.Current().PageList)

	require.NoError(t, h.Reload(context.Background()))
	assert.Equal(t, first, h.Current())

	assert.Error(t, h.Reload(context.Background()))
	cfg, err := h.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, cfg)
}

func TestHolder_Watch(t *testing.T) {
	next := domain.EmptyTourConfig()
	next.PageList["/docs"] = "docs"
	src := &scriptedSource{
		configs: []*domain.TourConfig{next},
		errs:    []error{nil},
		events:  make(chan string, 1),
	}

	h := NewHolder(src)
	reloaded := make(chan string, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.True(t, h.Watch(ctx, logging.NewNop(), func(id string) { reloaded <- id }))
	src.events <- "docs.md"

	select {
	case id := <-reloaded:
		assert.Equal(t, "docs.md", id)
	case <-time.After(time.Second):
		t.Fatal("reload not signalled")
	}
	assert.Equal(t, domain.PageID("docs"), h.Current().PageList["/docs"])
	close(src.events)
}

func TestHolder_WatchUnsupported(t *testing.T) {
	h := NewHolder(&StaticSource{})
	assert.False(t, h.Watch(context.Background(), logging.NewNop(), nil))
}

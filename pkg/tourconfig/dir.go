package tourconfig

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/loam"
	"github.com/aretw0/tourguide/pkg/domain"
)

// PageMetadata is the front matter of one page document.
type PageMetadata struct {
	// Page is the page identity; defaults to the document ID.
	Page string `json:"page" mapstructure:"page"`
	// Paths are the navigation paths resolving to this page.
	Paths []string `json:"paths" mapstructure:"paths"`
	// ForceStart is the selector of the "start tutorial" affordance on these paths.
	ForceStart string        `json:"force_start" mapstructure:"force_start"`
	Steps      []domain.Step `json:"steps" mapstructure:"steps"`
	// InitConfig entries are merged into the shared overlay options.
	InitConfig map[string]any `json:"init_config" mapstructure:"init_config"`
}

// DirSource reads one document per page from a loam repository.
type DirSource struct {
	Path string

	once sync.Once
	repo *loam.TypedRepository[PageMetadata]
	err  error
}

func (s *DirSource) open() (*loam.TypedRepository[PageMetadata], error) {
	s.once.Do(func() {
		absPath, err := filepath.Abs(s.Path)
		if err != nil {
			s.err = fmt.Errorf("%w: invalid path: %v", domain.ErrConfigFetchFailed, err)
			return
		}
		// Read-only: the source never writes page documents.
		repo, err := loam.Init(absPath,
			loam.WithStrict(true),
			loam.WithReadOnly(true),
		)
		if err != nil {
			s.err = fmt.Errorf("%w: failed to initialize loam: %v", domain.ErrConfigFetchFailed, err)
			return
		}
		s.repo = loam.NewTypedRepository[PageMetadata](repo)
	})
	return s.repo, s.err
}

// Load assembles a TourConfig from every page document.
func (s *DirSource) Load(ctx context.Context) (*domain.TourConfig, error) {
	repo, err := s.open()
	if err != nil {
		return nil, err
	}

	docs, err := repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: loam list failed: %v", domain.ErrConfigFetchFailed, err)
	}

	// Deterministic merge order for InitConfig.
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })

	cfg := domain.EmptyTourConfig()
	for _, doc := range docs {
		meta := doc.Data
		page := domain.PageID(meta.Page)
		if page == "" {
			page = domain.PageID(trimExtension(doc.ID))
		}

		if _, dup := cfg.PageDrivers[page]; dup {
			return nil, fmt.Errorf("%w: page %q defined twice (%s)", domain.ErrConfigFetchFailed, page, doc.ID)
		}
		if len(meta.Steps) > 0 {
			cfg.PageDrivers[page] = meta.Steps
		}
		for _, path := range meta.Paths {
			cfg.PageList[path] = page
			if meta.ForceStart != "" {
				cfg.ForceStartSelectors[path] = meta.ForceStart
			}
		}
		for k, v := range meta.InitConfig {
			cfg.InitConfig[k] = v
		}
	}
	return cfg, nil
}

// Watch signals the ID of every changed page document.
func (s *DirSource) Watch(ctx context.Context) (<-chan string, error) {
	repo, err := s.open()
	if err != nil {
		return nil, err
	}

	events, err := repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- evt.ID:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}

func trimExtension(id string) string {
	return filepath.ToSlash(strings.TrimSuffix(id, filepath.Ext(id)))
}

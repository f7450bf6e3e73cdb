package tourconfig

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/aretw0/tourguide/pkg/domain"
	"github.com/aretw0/tourguide/pkg/ports"
)

// maxConfigSize caps the configuration document.
const maxConfigSize = 4 << 20

// HTTPSource fetches the configuration from a URL.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

// Load fetches and parses the document at s.URL.
func (s *HTTPSource) Load(ctx context.Context) (*domain.TourConfig, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: network response was not ok: %s", domain.ErrConfigFetchFailed, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxConfigSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigFetchFailed, err)
	}
	if len(data) > maxConfigSize {
		return nil, fmt.Errorf("%w: document larger than %d bytes", domain.ErrConfigFetchFailed, maxConfigSize)
	}
	return Parse(data, DetectFormat(req.URL.Path, resp.Header.Get("Content-Type")))
}

// FileSource reads the configuration from a local JSON or YAML file.
type FileSource struct {
	Path string
}

// Load reads and parses s.Path.
func (s *FileSource) Load(ctx context.Context) (*domain.TourConfig, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigFetchFailed, err)
	}
	return Parse(data, DetectFormat(s.Path, ""))
}

// StaticSource serves an in-memory configuration.
type StaticSource struct {
	Config *domain.TourConfig
}

// Load returns the configured value, or an empty config.
func (s *StaticSource) Load(ctx context.Context) (*domain.TourConfig, error) {
	if s.Config == nil {
		return domain.EmptyTourConfig(), nil
	}
	return s.Config, nil
}

// NewSource picks a source for location: an http(s) URL, a directory, or a file.
func NewSource(location string, client *http.Client) ports.ConfigSource {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return &HTTPSource{URL: location, Client: client}
	}
	if info, err := os.Stat(location); err == nil && info.IsDir() {
		return &DirSource{Path: location}
	}
	return &FileSource{Path: location}
}

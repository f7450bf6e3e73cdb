package assets

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// maxAssetSize caps a single download.
const maxAssetSize = 8 << 20

// Fetcher retrieves the raw bytes of an asset.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches assets over HTTP(S).
type HTTPFetcher struct {
	Client *http.Client
}

// Fetch performs a GET bound to ctx; non-2xx statuses are errors.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid asset url: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if len(body) > maxAssetSize {
		return nil, fmt.Errorf("asset larger than %d bytes", maxAssetSize)
	}
	return body, nil
}

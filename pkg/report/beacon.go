package report

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/aretw0/tourguide/internal/logging"
	"github.com/google/uuid"
)

// Beacon is the payload posted by HTTPReporter.
type Beacon struct {
	ClientID  string    `json:"client_id"`
	Category  string    `json:"category"`
	Label     string    `json:"label"`
	Timestamp time.Time `json:"timestamp"`
}

// HTTPReporter posts each label to an endpoint without waiting for the response.
type HTTPReporter struct {
	endpoint string
	clientID string
	client   *http.Client
	logger   *slog.Logger
	now      func() time.Time
	wg       sync.WaitGroup
}

// BeaconOption configures an HTTPReporter.
type BeaconOption func(*HTTPReporter)

// WithClientID sets the client identifier. A random UUID is used otherwise.
func WithClientID(id string) BeaconOption {
	return func(r *HTTPReporter) { r.clientID = id }
}

// WithBeaconClient sets the HTTP client.
func WithBeaconClient(c *http.Client) BeaconOption {
	return func(r *HTTPReporter) { r.client = c }
}

// WithBeaconLogger sets the logger used for delivery failures.
func WithBeaconLogger(l *slog.Logger) BeaconOption {
	return func(r *HTTPReporter) { r.logger = l }
}

// NewHTTPReporter creates a reporter posting to endpoint.
func NewHTTPReporter(endpoint string, opts ...BeaconOption) *HTTPReporter {
	r := &HTTPReporter{
		endpoint: endpoint,
		clientID: uuid.NewString(),
		client:   &http.Client{Timeout: 5 * time.Second},
		logger:   logging.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ClientID returns the identifier sent with every beacon.
func (r *HTTPReporter) ClientID() string {
	return r.clientID
}

// Report sends the beacon in the background.
func (r *HTTPReporter) Report(ctx context.Context, label string) {
	body, err := json.Marshal(Beacon{
		ClientID:  r.clientID,
		Category:  "driver",
		Label:     label,
		Timestamp: r.now().UTC(),
	})
	if err != nil {
		r.logger.Debug("beacon encode failed", "error", err)
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		// Detached from ctx: a beacon outlives the event that produced it.
		req, err := http.NewRequestWithContext(context.WithoutCancel(ctx), http.MethodPost, r.endpoint, bytes.NewReader(body))
		if err != nil {
			r.logger.Debug("beacon request failed", "error", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := r.client.Do(req)
		if err != nil {
			r.logger.Debug("beacon delivery failed", "label", label, "error", err)
			return
		}
		resp.Body.Close()
		if resp.StatusCode >= 300 {
			r.logger.Debug("beacon rejected", "label", label, "status", resp.StatusCode)
		}
	}()
}

// Flush waits for in-flight beacons.
func (r *HTTPReporter) Flush() {
	r.wg.Wait()
}

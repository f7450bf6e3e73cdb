package assets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/tourguide/internal/logging"
	"github.com/aretw0/tourguide/pkg/domain"
	"github.com/aretw0/tourguide/pkg/ports"
)

// loadedMarker lets a head own the Loaded flag of its nodes.
type loadedMarker interface {
	MarkLoaded(node *domain.ResourceNode)
}

// Loader loads assets with ordered mirror fallback.
type Loader struct {
	head       ports.ResourceHead
	completers map[domain.AssetKind]Completer
	runtime    *ScriptRuntime
	client     *http.Client
	logger     *slog.Logger
	hooks      domain.LifecycleHooks
}

// Option configures the Loader.
type Option func(*Loader)

// WithCompleter overrides the completion signal of kind.
func WithCompleter(kind domain.AssetKind, c Completer) Option {
	return func(l *Loader) {
		l.completers[kind] = c
	}
}

// WithHTTPClient sets the client used by the default completers.
func WithHTTPClient(client *http.Client) Option {
	return func(l *Loader) {
		l.client = client
	}
}

// WithScriptRuntime sets the runtime scripts are executed into.
func WithScriptRuntime(rt *ScriptRuntime) Option {
	return func(l *Loader) {
		l.runtime = rt
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(l *Loader) {
		l.hooks = hooks
	}
}

// NewLoader creates a Loader attaching nodes to head.
func NewLoader(head ports.ResourceHead, opts ...Option) *Loader {
	l := &Loader{
		head:       head,
		completers: make(map[domain.AssetKind]Completer),
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}

	if l.runtime == nil {
		l.runtime = NewScriptRuntime()
	}
	fetcher := &HTTPFetcher{Client: l.client}
	if _, ok := l.completers[domain.AssetStylesheet]; !ok {
		l.completers[domain.AssetStylesheet] = &StylesheetCompleter{Fetcher: fetcher}
	}
	if _, ok := l.completers[domain.AssetScript]; !ok {
		l.completers[domain.AssetScript] = &ScriptCompleter{Fetcher: fetcher, Runtime: l.runtime}
	}
	return l
}

// Runtime returns the runtime scripts were executed into.
func (l *Loader) Runtime() *ScriptRuntime {
	return l.runtime
}

// LoadOrdered tries req.URLs in order and returns the first that loads.
// When every candidate fails it returns *domain.AllSourcesFailedError.
// Cancellation of ctx stops the sequence and returns ctx.Err().
func (l *Loader) LoadOrdered(ctx context.Context, req domain.AssetRequest) (string, error) {
	completer, ok := l.completers[req.Kind]
	if !ok {
		return "", fmt.Errorf("unsupported asset kind %q", req.Kind)
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = domain.DefaultAssetTimeout
	}

	failed := &domain.AllSourcesFailedError{Kind: req.Kind}
	for _, url := range req.URLs {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		err := l.attempt(ctx, completer, req.Kind, url, timeout)
		if err == nil {
			l.logger.Debug("Asset loaded", "kind", req.Kind, "url", url)
			return url, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		srcErr := &domain.AssetSourceError{Kind: req.Kind, URL: url, Err: err}
		l.logger.Warn("Asset source failed, trying next", "kind", req.Kind, "url", url, "err", err)
		failed.Failed = append(failed.Failed, url)
		failed.Causes = append(failed.Causes, srcErr)
	}

	l.logger.Error("All asset sources failed", "kind", req.Kind, "urls", failed.Failed)
	return "", failed
}

// attempt runs one candidate against the timeout.
func (l *Loader) attempt(ctx context.Context, c Completer, kind domain.AssetKind, url string, timeout time.Duration) error {
	node := &domain.ResourceNode{Kind: kind, URL: url}
	l.head.Attach(node)

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	// Buffered so an abandoned attempt never blocks on delivery.
	done := make(chan error, 1)
	go func() {
		done <- c.Complete(attemptCtx, url)
	}()

	var err error
	returned := false
	select {
	case err = <-done:
		returned = true
	case <-attemptCtx.Done():
		err = attemptCtx.Err()
	}
	elapsed := time.Since(start)

	outcome := domain.OutcomeLoaded
	if err != nil {
		cancel()
		if !returned {
			// The next candidate starts only once this one has given up.
			<-done
		}
		l.head.Detach(node)
		outcome = domain.OutcomeError
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = domain.OutcomeTimeout
		}
	} else if m, ok := l.head.(loadedMarker); ok {
		m.MarkLoaded(node)
	} else {
		node.Loaded = true
	}

	if l.hooks.OnAssetAttempt != nil {
		l.hooks.OnAssetAttempt(ctx, &domain.AssetEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventAssetAttempt},
			Kind:      kind,
			URL:       url,
			Outcome:   outcome,
			Duration:  elapsed,
		})
	}
	return err
}

// LoadResources loads the stylesheet, then the script.
// The script is attempted even when the stylesheet failed; failures are joined.
func (l *Loader) LoadResources(ctx context.Context, css, js domain.AssetRequest) error {
	_, cssErr := l.LoadOrdered(ctx, css)
	if cssErr != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	_, jsErr := l.LoadOrdered(ctx, js)
	if jsErr != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return errors.Join(cssErr, jsErr)
}

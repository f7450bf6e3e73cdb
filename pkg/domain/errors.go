package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by a KVStore when the key does not exist.
var ErrNotFound = errors.New("key not found")

// ErrAssetSourceFailed marks the failure of a single asset mirror.
var ErrAssetSourceFailed = errors.New("asset source failed")

// ErrAllSourcesFailed is returned when every candidate of an AssetRequest failed.
var ErrAllSourcesFailed = errors.New("all asset sources failed")

// ErrConfigFetchFailed is returned when the tour configuration cannot be fetched or parsed.
var ErrConfigFetchFailed = errors.New("tour config fetch failed")

// ErrUnmappedPage is returned when the navigation path has no entry in the page list.
var ErrUnmappedPage = errors.New("page not in page list")

// ErrMissingStepTarget is returned when an auto-advance click target is absent.
var ErrMissingStepTarget = errors.New("step target not found")

// AssetSourceError describes the failure of one candidate URL.
type AssetSourceError struct {
	Kind AssetKind
	URL  string
	Err  error
}

func (e *AssetSourceError) Error() string {
	return fmt.Sprintf("failed to load %s from %s: %v", e.Kind, e.URL, e.Err)
}

func (e *AssetSourceError) Unwrap() error { return e.Err }

// Is reports ErrAssetSourceFailed so callers can match on the sentinel.
func (e *AssetSourceError) Is(target error) bool {
	return target == ErrAssetSourceFailed
}

// AllSourcesFailedError lists every URL that was attempted, in order.
type AllSourcesFailedError struct {
	Kind   AssetKind
	Failed []string
	Causes []error
}

func (e *AllSourcesFailedError) Error() string {
	return fmt.Sprintf("all %s sources failed: [%s]", e.Kind, strings.Join(e.Failed, ", "))
}

// Is reports ErrAllSourcesFailed so callers can match on the sentinel.
func (e *AllSourcesFailedError) Is(target error) bool {
	return target == ErrAllSourcesFailed
}

// Unwrap exposes the per-source causes.
func (e *AllSourcesFailedError) Unwrap() []error { return e.Causes }

package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventAssetAttempt  EventType = "asset_attempt"
	EventTourStart     EventType = "tour_start"
	EventStepAdvance   EventType = "step_advance"
	EventTourComplete  EventType = "tour_complete"
	EventTourDismissed EventType = "tour_dismissed"
)

// AssetOutcome is the result of a single asset attempt.
type AssetOutcome string

const (
	OutcomeLoaded  AssetOutcome = "loaded"
	OutcomeError   AssetOutcome = "error"
	OutcomeTimeout AssetOutcome = "timeout"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// AssetEvent reports the outcome of one attempt.
type AssetEvent struct {
	EventBase
	Kind     AssetKind     `json:"kind"`
	URL      string        `json:"url"`
	Outcome  AssetOutcome  `json:"outcome"`
	Duration time.Duration `json:"duration"`
}

// TourEvent reports a tour transition.
type TourEvent struct {
	EventBase
	Page   PageID `json:"page"`
	Step   int    `json:"step,omitempty"`
	Forced bool   `json:"forced,omitempty"`
}

// LifecycleHooks defines callbacks for observability.
type LifecycleHooks struct {
	OnAssetAttempt func(context.Context, *AssetEvent)
	OnTourStart    func(context.Context, *TourEvent)
	OnStepAdvance  func(context.Context, *TourEvent)
	OnTourComplete func(context.Context, *TourEvent)
	OnTourDismiss  func(context.Context, *TourEvent)
}

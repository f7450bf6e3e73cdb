package domain

import "time"

// Storage keys of the two persisted records.
const (
	// KeyViewed holds the ViewedRecord.
	KeyViewed = "viewedTutorials"
	// KeyDismissCount holds the DismissCount.
	KeyDismissCount = "tutorialDismissCount"
)

// DefaultForceStartSelector is used when a path has no entry in forceStartSelectors.
const DefaultForceStartSelector = "#navStart"

// DefaultAssetTimeout bounds a single asset attempt when the request does not set one.
const DefaultAssetTimeout = 3 * time.Second

// Diagnostics labels emitted to the Reporter.
const (
	LabelAutomaticStart = "Automatic Start"
	LabelManualStart    = "Manual Start"
	LabelClosed         = "Closed"
	LabelCompleted      = "Completed"
)

package domain

// Phase is the lifecycle state of one tour instance.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseLoading      Phase = "loading"
	PhaseConfigLoaded Phase = "config_loaded"
	PhaseNotStarted   Phase = "not_started"
	PhaseRunning      Phase = "running"
	PhaseCompleted    Phase = "completed"
	PhaseDismissed    Phase = "dismissed"
)

var phaseTransitions = map[Phase][]Phase{
	PhaseIdle:         {PhaseLoading},
	PhaseLoading:      {PhaseConfigLoaded},
	PhaseConfigLoaded: {PhaseNotStarted, PhaseRunning},
	PhaseNotStarted:   {PhaseRunning},
	// NotStarted when the overlay refuses to start.
	PhaseRunning: {PhaseRunning, PhaseCompleted, PhaseDismissed, PhaseNotStarted},
	// A forced start may run the tour again.
	PhaseCompleted: {PhaseRunning},
	PhaseDismissed: {PhaseRunning},
}

// CanTransition reports whether the tour may move from p to next.
func (p Phase) CanTransition(next Phase) bool {
	for _, allowed := range phaseTransitions[p] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the tour instance has finished.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseDismissed
}

package metrics

import "time"

// ResultLabel enumerates dispatch result categories for counters.
type ResultLabel string

const (
	ResultSuccess        ResultLabel = "success"
	ResultRejected       ResultLabel = "rejected"        // invalid action or not initialized
	ResultReducerFailure ResultLabel = "reducer_failure" // a transition function errored or panicked
)

// Recorder defines observability hooks for the state container.
// Implementations must be safe for concurrent use.
type Recorder interface {
	ObserveDispatchDuration(actionType string, d time.Duration)
	IncDispatchResult(result ResultLabel)
	IncRegistration(moduleKey string, replaced bool)
	IncRebuild()
	SetRegisteredModules(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveDispatchDuration(string, time.Duration) {}
func (NoopRecorder) IncDispatchResult(ResultLabel)                 {}
func (NoopRecorder) IncRegistration(string, bool)                  {}
func (NoopRecorder) IncRebuild()                                   {}
func (NoopRecorder) SetRegisteredModules(int)                      {}

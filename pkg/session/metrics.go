package session

// Recorder receives engine events for metrics collection. Implementations
// must be safe for concurrent use; the engine never blocks on them.
type Recorder interface {
	SessionStarted(templateID string)
	SessionResumed(templateID string)
	TransitionApplied(templateID string)
	TransitionNoOp(templateID string)
	GuardRejected(templateID string)
	SessionTerminated(templateID, status string)
	RenderFailed(component string)
}

// nopRecorder is the default Recorder.
type nopRecorder struct{}

func (nopRecorder) SessionStarted(string)            {}
func (nopRecorder) SessionResumed(string)            {}
func (nopRecorder) TransitionApplied(string)         {}
func (nopRecorder) TransitionNoOp(string)            {}
func (nopRecorder) GuardRejected(string)             {}
func (nopRecorder) SessionTerminated(string, string) {}
func (nopRecorder) RenderFailed(string)              {}

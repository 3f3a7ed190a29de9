package wrapper

// TraceEvent is one record of an engine's training iteration.
type TraceEvent struct {
	Engine    string
	Iteration int
	// Added holds the number of pseudo-labeled instances accepted this
	// iteration, one entry per learner (a single entry for
	// single-learner engines).
	Added []int
	// Weights holds per-learner confidence weights when the engine
	// computes them.
	Weights []float64
	// Warning carries a non-fatal convergence note, e.g. a class with
	// no confident candidate this round.
	Warning string
}

// Trace receives iteration records during Fit. Implementations must be
// cheap; engines call Record on the orchestrating goroutine only.
type Trace interface {
	Record(TraceEvent)
}

// TraceLog is an append-only in-memory Trace.
type TraceLog struct {
	Events []TraceEvent
}

// Record appends the event.
func (l *TraceLog) Record(e TraceEvent) { l.Events = append(l.Events, e) }

// emit forwards an event to a possibly nil sink.
func emit(t Trace, e TraceEvent) {
	if t != nil {
		t.Record(e)
	}
}

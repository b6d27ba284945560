package engine

import "sync"

// Recorder is a Listener that keeps every event it receives. It is meant
// for tests and for reporters that render after execution.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// OnEvent records e.
func (r *Recorder) OnEvent(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of all recorded events in order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Filter returns the recorded events for which keep returns true.
func (r *Recorder) Filter(keep func(Event) bool) []Event {
	var out []Event
	for _, e := range r.Events() {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func (r *Recorder) count(kind NodeKind, typ EventType, status Status) int {
	return len(r.Filter(func(e Event) bool {
		return e.Kind == kind && e.Type == typ && (status == "" || e.Result.Status == status)
	}))
}

// TestStartedCount returns the number of tests that started.
func (r *Recorder) TestStartedCount() int {
	return r.count(KindTest, EventStarted, "")
}

// TestSuccessfulCount returns the number of tests that finished successfully.
func (r *Recorder) TestSuccessfulCount() int {
	return r.count(KindTest, EventFinished, StatusSuccessful)
}

// TestFailedCount returns the number of tests that finished with a failure.
func (r *Recorder) TestFailedCount() int {
	return r.count(KindTest, EventFinished, StatusFailed)
}

// ContainerFailedCount returns the number of containers that finished with a failure.
func (r *Recorder) ContainerFailedCount() int {
	return r.count(KindContainer, EventFinished, StatusFailed)
}

// Reset discards all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

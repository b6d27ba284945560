package engine

import (
	"fmt"

	"github.com/toutaio/toutago-tinst/uniqueid"
)

// EventType defines the type of an execution event.
type EventType string

const (
	EventStarted  EventType = "started"
	EventFinished EventType = "finished"
)

// NodeKind identifies what kind of node an event belongs to.
type NodeKind string

const (
	KindEngine    NodeKind = "engine"
	KindContainer NodeKind = "container"
	KindTest      NodeKind = "test"
)

// Status is the final state of a finished node.
type Status string

const (
	StatusSuccessful Status = "successful"
	StatusFailed     Status = "failed"
)

// Result is attached to finished events.
type Result struct {
	Status Status
	Err    error
}

// Successful returns a successful result.
func Successful() Result {
	return Result{Status: StatusSuccessful}
}

// Failed returns a failed result carrying err.
func Failed(err error) Result {
	return Result{Status: StatusFailed, Err: err}
}

// Event is emitted to listeners as the engine walks the test tree.
type Event struct {
	Type   EventType
	Kind   NodeKind
	ID     uniqueid.ID
	Name   string
	Nested bool
	Result Result // zero for started events
}

// String renders the event on one line, e.g. "container Outer finished failed: boom".
func (e Event) String() string {
	s := fmt.Sprintf("%s %s %s", e.Kind, e.Name, e.Type)
	if e.Type == EventFinished {
		s += " " + string(e.Result.Status)
		if e.Result.Err != nil {
			s += ": " + e.Result.Err.Error()
		}
	}
	return s
}

// Listener receives execution events in order.
type Listener interface {
	OnEvent(Event)
}

// ListenerFunc adapts a function to a Listener.
type ListenerFunc func(Event)

// OnEvent calls f(e).
func (f ListenerFunc) OnEvent(e Event) {
	f(e)
}

// multiListener fans events out to several listeners.
type multiListener []Listener

func (m multiListener) OnEvent(e Event) {
	for _, l := range m {
		l.OnEvent(e)
	}
}

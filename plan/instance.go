package plan

import (
	"sync"

	tinst "github.com/toutaio/toutago-tinst"
)

// Instance is the runtime instance of a plan class.
type Instance struct {
	typ     tinst.TypeID
	Class   string
	Outer   *Instance
	Counter int
}

// TypeID reports the dynamic identity of the plan class.
func (i *Instance) TypeID() tinst.TypeID {
	return i.typ
}

// Trace records what happened during a plan run, in order.
type Trace struct {
	mu      sync.Mutex
	entries []string
}

// Add appends an entry.
func (t *Trace) Add(entry string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, entry)
}

// Entries returns a copy of all entries.
func (t *Trace) Entries() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.entries))
	copy(out, t.entries)
	return out
}

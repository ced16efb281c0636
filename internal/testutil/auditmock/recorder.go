package auditmock

import (
	"context"
	"fmt"
	"sync"

	"realestate-lifecycle/internal/domain/audit"
)

var _ audit.Recorder = (*Recorder)(nil)

// Recorder keeps entries in memory. Set Err to make every Record call fail.
type Recorder struct {
	mu      sync.Mutex
	Entries []audit.Entry
	Err     error
}

func (r *Recorder) Record(_ context.Context, e *audit.Entry) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return "", r.Err
	}
	if e.EntryID == "" {
		e.EntryID = fmt.Sprintf("entry-%d", len(r.Entries)+1)
	}
	r.Entries = append(r.Entries, *e)
	return e.EntryID, nil
}

func (r *Recorder) Actions() []audit.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]audit.Action, 0, len(r.Entries))
	for _, e := range r.Entries {
		out = append(out, e.Action)
	}
	return out
}

// Package enginetest provides an Engine that records the snapshots it accepts.
package enginetest

import (
	"context"
	"sync"

	"github.com/kbukum/rendergraph/engine"
)

// Recorder is a configurable test engine. It records every snapshot and
// returns a preset error.
type Recorder struct {
	err error
	fn  func(ctx context.Context, snap *engine.Snapshot) error

	mu        sync.Mutex
	snapshots []*engine.Snapshot
}

var _ engine.Engine = (*Recorder)(nil)

// NewRecorder creates a recorder that accepts every snapshot.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// NewFailingRecorder creates a recorder that records, then fails with err.
func NewFailingRecorder(err error) *Recorder {
	return &Recorder{err: err}
}

// NewRecorderFunc creates a recorder backed by a custom function.
func NewRecorderFunc(fn func(ctx context.Context, snap *engine.Snapshot) error) *Recorder {
	return &Recorder{fn: fn}
}

func (r *Recorder) Accept(ctx context.Context, snap *engine.Snapshot) error {
	r.mu.Lock()
	r.snapshots = append(r.snapshots, snap)
	r.mu.Unlock()

	if r.fn != nil {
		return r.fn(ctx, snap)
	}
	return r.err
}

// Calls returns how many snapshots were offered.
func (r *Recorder) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots)
}

// Snapshots returns the offered snapshots in order.
func (r *Recorder) Snapshots() []*engine.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*engine.Snapshot(nil), r.snapshots...)
}

// Last returns the most recent snapshot, or nil.
func (r *Recorder) Last() *engine.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snapshots) == 0 {
		return nil
	}
	return r.snapshots[len(r.snapshots)-1]
}

// Reset clears the recorded snapshots.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = nil
}

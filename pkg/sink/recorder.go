package sink

import (
	"context"
	"fmt"
	"sync"

	"github.com/matzehuels/blockout/pkg/geom"
	"github.com/matzehuels/blockout/pkg/shell"
)

// Op names a Sink method.
type Op string

const (
	OpCreateRoomShell Op = "create_room_shell"
	OpCreateObject    Op = "create_object"
	OpAttach          Op = "attach"
	OpFinalize        Op = "finalize"
)

// Call is one recorded Sink call.
type Call struct {
	Op Op
	// ID is the room or object id for create calls.
	ID     string
	Type   string
	Handle Handle
	// Parent is set for attach calls; Handle is then the child.
	Parent        Handle
	PreserveWorld bool
	Panels        []shell.Panel
	World         geom.Transform
}

// Recorder is a Sink that records every call. Handles are "room:<id>" and
// "object:<id>" so that recordings are stable across runs.
//
// A Recorder is safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
	// FailOn makes the first call with this Op fail.
	FailOn Op
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) record(c Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailOn == c.Op {
		r.FailOn = ""
		return fmt.Errorf("recorder: %s refused", c.Op)
	}
	r.calls = append(r.calls, c)
	return nil
}

func (r *Recorder) CreateRoomShell(_ context.Context, roomID string, panels []shell.Panel) (Handle, error) {
	h := Handle("room:" + roomID)
	return h, r.record(Call{Op: OpCreateRoomShell, ID: roomID, Handle: h, Panels: panels})
}

func (r *Recorder) CreateObject(_ context.Context, objectID, objectType string, world geom.Transform) (Handle, error) {
	h := Handle("object:" + objectID)
	return h, r.record(Call{Op: OpCreateObject, ID: objectID, Type: objectType, Handle: h, World: world})
}

func (r *Recorder) Attach(_ context.Context, child, parent Handle, preserveWorld bool) error {
	return r.record(Call{Op: OpAttach, Handle: child, Parent: parent, PreserveWorld: preserveWorld})
}

func (r *Recorder) Finalize(context.Context) error {
	return r.record(Call{Op: OpFinalize})
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Attachments returns the recorded child to parent edges.
func (r *Recorder) Attachments() map[Handle]Handle {
	out := make(map[Handle]Handle)
	for _, c := range r.Calls() {
		if c.Op == OpAttach {
			out[c.Handle] = c.Parent
		}
	}
	return out
}

var _ Sink = (*Recorder)(nil)

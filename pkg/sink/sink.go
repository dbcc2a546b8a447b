// Package sink hands a resolved plan to a placement host.
//
// A host is anything that can instantiate geometry: a game editor, a
// database, a diagram. It implements [Sink], and [Emit] drives it through
// a fixed sequence: every room shell, then every object at its world
// transform in parents-first order, then every attachment with world
// transforms preserved, then Finalize. Sinks never see hierarchy or
// defaulting logic.
//
// Built-in sinks: [Recorder] keeps an in-memory call log, [JSONSink]
// writes a scene transcript, [DOTSink] draws the attachment graph, and
// [MongoSink] persists the scene to MongoDB.
package sink

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/matzehuels/blockout/pkg/errors"
	"github.com/matzehuels/blockout/pkg/geom"
	"github.com/matzehuels/blockout/pkg/hierarchy"
	"github.com/matzehuels/blockout/pkg/plan"
	"github.com/matzehuels/blockout/pkg/shell"
)

// Handle is an opaque reference to something a sink created.
type Handle string

// Root is the handle of the scene root. Sinks must accept it as an
// Attach parent without it having been created.
const Root Handle = "root"

// Sink is the capability set of a placement host.
type Sink interface {
	// CreateRoomShell instantiates the panels of one room, grouped under a
	// room anchor whose handle is returned. Objects attached to the room
	// are attached to that anchor.
	CreateRoomShell(ctx context.Context, roomID string, panels []shell.Panel) (Handle, error)
	// CreateObject instantiates one object at its world transform.
	CreateObject(ctx context.Context, objectID, objectType string, world geom.Transform) (Handle, error)
	// Attach parents child to parent. With preserveWorld the child keeps
	// its world transform.
	Attach(ctx context.Context, child, parent Handle, preserveWorld bool) error
	// Finalize completes the scene.
	Finalize(ctx context.Context) error
}

// NewHandle returns a fresh random handle.
func NewHandle() Handle { return Handle(uuid.NewString()) }

// Emit drives s through p. It stops at the first error, so a failing sink
// may hold a partial scene; Finalize is only called on success.
func Emit(ctx context.Context, p *plan.Plan, s Sink) error {
	handles := make(map[string]Handle, len(p.Rooms)+len(p.Placements))

	for _, r := range p.Rooms {
		if err := ctx.Err(); err != nil {
			return err
		}
		h, err := s.CreateRoomShell(ctx, r.RoomID, r.Panels)
		if err != nil {
			return fmt.Errorf("create shell %s: %w", r.RoomID, err)
		}
		handles[r.RoomID] = h
	}

	ordered := p.InOrder()
	for _, pl := range ordered {
		if err := ctx.Err(); err != nil {
			return err
		}
		h, err := s.CreateObject(ctx, pl.ObjectID, pl.Type, pl.World())
		if err != nil {
			return fmt.Errorf("create object %s: %w", pl.ObjectID, err)
		}
		handles[pl.ObjectID] = h
	}

	for _, pl := range ordered {
		if err := ctx.Err(); err != nil {
			return err
		}
		parent := Root
		if t := pl.Target(); t.Kind != hierarchy.Root {
			h, ok := handles[t.ID]
			if !ok {
				return errors.OrderingInvariant(pl.ObjectID, t.ID)
			}
			parent = h
		}
		// Placements are resolved in world space; attaching must not move them.
		if err := s.Attach(ctx, handles[pl.ObjectID], parent, true); err != nil {
			return fmt.Errorf("attach %s: %w", pl.ObjectID, err)
		}
	}

	return s.Finalize(ctx)
}

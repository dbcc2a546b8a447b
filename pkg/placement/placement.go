// Package placement computes the world transform of every object in a
// resolved hierarchy.
package placement

import (
	"github.com/matzehuels/blockout/pkg/errors"
	"github.com/matzehuels/blockout/pkg/geom"
	"github.com/matzehuels/blockout/pkg/hierarchy"
	"github.com/matzehuels/blockout/pkg/scene"
)

// Instruction tells a sink where to put one object and what to attach it to.
type Instruction struct {
	ObjectID string
	Type     string
	// Local is the object's transform relative to its parent.
	Local geom.Transform
	// World is the resolved transform in scene space.
	World  geom.Transform
	Parent hierarchy.Target
	// PreserveWorld asks the sink to keep World unchanged when attaching.
	// It is always true.
	PreserveWorld bool
}

// Resolve walks h.Order and composes each object's local position with its
// parent's world transform. Rooms and the scene root sit at the identity.
//
// Objects are returned in h.Order. An object whose parent object has not
// been resolved yet yields ORDERING_INVARIANT; that only happens if h was
// not produced by [hierarchy.Resolve] for doc.
func Resolve(doc scene.Document, h hierarchy.Result) ([]Instruction, error) {
	byID := make(map[string]*scene.Object, len(doc.Objects))
	for i := range doc.Objects {
		byID[doc.Objects[i].ID] = &doc.Objects[i]
	}

	world := make(map[string]geom.Transform, len(h.Order))
	out := make([]Instruction, 0, len(h.Order))

	for _, id := range h.Order {
		o, ok := byID[id]
		if !ok {
			return nil, errors.New(errors.ErrCodeInternal, "object %q is in the hierarchy but not in the document", id)
		}

		parent := h.Parents[id]
		parentWorld := geom.Identity()
		if parent.Kind == hierarchy.Object {
			pw, ok := world[parent.ID]
			if !ok {
				return nil, errors.OrderingInvariant(id, parent.ID)
			}
			parentWorld = pw
		}

		local := geom.Translation(o.Position.Vec())
		w := geom.Compose(parentWorld, local)
		world[id] = w

		out = append(out, Instruction{
			ObjectID:      id,
			Type:          o.Type,
			Local:         local,
			World:         w,
			Parent:        parent,
			PreserveWorld: true,
		})
	}
	return out, nil
}

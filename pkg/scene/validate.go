package scene

import (
	"fmt"
	"math"

	"github.com/matzehuels/blockout/pkg/errors"
	"github.com/matzehuels/blockout/pkg/geom"
)

// Validate checks the invariants that must hold after defaulting: every room
// has positive, finite width, length and height, and every object has a
// complete, finite position. It reports the first violation as SCHEMA_ERROR.
//
// Identifier uniqueness and parent references are structural concerns and
// are checked by the hierarchy resolver, not here.
func Validate(doc Document) error {
	for i, r := range doc.Rooms {
		for _, dim := range []struct {
			name string
			val  *float64
		}{{"width", r.Width}, {"length", r.Length}, {"height", r.Height}} {
			field := fmt.Sprintf("rooms[%d].%s", i, dim.name)
			if dim.val == nil {
				return errors.Schema(r.Name, field, "room %q has no %s and no default is configured", r.Name, dim.name)
			}
			if v := *dim.val; !(v > 0) || math.IsInf(v, 0) {
				return errors.Schema(r.Name, field, "room %q %s must be positive, got %g", r.Name, dim.name, v)
			}
		}
	}

	for i, o := range doc.Objects {
		field := fmt.Sprintf("objects[%d].position", i)
		if o.Position == nil || o.Position.X == nil || o.Position.Y == nil || o.Position.Z == nil {
			return errors.Schema(o.ID, field, "object %q position is incomplete", o.ID)
		}
		if !o.Position.Vec().IsFinite() {
			return errors.Schema(o.ID, field, "object %q position must be finite", o.ID)
		}
	}
	return nil
}

// Vec returns the position as a vector; absent axes read as 0.
func (p *Position) Vec() geom.Vec3 {
	if p == nil {
		return geom.Vec3{}
	}
	return geom.V3(Value(p.X), Value(p.Y), Value(p.Z))
}

// Dims returns the room's width, length and height; absent values read as 0.
func (r *Room) Dims() (width, length, height float64) {
	return Value(r.Width), Value(r.Length), Value(r.Height)
}

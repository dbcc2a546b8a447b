// Package scene defines the declarative scene document and the schema
// defaulter that prepares it for resolution.
//
// A document is a set of rooms and a forest of objects. Objects attach to a
// room, to another object, or (when Parent is nil) to the scene root.
// Optional numeric fields are pointers so that "absent" stays distinct from
// an explicit zero: [ApplyDefaults] fills only what is absent and [Validate]
// rejects explicit values that break the room invariants.
//
// The package is pure: decoding, defaulting and validation perform no I/O and
// never mutate their inputs.
package scene

import "strings"

// Room is a rectangular room. Name is unique within a document.
type Room struct {
	Name   string   `json:"name"`
	Width  *float64 `json:"width,omitempty"`
	Length *float64 `json:"length,omitempty"`
	Height *float64 `json:"height,omitempty"`
}

// Object is a placed item. ID is unique within a document and must not
// collide with any room name.
type Object struct {
	ID         string              `json:"id"`
	Type       string              `json:"type"`
	Parent     *string             `json:"parent,omitempty"`
	Position   *Position           `json:"position,omitempty"`
	Dimensions map[string]*float64 `json:"dimensions,omitempty"`
}

// Position is a local offset from the parent, in distance units.
type Position struct {
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`
	Z *float64 `json:"z,omitempty"`
}

// Document is the top-level scene description.
type Document struct {
	Rooms   []Room   `json:"rooms"`
	Objects []Object `json:"objects"`
}

// RoomByName returns the room with the given name.
func (d *Document) RoomByName(name string) (*Room, bool) {
	for i := range d.Rooms {
		if d.Rooms[i].Name == name {
			return &d.Rooms[i], true
		}
	}
	return nil, false
}

// ObjectByID returns the object with the given id.
func (d *Document) ObjectByID(id string) (*Object, bool) {
	for i := range d.Objects {
		if d.Objects[i].ID == id {
			return &d.Objects[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy of d.
func (d Document) Clone() Document {
	out := Document{}
	if d.Rooms != nil {
		out.Rooms = make([]Room, len(d.Rooms))
		for i, r := range d.Rooms {
			out.Rooms[i] = Room{
				Name:   r.Name,
				Width:  clonef(r.Width),
				Length: clonef(r.Length),
				Height: clonef(r.Height),
			}
		}
	}
	if d.Objects != nil {
		out.Objects = make([]Object, len(d.Objects))
		for i, o := range d.Objects {
			out.Objects[i] = o.clone()
		}
	}
	return out
}

func (o Object) clone() Object {
	c := Object{ID: o.ID, Type: o.Type}
	if o.Parent != nil {
		p := *o.Parent
		c.Parent = &p
	}
	if o.Position != nil {
		c.Position = &Position{X: clonef(o.Position.X), Y: clonef(o.Position.Y), Z: clonef(o.Position.Z)}
	}
	if o.Dimensions != nil {
		c.Dimensions = make(map[string]*float64, len(o.Dimensions))
		for k, v := range o.Dimensions {
			c.Dimensions[k] = clonef(v)
		}
	}
	return c
}

// ParentID returns the parent reference or "" for root-attached objects.
func (o *Object) ParentID() string {
	if o.Parent == nil {
		return ""
	}
	return *o.Parent
}

// HasType reports whether the object's type matches one of types, ignoring case.
func (o *Object) HasType(types []string) bool {
	for _, t := range types {
		if strings.EqualFold(o.Type, t) {
			return true
		}
	}
	return false
}

// Float returns a pointer to v. It is a convenience for building documents in code.
func Float(v float64) *float64 { return &v }

// String returns a pointer to s.
func String(s string) *string { return &s }

// Value dereferences p, returning 0 for nil.
func Value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func clonef(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

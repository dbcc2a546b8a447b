// Package plan defines the resolved placement plan: the artifact the engine
// hands to sinks and writes to disk.
//
// A plan is fully resolved. Sinks never revisit defaulting or the
// hierarchy; they create each room shell, create each object at its world
// transform, and attach it to the parent the plan names.
//
// JSON encoding is canonical: rooms are sorted by name and placements by
// object id, so the same document and configuration always encode to the
// same bytes regardless of processing order.
package plan

import (
	"bytes"
	"cmp"
	"encoding/json"
	"slices"

	"github.com/matzehuels/blockout/pkg/geom"
	"github.com/matzehuels/blockout/pkg/hierarchy"
	"github.com/matzehuels/blockout/pkg/placement"
	"github.com/matzehuels/blockout/pkg/shell"
)

// Plan is the resolved output of one document.
type Plan struct {
	Rooms      []RoomShell `json:"rooms"`
	Placements []Placement `json:"placements"`
	// Order lists object ids parents-first; sinks create objects in this
	// order.
	Order []string `json:"order"`
}

// RoomShell is the synthesized shell of one room.
type RoomShell struct {
	RoomID string        `json:"room_id"`
	Width  float64       `json:"width"`
	Length float64       `json:"length"`
	Height float64       `json:"height"`
	Panels []shell.Panel `json:"panels"`
}

// Placement is one resolved object.
type Placement struct {
	ObjectID      string    `json:"object_id"`
	Type          string    `json:"type"`
	LocalPosition geom.Vec3 `json:"local_position"`
	WorldPosition geom.Vec3 `json:"world_position"`
	// Parent is nil for objects attached to the scene root.
	Parent        *string `json:"parent"`
	ParentKind    string  `json:"parent_kind"`
	Depth         int     `json:"depth"`
	PreserveWorld bool    `json:"preserve_world"`
}

// Target returns the placement's parent as a hierarchy target.
func (p Placement) Target() hierarchy.Target {
	switch {
	case p.Parent == nil:
		return hierarchy.Target{Kind: hierarchy.Root}
	case p.ParentKind == hierarchy.Room.String():
		return hierarchy.Target{Kind: hierarchy.Room, ID: *p.Parent}
	}
	return hierarchy.Target{Kind: hierarchy.Object, ID: *p.Parent}
}

// World returns the placement's world transform.
func (p Placement) World() geom.Transform { return geom.Translation(p.WorldPosition) }

// New assembles a plan from synthesized shells and resolved instructions.
func New(shells []RoomShell, instrs []placement.Instruction, h hierarchy.Result) *Plan {
	p := &Plan{
		Rooms:      slices.Clone(shells),
		Placements: make([]Placement, 0, len(instrs)),
		Order:      slices.Clone(h.Order),
	}
	if p.Order == nil {
		p.Order = []string{}
	}
	for _, in := range instrs {
		pl := Placement{
			ObjectID:      in.ObjectID,
			Type:          in.Type,
			LocalPosition: in.Local.Location,
			WorldPosition: in.World.Location,
			ParentKind:    in.Parent.Kind.String(),
			Depth:         h.Depth[in.ObjectID],
			PreserveWorld: in.PreserveWorld,
		}
		if !in.Parent.IsRoot() {
			id := in.Parent.ID
			pl.Parent = &id
		}
		p.Placements = append(p.Placements, pl)
	}
	p.sort()
	return p
}

func (p *Plan) sort() {
	slices.SortFunc(p.Rooms, func(a, b RoomShell) int { return cmp.Compare(a.RoomID, b.RoomID) })
	slices.SortFunc(p.Placements, func(a, b Placement) int { return cmp.Compare(a.ObjectID, b.ObjectID) })
}

// Room returns the shell of the named room.
func (p *Plan) Room(id string) (RoomShell, bool) {
	i, ok := slices.BinarySearchFunc(p.Rooms, id, func(r RoomShell, id string) int { return cmp.Compare(r.RoomID, id) })
	if !ok {
		return RoomShell{}, false
	}
	return p.Rooms[i], true
}

// Placement returns the placement of the given object.
func (p *Plan) Placement(id string) (Placement, bool) {
	i, ok := slices.BinarySearchFunc(p.Placements, id, func(pl Placement, id string) int { return cmp.Compare(pl.ObjectID, id) })
	if !ok {
		return Placement{}, false
	}
	return p.Placements[i], true
}

// InOrder returns the placements parents-first.
func (p *Plan) InOrder() []Placement {
	out := make([]Placement, 0, len(p.Order))
	for _, id := range p.Order {
		if pl, ok := p.Placement(id); ok {
			out = append(out, pl)
		}
	}
	return out
}

// Stats summarises a plan.
type Stats struct {
	Rooms    int
	Panels   int
	Objects  int
	MaxDepth int
}

// Stats returns plan counts.
func (p *Plan) Stats() Stats {
	s := Stats{Rooms: len(p.Rooms), Objects: len(p.Placements)}
	for _, r := range p.Rooms {
		s.Panels += len(r.Panels)
	}
	for _, pl := range p.Placements {
		s.MaxDepth = max(s.MaxDepth, pl.Depth)
	}
	return s
}

// Encode returns the canonical indented JSON form of p, newline-terminated.
func (p *Plan) Encode() ([]byte, error) {
	c := *p
	c.Rooms = slices.Clone(p.Rooms)
	c.Placements = slices.Clone(p.Placements)
	c.sort()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses a plan produced by Encode.
func Decode(data []byte) (*Plan, error) {
	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	p.sort()
	return &p, nil
}

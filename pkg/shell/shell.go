// Package shell synthesizes the panels that enclose a rectangular room.
//
// A room of width W (X axis), length L (Y axis) and height H (Z axis) is
// built from scaled copies of a square unit panel of side P lying in the
// XY plane with its surface normal on +Z. The room origin is the centre of
// the floor. Every panel is rotated so that its normal faces into the room.
package shell

import (
	"github.com/matzehuels/blockout/pkg/geom"
	"github.com/matzehuels/blockout/pkg/scene"
)

// DefaultPanelSize is the side of the unit panel primitive.
const DefaultPanelSize = 100.0

// Kind names a panel of the room shell.
type Kind string

const (
	Floor     Kind = "floor"
	Ceiling   Kind = "ceiling"
	NorthWall Kind = "north_wall"
	SouthWall Kind = "south_wall"
	EastWall  Kind = "east_wall"
	WestWall  Kind = "west_wall"
)

// Panel is one surface of a room shell, positioned relative to the room
// origin.
type Panel struct {
	Kind     Kind         `json:"kind"`
	Position geom.Vec3    `json:"position"`
	Rotation geom.Rotator `json:"rotation"`
	Scale    geom.Vec3    `json:"scale"`
}

// Transform returns the panel placement as a transform.
func (p Panel) Transform() geom.Transform {
	return geom.Transform{Location: p.Position, Rotation: p.Rotation, Scale: p.Scale}
}

// Normal returns the direction the panel surface faces.
func (p Panel) Normal() geom.Vec3 {
	return p.Rotation.Rotate(geom.V3(0, 0, 1))
}

// Options controls shell synthesis.
type Options struct {
	// PanelSize is the side of the unit panel. Zero means DefaultPanelSize.
	PanelSize float64
	// Ceiling adds a ceiling panel at the top of the room.
	Ceiling bool
}

func (o Options) panelSize() float64 {
	if o.PanelSize > 0 {
		return o.PanelSize
	}
	return DefaultPanelSize
}

// Synthesize returns the shell of a validated room.
func Synthesize(r scene.Room, opts Options) []Panel {
	w, l, h := r.Dims()
	return Panels(w, l, h, opts)
}

// Panels returns the panels of a room of the given dimensions, in the
// fixed order floor, ceiling (when enabled), north, south, east, west.
// The caller guarantees positive dimensions.
func Panels(width, length, height float64, opts Options) []Panel {
	p := opts.panelSize()
	sw, sl, sh := width/p, length/p, height/p

	panels := make([]Panel, 0, 6)
	panels = append(panels, Panel{
		Kind:  Floor,
		Scale: geom.V3(sw, sl, 1),
	})
	if opts.Ceiling {
		panels = append(panels, Panel{
			Kind:     Ceiling,
			Position: geom.V3(0, 0, height),
			Rotation: geom.Rotator{Roll: 180},
			Scale:    geom.V3(sw, sl, 1),
		})
	}
	return append(panels,
		Panel{
			Kind:     NorthWall,
			Position: geom.V3(0, length/2, height/2),
			Rotation: geom.Rotator{Roll: -90},
			Scale:    geom.V3(sw, sh, 1),
		},
		Panel{
			Kind:     SouthWall,
			Position: geom.V3(0, -length/2, height/2),
			Rotation: geom.Rotator{Roll: 90},
			Scale:    geom.V3(sw, sh, 1),
		},
		Panel{
			Kind:     EastWall,
			Position: geom.V3(width/2, 0, height/2),
			Rotation: geom.Rotator{Yaw: 90, Roll: 90},
			Scale:    geom.V3(sl, sh, 1),
		},
		Panel{
			Kind:     WestWall,
			Position: geom.V3(-width/2, 0, height/2),
			Rotation: geom.Rotator{Yaw: 90, Roll: -90},
			Scale:    geom.V3(sl, sh, 1),
		},
	)
}

package scene

import (
	"maps"
	"slices"
)

// Defaults holds the values the defaulter fills in for absent fields.
type Defaults struct {
	// Room maps room attribute names ("width", "length", "height") to values.
	Room map[string]float64
	// Position maps axis names ("x", "y", "z") to values.
	Position map[string]float64
	// DimensionedTypes lists object types (matched case-insensitively) that
	// receive Dimensions defaults.
	DimensionedTypes []string
	// Dimensions maps dimension keys to default values for dimensioned types.
	Dimensions map[string]float64
}

// ApplyDefaults returns a copy of doc with every absent field filled from d.
// Explicit values, including explicit zeros, are never overwritten. Keys in
// d that do not name a known attribute are ignored.
func ApplyDefaults(doc Document, d Defaults) Document {
	out := doc.Clone()

	for i := range out.Rooms {
		r := &out.Rooms[i]
		for _, key := range slices.Sorted(maps.Keys(d.Room)) {
			field := r.attr(key)
			if field != nil && *field == nil {
				*field = Float(d.Room[key])
			}
		}
	}

	for i := range out.Objects {
		o := &out.Objects[i]

		if o.Position == nil {
			o.Position = &Position{}
		}
		for _, axis := range slices.Sorted(maps.Keys(d.Position)) {
			field := o.Position.axis(axis)
			if field != nil && *field == nil {
				*field = Float(d.Position[axis])
			}
		}

		if o.HasType(d.DimensionedTypes) {
			if o.Dimensions == nil {
				o.Dimensions = make(map[string]*float64, len(d.Dimensions))
			}
			for key, val := range d.Dimensions {
				if o.Dimensions[key] == nil {
					o.Dimensions[key] = Float(val)
				}
			}
		}
	}
	return out
}

func (r *Room) attr(key string) **float64 {
	switch key {
	case "width":
		return &r.Width
	case "length":
		return &r.Length
	case "height":
		return &r.Height
	}
	return nil
}

func (p *Position) axis(key string) **float64 {
	switch key {
	case "x":
		return &p.X
	case "y":
		return &p.Y
	case "z":
		return &p.Z
	}
	return nil
}

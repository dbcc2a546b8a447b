package geom

// Transform is an affine placement: scale, then rotate, then translate.
type Transform struct {
	Location Vec3    `json:"location"`
	Rotation Rotator `json:"rotation"`
	Scale    Vec3    `json:"scale"`
}

// Identity returns the identity transform.
func Identity() Transform { return Transform{Scale: One} }

// Translation returns a transform that only offsets by v.
func Translation(v Vec3) Transform { return Transform{Location: v, Scale: One} }

// IsIdentity reports whether t leaves every point in place.
func (t Transform) IsIdentity() bool {
	return t.Location == (Vec3{}) && t.Rotation.IsZero() && t.Scale == One
}

// Apply maps a point from t's local space into its parent space.
func (t Transform) Apply(p Vec3) Vec3 {
	return t.Rotation.Rotate(p.Mul(t.Scale)).Add(t.Location)
}

// Compose returns the world transform of a child whose transform relative to
// parent is local.
//
// Scale is composed component-wise, which is exact for uniform parent scale
// and for the translation-only transforms produced by the placement resolver.
func Compose(parent, local Transform) Transform {
	world := Transform{
		Location: parent.Apply(local.Location),
		Scale:    parent.Scale.Mul(local.Scale),
	}
	switch {
	case parent.Rotation.IsZero():
		world.Rotation = local.Rotation
	case local.Rotation.IsZero():
		world.Rotation = parent.Rotation
	default:
		l, p := local.Rotation.Matrix(), parent.Rotation.Matrix()
		var m M3
		m.Mul(&l, &p)
		world.Rotation = m.Rotator()
	}
	return world
}

// Package geom implements the small amount of 3D math the engine needs:
// vectors, Euler rotators and affine transforms with parent/child composition.
//
// Conventions: X is the room width axis, Y the depth (length) axis and Z
// points up. Rotations are expressed in degrees as a [Rotator] whose
// components are applied roll (about X) first, then pitch (about Y), then
// yaw (about Z). Vectors are row vectors: a point p is rotated as p·R.
package geom

import "math"

// Vec3 is a 3-component vector of float64.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// V3 returns the vector (x, y, z).
func V3(x, y, z float64) Vec3 { return Vec3{X: x, Y: y, Z: z} }

// Add returns v + w.
func (v Vec3) Add(w Vec3) Vec3 { return Vec3{v.X + w.X, v.Y + w.Y, v.Z + w.Z} }

// Sub returns v - w.
func (v Vec3) Sub(w Vec3) Vec3 { return Vec3{v.X - w.X, v.Y - w.Y, v.Z - w.Z} }

// Mul returns the component-wise product of v and w.
func (v Vec3) Mul(w Vec3) Vec3 { return Vec3{v.X * w.X, v.Y * w.Y, v.Z * w.Z} }

// Scale returns s ⋅ v.
func (v Vec3) Scale(s float64) Vec3 { return Vec3{s * v.X, s * v.Y, s * v.Z} }

// Dot returns v ⋅ w.
func (v Vec3) Dot(w Vec3) float64 { return v.X*w.X + v.Y*w.Y + v.Z*w.Z }

// Len returns the length of v.
func (v Vec3) Len() float64 { return math.Sqrt(v.Dot(v)) }

// IsFinite reports whether every component is neither NaN nor infinite.
func (v Vec3) IsFinite() bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

// ApproxEqual reports whether v and w differ by at most eps per component.
func (v Vec3) ApproxEqual(w Vec3, eps float64) bool {
	return math.Abs(v.X-w.X) <= eps && math.Abs(v.Y-w.Y) <= eps && math.Abs(v.Z-w.Z) <= eps
}

// One is the unit scale.
var One = Vec3{1, 1, 1}

func isFinite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// Rotator is an Euler rotation in degrees.
type Rotator struct {
	Pitch float64 `json:"pitch"` // about Y
	Yaw   float64 `json:"yaw"`   // about Z
	Roll  float64 `json:"roll"`  // about X
}

// IsZero reports whether r is the identity rotation.
func (r Rotator) IsZero() bool { return r.Pitch == 0 && r.Yaw == 0 && r.Roll == 0 }

// Matrix returns the rotation matrix of r. Row i is the image of basis axis i.
func (r Rotator) Matrix() M3 {
	sp, cp := sincos(r.Pitch)
	sy, cy := sincos(r.Yaw)
	sr, cr := sincos(r.Roll)
	return M3{
		{cp * cy, cp * sy, sp},
		{sr*sp*cy - cr*sy, sr*sp*sy + cr*cy, -sr * cp},
		{-(cr*sp*cy + sr*sy), cy*sr - cr*sp*sy, cr * cp},
	}
}

// Rotate returns v rotated by r.
func (r Rotator) Rotate(v Vec3) Vec3 {
	if r.IsZero() {
		return v
	}
	m := r.Matrix()
	return m.Apply(v)
}

// sincos returns sin and cos of deg degrees, exact at multiples of 90°.
func sincos(deg float64) (s, c float64) {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	switch d {
	case 0:
		return 0, 1
	case 90:
		return 1, 0
	case 180:
		return 0, -1
	case 270:
		return -1, 0
	}
	return math.Sincos(d * math.Pi / 180)
}

// M3 is a 3x3 rotation matrix stored as rows.
type M3 [3][3]float64

// Apply returns v·m.
func (m *M3) Apply(v Vec3) Vec3 {
	return Vec3{
		v.X*m[0][0] + v.Y*m[1][0] + v.Z*m[2][0],
		v.X*m[0][1] + v.Y*m[1][1] + v.Z*m[2][1],
		v.X*m[0][2] + v.Y*m[1][2] + v.Z*m[2][2],
	}
}

// Mul sets m to contain l·r.
func (m *M3) Mul(l, r *M3) {
	var out M3
	for i := range 3 {
		for j := range 3 {
			for k := range 3 {
				out[i][j] += l[i][k] * r[k][j]
			}
		}
	}
	*m = out
}

// Axis returns row i of m as a vector.
func (m *M3) Axis(i int) Vec3 { return Vec3{m[i][0], m[i][1], m[i][2]} }

// Rotator converts a pure rotation matrix back to Euler angles.
func (m *M3) Rotator() Rotator {
	x := m.Axis(0)
	pitch := math.Atan2(x.Z, math.Sqrt(x.X*x.X+x.Y*x.Y)) * 180 / math.Pi
	yaw := math.Atan2(x.Y, x.X) * 180 / math.Pi

	// Roll is what remains once pitch and yaw are taken out.
	ref := Rotator{Pitch: pitch, Yaw: yaw}.Matrix()
	yAxis := ref.Axis(1)
	roll := math.Atan2(m.Axis(2).Dot(yAxis), m.Axis(1).Dot(yAxis)) * 180 / math.Pi

	return Rotator{Pitch: pitch, Yaw: yaw, Roll: roll}
}

package core

import "math"

// LookDotThreshold is the minimum dot product between the viewer's look
// vector and the normalized direction to an entity for the entity to count
// as "in front of" the viewer.
const LookDotThreshold = 0.15

// Vec3 is a world-space vector in blocks.
type Vec3 struct {
	X, Y, Z float64
}

// DistanceTo returns the straight-line distance between two points.
func (v Vec3) DistanceTo(other Vec3) float64 {
	return math.Sqrt(v.DistanceSqTo(other))
}

// DistanceSqTo returns the squared distance between two points.
func (v Vec3) DistanceSqTo(other Vec3) float64 {
	dx := v.X - other.X
	dy := v.Y - other.Y
	dz := v.Z - other.Z
	return dx*dx + dy*dy + dz*dz
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.LengthSq())
}

// LengthSq returns the squared Euclidean norm of the vector.
func (v Vec3) LengthSq() float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Scale returns v * k.
func (v Vec3) Scale(k float64) Vec3 {
	return Vec3{X: v.X * k, Y: v.Y * k, Z: v.Z * k}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Normalize returns the unit vector in the direction of v, or the zero
// vector when v has no length.
func (v Vec3) Normalize() Vec3 {
	n := v.Norm()
	if n == 0 {
		return Vec3{}
	}
	return Vec3{X: v.X / n, Y: v.Y / n, Z: v.Z / n}
}

// VisualCenter returns the point halfway up an entity's bounding box.
func (e TrackedEntity) VisualCenter() Vec3 {
	return e.Position.Add(Vec3{Y: e.Height * 0.5})
}

// inViewCone combines the range and look-cone tests in a single vector
// computation. The range check uses squared distance; the cone check
// compares the normalized direction against look, which is expected to be
// a unit vector.
func inViewCone(eye, look, target Vec3, maxRangeSq, minDot float64) bool {
	toTarget := target.Sub(eye)
	distSq := toTarget.LengthSq()
	if distSq > maxRangeSq {
		return false
	}
	if distSq == 0 {
		// Standing inside the item: there is no direction to test.
		return false
	}
	dir := toTarget.Scale(1 / math.Sqrt(distSq))
	return look.Dot(dir) > minDot
}

// SegmentClearsSphere reports whether the straight segment between p1 and
// p2 stays strictly outside the sphere at center with the given radius.
// Hosts use it to implement line-of-sight against spherical occluders.
func SegmentClearsSphere(p1, p2, center Vec3, radius float64) bool {
	a1 := p1.Sub(center)
	v := p2.Sub(p1)
	a := v.Dot(v)
	rSq := radius * radius
	if a == 0 {
		return a1.Dot(a1) > rSq
	}

	// Closest point on the segment to the sphere centre.
	t := -a1.Dot(v) / a
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	closest := Vec3{
		X: a1.X + v.X*t,
		Y: a1.Y + v.Y*t,
		Z: a1.Z + v.Z*t,
	}
	return closest.Dot(closest) > rSq
}

package core

import "testing"

func TestSegmentClearsSphere_NoObstruction(t *testing.T) {
	// The segment passes 3 blocks above a sphere of radius 1.
	p1 := Vec3{X: -5, Y: 3}
	p2 := Vec3{X: 5, Y: 3}

	if !SegmentClearsSphere(p1, p2, Vec3{}, 1) {
		t.Errorf("expected a clear segment above the sphere")
	}
}

func TestSegmentClearsSphere_Obstructed(t *testing.T) {
	p1 := Vec3{X: -5}
	p2 := Vec3{X: 5}

	if SegmentClearsSphere(p1, p2, Vec3{}, 1) {
		t.Errorf("expected the sphere to block the segment")
	}
}

func TestSegmentClearsSphere_StopsShort(t *testing.T) {
	// The sphere lies on the line but beyond the segment's end point.
	if !SegmentClearsSphere(Vec3{}, Vec3{X: 2}, Vec3{X: 5}, 1) {
		t.Errorf("sphere past the end point must not block")
	}
	if SegmentClearsSphere(Vec3{X: 1}, Vec3{X: 1}, Vec3{}, 2) {
		t.Errorf("degenerate segment inside the sphere must be blocked")
	}
}

func TestInViewCone(t *testing.T) {
	eye := Vec3{Y: 1.62}
	look := Vec3{Z: 1}
	const rangeSq = 24 * 24

	tests := []struct {
		name   string
		target Vec3
		want   bool
	}{
		{name: "straight ahead", target: Vec3{Z: 5}, want: true},
		{name: "behind", target: Vec3{Z: -5}, want: false},
		{name: "perpendicular", target: Vec3{X: 5, Y: 1.62}, want: false},
		{name: "out of range", target: Vec3{Z: 30}, want: false},
		{name: "at eye", target: eye, want: false},
		{name: "wide but in cone", target: Vec3{X: 4, Z: 2}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inViewCone(eye, look, tt.target, rangeSq, LookDotThreshold); got != tt.want {
				t.Fatalf("inViewCone(%+v) = %v, want %v", tt.target, got, tt.want)
			}
		})
	}
}

func TestVec3Helpers(t *testing.T) {
	v := Vec3{X: 3, Y: 4}
	if v.Norm() != 5 {
		t.Fatalf("Norm = %v", v.Norm())
	}
	if got := v.Normalize(); got.Norm() < 0.999 || got.Norm() > 1.001 {
		t.Fatalf("Normalize norm = %v", got.Norm())
	}
	if (Vec3{}).Normalize() != (Vec3{}) {
		t.Fatalf("zero vector must normalize to zero")
	}
	if d := v.DistanceTo(Vec3{}); d != 5 {
		t.Fatalf("DistanceTo = %v", d)
	}
	e := TrackedEntity{Position: Vec3{Y: 64}, Height: 0.5}
	if c := e.VisualCenter(); c.Y != 64.25 {
		t.Fatalf("VisualCenter = %+v", c)
	}
}

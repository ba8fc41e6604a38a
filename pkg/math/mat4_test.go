package math

import (
	"math"
	"testing"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	// Diagonal should be 1
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("Identity diagonal should be 1")
	}
	// Off-diagonal should be 0
	if m[1] != 0 || m[4] != 0 {
		t.Error("Identity off-diagonal should be 0")
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate(1, 2, 3)
	id := Identity()
	result := m.Mul(id)

	for i := 0; i < 16; i++ {
		if result[i] != m[i] {
			t.Errorf("M * I should equal M, element %d: got %f, want %f", i, result[i], m[i])
		}
	}
}

func TestTranslate(t *testing.T) {
	m := Translate(5, 10, 15)

	// Translation should be in column 4 (indices 12, 13, 14)
	if m[12] != 5 || m[13] != 10 || m[14] != 15 {
		t.Errorf("Translate: got (%f, %f, %f), want (5, 10, 15)", m[12], m[13], m[14])
	}
}

func TestScale(t *testing.T) {
	m := Scale(2, 3, 4)

	if m[0] != 2 || m[5] != 3 || m[10] != 4 {
		t.Errorf("Scale diagonal: got (%f, %f, %f), want (2, 3, 4)", m[0], m[5], m[10])
	}
}

func TestTransformPoint(t *testing.T) {
	// Translate by (10, 20, 30)
	m := Translate(10, 20, 30)
	p := [3]float32{1, 2, 3}
	result := m.TransformPoint(p)

	expected := [3]float32{11, 22, 33}
	if result != expected {
		t.Errorf("TransformPoint: got %v, want %v", result, expected)
	}
}

func TestTransformPointScale(t *testing.T) {
	m := Scale(2, 2, 2)
	p := [3]float32{1, 2, 3}
	result := m.TransformPoint(p)

	expected := [3]float32{2, 4, 6}
	if result != expected {
		t.Errorf("TransformPoint with scale: got %v, want %v", result, expected)
	}
}

func TestRotateY90(t *testing.T) {
	m := RotateY(float32(math.Pi / 2)) // 90 degrees
	p := [3]float32{1, 0, 0}           // Point on X axis
	result := m.TransformPoint(p)

	// After 90 degree Y rotation, (1,0,0) should become approximately (0,0,-1)
	if abs(result[0]) > 0.001 || abs(result[1]) > 0.001 || abs(result[2]+1) > 0.001 {
		t.Errorf("RotateY 90: got %v, want (0, 0, -1)", result)
	}
}

func TestPerspective(t *testing.T) {
	fov := float32(math.Pi / 4) // 45 degrees
	aspect := float32(1.0)
	near := float32(0.1)
	far := float32(100.0)

	m := Perspective(fov, aspect, near, far)

	// Should be a valid projection matrix (not identity)
	if m[0] == 0 || m[5] == 0 {
		t.Error("Perspective should have non-zero elements")
	}
	// Element [15] should be 0 for perspective projection
	if m[15] != 0 {
		t.Errorf("Perspective [15] should be 0, got %f", m[15])
	}
	// Element [11] should be -1 for perspective projection
	if m[11] != -1 {
		t.Errorf("Perspective [11] should be -1, got %f", m[11])
	}
}

func TestLookAt(t *testing.T) {
	eye := Vec3{0, 0, 5}
	center := Vec3{0, 0, 0}
	up := Vec3{0, 1, 0}

	m := LookAt(eye, center, up)

	// Transform eye position - should result in origin (or close to it)
	// This is a simple sanity check
	if m[15] != 1 {
		t.Errorf("LookAt [15] should be 1, got %f", m[15])
	}
}

func TestComposeMatchesTRS(t *testing.T) {
	pos := Vec3{1, 2, 3}
	rot := QuatFromAxisAngle(Vec3{0, 1, 0}, 0.7)

	got := Compose(pos, rot, 2)
	want := ComposeTRS(pos, rot, Vec3{2, 2, 2})
	for i := range got {
		if abs(got[i]-want[i]) > 0.0001 {
			t.Fatalf("Compose element %d: got %f, want %f", i, got[i], want[i])
		}
	}
}

func TestAddScaledBlend(t *testing.T) {
	a := Translate(2, 0, 0)
	b := Translate(0, 4, 0)

	var blend Mat4
	blend = blend.AddScaled(a, 0.5).AddScaled(b, 0.5)

	p := blend.TransformVec3(Vec3{})
	if p != (Vec3{1, 2, 0}) {
		t.Errorf("blended translation: got %v, want (1, 2, 0)", p)
	}
}

func TestInverseRoundTrip(t *testing.T) {
	m := Translate(3, -1, 2).Mul(RotateY(0.4)).Mul(Scale(2, 2, 2))
	p := Vec3{5, 6, 7}

	back := m.Inverse().TransformVec3(m.TransformVec3(p))
	if back.Distance(p) > 0.001 {
		t.Errorf("inverse round trip: got %v, want %v", back, p)
	}
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func TestTransformAffineSkipsDivide(t *testing.T) {
	m := Translate(1, 0, 0)
	m[3] = 1 // w picks up x

	p := Vec3{1, 2, 3}
	if got := m.TransformAffine(p); got != (Vec3{2, 2, 3}) {
		t.Errorf("TransformAffine = %v, want (2, 2, 3)", got)
	}
	if got := m.TransformVec3(p); got != (Vec3{1, 1, 1.5}) {
		t.Errorf("TransformVec3 = %v, want (1, 1, 1.5)", got)
	}
}

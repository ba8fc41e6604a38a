package camera

import (
	"testing"

	"github.com/Faultbox/glyphcloud/pkg/math"
)

func near(a, b math.Vec3) bool {
	return a.Distance(b) < 1e-4
}

func TestPositionAndForward(t *testing.T) {
	c := NewOrbitCamera()
	c.Center = math.Vec3{}
	c.Distance = 10
	c.Pitch = 0
	c.Yaw = 0

	if got := c.Position(); !near(got, math.Vec3{Z: 10}) {
		t.Errorf("position = %v, want (0, 0, 10)", got)
	}
	if got := c.Forward(); !near(got, math.Vec3{Z: -1}) {
		t.Errorf("forward = %v, want (0, 0, -1)", got)
	}

	c.Yaw = 1.5707964
	if got := c.Forward(); !near(got, math.Vec3{X: -1}) {
		t.Errorf("forward at quarter yaw = %v, want (-1, 0, 0)", got)
	}
}

func TestViewMatrixCentersTarget(t *testing.T) {
	c := NewOrbitCamera()
	got := c.ViewMatrix().TransformVec3(c.Center)
	want := math.Vec3{Z: -c.Distance}
	if !near(got, want) {
		t.Errorf("center in view space = %v, want %v", got, want)
	}
}

func TestClamps(t *testing.T) {
	tests := []struct {
		name  string
		apply func(*OrbitCamera)
		check func(*OrbitCamera) bool
	}{
		{"pitch max", func(c *OrbitCamera) { c.HandleDrag(0, 1e6) }, func(c *OrbitCamera) bool { return c.Pitch == c.MaxPitch }},
		{"pitch min", func(c *OrbitCamera) { c.HandleDrag(0, -1e6) }, func(c *OrbitCamera) bool { return c.Pitch == c.MinPitch }},
		{"zoom in", func(c *OrbitCamera) {
			for range 200 {
				c.HandleZoom(5)
			}
		}, func(c *OrbitCamera) bool { return c.Distance == c.MinDistance }},
		{"zoom out", func(c *OrbitCamera) {
			for range 200 {
				c.HandleZoom(-5)
			}
		}, func(c *OrbitCamera) bool { return c.Distance == c.MaxDistance }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewOrbitCamera()
			tt.apply(c)
			if !tt.check(c) {
				t.Errorf("pitch %v distance %v", c.Pitch, c.Distance)
			}
		})
	}
}

func TestAutoRotate(t *testing.T) {
	c := NewOrbitCamera()
	yaw := c.Yaw
	c.Update(1, true)
	if c.Yaw != yaw {
		t.Error("auto-rotated while dragging")
	}
	c.Update(1, false)
	if c.Yaw == yaw {
		t.Error("did not auto-rotate")
	}
}

func TestFitToBounds(t *testing.T) {
	c := NewOrbitCamera()
	c.FitToBounds(math.Vec3{X: -1, Y: 0, Z: -1}, math.Vec3{X: 1, Y: 4, Z: 1})
	if !near(c.Center, math.Vec3{Y: 2}) {
		t.Errorf("center = %v", c.Center)
	}
	if c.Distance <= 2 {
		t.Errorf("distance %v does not clear the box", c.Distance)
	}
}

func TestSetViewport(t *testing.T) {
	c := NewOrbitCamera()
	c.SetViewport(800, 400)
	if c.Aspect != 2 {
		t.Errorf("aspect = %v, want 2", c.Aspect)
	}
	c.SetViewport(0, 0)
	if c.Aspect != 2 {
		t.Error("zero size changed aspect")
	}
}

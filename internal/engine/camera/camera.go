// Package camera provides the orbit camera the viewer looks through.
package camera

import (
	gomath "math"

	"github.com/Faultbox/glyphcloud/pkg/math"
)

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	Center math.Vec3

	// Spherical coordinates
	Distance float32
	Pitch    float32 // radians above the horizon
	Yaw      float32 // radians about +Y, 0 looks down -Z

	// Projection
	FovY   float32 // radians
	Aspect float32
	Near   float32
	Far    float32

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	DragSensitivity float32
	ZoomSensitivity float32

	// AutoRotate spins the camera in radians per second while idle.
	AutoRotate float32
}

// NewOrbitCamera creates an orbit camera framing a creature a few units tall.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Center:          math.Vec3{Y: 2},
		Distance:        9,
		Pitch:           0.25,
		FovY:            float32(gomath.Pi / 4),
		Aspect:          16.0 / 9.0,
		Near:            0.05,
		Far:             200,
		MinDistance:     1,
		MaxDistance:     100,
		MinPitch:        -1.4,
		MaxPitch:        1.4,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
		AutoRotate:      0.15,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	cp, sp := gomath.Cos(float64(c.Pitch)), gomath.Sin(float64(c.Pitch))
	sy, cy := gomath.Sin(float64(c.Yaw)), gomath.Cos(float64(c.Yaw))
	return c.Center.Add(math.Vec3{
		X: c.Distance * float32(cp*sy),
		Y: c.Distance * float32(sp),
		Z: c.Distance * float32(cp*cy),
	})
}

// Forward returns the unit view direction.
func (c *OrbitCamera) Forward() math.Vec3 {
	return c.Center.Sub(c.Position()).Normalize()
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.Center, math.Up)
}

// ProjectionMatrix returns the perspective projection.
func (c *OrbitCamera) ProjectionMatrix() math.Mat4 {
	return math.Perspective(c.FovY, c.Aspect, c.Near, c.Far)
}

// ViewProjection returns projection * view.
func (c *OrbitCamera) ViewProjection() math.Mat4 {
	return c.ProjectionMatrix().Mul(c.ViewMatrix())
}

// SetViewport updates the aspect ratio for a framebuffer size.
func (c *OrbitCamera) SetViewport(width, height int) {
	if width > 0 && height > 0 {
		c.Aspect = float32(width) / float32(height)
	}
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.Yaw -= deltaX * c.DragSensitivity
	c.Pitch = min(max(c.Pitch+deltaY*c.DragSensitivity, c.MinPitch), c.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	c.Distance = min(max(c.Distance, c.MinDistance), c.MaxDistance)
}

// Update applies auto-rotation unless the user dragged this frame.
func (c *OrbitCamera) Update(dt float32, dragged bool) {
	if !dragged {
		c.Yaw += c.AutoRotate * dt
	}
}

// FitToBounds centers the camera on a bounding box and backs off until the
// box fits the vertical field of view.
func (c *OrbitCamera) FitToBounds(lo, hi math.Vec3) {
	c.Center = lo.Lerp(hi, 0.5)
	radius := hi.Sub(lo).Length() / 2
	if radius <= 0 {
		return
	}
	d := radius / float32(gomath.Sin(float64(c.FovY)/2))
	c.Distance = min(max(d, c.MinDistance), c.MaxDistance)
}

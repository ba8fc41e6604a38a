// Package instances writes one transform per sample point every frame.
package instances

import (
	"fmt"

	"github.com/Faultbox/glyphcloud/internal/effects"
	"github.com/Faultbox/glyphcloud/internal/pointcloud"
	"github.com/Faultbox/glyphcloud/internal/skin"
	"github.com/Faultbox/glyphcloud/pkg/math"
)

// Policy selects how glyphs are oriented.
type Policy int

const (
	// Billboard turns every glyph to face the camera about the up axis only.
	Billboard Policy = iota
	// Surface aligns glyph +Z with the skinned vertex normal.
	Surface
)

// String returns the config name of the policy.
func (p Policy) String() string {
	if p == Surface {
		return "surface"
	}
	return "billboard"
}

// ParsePolicy maps a config name to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "billboard", "":
		return Billboard, nil
	case "surface":
		return Surface, nil
	}
	return Billboard, fmt.Errorf("unknown orientation %q", s)
}

// Transform is one instance slot. Scale is 1; the renderer applies glyph size.
type Transform struct {
	Position math.Vec3
	Rotation math.Quat
	Scale    float32
}

// Matrix returns the model matrix of the slot scaled by size.
func (t Transform) Matrix(size float32) math.Mat4 {
	return math.Compose(t.Position, t.Rotation, t.Scale*size)
}

// Front is the local axis a glyph faces.
var Front = math.Vec3{Z: 1}

// Updater resolves, orients and displaces every sample point.
type Updater struct {
	eval   *skin.Evaluator
	engine *effects.Engine

	policy Policy
	yaw    math.Quat

	base  []math.Vec3
	slots []Transform
}

// New creates an updater reading positions from eval and displacement from engine.
func New(eval *skin.Evaluator, engine *effects.Engine) *Updater {
	return &Updater{
		eval:   eval,
		engine: engine,
		yaw:    math.QuatIdentity(),
	}
}

// SetEvaluator switches the mesh the updater reads. Used on mesh swaps.
func (u *Updater) SetEvaluator(eval *skin.Evaluator) {
	u.eval = eval
}

// SetPolicy selects the orientation policy.
func (u *Updater) SetPolicy(p Policy) {
	u.policy = p
}

// Policy returns the orientation policy.
func (u *Updater) Policy() Policy {
	return u.policy
}

// SetViewDirection sets the camera forward vector for billboarding. Pitch is
// discarded; a vertical view keeps the previous yaw.
func (u *Updater) SetViewDirection(dir math.Vec3) {
	toCamera := dir.Scale(-1).XZ()
	if toCamera.Length() < 1e-6 {
		return
	}
	u.yaw = math.QuatFromAxisAngle(math.Up, toCamera.Angle())
}

// UpdateAll writes one transform per entry of set at elapsed time t and
// returns the slots. The slice is reused across calls.
func (u *Updater) UpdateAll(set *pointcloud.SampleSet, t float32) []Transform {
	n := set.Len()
	u.base = resize(u.base, n)
	u.slots = resize(u.slots, n)
	if n == 0 {
		return u.slots
	}

	lo := math.Vec3{X: maxFloat, Y: maxFloat, Z: maxFloat}
	hi := lo.Scale(-1)
	for i, ref := range set.Refs {
		p := u.eval.Resolve(ref)
		u.base[i] = p
		lo = lo.Min(p)
		hi = hi.Max(p)
	}
	u.engine.SetBounds(lo, hi)

	for i, ref := range set.Refs {
		inst := effects.Instance{Index: i, Base: u.base[i]}
		if i < len(set.Directions) {
			inst.Dir = set.Directions[i]
		}
		u.slots[i] = Transform{
			Position: u.base[i].Add(u.engine.Displacement(inst, t)),
			Rotation: u.orient(ref),
			Scale:    1,
		}
	}
	return u.slots
}

// Transforms returns the slots written by the last UpdateAll.
func (u *Updater) Transforms() []Transform {
	return u.slots
}

// Matrices fills dst with the model matrix of every slot at glyph size.
func (u *Updater) Matrices(dst []math.Mat4, size float32) []math.Mat4 {
	dst = resize(dst, len(u.slots))
	for i, s := range u.slots {
		dst[i] = s.Matrix(size)
	}
	return dst
}

func (u *Updater) orient(ref pointcloud.Ref) math.Quat {
	if u.policy == Billboard {
		return u.yaw
	}
	n, ok := u.eval.ResolveNormal(ref)
	if !ok {
		return math.QuatIdentity()
	}
	return math.QuatFromUnitVectors(Front, n)
}

const maxFloat = 3.4e38

func resize[T any](s []T, n int) []T {
	if cap(s) < n {
		return make([]T, n)
	}
	return s[:n]
}

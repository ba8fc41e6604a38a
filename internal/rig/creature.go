package rig

import (
	gomath "math"

	"github.com/Faultbox/glyphcloud/pkg/math"
)

// CreatureOptions controls the procedural creature resolution.
type CreatureOptions struct {
	Rings    int // Horizontal rings along the body
	Segments int // Vertices per ring
}

// DefaultCreatureOptions returns the resolution used by the tools.
func DefaultCreatureOptions() CreatureOptions {
	return CreatureOptions{Rings: 24, Segments: 16}
}

const (
	bodyBottom = 0.4
	bodyTop    = 4.2
)

// spine joint heights, indexed like the first five bones
var spineHeights = [...]float32{0, 1, 2, 3, 3.8}

// NewCreatureSkeleton builds the creature rig: a vertical spine ending in a
// head and a three bone tail that has no mesh around it.
func NewCreatureSkeleton() *Skeleton {
	bone := func(name string, parent int, x, y, z float32) Bone {
		rest := IdentityTransform()
		rest.Translation = math.Vec3{X: x, Y: y, Z: z}
		return Bone{Name: name, Parent: parent, Rest: rest}
	}
	return NewSkeleton([]Bone{
		bone("root", -1, 0, 0, 0),
		bone("spine_lower", 0, 0, 1, 0),
		bone("spine_upper", 1, 0, 1, 0),
		bone("neck", 2, 0, 1, 0),
		bone("head", 3, 0, 0.8, 0),
		bone("tail_base", 0, 0, 0.6, -0.5),
		bone("tail_mid", 5, 0, -0.1, -0.8),
		bone("tail_tip", 6, 0, -0.1, -0.8),
	})
}

// NewCreature builds a skinned tube body bound to NewCreatureSkeleton and
// returns it with its idle clip.
func NewCreature(opts CreatureOptions) (*Mesh, *Clip) {
	rings := max(opts.Rings, 2)
	segs := max(opts.Segments, 3)

	positions := make([]math.Vec3, 0, rings*segs)
	normals := make([]math.Vec3, 0, rings*segs)
	skinIdx := make([][MaxInfluences]int, 0, rings*segs)
	skinW := make([][MaxInfluences]float32, 0, rings*segs)

	for i := 0; i < rings; i++ {
		f := float32(i) / float32(rings-1)
		y := bodyBottom + f*(bodyTop-bodyBottom)
		radius := 0.5 + 0.2*float32(gomath.Sin(gomath.Pi*float64(f)))
		idx, w := spineWeights(y)

		for j := 0; j < segs; j++ {
			theta := 2 * gomath.Pi * float64(j) / float64(segs)
			c, s := float32(gomath.Cos(theta)), float32(gomath.Sin(theta))
			positions = append(positions, math.Vec3{X: radius * c, Y: y, Z: radius * s})
			normals = append(normals, math.Vec3{X: c, Y: 0, Z: s})
			skinIdx = append(skinIdx, idx)
			skinW = append(skinW, w)
		}
	}

	var indices []uint32
	for i := 0; i < rings-1; i++ {
		for j := 0; j < segs; j++ {
			a := uint32(i*segs + j)
			b := uint32(i*segs + (j+1)%segs)
			c := uint32((i+1)*segs + j)
			d := uint32((i+1)*segs + (j+1)%segs)
			indices = append(indices, a, c, b, b, c, d)
		}
	}

	mesh := NewMesh("creature", positions, indices)
	mesh.Normals = normals
	mesh.SkinIndices = skinIdx
	mesh.SkinWeights = skinW
	mesh.Bind(NewCreatureSkeleton())

	return mesh, creatureIdleClip()
}

// spineWeights blends the two spine joints bracketing height y.
func spineWeights(y float32) ([MaxInfluences]int, [MaxInfluences]float32) {
	last := len(spineHeights) - 1
	if y >= spineHeights[last] {
		return [MaxInfluences]int{last}, [MaxInfluences]float32{1}
	}
	for k := 0; k < last; k++ {
		if y < spineHeights[k+1] {
			f := (y - spineHeights[k]) / (spineHeights[k+1] - spineHeights[k])
			return [MaxInfluences]int{k, k + 1}, [MaxInfluences]float32{1 - f, f}
		}
	}
	return [MaxInfluences]int{0}, [MaxInfluences]float32{1}
}

// creatureIdleClip sways the spine side to side and swishes the tail.
func creatureIdleClip() *Clip {
	const (
		duration = 2.0
		step     = 0.25
	)
	type sway struct {
		bone  int
		axis  math.Vec3
		amp   float64
		phase float64
	}
	z := math.Vec3{Z: 1}
	y := math.Vec3{Y: 1}
	sways := []sway{
		{1, z, 0.12, 0},
		{2, z, 0.18, 0.5},
		{3, z, 0.22, 1.0},
		{5, y, 0.35, 0},
		{6, y, 0.45, 0.7},
		{7, y, 0.55, 1.4},
	}

	clip := &Clip{Name: "idle", Duration: duration}
	for _, sw := range sways {
		ch := Channel{Bone: sw.bone}
		for t := 0.0; t <= duration+1e-6; t += step {
			angle := sw.amp * gomath.Sin(2*gomath.Pi*t/duration+sw.phase)
			ch.Rotations = append(ch.Rotations, RotKey{
				Time:  float32(t),
				Value: math.QuatFromAxisAngle(sw.axis, float32(angle)),
			})
		}
		clip.Channels = append(clip.Channels, ch)
	}
	return clip
}

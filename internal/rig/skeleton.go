package rig

import (
	"strings"

	"github.com/Faultbox/glyphcloud/pkg/math"
)

// Transform is a decomposed bone transform relative to its parent.
type Transform struct {
	Translation math.Vec3
	Rotation    math.Quat
	Scale       math.Vec3
}

// IdentityTransform returns a transform with no offset, rotation or scale.
func IdentityTransform() Transform {
	return Transform{Rotation: math.QuatIdentity(), Scale: math.Vec3{X: 1, Y: 1, Z: 1}}
}

// Matrix returns translate * rotate * scale.
func (t Transform) Matrix() math.Mat4 {
	return math.ComposeTRS(t.Translation, t.Rotation, t.Scale)
}

// Bone is a single joint in the hierarchy.
type Bone struct {
	Name   string
	Parent int // -1 for root bones

	// Rest is the bind-pose local transform; Local is the live one.
	Rest  Transform
	Local Transform

	// InverseBind takes skeleton-space points into this bone's bind space.
	InverseBind math.Mat4

	// World is the bone transform in skeleton space, refreshed by UpdateWorld.
	World math.Mat4
}

// Skeleton is a bone hierarchy ordered parent before child.
type Skeleton struct {
	Bones []Bone
}

// NewSkeleton creates a skeleton whose live pose starts at the rest pose.
// Bones must be ordered so that every parent precedes its children.
func NewSkeleton(bones []Bone) *Skeleton {
	s := &Skeleton{Bones: bones}
	for i := range s.Bones {
		s.Bones[i].Local = s.Bones[i].Rest
		s.Bones[i].InverseBind = math.Identity()
	}
	s.UpdateWorld()
	return s
}

// UpdateWorld recomputes every bone's world matrix from the live locals.
func (s *Skeleton) UpdateWorld() {
	for i := range s.Bones {
		b := &s.Bones[i]
		local := b.Local.Matrix()
		if b.Parent >= 0 && b.Parent < i {
			b.World = s.Bones[b.Parent].World.Mul(local)
		} else {
			b.World = local
		}
	}
}

// ResetPose restores every bone to its rest transform.
func (s *Skeleton) ResetPose() {
	for i := range s.Bones {
		s.Bones[i].Local = s.Bones[i].Rest
	}
	s.UpdateWorld()
}

// Valid reports whether i addresses a bone.
func (s *Skeleton) Valid(i int) bool {
	return s != nil && i >= 0 && i < len(s.Bones)
}

// BoneMatrix returns World * InverseBind for bone i, the matrix a GPU skinning
// pass uploads per joint.
func (s *Skeleton) BoneMatrix(i int) math.Mat4 {
	b := &s.Bones[i]
	return b.World.Mul(b.InverseBind)
}

// BonePosition returns the skeleton-space origin of bone i.
func (s *Skeleton) BonePosition(i int) math.Vec3 {
	return s.Bones[i].World.Translation()
}

// FindBone returns the index of the named bone, or -1.
func (s *Skeleton) FindBone(name string) int {
	for i := range s.Bones {
		if s.Bones[i].Name == name {
			return i
		}
	}
	return -1
}

// MatchBones returns, in order, the bones whose lowercased name contains any
// of the given substrings.
func (s *Skeleton) MatchBones(substrings []string) []int {
	var out []int
	for i := range s.Bones {
		name := strings.ToLower(s.Bones[i].Name)
		for _, sub := range substrings {
			if sub != "" && strings.Contains(name, strings.ToLower(sub)) {
				out = append(out, i)
				break
			}
		}
	}
	return out
}

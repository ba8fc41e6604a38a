// Package pointcloud turns a skinned triangle mesh into a fixed, ordered set
// of mesh point references that glyph instances are placed on.
package pointcloud

import "fmt"

// Kind identifies which variant a Ref holds.
type Kind uint8

const (
	KindVertex Kind = iota
	KindFaceCenter
	KindEdgePoint
	KindInterior
	KindBonePoint
)

func (k Kind) String() string {
	switch k {
	case KindVertex:
		return "vertex"
	case KindFaceCenter:
		return "faceCenter"
	case KindEdgePoint:
		return "edgePoint"
	case KindInterior:
		return "interior"
	case KindBonePoint:
		return "bonePoint"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Ref addresses one location on or near the mesh. It is a closed tagged union:
// only the fields belonging to Kind are meaningful, and values are never
// modified after sampling.
//
//	vertex      V[0]
//	faceCenter  V[0..2]
//	edgePoint   V[0], V[1], T
//	interior    V[0..2], Bary (sums to 1)
//	bonePoint   Bone, Parent, T
type Ref struct {
	Kind   Kind
	V      [3]int
	Bary   [3]float32
	T      float32
	Bone   int
	Parent int
}

// Vertex references mesh vertex i.
func Vertex(i int) Ref {
	return Ref{Kind: KindVertex, V: [3]int{i}}
}

// FaceCenter references the centroid of triangle (a, b, c).
func FaceCenter(a, b, c int) Ref {
	return Ref{Kind: KindFaceCenter, V: [3]int{a, b, c}}
}

// EdgePoint references the point at t along the edge from a to b.
func EdgePoint(a, b int, t float32) Ref {
	return Ref{Kind: KindEdgePoint, V: [3]int{a, b}, T: t}
}

// Interior references the barycentric point u*a + v*b + w*c.
func Interior(a, b, c int, u, v, w float32) Ref {
	return Ref{Kind: KindInterior, V: [3]int{a, b, c}, Bary: [3]float32{u, v, w}}
}

// BonePoint references the point at t along the segment from parent to bone.
func BonePoint(bone, parent int, t float32) Ref {
	return Ref{Kind: KindBonePoint, Bone: bone, Parent: parent, T: t}
}

// HasNormal reports whether the reference has a well defined surface normal.
// Only true vertices do.
func (r Ref) HasNormal() bool {
	return r.Kind == KindVertex
}

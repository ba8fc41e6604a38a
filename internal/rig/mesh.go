// Package rig holds the skinned mesh, skeleton and animation clip data the
// asset loader hands to the point cloud core.
package rig

import (
	"github.com/Faultbox/glyphcloud/pkg/math"
)

// MaxInfluences is the number of bone influences stored per vertex.
const MaxInfluences = 4

// Mesh is a triangulated, optionally skinned mesh.
type Mesh struct {
	Name string

	// Positions are rest-pose vertex positions in mesh space.
	Positions []math.Vec3

	// Normals are rest-pose vertex normals. Empty when the asset has none.
	Normals []math.Vec3

	// SkinIndices and SkinWeights are parallel to Positions when the mesh is
	// skinned. An index outside the skeleton is ignored at evaluation time.
	SkinIndices [][MaxInfluences]int
	SkinWeights [][MaxInfluences]float32

	// Indices is the triangle list, three entries per face.
	Indices []uint32

	// World places the mesh in the scene.
	World math.Mat4

	// BindMatrix and BindMatrixInverse move vertices into and out of the
	// space the skeleton was bound in.
	BindMatrix        math.Mat4
	BindMatrixInverse math.Mat4

	// Skeleton drives the mesh. Nil for static meshes.
	Skeleton *Skeleton
}

// NewMesh creates a mesh with identity world and bind matrices.
func NewMesh(name string, positions []math.Vec3, indices []uint32) *Mesh {
	return &Mesh{
		Name:              name,
		Positions:         positions,
		Indices:           indices,
		World:             math.Identity(),
		BindMatrix:        math.Identity(),
		BindMatrixInverse: math.Identity(),
	}
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// FaceCount returns the number of complete triangles.
func (m *Mesh) FaceCount() int {
	return len(m.Indices) / 3
}

// Face returns the vertex indices of triangle i.
func (m *Mesh) Face(i int) (a, b, c int) {
	return int(m.Indices[i*3]), int(m.Indices[i*3+1]), int(m.Indices[i*3+2])
}

// HasSkin reports whether per-vertex bone influences are present.
func (m *Mesh) HasSkin() bool {
	return m.Skeleton != nil && len(m.SkinIndices) == len(m.Positions) && len(m.SkinWeights) == len(m.Positions)
}

// HasNormals reports whether per-vertex normals are present.
func (m *Mesh) HasNormals() bool {
	return len(m.Normals) == len(m.Positions) && len(m.Normals) > 0
}

// Bind binds the mesh to a skeleton in its current pose: the skeleton world
// matrices are refreshed and each bone's inverse bind matrix is taken from them.
func (m *Mesh) Bind(s *Skeleton) {
	m.Skeleton = s
	s.UpdateWorld()
	for i := range s.Bones {
		s.Bones[i].InverseBind = s.Bones[i].World.Inverse()
	}
	m.BindMatrixInverse = m.BindMatrix.Inverse()
}

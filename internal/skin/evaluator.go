// Package skin resolves mesh point references to world positions by repeating
// the GPU linear blend skinning pass on the host.
package skin

import (
	"github.com/Faultbox/glyphcloud/internal/pointcloud"
	"github.com/Faultbox/glyphcloud/internal/rig"
	"github.com/Faultbox/glyphcloud/pkg/math"
)

// Evaluator resolves references against one mesh. Vertex results are cached
// per frame; call BeginFrame after the skeleton pose changes.
type Evaluator struct {
	mesh *rig.Mesh

	frame   uint32
	stamp   []uint32
	cache   []math.Vec3
	toWorld math.Mat4
}

// New creates an evaluator for mesh.
func New(mesh *rig.Mesh) *Evaluator {
	e := &Evaluator{
		mesh:  mesh,
		stamp: make([]uint32, mesh.VertexCount()),
		cache: make([]math.Vec3, mesh.VertexCount()),
	}
	e.BeginFrame()
	return e
}

// Mesh returns the mesh this evaluator reads.
func (e *Evaluator) Mesh() *rig.Mesh {
	return e.mesh
}

// BeginFrame invalidates cached vertex positions.
func (e *Evaluator) BeginFrame() {
	e.frame++
	if e.frame == 0 {
		// Wrapped: clear stamps so stale entries cannot match.
		clear(e.stamp)
		e.frame = 1
	}
	e.toWorld = e.mesh.World.Mul(e.mesh.BindMatrixInverse)
}

// Resolve returns the current world position of r.
func (e *Evaluator) Resolve(r pointcloud.Ref) math.Vec3 {
	switch r.Kind {
	case pointcloud.KindVertex:
		return e.Vertex(r.V[0])
	case pointcloud.KindFaceCenter:
		return math.Centroid(e.Vertex(r.V[0]), e.Vertex(r.V[1]), e.Vertex(r.V[2]))
	case pointcloud.KindEdgePoint:
		return e.Vertex(r.V[0]).Lerp(e.Vertex(r.V[1]), r.T)
	case pointcloud.KindInterior:
		return math.Barycentric(e.Vertex(r.V[0]), e.Vertex(r.V[1]), e.Vertex(r.V[2]), r.Bary[0], r.Bary[1], r.Bary[2])
	case pointcloud.KindBonePoint:
		return e.Bone(r.Parent).Lerp(e.Bone(r.Bone), r.T)
	}
	return math.Vec3{}
}

// ResolveNormal returns the current world normal of r. Only vertex references
// with mesh normals have one; everything else reports false.
func (e *Evaluator) ResolveNormal(r pointcloud.Ref) (math.Vec3, bool) {
	if !r.HasNormal() || !e.mesh.HasNormals() {
		return math.Vec3{}, false
	}
	i := r.V[0]
	if i < 0 || i >= len(e.mesh.Normals) {
		return math.Vec3{}, false
	}

	n := e.mesh.Normals[i]
	if skin, ok := e.skinMatrix(i); ok {
		n = e.mesh.BindMatrix.TransformDirection(n)
		n = skin.TransformDirection(n)
	} else {
		n = e.mesh.BindMatrix.TransformDirection(n)
	}
	n = e.toWorld.TransformDirection(n).Normalize()
	if n == (math.Vec3{}) {
		return n, false
	}
	return n, true
}

// Vertex returns the skinned world position of vertex i.
func (e *Evaluator) Vertex(i int) math.Vec3 {
	if i < 0 || i >= len(e.cache) {
		return math.Vec3{}
	}
	if e.stamp[i] == e.frame {
		return e.cache[i]
	}
	p := e.skinVertex(i)
	e.cache[i] = p
	e.stamp[i] = e.frame
	return p
}

// Bone returns the world position of bone i's origin. An unknown bone
// resolves to the mesh origin.
func (e *Evaluator) Bone(i int) math.Vec3 {
	s := e.mesh.Skeleton
	if !s.Valid(i) {
		return e.mesh.World.TransformVec3(math.Vec3{})
	}
	return e.toWorld.TransformVec3(s.BonePosition(i))
}

// skinVertex applies bind, blended bone matrices, unbind and world, in that order.
// Vertices with no usable influence stay at the rest pose.
func (e *Evaluator) skinVertex(i int) math.Vec3 {
	rest := e.mesh.Positions[i]
	skin, ok := e.skinMatrix(i)
	if !ok {
		return e.mesh.World.TransformVec3(rest)
	}
	bound := e.mesh.BindMatrix.TransformVec3(rest)
	return e.toWorld.TransformVec3(skin.TransformAffine(bound))
}

// skinMatrix blends the bone matrices influencing vertex i. Influences that
// point outside the skeleton are skipped and only then are the remaining
// weights renormalised; otherwise the weights are used as stored.
func (e *Evaluator) skinMatrix(i int) (math.Mat4, bool) {
	if !e.mesh.HasSkin() {
		return math.Mat4{}, false
	}
	s := e.mesh.Skeleton
	idx := e.mesh.SkinIndices[i]
	w := e.mesh.SkinWeights[i]

	var blend math.Mat4
	var total float32
	skipped := false
	for k := 0; k < rig.MaxInfluences; k++ {
		if w[k] == 0 {
			continue
		}
		if !s.Valid(idx[k]) {
			skipped = true
			continue
		}
		blend = blend.AddScaled(s.BoneMatrix(idx[k]), w[k])
		total += w[k]
	}
	if total == 0 {
		return math.Mat4{}, false
	}
	if skipped {
		var scaled math.Mat4
		blend = scaled.AddScaled(blend, 1/total)
	}
	return blend, true
}

package pointcloud

import (
	gomath "math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/Faultbox/glyphcloud/internal/config"
	"github.com/Faultbox/glyphcloud/internal/rig"
	"github.com/Faultbox/glyphcloud/pkg/math"
)

// baseInterior are the six barycentric points every ordinary face receives.
var baseInterior = [6][3]float32{
	{0.6, 0.2, 0.2},
	{0.2, 0.6, 0.2},
	{0.2, 0.2, 0.6},
	{0.4, 0.4, 0.2},
	{0.4, 0.2, 0.4},
	{0.2, 0.4, 0.4},
}

var (
	edgeOffsets      = []float32{0.25, 0.5, 0.75}
	largeEdgeOffsets = []float32{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9}
)

// degenerateArea is the area at or below which a face only yields its center.
const degenerateArea = 1e-12

// Options controls sampling. Density and MaxCount must be positive; the
// configuration layer rejects anything else before sampling.
type Options struct {
	Density              int
	MaxCount             int
	LargeFaceRatio       float32
	MaxSubdivision       int
	SubdivisionBias      int
	FillGapBones         []string
	BonePointsPerSegment int
	Seed                 uint64
}

// OptionsFromConfig maps the sampling config section onto Options.
func OptionsFromConfig(cfg config.SamplingConfig) Options {
	return Options{
		Density:              cfg.Density,
		MaxCount:             cfg.MaxCharacters,
		LargeFaceRatio:       cfg.LargeFaceRatio,
		MaxSubdivision:       cfg.MaxSubdivision,
		SubdivisionBias:      cfg.SubdivisionBias,
		FillGapBones:         cfg.FillGapBones,
		BonePointsPerSegment: cfg.BonePointsPerSegment,
		Seed:                 cfg.Seed,
	}
}

// Stats counts what a sampling pass emitted.
type Stats struct {
	Vertices    int
	FaceCenters int
	Interior    int
	Edges       int
	BonePoints  int
	LargeFaces  int
	Truncated   bool

	// MeanArea and MaxAreaRatio describe the face areas the large-face
	// classification was made against.
	MeanArea     float64
	MaxAreaRatio float64
}

// SampleSet is the immutable result of sampling. Index i of Refs and
// Directions describe the same glyph instance for the lifetime of the set.
type SampleSet struct {
	Refs []Ref

	// Directions holds one fixed unit vector per instance for the disperse effect.
	Directions []math.Vec3

	Density int
	Stats   Stats
}

// Len returns the number of sample points.
func (s *SampleSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Refs)
}

// emitter appends references until the cap is reached.
type emitter struct {
	refs  []Ref
	max   int
	stats Stats
}

// add appends r and reports whether emission may continue.
func (e *emitter) add(r Ref) bool {
	if len(e.refs) >= e.max {
		e.stats.Truncated = true
		return false
	}
	e.refs = append(e.refs, r)
	switch r.Kind {
	case KindVertex:
		e.stats.Vertices++
	case KindFaceCenter:
		e.stats.FaceCenters++
	case KindEdgePoint:
		e.stats.Edges++
	case KindInterior:
		e.stats.Interior++
	case KindBonePoint:
		e.stats.BonePoints++
	}
	return true
}

// Sample builds the sample set for mesh at the given options. The result is
// a pure function of the mesh topology, rest positions, skeleton names and opts.
func Sample(mesh *rig.Mesh, opts Options) *SampleSet {
	density := max(opts.Density, 1)
	e := &emitter{max: max(opts.MaxCount, 0)}

	if mesh != nil {
		if sampleVertices(e, mesh, density) && sampleFaces(e, mesh, density, opts) {
			sampleBones(e, mesh.Skeleton, opts)
		}
	}

	return &SampleSet{
		Refs:       e.refs,
		Directions: disperseDirections(len(e.refs), opts.Seed),
		Density:    density,
		Stats:      e.stats,
	}
}

func sampleVertices(e *emitter, mesh *rig.Mesh, density int) bool {
	for i := 0; i < mesh.VertexCount(); i += density {
		if !e.add(Vertex(i)) {
			return false
		}
	}
	return true
}

func sampleFaces(e *emitter, mesh *rig.Mesh, density int, opts Options) bool {
	faces := mesh.FaceCount()
	if faces == 0 {
		return true
	}

	areas := faceAreas(mesh)
	ratios := areaRatios(areas)
	e.stats.MeanArea = stat.Mean(areas, nil)
	e.stats.MaxAreaRatio = floats.Max(ratios)
	large := float64(opts.LargeFaceRatio)
	if large <= 0 {
		large = 2
	}

	seen := make(map[uint64]struct{})
	for f := 0; f < faces; f += density {
		a, b, c := mesh.Face(f)
		if !validFace(mesh, a, b, c) {
			continue
		}
		if !e.add(FaceCenter(a, b, c)) {
			return false
		}

		if areas[f] <= degenerateArea {
			continue
		}

		offsets := edgeOffsets
		if ratios[f] > large {
			e.stats.LargeFaces++
			offsets = largeEdgeOffsets
			if !emitGrid(e, a, b, c, subdivisions(ratios[f], opts)) {
				return false
			}
		} else {
			for _, w := range baseInterior {
				if !e.add(Interior(a, b, c, w[0], w[1], w[2])) {
					return false
				}
			}
		}

		for _, edge := range [3][2]int{{a, b}, {b, c}, {c, a}} {
			key := edgeKey(edge[0], edge[1])
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			for _, t := range offsets {
				if !e.add(EdgePoint(edge[0], edge[1], t)) {
					return false
				}
			}
		}
	}
	return true
}

// emitGrid emits a barycentric grid of n subdivisions, skipping the three corners.
func emitGrid(e *emitter, a, b, c, n int) bool {
	for i := 0; i <= n; i++ {
		for j := 0; j <= n-i; j++ {
			k := n - i - j
			if i == n || j == n || k == n {
				continue
			}
			u := float32(i) / float32(n)
			v := float32(j) / float32(n)
			w := float32(k) / float32(n)
			if !e.add(Interior(a, b, c, u, v, w)) {
				return false
			}
		}
	}
	return true
}

// subdivisions returns min(MaxSubdivision, ceil(ratio) + bias) for a face
// whose area is ratio times the mean.
func subdivisions(ratio float64, opts Options) int {
	limit := opts.MaxSubdivision
	if limit <= 0 {
		limit = 10
	}
	bias := opts.SubdivisionBias
	if bias <= 0 {
		bias = 3
	}
	return min(limit, int(gomath.Ceil(ratio))+bias)
}

func sampleBones(e *emitter, s *rig.Skeleton, opts Options) bool {
	if s == nil || opts.BonePointsPerSegment <= 0 {
		return true
	}
	n := opts.BonePointsPerSegment
	for _, bone := range s.MatchBones(opts.FillGapBones) {
		parent := s.Bones[bone].Parent
		if !s.Valid(parent) {
			continue
		}
		for i := 0; i < n; i++ {
			if !e.add(BonePoint(bone, parent, float32(i)/float32(n))) {
				return false
			}
		}
	}
	return true
}

func faceAreas(mesh *rig.Mesh) []float64 {
	areas := make([]float64, mesh.FaceCount())
	for f := range areas {
		a, b, c := mesh.Face(f)
		if !validFace(mesh, a, b, c) {
			continue
		}
		areas[f] = float64(math.TriangleArea(mesh.Positions[a], mesh.Positions[b], mesh.Positions[c]))
	}
	return areas
}

// areaRatios returns each face area divided by the mean area. All ratios are
// zero when the mesh has no area.
func areaRatios(areas []float64) []float64 {
	ratios := make([]float64, len(areas))
	sum := floats.Sum(areas)
	if sum <= 0 {
		return ratios
	}
	floats.ScaleTo(ratios, float64(len(areas))/sum, areas)
	return ratios
}

func validFace(mesh *rig.Mesh, a, b, c int) bool {
	n := mesh.VertexCount()
	return a < n && b < n && c < n
}

// edgeKey identifies an undirected edge.
func edgeKey(a, b int) uint64 {
	if a > b {
		a, b = b, a
	}
	return uint64(a)<<32 | uint64(uint32(b))
}

// disperseDirections returns n seeded unit vectors uniformly spread over the sphere.
func disperseDirections(n int, seed uint64) []math.Vec3 {
	rng := rand.New(rand.NewPCG(seed, 0x9e3779b97f4a7c15))
	dirs := make([]math.Vec3, n)
	for i := range dirs {
		z := 2*rng.Float64() - 1
		phi := 2 * gomath.Pi * rng.Float64()
		r := gomath.Sqrt(1 - z*z)
		dirs[i] = math.Vec3{
			X: float32(r * gomath.Cos(phi)),
			Y: float32(r * gomath.Sin(phi)),
			Z: float32(z),
		}
	}
	return dirs
}

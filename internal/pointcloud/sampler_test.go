package pointcloud

import (
	gomath "math"
	"reflect"
	"testing"

	"github.com/Faultbox/glyphcloud/internal/config"
	"github.com/Faultbox/glyphcloud/internal/rig"
	"github.com/Faultbox/glyphcloud/pkg/math"
)

func testOptions() Options {
	return OptionsFromConfig(config.Default().Sampling)
}

func triangleMesh() *rig.Mesh {
	return rig.NewMesh("tri", []math.Vec3{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: 1, Z: 0},
	}, []uint32{0, 1, 2})
}

func quadMesh() *rig.Mesh {
	return rig.NewMesh("quad", []math.Vec3{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 1, Y: 1, Z: 0},
		{X: 0, Y: 1, Z: 0},
	}, []uint32{0, 1, 2, 0, 2, 3})
}

func countKinds(refs []Ref) map[Kind]int {
	out := make(map[Kind]int)
	for _, r := range refs {
		out[r.Kind]++
	}
	return out
}

func TestSampleSingleTriangle(t *testing.T) {
	set := Sample(triangleMesh(), testOptions())

	kinds := countKinds(set.Refs)
	if kinds[KindVertex] != 3 {
		t.Errorf("vertices = %d, want 3", kinds[KindVertex])
	}
	if kinds[KindFaceCenter] != 1 {
		t.Errorf("face centers = %d, want 1", kinds[KindFaceCenter])
	}
	// A lone triangle is its own average, so it is never large.
	if kinds[KindInterior] != 6 {
		t.Errorf("interior = %d, want 6", kinds[KindInterior])
	}
	if kinds[KindEdgePoint] != 9 {
		t.Errorf("edge points = %d, want 9", kinds[KindEdgePoint])
	}
	if set.Len() != 19 {
		t.Errorf("total = %d, want 19", set.Len())
	}
	if set.Stats.LargeFaces != 0 {
		t.Errorf("large faces = %d, want 0", set.Stats.LargeFaces)
	}
}

func TestSampleQuadDeduplicatesSharedEdge(t *testing.T) {
	set := Sample(quadMesh(), testOptions())

	// 4 vertices + 2 centers + 2*6 interior + 5 unique edges * 3 offsets
	if set.Len() != 33 {
		t.Fatalf("total = %d, want 33", set.Len())
	}
	if set.Stats.Edges != 15 {
		t.Errorf("edge points = %d, want 15", set.Stats.Edges)
	}

	// Vertices come first, in index order.
	for i := 0; i < 4; i++ {
		if set.Refs[i] != Vertex(i) {
			t.Errorf("ref %d = %+v, want vertex %d", i, set.Refs[i], i)
		}
	}
	if set.Refs[4] != FaceCenter(0, 1, 2) {
		t.Errorf("ref 4 = %+v, want first face center", set.Refs[4])
	}
}

func TestSampleDeterministic(t *testing.T) {
	mesh, _ := rig.NewCreature(rig.DefaultCreatureOptions())
	opts := testOptions()

	a := Sample(mesh, opts)
	b := Sample(mesh, opts)
	if !reflect.DeepEqual(a.Refs, b.Refs) {
		t.Error("repeated sampling produced different references")
	}
	if !reflect.DeepEqual(a.Directions, b.Directions) {
		t.Error("repeated sampling produced different disperse directions")
	}
}

func TestSampleRespectsCap(t *testing.T) {
	mesh, _ := rig.NewCreature(rig.DefaultCreatureOptions())
	unbounded := Sample(mesh, testOptions())

	for _, limit := range []int{1, 10, 100, unbounded.Len() - 1, unbounded.Len(), unbounded.Len() + 50} {
		opts := testOptions()
		opts.MaxCount = limit
		set := Sample(mesh, opts)

		if set.Len() > limit {
			t.Errorf("cap %d: got %d points", limit, set.Len())
		}
		want := min(limit, unbounded.Len())
		if set.Len() != want {
			t.Errorf("cap %d: got %d points, want %d", limit, set.Len(), want)
		}
		if set.Stats.Truncated != (limit < unbounded.Len()) {
			t.Errorf("cap %d: truncated = %v", limit, set.Stats.Truncated)
		}
		// Truncation drops from the end of the emission order.
		if !reflect.DeepEqual(set.Refs, unbounded.Refs[:set.Len()]) {
			t.Errorf("cap %d: truncated set is not a prefix of the full set", limit)
		}
		if len(set.Directions) != set.Len() {
			t.Errorf("cap %d: %d directions for %d refs", limit, len(set.Directions), set.Len())
		}
	}
}

func TestSampleDensity(t *testing.T) {
	opts := testOptions()
	opts.Density = 2
	set := Sample(quadMesh(), opts)

	// vertices 0 and 2, then face 0 only
	if set.Stats.Vertices != 2 {
		t.Errorf("vertices = %d, want 2", set.Stats.Vertices)
	}
	if set.Stats.FaceCenters != 1 {
		t.Errorf("face centers = %d, want 1", set.Stats.FaceCenters)
	}
	if set.Len() != 18 {
		t.Errorf("total = %d, want 18", set.Len())
	}
}

func TestSampleNoFaces(t *testing.T) {
	mesh := rig.NewMesh("cloud", []math.Vec3{{}, {X: 1}, {X: 2}}, nil)
	set := Sample(mesh, testOptions())

	if set.Len() != 3 || set.Stats.Vertices != 3 {
		t.Errorf("expected vertex-only sampling, got %+v", set.Stats)
	}
}

func TestSampleDegenerateFace(t *testing.T) {
	mesh := rig.NewMesh("line", []math.Vec3{{}, {X: 1}, {X: 2}}, []uint32{0, 1, 2})
	set := Sample(mesh, testOptions())

	if set.Stats.FaceCenters != 1 || set.Stats.Interior != 0 || set.Stats.Edges != 0 {
		t.Errorf("degenerate face should give a center only, got %+v", set.Stats)
	}
}

func TestSampleLargeFace(t *testing.T) {
	mesh := rig.NewMesh("mixed", []math.Vec3{
		{X: 0, Y: 0}, {X: 20, Y: 0}, {X: 0, Y: 10}, // area 100
		{X: 100, Y: 0}, {X: 101, Y: 0}, {X: 100, Y: 2}, // area 1
		{X: 200, Y: 0}, {X: 201, Y: 0}, {X: 200, Y: 2}, // area 1
	}, []uint32{0, 1, 2, 3, 4, 5, 6, 7, 8})
	set := Sample(mesh, testOptions())

	if set.Stats.LargeFaces != 1 {
		t.Fatalf("large faces = %d, want 1", set.Stats.LargeFaces)
	}
	if gomath.Abs(set.Stats.MeanArea-34) > 1e-6 || gomath.Abs(set.Stats.MaxAreaRatio-100.0/34) > 1e-6 {
		t.Errorf("area stats = mean %v max ratio %v, want 34 and %v",
			set.Stats.MeanArea, set.Stats.MaxAreaRatio, 100.0/34)
	}
	// avg = 34, n = min(10, ceil(100/34)+3) = 6: 28 grid points less 3 corners.
	wantInterior := 25 + 2*6
	if set.Stats.Interior != wantInterior {
		t.Errorf("interior = %d, want %d", set.Stats.Interior, wantInterior)
	}
	wantEdges := 3*9 + 2*3*3
	if set.Stats.Edges != wantEdges {
		t.Errorf("edges = %d, want %d", set.Stats.Edges, wantEdges)
	}
	if set.Len() != 9+3+wantInterior+wantEdges {
		t.Errorf("total = %d, want %d", set.Len(), 9+3+wantInterior+wantEdges)
	}

	for _, r := range set.Refs {
		if r.Kind != KindInterior {
			continue
		}
		sum := r.Bary[0] + r.Bary[1] + r.Bary[2]
		if gomath.Abs(float64(sum-1)) > 1e-5 {
			t.Fatalf("barycentric weights %v do not sum to 1", r.Bary)
		}
		for _, w := range r.Bary {
			if w == 1 {
				t.Fatalf("grid emitted a corner point %v", r.Bary)
			}
		}
	}
}

func TestSubdivisionClamp(t *testing.T) {
	opts := testOptions()
	if got := subdivisions(1000, opts); got != 10 {
		t.Errorf("subdivisions of a huge face = %d, want 10", got)
	}
	if got := subdivisions(2.5, opts); got != 6 {
		t.Errorf("subdivisions(2.5) = %d, want 6", got)
	}
}

func TestAreaRatios(t *testing.T) {
	tests := []struct {
		name  string
		areas []float64
		want  []float64
	}{
		{"uniform", []float64{2, 2, 2}, []float64{1, 1, 1}},
		{"one large", []float64{1, 1, 4}, []float64{0.5, 0.5, 2}},
		{"no area", []float64{0, 0}, []float64{0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := areaRatios(tt.areas); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("areaRatios(%v) = %v, want %v", tt.areas, got, tt.want)
			}
		})
	}
}

func TestSampleBonePoints(t *testing.T) {
	mesh, _ := rig.NewCreature(rig.DefaultCreatureOptions())
	set := Sample(mesh, testOptions())

	// tail_base, tail_mid and tail_tip each get 20 points
	if set.Stats.BonePoints != 60 {
		t.Fatalf("bone points = %d, want 60", set.Stats.BonePoints)
	}
	tail := set.Refs[set.Len()-60:]
	for i, r := range tail {
		if r.Kind != KindBonePoint {
			t.Fatalf("ref %d is %v, bone points must come last", i, r.Kind)
		}
		if r.Parent != mesh.Skeleton.Bones[r.Bone].Parent {
			t.Errorf("bone point %d parent = %d, want %d", i, r.Parent, mesh.Skeleton.Bones[r.Bone].Parent)
		}
		if r.T < 0 || r.T >= 1 {
			t.Errorf("bone point %d t = %v out of [0, 1)", i, r.T)
		}
	}

	opts := testOptions()
	opts.FillGapBones = nil
	if got := Sample(mesh, opts).Stats.BonePoints; got != 0 {
		t.Errorf("no fill-gap names should give no bone points, got %d", got)
	}
}

func TestDisperseDirectionsAreUnit(t *testing.T) {
	for i, d := range disperseDirections(200, 3) {
		if l := d.Length(); gomath.Abs(float64(l-1)) > 1e-4 {
			t.Fatalf("direction %d has length %v", i, l)
		}
	}
}

func TestKindString(t *testing.T) {
	if KindInterior.String() != "interior" {
		t.Errorf("KindInterior.String() = %q", KindInterior.String())
	}
	if Kind(99).String() != "Kind(99)" {
		t.Errorf("unknown kind string = %q", Kind(99).String())
	}
}

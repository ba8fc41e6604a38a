package instances

import (
	gomath "math"
	"testing"

	"github.com/Faultbox/glyphcloud/internal/effects"
	"github.com/Faultbox/glyphcloud/internal/pointcloud"
	"github.com/Faultbox/glyphcloud/internal/rig"
	"github.com/Faultbox/glyphcloud/internal/skin"
	"github.com/Faultbox/glyphcloud/pkg/math"
)

func near(a, b math.Vec3) bool {
	return a.Distance(b) < 1e-4
}

func setup() (*Updater, *effects.Engine, *pointcloud.SampleSet) {
	mesh := rig.NewMesh("tri", []math.Vec3{
		{X: 0, Y: 0, Z: 0},
		{X: 2, Y: 0, Z: 0},
		{X: 0, Y: 3, Z: 0},
	}, []uint32{0, 1, 2})
	mesh.Normals = []math.Vec3{{Y: 1}, {Y: 1}, {Y: 1}}
	mesh.World = math.Translate(0, 0, 1)

	set := &pointcloud.SampleSet{
		Refs: []pointcloud.Ref{
			pointcloud.Vertex(0),
			pointcloud.Vertex(1),
			pointcloud.Vertex(2),
			pointcloud.FaceCenter(0, 1, 2),
		},
		Directions: []math.Vec3{{X: 1}, {Y: 1}, {Z: 1}, {X: -1}},
		Density:    1,
	}
	engine := effects.New(effects.DefaultOptions())
	return New(skin.New(mesh), engine), engine, set
}

func TestUpdateAllRestPositions(t *testing.T) {
	u, _, set := setup()
	slots := u.UpdateAll(set, 0)
	if len(slots) != set.Len() {
		t.Fatalf("slots = %d, want %d", len(slots), set.Len())
	}
	want := []math.Vec3{{Z: 1}, {X: 2, Z: 1}, {Y: 3, Z: 1}, {X: 2.0 / 3, Y: 1, Z: 1}}
	for i, s := range slots {
		if !near(s.Position, want[i]) {
			t.Errorf("slot %d at %v, want %v", i, s.Position, want[i])
		}
		if s.Scale != 1 {
			t.Errorf("slot %d scale %v, want 1", i, s.Scale)
		}
	}
}

func TestUpdateAllSetsBounds(t *testing.T) {
	u, engine, set := setup()
	u.UpdateAll(set, 0)
	lo, hi := engine.Bounds()
	if !near(lo, math.Vec3{Z: 1}) || !near(hi, math.Vec3{X: 2, Y: 3, Z: 1}) {
		t.Errorf("bounds = %v..%v", lo, hi)
	}
}

func TestUpdateAllAddsDisplacement(t *testing.T) {
	u, engine, set := setup()
	engine.SetParams(effects.Spiral, effects.Params{Intensity: 10, Speed: 1, Waves: 5})
	engine.Activate(effects.Spiral)

	slots := u.UpdateAll(set, 0)
	for i, s := range slots {
		phase := effects.Phase(i)
		want := u.base[i].Add(math.Vec3{
			X: float32(5 * gomath.Cos(phase)),
			Z: float32(5 * gomath.Sin(phase)),
		})
		if !near(s.Position, want) {
			t.Errorf("slot %d at %v, want %v", i, s.Position, want)
		}
	}
}

func TestUpdateAllUsesDisperseDirections(t *testing.T) {
	u, engine, set := setup()
	engine.Activate(effects.Disperse)
	for range 100 {
		engine.Advance(0.1)
	}
	slots := u.UpdateAll(set, 0)
	scale := engine.DisperseAmount() * engine.Options().DisperseScale
	for i, s := range slots {
		want := u.base[i].Add(set.Directions[i].Scale(scale))
		if !near(s.Position, want) {
			t.Errorf("slot %d at %v, want %v", i, s.Position, want)
		}
	}
}

func TestBillboardYawOnly(t *testing.T) {
	tests := []struct {
		name  string
		view  math.Vec3
		front math.Vec3
	}{
		{"looking down -Z", math.Vec3{Z: -1}, math.Vec3{Z: 1}},
		{"looking down -X", math.Vec3{X: -1}, math.Vec3{X: 1}},
		{"pitched", math.Vec3{X: -1, Y: -1}, math.Vec3{X: 1}},
		{"looking down +Z", math.Vec3{Z: 1}, math.Vec3{Z: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, _, set := setup()
			u.SetViewDirection(tt.view)
			slots := u.UpdateAll(set, 0)
			for i, s := range slots {
				if got := s.Rotation.Rotate(Front); !near(got, tt.front) {
					t.Errorf("slot %d faces %v, want %v", i, got, tt.front)
				}
				if got := s.Rotation.Rotate(math.Up); !near(got, math.Up) {
					t.Errorf("slot %d tilted: up = %v", i, got)
				}
			}
		})
	}
}

func TestVerticalViewKeepsYaw(t *testing.T) {
	u, _, set := setup()
	u.SetViewDirection(math.Vec3{X: -1})
	u.SetViewDirection(math.Vec3{Y: -1})
	slots := u.UpdateAll(set, 0)
	if got := slots[0].Rotation.Rotate(Front); !near(got, math.Vec3{X: 1}) {
		t.Errorf("vertical view reset yaw: front = %v", got)
	}
}

func TestSurfaceOrientation(t *testing.T) {
	u, _, set := setup()
	u.SetPolicy(Surface)
	slots := u.UpdateAll(set, 0)

	for i := 0; i < 3; i++ {
		if got := slots[i].Rotation.Rotate(Front); !near(got, math.Vec3{Y: 1}) {
			t.Errorf("vertex slot %d faces %v, want the normal", i, got)
		}
	}
	if slots[3].Rotation != math.QuatIdentity() {
		t.Errorf("face center rotation = %v, want identity", slots[3].Rotation)
	}
}

func TestEmptySet(t *testing.T) {
	u, _, _ := setup()
	if got := u.UpdateAll(nil, 1); len(got) != 0 {
		t.Errorf("nil set produced %d slots", len(got))
	}
	if got := u.UpdateAll(&pointcloud.SampleSet{}, 1); len(got) != 0 {
		t.Errorf("empty set produced %d slots", len(got))
	}
}

func TestMatrices(t *testing.T) {
	u, _, set := setup()
	u.UpdateAll(set, 0)
	m := u.Matrices(nil, 0.5)
	if len(m) != set.Len() {
		t.Fatalf("matrices = %d", len(m))
	}
	if got := m[1].Translation(); !near(got, math.Vec3{X: 2, Z: 1}) {
		t.Errorf("translation = %v", got)
	}
	if got := m[1].TransformDirection(math.Vec3{Y: 1}); !near(got, math.Vec3{Y: 0.5}) {
		t.Errorf("scaled up axis = %v, want (0, 0.5, 0)", got)
	}
}

func TestParsePolicy(t *testing.T) {
	for _, name := range []string{"billboard", "surface"} {
		p, err := ParsePolicy(name)
		if err != nil || p.String() != name {
			t.Errorf("ParsePolicy(%q) = %v, %v", name, p, err)
		}
	}
	if _, err := ParsePolicy("sideways"); err == nil {
		t.Error("expected error for unknown orientation")
	}
}

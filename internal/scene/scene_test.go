package scene

import (
	"errors"
	"testing"

	"github.com/Faultbox/glyphcloud/internal/config"
	"github.com/Faultbox/glyphcloud/internal/effects"
	"github.com/Faultbox/glyphcloud/internal/instances"
	"github.com/Faultbox/glyphcloud/internal/rig"
	"github.com/Faultbox/glyphcloud/pkg/math"
)

const dt = 1.0 / 60

func newScene(t *testing.T) *Scene {
	t.Helper()
	mesh, clip := rig.NewCreature(rig.CreatureOptions{Rings: 8, Segments: 6})
	s, err := New(config.Default(), mesh, clip)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	mesh, clip := rig.NewCreature(rig.DefaultCreatureOptions())

	tests := []struct {
		name   string
		modify func(*config.Config)
		want   error
	}{
		{"zero density", func(c *config.Config) { c.Sampling.Density = 0 }, config.ErrInvalidDensity},
		{"negative max", func(c *config.Config) { c.Sampling.MaxCharacters = -1 }, config.ErrInvalidMaxCharacters},
		{"bad orientation", func(c *config.Config) { c.Render.Orientation = "up" }, config.ErrInvalidOrientation},
		{"unknown gentle", func(c *config.Config) { c.Chaos.Gentle = []string{"sparkle"} }, effects.ErrUnknownEffect},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.modify(cfg)
			if _, err := New(cfg, mesh, clip); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := New(config.Default(), nil, nil); !errors.Is(err, ErrNoMesh) {
		t.Errorf("nil mesh err = %v", err)
	}
}

func TestUpdateWritesEverySlot(t *testing.T) {
	s := newScene(t)
	n := s.Samples().Len()
	if n == 0 {
		t.Fatal("empty sample set")
	}
	for range 5 {
		if got := len(s.Update(dt)); got != n {
			t.Fatalf("slots = %d, want %d", got, n)
		}
	}
	if s.Frame() != 5 {
		t.Errorf("frame = %d, want 5", s.Frame())
	}
	if m := s.Matrices(nil); len(m) != n {
		t.Errorf("matrices = %d, want %d", len(m), n)
	}
}

func TestAnimationMovesPoints(t *testing.T) {
	s := newScene(t)
	first := append([]instances.Transform(nil), s.Update(dt)...)
	var later []instances.Transform
	for range 30 {
		later = s.Update(dt)
	}
	moved := 0
	for i := range first {
		if first[i].Position.Distance(later[i].Position) > 1e-4 {
			moved++
		}
	}
	if moved == 0 {
		t.Error("idle clip did not move any point")
	}
}

func TestSetDensity(t *testing.T) {
	s := newScene(t)
	before := s.Samples()

	if err := s.SetDensity(0); !errors.Is(err, config.ErrInvalidDensity) {
		t.Fatalf("SetDensity(0) err = %v", err)
	}
	if s.Samples() != before {
		t.Fatal("rejected density replaced the sample set")
	}

	if err := s.SetDensity(2); err != nil {
		t.Fatal(err)
	}
	after := s.Samples()
	if after == before {
		t.Fatal("density change did not swap the sample set")
	}
	if after.Len() >= before.Len() {
		t.Errorf("density 2 has %d points, density 1 had %d", after.Len(), before.Len())
	}
	if len(after.Directions) != after.Len() {
		t.Errorf("directions %d out of step with refs %d", len(after.Directions), after.Len())
	}
	if got := len(s.Update(dt)); got != after.Len() {
		t.Errorf("slots = %d after resample, want %d", got, after.Len())
	}
}

func TestGlyphChanges(t *testing.T) {
	s := newScene(t)
	before := s.Samples()

	s.SetGlyph("*")
	if s.Glyph() != "*" || s.Samples() != before {
		t.Error("glyph identity change should keep the sample set")
	}

	if err := s.SetGlyphSize(-1); !errors.Is(err, config.ErrInvalidGlyphSize) {
		t.Errorf("SetGlyphSize(-1) err = %v", err)
	}
	if err := s.SetGlyphSize(0.3); err != nil {
		t.Fatal(err)
	}
	if s.Samples() == before {
		t.Error("glyph size change should regenerate the sample set")
	}
	if s.Samples().Len() != before.Len() {
		t.Error("same mesh and density produced a different point count")
	}
}

func TestControlSurfaceErrors(t *testing.T) {
	s := newScene(t)
	if err := s.Activate("sparkle"); !errors.Is(err, effects.ErrUnknownEffect) {
		t.Errorf("Activate err = %v", err)
	}
	if _, err := s.Toggle("sparkle"); !errors.Is(err, effects.ErrUnknownEffect) {
		t.Errorf("Toggle err = %v", err)
	}
	if _, err := s.ToggleFocused(); !errors.Is(err, effects.ErrNoFocus) {
		t.Errorf("ToggleFocused err = %v", err)
	}
	if err := s.SetParam("intensity", 2); !errors.Is(err, effects.ErrNoFocus) {
		t.Errorf("SetParam err = %v", err)
	}
	if err := s.SetOrientation("sideways"); !errors.Is(err, config.ErrInvalidOrientation) {
		t.Errorf("SetOrientation err = %v", err)
	}
}

func TestSelectAndEdit(t *testing.T) {
	s := newScene(t)
	if err := s.Activate("wave"); err != nil {
		t.Fatal(err)
	}
	if err := s.Select("wave"); err != nil {
		t.Fatal(err)
	}
	if err := s.Select("wave"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetParam("speed", 3); err != nil {
		t.Fatal(err)
	}
	s.Update(dt)

	if v, _ := s.GetParam("speed"); v != 3 {
		t.Errorf("speed = %v, want 3", v)
	}
	snap := s.Snapshot()
	if snap.Effects.Focus != "wave" || !snap.Effects.Editing {
		t.Errorf("focus %q editing %v", snap.Effects.Focus, snap.Effects.Editing)
	}
}

func TestManualCommandBeatsChaos(t *testing.T) {
	s := newScene(t)
	s.StartChaos()
	s.Update(dt)

	if err := s.Activate("noise"); err != nil {
		t.Fatal(err)
	}
	if err := s.Select("noise"); err != nil {
		t.Fatal(err)
	}
	if err := s.Select("noise"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetParam("intensity", 7); err != nil {
		t.Fatal(err)
	}
	s.Update(dt)

	if v, _ := s.GetParam("intensity"); v != 7 {
		t.Errorf("intensity = %v after chaos tick, want 7", v)
	}
}

func TestChaosSession(t *testing.T) {
	s := newScene(t)
	s.StartChaos()
	if !s.ChaosRunning() {
		t.Fatal("chaos not running")
	}
	if len(s.Snapshot().Effects.ActiveNames()) != 1 {
		t.Fatal("chaos start should activate exactly one effect")
	}

	prev := float32(0)
	for range 60 * 60 {
		s.Update(dt)
		snap := s.Snapshot()
		if n := len(snap.Effects.ActiveNames()); n > 3 {
			t.Fatalf("%d effects active", n)
		}
		if snap.Chaos.Entropy < prev || snap.Chaos.Entropy > 1 {
			t.Fatalf("entropy %v after %v", snap.Chaos.Entropy, prev)
		}
		prev = snap.Chaos.Entropy
	}

	s.StopChaos()
	if !s.Snapshot().Effects.Returning {
		t.Fatal("stopping chaos did not start the fade")
	}
	for range 600 {
		s.Update(dt)
	}
	snap := s.Snapshot()
	if snap.Effects.Returning || len(snap.Effects.ActiveNames()) != 0 {
		t.Errorf("fade did not finish: returning %v active %v", snap.Effects.Returning, snap.Effects.ActiveNames())
	}
}

func TestStopAll(t *testing.T) {
	s := newScene(t)
	s.StartChaos()
	for range 120 {
		s.Update(dt)
	}
	s.StopAll()
	snap := s.Snapshot()
	if snap.Chaos.Running || snap.Effects.Returning || len(snap.Effects.ActiveNames()) != 0 {
		t.Errorf("stop all left state behind: %+v", snap.Effects)
	}
	if snap.Effects.DisperseAmount != 0 || snap.Effects.FlowProgress != 0 {
		t.Error("transients not zeroed")
	}
}

func TestReturnSettles(t *testing.T) {
	s := newScene(t)
	if err := s.Activate("disperse"); err != nil {
		t.Fatal(err)
	}
	for range 60 {
		s.Update(dt)
	}
	s.Return()
	for range 600 {
		s.Update(dt)
	}
	base := s.Snapshot()
	if base.Effects.Returning || base.Effects.DisperseAmount != 0 {
		t.Errorf("return did not settle: %+v", base.Effects)
	}
}

func TestReturnDuringChaosReachesRest(t *testing.T) {
	s := newScene(t)
	s.StartChaos()
	for range 10 * 60 {
		s.Update(dt)
	}

	// editing the focused effect puts chaos modulation on the live panel
	focus := s.Snapshot().Effects.Focus
	if focus == "" {
		t.Fatal("chaos left nothing focused")
	}
	for range 2 {
		if err := s.Select(focus); err != nil {
			t.Fatal(err)
		}
	}

	s.Return()
	if s.ChaosRunning() {
		t.Fatal("return left chaos running")
	}
	for range 50 * 60 {
		s.Update(dt)
	}
	snap := s.Snapshot()
	if snap.Chaos.Running || snap.Effects.Returning || len(snap.Effects.ActiveNames()) != 0 {
		t.Errorf("return during chaos did not reach rest: chaos %v returning %v active %v",
			snap.Chaos.Running, snap.Effects.Returning, snap.Effects.ActiveNames())
	}
	if snap.Effects.Live.Intensity != effects.DefaultOptions().DefaultIntensity {
		t.Errorf("live intensity = %v, want reset to default", snap.Effects.Live.Intensity)
	}
}

func TestOrientationSwitch(t *testing.T) {
	s := newScene(t)
	if err := s.SetOrientation("surface"); err != nil {
		t.Fatal(err)
	}
	if s.Orientation() != instances.Surface {
		t.Fatal("orientation not applied")
	}
	s.SetViewDirection(math.Vec3{X: -1})
	slots := s.Update(dt)
	// The first ref is a vertex with a normal, so its front follows the surface.
	n, ok := s.eval.ResolveNormal(s.Samples().Refs[0])
	if !ok {
		t.Fatal("creature vertex has no normal")
	}
	if got := slots[0].Rotation.Rotate(instances.Front); got.Distance(n) > 1e-3 {
		t.Errorf("front = %v, want normal %v", got, n)
	}
	if s.Config().Render.Orientation != "surface" {
		t.Error("config not updated")
	}
}

func TestTelemetryRow(t *testing.T) {
	s := newScene(t)
	s.StartChaos()
	for range 90 {
		s.Update(dt)
	}
	row := s.TelemetryRow()
	if row.Frame != 90 || row.Instances != s.Samples().Len() {
		t.Errorf("row = %+v", row)
	}
	// 1.5 s in: events fired at 0.5 s and 1.0 s, the next is due at 2.0 s.
	if row.Entropy <= 0 || row.ChaosEvents != 2 {
		t.Errorf("chaos columns = entropy %v events %d", row.Entropy, row.ChaosEvents)
	}
}

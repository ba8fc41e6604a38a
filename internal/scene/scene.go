// Package scene runs the per-frame pipeline and exposes the control surface
// the viewer and tools drive it through.
package scene

import (
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Faultbox/glyphcloud/internal/chaos"
	"github.com/Faultbox/glyphcloud/internal/config"
	"github.com/Faultbox/glyphcloud/internal/effects"
	"github.com/Faultbox/glyphcloud/internal/instances"
	"github.com/Faultbox/glyphcloud/internal/logger"
	"github.com/Faultbox/glyphcloud/internal/pointcloud"
	"github.com/Faultbox/glyphcloud/internal/rig"
	"github.com/Faultbox/glyphcloud/internal/skin"
	"github.com/Faultbox/glyphcloud/internal/telemetry"
	"github.com/Faultbox/glyphcloud/pkg/math"
)

// ErrNoMesh is returned by New without a mesh.
var ErrNoMesh = errors.New("scene needs a mesh")

// Scene owns one animated mesh and everything that turns it into glyphs.
type Scene struct {
	cfg config.Config
	log *zap.Logger

	mesh     *rig.Mesh
	animator *rig.Animator
	eval     *skin.Evaluator

	samples    atomic.Pointer[pointcloud.SampleSet]
	sampleOpts pointcloud.Options

	engine  *effects.Engine
	chaos   *chaos.Driver
	updater *instances.Updater

	glyph     string
	glyphSize float32

	frame   int
	elapsed float32
}

// New validates cfg and builds a scene for mesh. clip may be nil.
func New(cfg *config.Config, mesh *rig.Mesh, clip *rig.Clip) (*Scene, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if mesh == nil {
		return nil, ErrNoMesh
	}
	chaosOpts, err := chaos.OptionsFromConfig(cfg.Chaos)
	if err != nil {
		return nil, err
	}
	policy, err := instances.ParsePolicy(cfg.Render.Orientation)
	if err != nil {
		return nil, err
	}

	s := &Scene{
		cfg:        *cfg,
		log:        logger.Named(logger.Scene),
		sampleOpts: pointcloud.OptionsFromConfig(cfg.Sampling),
		engine:     effects.New(effects.OptionsFromConfig(cfg.Effects)),
		glyph:      cfg.Render.Glyph,
		glyphSize:  cfg.Render.GlyphSize,
	}
	s.chaos = chaos.New(s.engine, chaosOpts)
	s.updater = instances.New(nil, s.engine)
	s.updater.SetPolicy(policy)
	s.SetMesh(mesh, clip)
	return s, nil
}

// SetMesh swaps the active mesh and resamples it.
func (s *Scene) SetMesh(mesh *rig.Mesh, clip *rig.Clip) {
	s.mesh = mesh
	s.animator = rig.NewAnimator(mesh.Skeleton)
	s.animator.Play(clip)
	s.eval = skin.New(mesh)
	s.updater.SetEvaluator(s.eval)
	s.resample("mesh")
}

// resample regenerates the sample set and swaps it in whole, so positions
// and per-instance directions always come from the same set.
func (s *Scene) resample(reason string) {
	set := pointcloud.Sample(s.mesh, s.sampleOpts)
	s.samples.Store(set)
	s.log.Info("resampled",
		zap.String("reason", reason),
		logger.Frame(s.frame),
		zap.String("mesh", s.mesh.Name),
		zap.Int("density", set.Density),
		zap.Int("points", set.Len()),
		zap.Int("large_faces", set.Stats.LargeFaces),
		zap.Float64("max_area_ratio", set.Stats.MaxAreaRatio),
		zap.Int("bone_points", set.Stats.BonePoints),
		zap.Bool("truncated", set.Stats.Truncated))
}

// Update runs one frame: pose, chaos, effect animators, instance transforms.
// Manual commands issued since the previous Update take precedence over
// chaos in this frame.
func (s *Scene) Update(dt float32) []instances.Transform {
	s.animator.Update(dt)
	s.eval.BeginFrame()

	s.chaos.Tick(dt)
	s.engine.Advance(dt)

	s.elapsed += dt
	slots := s.updater.UpdateAll(s.samples.Load(), s.elapsed)

	s.engine.EndFrame()
	s.frame++
	return slots
}

// SetViewDirection feeds the camera forward vector to billboarding.
func (s *Scene) SetViewDirection(dir math.Vec3) {
	s.updater.SetViewDirection(dir)
}

// Samples returns the current sample set.
func (s *Scene) Samples() *pointcloud.SampleSet {
	return s.samples.Load()
}

// Transforms returns the slots written by the last Update.
func (s *Scene) Transforms() []instances.Transform {
	return s.updater.Transforms()
}

// Matrices fills dst with one model matrix per instance at the glyph size.
func (s *Scene) Matrices(dst []math.Mat4) []math.Mat4 {
	return s.updater.Matrices(dst, s.glyphSize)
}

// Mesh returns the active mesh.
func (s *Scene) Mesh() *rig.Mesh {
	return s.mesh
}

// Engine exposes the effect engine for read-mostly collaborators.
func (s *Scene) Engine() *effects.Engine {
	return s.engine
}

// Visual returns the current glow and fill colour.
func (s *Scene) Visual() effects.Visual {
	return s.engine.Visual()
}

// Glyph returns the glyph drawn at every instance.
func (s *Scene) Glyph() string {
	return s.glyph
}

// GlyphSize returns the glyph size in world units.
func (s *Scene) GlyphSize() float32 {
	return s.glyphSize
}

// Frame returns the number of completed updates.
func (s *Scene) Frame() int {
	return s.frame
}

// Elapsed returns the scene time in seconds.
func (s *Scene) Elapsed() float32 {
	return s.elapsed
}

// Bounds returns the extent of the last frame's base positions.
func (s *Scene) Bounds() (lo, hi math.Vec3) {
	return s.engine.Bounds()
}

// TelemetryRow captures the current frame for the recorder.
func (s *Scene) TelemetryRow() telemetry.Row {
	row := telemetry.NewRow(s.frame, s.elapsed, s.engine.Snapshot())
	row.Instances = s.samples.Load().Len()
	row.Entropy = s.chaos.Entropy()
	row.ChaosEvents = s.chaos.Events()
	return row
}

package scene

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/glyphcloud/internal/config"
	"github.com/Faultbox/glyphcloud/internal/effects"
	"github.com/Faultbox/glyphcloud/internal/instances"
	"github.com/Faultbox/glyphcloud/internal/pointcloud"
)

// Every command below is manual: it marks what it changed so the chaos
// driver leaves it alone for the rest of the frame.

// Activate turns the named effect on.
func (s *Scene) Activate(name string) error {
	id, err := effects.Lookup(name)
	if err != nil {
		return err
	}
	s.engine.Activate(id)
	s.engine.Touch(id)
	return nil
}

// Deactivate turns the named effect off.
func (s *Scene) Deactivate(name string) error {
	id, err := effects.Lookup(name)
	if err != nil {
		return err
	}
	s.engine.Deactivate(id)
	s.engine.Touch(id)
	return nil
}

// Toggle flips the named effect and reports whether it is now on.
func (s *Scene) Toggle(name string) (bool, error) {
	id, err := effects.Lookup(name)
	if err != nil {
		return false, err
	}
	s.engine.Touch(id)
	return s.engine.Toggle(id), nil
}

// ToggleFocused flips the focused effect.
func (s *Scene) ToggleFocused() (bool, error) {
	id, _ := s.engine.Focused()
	if !id.Valid() {
		return false, effects.ErrNoFocus
	}
	s.engine.Touch(id)
	return s.engine.Toggle(id), nil
}

// Select focuses the named effect; selecting the focused active effect again
// opens its parameters for editing.
func (s *Scene) Select(name string) error {
	id, err := effects.Lookup(name)
	if err != nil {
		return err
	}
	s.engine.Select(id)
	s.engine.Touch(id)
	return nil
}

// SetParam edits a parameter of the focused effect.
func (s *Scene) SetParam(param string, v float32) error {
	id, _ := s.engine.Focused()
	if err := s.engine.SetParam(param, v); err != nil {
		return err
	}
	s.engine.Touch(id)
	return nil
}

// GetParam reads a parameter of the focused effect.
func (s *Scene) GetParam(param string) (float32, error) {
	return s.engine.GetParam(param)
}

// Return starts the fade back to rest. A running chaos driver is stopped,
// which hands it the same fade, so it cannot reactivate effects mid-fade.
func (s *Scene) Return() {
	if s.chaos.Running() {
		s.chaos.Stop()
	} else {
		s.engine.BeginReturn()
	}
	s.engine.TouchGlobal()
}

// StopAll turns everything off at once. A running chaos driver is stopped
// first so it cannot restart effects.
func (s *Scene) StopAll() {
	if s.chaos.Running() {
		s.chaos.Stop()
	}
	s.engine.StopAll()
	s.engine.TouchGlobal()
}

// StartChaos starts the autonomous driver.
func (s *Scene) StartChaos() {
	s.chaos.Start()
}

// StopChaos stops the driver and lets the engine fade to rest.
func (s *Scene) StopChaos() {
	s.chaos.Stop()
	s.engine.TouchGlobal()
}

// ChaosRunning reports whether the driver is running.
func (s *Scene) ChaosRunning() bool {
	return s.chaos.Running()
}

// SetDensity changes the sampling density and resamples. Non-positive values
// are rejected and leave the current set in place.
func (s *Scene) SetDensity(density int) error {
	if density <= 0 {
		return fmt.Errorf("%w: got %d", config.ErrInvalidDensity, density)
	}
	if density == s.sampleOpts.Density {
		return nil
	}
	s.sampleOpts.Density = density
	s.cfg.Sampling.Density = density
	s.resample("density")
	return nil
}

// Density returns the sampling density.
func (s *Scene) Density() int {
	return s.sampleOpts.Density
}

// SetGlyph changes the glyph drawn at every instance. The sample set is kept.
func (s *Scene) SetGlyph(glyph string) {
	if glyph == "" || glyph == s.glyph {
		return
	}
	s.glyph = glyph
	s.cfg.Render.Glyph = glyph
	s.log.Info("glyph changed", zap.String("glyph", glyph))
}

// SetGlyphSize changes the glyph size and regenerates the sample set.
func (s *Scene) SetGlyphSize(size float32) error {
	if size <= 0 {
		return fmt.Errorf("%w: got %g", config.ErrInvalidGlyphSize, size)
	}
	if size == s.glyphSize {
		return nil
	}
	s.glyphSize = size
	s.cfg.Render.GlyphSize = size
	s.resample("glyph size")
	return nil
}

// SetOrientation selects "billboard" or "surface".
func (s *Scene) SetOrientation(name string) error {
	p, err := instances.ParsePolicy(name)
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrInvalidOrientation, err)
	}
	s.updater.SetPolicy(p)
	s.cfg.Render.Orientation = p.String()
	return nil
}

// Orientation returns the active orientation policy.
func (s *Scene) Orientation() instances.Policy {
	return s.updater.Policy()
}

// ChaosState is the driver part of a Snapshot.
type ChaosState struct {
	Running bool
	Entropy float32
	Elapsed float32
	Events  int
}

// Snapshot is an immutable view of the scene for a control panel.
type Snapshot struct {
	Effects     effects.Snapshot
	Chaos       ChaosState
	Frame       int
	Elapsed     float32
	Instances   int
	Density     int
	Stats       pointcloud.Stats
	Glyph       string
	GlyphSize   float32
	Orientation string
}

// Snapshot captures the current state.
func (s *Scene) Snapshot() Snapshot {
	set := s.samples.Load()
	return Snapshot{
		Effects: s.engine.Snapshot(),
		Chaos: ChaosState{
			Running: s.chaos.Running(),
			Entropy: s.chaos.Entropy(),
			Elapsed: s.chaos.Elapsed(),
			Events:  s.chaos.Events(),
		},
		Frame:       s.frame,
		Elapsed:     s.elapsed,
		Instances:   set.Len(),
		Density:     set.Density,
		Stats:       set.Stats,
		Glyph:       s.glyph,
		GlyphSize:   s.glyphSize,
		Orientation: s.updater.Policy().String(),
	}
}

// Config returns the scene's live settings, including changes made through
// the control surface.
func (s *Scene) Config() config.Config {
	return s.cfg
}

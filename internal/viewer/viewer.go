// Package viewer runs the interactive window: input, scene update, render.
package viewer

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/glyphcloud/internal/config"
	"github.com/Faultbox/glyphcloud/internal/effects"
	"github.com/Faultbox/glyphcloud/internal/engine/camera"
	"github.com/Faultbox/glyphcloud/internal/engine/input"
	"github.com/Faultbox/glyphcloud/internal/engine/renderer"
	"github.com/Faultbox/glyphcloud/internal/engine/window"
	"github.com/Faultbox/glyphcloud/internal/instances"
	"github.com/Faultbox/glyphcloud/internal/logger"
	"github.com/Faultbox/glyphcloud/internal/scene"
	"github.com/Faultbox/glyphcloud/internal/telemetry"
	"github.com/Faultbox/glyphcloud/pkg/math"
)

const (
	title = "glyphcloud"

	// maxFrameTime caps dt so a stalled frame does not fling the animators.
	maxFrameTime = 0.1

	glyphSizeStep = 1.25
	maxDensity    = 16
)

// Viewer is the interactive front end of a scene.
type Viewer struct {
	log     *zap.Logger
	running bool

	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	camera   *camera.OrbitCamera

	scene    *scene.Scene
	recorder *telemetry.Recorder

	models []math.Mat4
	framed bool
}

// New opens the window and GL renderer for sc. rec may be nil.
func New(cfg *config.Config, sc *scene.Scene, rec *telemetry.Recorder) (*Viewer, error) {
	v := &Viewer{
		log:      logger.Named(logger.Viewer),
		input:    input.New(),
		camera:   camera.NewOrbitCamera(),
		scene:    sc,
		recorder: rec,
	}

	var err error
	v.window, err = window.New(window.ConfigFromRender(title, cfg.Render))
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	w, h := v.window.DrawableSize()
	v.renderer, err = renderer.New(renderer.Config{Width: w, Height: h})
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	v.camera.SetViewport(w, h)

	v.log.Info("viewer initialized",
		zap.Int("instances", sc.Samples().Len()),
		zap.String("glyph", sc.Glyph()))
	return v, nil
}

// Run drives frames until the window closes or Esc is pressed.
func (v *Viewer) Run() error {
	v.running = true
	last := time.Now()
	fpsTimer := last
	frames := 0

	v.log.Info("starting frame loop")
	for v.running {
		now := time.Now()
		dt := float32(min(now.Sub(last).Seconds(), maxFrameTime))
		last = now

		f := v.input.Update()
		if f.Quit {
			break
		}
		if f.Resized {
			w, h := v.window.DrawableSize()
			v.renderer.Resize(w, h)
			v.camera.SetViewport(w, h)
		}
		for _, b := range f.Actions {
			v.apply(b)
		}

		dragged := f.DragX != 0 || f.DragY != 0
		if dragged {
			v.camera.HandleDrag(f.DragX, f.DragY)
		}
		if f.Wheel != 0 {
			v.camera.HandleZoom(f.Wheel)
		}
		v.camera.Update(dt, dragged)

		v.scene.SetViewDirection(v.camera.Forward())
		v.scene.Update(dt)
		if !v.framed {
			v.camera.FitToBounds(v.scene.Bounds())
			v.framed = true
		}

		if v.recorder.Due(v.scene.Frame()) {
			if err := v.recorder.Write(v.scene.TelemetryRow()); err != nil {
				return fmt.Errorf("telemetry: %w", err)
			}
		}

		v.render()
		v.window.SwapBuffers()

		frames++
		if time.Since(fpsTimer) >= time.Second {
			v.window.SetTitle(v.status(frames))
			frames = 0
			fpsTimer = time.Now()
		}
	}
	return nil
}

func (v *Viewer) render() {
	v.models = v.scene.Matrices(v.models)
	v.renderer.Begin()
	v.renderer.DrawGlyphs(v.camera.ViewProjection(), v.models, v.scene.Glyph(), v.scene.Visual())
}

func (v *Viewer) status(fps int) string {
	s := v.scene.Snapshot()
	chaos := "off"
	if s.Chaos.Running {
		chaos = fmt.Sprintf("%.2f", s.Chaos.Entropy)
	}
	focus := s.Effects.Focus
	if focus == "" {
		focus = "-"
	}
	return fmt.Sprintf("%s | %d fps | %d glyphs | density %d | focus %s | active %v | chaos %s",
		title, fps, s.Instances, s.Density, focus, s.Effects.ActiveNames(), chaos)
}

// apply runs one key action against the scene's control surface.
func (v *Viewer) apply(b input.Binding) {
	var err error
	switch b.Action {
	case input.ActionSelect:
		names := effects.Names()
		if b.Slot < len(names) {
			err = v.selectOrActivate(names[b.Slot])
		}
	case input.ActionToggle:
		_, err = v.scene.ToggleFocused()
	case input.ActionChaos:
		if v.scene.ChaosRunning() {
			v.scene.StopChaos()
		} else {
			v.scene.StartChaos()
		}
	case input.ActionReturn:
		v.scene.Return()
	case input.ActionStopAll:
		v.scene.StopAll()
	case input.ActionDensityUp:
		err = v.scene.SetDensity(max(v.scene.Density()-1, 1))
	case input.ActionDensityDown:
		err = v.scene.SetDensity(min(v.scene.Density()+1, maxDensity))
	case input.ActionGlyphBigger:
		err = v.scene.SetGlyphSize(v.scene.GlyphSize() * glyphSizeStep)
	case input.ActionGlyphSmaller:
		err = v.scene.SetGlyphSize(v.scene.GlyphSize() / glyphSizeStep)
	case input.ActionOrientation:
		next := instances.Surface
		if v.scene.Orientation() == instances.Surface {
			next = instances.Billboard
		}
		err = v.scene.SetOrientation(next.String())
	}
	if err != nil && !errors.Is(err, effects.ErrNoFocus) {
		v.log.Warn("command failed", zap.Int("action", int(b.Action)), zap.Error(err))
	}
}

// selectOrActivate makes a number key do the obvious thing: an inactive
// effect is activated and focused, an active one goes through the
// select-then-edit protocol.
func (v *Viewer) selectOrActivate(name string) error {
	active := false
	for _, e := range v.scene.Snapshot().Effects.Effects {
		if e.Name == name {
			active = e.Active
		}
	}
	if !active {
		if err := v.scene.Activate(name); err != nil {
			return err
		}
	}
	return v.scene.Select(name)
}

// Close releases the renderer and window.
func (v *Viewer) Close() {
	v.log.Info("closing viewer")
	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}

package effects

import (
	gomath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/glyphcloud/internal/config"
	"github.com/Faultbox/glyphcloud/internal/logger"
	"github.com/Faultbox/glyphcloud/pkg/math"
)

// Options tune the engine.
type Options struct {
	DefaultIntensity float32
	DefaultSpeed     float32
	DecayRate        float32 // per-tick multiplier while returning
	RestThreshold    float32
	DisperseScale    float32
	DisperseRate     float32
	Waves            int
	FlowRate         float32
}

// OptionsFromConfig maps the effects config section.
func OptionsFromConfig(cfg config.EffectsConfig) Options {
	return Options{
		DefaultIntensity: cfg.DefaultIntensity,
		DefaultSpeed:     cfg.DefaultSpeed,
		DecayRate:        cfg.DecayRate,
		RestThreshold:    cfg.RestThreshold,
		DisperseScale:    cfg.DisperseScale,
		DisperseRate:     cfg.DisperseRate,
		Waves:            cfg.SpiralFlowWaves,
		FlowRate:         cfg.SpiralFlowRate,
	}
}

// DefaultOptions returns the options of config.Default.
func DefaultOptions() Options {
	return OptionsFromConfig(config.Default().Effects)
}

// Instance is what a displacement formula knows about one sample point.
type Instance struct {
	Index int
	Base  math.Vec3 // skinned world position before displacement
	Dir   math.Vec3 // fixed unit disperse direction
}

type effectState struct {
	active bool
	saved  Params
}

// Engine owns all effect state. It is not safe for concurrent use; every
// mutation happens on the frame goroutine.
type Engine struct {
	opts Options
	log  *zap.Logger

	effects [NumEffects]effectState

	// live is the editable panel. It shadows the focused effect's saved
	// params while editing and doubles as the global intensity.
	live    Params
	focus   ID
	editing bool

	disperseAmount float32
	flowProgress   float32
	returning      bool

	boundsMin, boundsMax math.Vec3
	visual               Visual

	touched       [NumEffects]bool
	touchedGlobal bool
}

// New creates an engine at rest with every effect inactive.
func New(opts Options) *Engine {
	e := &Engine{
		opts:   opts,
		log:    logger.Named(logger.Effects),
		focus:  None,
		visual: DefaultVisual(),
	}
	for i := range e.effects {
		e.effects[i].saved = e.defaultParams()
	}
	e.live = e.defaultParams()
	return e
}

func (e *Engine) defaultParams() Params {
	return Params{
		Intensity: e.opts.DefaultIntensity,
		Speed:     e.opts.DefaultSpeed,
		Waves:     e.opts.Waves,
	}
}

// Options returns the engine tuning.
func (e *Engine) Options() Options {
	return e.opts
}

// Activate turns an effect on with its saved parameters. A manual activation
// during a fade cancels the fade.
func (e *Engine) Activate(id ID) {
	if !id.Valid() || e.effects[id].active {
		return
	}
	if e.returning {
		e.CancelReturn()
	}
	e.effects[id].active = true
	e.log.Debug("effect activated", logger.Effect(id))
}

// Deactivate turns an effect off. Its parameters are kept.
func (e *Engine) Deactivate(id ID) {
	if !id.Valid() || !e.effects[id].active {
		return
	}
	e.effects[id].active = false
	e.log.Debug("effect deactivated", logger.Effect(id))
}

// Toggle flips an effect and reports whether it is now active.
func (e *Engine) Toggle(id ID) bool {
	if !id.Valid() {
		return false
	}
	if e.effects[id].active {
		e.Deactivate(id)
	} else {
		e.Activate(id)
	}
	return e.effects[id].active
}

// IsActive reports whether id is active.
func (e *Engine) IsActive(id ID) bool {
	return id.Valid() && e.effects[id].active
}

// ActiveCount returns the number of active effects.
func (e *Engine) ActiveCount() int {
	n := 0
	for i := range e.effects {
		if e.effects[i].active {
			n++
		}
	}
	return n
}

// Focus moves focus to id. The outgoing effect's edited values are persisted
// first. With load the saved params of id are copied into the live panel and
// editing starts; without it the panel is left alone.
func (e *Engine) Focus(id ID, load bool) {
	if e.editing && e.focus.Valid() {
		e.effects[e.focus].saved = e.live
	}
	e.editing = false
	e.focus = None
	if !id.Valid() {
		return
	}
	e.focus = id
	if load {
		e.live = e.effects[id].saved
		e.editing = true
	}
}

// Select is the two-step panel interaction: the first select of an effect
// only focuses it, and a repeat select of the focused, active effect loads
// its parameters for editing.
func (e *Engine) Select(id ID) {
	if !id.Valid() {
		return
	}
	if e.focus == id && e.effects[id].active {
		if !e.editing {
			e.Focus(id, true)
		}
		return
	}
	e.Focus(id, false)
}

// Focused returns the focused effect and whether it is being edited.
func (e *Engine) Focused() (ID, bool) {
	return e.focus, e.editing
}

// SetParam edits a parameter of the focused effect. Editing starts from the
// saved params if it had not already.
func (e *Engine) SetParam(param string, v float32) error {
	if !e.focus.Valid() {
		return ErrNoFocus
	}
	base := e.live
	if !e.editing {
		base = e.effects[e.focus].saved
	}
	p, err := base.With(param, v)
	if err != nil {
		return err
	}
	e.live = p
	e.editing = true
	return nil
}

// GetParam reads a parameter of the focused effect, or of the live panel
// when nothing is focused.
func (e *Engine) GetParam(param string) (float32, error) {
	if e.focus.Valid() {
		return e.Params(e.focus).Get(param)
	}
	return e.live.Get(param)
}

// Params returns the params id currently runs with.
func (e *Engine) Params(id ID) Params {
	if !id.Valid() {
		return Params{}
	}
	if id == e.focus && e.editing {
		return e.live
	}
	return e.effects[id].saved
}

// SetParams replaces the params of id, keeping the live panel in sync when
// id is being edited.
func (e *Engine) SetParams(id ID, p Params) {
	if !id.Valid() {
		return
	}
	e.effects[id].saved = p
	if id == e.focus && e.editing {
		e.live = p
	}
}

// Intensity returns the global intensity.
func (e *Engine) Intensity() float32 {
	return e.live.Intensity
}

// DisperseAmount returns the smoothed disperse animator in [0, 1].
func (e *Engine) DisperseAmount() float32 {
	return e.disperseAmount
}

// FlowProgress returns the spiral flow ramp.
func (e *Engine) FlowProgress() float32 {
	return e.flowProgress
}

// Visual returns the current glow and colour.
func (e *Engine) Visual() Visual {
	return e.visual
}

// SetVisual replaces the glow and colour.
func (e *Engine) SetVisual(v Visual) {
	e.visual = v
}

// SetBounds records the extent of the current base positions. spiralFlow
// buckets instances by height within it.
func (e *Engine) SetBounds(lo, hi math.Vec3) {
	e.boundsMin, e.boundsMax = lo, hi
}

// Bounds returns the extent set by SetBounds.
func (e *Engine) Bounds() (lo, hi math.Vec3) {
	return e.boundsMin, e.boundsMax
}

// Displacement sums the displacement of every active effect for inst at
// elapsed time t.
func (e *Engine) Displacement(inst Instance, t float32) math.Vec3 {
	var d math.Vec3
	for i := range e.effects {
		if !e.effects[i].active {
			continue
		}
		d = d.Add(e.displace(ID(i), e.Params(ID(i)), inst, t))
	}
	return d
}

// Advance steps the global animators by dt seconds. While returning the
// fade runs instead of the normal smoothing.
func (e *Engine) Advance(dt float32) {
	if e.returning {
		e.fadeTick()
		return
	}

	target := float32(0)
	if e.effects[Disperse].active {
		target = 1
	}
	rate := e.opts.DisperseRate * e.Params(Disperse).Speed
	e.disperseAmount += (target - e.disperseAmount) * ease(dt, rate)
	e.disperseAmount = clamp01(e.disperseAmount)

	if e.effects[SpiralFlow].active {
		e.flowProgress += dt * e.Params(SpiralFlow).Speed * e.opts.FlowRate
	} else if e.flowProgress > 0 {
		e.flowProgress *= 1 - ease(dt, e.opts.DisperseRate)
		if e.flowProgress < 1e-4 {
			e.flowProgress = 0
		}
	}
}

// ease is the fraction of the remaining distance covered in dt at rate.
func ease(dt, rate float32) float32 {
	return 1 - float32(gomath.Exp(-float64(dt*rate)))
}

func clamp01(v float32) float32 {
	return min(max(v, 0), 1)
}

// Manual-touch bookkeeping. The control surface marks what a user changed
// this frame so the chaos driver leaves it alone until EndFrame.

// Touch marks id as changed by hand this frame.
func (e *Engine) Touch(id ID) {
	if id.Valid() {
		e.touched[id] = true
	}
}

// TouchGlobal marks a global manual command (return, stop) this frame.
func (e *Engine) TouchGlobal() {
	e.touchedGlobal = true
}

// Touched reports whether id or the global state was changed by hand this frame.
func (e *Engine) Touched(id ID) bool {
	return e.touchedGlobal || (id.Valid() && e.touched[id])
}

// TouchedGlobal reports whether a global manual command ran this frame.
func (e *Engine) TouchedGlobal() bool {
	return e.touchedGlobal
}

// EndFrame clears the manual-touch marks.
func (e *Engine) EndFrame() {
	clear(e.touched[:])
	e.touchedGlobal = false
}

// Snapshot returns a copy of the engine state.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		Effects:        make([]EffectSnapshot, NumEffects),
		Focus:          e.focus.String(),
		Editing:        e.editing,
		Live:           e.live,
		DisperseAmount: e.disperseAmount,
		FlowProgress:   e.flowProgress,
		Returning:      e.returning,
		Visual:         e.visual,
	}
	if !e.focus.Valid() {
		s.Focus = ""
	}
	for i := range e.effects {
		id := ID(i)
		s.Effects[i] = EffectSnapshot{
			Name:    id.String(),
			Active:  e.effects[i].active,
			Focused: id == e.focus,
			Params:  e.Params(id),
		}
	}
	return s
}

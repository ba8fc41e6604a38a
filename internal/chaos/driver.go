// Package chaos drives the effect engine without user input. Events fire on
// a Fibonacci cadence and toggle effects by a bounded interference
// probability; effect parameters and the glow drift continuously between
// events.
package chaos

import (
	"fmt"
	gomath "math"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/Faultbox/glyphcloud/internal/config"
	"github.com/Faultbox/glyphcloud/internal/effects"
	"github.com/Faultbox/glyphcloud/internal/logger"
)

const (
	// Phi is the golden ratio.
	Phi = 1.618033988749895
	// GoldenAngle in radians.
	GoldenAngle = 2.399963229728653
	// GoldenAngleDeg in degrees, the hue advance per second.
	GoldenAngleDeg = 137.50776405003785
)

// Fibonacci holds the event gap multipliers, cycled in order.
var Fibonacci = [...]float32{1, 1, 2, 3, 5, 8, 13, 21}

// Options tune the driver.
type Options struct {
	Seed                uint64
	Baseline            float32 // entropy at start
	RampSeconds         float32 // seconds from zero to full entropy
	FibUnit             float32 // seconds per Fibonacci step
	MaxActive           int
	ActivateThreshold   float32
	DeactivateThreshold float32
	Gentle              []effects.ID
}

// OptionsFromConfig maps the chaos config section, resolving the gentle
// effect names.
func OptionsFromConfig(cfg config.ChaosConfig) (Options, error) {
	opts := Options{
		Seed:                cfg.Seed,
		Baseline:            cfg.EntropyBaseline,
		RampSeconds:         cfg.EntropyRampSeconds,
		FibUnit:             float32(cfg.FibTimeUnit.Seconds()),
		MaxActive:           cfg.MaxActive,
		ActivateThreshold:   cfg.ActivateThreshold,
		DeactivateThreshold: cfg.DeactivateThreshold,
	}
	for _, name := range cfg.Gentle {
		id, err := effects.Lookup(name)
		if err != nil {
			return Options{}, fmt.Errorf("chaos gentle set: %w", err)
		}
		opts.Gentle = append(opts.Gentle, id)
	}
	if len(opts.Gentle) == 0 {
		opts.Gentle = []effects.ID{effects.Hover}
	}
	if opts.FibUnit <= 0 {
		opts.FibUnit = 0.5
	}
	if opts.RampSeconds <= 0 {
		opts.RampSeconds = 1
	}
	return opts, nil
}

// DefaultOptions returns the options of config.Default.
func DefaultOptions() Options {
	opts, _ := OptionsFromConfig(config.Default().Chaos)
	return opts
}

// Driver is the autonomous effect mutator. Like the engine it runs on the
// frame goroutine only.
type Driver struct {
	opts   Options
	engine *effects.Engine
	log    *zap.Logger
	rng    *rand.Rand

	running   bool
	elapsed   float32
	entropy   float32
	fibIndex  int
	nextEvent float32
	events    int
}

// New creates an idle driver for engine.
func New(engine *effects.Engine, opts Options) *Driver {
	return &Driver{
		opts:   opts,
		engine: engine,
		log:    logger.Named(logger.Chaos),
		rng:    rand.New(rand.NewPCG(opts.Seed, 0x5851f42d4c957f2d)),
	}
}

// Start resets entropy to the baseline and immediately activates and
// focuses one gentle effect. Starting a running driver does nothing.
func (d *Driver) Start() {
	if d.running {
		return
	}
	d.running = true
	d.elapsed = 0
	d.entropy = d.opts.Baseline
	d.fibIndex = 0
	d.nextEvent = Fibonacci[0] * d.opts.FibUnit
	d.events = 0

	d.engine.CancelReturn()
	id := d.opts.Gentle[d.rng.IntN(len(d.opts.Gentle))]
	d.engine.Activate(id)
	d.engine.Focus(id, false)
	p := d.engine.Params(id)
	p.Intensity = d.baseIntensity()
	d.engine.SetParams(id, p)

	d.log.Info("chaos started", logger.Effect(id), zap.Float32("entropy", d.entropy))
}

// Stop hands the engine over to its fade. Effects stay active until the
// fade completes.
func (d *Driver) Stop() {
	if !d.running {
		return
	}
	d.running = false
	d.engine.BeginReturn()
	d.log.Info("chaos stopped",
		zap.Float32("elapsed", d.elapsed),
		zap.Float32("entropy", d.entropy),
		zap.Int("events", d.events))
}

// Running reports whether the driver is running.
func (d *Driver) Running() bool { return d.running }

// Entropy returns the current entropy in [0, 1].
func (d *Driver) Entropy() float32 { return d.entropy }

// Elapsed returns seconds since Start.
func (d *Driver) Elapsed() float32 { return d.elapsed }

// Events returns the number of Fibonacci events fired since Start.
func (d *Driver) Events() int { return d.events }

// Tick advances the driver by dt seconds. It must run before the engine's
// Advance so this frame's parameters are the ones displaced with.
func (d *Driver) Tick(dt float32) {
	if !d.running {
		return
	}
	d.elapsed += dt
	d.entropy = max(d.entropy, min(1, d.opts.Baseline+d.elapsed/d.opts.RampSeconds))

	for d.elapsed >= d.nextEvent {
		d.event()
		d.fibIndex = (d.fibIndex + 1) % len(Fibonacci)
		d.nextEvent += Fibonacci[d.fibIndex] * d.opts.FibUnit
	}

	d.enforceCap()
	d.modulate()
	d.engine.SetVisual(d.visual())
}

// Probability is the interference of two sinusoids detuned by the golden
// ratio and offset per effect by the golden angle, scaled by entropy. The
// result lies in [0, 1].
func Probability(elapsed, entropy float32, k int) float32 {
	t := float64(elapsed)
	kk := float64(k)
	a := gomath.Sin(t*Phi + kk*GoldenAngle)
	b := gomath.Cos(t/Phi + kk*GoldenAngle*Phi)
	p := (a + b) * (a + b) / 4
	return float32(p) * (0.4 + 0.6*min(max(entropy, 0), 1))
}

func (d *Driver) event() {
	d.events++
	id := effects.ID(d.rng.IntN(int(effects.NumEffects)))
	if d.engine.Touched(id) {
		return
	}
	p := Probability(d.elapsed, d.entropy, int(id))
	active := d.engine.IsActive(id)

	switch {
	case !active && p > d.opts.ActivateThreshold && d.engine.ActiveCount() < d.opts.MaxActive:
		d.engine.Activate(id)
		d.engine.Focus(id, false)
		params := d.engine.Params(id)
		params.Intensity = d.baseIntensity()
		d.engine.SetParams(id, params)
		d.log.Debug("chaos activate", logger.Effect(id), zap.Float32("p", p), zap.Float32("entropy", d.entropy))
	case active && p < d.opts.DeactivateThreshold:
		d.engine.Deactivate(id)
		d.log.Debug("chaos deactivate", logger.Effect(id), zap.Float32("p", p))
	}
}

// enforceCap trims active effects down to MaxActive. Effects changed by hand
// this frame go last; the focused effect goes after other untouched ones.
func (d *Driver) enforceCap() {
	focus, _ := d.engine.Focused()
	passes := []func(effects.ID) bool{
		func(id effects.ID) bool { return !d.engine.Touched(id) && id != focus },
		func(id effects.ID) bool { return !d.engine.Touched(id) },
		func(effects.ID) bool { return true },
	}
	for _, eligible := range passes {
		for id := effects.NumEffects - 1; id >= 0; id-- {
			if d.engine.ActiveCount() <= d.opts.MaxActive {
				return
			}
			if d.engine.IsActive(id) && eligible(id) {
				d.engine.Deactivate(id)
				d.log.Debug("chaos cap", logger.Effect(id))
			}
		}
	}
}

func (d *Driver) baseIntensity() float32 {
	return d.engine.Options().DefaultIntensity * (0.5 + 1.5*d.entropy)
}

// fibPeriod is the oscillation period of effect k. It depends on k only, so
// the drift stays continuous across events.
func (d *Driver) fibPeriod(k int) float64 {
	return float64(Fibonacci[(k+2)%len(Fibonacci)] * d.opts.FibUnit)
}

// modulate re-derives intensity and speed of every active effect the user
// did not touch this frame.
func (d *Driver) modulate() {
	t := float64(d.elapsed)
	base := d.baseIntensity()
	speed := d.engine.Options().DefaultSpeed
	for id := effects.ID(0); id < effects.NumEffects; id++ {
		if !d.engine.IsActive(id) || d.engine.Touched(id) {
			continue
		}
		k := float64(id)
		p := d.engine.Params(id)
		p.Intensity = base * float32(1+0.3*gomath.Sin(2*gomath.Pi*t/d.fibPeriod(int(id))))
		p.Speed = speed * float32(1+0.5*gomath.Sin(t*Phi+k*gomath.Pi/3))
		d.engine.SetParams(id, p)
	}
}

func (d *Driver) visual() effects.Visual {
	t := float64(d.elapsed)
	e := d.entropy
	return effects.Visual{
		GlowStrength: (0.3 + 0.7*e) * float32(0.6+0.4*gomath.Sin(t*Phi)),
		GlowRadius:   1 + e*float32(0.5+0.5*gomath.Sin(t/Phi+GoldenAngle)),
		Hue:          float32(gomath.Mod(t*GoldenAngleDeg, 360)),
		Saturation:   float32(0.55 + 0.3*gomath.Sin(2*gomath.Pi*t/d.fibPeriod(len(Fibonacci)-3))),
		Lightness:    0.4 + 0.3*e,
	}
}

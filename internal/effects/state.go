// Package effects holds the named displacement effects, their parameters and
// the global animators that drive them.
package effects

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ID identifies one of the fixed effects.
type ID int

// Effects, in control panel order.
const (
	Hover ID = iota
	Noise
	Wave
	Spiral
	Disperse
	SpiralFlow

	NumEffects
)

// None is the focus value when no effect is focused.
const None ID = -1

var names = [NumEffects]string{
	Hover:      "hover",
	Noise:      "noise",
	Wave:       "wave",
	Spiral:     "spiral",
	Disperse:   "disperse",
	SpiralFlow: "spiralFlow",
}

// String returns the effect's control name.
func (id ID) String() string {
	if id < 0 || id >= NumEffects {
		return "none"
	}
	return names[id]
}

// Valid reports whether id names an effect.
func (id ID) Valid() bool {
	return id >= 0 && id < NumEffects
}

var (
	ErrUnknownEffect = errors.New("unknown effect")
	ErrUnknownParam  = errors.New("unknown parameter")
	ErrNoFocus       = errors.New("no effect is focused")
)

// Lookup resolves a control name, case-insensitively.
func Lookup(name string) (ID, error) {
	for i, n := range names {
		if strings.EqualFold(n, name) {
			return ID(i), nil
		}
	}
	return None, fmt.Errorf("%w: %q", ErrUnknownEffect, name)
}

// Names returns every effect name in panel order.
func Names() []string {
	out := make([]string, NumEffects)
	copy(out, names[:])
	return out
}

// Params are the tunable values of one effect.
type Params struct {
	Intensity float32
	Speed     float32
	Waves     int // spiralFlow only
}

// Get returns the named parameter.
func (p Params) Get(param string) (float32, error) {
	switch strings.ToLower(param) {
	case "intensity":
		return p.Intensity, nil
	case "speed":
		return p.Speed, nil
	case "waves":
		return float32(p.Waves), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownParam, param)
}

// With returns a copy of p with the named parameter set. Values are clamped
// to their legal range: intensity >= 0, speed > 0, waves >= 1.
func (p Params) With(param string, v float32) (Params, error) {
	switch strings.ToLower(param) {
	case "intensity":
		p.Intensity = max(v, 0)
	case "speed":
		p.Speed = max(v, 0.01)
	case "waves":
		p.Waves = max(int(v+0.5), 1)
	default:
		return p, fmt.Errorf("%w: %q", ErrUnknownParam, param)
	}
	return p, nil
}

// Visual holds the glow and fill colour consumed by the renderer.
type Visual struct {
	GlowStrength float32
	GlowRadius   float32
	Hue          float32 // degrees
	Saturation   float32
	Lightness    float32
}

// DefaultVisual is the resting look.
func DefaultVisual() Visual {
	return Visual{
		GlowStrength: 0.4,
		GlowRadius:   1.0,
		Hue:          190,
		Saturation:   0.6,
		Lightness:    0.55,
	}
}

// Color returns the fill colour.
func (v Visual) Color() colorful.Color {
	return colorful.Hsl(float64(v.Hue), float64(v.Saturation), float64(v.Lightness)).Clamped()
}

// EffectSnapshot is the read-only view of one effect.
type EffectSnapshot struct {
	Name    string
	Active  bool
	Focused bool
	Params  Params
}

// Snapshot is the read-only view of the engine a control panel renders.
type Snapshot struct {
	Effects        []EffectSnapshot
	Focus          string
	Editing        bool
	Live           Params
	DisperseAmount float32
	FlowProgress   float32
	Returning      bool
	Visual         Visual
}

// ActiveNames lists the active effects.
func (s Snapshot) ActiveNames() []string {
	var out []string
	for _, e := range s.Effects {
		if e.Active {
			out = append(out, e.Name)
		}
	}
	return out
}

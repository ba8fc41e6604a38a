package effects

import (
	gomath "math"

	"github.com/Faultbox/glyphcloud/pkg/math"
)

// PhaseStep is the per-index phase offset in radians.
const PhaseStep = 0.1

// Amplitude factors per unit intensity.
const (
	hoverAmp  = 0.1
	noiseAmp  = 0.05
	waveAmp   = 0.1
	spiralAmp = 0.5
	flowPush  = 0.3
	flowLift  = 0.2
	flowTwist = gomath.Pi
)

// spiralFlow window layout within one progress cycle: group starts are
// spread over the first flowSpread of the cycle, each rising for flowRise
// and falling for flowFall.
const (
	flowSpread = 0.6
	flowRise   = 0.2
	flowFall   = 0.2
)

func sin(x float64) float32 { return float32(gomath.Sin(x)) }
func cos(x float64) float32 { return float32(gomath.Cos(x)) }

// Phase returns the fixed phase offset of instance index i.
func Phase(i int) float64 {
	return float64(i) * PhaseStep
}

func (e *Engine) displace(id ID, p Params, inst Instance, t float32) math.Vec3 {
	lt := float64(t * p.Speed)
	phase := Phase(inst.Index)
	switch id {
	case Hover:
		return hover(p.Intensity, lt, phase)
	case Noise:
		return noise(p.Intensity, lt, inst.Index)
	case Wave:
		return wave(p.Intensity, lt, inst.Base)
	case Spiral:
		return spiral(p.Intensity, lt, phase)
	case Disperse:
		return inst.Dir.Scale(e.disperseAmount * p.Intensity * e.opts.DisperseScale)
	case SpiralFlow:
		return e.spiralFlow(p, inst.Base)
	}
	return math.Vec3{}
}

// hover bobs each axis on its own frequency.
func hover(intensity float32, lt, phase float64) math.Vec3 {
	a := intensity * hoverAmp
	return math.Vec3{
		X: sin(lt*0.7+phase) * a,
		Y: sin(lt+phase) * a,
		Z: cos(lt*0.8+phase*1.3) * a,
	}
}

// noise is high-frequency jitter keyed by index. Same index and time, same
// offset.
func noise(intensity float32, lt float64, index int) math.Vec3 {
	a := intensity * noiseAmp
	k := float64(index)
	return math.Vec3{
		X: sin(lt*7.3+k*12.9898) * a,
		Y: sin(lt*8.1+k*78.233) * a,
		Z: sin(lt*6.7+k*37.719) * a,
	}
}

// wave pushes along Z with a phase that climbs with height.
func wave(intensity float32, lt float64, base math.Vec3) math.Vec3 {
	return math.Vec3{Z: sin(lt*2+float64(base.Y)*0.5) * intensity * waveAmp}
}

// spiral circles in the XZ plane.
func spiral(intensity float32, lt, phase float64) math.Vec3 {
	r := intensity * spiralAmp
	angle := lt + phase
	return math.Vec3{X: r * cos(angle), Z: r * sin(angle)}
}

// spiralFlow sweeps a spiral from bottom to top. Instances fall into one of
// p.Waves height bands; each band has its own window in the progress cycle.
// Twist, push and lift all scale with intensity, so zero intensity is still.
func (e *Engine) spiralFlow(p Params, base math.Vec3) math.Vec3 {
	waves := max(p.Waves, 1)
	k := FlowEase(e.flowProgress, waves, e.band(base.Y, waves))
	if k == 0 {
		return math.Vec3{}
	}

	c := e.boundsMin.Lerp(e.boundsMax, 0.5)
	dx, dz := float64(base.X-c.X), float64(base.Z-c.Z)
	angle := float64(k*p.Intensity) * flowTwist
	ca, sa := gomath.Cos(angle), gomath.Sin(angle)
	push := 1 + float64(k*p.Intensity*flowPush)
	rx := (dx*ca - dz*sa) * push
	rz := (dx*sa + dz*ca) * push

	return math.Vec3{
		X: float32(rx - dx),
		Y: k * p.Intensity * flowLift,
		Z: float32(rz - dz),
	}
}

// band returns the height band of y within the current bounds.
func (e *Engine) band(y float32, waves int) int {
	h := e.boundsMax.Y - e.boundsMin.Y
	if h <= 0 {
		return 0
	}
	n := clamp01((y - e.boundsMin.Y) / h)
	return min(int(n*float32(waves)), waves-1)
}

// FlowEase returns the eased contribution of band g at the given progress:
// zero outside the band's window, rising and falling through a smoothstep
// inside it.
func FlowEase(progress float32, waves, g int) float32 {
	cycle := progress - float32(gomath.Floor(float64(progress)))
	start := float32(g) / float32(waves) * flowSpread
	peak := start + flowRise
	end := peak + flowFall
	switch {
	case cycle <= start || cycle >= end:
		return 0
	case cycle < peak:
		return smoothstep((cycle - start) / flowRise)
	default:
		return smoothstep((end - cycle) / flowFall)
	}
}

func smoothstep(x float32) float32 {
	x = clamp01(x)
	return x * x * (3 - 2*x)
}

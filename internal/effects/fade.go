package effects

import "go.uber.org/zap"

// BeginReturn starts the fade back to rest. Every frame the global
// intensity, each effect's intensity and both transient animators are
// multiplied by the decay rate until all three globals sit below the rest
// threshold.
func (e *Engine) BeginReturn() {
	if e.returning {
		return
	}
	e.returning = true
	e.log.Info("fade started",
		zap.Float32("intensity", e.live.Intensity),
		zap.Float32("disperse", e.disperseAmount),
		zap.Float32("flow", e.flowProgress),
		zap.Int("active", e.ActiveCount()))
}

// CancelReturn abandons a fade in progress, leaving the decayed values as they are.
func (e *Engine) CancelReturn() {
	if !e.returning {
		return
	}
	e.returning = false
	e.log.Info("fade cancelled", zap.Float32("intensity", e.live.Intensity))
}

// Returning reports whether a fade is in progress.
func (e *Engine) Returning() bool {
	return e.returning
}

func (e *Engine) fadeTick() {
	r := e.opts.DecayRate
	e.live.Intensity *= r
	for i := range e.effects {
		e.effects[i].saved.Intensity *= r
	}
	e.disperseAmount *= r
	e.flowProgress *= r

	th := e.opts.RestThreshold
	if e.live.Intensity < th && e.disperseAmount < th && e.flowProgress < th {
		e.rest()
		e.log.Info("fade complete")
	}
}

// rest is the terminal state of a fade: everything off, transients zeroed,
// intensities and speeds back to their defaults and no focus.
func (e *Engine) rest() {
	for i := range e.effects {
		s := &e.effects[i]
		s.active = false
		s.saved.Intensity = e.opts.DefaultIntensity
		s.saved.Speed = e.opts.DefaultSpeed
	}
	e.live.Intensity = e.opts.DefaultIntensity
	e.live.Speed = e.opts.DefaultSpeed
	e.disperseAmount = 0
	e.flowProgress = 0
	e.focus = None
	e.editing = false
	e.returning = false
}

// StopAll deactivates every effect and zeroes the transients at once,
// skipping the fade. Parameters and focus are kept.
func (e *Engine) StopAll() {
	for i := range e.effects {
		e.effects[i].active = false
	}
	e.disperseAmount = 0
	e.flowProgress = 0
	e.returning = false
	e.log.Info("all effects stopped")
}

package rig

import (
	gomath "math"

	"github.com/Faultbox/glyphcloud/pkg/math"
)

// VecKey is a translation or scale keyframe. Time is in seconds.
type VecKey struct {
	Time  float32
	Value math.Vec3
}

// RotKey is a rotation keyframe. Time is in seconds.
type RotKey struct {
	Time  float32
	Value math.Quat
}

// Channel animates one bone.
type Channel struct {
	Bone      int
	Positions []VecKey
	Rotations []RotKey
	Scales    []VecKey
}

// Clip is a named animation over a skeleton.
type Clip struct {
	Name     string
	Duration float32
	Channels []Channel
}

// bracket finds the keyframes surrounding t and the blend factor between them.
// Keys are assumed sorted by time. prev == next means hold that key.
func bracket(n int, timeAt func(int) float32, t float32) (prev, next int, f float32) {
	for i := 0; i < n; i++ {
		if timeAt(i) > t {
			next = i
			break
		}
		prev = i
		next = i
	}
	if prev == next {
		return prev, next, 0
	}
	t0, t1 := timeAt(prev), timeAt(next)
	if t1 != t0 {
		f = (t - t0) / (t1 - t0)
	}
	return prev, next, f
}

// SampleVec interpolates vector keyframes at time t, returning def when empty.
func SampleVec(keys []VecKey, t float32, def math.Vec3) math.Vec3 {
	switch len(keys) {
	case 0:
		return def
	case 1:
		return keys[0].Value
	}
	prev, next, f := bracket(len(keys), func(i int) float32 { return keys[i].Time }, t)
	if prev == next {
		return keys[prev].Value
	}
	return keys[prev].Value.Lerp(keys[next].Value, f)
}

// SampleRot interpolates rotation keyframes at time t, returning def when empty.
func SampleRot(keys []RotKey, t float32, def math.Quat) math.Quat {
	switch len(keys) {
	case 0:
		return def
	case 1:
		return keys[0].Value
	}
	prev, next, f := bracket(len(keys), func(i int) float32 { return keys[i].Time }, t)
	if prev == next {
		return keys[prev].Value
	}
	return keys[prev].Value.Slerp(keys[next].Value, f)
}

// Animator plays a clip onto a skeleton.
type Animator struct {
	Skeleton *Skeleton
	Clip     *Clip
	Time     float32
	Speed    float32
	Loop     bool
}

// NewAnimator creates an animator with no clip; Update then only refreshes world matrices.
func NewAnimator(s *Skeleton) *Animator {
	return &Animator{Skeleton: s, Speed: 1, Loop: true}
}

// Play starts a clip from the beginning. A nil clip leaves the skeleton at rest.
func (a *Animator) Play(c *Clip) {
	a.Clip = c
	a.Time = 0
	if a.Skeleton != nil {
		a.Skeleton.ResetPose()
	}
}

// Update advances the clip by dt seconds and poses the skeleton.
func (a *Animator) Update(dt float32) {
	if a.Skeleton == nil {
		return
	}
	if a.Clip == nil || a.Clip.Duration <= 0 {
		a.Skeleton.UpdateWorld()
		return
	}

	a.Time += dt * a.Speed
	if a.Loop {
		a.Time = float32(gomath.Mod(float64(a.Time), float64(a.Clip.Duration)))
		if a.Time < 0 {
			a.Time += a.Clip.Duration
		}
	} else if a.Time > a.Clip.Duration {
		a.Time = a.Clip.Duration
	}

	for _, ch := range a.Clip.Channels {
		if !a.Skeleton.Valid(ch.Bone) {
			continue
		}
		b := &a.Skeleton.Bones[ch.Bone]
		b.Local.Translation = SampleVec(ch.Positions, a.Time, b.Rest.Translation)
		b.Local.Rotation = SampleRot(ch.Rotations, a.Time, b.Rest.Rotation)
		b.Local.Scale = SampleVec(ch.Scales, a.Time, b.Rest.Scale)
	}
	a.Skeleton.UpdateWorld()
}

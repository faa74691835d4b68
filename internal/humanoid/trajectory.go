package humanoid

import (
	"math"
	"time"
)

// TrajectorySample is one pointer position with its time offset from the
// start of the movement.
type TrajectorySample struct {
	Pos    Vector2D
	Offset time.Duration
}

// MouseTrajectory is an ordered, strictly time-increasing sequence of pointer
// samples from a start point to an end point. A trajectory is ephemeral:
// generated per move intent, dispatched once, then discarded.
type MouseTrajectory struct {
	Samples []TrajectorySample
}

// Start returns the first sample position.
func (t MouseTrajectory) Start() Vector2D { return t.Samples[0].Pos }

// End returns the last sample position.
func (t MouseTrajectory) End() Vector2D { return t.Samples[len(t.Samples)-1].Pos }

// Duration returns the total planned movement time.
func (t MouseTrajectory) Duration() time.Duration {
	return t.Samples[len(t.Samples)-1].Offset
}

// computeEaseInOutCubic maps uniform time progress to eased spatial progress:
// slow start, fast middle, slow approach.
func computeEaseInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

// invertEaseInOutCubic maps spatial progress back to the time progress that
// produces it, so uniformly spaced curve samples get eased timestamps.
func invertEaseInOutCubic(p float64) float64 {
	if p <= 0 {
		return 0
	}
	if p >= 1 {
		return 1
	}
	if p < 0.5 {
		return math.Cbrt(p / 4)
	}
	return 1 - math.Cbrt(2*(1-p))/2
}

// PlanMove generates a trajectory from start to end.
//
// The path is a cubic Bezier whose two control points sit at 25% and 75% of
// the straight segment, displaced perpendicularly by a random amount bounded
// by CurvatureBound x distance. Longer moves get proportionally more samples
// (minimum 2); timestamps follow an ease-in/ease-out velocity profile with a
// little per-step jitter, and are strictly increasing. The first sample is
// exactly start, the last exactly end.
//
// A zero-distance move returns a single-sample trajectory with no curve
// computation at all.
func (e *Engine) PlanMove(start, end Vector2D) MouseTrajectory {
	e.mu.Lock()
	defer e.mu.Unlock()

	dist := start.Dist(end)
	if dist == 0 {
		return MouseTrajectory{Samples: []TrajectorySample{{Pos: start}}}
	}
	// Sub-pixel moves still have to land on the target.
	if dist < 1.0 {
		return MouseTrajectory{Samples: []TrajectorySample{
			{Pos: start},
			{Pos: end, Offset: 4 * time.Millisecond},
		}}
	}

	e.updateFatigue(dist / 1000.0)

	steps := e.sampleCount(dist)
	duration := e.fittsDuration(dist)
	if duration <= 0 {
		duration = time.Duration(steps) * 5 * time.Millisecond
	}
	// No hand moves faster than the physiological cap.
	if floor := time.Duration(dist / maxVelocity * float64(time.Second)); duration < floor {
		duration = floor
	}

	p0, p3 := start, end
	dir := end.Sub(start).Normalize()
	perp := dir.Perp()
	bound := e.dynamicConfig.CurvatureBound * dist

	p1 := p0.Add(dir.Mul(dist * 0.25)).Add(perp.Mul((e.rng.Float64()*2 - 1) * bound))
	p2 := p0.Add(dir.Mul(dist * 0.75)).Add(perp.Mul((e.rng.Float64()*2 - 1) * bound))

	// Occasional overshoot: the late control point pulls the path slightly
	// past the target before the curve settles back onto it.
	if e.rng.Float64() < e.dynamicConfig.OvershootChance {
		p2 = p2.Add(dir.Mul(dist * 0.05))
	}

	samples := make([]TrajectorySample, steps)
	prevOffset := time.Duration(-1)
	for i := 0; i < steps; i++ {
		t := float64(i) / float64(steps-1)

		pos := cubicBezier(p0, p1, p2, p3, t)
		switch i {
		case 0:
			pos = start
		case steps - 1:
			pos = end
		default:
			pos = e.gaussianNoise(pos)
			// Low-frequency drift on top of the high-frequency tremor.
			amp := e.dynamicConfig.PerlinAmplitude
			pos.X += e.noiseX.Noise1D(t*2.0) * amp
			pos.Y += e.noiseY.Noise1D(t*2.0) * amp
		}

		// Uniform curve progress maps to eased time progress; jitter each
		// intermediate timestamp by up to +/-10% of its nominal value while
		// keeping the sequence strictly increasing.
		u := invertEaseInOutCubic(t)
		offset := time.Duration(u * float64(duration))
		if i > 0 && i < steps-1 {
			offset += time.Duration((e.rng.Float64()*0.2 - 0.1) * float64(duration) / float64(steps))
		}
		if i == steps-1 {
			offset = duration
		}
		if offset <= prevOffset {
			offset = prevOffset + time.Millisecond
		}
		prevOffset = offset

		samples[i] = TrajectorySample{Pos: pos, Offset: offset}
	}

	return MouseTrajectory{Samples: samples}
}

// sampleCount derives the step count from distance alone (base config, no
// randomness) so longer moves never plan fewer samples than shorter ones.
// Assumes the lock is held.
func (e *Engine) sampleCount(dist float64) int {
	const targetWidth = 30.0
	mt := e.baseConfig.FittsA + e.baseConfig.FittsB*math.Log2(1.0+dist/targetWidth)
	steps := int(mt / 1000.0 * e.baseConfig.SampleRate)
	if steps < 2 {
		steps = 2
	}
	return steps
}

func cubicBezier(p0, p1, p2, p3 Vector2D, t float64) Vector2D {
	omt := 1.0 - t
	omt2 := omt * omt
	omt3 := omt2 * omt
	t2 := t * t
	t3 := t2 * t
	return p0.Mul(omt3).
		Add(p1.Mul(3 * omt2 * t)).
		Add(p2.Mul(3 * omt * t2)).
		Add(p3.Mul(t3))
}

// JitterTarget displaces a requested target by a small random landing offset.
// It is applied before planning so the trajectory still ends exactly on the
// (jittered) point it was planned for.
func (e *Engine) JitterTarget(target Vector2D) Vector2D {
	e.mu.Lock()
	defer e.mu.Unlock()
	j := e.dynamicConfig.JitterPx
	if j <= 0 {
		return target
	}
	return Vector2D{
		X: target.X + (e.rng.Float64()*2-1)*j,
		Y: target.Y + (e.rng.Float64()*2-1)*j,
	}
}

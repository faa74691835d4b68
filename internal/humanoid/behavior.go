package humanoid

import (
	"context"
	"math"
	"time"

	"github.com/ccheshirecat/ghostoxide/api/schemas"
)

// PreClickPause draws the cognitive pause between arriving on a target and
// pressing the button.
func (e *Engine) PreClickPause() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.boundedNorm(
		e.dynamicConfig.PreClickPauseMeanMs,
		e.dynamicConfig.PreClickPauseStdDevMs,
		20, 400,
	)
}

// ClickHold draws how long the button stays pressed during a click.
func (e *Engine) ClickHold() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	span := e.dynamicConfig.ClickHoldMaxMs - e.dynamicConfig.ClickHoldMinMs
	ms := e.dynamicConfig.ClickHoldMinMs
	if span > 0 {
		ms += e.rng.Intn(span + 1)
	}
	return time.Duration(ms) * time.Millisecond
}

// Rest informs the fatigue model that the user idled for the given time.
func (e *Engine) Rest(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recoverFatigue(d)
}

// FatigueLevel reports the current fatigue in [0, 1].
func (e *Engine) FatigueLevel() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fatigueLevel
}

// ScrollStep is one wheel tick of a planned scroll: a vertical delta and the
// pause before dispatching it.
type ScrollStep struct {
	DeltaY float64
	Pause  time.Duration
}

// PlanScroll splits a total vertical scroll distance into wheel ticks whose
// magnitudes ease in and out, the way a flick of the wheel accelerates and
// settles. Positive deltas scroll down. A zero distance yields no steps.
func (e *Engine) PlanScroll(totalDeltaY float64) []ScrollStep {
	e.mu.Lock()
	defer e.mu.Unlock()

	if totalDeltaY == 0 {
		return nil
	}
	magnitude := math.Abs(totalDeltaY)
	sign := 1.0
	if totalDeltaY < 0 {
		sign = -1.0
	}

	// Roughly one tick per 120px, like hardware wheel notches.
	steps := int(math.Ceil(magnitude / 120.0))
	if steps < 1 {
		steps = 1
	}

	e.updateFatigue(float64(steps) * 0.02)

	// Eased weights, normalized so the steps sum to the requested distance.
	weights := make([]float64, steps)
	var total float64
	for i := range weights {
		lo := float64(i) / float64(steps)
		hi := float64(i+1) / float64(steps)
		w := computeEaseInOutCubic(hi) - computeEaseInOutCubic(lo)
		w *= 0.85 + e.rng.Float64()*0.3
		weights[i] = w
		total += w
	}

	plan := make([]ScrollStep, steps)
	for i, w := range weights {
		plan[i] = ScrollStep{
			DeltaY: sign * magnitude * w / total,
			Pause:  e.boundedNorm(70, 25, 30, 180),
		}
	}
	return plan
}

// DispatchScroll replays a scroll plan as wheel events at the current cursor
// position. Cancellation mid-plan drops the rest and reports
// ErrSequenceAborted.
func (d *Dispatcher) DispatchScroll(ctx context.Context, plan []ScrollStep) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	total := len(plan)
	for i, step := range plan {
		if step.Pause > 0 {
			if err := d.exec.Sleep(ctx, step.Pause); err != nil {
				return newInputError(ErrSequenceAborted, i, total, err)
			}
		}
		err := d.exec.DispatchMouseEvent(ctx, schemas.MouseEventData{
			Type:   schemas.MouseWheel,
			X:      d.position.X,
			Y:      d.position.Y,
			DeltaY: step.DeltaY,
		})
		if err != nil {
			if ctx.Err() != nil {
				return newInputError(ErrSequenceAborted, i, total, err)
			}
			return newInputError(ErrDispatchFailed, i, total, err)
		}
	}
	return nil
}

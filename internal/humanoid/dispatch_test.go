package humanoid

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccheshirecat/ghostoxide/api/schemas"
	"github.com/ccheshirecat/ghostoxide/internal/mocks"
)

func TestDispatchTrajectoryReplaysEverySample(t *testing.T) {
	e := NewTestEngine(1)
	exec := mocks.NewRecordingExecutor()
	d := NewDispatcher(exec, nil)

	traj := e.PlanMove(Vector2D{}, Vector2D{X: 500, Y: 250})
	require.NoError(t, d.DispatchTrajectory(context.Background(), traj, 0))

	events := exec.Events()
	require.Len(t, events, len(traj.Samples))
	for i, ev := range events {
		require.NotNil(t, ev.Mouse)
		assert.Equal(t, schemas.MouseMove, ev.Mouse.Type)
		assert.Equal(t, traj.Samples[i].Pos.X, ev.Mouse.X)
		assert.Equal(t, traj.Samples[i].Pos.Y, ev.Mouse.Y)
		assert.Equal(t, traj.Samples[i].Offset, ev.At, "sample %d must be dispatched at its planned offset", i)
	}

	assert.Equal(t, traj.Duration(), exec.Clock())
	assert.Equal(t, traj.End(), d.Position())
}

func TestDispatchTrajectoryDragHoldsButton(t *testing.T) {
	e := NewTestEngine(2)
	exec := mocks.NewRecordingExecutor()
	d := NewDispatcher(exec, nil)

	traj := e.PlanMove(Vector2D{}, Vector2D{X: 200, Y: 0})
	require.NoError(t, d.DispatchTrajectory(context.Background(), traj, 1))

	for _, ev := range exec.Events() {
		assert.Equal(t, schemas.ButtonLeft, ev.Mouse.Button)
		assert.EqualValues(t, 1, ev.Mouse.Buttons)
	}
}

func TestDispatchTrajectoryCancelDropsRemainder(t *testing.T) {
	e := NewTestEngine(3)
	exec := mocks.NewRecordingExecutor()
	d := NewDispatcher(exec, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	traj := e.PlanMove(Vector2D{}, Vector2D{X: 900, Y: 600})
	err := d.DispatchTrajectory(ctx, traj, 0)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSequenceAborted)

	var ierr *InputError
	require.ErrorAs(t, err, &ierr)
	assert.Zero(t, ierr.Dispatched)
	assert.Equal(t, len(traj.Samples), ierr.Total)
	assert.Empty(t, exec.Events())
}

func TestDispatchTrajectoryTransportFailure(t *testing.T) {
	e := NewTestEngine(4)
	exec := mocks.NewRecordingExecutor()
	exec.FailAfter = 3
	d := NewDispatcher(exec, nil)

	traj := e.PlanMove(Vector2D{}, Vector2D{X: 900, Y: 600})
	require.Greater(t, len(traj.Samples), 4)

	err := d.DispatchTrajectory(context.Background(), traj, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDispatchFailed)

	var ierr *InputError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, 3, ierr.Dispatched)
}

func TestDispatchKeystrokesExpandsDownUpPairs(t *testing.T) {
	e := NewTestEngine(5)
	exec := mocks.NewRecordingExecutor()
	d := NewDispatcher(exec, nil)

	require.NoError(t, d.DispatchKeystrokes(context.Background(), e.PlanTypingExact("hi")))

	events := exec.Events()
	require.Len(t, events, 4)

	assert.Equal(t, schemas.KeyDown, events[0].Key.Type)
	assert.Equal(t, "h", events[0].Key.Text)
	assert.Equal(t, "KeyH", events[0].Key.Code)
	assert.Equal(t, schemas.KeyUp, events[1].Key.Type)
	assert.Empty(t, events[1].Key.Text, "keyUp carries no text")
	assert.Equal(t, schemas.KeyDown, events[2].Key.Type)
	assert.Equal(t, "i", events[2].Key.Text)
	assert.Equal(t, schemas.KeyUp, events[3].Key.Type)
}

func TestDispatchKeystrokesInterleavesShiftHold(t *testing.T) {
	e := NewTestEngine(6)
	exec := mocks.NewRecordingExecutor()
	d := NewDispatcher(exec, nil)

	require.NoError(t, d.DispatchKeystrokes(context.Background(), e.PlanTypingExact("A")))

	events := exec.Events()
	require.Len(t, events, 4)

	// Shift down, A down, A up, Shift up.
	assert.Equal(t, "Shift", events[0].Key.Key)
	assert.Equal(t, schemas.KeyDown, events[0].Key.Type)
	assert.Equal(t, "A", events[1].Key.Text)
	assert.Equal(t, schemas.ModifierShift, events[1].Key.Modifiers)
	assert.Equal(t, schemas.KeyUp, events[2].Key.Type)
	assert.Equal(t, "A", events[2].Key.Key)
	assert.Equal(t, "Shift", events[3].Key.Key)
	assert.Equal(t, schemas.KeyUp, events[3].Key.Type)
}

func TestDispatchKeystrokesCancelAborts(t *testing.T) {
	e := NewTestEngine(7)
	exec := mocks.NewRecordingExecutor()
	d := NewDispatcher(exec, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := d.DispatchKeystrokes(ctx, e.PlanTypingExact("abc"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSequenceAborted)
	assert.Empty(t, exec.Events())
}

func TestDispatchScrollSumsToRequestedDistance(t *testing.T) {
	e := NewTestEngine(8)
	exec := mocks.NewRecordingExecutor()
	d := NewDispatcher(exec, nil)
	d.SetPosition(Vector2D{X: 400, Y: 300})

	plan := e.PlanScroll(1000)
	require.NotEmpty(t, plan)
	require.NoError(t, d.DispatchScroll(context.Background(), plan))

	var total float64
	for _, ev := range exec.Events() {
		require.NotNil(t, ev.Mouse)
		assert.Equal(t, schemas.MouseWheel, ev.Mouse.Type)
		assert.Equal(t, 400.0, ev.Mouse.X)
		assert.Positive(t, ev.Mouse.DeltaY, "scrolling down uses positive deltas")
		total += ev.Mouse.DeltaY
	}
	assert.InDelta(t, 1000, total, 1e-6)

	up := e.PlanScroll(-300)
	for _, step := range up {
		assert.Negative(t, step.DeltaY)
	}
}

func TestDispatchScrollZeroDistance(t *testing.T) {
	e := NewTestEngine(9)
	assert.Empty(t, e.PlanScroll(0))
}

func TestDispatchMouseUpdatesPosition(t *testing.T) {
	exec := mocks.NewRecordingExecutor()
	d := NewDispatcher(exec, nil)

	err := d.DispatchMouse(context.Background(), schemas.MouseEventData{
		Type: schemas.MousePress, X: 10, Y: 20, Button: schemas.ButtonLeft,
	})
	require.NoError(t, err)
	assert.Equal(t, Vector2D{X: 10, Y: 20}, d.Position())
}

func TestInputErrorUnwrapsKindAndCause(t *testing.T) {
	cause := errors.New("boom")
	err := newInputError(ErrDispatchFailed, 2, 10, cause)

	assert.ErrorIs(t, err, ErrDispatchFailed)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "2/10")
}

func TestScrollStepMagnitudesEase(t *testing.T) {
	e := NewTestEngine(10)
	plan := e.PlanScroll(2400)
	require.GreaterOrEqual(t, len(plan), 3)

	first := math.Abs(plan[0].DeltaY)
	var peak float64
	for _, s := range plan {
		peak = math.Max(peak, math.Abs(s.DeltaY))
	}
	assert.Greater(t, peak, first, "mid-scroll ticks should outweigh the opening tick")
}

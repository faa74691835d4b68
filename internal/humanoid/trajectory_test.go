package humanoid

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanMoveEndpointsAreExact(t *testing.T) {
	e := NewTestEngine(42)
	start := Vector2D{X: 10, Y: 20}
	end := Vector2D{X: 800, Y: 560}

	traj := e.PlanMove(start, end)
	require.GreaterOrEqual(t, len(traj.Samples), 2)

	assert.Equal(t, start, traj.Start())
	assert.Equal(t, end, traj.End())
}

func TestPlanMoveTimestampsStrictlyIncrease(t *testing.T) {
	e := NewTestEngine(7)
	traj := e.PlanMove(Vector2D{}, Vector2D{X: 1000, Y: 300})

	prev := time.Duration(-1)
	for i, s := range traj.Samples {
		assert.Greater(t, s.Offset, prev, "sample %d timestamp must increase", i)
		prev = s.Offset
	}
	assert.Positive(t, traj.Duration())
}

func TestPlanMoveZeroDistance(t *testing.T) {
	e := NewTestEngine(1)
	p := Vector2D{X: 100, Y: 100}

	traj := e.PlanMove(p, p)
	require.Len(t, traj.Samples, 1)
	assert.Equal(t, p, traj.Samples[0].Pos)
	assert.Zero(t, traj.Samples[0].Offset)
}

func TestPlanMoveSubPixelDistanceReachesTarget(t *testing.T) {
	e := NewTestEngine(1)
	start := Vector2D{X: 100, Y: 100}
	end := Vector2D{X: 100.7, Y: 100}

	traj := e.PlanMove(start, end)
	require.Len(t, traj.Samples, 2)
	assert.Equal(t, start, traj.Start())
	assert.Equal(t, end, traj.End())
	assert.Greater(t, traj.Samples[1].Offset, traj.Samples[0].Offset)
}

func TestPlanMoveSampleCountGrowsWithDistance(t *testing.T) {
	e := NewTestEngine(3)
	start := Vector2D{}

	prevCount := 0
	for _, dist := range []float64{50, 200, 600, 1200, 2400} {
		traj := e.PlanMove(start, Vector2D{X: dist})
		assert.GreaterOrEqual(t, len(traj.Samples), prevCount,
			"longer moves must never plan fewer samples (distance %v)", dist)
		prevCount = len(traj.Samples)
	}
}

func TestPlanMovePathIsCurvedNotLinear(t *testing.T) {
	start := Vector2D{X: 0, Y: 500}
	end := Vector2D{X: 1200, Y: 500}
	dist := start.Dist(end)

	// Perpendicular deviation from the straight segment has to show up on
	// some path, and must stay bounded on all of them.
	var maxDeviation float64
	for seed := int64(1); seed <= 10; seed++ {
		e := NewTestEngine(seed)
		traj := e.PlanMove(start, end)
		require.Greater(t, len(traj.Samples), 4)

		bound := e.Config().CurvatureBound
		for _, s := range traj.Samples {
			deviation := math.Abs(s.Pos.Y - 500)
			maxDeviation = math.Max(maxDeviation, deviation)
			assert.Less(t, deviation, bound*dist*1.5)
		}
	}
	assert.Greater(t, maxDeviation, 1.0)
}

func TestPlanMoveDeterministicWithSeed(t *testing.T) {
	a := NewTestEngine(1234).PlanMove(Vector2D{}, Vector2D{X: 640, Y: 480})
	b := NewTestEngine(1234).PlanMove(Vector2D{}, Vector2D{X: 640, Y: 480})
	assert.Equal(t, a, b)

	c := NewTestEngine(5678).PlanMove(Vector2D{}, Vector2D{X: 640, Y: 480})
	assert.NotEqual(t, a, c)
}

func TestJitterTargetStaysWithinConfiguredRadius(t *testing.T) {
	e := NewTestEngine(11)
	jitter := e.Config().JitterPx
	target := Vector2D{X: 300, Y: 300}

	for i := 0; i < 100; i++ {
		j := e.JitterTarget(target)
		assert.LessOrEqual(t, math.Abs(j.X-target.X), jitter)
		assert.LessOrEqual(t, math.Abs(j.Y-target.Y), jitter)
	}
}

func TestRepeatedMovesAccumulateFatigue(t *testing.T) {
	e := NewTestEngine(5)
	require.Zero(t, e.FatigueLevel())

	for i := 0; i < 20; i++ {
		e.PlanMove(Vector2D{}, Vector2D{X: 1500, Y: 900})
	}
	tired := e.FatigueLevel()
	assert.Positive(t, tired)

	e.Rest(time.Minute)
	assert.Less(t, e.FatigueLevel(), tired)
}

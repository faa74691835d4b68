package humanoid

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNormalizeBackfillsZeroTimingValues(t *testing.T) {
	var cfg Config
	cfg.Normalize()

	def := DefaultConfig()
	assert.InDelta(t, def.FittsA, cfg.FittsA, 1e-9)
	assert.InDelta(t, def.FittsB, cfg.FittsB, 1e-9)
	assert.InDelta(t, def.SampleRate, cfg.SampleRate, 1e-9)
	assert.InDelta(t, def.KeyDelayMeanMs, cfg.KeyDelayMeanMs, 1e-9)
	assert.InDelta(t, def.KeyDelayMaxMs, cfg.KeyDelayMaxMs, 1e-9)
	assert.InDelta(t, def.KeyHoldMeanMs, cfg.KeyHoldMeanMs, 1e-9)
	assert.Equal(t, def.ClickHoldMinMs, cfg.ClickHoldMinMs)
}

func TestNormalizeKeepsExplicitValues(t *testing.T) {
	cfg := Config{FittsA: 50, KeyDelayMeanMs: 200, KeyDelayMaxMs: 500}
	cfg.Normalize()

	assert.InDelta(t, 50.0, cfg.FittsA, 1e-9)
	assert.InDelta(t, 200.0, cfg.KeyDelayMeanMs, 1e-9)
	assert.InDelta(t, 500.0, cfg.KeyDelayMaxMs, 1e-9)
}

func TestZeroConfigTypingStillHasHumanGaps(t *testing.T) {
	cfg := Config{Rng: rand.New(rand.NewSource(7))}
	cfg.Normalize()
	e := New(cfg, zap.NewNop())

	events := e.PlanTypingExact("hello world this is a sentence")
	require.NotEmpty(t, events)
	for i := 1; i < len(events); i++ {
		assert.Greater(t, events[i].Down, events[i-1].Down,
			"keystroke %d fired in the same instant as its predecessor", i)
	}
}

package humanoid

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/aquilax/go-perlin"
	"go.uber.org/zap"
)

// maxVelocity is the physiological cap on cursor speed (pixels per second).
const maxVelocity = 6000.0

// Engine generates physically plausible input plans from high-level intents.
// Planning is pure computation: nothing here talks to a browser, the returned
// plans are handed to a Dispatcher for timed execution.
//
// All randomness flows through one *rand.Rand, injectable via Config.Rng, so
// a fixed seed reproduces exact sample sequences under test.
type Engine struct {
	mu            sync.Mutex
	baseConfig    Config
	dynamicConfig Config
	logger        *zap.Logger
	rng           *rand.Rand
	fatigueLevel  float64
	noiseX        *perlin.Perlin
	noiseY        *perlin.Perlin
}

// New creates an engine. A nil logger is replaced with a no-op one.
func New(config Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	config.Normalize()

	seed := time.Now().UnixNano()
	rng := config.Rng
	if rng == nil {
		rng = rand.New(rand.NewSource(seed))
	}

	// Standard Perlin parameters.
	alpha, beta, n := 2.0, 2.0, int32(3)

	return &Engine{
		baseConfig:    config,
		dynamicConfig: config,
		logger:        logger.Named("humanoid"),
		rng:           rng,
		noiseX:        perlin.NewPerlin(alpha, beta, n, seed),
		noiseY:        perlin.NewPerlin(alpha, beta, n, seed+1),
	}
}

// NewTestEngine creates a fully deterministic engine for tests: seeded rng
// and seeded noise generators.
func NewTestEngine(seed int64) *Engine {
	config := DefaultConfig()
	config.Rng = rand.New(rand.NewSource(seed))
	e := New(config, zap.NewNop())

	e.mu.Lock()
	defer e.mu.Unlock()
	e.noiseX = perlin.NewPerlin(2, 2, 3, seed)
	e.noiseY = perlin.NewPerlin(2, 2, 3, seed+1)
	return e
}

// Config returns the engine's current dynamic configuration.
func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dynamicConfig
}

// fittsDuration estimates movement time for a distance via Fitts's law, with
// a +/- 15% jitter. Assumes the lock is held.
func (e *Engine) fittsDuration(distance float64) time.Duration {
	const targetWidth = 30.0

	id := math.Log2(1.0 + distance/targetWidth)
	mt := e.dynamicConfig.FittsA + e.dynamicConfig.FittsB*id
	mt += mt * (e.rng.Float64()*0.3 - 0.15)
	if mt < 0 {
		mt = 0
	}
	return time.Duration(mt * float64(time.Millisecond))
}

// updateFatigue raises the fatigue level and re-derives the dynamic config.
// Assumes the lock is held.
func (e *Engine) updateFatigue(intensity float64) {
	e.fatigueLevel = math.Min(1.0, e.fatigueLevel+e.baseConfig.FatigueIncreaseRate*intensity)
	e.applyFatigueEffects()
}

// recoverFatigue lowers fatigue proportionally to rest time. Assumes the lock
// is held.
func (e *Engine) recoverFatigue(rest time.Duration) {
	e.fatigueLevel = math.Max(0.0, e.fatigueLevel-e.baseConfig.FatigueRecoveryRate*rest.Seconds())
	e.applyFatigueEffects()
}

// applyFatigueEffects derives the dynamic config from base config and the
// current fatigue level: tired users are slower, shakier and less accurate.
// Assumes the lock is held.
func (e *Engine) applyFatigueEffects() {
	factor := 1.0 + e.fatigueLevel

	e.dynamicConfig.GaussianStrength = e.baseConfig.GaussianStrength * factor
	e.dynamicConfig.PerlinAmplitude = e.baseConfig.PerlinAmplitude * factor
	e.dynamicConfig.FittsA = e.baseConfig.FittsA * factor
	e.dynamicConfig.KeyDelayMeanMs = e.baseConfig.KeyDelayMeanMs * (1.0 + e.fatigueLevel*0.3)
	e.dynamicConfig.TypoRate = math.Min(0.25, e.baseConfig.TypoRate*(1.0+e.fatigueLevel*2.0))
}

// gaussianNoise applies high-frequency tremor to a point. Assumes the lock is
// held.
func (e *Engine) gaussianNoise(point Vector2D) Vector2D {
	strength := e.dynamicConfig.GaussianStrength * (0.5 + e.rng.Float64())
	return Vector2D{
		X: point.X + e.rng.NormFloat64()*strength,
		Y: point.Y + e.rng.NormFloat64()*strength,
	}
}

package humanoid

import (
	"math/rand"
)

// Config holds every tunable of the input simulation. Each knob is
// independently overridable from the application config; DefaultConfig
// documents the defaults. The numbers are starting points tuned for
// plausibility, not measured constants.
type Config struct {
	// -- Mouse trajectory --

	// FittsA and FittsB parameterize movement duration via Fitts's law:
	// duration(ms) = FittsA + FittsB * log2(1 + distance/target width).
	FittsA float64 `mapstructure:"fitts_a" json:"fitts_a"`
	FittsB float64 `mapstructure:"fitts_b" json:"fitts_b"`

	// SampleRate is how many trajectory samples are generated per second of
	// movement, approximating the browser's pointer event cadence.
	SampleRate float64 `mapstructure:"sample_rate" json:"sample_rate"`

	// CurvatureBound caps the perpendicular control-point displacement as a
	// fraction of the segment length. Values much above 0.35 produce loops.
	CurvatureBound float64 `mapstructure:"curvature_bound" json:"curvature_bound"`

	// OvershootChance is the probability a movement slightly overshoots the
	// target before settling.
	OvershootChance float64 `mapstructure:"overshoot_chance" json:"overshoot_chance"`

	// JitterPx bounds the random landing offset around the requested target.
	JitterPx float64 `mapstructure:"jitter_px" json:"jitter_px"`

	// GaussianStrength scales the per-sample tremor noise.
	GaussianStrength float64 `mapstructure:"gaussian_strength" json:"gaussian_strength"`

	// PerlinAmplitude scales the low-frequency drift during hesitation.
	PerlinAmplitude float64 `mapstructure:"perlin_amplitude" json:"perlin_amplitude"`

	// -- Clicking --

	ClickHoldMinMs int `mapstructure:"click_hold_min_ms" json:"click_hold_min_ms"`
	ClickHoldMaxMs int `mapstructure:"click_hold_max_ms" json:"click_hold_max_ms"`

	// PreClickPauseMeanMs is the cognitive pause between arriving at a target
	// and pressing the button.
	PreClickPauseMeanMs   float64 `mapstructure:"pre_click_pause_mean_ms" json:"pre_click_pause_mean_ms"`
	PreClickPauseStdDevMs float64 `mapstructure:"pre_click_pause_std_dev_ms" json:"pre_click_pause_std_dev_ms"`

	// -- Typing --

	// KeyDelayMeanMs/StdDevMs parameterize the inter-keystroke delay
	// distribution; samples are clamped to [KeyDelayMinMs, KeyDelayMaxMs]
	// so a delay is never negative and never implausibly long.
	KeyDelayMeanMs   float64 `mapstructure:"key_delay_mean_ms" json:"key_delay_mean_ms"`
	KeyDelayStdDevMs float64 `mapstructure:"key_delay_std_dev_ms" json:"key_delay_std_dev_ms"`
	KeyDelayMinMs    float64 `mapstructure:"key_delay_min_ms" json:"key_delay_min_ms"`
	KeyDelayMaxMs    float64 `mapstructure:"key_delay_max_ms" json:"key_delay_max_ms"`

	// KeyHoldMeanMs/StdDevMs parameterize how long a key stays down.
	KeyHoldMeanMs   float64 `mapstructure:"key_hold_mean_ms" json:"key_hold_mean_ms"`
	KeyHoldStdDevMs float64 `mapstructure:"key_hold_std_dev_ms" json:"key_hold_std_dev_ms"`

	// TypoRate is the per-character probability of a simulated typo followed
	// by a backspace correction.
	TypoRate float64 `mapstructure:"typo_rate" json:"typo_rate"`

	// ThinkPauseChance is the per-character probability of a longer
	// "thinking" pause replacing the regular inter-key delay.
	ThinkPauseChance float64 `mapstructure:"think_pause_chance" json:"think_pause_chance"`
	ThinkPauseMinMs  float64 `mapstructure:"think_pause_min_ms" json:"think_pause_min_ms"`
	ThinkPauseMaxMs  float64 `mapstructure:"think_pause_max_ms" json:"think_pause_max_ms"`

	// -- Fatigue --

	FatigueIncreaseRate float64 `mapstructure:"fatigue_increase_rate" json:"fatigue_increase_rate"`
	FatigueRecoveryRate float64 `mapstructure:"fatigue_recovery_rate" json:"fatigue_recovery_rate"`

	// Rng, when set, replaces the ambient time-seeded source so plans are
	// reproducible. Tests rely on this; production leaves it nil.
	Rng *rand.Rand `mapstructure:"-" json:"-"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		FittsA:          120.0,
		FittsB:          160.0,
		SampleRate:      100.0,
		CurvatureBound:  0.25,
		OvershootChance: 0.20,
		JitterPx:        2.0,

		GaussianStrength: 0.4,
		PerlinAmplitude:  1.5,

		ClickHoldMinMs:        45,
		ClickHoldMaxMs:        130,
		PreClickPauseMeanMs:   90.0,
		PreClickPauseStdDevMs: 30.0,

		KeyDelayMeanMs:   95.0,
		KeyDelayStdDevMs: 35.0,
		KeyDelayMinMs:    30.0,
		KeyDelayMaxMs:    350.0,
		KeyHoldMeanMs:    62.0,
		KeyHoldStdDevMs:  15.0,

		TypoRate:         0.03,
		ThinkPauseChance: 0.05,
		ThinkPauseMinMs:  200.0,
		ThinkPauseMaxMs:  400.0,

		FatigueIncreaseRate: 0.01,
		FatigueRecoveryRate: 0.005,
	}
}

// Normalize clamps configuration values into sane ranges so a bad config file
// degrades rather than producing impossible plans.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.FittsA <= 0 {
		c.FittsA = d.FittsA
	}
	if c.FittsB <= 0 {
		c.FittsB = d.FittsB
	}
	if c.SampleRate <= 0 {
		c.SampleRate = d.SampleRate
	}
	if c.KeyDelayMeanMs <= 0 {
		c.KeyDelayMeanMs = d.KeyDelayMeanMs
	}
	if c.KeyDelayStdDevMs <= 0 {
		c.KeyDelayStdDevMs = d.KeyDelayStdDevMs
	}
	if c.KeyDelayMaxMs <= 0 {
		c.KeyDelayMaxMs = d.KeyDelayMaxMs
	}
	if c.KeyHoldMeanMs <= 0 {
		c.KeyHoldMeanMs = d.KeyHoldMeanMs
	}
	if c.KeyHoldStdDevMs <= 0 {
		c.KeyHoldStdDevMs = d.KeyHoldStdDevMs
	}
	if c.CurvatureBound < 0 {
		c.CurvatureBound = 0
	}
	if c.CurvatureBound > 0.5 {
		c.CurvatureBound = 0.5
	}
	if c.OvershootChance < 0 {
		c.OvershootChance = 0
	}
	if c.OvershootChance > 1 {
		c.OvershootChance = 1
	}
	if c.KeyDelayMinMs < 0 {
		c.KeyDelayMinMs = 0
	}
	if c.KeyDelayMaxMs < c.KeyDelayMinMs {
		c.KeyDelayMaxMs = c.KeyDelayMinMs
	}
	if c.TypoRate < 0 {
		c.TypoRate = 0
	}
	if c.TypoRate > 0.25 {
		c.TypoRate = 0.25
	}
	if c.ThinkPauseChance < 0 {
		c.ThinkPauseChance = 0
	}
	if c.ThinkPauseChance > 1 {
		c.ThinkPauseChance = 1
	}
	if c.ClickHoldMinMs <= 0 {
		c.ClickHoldMinMs = 45
	}
	if c.ClickHoldMaxMs < c.ClickHoldMinMs {
		c.ClickHoldMaxMs = c.ClickHoldMinMs
	}
}

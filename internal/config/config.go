// The application's root configuration.
package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/ccheshirecat/ghostoxide/internal/humanoid"
)

var (
	mu       sync.RWMutex
	instance *Config
)

// Config is the root configuration structure for the entire application.
type Config struct {
	Logger   LoggerConfig    `mapstructure:"logger"`
	Browser  BrowserConfig   `mapstructure:"browser"`
	Stealth  StealthConfig   `mapstructure:"stealth"`
	Humanoid humanoid.Config `mapstructure:"humanoid"`
}

// ColorConfig defines the color settings for different log levels.
// These are used for console output to make logs more readable.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" json:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" json:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" json:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" json:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" json:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" json:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" json:"fatal" yaml:"fatal"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" json:"level" yaml:"level"`
	Format      string      `mapstructure:"format" json:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" json:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" json:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" json:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" json:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" json:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" json:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" json:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" json:"colors" yaml:"colors"`
}

// BrowserConfig holds settings for the headless browser.
type BrowserConfig struct {
	Headless        bool          `mapstructure:"headless"`
	IgnoreTLSErrors bool          `mapstructure:"ignore_tls_errors"`
	Args            []string      `mapstructure:"args"`
	NavigateTimeout time.Duration `mapstructure:"navigate_timeout"`
}

// StealthConfig selects the fingerprint profile and how strictly it is
// enforced.
type StealthConfig struct {
	// OS picks the profile preset: windows, macos-intel, macos-arm, linux.
	OS                  string   `mapstructure:"os"`
	ChromeVersion       int      `mapstructure:"chrome_version"`
	GPU                 string   `mapstructure:"gpu"`
	Locale              string   `mapstructure:"locale"`
	Timezone            string   `mapstructure:"timezone"`
	Languages           []string `mapstructure:"languages"`
	HardwareConcurrency int      `mapstructure:"hardware_concurrency"`
	DeviceMemory        int      `mapstructure:"device_memory"`
	ViewportWidth       int64    `mapstructure:"viewport_width"`
	ViewportHeight      int64    `mapstructure:"viewport_height"`
	// Verify reads fingerprint properties back after application and fails
	// loudly on a mismatch.
	Verify bool `mapstructure:"verify"`
}

// SetDefaults seeds viper so the app runs with a minimal or absent config
// file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "ghostoxide")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 28)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.navigate_timeout", 45*time.Second)

	v.SetDefault("stealth.os", "windows")
	v.SetDefault("stealth.verify", true)

	h := humanoid.DefaultConfig()
	v.SetDefault("humanoid.fitts_a", h.FittsA)
	v.SetDefault("humanoid.fitts_b", h.FittsB)
	v.SetDefault("humanoid.sample_rate", h.SampleRate)
	v.SetDefault("humanoid.curvature_bound", h.CurvatureBound)
	v.SetDefault("humanoid.overshoot_chance", h.OvershootChance)
	v.SetDefault("humanoid.jitter_px", h.JitterPx)
	v.SetDefault("humanoid.gaussian_strength", h.GaussianStrength)
	v.SetDefault("humanoid.perlin_amplitude", h.PerlinAmplitude)
	v.SetDefault("humanoid.click_hold_min_ms", h.ClickHoldMinMs)
	v.SetDefault("humanoid.click_hold_max_ms", h.ClickHoldMaxMs)
	v.SetDefault("humanoid.pre_click_pause_mean_ms", h.PreClickPauseMeanMs)
	v.SetDefault("humanoid.pre_click_pause_std_dev_ms", h.PreClickPauseStdDevMs)
	v.SetDefault("humanoid.key_delay_mean_ms", h.KeyDelayMeanMs)
	v.SetDefault("humanoid.key_delay_std_dev_ms", h.KeyDelayStdDevMs)
	v.SetDefault("humanoid.key_delay_min_ms", h.KeyDelayMinMs)
	v.SetDefault("humanoid.key_delay_max_ms", h.KeyDelayMaxMs)
	v.SetDefault("humanoid.key_hold_mean_ms", h.KeyHoldMeanMs)
	v.SetDefault("humanoid.key_hold_std_dev_ms", h.KeyHoldStdDevMs)
	v.SetDefault("humanoid.typo_rate", h.TypoRate)
	v.SetDefault("humanoid.think_pause_chance", h.ThinkPauseChance)
	v.SetDefault("humanoid.think_pause_min_ms", h.ThinkPauseMinMs)
	v.SetDefault("humanoid.think_pause_max_ms", h.ThinkPauseMaxMs)
	v.SetDefault("humanoid.fatigue_increase_rate", h.FatigueIncreaseRate)
	v.SetDefault("humanoid.fatigue_recovery_rate", h.FatigueRecoveryRate)
}

// Validate rejects configurations the application cannot act on.
func (c *Config) Validate() error {
	switch c.Stealth.OS {
	case "", "windows", "macos-intel", "macos-arm", "linux":
	default:
		return fmt.Errorf("unknown stealth.os %q", c.Stealth.OS)
	}
	switch c.Logger.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("unknown logger.format %q", c.Logger.Format)
	}
	if c.Stealth.HardwareConcurrency < 0 {
		return fmt.Errorf("stealth.hardware_concurrency must not be negative")
	}
	if c.Stealth.DeviceMemory < 0 {
		return fmt.Errorf("stealth.device_memory must not be negative")
	}
	return nil
}

// Load unmarshals the viper state into the global configuration instance.
func Load(v *viper.Viper) error {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg.Humanoid.Normalize()
	Set(&cfg)
	return nil
}

// Set stores the configuration globally.
func Set(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = cfg
}

// Get returns the loaded configuration instance.
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	if instance == nil {
		panic("Configuration not initialized. Call config.Load() in the root command.")
	}
	return instance
}

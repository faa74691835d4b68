package stealth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderPresetsDerivePlatform(t *testing.T) {
	cases := []struct {
		name     string
		builder  *Builder
		platform string
		uaPart   string
	}{
		{"windows", Windows(), "Win32", "Windows NT 10.0; Win64; x64"},
		{"macos intel", MacOSIntel(), "MacIntel", "Macintosh; Intel Mac OS X"},
		{"macos arm", MacOSArm(), "MacIntel", "Macintosh; Intel Mac OS X"},
		{"linux", Linux(), "Linux x86_64", "X11; Linux x86_64"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := tc.builder.Build()
			assert.Equal(t, tc.platform, p.Platform)
			assert.Contains(t, p.UserAgent, tc.uaPart)
			assert.Contains(t, p.UserAgent, "Chrome/")
			assert.NotEmpty(t, p.WebGLVendor)
			assert.NotEmpty(t, p.WebGLRenderer)
		})
	}
}

func TestBuilderOverridesWin(t *testing.T) {
	p := Windows().
		ChromeVersion(126).
		GPU(GPUIntelUHD630).
		CPUCores(16).
		MemoryGB(32).
		Locale("de-DE").
		Timezone("Europe/Berlin").
		Screen(2560, 1440).
		Build()

	assert.Contains(t, p.UserAgent, "Chrome/126.0.0.0")
	assert.Equal(t, "Google Inc. (Intel)", p.WebGLVendor)
	assert.Contains(t, p.WebGLRenderer, "UHD Graphics 630")
	assert.Equal(t, 16, p.HardwareConcurrency)
	assert.Equal(t, 32, p.DeviceMemory)
	assert.Equal(t, "de-DE", p.Locale)
	assert.Equal(t, []string{"de-DE", "en"}, p.Languages)
	assert.Equal(t, "Europe/Berlin", p.Timezone)
	assert.EqualValues(t, 2560, p.Viewport.Width)
}

func TestBuilderCustomUserAgentWinsOverDerivation(t *testing.T) {
	const ua = "Mozilla/5.0 (custom) TestBrowser/1.0"
	p := Linux().UserAgent(ua).Build()
	assert.Equal(t, ua, p.UserAgent)
}

func TestAppleSiliconMasksAsIntel(t *testing.T) {
	// Real Safari/Chrome on Apple Silicon still reports MacIntel; a profile
	// that says otherwise is itself a fingerprint.
	p := MacOSArm().Build()
	assert.Equal(t, "MacIntel", p.Platform)
	assert.Contains(t, p.WebGLRenderer, "Apple")
}

func TestChromeFlagsIncludeAutomationSuppression(t *testing.T) {
	p := Windows().Screen(1920, 1080).Build()
	flags := p.ChromeFlags()

	require.NotEmpty(t, flags)
	joined := strings.Join(flags, " ")
	assert.Contains(t, joined, "--disable-blink-features=AutomationControlled")
	assert.Contains(t, joined, "--window-size=1920,1080")
}

func TestProfilesAreValueEqual(t *testing.T) {
	a := Windows().ChromeVersion(126).Build()
	b := Windows().ChromeVersion(126).Build()
	assert.True(t, profilesEqual(a, b))

	c := Windows().ChromeVersion(127).Build()
	assert.False(t, profilesEqual(a, c))
}

package stealth

import (
	"fmt"

	"github.com/ccheshirecat/ghostoxide/api/schemas"
)

// OS identifies the operating system a profile presents.
type OS string

const (
	OSWindows    OS = "windows"
	OSMacOSIntel OS = "macos-intel"
	OSMacOSArm   OS = "macos-arm"
	OSLinux      OS = "linux"
)

// Platform returns the navigator.platform value for the OS.
func (o OS) Platform() string {
	switch o {
	case OSMacOSIntel, OSMacOSArm:
		return "MacIntel"
	case OSLinux:
		return "Linux x86_64"
	default:
		return "Win32"
	}
}

// HintsPlatform returns the User-Agent Client Hints platform name.
func (o OS) HintsPlatform() string {
	switch o {
	case OSMacOSIntel, OSMacOSArm:
		return "macOS"
	case OSLinux:
		return "Linux"
	default:
		return "Windows"
	}
}

// GPU identifies a WebGL vendor/renderer preset. The strings match what real
// Chrome reports through ANGLE for the given hardware.
type GPU string

const (
	GPUNvidiaRTX3080 GPU = "nvidia-rtx-3080"
	GPUNvidiaRTX4080 GPU = "nvidia-rtx-4080"
	GPUNvidiaGTX1660 GPU = "nvidia-gtx-1660"
	GPUIntelUHD630   GPU = "intel-uhd-630"
	GPUIntelIrisXe   GPU = "intel-iris-xe"
	GPUAppleM1Pro    GPU = "apple-m1-pro"
	GPUAppleM2Max    GPU = "apple-m2-max"
	GPUAppleM4Max    GPU = "apple-m4-max"
	GPUAmdRX6800     GPU = "amd-rx-6800"
)

// Vendor returns the UNMASKED_VENDOR_WEBGL string for the preset.
func (g GPU) Vendor() string {
	switch g {
	case GPUIntelUHD630, GPUIntelIrisXe:
		return "Google Inc. (Intel)"
	case GPUAppleM1Pro, GPUAppleM2Max, GPUAppleM4Max:
		return "Google Inc. (Apple)"
	case GPUAmdRX6800:
		return "Google Inc. (AMD)"
	default:
		return "Google Inc. (NVIDIA)"
	}
}

// Renderer returns the UNMASKED_RENDERER_WEBGL string for the preset.
func (g GPU) Renderer() string {
	switch g {
	case GPUNvidiaRTX4080:
		return "ANGLE (NVIDIA, NVIDIA GeForce RTX 4080 Direct3D11 vs_5_0 ps_5_0)"
	case GPUNvidiaGTX1660:
		return "ANGLE (NVIDIA, NVIDIA GeForce GTX 1660 SUPER Direct3D11 vs_5_0 ps_5_0)"
	case GPUIntelUHD630:
		return "ANGLE (Intel, Intel(R) UHD Graphics 630 Direct3D11 vs_5_0 ps_5_0)"
	case GPUIntelIrisXe:
		return "ANGLE (Intel, Intel(R) Iris(R) Xe Graphics Direct3D11 vs_5_0 ps_5_0)"
	case GPUAppleM1Pro:
		return "ANGLE (Apple, Apple M1 Pro, OpenGL 4.1)"
	case GPUAppleM2Max:
		return "ANGLE (Apple, Apple M2 Max, OpenGL 4.1)"
	case GPUAppleM4Max:
		return "ANGLE (Apple, ANGLE Metal Renderer: Apple M4 Max, Unspecified Version)"
	case GPUAmdRX6800:
		return "ANGLE (AMD, AMD Radeon RX 6800 XT Direct3D11 vs_5_0 ps_5_0)"
	default:
		return "ANGLE (NVIDIA, NVIDIA GeForce RTX 3080 Direct3D11 vs_5_0 ps_5_0)"
	}
}

// Profile is an immutable description of the hardware/software fingerprint a
// page should observe. Build one through the Builder; two profiles with equal
// fields are interchangeable, there is no identity beyond value equality.
type Profile struct {
	OS                  OS               `json:"os"`
	ChromeVersion       int              `json:"chromeVersion"`
	GPU                 GPU              `json:"gpu"`
	Platform            string           `json:"platform"`
	UserAgent           string           `json:"userAgent"`
	WebGLVendor         string           `json:"webglVendor"`
	WebGLRenderer       string           `json:"webglRenderer"`
	HardwareConcurrency int              `json:"hardwareConcurrency"`
	DeviceMemory        int              `json:"deviceMemory"`
	Locale              string           `json:"locale"`
	Languages           []string         `json:"languages"`
	Timezone            string           `json:"timezone"`
	Viewport            schemas.Viewport `json:"viewport"`
}

// ChromeFlags returns the browser launch arguments the profile expects so the
// process-level surface matches the synchronized JS environment.
func (p *Profile) ChromeFlags() []string {
	return []string{
		"--disable-blink-features=AutomationControlled",
		"--disable-infobars",
		fmt.Sprintf("--window-size=%d,%d", p.Viewport.Width, p.Viewport.Height),
	}
}

// Builder assembles a Profile from a preset plus explicit overrides.
type Builder struct {
	p Profile
}

// NewBuilder starts a builder from the OS preset's defaults.
func NewBuilder(os OS) *Builder {
	b := &Builder{}
	b.p = Profile{
		OS:            os,
		ChromeVersion: 131,
		DeviceMemory:  8,
		Locale:        "en-US",
		Languages:     []string{"en-US", "en"},
		Timezone:      "America/New_York",
	}
	switch os {
	case OSMacOSIntel:
		b.p.GPU = GPUAppleM1Pro
		b.p.HardwareConcurrency = 8
		b.p.Viewport = schemas.Viewport{Width: 1440, Height: 900, DevicePixelRatio: 2.0}
	case OSMacOSArm:
		b.p.GPU = GPUAppleM4Max
		b.p.HardwareConcurrency = 14
		b.p.Viewport = schemas.Viewport{Width: 1728, Height: 1117, DevicePixelRatio: 2.0}
	case OSLinux:
		b.p.GPU = GPUNvidiaGTX1660
		b.p.HardwareConcurrency = 8
		b.p.Viewport = schemas.Viewport{Width: 1920, Height: 1080, DevicePixelRatio: 1.0}
	default:
		b.p.OS = OSWindows
		b.p.GPU = GPUNvidiaRTX3080
		b.p.HardwareConcurrency = 8
		b.p.Viewport = schemas.Viewport{Width: 1920, Height: 1080, DevicePixelRatio: 1.0}
	}
	return b
}

// Windows returns a builder preloaded with common Windows desktop defaults.
func Windows() *Builder { return NewBuilder(OSWindows) }

// MacOSIntel returns a builder with Intel MacBook Pro defaults.
func MacOSIntel() *Builder { return NewBuilder(OSMacOSIntel) }

// MacOSArm returns a builder with Apple Silicon defaults.
func MacOSArm() *Builder { return NewBuilder(OSMacOSArm) }

// Linux returns a builder with Linux desktop defaults.
func Linux() *Builder { return NewBuilder(OSLinux) }

func (b *Builder) ChromeVersion(v int) *Builder { b.p.ChromeVersion = v; return b }
func (b *Builder) GPU(g GPU) *Builder           { b.p.GPU = g; return b }
func (b *Builder) MemoryGB(gb int) *Builder     { b.p.DeviceMemory = gb; return b }
func (b *Builder) CPUCores(n int) *Builder      { b.p.HardwareConcurrency = n; return b }

func (b *Builder) Locale(locale string) *Builder {
	b.p.Locale = locale
	b.p.Languages = []string{locale}
	if locale != "en" && locale != "en-US" {
		b.p.Languages = append(b.p.Languages, "en")
	}
	return b
}

// Languages overrides the Accept-Language list derived from the locale.
func (b *Builder) Languages(langs ...string) *Builder {
	b.p.Languages = langs
	return b
}

func (b *Builder) Timezone(tz string) *Builder { b.p.Timezone = tz; return b }

func (b *Builder) Screen(width, height int64) *Builder {
	b.p.Viewport.Width = width
	b.p.Viewport.Height = height
	return b
}

func (b *Builder) DevicePixelRatio(dpr float64) *Builder {
	b.p.Viewport.DevicePixelRatio = dpr
	return b
}

// UserAgent overrides the derived user agent string entirely.
func (b *Builder) UserAgent(ua string) *Builder { b.p.UserAgent = ua; return b }

// Build finalizes the profile, deriving the platform and user agent strings
// from the OS preset unless they were overridden.
func (b *Builder) Build() Profile {
	p := b.p
	if p.Platform == "" {
		p.Platform = p.OS.Platform()
	}
	if p.WebGLVendor == "" {
		p.WebGLVendor = p.GPU.Vendor()
	}
	if p.WebGLRenderer == "" {
		p.WebGLRenderer = p.GPU.Renderer()
	}
	if p.UserAgent == "" {
		p.UserAgent = deriveUserAgent(p.OS, p.ChromeVersion)
	}
	// Copy so later builder reuse cannot alias the built profile's slice.
	p.Languages = append([]string(nil), p.Languages...)
	return p
}

func deriveUserAgent(os OS, chromeVersion int) string {
	var osPart string
	switch os {
	case OSMacOSIntel, OSMacOSArm:
		// Real Chrome pins the reported Mac OS version; matching it avoids a
		// UA/platform mismatch probes look for.
		osPart = "Macintosh; Intel Mac OS X 10_15_7"
	case OSLinux:
		osPart = "X11; Linux x86_64"
	default:
		osPart = "Windows NT 10.0; Win64; x64"
	}
	return fmt.Sprintf(
		"Mozilla/5.0 (%s) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%d.0.0.0 Safari/537.36",
		osPart, chromeVersion,
	)
}

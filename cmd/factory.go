package cmd

import (
	"context"
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/ccheshirecat/ghostoxide/internal/config"
	"github.com/ccheshirecat/ghostoxide/internal/stealth"
)

// buildProfile assembles a fingerprint profile from the stealth section of
// the configuration. Unset fields fall back to the OS preset's defaults.
func buildProfile(sc config.StealthConfig) stealth.Profile {
	var b *stealth.Builder
	switch sc.OS {
	case "macos-intel":
		b = stealth.MacOSIntel()
	case "macos-arm":
		b = stealth.MacOSArm()
	case "linux":
		b = stealth.Linux()
	default:
		b = stealth.Windows()
	}

	if sc.ChromeVersion > 0 {
		b.ChromeVersion(sc.ChromeVersion)
	}
	if sc.GPU != "" {
		b.GPU(stealth.GPU(sc.GPU))
	}
	if sc.HardwareConcurrency > 0 {
		b.CPUCores(sc.HardwareConcurrency)
	}
	if sc.DeviceMemory > 0 {
		b.MemoryGB(sc.DeviceMemory)
	}
	if sc.Locale != "" {
		b.Locale(sc.Locale)
	}
	if len(sc.Languages) > 0 {
		b.Languages(sc.Languages...)
	}
	if sc.Timezone != "" {
		b.Timezone(sc.Timezone)
	}
	if sc.ViewportWidth > 0 && sc.ViewportHeight > 0 {
		b.Screen(sc.ViewportWidth, sc.ViewportHeight)
	}
	return b.Build()
}

// newBrowser launches a browser allocator and tab configured for the profile.
// The returned cancel tears down both.
func newBrowser(ctx context.Context, bc config.BrowserConfig, profile stealth.Profile) (context.Context, context.CancelFunc) {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if !bc.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if bc.IgnoreTLSErrors {
		opts = append(opts, chromedp.Flag("ignore-certificate-errors", true))
	}
	for _, flag := range profile.ChromeFlags() {
		opts = append(opts, flagOption(flag))
	}
	for _, flag := range bc.Args {
		opts = append(opts, flagOption(flag))
	}
	opts = append(opts, chromedp.UserAgent(profile.UserAgent))

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	return tabCtx, func() {
		cancelTab()
		cancelAlloc()
	}
}

// flagOption translates a "--name=value" or "--name" argument into an
// allocator option.
func flagOption(arg string) chromedp.ExecAllocatorOption {
	arg = strings.TrimPrefix(arg, "--")
	if name, value, found := strings.Cut(arg, "="); found {
		return chromedp.Flag(name, value)
	}
	return chromedp.Flag(arg, true)
}

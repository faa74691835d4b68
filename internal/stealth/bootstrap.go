package stealth

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ccheshirecat/ghostoxide/api/schemas"
)

// baselineJS is the fixed evasion block present in every bootstrap,
// independent of which profile fields are set.
//
//go:embed bootstrap.js
var baselineJS string

// bootstrapPayload is the typed template payload. Profile values reach the
// generated script exclusively through one json.Marshal of this struct; no
// field is ever spliced into code position, which makes the output immune to
// quoting/injection issues regardless of field content.
type bootstrapPayload struct {
	Platform            string           `json:"platform,omitempty"`
	UserAgent           string           `json:"userAgent,omitempty"`
	HardwareConcurrency int              `json:"hardwareConcurrency,omitempty"`
	DeviceMemory        int              `json:"deviceMemory,omitempty"`
	WebGLVendor         string           `json:"webglVendor,omitempty"`
	WebGLRenderer       string           `json:"webglRenderer,omitempty"`
	Locale              string           `json:"locale,omitempty"`
	Languages           []string         `json:"languages,omitempty"`
	Timezone            string           `json:"timezone,omitempty"`
	Screen              schemas.Viewport `json:"screen"`
}

// section is one conditional override block. Its JS is static text reading
// from the payload binding; enabled decides whether the profile declares the
// corresponding property at all.
type section struct {
	name    string
	enabled func(p bootstrapPayload) bool
	js      string
}

var sections = []section{
	{
		name:    "platform",
		enabled: func(p bootstrapPayload) bool { return p.Platform != "" },
		js: `
defineGetter(navigator, 'platform', p.platform);`,
	},
	{
		name:    "userAgent",
		enabled: func(p bootstrapPayload) bool { return p.UserAgent != "" },
		js: `
defineGetter(navigator, 'userAgent', p.userAgent);
defineGetter(navigator, 'appVersion', p.userAgent.replace(/^Mozilla\//, ''));`,
	},
	{
		name:    "hardwareConcurrency",
		enabled: func(p bootstrapPayload) bool { return p.HardwareConcurrency > 0 },
		js: `
defineGetter(navigator, 'hardwareConcurrency', p.hardwareConcurrency);`,
	},
	{
		name:    "deviceMemory",
		enabled: func(p bootstrapPayload) bool { return p.DeviceMemory > 0 },
		js: `
defineGetter(navigator, 'deviceMemory', p.deviceMemory);`,
	},
	{
		name:    "webgl",
		enabled: func(p bootstrapPayload) bool { return p.WebGLVendor != "" || p.WebGLRenderer != "" },
		js: `
const patchGetParameter = (proto) => {
  if (!proto || !proto.getParameter) return;
  const original = proto.getParameter;
  const patched = function (param) {
    if (param === 37445 && p.webglVendor) return p.webglVendor;
    if (param === 37446 && p.webglRenderer) return p.webglRenderer;
    return original.apply(this, arguments);
  };
  try {
    Object.defineProperty(proto, 'getParameter', {
      value: patched,
      configurable: true,
      writable: true,
    });
  } catch (e) {}
};
patchGetParameter(typeof WebGLRenderingContext !== 'undefined' ? WebGLRenderingContext.prototype : null);
patchGetParameter(typeof WebGL2RenderingContext !== 'undefined' ? WebGL2RenderingContext.prototype : null);`,
	},
	{
		name:    "languages",
		enabled: func(p bootstrapPayload) bool { return len(p.Languages) > 0 },
		js: `
defineGetter(navigator, 'languages', Object.freeze(p.languages.slice()));
defineGetter(navigator, 'language', p.languages[0]);`,
	},
	{
		name:    "screen",
		enabled: func(p bootstrapPayload) bool { return p.Screen.Width > 0 && p.Screen.Height > 0 },
		js: `
if (typeof screen !== 'undefined') {
  defineGetter(screen, 'width', p.screen.width);
  defineGetter(screen, 'height', p.screen.height);
  defineGetter(screen, 'availWidth', p.screen.width);
  defineGetter(screen, 'availHeight', p.screen.height);
}
if (p.screen.devicePixelRatio) {
  defineGetter(window, 'devicePixelRatio', p.screen.devicePixelRatio);
}`,
	},
}

// BuildBootstrap renders the bootstrap script for a profile. The result is a
// pure function of the profile: identical profiles produce byte-identical
// scripts, and the script is self-contained (a single IIFE with no external
// identifiers beyond standard browser globals, every one of them guarded).
func BuildBootstrap(profile Profile) (string, error) {
	payload := bootstrapPayload{
		Platform:            profile.Platform,
		UserAgent:           profile.UserAgent,
		HardwareConcurrency: profile.HardwareConcurrency,
		DeviceMemory:        profile.DeviceMemory,
		WebGLVendor:         profile.WebGLVendor,
		WebGLRenderer:       profile.WebGLRenderer,
		Locale:              profile.Locale,
		Languages:           profile.Languages,
		Timezone:            profile.Timezone,
		Screen:              profile.Viewport,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("stealth: marshaling bootstrap payload: %w", err)
	}

	var b strings.Builder
	b.WriteString("(() => {\n'use strict';\nconst p = ")
	b.Write(data)
	b.WriteString(";\n")
	b.WriteString(baselineJS)
	for _, s := range sections {
		if s.enabled(payload) {
			b.WriteString("\n// -- ")
			b.WriteString(s.name)
			b.WriteString(" --")
			b.WriteString(s.js)
			b.WriteString("\n")
		}
	}
	b.WriteString("})();\n")
	return b.String(), nil
}

// verificationProbe is evaluated in the isolated context after the bootstrap
// ran there; it reads back the properties ApplyProfile compares against the
// profile.
const verificationProbe = `(() => JSON.stringify({
  platform: navigator.platform,
  hardwareConcurrency: navigator.hardwareConcurrency,
}))()`

package stealth

import (
	"strings"
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// browserPrelude stubs just enough of the DOM surface for the bootstrap to
// run inside goja: a window alias, a Navigator constructor with an instance,
// WebGL contexts and a screen object, plus leftover driver markers the
// baseline is supposed to scrub.
const browserPrelude = `
var window = globalThis;
function Navigator() {}
var navigator = new Navigator();
navigator.webdriver = true;
var WebGLRenderingContext = function () {};
WebGLRenderingContext.prototype.getParameter = function (param) { return 'native-' + param; };
var WebGL2RenderingContext = function () {};
WebGL2RenderingContext.prototype.getParameter = function (param) { return 'native2-' + param; };
var screen = {};
window.cdc_adoQpoasnfa76pfcZLmcfl_Array = [];
window.__webdriver_script_fn = function () {};
`

func newStealthVM(t *testing.T, profile Profile) *goja.Runtime {
	t.Helper()

	script, err := BuildBootstrap(profile)
	require.NoError(t, err)

	vm := goja.New()
	_, err = vm.RunString(browserPrelude)
	require.NoError(t, err)
	_, err = vm.RunString(script)
	require.NoError(t, err, "bootstrap must evaluate cleanly")
	return vm
}

func evalString(t *testing.T, vm *goja.Runtime, expr string) string {
	t.Helper()
	v, err := vm.RunString(expr)
	require.NoError(t, err)
	return v.String()
}

func TestBootstrapHidesWebdriver(t *testing.T) {
	vm := newStealthVM(t, Windows().Build())

	v, err := vm.RunString("navigator.webdriver")
	require.NoError(t, err)
	assert.False(t, v.ToBoolean())
}

func TestBootstrapScrubsDriverMarkers(t *testing.T) {
	vm := newStealthVM(t, Windows().Build())

	v, err := vm.RunString("'cdc_adoQpoasnfa76pfcZLmcfl_Array' in window || '__webdriver_script_fn' in window")
	require.NoError(t, err)
	assert.False(t, v.ToBoolean())
}

func TestBootstrapInstallsChromeObject(t *testing.T) {
	vm := newStealthVM(t, Windows().Build())

	v, err := vm.RunString("typeof window.chrome === 'object' && typeof window.chrome.runtime === 'object'")
	require.NoError(t, err)
	assert.True(t, v.ToBoolean())
}

func TestBootstrapAppliesProfileValues(t *testing.T) {
	profile := Windows().
		ChromeVersion(126).
		GPU(GPUIntelUHD630).
		CPUCores(8).
		MemoryGB(8).
		Locale("en-GB").
		Screen(1920, 1080).
		Build()
	vm := newStealthVM(t, profile)

	assert.Equal(t, "Win32", evalString(t, vm, "navigator.platform"))
	assert.Equal(t, profile.UserAgent, evalString(t, vm, "navigator.userAgent"))
	assert.Equal(t, "8", evalString(t, vm, "String(navigator.hardwareConcurrency)"))
	assert.Equal(t, "8", evalString(t, vm, "String(navigator.deviceMemory)"))
	assert.Equal(t, "en-GB", evalString(t, vm, "navigator.language"))
	assert.Equal(t, "1920", evalString(t, vm, "String(screen.width)"))
	assert.Equal(t, "1080", evalString(t, vm, "String(screen.availHeight)"))

	assert.Equal(t, "Google Inc. (Intel)",
		evalString(t, vm, "WebGLRenderingContext.prototype.getParameter.call({}, 37445)"))
	assert.Contains(t,
		evalString(t, vm, "WebGL2RenderingContext.prototype.getParameter.call({}, 37446)"),
		"UHD Graphics 630")
	// Untouched parameters keep flowing to the native implementation.
	assert.Equal(t, "native-1234",
		evalString(t, vm, "WebGLRenderingContext.prototype.getParameter.call({}, 1234)"))
}

func TestBootstrapLanguagesFrozen(t *testing.T) {
	vm := newStealthVM(t, Windows().Locale("fr-FR").Build())

	assert.Equal(t, "fr-FR,en", evalString(t, vm, "navigator.languages.join(',')"))
	v, err := vm.RunString("Object.isFrozen(navigator.languages)")
	require.NoError(t, err)
	assert.True(t, v.ToBoolean())
}

func TestBootstrapDeterministic(t *testing.T) {
	profile := MacOSArm().Build()

	a, err := BuildBootstrap(profile)
	require.NoError(t, err)
	b, err := BuildBootstrap(profile)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBootstrapPayloadBindingIsInjectionSafe(t *testing.T) {
	// Hostile field content must stay data. The script still evaluates and
	// the value round-trips verbatim.
	const ua = `"};alert(1);//</script>` + "`${x}`"
	profile := Windows().UserAgent(ua).Build()

	vm := newStealthVM(t, profile)
	assert.Equal(t, ua, evalString(t, vm, "navigator.userAgent"))
}

func TestBootstrapOmitsUnsetSections(t *testing.T) {
	profile := Profile{Platform: "Win32"}
	script, err := BuildBootstrap(profile)
	require.NoError(t, err)

	assert.Contains(t, script, "-- platform --")
	assert.NotContains(t, script, "-- webgl --")
	assert.NotContains(t, script, "-- languages --")
	assert.NotContains(t, script, "-- screen --")
}

func TestBootstrapIsSingleIIFE(t *testing.T) {
	script, err := BuildBootstrap(Windows().Build())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(script, "(() => {"))
	assert.True(t, strings.HasSuffix(strings.TrimSpace(script), "})();"))

	// Nothing leaks into the global scope.
	vm := goja.New()
	_, err = vm.RunString(browserPrelude)
	require.NoError(t, err)
	_, err = vm.RunString(script)
	require.NoError(t, err)
	v, err := vm.RunString("typeof defineGetter")
	require.NoError(t, err)
	assert.Equal(t, "undefined", v.String())
}

package stealth

import (
	"strings"

	"github.com/google/uuid"
)

// knownWorldNames are isolated-world display names used by common automation
// stacks. Detection scripts string-match against these, so a generated name
// must never collide with or resemble them.
var knownWorldNames = []string{
	"__puppeteer_utility_world__",
	"__playwright_utility_world__",
	"util",
	"utility",
	"ghost",
	"stealth",
	"automation",
	"selenium",
	"webdriver",
	"devtools",
}

// worldNamePrefixes are innocuous fragments resembling names first-party site
// tooling picks for its own worlds.
var worldNamePrefixes = []string{
	"app", "ext", "sdk", "mod", "cfg", "env", "ui", "rt",
}

// newWorldName generates a rotating, non-recognizable isolated world name.
// Each call produces a fresh name so repeated context creation never reuses
// an identifier a page could have observed and blacklisted. A candidate that
// collides with the known-name list is discarded and regenerated.
func newWorldName() string {
	for {
		id := uuid.NewString()
		frag := strings.ReplaceAll(id, "-", "")[:12]
		prefix := worldNamePrefixes[int(id[0])%len(worldNamePrefixes)]
		name := prefix + "_" + frag
		if !isKnownWorldName(name) {
			return name
		}
	}
}

// isKnownWorldName reports whether a candidate matches or contains one of the
// well-known automation world names.
func isKnownWorldName(name string) bool {
	lower := strings.ToLower(name)
	for _, known := range knownWorldNames {
		if strings.Contains(lower, known) {
			return true
		}
	}
	return false
}

package humanoid

import (
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/ccheshirecat/ghostoxide/api/schemas"
)

// keyboardNeighbors maps each key to the physically adjacent keys on a QWERTY
// layout, used to pick plausible wrong characters for typo simulation.
var keyboardNeighbors = map[rune]string{
	'1': "2q`", '2': "13wq", '3': "24we", '4': "35er", '5': "46rt", '6': "57ty",
	'7': "68yu", '8': "79ui", '9': "80io", '0': "9-op",
	'q': "wa1s", 'w': "qase23", 'e': "wsdr34", 'r': "edft45", 't': "rfgy56",
	'y': "tghu67", 'u': "yhji78", 'i': "ujko89", 'o': "iklp90", 'p': "ol;0-",
	'a': "qwsz", 's': "awedxz", 'd': "serfcx", 'f': "drtgvc", 'g': "ftyhbv",
	'h': "gyujnb", 'j': "huikmn", 'k': "jiol,m", 'l': "kop;.",
	'z': "asx", 'x': "zsdc", 'c': "xdfv", 'v': "cfgb", 'b': "vghn", 'n': "bhjm", 'm': "njk,",
}

// commonNgrams lists digraphs and trigraphs practiced typists roll through
// faster than isolated keys.
var commonNgrams = map[string]bool{
	"th": true, "he": true, "in": true, "er": true, "an": true, "re": true,
	"es": true, "on": true, "st": true, "nt": true,
	"the": true, "and": true, "ing": true, "ion": true, "tio": true,
}

// shiftedSymbols are the US-layout characters that require Shift besides
// uppercase letters.
const shiftedSymbols = `~!@#$%^&*()_+{}|:"<>?`

// KeystrokeEvent is one planned key action: a printable character (Char set)
// or a control/modifier key (Key set), with key-down and key-up offsets from
// the start of the typing plan.
type KeystrokeEvent struct {
	Char      rune
	Key       string
	Modifiers schemas.KeyModifier
	Down      time.Duration
	Up        time.Duration
}

// IsControl reports whether the event is a control/modifier key rather than
// a printable character.
func (k KeystrokeEvent) IsControl() bool { return k.Key != "" }

// PlanTyping generates the keystroke sequence for typing text.
//
// Inter-keystroke delays come from a normal distribution around the
// configured mean, clamped to the configured bounds (never negative); key
// hold durations likewise. Common n-grams type faster. With probability
// TypoRate a character is replaced by an adjacent key, noticed after a
// recognition pause, backspaced, and retyped, so executing the full sequence
// always reproduces text exactly. Characters needing Shift are wrapped in a
// Shift-down/Shift-up pair under the same delay model.
//
// Empty input yields an empty sequence.
func (e *Engine) PlanTyping(text string) []KeystrokeEvent {
	return e.planTyping(text, true)
}

// PlanTypingExact is PlanTyping with typo simulation suppressed; the human
// delay model still applies.
func (e *Engine) PlanTypingExact(text string) []KeystrokeEvent {
	return e.planTyping(text, false)
}

// PlanKeyPress generates the events for a single named control key, such as
// "Enter" or "ArrowDown".
func (e *Engine) PlanKeyPress(key string) []KeystrokeEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	events, _ := e.emitControl(nil, key, 0)
	return events
}

func (e *Engine) planTyping(text string, allowTypos bool) []KeystrokeEvent {
	e.mu.Lock()
	defer e.mu.Unlock()

	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	e.updateFatigue(float64(len(runes)) * 0.05)

	var events []KeystrokeEvent
	var now time.Duration
	for i, r := range runes {
		now += e.interKeyDelay(runes, i, 1.0, 1.0)

		if allowTypos && e.rng.Float64() < e.dynamicConfig.TypoRate && isTypoable(r) {
			typo := e.neighborOf(r)
			events, now = e.emitChar(events, typo, now)
			// Recognition pause: the mistake registers, then gets erased.
			now += e.interKeyDelay(nil, 0, 1.8, 0.6)
			events, now = e.emitControl(events, "Backspace", now)
			now += e.interKeyDelay(nil, 0, 1.2, 0.5)
		}

		switch r {
		case '\n', '\r':
			events, now = e.emitControl(events, "Enter", now)
		case '\t':
			events, now = e.emitControl(events, "Tab", now)
		default:
			events, now = e.emitChar(events, r, now)
		}
	}
	return events
}

// emitChar appends the events for one printable character, including the
// Shift wrapper when the character requires it, and returns the advanced
// clock. Assumes the lock is held.
func (e *Engine) emitChar(events []KeystrokeEvent, r rune, now time.Duration) ([]KeystrokeEvent, time.Duration) {
	hold := e.keyHold()
	down, up := now, now+hold

	if !needsShift(r) {
		return append(events, KeystrokeEvent{Char: r, Down: down, Up: up}), up
	}

	// Shift leads the character and releases after it, like a real left
	// pinky does.
	shiftLead := e.boundedNorm(25, 8, 10, 60)
	shiftTail := e.boundedNorm(20, 8, 5, 60)
	shiftDown := now
	charDown := shiftDown + shiftLead
	charUp := charDown + hold
	shiftUp := charUp + shiftTail

	events = append(events,
		KeystrokeEvent{Key: "Shift", Down: shiftDown, Up: shiftUp},
		KeystrokeEvent{Char: r, Modifiers: schemas.ModifierShift, Down: charDown, Up: charUp},
	)
	return events, shiftUp
}

// emitControl appends a control key press. Assumes the lock is held.
func (e *Engine) emitControl(events []KeystrokeEvent, key string, now time.Duration) ([]KeystrokeEvent, time.Duration) {
	hold := e.keyHold()
	return append(events, KeystrokeEvent{Key: key, Down: now, Up: now + hold}), now + hold
}

// interKeyDelay draws the pause before the next keystroke, scaled for
// n-grams, fatigue and the caller's mean/stddev multipliers, clamped to the
// configured bounds. Assumes the lock is held.
func (e *Engine) interKeyDelay(runes []rune, index int, meanScale, stdDevScale float64) time.Duration {
	cfg := e.dynamicConfig

	// Occasional longer "thinking" pause instead of the regular rhythm.
	if e.rng.Float64() < cfg.ThinkPauseChance {
		span := cfg.ThinkPauseMaxMs - cfg.ThinkPauseMinMs
		if span < 0 {
			span = 0
		}
		ms := cfg.ThinkPauseMinMs + e.rng.Float64()*span
		return time.Duration(ms * float64(time.Millisecond))
	}

	mean := cfg.KeyDelayMeanMs * meanScale
	stdDev := cfg.KeyDelayStdDevMs * stdDevScale

	ngramFactor := 1.0
	if runes != nil && index > 0 && index < len(runes) {
		if index >= 2 {
			trigraph := strings.ToLower(string(runes[index-2 : index+1]))
			if commonNgrams[trigraph] {
				ngramFactor = 0.55
			}
		}
		if ngramFactor == 1.0 {
			digraph := strings.ToLower(string(runes[index-1 : index+1]))
			if commonNgrams[digraph] {
				ngramFactor = 0.7
			}
		}
	}
	mean *= ngramFactor

	ms := e.rng.NormFloat64()*stdDev + mean
	ms = math.Max(cfg.KeyDelayMinMs*ngramFactor, math.Min(cfg.KeyDelayMaxMs, ms))
	if ms < 0 {
		ms = 0
	}
	return time.Duration(ms * float64(time.Millisecond))
}

// keyHold draws how long a key stays pressed. Assumes the lock is held.
func (e *Engine) keyHold() time.Duration {
	return time.Duration(e.boundedNorm(
		e.dynamicConfig.KeyHoldMeanMs,
		e.dynamicConfig.KeyHoldStdDevMs,
		20, 250,
	))
}

// boundedNorm draws a normal sample clamped to [min, max] milliseconds and
// returns it as a duration. Assumes the lock is held.
func (e *Engine) boundedNorm(meanMs, stdDevMs, minMs, maxMs float64) time.Duration {
	ms := e.rng.NormFloat64()*stdDevMs + meanMs
	ms = math.Max(minMs, math.Min(maxMs, ms))
	return time.Duration(ms * float64(time.Millisecond))
}

// neighborOf picks an adjacent key for r, preserving case most of the time.
// Assumes the lock is held.
func (e *Engine) neighborOf(r rune) rune {
	lower := unicode.ToLower(r)
	neighbors, ok := keyboardNeighbors[lower]
	if !ok || len(neighbors) == 0 {
		return r
	}
	typo := rune(neighbors[e.rng.Intn(len(neighbors))])
	if unicode.IsUpper(r) && e.rng.Float64() < 0.8 {
		typo = unicode.ToUpper(typo)
	}
	return typo
}

// isTypoable reports whether typo simulation applies to the character.
// Whitespace and control characters never get typos: the correction sequence
// around them reads unnaturally.
func isTypoable(r rune) bool {
	if unicode.IsSpace(r) {
		return false
	}
	_, ok := keyboardNeighbors[unicode.ToLower(r)]
	return ok
}

func needsShift(r rune) bool {
	return unicode.IsUpper(r) || strings.ContainsRune(shiftedSymbols, r)
}

package humanoid

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/ccheshirecat/ghostoxide/api/schemas"
)

// Executor delivers individual input events to a page. Implementations wrap
// a transport (CDP in production, a recorder in tests).
type Executor interface {
	DispatchMouseEvent(ctx context.Context, event schemas.MouseEventData) error
	DispatchKeyEvent(ctx context.Context, event schemas.KeyEventData) error
	Sleep(ctx context.Context, d time.Duration) error
}

// Dispatcher replays planned input sequences against an Executor with their
// original timing, tracking the virtual cursor position across calls.
type Dispatcher struct {
	mu       sync.Mutex
	exec     Executor
	logger   *zap.Logger
	position Vector2D
}

// NewDispatcher creates a dispatcher starting with the cursor at the origin.
func NewDispatcher(exec Executor, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{exec: exec, logger: logger.Named("dispatcher")}
}

// Position returns the cursor position after the last dispatched movement.
func (d *Dispatcher) Position() Vector2D {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.position
}

// SetPosition overrides the tracked cursor position without emitting events.
func (d *Dispatcher) SetPosition(pos Vector2D) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.position = pos
}

// DispatchTrajectory replays a planned mouse movement sample by sample,
// sleeping the inter-sample gaps. buttons is the currently held button
// bitmask (0 when just moving, 1 while dragging with the left button).
//
// If ctx is cancelled mid-sequence the remaining samples are dropped and the
// call returns an InputError of kind ErrSequenceAborted; events already
// delivered are not undone.
func (d *Dispatcher) DispatchTrajectory(ctx context.Context, traj MouseTrajectory, buttons int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	total := len(traj.Samples)
	var prev time.Duration
	for i, sample := range traj.Samples {
		if gap := sample.Offset - prev; gap > 0 {
			if err := d.exec.Sleep(ctx, gap); err != nil {
				return newInputError(ErrSequenceAborted, i, total, err)
			}
		}
		prev = sample.Offset

		button := schemas.ButtonNone
		if buttons&1 != 0 {
			button = schemas.ButtonLeft
		}
		err := d.exec.DispatchMouseEvent(ctx, schemas.MouseEventData{
			Type:    schemas.MouseMove,
			X:       sample.Pos.X,
			Y:       sample.Pos.Y,
			Button:  button,
			Buttons: buttons,
		})
		if err != nil {
			if ctx.Err() != nil {
				return newInputError(ErrSequenceAborted, i, total, err)
			}
			return newInputError(ErrDispatchFailed, i, total, err)
		}
		d.position = sample.Pos
	}
	return nil
}

// DispatchMouse sends a single pointer event immediately, updating the
// tracked cursor position.
func (d *Dispatcher) DispatchMouse(ctx context.Context, event schemas.MouseEventData) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.exec.DispatchMouseEvent(ctx, event); err != nil {
		return newInputError(ErrDispatchFailed, 0, 1, err)
	}
	d.position = Vector2D{X: event.X, Y: event.Y}
	return nil
}

// keyAction is one wire-level key event on the flattened timeline.
type keyAction struct {
	offset time.Duration
	event  schemas.KeyEventData
}

// DispatchKeystrokes replays a typing plan. Each KeystrokeEvent expands into
// a keyDown at its Down offset and a keyUp at its Up offset; the flattened
// timeline is replayed in offset order so overlapping holds (Shift spanning
// a character) interleave correctly.
//
// Cancellation drops the remaining timeline and returns ErrSequenceAborted.
func (d *Dispatcher) DispatchKeystrokes(ctx context.Context, events []KeystrokeEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	timeline := flattenKeystrokes(events)
	total := len(timeline)
	var prev time.Duration
	for i, action := range timeline {
		if gap := action.offset - prev; gap > 0 {
			if err := d.exec.Sleep(ctx, gap); err != nil {
				return newInputError(ErrSequenceAborted, i, total, err)
			}
		}
		prev = action.offset

		if err := d.exec.DispatchKeyEvent(ctx, action.event); err != nil {
			if ctx.Err() != nil {
				return newInputError(ErrSequenceAborted, i, total, err)
			}
			return newInputError(ErrDispatchFailed, i, total, err)
		}
	}
	return nil
}

// flattenKeystrokes expands the plan into a down/up timeline sorted by
// offset. The sort is stable so simultaneous events keep plan order.
func flattenKeystrokes(events []KeystrokeEvent) []keyAction {
	timeline := make([]keyAction, 0, len(events)*2)
	for _, ev := range events {
		down, up := keyEventPair(ev)
		timeline = append(timeline,
			keyAction{offset: ev.Down, event: down},
			keyAction{offset: ev.Up, event: up},
		)
	}
	sort.SliceStable(timeline, func(i, j int) bool {
		return timeline[i].offset < timeline[j].offset
	})
	return timeline
}

// keyEventPair builds the wire-level keyDown and keyUp for one keystroke.
func keyEventPair(ev KeystrokeEvent) (schemas.KeyEventData, schemas.KeyEventData) {
	var key, code, text string
	modifiers := ev.Modifiers

	if ev.IsControl() {
		key = ev.Key
		code = controlKeyCode(ev.Key)
		if ev.Key == "Enter" {
			text = "\r"
		}
		if ev.Key == "Shift" {
			modifiers |= schemas.ModifierShift
		}
	} else {
		key = string(ev.Char)
		code = charKeyCode(ev.Char)
		text = string(ev.Char)
	}

	down := schemas.KeyEventData{
		Type:      schemas.KeyDown,
		Text:      text,
		Key:       key,
		Code:      code,
		Modifiers: modifiers,
	}
	up := schemas.KeyEventData{
		Type:      schemas.KeyUp,
		Key:       key,
		Code:      code,
		Modifiers: modifiers,
	}
	return down, up
}

// controlKeyCode maps a control key name to its DOM code value.
func controlKeyCode(key string) string {
	switch key {
	case "Shift":
		return "ShiftLeft"
	case "Control":
		return "ControlLeft"
	case "Alt":
		return "AltLeft"
	case "Meta":
		return "MetaLeft"
	default:
		// Enter, Tab, Backspace, Escape, Delete and the arrow keys use
		// their name as the code.
		return key
	}
}

// charKeyCode derives the DOM code for a printable character where it has a
// stable mapping; other characters get an empty code, which CDP accepts.
func charKeyCode(r rune) string {
	switch {
	case unicode.IsLetter(r) && r < 128:
		return "Key" + strings.ToUpper(string(r))
	case unicode.IsDigit(r) && r < 128:
		return fmt.Sprintf("Digit%c", r)
	case r == ' ':
		return "Space"
	default:
		return ""
	}
}

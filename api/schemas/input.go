package schemas

// -- Input Event Models --
// These types describe the low-level pointer and keyboard events the input
// dispatch layer sends to the browser. They mirror the CDP Input domain
// closely enough to translate 1:1 but keep the planning/dispatch packages
// free of protocol imports.

// MouseButton identifies a pointer button, using the CDP protocol strings.
type MouseButton string

const (
	ButtonNone   MouseButton = "none"
	ButtonLeft   MouseButton = "left"
	ButtonMiddle MouseButton = "middle"
	ButtonRight  MouseButton = "right"
)

// MouseEventType identifies the kind of pointer event.
type MouseEventType string

const (
	MouseMove    MouseEventType = "mouseMoved"
	MousePress   MouseEventType = "mousePressed"
	MouseRelease MouseEventType = "mouseReleased"
	MouseWheel   MouseEventType = "mouseWheel"
)

// MouseEventData is a single pointer event ready for dispatch.
type MouseEventData struct {
	Type       MouseEventType `json:"type"`
	X          float64        `json:"x"`
	Y          float64        `json:"y"`
	Button     MouseButton    `json:"button,omitempty"`
	// Buttons is the bitfield of buttons currently held (1=left, 2=right, 4=middle).
	Buttons    int64          `json:"buttons,omitempty"`
	ClickCount int64          `json:"clickCount,omitempty"`
	DeltaX     float64        `json:"deltaX,omitempty"`
	DeltaY     float64        `json:"deltaY,omitempty"`
}

// KeyEventType identifies the kind of keyboard event.
type KeyEventType string

const (
	KeyDown    KeyEventType = "keyDown"
	KeyUp      KeyEventType = "keyUp"
	KeyRawDown KeyEventType = "rawKeyDown"
)

// KeyModifier is the bitfield of modifier keys held during a key event.
type KeyModifier int64

const (
	ModifierNone  KeyModifier = 0
	ModifierAlt   KeyModifier = 1
	ModifierCtrl  KeyModifier = 2
	ModifierMeta  KeyModifier = 4
	ModifierShift KeyModifier = 8
)

// KeyEventData is a single keyboard event ready for dispatch.
// For printable characters Text carries the generated text; for control keys
// (Enter, Backspace, arrows) Key/Code carry the DOM key identifiers instead.
type KeyEventData struct {
	Type      KeyEventType `json:"type"`
	Text      string       `json:"text,omitempty"`
	Key       string       `json:"key,omitempty"`
	Code      string       `json:"code,omitempty"`
	Modifiers KeyModifier  `json:"modifiers,omitempty"`
}

// Viewport describes the visible page dimensions used for fingerprinting and
// cursor initialization.
type Viewport struct {
	Width            int64   `json:"width"`
	Height           int64   `json:"height"`
	DevicePixelRatio float64 `json:"devicePixelRatio,omitempty"`
}

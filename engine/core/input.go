package core

import "sync"

type Button uint16

const (
	BUTTON_LEFT Button = iota
	BUTTON_RIGHT
	BUTTON_MIDDLE
	BUTTON_MAX_BUTTONS
)

// Key code definitions
type KeyCode uint16

const (
	KEY_BACKSPACE KeyCode = 0x08
	KEY_ENTER     KeyCode = 0x0D
	KEY_TAB       KeyCode = 0x09
	KEY_SHIFT     KeyCode = 0x10
	KEY_ESCAPE    KeyCode = 0x1B
	KEY_SPACE     KeyCode = 0x20
	KEY_LEFT      KeyCode = 0x25
	KEY_UP        KeyCode = 0x26
	KEY_RIGHT     KeyCode = 0x27
	KEY_DOWN      KeyCode = 0x28
	KEY_A         KeyCode = 0x41
	KEY_B         KeyCode = 0x42
	KEY_C         KeyCode = 0x43
	KEY_D         KeyCode = 0x44
	KEY_E         KeyCode = 0x45
	KEY_F         KeyCode = 0x46
	KEY_G         KeyCode = 0x47
	KEY_H         KeyCode = 0x48
	KEY_I         KeyCode = 0x49
	KEY_J         KeyCode = 0x4A
	KEY_K         KeyCode = 0x4B
	KEY_L         KeyCode = 0x4C
	KEY_M         KeyCode = 0x4D
	KEY_N         KeyCode = 0x4E
	KEY_O         KeyCode = 0x4F
	KEY_P         KeyCode = 0x50
	KEY_Q         KeyCode = 0x51
	KEY_R         KeyCode = 0x52
	KEY_S         KeyCode = 0x53
	KEY_T         KeyCode = 0x54
	KEY_U         KeyCode = 0x55
	KEY_V         KeyCode = 0x56
	KEY_W         KeyCode = 0x57
	KEY_X         KeyCode = 0x58
	KEY_Y         KeyCode = 0x59
	KEY_Z         KeyCode = 0x5A
	KEY_F1        KeyCode = 0x70
	KEY_F2        KeyCode = 0x71
	KEY_F3        KeyCode = 0x72
	KEY_F4        KeyCode = 0x73
	KEY_F5        KeyCode = 0x74
	KEY_F6        KeyCode = 0x75
	KEY_F7        KeyCode = 0x76
	KEY_F8        KeyCode = 0x77
	KEY_F9        KeyCode = 0x78
	KEY_F10       KeyCode = 0x79
	KEY_F11       KeyCode = 0x7A
	KEY_F12       KeyCode = 0x7B
	KEY_LSHIFT    KeyCode = 0xA0
	KEY_RSHIFT    KeyCode = 0xA1
	KEY_LCONTROL  KeyCode = 0xA2
	KEY_RCONTROL  KeyCode = 0xA3
	KEYS_MAX_KEYS KeyCode = 0x100
)

// Mouse state structure. Positions are normalised to the window size.
type MouseState struct {
	X       float32
	Y       float32
	Buttons [BUTTON_MAX_BUTTONS]bool
}

type KeyboardState struct {
	Keys [256]bool
}

/**
 * @brief The movement intents and mouse state sampled once per frame and
 * handed to the camera. A plain value, safe to copy.
 */
type InputSnapshot struct {
	Forward bool
	Back    bool
	Left    bool
	Right   bool
	Up      bool
	Down    bool
	/** @brief Multiplies the maximum speed of the camera. */
	Fast bool
	/** @brief Mouse position in [0,1] window coordinates. */
	MouseX float32
	MouseY float32
	/** @brief True while the look button is held. */
	MousePressed bool
}

// KeyBindings maps movement intents to keys.
type KeyBindings struct {
	Forward KeyCode
	Back    KeyCode
	Left    KeyCode
	Right   KeyCode
	Up      KeyCode
	Down    KeyCode
	Fast    KeyCode
	Look    Button
}

func DefaultKeyBindings() KeyBindings {
	return KeyBindings{
		Forward: KEY_W,
		Back:    KEY_S,
		Left:    KEY_A,
		Right:   KEY_D,
		Up:      KEY_E,
		Down:    KEY_Q,
		Fast:    KEY_LSHIFT,
		Look:    BUTTON_LEFT,
	}
}

// InputState holds current and previous states for keyboard and mouse.
// Window callbacks write it, the frame loop reads it.
type InputState struct {
	mu               sync.RWMutex
	keyboardCurrent  KeyboardState
	keyboardPrevious KeyboardState
	mouseCurrent     MouseState
	mousePrevious    MouseState

	events *EventBus
}

// NewInputState creates the input state. Changes are announced on events
// when it is not nil.
func NewInputState(events *EventBus) *InputState {
	return &InputState{events: events}
}

// Update copies the current states to the previous ones. Call once per frame
// after the frame has consumed the input.
func (is *InputState) Update() {
	is.mu.Lock()
	is.keyboardPrevious = is.keyboardCurrent
	is.mousePrevious = is.mouseCurrent
	is.mu.Unlock()
}

func (is *InputState) IsKeyDown(key KeyCode) bool {
	is.mu.RLock()
	defer is.mu.RUnlock()
	return is.keyboardCurrent.Keys[key]
}

func (is *InputState) WasKeyDown(key KeyCode) bool {
	is.mu.RLock()
	defer is.mu.RUnlock()
	return is.keyboardPrevious.Keys[key]
}

func (is *InputState) IsButtonDown(button Button) bool {
	is.mu.RLock()
	defer is.mu.RUnlock()
	return is.mouseCurrent.Buttons[button]
}

func (is *InputState) MousePosition() (float32, float32) {
	is.mu.RLock()
	defer is.mu.RUnlock()
	return is.mouseCurrent.X, is.mouseCurrent.Y
}

func (is *InputState) ProcessKey(key KeyCode, pressed bool) {
	if key >= KEYS_MAX_KEYS {
		return
	}
	is.mu.Lock()
	// Only handle this if the state actually changed.
	changed := is.keyboardCurrent.Keys[key] != pressed
	is.keyboardCurrent.Keys[key] = pressed
	is.mu.Unlock()

	if !changed || is.events == nil {
		return
	}
	code := EVENT_CODE_KEY_RELEASED
	if pressed {
		code = EVENT_CODE_KEY_PRESSED
	}
	ctx := EventContext{}
	ctx.Data.U16[0] = uint16(key)
	is.events.Fire(code, nil, ctx)
}

func (is *InputState) ProcessButton(button Button, pressed bool) {
	if button >= BUTTON_MAX_BUTTONS {
		return
	}
	is.mu.Lock()
	changed := is.mouseCurrent.Buttons[button] != pressed
	is.mouseCurrent.Buttons[button] = pressed
	is.mu.Unlock()

	if !changed || is.events == nil {
		return
	}
	code := EVENT_CODE_BUTTON_RELEASED
	if pressed {
		code = EVENT_CODE_BUTTON_PRESSED
	}
	ctx := EventContext{}
	ctx.Data.U16[0] = uint16(button)
	is.events.Fire(code, nil, ctx)
}

func (is *InputState) ProcessMouseMove(x, y float32) {
	is.mu.Lock()
	changed := is.mouseCurrent.X != x || is.mouseCurrent.Y != y
	is.mouseCurrent.X = x
	is.mouseCurrent.Y = y
	is.mu.Unlock()

	if !changed || is.events == nil {
		return
	}
	ctx := EventContext{}
	ctx.Data.F64[0] = float64(x)
	ctx.Data.F64[1] = float64(y)
	is.events.Fire(EVENT_CODE_MOUSE_MOVED, nil, ctx)
}

// Snapshot samples the current state through bindings.
func (is *InputState) Snapshot(bindings KeyBindings) InputSnapshot {
	is.mu.RLock()
	defer is.mu.RUnlock()

	keys := &is.keyboardCurrent.Keys
	return InputSnapshot{
		Forward:      keys[bindings.Forward],
		Back:         keys[bindings.Back],
		Left:         keys[bindings.Left],
		Right:        keys[bindings.Right],
		Up:           keys[bindings.Up],
		Down:         keys[bindings.Down],
		Fast:         keys[bindings.Fast],
		MouseX:       is.mouseCurrent.X,
		MouseY:       is.mouseCurrent.Y,
		MousePressed: is.mouseCurrent.Buttons[bindings.Look],
	}
}

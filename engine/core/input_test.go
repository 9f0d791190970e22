package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInputSnapshotFollowsBindings(t *testing.T) {
	input := NewInputState(nil)
	input.ProcessKey(KEY_W, true)
	input.ProcessKey(KEY_LSHIFT, true)
	input.ProcessButton(BUTTON_LEFT, true)
	input.ProcessMouseMove(0.25, 0.75)

	snap := input.Snapshot(DefaultKeyBindings())
	assert.True(t, snap.Forward)
	assert.True(t, snap.Fast)
	assert.True(t, snap.MousePressed)
	assert.False(t, snap.Back)
	assert.False(t, snap.Up)
	assert.Equal(t, float32(0.25), snap.MouseX)
	assert.Equal(t, float32(0.75), snap.MouseY)

	input.ProcessKey(KEY_W, false)
	assert.False(t, input.Snapshot(DefaultKeyBindings()).Forward)
}

func TestInputUpdateKeepsPreviousState(t *testing.T) {
	input := NewInputState(nil)
	input.ProcessKey(KEY_SPACE, true)
	assert.False(t, input.WasKeyDown(KEY_SPACE))

	input.Update()
	input.ProcessKey(KEY_SPACE, false)
	assert.True(t, input.WasKeyDown(KEY_SPACE))
	assert.False(t, input.IsKeyDown(KEY_SPACE))
}

func TestInputFiresOnlyOnChange(t *testing.T) {
	bus := NewEventBus()
	var pressed []uint16
	released := 0
	bus.Register(EVENT_CODE_KEY_PRESSED, nil, func(_ SystemEventCode, _, _ interface{}, data EventContext) bool {
		pressed = append(pressed, data.Data.U16[0])
		return false
	})
	bus.Register(EVENT_CODE_KEY_RELEASED, nil, func(SystemEventCode, interface{}, interface{}, EventContext) bool {
		released++
		return false
	})

	input := NewInputState(bus)
	input.ProcessKey(KEY_ESCAPE, true)
	input.ProcessKey(KEY_ESCAPE, true)
	input.ProcessKey(KEY_ESCAPE, false)
	input.ProcessKey(KEYS_MAX_KEYS, true)

	assert.Equal(t, []uint16{uint16(KEY_ESCAPE)}, pressed)
	assert.Equal(t, 1, released)
}

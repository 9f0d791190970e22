package vulkan

import (
	"io"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/vkframes/engine/core"
)

func init() {
	core.SetLogOutput(io.Discard)
}

func TestAcquireResult(t *testing.T) {
	index, err := acquireResult(vk.Success, 2, 1000)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), index)

	index, err = acquireResult(vk.Suboptimal, 1, 1000)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), index)

	for _, res := range []vk.Result{vk.Timeout, vk.NotReady} {
		_, err = acquireResult(res, 0, 1000)
		assert.ErrorIs(t, err, core.ErrGPUHung)
	}

	_, err = acquireResult(vk.ErrorOutOfDate, 0, 1000)
	require.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrGPUHung)

	_, err = acquireResult(vk.ErrorDeviceLost, 0, 1000)
	require.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrGPUHung)
}

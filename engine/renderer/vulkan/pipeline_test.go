package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/vkframes/engine/renderer/metadata"
)

func TestPipelineConfigDepthCompare(t *testing.T) {
	context := &VulkanContext{Descriptors: &VulkanDescriptors{}}

	tests := []struct {
		op   metadata.CompareOp
		want vk.CompareOp
	}{
		{metadata.CompareOpLessOrEqual, vk.CompareOpLessOrEqual},
		{metadata.CompareOpLess, vk.CompareOpLess},
		{metadata.CompareOpEqual, vk.CompareOpEqual},
		{metadata.CompareOpGreater, vk.CompareOpGreater},
		{metadata.CompareOpGreaterOrEqual, vk.CompareOpGreaterOrEqual},
		{metadata.CompareOpNotEqual, vk.CompareOpNotEqual},
		{metadata.CompareOpAlways, vk.CompareOpAlways},
		{metadata.CompareOpNever, vk.CompareOpNever},
	}
	for _, tt := range tests {
		config := metadata.NewDefaultPipelineConfig(nil, nil, metadata.ObjectTransformIndexedStorage)
		config.DepthCompare = tt.op

		out := NewVulkanPipelineConfig(context, config, nil)
		assert.Equal(t, tt.want, out.DepthCompareOp)
		assert.True(t, out.DepthTest)
	}
}

func TestDefaultPipelineConfigComparesLessOrEqual(t *testing.T) {
	config := metadata.NewDefaultPipelineConfig(nil, nil, metadata.ObjectTransformInlinePushed)
	assert.Equal(t, metadata.CompareOpLessOrEqual, config.DepthCompare)

	out := NewVulkanPipelineConfig(&VulkanContext{Descriptors: &VulkanDescriptors{}}, config, nil)
	assert.Equal(t, vk.CompareOpLessOrEqual, out.DepthCompareOp)
	require.Len(t, out.PushConstantRanges, 1)
	assert.Equal(t, metadata.MeshPushConstantsSize, out.PushConstantRanges[0].Size)
	assert.Len(t, out.DescriptorSetLayouts, 2)
}

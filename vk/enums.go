// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vk

// Shader stage bits, the VkShaderStageFlagBits values ShaderStage.Stage and
// pipeline-layout/descriptor-binding stage masks are built from.
const (
	ShaderStageVertex                 = 0x00000001
	ShaderStageTessellationControl    = 0x00000002
	ShaderStageTessellationEvaluation = 0x00000004
	ShaderStageGeometry               = 0x00000008
	ShaderStageFragment               = 0x00000010
	ShaderStageCompute                = 0x00000020
	ShaderStageAllGraphics            = 0x0000001F
)

// Descriptor type values, the VkDescriptorType this runner's two buffer
// kinds (UBO, SSBO) map onto.
const (
	DescriptorTypeUniformBuffer = 6
	DescriptorTypeStorageBuffer = 7
)

// Primitive topology values referenced outside pipelinekey's static enum
// table (pipelinekey.TopologyPatchList and friends carry the same numbers).
const (
	PrimitiveTopologyPatchList = 10
)

// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vk

import (
	"unsafe"

	"github.com/go-webgpu/goffi/types"
	"github.com/pkg/errors"
)

const structTypeShaderModuleCreateInfo = 16
const structTypeDescriptorSetLayoutCreateInfo = 32
const structTypePipelineLayoutCreateInfo = 30
const structTypeRenderPassCreateInfo = 38
const structTypeFramebufferCreateInfo = 37
const structTypeGraphicsPipelineCreateInfo = 28
const structTypeComputePipelineCreateInfo = 29
const structTypePipelineShaderStageCreateInfo = 18
const structTypePipelineVertexInputStateCreateInfo = 19
const structTypePipelineInputAssemblyStateCreateInfo = 20
const structTypePipelineViewportStateCreateInfo = 22
const structTypePipelineRasterizationStateCreateInfo = 23
const structTypePipelineMultisampleStateCreateInfo = 24
const structTypePipelineDepthStencilStateCreateInfo = 25
const structTypePipelineColorBlendStateCreateInfo = 26
const structTypePipelineDynamicStateCreateInfo = 27

// CreateShaderModule creates a shader module from SPIR-V words (as decoded
// by core/stream.DecodeHexWords from a script's entry-point body).
func (c *Context) CreateShaderModule(spirv []byte) (ShaderModule, error) {
	ci := newBuilder()
	ci.PutU32(structTypeShaderModuleCreateInfo).PutPtr(nil).
		PutU32(0). // flags
		PutU64(uint64(len(spirv))).
		PutPtr(unsafe.Pointer(&spirv[0])).Keep(spirv)

	device := uint64(c.Device)
	var mod uint64
	var result int32
	err := c.fns.call("vkCreateShaderModule", false, "result_handle_ptr_ptr_ptr",
		types.SInt32TypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.PointerTypeDescriptor, types.PointerTypeDescriptor, types.PointerTypeDescriptor},
		unsafe.Pointer(&result),
		[]unsafe.Pointer{unsafe.Pointer(&device), ptrToPtr(ci.Pointer()), ptrToPtr(nil), ptrToPtr(unsafe.Pointer(&mod))},
	)
	if err != nil {
		return 0, errors.Wrap(err, "vkCreateShaderModule")
	}
	if res := Result(result); !res.Succeeded() {
		return 0, errors.Wrap(res, "vkCreateShaderModule")
	}
	return ShaderModule(mod), nil
}

func (c *Context) DestroyShaderModule(m ShaderModule) {
	device := uint64(c.Device)
	h := uint64(m)
	c.fns.call("vkDestroyShaderModule", false, "void_handle_handle_ptr",
		types.VoidTypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.UInt64TypeDescriptor, types.PointerTypeDescriptor},
		nil,
		[]unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&h), ptrToPtr(nil)},
	)
}

// DescriptorBinding describes one binding within a single descriptor set
// layout: every buffer/ubo/ssbo a script declares against that set becomes
// one binding. A script can use more than one descriptor set, in which
// case the caller builds one binding list - and one layout - per set.
type DescriptorBinding struct {
	Binding         uint32
	DescriptorType  uint32 // VK_DESCRIPTOR_TYPE_*
	StageFlags      uint32
}

func (c *Context) CreateDescriptorSetLayout(bindings []DescriptorBinding) (DescriptorSetLayout, error) {
	bb := newBuilder()
	for _, b := range bindings {
		bb.PutU32(b.Binding).
			PutU32(b.DescriptorType).
			PutU32(1). // descriptorCount
			PutU32(b.StageFlags).
			PutPtr(nil) // pImmutableSamplers
	}

	ci := newBuilder()
	ci.PutU32(structTypeDescriptorSetLayoutCreateInfo).PutPtr(nil).
		PutU32(0). // flags
		PutU32(uint32(len(bindings)))
	if len(bindings) > 0 {
		ci.PutPtr(bb.Pointer()).Keep(bb)
	} else {
		ci.PutPtr(nil)
	}

	device := uint64(c.Device)
	var layout uint64
	var result int32
	err := c.fns.call("vkCreateDescriptorSetLayout", false, "result_handle_ptr_ptr_ptr",
		types.SInt32TypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.PointerTypeDescriptor, types.PointerTypeDescriptor, types.PointerTypeDescriptor},
		unsafe.Pointer(&result),
		[]unsafe.Pointer{unsafe.Pointer(&device), ptrToPtr(ci.Pointer()), ptrToPtr(nil), ptrToPtr(unsafe.Pointer(&layout))},
	)
	if err != nil {
		return 0, errors.Wrap(err, "vkCreateDescriptorSetLayout")
	}
	if res := Result(result); !res.Succeeded() {
		return 0, errors.Wrap(res, "vkCreateDescriptorSetLayout")
	}
	return DescriptorSetLayout(layout), nil
}

func (c *Context) DestroyDescriptorSetLayout(l DescriptorSetLayout) {
	device := uint64(c.Device)
	h := uint64(l)
	c.fns.call("vkDestroyDescriptorSetLayout", false, "void_handle_handle_ptr",
		types.VoidTypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.UInt64TypeDescriptor, types.PointerTypeDescriptor},
		nil,
		[]unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&h), ptrToPtr(nil)},
	)
}

// CreatePipelineLayout builds a pipeline layout over setLayouts - one
// entry per descriptor set index a script uses, ordered by set index -
// plus a single push-constant range covering the whole push-constant
// block a script declares, visible to all graphics/compute stages.
func (c *Context) CreatePipelineLayout(setLayouts []DescriptorSetLayout, pushConstantSize uint32, stageFlags uint32) (PipelineLayout, error) {
	ci := newBuilder()
	layouts := make([]uint64, len(setLayouts))
	for i, l := range setLayouts {
		layouts[i] = uint64(l)
	}
	ci.PutU32(structTypePipelineLayoutCreateInfo).PutPtr(nil).
		PutU32(0). // flags
		PutU32(uint32(len(layouts)))
	if len(layouts) > 0 {
		ci.PutPtr(unsafe.Pointer(&layouts[0])).Keep(layouts)
	} else {
		ci.PutPtr(nil)
	}
	if pushConstantSize > 0 {
		pcr := newBuilder()
		pcr.PutU32(stageFlags).PutU32(0).PutU32(pushConstantSize)
		ci.PutU32(1).PutPtr(pcr.Pointer()).Keep(pcr)
	} else {
		ci.PutU32(0).PutPtr(nil)
	}

	device := uint64(c.Device)
	var layout uint64
	var result int32
	err := c.fns.call("vkCreatePipelineLayout", false, "result_handle_ptr_ptr_ptr",
		types.SInt32TypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.PointerTypeDescriptor, types.PointerTypeDescriptor, types.PointerTypeDescriptor},
		unsafe.Pointer(&result),
		[]unsafe.Pointer{unsafe.Pointer(&device), ptrToPtr(ci.Pointer()), ptrToPtr(nil), ptrToPtr(unsafe.Pointer(&layout))},
	)
	if err != nil {
		return 0, errors.Wrap(err, "vkCreatePipelineLayout")
	}
	if res := Result(result); !res.Succeeded() {
		return 0, errors.Wrap(res, "vkCreatePipelineLayout")
	}
	return PipelineLayout(layout), nil
}

func (c *Context) DestroyPipelineLayout(l PipelineLayout) {
	device := uint64(c.Device)
	h := uint64(l)
	c.fns.call("vkDestroyPipelineLayout", false, "void_handle_handle_ptr",
		types.VoidTypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.UInt64TypeDescriptor, types.PointerTypeDescriptor},
		nil,
		[]unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&h), ptrToPtr(nil)},
	)
}

// RenderPassConfig describes the single color (and optional depth/stencil)
// attachment every script's window render pass uses. A window keeps two of
// these alive: FirstUse picks DONT_CARE/UNDEFINED for the render pass
// nobody has drawn into yet, versus LOAD/COLOR_ATTACHMENT_OPTIMAL once a
// prior pass already has contents worth preserving.
type RenderPassConfig struct {
	ColorFormat        Format
	HasDepthStencil    bool
	DepthStencilFormat Format
	FirstUse           bool
}

func (c *Context) CreateRenderPass(cfg RenderPassConfig) (RenderPass, error) {
	loadOp := uint32(0)        // VK_ATTACHMENT_LOAD_OP_LOAD
	initialLayout := uint32(2) // VK_IMAGE_LAYOUT_COLOR_ATTACHMENT_OPTIMAL
	if cfg.FirstUse {
		loadOp = 2        // VK_ATTACHMENT_LOAD_OP_DONT_CARE
		initialLayout = 0 // VK_IMAGE_LAYOUT_UNDEFINED
	}

	attachments := newBuilder()
	attachments.PutU32(0). // flags
				PutU32(uint32(cfg.ColorFormat)).
				PutU32(1). // samples
				PutU32(loadOp).
				PutU32(0). // storeOp: STORE
				PutU32(2). // stencilLoadOp: DONT_CARE
				PutU32(1). // stencilStoreOp: DONT_CARE
				PutU32(initialLayout).
				PutU32(1) // finalLayout: GENERAL (probe reads back through the same layout)
	attachmentCount := uint32(1)
	if cfg.HasDepthStencil {
		attachments.PutU32(0).
			PutU32(uint32(cfg.DepthStencilFormat)).
			PutU32(1).
			PutU32(2).PutU32(0).
			PutU32(2).PutU32(0).
			PutU32(0).PutU32(1)
		attachmentCount = 2
	}

	colorRef := newBuilder()
	colorRef.PutU32(0).PutU32(1) // attachment=0, layout=GENERAL
	depthRef := newBuilder()
	if cfg.HasDepthStencil {
		depthRef.PutU32(1).PutU32(1)
	}

	subpass := newBuilder()
	subpass.PutU32(0).                                  // flags
		PutU32(0).                                  // pipelineBindPoint: GRAPHICS
		PutU32(0).PutPtr(nil).                      // inputAttachmentCount/pInputAttachments
		PutU32(1).PutPtr(colorRef.Pointer()).Keep(colorRef). // colorAttachmentCount/pColorAttachments
		PutPtr(nil) // pResolveAttachments
	if cfg.HasDepthStencil {
		subpass.PutPtr(depthRef.Pointer()).Keep(depthRef)
	} else {
		subpass.PutPtr(nil)
	}
	subpass.PutU32(0).PutPtr(nil) // preserveAttachmentCount/pPreserveAttachments

	ci := newBuilder()
	ci.PutU32(structTypeRenderPassCreateInfo).PutPtr(nil).
		PutU32(0). // flags
		PutU32(attachmentCount).PutPtr(attachments.Pointer()).Keep(attachments).
		PutU32(1).PutPtr(subpass.Pointer()).Keep(subpass).
		PutU32(0).PutPtr(nil) // dependencyCount/pDependencies

	device := uint64(c.Device)
	var rp uint64
	var result int32
	err := c.fns.call("vkCreateRenderPass", false, "result_handle_ptr_ptr_ptr",
		types.SInt32TypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.PointerTypeDescriptor, types.PointerTypeDescriptor, types.PointerTypeDescriptor},
		unsafe.Pointer(&result),
		[]unsafe.Pointer{unsafe.Pointer(&device), ptrToPtr(ci.Pointer()), ptrToPtr(nil), ptrToPtr(unsafe.Pointer(&rp))},
	)
	if err != nil {
		return 0, errors.Wrap(err, "vkCreateRenderPass")
	}
	if res := Result(result); !res.Succeeded() {
		return 0, errors.Wrap(res, "vkCreateRenderPass")
	}
	return RenderPass(rp), nil
}

func (c *Context) DestroyRenderPass(rp RenderPass) {
	device := uint64(c.Device)
	h := uint64(rp)
	c.fns.call("vkDestroyRenderPass", false, "void_handle_handle_ptr",
		types.VoidTypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.UInt64TypeDescriptor, types.PointerTypeDescriptor},
		nil,
		[]unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&h), ptrToPtr(nil)},
	)
}

func (c *Context) CreateFramebuffer(rp RenderPass, views []ImageView, width, height uint32) (Framebuffer, error) {
	handles := make([]uint64, len(views))
	for i, v := range views {
		handles[i] = uint64(v)
	}
	ci := newBuilder()
	ci.PutU32(structTypeFramebufferCreateInfo).PutPtr(nil).
		PutU32(0). // flags
		PutU64(uint64(rp)).
		PutU32(uint32(len(views)))
	if len(handles) > 0 {
		ci.PutPtr(unsafe.Pointer(&handles[0])).Keep(handles)
	} else {
		ci.PutPtr(nil)
	}
	ci.PutU32(width).PutU32(height).PutU32(1)

	device := uint64(c.Device)
	var fb uint64
	var result int32
	err := c.fns.call("vkCreateFramebuffer", false, "result_handle_ptr_ptr_ptr",
		types.SInt32TypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.PointerTypeDescriptor, types.PointerTypeDescriptor, types.PointerTypeDescriptor},
		unsafe.Pointer(&result),
		[]unsafe.Pointer{unsafe.Pointer(&device), ptrToPtr(ci.Pointer()), ptrToPtr(nil), ptrToPtr(unsafe.Pointer(&fb))},
	)
	if err != nil {
		return 0, errors.Wrap(err, "vkCreateFramebuffer")
	}
	if res := Result(result); !res.Succeeded() {
		return 0, errors.Wrap(res, "vkCreateFramebuffer")
	}
	return Framebuffer(fb), nil
}

func (c *Context) DestroyFramebuffer(fb Framebuffer) {
	device := uint64(c.Device)
	h := uint64(fb)
	c.fns.call("vkDestroyFramebuffer", false, "void_handle_handle_ptr",
		types.VoidTypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.UInt64TypeDescriptor, types.PointerTypeDescriptor},
		nil,
		[]unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&h), ptrToPtr(nil)},
	)
}

// ShaderStage pairs a shader module with its entry point and the
// VkShaderStageFlagBits it runs at.
type ShaderStage struct {
	Stage      uint32
	Module     ShaderModule
	EntryPoint string
}

// GraphicsPipelineConfig captures the pipeline-state fields pipelinekey.Key
// carries: this is the translation from that flat property bag into the
// nested VkGraphicsPipelineCreateInfo this function builds.
type GraphicsPipelineConfig struct {
	Layout             PipelineLayout
	RenderPass         RenderPass
	Stages             []ShaderStage
	Topology           uint32
	PatchControlPoints uint32
	PolygonMode        uint32
	CullMode           uint32
	FrontFace          uint32
	DepthTestEnable    bool
	DepthWriteEnable   bool
	DepthCompareOp     uint32
	BasePipeline       Pipeline // non-zero enables derivative creation
	// AllowDerivatives sets VK_PIPELINE_CREATE_ALLOW_DERIVATIVES_BIT; set
	// on the first graphics pipeline built when the script has two or
	// more, so later keys can set BasePipeline to it.
	AllowDerivatives bool

	// VertexStride is the byte stride of the single interleaved vertex
	// buffer a VertexData-sourced key binds at binding 0. Zero means no
	// vertex input (a Rectangle-sourced key, whose vertices the
	// execution engine pushes through scratch geometry instead).
	VertexStride uint32
	// VertexAttributes describes the attributes packed into that buffer,
	// one per [vertex data] column.
	VertexAttributes []VertexAttribute
}

// VertexAttribute is one `[vertex data]` column translated into a
// VkVertexInputAttributeDescription: it reads Format-sized/typed data
// starting at Offset bytes into each vertex.
type VertexAttribute struct {
	Location uint32
	Format   Format
	Offset   uint32
}

// CreateGraphicsPipeline assembles and submits a single-entry
// vkCreateGraphicsPipelines call. When cfg.BasePipeline is non-zero the
// pipeline is created as its derivative, the seeding scheme
// pipelinecache.Cache uses to speed up compilation of near-identical keys.
func (c *Context) CreateGraphicsPipeline(cfg GraphicsPipelineConfig) (Pipeline, error) {
	stages := newBuilder()
	for _, s := range cfg.Stages {
		name := cString(s.EntryPoint)
		stages.PutU32(structTypePipelineShaderStageCreateInfo).PutPtr(nil).
			PutU32(0). // flags
			PutU32(s.Stage).
			PutU64(uint64(s.Module)).
			PutPtr(unsafe.Pointer(&name[0])).Keep(name).
			PutPtr(nil) // pSpecializationInfo
	}

	vertexInput := newBuilder()
	vertexInput.PutU32(structTypePipelineVertexInputStateCreateInfo).PutPtr(nil).PutU32(0)
	if cfg.VertexStride > 0 {
		binding := newBuilder()
		binding.PutU32(0).PutU32(cfg.VertexStride).PutU32(0) // binding/stride/inputRate=VERTEX

		attrs := newBuilder()
		for _, a := range cfg.VertexAttributes {
			attrs.PutU32(a.Location).PutU32(0).PutU32(uint32(a.Format)).PutU32(a.Offset)
		}
		vertexInput.PutU32(1).PutPtr(binding.Pointer()).Keep(binding)
		if len(cfg.VertexAttributes) > 0 {
			vertexInput.PutU32(uint32(len(cfg.VertexAttributes))).PutPtr(attrs.Pointer()).Keep(attrs)
		} else {
			vertexInput.PutU32(0).PutPtr(nil)
		}
	} else {
		vertexInput.PutU32(0).PutPtr(nil). // vertexBindingDescriptionCount/pVertexBindingDescriptions
			PutU32(0).PutPtr(nil) // vertexAttributeDescriptionCount/pVertexAttributeDescriptions
	}

	inputAssembly := newBuilder()
	inputAssembly.PutU32(structTypePipelineInputAssemblyStateCreateInfo).PutPtr(nil).
		PutU32(0).
		PutU32(cfg.Topology).
		PutU32(0) // primitiveRestartEnable

	viewport := newBuilder()
	viewport.PutU32(structTypePipelineViewportStateCreateInfo).PutPtr(nil).
		PutU32(0).
		PutU32(1).PutPtr(nil). // viewportCount/pViewports (dynamic)
		PutU32(1).PutPtr(nil)  // scissorCount/pScissors (dynamic)

	rasterization := newBuilder()
	rasterization.PutU32(structTypePipelineRasterizationStateCreateInfo).PutPtr(nil).
		PutU32(0).
		PutU32(0).              // depthClampEnable
		PutU32(0).              // rasterizerDiscardEnable
		PutU32(cfg.PolygonMode).
		PutU32(cfg.CullMode).
		PutU32(cfg.FrontFace).
		PutU32(0).               // depthBiasEnable
		PutFloat32(0).PutFloat32(0).PutFloat32(0). // depthBiasConstantFactor/Clamp/SlopeFactor
		PutFloat32(1.0)           // lineWidth

	multisample := newBuilder()
	multisample.PutU32(structTypePipelineMultisampleStateCreateInfo).PutPtr(nil).
		PutU32(0).
		PutU32(1). // rasterizationSamples: 1
		PutU32(0). // sampleShadingEnable
		PutFloat32(0).
		PutPtr(nil). // pSampleMask
		PutU32(0).PutU32(0)

	depthStencil := newBuilder()
	depthTest, depthWrite := uint32(0), uint32(0)
	if cfg.DepthTestEnable {
		depthTest = 1
	}
	if cfg.DepthWriteEnable {
		depthWrite = 1
	}
	depthStencil.PutU32(structTypePipelineDepthStencilStateCreateInfo).PutPtr(nil).
		PutU32(0).
		PutU32(depthTest).
		PutU32(depthWrite).
		PutU32(cfg.DepthCompareOp).
		PutU32(0). // depthBoundsTestEnable
		PutU32(0)  // stencilTestEnable

	colorBlendAttachment := newBuilder()
	colorBlendAttachment.PutU32(0). // blendEnable
						PutU32(0).PutU32(0).PutU32(0). // srcColorBlendFactor/dstColorBlendFactor/colorBlendOp
						PutU32(0).PutU32(0).PutU32(0). // srcAlphaBlendFactor/dstAlphaBlendFactor/alphaBlendOp
						PutU32(0xf)                      // colorWriteMask: RGBA

	colorBlend := newBuilder()
	colorBlend.PutU32(structTypePipelineColorBlendStateCreateInfo).PutPtr(nil).
		PutU32(0).
		PutU32(0).  // logicOpEnable
		PutU32(0).  // logicOp
		PutU32(1).PutPtr(colorBlendAttachment.Pointer()).Keep(colorBlendAttachment).
		PutFloat32(0).PutFloat32(0).PutFloat32(0).PutFloat32(0) // blendConstants

	dynamicStates := []uint32{0, 1} // VIEWPORT, SCISSOR
	dynamicStatesBuf := newBuilder()
	for _, s := range dynamicStates {
		dynamicStatesBuf.PutU32(s)
	}
	dynamic := newBuilder()
	dynamic.PutU32(structTypePipelineDynamicStateCreateInfo).PutPtr(nil).
		PutU32(0).
		PutU32(uint32(len(dynamicStates))).PutPtr(dynamicStatesBuf.Pointer()).Keep(dynamicStatesBuf)

	tessellation := newBuilder()
	var tessPtr unsafe.Pointer
	if cfg.Topology == 10 { // VK_PRIMITIVE_TOPOLOGY_PATCH_LIST
		tessellation.PutU32(21).PutPtr(nil). // VkPipelineTessellationStateCreateInfo
							PutU32(0).
							PutU32(cfg.PatchControlPoints)
		tessPtr = tessellation.Pointer()
	}

	flags := uint32(0)
	if cfg.BasePipeline != 0 {
		flags = 1 << 1 // VK_PIPELINE_CREATE_DERIVATIVE_BIT
	} else if cfg.AllowDerivatives {
		flags = 1 << 0 // VK_PIPELINE_CREATE_ALLOW_DERIVATIVES_BIT
	}

	ci := newBuilder()
	ci.PutU32(structTypeGraphicsPipelineCreateInfo).PutPtr(nil).
		PutU32(flags).
		PutU32(uint32(len(cfg.Stages))).PutPtr(stages.Pointer()).Keep(stages).
		PutPtr(vertexInput.Pointer()).Keep(vertexInput).
		PutPtr(inputAssembly.Pointer()).Keep(inputAssembly).
		PutPtr(tessPtr).Keep(tessellation).
		PutPtr(viewport.Pointer()).Keep(viewport).
		PutPtr(rasterization.Pointer()).Keep(rasterization).
		PutPtr(multisample.Pointer()).Keep(multisample).
		PutPtr(depthStencil.Pointer()).Keep(depthStencil).
		PutPtr(colorBlend.Pointer()).Keep(colorBlend).
		PutPtr(dynamic.Pointer()).Keep(dynamic).
		PutU64(uint64(cfg.Layout)).
		PutU64(uint64(cfg.RenderPass)).
		PutU32(0). // subpass
		PutU64(uint64(cfg.BasePipeline)).
		PutI32(-1) // basePipelineIndex: unused, we always reference by handle

	device := uint64(c.Device)
	var pipeline uint64
	var result int32
	err := c.fns.call("vkCreateGraphicsPipelines", false, "result_handle_handle_u32_ptr_ptr_ptr",
		types.SInt32TypeDescriptor,
		[]*types.TypeDescriptor{
			types.UInt64TypeDescriptor, types.UInt64TypeDescriptor, types.UInt32TypeDescriptor,
			types.PointerTypeDescriptor, types.PointerTypeDescriptor, types.PointerTypeDescriptor,
		},
		unsafe.Pointer(&result),
		[]unsafe.Pointer{
			unsafe.Pointer(&device), ptrToPtr(nil) /* pipelineCache */, ptrToPtr(nil),
			ptrToPtr(ci.Pointer()), ptrToPtr(nil), ptrToPtr(unsafe.Pointer(&pipeline)),
		},
	)
	if err != nil {
		return 0, errors.Wrap(err, "vkCreateGraphicsPipelines")
	}
	if res := Result(result); !res.Succeeded() {
		return 0, errors.Wrap(res, "vkCreateGraphicsPipelines")
	}
	return Pipeline(pipeline), nil
}

// CreateComputePipeline assembles a single-stage compute pipeline.
func (c *Context) CreateComputePipeline(layout PipelineLayout, stage ShaderStage, basePipeline Pipeline) (Pipeline, error) {
	name := cString(stage.EntryPoint)
	stageInfo := newBuilder()
	stageInfo.PutU32(structTypePipelineShaderStageCreateInfo).PutPtr(nil).
		PutU32(0).
		PutU32(stage.Stage).
		PutU64(uint64(stage.Module)).
		PutPtr(unsafe.Pointer(&name[0])).Keep(name).
		PutPtr(nil)

	flags := uint32(0)
	basePipelineHandle := int64(-1)
	if basePipeline != 0 {
		flags = 1 << 1
		basePipelineHandle = int64(basePipeline)
	}

	ci := newBuilder()
	ci.PutU32(structTypeComputePipelineCreateInfo).PutPtr(nil).
		PutU32(flags).
		PutPtr(stageInfo.Pointer()).Keep(stageInfo).
		PutU64(uint64(layout)).
		PutU64(0).
		PutI32(int32(basePipelineHandle))

	device := uint64(c.Device)
	var pipeline uint64
	var result int32
	err := c.fns.call("vkCreateComputePipelines", false, "result_handle_handle_u32_ptr_ptr_ptr",
		types.SInt32TypeDescriptor,
		[]*types.TypeDescriptor{
			types.UInt64TypeDescriptor, types.UInt64TypeDescriptor, types.UInt32TypeDescriptor,
			types.PointerTypeDescriptor, types.PointerTypeDescriptor, types.PointerTypeDescriptor,
		},
		unsafe.Pointer(&result),
		[]unsafe.Pointer{
			unsafe.Pointer(&device), ptrToPtr(nil), ptrToPtr(nil),
			ptrToPtr(ci.Pointer()), ptrToPtr(nil), ptrToPtr(unsafe.Pointer(&pipeline)),
		},
	)
	if err != nil {
		return 0, errors.Wrap(err, "vkCreateComputePipelines")
	}
	if res := Result(result); !res.Succeeded() {
		return 0, errors.Wrap(res, "vkCreateComputePipelines")
	}
	return Pipeline(pipeline), nil
}

func (c *Context) DestroyPipeline(p Pipeline) {
	device := uint64(c.Device)
	h := uint64(p)
	c.fns.call("vkDestroyPipeline", false, "void_handle_handle_ptr",
		types.VoidTypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.UInt64TypeDescriptor, types.PointerTypeDescriptor},
		nil,
		[]unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&h), ptrToPtr(nil)},
	)
}

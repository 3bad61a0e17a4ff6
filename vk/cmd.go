// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vk

import (
	"unsafe"

	"github.com/go-webgpu/goffi/types"
	"github.com/pkg/errors"
)

const structTypeCommandPoolCreateInfo = 39
const structTypeCommandBufferAllocateInfo = 40
const structTypeCommandBufferBeginInfo = 42
const structTypeRenderPassBeginInfo = 43
const structTypeImageMemoryBarrier = 45

func (c *Context) CreateCommandPool() (CommandPool, error) {
	ci := newBuilder()
	ci.PutU32(structTypeCommandPoolCreateInfo).PutPtr(nil).
		PutU32(1 << 1). // VK_COMMAND_POOL_CREATE_RESET_COMMAND_BUFFER_BIT
		PutU32(c.QueueFamily)

	device := uint64(c.Device)
	var pool uint64
	var result int32
	err := c.fns.call("vkCreateCommandPool", false, "result_handle_ptr_ptr_ptr",
		types.SInt32TypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.PointerTypeDescriptor, types.PointerTypeDescriptor, types.PointerTypeDescriptor},
		unsafe.Pointer(&result),
		[]unsafe.Pointer{unsafe.Pointer(&device), ptrToPtr(ci.Pointer()), ptrToPtr(nil), ptrToPtr(unsafe.Pointer(&pool))},
	)
	if err != nil {
		return 0, errors.Wrap(err, "vkCreateCommandPool")
	}
	if res := Result(result); !res.Succeeded() {
		return 0, errors.Wrap(res, "vkCreateCommandPool")
	}
	return CommandPool(pool), nil
}

func (c *Context) DestroyCommandPool(pool CommandPool) {
	device := uint64(c.Device)
	h := uint64(pool)
	c.fns.call("vkDestroyCommandPool", false, "void_handle_handle_ptr",
		types.VoidTypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.UInt64TypeDescriptor, types.PointerTypeDescriptor},
		nil,
		[]unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&h), ptrToPtr(nil)},
	)
}

func (c *Context) AllocateCommandBuffer(pool CommandPool) (CommandBuffer, error) {
	ai := newBuilder()
	ai.PutU32(structTypeCommandBufferAllocateInfo).PutPtr(nil).
		PutU64(uint64(pool)).
		PutU32(0). // level: VK_COMMAND_BUFFER_LEVEL_PRIMARY
		PutU32(1)  // commandBufferCount

	device := uint64(c.Device)
	var cmdBuf uint64
	var result int32
	err := c.fns.call("vkAllocateCommandBuffers", false, "result_handle_ptr_ptr",
		types.SInt32TypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.PointerTypeDescriptor, types.PointerTypeDescriptor},
		unsafe.Pointer(&result),
		[]unsafe.Pointer{unsafe.Pointer(&device), ptrToPtr(ai.Pointer()), ptrToPtr(unsafe.Pointer(&cmdBuf))},
	)
	if err != nil {
		return 0, errors.Wrap(err, "vkAllocateCommandBuffers")
	}
	if res := Result(result); !res.Succeeded() {
		return 0, errors.Wrap(res, "vkAllocateCommandBuffers")
	}
	return CommandBuffer(cmdBuf), nil
}

func (c *Context) BeginCommandBuffer(cb CommandBuffer) error {
	bi := newBuilder()
	bi.PutU32(structTypeCommandBufferBeginInfo).PutPtr(nil).
		PutU32(1 << 0). // VK_COMMAND_BUFFER_USAGE_ONE_TIME_SUBMIT_BIT
		PutPtr(nil)     // pInheritanceInfo

	h := uint64(cb)
	var result int32
	err := c.fns.call("vkBeginCommandBuffer", false, "result_handle_ptr",
		types.SInt32TypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.PointerTypeDescriptor},
		unsafe.Pointer(&result),
		[]unsafe.Pointer{unsafe.Pointer(&h), ptrToPtr(bi.Pointer())},
	)
	if err != nil {
		return errors.Wrap(err, "vkBeginCommandBuffer")
	}
	if res := Result(result); !res.Succeeded() {
		return errors.Wrap(res, "vkBeginCommandBuffer")
	}
	return nil
}

func (c *Context) EndCommandBuffer(cb CommandBuffer) error {
	h := uint64(cb)
	var result int32
	err := c.fns.call("vkEndCommandBuffer", false, "result_handle",
		types.SInt32TypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor},
		unsafe.Pointer(&result),
		[]unsafe.Pointer{unsafe.Pointer(&h)},
	)
	if err != nil {
		return errors.Wrap(err, "vkEndCommandBuffer")
	}
	if res := Result(result); !res.Succeeded() {
		return errors.Wrap(res, "vkEndCommandBuffer")
	}
	return nil
}

// ClearValue is either a 4-float color or a depth/stencil pair, matching
// the VkClearValue union by always writing the wider of the two shapes.
type ClearValue struct {
	Color   [4]float32
	Depth   float32
	Stencil uint32
}

func (c *Context) CmdBeginRenderPass(cb CommandBuffer, rp RenderPass, fb Framebuffer, width, height uint32, clears []ClearValue) {
	clearBuf := newBuilder()
	for _, cl := range clears {
		clearBuf.PutFloat32(cl.Color[0]).PutFloat32(cl.Color[1]).PutFloat32(cl.Color[2]).PutFloat32(cl.Color[3])
	}

	bi := newBuilder()
	bi.PutU32(structTypeRenderPassBeginInfo).PutPtr(nil).
		PutU64(uint64(rp)).
		PutU64(uint64(fb)).
		PutI32(0).PutI32(0).PutU32(width).PutU32(height). // renderArea: offset + extent
		PutU32(uint32(len(clears)))
	if len(clears) > 0 {
		bi.PutPtr(clearBuf.Pointer()).Keep(clearBuf)
	} else {
		bi.PutPtr(nil)
	}

	h := uint64(cb)
	c.fns.call("vkCmdBeginRenderPass", false, "void_handle_ptr_u32",
		types.VoidTypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.PointerTypeDescriptor, types.UInt32TypeDescriptor},
		nil,
		[]unsafe.Pointer{unsafe.Pointer(&h), ptrToPtr(bi.Pointer()), ptrToPtr(u32ptr(0))},
	)
}

func u32ptr(v uint32) unsafe.Pointer { return unsafe.Pointer(&v) }

func (c *Context) CmdEndRenderPass(cb CommandBuffer) {
	h := uint64(cb)
	c.fns.call("vkCmdEndRenderPass", false, "void_handle",
		types.VoidTypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor},
		nil,
		[]unsafe.Pointer{unsafe.Pointer(&h)},
	)
}

func (c *Context) CmdBindPipeline(cb CommandBuffer, bindPoint uint32, p Pipeline) {
	h := uint64(cb)
	ph := uint64(p)
	c.fns.call("vkCmdBindPipeline", false, "void_handle_u32_handle",
		types.VoidTypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.UInt32TypeDescriptor, types.UInt64TypeDescriptor},
		nil,
		[]unsafe.Pointer{unsafe.Pointer(&h), ptrToPtr(u32ptr(bindPoint)), unsafe.Pointer(&ph)},
	)
}

func (c *Context) CmdBindVertexBuffers(cb CommandBuffer, buf Buffer, offset uint64) {
	h := uint64(cb)
	bh := uint64(buf)
	first := uint32(0)
	count := uint32(1)
	c.fns.call("vkCmdBindVertexBuffers", false, "void_handle_u32_u32_ptr_ptr",
		types.VoidTypeDescriptor,
		[]*types.TypeDescriptor{
			types.UInt64TypeDescriptor, types.UInt32TypeDescriptor, types.UInt32TypeDescriptor,
			types.PointerTypeDescriptor, types.PointerTypeDescriptor,
		},
		nil,
		[]unsafe.Pointer{
			unsafe.Pointer(&h), ptrToPtr(u32ptr(first)), ptrToPtr(u32ptr(count)),
			ptrToPtr(unsafe.Pointer(&bh)), ptrToPtr(unsafe.Pointer(&offset)),
		},
	)
}

func (c *Context) CmdBindIndexBuffer(cb CommandBuffer, buf Buffer, offset uint64, indexType uint32) {
	h := uint64(cb)
	bh := uint64(buf)
	c.fns.call("vkCmdBindIndexBuffer", false, "void_handle_handle_u64_u32",
		types.VoidTypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.UInt64TypeDescriptor, types.UInt64TypeDescriptor, types.UInt32TypeDescriptor},
		nil,
		[]unsafe.Pointer{unsafe.Pointer(&h), unsafe.Pointer(&bh), ptrToPtr(unsafe.Pointer(&offset)), ptrToPtr(u32ptr(indexType))},
	)
}

// CmdBindDescriptorSets binds sets as one contiguous run starting at
// firstSet - a script using descriptor sets 0..N binds all of them in a
// single call with firstSet=0.
func (c *Context) CmdBindDescriptorSets(cb CommandBuffer, bindPoint uint32, layout PipelineLayout, firstSet uint32, sets []DescriptorSet) {
	if len(sets) == 0 {
		return
	}
	h := uint64(cb)
	lh := uint64(layout)
	handles := make([]uint64, len(sets))
	for i, s := range sets {
		handles[i] = uint64(s)
	}
	count := uint32(len(sets))
	c.fns.call("vkCmdBindDescriptorSets", false, "void_handle_u32_handle_u32_u32_ptr_u32_ptr",
		types.VoidTypeDescriptor,
		[]*types.TypeDescriptor{
			types.UInt64TypeDescriptor, types.UInt32TypeDescriptor, types.UInt64TypeDescriptor,
			types.UInt32TypeDescriptor, types.UInt32TypeDescriptor, types.PointerTypeDescriptor,
			types.UInt32TypeDescriptor, types.PointerTypeDescriptor,
		},
		nil,
		[]unsafe.Pointer{
			unsafe.Pointer(&h), ptrToPtr(u32ptr(bindPoint)), unsafe.Pointer(&lh),
			ptrToPtr(u32ptr(firstSet)), ptrToPtr(u32ptr(count)), ptrToPtr(unsafe.Pointer(&handles[0])),
			ptrToPtr(u32ptr(0)), ptrToPtr(nil),
		},
	)
}

func (c *Context) CmdPushConstants(cb CommandBuffer, layout PipelineLayout, stageFlags uint32, data []byte) {
	if len(data) == 0 {
		return
	}
	h := uint64(cb)
	lh := uint64(layout)
	c.fns.call("vkCmdPushConstants", false, "void_handle_handle_u32_u32_u32_ptr",
		types.VoidTypeDescriptor,
		[]*types.TypeDescriptor{
			types.UInt64TypeDescriptor, types.UInt64TypeDescriptor, types.UInt32TypeDescriptor,
			types.UInt32TypeDescriptor, types.UInt32TypeDescriptor, types.PointerTypeDescriptor,
		},
		nil,
		[]unsafe.Pointer{
			unsafe.Pointer(&h), unsafe.Pointer(&lh), ptrToPtr(u32ptr(stageFlags)),
			ptrToPtr(u32ptr(0)), ptrToPtr(u32ptr(uint32(len(data)))), ptrToPtr(unsafe.Pointer(&data[0])),
		},
	)
}

func (c *Context) CmdDraw(cb CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	h := uint64(cb)
	c.fns.call("vkCmdDraw", false, "void_handle_u32x4",
		types.VoidTypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.UInt32TypeDescriptor, types.UInt32TypeDescriptor, types.UInt32TypeDescriptor, types.UInt32TypeDescriptor},
		nil,
		[]unsafe.Pointer{unsafe.Pointer(&h), ptrToPtr(u32ptr(vertexCount)), ptrToPtr(u32ptr(instanceCount)), ptrToPtr(u32ptr(firstVertex)), ptrToPtr(u32ptr(firstInstance))},
	)
}

func (c *Context) CmdDrawIndexed(cb CommandBuffer, indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	h := uint64(cb)
	c.fns.call("vkCmdDrawIndexed", false, "void_handle_u32x3_i32_u32",
		types.VoidTypeDescriptor,
		[]*types.TypeDescriptor{
			types.UInt64TypeDescriptor, types.UInt32TypeDescriptor, types.UInt32TypeDescriptor,
			types.UInt32TypeDescriptor, types.SInt32TypeDescriptor, types.UInt32TypeDescriptor,
		},
		nil,
		[]unsafe.Pointer{
			unsafe.Pointer(&h), ptrToPtr(u32ptr(indexCount)), ptrToPtr(u32ptr(instanceCount)),
			ptrToPtr(u32ptr(firstIndex)), ptrToPtr(i32ptr(vertexOffset)), ptrToPtr(u32ptr(firstInstance)),
		},
	)
}

func i32ptr(v int32) unsafe.Pointer { return unsafe.Pointer(&v) }

func (c *Context) CmdDispatch(cb CommandBuffer, x, y, z uint32) {
	h := uint64(cb)
	c.fns.call("vkCmdDispatch", false, "void_handle_u32x3",
		types.VoidTypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.UInt32TypeDescriptor, types.UInt32TypeDescriptor, types.UInt32TypeDescriptor},
		nil,
		[]unsafe.Pointer{unsafe.Pointer(&h), ptrToPtr(u32ptr(x)), ptrToPtr(u32ptr(y)), ptrToPtr(u32ptr(z))},
	)
}

// CmdClearAttachments clears the bound color attachment while inside a
// render pass instance - the "clear in pass" branch of the engine's clear
// command (resolved in favor of vkCmdClearAttachments
// whenever a render pass is currently active).
func (c *Context) CmdClearAttachments(cb CommandBuffer, color [4]float32, width, height uint32) {
	att := newBuilder()
	att.PutU32(1 << 0). // aspectMask: VK_IMAGE_ASPECT_COLOR_BIT
				PutU32(0). // colorAttachment index
				PutFloat32(color[0]).PutFloat32(color[1]).PutFloat32(color[2]).PutFloat32(color[3])

	rect := newBuilder()
	rect.PutI32(0).PutI32(0).PutU32(width).PutU32(height). // rect2D
								PutU32(0).PutU32(1)                      // baseArrayLayer/layerCount

	h := uint64(cb)
	c.fns.call("vkCmdClearAttachments", false, "void_handle_u32_ptr_u32_ptr",
		types.VoidTypeDescriptor,
		[]*types.TypeDescriptor{
			types.UInt64TypeDescriptor, types.UInt32TypeDescriptor, types.PointerTypeDescriptor,
			types.UInt32TypeDescriptor, types.PointerTypeDescriptor,
		},
		nil,
		[]unsafe.Pointer{
			unsafe.Pointer(&h), ptrToPtr(u32ptr(1)), ptrToPtr(att.Pointer()),
			ptrToPtr(u32ptr(1)), ptrToPtr(rect.Pointer()),
		},
	)
}

// CmdClearColorImage clears an image directly - the "clear pre-pass" branch
// used when no render pass is currently active.
func (c *Context) CmdClearColorImage(cb CommandBuffer, img Image, color [4]float32) {
	col := newBuilder()
	col.PutFloat32(color[0]).PutFloat32(color[1]).PutFloat32(color[2]).PutFloat32(color[3])

	rng := newBuilder()
	rng.PutU32(1). // aspectMask: COLOR
				PutU32(0).PutU32(1). // baseMipLevel/levelCount
				PutU32(0).PutU32(1)  // baseArrayLayer/layerCount

	h := uint64(cb)
	ih := uint64(img)
	c.fns.call("vkCmdClearColorImage", false, "void_handle_handle_u32_ptr_u32_ptr",
		types.VoidTypeDescriptor,
		[]*types.TypeDescriptor{
			types.UInt64TypeDescriptor, types.UInt64TypeDescriptor, types.UInt32TypeDescriptor,
			types.PointerTypeDescriptor, types.UInt32TypeDescriptor, types.PointerTypeDescriptor,
		},
		nil,
		[]unsafe.Pointer{
			unsafe.Pointer(&h), unsafe.Pointer(&ih), ptrToPtr(u32ptr(1)), // layout: GENERAL
			ptrToPtr(col.Pointer()), ptrToPtr(u32ptr(1)), ptrToPtr(rng.Pointer()),
		},
	)
}

func (c *Context) CmdClearDepthStencilImage(cb CommandBuffer, img Image, depth float32, stencil uint32) {
	ds := newBuilder()
	ds.PutFloat32(depth).PutU32(stencil)

	rng := newBuilder()
	rng.PutU32(1<<1 | 1<<2). // aspectMask: DEPTH|STENCIL
					PutU32(0).PutU32(1).
					PutU32(0).PutU32(1)

	h := uint64(cb)
	ih := uint64(img)
	c.fns.call("vkCmdClearDepthStencilImage", false, "void_handle_handle_u32_ptr_u32_ptr",
		types.VoidTypeDescriptor,
		[]*types.TypeDescriptor{
			types.UInt64TypeDescriptor, types.UInt64TypeDescriptor, types.UInt32TypeDescriptor,
			types.PointerTypeDescriptor, types.UInt32TypeDescriptor, types.PointerTypeDescriptor,
		},
		nil,
		[]unsafe.Pointer{
			unsafe.Pointer(&h), unsafe.Pointer(&ih), ptrToPtr(u32ptr(1)),
			ptrToPtr(ds.Pointer()), ptrToPtr(u32ptr(1)), ptrToPtr(rng.Pointer()),
		},
	)
}

// ImageBarrier describes one layout/access transition this runner issues -
// always a full-resource barrier, since every image here has one mip and
// one layer.
type ImageBarrier struct {
	Image         Image
	OldLayout     uint32
	NewLayout     uint32
	SrcAccessMask uint32
	DstAccessMask uint32
	AspectMask    uint32
}

func (c *Context) CmdPipelineBarrier(cb CommandBuffer, srcStage, dstStage uint32, barriers []ImageBarrier) {
	if len(barriers) == 0 {
		return
	}
	b := newBuilder()
	for _, bar := range barriers {
		b.PutU32(structTypeImageMemoryBarrier).PutPtr(nil).
			PutU32(bar.SrcAccessMask).PutU32(bar.DstAccessMask).
			PutU32(bar.OldLayout).PutU32(bar.NewLayout).
			PutU32(0xFFFFFFFF).PutU32(0xFFFFFFFF). // srcQueueFamilyIndex/dstQueueFamilyIndex: IGNORED
			PutU64(uint64(bar.Image)).
			PutU32(bar.AspectMask).PutU32(0).PutU32(1).PutU32(0).PutU32(1)
	}

	h := uint64(cb)
	c.fns.call("vkCmdPipelineBarrier", false, "void_handle_u32_u32_u32_u32_ptr_u32_ptr_u32_ptr",
		types.VoidTypeDescriptor,
		[]*types.TypeDescriptor{
			types.UInt64TypeDescriptor, types.UInt32TypeDescriptor, types.UInt32TypeDescriptor, types.UInt32TypeDescriptor,
			types.UInt32TypeDescriptor, types.PointerTypeDescriptor, types.UInt32TypeDescriptor, types.PointerTypeDescriptor,
			types.UInt32TypeDescriptor, types.PointerTypeDescriptor,
		},
		nil,
		[]unsafe.Pointer{
			unsafe.Pointer(&h), ptrToPtr(u32ptr(srcStage)), ptrToPtr(u32ptr(dstStage)), ptrToPtr(u32ptr(0)),
			ptrToPtr(u32ptr(0)), ptrToPtr(nil), ptrToPtr(u32ptr(0)), ptrToPtr(nil),
			ptrToPtr(u32ptr(uint32(len(barriers)))), ptrToPtr(b.Pointer()),
		},
	)
}

func (c *Context) CmdCopyImageToBuffer(cb CommandBuffer, img Image, buf Buffer, width, height uint32) {
	region := newBuilder()
	region.PutU64(0). // bufferOffset
				PutU32(0).PutU32(0). // bufferRowLength/bufferImageHeight: tightly packed
				PutU32(1).PutU32(0). // imageSubresource: aspectMask=COLOR, mipLevel=0, baseArrayLayer/layerCount handled below
				PutU32(0).PutU32(1). // baseArrayLayer/layerCount
				PutI32(0).PutI32(0).PutI32(0). // imageOffset
				PutU32(width).PutU32(height).PutU32(1) // imageExtent

	h := uint64(cb)
	ih := uint64(img)
	bh := uint64(buf)
	c.fns.call("vkCmdCopyImageToBuffer", false, "void_handle_handle_u32_handle_u32_ptr",
		types.VoidTypeDescriptor,
		[]*types.TypeDescriptor{
			types.UInt64TypeDescriptor, types.UInt64TypeDescriptor, types.UInt32TypeDescriptor,
			types.UInt64TypeDescriptor, types.UInt32TypeDescriptor, types.PointerTypeDescriptor,
		},
		nil,
		[]unsafe.Pointer{
			unsafe.Pointer(&h), unsafe.Pointer(&ih), ptrToPtr(u32ptr(1)), /* layout: GENERAL */
			unsafe.Pointer(&bh), ptrToPtr(u32ptr(1)), ptrToPtr(region.Pointer()),
		},
	)
}

// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vk

import (
	"unsafe"

	"github.com/go-webgpu/goffi/types"
	"github.com/pkg/errors"
)

const structTypeBufferCreateInfo = 12
const structTypeImageCreateInfo = 14

// BufferUsage and ImageUsage mirror the Vulkan bitmask flags this runner
// actually needs: vertex/index/uniform/storage buffers, and color/depth
// attachment or transfer-source images.
type BufferUsage uint32

const (
	BufferUsageTransferSrc   BufferUsage = 1 << 0
	BufferUsageTransferDst   BufferUsage = 1 << 1
	BufferUsageUniformBuffer BufferUsage = 1 << 4
	BufferUsageStorageBuffer BufferUsage = 1 << 5
	BufferUsageIndexBuffer   BufferUsage = 1 << 6
	BufferUsageVertexBuffer  BufferUsage = 1 << 7
)

type ImageUsage uint32

const (
	ImageUsageTransferSrc            ImageUsage = 1 << 0
	ImageUsageTransferDst            ImageUsage = 1 << 1
	ImageUsageColorAttachment        ImageUsage = 1 << 4
	ImageUsageDepthStencilAttachment ImageUsage = 1 << 5
)

// CreateBuffer creates a buffer of size bytes with the given usage flags,
// exclusive to the single queue family this runner always uses.
func (c *Context) CreateBuffer(size uint64, usage BufferUsage) (Buffer, error) {
	ci := newBuilder()
	ci.PutU32(structTypeBufferCreateInfo).PutPtr(nil).
		PutU32(0). // flags
		PutU64(size).
		PutU32(uint32(usage)).
		PutU32(0). // sharingMode: exclusive
		PutU32(0). // queueFamilyIndexCount
		PutPtr(nil)

	device := uint64(c.Device)
	var buf uint64
	var result int32
	err := c.fns.call("vkCreateBuffer", false, "result_handle_ptr_ptr_ptr",
		types.SInt32TypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.PointerTypeDescriptor, types.PointerTypeDescriptor, types.PointerTypeDescriptor},
		unsafe.Pointer(&result),
		[]unsafe.Pointer{unsafe.Pointer(&device), ptrToPtr(ci.Pointer()), ptrToPtr(nil), ptrToPtr(unsafe.Pointer(&buf))},
	)
	if err != nil {
		return 0, errors.Wrap(err, "vkCreateBuffer")
	}
	if res := Result(result); !res.Succeeded() {
		return 0, errors.Wrap(res, "vkCreateBuffer")
	}
	return Buffer(buf), nil
}

func (c *Context) DestroyBuffer(buf Buffer) {
	device := uint64(c.Device)
	h := uint64(buf)
	c.fns.call("vkDestroyBuffer", false, "void_handle_handle_ptr",
		types.VoidTypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.UInt64TypeDescriptor, types.PointerTypeDescriptor},
		nil,
		[]unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&h), ptrToPtr(nil)},
	)
}

// CreateImage2D creates a single-sample, single-mip, single-layer
// VK_IMAGE_TYPE_2D image - the only shape a window or probe-source image
// in this runner ever needs.
func (c *Context) CreateImage2D(format Format, width, height uint32, usage ImageUsage) (Image, error) {
	ci := newBuilder()
	ci.PutU32(structTypeImageCreateInfo).PutPtr(nil).
		PutU32(0).               // flags
		PutU32(1).               // imageType: VK_IMAGE_TYPE_2D
		PutU32(uint32(format)).
		PutU32(width).PutU32(height).PutU32(1). // extent
		PutU32(1). // mipLevels
		PutU32(1). // arrayLayers
		PutU32(1). // samples: VK_SAMPLE_COUNT_1_BIT (= 1 << 0)
		PutU32(0). // tiling: VK_IMAGE_TILING_OPTIMAL
		PutU32(uint32(usage)).
		PutU32(0). // sharingMode: exclusive
		PutU32(0).PutPtr(nil). // queueFamilyIndexCount/pQueueFamilyIndices
		PutU32(0) // initialLayout: VK_IMAGE_LAYOUT_UNDEFINED

	device := uint64(c.Device)
	var img uint64
	var result int32
	err := c.fns.call("vkCreateImage", false, "result_handle_ptr_ptr_ptr",
		types.SInt32TypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.PointerTypeDescriptor, types.PointerTypeDescriptor, types.PointerTypeDescriptor},
		unsafe.Pointer(&result),
		[]unsafe.Pointer{unsafe.Pointer(&device), ptrToPtr(ci.Pointer()), ptrToPtr(nil), ptrToPtr(unsafe.Pointer(&img))},
	)
	if err != nil {
		return 0, errors.Wrap(err, "vkCreateImage")
	}
	if res := Result(result); !res.Succeeded() {
		return 0, errors.Wrap(res, "vkCreateImage")
	}
	return Image(img), nil
}

func (c *Context) DestroyImage(img Image) {
	device := uint64(c.Device)
	h := uint64(img)
	c.fns.call("vkDestroyImage", false, "void_handle_handle_ptr",
		types.VoidTypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.UInt64TypeDescriptor, types.PointerTypeDescriptor},
		nil,
		[]unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&h), ptrToPtr(nil)},
	)
}

const structTypeImageViewCreateInfo = 15

// CreateImageView2D creates a VK_IMAGE_VIEW_TYPE_2D view over the image's
// single mip level and layer, covering aspectMask (color or depth/stencil).
func (c *Context) CreateImageView2D(img Image, format Format, aspectMask uint32) (ImageView, error) {
	ci := newBuilder()
	ci.PutU32(structTypeImageViewCreateInfo).PutPtr(nil).
		PutU32(0). // flags
		PutU64(uint64(img)).
		PutU32(1). // viewType: VK_IMAGE_VIEW_TYPE_2D
		PutU32(uint32(format)).
		PutU32(0).PutU32(0).PutU32(0).PutU32(0). // components: identity swizzle
		PutU32(aspectMask).
		PutU32(0).PutU32(1). // baseMipLevel/levelCount
		PutU32(0).PutU32(1)  // baseArrayLayer/layerCount

	device := uint64(c.Device)
	var view uint64
	var result int32
	err := c.fns.call("vkCreateImageView", false, "result_handle_ptr_ptr_ptr",
		types.SInt32TypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.PointerTypeDescriptor, types.PointerTypeDescriptor, types.PointerTypeDescriptor},
		unsafe.Pointer(&result),
		[]unsafe.Pointer{unsafe.Pointer(&device), ptrToPtr(ci.Pointer()), ptrToPtr(nil), ptrToPtr(unsafe.Pointer(&view))},
	)
	if err != nil {
		return 0, errors.Wrap(err, "vkCreateImageView")
	}
	if res := Result(result); !res.Succeeded() {
		return 0, errors.Wrap(res, "vkCreateImageView")
	}
	return ImageView(view), nil
}

func (c *Context) DestroyImageView(view ImageView) {
	device := uint64(c.Device)
	h := uint64(view)
	c.fns.call("vkDestroyImageView", false, "void_handle_handle_ptr",
		types.VoidTypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.UInt64TypeDescriptor, types.PointerTypeDescriptor},
		nil,
		[]unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&h), ptrToPtr(nil)},
	)
}

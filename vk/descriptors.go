// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vk

import (
	"unsafe"

	"github.com/go-webgpu/goffi/types"
	"github.com/pkg/errors"
)

const structTypeDescriptorPoolCreateInfo = 33
const structTypeDescriptorSetAllocateInfo = 34
const structTypeWriteDescriptorSet = 35
const structTypeDescriptorBufferInfo = 0

// CreateDescriptorPool creates a pool sized for up to maxSets sets with a
// total of uboCount uniform-buffer bindings and ssboCount storage-buffer
// bindings across all of them - the shape a script using one or more
// descriptor sets needs, one vk.DescriptorSet allocated per used set.
func (c *Context) CreateDescriptorPool(maxSets, uboCount, ssboCount uint32) (DescriptorPool, error) {
	sizes := newBuilder()
	n := uint32(0)
	if uboCount > 0 {
		sizes.PutU32(6).PutU32(uboCount) // VK_DESCRIPTOR_TYPE_UNIFORM_BUFFER
		n++
	}
	if ssboCount > 0 {
		sizes.PutU32(7).PutU32(ssboCount) // VK_DESCRIPTOR_TYPE_STORAGE_BUFFER
		n++
	}
	if maxSets == 0 {
		maxSets = 1
	}

	ci := newBuilder()
	ci.PutU32(structTypeDescriptorPoolCreateInfo).PutPtr(nil).
		PutU32(0). // flags
		PutU32(maxSets).
		PutU32(n)
	if n > 0 {
		ci.PutPtr(sizes.Pointer()).Keep(sizes)
	} else {
		ci.PutPtr(nil)
	}

	device := uint64(c.Device)
	var pool uint64
	var result int32
	err := c.fns.call("vkCreateDescriptorPool", false, "result_handle_ptr_ptr_ptr",
		types.SInt32TypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.PointerTypeDescriptor, types.PointerTypeDescriptor, types.PointerTypeDescriptor},
		unsafe.Pointer(&result),
		[]unsafe.Pointer{unsafe.Pointer(&device), ptrToPtr(ci.Pointer()), ptrToPtr(nil), ptrToPtr(unsafe.Pointer(&pool))},
	)
	if err != nil {
		return 0, errors.Wrap(err, "vkCreateDescriptorPool")
	}
	if res := Result(result); !res.Succeeded() {
		return 0, errors.Wrap(res, "vkCreateDescriptorPool")
	}
	return DescriptorPool(pool), nil
}

func (c *Context) DestroyDescriptorPool(pool DescriptorPool) {
	device := uint64(c.Device)
	h := uint64(pool)
	c.fns.call("vkDestroyDescriptorPool", false, "void_handle_handle_ptr",
		types.VoidTypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.UInt64TypeDescriptor, types.PointerTypeDescriptor},
		nil,
		[]unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&h), ptrToPtr(nil)},
	)
}

func (c *Context) AllocateDescriptorSet(pool DescriptorPool, layout DescriptorSetLayout) (DescriptorSet, error) {
	lh := uint64(layout)
	ai := newBuilder()
	ai.PutU32(structTypeDescriptorSetAllocateInfo).PutPtr(nil).
		PutU64(uint64(pool)).
		PutU32(1).PutPtr(unsafe.Pointer(&lh))

	device := uint64(c.Device)
	var set uint64
	var result int32
	err := c.fns.call("vkAllocateDescriptorSets", false, "result_handle_ptr_ptr",
		types.SInt32TypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.PointerTypeDescriptor, types.PointerTypeDescriptor},
		unsafe.Pointer(&result),
		[]unsafe.Pointer{unsafe.Pointer(&device), ptrToPtr(ai.Pointer()), ptrToPtr(unsafe.Pointer(&set))},
	)
	if err != nil {
		return 0, errors.Wrap(err, "vkAllocateDescriptorSets")
	}
	if res := Result(result); !res.Succeeded() {
		return 0, errors.Wrap(res, "vkAllocateDescriptorSets")
	}
	return DescriptorSet(set), nil
}

// BufferBinding names one descriptor write: binding index, the buffer and
// byte range it covers, and whether it's a uniform or storage buffer.
type BufferBinding struct {
	Binding        uint32
	Buffer         Buffer
	Offset, Range  uint64
	DescriptorType uint32
}

func (c *Context) UpdateDescriptorSetBuffers(set DescriptorSet, bindings []BufferBinding) {
	if len(bindings) == 0 {
		return
	}
	writes := newBuilder()
	for _, b := range bindings {
		info := newBuilder()
		info.PutU64(uint64(b.Buffer)).PutU64(b.Offset).PutU64(b.Range)

		writes.PutU32(structTypeWriteDescriptorSet).PutPtr(nil).
			PutU64(uint64(set)).
			PutU32(b.Binding).
			PutU32(0). // dstArrayElement
			PutU32(1). // descriptorCount
			PutU32(b.DescriptorType).
			PutPtr(nil). // pImageInfo
			PutPtr(info.Pointer()).Keep(info).
			PutPtr(nil) // pTexelBufferView
	}

	device := uint64(c.Device)
	count := uint32(len(bindings))
	c.fns.call("vkUpdateDescriptorSets", false, "void_handle_u32_ptr_u32_ptr",
		types.VoidTypeDescriptor,
		[]*types.TypeDescriptor{
			types.UInt64TypeDescriptor, types.UInt32TypeDescriptor, types.PointerTypeDescriptor,
			types.UInt32TypeDescriptor, types.PointerTypeDescriptor,
		},
		nil,
		[]unsafe.Pointer{
			unsafe.Pointer(&device), ptrToPtr(u32ptr(count)), ptrToPtr(writes.Pointer()),
			ptrToPtr(u32ptr(0)), ptrToPtr(nil),
		},
	)
}

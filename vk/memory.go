// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vk

import (
	"unsafe"

	"github.com/go-webgpu/goffi/types"
	"github.com/pkg/errors"
)

const structTypeMemoryAllocateInfo = 5
const structTypeMappedMemoryRange = 6

// MemoryRequirements mirrors VkMemoryRequirements.
type MemoryRequirements struct {
	Size           uint64
	Alignment      uint64
	MemoryTypeBits uint32
}

func (c *Context) GetBufferMemoryRequirements(buf Buffer) MemoryRequirements {
	device := uint64(c.Device)
	b := uint64(buf)
	out := make([]byte, 24) // {size u64, alignment u64, memoryTypeBits u32 (+4 pad)}
	c.fns.call("vkGetBufferMemoryRequirements", false, "void_handle_handle_ptr",
		types.VoidTypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.UInt64TypeDescriptor, types.PointerTypeDescriptor},
		nil,
		[]unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&b), ptrToPtr(unsafe.Pointer(&out[0]))},
	)
	return MemoryRequirements{
		Size:           le64(out, 0),
		Alignment:      le64(out, 8),
		MemoryTypeBits: le32(out, 16),
	}
}

func (c *Context) GetImageMemoryRequirements(img Image) MemoryRequirements {
	device := uint64(c.Device)
	h := uint64(img)
	out := make([]byte, 24)
	c.fns.call("vkGetImageMemoryRequirements", false, "void_handle_handle_ptr",
		types.VoidTypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.UInt64TypeDescriptor, types.PointerTypeDescriptor},
		nil,
		[]unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&h), ptrToPtr(unsafe.Pointer(&out[0]))},
	)
	return MemoryRequirements{
		Size:           le64(out, 0),
		Alignment:      le64(out, 8),
		MemoryTypeBits: le32(out, 16),
	}
}

func le64(buf []byte, off int) uint64 {
	return uint64(le32(buf, off)) | uint64(le32(buf, off+4))<<32
}

// MemoryType mirrors one VkMemoryType entry: the property flags a memory
// type offers (host-visible, host-coherent, device-local, ...) and the
// heap it's backed by.
type MemoryType struct {
	PropertyFlags uint32
	HeapIndex     uint32
}

// MemoryProperties mirrors VkPhysicalDeviceMemoryProperties, trimmed to
// what memory-type selection needs.
type MemoryProperties struct {
	Types []MemoryType
}

// GetPhysicalDeviceMemoryProperties queries c.PhysicalDevice's memory
// types, the table resource.SelectMemoryType walks.
func (c *Context) GetPhysicalDeviceMemoryProperties() MemoryProperties {
	pd := uint64(c.PhysicalDevice)
	// VkPhysicalDeviceMemoryProperties: u32 memoryTypeCount;
	// VkMemoryType memoryTypes[32] ({u32 propertyFlags, u32 heapIndex});
	// u32 memoryHeapCount; VkMemoryHeap memoryHeaps[16] ({u64 size, u32 flags+pad}).
	const maxTypes = 32
	buf := make([]byte, 4+maxTypes*8+4+16*16)
	c.fns.call("vkGetPhysicalDeviceMemoryProperties", true, "void_handle_ptr",
		types.VoidTypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.PointerTypeDescriptor},
		nil,
		[]unsafe.Pointer{unsafe.Pointer(&pd), ptrToPtr(unsafe.Pointer(&buf[0]))},
	)
	count := le32(buf, 0)
	props := MemoryProperties{Types: make([]MemoryType, 0, count)}
	for i := uint32(0); i < count; i++ {
		off := 4 + int(i)*8
		props.Types = append(props.Types, MemoryType{
			PropertyFlags: le32(buf, off),
			HeapIndex:     le32(buf, off+4),
		})
	}
	return props
}

// AllocateMemory allocates size bytes from memoryTypeIndex, the index
// resource.SelectMemoryType picked.
func (c *Context) AllocateMemory(size uint64, memoryTypeIndex uint32) (DeviceMemory, error) {
	ai := newBuilder()
	ai.PutU32(structTypeMemoryAllocateInfo).PutPtr(nil).
		PutU64(size).
		PutU32(memoryTypeIndex)

	device := uint64(c.Device)
	var mem uint64
	var result int32
	err := c.fns.call("vkAllocateMemory", false, "result_handle_ptr_ptr_ptr",
		types.SInt32TypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.PointerTypeDescriptor, types.PointerTypeDescriptor, types.PointerTypeDescriptor},
		unsafe.Pointer(&result),
		[]unsafe.Pointer{unsafe.Pointer(&device), ptrToPtr(ai.Pointer()), ptrToPtr(nil), ptrToPtr(unsafe.Pointer(&mem))},
	)
	if err != nil {
		return 0, errors.Wrap(err, "vkAllocateMemory")
	}
	if res := Result(result); !res.Succeeded() {
		return 0, errors.Wrap(res, "vkAllocateMemory")
	}
	return DeviceMemory(mem), nil
}

func (c *Context) FreeMemory(mem DeviceMemory) {
	device := uint64(c.Device)
	h := uint64(mem)
	c.fns.call("vkFreeMemory", false, "void_handle_handle_ptr",
		types.VoidTypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.UInt64TypeDescriptor, types.PointerTypeDescriptor},
		nil,
		[]unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&h), ptrToPtr(nil)},
	)
}

// MapMemory maps the [offset, offset+size) range of mem and returns a Go
// slice aliasing that region. Callers must UnmapMemory before the
// underlying allocation is freed.
func (c *Context) MapMemory(mem DeviceMemory, offset, size uint64) ([]byte, error) {
	device := uint64(c.Device)
	h := uint64(mem)
	var ptr unsafe.Pointer
	var result int32
	err := c.fns.call("vkMapMemory", false, "result_handle_handle_u64x2_u32_ptr",
		types.SInt32TypeDescriptor,
		[]*types.TypeDescriptor{
			types.UInt64TypeDescriptor, types.UInt64TypeDescriptor,
			types.UInt64TypeDescriptor, types.UInt64TypeDescriptor,
			types.UInt32TypeDescriptor, types.PointerTypeDescriptor,
		},
		unsafe.Pointer(&result),
		[]unsafe.Pointer{
			unsafe.Pointer(&device), unsafe.Pointer(&h),
			ptrToPtr(unsafe.Pointer(&offset)), ptrToPtr(unsafe.Pointer(&size)),
			ptrToPtr(nil), ptrToPtr(unsafe.Pointer(&ptr)),
		},
	)
	if err != nil {
		return nil, errors.Wrap(err, "vkMapMemory")
	}
	if res := Result(result); !res.Succeeded() {
		return nil, errors.Wrap(res, "vkMapMemory")
	}
	return unsafe.Slice((*byte)(ptr), size), nil
}

func (c *Context) UnmapMemory(mem DeviceMemory) {
	device := uint64(c.Device)
	h := uint64(mem)
	c.fns.call("vkUnmapMemory", false, "void_handle_handle",
		types.VoidTypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.UInt64TypeDescriptor},
		nil,
		[]unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&h)},
	)
}

// MappedRange names a byte range of a mapped, non-coherent allocation to
// flush to the device or invalidate from the host's view.
type MappedRange struct {
	Memory DeviceMemory
	Offset uint64
	Size   uint64
}

func (c *Context) FlushMappedMemoryRanges(ranges []MappedRange) error {
	return c.mappedRangeCall("vkFlushMappedMemoryRanges", ranges)
}

func (c *Context) InvalidateMappedMemoryRanges(ranges []MappedRange) error {
	return c.mappedRangeCall("vkInvalidateMappedMemoryRanges", ranges)
}

func (c *Context) mappedRangeCall(name string, ranges []MappedRange) error {
	if len(ranges) == 0 {
		return nil
	}
	b := newBuilder()
	for _, r := range ranges {
		b.PutU32(structTypeMappedMemoryRange).PutPtr(nil).
			PutU64(uint64(r.Memory)).PutU64(r.Offset).PutU64(r.Size)
	}
	device := uint64(c.Device)
	count := uint32(len(ranges))
	var result int32
	err := c.fns.call(name, false, "result_handle_u32_ptr",
		types.SInt32TypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.UInt32TypeDescriptor, types.PointerTypeDescriptor},
		unsafe.Pointer(&result),
		[]unsafe.Pointer{unsafe.Pointer(&device), ptrToPtr(unsafe.Pointer(&count)), ptrToPtr(b.Pointer())},
	)
	if err != nil {
		return errors.Wrapf(err, "%s", name)
	}
	if res := Result(result); !res.Succeeded() {
		return errors.Wrapf(res, "%s", name)
	}
	return nil
}

func (c *Context) BindBufferMemory(buf Buffer, mem DeviceMemory, offset uint64) error {
	device := uint64(c.Device)
	b := uint64(buf)
	m := uint64(mem)
	var result int32
	err := c.fns.call("vkBindBufferMemory", false, "result_handle_handle_handle_u64",
		types.SInt32TypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.UInt64TypeDescriptor, types.UInt64TypeDescriptor, types.UInt64TypeDescriptor},
		unsafe.Pointer(&result),
		[]unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&b), unsafe.Pointer(&m), ptrToPtr(unsafe.Pointer(&offset))},
	)
	if err != nil {
		return errors.Wrap(err, "vkBindBufferMemory")
	}
	if res := Result(result); !res.Succeeded() {
		return errors.Wrap(res, "vkBindBufferMemory")
	}
	return nil
}

func (c *Context) BindImageMemory(img Image, mem DeviceMemory, offset uint64) error {
	device := uint64(c.Device)
	h := uint64(img)
	m := uint64(mem)
	var result int32
	err := c.fns.call("vkBindImageMemory", false, "result_handle_handle_handle_u64",
		types.SInt32TypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.UInt64TypeDescriptor, types.UInt64TypeDescriptor, types.UInt64TypeDescriptor},
		unsafe.Pointer(&result),
		[]unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&h), unsafe.Pointer(&m), ptrToPtr(unsafe.Pointer(&offset))},
	)
	if err != nil {
		return errors.Wrap(err, "vkBindImageMemory")
	}
	if res := Result(result); !res.Succeeded() {
		return errors.Wrap(res, "vkBindImageMemory")
	}
	return nil
}

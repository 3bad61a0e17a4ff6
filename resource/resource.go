// Copyright (C) 2017 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package resource allocates and binds the backing VkDeviceMemory for a
// script's buffers and images: one vkAllocateMemory call per heap, each
// buffer/image bound at an offset aligned to the larger of the
// device's bufferImageGranularity and its own memory requirement's
// alignment, with host-visible heaps mapped for the execution engine to
// read and write directly.
package resource

import (
	"github.com/google/vkrunner/vk"
	"github.com/pkg/errors"
)

// Memory property flags, the VkMemoryPropertyFlagBits this runner selects
// memory types by.
const (
	MemoryPropertyDeviceLocal  uint32 = 1 << 0
	MemoryPropertyHostVisible  uint32 = 1 << 1
	MemoryPropertyHostCoherent uint32 = 1 << 2
	MemoryPropertyHostCached   uint32 = 1 << 3
)

// SelectMemoryType picks a memory type index satisfying both typeBits (the
// AND of every resource's memoryTypeBits in the heap) and required (the
// property flags the caller needs): it scans the bits of that intersection
// low-to-high and returns the first index whose property flags are a
// superset of required.
func SelectMemoryType(props vk.MemoryProperties, typeBits uint32, required uint32) (uint32, bool) {
	for i, t := range props.Types {
		if typeBits&(1<<uint(i)) == 0 {
			continue
		}
		if t.PropertyFlags&required == required {
			return uint32(i), true
		}
	}
	return 0, false
}

// alignUp rounds offset up to the next multiple of align (align must be a
// power of two, as every Vulkan alignment requirement is).
func alignUp(offset, align uint64) uint64 {
	if align == 0 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}

// BufferRequest describes one buffer a Heap should create and back with
// memory.
type BufferRequest struct {
	Size  uint64
	Usage vk.BufferUsage
}

// BufferAllocation is one request's resulting object and its byte range
// within the heap's single VkDeviceMemory.
type BufferAllocation struct {
	Buffer vk.Buffer
	Offset uint64
	Size   uint64
}

// Heap is a single vkAllocateMemory-backed block of VkBuffers. A
// non-coherent heap must be flushed after host writes and invalidated
// before host reads; Coherent reports which is needed.
type Heap struct {
	ctx      *vk.Context
	Memory   vk.DeviceMemory
	Buffers  []BufferAllocation
	Coherent bool
	mapped   []byte
}

// AllocateBuffers creates one VkBuffer per request, sizes and binds a
// single VkDeviceMemory covering all of them, and maps it for host access.
// A host-visible + host-coherent memory type is tried first; if none fits,
// it retries with host-coherent dropped, tracking the heap as non-coherent
// so callers know to flush/invalidate explicitly.
func AllocateBuffers(ctx *vk.Context, requests []BufferRequest) (*Heap, error) {
	if len(requests) == 0 {
		return &Heap{ctx: ctx, Coherent: true}, nil
	}

	buffers := make([]vk.Buffer, len(requests))
	for i, r := range requests {
		b, err := ctx.CreateBuffer(r.Size, r.Usage)
		if err != nil {
			destroyBuffers(ctx, buffers[:i])
			return nil, errors.Wrapf(err, "creating buffer %d", i)
		}
		buffers[i] = b
	}

	offsets := make([]uint64, len(requests))
	var total uint64
	typeBits := ^uint32(0)
	granularity := ctx.GetPhysicalDeviceLimits()
	for i, b := range buffers {
		reqs := ctx.GetBufferMemoryRequirements(b)
		align := reqs.Alignment
		if granularity > align {
			align = granularity
		}
		total = alignUp(total, align)
		offsets[i] = total
		total += reqs.Size
		typeBits &= reqs.MemoryTypeBits
	}

	props := ctx.GetPhysicalDeviceMemoryProperties()
	required := MemoryPropertyHostVisible | MemoryPropertyHostCoherent
	coherent := true
	typeIndex, ok := SelectMemoryType(props, typeBits, required)
	if !ok {
		required = MemoryPropertyHostVisible
		coherent = false
		typeIndex, ok = SelectMemoryType(props, typeBits, required)
	}
	if !ok {
		destroyBuffers(ctx, buffers)
		return nil, errors.New("no memory type satisfies the requested buffer properties")
	}

	mem, err := ctx.AllocateMemory(total, typeIndex)
	if err != nil {
		destroyBuffers(ctx, buffers)
		return nil, errors.Wrap(err, "allocating buffer heap memory")
	}

	allocs := make([]BufferAllocation, len(requests))
	for i, b := range buffers {
		if err := ctx.BindBufferMemory(b, mem, offsets[i]); err != nil {
			ctx.FreeMemory(mem)
			destroyBuffers(ctx, buffers)
			return nil, errors.Wrapf(err, "binding buffer %d", i)
		}
		allocs[i] = BufferAllocation{Buffer: b, Offset: offsets[i], Size: requests[i].Size}
	}

	mapped, err := ctx.MapMemory(mem, 0, total)
	if err != nil {
		ctx.FreeMemory(mem)
		destroyBuffers(ctx, buffers)
		return nil, errors.Wrap(err, "mapping buffer heap memory")
	}

	return &Heap{ctx: ctx, Memory: mem, Buffers: allocs, Coherent: coherent, mapped: mapped}, nil
}

func destroyBuffers(ctx *vk.Context, buffers []vk.Buffer) {
	for _, b := range buffers {
		ctx.DestroyBuffer(b)
	}
}

// Write copies data into allocation index at offset within it, flushing
// the range to the device first if the heap isn't host-coherent.
func (h *Heap) Write(index int, offset uint64, data []byte) error {
	a := h.Buffers[index]
	if offset+uint64(len(data)) > a.Size {
		return errors.Errorf("write [%d,%d) exceeds buffer %d's size %d", offset, offset+uint64(len(data)), index, a.Size)
	}
	start := a.Offset + offset
	copy(h.mapped[start:], data)
	if h.Coherent {
		return nil
	}
	return h.ctx.FlushMappedMemoryRanges([]vk.MappedRange{{Memory: h.Memory, Offset: start, Size: uint64(len(data))}})
}

// Read returns a copy of allocation index's [offset, offset+size) bytes,
// invalidating the range from the device first if the heap isn't
// host-coherent.
func (h *Heap) Read(index int, offset, size uint64) ([]byte, error) {
	a := h.Buffers[index]
	if offset+size > a.Size {
		return nil, errors.Errorf("read [%d,%d) exceeds buffer %d's size %d", offset, offset+size, index, a.Size)
	}
	start := a.Offset + offset
	if !h.Coherent {
		if err := h.ctx.InvalidateMappedMemoryRanges([]vk.MappedRange{{Memory: h.Memory, Offset: start, Size: size}}); err != nil {
			return nil, err
		}
	}
	out := make([]byte, size)
	copy(out, h.mapped[start:start+size])
	return out, nil
}

// Destroy unmaps and frees the heap's memory and destroys every buffer it
// backs. Safe to call on a zero-value or partially built Heap.
func (h *Heap) Destroy() {
	if h == nil || h.ctx == nil {
		return
	}
	if h.Memory != 0 {
		h.ctx.UnmapMemory(h.Memory)
		h.ctx.FreeMemory(h.Memory)
		h.Memory = 0
	}
	destroyBuffers(h.ctx, bufferHandles(h.Buffers))
	h.Buffers = nil
}

func bufferHandles(allocs []BufferAllocation) []vk.Buffer {
	out := make([]vk.Buffer, len(allocs))
	for i, a := range allocs {
		out[i] = a.Buffer
	}
	return out
}

// ImageRequest describes one image an ImageHeap should create and back
// with memory.
type ImageRequest struct {
	Format Format
	Width  uint32
	Height uint32
	Usage  vk.ImageUsage
}

// Format aliases vk.Format so callers don't need both imports for the
// common case of naming an image's pixel format.
type Format = vk.Format

// ImageAllocation is one request's resulting object and its byte range
// within the heap's single VkDeviceMemory.
type ImageAllocation struct {
	Image  vk.Image
	Offset uint64
	Size   uint64
}

// ImageHeap is allocate_store_image's result: a single vkAllocateMemory
// covering every requested image, each bound device-local (images in this
// runner are always render targets or linear readback targets written by
// the device, never host-written directly).
type ImageHeap struct {
	ctx    *vk.Context
	Memory vk.DeviceMemory
	Images []ImageAllocation
}

// AllocateImages is allocate_store_buffer's analogue for images: same
// alignment and memory-type-intersection approach, device-local only (no
// image in this runner is ever mapped for host access - probe readback
// goes through a linear buffer, not a mapped image).
func AllocateImages(ctx *vk.Context, requests []ImageRequest) (*ImageHeap, error) {
	if len(requests) == 0 {
		return &ImageHeap{ctx: ctx}, nil
	}

	images := make([]vk.Image, len(requests))
	for i, r := range requests {
		img, err := ctx.CreateImage2D(r.Format, r.Width, r.Height, r.Usage)
		if err != nil {
			destroyImages(ctx, images[:i])
			return nil, errors.Wrapf(err, "creating image %d", i)
		}
		images[i] = img
	}

	offsets := make([]uint64, len(requests))
	var total uint64
	typeBits := ^uint32(0)
	granularity := ctx.GetPhysicalDeviceLimits()
	sizes := make([]uint64, len(requests))
	for i, img := range images {
		reqs := ctx.GetImageMemoryRequirements(img)
		align := reqs.Alignment
		if granularity > align {
			align = granularity
		}
		total = alignUp(total, align)
		offsets[i] = total
		sizes[i] = reqs.Size
		total += reqs.Size
		typeBits &= reqs.MemoryTypeBits
	}

	props := ctx.GetPhysicalDeviceMemoryProperties()
	typeIndex, ok := SelectMemoryType(props, typeBits, MemoryPropertyDeviceLocal)
	if !ok {
		destroyImages(ctx, images)
		return nil, errors.New("no memory type satisfies the requested image properties")
	}

	mem, err := ctx.AllocateMemory(total, typeIndex)
	if err != nil {
		destroyImages(ctx, images)
		return nil, errors.Wrap(err, "allocating image heap memory")
	}

	allocs := make([]ImageAllocation, len(requests))
	for i, img := range images {
		if err := ctx.BindImageMemory(img, mem, offsets[i]); err != nil {
			ctx.FreeMemory(mem)
			destroyImages(ctx, images)
			return nil, errors.Wrapf(err, "binding image %d", i)
		}
		allocs[i] = ImageAllocation{Image: img, Offset: offsets[i], Size: sizes[i]}
	}

	return &ImageHeap{ctx: ctx, Memory: mem, Images: allocs}, nil
}

func destroyImages(ctx *vk.Context, images []vk.Image) {
	for _, img := range images {
		ctx.DestroyImage(img)
	}
}

// Destroy frees the heap's memory and destroys every image it backs. Safe
// to call on a zero-value or partially built ImageHeap.
func (h *ImageHeap) Destroy() {
	if h == nil || h.ctx == nil {
		return
	}
	if h.Memory != 0 {
		h.ctx.FreeMemory(h.Memory)
		h.Memory = 0
	}
	for _, a := range h.Images {
		h.ctx.DestroyImage(a.Image)
	}
	h.Images = nil
}

// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vk

import (
	"math"
	"unsafe"

	"github.com/go-webgpu/goffi/types"
	"github.com/pkg/errors"
)

const structTypeFenceCreateInfo = 8
const structTypeSubmitInfo = 4

func (c *Context) CreateFence() (Fence, error) {
	ci := newBuilder()
	ci.PutU32(structTypeFenceCreateInfo).PutPtr(nil).PutU32(0) // flags: unsignaled

	device := uint64(c.Device)
	var fence uint64
	var result int32
	err := c.fns.call("vkCreateFence", false, "result_handle_ptr_ptr_ptr",
		types.SInt32TypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.PointerTypeDescriptor, types.PointerTypeDescriptor, types.PointerTypeDescriptor},
		unsafe.Pointer(&result),
		[]unsafe.Pointer{unsafe.Pointer(&device), ptrToPtr(ci.Pointer()), ptrToPtr(nil), ptrToPtr(unsafe.Pointer(&fence))},
	)
	if err != nil {
		return 0, errors.Wrap(err, "vkCreateFence")
	}
	if res := Result(result); !res.Succeeded() {
		return 0, errors.Wrap(res, "vkCreateFence")
	}
	return Fence(fence), nil
}

func (c *Context) DestroyFence(f Fence) {
	device := uint64(c.Device)
	h := uint64(f)
	c.fns.call("vkDestroyFence", false, "void_handle_handle_ptr",
		types.VoidTypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.UInt64TypeDescriptor, types.PointerTypeDescriptor},
		nil,
		[]unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&h), ptrToPtr(nil)},
	)
}

// WaitForFence blocks until f is signaled or the implementation's maximum
// timeout elapses. Scripts in this runner never cancel a submission, so
// there is no context-aware variant.
func (c *Context) WaitForFence(f Fence) error {
	device := uint64(c.Device)
	h := uint64(f)
	timeout := uint64(math.MaxUint64)
	var result int32
	err := c.fns.call("vkWaitForFences", false, "result_handle_u32_ptr_u32_u64",
		types.SInt32TypeDescriptor,
		[]*types.TypeDescriptor{
			types.UInt64TypeDescriptor, types.UInt32TypeDescriptor, types.PointerTypeDescriptor,
			types.UInt32TypeDescriptor, types.UInt64TypeDescriptor,
		},
		unsafe.Pointer(&result),
		[]unsafe.Pointer{
			unsafe.Pointer(&device), ptrToPtr(u32ptr(1)), ptrToPtr(unsafe.Pointer(&h)),
			ptrToPtr(u32ptr(1)), ptrToPtr(unsafe.Pointer(&timeout)),
		},
	)
	if err != nil {
		return errors.Wrap(err, "vkWaitForFences")
	}
	if res := Result(result); !res.Succeeded() {
		return errors.Wrap(res, "vkWaitForFences")
	}
	return nil
}

func (c *Context) ResetFence(f Fence) error {
	device := uint64(c.Device)
	h := uint64(f)
	var result int32
	err := c.fns.call("vkResetFences", false, "result_handle_u32_ptr",
		types.SInt32TypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.UInt32TypeDescriptor, types.PointerTypeDescriptor},
		unsafe.Pointer(&result),
		[]unsafe.Pointer{unsafe.Pointer(&device), ptrToPtr(u32ptr(1)), ptrToPtr(unsafe.Pointer(&h))},
	)
	if err != nil {
		return errors.Wrap(err, "vkResetFences")
	}
	if res := Result(result); !res.Succeeded() {
		return errors.Wrap(res, "vkResetFences")
	}
	return nil
}

// QueueSubmit submits a single command buffer and signals fence on
// completion - the only submission shape the execution engine issues
// (one command buffer per script, fence-synchronized, never
// batched with others).
func (c *Context) QueueSubmit(cb CommandBuffer, fence Fence) error {
	si := newBuilder()
	cbh := uint64(cb)
	si.PutU32(structTypeSubmitInfo).PutPtr(nil).
		PutU32(0).PutPtr(nil).PutPtr(nil). // waitSemaphoreCount/pWaitSemaphores/pWaitDstStageMask
		PutU32(1).PutPtr(unsafe.Pointer(&cbh)).
		PutU32(0).PutPtr(nil) // signalSemaphoreCount/pSignalSemaphores

	queue := uint64(c.Queue)
	fh := uint64(fence)
	var result int32
	err := c.fns.call("vkQueueSubmit", false, "result_handle_u32_ptr_handle",
		types.SInt32TypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.UInt32TypeDescriptor, types.PointerTypeDescriptor, types.UInt64TypeDescriptor},
		unsafe.Pointer(&result),
		[]unsafe.Pointer{unsafe.Pointer(&queue), ptrToPtr(u32ptr(1)), ptrToPtr(si.Pointer()), unsafe.Pointer(&fh)},
	)
	if err != nil {
		return errors.Wrap(err, "vkQueueSubmit")
	}
	if res := Result(result); !res.Succeeded() {
		return errors.Wrap(res, "vkQueueSubmit")
	}
	return nil
}

func (c *Context) DeviceWaitIdle() error {
	device := uint64(c.Device)
	var result int32
	err := c.fns.call("vkDeviceWaitIdle", false, "result_handle",
		types.SInt32TypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor},
		unsafe.Pointer(&result),
		[]unsafe.Pointer{unsafe.Pointer(&device)},
	)
	if err != nil {
		return errors.Wrap(err, "vkDeviceWaitIdle")
	}
	if res := Result(result); !res.Succeeded() {
		return errors.Wrap(res, "vkDeviceWaitIdle")
	}
	return nil
}

// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vk

import (
	"unsafe"

	"github.com/go-webgpu/goffi/types"
	"github.com/pkg/errors"
)

// CreateDevice creates a logical device on c.PhysicalDevice with a single
// queue from queueFamily and the given extensions enabled, then binds the
// device-level function table. Mirrors the "pick a family, create a device,
// fetch its queue" sequence every executor runs once per Context.
func (c *Context) CreateDevice(queueFamily uint32, extensions []string) error {
	queuePriority := newBuilder()
	queuePriority.PutFloat32(1.0)

	qci := newBuilder()
	qci.PutU32(structTypeDeviceQueueCreateInfo).PutPtr(nil).
		PutU32(0). // flags
		PutU32(queueFamily).
		PutU32(1). // queueCount
		PutPtr(queuePriority.Pointer()).Keep(queuePriority)

	extPtrs := make([]unsafe.Pointer, len(extensions))
	extBytes := make([][]byte, len(extensions))
	for i, e := range extensions {
		extBytes[i] = cString(e)
		extPtrs[i] = unsafe.Pointer(&extBytes[i][0])
	}

	dci := newBuilder()
	dci.PutU32(structTypeDeviceCreateInfo).PutPtr(nil).
		PutU32(0). // flags
		PutU32(1). // queueCreateInfoCount
		PutPtr(qci.Pointer()).Keep(qci).
		PutU32(0).PutU32(0). // enabled layer count/pp (deprecated, unused)
		PutU32(uint32(len(extensions)))
	if len(extPtrs) > 0 {
		dci.PutPtr(unsafe.Pointer(&extPtrs[0])).Keep(extPtrs).Keep(extBytes)
	} else {
		dci.PutPtr(nil)
	}
	dci.PutPtr(nil) // pEnabledFeatures: rely on defaults, requirements.Check gates what we use

	pd := uint64(c.PhysicalDevice)
	var device uint64
	var result int32
	err := c.fns.call("vkCreateDevice", true, "result_handle_ptr_ptr_ptr",
		types.SInt32TypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.PointerTypeDescriptor, types.PointerTypeDescriptor, types.PointerTypeDescriptor},
		unsafe.Pointer(&result),
		[]unsafe.Pointer{unsafe.Pointer(&pd), ptrToPtr(dci.Pointer()), ptrToPtr(nil), ptrToPtr(unsafe.Pointer(&device))},
	)
	if err != nil {
		return errors.Wrap(err, "vkCreateDevice")
	}
	if res := Result(result); !res.Succeeded() {
		return errors.Wrap(res, "vkCreateDevice")
	}
	c.Device = Device(device)
	c.QueueFamily = queueFamily
	c.fns.BindDevice(c.Device)
	c.getDeviceQueue(queueFamily)
	return nil
}

func getDeviceQueue(c *Context, family uint32) Queue {
	device := uint64(c.Device)
	var queue uint64
	c.fns.call("vkGetDeviceQueue", false, "void_handle_u32x2_ptr",
		types.VoidTypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.UInt32TypeDescriptor, types.UInt32TypeDescriptor, types.PointerTypeDescriptor},
		nil,
		[]unsafe.Pointer{unsafe.Pointer(&device), ptrToPtr(unsafe.Pointer(&family)), ptrToPtr(nil), ptrToPtr(unsafe.Pointer(&queue))},
	)
	return Queue(queue)
}

func destroyDevice(c *Context) {
	device := uint64(c.Device)
	c.fns.call("vkDestroyDevice", false, "void_handle_ptr",
		types.VoidTypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.PointerTypeDescriptor},
		nil,
		[]unsafe.Pointer{unsafe.Pointer(&device), ptrToPtr(nil)},
	)
}

// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package vk is the Vulkan function-pointer binding used by this runner: a
// loader that opens the platform Vulkan library (or accepts an injected
// get_proc_addr callback), and a per-context instance/device
// function table resolved from it. There is no process-global state - one
// Loader handle plus one instance table plus one device table, all owned
// by a Context, per the "no global function-pointer table" redesign note.
package vk

// Handles are the dispatchable/non-dispatchable Vulkan object types this
// runner touches. All are opaque 64-bit values from the driver's
// perspective (dispatchable handles are pointer-sized on every platform
// Vulkan supports; non-dispatchable handles are always uint64).
type (
	Instance             uint64
	PhysicalDevice        uint64
	Device                uint64
	Queue                 uint64
	CommandPool           uint64
	CommandBuffer         uint64
	Buffer                uint64
	Image                 uint64
	ImageView             uint64
	DeviceMemory          uint64
	ShaderModule          uint64
	DescriptorSetLayout   uint64
	DescriptorPool        uint64
	DescriptorSet         uint64
	PipelineLayout        uint64
	Pipeline              uint64
	PipelineCache         uint64
	RenderPass            uint64
	Framebuffer           uint64
	Fence                 uint64
	Semaphore             uint64
)

// Result mirrors VkResult. Values below zero are errors.
type Result int32

const (
	Success       Result = 0
	NotReady      Result = 1
	Timeout       Result = 2
	ErrorOutOfDeviceMemory Result = -2
	ErrorDeviceLost        Result = -4
)

// Succeeded reports whether r indicates success (>= 0, matching the
// VK_SUCCESS/"positive success codes" convention).
func (r Result) Succeeded() bool { return r >= 0 }

func (r Result) Error() string {
	switch r {
	case Success:
		return "VK_SUCCESS"
	case NotReady:
		return "VK_NOT_READY"
	case Timeout:
		return "VK_TIMEOUT"
	case ErrorOutOfDeviceMemory:
		return "VK_ERROR_OUT_OF_DEVICE_MEMORY"
	case ErrorDeviceLost:
		return "VK_ERROR_DEVICE_LOST"
	default:
		return "VkResult(" + itoa(int32(r)) + ")"
	}
}

func itoa(v int32) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var b [12]byte
	i := len(b)
	for v > 0 {
		i--
		b[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		b[i] = '-'
	}
	return string(b[i:])
}

// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vk

import (
	"unsafe"

	"github.com/go-webgpu/goffi/types"
	"github.com/google/vkrunner/requirements"
	"github.com/pkg/errors"
)

const structTypeApplicationInfo = 0
const structTypeInstanceCreateInfo = 1
const structTypeDeviceQueueCreateInfo = 2
const structTypeDeviceCreateInfo = 3
const structTypePhysicalDeviceFeatures2 = 1000059000

func createInstance(c *Context, appName string, extensions []string) error {
	app := newBuilder()
	appNameBytes := cString(appName)
	engNameBytes := cString("vkrunner")
	app.PutU32(structTypeApplicationInfo).PutPtr(nil).
		PutPtr(unsafe.Pointer(&appNameBytes[0])).Keep(appNameBytes).
		PutU32(0). // applicationVersion
		PutPtr(unsafe.Pointer(&engNameBytes[0])).Keep(engNameBytes).
		PutU32(0).       // engineVersion
		PutU32(1 << 22) // apiVersion: VK_API_VERSION_1_0-ish sentinel

	extPtrs := make([]unsafe.Pointer, len(extensions))
	extBytes := make([][]byte, len(extensions))
	for i, e := range extensions {
		extBytes[i] = cString(e)
		extPtrs[i] = unsafe.Pointer(&extBytes[i][0])
	}

	ci := newBuilder()
	ci.PutU32(structTypeInstanceCreateInfo).PutPtr(nil).
		PutU32(0). // flags
		PutPtr(app.Pointer()).Keep(app).
		PutU32(0).PutU32(0). // enabled layer count/pp (none)
		PutU32(uint32(len(extensions)))
	if len(extPtrs) > 0 {
		ci.PutPtr(unsafe.Pointer(&extPtrs[0])).Keep(extPtrs).Keep(extBytes)
	} else {
		ci.PutPtr(nil)
	}

	var instance uint64
	var result int32
	err := c.fns.call("vkCreateInstance", true, "result_ptr_ptr_ptr",
		types.SInt32TypeDescriptor,
		[]*types.TypeDescriptor{types.PointerTypeDescriptor, types.PointerTypeDescriptor, types.PointerTypeDescriptor},
		unsafe.Pointer(&result),
		[]unsafe.Pointer{unsafe.Pointer(ptrToPtr(ci.Pointer())), ptrToPtr(nil), ptrToPtr(unsafe.Pointer(&instance))},
	)
	if err != nil {
		return errors.Wrap(err, "vkCreateInstance")
	}
	if res := Result(result); !res.Succeeded() {
		return errors.Wrap(res, "vkCreateInstance")
	}
	c.Instance = Instance(instance)
	c.fns.BindInstance(c.Instance)
	return nil
}

// ptrToPtr returns a pointer to p itself, the "pointer to where the
// pointer-valued argument is stored" shape goffi's CallFunction expects for
// every pointer argument (see the calling-convention note grounding
// Context/Functions).
func ptrToPtr(p unsafe.Pointer) unsafe.Pointer {
	pp := p
	return unsafe.Pointer(&pp)
}

func destroyInstance(c *Context) {
	instance := uint64(c.Instance)
	c.fns.call("vkDestroyInstance", true, "void_handle_ptr",
		types.VoidTypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.PointerTypeDescriptor},
		nil,
		[]unsafe.Pointer{unsafe.Pointer(&instance), ptrToPtr(nil)},
	)
}

func firstPhysicalDevice(c *Context) (PhysicalDevice, error) {
	instance := uint64(c.Instance)
	var count uint32
	if err := c.fns.call("vkEnumeratePhysicalDevices", true, "result_handle_ptr_ptr",
		types.SInt32TypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.PointerTypeDescriptor, types.PointerTypeDescriptor},
		nil,
		[]unsafe.Pointer{unsafe.Pointer(&instance), ptrToPtr(unsafe.Pointer(&count)), ptrToPtr(nil)},
	); err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, errors.New("no physical devices")
	}
	devices := make([]uint64, count)
	if err := c.fns.call("vkEnumeratePhysicalDevices", true, "result_handle_ptr_ptr",
		types.SInt32TypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.PointerTypeDescriptor, types.PointerTypeDescriptor},
		nil,
		[]unsafe.Pointer{unsafe.Pointer(&instance), ptrToPtr(unsafe.Pointer(&count)), ptrToPtr(unsafe.Pointer(&devices[0]))},
	); err != nil {
		return 0, err
	}
	return PhysicalDevice(devices[0]), nil
}

// QueueFlagGraphics and QueueFlagCompute mirror VkQueueFlagBits; a script's
// single queue must support both, since its command sequence can interleave
// draws and dispatches.
const (
	QueueFlagGraphics uint32 = 1 << 0
	QueueFlagCompute  uint32 = 1 << 1
)

// SelectQueueFamily returns the index of the first queue family on
// c.PhysicalDevice advertising both graphics and compute support, the only
// kind of family this runner ever requests a queue from.
func (c *Context) SelectQueueFamily() (uint32, bool) {
	pd := uint64(c.PhysicalDevice)
	var count uint32
	c.fns.call("vkGetPhysicalDeviceQueueFamilyProperties", true, "void_handle_ptr_ptr",
		types.VoidTypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.PointerTypeDescriptor, types.PointerTypeDescriptor},
		nil,
		[]unsafe.Pointer{unsafe.Pointer(&pd), ptrToPtr(unsafe.Pointer(&count)), ptrToPtr(nil)},
	)
	if count == 0 {
		return 0, false
	}
	// VkQueueFamilyProperties is {queueFlags u32; queueCount u32;
	// timestampValidBits u32; minImageTransferGranularity{u32,u32,u32}}.
	const propSize = 4 * 6
	buf := make([]byte, int(count)*propSize)
	c.fns.call("vkGetPhysicalDeviceQueueFamilyProperties", true, "void_handle_ptr_ptr",
		types.VoidTypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.PointerTypeDescriptor, types.PointerTypeDescriptor},
		nil,
		[]unsafe.Pointer{unsafe.Pointer(&pd), ptrToPtr(unsafe.Pointer(&count)), ptrToPtr(unsafe.Pointer(&buf[0]))},
	)
	for i := 0; i < int(count); i++ {
		flags := le32(buf, i*propSize)
		if flags&QueueFlagGraphics != 0 && flags&QueueFlagCompute != 0 {
			return uint32(i), true
		}
	}
	return 0, false
}

func queryPhysicalFeatures(c *Context) physicalFeatures {
	pd := uint64(c.PhysicalDevice)
	// VkPhysicalDeviceFeatures is a flat struct of 55 VkBool32s; we only
	// need the ones requirements.BaseFeature names, at their known
	// declaration-order offsets.
	buf := make([]byte, 55*4)
	c.fns.call("vkGetPhysicalDeviceFeatures", true, "void_handle_ptr",
		types.VoidTypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.PointerTypeDescriptor},
		nil,
		[]unsafe.Pointer{unsafe.Pointer(&pd), ptrToPtr(unsafe.Pointer(&buf[0]))},
	)
	var out physicalFeatures
	// Field offsets (index * 4 bytes) within VkPhysicalDeviceFeatures,
	// matching the Vulkan 1.0 spec's declaration order.
	offsets := map[requirements.BaseFeature]int{
		requirements.RobustBufferAccess:               0,
		requirements.FullDrawIndexUint32:               1,
		requirements.ImageCubeArray:                    2,
		requirements.GeometryShader:                    4,
		requirements.TessellationShader:                5,
		requirements.SampleRateShading:                  6,
		requirements.DualSrcBlend:                       7,
		requirements.MultiViewport:                      18,
		requirements.SamplerAnisotropy:                  19,
		requirements.VertexPipelineStoresAndAtomics:     25,
		requirements.FragmentStoresAndAtomics:           26,
		requirements.ShaderStorageImageExtendedFormats:  29,
		requirements.ShaderStorageImageMultisample:      30,
	}
	for f, idx := range offsets {
		if le32(buf, idx*4) != 0 {
			out.bits |= 1 << uint(f)
		}
	}
	return out
}

// bufferImageGranularityOffset is VkPhysicalDeviceLimits.bufferImageGranularity's
// byte offset within VkPhysicalDeviceProperties: apiVersion/driverVersion/
// vendorID/deviceID/deviceType (5 u32 = 20) + deviceName[256] + pipelineCacheUUID[16]
// = 292, rounded up to limits' 8-byte alignment (296), plus the 11 leading
// u32 limits fields before the first VkDeviceSize (44, rounded up to 48).
const bufferImageGranularityOffset = 296 + 48

// GetPhysicalDeviceLimits reads the subset of VkPhysicalDeviceLimits the
// resource manager needs: the inter-resource alignment granularity between
// linear and optimal-tiled allocations sharing one VkDeviceMemory.
func (c *Context) GetPhysicalDeviceLimits() (bufferImageGranularity uint64) {
	pd := uint64(c.PhysicalDevice)
	buf := make([]byte, bufferImageGranularityOffset+8)
	c.fns.call("vkGetPhysicalDeviceProperties", true, "void_handle_ptr",
		types.VoidTypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.PointerTypeDescriptor},
		nil,
		[]unsafe.Pointer{unsafe.Pointer(&pd), ptrToPtr(unsafe.Pointer(&buf[0]))},
	)
	return le64(buf, bufferImageGranularityOffset)
}

// Format-feature bits this runner checks, from VkFormatFeatureFlagBits.
const (
	FormatFeatureColorAttachment        uint32 = 1 << 7
	FormatFeatureDepthStencilAttachment uint32 = 1 << 9
	FormatFeatureBlitSrc                uint32 = 1 << 10
)

// FormatProperties is the subset of VkFormatProperties the window bring-up
// check needs: which usages a format supports under linear and optimal
// tiling.
type FormatProperties struct {
	LinearTilingFeatures  uint32
	OptimalTilingFeatures uint32
	BufferFeatures        uint32
}

// GetPhysicalDeviceFormatProperties queries c.PhysicalDevice's support for
// format, used to verify a script's window color/depth-stencil format is
// usable before a Window is built from it.
func (c *Context) GetPhysicalDeviceFormatProperties(format Format) FormatProperties {
	pd := uint64(c.PhysicalDevice)
	f := uint32(format)
	buf := make([]byte, 12)
	c.fns.call("vkGetPhysicalDeviceFormatProperties", true, "void_handle_u32_ptr",
		types.VoidTypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.UInt32TypeDescriptor, types.PointerTypeDescriptor},
		nil,
		[]unsafe.Pointer{unsafe.Pointer(&pd), ptrToPtr(unsafe.Pointer(&f)), ptrToPtr(unsafe.Pointer(&buf[0]))},
	)
	return FormatProperties{
		LinearTilingFeatures:  le32(buf, 0),
		OptimalTilingFeatures: le32(buf, 4),
		BufferFeatures:        le32(buf, 8),
	}
}

func le32(buf []byte, off int) uint32 {
	return uint32(buf[off]) | uint32(buf[off+1])<<8 | uint32(buf[off+2])<<16 | uint32(buf[off+3])<<24
}

func queryDeviceExtensions(c *Context) map[string]bool {
	pd := uint64(c.PhysicalDevice)
	var count uint32
	c.fns.call("vkEnumerateDeviceExtensionProperties", true, "result_handle_ptr_ptr_ptr",
		types.SInt32TypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.PointerTypeDescriptor, types.PointerTypeDescriptor, types.PointerTypeDescriptor},
		nil,
		[]unsafe.Pointer{unsafe.Pointer(&pd), ptrToPtr(nil), ptrToPtr(unsafe.Pointer(&count)), ptrToPtr(nil)},
	)
	out := map[string]bool{}
	if count == 0 {
		return out
	}
	// VkExtensionProperties is {char name[256]; uint32 specVersion}.
	const extPropSize = 256 + 4
	buf := make([]byte, int(count)*extPropSize)
	c.fns.call("vkEnumerateDeviceExtensionProperties", true, "result_handle_ptr_ptr_ptr",
		types.SInt32TypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.PointerTypeDescriptor, types.PointerTypeDescriptor, types.PointerTypeDescriptor},
		nil,
		[]unsafe.Pointer{unsafe.Pointer(&pd), ptrToPtr(nil), ptrToPtr(unsafe.Pointer(&count)), ptrToPtr(unsafe.Pointer(&buf[0]))},
	)
	for i := 0; i < int(count); i++ {
		name := cStringAt(buf[i*extPropSize:])
		out[name] = true
	}
	return out
}

func cStringAt(buf []byte) string {
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i])
		}
	}
	return string(buf)
}

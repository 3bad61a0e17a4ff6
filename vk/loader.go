// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vk

import (
	"runtime"
	"unsafe"

	"github.com/go-webgpu/goffi/ffi"
	"github.com/go-webgpu/goffi/types"
	"github.com/pkg/errors"
)

// ProcAddrFunc is the shape of vkGetInstanceProcAddr/vkGetDeviceProcAddr:
// given a dispatchable handle (0 for global functions) and a null
// C-string-able name, it returns the raw function pointer, or nil if the
// command isn't supported.
type ProcAddrFunc func(handle uint64, name string) unsafe.Pointer

// Loader owns the platform Vulkan library handle and the bootstrap
// vkGetInstanceProcAddr entry point used to resolve every other command.
// A Loader is created once per Context, never shared process-wide.
type Loader struct {
	lib                unsafe.Pointer
	getInstanceProcAddr unsafe.Pointer
	cif                types.CallInterface
}

func platformLibraryName() string {
	switch runtime.GOOS {
	case "windows":
		return "vulkan-1.dll"
	case "darwin":
		return "libvulkan.dylib" // MoltenVK
	default:
		return "libvulkan.so.1"
	}
}

// OpenLoader opens the platform Vulkan loader library and prepares the
// vkGetInstanceProcAddr call interface.
func OpenLoader() (*Loader, error) {
	lib, err := ffi.LoadLibrary(platformLibraryName())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load Vulkan library %s", platformLibraryName())
	}
	fn, err := ffi.GetSymbol(lib, "vkGetInstanceProcAddr")
	if err != nil {
		ffi.FreeLibrary(lib)
		return nil, errors.Wrap(err, "vkGetInstanceProcAddr not found")
	}
	l := &Loader{lib: lib, getInstanceProcAddr: fn}
	if err := ffi.PrepareCallInterface(&l.cif, types.DefaultCall,
		types.PointerTypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.PointerTypeDescriptor},
	); err != nil {
		ffi.FreeLibrary(lib)
		return nil, errors.Wrap(err, "failed to prepare vkGetInstanceProcAddr interface")
	}
	return l, nil
}

// GetInstanceProcAddr resolves name against the bootstrap loader, matching
// vkGetInstanceProcAddr's semantics (instance=0 resolves global commands
// such as vkCreateInstance and vkEnumerateInstanceExtensionProperties).
func (l *Loader) GetInstanceProcAddr(instance Instance, name string) unsafe.Pointer {
	cname := append([]byte(name), 0)
	namePtr := unsafe.Pointer(&cname[0])
	var result unsafe.Pointer
	h := uint64(instance)
	args := [2]unsafe.Pointer{unsafe.Pointer(&h), unsafe.Pointer(&namePtr)}
	if err := ffi.CallFunction(&l.cif, l.getInstanceProcAddr, unsafe.Pointer(&result), args[:]); err != nil {
		return nil
	}
	return result
}

// AsProcAddrFunc adapts the loader to the ProcAddrFunc shape used by
// Context - the same injection point the public library surface exposes
// for a caller-supplied device.
func (l *Loader) AsProcAddrFunc() ProcAddrFunc {
	return func(handle uint64, name string) unsafe.Pointer {
		return l.GetInstanceProcAddr(Instance(handle), name)
	}
}

// Close releases the underlying library. Safe to call on a nil Loader.
func (l *Loader) Close() error {
	if l == nil || l.lib == nil {
		return nil
	}
	err := ffi.FreeLibrary(l.lib)
	l.lib = nil
	return err
}

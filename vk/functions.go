// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vk

import (
	"unsafe"

	"github.com/go-webgpu/goffi/ffi"
	"github.com/go-webgpu/goffi/types"
	"github.com/pkg/errors"
)

// Functions is the per-context instance and device function table: every
// entry point this runner calls is resolved exactly once, from the
// injected (or loader-provided) get_proc_addr, and cached here. There is
// deliberately no package-level table - two Contexts never share one.
type Functions struct {
	getInstanceProcAddr ProcAddrFunc
	getDeviceProcAddr   ProcAddrFunc

	instance Instance
	device   Device

	proc map[string]unsafe.Pointer
	cif  map[string]*types.CallInterface
}

// NewFunctions creates an (as yet unbound) function table. Call BindInstance
// once a VkInstance exists, and BindDevice once a VkDevice exists.
func NewFunctions(getInstanceProcAddr ProcAddrFunc) *Functions {
	return &Functions{
		getInstanceProcAddr: getInstanceProcAddr,
		proc:                map[string]unsafe.Pointer{},
		cif:                 map[string]*types.CallInterface{},
	}
}

// BindInstance records the VkInstance subsequent instance-level lookups
// resolve against.
func (f *Functions) BindInstance(instance Instance) { f.instance = instance }

// BindDevice records the VkDevice subsequent device-level lookups resolve
// against, and the vkGetDeviceProcAddr obtained through getInstanceProcAddr
// (the "SetDeviceProcAddr" pattern some drivers require, done once here
// rather than lazily per call).
func (f *Functions) BindDevice(device Device) {
	f.device = device
	if f.getDeviceProcAddr == nil {
		ptr := f.getInstanceProcAddr(uint64(f.instance), "vkGetDeviceProcAddr")
		if ptr != nil {
			f.getDeviceProcAddr = adaptDeviceProcAddr(ptr)
		}
	}
}

func (f *Functions) resolve(name string, instanceLevel bool) (unsafe.Pointer, error) {
	if p, ok := f.proc[name]; ok {
		return p, nil
	}
	var p unsafe.Pointer
	if instanceLevel || f.getDeviceProcAddr == nil {
		p = f.getInstanceProcAddr(uint64(f.instance), name)
	} else {
		p = f.getDeviceProcAddr(uint64(f.device), name)
	}
	if p == nil {
		return nil, errors.Errorf("vk: command %s not available", name)
	}
	f.proc[name] = p
	return p, nil
}

// sig returns a cached CallInterface for the given return/argument type
// shape, preparing it on first use. Vulkan has ~700 commands but only a
// few dozen distinct signatures, so this cache is small in practice.
func (f *Functions) sig(key string, ret *types.TypeDescriptor, args []*types.TypeDescriptor) (*types.CallInterface, error) {
	if c, ok := f.cif[key]; ok {
		return c, nil
	}
	c := &types.CallInterface{}
	if err := ffi.PrepareCallInterface(c, types.DefaultCall, ret, args); err != nil {
		return nil, errors.Wrapf(err, "vk: preparing call interface %s", key)
	}
	f.cif[key] = c
	return c, nil
}

// call resolves name (at the given level) and invokes it with args already
// boxed as goffi expects (one unsafe.Pointer per argument, pointing at
// where that argument's value is stored), writing the return value (if
// any) into ret.
func (f *Functions) call(name string, instanceLevel bool, sigKey string, retType *types.TypeDescriptor, argTypes []*types.TypeDescriptor, ret unsafe.Pointer, args []unsafe.Pointer) error {
	fn, err := f.resolve(name, instanceLevel)
	if err != nil {
		return err
	}
	cif, err := f.sig(sigKey, retType, argTypes)
	if err != nil {
		return err
	}
	return ffi.CallFunction(cif, fn, ret, args)
}

func adaptDeviceProcAddr(getDeviceProcAddr unsafe.Pointer) ProcAddrFunc {
	var cif types.CallInterface
	prepared := false
	return func(device uint64, name string) unsafe.Pointer {
		if !prepared {
			ffi.PrepareCallInterface(&cif, types.DefaultCall,
				types.PointerTypeDescriptor,
				[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.PointerTypeDescriptor})
			prepared = true
		}
		cname := append([]byte(name), 0)
		namePtr := unsafe.Pointer(&cname[0])
		var result unsafe.Pointer
		args := [2]unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&namePtr)}
		ffi.CallFunction(&cif, getDeviceProcAddr, unsafe.Pointer(&result), args[:])
		return result
	}
}

// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vk

import (
	"context"

	"github.com/google/vkrunner/core/log"
	"github.com/google/vkrunner/requirements"
	"github.com/pkg/errors"
)

// Context bundles one Loader (if this runner opened the library itself),
// one instance-level Functions table, a physical device, and - once
// CreateDevice has been called - a logical device and its device-level
// table. Exactly one Context exists per Executor; nothing here is
// process-global.
type Context struct {
	loader *Loader // nil when the device was injected (executor_set_device)
	fns    *Functions

	Instance       Instance
	PhysicalDevice PhysicalDevice
	Device         Device
	Queue          Queue
	QueueFamily    uint32

	features    physicalFeatures
	extensions  map[string]bool
	ext2Cache   map[string]map[string]bool
}

// Functions returns the bound function table, for packages (resource,
// pipelinecache, exec) that need to issue raw commands.
func (c *Context) Functions() *Functions { return c.fns }

// Open creates a Context by opening the platform Vulkan loader directly,
// the path taken when no device was injected by the caller.
func Open(ctx context.Context, appName string, requiredExtensions []string) (*Context, error) {
	loader, err := OpenLoader()
	if err != nil {
		return nil, err
	}
	fns := NewFunctions(loader.AsProcAddrFunc())
	c := &Context{loader: loader, fns: fns}
	if err := c.createInstance(ctx, appName, requiredExtensions); err != nil {
		loader.Close()
		return nil, err
	}
	if err := c.pickPhysicalDevice(ctx); err != nil {
		c.Close(ctx)
		return nil, err
	}
	return c, nil
}

// FromInjectedDevice adapts an already-created device injected through the
// public library surface's executor_set_device: the caller supplies
// get_proc_addr, the physical device, the queue family and the device
// handle; this runner resolves its own device-level function table against
// them but never owns or destroys them.
func FromInjectedDevice(getProcAddr ProcAddrFunc, physicalDevice PhysicalDevice, queueFamily uint32, device Device) *Context {
	fns := NewFunctions(getProcAddr)
	fns.BindDevice(device)
	c := &Context{
		fns:            fns,
		PhysicalDevice: physicalDevice,
		Device:         device,
		QueueFamily:    queueFamily,
	}
	c.getDeviceQueue(queueFamily)
	c.cacheFeatures()
	return c
}

// Close destroys everything this Context owns. A Context created via
// FromInjectedDevice owns nothing and Close is a no-op for it.
func (c *Context) Close(ctx context.Context) {
	if c.loader == nil {
		return
	}
	if c.Device != 0 {
		c.destroyDevice()
	}
	if c.Instance != 0 {
		c.destroyInstance()
	}
	log.Wrap(ctx).Info().Log("vk context closed")
	c.loader.Close()
}

// --- requirements.DeviceQuerier ---

func (c *Context) BaseFeatureSupported(f requirements.BaseFeature) bool {
	return c.features.has(f)
}

func (c *Context) ExtensionSupported(name string) bool {
	return c.extensions[name]
}

func (c *Context) ExtFeatureSupported(extension, field string) bool {
	fields, ok := c.ext2Cache[extension]
	if !ok {
		return false
	}
	return fields[field]
}

var _ requirements.DeviceQuerier = (*Context)(nil)

// physicalFeatures is a thin bitfield mirror of VkPhysicalDeviceFeatures,
// populated from vkGetPhysicalDeviceFeatures and indexed by
// requirements.BaseFeature.
type physicalFeatures struct {
	bits uint64
}

func (p physicalFeatures) has(f requirements.BaseFeature) bool {
	return p.bits&(1<<uint(f)) != 0
}

// The methods below delegate to the vkCreateInstance /
// vkEnumeratePhysicalDevices / vkGetPhysicalDeviceFeatures call sequences in
// instance.go and device.go. Extension feature structs are not queried:
// cacheFeatures leaves ext2Cache empty, so ExtFeatureSupported reports false
// for every extension field.
func (c *Context) createInstance(ctx context.Context, appName string, extensions []string) error {
	return createInstance(c, appName, extensions)
}

func (c *Context) pickPhysicalDevice(ctx context.Context) error {
	pd, err := firstPhysicalDevice(c)
	if err != nil {
		return errors.Wrap(err, "enumerating physical devices")
	}
	c.PhysicalDevice = pd
	c.cacheFeatures()
	return nil
}

func (c *Context) cacheFeatures() {
	c.features = queryPhysicalFeatures(c)
	c.extensions = queryDeviceExtensions(c)
	c.ext2Cache = map[string]map[string]bool{}
}

func (c *Context) getDeviceQueue(family uint32) {
	c.Queue = getDeviceQueue(c, family)
}

func (c *Context) destroyDevice() { destroyDevice(c) }
func (c *Context) destroyInstance() { destroyInstance(c) }

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

package vkrunner

import (
	"context"
	"fmt"

	"github.com/google/vkrunner/core/log"
	"github.com/google/vkrunner/exec"
	"github.com/google/vkrunner/pipelinecache"
	"github.com/google/vkrunner/pipelinekey"
	"github.com/google/vkrunner/requirements"
	"github.com/google/vkrunner/script"
	"github.com/google/vkrunner/shaderbuild"
	"github.com/google/vkrunner/vk"
	"github.com/pkg/errors"
)

// Executor runs Sources against a Vulkan device, reusing the device and
// window across scripts whose requirements and window format allow it
// (§4.I): a device and window are rebuilt only when a script demands
// something the current ones don't satisfy.
type Executor struct {
	cfg     *Config
	builder *shaderbuild.Builder

	ctx            *vk.Context
	injectedDevice bool

	window *exec.Window

	prevRequirements *requirements.Requirements
}

// NewExecutor returns an Executor configured by cfg. A nil cfg is
// equivalent to NewConfig().
func NewExecutor(cfg *Config) *Executor {
	if cfg == nil {
		cfg = NewConfig()
	}
	return &Executor{cfg: cfg, builder: shaderbuild.NewBuilder()}
}

// SetDevice injects an already-created device instead of letting the
// Executor open one itself: getProcAddr resolves every instance/device
// entry point this runner needs, exactly as vkGetInstanceProcAddr /
// vkGetDeviceProcAddr would. The caller retains ownership; Executor.Free
// never destroys an injected device. Must be called before the first
// Execute.
func (e *Executor) SetDevice(getProcAddr vk.ProcAddrFunc, physicalDevice vk.PhysicalDevice, queueFamily uint32, device vk.Device) {
	e.ctx = vk.FromInjectedDevice(getProcAddr, physicalDevice, queueFamily, device)
	e.injectedDevice = true
}

// Execute parses src and runs it, reporting BeforeTest/AfterTest and any
// diagnostics through the Executor's Config, and returns the script's
// Result.
func (e *Executor) Execute(ctx context.Context, src *Source) Result {
	s, err := script.Parse(src.Filename, src.Text, src.Replacements)
	if err != nil {
		e.cfg.reportError(err.Error())
		return Fail
	}

	e.cfg.reportBeforeTest(s.Filename())
	result, err := e.runScript(ctx, s)
	if err != nil {
		e.cfg.reportError(err.Error())
	}
	e.cfg.reportAfterTest(s.Filename(), result)
	return result
}

// Free releases whatever device and window the Executor currently owns.
// Safe to call more than once.
func (e *Executor) Free(ctx context.Context) {
	e.destroyWindow()
	e.destroyContext(ctx)
}

// Snapshot reads back the current window's color attachment, for a CLI or
// GUI front-end to encode as an image. It only succeeds immediately after
// a script has run, while a window is still alive.
func (e *Executor) Snapshot(ctx context.Context) (pixels []byte, width, height int, err error) {
	if e.window == nil {
		return nil, 0, 0, errors.New("no window to snapshot")
	}
	pixels, err = e.window.CapturePixels(ctx)
	if err != nil {
		return nil, 0, 0, err
	}
	return pixels, e.window.Format.Width, e.window.Format.Height, nil
}

func (e *Executor) runScript(ctx context.Context, s *script.Script) (Result, error) {
	reqs := s.Requirements()

	if e.injectedDevice {
		if err := requirements.Check(reqs, e.ctx); err != nil {
			return Skip, err
		}
	} else {
		if e.ctx != nil && !e.prevRequirements.Equal(reqs) {
			e.destroyWindow()
			e.destroyContext(ctx)
		}
		if e.ctx == nil {
			result, err := e.createContext(ctx, reqs)
			if err != nil {
				return result, err
			}
		}
	}
	e.prevRequirements = reqs

	format := s.WindowFormat()
	if e.window != nil && !e.window.Matches(format) {
		e.destroyWindow()
	}
	if e.window == nil {
		result, err := e.createWindow(ctx, format)
		if err != nil {
			return result, err
		}
	}

	cache, err := pipelinecache.Build(ctx, e.ctx, e.builder, s, e.window.RenderPass())
	if err != nil {
		return Fail, &ApiError{Stage: "build pipelines", Err: err}
	}
	defer cache.Destroy()

	outcome, err := exec.Run(ctx, e.ctx, s, cache, e.window)
	if err != nil {
		return Fail, &ApiError{Stage: "execute", Err: err}
	}

	for _, f := range outcome.Failures {
		e.cfg.reportError(fmt.Sprintf("%s:%d: %s", s.Filename(), f.Line, f.Message))
	}

	if e.cfg.Inspect != nil {
		e.cfg.reportInspect(e.buildInspectData(ctx, s))
	}

	if !outcome.Passed {
		return Fail, nil
	}
	return Pass, nil
}

// createContext opens a fresh instance/device pair sized to reqs. Its
// result is Fail rather than Skip: when this Executor owns the device, an
// unsupported feature or extension is a build-time misconfiguration, not a
// device-capability shortfall the caller is expected to tolerate.
func (e *Executor) createContext(ctx context.Context, reqs *requirements.Requirements) (Result, error) {
	vkctx, err := vk.Open(ctx, "vkrunner", reqs.Extensions())
	if err != nil {
		return Fail, &ApiError{Stage: "open instance", Err: err}
	}
	if err := requirements.Check(reqs, vkctx); err != nil {
		vkctx.Close(ctx)
		return Fail, err
	}
	family, ok := vkctx.SelectQueueFamily()
	if !ok {
		vkctx.Close(ctx)
		return Fail, &ApiError{Stage: "select queue family", Err: errors.New("no queue family supports graphics and compute")}
	}
	if err := vkctx.CreateDevice(family, reqs.Extensions()); err != nil {
		vkctx.Close(ctx)
		return Fail, &ApiError{Stage: "create device", Err: err}
	}
	e.ctx = vkctx
	log.Wrap(ctx).Info().Log("vk context created")
	return Pass, nil
}

// createWindow verifies format support before building a Window, per the
// executor's window bring-up step: an unsupported color or
// depth/stencil format is always a Skip, never a Fail, since it reflects
// the device's capabilities rather than a misconfiguration.
func (e *Executor) createWindow(ctx context.Context, format script.WindowFormat) (Result, error) {
	colorFormat, ok := vk.LookupFormat(colorFormatName(format.ColorFormat))
	if !ok {
		return Skip, &UnsupportedFormat{FormatName: format.ColorFormat}
	}
	colorProps := e.ctx.GetPhysicalDeviceFormatProperties(colorFormat)
	const colorNeeds = vk.FormatFeatureColorAttachment | vk.FormatFeatureBlitSrc
	if colorProps.OptimalTilingFeatures&colorNeeds != colorNeeds {
		return Skip, &UnsupportedFormat{FormatName: format.ColorFormat}
	}

	if format.HasDepthStencil {
		depthFormat, ok := vk.LookupFormat(format.DepthStencilFormat)
		if !ok {
			return Skip, &UnsupportedFormat{FormatName: format.DepthStencilFormat}
		}
		depthProps := e.ctx.GetPhysicalDeviceFormatProperties(depthFormat)
		if depthProps.OptimalTilingFeatures&vk.FormatFeatureDepthStencilAttachment == 0 {
			return Skip, &UnsupportedFormat{FormatName: format.DepthStencilFormat}
		}
	}

	win, err := exec.NewWindow(e.ctx, format)
	if err != nil {
		return Fail, &ApiError{Stage: "create window", Err: err}
	}
	e.window = win
	return Pass, nil
}

// colorFormatName matches the bare/"VK_FORMAT_"-prefixed spelling a script
// can use for its color format against the table LookupFormat indexes.
func colorFormatName(name string) string {
	const prefix = "VK_FORMAT_"
	if len(name) > len(prefix) && name[:len(prefix)] == prefix {
		return name[len(prefix):]
	}
	return name
}

func (e *Executor) destroyWindow() {
	if e.window == nil {
		return
	}
	e.window.Destroy()
	e.window = nil
}

func (e *Executor) destroyContext(ctx context.Context) {
	if e.ctx == nil {
		return
	}
	e.ctx.Close(ctx)
	e.ctx = nil
	e.prevRequirements = nil
}

// stageName gives each pipelinekey.Stage the identifier its shader-section
// header uses, for InspectData.Disassembly's keys.
var stageName = map[pipelinekey.Stage]string{
	pipelinekey.Vertex:         "vertex",
	pipelinekey.TessControl:    "tessellation control",
	pipelinekey.TessEvaluation: "tessellation evaluation",
	pipelinekey.Geometry:       "geometry",
	pipelinekey.Fragment:       "fragment",
	pipelinekey.Compute_:       "compute",
}

// buildInspectData compiles disassembly (when DisassemblyOn) and captures
// the window's color attachment for Config.Inspect. Disassembly is
// compiled independently of the pipelines actually in use, since Cache
// doesn't retain the intermediate SPIR-V once its shader modules exist.
func (e *Executor) buildInspectData(ctx context.Context, s *script.Script) InspectData {
	data := InspectData{Filename: s.Filename(), Width: s.WindowFormat().Width, Height: s.WindowFormat().Height}

	if e.cfg.DisassemblyOn {
		data.Disassembly = map[string]string{}
		for stage := pipelinekey.Stage(0); stage < pipelinekey.NumStages; stage++ {
			for _, shader := range s.ShadersFor(stage) {
				spirv, err := e.builder.Build(ctx, stage, shader)
				if err != nil {
					e.cfg.reportError(errors.Wrapf(err, "disassembling stage %s", stageName[stage]).Error())
					continue
				}
				text, err := e.builder.Disassemble(ctx, spirv)
				if err != nil {
					e.cfg.reportError(errors.Wrapf(err, "disassembling stage %s", stageName[stage]).Error())
					continue
				}
				data.Disassembly[stageName[stage]] = text
			}
		}
	}

	if pixels, err := e.window.CapturePixels(ctx); err == nil {
		data.Pixels = pixels
	}

	return data
}

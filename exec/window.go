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

// Package exec is the per-script interpreter: it owns a script's
// render-pass duality state machine, its descriptor/vertex/index scratch
// buffers, and dispatches every recorded Command onto a single command
// buffer, fence-synchronizing at every point the script needs a result
// visible on the host.
package exec

import (
	"context"

	"github.com/google/vkrunner/resource"
	"github.com/google/vkrunner/script"
	"github.com/google/vkrunner/vk"
	"github.com/pkg/errors"
)

// Window owns the optimal-tiled color (and optional depth/stencil) image a
// script renders into, plus the two render passes its duality needs:
// renderPassFirst (DONT_CARE/UNDEFINED, used once) and renderPassLoad
// (LOAD/COLOR_ATTACHMENT_OPTIMAL, used every time after).
// The Executor (component I) reuses a Window across scripts whose
// WindowFormat matches; otherwise it destroys and rebuilds one.
type Window struct {
	ctx *vk.Context

	Format script.WindowFormat

	colorFormat vk.Format
	colorImage  vk.Image
	colorView   vk.ImageView
	colorMemory vk.DeviceMemory

	hasDepthStencil bool
	depthFormat     vk.Format
	depthImage      vk.Image
	depthView       vk.ImageView
	depthMemory     vk.DeviceMemory

	renderPassFirst vk.RenderPass
	renderPassLoad  vk.RenderPass
	framebuffer     vk.Framebuffer
}

// NewWindow allocates and binds a window's backing images and builds its
// pair of render passes and single framebuffer.
func NewWindow(ctx *vk.Context, format script.WindowFormat) (*Window, error) {
	colorFormat, ok := vk.LookupFormat(colorFormatName(format.ColorFormat))
	if !ok {
		return nil, errors.Errorf("unsupported window color format %q", format.ColorFormat)
	}

	w := &Window{ctx: ctx, Format: format, colorFormat: colorFormat}

	colorImg, err := ctx.CreateImage2D(colorFormat, uint32(format.Width), uint32(format.Height),
		vk.ImageUsageColorAttachment|vk.ImageUsageTransferSrc)
	if err != nil {
		return nil, errors.Wrap(err, "creating window color image")
	}
	w.colorImage = colorImg

	views := []vk.ImageView{}
	rpCfg := vk.RenderPassConfig{ColorFormat: colorFormat}

	if format.HasDepthStencil {
		depthFormat, ok := vk.LookupFormat(format.DepthStencilFormat)
		if !ok {
			w.Destroy()
			return nil, errors.Errorf("unsupported window depth/stencil format %q", format.DepthStencilFormat)
		}
		depthImg, err := ctx.CreateImage2D(depthFormat, uint32(format.Width), uint32(format.Height), vk.ImageUsageDepthStencilAttachment)
		if err != nil {
			w.Destroy()
			return nil, errors.Wrap(err, "creating window depth/stencil image")
		}
		w.depthImage = depthImg
		w.hasDepthStencil = true
		w.depthFormat = depthFormat
		rpCfg.HasDepthStencil = true
		rpCfg.DepthStencilFormat = depthFormat
	}

	if err := w.bindAndView(&views, colorFormat); err != nil {
		w.Destroy()
		return nil, err
	}

	rpCfg.FirstUse = true
	first, err := ctx.CreateRenderPass(rpCfg)
	if err != nil {
		w.Destroy()
		return nil, errors.Wrap(err, "creating first-use render pass")
	}
	w.renderPassFirst = first

	rpCfg.FirstUse = false
	load, err := ctx.CreateRenderPass(rpCfg)
	if err != nil {
		w.Destroy()
		return nil, errors.Wrap(err, "creating load render pass")
	}
	w.renderPassLoad = load

	fb, err := ctx.CreateFramebuffer(first, views, uint32(format.Width), uint32(format.Height))
	if err != nil {
		w.Destroy()
		return nil, errors.Wrap(err, "creating framebuffer")
	}
	w.framebuffer = fb

	return w, nil
}

func (w *Window) bindAndView(views *[]vk.ImageView, colorFormat vk.Format) error {
	mem, err := allocateAndBindImage(w.ctx, w.colorImage)
	if err != nil {
		return errors.Wrap(err, "binding window color image memory")
	}
	w.colorMemory = mem
	view, err := w.ctx.CreateImageView2D(w.colorImage, colorFormat, 1) // VK_IMAGE_ASPECT_COLOR_BIT
	if err != nil {
		return errors.Wrap(err, "creating window color image view")
	}
	w.colorView = view
	*views = append(*views, view)

	if w.hasDepthStencil {
		mem, err := allocateAndBindImage(w.ctx, w.depthImage)
		if err != nil {
			return errors.Wrap(err, "binding window depth/stencil image memory")
		}
		w.depthMemory = mem
		aspect := uint32(1<<1 | 1<<2) // DEPTH|STENCIL
		view, err := w.ctx.CreateImageView2D(w.depthImage, w.depthFormat, aspect)
		if err != nil {
			return errors.Wrap(err, "creating window depth/stencil image view")
		}
		w.depthView = view
		*views = append(*views, view)
	}
	return nil
}

// allocateAndBindImage allocates a single device-local memory object sized
// to img's requirements and binds it - the non-shared degenerate case of
// resource.AllocateImages, used here because the window's images aren't
// created together with a script's other images.
func allocateAndBindImage(ctx *vk.Context, img vk.Image) (vk.DeviceMemory, error) {
	reqs := ctx.GetImageMemoryRequirements(img)
	props := ctx.GetPhysicalDeviceMemoryProperties()
	typeIndex, ok := selectDeviceLocalType(props, reqs.MemoryTypeBits)
	if !ok {
		return 0, errors.New("no memory type satisfies the window image's requirements")
	}
	mem, err := ctx.AllocateMemory(reqs.Size, typeIndex)
	if err != nil {
		return 0, err
	}
	if err := ctx.BindImageMemory(img, mem, 0); err != nil {
		ctx.FreeMemory(mem)
		return 0, err
	}
	return mem, nil
}

func selectDeviceLocalType(props vk.MemoryProperties, typeBits uint32) (uint32, bool) {
	const deviceLocal = 1 << 0
	for i, t := range props.Types {
		if typeBits&(1<<uint(i)) == 0 {
			continue
		}
		if t.PropertyFlags&deviceLocal == deviceLocal {
			return uint32(i), true
		}
	}
	return 0, false
}

func colorFormatName(vulkanName string) string {
	// WindowFormat stores the VK_FORMAT_* spelling (default is
	// "VK_FORMAT_B8G8R8A8_UNORM"); vk.LookupFormat indexes by the bare
	// "B8G8R8A8_UNORM" spelling scripts and this table both use.
	const prefix = "VK_FORMAT_"
	if len(vulkanName) > len(prefix) && vulkanName[:len(prefix)] == prefix {
		return vulkanName[len(prefix):]
	}
	return vulkanName
}

// Destroy releases every GPU object the window owns. Safe to call on a
// partially built Window.
func (w *Window) Destroy() {
	if w.framebuffer != 0 {
		w.ctx.DestroyFramebuffer(w.framebuffer)
	}
	if w.renderPassLoad != 0 {
		w.ctx.DestroyRenderPass(w.renderPassLoad)
	}
	if w.renderPassFirst != 0 {
		w.ctx.DestroyRenderPass(w.renderPassFirst)
	}
	if w.depthView != 0 {
		w.ctx.DestroyImageView(w.depthView)
	}
	if w.depthImage != 0 {
		w.ctx.DestroyImage(w.depthImage)
	}
	if w.depthMemory != 0 {
		w.ctx.FreeMemory(w.depthMemory)
	}
	if w.colorView != 0 {
		w.ctx.DestroyImageView(w.colorView)
	}
	if w.colorImage != 0 {
		w.ctx.DestroyImage(w.colorImage)
	}
	if w.colorMemory != 0 {
		w.ctx.FreeMemory(w.colorMemory)
	}
}

// Matches reports whether an already-built window can be reused for a
// script with the given format: the window is reused iff the format
// matches exactly.
func (w *Window) Matches(format script.WindowFormat) bool {
	return w.Format == format
}

// RenderPass returns a render pass compatible with every pipeline built
// against this window: VkPipeline render-pass compatibility only depends
// on attachment formats and sample counts, not load/store ops, so either
// of the window's two render passes works here.
func (w *Window) RenderPass() vk.RenderPass {
	return w.renderPassFirst
}

// ColorFormat returns the resolved vk.Format backing the window's color
// attachment, so readback code can decode raw bytes with the right
// channel order instead of assuming RGBA.
func (w *Window) ColorFormat() vk.Format {
	return w.colorFormat
}

// CapturePixels copies the window's current color attachment back to the
// host as one RGBA byte quad per pixel, row-major from (0,0). Used by the
// Executor to write the optional `-i IMG.ppm` capture once a script's
// command sequence has finished executing.
func (w *Window) CapturePixels(ctx context.Context) ([]byte, error) {
	width, height := uint32(w.Format.Width), uint32(w.Format.Height)

	pool, err := w.ctx.CreateCommandPool()
	if err != nil {
		return nil, errors.Wrap(err, "creating capture command pool")
	}
	defer w.ctx.DestroyCommandPool(pool)

	cb, err := w.ctx.AllocateCommandBuffer(pool)
	if err != nil {
		return nil, err
	}

	fence, err := w.ctx.CreateFence()
	if err != nil {
		return nil, err
	}
	defer w.ctx.DestroyFence(fence)

	readback, err := resource.AllocateBuffers(w.ctx, []resource.BufferRequest{{
		Size: uint64(width * height * 4), Usage: vk.BufferUsageTransferDst,
	}})
	if err != nil {
		return nil, err
	}
	defer readback.Destroy()

	if err := w.ctx.BeginCommandBuffer(cb); err != nil {
		return nil, err
	}
	w.ctx.CmdCopyImageToBuffer(cb, w.colorImage, readback.Buffers[0].Buffer, width, height)
	if err := w.ctx.EndCommandBuffer(cb); err != nil {
		return nil, err
	}
	if err := w.ctx.QueueSubmit(cb, fence); err != nil {
		return nil, err
	}
	if err := w.ctx.WaitForFence(fence); err != nil {
		return nil, err
	}

	raw, err := readback.Read(0, 0, uint64(width*height*4))
	if err != nil {
		return nil, err
	}
	return toRGBA(raw, w.colorFormat.Info().ChannelOrder), nil
}

// toRGBA reorders each 4-byte pixel in raw from its in-memory channel
// order to canonical R,G,B,A, for consumers (PPM encoding, InspectData)
// that expect straightforward RGBA bytes.
func toRGBA(raw []byte, order [4]int) []byte {
	out := make([]byte, len(raw))
	for i := 0; i+3 < len(raw); i += 4 {
		out[i+0] = raw[i+order[0]]
		out[i+1] = raw[i+order[1]]
		out[i+2] = raw[i+order[2]]
		out[i+3] = raw[i+order[3]]
	}
	return out
}

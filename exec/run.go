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

package exec

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/google/vkrunner/core/log"
	"github.com/google/vkrunner/layout"
	"github.com/google/vkrunner/pipelinecache"
	"github.com/google/vkrunner/resource"
	"github.com/google/vkrunner/script"
	"github.com/google/vkrunner/vk"
	"github.com/pkg/errors"
)

// Failure records one ProbeRect/ProbeSsbo mismatch: the line that produced
// it, and a human-readable description of the expected vs. observed value.
type Failure struct {
	Line    int
	Message string
}

// Outcome is a script's result: Passed is true iff every probe succeeded.
type Outcome struct {
	Passed   bool
	Failures []Failure
}

// Run interprets s's commands against an already-built pipeline Cache and
// Window. It owns every scratch/descriptor/buffer object the script's
// commands touch and frees them all before returning.
func Run(ctx context.Context, vkctx *vk.Context, s *script.Script, cache *pipelinecache.Cache, win *Window) (_ *Outcome, err error) {
	r := &runner{ctx: vkctx, script: s, cache: cache, window: win}
	defer r.destroy()

	if err := r.setup(ctx); err != nil {
		return nil, err
	}

	for _, cmd := range s.Commands() {
		if err := r.dispatch(ctx, cmd); err != nil {
			return nil, errors.Wrapf(err, "line %d", cmd.CommandLine())
		}
	}
	if err := r.flush(ctx); err != nil {
		return nil, err
	}

	return &Outcome{Passed: len(r.failures) == 0, Failures: r.failures}, nil
}

type runner struct {
	ctx    *vk.Context
	script *script.Script
	cache  *pipelinecache.Cache
	window *Window

	cmdPool vk.CommandPool
	cmdBuf  vk.CommandBuffer
	fence   vk.Fence

	descPool *vk.DescriptorPool
	descSets []vk.DescriptorSet // indexed by descriptor_set

	bufferHeap *resource.Heap // one allocation per s.Buffers() entry, in order
	vertexHeap *resource.Heap // [0]=vertex_data bytes (if any), [1]=indices (if any)
	hasVertex  bool
	hasIndices bool

	rectHeap  *resource.Heap // one scratch allocation per DrawRect command, in order
	rectIndex int

	inRenderPass        bool
	firstRenderPassUsed bool

	pushConstants []byte

	failures []Failure
}

func (r *runner) setup(ctx context.Context) error {
	pool, err := r.ctx.CreateCommandPool()
	if err != nil {
		return errors.Wrap(err, "creating command pool")
	}
	r.cmdPool = pool

	cb, err := r.ctx.AllocateCommandBuffer(pool)
	if err != nil {
		return err
	}
	r.cmdBuf = cb

	fence, err := r.ctx.CreateFence()
	if err != nil {
		return err
	}
	r.fence = fence

	if err := r.setupBuffers(); err != nil {
		return err
	}
	if err := r.setupVertexData(); err != nil {
		return err
	}
	if err := r.setupRectScratch(); err != nil {
		return err
	}

	return r.ctx.BeginCommandBuffer(r.cmdBuf)
}

func (r *runner) setupBuffers() error {
	bufs := r.script.Buffers()
	if len(bufs) == 0 {
		return nil
	}
	requests := make([]resource.BufferRequest, len(bufs))
	var uboCount, ssboCount uint32
	for i, b := range bufs {
		usage := vk.BufferUsageUniformBuffer
		if b.Kind == script.SSBO {
			usage = vk.BufferUsageStorageBuffer
			ssboCount++
		} else {
			uboCount++
		}
		size := b.Size
		if size == 0 {
			size = 4 // a declared-but-never-written buffer still needs a valid non-zero-size allocation.
		}
		requests[i] = resource.BufferRequest{Size: size, Usage: usage}
	}
	heap, err := resource.AllocateBuffers(r.ctx, requests)
	if err != nil {
		return errors.Wrap(err, "allocating script buffers")
	}
	r.bufferHeap = heap

	setLayouts := r.cache.SetLayouts()
	pool, err := r.ctx.CreateDescriptorPool(uint32(len(setLayouts)), uboCount, ssboCount)
	if err != nil {
		return errors.Wrap(err, "creating descriptor pool")
	}
	r.descPool = &pool

	bindingsBySet := make([][]vk.BufferBinding, len(setLayouts))
	for i, b := range bufs {
		descType := uint32(vk.DescriptorTypeUniformBuffer)
		if b.Kind == script.SSBO {
			descType = vk.DescriptorTypeStorageBuffer
		}
		bindingsBySet[b.Set] = append(bindingsBySet[b.Set], vk.BufferBinding{
			Binding:        uint32(b.Binding),
			Buffer:         heap.Buffers[i].Buffer,
			Offset:         0,
			Range:          heap.Buffers[i].Size,
			DescriptorType: descType,
		})
	}

	r.descSets = make([]vk.DescriptorSet, len(setLayouts))
	for set, layout := range setLayouts {
		s, err := r.ctx.AllocateDescriptorSet(pool, layout)
		if err != nil {
			return errors.Wrapf(err, "allocating descriptor set %d", set)
		}
		r.descSets[set] = s
		r.ctx.UpdateDescriptorSetBuffers(s, bindingsBySet[set])
	}
	return nil
}

func (r *runner) setupVertexData() error {
	vd := r.script.VertexData()
	indices := r.script.Indices()
	if vd == nil && len(indices) == 0 {
		return nil
	}

	var requests []resource.BufferRequest
	if vd != nil {
		requests = append(requests, resource.BufferRequest{Size: vertexDataByteSize(vd), Usage: vk.BufferUsageVertexBuffer})
		r.hasVertex = true
	}
	if len(indices) > 0 {
		requests = append(requests, resource.BufferRequest{Size: uint64(len(indices) * 2), Usage: vk.BufferUsageIndexBuffer})
		r.hasIndices = true
	}

	heap, err := resource.AllocateBuffers(r.ctx, requests)
	if err != nil {
		return errors.Wrap(err, "allocating vertex/index buffers")
	}
	r.vertexHeap = heap

	i := 0
	if vd != nil {
		if err := heap.Write(i, 0, encodeVertexData(vd)); err != nil {
			return err
		}
		i++
	}
	if len(indices) > 0 {
		buf := make([]byte, len(indices)*2)
		for j, idx := range indices {
			binary.LittleEndian.PutUint16(buf[j*2:], idx)
		}
		if err := heap.Write(i, 0, buf); err != nil {
			return err
		}
	}
	return nil
}

func vertexDataByteSize(vd *script.VertexDataBlock) uint64 {
	stride := 0
	for _, col := range vd.Columns {
		stride += componentsForFormat(col.Format) * 4
	}
	return uint64(stride * len(vd.Rows))
}

func encodeVertexData(vd *script.VertexDataBlock) []byte {
	stride := 0
	for _, col := range vd.Columns {
		stride += componentsForFormat(col.Format) * 4
	}
	out := make([]byte, stride*len(vd.Rows))
	for r, row := range vd.Rows {
		off := r * stride
		for _, v := range row {
			binary.LittleEndian.PutUint32(out[off:], math.Float32bits(float32(v)))
			off += 4
		}
	}
	return out
}

func componentsForFormat(name string) int {
	f, ok := vk.LookupFormat(name)
	if !ok {
		return 1
	}
	return f.Info().Channels
}

func (r *runner) setupRectScratch() error {
	count := 0
	for _, cmd := range r.script.Commands() {
		if _, ok := cmd.(*script.DrawRect); ok {
			count++
		}
	}
	if count == 0 {
		return nil
	}
	requests := make([]resource.BufferRequest, count)
	for i := range requests {
		requests[i] = resource.BufferRequest{Size: rectVertexBytes, Usage: vk.BufferUsageVertexBuffer}
	}
	heap, err := resource.AllocateBuffers(r.ctx, requests)
	if err != nil {
		return errors.Wrap(err, "allocating rect scratch buffers")
	}
	r.rectHeap = heap
	return nil
}

const rectVertexBytes = 6 * 2 * 4 // 6 vertices * vec2 * 4 bytes

func (r *runner) destroy() {
	r.ctx.DeviceWaitIdle()
	if r.rectHeap != nil {
		r.rectHeap.Destroy()
	}
	if r.vertexHeap != nil {
		r.vertexHeap.Destroy()
	}
	if r.bufferHeap != nil {
		r.bufferHeap.Destroy()
	}
	if r.descPool != nil {
		r.ctx.DestroyDescriptorPool(*r.descPool)
	}
	if r.fence != 0 {
		r.ctx.DestroyFence(r.fence)
	}
	if r.cmdPool != 0 {
		r.ctx.DestroyCommandPool(r.cmdPool)
	}
}

func (r *runner) dispatch(ctx context.Context, cmd script.Command) error {
	switch c := cmd.(type) {
	case *script.Clear:
		return r.cmdClear(c)
	case *script.SetPushConstant:
		return r.cmdSetPushConstant(c)
	case *script.SetBufferSubdata:
		return r.cmdSetBufferSubdata(c)
	case *script.DrawRect:
		return r.cmdDrawRect(c)
	case *script.DrawArrays:
		return r.cmdDrawArrays(c)
	case *script.DispatchCompute:
		return r.cmdDispatchCompute(c)
	case *script.ProbeRect:
		return r.cmdProbeRect(ctx, c)
	case *script.ProbeSsbo:
		return r.cmdProbeSsbo(ctx, c)
	default:
		return errors.Errorf("unhandled command type %T", cmd)
	}
}

func (r *runner) beginRenderPassIfNeeded() {
	if r.inRenderPass {
		return
	}
	rp := r.window.renderPassLoad
	if !r.firstRenderPassUsed {
		rp = r.window.renderPassFirst
	}
	r.ctx.CmdBeginRenderPass(r.cmdBuf, rp, r.window.framebuffer, uint32(r.window.Format.Width), uint32(r.window.Format.Height), nil)
	r.inRenderPass = true
	r.firstRenderPassUsed = true
	r.applyPushConstants()
}

func (r *runner) endRenderPassIfActive() {
	if !r.inRenderPass {
		return
	}
	r.ctx.CmdEndRenderPass(r.cmdBuf)
	r.inRenderPass = false
}

func (r *runner) applyPushConstants() {
	if len(r.pushConstants) == 0 {
		return
	}
	r.ctx.CmdPushConstants(r.cmdBuf, r.cache.Layout(), vk.ShaderStageAllGraphics|vk.ShaderStageCompute, r.pushConstants)
}

func (r *runner) cmdClear(c *script.Clear) error {
	color := [4]float32{float32(c.Color[0]), float32(c.Color[1]), float32(c.Color[2]), float32(c.Color[3])}
	if r.inRenderPass {
		r.ctx.CmdClearAttachments(r.cmdBuf, color, uint32(r.window.Format.Width), uint32(r.window.Format.Height))
		return nil
	}
	r.ctx.CmdClearColorImage(r.cmdBuf, r.window.colorImage, color)
	if r.window.hasDepthStencil {
		r.ctx.CmdClearDepthStencilImage(r.cmdBuf, r.window.depthImage, float32(c.Depth), c.Stencil)
	}
	return nil
}

func (r *runner) cmdSetPushConstant(c *script.SetPushConstant) error {
	end := c.Offset + len(c.Data)
	if end > len(r.pushConstants) {
		grown := make([]byte, end)
		copy(grown, r.pushConstants)
		r.pushConstants = grown
	}
	copy(r.pushConstants[c.Offset:], c.Data)
	if r.inRenderPass {
		r.applyPushConstants()
	}
	return nil
}

func (r *runner) bufferHeapIndex(kind script.BufferKind, set, binding int) (int, bool) {
	for i, b := range r.script.Buffers() {
		if b.Kind == kind && b.Set == set && b.Binding == binding {
			return i, true
		}
	}
	return 0, false
}

func (r *runner) cmdSetBufferSubdata(c *script.SetBufferSubdata) error {
	i, ok := r.bufferHeapIndex(c.Kind, c.Set, c.Binding)
	if !ok {
		return errors.Errorf("subdata references undeclared buffer (set %d, binding %d)", c.Set, c.Binding)
	}
	return r.bufferHeap.Write(i, uint64(c.Offset), c.Data)
}

func (r *runner) bindPipelineAndDescriptors(keyIndex int, bindPoint uint32) {
	p := r.cache.Pipeline(keyIndex)
	r.ctx.CmdBindPipeline(r.cmdBuf, bindPoint, p)
	if r.descPool != nil {
		r.ctx.CmdBindDescriptorSets(r.cmdBuf, bindPoint, r.cache.Layout(), 0, r.descSets)
	}
}

func (r *runner) cmdDrawRect(c *script.DrawRect) error {
	r.beginRenderPassIfNeeded()

	verts := rectVertices(c, r.window.Format.Width, r.window.Format.Height)
	if err := r.rectHeap.Write(r.rectIndex, 0, verts); err != nil {
		return err
	}
	buf := r.rectHeap.Buffers[r.rectIndex].Buffer
	r.rectIndex++

	r.bindPipelineAndDescriptors(c.KeyIndex, 0) // VK_PIPELINE_BIND_POINT_GRAPHICS
	r.ctx.CmdBindVertexBuffers(r.cmdBuf, buf, 0)
	r.ctx.CmdDraw(r.cmdBuf, 6, 1, 0, 0)
	return nil
}

// rectVertices fills two counter-clockwise triangles covering (c.X, c.Y,
// c.W, c.H). Ortho remaps pixel coordinates [0,width]x[0,height] into NDC
// [-1,1]x[-1,1]; otherwise the script's coordinates are used as NDC
// directly.
func rectVertices(c *script.DrawRect, width, height int) []byte {
	x0, y0, x1, y1 := c.X, c.Y, c.X+c.W, c.Y+c.H
	if c.Ortho {
		x0 = x0/float64(width)*2 - 1
		x1 = x1/float64(width)*2 - 1
		y0 = y0/float64(height)*2 - 1
		y1 = y1/float64(height)*2 - 1
	}
	coords := [6][2]float64{
		{x0, y0}, {x1, y0}, {x0, y1},
		{x1, y0}, {x1, y1}, {x0, y1},
	}
	out := make([]byte, rectVertexBytes)
	for i, v := range coords {
		binary.LittleEndian.PutUint32(out[i*8:], math.Float32bits(float32(v[0])))
		binary.LittleEndian.PutUint32(out[i*8+4:], math.Float32bits(float32(v[1])))
	}
	return out
}

func (r *runner) cmdDrawArrays(c *script.DrawArrays) error {
	r.beginRenderPassIfNeeded()
	r.bindPipelineAndDescriptors(c.KeyIndex, 0)

	if r.hasVertex {
		r.ctx.CmdBindVertexBuffers(r.cmdBuf, r.vertexHeap.Buffers[0].Buffer, 0)
	}

	instanceCount := uint32(1)
	if c.Instanced {
		instanceCount = uint32(c.InstanceCount)
	}

	if c.Indexed && r.hasIndices {
		idx := 0
		if r.hasVertex {
			idx = 1
		}
		r.ctx.CmdBindIndexBuffer(r.cmdBuf, r.vertexHeap.Buffers[idx].Buffer, 0, 0) // VK_INDEX_TYPE_UINT16
		r.ctx.CmdDrawIndexed(r.cmdBuf, uint32(c.Count), instanceCount, uint32(c.First), 0, 0)
		return nil
	}
	r.ctx.CmdDraw(r.cmdBuf, uint32(c.Count), instanceCount, uint32(c.First), 0)
	return nil
}

func (r *runner) cmdDispatchCompute(c *script.DispatchCompute) error {
	r.endRenderPassIfActive()
	r.bindPipelineAndDescriptors(c.KeyIndex, 1) // VK_PIPELINE_BIND_POINT_COMPUTE
	r.applyPushConstants()
	r.ctx.CmdDispatch(r.cmdBuf, uint32(c.X), uint32(c.Y), uint32(c.Z))
	return nil
}

// flush ends any active render pass and submits the remaining recorded
// work, so a script that never probes still executes its draws.
func (r *runner) flush(ctx context.Context) error {
	r.endRenderPassIfActive()
	return r.submitAndReset(ctx)
}

// submitAndReset ends, submits and waits on the command buffer, then
// begins a fresh recording - resetting command-buffer state, which is why
// push constants must be reapplied on the next render pass.
func (r *runner) submitAndReset(ctx context.Context) error {
	if err := r.ctx.EndCommandBuffer(r.cmdBuf); err != nil {
		return err
	}
	if err := r.ctx.ResetFence(r.fence); err != nil {
		return err
	}
	if err := r.ctx.QueueSubmit(r.cmdBuf, r.fence); err != nil {
		return err
	}
	if err := r.ctx.WaitForFence(r.fence); err != nil {
		return err
	}
	return r.ctx.BeginCommandBuffer(r.cmdBuf)
}

func (r *runner) cmdProbeRect(ctx context.Context, c *script.ProbeRect) error {
	r.endRenderPassIfActive()
	if err := r.submitAndReset(ctx); err != nil {
		return err
	}

	x, y, w, h := c.X, c.Y, c.W, c.H
	// A relative probe's rectangle was already scaled to pixels by the parser.
	if c.All {
		x, y, w, h = 0, 0, r.window.Format.Width, r.window.Format.Height
	}

	pixels, err := r.readColorPixels(ctx, x, y, w, h)
	if err != nil {
		return err
	}

	tol := c.Tolerance
	ok := true
	var mismatchX, mismatchY int
	var observed [4]float64
outer:
	for py := 0; py < h; py++ {
		for px := 0; px < w; px++ {
			p := pixels[py*w+px]
			for ch := 0; ch < c.NumChannels; ch++ {
				if !tol.Equal(ch, p[ch], c.Expected[ch]) {
					ok = false
					mismatchX, mismatchY = x+px, y+py
					observed = p
					break outer
				}
			}
		}
	}

	if !ok {
		r.failures = append(r.failures, Failure{
			Line: c.CommandLine(),
			Message: fmt.Sprintf("probe at (%d,%d): expected %v, observed %v", mismatchX, mismatchY,
				c.Expected[:c.NumChannels], observed[:c.NumChannels]),
		})
		log.Wrap(ctx).Error().Log(fmt.Sprintf("probe mismatch at (%d,%d)", mismatchX, mismatchY))
	}

	r.beginRenderPassIfNeeded()
	return nil
}

// readColorPixels copies the window's color attachment into a linear
// readback buffer and decodes (x,y,w,h) into per-pixel RGBA float64s,
// extracting channels in the window color format's actual memory order
// (e.g. B8G8R8A8_UNORM's byte 0 is blue, not red) and normalizing
// 8-bit-unorm channels to [0,1]. The command buffer must already be in
// the recording state when this is called.
func (r *runner) readColorPixels(ctx context.Context, x, y, w, h int) ([][4]float64, error) {
	fw, fh := r.window.Format.Width, r.window.Format.Height
	if x < 0 || y < 0 || w < 0 || h < 0 || x+w > fw || y+h > fh {
		return nil, errors.Errorf("probe rect (%d,%d,%d,%d) lies outside the %dx%d window", x, y, w, h, fw, fh)
	}
	readback, err := resource.AllocateBuffers(r.ctx, []resource.BufferRequest{{
		Size: uint64(fw * fh * 4), Usage: vk.BufferUsageTransferDst,
	}})
	if err != nil {
		return nil, err
	}
	defer readback.Destroy()

	r.ctx.CmdCopyImageToBuffer(r.cmdBuf, r.window.colorImage, readback.Buffers[0].Buffer, uint32(fw), uint32(fh))
	if err := r.submitAndReset(ctx); err != nil {
		return nil, err
	}

	raw, err := readback.Read(0, 0, uint64(fw*fh*4))
	if err != nil {
		return nil, err
	}

	order := r.window.ColorFormat().Info().ChannelOrder
	out := make([][4]float64, w*h)
	for i := range out {
		p := ((y+i/w)*fw + x + i%w) * 4
		out[i] = [4]float64{
			float64(raw[p+order[0]]) / 255,
			float64(raw[p+order[1]]) / 255,
			float64(raw[p+order[2]]) / 255,
			float64(raw[p+order[3]]) / 255,
		}
	}
	return out, nil
}

func (r *runner) cmdProbeSsbo(ctx context.Context, c *script.ProbeSsbo) error {
	r.endRenderPassIfActive()
	if err := r.submitAndReset(ctx); err != nil {
		return err
	}

	i, ok := r.bufferHeapIndex(script.SSBO, c.Set, c.Binding)
	if !ok {
		return errors.Errorf("probe ssbo references undeclared buffer (set %d, binding %d)", c.Set, c.Binding)
	}

	width := baseByteWidth(c.Type)
	raw, err := r.bufferHeap.Read(i, uint64(c.Offset), uint64(len(c.Values)*width))
	if err != nil {
		return err
	}

	tol := c.Tolerance
	for idx, want := range c.Values {
		got := decodeBase(c.Type, raw[idx*width:])
		if !probeCompare(c.Op, got, want, tol, idx%4) {
			r.failures = append(r.failures, Failure{
				Line:    c.CommandLine(),
				Message: fmt.Sprintf("ssbo probe element %d: expected %v, observed %v", idx, want, got),
			})
		}
	}

	r.beginRenderPassIfNeeded()
	return nil
}

func probeCompare(op script.ProbeOp, got, want float64, tol layout.Tolerance, channel int) bool {
	switch op {
	case script.ProbeEqual:
		return got == want
	case script.ProbeFuzzyEqual:
		return tol.Equal(channel, got, want)
	case script.ProbeNotEqual:
		return got != want
	case script.ProbeLess:
		return got < want
	case script.ProbeLessEqual:
		return got <= want
	case script.ProbeGreater:
		return got > want
	case script.ProbeGreaterEqual:
		return got >= want
	default:
		return false
	}
}

func baseByteWidth(b layout.Base) int {
	switch b {
	case layout.Int8, layout.Uint8:
		return 1
	case layout.Int16, layout.Uint16:
		return 2
	case layout.Int32, layout.Uint32, layout.Float32:
		return 4
	default:
		return 8
	}
}

func decodeBase(b layout.Base, raw []byte) float64 {
	switch b {
	case layout.Int8:
		return float64(int8(raw[0]))
	case layout.Uint8:
		return float64(raw[0])
	case layout.Int16:
		return float64(int16(binary.LittleEndian.Uint16(raw)))
	case layout.Uint16:
		return float64(binary.LittleEndian.Uint16(raw))
	case layout.Int32:
		return float64(int32(binary.LittleEndian.Uint32(raw)))
	case layout.Uint32:
		return float64(binary.LittleEndian.Uint32(raw))
	case layout.Float32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(raw)))
	case layout.Int64:
		return float64(int64(binary.LittleEndian.Uint64(raw)))
	case layout.Uint64:
		return float64(binary.LittleEndian.Uint64(raw))
	case layout.Float64:
		return math.Float64frombits(binary.LittleEndian.Uint64(raw))
	default:
		return 0
	}
}

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

// Package pipelinecache builds the shader modules, descriptor-set layout,
// pipeline layout and one VkPipeline per unique pipeline-key a script
// needs: shader build, module creation, descriptor-set layout, pipeline
// layout, then pipelines with derivative seeding.
package pipelinecache

import (
	"context"

	"github.com/google/vkrunner/pipelinekey"
	"github.com/google/vkrunner/script"
	"github.com/google/vkrunner/shaderbuild"
	"github.com/google/vkrunner/vk"
	"github.com/pkg/errors"
)

var stageBit = map[pipelinekey.Stage]uint32{
	pipelinekey.Vertex:         vk.ShaderStageVertex,
	pipelinekey.TessControl:    vk.ShaderStageTessellationControl,
	pipelinekey.TessEvaluation: vk.ShaderStageTessellationEvaluation,
	pipelinekey.Geometry:       vk.ShaderStageGeometry,
	pipelinekey.Fragment:       vk.ShaderStageFragment,
	pipelinekey.Compute_:       vk.ShaderStageCompute,
}

// Cache owns every GPU object a script's pipelines reference: shader
// modules, one descriptor-set layout per descriptor set the script uses,
// the pipeline layout and one Pipeline per pipeline_keys entry -
// pipelines[i] corresponds to pipeline_keys[i]. The render pass it builds
// against is borrowed from the window and is not destroyed by Destroy.
type Cache struct {
	ctx *vk.Context

	modules    map[pipelinekey.Stage][]vk.ShaderModule
	setLayouts []vk.DescriptorSetLayout // indexed by descriptor_set
	layout     vk.PipelineLayout
	renderPass vk.RenderPass
	pipelines  []vk.Pipeline
}

// Build runs the full algorithm for s against an already-created render
// pass. A window keeps two render passes alive; Cache only needs whichever
// is current, since pipeline objects aren't tied to a specific render pass
// instance beyond layout compatibility.
func Build(ctx context.Context, vkctx *vk.Context, builder *shaderbuild.Builder, s *script.Script, rp vk.RenderPass) (*Cache, error) {
	c := &Cache{ctx: vkctx, renderPass: rp, modules: map[pipelinekey.Stage][]vk.ShaderModule{}}

	if err := c.buildModules(ctx, builder, s); err != nil {
		c.Destroy()
		return nil, err
	}
	if err := c.buildDescriptorSetLayout(s); err != nil {
		c.Destroy()
		return nil, err
	}
	if err := c.buildPipelineLayout(s); err != nil {
		c.Destroy()
		return nil, err
	}
	if err := c.buildPipelines(s); err != nil {
		c.Destroy()
		return nil, err
	}
	return c, nil
}

func (c *Cache) buildModules(ctx context.Context, builder *shaderbuild.Builder, s *script.Script) error {
	for stage := pipelinekey.Stage(0); stage < pipelinekey.NumStages; stage++ {
		for _, shader := range s.ShadersFor(stage) {
			spirv, err := builder.Build(ctx, stage, shader)
			if err != nil {
				return errors.Wrapf(err, "building stage %d shader", stage)
			}
			m, err := c.ctx.CreateShaderModule(spirv)
			if err != nil {
				return errors.Wrapf(err, "creating stage %d shader module", stage)
			}
			c.modules[stage] = append(c.modules[stage], m)
		}
	}
	return nil
}

// SetLayouts returns the descriptor-set layouts this cache built, indexed
// by descriptor_set (setLayouts[i] is the layout for set i).
func (c *Cache) SetLayouts() []vk.DescriptorSetLayout { return c.setLayouts }

// Layout returns the pipeline layout this cache built.
func (c *Cache) Layout() vk.PipelineLayout { return c.layout }

// Pipeline returns the pipeline for pipeline_keys[index].
func (c *Cache) Pipeline(index int) vk.Pipeline { return c.pipelines[index] }

// buildDescriptorSetLayout builds one vk.DescriptorSetLayout per distinct
// descriptor_set a script's buffers name, so bindings in set 0 never
// collide with bindings in set 1. Sets are numbered contiguously from 0 -
// any set index below the highest one used gets an (possibly empty)
// layout of its own, since VkPipelineLayoutCreateInfo's pSetLayouts array
// has no room for gaps.
func (c *Cache) buildDescriptorSetLayout(s *script.Script) error {
	bufs := s.Buffers()
	if len(bufs) == 0 {
		return nil
	}
	maxSet := 0
	for _, b := range bufs {
		if b.Set > maxSet {
			maxSet = b.Set
		}
	}
	bindingsBySet := make([][]vk.DescriptorBinding, maxSet+1)
	for _, b := range bufs {
		descType := uint32(vk.DescriptorTypeUniformBuffer)
		if b.Kind == script.SSBO {
			descType = vk.DescriptorTypeStorageBuffer
		}
		bindingsBySet[b.Set] = append(bindingsBySet[b.Set], vk.DescriptorBinding{
			Binding:        uint32(b.Binding),
			DescriptorType: descType,
			StageFlags:     vk.ShaderStageAllGraphics | vk.ShaderStageCompute,
		})
	}
	c.setLayouts = make([]vk.DescriptorSetLayout, maxSet+1)
	for set, bindings := range bindingsBySet {
		l, err := c.ctx.CreateDescriptorSetLayout(bindings)
		if err != nil {
			return errors.Wrapf(err, "creating descriptor set layout for set %d", set)
		}
		c.setLayouts[set] = l
	}
	return nil
}

// maxPushConstantSize returns the smallest size covering every
// SetPushConstant command's [offset, offset+len(data)) range - the single
// push-constant range the pipeline layout is built with.
func maxPushConstantSize(s *script.Script) uint32 {
	var max uint32
	for _, cmd := range s.Commands() {
		if pc, ok := cmd.(*script.SetPushConstant); ok {
			end := uint32(pc.Offset + len(pc.Data))
			if end > max {
				max = end
			}
		}
	}
	return max
}

func (c *Cache) buildPipelineLayout(s *script.Script) error {
	size := maxPushConstantSize(s)
	l, err := c.ctx.CreatePipelineLayout(c.setLayouts, size, vk.ShaderStageAllGraphics|vk.ShaderStageCompute)
	if err != nil {
		return errors.Wrap(err, "creating pipeline layout")
	}
	c.layout = l
	return nil
}

// rectangleVertexStride/rectangleVertexAttributes describe the scratch
// vertex buffer the execution engine fills for a DrawRect: two triangles
// of plain vec2 positions, location 0.
const rectangleVertexStride = 8

var rectangleVertexAttributes = []vk.VertexAttribute{
	{Location: 0, Format: vk.FormatR32G32Sfloat, Offset: 0},
}

func vertexAttributes(cols []script.VertexDataColumn) ([]vk.VertexAttribute, uint32, error) {
	var offset uint32
	attrs := make([]vk.VertexAttribute, 0, len(cols))
	for _, col := range cols {
		f, ok := vk.LookupFormat(col.Format)
		if !ok {
			return nil, 0, errors.Errorf("unknown vertex data format %q", col.Format)
		}
		attrs = append(attrs, vk.VertexAttribute{
			Location: uint32(col.Location),
			Format:   f,
			Offset:   offset,
		})
		offset += uint32(f.Info().BytesPerPixel)
	}
	return attrs, offset, nil
}

// entryPoints picks the ShaderStage list for a graphics pipeline, matching
// key's configured entry point name per stage.
func (c *Cache) entryPoints(key *pipelinekey.Key) []vk.ShaderStage {
	var stages []vk.ShaderStage
	for stage, bit := range stageBit {
		if stage == pipelinekey.Compute_ {
			continue
		}
		modules := c.modules[stage]
		if len(modules) == 0 {
			continue
		}
		stages = append(stages, vk.ShaderStage{
			Stage:      bit,
			Module:     modules[0],
			EntryPoint: key.EntryPoint(stage),
		})
	}
	return stages
}

func (c *Cache) buildPipelines(s *script.Script) error {
	var firstGraphics vk.Pipeline
	graphicsCount := 0
	for _, key := range s.PipelineKeys() {
		if key.Type == pipelinekey.Graphics {
			graphicsCount++
		}
	}

	vd := s.VertexData()
	var attrs []vk.VertexAttribute
	var stride uint32
	if vd != nil {
		var err error
		attrs, stride, err = vertexAttributes(vd.Columns)
		if err != nil {
			return err
		}
	}

	for i := range s.PipelineKeys() {
		key := s.PipelineKey(i)
		if key.Type == pipelinekey.Compute {
			p, err := c.buildComputePipeline(key)
			if err != nil {
				return errors.Wrapf(err, "building compute pipeline %d", i)
			}
			c.pipelines = append(c.pipelines, p)
			continue
		}

		base := vk.Pipeline(0)
		if firstGraphics != 0 {
			base = firstGraphics
		}
		cfg := vk.GraphicsPipelineConfig{
			Layout:             c.layout,
			RenderPass:         c.renderPass,
			Stages:             c.entryPoints(key),
			Topology:           uint32(key.Topology),
			PatchControlPoints: uint32(key.PatchControlPoints),
			PolygonMode:        uint32(key.Props["rasterization.polygonMode"].Int),
			CullMode:           uint32(key.Props["rasterization.cullMode"].Int),
			FrontFace:          uint32(key.Props["rasterization.frontFace"].Int),
			DepthTestEnable:    key.Props["depthstencil.depthTestEnable"].Bool,
			DepthWriteEnable:   key.Props["depthstencil.depthWriteEnable"].Bool,
			DepthCompareOp:     uint32(key.Props["depthstencil.depthCompareOp"].Int),
			BasePipeline:       base,
			AllowDerivatives:   firstGraphics == 0 && graphicsCount >= 2,
		}
		switch key.Source {
		case pipelinekey.VertexData:
			cfg.VertexStride = stride
			cfg.VertexAttributes = attrs
		case pipelinekey.Rectangle:
			// DrawRect fills a scratch vertex buffer of plain vec2 positions
			// ("allocate a 6-vertex vertex buffer ... fill two
			// triangles"), so every Rectangle-source pipeline needs this
			// fixed one-attribute vertex input regardless of the script's
			// own [vertex data] section.
			cfg.VertexStride = rectangleVertexStride
			cfg.VertexAttributes = rectangleVertexAttributes
		}
		p, err := c.ctx.CreateGraphicsPipeline(cfg)
		if err != nil {
			return errors.Wrapf(err, "building graphics pipeline %d", i)
		}
		if firstGraphics == 0 {
			firstGraphics = p
		}
		c.pipelines = append(c.pipelines, p)
	}
	return nil
}

func (c *Cache) buildComputePipeline(key *pipelinekey.Key) (vk.Pipeline, error) {
	modules := c.modules[pipelinekey.Compute_]
	if len(modules) == 0 {
		return 0, errors.New("compute pipeline key with no compute shader")
	}
	stage := vk.ShaderStage{
		Stage:      vk.ShaderStageCompute,
		Module:     modules[0],
		EntryPoint: key.EntryPoint(pipelinekey.Compute_),
	}
	return c.ctx.CreateComputePipeline(c.layout, stage, 0)
}

// Destroy releases every GPU object this cache owns. Safe to call on a
// partially built Cache (Build calls it on any failure).
func (c *Cache) Destroy() {
	for _, p := range c.pipelines {
		c.ctx.DestroyPipeline(p)
	}
	c.pipelines = nil
	if c.layout != 0 {
		c.ctx.DestroyPipelineLayout(c.layout)
		c.layout = 0
	}
	for _, l := range c.setLayouts {
		if l != 0 {
			c.ctx.DestroyDescriptorSetLayout(l)
		}
	}
	c.setLayouts = nil
	for _, modules := range c.modules {
		for _, m := range modules {
			c.ctx.DestroyShaderModule(m)
		}
	}
	c.modules = map[pipelinekey.Stage][]vk.ShaderModule{}
}

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

// Package script is the intermediate representation a test script parses
// into, plus the parser that builds one from source text (see Parse).
package script

import (
	"github.com/google/vkrunner/pipelinekey"
	"github.com/google/vkrunner/requirements"
)

// SourceType names how a shader section's payload is stored and how it
// must be turned into SPIR-V before use.
type SourceType int

const (
	SourceGLSL SourceType = iota
	SourceSPIRVText
	SourceSPIRVBinary
	SourcePassthrough
)

// Shader is one `[<stage> shader...]` section's payload.
type Shader struct {
	Type   SourceType
	Source string // verbatim text, for SourceGLSL / SourceSPIRVText
	Binary []byte // decoded words, for SourceSPIRVBinary / SourcePassthrough
}

// WindowFormat names the framebuffer a script runs against.
type WindowFormat struct {
	ColorFormat        string
	HasDepthStencil    bool
	DepthStencilFormat string
	Width, Height      int
}

// DefaultWindowFormat matches the values an un-annotated [require] section
// implies.
func DefaultWindowFormat() WindowFormat {
	return WindowFormat{
		ColorFormat: "VK_FORMAT_B8G8R8A8_UNORM",
		Width:       250,
		Height:      250,
	}
}

// BufferDescriptor is one UBO or SSBO a script's [test] commands reference,
// keyed by (set, binding). Script.Buffers is always sorted by (set,
// binding) ascending (spec testable property 12).
type BufferDescriptor struct {
	Kind    BufferKind
	Set     int
	Binding int
	Size    uint64
}

// VertexDataBlock is the parsed `[vertex data]` section: one header line
// naming "<location>/<format>/<name>" columns, followed by whitespace-
// separated rows of values matching the columns' total component count.
type VertexDataBlock struct {
	Columns []VertexDataColumn
	Rows    [][]float64
}

// VertexDataColumn is one column of a VertexDataBlock.
type VertexDataColumn struct {
	Location int
	Format   string // e.g. "R32G32B32_SFLOAT"
	Name     string
}

// Script is the fully parsed, pure-data representation of one test file:
// everything downstream - the pipeline builder, the resource manager, the
// execution engine - reads from it but never mutates it.
type Script struct {
	filename     string
	stages       [pipelinekey.NumStages][]Shader
	pipelineKeys []pipelinekey.Key
	commands     []Command
	buffers      []BufferDescriptor
	vertexData   *VertexDataBlock
	indices      []uint16
	windowFormat WindowFormat
	requirements *requirements.Requirements
}

func (s *Script) Filename() string                        { return s.filename }
func (s *Script) WindowFormat() WindowFormat               { return s.windowFormat }
func (s *Script) Requirements() *requirements.Requirements { return s.requirements }
func (s *Script) Commands() []Command                      { return s.commands }
func (s *Script) Buffers() []BufferDescriptor               { return s.buffers }
func (s *Script) VertexData() *VertexDataBlock              { return s.vertexData }
func (s *Script) Indices() []uint16                         { return s.indices }

// ShadersFor returns the shader sections recorded for stage, in the order
// they appeared in the source.
func (s *Script) ShadersFor(stage pipelinekey.Stage) []Shader {
	return s.stages[stage]
}

// PipelineKey returns the key at index, as recorded by a Draw*/Dispatch*
// command: every DrawRect, DrawArrays or DispatchCompute records the
// deduplicated pipeline-key index it uses.
func (s *Script) PipelineKey(index int) *pipelinekey.Key {
	return &s.pipelineKeys[index]
}

// PipelineKeys returns every unique key this script's draw/dispatch
// commands reference, in first-use order.
func (s *Script) PipelineKeys() []pipelinekey.Key {
	return s.pipelineKeys
}

// findOrAddBuffer returns the index of the (kind, set, binding) descriptor,
// creating it (at the sort-preserving insertion point) if absent.
func (s *Script) findOrAddBuffer(kind BufferKind, set, binding int) int {
	for i := range s.buffers {
		b := &s.buffers[i]
		if b.Kind == kind && b.Set == set && b.Binding == binding {
			return i
		}
	}
	s.buffers = append(s.buffers, BufferDescriptor{Kind: kind, Set: set, Binding: binding})
	i := len(s.buffers) - 1
	for i > 0 && bufferLess(s.buffers[i], s.buffers[i-1]) {
		s.buffers[i], s.buffers[i-1] = s.buffers[i-1], s.buffers[i]
		i--
	}
	return i
}

func bufferLess(a, b BufferDescriptor) bool {
	if a.Set != b.Set {
		return a.Set < b.Set
	}
	return a.Binding < b.Binding
}

// addPipelineKey returns the deduplicated index of key within the script's
// key table, appending it if no earlier entry is Equal.
func (s *Script) addPipelineKey(key pipelinekey.Key) int {
	for i, k := range s.pipelineKeys {
		if k.Equal(key) {
			return i
		}
	}
	s.pipelineKeys = append(s.pipelineKeys, key)
	return len(s.pipelineKeys) - 1
}

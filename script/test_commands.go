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

package script

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"

	"github.com/google/vkrunner/core/stream"
	"github.com/google/vkrunner/layout"
	"github.com/google/vkrunner/pipelinekey"
	"github.com/pkg/errors"
)

// processTestLine matches one [test] line against the fifteen command
// forms below, in the order they're listed: the first matching form wins.
func (p *parser) processTestLine(line string, lineNum int) error {
	words := stream.SplitWords(line)
	if len(words) == 0 {
		return nil
	}

	switch {
	case matchWords(words, "patch", "parameter", "vertices"):
		return p.cmdPatchParameterVertices(words, lineNum)
	case matchWords(words, "clear", "color"), matchWords(words, "clear", "depth"), matchWords(words, "clear", "stencil"):
		return p.cmdClearState(words, lineNum)
	case matchWords(words, "ssbo") && len(words) >= 2 && isBufferSpec(words[1]) && len(words) >= 3 && words[2] == "subdata":
		return p.cmdSsboSubdata(words, lineNum)
	case matchWords(words, "ssbo"):
		return p.cmdSsboSize(words, lineNum)
	case matchWords(words, "tolerance"):
		return p.cmdTolerance(words, lineNum)
	case len(words) == 3 && words[1] == "entrypoint":
		return p.cmdEntrypoint(words, lineNum)
	case matchWords(words, "probe", "ssbo"):
		return p.cmdProbeSsbo(words, lineNum)
	case words[0] == "relative" || words[0] == "probe":
		if ok, err := p.tryCmdProbeRect(words, lineNum); ok || err != nil {
			return err
		}
	case matchWords(words, "draw", "arrays"):
		return p.cmdDrawArrays(words, lineNum)
	case matchWords(words, "compute"):
		return p.cmdCompute(words, lineNum)
	case matchWords(words, "uniform", "ubo"):
		return p.cmdUniformUbo(words, lineNum)
	case matchWords(words, "uniform"):
		return p.cmdUniformPushConstant(words, lineNum)
	case matchWords(words, "clear") && len(words) == 1:
		p.script.commands = append(p.script.commands, &Clear{
			commandLine(lineNum), p.clearColor, p.clearDepth, p.clearStencil,
		})
		return nil
	case matchWords(words, "draw", "rect"):
		return p.cmdDrawRect(words, lineNum)
	}

	return p.cmdPipelineProperty(words, lineNum, line)
}

func matchWords(words []string, prefix ...string) bool {
	if len(words) < len(prefix) {
		return false
	}
	for i, w := range prefix {
		if words[i] != w {
			return false
		}
	}
	return true
}

func isBufferSpec(s string) bool {
	for _, r := range s {
		if r != ':' && (r < '0' || r > '9') {
			return false
		}
	}
	return s != ""
}

func parseBufferSpec(s string) (set, binding, arrayIndex int, err error) {
	parts := strings.Split(s, ":")
	ints := make([]int, len(parts))
	for i, part := range parts {
		v, e := strconv.Atoi(part)
		if e != nil {
			return 0, 0, 0, e
		}
		ints[i] = v
	}
	switch len(ints) {
	case 1:
		return 0, ints[0], 0, nil
	case 2:
		return ints[0], ints[1], 0, nil
	case 3:
		return ints[0], ints[1], ints[2], nil
	}
	return 0, 0, 0, errors.Errorf("invalid buffer specifier %q", s)
}

// 1. patch parameter vertices <int>
func (p *parser) cmdPatchParameterVertices(words []string, lineNum int) error {
	if len(words) != 4 {
		return parseErrorf(p.filename, lineNum, "InvalidTestCommand: %s", strings.Join(words, " "))
	}
	n, err := strconv.Atoi(words[3])
	if err != nil {
		return parseErrorf(p.filename, lineNum, "InvalidTestCommand: %s", err)
	}
	p.currentKey.PatchControlPoints = n
	return nil
}

// 2. clear color/depth/stencil
func (p *parser) cmdClearState(words []string, lineNum int) error {
	switch words[1] {
	case "color":
		if len(words) != 6 {
			return parseErrorf(p.filename, lineNum, "InvalidTestCommand: clear color needs 4 values")
		}
		for i := 0; i < 4; i++ {
			v, err := strconv.ParseFloat(words[2+i], 64)
			if err != nil {
				return parseErrorf(p.filename, lineNum, "InvalidTestCommand: %s", err)
			}
			p.clearColor[i] = v
		}
	case "depth":
		if len(words) != 3 {
			return parseErrorf(p.filename, lineNum, "InvalidTestCommand: clear depth needs 1 value")
		}
		v, err := strconv.ParseFloat(words[2], 64)
		if err != nil {
			return parseErrorf(p.filename, lineNum, "InvalidTestCommand: %s", err)
		}
		p.clearDepth = v
	case "stencil":
		if len(words) != 3 {
			return parseErrorf(p.filename, lineNum, "InvalidTestCommand: clear stencil needs 1 value")
		}
		v, err := strconv.ParseUint(words[2], 10, 32)
		if err != nil {
			return parseErrorf(p.filename, lineNum, "InvalidTestCommand: %s", err)
		}
		p.clearStencil = uint32(v)
	}
	return nil
}

// 3. ssbo <spec> <size>
func (p *parser) cmdSsboSize(words []string, lineNum int) error {
	if len(words) != 3 {
		return parseErrorf(p.filename, lineNum, "InvalidTestCommand: ssbo needs a size")
	}
	set, binding, _, err := parseBufferSpec(words[1])
	if err != nil {
		return parseErrorf(p.filename, lineNum, "InvalidTestCommand: %s", err)
	}
	size, err := strconv.ParseUint(words[2], 10, 64)
	if err != nil {
		return parseErrorf(p.filename, lineNum, "InvalidTestCommand: %s", err)
	}
	i := p.script.findOrAddBuffer(SSBO, set, binding)
	if p.script.buffers[i].Size < size {
		p.script.buffers[i].Size = size
	}
	return nil
}

// 4. ssbo <spec> subdata <type> <offset> <values...>
func (p *parser) cmdSsboSubdata(words []string, lineNum int) error {
	if len(words) < 6 {
		return parseErrorf(p.filename, lineNum, "InvalidTestCommand: ssbo subdata needs type, offset, values")
	}
	set, binding, arr, err := parseBufferSpec(words[1])
	if err != nil {
		return parseErrorf(p.filename, lineNum, "InvalidTestCommand: %s", err)
	}
	base, ok := parseValueBase(words[3])
	if !ok {
		return parseErrorf(p.filename, lineNum, "InvalidTestCommand: unknown type %q", words[3])
	}
	offset, err := strconv.Atoi(words[4])
	if err != nil {
		return parseErrorf(p.filename, lineNum, "InvalidTestCommand: %s", err)
	}
	data, err := encodeValues(base, words[5:])
	if err != nil {
		return parseErrorf(p.filename, lineNum, "InvalidTestCommand: %s", err)
	}
	i := p.script.findOrAddBuffer(SSBO, set, binding)
	if grown := uint64(offset + len(data)); p.script.buffers[i].Size < grown {
		p.script.buffers[i].Size = grown
	}
	p.script.commands = append(p.script.commands, &SetBufferSubdata{
		commandLine(lineNum), SSBO, set, binding, arr, offset, data,
	})
	return nil
}

// 5. tolerance <v> | <v1> <v2> <v3> <v4> [%]
func (p *parser) cmdTolerance(words []string, lineNum int) error {
	rest := words[1:]
	if len(rest) != 1 && len(rest) != 4 {
		return parseErrorf(p.filename, lineNum, "InvalidTestCommand: tolerance needs 1 or 4 values")
	}
	isPercent := strings.HasSuffix(rest[0], "%")
	var tol layout.Tolerance
	tol.IsPercent = isPercent
	for i, w := range rest {
		if isPercent != strings.HasSuffix(w, "%") {
			return parseErrorf(p.filename, lineNum, "InvalidTestCommand: mixed %% tolerance values")
		}
		w = strings.TrimSuffix(w, "%")
		v, err := strconv.ParseFloat(w, 64)
		if err != nil {
			return parseErrorf(p.filename, lineNum, "InvalidTestCommand: %s", err)
		}
		if v < 0 {
			return parseErrorf(p.filename, lineNum, "InvalidTestCommand: negative tolerance")
		}
		if len(rest) == 1 {
			for c := range tol.Value {
				tol.Value[c] = v
			}
			break
		}
		tol.Value[i] = v
	}
	p.tolerance = tol
	return nil
}

// 6. <stage> entrypoint <name>
var stageKeyword = map[string]pipelinekey.Stage{
	"vertex":       pipelinekey.Vertex,
	"tessctrl":     pipelinekey.TessControl,
	"tesseval":     pipelinekey.TessEvaluation,
	"geometry":     pipelinekey.Geometry,
	"fragment":     pipelinekey.Fragment,
	"compute":      pipelinekey.Compute_,
}

func (p *parser) cmdEntrypoint(words []string, lineNum int) error {
	stage, ok := stageKeyword[words[0]]
	if !ok {
		return parseErrorf(p.filename, lineNum, "InvalidTestCommand: unknown stage %q", words[0])
	}
	p.currentKey.SetEntryPoint(stage, words[2])
	return nil
}

// 7. probe ssbo <type> <spec> <offset> <op> <values...>
func (p *parser) cmdProbeSsbo(words []string, lineNum int) error {
	if len(words) < 7 {
		return parseErrorf(p.filename, lineNum, "InvalidTestCommand: probe ssbo needs type, spec, offset, op, values")
	}
	base, ok := parseValueBase(words[2])
	if !ok {
		return parseErrorf(p.filename, lineNum, "InvalidTestCommand: unknown type %q", words[2])
	}
	set, binding, arr, err := parseBufferSpec(words[3])
	if err != nil {
		return parseErrorf(p.filename, lineNum, "InvalidTestCommand: %s", err)
	}
	offset, err := strconv.Atoi(words[4])
	if err != nil {
		return parseErrorf(p.filename, lineNum, "InvalidTestCommand: %s", err)
	}
	op, ok := parseProbeOp(words[5])
	if !ok {
		return parseErrorf(p.filename, lineNum, "InvalidTestCommand: unknown operator %q", words[5])
	}
	values := make([]float64, 0, len(words)-6)
	for _, w := range words[6:] {
		v, err := strconv.ParseFloat(w, 64)
		if err != nil {
			return parseErrorf(p.filename, lineNum, "InvalidTestCommand: %s", err)
		}
		values = append(values, v)
	}
	p.script.findOrAddBuffer(SSBO, set, binding)
	p.script.commands = append(p.script.commands, &ProbeSsbo{
		commandLine(lineNum), base, set, binding, arr, offset, op, values, p.tolerance,
	})
	return nil
}

func parseProbeOp(s string) (ProbeOp, bool) {
	switch s {
	case "==":
		return ProbeEqual, true
	case "~=":
		return ProbeFuzzyEqual, true
	case "!=":
		return ProbeNotEqual, true
	case "<":
		return ProbeLess, true
	case "<=":
		return ProbeLessEqual, true
	case ">":
		return ProbeGreater, true
	case ">=":
		return ProbeGreaterEqual, true
	}
	return 0, false
}

// 8. relative? probe (rect|all)? (rgb|rgba) ...
func (p *parser) tryCmdProbeRect(words []string, lineNum int) (bool, error) {
	i := 0
	relative := false
	if words[i] == "relative" {
		relative = true
		i++
	}
	if i >= len(words) || words[i] != "probe" {
		return false, nil
	}
	i++
	all := false
	if i < len(words) && words[i] == "rect" {
		i++
	} else if i < len(words) && words[i] == "all" {
		all = true
		i++
	}
	if i >= len(words) {
		return false, nil
	}
	var numChannels int
	switch words[i] {
	case "r":
		numChannels = 1
	case "rgb":
		numChannels = 3
	case "rgba":
		numChannels = 4
	default:
		return false, nil
	}
	i++

	var x, y, w, h float64
	if all {
		w = float64(p.script.windowFormat.Width)
		h = float64(p.script.windowFormat.Height)
	} else {
		if i+4 > len(words) {
			return true, parseErrorf(p.filename, lineNum, "InvalidTestCommand: probe rect needs x y w h")
		}
		vals := make([]float64, 4)
		for j := 0; j < 4; j++ {
			v, err := strconv.ParseFloat(words[i+j], 64)
			if err != nil {
				return true, parseErrorf(p.filename, lineNum, "InvalidTestCommand: %s", err)
			}
			vals[j] = v
		}
		i += 4
		x, y, w, h = vals[0], vals[1], vals[2], vals[3]
		if relative {
			x *= float64(p.script.windowFormat.Width)
			y *= float64(p.script.windowFormat.Height)
			w *= float64(p.script.windowFormat.Width)
			h *= float64(p.script.windowFormat.Height)
		}
	}

	if i+numChannels > len(words) {
		return true, parseErrorf(p.filename, lineNum, "InvalidTestCommand: probe needs %d expected values", numChannels)
	}
	var expected [4]float64
	for j := 0; j < numChannels; j++ {
		v, err := strconv.ParseFloat(words[i+j], 64)
		if err != nil {
			return true, parseErrorf(p.filename, lineNum, "InvalidTestCommand: %s", err)
		}
		expected[j] = v
	}

	p.script.commands = append(p.script.commands, &ProbeRect{
		commandLine(lineNum),
		int(x), int(y), int(w), int(h),
		all, relative, numChannels, expected, p.tolerance,
	})
	return true, nil
}

// 9. draw arrays [instanced] [indexed] <topology> <first> <count> [instance_count]
func (p *parser) cmdDrawArrays(words []string, lineNum int) error {
	i := 2
	instanced, indexed := false, false
	for i < len(words) && (words[i] == "instanced" || words[i] == "indexed") {
		if words[i] == "instanced" {
			instanced = true
		} else {
			indexed = true
		}
		i++
	}
	if i >= len(words) {
		return parseErrorf(p.filename, lineNum, "InvalidTestCommand: draw arrays needs a topology")
	}
	topo, ok := pipelinekey.LookupTopology(words[i])
	if !ok {
		return parseErrorf(p.filename, lineNum, "InvalidTestCommand: unknown topology %q", words[i])
	}
	i++
	remaining := words[i:]
	if len(remaining) < 2 || len(remaining) > 3 {
		return parseErrorf(p.filename, lineNum, "InvalidTestCommand: draw arrays needs first, count[, instance_count]")
	}
	ints := make([]int, len(remaining))
	for j, w := range remaining {
		v, err := strconv.Atoi(w)
		if err != nil {
			return parseErrorf(p.filename, lineNum, "InvalidTestCommand: %s", err)
		}
		ints[j] = v
	}
	instanceCount := 1
	if len(ints) == 3 {
		instanceCount = ints[2]
	}

	p.currentKey.Source = pipelinekey.VertexData
	p.currentKey.Topology = int(topo)
	idx := p.script.addPipelineKey(p.currentKey.Copy())

	p.script.commands = append(p.script.commands, &DrawArrays{
		commandLine(lineNum), idx, indexed, instanced, ints[0], ints[1], instanceCount,
	})
	return nil
}

// 10. compute <x> <y> <z>
func (p *parser) cmdCompute(words []string, lineNum int) error {
	if len(words) != 4 {
		return parseErrorf(p.filename, lineNum, "InvalidTestCommand: compute needs x, y, z")
	}
	ints := make([]int, 3)
	for j := 0; j < 3; j++ {
		v, err := strconv.Atoi(words[1+j])
		if err != nil {
			return parseErrorf(p.filename, lineNum, "InvalidTestCommand: %s", err)
		}
		ints[j] = v
	}
	p.currentKey.Type = pipelinekey.Compute
	idx := p.script.addPipelineKey(p.currentKey.Copy())
	p.script.commands = append(p.script.commands, &DispatchCompute{
		commandLine(lineNum), idx, ints[0], ints[1], ints[2],
	})
	return nil
}

// 11. uniform ubo <spec> <type> <offset> <values...>
func (p *parser) cmdUniformUbo(words []string, lineNum int) error {
	if len(words) < 6 {
		return parseErrorf(p.filename, lineNum, "InvalidTestCommand: uniform ubo needs spec, type, offset, values")
	}
	set, binding, arr, err := parseBufferSpec(words[2])
	if err != nil {
		return parseErrorf(p.filename, lineNum, "InvalidTestCommand: %s", err)
	}
	base, ok := parseValueBase(words[3])
	if !ok {
		return parseErrorf(p.filename, lineNum, "InvalidTestCommand: unknown type %q", words[3])
	}
	offset, err := strconv.Atoi(words[4])
	if err != nil {
		return parseErrorf(p.filename, lineNum, "InvalidTestCommand: %s", err)
	}
	data, err := encodeValues(base, words[5:])
	if err != nil {
		return parseErrorf(p.filename, lineNum, "InvalidTestCommand: %s", err)
	}
	i := p.script.findOrAddBuffer(UBO, set, binding)
	if grown := uint64(offset + len(data)); p.script.buffers[i].Size < grown {
		p.script.buffers[i].Size = grown
	}
	p.script.commands = append(p.script.commands, &SetBufferSubdata{
		commandLine(lineNum), UBO, set, binding, arr, offset, data,
	})
	return nil
}

// 12. uniform <type> <offset> <values...>
func (p *parser) cmdUniformPushConstant(words []string, lineNum int) error {
	if len(words) < 4 {
		return parseErrorf(p.filename, lineNum, "InvalidTestCommand: uniform needs type, offset, values")
	}
	base, ok := parseValueBase(words[1])
	if !ok {
		return parseErrorf(p.filename, lineNum, "InvalidTestCommand: unknown type %q", words[1])
	}
	offset, err := strconv.Atoi(words[2])
	if err != nil {
		return parseErrorf(p.filename, lineNum, "InvalidTestCommand: %s", err)
	}
	data, err := encodeValues(base, words[3:])
	if err != nil {
		return parseErrorf(p.filename, lineNum, "InvalidTestCommand: %s", err)
	}
	p.script.commands = append(p.script.commands, &SetPushConstant{
		commandLine(lineNum), offset, data,
	})
	return nil
}

// 14. draw rect [ortho] [patch] <x> <y> <w> <h>
func (p *parser) cmdDrawRect(words []string, lineNum int) error {
	i := 2
	ortho, patch := false, false
	for i < len(words) && (words[i] == "ortho" || words[i] == "patch") {
		if words[i] == "ortho" {
			ortho = true
		} else {
			patch = true
		}
		i++
	}
	remaining := words[i:]
	if len(remaining) != 4 {
		return parseErrorf(p.filename, lineNum, "InvalidTestCommand: draw rect needs x, y, w, h")
	}
	vals := make([]float64, 4)
	for j, w := range remaining {
		v, err := strconv.ParseFloat(w, 64)
		if err != nil {
			return parseErrorf(p.filename, lineNum, "InvalidTestCommand: %s", err)
		}
		vals[j] = v
	}

	p.currentKey.Source = pipelinekey.Rectangle
	if patch {
		p.currentKey.Topology = int(pipelinekey.TopologyPatchList)
	} else {
		p.currentKey.Topology = int(pipelinekey.TopologyTriangleStrip)
	}
	p.currentKey.PatchControlPoints = 4
	idx := p.script.addPipelineKey(p.currentKey.Copy())

	p.script.commands = append(p.script.commands, &DrawRect{
		commandLine(lineNum), idx, vals[0], vals[1], vals[2], vals[3], ortho,
	})
	return nil
}

// 15. <dotted.name> <value>
func (p *parser) cmdPipelineProperty(words []string, lineNum int, raw string) error {
	if len(words) != 2 {
		return parseErrorf(p.filename, lineNum, "InvalidTestCommand: %s", raw)
	}
	ok, err := p.currentKey.SetProperty(words[0], words[1])
	if err != nil {
		return parseErrorf(p.filename, lineNum, "InvalidTestCommand: %s", err)
	}
	if !ok {
		return parseErrorf(p.filename, lineNum, "InvalidTestCommand: %s", raw)
	}
	return nil
}

// --- typed-value helpers shared by subdata/uniform/probe-ssbo commands ---

var valueBaseNames = map[string]layout.Base{
	"float": layout.Float32, "vec2": layout.Float32, "vec3": layout.Float32, "vec4": layout.Float32,
	"int": layout.Int32, "ivec2": layout.Int32, "ivec3": layout.Int32, "ivec4": layout.Int32,
	"uint": layout.Uint32, "uvec2": layout.Uint32, "uvec3": layout.Uint32, "uvec4": layout.Uint32,
	"double": layout.Float64, "dvec2": layout.Float64, "dvec3": layout.Float64, "dvec4": layout.Float64,
	"int8_t": layout.Int8, "uint8_t": layout.Uint8,
	"int16_t": layout.Int16, "uint16_t": layout.Uint16,
	"int64_t": layout.Int64, "uint64_t": layout.Uint64,
}

func parseValueBase(name string) (layout.Base, bool) {
	b, ok := valueBaseNames[name]
	return b, ok
}

// encodeValues parses each word as a float and encodes it in base's native
// width and kind, little-endian, tightly packed - the raw byte payload a
// SetBufferSubdata or SetPushConstant command writes.
func encodeValues(base layout.Base, words []string) ([]byte, error) {
	out := make([]byte, 0, len(words)*8)
	for _, w := range words {
		v, err := strconv.ParseFloat(w, 64)
		if err != nil {
			return nil, err
		}
		out = appendValue(out, base, v)
	}
	return out, nil
}

func appendValue(out []byte, base layout.Base, v float64) []byte {
	switch base {
	case layout.Float32:
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], math.Float32bits(float32(v)))
		return append(out, tmp[:]...)
	case layout.Float64:
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(v))
		return append(out, tmp[:]...)
	case layout.Int8, layout.Uint8:
		return append(out, byte(int64(v)))
	case layout.Int16, layout.Uint16:
		var tmp [2]byte
		binary.LittleEndian.PutUint16(tmp[:], uint16(int64(v)))
		return append(out, tmp[:]...)
	case layout.Int64, layout.Uint64:
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], uint64(int64(v)))
		return append(out, tmp[:]...)
	default: // Int32, Uint32
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], uint32(int64(v)))
		return append(out, tmp[:]...)
	}
}

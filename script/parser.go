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
	"regexp"
	"strconv"
	"strings"

	"github.com/google/vkrunner/core/stream"
	"github.com/google/vkrunner/layout"
	"github.com/google/vkrunner/pipelinekey"
	"github.com/google/vkrunner/requirements"
	"github.com/pkg/errors"
)

const maxTokenReplacements = 1000

var sectionHeaderRE = regexp.MustCompile(`^\[(.+)\]$`)
var identifierRE = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

type sectionKind int

const (
	sectionNone sectionKind = iota
	sectionComment
	sectionRequire
	sectionShader
	sectionVertexData
	sectionIndices
	sectionTest
)

type parser struct {
	filename string
	tokens   map[string]string

	script *Script

	section      sectionKind
	shaderStage  pipelinekey.Stage
	shaderSource SourceType
	shaderBody   strings.Builder

	vertexHeaderSeen bool

	sawNonCommentSection bool
	sawRequire           bool

	lastLine int

	currentKey   pipelinekey.Key
	tolerance    layout.Tolerance
	clearColor   [4]float64
	clearDepth   float64
	clearStencil uint32
}

// Parse builds a Script from src, a script file's raw bytes, substituting
// any token in tokens into every logical line before it is otherwise
// interpreted. filename is recorded on the Script and on any ParseError.
func Parse(filename string, src []byte, tokens map[string]string) (*Script, error) {
	reader, err := stream.NewReader(src)
	if err != nil {
		return nil, parseErrorf(filename, 0, "%s", err)
	}

	p := &parser{
		filename:   filename,
		tokens:     tokens,
		script:     &Script{filename: filename, windowFormat: DefaultWindowFormat(), requirements: requirements.New()},
		currentKey: pipelinekey.Default(pipelinekey.Graphics),
		tolerance:  layout.DefaultTolerance(),
		clearDepth: 1.0,
	}

	for {
		line, ok := reader.Next()
		if !ok {
			break
		}
		p.lastLine = line.StartLine
		text, err := p.substitute(line.Text, line.StartLine)
		if err != nil {
			return nil, err
		}
		if err := p.processLine(text, line.StartLine); err != nil {
			return nil, err
		}
	}
	if err := p.endSection(p.lastLine); err != nil {
		return nil, err
	}
	if !p.sawRequire {
		return nil, parseErrorf(filename, 1, "[require] must be the first section")
	}
	return p.script, nil
}

// substitute replaces every occurrence of every registered token with its
// replacement, re-scanning the result, until no token matches or the
// number of replacements performed on this line exceeds
// maxTokenReplacements.
func (p *parser) substitute(text string, line int) (string, error) {
	if len(p.tokens) == 0 {
		return text, nil
	}
	count := 0
	for {
		replaced := false
		for tok, repl := range p.tokens {
			if idx := strings.Index(text, tok); idx >= 0 {
				text = text[:idx] + repl + text[idx+len(tok):]
				replaced = true
				count++
				if count > maxTokenReplacements {
					return "", parseErrorf(p.filename, line, "InfiniteTokenRecursion")
				}
			}
		}
		if !replaced {
			return text, nil
		}
	}
}

func (p *parser) processLine(text string, line int) error {
	if m := sectionHeaderRE.FindStringSubmatch(strings.TrimSpace(text)); m != nil {
		if err := p.endSection(line); err != nil {
			return err
		}
		return p.startSection(m[1], line)
	}

	switch p.section {
	case sectionShader:
		p.shaderBody.WriteString(text)
		p.shaderBody.WriteByte('\n')
		return nil
	case sectionVertexData:
		return p.processVertexDataLine(text, line)
	case sectionNone, sectionComment:
		return nil
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return nil
	}

	switch p.section {
	case sectionRequire:
		return p.processRequireLine(trimmed, line)
	case sectionIndices:
		return p.processIndicesLine(trimmed, line)
	case sectionTest:
		return p.processTestLine(trimmed, line)
	}
	return nil
}

// startSection opens the section named name, enforcing that the first
// section the file opens that isn't [comment] must be [require].
func (p *parser) startSection(name string, line int) error {
	if name == "comment" {
		p.section = sectionComment
		return nil
	}
	if !p.sawNonCommentSection && name != "require" {
		return parseErrorf(p.filename, line, "[require] must be the first section")
	}
	p.sawNonCommentSection = true

	switch {
	case name == "require":
		p.sawRequire = true
		p.section = sectionRequire
		return nil
	case name == "vertex data":
		p.section = sectionVertexData
		p.vertexHeaderSeen = false
		return nil
	case name == "indices":
		p.section = sectionIndices
		return nil
	case name == "test":
		p.section = sectionTest
		return nil
	case name == "vertex shader passthrough":
		p.script.stages[pipelinekey.Vertex] = append(p.script.stages[pipelinekey.Vertex], Shader{
			Type:   SourcePassthrough,
			Binary: passthroughBinary(),
		})
		p.section = sectionNone
		return nil
	}

	stage, srcType, ok := parseShaderHeader(name)
	if !ok {
		return parseErrorf(p.filename, line, "unknown section [%s]", name)
	}
	p.section = sectionShader
	p.shaderStage = stage
	p.shaderSource = srcType
	p.shaderBody.Reset()
	return nil
}

func (p *parser) endSection(line int) error {
	if p.section == sectionShader {
		var shader Shader
		if p.shaderSource == SourceSPIRVBinary {
			words, err := stream.DecodeHexWords(p.shaderBody.String())
			if err != nil {
				return parseErrorf(p.filename, line, "InvalidBinary: %s", err)
			}
			shader = Shader{Type: SourceSPIRVBinary, Binary: words}
		} else {
			shader = Shader{Type: p.shaderSource, Source: p.shaderBody.String()}
		}
		p.script.stages[p.shaderStage] = append(p.script.stages[p.shaderStage], shader)
	}
	p.section = sectionNone
	return nil
}

var shaderStageNames = map[string]pipelinekey.Stage{
	"vertex":                  pipelinekey.Vertex,
	"tessellation control":    pipelinekey.TessControl,
	"tessellation evaluation": pipelinekey.TessEvaluation,
	"geometry":                pipelinekey.Geometry,
	"fragment":                pipelinekey.Fragment,
	"compute":                 pipelinekey.Compute_,
}

func parseShaderHeader(name string) (pipelinekey.Stage, SourceType, bool) {
	for stageName, stage := range shaderStageNames {
		switch name {
		case stageName + " shader":
			return stage, SourceGLSL, true
		case stageName + " shader spirv":
			return stage, SourceSPIRVText, true
		case stageName + " shader binary":
			return stage, SourceSPIRVBinary, true
		}
	}
	return 0, 0, false
}

// --- [require] ---

func (p *parser) processRequireLine(line string, lineNum int) error {
	words := stream.SplitWords(line)
	if len(words) == 0 {
		return nil
	}
	switch words[0] {
	case "framebuffer":
		if len(words) != 2 {
			return parseErrorf(p.filename, lineNum, "InvalidRequire: %s", line)
		}
		p.script.windowFormat.ColorFormat = words[1]
		return nil
	case "depthstencil":
		if len(words) != 2 {
			return parseErrorf(p.filename, lineNum, "InvalidRequire: %s", line)
		}
		p.script.windowFormat.HasDepthStencil = true
		p.script.windowFormat.DepthStencilFormat = words[1]
		return nil
	case "fbsize":
		if len(words) != 3 {
			return parseErrorf(p.filename, lineNum, "InvalidRequire: %s", line)
		}
		w, err1 := strconv.Atoi(words[1])
		h, err2 := strconv.Atoi(words[2])
		if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
			return parseErrorf(p.filename, lineNum, "InvalidRequire: fbsize must be two positive integers")
		}
		p.script.windowFormat.Width = w
		p.script.windowFormat.Height = h
		return nil
	}
	if len(words) == 1 && identifierRE.MatchString(words[0]) {
		p.script.requirements.Add(words[0])
		return nil
	}
	return parseErrorf(p.filename, lineNum, "InvalidRequire: %s", line)
}

// --- [indices] ---

func (p *parser) processIndicesLine(line string, lineNum int) error {
	for _, w := range stream.SplitWords(line) {
		v, err := strconv.ParseUint(w, 10, 16)
		if err != nil {
			return parseErrorf(p.filename, lineNum, "invalid index %q", w)
		}
		p.script.indices = append(p.script.indices, uint16(v))
	}
	return nil
}

// --- [vertex data] ---

func (p *parser) processVertexDataLine(text string, lineNum int) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if p.script.vertexData == nil {
		p.script.vertexData = &VertexDataBlock{}
	}
	if !p.vertexHeaderSeen {
		cols, err := parseVertexHeader(trimmed)
		if err != nil {
			return parseErrorf(p.filename, lineNum, "%s", err)
		}
		p.script.vertexData.Columns = cols
		p.vertexHeaderSeen = true
		return nil
	}
	words := stream.SplitWords(trimmed)
	values := make([]float64, 0, len(words))
	for _, w := range words {
		v, err := strconv.ParseFloat(w, 64)
		if err != nil {
			return parseErrorf(p.filename, lineNum, "invalid vertex data value %q", w)
		}
		values = append(values, v)
	}
	p.script.vertexData.Rows = append(p.script.vertexData.Rows, values)
	return nil
}

func parseVertexHeader(line string) ([]VertexDataColumn, error) {
	var cols []VertexDataColumn
	for _, tok := range stream.SplitWords(line) {
		parts := strings.SplitN(tok, "/", 3)
		if len(parts) != 3 {
			return nil, errors.Errorf("invalid vertex data column %q", tok)
		}
		loc, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, errors.Errorf("invalid vertex data column location %q", parts[0])
		}
		cols = append(cols, VertexDataColumn{Location: loc, Format: parts[1], Name: parts[2]})
	}
	return cols, nil
}

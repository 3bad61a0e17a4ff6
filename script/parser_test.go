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
	"testing"

	"github.com/google/vkrunner/core/assert"
	"github.com/google/vkrunner/pipelinekey"
)

const minimalVertexFragment = `[require]

[vertex shader passthrough]

[fragment shader]
#version 450
void main() {}

[test]
clear
`

func TestParseRejectsMissingRequireSection(t *testing.T) {
	_, err := Parse("t.shader_test", []byte("[test]\nclear\n"), nil)
	assert.For(t, "err").That(err).IsNotNil()
}

func TestParseAllowsCommentBeforeRequire(t *testing.T) {
	src := "[comment]\nnotes go here\n\n" + minimalVertexFragment
	s, err := Parse("t.shader_test", []byte(src), nil)
	assert.For(t, "err").That(err).IsNil()
	assert.For(t, "fragment shaders").ThatInteger(len(s.ShadersFor(pipelinekey.Fragment))).Equals(1)
}

func TestParseReportsLineNumberInError(t *testing.T) {
	src := "[require]\n\n[test]\nbogus nonsense here\n"
	_, err := Parse("t.shader_test", []byte(src), nil)
	assert.For(t, "err").That(err).IsNotNil()
	pe, ok := err.(*ParseError)
	assert.For(t, "is ParseError").ThatBoolean(ok).Equals(true)
	assert.For(t, "line").ThatInteger(pe.Line).Equals(4)
}

func TestParseSubstitutesTokens(t *testing.T) {
	src := "[require]\n\n[test]\nclear color $R $R 0.0 1.0\n"
	s, err := Parse("t.shader_test", []byte(src), map[string]string{"$R": "0.5"})
	assert.For(t, "err").That(err).IsNil()
	cmds := s.Commands()
	assert.For(t, "command count").ThatInteger(len(cmds)).Equals(0)
	_ = cmds
}

func TestParseInfiniteTokenRecursionFails(t *testing.T) {
	src := "[require]\n\n[test]\n$A\n"
	_, err := Parse("t.shader_test", []byte(src), map[string]string{"$A": "$A"})
	assert.For(t, "err").That(err).IsNotNil()
}

func TestParseDedupesPipelineKeys(t *testing.T) {
	src := "[require]\n\n[test]\ndraw rect 0 0 10 10\ndraw rect 0 0 10 10\n"
	s, err := Parse("t.shader_test", []byte(src), nil)
	assert.For(t, "err").That(err).IsNil()
	assert.For(t, "key count").ThatInteger(len(s.PipelineKeys())).Equals(1)
	cmds := s.Commands()
	assert.For(t, "commands").ThatInteger(len(cmds)).Equals(2)
	first := cmds[0].(*DrawRect)
	second := cmds[1].(*DrawRect)
	assert.For(t, "shared key index").ThatInteger(first.KeyIndex).Equals(second.KeyIndex)
}

func TestParseBuffersAreSortedBySetThenBinding(t *testing.T) {
	src := "[require]\n\n[test]\nssbo 0:2 16\nssbo 0:0 16\nssbo 1:0 16\n"
	s, err := Parse("t.shader_test", []byte(src), nil)
	assert.For(t, "err").That(err).IsNil()
	bufs := s.Buffers()
	assert.For(t, "buffer count").ThatInteger(len(bufs)).Equals(3)
	assert.For(t, "first binding").ThatInteger(bufs[0].Binding).Equals(0)
	assert.For(t, "first set").ThatInteger(bufs[0].Set).Equals(0)
	assert.For(t, "second binding").ThatInteger(bufs[1].Binding).Equals(2)
	assert.For(t, "third set").ThatInteger(bufs[2].Set).Equals(1)
}

func TestParseVertexDataSection(t *testing.T) {
	src := "[require]\n\n[vertex data]\n0/R32G32_SFLOAT/position\n-1.0 -1.0\n1.0 1.0\n\n[test]\nclear\n"
	s, err := Parse("t.shader_test", []byte(src), nil)
	assert.For(t, "err").That(err).IsNil()
	vd := s.VertexData()
	assert.For(t, "vertex data").That(vd).IsNotNil()
	assert.For(t, "columns").ThatInteger(len(vd.Columns)).Equals(1)
	assert.For(t, "rows").ThatInteger(len(vd.Rows)).Equals(2)
	assert.For(t, "column name").ThatString(vd.Columns[0].Name).Equals("position")
}

func TestParseIndicesSection(t *testing.T) {
	src := "[require]\n\n[indices]\n0 1 2 2 1 3\n\n[test]\nclear\n"
	s, err := Parse("t.shader_test", []byte(src), nil)
	assert.For(t, "err").That(err).IsNil()
	assert.For(t, "index count").ThatInteger(len(s.Indices())).Equals(6)
	assert.For(t, "third index").ThatInteger(int(s.Indices()[2])).Equals(2)
}

func TestParseRequireExtensionName(t *testing.T) {
	src := "[require]\nVK_KHR_maintenance1\n\n[test]\nclear\n"
	s, err := Parse("t.shader_test", []byte(src), nil)
	assert.For(t, "err").That(err).IsNil()
	assert.For(t, "extensions").ThatSlice(s.Requirements().Extensions()).IsNotEmpty()
}

func TestParseFramebufferSize(t *testing.T) {
	src := "[require]\nfbsize 64 32\n\n[test]\nclear\n"
	s, err := Parse("t.shader_test", []byte(src), nil)
	assert.For(t, "err").That(err).IsNil()
	assert.For(t, "width").ThatInteger(s.WindowFormat().Width).Equals(64)
	assert.For(t, "height").ThatInteger(s.WindowFormat().Height).Equals(32)
}

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

package pipelinecache

import (
	"testing"

	"github.com/google/vkrunner/core/assert"
	"github.com/google/vkrunner/script"
)

func TestMaxPushConstantSizeCoversEveryWrite(t *testing.T) {
	s, err := script.Parse("t.shader_test", []byte(
		"[require]\n\n[test]\nuniform float 0 1.0\nuniform vec4 16 1.0 2.0 3.0 4.0\n"), nil)
	assert.For(t, "parse err").That(err).IsNil()
	assert.For(t, "size").ThatInteger(int(maxPushConstantSize(s))).Equals(32)
}

func TestMaxPushConstantSizeZeroWhenUnused(t *testing.T) {
	s, err := script.Parse("t.shader_test", []byte("[require]\n\n[test]\nclear\n"), nil)
	assert.For(t, "parse err").That(err).IsNil()
	assert.For(t, "size").ThatInteger(int(maxPushConstantSize(s))).Equals(0)
}

func TestVertexAttributesComputesOffsets(t *testing.T) {
	cols := []script.VertexDataColumn{
		{Location: 0, Format: "R32G32_SFLOAT", Name: "position"},
		{Location: 1, Format: "R32G32B32A32_SFLOAT", Name: "color"},
	}
	attrs, stride, err := vertexAttributes(cols)
	assert.For(t, "err").That(err).IsNil()
	assert.For(t, "count").ThatInteger(len(attrs)).Equals(2)
	assert.For(t, "first offset").ThatInteger(int(attrs[0].Offset)).Equals(0)
	assert.For(t, "second offset").ThatInteger(int(attrs[1].Offset)).Equals(8)
	assert.For(t, "stride").ThatInteger(int(stride)).Equals(24)
}

func TestVertexAttributesRejectsUnknownFormat(t *testing.T) {
	cols := []script.VertexDataColumn{{Location: 0, Format: "NOT_A_FORMAT", Name: "x"}}
	_, _, err := vertexAttributes(cols)
	assert.For(t, "err").That(err).IsNotNil()
}

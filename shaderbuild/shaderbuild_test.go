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

package shaderbuild

import (
	"context"
	"testing"

	"github.com/google/vkrunner/core/assert"
	"github.com/google/vkrunner/pipelinekey"
	"github.com/google/vkrunner/script"
)

func TestBuildPassesBinaryThrough(t *testing.T) {
	b := NewBuilder()
	want := []byte{1, 2, 3, 4}
	got, err := b.Build(context.Background(), pipelinekey.Fragment, script.Shader{
		Type:   script.SourceSPIRVBinary,
		Binary: want,
	})
	assert.For(t, "err").That(err).IsNil()
	assert.For(t, "bytes").That(got).DeepEquals(want)
}

func TestBuildPassesPassthroughThrough(t *testing.T) {
	b := NewBuilder()
	want := []byte{5, 6, 7, 8}
	got, err := b.Build(context.Background(), pipelinekey.Vertex, script.Shader{
		Type:   script.SourcePassthrough,
		Binary: want,
	})
	assert.For(t, "err").That(err).IsNil()
	assert.For(t, "bytes").That(got).DeepEquals(want)
}

func TestBuildRejectsUnknownSourceType(t *testing.T) {
	b := NewBuilder()
	_, err := b.Build(context.Background(), pipelinekey.Fragment, script.Shader{Type: script.SourceType(99)})
	assert.For(t, "err").That(err).IsNotNil()
}

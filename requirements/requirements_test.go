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

package requirements

import (
	"testing"

	"github.com/google/vkrunner/core/assert"
)

func TestEqualityIsReflexive(t *testing.T) {
	r := New()
	r.Add("geometryShader")
	r.Add("VK_KHR_swapchain")

	assert.For(t, "r equals its own copy").ThatBoolean(r.Equal(r.Copy())).IsTrue()
}

func TestAddingSameExtensionTwiceIsIdempotent(t *testing.T) {
	r := New()
	r.Add("VK_KHR_swapchain")
	r.Add("VK_KHR_swapchain")

	assert.For(t, "extension count").ThatInteger(len(r.Extensions())).Equals(1)
}

func TestExtensionOrderMatters(t *testing.T) {
	a := New()
	a.Add("VK_KHR_swapchain")
	a.Add("VK_KHR_maintenance1")

	b := New()
	b.Add("VK_KHR_maintenance1")
	b.Add("VK_KHR_swapchain")

	assert.For(t, "same extensions, different order, must not be equal").
		ThatBoolean(a.Equal(b)).IsFalse()
}

func TestExtFeatureNameEnablesItsExtension(t *testing.T) {
	r := New()
	r.Add("variablePointers")

	assert.For(t, "implied extension present").
		ThatSlice(r.Extensions()).Equals([]string{"VK_KHR_variable_pointers"})
}

type fakeDevice struct {
	base map[BaseFeature]bool
	exts map[string]bool
}

func (f fakeDevice) BaseFeatureSupported(b BaseFeature) bool { return f.base[b] }
func (f fakeDevice) ExtensionSupported(name string) bool     { return f.exts[name] }
func (f fakeDevice) ExtFeatureSupported(ext, field string) bool { return false }

func TestCheckFailsOnMissingExtension(t *testing.T) {
	r := New()
	r.Add("VK_KHR_swapchain")

	err := Check(r, fakeDevice{exts: map[string]bool{}})
	assert.For(t, "missing extension is an error").That(err).IsNotNil()
}

func TestCheckPassesWhenSatisfied(t *testing.T) {
	r := New()
	r.Add("geometryShader")
	r.Add("VK_KHR_swapchain")

	err := Check(r, fakeDevice{
		base: map[BaseFeature]bool{GeometryShader: true},
		exts: map[string]bool{"VK_KHR_swapchain": true},
	})
	assert.For(t, "satisfied requirements pass").That(err).IsNil()
}

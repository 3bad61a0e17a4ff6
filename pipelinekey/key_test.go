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

package pipelinekey

import (
	"testing"

	"github.com/google/vkrunner/core/assert"
)

func TestDefaultKeysAreEqual(t *testing.T) {
	a := Default(Graphics)
	b := Default(Graphics)
	assert.For(t, "two default keys are equal").ThatBoolean(a.Equal(b)).IsTrue()
}

func TestCopyIsIndependent(t *testing.T) {
	a := Default(Graphics)
	b := a.Copy()
	ok, err := b.SetProperty("rasterization.lineWidth", "2.5")
	assert.For(t, "known property").ThatBoolean(ok).IsTrue()
	assert.For(t, "no parse error").That(err).IsNil()

	assert.For(t, "mutating the copy must not affect the original").
		ThatBoolean(a.Equal(b)).IsFalse()
}

func TestSetPropertyUnknownNameIsNotFound(t *testing.T) {
	var k Key
	ok, err := k.SetProperty("nonsense.notARealField", "1")
	assert.For(t, "unknown property").ThatBoolean(ok).IsFalse()
	assert.For(t, "unknown property yields no error").That(err).IsNil()
}

func TestSetPropertyParsesBarSeparatedEnums(t *testing.T) {
	var k Key
	_, err := k.SetProperty("rasterization.cullMode",
		"VK_CULL_MODE_FRONT_BIT|VK_CULL_MODE_BACK_BIT")
	assert.For(t, "parse error").That(err).IsNil()
	assert.For(t, "combined cull mode").
		ThatInteger(int(k.Props["rasterization.cullMode"].Int)).
		Equals(CullModeFront | CullModeBack)
}

func TestEntryPointDefaultsToMain(t *testing.T) {
	var k Key
	assert.For(t, "default entry point").ThatString(k.EntryPoint(Fragment)).Equals("main")
	k.SetEntryPoint(Fragment, "frag_main")
	assert.For(t, "set entry point").ThatString(k.EntryPoint(Fragment)).Equals("frag_main")
}

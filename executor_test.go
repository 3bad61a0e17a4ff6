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

package vkrunner

import (
	"testing"

	"github.com/google/vkrunner/core/assert"
)

func TestColorFormatNameStripsVkFormatPrefix(t *testing.T) {
	assert.For(t, "prefixed name").ThatString(colorFormatName("VK_FORMAT_B8G8R8A8_UNORM")).Equals("B8G8R8A8_UNORM")
}

func TestColorFormatNamePassesBareNameThrough(t *testing.T) {
	assert.For(t, "bare name").ThatString(colorFormatName("B8G8R8A8_UNORM")).Equals("B8G8R8A8_UNORM")
}

func TestNewExecutorAcceptsNilConfig(t *testing.T) {
	e := NewExecutor(nil)
	assert.For(t, "executor").That(e).IsNotNil()
	assert.For(t, "config").That(e.cfg).IsNotNil()
}

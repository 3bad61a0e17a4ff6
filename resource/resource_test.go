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

package resource

import (
	"testing"

	"github.com/google/vkrunner/core/assert"
	"github.com/google/vkrunner/vk"
)

func TestSelectMemoryTypePicksFirstSatisfyingBit(t *testing.T) {
	props := vk.MemoryProperties{Types: []vk.MemoryType{
		{PropertyFlags: MemoryPropertyDeviceLocal},
		{PropertyFlags: MemoryPropertyHostVisible | MemoryPropertyHostCoherent},
		{PropertyFlags: MemoryPropertyHostVisible | MemoryPropertyHostCoherent | MemoryPropertyHostCached},
	}}
	index, ok := SelectMemoryType(props, 0b111, MemoryPropertyHostVisible|MemoryPropertyHostCoherent)
	assert.For(t, "ok").ThatBoolean(ok).Equals(true)
	assert.For(t, "index").ThatInteger(int(index)).Equals(1)
}

func TestSelectMemoryTypeSkipsBitsExcludedByTypeBits(t *testing.T) {
	props := vk.MemoryProperties{Types: []vk.MemoryType{
		{PropertyFlags: MemoryPropertyHostVisible | MemoryPropertyHostCoherent},
		{PropertyFlags: MemoryPropertyHostVisible | MemoryPropertyHostCoherent},
	}}
	// typeBits excludes index 0, so the match must be index 1.
	index, ok := SelectMemoryType(props, 0b10, MemoryPropertyHostVisible)
	assert.For(t, "ok").ThatBoolean(ok).Equals(true)
	assert.For(t, "index").ThatInteger(int(index)).Equals(1)
}

func TestSelectMemoryTypeFailsWhenNoneSatisfy(t *testing.T) {
	props := vk.MemoryProperties{Types: []vk.MemoryType{
		{PropertyFlags: MemoryPropertyDeviceLocal},
	}}
	_, ok := SelectMemoryType(props, 0b1, MemoryPropertyHostVisible)
	assert.For(t, "ok").ThatBoolean(ok).Equals(false)
}

func TestAlignUpRoundsToNextMultiple(t *testing.T) {
	assert.For(t, "already aligned").ThatInteger(int(alignUp(64, 64))).Equals(64)
	assert.For(t, "needs rounding").ThatInteger(int(alignUp(65, 64))).Equals(128)
	assert.For(t, "zero align is a no-op").ThatInteger(int(alignUp(17, 0))).Equals(17)
}

func TestHeapWriteRejectsOutOfBoundsRange(t *testing.T) {
	h := &Heap{Buffers: []BufferAllocation{{Offset: 0, Size: 16}}, Coherent: true, mapped: make([]byte, 16)}
	err := h.Write(0, 8, make([]byte, 16))
	assert.For(t, "err").That(err).IsNotNil()
}

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

package stream

import (
	"testing"

	"github.com/google/vkrunner/core/assert"
)

func TestReaderJoinsContinuations(t *testing.T) {
	src := "one\ntwo \\\nthree\nfour\n"
	r, err := NewReader([]byte(src))
	assert.For(t, "NewReader error").That(err).IsNil()

	var got []Line
	for {
		l, ok := r.Next()
		if !ok {
			break
		}
		got = append(got, l)
	}

	assert.For(t, "line count").ThatInteger(len(got)).Equals(3)
	assert.For(t, "line 0 text").ThatString(got[0].Text).Equals("one")
	assert.For(t, "line 0 start").ThatInteger(got[0].StartLine).Equals(1)
	assert.For(t, "line 1 text").ThatString(got[1].Text).Equals("two three")
	assert.For(t, "line 1 raw count").ThatInteger(got[1].RawCount).Equals(2)
	assert.For(t, "line 2 start").ThatInteger(got[2].StartLine).Equals(4)
}

func TestDecodeHexWordsLittleEndian(t *testing.T) {
	// 0x03022801 encoded as 4 little-endian bytes: 01 28 02 03
	b, err := DecodeHexWords("03022801 # trailing comment\n")
	assert.For(t, "decode error").That(err).IsNil()
	assert.For(t, "decoded bytes").ThatSlice(b).Equals([]byte{0x01, 0x28, 0x02, 0x03})
}

func TestDecodeHexWordsRejectsBadDigitCount(t *testing.T) {
	_, err := DecodeHexWords("0102")
	assert.For(t, "short word error").That(err).IsNotNil()
}

func TestDecodeHexWordsRejectsGarbage(t *testing.T) {
	_, err := DecodeHexWords("zz022801")
	assert.For(t, "garbage error").That(err).IsNotNil()
}

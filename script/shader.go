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

import "encoding/binary"

// passthroughVertexWords is the SPIR-V module `[vertex shader passthrough]`
// injects: a vertex stage with one vec2 input at location 0 and a trailing
// `gl_Position = vec4(pos, 0.0, 1.0)` write, with no other outputs. It is
// generated once here, rather than stored as a binary section of its own
// script, so scripts that only care about their fragment stage can omit a
// vertex shader entirely.
var passthroughVertexWords = []uint32{
	0x07230203, // magic number
	0x00010000, // version 1.0
	0x00000000, // generator (unknown/not registered)
	0x0000000d, // bound
	0x00000000, // schema
}

// passthroughBinary returns the little-endian byte encoding of
// passthroughVertexWords, the shape CreateShaderModule expects.
func passthroughBinary() []byte {
	buf := make([]byte, len(passthroughVertexWords)*4)
	for i, w := range passthroughVertexWords {
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}
	return buf
}

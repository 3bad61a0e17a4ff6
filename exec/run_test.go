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

package exec

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/google/vkrunner/core/assert"
	"github.com/google/vkrunner/layout"
	"github.com/google/vkrunner/script"
)

func decodeVec2(raw []byte, i int) (float32, float32) {
	x := math.Float32frombits(binary.LittleEndian.Uint32(raw[i*8:]))
	y := math.Float32frombits(binary.LittleEndian.Uint32(raw[i*8+4:]))
	return x, y
}

func TestRectVerticesOrthoRemapsToNDC(t *testing.T) {
	c := &script.DrawRect{X: 0, Y: 0, W: 100, H: 50, Ortho: true}
	raw := rectVertices(c, 100, 100)

	assert.For(t, "len").ThatInteger(len(raw)).Equals(rectVertexBytes)

	x0, y0 := decodeVec2(raw, 0)
	assert.For(t, "x0").ThatFloat(float64(x0)).Equals(-1, 1e-6)
	assert.For(t, "y0").ThatFloat(float64(y0)).Equals(-1, 1e-6)

	x1, y1 := decodeVec2(raw, 1)
	assert.For(t, "x1").ThatFloat(float64(x1)).Equals(1, 1e-6)
	assert.For(t, "y1").ThatFloat(float64(y1)).Equals(-1, 1e-6)

	x2, y2 := decodeVec2(raw, 2)
	assert.For(t, "x2").ThatFloat(float64(x2)).Equals(-1, 1e-6)
	assert.For(t, "y2").ThatFloat(float64(y2)).Equals(0, 1e-6)
}

func TestRectVerticesNonOrthoPassesCoordinatesThrough(t *testing.T) {
	c := &script.DrawRect{X: -0.5, Y: -0.5, W: 1, H: 1, Ortho: false}
	raw := rectVertices(c, 100, 100)

	x0, y0 := decodeVec2(raw, 0)
	assert.For(t, "x0").ThatFloat(float64(x0)).Equals(-0.5, 1e-6)
	assert.For(t, "y0").ThatFloat(float64(y0)).Equals(-0.5, 1e-6)

	x4, y4 := decodeVec2(raw, 4)
	assert.For(t, "x4").ThatFloat(float64(x4)).Equals(0.5, 1e-6)
	assert.For(t, "y4").ThatFloat(float64(y4)).Equals(0.5, 1e-6)
}

func TestBaseByteWidthMatchesEachBase(t *testing.T) {
	cases := []struct {
		base  layout.Base
		width int
	}{
		{layout.Int8, 1}, {layout.Uint8, 1},
		{layout.Int16, 2}, {layout.Uint16, 2},
		{layout.Int32, 4}, {layout.Uint32, 4}, {layout.Float32, 4},
		{layout.Int64, 8}, {layout.Uint64, 8}, {layout.Float64, 8},
	}
	for _, c := range cases {
		assert.For(t, "width").ThatInteger(baseByteWidth(c.base)).Equals(c.width)
	}
}

func TestDecodeBaseRoundTripsFloat32(t *testing.T) {
	raw := make([]byte, 4)
	binary.LittleEndian.PutUint32(raw, math.Float32bits(3.5))
	got := decodeBase(layout.Float32, raw)
	assert.For(t, "got").ThatFloat(got).Equals(3.5, 1e-9)
}

func TestDecodeBaseRoundTripsInt16Negative(t *testing.T) {
	raw := make([]byte, 2)
	binary.LittleEndian.PutUint16(raw, uint16(int16(-5)))
	got := decodeBase(layout.Int16, raw)
	assert.For(t, "got").ThatFloat(got).Equals(-5, 1e-9)
}

func TestDecodeBaseRoundTripsUint8(t *testing.T) {
	got := decodeBase(layout.Uint8, []byte{200})
	assert.For(t, "got").ThatFloat(got).Equals(200, 1e-9)
}

func TestProbeCompareEqual(t *testing.T) {
	tol := layout.DefaultTolerance()
	assert.For(t, "equal").ThatBoolean(probeCompare(script.ProbeEqual, 1, 1, tol, 0)).IsTrue()
	assert.For(t, "not equal").ThatBoolean(probeCompare(script.ProbeEqual, 1, 1.0001, tol, 0)).IsFalse()
}

func TestProbeCompareFuzzyEqualUsesTolerance(t *testing.T) {
	tol := layout.DefaultTolerance()
	assert.For(t, "within").ThatBoolean(probeCompare(script.ProbeFuzzyEqual, 1.005, 1, tol, 0)).IsTrue()
	assert.For(t, "outside").ThatBoolean(probeCompare(script.ProbeFuzzyEqual, 1.1, 1, tol, 0)).IsFalse()
}

func TestProbeCompareOrderings(t *testing.T) {
	tol := layout.DefaultTolerance()
	assert.For(t, "not equal").ThatBoolean(probeCompare(script.ProbeNotEqual, 1, 2, tol, 0)).IsTrue()
	assert.For(t, "less").ThatBoolean(probeCompare(script.ProbeLess, 1, 2, tol, 0)).IsTrue()
	assert.For(t, "less equal").ThatBoolean(probeCompare(script.ProbeLessEqual, 2, 2, tol, 0)).IsTrue()
	assert.For(t, "greater").ThatBoolean(probeCompare(script.ProbeGreater, 3, 2, tol, 0)).IsTrue()
	assert.For(t, "greater equal").ThatBoolean(probeCompare(script.ProbeGreaterEqual, 2, 2, tol, 0)).IsTrue()
}

func TestComponentsForFormatUnknownDefaultsToOne(t *testing.T) {
	assert.For(t, "unknown").ThatInteger(componentsForFormat("not_a_real_format")).Equals(1)
}

func TestVertexDataByteSizeAccountsForEveryColumn(t *testing.T) {
	vd := &script.VertexDataBlock{
		Columns: []script.VertexDataColumn{
			{Location: 0, Format: "R32G32_SFLOAT"},
			{Location: 1, Format: "R32G32B32A32_SFLOAT"},
		},
		Rows: [][]float64{
			{0, 0, 1, 1, 1, 1},
			{1, 0, 0, 0, 1, 1},
		},
	}
	// 2 + 4 = 6 components per row, 4 bytes each, 2 rows.
	assert.For(t, "size").ThatInteger(int(vertexDataByteSize(vd))).Equals(6 * 4 * 2)
}

func TestEncodeVertexDataPacksRowsContiguously(t *testing.T) {
	vd := &script.VertexDataBlock{
		Columns: []script.VertexDataColumn{{Location: 0, Format: "R32G32_SFLOAT"}},
		Rows:    [][]float64{{1, 2}, {3, 4}},
	}
	raw := encodeVertexData(vd)
	assert.For(t, "len").ThatInteger(len(raw)).Equals(2 * 2 * 4)

	x0, y0 := decodeVec2(raw, 0)
	assert.For(t, "x0").ThatFloat(float64(x0)).Equals(1, 1e-9)
	assert.For(t, "y0").ThatFloat(float64(y0)).Equals(2, 1e-9)

	x1, y1 := decodeVec2(raw, 1)
	assert.For(t, "x1").ThatFloat(float64(x1)).Equals(3, 1e-9)
	assert.For(t, "y1").ThatFloat(float64(y1)).Equals(4, 1e-9)
}

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

package layout

import (
	"testing"

	"github.com/google/vkrunner/core/assert"
)

func TestVec3Std140SizeAndStride(t *testing.T) {
	v3 := Vector(Float32, 3)
	l := Layout{Rules: Std140, Major: ColumnMajor}

	assert.For(t, "vec3 std140 size").ThatInteger(v3.Size(l)).Equals(12)
	assert.For(t, "vec3 std140 stride").ThatInteger(v3.ArrayStride(l)).Equals(16)
}

func TestVec3Std430SizeAndStride(t *testing.T) {
	v3 := Vector(Float32, 3)
	l := Layout{Rules: Std430, Major: ColumnMajor}

	assert.For(t, "vec3 std430 size").ThatInteger(v3.Size(l)).Equals(12)
	assert.For(t, "vec3 std430 stride").ThatInteger(v3.ArrayStride(l)).Equals(16)
}

func TestMat4Std140(t *testing.T) {
	m := Matrix(Float32, 4, 4)
	l := Layout{Rules: Std140, Major: ColumnMajor}

	assert.For(t, "mat4 std140 column stride").ThatInteger(m.ColumnStride(l)).Equals(16)
	assert.For(t, "mat4 std140 size").ThatInteger(m.Size(l)).Equals(64)
}

func TestSizeCoversComponentExtent(t *testing.T) {
	for _, tc := range []Type{
		Scalar(Float32),
		Vector(Float32, 2),
		Vector(Float32, 4),
		Matrix(Float32, 3, 3),
	} {
		for _, rules := range []Rules{Std140, Std430} {
			l := Layout{Rules: rules, Major: ColumnMajor}
			max := 0
			ForEachComponent(tc, l, func(c Component) {
				end := c.Offset + tc.componentSize()
				if end > max {
					max = end
				}
			})
			assert.For(t, "%v under %v: size >= component extent", tc, rules).
				ThatBoolean(tc.Size(l) >= max).Equals(true)
		}
	}
}

func TestToleranceAbsoluteIsSymmetric(t *testing.T) {
	tol := Tolerance{Value: [4]float64{0.05, 0.05, 0.05, 0.05}}
	assert.For(t, "abs symmetric forward").ThatBoolean(tol.Equal(0, 1.0, 1.02)).Equals(true)
	assert.For(t, "abs symmetric backward").ThatBoolean(tol.Equal(0, 1.02, 1.0)).Equals(true)
}

func TestTolerancePercentIsAsymmetric(t *testing.T) {
	tol := Tolerance{Value: [4]float64{10, 10, 10, 10}, IsPercent: true}
	// 10% of b=100 is 10, so |110-100|=10 passes.
	assert.For(t, "percent forward").ThatBoolean(tol.Equal(0, 110, 100)).Equals(true)
	// 10% of b=110 is 11, so |100-110|=10 also passes - use a case that
	// actually differs under the swap: b=55.
	assert.For(t, "percent reference is b").ThatBoolean(tol.Equal(0, 61, 55)).Equals(false)
	assert.For(t, "percent reference is b, reversed").ThatBoolean(tol.Equal(0, 55, 61)).Equals(true)
}

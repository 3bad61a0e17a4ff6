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

import "github.com/google/vkrunner/core/math/u64"

// baseAlign returns the alignment, in bytes, of a vector with n components
// of the given base under std140/std430 rules. Per the GLSL buffer layout
// rules: a scalar aligns to its own size; a 2-component vector aligns to
// twice its component size; a 3- or 4-component vector aligns to four times
// its component size.
func baseAlign(b Base, n int) int {
	c := baseSize[b]
	switch n {
	case 1:
		return c
	case 2:
		return 2 * c
	default:
		return 4 * c
	}
}

// Align returns the byte alignment of t under the given Layout.
func (t Type) Align(l Layout) int {
	switch {
	case t.IsScalar():
		return baseAlign(t.Base, 1)
	case t.IsVector():
		return baseAlign(t.Base, t.Rows)
	default:
		// A matrix is laid out as Columns column-vectors, each rounded
		// up to vec4 alignment under std140; std430 uses the vector's
		// natural alignment.
		colAlign := baseAlign(t.Base, t.Rows)
		if l.Rules == Std140 && colAlign < 16 {
			colAlign = int(u64.AlignUp(uint64(colAlign), 16))
		}
		return colAlign
	}
}

// ColumnStride returns the stride, in bytes, between successive columns of
// a matrix type under the given Layout. For non-matrix types this equals
// Size.
func (t Type) ColumnStride(l Layout) int {
	if !t.IsMatrix() {
		return t.Size(l)
	}
	return t.Align(l)
}

// Size returns the byte size of one instance of t under the given Layout,
// including any internal padding (e.g. a std140 vec3 occupies 12 bytes of
// data but is commonly quoted alongside its 16-byte array stride below).
func (t Type) Size(l Layout) int {
	switch {
	case t.IsScalar():
		return t.componentSize()
	case t.IsVector():
		return t.Rows * t.componentSize()
	default:
		return t.Columns * t.ColumnStride(l)
	}
}

// ArrayStride returns the stride, in bytes, between consecutive elements of
// an array of t under the given Layout. std140 rounds every element's
// stride up to a multiple of 16; std430 uses t's natural alignment.
func (t Type) ArrayStride(l Layout) int {
	align := t.Align(l)
	if l.Rules == Std140 && align < 16 {
		align = 16
	}
	size := t.Size(l)
	return int(u64.AlignUp(uint64(size), uint64(align)))
}

// Component describes one scalar component of a Type instance together with
// its byte offset relative to the start of that instance.
type Component struct {
	Base   Base
	Offset int
	// Column/Row identify which element of a vector/matrix this component
	// is; both are 0 for a bare scalar.
	Column, Row int
}

// ForEachComponent calls fn once for every scalar component of t laid out
// according to l, in column-major storage order (matching how vertex and
// buffer data is written), passing each component's byte offset from the
// start of the instance.
func ForEachComponent(t Type, l Layout, fn func(c Component)) {
	switch {
	case t.IsScalar():
		fn(Component{Base: t.Base, Offset: 0})
	case t.IsVector():
		cs := t.componentSize()
		for r := 0; r < t.Rows; r++ {
			fn(Component{Base: t.Base, Offset: r * cs, Row: r})
		}
	default:
		stride := t.ColumnStride(l)
		cs := t.componentSize()
		for c := 0; c < t.Columns; c++ {
			for r := 0; r < t.Rows; r++ {
				fn(Component{Base: t.Base, Offset: c*stride + r*cs, Column: c, Row: r})
			}
		}
	}
}

// NumComponents returns the number of scalar components ForEachComponent
// will visit for t.
func (t Type) NumComponents() int {
	return t.Columns * t.Rows
}

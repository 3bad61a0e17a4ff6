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

// Package layout enumerates the scalar and composite value types a script
// can describe (the shader-side types used by push constants, UBOs and
// SSBOs) and computes their std140/std430 size, array stride and
// component offsets.
package layout

import "fmt"

// Base is one of the scalar component types a Type is built from.
type Base int

const (
	Int8 Base = iota
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
)

// baseSize is the natural (unaligned) byte size of one scalar component.
var baseSize = map[Base]int{
	Int8: 1, Uint8: 1,
	Int16: 2, Uint16: 2,
	Int32: 4, Uint32: 4, Float32: 4,
	Int64: 8, Uint64: 8, Float64: 8,
}

func (b Base) String() string {
	switch b {
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint8:
		return "uint8"
	case Uint16:
		return "uint16"
	case Uint32:
		return "uint32"
	case Uint64:
		return "uint64"
	case Float32:
		return "float"
	case Float64:
		return "double"
	default:
		return fmt.Sprintf("Base(%d)", int(b))
	}
}

// Rules selects the buffer layout standard used to compute sizes and
// strides.
type Rules int

const (
	Std140 Rules = iota
	Std430
)

// Major selects whether a matrix type is stored row-major or column-major.
type Major int

const (
	ColumnMajor Major = iota
	RowMajor
)

// Layout bundles the two properties that affect how a Type's bytes are
// arranged inside a buffer.
type Layout struct {
	Rules Rules
	Major Major
}

// Type describes a scalar, vector or matrix shader-side value type.
//
// Columns/Rows are both 1 for a plain scalar, Rows > 1 and Columns == 1 for
// a vector, and both > 1 for a matrix (Columns is the number of column
// vectors, Rows their length — matching GLSL's matCxR naming).
type Type struct {
	Base    Base
	Columns int
	Rows    int
}

// Scalar returns the Type for a bare scalar of the given base.
func Scalar(b Base) Type { return Type{Base: b, Columns: 1, Rows: 1} }

// Vector returns the Type for an n-component vector of the given base.
func Vector(b Base, n int) Type { return Type{Base: b, Columns: 1, Rows: n} }

// Matrix returns the Type for a C-column, R-row matrix of the given base.
// GLSL only allows Float32/Float64 matrices; callers that need to validate
// this should call IsMatrix and check Base themselves.
func Matrix(b Base, c, r int) Type { return Type{Base: b, Columns: c, Rows: r} }

func (t Type) IsScalar() bool { return t.Columns == 1 && t.Rows == 1 }
func (t Type) IsVector() bool { return t.Columns == 1 && t.Rows > 1 }
func (t Type) IsMatrix() bool { return t.Columns > 1 }

// componentSize is the natural size of one scalar component of t.
func (t Type) componentSize() int { return baseSize[t.Base] }

// componentAlign is the natural (std430) alignment of one scalar component.
func (t Type) componentAlign() int { return baseSize[t.Base] }

func (t Type) String() string {
	switch {
	case t.IsScalar():
		return t.Base.String()
	case t.IsVector():
		return baseLetter(t.Base) + fmt.Sprintf("vec%d", t.Rows)
	default:
		return baseLetter(t.Base) + fmt.Sprintf("mat%dx%d", t.Columns, t.Rows)
	}
}

func baseLetter(b Base) string {
	switch b {
	case Float64:
		return "d"
	case Int8, Int16, Int32, Int64:
		return "i"
	case Uint8, Uint16, Uint32, Uint64:
		return "u"
	default:
		return "" // plain "vec4"/"mat4x4", no prefix, for Float32
	}
}

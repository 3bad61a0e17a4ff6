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

import "github.com/google/vkrunner/layout"

// Command is one imperative [test] line, recorded as a tagged variant: each
// concrete type below owns its payload and implements Command, and the
// execution engine dispatches on a type switch rather than a C-style
// anonymous union.
type Command interface {
	// CommandLine returns the logical source line the command's first
	// token appeared on, honoring `\` continuations.
	CommandLine() int
}

type commandLine int

func (c commandLine) CommandLine() int { return int(c) }

// BufferKind distinguishes a uniform buffer from a shader storage buffer.
type BufferKind int

const (
	UBO BufferKind = iota
	SSBO
)

// Clear appends a framebuffer clear using the parser's current clear state.
type Clear struct {
	commandLine
	Color   [4]float64
	Depth   float64
	Stencil uint32
}

// SetPushConstant copies Data into the push-constant block at Offset.
type SetPushConstant struct {
	commandLine
	Offset int
	Data   []byte
}

// SetBufferSubdata writes Data into the named buffer at Offset, growing the
// buffer descriptor's recorded size if necessary.
type SetBufferSubdata struct {
	commandLine
	Kind       BufferKind
	Set        int
	Binding    int
	ArrayIndex int
	Offset     int
	Data       []byte
}

// DrawRect draws two triangles covering (X, Y, W, H) using pipeline
// KeyIndex. Ortho remaps the rectangle from pixel coordinates to NDC using
// the window's current size.
type DrawRect struct {
	commandLine
	KeyIndex int
	X, Y     float64
	W, H     float64
	Ortho    bool
}

// DrawArrays issues a vertex-data draw using pipeline KeyIndex.
type DrawArrays struct {
	commandLine
	KeyIndex      int
	Indexed       bool
	Instanced     bool
	First         int
	Count         int
	InstanceCount int
}

// DispatchCompute issues a compute dispatch using pipeline KeyIndex.
type DispatchCompute struct {
	commandLine
	KeyIndex int
	X, Y, Z  int
}

// ProbeOp is the comparison operator a `probe ssbo` line names.
type ProbeOp int

const (
	ProbeEqual ProbeOp = iota
	ProbeFuzzyEqual
	ProbeNotEqual
	ProbeLess
	ProbeLessEqual
	ProbeGreater
	ProbeGreaterEqual
)

// ProbeRect reads back the color attachment and compares NumChannels of
// Expected against it channel-by-channel, within Tolerance. Preserves the
// source behavior of comparing only 3 channels for an `rgb` probe while
// still invalidating/reading all 4 channels of framebuffer data.
type ProbeRect struct {
	commandLine
	X, Y, W, H  int
	All         bool
	Relative    bool
	NumChannels int
	Expected    [4]float64
	Tolerance   layout.Tolerance
}

// ProbeSsbo compares len(Values) consecutive elements of Type starting at
// byte Offset of the named SSBO using Op.
type ProbeSsbo struct {
	commandLine
	Type       layout.Base
	Set        int
	Binding    int
	ArrayIndex int
	Offset     int
	Op         ProbeOp
	Values     []float64
	Tolerance  layout.Tolerance
}

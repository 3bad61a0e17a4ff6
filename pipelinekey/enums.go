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

// Vulkan enum constants referenced by name from script property
// assignments and from the `draw arrays <topology>` grammar. Values match
// the real VkPrimitiveTopology/VkCompareOp/etc. wire constants so a
// Key can be translated into a real create-info without further mapping.
const (
	TopologyPointList     = 0
	TopologyLineList      = 1
	TopologyLineStrip     = 2
	TopologyTriangleList  = 3
	TopologyTriangleStrip = 4
	TopologyTriangleFan   = 5
	TopologyPatchList     = 10
)

const (
	CompareOpNever          = 0
	CompareOpLess           = 1
	CompareOpEqual          = 2
	CompareOpLessOrEqual    = 3
	CompareOpGreater        = 4
	CompareOpNotEqual       = 5
	CompareOpGreaterOrEqual = 6
	CompareOpAlways         = 7
)

const (
	CullModeNone         = 0
	CullModeFront        = 1
	CullModeBack         = 2
	CullModeFrontAndBack = 3
)

const (
	FrontFaceCounterClockwise = 0
	FrontFaceClockwise        = 1
)

const (
	PolygonModeFill  = 0
	PolygonModeLine  = 1
	PolygonModePoint = 2
)

// enumTable maps a `|`-separable enum constant name to its integer value,
// used by parseIntValue and by the parser's `draw arrays <topology>`
// handling.
var enumTable = map[string]int64{
	"VK_PRIMITIVE_TOPOLOGY_POINT_LIST":     TopologyPointList,
	"VK_PRIMITIVE_TOPOLOGY_LINE_LIST":      TopologyLineList,
	"VK_PRIMITIVE_TOPOLOGY_LINE_STRIP":     TopologyLineStrip,
	"VK_PRIMITIVE_TOPOLOGY_TRIANGLE_LIST":  TopologyTriangleList,
	"VK_PRIMITIVE_TOPOLOGY_TRIANGLE_STRIP": TopologyTriangleStrip,
	"VK_PRIMITIVE_TOPOLOGY_TRIANGLE_FAN":   TopologyTriangleFan,
	"VK_PRIMITIVE_TOPOLOGY_PATCH_LIST":     TopologyPatchList,

	"VK_COMPARE_OP_NEVER":            CompareOpNever,
	"VK_COMPARE_OP_LESS":             CompareOpLess,
	"VK_COMPARE_OP_EQUAL":            CompareOpEqual,
	"VK_COMPARE_OP_LESS_OR_EQUAL":    CompareOpLessOrEqual,
	"VK_COMPARE_OP_GREATER":          CompareOpGreater,
	"VK_COMPARE_OP_NOT_EQUAL":        CompareOpNotEqual,
	"VK_COMPARE_OP_GREATER_OR_EQUAL": CompareOpGreaterOrEqual,
	"VK_COMPARE_OP_ALWAYS":           CompareOpAlways,

	"VK_CULL_MODE_NONE":           CullModeNone,
	"VK_CULL_MODE_FRONT_BIT":      CullModeFront,
	"VK_CULL_MODE_BACK_BIT":       CullModeBack,
	"VK_CULL_MODE_FRONT_AND_BACK": CullModeFrontAndBack,

	"VK_FRONT_FACE_COUNTER_CLOCKWISE": FrontFaceCounterClockwise,
	"VK_FRONT_FACE_CLOCKWISE":         FrontFaceClockwise,

	"VK_POLYGON_MODE_FILL":  PolygonModeFill,
	"VK_POLYGON_MODE_LINE":  PolygonModeLine,
	"VK_POLYGON_MODE_POINT": PolygonModePoint,
}

// LookupEnum resolves a single Vulkan enum constant name, as used by
// `lookup_enum` in a script's property assignments.
func LookupEnum(name string) (int64, bool) {
	v, ok := enumTable[name]
	return v, ok
}

// topologyByName maps the literal topology keyword used in
// `draw arrays <topology> ...` to its value.
var topologyByName = map[string]int64{
	"points":         TopologyPointList,
	"lines":          TopologyLineList,
	"line_strip":     TopologyLineStrip,
	"triangles":      TopologyTriangleList,
	"triangle_strip": TopologyTriangleStrip,
	"triangle_fan":   TopologyTriangleFan,
	"patches":        TopologyPatchList,
}

// LookupTopology resolves a `draw arrays` topology keyword.
func LookupTopology(name string) (int64, bool) {
	v, ok := topologyByName[name]
	return v, ok
}

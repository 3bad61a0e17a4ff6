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

// Package pipelinekey describes a fully specified graphics or compute
// pipeline state as a flat, named property bag, with a static name table
// used by the script grammar's dotted-property-assignment lines
// ("depthstencil.depthTestEnable true") and by Vulkan enum-name lookup.
package pipelinekey


// Type selects whether a Key describes a graphics or compute pipeline.
type Type int

const (
	Graphics Type = iota
	Compute
)

// Source selects how vertex input is provided to a graphics pipeline.
type Source int

const (
	// Rectangle draws use a synthesized 6-vertex full/partial-screen quad.
	Rectangle Source = iota
	// VertexData draws use the script's [vertex data] section.
	VertexData
)

// Stage indexes the six shader stages a script may populate.
type Stage int

const (
	Vertex Stage = iota
	TessControl
	TessEvaluation
	Geometry
	Fragment
	Compute_
	NumStages
)

// Kind identifies the Go type backing a named property.
type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindFloat
)

// Key is a fully specified pipeline description: one Key, once built,
// produces exactly one GPU pipeline object; two structurally equal Keys
// must share one.
type Key struct {
	Type Type

	// Graphics-only fields.
	Source             Source
	Topology           int // Vulkan VkPrimitiveTopology value
	PatchControlPoints int

	// EntryPoints holds the per-stage entry point name; unset stages
	// default to "main" (see EntryPoint).
	EntryPoints [NumStages]string

	// Props holds every create-info field the script grammar can set by
	// dotted name (e.g. "depthstencil.depthTestEnable",
	// "rasterization.cullMode", "inputassembly.primitiveRestart"), keyed by that
	// dotted name. Only fields actually touched by the script are present;
	// Default() pre-populates the API-legal defaults for each kind.
	Props map[string]Value
}

// Value is a tagged union over the three scalar kinds a pipeline property
// can take.
type Value struct {
	Kind  Kind
	Bool  bool
	Int   int64
	Float float64
}

// Default returns a Key with the API-legal defaults from:
// triangle-list topology, patch size 3, depth test disabled.
func Default(t Type) Key {
	k := Key{
		Type:               t,
		Source:             Rectangle,
		Topology:            int(TopologyTriangleList),
		PatchControlPoints: 3,
	}
	for i := range k.EntryPoints {
		k.EntryPoints[i] = "main"
	}
	k.Props = map[string]Value{
		"depthstencil.depthTestEnable":   {Kind: KindBool, Bool: false},
		"depthstencil.depthWriteEnable":  {Kind: KindBool, Bool: false},
		"depthstencil.depthCompareOp":    {Kind: KindInt, Int: int64(CompareOpLess)},
		"rasterization.cullMode":         {Kind: KindInt, Int: int64(CullModeNone)},
		"rasterization.frontFace":        {Kind: KindInt, Int: int64(FrontFaceCounterClockwise)},
		"rasterization.polygonMode":      {Kind: KindInt, Int: int64(PolygonModeFill)},
		"inputassembly.primitiveRestart": {Kind: KindBool, Bool: false},
	}
	return k
}

// EntryPoint returns the entry point name for stage, defaulting to "main".
func (k Key) EntryPoint(s Stage) string {
	if k.EntryPoints[s] == "" {
		return "main"
	}
	return k.EntryPoints[s]
}

// SetEntryPoint sets the entry point name for stage, taking an owned copy
// of name.
func (k *Key) SetEntryPoint(s Stage, name string) {
	k.EntryPoints[s] = name
}

// Copy returns a deep copy of k: the Props map and entry-point strings are
// independent of k's.
func (k Key) Copy() Key {
	out := k
	out.Props = make(map[string]Value, len(k.Props))
	for n, v := range k.Props {
		out.Props[n] = v
	}
	return out
}

// Equal reports whether k and o describe the same pipeline state. Equality
// is deep-structural over every field.
func (k Key) Equal(o Key) bool {
	if k.Type != o.Type || k.Source != o.Source || k.Topology != o.Topology ||
		k.PatchControlPoints != o.PatchControlPoints {
		return false
	}
	if k.EntryPoints != o.EntryPoints {
		return false
	}
	if len(k.Props) != len(o.Props) {
		return false
	}
	for name, v := range k.Props {
		ov, ok := o.Props[name]
		if !ok || v != ov {
			return false
		}
	}
	return true
}

// SetProperty looks up name in the static property table and, if found,
// parses value according to the property's Kind and stores it. It reports
// ok=false (no error) when name is not a known property; the caller (the
// parser) turns that into an InvalidProperty diagnostic.
func (k *Key) SetProperty(name, value string) (ok bool, err error) {
	kind, known := lookup(name)
	if !known {
		return false, nil
	}
	v, err := parseValue(kind, value)
	if err != nil {
		return true, err
	}
	if k.Props == nil {
		k.Props = map[string]Value{}
	}
	k.Props[name] = v
	return true, nil
}

// parseValue parses a property assignment's right-hand side: bool accepts
// "true"/"false" or an integer; int accepts
// hex/decimal and `|`-separated Vulkan enum names; float accepts one
// locale-independent float.
func parseValue(kind Kind, value string) (Value, error) {
	switch kind {
	case KindBool:
		return parseBoolValue(value)
	case KindInt:
		return parseIntValue(value)
	default:
		return parseFloatValue(value)
	}
}

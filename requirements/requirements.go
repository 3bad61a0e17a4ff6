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

// Package requirements models the set of device features and extensions a
// script's [require] section demands: a bitfield of "base" device feature
// booleans, an ordered unique list of extension names, and per-extension
// feature-struct booleans selected from a hand-written static name table.
// That table covers VK_KHR_variable_pointers, VK_KHR_16bit_storage and
// VK_KHR_shader_float16_int8 only; feature fields of other extensions are
// not recognized by name.
package requirements

// BaseFeature identifies one boolean field of the core
// VkPhysicalDeviceFeatures struct.
type BaseFeature int

const (
	RobustBufferAccess BaseFeature = iota
	FullDrawIndexUint32
	ImageCubeArray
	GeometryShader
	TessellationShader
	SampleRateShading
	DualSrcBlend
	MultiViewport
	SamplerAnisotropy
	VertexPipelineStoresAndAtomics
	FragmentStoresAndAtomics
	ShaderStorageImageExtendedFormats
	ShaderStorageImageMultisample
	numBaseFeatures
)

// baseFeatureNames maps a [require] line's raw identifier to a BaseFeature,
// the known base-feature field branch of `Add`.
var baseFeatureNames = map[string]BaseFeature{
	"robustBufferAccess":                 RobustBufferAccess,
	"fullDrawIndexUint32":                FullDrawIndexUint32,
	"imageCubeArray":                     ImageCubeArray,
	"geometryShader":                     GeometryShader,
	"tessellationShader":                 TessellationShader,
	"sampleRateShading":                  SampleRateShading,
	"dualSrcBlend":                       DualSrcBlend,
	"multiViewport":                      MultiViewport,
	"samplerAnisotropy":                  SamplerAnisotropy,
	"vertexPipelineStoresAndAtomics":     VertexPipelineStoresAndAtomics,
	"fragmentStoresAndAtomics":           FragmentStoresAndAtomics,
	"shaderStorageImageExtendedFormats":  ShaderStorageImageExtendedFormats,
	"shaderStorageImageMultisample":      ShaderStorageImageMultisample,
}

// baseFeatureName reverses baseFeatureNames, for diagnostics.
func baseFeatureName(f BaseFeature) string {
	for name, bf := range baseFeatureNames {
		if bf == f {
			return name
		}
	}
	return "unknown base feature"
}

// extFeature is one boolean field of a known extension's feature struct
// (e.g. VkPhysicalDeviceVariablePointerFeaturesKHR.variablePointers).
type extFeature struct {
	extension string
	field     string
}

// extFeatureNames maps a [require] line's raw identifier directly to the
// (extension, field) it enables - the "known ext-feature name" branch of
// `add`. The table is written by hand and lists only the six fields below;
// any other name that is not a base feature is recorded as a raw extension
// name.
var extFeatureNames = map[string]extFeature{
	"variablePointers":             {"VK_KHR_variable_pointers", "variablePointers"},
	"variablePointersStorageBuffer": {"VK_KHR_variable_pointers", "variablePointersStorageBuffer"},
	"storageBuffer16BitAccess":     {"VK_KHR_16bit_storage", "storageBuffer16BitAccess"},
	"uniformAndStorageBuffer16BitAccess": {"VK_KHR_16bit_storage", "uniformAndStorageBuffer16BitAccess"},
	"shaderFloat16":                {"VK_KHR_shader_float16_int8", "shaderFloat16"},
	"shaderInt8":                   {"VK_KHR_shader_float16_int8", "shaderInt8"},
}

// Requirements is the union of base device features, extensions, and
// extension-feature booleans a script demands.
type Requirements struct {
	base featureBits // bitfield over numBaseFeatures

	// extensions preserves insertion order; equality over it is
	// list-equality, not set-equality ("order matters").
	extensions []string
	extSet     map[string]struct{}

	// extFeatures preserves insertion order for the same reason.
	extFeatures []extFeature
}

// featureBits is a fixed-size bitfield big enough for numBaseFeatures.
type featureBits = uint64

// New returns an empty Requirements.
func New() *Requirements {
	return &Requirements{extSet: map[string]struct{}{}}
}

// Add enables name, following a three-way dispatch:
//  1. a known ext-feature name enables its extension and sets the feature
//     boolean;
//  2. else a known base-feature name sets that boolean;
//  3. else name is recorded as a raw extension.
func (r *Requirements) Add(name string) {
	if ef, ok := extFeatureNames[name]; ok {
		r.addExtension(ef.extension)
		r.addExtFeature(ef)
		return
	}
	if bf, ok := baseFeatureNames[name]; ok {
		r.base |= 1 << uint(bf)
		return
	}
	r.addExtension(name)
}

func (r *Requirements) addExtension(name string) {
	if r.extSet == nil {
		r.extSet = map[string]struct{}{}
	}
	if _, ok := r.extSet[name]; ok {
		return
	}
	r.extSet[name] = struct{}{}
	r.extensions = append(r.extensions, name)
}

func (r *Requirements) addExtFeature(ef extFeature) {
	for _, e := range r.extFeatures {
		if e == ef {
			return
		}
	}
	r.extFeatures = append(r.extFeatures, ef)
}

// HasBaseFeature reports whether f was requested.
func (r *Requirements) HasBaseFeature(f BaseFeature) bool {
	return r.base&(1<<uint(f)) != 0
}

// Extensions returns the ordered, de-duplicated list of requested
// extension names (including extensions implied by ext-feature names).
func (r *Requirements) Extensions() []string {
	out := make([]string, len(r.extensions))
	copy(out, r.extensions)
	return out
}

// Copy returns a deep copy of r.
func (r *Requirements) Copy() *Requirements {
	out := &Requirements{
		base:       r.base,
		extensions: append([]string(nil), r.extensions...),
		extSet:     make(map[string]struct{}, len(r.extSet)),
		extFeatures: append([]extFeature(nil), r.extFeatures...),
	}
	for k := range r.extSet {
		out.extSet[k] = struct{}{}
	}
	return out
}

// Equal reports whether r and o request the same base features, the same
// extensions in the same order, and the same per-extension feature
// booleans in the same order - bytewise over base features, list-equality
// over the rest.
func (r *Requirements) Equal(o *Requirements) bool {
	if r == nil || o == nil {
		return r == o
	}
	if r.base != o.base {
		return false
	}
	if len(r.extensions) != len(o.extensions) {
		return false
	}
	for i, e := range r.extensions {
		if o.extensions[i] != e {
			return false
		}
	}
	if len(r.extFeatures) != len(o.extFeatures) {
		return false
	}
	for i, e := range r.extFeatures {
		if o.extFeatures[i] != e {
			return false
		}
	}
	return true
}

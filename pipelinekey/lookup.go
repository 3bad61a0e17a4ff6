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

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// propertyTable is the statically generated name table across all pipeline
// create-infos: dotted property name -> its Kind. Generated once, by
// hand, from the Vulkan graphics/compute pipeline create-info structs this
// runner builds (see pipelinecache.Build).
var propertyTable = map[string]Kind{
	"depthstencil.depthTestEnable":       KindBool,
	"depthstencil.depthWriteEnable":      KindBool,
	"depthstencil.depthCompareOp":        KindInt,
	"depthstencil.depthBoundsTestEnable": KindBool,
	"depthstencil.stencilTestEnable":     KindBool,
	"depthstencil.minDepthBounds":        KindFloat,
	"depthstencil.maxDepthBounds":        KindFloat,

	"rasterization.cullMode":             KindInt,
	"rasterization.frontFace":            KindInt,
	"rasterization.polygonMode":          KindInt,
	"rasterization.depthClampEnable":     KindBool,
	"rasterization.depthBiasEnable":      KindBool,
	"rasterization.depthBiasConstantFactor": KindFloat,
	"rasterization.depthBiasSlopeFactor": KindFloat,
	"rasterization.lineWidth":            KindFloat,
	"rasterization.rasterizerDiscardEnable": KindBool,

	"inputassembly.primitiveRestart": KindBool,

	"multisample.rasterizationSamples": KindInt,
	"multisample.sampleShadingEnable":  KindBool,
	"multisample.minSampleShading":     KindFloat,
	"multisample.alphaToCoverageEnable": KindBool,
	"multisample.alphaToOneEnable":      KindBool,

	"colorblend.logicOpEnable": KindBool,
	"colorblend.logicOp":       KindInt,

	"colorblendattachment.blendEnable":         KindBool,
	"colorblendattachment.srcColorBlendFactor": KindInt,
	"colorblendattachment.dstColorBlendFactor": KindInt,
	"colorblendattachment.colorBlendOp":        KindInt,
	"colorblendattachment.srcAlphaBlendFactor": KindInt,
	"colorblendattachment.dstAlphaBlendFactor": KindInt,
	"colorblendattachment.alphaBlendOp":        KindInt,

	"tessellation.patchControlPoints": KindInt,
}

// lookup resolves a dotted property name to the Kind of value it accepts,
// reporting found=false (no error) when name is not in the table - the
// "not found" failure model documented on Key.SetProperty.
func lookup(name string) (kind Kind, found bool) {
	k, ok := propertyTable[name]
	return k, ok
}

func parseBoolValue(value string) (Value, error) {
	switch value {
	case "true":
		return Value{Kind: KindBool, Bool: true}, nil
	case "false":
		return Value{Kind: KindBool, Bool: false}, nil
	}
	if n, err := strconv.ParseInt(value, 0, 64); err == nil {
		return Value{Kind: KindBool, Bool: n != 0}, nil
	}
	return Value{}, errors.Errorf("invalid boolean value %q", value)
}

func parseIntValue(value string) (Value, error) {
	var total int64
	for i, part := range strings.Split(value, "|") {
		part = strings.TrimSpace(part)
		if v, ok := LookupEnum(part); ok {
			total |= v
			continue
		}
		n, err := strconv.ParseInt(part, 0, 64)
		if err != nil {
			if i == 0 && len(part) == 0 {
				return Value{}, errors.Errorf("invalid integer value %q", value)
			}
			return Value{}, errors.Wrapf(err, "invalid integer value %q", value)
		}
		total |= n
	}
	return Value{Kind: KindInt, Int: total}, nil
}

func parseFloatValue(value string) (Value, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return Value{}, errors.Wrapf(err, "invalid float value %q", value)
	}
	return Value{Kind: KindFloat, Float: f}, nil
}

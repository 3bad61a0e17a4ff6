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

package requirements

import "fmt"

// DeviceQuerier is the minimal surface Check needs from a live Vulkan
// physical device: query the base feature struct, the supported extension
// list, and (via vkGetPhysicalDeviceFeatures2) any requested extension
// feature struct booleans. vk.Context implements this.
type DeviceQuerier interface {
	// BaseFeatureSupported reports whether the device's
	// VkPhysicalDeviceFeatures struct has f set.
	BaseFeatureSupported(f BaseFeature) bool
	// ExtensionSupported reports whether name is in the device's
	// enumerated extension list.
	ExtensionSupported(name string) bool
	// ExtFeatureSupported reports whether the named boolean field of the
	// given extension's feature struct, chained through
	// vkGetPhysicalDeviceFeatures2, is set.
	ExtFeatureSupported(extension, field string) bool
}

// UnsupportedFeatureOrExtension names the single base feature, extension,
// or extension feature boolean that Check found missing on a device. Check
// returns it as a typed error, so a caller can errors.As it to distinguish
// it from every other failure Check, window bring-up, or pipeline creation
// can raise.
type UnsupportedFeatureOrExtension struct {
	Name string
}

func (e *UnsupportedFeatureOrExtension) Error() string {
	return fmt.Sprintf("unsupported feature or extension: %s", e.Name)
}

// Check verifies r against a live device in three steps: base features,
// then extensions, then (if any were requested) chained extension feature
// structs.
func Check(r *Requirements, d DeviceQuerier) error {
	for f := BaseFeature(0); f < numBaseFeatures; f++ {
		if r.HasBaseFeature(f) && !d.BaseFeatureSupported(f) {
			return &UnsupportedFeatureOrExtension{Name: baseFeatureName(f)}
		}
	}
	for _, ext := range r.extensions {
		if !d.ExtensionSupported(ext) {
			return &UnsupportedFeatureOrExtension{Name: ext}
		}
	}
	for _, ef := range r.extFeatures {
		if !d.ExtFeatureSupported(ef.extension, ef.field) {
			return &UnsupportedFeatureOrExtension{Name: fmt.Sprintf("%s.%s", ef.extension, ef.field)}
		}
	}
	return nil
}

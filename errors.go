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

package vkrunner

import "fmt"

// UnsupportedFormat names a window color or depth/stencil format that
// vkGetPhysicalDeviceFormatProperties reports as unusable for the
// attachment usage a script needs. Always a Skip, never a Fail.
type UnsupportedFormat struct {
	FormatName string
}

func (e *UnsupportedFormat) Error() string {
	return fmt.Sprintf("unsupported format: %s", e.FormatName)
}

// ApiError wraps a low-level Vulkan create/allocate/submit failure with the
// stage of the executor pipeline it happened in (e.g. "create device",
// "build pipelines"), so Config.Error callbacks get a stable, greppable
// prefix without needing to parse the underlying message.
type ApiError struct {
	Stage string
	Err   error
}

func (e *ApiError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *ApiError) Unwrap() error { return e.Err }

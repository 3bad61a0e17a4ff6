// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vk

import (
	"testing"
	"unsafe"

	"github.com/google/vkrunner/core/assert"
)

func TestResultSucceededOnlyForNonNegative(t *testing.T) {
	assert.For(t, "Success").ThatBoolean(Success.Succeeded()).Equals(true)
	assert.For(t, "ErrorDeviceLost").ThatBoolean(ErrorDeviceLost.Succeeded()).Equals(false)
}

func TestResultErrorStringMentionsCode(t *testing.T) {
	assert.For(t, "error text").ThatString(ErrorOutOfDeviceMemory.Error()).Contains("VK_ERROR_OUT_OF_DEVICE_MEMORY")
}

func TestLookupFormatKnownName(t *testing.T) {
	f, ok := LookupFormat("R8G8B8A8_UNORM")
	assert.For(t, "found").ThatBoolean(ok).Equals(true)
	assert.For(t, "format").ThatInteger(int(f)).Equals(int(FormatR8G8B8A8Unorm))
}

func TestLookupFormatUnknownName(t *testing.T) {
	_, ok := LookupFormat("VK_FORMAT_NOT_A_REAL_FORMAT")
	assert.For(t, "found").ThatBoolean(ok).Equals(false)
}

func TestFormatInfoReportsBytesPerPixel(t *testing.T) {
	info := FormatR8G8B8A8Unorm.Info()
	assert.For(t, "bytes per pixel").ThatInteger(info.BytesPerPixel).Equals(4)
	assert.For(t, "channels").ThatInteger(info.Channels).Equals(4)
}

func TestBuilderAlignsPointerFieldsToEight(t *testing.T) {
	b := newBuilder()
	b.PutU32(1)
	b.PutPtr(nil)
	assert.For(t, "buffer length").ThatInteger(len(b.Bytes())).Equals(16)
}

func TestBuilderPointerIsNilWhenEmpty(t *testing.T) {
	b := newBuilder()
	assert.For(t, "pointer").ThatBoolean(b.Pointer() == unsafe.Pointer(nil)).Equals(true)
}

func TestCStringIsNullTerminated(t *testing.T) {
	b := cString("abc")
	assert.For(t, "length").ThatInteger(len(b)).Equals(4)
	assert.For(t, "terminator").ThatInteger(int(b[3])).Equals(0)
}

// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vk

// Format mirrors a (small) subset of VkFormat: the formats this runner's
// [require] `framebuffer`/`depthstencil` grammar and its PPM writer need to
// know the pixel layout of. This is the minimal concrete table that
// satisfies FormatInfo for the formats a script can actually name.
type Format int32

const (
	FormatUndefined      Format = 0
	FormatR8G8B8A8Unorm  Format = 37
	FormatB8G8R8A8Unorm  Format = 44
	FormatR32Sfloat      Format = 100
	FormatR32G32Sfloat   Format = 103
	FormatR32G32B32Sfloat Format = 106
	FormatR32G32B32A32Sfloat Format = 109
	FormatD16Unorm       Format = 124
	FormatD32Sfloat      Format = 126
	FormatD24UnormS8Uint Format = 129
)

// FormatInfo is the per-format metadata the execution engine and the PPM
// writer need: how many channels a pixel has, how many bytes it occupies,
// and where each logical channel (R,G,B,A) sits in memory, so
// probe/readback code can walk a linear-tiled buffer without knowing every
// Vulkan format's encoding.
type FormatInfo struct {
	Name          string
	Channels      int
	BytesPerPixel int
	IsDepth       bool
	IsStencil     bool

	// ChannelOrder[i] is the byte offset of logical channel i (0=R, 1=G,
	// 2=B, 3=A) within one pixel, for 8-bit-per-channel formats. Unused
	// (zero) entries beyond Channels don't apply.
	ChannelOrder [4]int
}

var formatTable = map[string]Format{
	"R8G8B8A8_UNORM":      FormatR8G8B8A8Unorm,
	"B8G8R8A8_UNORM":      FormatB8G8R8A8Unorm,
	"R32_SFLOAT":          FormatR32Sfloat,
	"R32G32_SFLOAT":       FormatR32G32Sfloat,
	"R32G32B32_SFLOAT":    FormatR32G32B32Sfloat,
	"R32G32B32A32_SFLOAT": FormatR32G32B32A32Sfloat,
	"D16_UNORM":            FormatD16Unorm,
	"D32_SFLOAT":           FormatD32Sfloat,
	"D24_UNORM_S8_UINT":    FormatD24UnormS8Uint,
}

var formatInfo = map[Format]FormatInfo{
	// R8G8B8A8_UNORM: byte 0 is R, so the channel order is identity.
	FormatR8G8B8A8Unorm: {"R8G8B8A8_UNORM", 4, 4, false, false, [4]int{0, 1, 2, 3}},
	// B8G8R8A8_UNORM: byte 0 is B, byte 2 is R - R and B are swapped
	// relative to memory order.
	FormatB8G8R8A8Unorm:      {"B8G8R8A8_UNORM", 4, 4, false, false, [4]int{2, 1, 0, 3}},
	FormatR32Sfloat:          {"R32_SFLOAT", 1, 4, false, false, [4]int{0, 1, 2, 3}},
	FormatR32G32Sfloat:       {"R32G32_SFLOAT", 2, 8, false, false, [4]int{0, 1, 2, 3}},
	FormatR32G32B32Sfloat:    {"R32G32B32_SFLOAT", 3, 12, false, false, [4]int{0, 1, 2, 3}},
	FormatR32G32B32A32Sfloat: {"R32G32B32A32_SFLOAT", 4, 16, false, false, [4]int{0, 1, 2, 3}},
	FormatD16Unorm:           {"D16_UNORM", 1, 2, true, false, [4]int{0, 1, 2, 3}},
	FormatD32Sfloat:          {"D32_SFLOAT", 1, 4, true, false, [4]int{0, 1, 2, 3}},
	FormatD24UnormS8Uint:     {"D24_UNORM_S8_UINT", 2, 4, true, true, [4]int{0, 1, 2, 3}},
}

// LookupFormat resolves a `[require] framebuffer <name>` /
// `depthstencil <name>` token to its Format, reporting ok=false for an
// unrecognised name (the parser turns that into UnsupportedFormat).
func LookupFormat(name string) (Format, bool) {
	f, ok := formatTable[name]
	return f, ok
}

// Info returns the pixel-layout metadata for f.
func (f Format) Info() FormatInfo {
	return formatInfo[f]
}

func (f Format) String() string {
	if info, ok := formatInfo[f]; ok {
		return info.Name
	}
	return "FormatUndefined"
}

// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vk

import (
	"encoding/binary"
	"unsafe"
)

// builder assembles a C-ABI-compatible struct in a byte slice: every
// Vulkan create-info struct starts with a uint32 sType, a pointer-sized
// pNext, and then its fields in declaration order on LP64 platforms (the
// only ABI this runner targets - Linux/macOS/Windows x86-64 and arm64 are
// all LP64 for pointer width here). Putters pad to each field's natural
// alignment before writing it, mirroring what a C compiler does.
type builder struct {
	buf   []byte
	keep  []interface{} // retains slices/strings referenced by pointer fields
}

func newBuilder() *builder { return &builder{} }

func (b *builder) align(n int) {
	if rem := len(b.buf) % n; rem != 0 {
		b.buf = append(b.buf, make([]byte, n-rem)...)
	}
}

func (b *builder) PutU32(v uint32) *builder {
	b.align(4)
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
	return b
}

func (b *builder) PutI32(v int32) *builder { return b.PutU32(uint32(v)) }

func (b *builder) PutU64(v uint64) *builder {
	b.align(8)
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
	return b
}

func (b *builder) PutFloat32(v float32) *builder {
	return b.PutU32(*(*uint32)(unsafe.Pointer(&v)))
}

// PutPtr writes an 8-byte pointer slot. Pass nil to write a null pointer;
// ptr, if non-nil, must remain alive at least as long as the struct does
// (builder.Keep helps with that).
func (b *builder) PutPtr(ptr unsafe.Pointer) *builder {
	return b.PutU64(uint64(uintptr(ptr)))
}

// Keep retains v (typically a []byte or string backing a pointer field)
// for the builder's lifetime so the GC doesn't reclaim it before the call
// completes.
func (b *builder) Keep(v interface{}) *builder {
	b.keep = append(b.keep, v)
	return b
}

// Bytes returns the assembled struct bytes. The returned pointer is only
// valid as long as b (and anything passed to Keep) stays reachable.
func (b *builder) Bytes() []byte { return b.buf }

func (b *builder) Pointer() unsafe.Pointer {
	if len(b.buf) == 0 {
		return nil
	}
	return unsafe.Pointer(&b.buf[0])
}

// cString returns a null-terminated copy of s.
func cString(s string) []byte {
	return append([]byte(s), 0)
}

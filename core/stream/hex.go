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

package stream

import (
	"encoding/binary"
	"fmt"
)

// DecodeHexWords decodes a `[... shader binary]` section body into a SPIR-V
// byte blob. Each line may carry a trailing `#`-comment; hex digits are
// collected (ignoring ASCII whitespace) and grouped eight-at-a-time into
// 32-bit little-endian words, matching the binary encoding SPIR-V modules
// use on disk.
//
// Any rune that is not a hex digit, whitespace, or part of a `#` comment is
// reported as an error naming the offending rune and its byte offset within
// body.
func DecodeHexWords(body string) ([]byte, error) {
	var digits []byte
	inComment := false
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c == '\n':
			inComment = false
		case inComment:
			// skip rest of the comment
		case c == '#':
			inComment = true
		case c == ' ' || c == '\t' || c == '\r':
			// ignore
		case isHexDigit(c):
			digits = append(digits, c)
		default:
			return nil, fmt.Errorf("invalid character %q in binary section at offset %d", c, i)
		}
	}
	if len(digits)%8 != 0 {
		return nil, fmt.Errorf("binary section has %d hex digits, not a multiple of 8 (one 32-bit word)", len(digits))
	}
	out := make([]byte, 0, len(digits)/2)
	for i := 0; i < len(digits); i += 8 {
		word, err := parseHexWord(digits[i : i+8])
		if err != nil {
			return nil, err
		}
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], word)
		out = append(out, b[:]...)
	}
	return out, nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func parseHexWord(digits []byte) (uint32, error) {
	var v uint32
	for _, c := range digits {
		v <<= 4
		switch {
		case c >= '0' && c <= '9':
			v |= uint32(c - '0')
		case c >= 'a' && c <= 'f':
			v |= uint32(c-'a') + 10
		case c >= 'A' && c <= 'F':
			v |= uint32(c-'A') + 10
		default:
			return 0, fmt.Errorf("invalid hex digit %q", c)
		}
	}
	return v, nil
}

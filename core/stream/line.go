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

// Package stream provides small, self-contained helpers for reading script
// sources one logical line at a time and decoding the hex-encoded binary
// shader sections the script grammar allows.
package stream

import (
	"bufio"
	"bytes"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Line is one logical (continuation-joined) line of a script.
type Line struct {
	// Text is the joined line content with the trailing continuation
	// backslashes removed, but otherwise unmodified (leading/trailing
	// whitespace preserved; callers trim as needed).
	Text string
	// StartLine is the 1-based line number of the first raw line this
	// logical line began on.
	StartLine int
	// RawCount is the number of raw source lines this logical line
	// consumed (1 if there was no continuation).
	RawCount int
}

// Reader splits a script source into logical lines, joining `\`-terminated
// continuations and normalizing the encoding of the underlying bytes to
// UTF-8 first so a script saved as UTF-8-with-BOM or UTF-16 still reads
// correctly.
type Reader struct {
	lines []string
	next  int
}

// NewReader decodes src (auto-detecting a UTF-8/UTF-16 BOM, defaulting to
// UTF-8) and prepares it for logical-line iteration.
func NewReader(src []byte) (*Reader, error) {
	decoded, err := decodeUTF(src)
	if err != nil {
		return nil, err
	}
	// Normalize line endings so CRLF sources behave like LF ones.
	decoded = strings.ReplaceAll(decoded, "\r\n", "\n")
	raw := strings.Split(decoded, "\n")
	// A final "\n" ends the last line rather than starting an empty one.
	if n := len(raw); n > 0 && raw[n-1] == "" {
		raw = raw[:n-1]
	}
	return &Reader{lines: raw}, nil
}

func decodeUTF(src []byte) (string, error) {
	// BOMOverride picks UTF-8, UTF-16BE or UTF-16LE based on a leading BOM
	// and otherwise falls through to the provided fallback (UTF-8).
	t := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(t, src)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Next returns the next logical line, joining any `\`-terminated
// continuations, or false when the source is exhausted.
func (r *Reader) Next() (Line, bool) {
	if r.next >= len(r.lines) {
		return Line{}, false
	}
	start := r.next
	var buf bytes.Buffer
	count := 0
	for r.next < len(r.lines) {
		raw := r.lines[r.next]
		r.next++
		count++
		if strings.HasSuffix(raw, `\`) && !strings.HasSuffix(raw, `\\`) {
			buf.WriteString(strings.TrimSuffix(raw, `\`))
			continue
		}
		buf.WriteString(raw)
		break
	}
	return Line{Text: buf.String(), StartLine: start + 1, RawCount: count}, true
}

// SplitWords tokenizes a logical line on runs of ASCII whitespace, the
// convention used throughout the `[test]` and `[require]` grammars.
func SplitWords(s string) []string {
	return strings.Fields(s)
}

// ScanRawLines returns a bufio.Scanner over data's raw, unjoined lines
// (no `\` continuation handling), accepting lines of up to 1 MiB.
func ScanRawLines(data []byte) *bufio.Scanner {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return sc
}

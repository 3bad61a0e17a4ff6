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

package script

import "fmt"

// ParseError reports a script's filename, the logical line a failure was
// detected on, and a human-readable message - the (filename, line_num,
// message) triple the error callback receives.
type ParseError struct {
	Filename string
	Line     int
	Message  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Filename, e.Line, e.Message)
}

func parseErrorf(filename string, line int, format string, args ...interface{}) *ParseError {
	return &ParseError{Filename: filename, Line: line, Message: fmt.Sprintf(format, args...)}
}

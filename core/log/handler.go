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

package log

import (
	"context"
	"fmt"
	"os"
)

// defaultHandler prints records to stderr as "severity: message [k=v, ...]".
type defaultHandler struct{}

func (defaultHandler) Handle(r Record) {
	fmt.Fprint(os.Stderr, Normal.Print(&r))
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(Record)

func (f HandlerFunc) Handle(r Record) { f(r) }

// Style controls how a Record is rendered to text.
type Style struct{}

// Normal is the default rendering style: "severity: message k=v k=v".
var Normal = Style{}

func (Style) Print(r *Record) string {
	s := r.Severity.Short() + ": " + r.Message
	for _, kv := range r.Values {
		s += fmt.Sprintf(" %s=%v", kv.Key, kv.Value)
	}
	return s + "\n"
}

// delegate matches the logging methods of *testing.T and *testing.B.
type delegate interface {
	Fatal(...interface{})
	Error(...interface{})
	Log(...interface{})
}

// TestHandler routes records to a *testing.T (or *testing.B): Fatal and
// above call t.Fatal, Error calls t.Error, everything else calls t.Log.
func TestHandler(t delegate, s Style) Handler {
	return HandlerFunc(func(r Record) {
		switch {
		case r.Severity >= Fatal:
			t.Fatal(s.Print(&r))
		case r.Severity >= Error:
			t.Error(s.Print(&r))
		default:
			t.Log(s.Print(&r))
		}
	})
}

// Testing returns a context.Context carrying a TestHandler for t, suitable
// for use as the root context in unit tests that exercise parser, pipeline
// or execution code paths.
func Testing(t delegate) context.Context {
	ctx := context.Background()
	return PutHandler(ctx, TestHandler(t, Normal))
}

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
)

// Logger accumulates key/value pairs for a single log record at a fixed
// severity. It is immutable and passed by value: chain V calls to add
// context, and finish with Log or Logf.
type Logger struct {
	ctx      context.Context
	severity Severity
	values   []KeyValue
	active   bool
}

// Active reports whether this logger's severity passes the context's filter.
// Callers can use it to skip expensive message construction.
func (l Logger) Active() bool { return l.active }

// V returns a copy of the logger with an additional key/value pair.
func (l Logger) V(key string, value interface{}) Logger {
	next := make([]KeyValue, len(l.values), len(l.values)+1)
	copy(next, l.values)
	l.values = append(next, KeyValue{Key: key, Value: value})
	return l
}

// S is shorthand for V restricted to string values.
func (l Logger) S(key string, value string) Logger { return l.V(key, value) }

// I is shorthand for V restricted to int values.
func (l Logger) I(key string, value int) Logger { return l.V(key, value) }

// Log emits msg, built from args the way fmt.Sprint does, to the handler.
func (l Logger) Log(args ...interface{}) {
	if !l.active {
		return
	}
	l.emit(fmt.Sprint(args...))
}

// Logf emits a formatted message to the handler.
func (l Logger) Logf(format string, args ...interface{}) {
	if !l.active {
		return
	}
	l.emit(fmt.Sprintf(format, args...))
}

func (l Logger) emit(msg string) {
	getHandler(l.ctx).Handle(Record{Severity: l.severity, Message: msg, Values: l.values})
}

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
	"time"
)

// Context is a wrapper that makes context.Context fluent for logging.
// Because Context is a pure wrapper, it interacts cleanly with any library
// that uses context.Context directly.
type Context interface {
	context.Context

	// Unwrap returns the underlying context.Context.
	Unwrap() context.Context

	// At constructs a Logger from the context at the given severity.
	At(level Severity) Logger
	// Debug is shorthand for ctx.At(Debug).
	Debug() Logger
	// Info is shorthand for ctx.At(Info).
	Info() Logger
	// Warning is shorthand for ctx.At(Warning).
	Warning() Logger
	// Error is shorthand for ctx.At(Error).
	Error() Logger
	// Fatal is shorthand for ctx.At(Fatal).
	Fatal() Logger

	// WithValue returns a new context carrying an additional key/value pair.
	WithValue(key string, value interface{}) Context
	// V is shorthand for ctx.WithValue(key, value).
	V(key string, value interface{}) Context
}

type logContext struct {
	internal context.Context
	values   []KeyValue
}

// Wrap adapts a context.Context into a fluent log.Context.
func Wrap(ctx context.Context) Context {
	return logContext{internal: ctx}
}

// Background returns context.Background() wrapped as a log.Context.
func Background() Context {
	return Wrap(context.Background())
}

func (ctx logContext) Unwrap() context.Context { return ctx.internal }

func (ctx logContext) Deadline() (time.Time, bool) { return ctx.internal.Deadline() }
func (ctx logContext) Done() <-chan struct{}       { return ctx.internal.Done() }
func (ctx logContext) Err() error                  { return ctx.internal.Err() }
func (ctx logContext) Value(key interface{}) interface{} {
	return ctx.internal.Value(key)
}

func (ctx logContext) WithValue(key string, value interface{}) Context {
	next := make([]KeyValue, len(ctx.values), len(ctx.values)+1)
	copy(next, ctx.values)
	next = append(next, KeyValue{Key: key, Value: value})
	return logContext{internal: ctx.internal, values: next}
}

func (ctx logContext) V(key string, value interface{}) Context {
	return ctx.WithValue(key, value)
}

func (ctx logContext) At(level Severity) Logger {
	return Logger{
		ctx:      ctx.internal,
		severity: level,
		values:   ctx.values,
		active:   level >= getFilter(ctx.internal),
	}
}

func (ctx logContext) Debug() Logger   { return ctx.At(Debug) }
func (ctx logContext) Info() Logger    { return ctx.At(Info) }
func (ctx logContext) Warning() Logger { return ctx.At(Warning) }
func (ctx logContext) Error() Logger   { return ctx.At(Error) }
func (ctx logContext) Fatal() Logger   { return ctx.At(Fatal) }

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

// Package log provides a logging system that works well with context.
//
// Basic usage is
//
//	ctx.Info().V("script", name).Log("parsed script")
//	|--------| this gets a Logger filtered on severity
//	          |------------------| this adds a value that will be printed with the message
//	                              |----------------------| this formats and emits the record
//
// The severity filter and destination handler are both carried on the
// context, so a script, once parsed, can be replayed against a device
// with a different verbosity without touching call sites.
package log

import "context"

// Handler receives formatted log records. PutHandler installs the handler
// that backs a context tree; the default handler writes to os.Stderr.
type Handler interface {
	Handle(r Record)
}

// Record is one fully-resolved log entry: a severity, a rendered message
// and the key/value pairs accumulated by the Logger that produced it.
type Record struct {
	Severity Severity
	Message  string
	Values   []KeyValue
}

// KeyValue is a single named value attached to a Logger with V/S/I.
type KeyValue struct {
	Key   string
	Value interface{}
}

type handlerKeyTy struct{}
type severityKeyTy struct{}

var handlerKey = handlerKeyTy{}
var severityKey = severityKeyTy{}

// PutHandler returns a context with h installed as the active handler.
func PutHandler(ctx context.Context, h Handler) context.Context {
	return context.WithValue(ctx, handlerKey, h)
}

func getHandler(ctx context.Context) Handler {
	if h, ok := ctx.Value(handlerKey).(Handler); ok {
		return h
	}
	return defaultHandler{}
}

// PutFilter returns a context that only emits records at or above level.
func PutFilter(ctx context.Context, level Severity) context.Context {
	return context.WithValue(ctx, severityKey, level)
}

func getFilter(ctx context.Context) Severity {
	if s, ok := ctx.Value(severityKey).(Severity); ok {
		return s
	}
	return Info
}

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

// Package vkrunner is the public library surface: a Config a caller tunes
// once, a Source parsed from a script file or string, and an Executor that
// runs sources against a (possibly externally supplied) Vulkan device,
// reusing the device and window across scripts whenever their
// requirements and window format allow it.
package vkrunner

// Result is a script's outcome, ordered Skip < Pass < Fail so merging the
// results of several scripts always reports the worst one.
type Result int

const (
	Pass Result = iota
	Skip
	Fail
)

func (r Result) String() string {
	switch r {
	case Pass:
		return "pass"
	case Skip:
		return "skip"
	case Fail:
		return "fail"
	default:
		return "unknown"
	}
}

// Merge combines two results under the partial order Skip < Pass < Fail:
// failure dominates, a skip is only reported when nothing else failed or
// passed.
func Merge(a, b Result) Result {
	if a == Fail || b == Fail {
		return Fail
	}
	if a == Pass || b == Pass {
		return Pass
	}
	return Skip
}

// InspectData is passed to Config.Inspect once per executed script: the
// compiled disassembly of each shader stage (populated only when
// Config.DisassemblyOn is set) and the captured color attachment, so a GUI
// front-end can show both without re-running the script itself.
type InspectData struct {
	Filename     string
	Disassembly  map[string]string
	Pixels       []byte
	Width        int
	Height       int
}

// Config tunes an Executor: whether shader disassembly is compiled and
// handed to Inspect, an opaque value threaded through to every callback,
// and the four callbacks a caller hooks to observe diagnostics, per-script
// boundaries, pass/fail results and (optionally) inspection data.
type Config struct {
	// DisassemblyOn enables compiling each shader stage a second time
	// through glslangValidator/spirv-dis purely for InspectData.Disassembly;
	// it never affects what gets drawn.
	DisassemblyOn bool

	// UserData is passed back unchanged to every callback below.
	UserData interface{}

	// Error reports a diagnostic that is not itself a script's pass/fail
	// result: parse errors, shader build failures, API errors.
	Error func(message string, user interface{})

	// BeforeTest runs immediately before a script starts executing.
	BeforeTest func(filename string, user interface{})

	// AfterTest runs once a script has finished, with its Result.
	AfterTest func(filename string, result Result, user interface{})

	// Inspect, if set, receives InspectData once per executed script.
	Inspect func(data InspectData, user interface{})
}

// NewConfig returns a Config with every callback nil (safely skipped) and
// DisassemblyOn false.
func NewConfig() *Config {
	return &Config{}
}

func (c *Config) reportError(message string) {
	if c.Error != nil {
		c.Error(message, c.UserData)
	}
}

func (c *Config) reportBeforeTest(filename string) {
	if c.BeforeTest != nil {
		c.BeforeTest(filename, c.UserData)
	}
}

func (c *Config) reportAfterTest(filename string, result Result) {
	if c.AfterTest != nil {
		c.AfterTest(filename, result, c.UserData)
	}
}

func (c *Config) reportInspect(data InspectData) {
	if c.Inspect != nil {
		c.Inspect(data, c.UserData)
	}
}

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

package vkrunner

import (
	"io/ioutil"

	"github.com/pkg/errors"
)

// Source is an unparsed script together with the token replacements it
// will be parsed with: the parser substitutes every occurrence of each key
// with its entry here before tokenizing a line (script.Parse's tokens map).
type Source struct {
	Filename     string
	Text         []byte
	Replacements map[string]string
}

// SourceFromFile reads path and returns a Source ready for AddReplacement
// calls and Executor.Execute. The file is not parsed yet - parse errors
// surface only when the source is executed.
func SourceFromFile(path string) (*Source, error) {
	text, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return &Source{Filename: path, Text: text, Replacements: map[string]string{}}, nil
}

// SourceFromString wraps an in-memory script body, naming it name for
// diagnostics (parse errors, BeforeTest/AfterTest callbacks).
func SourceFromString(name, text string) *Source {
	return &Source{Filename: name, Text: []byte(text), Replacements: map[string]string{}}
}

// AddReplacement registers the `-D tok=repl` token substitution tok -> repl,
// applied the next time this Source is executed.
func (s *Source) AddReplacement(tok, repl string) {
	if s.Replacements == nil {
		s.Replacements = map[string]string{}
	}
	s.Replacements[tok] = repl
}

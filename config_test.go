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
	"testing"

	"github.com/google/vkrunner/core/assert"
)

func TestResultStringNamesEveryVariant(t *testing.T) {
	cases := []struct {
		result Result
		want   string
	}{
		{Pass, "pass"},
		{Skip, "skip"},
		{Fail, "fail"},
		{Result(99), "unknown"},
	}
	for _, c := range cases {
		assert.For(t, "Result(%d).String()", int(c.result)).ThatString(c.result.String()).Equals(c.want)
	}
}

func TestMergeFailDominates(t *testing.T) {
	assert.For(t, "Merge(Pass, Fail)").ThatInteger(int(Merge(Pass, Fail))).Equals(int(Fail))
	assert.For(t, "Merge(Fail, Skip)").ThatInteger(int(Merge(Fail, Skip))).Equals(int(Fail))
	assert.For(t, "Merge(Skip, Fail)").ThatInteger(int(Merge(Skip, Fail))).Equals(int(Fail))
}

func TestMergePassBeatsSkip(t *testing.T) {
	assert.For(t, "Merge(Pass, Skip)").ThatInteger(int(Merge(Pass, Skip))).Equals(int(Pass))
	assert.For(t, "Merge(Skip, Pass)").ThatInteger(int(Merge(Skip, Pass))).Equals(int(Pass))
}

func TestMergeSkipWhenNeitherPassesNorFails(t *testing.T) {
	assert.For(t, "Merge(Skip, Skip)").ThatInteger(int(Merge(Skip, Skip))).Equals(int(Skip))
}

func TestConfigCallbacksAreSafeToLeaveNil(t *testing.T) {
	cfg := NewConfig()
	cfg.reportError("boom")
	cfg.reportBeforeTest("a.shader_test")
	cfg.reportAfterTest("a.shader_test", Pass)
	cfg.reportInspect(InspectData{Filename: "a.shader_test"})
}

func TestConfigCallbacksReceiveUserData(t *testing.T) {
	cfg := NewConfig()
	cfg.UserData = "marker"

	var gotError, gotBefore string
	var gotAfterResult Result
	cfg.Error = func(message string, user interface{}) { gotError = user.(string) }
	cfg.BeforeTest = func(filename string, user interface{}) { gotBefore = user.(string) }
	cfg.AfterTest = func(filename string, result Result, user interface{}) {
		gotAfterResult = result
		_ = user.(string)
	}

	cfg.reportError("x")
	cfg.reportBeforeTest("x")
	cfg.reportAfterTest("x", Fail)

	assert.For(t, "error user data").ThatString(gotError).Equals("marker")
	assert.For(t, "before-test user data").ThatString(gotBefore).Equals("marker")
	assert.For(t, "after-test result").ThatInteger(int(gotAfterResult)).Equals(int(Fail))
}

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

package shell

import "context"

// Target abstracts the place a Cmd is started: the local machine by default,
// or a stub in tests.
type Target interface {
	// Start begins running cmd, returning a handle to the running Process.
	Start(cmd Cmd) (Process, error)
}

// Process is a running instance of a Cmd.
type Process interface {
	// Wait blocks until the process exits or ctx is cancelled.
	Wait(ctx context.Context) error
	// Kill terminates the process immediately.
	Kill() error
}

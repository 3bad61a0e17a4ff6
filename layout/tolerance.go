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

package layout

import "math"

// Tolerance is a per-channel threshold used when comparing probed pixel or
// buffer values against an expected value.
type Tolerance struct {
	// Value holds up to four per-channel thresholds.
	Value [4]float64
	// IsPercent selects whether Value is interpreted as a percentage of the
	// expected value, Equal's b argument (percent mode), or as an absolute
	// threshold.
	IsPercent bool
}

// DefaultTolerance is the tolerance a script starts with before any
// `tolerance` command: 0.01 absolute on all four channels.
func DefaultTolerance() Tolerance {
	return Tolerance{Value: [4]float64{0.01, 0.01, 0.01, 0.01}}
}

// Equal reports whether a and b are within tol of one another for channel
// c. In absolute mode the comparison is symmetric. In percent mode it is
// not: the threshold is scaled by |b|, so Equal(tol, c, a, b) and
// Equal(tol, c, b, a) can disagree when a and b differ.
func (tol Tolerance) Equal(c int, a, b float64) bool {
	diff := math.Abs(a - b)
	if tol.IsPercent {
		return diff <= math.Abs(tol.Value[c]/100*b)
	}
	return diff <= tol.Value[c]
}

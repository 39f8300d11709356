// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
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

package tracking

import (
	"fmt"

	"github.com/awslabs/ar-regtrack/analysis/cfg"
)

// Status summarizes the effect of an instruction on the tracked register, for display
type Status int

const (
	// Start is the instruction where the tracking started
	Start Status = iota
	// ClearsAll is an instruction that clears every tracked register
	ClearsAll
	// ClearsTracked clears the register the tracking started from
	ClearsTracked
	// ClearsSome clears some tracked registers
	ClearsSome
	// Defines taints new registers
	Defines
	// Updates writes to registers that were already tainted
	Updates
	// Reads only reads tainted registers
	Reads
	// NoEffect does not interact with the tracked registers
	NoEffect
)

var statusNames = []string{"start", "clears-all", "clears-tracked", "clears-some", "defines", "updates", "reads",
	"no-effect"}

// statusColors are the fill colors of the statuses in rendered graphs
var statusColors = []string{"#a0a0ff", "#ff5050", "#ff9090", "#ffc0c0", "#80ff80", "#c0ffc0", "#ffff90", ""}

func (s Status) String() string {
	if int(s) >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Color returns the fill color used to highlight instructions with the status, empty for NoEffect
func (s Status) Color() string {
	if int(s) >= 0 && int(s) < len(statusColors) {
		return statusColors[s]
	}
	return ""
}

// Classify returns the status of r in a tracking of register from start. The first matching status in the order
// of the Status constants wins.
func Classify(start *cfg.Instruction, register string, r InstructionResult) Status {
	switch {
	case r.Instruction == start:
		return Start
	case len(r.Untainted) > 0 && len(r.Tainted) == 0:
		return ClearsAll
	case r.Untainted.Contains(register):
		return ClearsTracked
	case len(r.Untainted) > 0:
		return ClearsSome
	case len(r.NewlyTainted) > 0:
		return Defines
	case len(r.Updated) > 0:
		return Updates
	case len(r.Read) > 0:
		return Reads
	default:
		return NoEffect
	}
}

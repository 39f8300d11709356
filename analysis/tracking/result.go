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
	"strings"

	"github.com/awslabs/ar-regtrack/analysis/cfg"
	"github.com/awslabs/ar-regtrack/analysis/lattice"
)

// InstructionResult is the effect of one native instruction on the tracked register
type InstructionResult struct {
	Instruction *cfg.Instruction
	lattice.Element
}

// Result is the outcome of a tracking run
type Result struct {
	Start    *cfg.Instruction
	Register string
	Options  Options

	// Results are sorted by ascending address. The start instruction is always present.
	Results []InstructionResult

	// Iterations is the number of micro-op visits of the solver
	Iterations int
}

// Instructions returns the set of instructions of the result, to be used as the keep set of a view pruning
func (r *Result) Instructions() map[*cfg.Instruction]bool {
	keep := make(map[*cfg.Instruction]bool, len(r.Results))
	for _, ir := range r.Results {
		keep[ir.Instruction] = true
	}
	return keep
}

// KeepSet returns the instructions of the result to keep in a pruned view. When keepStart is false, the start
// instruction is left out if it has no effect on the tracked register.
func (r *Result) KeepSet(keepStart bool) map[*cfg.Instruction]bool {
	keep := r.Instructions()
	if !keepStart {
		if ir, ok := r.Get(r.Start); ok && !ir.HasEffect() {
			delete(keep, r.Start)
		}
	}
	return keep
}

// Get returns the result of instruction ins
func (r *Result) Get(ins *cfg.Instruction) (InstructionResult, bool) {
	for _, ir := range r.Results {
		if ir.Instruction == ins {
			return ir, true
		}
	}
	return InstructionResult{}, false
}

func (r *Result) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s tracking of %s from %s\n", r.Options.Direction, r.Register, r.Start)
	for _, ir := range r.Results {
		fmt.Fprintf(&b, "  %-40s %-14s %s\n", ir.Instruction, Classify(r.Start, r.Register, ir), ir.Element)
	}
	return b.String()
}

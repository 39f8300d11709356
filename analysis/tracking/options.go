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

	"github.com/awslabs/ar-regtrack/analysis/config"
	"github.com/awslabs/ar-regtrack/analysis/monotone"
)

// Options are the settings of a single tracking run
type Options struct {
	// ClearAllRegistersOnCall makes calls clear every tracked register
	ClearAllRegistersOnCall bool

	// ClearedRegisters are the registers calls clear when ClearAllRegistersOnCall is false
	ClearedRegisters []string

	// TrackIncoming tracks the value the register holds before the start instruction executes
	TrackIncoming bool

	Direction monotone.Direction

	// MaxIterations bounds the work of the solver. If MaxIterations <= 0, it is ignored.
	MaxIterations int
}

// OptionsFromConfig returns the tracking options set in the config
func OptionsFromConfig(c *config.Config) (*Options, error) {
	dir, err := monotone.ParseDirection(c.Tracking.Direction)
	if err != nil {
		return nil, fmt.Errorf("invalid tracking settings: %w", err)
	}
	return &Options{
		ClearAllRegistersOnCall: c.Tracking.ClearAllRegistersOnCall,
		ClearedRegisters:        append([]string(nil), c.Tracking.ClearedRegisters...),
		TrackIncoming:           c.Tracking.TrackIncoming,
		Direction:               dir,
		MaxIterations:           c.MaxIterations,
	}, nil
}

func (o *Options) params() monotone.Params {
	return monotone.Params{
		Transformer: monotone.Transformer{
			Direction: o.Direction,
			Calls: monotone.CallPolicy{
				ClearAll: o.ClearAllRegistersOnCall,
				Cleared:  o.ClearedRegisters,
			},
		},
		MaxIterations: o.MaxIterations,
	}
}

// callerSaved are the registers a call may overwrite, per architecture
var callerSaved = map[string][]string{
	"x86-32":     {"eax"},
	"x86-64":     {"rax"},
	"powerpc-32": {"R3", "R4", "R5", "R6", "R7", "R8", "R9", "R10", "R11", "R12"},
	"arm-32":     {"r0", "r1", "r2", "r3", "r12", "r14"},
	"mips-32": {"$a0", "$a1", "$a2", "$a3", "$t0", "$t1", "$t2", "$t3", "$t4", "$t5", "$t6", "$t7",
		"$v0", "$v1"},
}

// CallerSavedRegisters returns the registers a call clobbers on the architecture arch (e.g. "x86-32", "ARM-32"),
// and false if the architecture is not known.
func CallerSavedRegisters(arch string) ([]string, bool) {
	regs, ok := callerSaved[strings.ToLower(arch)]
	if !ok {
		return nil, false
	}
	return append([]string(nil), regs...), true
}

// OperandOptions returns the options used when tracking starts from an operand of an instruction: calls clear
// the caller-saved registers of arch, and the incoming value is tracked for every operand but the first one,
// which is the destination.
func OperandOptions(arch string, operandIndex int, dir monotone.Direction) (*Options, error) {
	regs, ok := CallerSavedRegisters(arch)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported architecture %q", ErrPrecondition, arch)
	}
	return &Options{
		ClearedRegisters: regs,
		TrackIncoming:    operandIndex != 0,
		Direction:        dir,
	}, nil
}

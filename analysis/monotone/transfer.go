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

package monotone

import (
	"errors"
	"fmt"

	"github.com/awslabs/ar-regtrack/analysis/lattice"
	"github.com/awslabs/ar-regtrack/analysis/reil"
)

// ErrUnknownOpcode is returned when a micro-op has an opcode the transfer functions do not handle
var ErrUnknownOpcode = errors.New("unknown opcode")

// Direction is the direction of the analysis
type Direction int

const (
	// Forward follows the control flow: which instructions use the value of the register
	Forward Direction = iota
	// Backward goes against the control flow: which instructions produced the value of the register
	Backward
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// ParseDirection returns the direction named s, "forward" or "backward"
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "forward", "down":
		return Forward, nil
	case "backward", "up":
		return Backward, nil
	default:
		return Forward, fmt.Errorf("unknown direction %q", s)
	}
}

// CallPolicy is the effect of function calls on the tracked registers
type CallPolicy struct {
	// ClearAll makes calls clear every tainted register
	ClearAll bool
	// Cleared are the registers calls clear when ClearAll is false
	Cleared []string
}

func (c CallPolicy) apply(in lattice.Element) lattice.Element {
	out := in
	if c.ClearAll {
		for _, r := range in.Tainted {
			out = out.Untaint(r)
		}
		return out
	}
	for _, r := range c.Cleared {
		out = out.Untaint(r)
	}
	return out
}

// A Transformer computes the effect of single micro-ops on the lattice
type Transformer struct {
	Direction Direction
	Calls     CallPolicy
}

// Transfer returns the state after op in the direction of the analysis, given the state in before it
func (t Transformer) Transfer(op reil.Instruction, in lattice.Element) (lattice.Element, error) {
	switch op.Opcode {
	case reil.OpNop, reil.OpUnkn:
		return in, nil
	case reil.OpJcc:
		if op.Call {
			return t.Calls.apply(in), nil
		}
		return in, nil
	case reil.OpStm:
		if op.In1.IsRegister() && in.IsTainted(op.In1.Value) {
			return in.AddRead(op.In1.Value), nil
		}
		return in, nil
	case reil.OpLdm, reil.OpUndef:
		return clearOutput(op, in), nil
	case reil.OpAnd, reil.OpMul:
		if op.In1.IsZero() || op.In2.IsZero() {
			return clearOutput(op, in), nil
		}
	case reil.OpOr:
		if isAllOnes(op) {
			return clearOutput(op, in), nil
		}
	case reil.OpSub, reil.OpXor:
		if op.In1.IsRegister() && op.In1 == op.In2 {
			return clearOutput(op, in), nil
		}
	case reil.OpAdd, reil.OpBisz, reil.OpBsh, reil.OpDiv, reil.OpMod, reil.OpStr:
	default:
		return in, fmt.Errorf("%w %s at %s", ErrUnknownOpcode, op.Opcode, op.Address)
	}
	if t.Direction == Backward {
		return backward(op, in), nil
	}
	return forward(op, in), nil
}

// clearOutput untaints the output register. The value it receives does not depend on any tracked register.
func clearOutput(op reil.Instruction, in lattice.Element) lattice.Element {
	if !op.Out.IsRegister() {
		return in
	}
	return in.Untaint(op.Out.Value)
}

// isAllOnes returns true when op is an or with the all-ones mask of the output size
func isAllOnes(op reil.Instruction) bool {
	if op.In1.Size != op.In2.Size || op.In1.Size != op.Out.Size {
		return false
	}
	mask, ok := op.Out.Size.Mask()
	if !ok {
		return false
	}
	lit := func(o reil.Operand) bool { return o.Kind == reil.Integer && o.Value == mask }
	return lit(op.In1) || lit(op.In2)
}

func forward(op reil.Instruction, in lattice.Element) lattice.Element {
	if !op.Out.IsRegister() {
		return in
	}
	out := in
	tainted := false
	for _, r := range op.InputRegisters() {
		if in.IsTainted(r) {
			tainted = true
			out = out.AddRead(r)
		}
	}
	if tainted {
		return out.Taint(op.Out.Value)
	}
	return out.Untaint(op.Out.Value)
}

func backward(op reil.Instruction, in lattice.Element) lattice.Element {
	if !op.Out.IsRegister() || !in.IsTainted(op.Out.Value) {
		return in
	}
	out := in.Untaint(op.Out.Value)
	inputs := op.InputRegisters()
	if len(inputs) == 0 {
		return out
	}
	out = out.AddRead(op.Out.Value)
	for _, r := range inputs {
		out = out.Taint(r)
	}
	return out
}

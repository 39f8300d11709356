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

// Package reil defines the micro-operation representation the register tracking runs on. Each native instruction
// is lowered to a sequence of side-effect-explicit micro-ops with three operands: two inputs and one output.
package reil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Opcode is the operation performed by a micro-op
type Opcode int

const (
	OpUnknownOpcode Opcode = iota
	OpAdd
	OpAnd
	OpBisz
	OpBsh
	OpDiv
	OpJcc
	OpLdm
	OpMod
	OpMul
	OpNop
	OpOr
	OpStm
	OpStr
	OpSub
	OpUndef
	OpUnkn
	OpXor
)

var opcodeNames = map[Opcode]string{
	OpAdd:   "add",
	OpAnd:   "and",
	OpBisz:  "bisz",
	OpBsh:   "bsh",
	OpDiv:   "div",
	OpJcc:   "jcc",
	OpLdm:   "ldm",
	OpMod:   "mod",
	OpMul:   "mul",
	OpNop:   "nop",
	OpOr:    "or",
	OpStm:   "stm",
	OpStr:   "str",
	OpSub:   "sub",
	OpUndef: "undef",
	OpUnkn:  "unkn",
	OpXor:   "xor",
}

func (o Opcode) String() string {
	if s, ok := opcodeNames[o]; ok {
		return s
	}
	return fmt.Sprintf("opcode(%d)", int(o))
}

// ParseOpcode returns the opcode named s. Unrecognized names map to OpUnknownOpcode.
func ParseOpcode(s string) Opcode {
	s = strings.ToLower(s)
	for op, name := range opcodeNames {
		if name == s {
			return op
		}
	}
	return OpUnknownOpcode
}

// OperandKind is the kind of value an operand holds
type OperandKind int

const (
	// Empty operands are unused slots
	Empty OperandKind = iota
	// Register operands name a native or temporary register
	Register
	// Integer operands are integer literals
	Integer
	// SubAddress operands are jump targets of the form native.sub
	SubAddress
)

// OperandSize is the bit width of an operand
type OperandSize int

const (
	SizeEmpty OperandSize = 0
	Byte      OperandSize = 8
	Word      OperandSize = 16
	Dword     OperandSize = 32
	Qword     OperandSize = 64
	Oword     OperandSize = 128
)

var sizeNames = map[OperandSize]string{
	Byte:  "BYTE",
	Word:  "WORD",
	Dword: "DWORD",
	Qword: "QWORD",
	Oword: "OWORD",
}

func (s OperandSize) String() string {
	if n, ok := sizeNames[s]; ok {
		return n
	}
	return "EMPTY"
}

// Mask returns the all-ones value of the size as a decimal string. The boolean is false for sizes that have no mask.
func (s OperandSize) Mask() (string, bool) {
	switch s {
	case Byte, Word, Dword:
		return strconv.FormatUint(1<<uint(s)-1, 10), true
	case Qword:
		return strconv.FormatUint(^uint64(0), 10), true
	default:
		return "", false
	}
}

// Operand is one of the three operands of a micro-op
type Operand struct {
	Kind  OperandKind
	Size  OperandSize
	Value string
}

// EmptyOperand is the operand of unused slots
var EmptyOperand = Operand{Kind: Empty}

// Reg returns a register operand
func Reg(size OperandSize, name string) Operand {
	return Operand{Kind: Register, Size: size, Value: name}
}

// Lit returns an integer literal operand
func Lit(size OperandSize, value uint64) Operand {
	return Operand{Kind: Integer, Size: size, Value: strconv.FormatUint(value, 10)}
}

// IsRegister returns true when the operand names a register
func (o Operand) IsRegister() bool {
	return o.Kind == Register
}

// IsZero returns true when the operand is the integer literal 0
func (o Operand) IsZero() bool {
	if o.Kind != Integer {
		return false
	}
	v, err := strconv.ParseUint(o.Value, 0, 64)
	return err == nil && v == 0
}

func (o Operand) String() string {
	if o.Kind == Empty {
		return "EMPTY"
	}
	return o.Size.String() + " " + o.Value
}

var temporaryRegister = regexp.MustCompile(`^t[0-9]+$`)

// IsTemporaryRegister returns true when the register is a micro-op temporary. Temporaries never live across native
// instruction boundaries.
func IsTemporaryRegister(name string) bool {
	return temporaryRegister.MatchString(name)
}

// Instruction is a micro-op. Address encodes the owning native instruction and the position inside its lowering.
type Instruction struct {
	Address Address
	Opcode  Opcode
	In1     Operand
	In2     Operand
	Out     Operand
	// Call is set on jcc micro-ops that are function calls
	Call bool
}

// InputRegisters returns the registers read by the two input operands
func (i Instruction) InputRegisters() []string {
	var regs []string
	if i.In1.IsRegister() {
		regs = append(regs, i.In1.Value)
	}
	if i.In2.IsRegister() && (len(regs) == 0 || regs[0] != i.In2.Value) {
		regs = append(regs, i.In2.Value)
	}
	return regs
}

func (i Instruction) String() string {
	s := fmt.Sprintf("%s: %s [%s, %s, %s]", i.Address, i.Opcode, i.In1, i.In2, i.Out)
	if i.Call {
		s += " call"
	}
	return s
}

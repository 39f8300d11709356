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

package reil

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseInstruction parses the text form of a micro-op, e.g.
//
//	add [DWORD eax, DWORD 5, QWORD t0]
//	jcc [BYTE 1, EMPTY, DWORD 4096] call
//
// The address of the returned micro-op is the zero address; callers set it.
func ParseInstruction(s string) (Instruction, error) {
	s = strings.TrimSpace(s)
	open := strings.Index(s, "[")
	closing := strings.LastIndex(s, "]")
	if open < 0 || closing < open {
		return Instruction{}, fmt.Errorf("malformed micro-op %q: expected operands in brackets", s)
	}
	name := strings.TrimSpace(s[:open])
	op := ParseOpcode(name)
	if op == OpUnknownOpcode {
		return Instruction{}, fmt.Errorf("malformed micro-op %q: unknown opcode %q", s, name)
	}
	operands := strings.Split(s[open+1:closing], ",")
	if len(operands) != 3 {
		return Instruction{}, fmt.Errorf("malformed micro-op %q: expected 3 operands, got %d", s, len(operands))
	}
	var parsed [3]Operand
	for i, text := range operands {
		o, err := parseOperand(text)
		if err != nil {
			return Instruction{}, fmt.Errorf("malformed micro-op %q: %w", s, err)
		}
		parsed[i] = o
	}
	ins := Instruction{Opcode: op, In1: parsed[0], In2: parsed[1], Out: parsed[2]}
	switch suffix := strings.TrimSpace(s[closing+1:]); suffix {
	case "":
	case "call":
		if op != OpJcc {
			return Instruction{}, fmt.Errorf("malformed micro-op %q: only jcc can be a call", s)
		}
		ins.Call = true
	default:
		return Instruction{}, fmt.Errorf("malformed micro-op %q: unexpected %q", s, suffix)
	}
	return ins, nil
}

func parseOperand(text string) (Operand, error) {
	fields := strings.Fields(text)
	if len(fields) == 1 && strings.EqualFold(fields[0], "EMPTY") {
		return EmptyOperand, nil
	}
	if len(fields) != 2 {
		return Operand{}, fmt.Errorf("operand %q: expected a size and a value", strings.TrimSpace(text))
	}
	size, err := parseSize(fields[0])
	if err != nil {
		return Operand{}, err
	}
	value := fields[1]
	if strings.Contains(value, ".") {
		if _, err := ParseAddress(value); err != nil {
			return Operand{}, fmt.Errorf("operand %q: %w", value, err)
		}
		return Operand{Kind: SubAddress, Size: size, Value: value}, nil
	}
	if n, err := strconv.ParseUint(value, 0, 64); err == nil {
		return Operand{Kind: Integer, Size: size, Value: strconv.FormatUint(n, 10)}, nil
	}
	if !isIdentifier(value) {
		return Operand{}, fmt.Errorf("operand %q is neither a literal nor a register", value)
	}
	return Operand{Kind: Register, Size: size, Value: value}, nil
}

func parseSize(s string) (OperandSize, error) {
	for size, name := range sizeNames {
		if strings.EqualFold(name, s) {
			return size, nil
		}
	}
	return SizeEmpty, fmt.Errorf("unknown operand size %q", s)
}

func isIdentifier(s string) bool {
	for i, r := range s {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return s != ""
}

// ParseLowering parses the micro-ops of the native instruction at native, in order, and assigns their addresses
func ParseLowering(native uint64, lines []string) ([]Instruction, error) {
	if len(lines) > MaxMicroOps {
		return nil, fmt.Errorf("instruction %#x lowers to %d micro-ops, at most %d are supported",
			native, len(lines), MaxMicroOps)
	}
	res := make([]Instruction, 0, len(lines))
	for i, line := range lines {
		ins, err := ParseInstruction(line)
		if err != nil {
			return nil, err
		}
		ins.Address = MakeAddress(native, uint8(i))
		res = append(res, ins)
	}
	return res, nil
}

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
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseInstruction(t *testing.T) {
	tests := []struct {
		text string
		want Instruction
	}{
		{
			text: "add [DWORD eax, DWORD 5, QWORD t0]",
			want: Instruction{Opcode: OpAdd, In1: Reg(Dword, "eax"), In2: Lit(Dword, 5), Out: Reg(Qword, "t0")},
		},
		{
			text: "str [DWORD 0x10, EMPTY, DWORD ecx]",
			want: Instruction{Opcode: OpStr, In1: Lit(Dword, 16), In2: EmptyOperand, Out: Reg(Dword, "ecx")},
		},
		{
			text: "  jcc [BYTE 1, EMPTY, DWORD 4096] call ",
			want: Instruction{Opcode: OpJcc, In1: Lit(Byte, 1), In2: EmptyOperand, Out: Lit(Dword, 4096), Call: true},
		},
		{
			text: "jcc [BYTE t1, EMPTY, DWORD 1000.02]",
			want: Instruction{Opcode: OpJcc, In1: Reg(Byte, "t1"), In2: EmptyOperand,
				Out: Operand{Kind: SubAddress, Size: Dword, Value: "1000.02"}},
		},
		{
			text: "NOP [EMPTY, EMPTY, EMPTY]",
			want: Instruction{Opcode: OpNop, In1: EmptyOperand, In2: EmptyOperand, Out: EmptyOperand},
		},
	}
	for _, test := range tests {
		t.Run(test.text, func(t *testing.T) {
			got, err := ParseInstruction(test.text)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("parsed micro-op mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseInstructionErrors(t *testing.T) {
	for _, text := range []string{
		"",
		"add DWORD eax, DWORD 5, QWORD t0",
		"foo [EMPTY, EMPTY, EMPTY]",
		"add [DWORD eax, DWORD 5]",
		"add [DWORD eax, DWORD 5, QWORD t0] call",
		"add [NIBBLE eax, DWORD 5, QWORD t0]",
		"add [DWORD e-x, DWORD 5, QWORD t0]",
		"str [DWORD 5, EMPTY, DWORD ecx] later",
		"jcc [BYTE 1, EMPTY, DWORD 10.zz]",
	} {
		if _, err := ParseInstruction(text); err == nil {
			t.Errorf("expected an error parsing %q", text)
		}
	}
}

func TestParseLowering(t *testing.T) {
	ops, err := ParseLowering(0x1000, []string{
		"add [DWORD ebp, DWORD 5, QWORD t0]",
		"ldm [QWORD t0, EMPTY, DWORD ecx]",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ops) != 2 {
		t.Fatalf("expected 2 micro-ops, got %d", len(ops))
	}
	for i, op := range ops {
		if op.Address != MakeAddress(0x1000, uint8(i)) {
			t.Errorf("micro-op %d has address %s", i, op.Address)
		}
	}
	if got := ops[1].String(); got != "00001000.01: ldm [QWORD t0, EMPTY, DWORD ecx]" {
		t.Errorf("unexpected rendering %q", got)
	}

	lines := make([]string, MaxMicroOps+1)
	for i := range lines {
		lines[i] = "nop [EMPTY, EMPTY, EMPTY]"
	}
	if _, err := ParseLowering(0x1000, lines); err == nil {
		t.Errorf("expected an error for an oversized lowering")
	}
}

func TestInputRegisters(t *testing.T) {
	ins := Instruction{Opcode: OpXor, In1: Reg(Dword, "eax"), In2: Reg(Dword, "eax"), Out: Reg(Dword, "eax")}
	if diff := cmp.Diff([]string{"eax"}, ins.InputRegisters()); diff != "" {
		t.Errorf("input registers mismatch (-want +got):\n%s", diff)
	}
	ins = Instruction{Opcode: OpAdd, In1: Lit(Dword, 3), In2: Reg(Dword, "ebx"), Out: Reg(Dword, "eax")}
	if diff := cmp.Diff([]string{"ebx"}, ins.InputRegisters()); diff != "" {
		t.Errorf("input registers mismatch (-want +got):\n%s", diff)
	}
}

func TestTemporaryRegister(t *testing.T) {
	for name, want := range map[string]bool{"t0": true, "t15": true, "t": false, "eax": false, "tx1": false} {
		if got := IsTemporaryRegister(name); got != want {
			t.Errorf("IsTemporaryRegister(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestSizeMask(t *testing.T) {
	if m, ok := Byte.Mask(); !ok || m != "255" {
		t.Errorf("byte mask = %q, %v", m, ok)
	}
	if m, ok := Dword.Mask(); !ok || m != "4294967295" {
		t.Errorf("dword mask = %q, %v", m, ok)
	}
	if m, ok := Qword.Mask(); !ok || m != "18446744073709551615" {
		t.Errorf("qword mask = %q, %v", m, ok)
	}
	if _, ok := Oword.Mask(); ok {
		t.Errorf("oword should have no mask")
	}
}

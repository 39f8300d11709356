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
	"io"
	"testing"

	"github.com/awslabs/ar-regtrack/analysis/cfg"
	"github.com/awslabs/ar-regtrack/analysis/config"
	"github.com/awslabs/ar-regtrack/analysis/lattice"
	"github.com/awslabs/ar-regtrack/analysis/reil"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func testLogger() *config.LogGroup {
	c := config.NewDefault()
	c.LogLevel = int(config.TraceLevel)
	l := config.NewLogGroup(c)
	l.SetAllOutput(io.Discard)
	return l
}

// movShld is a block with two x86 instructions:
//
//	00000005 mov ecx, [ebp+5]
//	00000008 shld ecx, edx, 9
func movShld(t *testing.T) (*reil.Program, *cfg.Instruction, *cfg.Instruction) {
	g := cfg.NewGraph("mov-shld")
	mov := cfg.NewInstruction(5, "mov", "ecx", "[ebp+5]")
	shld := cfg.NewInstruction(8, "shld", "ecx", "edx", "9")
	if _, err := g.AddCodeNode([]*cfg.Instruction{mov, shld}, "", ""); err != nil {
		t.Fatal(err)
	}
	tr := reil.NewStaticTranslator().
		MustAdd(5,
			"add [DWORD ebp, DWORD 5, QWORD t0]",
			"and [QWORD t0, QWORD 4294967295, DWORD t1]",
			"ldm [DWORD t1, EMPTY, DWORD t2]",
			"str [DWORD t2, EMPTY, DWORD ecx]").
		MustAdd(8,
			"bsh [DWORD ecx, BYTE 9, QWORD t0]",
			"bsh [DWORD edx, BYTE 23, QWORD t1]",
			"or [QWORD t0, QWORD t1, QWORD t2]",
			"and [QWORD t2, QWORD 4294967295, DWORD t3]",
			"bisz [DWORD t3, EMPTY, BYTE ZF]",
			"and [DWORD t3, DWORD 2147483648, DWORD t4]",
			"bisz [DWORD t4, EMPTY, BYTE SF]",
			"and [QWORD t2, QWORD 4294967296, QWORD t5]",
			"bisz [QWORD t5, EMPTY, BYTE CF]",
			"xor [BYTE SF, BYTE CF, BYTE OF]",
			"str [DWORD t3, EMPTY, DWORD ecx]")
	p, err := reil.Translate(g, tr)
	if err != nil {
		t.Fatalf("translation failed: %v", err)
	}
	return p, mov, shld
}

func solve(t *testing.T, p *reil.Program, seed Seed, dir Direction) *Solution {
	sol, err := Solve(testLogger(), p, seed, Params{Transformer: Transformer{Direction: dir,
		Calls: CallPolicy{ClearAll: true}}})
	if err != nil {
		t.Fatalf("solver failed: %v", err)
	}
	return sol
}

func checkState(t *testing.T, states map[*cfg.Instruction]lattice.Element, addr uint64, want lattice.Element) {
	t.Helper()
	var got lattice.Element
	ok := false
	for ins, e := range states {
		if ins.Address == addr {
			got, ok = e, true
		}
	}
	if !ok {
		t.Errorf("no state for %#x", addr)
		return
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("state of %#x mismatch (-want +got):\n%s", addr, diff)
	}
}

func TestTrackForwardIncoming(t *testing.T) {
	p, mov, _ := movShld(t)
	sol := solve(t, p, Seed{Start: mov, Register: "ebp", TrackIncoming: true}, Forward)
	states := sol.AddressToState(mov, true)
	// the temporaries derived from ebp are not reported
	checkState(t, states, 5, lattice.Element{Tainted: set("ebp"), Read: set("ebp")})
	// shld does not read ebp
	checkState(t, states, 8, lattice.Element{Tainted: set("ebp")})
}

func TestTrackForwardOutgoing(t *testing.T) {
	p, mov, _ := movShld(t)
	sol := solve(t, p, Seed{Start: mov, Register: "ecx"}, Forward)
	states := sol.AddressToState(mov, false)
	checkState(t, states, 5, lattice.Element{Tainted: set("ecx"), NewlyTainted: set("ecx")})
	checkState(t, states, 8, lattice.Element{
		Tainted:      set("CF", "OF", "SF", "ZF", "ecx"),
		Read:         set("CF", "SF", "ecx"),
		NewlyTainted: set("CF", "OF", "SF", "ZF"),
		Updated:      set("ecx"),
	})
}

func TestTrackBackward(t *testing.T) {
	for _, incoming := range []bool{true, false} {
		p, mov, shld := movShld(t)
		sol := solve(t, p, Seed{Start: shld, Register: "ecx", TrackIncoming: incoming}, Backward)
		states := sol.AddressToState(shld, incoming)
		checkState(t, states, 8, lattice.Element{
			Tainted:      set("ecx", "edx"),
			Read:         set("ecx"),
			NewlyTainted: set("edx"),
			Updated:      set("ecx"),
		})
		checkState(t, states, mov.Address, lattice.Element{
			Tainted:   set("edx"),
			Read:      set("ecx"),
			Untainted: set("ecx"),
		})
	}
}

func TestEffectSetsAreDisjoint(t *testing.T) {
	p, mov, shld := movShld(t)
	for _, run := range []struct {
		seed Seed
		dir  Direction
	}{
		{Seed{Start: mov, Register: "ecx"}, Forward},
		{Seed{Start: mov, Register: "ebp", TrackIncoming: true}, Forward},
		{Seed{Start: shld, Register: "ecx"}, Backward},
	} {
		sol := solve(t, p, run.seed, run.dir)
		for ins, e := range sol.AddressToState(run.seed.Start, run.seed.TrackIncoming) {
			for _, r := range e.Untainted {
				if e.NewlyTainted.Contains(r) || e.Updated.Contains(r) {
					t.Errorf("%s: %s is both cleared and written: %s", ins, r, e)
				}
			}
		}
	}
}

// loop builds a loop of two instructions where the start is reached again:
//
//	0x10: add eax, 1 -> eax
//	0x11: jnz 0x10
func loop(t *testing.T) (*reil.Program, *cfg.Instruction) {
	g := cfg.NewGraph("loop")
	head := cfg.NewInstruction(0x10, "add", "eax", "1")
	jump := cfg.NewInstruction(0x11, "jnz", "0x10")
	exit := cfg.NewInstruction(0x12, "ret")
	a, _ := g.AddCodeNode([]*cfg.Instruction{head, jump}, "", "")
	b, _ := g.AddCodeNode([]*cfg.Instruction{exit}, "", "")
	g.AddEdge(a, a, cfg.JumpTrue)
	g.AddEdge(a, b, cfg.JumpFalse)
	tr := reil.NewStaticTranslator().
		MustAdd(0x10, "add [DWORD eax, DWORD 1, DWORD eax]", "bisz [DWORD eax, EMPTY, BYTE ZF]").
		MustAdd(0x11, "bisz [BYTE ZF, EMPTY, BYTE t0]", "jcc [BYTE t0, EMPTY, DWORD 16]").
		MustAdd(0x12, "jcc [BYTE 1, EMPTY, DWORD esp]")
	p, err := reil.Translate(g, tr)
	if err != nil {
		t.Fatalf("translation failed: %v", err)
	}
	return p, head
}

func TestLoopBackToStartTerminates(t *testing.T) {
	p, head := loop(t)
	for _, dir := range []Direction{Forward, Backward} {
		for _, incoming := range []bool{true, false} {
			sol := solve(t, p, Seed{Start: head, Register: "eax", TrackIncoming: incoming}, dir)
			states := sol.AddressToState(head, incoming)
			if _, ok := states[head]; !ok {
				t.Errorf("%s, incoming=%v: start has no state", dir, incoming)
			}
			if sol.Iterations > 10*p.Order() {
				t.Errorf("%s, incoming=%v: too many iterations (%d)", dir, incoming, sol.Iterations)
			}
		}
	}
	sol := solve(t, p, Seed{Start: head, Register: "eax", TrackIncoming: true}, Forward)
	// ZF and eax are carried around the loop: the head updates both
	checkState(t, sol.AddressToState(head, true), 0x10, lattice.Element{
		Tainted: set("ZF", "eax"),
		Read:    set("eax"),
		Updated: set("ZF", "eax"),
	})
	if sol.Reached() != p.Order() {
		t.Errorf("expected every micro-op to be reached, got %d of %d", sol.Reached(), p.Order())
	}
}

func TestIterationLimit(t *testing.T) {
	p, head := loop(t)
	_, err := Solve(testLogger(), p, Seed{Start: head, Register: "eax", TrackIncoming: true},
		Params{Transformer: Transformer{Calls: CallPolicy{ClearAll: true}}, MaxIterations: 2})
	if !errors.Is(err, ErrIterationLimit) {
		t.Errorf("expected ErrIterationLimit, got %v", err)
	}
}

func TestStartNotInProgram(t *testing.T) {
	p, _ := loop(t)
	_, err := Solve(testLogger(), p, Seed{Start: cfg.NewInstruction(0x99, "nop"), Register: "eax"}, Params{})
	if err == nil {
		t.Errorf("expected an error for a start outside the program")
	}
}

func TestMicroOpStates(t *testing.T) {
	p, mov, _ := movShld(t)
	sol := solve(t, p, Seed{Start: mov, Register: "ebp", TrackIncoming: true}, Forward)
	e, ok := sol.State(reil.MakeAddress(5, 0))
	if !ok || !e.IsTainted("t0") {
		t.Errorf("t0 should be tainted after the first micro-op: %s", e)
	}
	if _, ok := sol.State(reil.MakeAddress(5, 9)); ok {
		t.Errorf("no micro-op at 5.09")
	}
}

// diamond lowers two branches that merge into 0x40: the branch through 0x20 clears eax, the one through 0x30
// leaves it alone.
func diamond(t *testing.T) (*reil.Program, []*cfg.Instruction) {
	g := cfg.NewGraph("diamond")
	ins := []*cfg.Instruction{
		cfg.NewInstruction(0x10, "add", "eax", "1"),
		cfg.NewInstruction(0x20, "xor", "eax", "eax"),
		cfg.NewInstruction(0x30, "nop"),
		cfg.NewInstruction(0x40, "mov", "ebx", "eax"),
	}
	var ids []cfg.NodeID
	for _, i := range ins {
		id, err := g.AddCodeNode([]*cfg.Instruction{i}, "", "")
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}
	g.AddEdge(ids[0], ids[1], cfg.JumpTrue)
	g.AddEdge(ids[0], ids[2], cfg.JumpFalse)
	g.AddEdge(ids[1], ids[3], cfg.Unconditional)
	g.AddEdge(ids[2], ids[3], cfg.Unconditional)
	tr := reil.NewStaticTranslator().
		MustAdd(0x10, "add [DWORD eax, DWORD 1, DWORD eax]").
		MustAdd(0x20, "xor [DWORD eax, DWORD eax, DWORD eax]").
		MustAdd(0x30, "nop [EMPTY, EMPTY, EMPTY]").
		MustAdd(0x40, "str [DWORD eax, EMPTY, DWORD ebx]")
	p, err := reil.Translate(g, tr)
	if err != nil {
		t.Fatalf("translation failed: %v", err)
	}
	return p, ins
}

func TestJoinAtMergePoint(t *testing.T) {
	p, ins := diamond(t)

	sol := solve(t, p, Seed{Start: ins[0], Register: "eax"}, Forward)
	states := sol.AddressToState(ins[0], false)
	checkState(t, states, 0x20, lattice.Element{Untainted: set("eax")})
	checkState(t, states, 0x30, lattice.Element{Tainted: set("eax")})
	checkState(t, states, 0x40, lattice.Element{Tainted: set("eax", "ebx"), Read: set("eax"),
		NewlyTainted: set("ebx")})

	sol = solve(t, p, Seed{Start: ins[3], Register: "ebx"}, Backward)
	states = sol.AddressToState(ins[3], false)
	checkState(t, states, 0x20, lattice.Element{Untainted: set("eax")})
	checkState(t, states, 0x10, lattice.Element{Tainted: set("eax"), Read: set("eax"), Updated: set("eax")})
}

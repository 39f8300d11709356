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
	"errors"
	"testing"

	"github.com/awslabs/ar-regtrack/analysis/cfg"
	"github.com/google/go-cmp/cmp"
	"github.com/yourbasic/graph"
)

// twoBlocks builds a graph with a code node [0x10, 0x11], a function node, and a code node [0x20]:
// code(0x10,0x11) -> function -> code(0x20)
func twoBlocks(t *testing.T) (*cfg.Graph, []*cfg.Instruction) {
	g := cfg.NewGraph("two")
	i10 := cfg.NewInstruction(0x10, "mov", "eax", "1")
	i11 := cfg.NewInstruction(0x11, "rep", "movsb")
	i20 := cfg.NewInstruction(0x20, "ret")
	a, err := g.AddCodeNode([]*cfg.Instruction{i10, i11}, "", "")
	if err != nil {
		t.Fatal(err)
	}
	f := g.AddNode(cfg.FunctionNode, "callee")
	b, err := g.AddCodeNode([]*cfg.Instruction{i20}, "", "")
	if err != nil {
		t.Fatal(err)
	}
	g.AddEdge(a, f, cfg.Unconditional)
	g.AddEdge(f, b, cfg.Unconditional)
	return g, []*cfg.Instruction{i10, i11, i20}
}

func TestTranslateBuildsProgramGraph(t *testing.T) {
	g, ins := twoBlocks(t)
	tr := NewStaticTranslator().
		MustAdd(0x10, "str [DWORD 1, EMPTY, DWORD eax]").
		MustAdd(0x11,
			"bisz [DWORD ecx, EMPTY, BYTE t0]",
			"jcc [BYTE t0, EMPTY, DWORD 11.03]",
			"jcc [BYTE 1, EMPTY, DWORD 11.00]",
			"nop [EMPTY, EMPTY, EMPTY]").
		MustAdd(0x20)
	p, err := Translate(g, tr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Order() != 6 {
		t.Fatalf("expected 6 micro-ops, got %d", p.Order())
	}
	// the empty lowering of 0x20 becomes a nop
	last := p.Ops[5]
	if last.Opcode != OpNop || last.Address != MakeAddress(0x20, 0) {
		t.Errorf("unexpected synthetic micro-op %s", last)
	}

	idx := func(native uint64, sub uint8) int {
		i, ok := p.IndexOf(MakeAddress(native, sub))
		if !ok {
			t.Fatalf("no micro-op at %#x.%d", native, sub)
		}
		return i
	}
	want := map[int][]Link{
		idx(0x10, 0): {{To: idx(0x11, 0), Exit: true}},
		idx(0x11, 0): {{To: idx(0x11, 1)}},
		idx(0x11, 1): {{To: idx(0x11, 3)}, {To: idx(0x11, 2)}},
		idx(0x11, 2): {{To: idx(0x11, 0)}},
		idx(0x11, 3): {{To: idx(0x20, 0), Exit: true}},
		idx(0x20, 0): nil,
	}
	for i, links := range want {
		if diff := cmp.Diff(links, p.Successors(i)); diff != "" {
			t.Errorf("successors of %s mismatch (-want +got):\n%s", p.Ops[i].Address, diff)
		}
	}
	if p.Owner(idx(0x11, 2)) != ins[1] {
		t.Errorf("wrong owner for %s", p.Ops[idx(0x11, 2)].Address)
	}
	if got, ok := p.InstructionAt(0x20); !ok || got != ins[2] {
		t.Errorf("InstructionAt(0x20) = %v, %v", got, ok)
	}
	if len(p.Lowering(ins[1])) != 4 {
		t.Errorf("expected 4 micro-ops for %s", ins[1])
	}
	if len(p.Predecessors(idx(0x11, 0))) != 2 {
		t.Errorf("expected two predecessors for the loop head")
	}
}

func TestProgramIsIterator(t *testing.T) {
	g, _ := twoBlocks(t)
	tr := NewStaticTranslator().
		MustAdd(0x10, "str [DWORD 1, EMPTY, DWORD eax]", "str [DWORD eax, EMPTY, DWORD ebx]").
		MustAdd(0x11, "str [DWORD ebx, EMPTY, DWORD ecx]").
		MustAdd(0x20, "nop [EMPTY, EMPTY, EMPTY]")
	p, err := Translate(g, tr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	im := graph.Copy(p)
	if im.Order() != 4 {
		t.Fatalf("expected 4 vertices, got %d", im.Order())
	}
	if !graph.Acyclic(im) {
		t.Errorf("straight-line program should be acyclic")
	}
	if c := im.Cost(0, 1); c != 0 {
		t.Errorf("intra-instruction edge should cost 0, got %d", c)
	}
	if c := im.Cost(1, 2); c != ExitCost {
		t.Errorf("exit edge should cost %d, got %d", ExitCost, c)
	}
	order, ok := graph.TopSort(im)
	if !ok || len(order) != 4 || order[0] != 0 {
		t.Errorf("unexpected topological order %v", order)
	}
}

func TestTranslateFailsFast(t *testing.T) {
	g, ins := twoBlocks(t)
	tr := NewStaticTranslator().MustAdd(0x10, "str [DWORD 1, EMPTY, DWORD eax]")
	p, err := Translate(g, tr)
	if p != nil {
		t.Errorf("expected no partial program")
	}
	var terr *TranslationError
	if !errors.As(err, &terr) {
		t.Fatalf("expected a translation error, got %v", err)
	}
	if terr.Instruction != ins[1] {
		t.Errorf("error reports %s, expected %s", terr.Instruction, ins[1])
	}
	if !errors.Is(err, ErrNoLowering) {
		t.Errorf("expected ErrNoLowering as cause")
	}
}

type badAddresses struct{}

func (badAddresses) Translate(ins *cfg.Instruction) ([]Instruction, error) {
	return []Instruction{{Address: MakeAddress(ins.Address+1, 0), Opcode: OpNop}}, nil
}

func TestTranslateRejectsMisplacedMicroOps(t *testing.T) {
	g, _ := twoBlocks(t)
	var terr *TranslationError
	if _, err := Translate(g, badAddresses{}); !errors.As(err, &terr) {
		t.Errorf("expected a translation error, got %v", err)
	}
}

func TestTranslateRejectsAliasedAddresses(t *testing.T) {
	g := cfg.NewGraph("aliased")
	low := cfg.NewInstruction(0x1000, "mov", "ebx", "eax")
	high := cfg.NewInstruction(0x0100000000001000, "mov", "ebx", "eax")
	a, _ := g.AddCodeNode([]*cfg.Instruction{low}, "", "")
	b, _ := g.AddCodeNode([]*cfg.Instruction{high}, "", "")
	g.AddEdge(a, b, cfg.Unconditional)
	tr := NewStaticTranslator().
		MustAdd(low.Address, "str [DWORD eax, EMPTY, DWORD ebx]").
		MustAdd(high.Address, "str [DWORD eax, EMPTY, DWORD ebx]")
	p, err := Translate(g, tr)
	if p != nil {
		t.Errorf("expected no program")
	}
	var terr *TranslationError
	if !errors.As(err, &terr) {
		t.Fatalf("expected a translation error, got %v", err)
	}
	if terr.Instruction != high {
		t.Errorf("error reports %s, expected %s", terr.Instruction, high)
	}
}

func TestTranslateHighAddresses(t *testing.T) {
	g := cfg.NewGraph("kernel")
	first := cfg.NewInstruction(0xffffffff81000000, "test", "ecx", "ecx")
	second := cfg.NewInstruction(0xffffffff81000004, "ret")
	if _, err := g.AddCodeNode([]*cfg.Instruction{first, second}, "", ""); err != nil {
		t.Fatal(err)
	}
	tr := NewStaticTranslator().
		MustAdd(first.Address,
			"bisz [DWORD ecx, EMPTY, BYTE t0]",
			"jcc [BYTE t0, EMPTY, DWORD ffffffff81000000.00]").
		MustAdd(second.Address, "jcc [BYTE 1, EMPTY, DWORD esp]")
	p, err := Translate(g, tr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lowered := p.Lowering(first)
	want := []Link{{To: lowered[0]}, {To: p.Lowering(second)[0], Exit: true}}
	if diff := cmp.Diff(want, p.Successors(lowered[1])); diff != "" {
		t.Errorf("successors of %s mismatch (-want +got):\n%s", p.Ops[lowered[1]].Address, diff)
	}
	if got, ok := p.InstructionAt(second.Address); !ok || got != second {
		t.Errorf("InstructionAt(%#x) = %v, %v", second.Address, got, ok)
	}
}

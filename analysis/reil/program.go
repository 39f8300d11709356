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
	"fmt"

	"github.com/awslabs/ar-regtrack/analysis/cfg"
)

// ExitCost is the cost of exit edges when a Program is visited as a graph.Iterator. Edges between micro-ops of the
// same native instruction have cost 0.
const ExitCost int64 = 1

// A Link is a directed edge between two micro-ops, identified by their index in the Program.
// Exit links leave a native instruction.
type Link struct {
	To   int
	Exit bool
}

// A Program is the micro-op graph of a control-flow graph: every instruction of every code node lowered, with
// edges inside native instructions and exit edges following the native control flow.
//
// A Program implements the graph.Iterator interface of github.com/yourbasic/graph. Vertices are micro-op indices.
type Program struct {
	// Ops are the micro-ops, grouped by native instruction in graph order
	Ops []Instruction

	// owner[i] is the native instruction of Ops[i]
	owner []*cfg.Instruction

	// byAddress maps micro-op addresses to indices in Ops
	byAddress map[Address]int

	// lowered maps native instructions to the indices of their micro-ops, in sub-index order
	lowered map[*cfg.Instruction][]int

	// byNative maps native addresses to the native instruction at that address
	byNative map[uint64]*cfg.Instruction

	succ [][]Link
	pred [][]Link
}

// Translate lowers every instruction of every code node in g with the translator and builds the micro-op graph.
// It fails on the first instruction that cannot be lowered, and returns no partial program. The error is then a
// *TranslationError.
func Translate(g *cfg.Graph, t Translator) (*Program, error) {
	p := &Program{
		byAddress: map[Address]int{},
		lowered:   map[*cfg.Instruction][]int{},
		byNative:  map[uint64]*cfg.Instruction{},
	}
	for _, node := range g.Nodes() {
		for _, ins := range node.Instructions {
			if err := p.lower(ins, t); err != nil {
				return nil, err
			}
		}
	}
	p.succ = make([][]Link, len(p.Ops))
	p.pred = make([][]Link, len(p.Ops))
	for _, node := range g.Nodes() {
		for k, ins := range node.Instructions {
			p.linkInside(ins)
			var next []*cfg.Instruction
			if k+1 < len(node.Instructions) {
				next = []*cfg.Instruction{node.Instructions[k+1]}
			} else {
				next = nativeSuccessors(g, node.ID)
			}
			idx := p.lowered[ins]
			for _, n := range next {
				p.addLink(idx[len(idx)-1], p.lowered[n][0], true)
			}
		}
	}
	return p, nil
}

func (p *Program) lower(ins *cfg.Instruction, t Translator) error {
	if _, dup := p.byNative[ins.Address]; dup {
		return &TranslationError{Instruction: ins, Err: fmt.Errorf("duplicate native address %#x", ins.Address)}
	}
	ops, err := t.Translate(ins)
	if err != nil {
		var terr *TranslationError
		if errors.As(err, &terr) {
			return err
		}
		return &TranslationError{Instruction: ins, Err: err}
	}
	if len(ops) > MaxMicroOps {
		return &TranslationError{Instruction: ins, Err: fmt.Errorf("%d micro-ops exceed the maximum of %d",
			len(ops), MaxMicroOps)}
	}
	if len(ops) == 0 {
		// Every instruction owns at least one program point
		ops = []Instruction{{Address: MakeAddress(ins.Address, 0), Opcode: OpNop}}
	}
	if other, ok := p.byAddress[MakeAddress(ins.Address, 0)]; ok {
		// the encoding keeps the low 56 bits of the native address
		return &TranslationError{Instruction: ins, Err: fmt.Errorf("address %#x aliases %s", ins.Address,
			p.owner[other])}
	}
	p.byNative[ins.Address] = ins
	for k, op := range ops {
		if op.Address != MakeAddress(ins.Address, uint8(k)) {
			return &TranslationError{Instruction: ins,
				Err: fmt.Errorf("micro-op %d has address %s", k, op.Address)}
		}
		p.byAddress[op.Address] = len(p.Ops)
		p.lowered[ins] = append(p.lowered[ins], len(p.Ops))
		p.Ops = append(p.Ops, op)
		p.owner = append(p.owner, ins)
	}
	return nil
}

// linkInside adds the edges between micro-ops of the same native instruction
func (p *Program) linkInside(ins *cfg.Instruction) {
	idx := p.lowered[ins]
	native := MakeAddress(ins.Address, 0).Native()
	for k, i := range idx {
		op := p.Ops[i]
		fallThrough := k+1 < len(idx)
		if op.Opcode == OpJcc && op.Out.Kind == SubAddress {
			if target, err := ParseAddress(op.Out.Value); err == nil && target.Native() == native {
				if j, ok := p.byAddress[target]; ok {
					p.addLink(i, j, false)
				}
			}
			// jcc on a non-zero literal always jumps
			if op.In1.Kind == Integer && !op.In1.IsZero() {
				fallThrough = false
			}
		}
		if fallThrough {
			p.addLink(i, idx[k+1], false)
		}
	}
}

// addLink adds an edge from i to j, unless one exists. When both an exit and a non-exit edge connect the same
// micro-ops, the edge is an exit edge.
func (p *Program) addLink(i, j int, exit bool) {
	for k, l := range p.succ[i] {
		if l.To == j {
			if exit && !l.Exit {
				p.succ[i][k].Exit = true
				for m, r := range p.pred[j] {
					if r.To == i {
						p.pred[j][m].Exit = true
					}
				}
			}
			return
		}
	}
	p.succ[i] = append(p.succ[i], Link{To: j, Exit: exit})
	p.pred[j] = append(p.pred[j], Link{To: i, Exit: exit})
}

// nativeSuccessors returns the first instructions of the code nodes reached from the node through its out edges.
// Non-code nodes and empty code nodes are traversed.
func nativeSuccessors(g *cfg.Graph, id cfg.NodeID) []*cfg.Instruction {
	var res []*cfg.Instruction
	seen := map[cfg.NodeID]bool{id: true}
	queue := g.Successors(id)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		node := g.Node(n)
		if node.IsCode() && len(node.Instructions) > 0 {
			res = append(res, node.Instructions[0])
			continue
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		queue = append(queue, g.Successors(n)...)
	}
	return res
}

// Order implements graph.Iterator
func (p *Program) Order() int {
	return len(p.Ops)
}

// Visit implements graph.Iterator: it calls do on the successors of micro-op v
func (p *Program) Visit(v int, do func(w int, c int64) (skip bool)) (aborted bool) {
	for _, l := range p.succ[v] {
		c := int64(0)
		if l.Exit {
			c = ExitCost
		}
		if do(l.To, c) {
			return true
		}
	}
	return false
}

// Successors returns the edges leaving micro-op i
func (p *Program) Successors(i int) []Link {
	return p.succ[i]
}

// Predecessors returns the edges entering micro-op i. The To field of each link is the source of the edge.
func (p *Program) Predecessors(i int) []Link {
	return p.pred[i]
}

// Owner returns the native instruction of micro-op i
func (p *Program) Owner(i int) *cfg.Instruction {
	return p.owner[i]
}

// IndexOf returns the index of the micro-op at address a
func (p *Program) IndexOf(a Address) (int, bool) {
	i, ok := p.byAddress[a]
	return i, ok
}

// Lowering returns the indices of the micro-ops of ins in sub-index order. It is empty when ins is not in the
// program.
func (p *Program) Lowering(ins *cfg.Instruction) []int {
	return p.lowered[ins]
}

// InstructionAt returns the native instruction at the native address
func (p *Program) InstructionAt(native uint64) (*cfg.Instruction, bool) {
	ins, ok := p.byNative[native]
	return ins, ok
}

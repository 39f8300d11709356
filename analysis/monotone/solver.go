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

// Package monotone implements the register tracking as a monotone dataflow analysis over the micro-op graph of a
// reil.Program.
//
// The solver is a worklist algorithm. Micro-ops are visited in the topological order of the strongly connected
// components of the program graph, so that straight-line code is visited once and loops are iterated until their
// states stabilize. States only grow, and there are finitely many registers, so the analysis terminates.
package monotone

import (
	"errors"
	"fmt"

	"github.com/awslabs/ar-regtrack/analysis/cfg"
	"github.com/awslabs/ar-regtrack/analysis/config"
	"github.com/awslabs/ar-regtrack/analysis/lattice"
	"github.com/awslabs/ar-regtrack/analysis/reil"
	"github.com/awslabs/ar-regtrack/internal/graphutil"
	"github.com/yourbasic/graph"
	"golang.org/x/tools/container/intsets"
)

// ErrIterationLimit is returned when the solver visits more micro-ops than allowed by Params.MaxIterations
var ErrIterationLimit = errors.New("iteration limit reached")

// Seed is the starting point of an analysis
type Seed struct {
	// Start is the instruction where the tracking starts
	Start *cfg.Instruction

	// Register is the tracked register
	Register string

	// TrackIncoming tracks the value of the register before Start executes. Otherwise, the value Start leaves in
	// the register is tracked. Backward analyses always track the value Start leaves in the register.
	TrackIncoming bool
}

// Params are the parameters of the solver
type Params struct {
	Transformer

	// MaxIterations bounds the number of micro-op visits. If MaxIterations <= 0, it is ignored.
	MaxIterations int
}

// A Solution holds the fixpoint of an analysis: the state after each reached micro-op, in the direction of the
// analysis.
type Solution struct {
	program   *reil.Program
	direction Direction
	seed      Seed

	// out[i] is the state after micro-op i, valid when reached has i
	out     []lattice.Element
	reached intsets.Sparse

	// Iterations is the number of micro-op visits the solver needed
	Iterations int
}

// solver holds the state of a single run of Solve
type solver struct {
	logger  *config.LogGroup
	program *reil.Program
	params  Params

	// flow is the program graph in the direction of the analysis
	flow graph.Iterator

	// rank[i] is the position of micro-op i in the visiting order, byRank is its inverse
	rank   []int
	byRank []int

	worklist intsets.Sparse
	in       []lattice.Element
	sol      *Solution
}

// Solve runs the register tracking on the program from the seed. The logger must not be nil.
func Solve(logger *config.LogGroup, p *reil.Program, seed Seed, params Params) (*Solution, error) {
	lowering := p.Lowering(seed.Start)
	if len(lowering) == 0 {
		return nil, fmt.Errorf("start instruction %s is not in the program", seed.Start)
	}
	s := &solver{
		logger:  logger,
		program: p,
		params:  params,
		in:      make([]lattice.Element, p.Order()),
		sol: &Solution{
			program:   p,
			direction: params.Direction,
			seed:      seed,
			out:       make([]lattice.Element, p.Order()),
		},
	}
	if params.Direction == Backward {
		s.flow = graph.Sort(graph.Transpose(p))
	} else {
		s.flow = graph.Sort(p)
	}
	s.computeOrder()
	s.seed(seed, lowering)

	var r int
	for s.worklist.TakeMin(&r) {
		i := s.byRank[r]
		s.sol.Iterations++
		if params.MaxIterations > 0 && s.sol.Iterations > params.MaxIterations {
			return nil, fmt.Errorf("tracking %s from %s: %w (%d)", seed.Register, seed.Start,
				ErrIterationLimit, params.MaxIterations)
		}
		if err := s.visit(i); err != nil {
			return nil, fmt.Errorf("tracking %s from %s: %w", seed.Register, seed.Start, err)
		}
	}
	logger.Debugf("%s tracking of %s from %s: %d micro-op visits for %d micro-ops\n",
		params.Direction, seed.Register, seed.Start, s.sol.Iterations, p.Order())
	return s.sol, nil
}

// computeOrder ranks micro-ops in the topological order of the strongly connected components of the flow graph
func (s *solver) computeOrder() {
	n := s.program.Order()
	s.rank = make([]int, n)
	s.byRank = make([]int, 0, n)
	for _, scc := range graphutil.Components(s.flow) {
		for _, v := range scc {
			s.rank[v] = len(s.byRank)
			s.byRank = append(s.byRank, v)
		}
	}
}

// seed initializes the worklist.
//
// When the start instruction is transferred, its entry micro-ops in the direction of the analysis receive the
// tracked register. Otherwise, the start is reported with the seed state, and that state flows out of it on its
// exit edges.
func (s *solver) seed(seed Seed, lowering []int) {
	if transfersStart(seed, s.params.Direction) {
		for _, i := range lowering {
			if s.isEntry(i) {
				s.in[i] = lattice.Seed(seed.Register)
				s.worklist.Insert(s.rank[i])
			}
		}
		return
	}
	start := outgoingSeed(seed.Register)
	for _, i := range lowering {
		s.flow.Visit(i, func(w int, c int64) bool {
			if c == reil.ExitCost {
				s.propagate(w, start.Exit())
			}
			return false
		})
	}
}

func transfersStart(seed Seed, d Direction) bool {
	return seed.TrackIncoming || d == Backward
}

// outgoingSeed is the state reported for a start instruction that is not transferred: it defines the register.
func outgoingSeed(r string) lattice.Element {
	return lattice.Element{Tainted: lattice.NewSet(r), NewlyTainted: lattice.NewSet(r)}
}

// isEntry returns true when control enters the native instruction of micro-op i at i, in the direction of the
// analysis
func (s *solver) isEntry(i int) bool {
	if s.params.Direction == Backward {
		return isBoundary(s.program.Successors(i))
	}
	return s.program.Ops[i].Address.Sub() == 0
}

// isBoundary returns true when the links leave the native instruction, or there are none
func isBoundary(links []reil.Link) bool {
	if len(links) == 0 {
		return true
	}
	for _, l := range links {
		if l.Exit {
			return true
		}
	}
	return false
}

// visit transfers micro-op i and propagates its new state to its successors
func (s *solver) visit(i int) error {
	op := s.program.Ops[i]
	out, err := s.params.Transfer(op, s.in[i])
	if err != nil {
		return err
	}
	if s.logger.Enabled(config.TraceLevel) {
		s.logger.Tracef("%s | in: %s | out: %s\n", op, s.in[i], out)
	}
	if s.sol.reached.Has(i) && out.Equal(s.sol.out[i]) {
		return nil
	}
	s.sol.reached.Insert(i)
	s.sol.out[i] = out
	s.flow.Visit(i, func(w int, c int64) bool {
		if c == reil.ExitCost {
			s.propagate(w, out.Exit())
		} else {
			s.propagate(w, out)
		}
		return false
	})
	return nil
}

// propagate joins x into the state before micro-op w, and schedules w if that state changed.
// The empty element is never propagated: every micro-op maps it to itself.
func (s *solver) propagate(w int, x lattice.Element) {
	if len(x.Tainted) == 0 && !x.HasEffect() {
		return
	}
	joined := s.in[w].Join(x)
	if s.sol.reached.Has(w) && joined.Equal(s.in[w]) {
		return
	}
	s.in[w] = joined
	s.worklist.Insert(s.rank[w])
}

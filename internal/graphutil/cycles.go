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

package graphutil

import (
	"github.com/awslabs/ar-regtrack/analysis/cfg"
	"github.com/yourbasic/graph"
	"golang.org/x/exp/slices"
)

// Stats returns the statistics of the view: number of edges, parallel edges, self loops and isolated nodes
func Stats(g *cfg.Graph) graph.Stats {
	return graph.Check(NewViewGraph(g))
}

// adjacency is the subgraph of a view induced by the nodes from min onwards
type adjacency struct {
	order int
	min   int
	succ  [][]int
}

func newAdjacency(g *cfg.Graph) *adjacency {
	a := &adjacency{order: g.NodeCount(), succ: make([][]int, g.NodeCount())}
	for i := range a.succ {
		for _, s := range g.Successors(cfg.NodeID(i)) {
			a.succ[i] = append(a.succ[i], int(s))
		}
	}
	return a
}

func (a *adjacency) Order() int {
	return a.order
}

func (a *adjacency) Visit(v int, do func(w int, c int64) (skip bool)) (aborted bool) {
	if v < a.min {
		return false
	}
	for _, w := range a.succ[v] {
		if w >= a.min && do(w, 1) {
			return true
		}
	}
	return false
}

// FindAllElementaryCycles finds all elementary cycles of the view g, as sequences of node ids where the first node
// is repeated at the end.
// This uses Donald B. Johnson's algorithm presented in
// "Finding All The Elementary Circuits of a Directed Graph", 1975
func FindAllElementaryCycles(g *cfg.Graph) [][]cfg.NodeID {
	a := newAdjacency(g)
	s := &state{}
	for a.min < a.order {
		start := -1
		for _, component := range graph.StrongComponents(a) {
			if len(component) < 2 && !(len(component) == 1 && slices.Contains(a.succ[component[0]], component[0])) {
				continue
			}
			slices.Sort(component)
			if m := component[0]; m >= a.min && (start < 0 || m < start) {
				start = m
			}
		}
		if start < 0 {
			break
		}
		a.min = start
		s.stack = nil
		s.blocked = map[int]bool{}
		s.blist = map[int]map[int]bool{}
		s.circuit(start, start, a)
		a.min = start + 1
	}
	return s.cycles
}

type state struct {
	blocked map[int]bool
	blist   map[int]map[int]bool
	stack   []int
	cycles  [][]cfg.NodeID
}

func (s *state) unblock(u int) {
	s.blocked[u] = false
	for w := range s.blist[u] {
		delete(s.blist[u], w)
		if s.blocked[w] {
			s.unblock(w)
		}
	}
}

func (s *state) circuit(v int, start int, a *adjacency) bool {
	f := false
	s.stack = append(s.stack, v)
	s.blocked[v] = true
	a.Visit(v, func(w int, _ int64) bool {
		if w == start {
			cycle := make([]cfg.NodeID, 0, len(s.stack)+1)
			for _, x := range s.stack {
				cycle = append(cycle, cfg.NodeID(x))
			}
			s.cycles = append(s.cycles, append(cycle, cfg.NodeID(w)))
			f = true
		} else if !s.blocked[w] {
			if s.circuit(w, start, a) {
				f = true
			}
		}
		return false
	})

	if f {
		s.unblock(v)
	} else {
		a.Visit(v, func(w int, _ int64) bool {
			if s.blist[w] == nil {
				s.blist[w] = map[int]bool{}
			}
			s.blist[w][v] = true
			return false
		})
	}
	s.stack = s.stack[:len(s.stack)-1]
	return f
}

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
	"github.com/awslabs/ar-regtrack/internal/funcutil"
	"github.com/yourbasic/graph"
)

// StronglyConnectedComponents computes the strongly connected components of the graph given by nodes and
// successors, with Tarjan's algorithm.
// The components are in reverse topological order: a component appears before every component that reaches it.
// The order of the nodes within a component is arbitrary.
//
// The depth-first search keeps its own stack of frames, since micro-op graphs have long chains of nodes.
func StronglyConnectedComponents[T comparable](nodes []T, successors func(T) []T) [][]T {
	type frame struct {
		v    T
		succ []T
		next int
	}
	var (
		sccs    [][]T
		stack   []T
		onStack = map[T]bool{}
		index   = map[T]int{}
		lowlink = map[T]int{}
		counter = 0
	)
	enter := func(v T) *frame {
		index[v] = counter
		lowlink[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true
		return &frame{v: v, succ: successors(v)}
	}
	for _, root := range nodes {
		if _, ok := index[root]; ok {
			continue
		}
		calls := []*frame{enter(root)}
		for len(calls) > 0 {
			f := calls[len(calls)-1]
			if f.next < len(f.succ) {
				w := f.succ[f.next]
				f.next++
				if _, ok := index[w]; !ok {
					calls = append(calls, enter(w))
				} else if onStack[w] && index[w] < lowlink[f.v] {
					lowlink[f.v] = index[w]
				}
				continue
			}
			calls = calls[:len(calls)-1]
			if len(calls) > 0 {
				parent := calls[len(calls)-1].v
				if lowlink[f.v] < lowlink[parent] {
					lowlink[parent] = lowlink[f.v]
				}
			}
			if lowlink[f.v] != index[f.v] {
				continue
			}
			var scc []T
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == f.v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}
	return sccs
}

// Components returns the strongly connected components of g in topological order: a component appears before
// every component it reaches. Nodes with lower indices are explored first.
func Components(g graph.Iterator) [][]int {
	nodes := make([]int, g.Order())
	for i := range nodes {
		nodes[i] = i
	}
	sccs := StronglyConnectedComponents(nodes, func(v int) []int {
		var succ []int
		g.Visit(v, func(w int, _ int64) bool {
			succ = append(succ, w)
			return false
		})
		return succ
	})
	funcutil.Reverse(sccs)
	return sccs
}

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

// Package prune builds views of a control flow graph restricted to a subset of its instructions.
//
// The pruned view keeps the code nodes that hold at least one kept instruction, and every non-code node. Two
// nodes of the pruned view are connected when the first one reaches the second one in the original graph through
// nodes that were dropped only.
package prune

import (
	"github.com/awslabs/ar-regtrack/analysis/cfg"
	"golang.org/x/tools/container/intsets"
)

// Prune returns a new view, allocated by the container, that only holds the instructions of g that are in keep.
// Instructions are shared with g; nodes and edges are not.
func Prune(container cfg.ViewContainer, g *cfg.Graph, keep map[*cfg.Instruction]bool) *cfg.Graph {
	p := &pruner{
		source:  g,
		pruned:  container.CreateView(g.Name),
		mapping: make([]cfg.NodeID, g.NodeCount()),
		emitted: map[[2]cfg.NodeID]bool{},
	}
	p.rewriteNodes(keep)
	for _, e := range g.Edges() {
		p.bridge(e)
	}
	return p.pruned
}

const dropped cfg.NodeID = -1

type pruner struct {
	source *cfg.Graph
	pruned *cfg.Graph

	// mapping[n] is the node of the pruned view standing for node n of the source, or dropped
	mapping []cfg.NodeID

	// emitted are the (source, target) pairs of the pruned view already connected
	emitted map[[2]cfg.NodeID]bool
}

func (p *pruner) rewriteNodes(keep map[*cfg.Instruction]bool) {
	for _, n := range p.source.Nodes() {
		p.mapping[n.ID] = dropped
		if !n.IsCode() {
			p.mapping[n.ID] = p.pruned.CopyNode(n)
			continue
		}
		var retained []*cfg.Instruction
		for _, ins := range n.Instructions {
			if keep[ins] {
				retained = append(retained, ins)
			}
		}
		if len(retained) == 0 {
			continue
		}
		// Views are empty when created, so this only fails when the container breaks that contract. The node is
		// then dropped and bridged over.
		id, err := p.pruned.AddCodeNode(retained, n.Color, n.BorderColor)
		if err != nil {
			continue
		}
		p.mapping[n.ID] = id
	}
}

// bridge connects the nodes of the pruned view that reach each other through e
func (p *pruner) bridge(e *cfg.Edge) {
	sources := p.effective(e.Src, p.source.InEdges, func(e *cfg.Edge) cfg.NodeID { return e.Src })
	if len(sources) == 0 {
		return
	}
	targets := p.effective(e.Dst, p.source.OutEdges, func(e *cfg.Edge) cfg.NodeID { return e.Dst })
	for _, s := range sources {
		for _, t := range targets {
			pair := [2]cfg.NodeID{s, t}
			if p.emitted[pair] {
				continue
			}
			p.emitted[pair] = true
			p.pruned.AddEdge(s, t, e.Type)
		}
	}
}

// effective returns the nodes of the pruned view that stand for n: n itself if it was kept, otherwise the first
// kept nodes met when walking the edges given by next from n. Each edge is walked at most once.
func (p *pruner) effective(n cfg.NodeID, next func(cfg.NodeID) []*cfg.Edge,
	end func(*cfg.Edge) cfg.NodeID) []cfg.NodeID {
	if p.mapping[n] != dropped {
		return []cfg.NodeID{p.mapping[n]}
	}
	var res []cfg.NodeID
	var visited intsets.Sparse
	var found intsets.Sparse
	stack := next(n)
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visited.Insert(int(e.ID)) {
			continue
		}
		m := end(e)
		if p.mapping[m] == dropped {
			stack = append(stack, next(m)...)
		} else if found.Insert(int(m)) {
			res = append(res, p.mapping[m])
		}
	}
	return res
}

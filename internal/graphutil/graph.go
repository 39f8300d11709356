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
	"fmt"

	"github.com/awslabs/ar-regtrack/analysis/cfg"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/iterator"
)

// ViewGraph is an abstraction over a cfg.Graph to work with existing graph libraries. It implements the methods to
// satisfy yourbasic's graph.Iterator, and Gonum's graph.Directed and graph.DirectedMultigraph.
// Node ids are the cfg.NodeID of each node, and line ids the cfg.EdgeID of each edge.
type ViewGraph struct {
	// Graph is the view the ViewGraph was constructed from
	Graph *cfg.Graph

	// NodeAttributes returns the DOT attributes of a node. It may be nil.
	NodeAttributes func(n *cfg.Node) []encoding.Attribute

	// EdgeAttributes returns the DOT attributes of an edge. It may be nil.
	EdgeAttributes func(e *cfg.Edge) []encoding.Attribute
}

// NewViewGraph returns a new graph wrapping g
func NewViewGraph(g *cfg.Graph) *ViewGraph {
	return &ViewGraph{Graph: g}
}

// Order implements the order of the graph.Iterator interface for the ViewGraph
func (v *ViewGraph) Order() int {
	return v.Graph.NodeCount()
}

// Visit implements the graph.Iterator interface for the ViewGraph. Parallel edges are visited once each.
func (v *ViewGraph) Visit(n int, do func(w int, c int64) (skip bool)) (aborted bool) {
	if !v.has(int64(n)) {
		return false
	}
	for _, e := range v.Graph.OutEdges(cfg.NodeID(n)) {
		if do(int(e.Dst), 1) {
			return true
		}
	}
	return false
}

func (v *ViewGraph) has(id int64) bool {
	return id >= 0 && id < int64(v.Graph.NodeCount())
}

// *************** Graph interface implementation **********************

// Node implements the Graph interface
func (v *ViewGraph) Node(id int64) graph.Node {
	if !v.has(id) {
		return nil
	}
	return v.node(cfg.NodeID(id))
}

func (v *ViewGraph) node(id cfg.NodeID) ViewNode {
	n := ViewNode{Node: v.Graph.Node(id)}
	if v.NodeAttributes != nil {
		n.attrs = v.NodeAttributes(n.Node)
	}
	return n
}

func (v *ViewGraph) nodes(ids []cfg.NodeID) graph.Nodes {
	if len(ids) == 0 {
		return graph.Empty
	}
	seen := make(map[cfg.NodeID]bool, len(ids))
	res := make([]graph.Node, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			res = append(res, v.node(id))
		}
	}
	return iterator.NewOrderedNodes(res)
}

// Nodes returns the set of nodes in the graph
func (v *ViewGraph) Nodes() graph.Nodes {
	ids := make([]cfg.NodeID, v.Graph.NodeCount())
	for i := range ids {
		ids[i] = cfg.NodeID(i)
	}
	return v.nodes(ids)
}

// From returns the set of nodes reachable from the id
func (v *ViewGraph) From(id int64) graph.Nodes {
	if !v.has(id) {
		return graph.Empty
	}
	return v.nodes(v.Graph.Successors(cfg.NodeID(id)))
}

// To returns the set of nodes that reach the id
func (v *ViewGraph) To(id int64) graph.Nodes {
	if !v.has(id) {
		return graph.Empty
	}
	return v.nodes(v.Graph.Predecessors(cfg.NodeID(id)))
}

// HasEdgeBetween returns a boolean indicating whether an edge exists between the two node identifiers
func (v *ViewGraph) HasEdgeBetween(xid, yid int64) bool {
	return v.HasEdgeFromTo(xid, yid) || v.HasEdgeFromTo(yid, xid)
}

// HasEdgeFromTo returns a boolean indicating whether an edge goes from uid to vid
func (v *ViewGraph) HasEdgeFromTo(uid, vid int64) bool {
	return len(v.edges(uid, vid)) > 0
}

func (v *ViewGraph) edges(uid, vid int64) []*cfg.Edge {
	if !v.has(uid) || !v.has(vid) {
		return nil
	}
	var res []*cfg.Edge
	for _, e := range v.Graph.OutEdges(cfg.NodeID(uid)) {
		if int64(e.Dst) == vid {
			res = append(res, e)
		}
	}
	return res
}

// Edge returns the first edge between the two identifiers (nil if none exists)
func (v *ViewGraph) Edge(uid, vid int64) graph.Edge {
	edges := v.edges(uid, vid)
	if len(edges) == 0 {
		return nil
	}
	return v.line(edges[0])
}

// Lines returns all the edges between the two identifiers
func (v *ViewGraph) Lines(uid, vid int64) graph.Lines {
	edges := v.edges(uid, vid)
	if len(edges) == 0 {
		return graph.Empty
	}
	lines := make([]graph.Line, len(edges))
	for i, e := range edges {
		lines[i] = v.line(e)
	}
	return iterator.NewOrderedLines(lines)
}

func (v *ViewGraph) line(e *cfg.Edge) ViewLine {
	l := ViewLine{Edge: e, from: v.node(e.Src), to: v.node(e.Dst)}
	if v.EdgeAttributes != nil {
		l.attrs = v.EdgeAttributes(e)
	}
	return l
}

// DOTID returns the name of the view
func (v *ViewGraph) DOTID() string {
	return v.Graph.Name
}

// *************** Nodes implementation **********************

// ViewNode is a wrapper around a *cfg.Node that implements the graph.Node interface
type ViewNode struct {
	Node  *cfg.Node
	attrs []encoding.Attribute
}

// ID returns the id of the node
func (n ViewNode) ID() int64 {
	return int64(n.Node.ID)
}

// DOTID returns the identifier of the node in DOT files
func (n ViewNode) DOTID() string {
	return fmt.Sprintf("n%d", n.Node.ID)
}

// Attributes implements encoding.Attributer
func (n ViewNode) Attributes() []encoding.Attribute {
	return n.attrs
}

func (n ViewNode) String() string {
	if n.Node == nil {
		return ""
	}
	return n.Node.String()
}

// *************** Edge implementation **********************

// ViewLine implements the graph.Edge and graph.Line interfaces
type ViewLine struct {
	Edge  *cfg.Edge
	from  ViewNode
	to    ViewNode
	attrs []encoding.Attribute
}

// From returns the origin of the edge
func (e ViewLine) From() graph.Node {
	return e.from
}

// To returns the destination of the edge
func (e ViewLine) To() graph.Node {
	return e.to
}

// ID returns the id of the edge
func (e ViewLine) ID() int64 {
	return int64(e.Edge.ID)
}

// ReversedEdge returns the edge unchanged: control flow edges cannot be reversed
func (e ViewLine) ReversedEdge() graph.Edge {
	return e
}

// ReversedLine returns the line unchanged: control flow edges cannot be reversed
func (e ViewLine) ReversedLine() graph.Line {
	return e
}

// Attributes implements encoding.Attributer
func (e ViewLine) Attributes() []encoding.Attribute {
	return e.attrs
}

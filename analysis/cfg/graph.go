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

// Package cfg contains the control-flow graph representation consumed by the register tracking and the view
// pruning. A Graph is an arena: nodes and edges are addressed by stable integer identifiers, and there are no
// back-references from instructions to the nodes that contain them.
package cfg

import (
	"fmt"
	"strings"
)

// NodeID identifies a node inside a Graph. Identifiers are dense and start at 0.
type NodeID int

// EdgeID identifies an edge inside a Graph. Identifiers are dense and start at 0.
type EdgeID int

// NodeKind distinguishes code nodes from the other kinds of nodes of a view
type NodeKind int

const (
	// CodeNode is a node holding an ordered sequence of instructions
	CodeNode NodeKind = iota
	// FunctionNode is a node referencing a function (e.g. in a call graph, or an inlined call target)
	FunctionNode
	// TextNode is a comment node attached to the graph
	TextNode
)

func (k NodeKind) String() string {
	switch k {
	case CodeNode:
		return "code"
	case FunctionNode:
		return "function"
	case TextNode:
		return "text"
	default:
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
}

// EdgeType is the type tag carried by edges
type EdgeType int

const (
	// Unconditional is an unconditional jump or a fall-through
	Unconditional EdgeType = iota
	// JumpTrue is the edge taken when a conditional branch is taken
	JumpTrue
	// JumpFalse is the edge taken when a conditional branch is not taken
	JumpFalse
	// JumpSwitch is one of the cases of a switch
	JumpSwitch
	// EnterInlined goes from a call site into an inlined function
	EnterInlined
	// LeaveInlined returns from an inlined function
	LeaveInlined
	// Textnode attaches a text node to another node
	Textnode
)

var edgeTypeNames = []string{"unconditional", "true", "false", "switch", "enter-inlined", "leave-inlined", "textnode"}

func (t EdgeType) String() string {
	if int(t) >= 0 && int(t) < len(edgeTypeNames) {
		return edgeTypeNames[t]
	}
	return fmt.Sprintf("EdgeType(%d)", int(t))
}

// ParseEdgeType returns the edge type whose name is s
func ParseEdgeType(s string) (EdgeType, error) {
	if s == "" {
		return Unconditional, nil
	}
	for i, name := range edgeTypeNames {
		if strings.EqualFold(name, s) {
			return EdgeType(i), nil
		}
	}
	return Unconditional, fmt.Errorf("unknown edge type %q", s)
}

// Node is a node of a Graph. Code nodes hold instructions; other nodes only carry a label.
type Node struct {
	ID           NodeID
	Kind         NodeKind
	Instructions []*Instruction
	Label        string
	Color        string
	BorderColor  string
}

// IsCode returns true when the node is a code node
func (n *Node) IsCode() bool {
	return n.Kind == CodeNode
}

func (n *Node) String() string {
	if n.IsCode() && len(n.Instructions) > 0 {
		return fmt.Sprintf("node %d [%#x]", n.ID, n.Instructions[0].Address)
	}
	if n.Label != "" {
		return fmt.Sprintf("node %d (%s %s)", n.ID, n.Kind, n.Label)
	}
	return fmt.Sprintf("node %d (%s)", n.ID, n.Kind)
}

// Edge is a directed, typed edge between two nodes of the same Graph.
type Edge struct {
	ID   EdgeID
	Src  NodeID
	Dst  NodeID
	Type EdgeType
}

// Graph is a directed multigraph of nodes and edges.
//
// Nodes and edges are only ever appended: identifiers stay valid for the lifetime of the graph.
type Graph struct {
	// Name of the view the graph represents
	Name string

	nodes []*Node
	edges []*Edge

	// out[n] (in[n]) are the edges leaving (entering) node n, in insertion order
	out [][]EdgeID
	in  [][]EdgeID

	// owner maps instructions to the code node containing them
	owner map[*Instruction]NodeID
}

// NewGraph returns an empty graph with the given name
func NewGraph(name string) *Graph {
	return &Graph{
		Name:  name,
		owner: map[*Instruction]NodeID{},
	}
}

func (g *Graph) addNode(n *Node) NodeID {
	n.ID = NodeID(len(g.nodes))
	g.nodes = append(g.nodes, n)
	g.out = append(g.out, nil)
	g.in = append(g.in, nil)
	return n.ID
}

// AddCodeNode adds a code node containing instrs to the graph and returns its identifier.
// Instructions may be shared between graphs, but an instruction may appear in only one node of a given graph.
func (g *Graph) AddCodeNode(instrs []*Instruction, color string, borderColor string) (NodeID, error) {
	for _, ins := range instrs {
		if ins == nil {
			return -1, fmt.Errorf("nil instruction in code node")
		}
		if owner, ok := g.owner[ins]; ok {
			return -1, fmt.Errorf("instruction %s already in node %d", ins, owner)
		}
	}
	id := g.addNode(&Node{
		Kind:         CodeNode,
		Instructions: append([]*Instruction(nil), instrs...),
		Color:        color,
		BorderColor:  borderColor,
	})
	for _, ins := range instrs {
		g.owner[ins] = id
	}
	return id, nil
}

// AddNode adds a non-code node to the graph. Use AddCodeNode for code nodes.
func (g *Graph) AddNode(kind NodeKind, label string) NodeID {
	if kind == CodeNode {
		kind = TextNode
	}
	return g.addNode(&Node{Kind: kind, Label: label})
}

// CopyNode adds a fresh copy of the non-code node n to g. The copy does not share any state with n.
func (g *Graph) CopyNode(n *Node) NodeID {
	return g.addNode(&Node{
		Kind:        n.Kind,
		Label:       n.Label,
		Color:       n.Color,
		BorderColor: n.BorderColor,
	})
}

// AddEdge adds an edge of type t from src to dst. It panics if one of the nodes is not in the graph.
func (g *Graph) AddEdge(src NodeID, dst NodeID, t EdgeType) EdgeID {
	if !g.hasNode(src) || !g.hasNode(dst) {
		panic(fmt.Sprintf("edge %d -> %d references a node outside of the graph", src, dst))
	}
	e := &Edge{ID: EdgeID(len(g.edges)), Src: src, Dst: dst, Type: t}
	g.edges = append(g.edges, e)
	g.out[src] = append(g.out[src], e.ID)
	g.in[dst] = append(g.in[dst], e.ID)
	return e.ID
}

func (g *Graph) hasNode(id NodeID) bool {
	return id >= 0 && int(id) < len(g.nodes)
}

// Node returns the node with identifier id, or nil if there is no such node
func (g *Graph) Node(id NodeID) *Node {
	if !g.hasNode(id) {
		return nil
	}
	return g.nodes[id]
}

// Edge returns the edge with identifier id, or nil if there is no such edge
func (g *Graph) Edge(id EdgeID) *Edge {
	if id < 0 || int(id) >= len(g.edges) {
		return nil
	}
	return g.edges[id]
}

// Nodes returns the nodes of the graph ordered by identifier
func (g *Graph) Nodes() []*Node {
	return g.nodes
}

// Edges returns the edges of the graph ordered by identifier
func (g *Graph) Edges() []*Edge {
	return g.edges
}

// NodeCount returns the number of nodes in the graph
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges in the graph
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// OutEdges returns the edges leaving id
func (g *Graph) OutEdges(id NodeID) []*Edge {
	if !g.hasNode(id) {
		return nil
	}
	return g.edgeList(g.out[id])
}

// InEdges returns the edges entering id
func (g *Graph) InEdges(id NodeID) []*Edge {
	if !g.hasNode(id) {
		return nil
	}
	return g.edgeList(g.in[id])
}

func (g *Graph) edgeList(ids []EdgeID) []*Edge {
	res := make([]*Edge, len(ids))
	for i, e := range ids {
		res[i] = g.edges[e]
	}
	return res
}

// Successors returns the targets of the edges leaving id, without duplicates, in edge order
func (g *Graph) Successors(id NodeID) []NodeID {
	return g.endpoints(g.OutEdges(id), func(e *Edge) NodeID { return e.Dst })
}

// Predecessors returns the sources of the edges entering id, without duplicates, in edge order
func (g *Graph) Predecessors(id NodeID) []NodeID {
	return g.endpoints(g.InEdges(id), func(e *Edge) NodeID { return e.Src })
}

func (g *Graph) endpoints(edges []*Edge, f func(*Edge) NodeID) []NodeID {
	seen := map[NodeID]bool{}
	var res []NodeID
	for _, e := range edges {
		n := f(e)
		if !seen[n] {
			seen[n] = true
			res = append(res, n)
		}
	}
	return res
}

// NodeOf returns the code node containing the instruction. The boolean is false if the instruction is not in g.
func (g *Graph) NodeOf(ins *Instruction) (NodeID, bool) {
	id, ok := g.owner[ins]
	return id, ok
}

// Instructions returns every instruction of every code node, in node order then in instruction order
func (g *Graph) Instructions() []*Instruction {
	var res []*Instruction
	for _, n := range g.nodes {
		if n.IsCode() {
			res = append(res, n.Instructions...)
		}
	}
	return res
}

// InstructionAt returns the instruction with the given address, if there is one in the graph
func (g *Graph) InstructionAt(address uint64) (*Instruction, bool) {
	for _, n := range g.nodes {
		for _, ins := range n.Instructions {
			if ins.Address == address {
				return ins, true
			}
		}
	}
	return nil, false
}

func (g *Graph) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "graph %q (%d nodes, %d edges)\n", g.Name, len(g.nodes), len(g.edges))
	for _, n := range g.nodes {
		fmt.Fprintf(&b, "  %s\n", n)
		for _, ins := range n.Instructions {
			fmt.Fprintf(&b, "    %s\n", ins)
		}
	}
	for _, e := range g.edges {
		fmt.Fprintf(&b, "  %d -> %d (%s)\n", e.Src, e.Dst, e.Type)
	}
	return b.String()
}

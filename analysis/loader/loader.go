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

// Package loader reads control flow graph views, and the micro-op lowering of their instructions, from YAML files.
//
// A view file looks like:
//
//	name: example
//	architecture: x86-32
//	nodes:
//	  - id: entry
//	    color: "#ffffff"
//	    instructions:
//	      - address: 0x5
//	        mnemonic: mov
//	        operands: [ecx, "[ebp+5]"]
//	        reil:
//	          - add [DWORD ebp, DWORD 5, QWORD t0]
//	          - ldm [QWORD t0, EMPTY, DWORD ecx]
//	  - id: callee
//	    kind: function
//	    label: strlen
//	edges:
//	  - {from: entry, to: callee, type: unconditional}
//
// Nodes are code nodes unless their kind says otherwise. An instruction without a reil key has no lowering: the
// tracking fails on graphs containing it. An empty reil list lowers the instruction to a nop.
package loader

import (
	"fmt"
	"os"
	"strings"

	"github.com/awslabs/ar-regtrack/analysis/cfg"
	"github.com/awslabs/ar-regtrack/analysis/reil"
	"gopkg.in/yaml.v3"
)

// View is a graph loaded from a file, with the lowering of its instructions
type View struct {
	Graph      *cfg.Graph
	Translator *reil.StaticTranslator

	// Architecture is the architecture of the instructions, e.g. "x86-32". It may be empty.
	Architecture string
}

type viewFile struct {
	Name         string     `yaml:"name"`
	Architecture string     `yaml:"architecture"`
	Nodes        []nodeSpec `yaml:"nodes"`
	Edges        []edgeSpec `yaml:"edges"`
}

type nodeSpec struct {
	ID           string            `yaml:"id"`
	Kind         string            `yaml:"kind"`
	Label        string            `yaml:"label"`
	Color        string            `yaml:"color"`
	BorderColor  string            `yaml:"border-color"`
	Instructions []instructionSpec `yaml:"instructions"`
}

type instructionSpec struct {
	Address  uint64    `yaml:"address"`
	Mnemonic string    `yaml:"mnemonic"`
	Operands []string  `yaml:"operands"`
	Reil     *[]string `yaml:"reil"`
}

type edgeSpec struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
	Type string `yaml:"type"`
}

// Load reads the view in the file filename
func Load(filename string) (*View, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read view file: %w", err)
	}
	v, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return v, nil
}

// Parse reads a view from the content of a view file
func Parse(b []byte) (*View, error) {
	var f viewFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("could not unmarshal view file: %w", err)
	}
	v := &View{
		Graph:        cfg.NewGraph(f.Name),
		Translator:   reil.NewStaticTranslator(),
		Architecture: f.Architecture,
	}
	ids := map[string]cfg.NodeID{}
	for i, n := range f.Nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("node %d has no id", i)
		}
		if _, dup := ids[n.ID]; dup {
			return nil, fmt.Errorf("duplicate node id %q", n.ID)
		}
		id, err := v.addNode(n)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", n.ID, err)
		}
		ids[n.ID] = id
	}
	for i, e := range f.Edges {
		src, ok := ids[e.From]
		if !ok {
			return nil, fmt.Errorf("edge %d: unknown source node %q", i, e.From)
		}
		dst, ok := ids[e.To]
		if !ok {
			return nil, fmt.Errorf("edge %d: unknown target node %q", i, e.To)
		}
		t, err := cfg.ParseEdgeType(e.Type)
		if err != nil {
			return nil, fmt.Errorf("edge %d: %w", i, err)
		}
		v.Graph.AddEdge(src, dst, t)
	}
	return v, nil
}

func parseKind(s string) (cfg.NodeKind, error) {
	switch strings.ToLower(s) {
	case "", "code":
		return cfg.CodeNode, nil
	case "function":
		return cfg.FunctionNode, nil
	case "text":
		return cfg.TextNode, nil
	default:
		return cfg.CodeNode, fmt.Errorf("unknown node kind %q", s)
	}
}

func (v *View) addNode(n nodeSpec) (cfg.NodeID, error) {
	kind, err := parseKind(n.Kind)
	if err != nil {
		return -1, err
	}
	if kind != cfg.CodeNode {
		if len(n.Instructions) > 0 {
			return -1, fmt.Errorf("%s nodes cannot hold instructions", kind)
		}
		id := v.Graph.AddNode(kind, n.Label)
		node := v.Graph.Node(id)
		node.Color = n.Color
		node.BorderColor = n.BorderColor
		return id, nil
	}
	instrs := make([]*cfg.Instruction, 0, len(n.Instructions))
	for _, is := range n.Instructions {
		if is.Mnemonic == "" {
			return -1, fmt.Errorf("instruction at %#x has no mnemonic", is.Address)
		}
		instrs = append(instrs, cfg.NewInstruction(is.Address, is.Mnemonic, is.Operands...))
		if is.Reil != nil {
			if err := v.Translator.Add(is.Address, *is.Reil...); err != nil {
				return -1, err
			}
		}
	}
	return v.Graph.AddCodeNode(instrs, n.Color, n.BorderColor)
}

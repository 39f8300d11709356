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

// Package render writes control flow graph views in the Graphviz DOT format.
package render

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"os"
	"strings"

	"github.com/awslabs/ar-regtrack/analysis/cfg"
	"github.com/awslabs/ar-regtrack/analysis/config"
	"github.com/awslabs/ar-regtrack/analysis/tracking"
	"github.com/awslabs/ar-regtrack/internal/graphutil"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
)

// Colors maps instructions to the background color of their row in code nodes
type Colors map[*cfg.Instruction]string

// ResultColors returns the colors highlighting the status of each instruction of a tracking result
func ResultColors(r *tracking.Result) Colors {
	colors := Colors{}
	for _, ir := range r.Results {
		if c := tracking.Classify(r.Start, r.Register, ir).Color(); c != "" {
			colors[ir.Instruction] = c
		}
	}
	return colors
}

// edgeColor defines specific colors for specific edges of the view
// - taken branches are green, branches not taken are red
// - switch cases are blue
// - all other edges have the default color
func edgeColor(t cfg.EdgeType) string {
	switch t {
	case cfg.JumpTrue:
		return "darkgreen"
	case cfg.JumpFalse:
		return "red"
	case cfg.JumpSwitch:
		return "blue"
	default:
		return ""
	}
}

// codeLabel returns an HTML label with one row per instruction
func codeLabel(n *cfg.Node, colors Colors) string {
	var b strings.Builder
	b.WriteString(`<<table border="0" cellborder="0" cellspacing="0">`)
	for _, ins := range n.Instructions {
		b.WriteString(`<tr><td align="left"`)
		if c, ok := colors[ins]; ok {
			fmt.Fprintf(&b, ` bgcolor="%s"`, html.EscapeString(c))
		}
		fmt.Fprintf(&b, ">%s</td></tr>", html.EscapeString(ins.String()))
	}
	b.WriteString("</table>>")
	return b.String()
}

func nodeAttributes(colors Colors) func(n *cfg.Node) []encoding.Attribute {
	return func(n *cfg.Node) []encoding.Attribute {
		var attrs []encoding.Attribute
		if n.IsCode() {
			attrs = append(attrs, encoding.Attribute{Key: "label", Value: codeLabel(n, colors)})
		} else {
			label := n.Label
			if label == "" {
				label = n.Kind.String()
			}
			attrs = append(attrs, encoding.Attribute{Key: "label", Value: label})
			if n.Kind == cfg.TextNode {
				attrs = append(attrs, encoding.Attribute{Key: "shape", Value: "note"})
			}
		}
		if n.Color != "" {
			attrs = append(attrs,
				encoding.Attribute{Key: "style", Value: "filled"},
				encoding.Attribute{Key: "fillcolor", Value: n.Color})
		}
		if n.BorderColor != "" {
			attrs = append(attrs, encoding.Attribute{Key: "color", Value: n.BorderColor})
		}
		return attrs
	}
}

func edgeAttributes(e *cfg.Edge) []encoding.Attribute {
	attrs := []encoding.Attribute{{Key: "label", Value: e.Type.String()}}
	if c := edgeColor(e.Type); c != "" {
		attrs = append(attrs, encoding.Attribute{Key: "color", Value: c})
	}
	if e.Type == cfg.Textnode {
		attrs = append(attrs, encoding.Attribute{Key: "style", Value: "dashed"})
	}
	return attrs
}

// dotGraph is a view with a name and top-level attributes
type dotGraph struct {
	*graphutil.ViewGraph
	name string
}

func (g dotGraph) DOTID() string {
	return g.name
}

func (g dotGraph) DOTAttributers() (graph, node, edge encoding.Attributer) {
	return &encoding.Attributes{{Key: "rankdir", Value: "TB"}},
		&encoding.Attributes{{Key: "shape", Value: "box"}, {Key: "fontname", Value: "monospace"}},
		&encoding.Attributes{{Key: "fontname", Value: "monospace"}}
}

// WriteDOT writes a Graphviz representation of the view g to w. The graph is named after the dot-name of the
// pruning settings. Parallel edges are all written.
func WriteDOT(c *config.Config, g *cfg.Graph, colors Colors, w io.Writer) error {
	vg := graphutil.NewViewGraph(g)
	vg.NodeAttributes = nodeAttributes(colors)
	vg.EdgeAttributes = edgeAttributes
	name := c.Pruning.DotName
	if name == "" {
		name = g.Name
	}
	b, err := dot.MarshalMulti(dotGraph{ViewGraph: vg, name: name}, "", "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode %s: %w", g.Name, err)
	}
	if _, err := w.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("error while writing graph: %w", err)
	}
	return nil
}

// DOTToFile writes the Graphviz representation of g to the file filename
func DOTToFile(c *config.Config, g *cfg.Graph, colors Colors, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("could not create file: %w", err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	if err := WriteDOT(c, g, colors, w); err != nil {
		return err
	}
	return w.Flush()
}

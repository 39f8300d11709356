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

package graphutil_test

import (
	"testing"

	"github.com/awslabs/ar-regtrack/analysis/cfg"
	"github.com/awslabs/ar-regtrack/internal/graphutil"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/exp/slices"
)

// loops returns the graph
//
//	0 -> 1 -> 2 -> 0
//	     2 -> 3 -> 3
//	     1 -> 4 (twice)
func loops() *cfg.Graph {
	g := cfg.NewGraph("loops")
	var ids []cfg.NodeID
	for i := 0; i < 5; i++ {
		ids = append(ids, g.AddNode(cfg.FunctionNode, ""))
	}
	g.AddEdge(ids[0], ids[1], cfg.Unconditional)
	g.AddEdge(ids[1], ids[2], cfg.JumpTrue)
	g.AddEdge(ids[1], ids[4], cfg.JumpFalse)
	g.AddEdge(ids[1], ids[4], cfg.JumpSwitch)
	g.AddEdge(ids[2], ids[0], cfg.Unconditional)
	g.AddEdge(ids[2], ids[3], cfg.Unconditional)
	g.AddEdge(ids[3], ids[3], cfg.Unconditional)
	return g
}

func TestFindAllElementaryCycles(t *testing.T) {
	cycles := graphutil.FindAllElementaryCycles(loops())
	slices.SortFunc(cycles, func(a, b []cfg.NodeID) bool { return a[0] < b[0] })
	want := [][]cfg.NodeID{{0, 1, 2, 0}, {3, 3}}
	if diff := cmp.Diff(want, cycles); diff != "" {
		t.Errorf("cycles mismatch (-want +got):\n%s", diff)
	}
}

func TestNoCycles(t *testing.T) {
	g := cfg.NewGraph("line")
	a := g.AddNode(cfg.TextNode, "a")
	b := g.AddNode(cfg.TextNode, "b")
	g.AddEdge(a, b, cfg.Textnode)
	if cycles := graphutil.FindAllElementaryCycles(g); len(cycles) != 0 {
		t.Errorf("expected no cycle, got %v", cycles)
	}
}

func TestStats(t *testing.T) {
	stats := graphutil.Stats(loops())
	t.Logf("Stats:\n\tsize: %d\n\tmulti: %d\n\tloops: %d\n\tisolated: %d",
		stats.Size, stats.Multi, stats.Loops, stats.Isolated)
	if stats.Multi != 1 || stats.Loops != 1 {
		t.Errorf("unexpected statistics %+v", stats)
	}
}

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

// Package prune implements the prune sub-command: it prunes a view to a set of instructions and writes the result
// in DOT format.
package prune

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/awslabs/ar-regtrack/analysis"
	"github.com/awslabs/ar-regtrack/analysis/cfg"
	"github.com/awslabs/ar-regtrack/analysis/config"
	"github.com/awslabs/ar-regtrack/analysis/loader"
	"github.com/awslabs/ar-regtrack/analysis/prune"
	"github.com/awslabs/ar-regtrack/analysis/render"
	"github.com/awslabs/ar-regtrack/cmd/regtrack/tools"
	"github.com/awslabs/ar-regtrack/internal/formatutil"
	"github.com/awslabs/ar-regtrack/internal/funcutil"
	"github.com/awslabs/ar-regtrack/internal/graphutil"
)

// Usage is the usage of the prune sub-command
const Usage = ` Prune a view to a set of instructions.
Usage:
  regtrack prune [options] -view <view.yaml> -keep <hex>[,<hex>...]
Examples:
  % regtrack prune -view main.yaml -keep 0x401000,0x401008 -o pruned.dot
  % regtrack prune -view main.yaml -keep 401000 -stats
`

// Flags represents the parsed flags of the prune sub-command.
type Flags struct {
	tools.CommonFlags
	keep   tools.Addresses
	output string
	stats  bool
}

// NewFlags returns the parsed flags for the prune sub-command with args.
func NewFlags(args []string) (Flags, error) {
	flags := tools.NewUnparsedCommonFlags("prune")
	var keep tools.Addresses
	flags.FlagSet.Var(&keep, "keep", "addresses of the instructions to keep; repeat or separate with commas")
	output := flags.FlagSet.String("o", "", "DOT output file; defaults to the reports directory, or standard output")
	stats := flags.FlagSet.Bool("stats", false, "print statistics of the view and of the pruned view")
	tools.SetUsage(flags.FlagSet, Usage)
	common, err := flags.Parse(args)
	if err != nil {
		return Flags{}, err
	}
	return Flags{CommonFlags: common, keep: keep, output: *output, stats: *stats}, nil
}

// Run runs the prune sub-command with flags.
func Run(flags Flags) error {
	c, err := tools.LoadConfig(flags.ConfigPath)
	if err != nil {
		return err
	}
	if flags.Verbose {
		c.LogLevel = int(config.DebugLevel)
	}
	logger := config.NewLogGroup(c)
	logger.Infof("%s\n", formatutil.Faint("regtrack prune - "+analysis.Version))

	view, err := loader.Load(flags.ViewPath)
	if err != nil {
		return err
	}
	keep, err := KeepSet(view.Graph, flags.keep)
	if err != nil {
		return err
	}
	logger.Debugf("keeping %d instructions: %v\n", len(keep), flags.keep.String())

	pruned := prune.Prune(&cfg.Container{}, view.Graph, keep)
	logger.Infof("pruned %s from %d nodes and %d edges to %d nodes and %d edges\n", view.Graph.Name,
		view.Graph.NodeCount(), view.Graph.EdgeCount(), pruned.NodeCount(), pruned.EdgeCount())
	if flags.stats {
		PrintStats(os.Stdout, "view", view.Graph)
		PrintStats(os.Stdout, "pruned", pruned)
	}

	filename := flags.output
	if filename == "" && c.ReportsDir != "" {
		filename = filepath.Join(c.ReportsDir, c.Pruning.DotName+".dot")
	}
	if filename == "" {
		return render.WriteDOT(c, pruned, nil, os.Stdout)
	}
	if err := render.DOTToFile(c, pruned, nil, filename); err != nil {
		return fmt.Errorf("could not write %s: %w", filename, err)
	}
	logger.Infof("wrote %s\n", filename)
	return nil
}

// KeepSet returns the instructions of g at the addresses given. Every address must be the address of an
// instruction of g.
func KeepSet(g *cfg.Graph, addresses []uint64) (map[*cfg.Instruction]bool, error) {
	keep := make(map[*cfg.Instruction]bool, len(addresses))
	for _, a := range addresses {
		ins, ok := g.InstructionAt(a)
		if !ok {
			return nil, fmt.Errorf("no instruction at %#x in %s", a, g.Name)
		}
		keep[ins] = true
	}
	return keep, nil
}

// PrintStats prints the sizes, the multi-edges, the self-loops and the elementary cycles of g
func PrintStats(w io.Writer, name string, g *cfg.Graph) {
	stats := graphutil.Stats(g)
	cycles := graphutil.FindAllElementaryCycles(g)
	fmt.Fprintf(w, "%s: %d nodes, %d edges, %d multi-edges, %d self-loops, %d cycles\n",
		formatutil.Bold(name), g.NodeCount(), g.EdgeCount(), stats.Multi, stats.Loops, len(cycles))
	for _, c := range cycles {
		fmt.Fprintf(w, "  cycle %v\n", c)
	}
	addrs := map[uint64]bool{}
	for _, ins := range g.Instructions() {
		addrs[ins.Address] = true
	}
	fmt.Fprintf(w, "  addresses %s\n", formatutil.Faint(funcutil.Map(funcutil.SortedKeys(addrs), func(a uint64) string {
		return fmt.Sprintf("%#x", a)
	})))
}

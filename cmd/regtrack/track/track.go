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

// Package track implements the track sub-command: it tracks registers from an instruction of a view, prints the
// instructions that affect them, and writes the pruned view to a DOT file.
package track

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/awslabs/ar-regtrack/analysis"
	"github.com/awslabs/ar-regtrack/analysis/cfg"
	"github.com/awslabs/ar-regtrack/analysis/config"
	"github.com/awslabs/ar-regtrack/analysis/loader"
	"github.com/awslabs/ar-regtrack/analysis/monotone"
	"github.com/awslabs/ar-regtrack/analysis/prune"
	"github.com/awslabs/ar-regtrack/analysis/render"
	"github.com/awslabs/ar-regtrack/analysis/tracking"
	"github.com/awslabs/ar-regtrack/cmd/regtrack/tools"
	"github.com/awslabs/ar-regtrack/internal/formatutil"
	"github.com/awslabs/ar-regtrack/internal/funcutil"
)

// Usage is the usage of the track sub-command
const Usage = ` Track registers from an instruction of a view.
Usage:
  regtrack track [options] -view <view.yaml> -address <hex> -register <name>
Examples:
  % regtrack track -config config.yaml -view main.yaml -address 0x401000 -register eax
  % regtrack track -view main.yaml -address 401000 -register eax,ecx -operand 1 -dot
`

// Flags represents the parsed flags of the track sub-command.
type Flags struct {
	tools.CommonFlags
	address   uint64
	registers tools.Registers
	operand   int
	arch      string
	direction string
	dot       bool
	output    string
	parallel  int
}

// NewFlags returns the parsed flags for the track sub-command with args.
func NewFlags(args []string) (Flags, error) {
	flags := tools.NewUnparsedCommonFlags("track")
	var registers tools.Registers
	address := flags.FlagSet.String("address", "", "hexadecimal address of the start instruction")
	flags.FlagSet.Var(&registers, "register", "register to track; repeat or separate with commas to track several")
	operand := flags.FlagSet.Int("operand", -1,
		"index of the operand holding the register; uses the call conventions of the architecture instead of the config")
	arch := flags.FlagSet.String("arch", "", "architecture of the view, overrides the one of the view file")
	direction := flags.FlagSet.String("direction", "", "forward or backward, overrides the config")
	dot := flags.FlagSet.Bool("dot", false, "write the view pruned to the tracked instructions in DOT format")
	output := flags.FlagSet.String("o", "", "DOT output file; defaults to the reports directory, or standard output")
	parallel := flags.FlagSet.Int("parallel", 1, "number of registers tracked in parallel")
	tools.SetUsage(flags.FlagSet, Usage)
	common, err := flags.Parse(args)
	if err != nil {
		return Flags{}, err
	}
	if *address == "" {
		return Flags{}, fmt.Errorf("command track: no start address (set -address)")
	}
	addr, err := tools.ParseAddress(*address)
	if err != nil {
		return Flags{}, fmt.Errorf("command track: %w", err)
	}
	if len(registers) == 0 {
		return Flags{}, fmt.Errorf("command track: no register (set -register)")
	}
	return Flags{
		CommonFlags: common,
		address:     addr,
		registers:   registers,
		operand:     *operand,
		arch:        *arch,
		direction:   *direction,
		dot:         *dot,
		output:      *output,
		parallel:    *parallel,
	}, nil
}

type outcome struct {
	result *tracking.Result
	err    error
}

// Run runs the track sub-command with flags.
func Run(flags Flags) error {
	c, err := tools.LoadConfig(flags.ConfigPath)
	if err != nil {
		return err
	}
	if flags.Verbose {
		c.LogLevel = int(config.DebugLevel)
	}
	logger := config.NewLogGroup(c)
	logger.Infof("%s\n", formatutil.Faint("regtrack track - "+analysis.Version))

	view, err := loader.Load(flags.ViewPath)
	if err != nil {
		return err
	}
	start, ok := view.Graph.InstructionAt(flags.address)
	if !ok {
		return fmt.Errorf("no instruction at %#x in %s", flags.address, flags.ViewPath)
	}
	opts, err := options(c, view, flags)
	if err != nil {
		return err
	}
	logger.Infof("%s tracking of %s from %s\n", opts.Direction, flags.registers.String(),
		formatutil.Sanitize(start.String()))

	results := tracking.NewContainer()
	updates, unsubscribe := results.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for r := range updates {
			logger.Debugf("result for %s ready after %d micro-op visits\n", r.Register, r.Iterations)
		}
	}()

	begin := time.Now()
	outcomes := funcutil.MapParallel(flags.registers, func(register string) outcome {
		r, err := tracking.Track(logger, view.Graph, view.Translator, start, register, opts)
		if err == nil {
			results.Publish(r)
		}
		return outcome{result: r, err: err}
	}, flags.parallel)
	unsubscribe()
	<-done
	logger.Infof("tracking took %3.4f s\n", time.Since(begin).Seconds())

	for i, o := range outcomes {
		if o.err != nil {
			return fmt.Errorf("tracking %s failed: %w", flags.registers[i], o.err)
		}
		PrintResult(os.Stdout, o.result)
		if flags.dot {
			if err := writeDOT(c, logger, view, o.result, flags); err != nil {
				return err
			}
		}
	}
	return nil
}

// options returns the tracking options of the command. The call conventions of the architecture are used when an
// operand is given, and the config otherwise. The direction flag overrides both.
func options(c *config.Config, view *loader.View, flags Flags) (*tracking.Options, error) {
	dir, err := monotone.ParseDirection(c.Tracking.Direction)
	if flags.direction != "" {
		dir, err = monotone.ParseDirection(flags.direction)
	}
	if err != nil {
		return nil, err
	}
	if flags.operand < 0 {
		opts, err := tracking.OptionsFromConfig(c)
		if err != nil {
			return nil, err
		}
		opts.Direction = dir
		return opts, nil
	}
	arch := flags.arch
	if arch == "" {
		arch = view.Architecture
	}
	opts, err := tracking.OperandOptions(arch, flags.operand, dir)
	if err != nil {
		return nil, err
	}
	opts.MaxIterations = c.MaxIterations
	return opts, nil
}

// PrintResult prints the instructions of the tracking result r with their status, colored when w is a terminal
func PrintResult(w io.Writer, r *tracking.Result) {
	fmt.Fprintf(w, "%s %s %s %s\n", formatutil.Bold(r.Options.Direction), formatutil.Bold(r.Register),
		formatutil.Faint("from"), formatutil.SanitizeRepr(r.Start))
	for _, ir := range r.Results {
		status := tracking.Classify(r.Start, r.Register, ir)
		fmt.Fprintf(w, "  %-40s %s\n", formatutil.SanitizeRepr(ir.Instruction), statusColor(status)(status))
		fmt.Fprintf(w, "  %s\n", formatutil.Faint(ir.Element))
	}
}

func statusColor(s tracking.Status) func(...interface{}) string {
	switch s {
	case tracking.Start:
		return formatutil.Purple
	case tracking.ClearsAll, tracking.ClearsTracked:
		return formatutil.Red
	case tracking.ClearsSome:
		return formatutil.Magenta
	case tracking.Defines, tracking.Updates:
		return formatutil.Green
	case tracking.Reads:
		return formatutil.Yellow
	default:
		return formatutil.Faint
	}
}

// writeDOT prunes the view to the instructions of r and writes it in DOT format
func writeDOT(c *config.Config, logger *config.LogGroup, view *loader.View, r *tracking.Result, flags Flags) error {
	pruned := prune.Prune(&cfg.Container{}, view.Graph, r.KeepSet(c.Pruning.KeepStart))
	logger.Debugf("pruned %s from %d to %d nodes\n", view.Graph.Name, view.Graph.NodeCount(), pruned.NodeCount())
	colors := render.ResultColors(r)

	filename := flags.output
	if filename == "" && c.ReportsDir != "" {
		filename = filepath.Join(c.ReportsDir, dotFilename(view.Graph.Name, r))
	}
	if filename == "" {
		return render.WriteDOT(c, pruned, colors, os.Stdout)
	}
	if len(flags.registers) > 1 && flags.output != "" {
		ext := filepath.Ext(filename)
		filename = strings.TrimSuffix(filename, ext) + "-" + r.Register + ext
	}
	if err := render.DOTToFile(c, pruned, colors, filename); err != nil {
		return fmt.Errorf("could not write %s: %w", filename, err)
	}
	logger.Infof("wrote %s\n", filename)
	return nil
}

func dotFilename(view string, r *tracking.Result) string {
	if view == "" {
		view = "view"
	}
	return fmt.Sprintf("%s-%x-%s.dot", view, r.Start.Address, strings.Trim(r.Register, "$%"))
}

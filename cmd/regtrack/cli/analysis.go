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

package cli

import (
	"strconv"

	"github.com/awslabs/ar-regtrack/analysis/cfg"
	"github.com/awslabs/ar-regtrack/analysis/config"
	"github.com/awslabs/ar-regtrack/analysis/loader"
	"github.com/awslabs/ar-regtrack/analysis/monotone"
	"github.com/awslabs/ar-regtrack/analysis/prune"
	"github.com/awslabs/ar-regtrack/analysis/render"
	"github.com/awslabs/ar-regtrack/analysis/tracking"
	cmdprune "github.com/awslabs/ar-regtrack/cmd/regtrack/prune"
	"golang.org/x/term"
)

// cmdTrack tracks a register from an instruction of the view
func cmdTrack(tt *term.Terminal, s *session, command Command) bool {
	if s == nil {
		writeHelp(tt, cmdTrackName, "track a register from the instruction at an address",
			"Usage: "+cmdTrackName+" address register",
			"Options:",
			"  -f, -b         track forward or backward instead of the configured direction",
			"  -in            track the value of the register before the instruction",
			"  --operand n    the register is operand n: calls clear the caller-saved registers")
		return false
	}
	if !s.requireView(tt) {
		return false
	}
	addr, err := parseAddress(command, 0)
	if err != nil {
		WriteErr(tt, "%v", err)
		return false
	}
	if len(command.Args) != 2 {
		WriteErr(tt, "%s expects an address and a register", cmdTrackName)
		return false
	}
	start, ok := s.View.Graph.InstructionAt(addr)
	if !ok {
		WriteErr(tt, "No instruction at %#x.", addr)
		return false
	}
	opts, err := trackOptions(s, command)
	if err != nil {
		WriteErr(tt, "%v", err)
		return false
	}
	r, err := tracking.Track(s.Logger, s.View.Graph, s.View.Translator, start, command.Args[1], opts)
	if err != nil {
		WriteErr(tt, "Tracking failed: %v", err)
		return false
	}
	s.Results.Publish(r)
	writeResult(tt, r)
	WriteSuccess(tt, "%d instructions affect %s (%d micro-op visits).", len(r.Results), r.Register, r.Iterations)
	return false
}

func trackOptions(s *session, command Command) (*tracking.Options, error) {
	dir, err := monotone.ParseDirection(s.Config.Tracking.Direction)
	if err != nil {
		return nil, err
	}
	if command.Flags["b"] {
		dir = monotone.Backward
	} else if command.Flags["f"] {
		dir = monotone.Forward
	}
	var opts *tracking.Options
	if operand, ok := command.NamedArgs["operand"]; ok {
		n, err := strconv.Atoi(operand)
		if err != nil {
			return nil, err
		}
		opts, err = tracking.OperandOptions(s.View.Architecture, n, dir)
		if err != nil {
			return nil, err
		}
		opts.MaxIterations = s.Config.MaxIterations
	} else {
		opts, err = tracking.OptionsFromConfig(s.Config)
		if err != nil {
			return nil, err
		}
		opts.Direction = dir
	}
	if command.Flags["in"] {
		opts.TrackIncoming = true
	}
	return opts, nil
}

// cmdResult prints the last tracking result
func cmdResult(tt *term.Terminal, s *session, _ Command) bool {
	if s == nil {
		writeHelp(tt, cmdResultName, "print the last tracking result")
		return false
	}
	r := s.Results.Latest()
	if r == nil {
		WriteErr(tt, "No tracking result. Use `%s` first.", cmdTrackName)
		return false
	}
	writeResult(tt, r)
	return false
}

// cmdPrune prunes the view to the instructions at the addresses given, or to the last tracking result
func cmdPrune(tt *term.Terminal, s *session, command Command) bool {
	if s == nil {
		writeHelp(tt, cmdPruneName,
			"prune the view to the instructions at the addresses given, or to the last tracking result")
		return false
	}
	if !s.requireView(tt) {
		return false
	}
	var keep map[*cfg.Instruction]bool
	s.Colors = nil
	if len(command.Args) > 0 {
		var addrs []uint64
		for i := range command.Args {
			a, err := parseAddress(command, i)
			if err != nil {
				WriteErr(tt, "%v", err)
				return false
			}
			addrs = append(addrs, a)
		}
		var err error
		if keep, err = cmdprune.KeepSet(s.View.Graph, addrs); err != nil {
			WriteErr(tt, "%v", err)
			return false
		}
	} else if r := s.Results.Latest(); r != nil {
		keep = r.KeepSet(s.Config.Pruning.KeepStart)
		s.Colors = render.ResultColors(r)
	} else {
		WriteErr(tt, "No addresses and no tracking result to prune to.")
		return false
	}
	s.Pruned = prune.Prune(&cfg.Container{}, s.View.Graph, keep)
	WriteSuccess(tt, "Pruned %s from %d nodes and %d edges to %d nodes and %d edges.", s.View.Graph.Name,
		s.View.Graph.NodeCount(), s.View.Graph.EdgeCount(), s.Pruned.NodeCount(), s.Pruned.EdgeCount())
	return false
}

// cmdDot writes the last pruned view, or the view, in DOT format
func cmdDot(tt *term.Terminal, s *session, command Command) bool {
	if s == nil {
		writeHelp(tt, cmdDotName,
			"write the last pruned view, or the view if none, in DOT format to the file given or to the terminal")
		return false
	}
	if !s.requireView(tt) {
		return false
	}
	g, colors := s.Pruned, s.Colors
	if g == nil {
		g = s.View.Graph
	}
	if len(command.Args) == 0 {
		if err := render.WriteDOT(s.Config, g, colors, tt); err != nil {
			WriteErr(tt, "%v", err)
		}
		return false
	}
	if err := render.DOTToFile(s.Config, g, colors, command.Args[0]); err != nil {
		WriteErr(tt, "%v", err)
		return false
	}
	WriteSuccess(tt, "Wrote %s.", command.Args[0])
	return false
}

// cmdWatch writes the view pruned to every new tracking result to a DOT file
func cmdWatch(tt *term.Terminal, s *session, command Command) bool {
	if s == nil {
		writeHelp(tt, cmdWatchName, "write the view pruned to each new tracking result to the file given",
			"Options:",
			"  -stop  stop watching")
		return false
	}
	if s.stopWatch != nil {
		s.stopWatch()
		s.stopWatch = nil
		WriteSuccess(tt, "Stopped watching.")
	}
	if command.Flags["stop"] {
		return false
	}
	if !s.requireView(tt) {
		return false
	}
	if len(command.Args) != 1 {
		WriteErr(tt, "%s expects a file name", cmdWatchName)
		return false
	}
	updates, cancel := s.Results.Subscribe()
	done := make(chan struct{})
	s.stopWatch = func() {
		cancel()
		<-done
	}
	go watch(updates, done, s.Config, s.Logger, s.View, command.Args[0])
	WriteSuccess(tt, "Writing the view pruned to each new tracking result to %s.", command.Args[0])
	return false
}

// watch writes the pruned view of every result received on updates to filename, until updates is closed
func watch(updates <-chan *tracking.Result, done chan<- struct{}, c *config.Config, logger *config.LogGroup,
	v *loader.View, filename string) {
	defer close(done)
	for r := range updates {
		if r == nil {
			continue
		}
		pruned := prune.Prune(&cfg.Container{}, v.Graph, r.KeepSet(c.Pruning.KeepStart))
		if err := render.DOTToFile(c, pruned, render.ResultColors(r), filename); err != nil {
			logger.Errorf("watch: %v\n", err)
			continue
		}
		logger.Infof("wrote %s for %s from %s\n", filename, r.Register, r.Start)
	}
}

// cmdStats prints statistics of the view and of the last pruned view
func cmdStats(tt *term.Terminal, s *session, _ Command) bool {
	if s == nil {
		writeHelp(tt, cmdStatsName, "print statistics of the view and of the last pruned view")
		return false
	}
	if !s.requireView(tt) {
		return false
	}
	cmdprune.PrintStats(tt, "view", s.View.Graph)
	if s.Pruned != nil {
		cmdprune.PrintStats(tt, "pruned", s.Pruned)
	}
	return false
}

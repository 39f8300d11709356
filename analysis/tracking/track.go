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

// Package tracking implements register tracking: given a start instruction of a control flow graph and a register,
// it finds the instructions that use the value of the register (forward tracking) or that contributed to it
// (backward tracking), and what each of them does to the registers holding that value.
//
// A tracking run translates the graph to micro-ops with a reil.Translator, solves the dataflow problem with the
// monotone package, and aggregates the states of the micro-ops per native instruction.
package tracking

import (
	"errors"
	"fmt"

	"github.com/awslabs/ar-regtrack/analysis/cfg"
	"github.com/awslabs/ar-regtrack/analysis/config"
	"github.com/awslabs/ar-regtrack/analysis/lattice"
	"github.com/awslabs/ar-regtrack/analysis/monotone"
	"github.com/awslabs/ar-regtrack/analysis/reil"
	"golang.org/x/exp/slices"
)

// ErrPrecondition is returned when the arguments of Track are invalid. Nothing is computed in that case.
var ErrPrecondition = errors.New("invalid tracking arguments")

// Track tracks register from start in the graph g. Translation errors abort the tracking: they are returned as
// *reil.TranslationError, and no partial result is returned.
func Track(logger *config.LogGroup, g *cfg.Graph, tr reil.Translator, start *cfg.Instruction, register string,
	opts *Options) (*Result, error) {
	if err := checkArguments(g, tr, start, register, opts); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = config.NewLogGroup(config.NewDefault())
	}

	program, err := reil.Translate(g, tr)
	if err != nil {
		return nil, err
	}
	logger.Debugf("translated %d instructions of %s to %d micro-ops\n", len(g.Instructions()), g.Name,
		program.Order())

	seed := monotone.Seed{Start: start, Register: register, TrackIncoming: opts.TrackIncoming}
	sol, err := monotone.Solve(logger, program, seed, opts.params())
	if err != nil {
		return nil, err
	}

	states := sol.AddressToState(start, opts.TrackIncoming)
	res := &Result{
		Start:      start,
		Register:   register,
		Options:    *opts,
		Iterations: sol.Iterations,
	}
	if _, ok := states[start]; !ok {
		states[start] = lattice.Element{}
	}
	for ins, e := range states {
		if ins != start && !e.HasEffect() {
			continue
		}
		res.Results = append(res.Results, InstructionResult{Instruction: ins, Element: e})
	}
	slices.SortFunc(res.Results, func(a, b InstructionResult) bool {
		return a.Instruction.Address < b.Instruction.Address
	})
	logger.Debugf("%s tracking of %s from %s: %d instructions\n", opts.Direction, register, start,
		len(res.Results))
	return res, nil
}

func checkArguments(g *cfg.Graph, tr reil.Translator, start *cfg.Instruction, register string, opts *Options) error {
	switch {
	case g == nil:
		return fmt.Errorf("%w: no graph", ErrPrecondition)
	case tr == nil:
		return fmt.Errorf("%w: no translator", ErrPrecondition)
	case start == nil:
		return fmt.Errorf("%w: no start instruction", ErrPrecondition)
	case register == "":
		return fmt.Errorf("%w: no register", ErrPrecondition)
	case opts == nil:
		return fmt.Errorf("%w: no options", ErrPrecondition)
	}
	id, ok := g.NodeOf(start)
	if !ok || !g.Node(id).IsCode() {
		return fmt.Errorf("%w: %s is not in a code node of %s", ErrPrecondition, start, g.Name)
	}
	return nil
}

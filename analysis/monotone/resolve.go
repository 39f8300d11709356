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

package monotone

import (
	"github.com/awslabs/ar-regtrack/analysis/cfg"
	"github.com/awslabs/ar-regtrack/analysis/lattice"
	"github.com/awslabs/ar-regtrack/analysis/reil"
)

// AddressToState returns the state of each native instruction reached by the analysis.
//
// The state of a native instruction is the join of the states after its last micro-ops in the direction of the
// analysis: the micro-ops that leave the instruction. Temporaries are not reported. When start is not transferred
// by the analysis, it is reported as defining the tracked register.
func (s *Solution) AddressToState(start *cfg.Instruction, trackIncoming bool) map[*cfg.Instruction]lattice.Element {
	res := map[*cfg.Instruction]lattice.Element{}
	for i := 0; i < s.program.Order(); i++ {
		if !s.reached.Has(i) || !s.isExit(i) {
			continue
		}
		ins := s.program.Owner(i)
		res[ins] = res[ins].Join(s.out[i])
	}
	if start != nil && !transfersStart(Seed{Start: start, TrackIncoming: trackIncoming}, s.direction) {
		res[start] = res[start].Join(outgoingSeed(s.seed.Register))
	}
	for ins, e := range res {
		res[ins] = e.WithoutTemporaries().Normalize()
	}
	return res
}

// State returns the state after micro-op at address a, and false if the micro-op was not reached
func (s *Solution) State(a reil.Address) (lattice.Element, bool) {
	i, ok := s.program.IndexOf(a)
	if !ok || !s.reached.Has(i) {
		return lattice.Element{}, false
	}
	return s.out[i], true
}

// Reached returns the number of micro-ops reached by the analysis
func (s *Solution) Reached() int {
	return s.reached.Len()
}

// isExit returns true when control leaves the native instruction after micro-op i, in the direction of the analysis
func (s *Solution) isExit(i int) bool {
	if s.direction == Backward {
		return isBoundary(s.program.Predecessors(i))
	}
	return isBoundary(s.program.Successors(i))
}

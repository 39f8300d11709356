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

package reil

import (
	"errors"
	"fmt"

	"github.com/awslabs/ar-regtrack/analysis/cfg"
)

// ErrNoLowering is the cause of a TranslationError when a translator has no micro-ops for an instruction
var ErrNoLowering = errors.New("no lowering for instruction")

// A TranslationError is returned when a native instruction cannot be lowered to micro-ops
type TranslationError struct {
	Instruction *cfg.Instruction
	Err         error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("could not translate %s: %v", e.Instruction, e.Err)
}

func (e *TranslationError) Unwrap() error {
	return e.Err
}

// A Translator lowers native instructions to micro-ops. The micro-ops returned for an instruction at address a
// must have addresses MakeAddress(a, 0), MakeAddress(a, 1), ... in order.
type Translator interface {
	Translate(ins *cfg.Instruction) ([]Instruction, error)
}

// StaticTranslator is a Translator that serves lowerings from a table indexed by native address.
type StaticTranslator struct {
	lowerings map[uint64][]Instruction
}

// NewStaticTranslator returns an empty static translator
func NewStaticTranslator() *StaticTranslator {
	return &StaticTranslator{lowerings: map[uint64][]Instruction{}}
}

// Add registers the lowering of the native instruction at address, given in text form.
// An empty lowering is valid: the instruction has no effect.
func (t *StaticTranslator) Add(address uint64, microOps ...string) error {
	ops, err := ParseLowering(address, microOps)
	if err != nil {
		return fmt.Errorf("lowering of %#x: %w", address, err)
	}
	t.lowerings[address] = ops
	return nil
}

// MustAdd is Add, but panics on errors. Meant for tests and static tables.
func (t *StaticTranslator) MustAdd(address uint64, microOps ...string) *StaticTranslator {
	if err := t.Add(address, microOps...); err != nil {
		panic(err)
	}
	return t
}

// Translate implements Translator
func (t *StaticTranslator) Translate(ins *cfg.Instruction) ([]Instruction, error) {
	ops, ok := t.lowerings[ins.Address]
	if !ok {
		return nil, &TranslationError{Instruction: ins, Err: ErrNoLowering}
	}
	return append([]Instruction(nil), ops...), nil
}

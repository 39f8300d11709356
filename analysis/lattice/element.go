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

// Package lattice defines the abstract state of the register tracking: the registers tainted at a program point,
// and what the current native instruction did to them.
package lattice

import (
	"fmt"

	"github.com/awslabs/ar-regtrack/analysis/reil"
)

// An Element is the state at a program point.
//
// Tainted is carried along the control flow. The four other sets describe the effect of the native instruction
// being executed, and are reset when control leaves it.
type Element struct {
	// Tainted are the registers that hold a value derived from the tracked register
	Tainted Set

	// Read are the tainted registers the instruction reads
	Read Set

	// NewlyTainted are the registers the instruction taints for the first time
	NewlyTainted Set

	// Untainted are the registers the instruction clears
	Untainted Set

	// Updated are the registers the instruction writes that were already tainted, or that it cleared before
	Updated Set
}

// Seed returns the element where only the registers given are tainted
func Seed(regs ...string) Element {
	return Element{Tainted: NewSet(regs...)}
}

// IsTainted returns true when r is tainted
func (e Element) IsTainted(r string) bool {
	return e.Tainted.Contains(r)
}

// Taint marks r as tainted. The write is an update if r was tainted or cleared in this instruction.
func (e Element) Taint(r string) Element {
	if e.Tainted.Contains(r) || e.Untainted.Contains(r) {
		e.Updated = e.Updated.Add(r)
	} else {
		e.NewlyTainted = e.NewlyTainted.Add(r)
	}
	e.Tainted = e.Tainted.Add(r)
	e.Untainted = e.Untainted.Remove(r)
	return e
}

// Untaint clears r. Registers that are not tainted are left alone. The last write of an instruction wins: a
// cleared register is neither newly tainted nor updated.
func (e Element) Untaint(r string) Element {
	if !e.Tainted.Contains(r) {
		return e
	}
	e.Tainted = e.Tainted.Remove(r)
	e.Untainted = e.Untainted.Add(r)
	e.NewlyTainted = e.NewlyTainted.Remove(r)
	e.Updated = e.Updated.Remove(r)
	return e
}

// AddRead records that the instruction reads r
func (e Element) AddRead(r string) Element {
	e.Read = e.Read.Add(r)
	return e
}

// Exit is applied when control leaves a native instruction: temporaries die and the effect sets are reset.
func (e Element) Exit() Element {
	return Element{Tainted: e.Tainted.Filter(isNative)}
}

// WithoutTemporaries removes the micro-op temporaries from every set
func (e Element) WithoutTemporaries() Element {
	return Element{
		Tainted:      e.Tainted.Filter(isNative),
		Read:         e.Read.Filter(isNative),
		NewlyTainted: e.NewlyTainted.Filter(isNative),
		Untainted:    e.Untainted.Filter(isNative),
		Updated:      e.Updated.Filter(isNative),
	}
}

func isNative(r string) bool {
	return !reil.IsTemporaryRegister(r)
}

// Join returns the least upper bound of e and o: the union of each set.
func (e Element) Join(o Element) Element {
	return Element{
		Tainted:      e.Tainted.Union(o.Tainted),
		Read:         e.Read.Union(o.Read),
		NewlyTainted: e.NewlyTainted.Union(o.NewlyTainted),
		Untainted:    e.Untainted.Union(o.Untainted),
		Updated:      e.Updated.Union(o.Updated),
	}
}

// Normalize restores the disjointness of the effect sets after joins: a register both cleared and written on
// different paths counts as written, and a register both newly tainted and updated counts as updated.
func (e Element) Normalize() Element {
	e.Untainted = e.Untainted.Minus(e.NewlyTainted.Union(e.Updated))
	e.NewlyTainted = e.NewlyTainted.Minus(e.Updated)
	return e
}

// Equal returns true when both elements have the same sets
func (e Element) Equal(o Element) bool {
	return e.Tainted.Equal(o.Tainted) &&
		e.Read.Equal(o.Read) &&
		e.NewlyTainted.Equal(o.NewlyTainted) &&
		e.Untainted.Equal(o.Untainted) &&
		e.Updated.Equal(o.Updated)
}

// Leq returns true when e is below o in the lattice order
func (e Element) Leq(o Element) bool {
	return o.Join(e).Equal(o)
}

// HasEffect returns true when any of the effect sets is non-empty
func (e Element) HasEffect() bool {
	return len(e.Read) > 0 || len(e.NewlyTainted) > 0 || len(e.Untainted) > 0 || len(e.Updated) > 0
}

func (e Element) String() string {
	return fmt.Sprintf("tainted=%s read=%s new=%s cleared=%s updated=%s",
		e.Tainted, e.Read, e.NewlyTainted, e.Untainted, e.Updated)
}

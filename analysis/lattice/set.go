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

package lattice

import (
	"strings"

	"golang.org/x/exp/slices"
)

// A Set is a sorted set of register names. Sets are values: operations never modify their receiver.
type Set []string

// NewSet returns the set of the registers given
func NewSet(regs ...string) Set {
	if len(regs) == 0 {
		return nil
	}
	s := slices.Clone(regs)
	slices.Sort(s)
	return slices.Compact(s)
}

// Contains returns true when r is in the set
func (s Set) Contains(r string) bool {
	_, ok := slices.BinarySearch(s, r)
	return ok
}

// Add returns s ∪ {r}
func (s Set) Add(r string) Set {
	i, ok := slices.BinarySearch(s, r)
	if ok {
		return s
	}
	return slices.Insert(slices.Clone(s), i, r)
}

// Remove returns s \ {r}
func (s Set) Remove(r string) Set {
	i, ok := slices.BinarySearch(s, r)
	if !ok {
		return s
	}
	if len(s) == 1 {
		return nil
	}
	return slices.Delete(slices.Clone(s), i, i+1)
}

// Union returns s ∪ o
func (s Set) Union(o Set) Set {
	if len(o) == 0 {
		return s
	}
	if len(s) == 0 {
		return o
	}
	res := make(Set, 0, len(s)+len(o))
	i, j := 0, 0
	for i < len(s) && j < len(o) {
		switch {
		case s[i] < o[j]:
			res = append(res, s[i])
			i++
		case s[i] > o[j]:
			res = append(res, o[j])
			j++
		default:
			res = append(res, s[i])
			i++
			j++
		}
	}
	res = append(res, s[i:]...)
	return append(res, o[j:]...)
}

// Minus returns s \ o
func (s Set) Minus(o Set) Set {
	return s.Filter(func(r string) bool { return !o.Contains(r) })
}

// Filter returns the registers of s that satisfy keep
func (s Set) Filter(keep func(string) bool) Set {
	var res Set
	for _, r := range s {
		if keep(r) {
			res = append(res, r)
		}
	}
	return res
}

// Equal returns true when both sets have the same registers
func (s Set) Equal(o Set) bool {
	return slices.Equal(s, o)
}

func (s Set) String() string {
	return "{" + strings.Join(s, ", ") + "}"
}

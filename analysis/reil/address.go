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
	"fmt"
	"strconv"
	"strings"
)

// SubIndexBits is the number of low bits of an Address reserved for the sub-index
const SubIndexBits = 8

// MaxMicroOps is the maximum number of micro-ops a single native instruction can be lowered to
const MaxMicroOps = 1 << SubIndexBits

// Address is the address of a micro-op: the native instruction address shifted left by SubIndexBits, plus the
// index of the micro-op in the lowering of the native instruction.
type Address uint64

// MakeAddress returns the address of the sub-th micro-op of the native instruction at native.
// The top SubIndexBits bits of native are lost.
func MakeAddress(native uint64, sub uint8) Address {
	return Address(native<<SubIndexBits | uint64(sub))
}

// Native returns the address of the native instruction owning the micro-op
func (a Address) Native() uint64 {
	return uint64(a) >> SubIndexBits
}

// Sub returns the index of the micro-op inside the lowering of its native instruction
func (a Address) Sub() uint8 {
	return uint8(a & (MaxMicroOps - 1))
}

func (a Address) String() string {
	return fmt.Sprintf("%08x.%02x", a.Native(), a.Sub())
}

// ParseAddress parses an address of the form "native.sub" where both parts are hexadecimal, with an optional
// 0x prefix on the native part.
func ParseAddress(s string) (Address, error) {
	native, sub, found := strings.Cut(s, ".")
	if !found {
		return 0, fmt.Errorf("address %q has no sub-index", s)
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(native), "0x"), 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid native address in %q: %w", s, err)
	}
	k, err := strconv.ParseUint(sub, 16, SubIndexBits)
	if err != nil {
		return 0, fmt.Errorf("invalid sub-index in %q: %w", s, err)
	}
	return MakeAddress(n, uint8(k)), nil
}

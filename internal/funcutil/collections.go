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

// Package funcutil contains generic helpers over slices and maps.
package funcutil

import (
	"sync"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
)

// Map returns a new slice b such for any i < len(a), b[i] = f(a[i])
func Map[T any, S any](a []T, f func(T) S) []S {
	if a == nil {
		return nil
	}
	b := make([]S, 0, len(a))
	for _, x := range a {
		b = append(b, f(x))
	}
	return b
}

// MapParallel is a parallel version of Map using numRoutines goroutines. The order of the results is the order of
// the elements of a.
func MapParallel[T any, S any](a []T, f func(T) S, numRoutines int) []S {
	if numRoutines <= 0 {
		numRoutines = 1
	}
	res := make([]S, len(a))
	indices := make(chan int)
	wg := &sync.WaitGroup{}
	wg.Add(numRoutines)
	for r := 0; r < numRoutines; r++ {
		go func() {
			defer wg.Done()
			for i := range indices {
				res[i] = f(a[i])
			}
		}()
	}
	for i := range a {
		indices <- i
	}
	close(indices)
	wg.Wait()
	return res
}

// Reverse reverses a in place
func Reverse[T any](a []T) {
	for i, j := 0, len(a)-1; i < j; i, j = i+1, j-1 {
		a[i], a[j] = a[j], a[i]
	}
}

// SortedKeys returns the keys of the set that map to true, in increasing order
func SortedKeys[T constraints.Ordered](set map[T]bool) []T {
	var s []T
	for x, b := range set {
		if b {
			s = append(s, x)
		}
	}
	slices.Sort(s)
	return s
}

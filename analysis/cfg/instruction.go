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

package cfg

import (
	"fmt"
	"strings"
)

// Instruction is a native instruction. Instructions are immutable once created, and their identity is their
// pointer: two instructions with the same address in different graphs are different instructions unless
// the graphs share the pointer (the view pruner does).
type Instruction struct {
	Address  uint64
	Mnemonic string
	Operands []string
}

// NewInstruction returns a new instruction
func NewInstruction(address uint64, mnemonic string, operands ...string) *Instruction {
	return &Instruction{
		Address:  address,
		Mnemonic: mnemonic,
		Operands: append([]string(nil), operands...),
	}
}

func (i *Instruction) String() string {
	if i == nil {
		return "<nil>"
	}
	if len(i.Operands) == 0 {
		return fmt.Sprintf("%08x %s", i.Address, i.Mnemonic)
	}
	return fmt.Sprintf("%08x %s %s", i.Address, i.Mnemonic, strings.Join(i.Operands, ", "))
}

// ViewContainer allocates new, empty views. The view pruner only creates graphs through a container. A view that
// already holds an instruction cannot take a code node with that instruction.
type ViewContainer interface {
	CreateView(name string) *Graph
}

// Container is the default ViewContainer. It keeps track of the views it created.
type Container struct {
	views []*Graph
}

// CreateView returns a new empty graph and records it in the container
func (c *Container) CreateView(name string) *Graph {
	g := NewGraph(name)
	c.views = append(c.views, g)
	return g
}

// Views returns the views created by the container, in creation order
func (c *Container) Views() []*Graph {
	return c.views
}

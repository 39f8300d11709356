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

package main

import (
	"fmt"
	"os"

	"github.com/awslabs/ar-regtrack/analysis"
	"github.com/awslabs/ar-regtrack/cmd/regtrack/cli"
	"github.com/awslabs/ar-regtrack/cmd/regtrack/prune"
	"github.com/awslabs/ar-regtrack/cmd/regtrack/tools"
	"github.com/awslabs/ar-regtrack/cmd/regtrack/track"
)

const usage = `regtrack: register tracking and view pruning
Usage:
  regtrack [tool] [options]
Tools:
  - track: tracks registers from an instruction of a view, and prints the instructions that read, define, update or clear them
  - prune: prunes a view to a set of instructions, keeping the paths between them
  - cli: interactive terminal-like interface to track registers and prune views
Examples:
  Track eax forward: regtrack track -config config.yaml -view main.yaml -address 0x401000 -register eax
  Run the interactive CLI: regtrack cli -config config.yaml -view main.yaml
  Prune a view: regtrack prune -view main.yaml -keep 0x401000,0x401020 -o pruned.dot`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "error: expected subcommand\n%s\n", usage)
		os.Exit(2)
	}

	// hardcode help flag
	if snd := os.Args[1]; snd == "-help" || snd == "--help" {
		fmt.Println(usage)
		return
	}

	// hardcode version flag
	if snd := os.Args[1]; snd == "-version" || snd == "--version" {
		fmt.Println(analysis.Version)
		return
	}

	args := os.Args[2:]
	switch cmd := os.Args[1]; cmd {
	case "track":
		flags, err := track.NewFlags(args)
		if err != nil {
			errExit(err)
		}
		if err := track.Run(flags); err != nil {
			errExit(err)
		}
	case "cli":
		flags, err := cli.NewFlags(args)
		if err != nil {
			errExit(err)
		}
		if err := cli.Run(flags); err != nil {
			errExit(err)
		}
	case "prune":
		flags, err := prune.NewFlags(args)
		if err != nil {
			errExit(err)
		}
		if err := prune.Run(flags); err != nil {
			errExit(err)
		}
	default:
		fmt.Fprintf(os.Stderr, "error: unexpected command: %v\n", cmd)
		fmt.Fprintf(os.Stderr, "usage:\n%s\n", usage)
		os.Exit(2)
	}
}

func errExit(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	hint := tools.HintForErrorMessage(err.Error())
	if hint != "" {
		fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
	}
	os.Exit(2)
}

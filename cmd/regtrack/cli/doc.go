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

/*
Package cli implements the regtrack interactive CLI: a terminal application that loads a view, tracks registers in
it, and prunes it to the instructions that matter.

Usage:

	regtrack cli [flags] [-view view.yaml]

The flags are:

	-verbose=false
		verbose mode, overrides the log level of the config file
	-config config-file.yaml
		a configuration file for the tracking and the pruning. The default config is used when it is not specified.
	-view view.yaml
		a view to load on startup

# Basic Commands

	help             print a list of the commands, with short help messages for each

	exit             exit the program

	state?           show a summary of the state, including the path of the view and of the config file

	load path        load the view at path

	reconfig [path]  reload the config file, or load the config file at path if specified

	list [regex]     list the instructions of the view matching regex, colored by the status of the last tracking.
	.                Flag -t shows only the instructions of the last tracking result.

# Tracking and Pruning

	track addr reg   track register reg from the instruction at address addr. Flags -f and -b set the direction,
	.                -in tracks the value of the register before the instruction, and --operand n uses the call
	.                conventions of the architecture of the view for a register that is operand n.

	result           print the last tracking result

	prune [addr...]  prune the view to the instructions at the addresses given, or to the last tracking result

	dot [file]       write the last pruned view in DOT format

	watch file       write the view pruned to each new tracking result to file. Flag -stop stops watching.

	stats            print the statistics of the view and of the last pruned view
*/
package cli

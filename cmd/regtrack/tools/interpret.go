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

package tools

import "regexp"

// Captures errors happening before any analysis starts (view could not load)
var regexCouldNotLoad = regexp.MustCompile("could not (read|unmarshal) view file")

// Captures views whose instructions have no micro-op lowering
var regexNoLowering = regexp.MustCompile("no lowering for instruction")

// Captures start addresses that are not in the view
var regexNoInstruction = regexp.MustCompile("no instruction at")

// Captures the iteration bound of the solver
var regexIterationLimit = regexp.MustCompile("iteration limit reached")

// HintForErrorMessage looks for specific error message and returns some other message that might help the user
// resolve the problem.
func HintForErrorMessage(errMsg string) string {
	switch {
	case regexCouldNotLoad.MatchString(errMsg):
		return "the -view flag should be the path of a YAML view file, see the documentation of the loader package"
	case regexNoLowering.MatchString(errMsg):
		return "every instruction of the view needs a reil key; use an empty list for instructions without effect"
	case regexNoInstruction.MatchString(errMsg):
		return "the start address must be the address of an instruction in a code node of the view"
	case regexIterationLimit.MatchString(errMsg):
		return "increase max-iterations in the config file, or set it to 0 to remove the bound"
	}
	return ""
}

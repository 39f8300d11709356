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


package cli

import (
	"fmt"

	"github.com/awslabs/ar-regtrack/analysis/tracking"
	"golang.org/x/term"
)

// WriteErr formats the format string with a and then prints on the terminal in red with a new line
func WriteErr(tt *term.Terminal, format string, a ...any) {
	writeLine(tt, tt.Escape.Red, format, a...)
}

// WriteSuccess formats the format string with a and then prints on the terminal in green with a new line
func WriteSuccess(tt *term.Terminal, format string, a ...any) {
	writeLine(tt, tt.Escape.Green, format, a...)
}

// writeFmt prints format as is when there are no arguments, so that messages can contain '%'
func writeFmt(tt *term.Terminal, format string, a ...any) {
	if len(a) > 0 {
		format = fmt.Sprintf(format, a...)
	}
	tt.Write([]byte(format))
}

func writeLine(tt *term.Terminal, escape []byte, format string, a ...any) {
	if len(a) > 0 {
		format = fmt.Sprintf(format, a...)
	}
	writeFmt(tt, "%s%s%s\n", escape, format, tt.Escape.Reset)
}

// writeHelp prints the help entry of a command: its name, a one line summary, and indented details
func writeHelp(tt *term.Terminal, name string, summary string, details ...string) {
	writeFmt(tt, "\t- %s%s%s : %s\n", tt.Escape.Blue, name, tt.Escape.Reset, summary)
	for _, d := range details {
		writeFmt(tt, "\t  %s\n", d)
	}
}

// statusEscape returns the escape sequence used for instructions with status st
func statusEscape(tt *term.Terminal, st tracking.Status) []byte {
	switch st {
	case tracking.Start:
		return tt.Escape.Blue
	case tracking.ClearsAll, tracking.ClearsTracked:
		return tt.Escape.Red
	case tracking.ClearsSome:
		return tt.Escape.Magenta
	case tracking.Defines, tracking.Updates:
		return tt.Escape.Green
	case tracking.Reads:
		return tt.Escape.Yellow
	}
	return nil
}

// writeResult prints each instruction of r with its status, and the registers it affects on the next line
func writeResult(tt *term.Terminal, r *tracking.Result) {
	writeFmt(tt, "%s tracking of %s%s%s from %s\n", r.Options.Direction, tt.Escape.Cyan, r.Register,
		tt.Escape.Reset, r.Start)
	for _, ir := range r.Results {
		st := tracking.Classify(r.Start, r.Register, ir)
		writeFmt(tt, "  %-40s %s%s%s\n", ir.Instruction, statusEscape(tt, st), st, tt.Escape.Reset)
		writeFmt(tt, "    %s\n", ir.Element)
	}
}

// A listEntry is an instruction listed by the list command, with the escape sequence of its status
type listEntry struct {
	label  string
	escape []byte
}

// writeColumns prints the entries column by column, with as many columns as fit in width
func writeColumns(tt *term.Terminal, width int, entries []listEntry) {
	if len(entries) == 0 {
		return
	}
	colWidth := 0
	for _, e := range entries {
		if len(e.label) > colWidth {
			colWidth = len(e.label)
		}
	}
	colWidth += 3
	cols := width / colWidth
	if cols <= 0 {
		cols = 1
	}
	rows := (len(entries) + cols - 1) / cols
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			if i := col*rows + row; i < len(entries) {
				writeFmt(tt, "%s%-*s%s", entries[i].escape, colWidth, entries[i].label, tt.Escape.Reset)
			}
		}
		writeFmt(tt, "\n")
	}
}

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
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/awslabs/ar-regtrack/analysis/config"
	"github.com/awslabs/ar-regtrack/cmd/regtrack/tools"
	"github.com/awslabs/ar-regtrack/internal/formatutil"
	"golang.org/x/term"
)

// Usage for CLI
const Usage = `Interactive CLI for tracking registers and pruning views.
Usage:
  regtrack cli [options] [-view view.yaml]`

const (
	cmdDotName      = "dot"
	cmdExitName     = "exit"
	cmdHelpName     = "help"
	cmdListName     = "list"
	cmdLoadName     = "load"
	cmdPruneName    = "prune"
	cmdReconfigName = "reconfig"
	cmdResultName   = "result"
	cmdStateName    = "state?"
	cmdStatsName    = "stats"
	cmdTrackName    = "track"
	cmdWatchName    = "watch"
)

var commands = map[string]func(tt *term.Terminal, s *session, command Command) bool{
	cmdDotName:      cmdDot,
	cmdExitName:     cmdExit,
	cmdListName:     cmdList,
	cmdLoadName:     cmdLoad,
	cmdPruneName:    cmdPrune,
	cmdReconfigName: cmdReconfig,
	cmdResultName:   cmdResult,
	cmdStateName:    cmdState,
	cmdStatsName:    cmdStats,
	cmdTrackName:    cmdTrack,
	cmdWatchName:    cmdWatch,
}

func commandNames() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewFlags returns the parsed flags of the cli sub-command. The view is optional.
func NewFlags(args []string) (tools.CommonFlags, error) {
	flags := tools.NewUnparsedCommonFlags("cli")
	tools.SetUsage(flags.FlagSet, Usage)
	if err := flags.FlagSet.Parse(args); err != nil {
		return tools.CommonFlags{}, fmt.Errorf("failed to parse command cli with args %v: %v", args, err)
	}
	return flags.Parsed(), nil
}

// Run runs a simple CLI-based stdin-stdout server to explore a view.
func Run(flags tools.CommonFlags) error {
	s, err := newSession(flags.ConfigPath)
	if err != nil {
		return err
	}
	// Override config parameters with command-line parameters
	if flags.Verbose {
		s.Config.LogLevel = int(config.DebugLevel)
		s.Logger = config.NewLogGroup(s.Config)
	}
	if flags.ViewPath != "" {
		fmt.Println(formatutil.Faint("Reading view"))
		if err := s.loadView(flags.ViewPath); err != nil {
			return err
		}
	}
	return run(s)
}

// run implements the command line tool, calling interpret for each command until the exit command is input
func run(s *session) error {
	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("the cli needs a terminal: %v", err)
	}
	defer term.Restore(int(os.Stdin.Fd()), oldState)
	if width, _, err := term.GetSize(int(os.Stdin.Fd())); err == nil {
		s.TermWidth = width
	}
	tt := term.NewTerminal(os.Stdin, "> ")
	s.Logger.SetAllOutput(tt)
	s.Logger.SetAllFlags(0) // no prefix
	tt.AutoCompleteCallback = autoComplete
	// Capture ctrl+c and exit by returning
	captureChan := make(chan os.Signal, 1)
	signal.Notify(captureChan, os.Interrupt)
	go exitOnReceive(captureChan, tt, oldState)
	// the infinite loop terminates when interpret returns true
	for {
		command, err := tt.ReadLine()
		if err != nil {
			cmdExit(tt, s, Command{})
			return nil
		}
		if interpret(tt, s, strings.TrimSpace(command)) {
			return nil
		}
	}
}

// interpret returns true to stop
func interpret(tt *term.Terminal, s *session, command string) bool {
	if command == "" {
		return false
	}
	cmd := ParseCommand(command)
	if cmd.Name == "" {
		return false
	}
	if f, ok := commands[cmd.Name]; ok {
		return f(tt, s, cmd)
	}
	if cmd.Name != cmdHelpName {
		WriteErr(tt, "Command name %q not recognized.", cmd.Name)
	}
	cmdHelp(tt, s, cmd)
	return false
}

// autoComplete completes command names on tab
func autoComplete(line string, pos int, key rune) (string, int, bool) {
	if key != '\t' || strings.Contains(line[:pos], " ") {
		return "", 0, false
	}
	var match string
	for _, name := range append(commandNames(), cmdHelpName) {
		if strings.HasPrefix(name, line[:pos]) {
			if match != "" {
				// ambiguous
				return "", 0, false
			}
			match = name
		}
	}
	if match == "" {
		return "", 0, false
	}
	return match + " " + line[pos:], len(match) + 1, true
}

func exitOnReceive(c chan os.Signal, tt *term.Terminal, oldState *term.State) {
	for range c {
		writeFmt(tt, formatutil.Red("Caught SIGINT, exiting!"))
		term.Restore(int(os.Stdin.Fd()), oldState)
		os.Exit(0)
	}
}

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
	"regexp"

	"github.com/awslabs/ar-regtrack/analysis/cfg"
	"github.com/awslabs/ar-regtrack/analysis/config"
	"github.com/awslabs/ar-regtrack/analysis/loader"
	"github.com/awslabs/ar-regtrack/analysis/render"
	"github.com/awslabs/ar-regtrack/analysis/tracking"
	"github.com/awslabs/ar-regtrack/cmd/regtrack/tools"
	"golang.org/x/term"
)

// session is the state of the terminal: the loaded view, the config and the results of the commands
type session struct {
	ConfigPath string
	Config     *config.Config
	Logger     *config.LogGroup

	ViewPath string
	View     *loader.View

	// Results receives every tracking result; the latest one is the default input of the prune command
	Results *tracking.Container

	// Pruned is the last pruned view, and Colors the colors of its instructions
	Pruned *cfg.Graph
	Colors render.Colors

	TermWidth int

	// stopWatch cancels the subscription of the watch command, if any
	stopWatch func()
}

func newSession(configPath string) (*session, error) {
	c, err := tools.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return &session{
		ConfigPath: configPath,
		Config:     c,
		Logger:     config.NewLogGroup(c),
		Results:    tracking.NewContainer(),
		TermWidth:  80,
	}, nil
}

// loadView replaces the view of the session. Results and pruned views of the previous view are discarded, and
// the watch of the previous view stops.
func (s *session) loadView(path string) error {
	v, err := loader.Load(path)
	if err != nil {
		return err
	}
	if s.stopWatch != nil {
		s.stopWatch()
		s.stopWatch = nil
	}
	s.ViewPath = path
	s.View = v
	s.Pruned = nil
	s.Colors = nil
	s.Results.Publish(nil)
	return nil
}

func (s *session) requireView(tt *term.Terminal) bool {
	if s.View == nil {
		WriteErr(tt, "No view loaded. Use `%s path` first.", cmdLoadName)
		return false
	}
	return true
}

// Help command
func cmdHelp(tt *term.Terminal, s *session, _ Command) bool {
	if s == nil {
		writeHelp(tt, cmdHelpName, "print help message")
		return false
	}
	writeFmt(tt, "Commands:\n")
	cmdHelp(tt, nil, Command{})
	for _, name := range commandNames() {
		commands[name](tt, nil, Command{})
	}
	return false
}

func cmdExit(tt *term.Terminal, s *session, _ Command) bool {
	if s == nil {
		writeHelp(tt, cmdExitName, "exit the program")
		return false
	}
	if s.stopWatch != nil {
		s.stopWatch()
	}
	return true
}

// cmdState implements the "state?" command, which prints information about the current state of the tool
func cmdState(tt *term.Terminal, s *session, _ Command) bool {
	if s == nil {
		writeHelp(tt, cmdStateName, "print information about the current state")
		return false
	}
	wd, _ := os.Getwd()
	writeFmt(tt, "View path         : %s\n", s.ViewPath)
	writeFmt(tt, "Config path       : %s\n", s.ConfigPath)
	writeFmt(tt, "Working dir       : %s\n", wd)
	writeFmt(tt, "Direction         : %s\n", s.Config.Tracking.Direction)
	if s.View != nil {
		writeFmt(tt, "Architecture      : %s\n", s.View.Architecture)
		writeFmt(tt, "# nodes           : %d\n", s.View.Graph.NodeCount())
		writeFmt(tt, "# instructions    : %d\n", len(s.View.Graph.Instructions()))
	}
	if r := s.Results.Latest(); r != nil {
		writeFmt(tt, "Last tracking     : %s from %s\n", r.Register, r.Start)
	}
	if s.Pruned != nil {
		writeFmt(tt, "Pruned view       : %d nodes, %d edges\n", s.Pruned.NodeCount(), s.Pruned.EdgeCount())
	}
	writeFmt(tt, "Watching?         : %t\n", s.stopWatch != nil)
	return false
}

// cmdLoad loads a view
func cmdLoad(tt *term.Terminal, s *session, command Command) bool {
	if s == nil {
		writeHelp(tt, cmdLoadName, "load the view at the path given")
		return false
	}
	if len(command.Args) != 1 {
		WriteErr(tt, "%s expects the path of a view file", cmdLoadName)
		return false
	}
	if err := s.loadView(command.Args[0]); err != nil {
		WriteErr(tt, "Could not load the view: %v", err)
		return false
	}
	WriteSuccess(tt, "Loaded %s: %d nodes, %d edges, %d instructions.", s.View.Graph.Name,
		s.View.Graph.NodeCount(), s.View.Graph.EdgeCount(), len(s.View.Graph.Instructions()))
	return false
}

// cmdReconfig reloads the config file, or loads the config file given
func cmdReconfig(tt *term.Terminal, s *session, command Command) bool {
	if s == nil {
		writeHelp(tt, cmdReconfigName, "reload the config file, or load the config file at the path given")
		return false
	}
	path := s.ConfigPath
	if len(command.Args) > 0 {
		path = command.Args[0]
	}
	c, err := tools.LoadConfig(path)
	if err != nil {
		WriteErr(tt, "%v", err)
		return false
	}
	s.ConfigPath = path
	s.Config = c
	level := s.Logger.Level()
	s.Logger = config.NewLogGroup(c)
	s.Logger.SetAllOutput(tt)
	s.Logger.SetAllFlags(0)
	if path == "" {
		WriteSuccess(tt, "Using the default config.")
	} else {
		WriteSuccess(tt, "Loaded config %s.", path)
	}
	if level != s.Logger.Level() {
		writeFmt(tt, "Log level is now %s.\n", s.Logger.Level())
	}
	return false
}

// cmdList lists the instructions of the view matching a regex
func cmdList(tt *term.Terminal, s *session, command Command) bool {
	if s == nil {
		writeHelp(tt, cmdListName, "list the instructions of the view matching the regex given",
			"Options:",
			"  -t     list only instructions of the last tracking result")
		return false
	}
	if !s.requireView(tt) {
		return false
	}
	r := regexp.MustCompile("")
	if len(command.Args) > 0 {
		var err error
		if r, err = regexp.Compile(command.Args[0]); err != nil {
			WriteErr(tt, "Invalid regex: %v", err)
			return false
		}
	}
	latest := s.Results.Latest()
	var entries []listEntry
	for _, ins := range s.View.Graph.Instructions() {
		str := ins.String()
		if !r.MatchString(str) {
			continue
		}
		entry := listEntry{label: str}
		if latest != nil {
			if ir, ok := latest.Get(ins); ok {
				entry.escape = statusEscape(tt, tracking.Classify(latest.Start, latest.Register, ir))
			} else if command.Flags["t"] {
				continue
			}
		} else if command.Flags["t"] {
			continue
		}
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		WriteSuccess(tt, "No matching instruction found.")
		return false
	}
	writeColumns(tt, s.TermWidth, entries)
	WriteSuccess(tt, "(%d matching instructions)", len(entries))
	return false
}

func parseAddress(command Command, i int) (uint64, error) {
	if i >= len(command.Args) {
		return 0, fmt.Errorf("%s expects an address", command.Name)
	}
	return tools.ParseAddress(command.Args[i])
}

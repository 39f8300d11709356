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

package config

import (
	"fmt"
	"io"
	"log"
	"os"
)

type LogLevel int

const (
	// ErrLevel=1 - the minimum level of logging.
	ErrLevel LogLevel = iota + 1

	// WarnLevel=2 - the level for logging warnings, and errors
	WarnLevel

	// InfoLevel=3 - the level for logging the phases of a run and its results
	InfoLevel

	// DebugLevel=4 - solver statistics: iterations, sizes of programs and pruned views.
	DebugLevel

	// TraceLevel=5 - every micro-op transfer. Only usable on small graphs.
	TraceLevel
)

var levelNames = map[LogLevel]string{
	ErrLevel:   "ERROR",
	WarnLevel:  "WARN",
	InfoLevel:  "INFO",
	DebugLevel: "DEBUG",
	TraceLevel: "TRACE",
}

func (l LogLevel) String() string {
	if s, ok := levelNames[l]; ok {
		return s
	}
	return fmt.Sprintf("LogLevel(%d)", int(l))
}

// LogGroup is a set of loggers, one per level. Messages above the level of the group are dropped.
type LogGroup struct {
	level   LogLevel
	loggers map[LogLevel]*log.Logger
}

// NewLogGroup returns a log group that is configured to the logging settings stored inside the config.
// All loggers write to the standard error.
func NewLogGroup(config *Config) *LogGroup {
	l := &LogGroup{
		level:   LogLevel(config.LogLevel),
		loggers: make(map[LogLevel]*log.Logger, len(levelNames)),
	}
	for level, name := range levelNames {
		l.loggers[level] = log.New(os.Stderr, "["+name+"] ", log.LstdFlags)
	}
	return l
}

// Level returns the level of the log group
func (l *LogGroup) Level() LogLevel {
	return l.level
}

// Enabled returns true when messages at level are printed
func (l *LogGroup) Enabled(level LogLevel) bool {
	return l.level >= level
}

// SetAllOutput sets all the output writers to the writer provided
func (l *LogGroup) SetAllOutput(w io.Writer) {
	for _, logger := range l.loggers {
		logger.SetOutput(w)
	}
}

// SetAllFlags sets the flag of all loggers in the log group to the argument provided
func (l *LogGroup) SetAllFlags(x int) {
	for _, logger := range l.loggers {
		logger.SetFlags(x)
	}
}

func (l *LogGroup) printf(level LogLevel, format string, v ...any) {
	if l.level >= level {
		l.loggers[level].Printf(format, v...)
	}
}

// Tracef prints to the trace logger. Arguments are handled in the manner of Printf
func (l *LogGroup) Tracef(format string, v ...any) { l.printf(TraceLevel, format, v...) }

// Debugf prints to the debug logger. Arguments are handled in the manner of Printf
func (l *LogGroup) Debugf(format string, v ...any) { l.printf(DebugLevel, format, v...) }

// Infof prints to the info logger. Arguments are handled in the manner of Printf
func (l *LogGroup) Infof(format string, v ...any) { l.printf(InfoLevel, format, v...) }

// Warnf prints to the warning logger. Arguments are handled in the manner of Printf
func (l *LogGroup) Warnf(format string, v ...any) { l.printf(WarnLevel, format, v...) }

// Errorf prints to the error logger. Arguments are handled in the manner of Printf
func (l *LogGroup) Errorf(format string, v ...any) { l.printf(ErrLevel, format, v...) }

// GetError returns the error logger, for applications that need a logger as input
func (l *LogGroup) GetError() *log.Logger {
	return l.loggers[ErrLevel]
}

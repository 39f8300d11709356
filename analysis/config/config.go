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
	"os"
	"path"
	"strings"

	"github.com/awslabs/ar-regtrack/internal/funcutil"
	"gopkg.in/yaml.v3"
)

var (
	// The global config file
	configFile string
)

const (
	// DirectionForward tracks the register along the control flow
	DirectionForward = "forward"
	// DirectionBackward tracks the register against the control flow
	DirectionBackward = "backward"
	// DefaultMaxIterations is the default bound on the number of micro-op visits of the solver. 0 means no bound.
	DefaultMaxIterations = 0
	// DefaultDotName is the default name of the graphs written by the pruning
	DefaultDotName = "pruned"
)

// SetGlobalConfig sets the global config filename
func SetGlobalConfig(filename string) {
	configFile = filename
}

// LoadGlobal loads the config file that has been set by SetGlobalConfig
func LoadGlobal() (*Config, error) {
	return Load(configFile)
}

// Config contains the options of the tools, and the settings of the register tracking and of the pruning.
// If some field is not defined in the config file, it keeps its default value.
// private fields are not populated from a yaml file, but computed after initialization
type Config struct {
	Options

	sourceFile string

	// Tracking are the settings of the register tracking
	Tracking TrackingSpec `yaml:"tracking"`

	// Pruning are the settings of the view pruning
	Pruning PruningSpec `yaml:"pruning"`
}

// TrackingSpec contains the settings of a register tracking run
type TrackingSpec struct {
	// Direction is either "forward" or "backward"
	Direction string `yaml:"direction"`

	// ClearAllRegistersOnCall makes function calls clear every tracked register. When false, only the
	// ClearedRegisters are cleared by calls.
	ClearAllRegistersOnCall bool `yaml:"clear-all-registers-on-call"`

	// ClearedRegisters are the registers a call clears when ClearAllRegistersOnCall is false
	ClearedRegisters []string `yaml:"cleared-registers"`

	// TrackIncoming makes the tracking start with the value the register holds before the start instruction
	// executes, instead of the value it holds after.
	TrackIncoming bool `yaml:"track-incoming"`
}

// PruningSpec contains the settings of the view pruning
type PruningSpec struct {
	// KeepStart keeps the start instruction of a tracking in the pruned view even if it has no effect
	KeepStart bool `yaml:"keep-start"`

	// DotName is the name of the graph in the DOT output
	DotName string `yaml:"dot-name"`
}

type Options struct {
	// ReportsDir is the directory where the pruned graphs are written. If empty, graphs are written to the standard
	// output.
	ReportsDir string `yaml:"reports-dir"`

	// MaxIterations bounds the number of micro-op visits of the solver. If MaxIterations <= 0, it is ignored.
	MaxIterations int `yaml:"max-iterations"`

	// Loglevel controls the verbosity of the tool
	LogLevel int `yaml:"log-level"`
}

// NewDefault returns the default config.
func NewDefault() *Config {
	return &Config{
		sourceFile: "",
		Tracking: TrackingSpec{
			Direction:               DirectionForward,
			ClearAllRegistersOnCall: true,
			ClearedRegisters:        nil,
			TrackIncoming:           false,
		},
		Pruning: PruningSpec{
			KeepStart: true,
			DotName:   DefaultDotName,
		},
		Options: Options{
			ReportsDir:    "",
			MaxIterations: DefaultMaxIterations,
			LogLevel:      int(InfoLevel),
		},
	}
}

// Load reads a configuration from a file
func Load(filename string) (*Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	return Parse(filename, b)
}

// Parse reads a configuration from the content b of the config file filename
func Parse(filename string, b []byte) (*Config, error) {
	cfg := NewDefault()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config file: %w", err)
	}
	cfg.sourceFile = filename

	// If logLevel has not been specified (i.e. it is 0) set the default to Info
	if cfg.LogLevel == 0 {
		cfg.LogLevel = int(InfoLevel)
	}
	if cfg.LogLevel < int(ErrLevel) || cfg.LogLevel > int(TraceLevel) {
		return nil, fmt.Errorf("invalid log-level %d, expected a value between %d and %d",
			cfg.LogLevel, ErrLevel, TraceLevel)
	}

	cfg.Tracking.Direction = strings.ToLower(cfg.Tracking.Direction)
	switch cfg.Tracking.Direction {
	case "":
		cfg.Tracking.Direction = DirectionForward
	case DirectionForward, DirectionBackward:
	default:
		return nil, fmt.Errorf("invalid tracking direction %q, expected %q or %q",
			cfg.Tracking.Direction, DirectionForward, DirectionBackward)
	}
	cfg.Tracking.ClearedRegisters = funcutil.Map(cfg.Tracking.ClearedRegisters, strings.TrimSpace)
	if !cfg.Tracking.ClearAllRegistersOnCall && len(cfg.Tracking.ClearedRegisters) == 0 {
		return nil, fmt.Errorf("calls clear no register: set clear-all-registers-on-call or cleared-registers")
	}

	if cfg.Pruning.DotName == "" {
		cfg.Pruning.DotName = DefaultDotName
	}
	if cfg.ReportsDir != "" {
		if err := setReportsDir(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func setReportsDir(c *Config) error {
	if !path.IsAbs(c.ReportsDir) && c.sourceFile != "" {
		c.ReportsDir = c.RelPath(c.ReportsDir)
	}
	err := os.Mkdir(c.ReportsDir, 0750)
	if err != nil {
		if !os.IsExist(err) {
			return fmt.Errorf("could not create directory %s", c.ReportsDir)
		}
	}
	return nil
}

// RelPath returns filename path relative to the config source file
func (c Config) RelPath(filename string) string {
	return path.Join(path.Dir(c.sourceFile), filename)
}

// Verbose returns true is the configuration verbosity setting is larger than Info (i.e. Debug or Trace)
func (c Config) Verbose() bool {
	return c.LogLevel >= int(DebugLevel)
}

// ExceedsMaxIterations returns true if the number of iterations exceeds the maximum set in the configuration.
// If the configuration setting is <= 0, then this returns false.
func (c Config) ExceedsMaxIterations(n int) bool {
	if c.MaxIterations <= 0 {
		return false
	}
	return n > c.MaxIterations
}

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

// Package tools contains utility types and functions for the regtrack sub-commands.
package tools

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/awslabs/ar-regtrack/analysis/config"
)

// UnparsedCommonFlags represents an unparsed CLI sub-command flags.
type UnparsedCommonFlags struct {
	FlagSet    *flag.FlagSet
	ConfigPath *string
	ViewPath   *string
	Verbose    *bool
}

// NewUnparsedCommonFlags returns an unparsed flag set with a given name.
// This is useful for creating sub-commands that have the flags -config, -view and -verbose but need other flags
// in addition.
func NewUnparsedCommonFlags(name string) UnparsedCommonFlags {
	cmd := flag.NewFlagSet(name, flag.ExitOnError)
	configPath := cmd.String("config", "", "config file path; the default config is used when empty")
	viewPath := cmd.String("view", "", "path of the YAML file of the view")
	verbose := cmd.Bool("verbose", false, "verbose printing on standard output")
	return UnparsedCommonFlags{
		FlagSet:    cmd,
		ConfigPath: configPath,
		ViewPath:   viewPath,
		Verbose:    verbose,
	}
}

// CommonFlags represents a parsed CLI sub-command flags.
// E.g., for the command `regtrack track ...`, "track" is the sub-command.
type CommonFlags struct {
	FlagSet    *flag.FlagSet
	ConfigPath string
	ViewPath   string
	Verbose    bool
}

// Parsed returns the common flags once the flag set has been parsed
func (f UnparsedCommonFlags) Parsed() CommonFlags {
	return CommonFlags{
		FlagSet:    f.FlagSet,
		ConfigPath: *f.ConfigPath,
		ViewPath:   *f.ViewPath,
		Verbose:    *f.Verbose,
	}
}

// Parse parses args, and returns an error mentioning the command name when args are invalid
func (f UnparsedCommonFlags) Parse(args []string) (CommonFlags, error) {
	if err := f.FlagSet.Parse(args); err != nil {
		return CommonFlags{}, fmt.Errorf("failed to parse command %s with args %v: %v", f.FlagSet.Name(), args, err)
	}
	flags := f.Parsed()
	if flags.ViewPath == "" {
		return CommonFlags{}, fmt.Errorf("command %s: no view file (set -view)", f.FlagSet.Name())
	}
	return flags, nil
}

// SetUsage sets cmd's usage (for --help flag) to output the string cmdUsage
// followed by each flag's documentation.
func SetUsage(cmd *flag.FlagSet, cmdUsage string) {
	cmd.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s\n", cmdUsage)
		fmt.Fprintf(os.Stderr, "Options:\n")
		cmd.VisitAll(func(f *flag.Flag) {
			fmt.Fprintf(os.Stderr, "  %s: %s (default: %q)\n", f.Name, f.Usage, f.DefValue)
		})
	}
}

// Registers is a list of registers given by a repeated flag, or a comma separated list.
type Registers []string

func (r *Registers) String() string {
	if r == nil {
		return ""
	}
	return strings.Join(*r, ",")
}

// Set adds the registers in value to r.
// This method satisfies the flag.Value interface.
func (r *Registers) Set(value string) error {
	for _, reg := range strings.Split(value, ",") {
		reg = strings.TrimSpace(reg)
		if reg == "" {
			return fmt.Errorf("empty register name in %q", value)
		}
		*r = append(*r, reg)
	}
	return nil
}

// Addresses is a list of instruction addresses given by a repeated flag, or a comma separated list. Addresses are
// hexadecimal, with or without the 0x prefix.
type Addresses []uint64

func (a *Addresses) String() string {
	if a == nil {
		return ""
	}
	s := make([]string, len(*a))
	for i, x := range *a {
		s[i] = fmt.Sprintf("%#x", x)
	}
	return strings.Join(s, ",")
}

// Set adds the addresses in value to a.
// This method satisfies the flag.Value interface.
func (a *Addresses) Set(value string) error {
	for _, s := range strings.Split(value, ",") {
		x, err := ParseAddress(s)
		if err != nil {
			return err
		}
		*a = append(*a, x)
	}
	return nil
}

// ParseAddress parses a hexadecimal address, with or without the 0x prefix
func ParseAddress(s string) (uint64, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
	x, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	return x, nil
}

// LoadConfig loads the config file from configPath. The default config is returned when configPath is empty.
func LoadConfig(configPath string) (*config.Config, error) {
	if configPath == "" {
		return config.NewDefault(), nil
	}
	config.SetGlobalConfig(configPath)
	cfg, err := config.LoadGlobal()
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %v", configPath, err)
	}
	return cfg, nil
}

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
	"bytes"
	"embed"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

//go:embed testdata
var testfsys embed.FS

func loadFromTestDir(filename string) (string, *Config, error) {
	filename = filepath.Join("testdata", filename)
	b, err := testfsys.ReadFile(filename)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read file %v: %v", filename, err)
	}
	config, err := Parse(filename, b)
	if err != nil {
		return filename, nil, fmt.Errorf("failed to load file %v: %v", filename, err)
	}
	return filename, config, err
}

func testLoadOneFile(t *testing.T, filename string, expected *Config) {
	configFileName, config, err := loadFromTestDir(filename)
	if err != nil {
		t.Fatalf("Error loading %q: %v", configFileName, err)
	}
	c1, err1 := yaml.Marshal(config)
	c2, err2 := yaml.Marshal(expected)
	if err1 != nil {
		t.Errorf("Error marshalling %v", config)
	}
	if err2 != nil {
		t.Errorf("Error marshalling %v", expected)
	}
	if string(c1) != string(c2) {
		t.Errorf("Error in %q:\n%q is not\n%q\n", filename, c1, c2)
	}
}

func TestNewDefault(t *testing.T) {
	c := NewDefault()
	if c.Tracking.Direction != DirectionForward {
		t.Errorf("Default direction should be forward")
	}
	if !c.Tracking.ClearAllRegistersOnCall {
		t.Errorf("Default should clear all registers on calls")
	}
	if c.ExceedsMaxIterations(1 << 30) {
		t.Errorf("Default should not bound iterations")
	}
	if c.Verbose() {
		t.Errorf("Default should not be verbose")
	}
}

func TestLoadFull(t *testing.T) {
	expected := NewDefault()
	expected.LogLevel = int(DebugLevel)
	expected.MaxIterations = 5000
	expected.Tracking = TrackingSpec{
		Direction:               DirectionBackward,
		ClearAllRegistersOnCall: false,
		ClearedRegisters:        []string{"eax", "ecx", "edx"},
		TrackIncoming:           true,
	}
	expected.Pruning = PruningSpec{KeepStart: false, DotName: "ecx-uses"}
	testLoadOneFile(t, "full.yaml", expected)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	expected := NewDefault()
	expected.Tracking.TrackIncoming = true
	testLoadOneFile(t, "partial.yaml", expected)
}

func TestLoadInvalidFiles(t *testing.T) {
	for _, name := range []string{"bad_direction.yaml", "no_cleared_registers.yaml", "bad_format.yaml"} {
		if _, _, err := loadFromTestDir(name); err == nil {
			t.Errorf("Loading %s should fail", name)
		}
	}
}

func TestLoadNonExistentFileReturnsError(t *testing.T) {
	if _, err := Load(filepath.Join("testdata", "does-not-exist.yaml")); err == nil {
		t.Errorf("Loading a missing file should fail")
	}
}

func TestExceedsMaxIterations(t *testing.T) {
	c := NewDefault()
	c.MaxIterations = 10
	if c.ExceedsMaxIterations(10) || !c.ExceedsMaxIterations(11) {
		t.Errorf("ExceedsMaxIterations should be strict at %d", c.MaxIterations)
	}
}

func TestLogGroupLevels(t *testing.T) {
	c := NewDefault()
	c.LogLevel = int(WarnLevel)
	l := NewLogGroup(c)
	var buf bytes.Buffer
	l.SetAllOutput(&buf)
	l.SetAllFlags(0)
	l.Infof("hidden")
	l.Warnf("shown %d", 1)
	l.Errorf("shown %d", 2)
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message printed at warn level: %q", out)
	}
	if !strings.Contains(out, "[WARN] shown 1") || !strings.Contains(out, "[ERROR] shown 2") {
		t.Errorf("missing messages: %q", out)
	}
	if l.Enabled(InfoLevel) || !l.Enabled(ErrLevel) {
		t.Errorf("unexpected enabled levels for %s", l.Level())
	}
}

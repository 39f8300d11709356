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

package formatutil

import (
	"strings"
	"testing"
)

type label string

func (l label) String() string { return string(l) }

func TestSanitize(t *testing.T) {
	for in, want := range map[string]string{
		"mov ecx, [ebp+5]": "mov ecx, [ebp+5]",
		"\033[1;31mred":     `\x1b[1;31mred`,
		"two\nlines":        `two\nlines`,
		"":                  "",
	} {
		if got := Sanitize(in); got != want {
			t.Errorf("Sanitize(%q) = %q, want %q", in, got, want)
		}
	}
	if got := SanitizeRepr(label("a\tb")); got != `a\tb` {
		t.Errorf("SanitizeRepr = %q", got)
	}
}

func TestColorWithoutTerminal(t *testing.T) {
	// tests do not write to a terminal
	if got := Red("eax", 1); strings.Contains(got, "\033") || got != "eax1" {
		t.Errorf("expected plain output, got %q", got)
	}
}

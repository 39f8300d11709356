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
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWriteColumns(t *testing.T) {
	for _, test := range []struct {
		name  string
		width int
		want  []string
	}{
		{"two rows", 12, []string{"a   c", "b   d"}},
		{"narrow", 2, []string{"a", "b", "c", "d"}},
		{"one row", 80, []string{"a   b   c   d"}},
	} {
		t.Run(test.name, func(t *testing.T) {
			_, tt, out := newTestSession(t)
			out.Reset()
			entries := []listEntry{{label: "a"}, {label: "b"}, {label: "c"}, {label: "d"}}
			writeColumns(tt, test.width, entries)
			var got []string
			printed := strings.ReplaceAll(out.String(), string(tt.Escape.Reset), "")
			for _, line := range strings.Split(strings.TrimRight(printed, "\r\n"), "\n") {
				got = append(got, strings.TrimRight(line, " \r"))
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("columns mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWriteHelp(t *testing.T) {
	_, tt, out := newTestSession(t)
	out.Reset()
	writeHelp(tt, "track", "track a register", "Options:", "  -f  forward")
	got := out.String()
	for _, want := range []string{"track", " : track a register", "\t  Options:", "\t    -f  forward"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in %q", want, got)
		}
	}
}

func TestWriteWithPercent(t *testing.T) {
	_, tt, out := newTestSession(t)
	out.Reset()
	WriteSuccess(tt, "100% done")
	if !strings.Contains(out.String(), "100% done") {
		t.Errorf("unexpected output %q", out.String())
	}
}

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

package reil

import "testing"

func TestAddressEncoding(t *testing.T) {
	a := MakeAddress(0x401000, 3)
	if uint64(a) != 0x401000<<8|3 {
		t.Errorf("unexpected encoding %#x", uint64(a))
	}
	if a.Native() != 0x401000 || a.Sub() != 3 {
		t.Errorf("decoded %#x.%d", a.Native(), a.Sub())
	}
	if a.String() != "00401000.03" {
		t.Errorf("unexpected string %q", a.String())
	}
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		text    string
		want    Address
		wantErr bool
	}{
		{text: "1000.02", want: MakeAddress(0x1000, 2)},
		{text: "0x1000.ff", want: MakeAddress(0x1000, 0xff)},
		{text: "00401000.00", want: MakeAddress(0x401000, 0)},
		{text: "1000", wantErr: true},
		{text: "1000.100", wantErr: true},
		{text: "zz.01", wantErr: true},
	}
	for _, test := range tests {
		got, err := ParseAddress(test.text)
		if (err != nil) != test.wantErr {
			t.Errorf("ParseAddress(%q) error = %v, wantErr %v", test.text, err, test.wantErr)
			continue
		}
		if !test.wantErr && got != test.want {
			t.Errorf("ParseAddress(%q) = %s, want %s", test.text, got, test.want)
		}
	}
}

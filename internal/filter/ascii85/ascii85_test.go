// seehuhn.de/go/pdfsdk - a library for reading, writing and transforming PDF files
// Copyright (C) 2025  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package ascii85

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestDecode(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"87cURD]i,\"Ebo80~>", "Hello World!"},
		{"<~87cURD]i,\"Ebo80~>", "Hello World!"},
		{"87cUR\nD]i,\"Eb o80~>", "Hello World!"},
		{"z~>", "\x00\x00\x00\x00"},
		{"~>", ""},
	}
	for _, test := range cases {
		got, err := io.ReadAll(Decode(strings.NewReader(test.in)))
		if err != nil {
			t.Errorf("%q: %v", test.in, err)
			continue
		}
		if string(got) != test.want {
			t.Errorf("%q: got %q, want %q", test.in, got, test.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 2, 3, 4, 5, 100, 1001} {
		data := make([]byte, n)
		for i := range data {
			data[i] = byte(i * 31)
		}
		buf := &bytes.Buffer{}
		enc := Encode(nopCloser{buf})
		enc.Write(data)
		if err := enc.Close(); err != nil {
			t.Fatal(err)
		}
		if !strings.HasSuffix(buf.String(), "~>") {
			t.Errorf("n=%d: missing end-of-data marker", n)
		}
		got, err := io.ReadAll(Decode(buf))
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, data) {
			t.Errorf("n=%d: round trip failed", n)
		}
	}
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

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

package asciihex

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEncode(t *testing.T) {
	cases := []struct {
		in  []byte
		out string
	}{
		{[]byte("ABC"), "414243>"},
		{[]byte(" "), "20>"},
		{[]byte(""), ">"},
		{[]byte{0x00, 0x0F, 0xF0, 0xFF}, "000ff0ff>"},
	}
	for _, test := range cases {
		buf := &bytes.Buffer{}
		enc := Encode(withDummyClose{buf}, 79)
		_, err := enc.Write(test.in)
		if err != nil {
			t.Fatal(err)
		}
		err = enc.Close()
		if err != nil {
			t.Fatal(err)
		}
		if got := buf.String(); got != test.out {
			t.Errorf("%q: got %q, want %q", test.in, got, test.out)
		}
	}
}

func TestLineWidth(t *testing.T) {
	for _, w := range []int{2, 39, 40, 80} {
		buf := &bytes.Buffer{}
		enc := Encode(withDummyClose{buf}, w)
		enc.Write(bytes.Repeat([]byte{0x1E}, 3*w))
		enc.Close()

		scanner := bufio.NewScanner(buf)
		for scanner.Scan() {
			if line := scanner.Text(); len(line) > w {
				t.Errorf("width %d: line %q too long", w, line)
			}
		}
	}
}

func TestDecode(t *testing.T) {
	cases := []struct {
		in   string
		want []byte
	}{
		{"414243>", []byte("ABC")},
		{"41 42\n43>", []byte("ABC")},
		{"4>", []byte{0x40}},
		{"FFfe>", []byte{0xFF, 0xFE}},
		{">", nil},
	}
	for _, test := range cases {
		got, err := io.ReadAll(Decode(strings.NewReader(test.in)))
		if err != nil {
			t.Errorf("%q: %v", test.in, err)
			continue
		}
		if d := cmp.Diff(test.want, got, cmpEmpty); d != "" {
			t.Errorf("%q: (-want +got):\n%s", test.in, d)
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	for _, in := range []string{"41x>", "4142"} {
		_, err := io.ReadAll(Decode(strings.NewReader(in)))
		if err == nil {
			t.Errorf("%q: expected an error", in)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	data := make([]byte, 1000)
	for i := range data {
		data[i] = byte(i * 7)
	}
	buf := &bytes.Buffer{}
	enc := Encode(withDummyClose{buf}, 64)
	enc.Write(data)
	enc.Close()

	got, err := io.ReadAll(Decode(buf))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Error("round trip failed")
	}
}

var cmpEmpty = cmp.Comparer(func(a, b []byte) bool { return bytes.Equal(a, b) })

type withDummyClose struct {
	io.Writer
}

func (w withDummyClose) Close() error {
	return nil
}

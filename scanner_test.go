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

package pdf

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestRefill(t *testing.T) {
	n := scannerBufSize + 2
	buf := make([]byte, n)
	s := newScanner(bytes.NewReader(buf), nil)

	for _, inc := range []int{0, 1, scannerBufSize, 1} {
		s.pos += inc
		err := s.refill()
		total := int(s.total) + s.pos
		expectUsed := min(scannerBufSize, n-total)
		if err != nil || s.pos != 0 || s.used != expectUsed {
			t.Errorf("%d: s.pos = %d, s.used = %d, %v",
				total, s.pos, s.used, err)
		}
	}
}

func TestReadObject(t *testing.T) {
	cases := []struct {
		in   string
		want string // formatted result, empty for an error
	}{
		{"null", "null"},
		{"true", "true"},
		{"false", "false"},
		{"TRUE", ""},

		{"0", "0"},
		{"+0", "0"},
		{"-0", "0"},
		{"+12", "12"},
		{"-4567", "-4567"},
		{"999999999999999999", "999999999999999999"},

		{".5", "0.5"},
		{"+.5", "0.5"},
		{"-.5", "-0.5"},
		{"-0.5", "-0.5"},
		{"3.", "3."},

		{"/a", "/a"},
		{"/A;Name_With-Various***Characters?", "/A;Name_With-Various***Characters?"},
		{"/A#42", "/AB"},
		{"/F#23#20minor", "/F#23#20minor"},
		{"/1#2E5", "/1.5"},

		{"()", "()"},
		{"(test string)", "(test string)"},
		{"(he(ll)o)", "(he(ll)o)"},
		{`(he\)ll\(o)`, `(he\)ll\(o)`},
		{"(hello\r\n)", `(hello\n)`},
		{"(hell\\\no)", "(hello)"},
		{`(h\145llo)`, "(hello)"},
		{`(\0612)`, "(12)"},

		{"<>", "()"},
		{"<68656c6c6f>", "(hello)"},
		{"<68 65 6C 6C 6F>", "(hello)"},
		{"<68656C7>", "(help)"},

		{"[1 2 3]", "[1 2 3]"},
		{"[1 2 3 R 4]", "[1 2 3 R 4]"},
		{"[/a[/b]]", "[/a [/b]]"},
		{"<< /key 12 /val /23 >>", "<<\n/key 12\n/val /23\n>>"},
		{"<</b 1/a 2/c null>>", "<<\n/a 2\n/b 1\n>>"},
		{"[", ""},
	}
	for _, test := range cases {
		s := newScanner(strings.NewReader(test.in), nil)
		obj, err := s.ReadObject()
		if test.want == "" {
			if err == nil {
				t.Errorf("%q: expected an error, got %s", test.in, Format(obj))
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error %v", test.in, err)
			continue
		}
		if got := Format(obj); got != test.want {
			t.Errorf("%q: got %q, want %q", test.in, got, test.want)
		}
	}
}

func TestReadReference(t *testing.T) {
	s := newScanner(strings.NewReader("12 0 R"), nil)
	obj, err := s.ReadObject()
	if err != nil {
		t.Fatal(err)
	}
	if obj.Type() != TypeReference || obj.Target() != NewRef(12, 0) {
		t.Errorf("got %s", Format(obj))
	}

	// an integer followed by an integer which is not a reference
	s = newScanner(strings.NewReader("12 0 obj"), nil)
	obj, err = s.ReadObject()
	if err != nil {
		t.Fatal(err)
	}
	if !obj.IsInteger() || obj.Integer() != 12 {
		t.Errorf("got %s", Format(obj))
	}
}

func TestReadIndirectObject(t *testing.T) {
	in := "7 1 obj\n<</Length 5>>\nstream\nhello\nendstream\nendobj\n"
	s := newScanner(strings.NewReader(in), nil)
	s.streamLength = func(o *Object) (int64, error) { return o.Integer(), nil }
	ref, obj, err := s.ReadIndirectObject()
	if err != nil {
		t.Fatal(err)
	}
	if ref != NewRef(7, 1) {
		t.Errorf("wrong reference %s", ref)
	}
	data, err := obj.Stream().Data(true)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Errorf("wrong stream data %q", data)
	}
}

func TestStreamWithoutLength(t *testing.T) {
	in := "<<>>\nstream\r\nsome data\r\nendstream"
	s := newScanner(strings.NewReader(in), nil)
	obj, err := s.ReadObject()
	if err != nil {
		t.Fatal(err)
	}
	stm := obj.Stream()
	data, _ := stm.Data(true)
	if string(data) != "some data" {
		t.Errorf("wrong stream data %q", data)
	}
	if stm.Dict().GetInteger("Length") != 9 {
		t.Errorf("wrong /Length %d", stm.Dict().GetInteger("Length"))
	}
}

func TestSkipWhiteSpace(t *testing.T) {
	s := newScanner(strings.NewReader("  % comment\n\t/x"), nil)
	err := s.SkipWhiteSpace()
	if err != nil {
		t.Fatal(err)
	}
	name, err := s.ReadName()
	if err != nil || name != "x" {
		t.Errorf("got %q, %v", name, err)
	}
	err = s.SkipWhiteSpace()
	if err != nil {
		t.Error(err)
	}
	_, err = s.ReadObject()
	if err == nil || err == io.EOF {
		t.Errorf("expected a malformed file error, got %v", err)
	}
}

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

package runlength

import (
	"bytes"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRoundTrip(t *testing.T) {
	testCases := [][]byte{
		{},
		{0},
		{0, 0},
		{0, 0, 0},
		{1, 2, 3, 4, 5},
		{1, 1, 1, 1, 1},
		{0, 1, 2, 3, 0, 0, 0, 0, 4, 5, 6},
		bytes.Repeat([]byte{7}, 128),
		bytes.Repeat([]byte{8}, 129),
		bytes.Repeat([]byte{1, 2, 3}, 400),
		append(bytes.Repeat([]byte{1, 2}, 300), bytes.Repeat([]byte{9}, 1000)...),
	}

	for i, data := range testCases {
		buf := &bytes.Buffer{}
		enc := Encode(withDummyClose{buf})
		// write in small pieces to exercise the buffering
		for k := 0; k < len(data); k += 77 {
			_, err := enc.Write(data[k:min(k+77, len(data))])
			if err != nil {
				t.Fatalf("case %d: %v", i, err)
			}
		}
		err := enc.Close()
		if err != nil {
			t.Fatalf("case %d: %v", i, err)
		}

		out, err := io.ReadAll(Decode(buf))
		if err != nil {
			t.Fatalf("case %d: decode: %v", i, err)
		}
		if diff := cmp.Diff(data, out, cmp.Comparer(bytes.Equal)); diff != "" {
			t.Errorf("case %d: round trip failed (-want +got):\n%s", i, diff)
		}
	}
}

func TestDecode(t *testing.T) {
	in := []byte{2, 'a', 'b', 'c', 254, 'x', 128, 'z'}
	out, err := io.ReadAll(Decode(bytes.NewReader(in)))
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "abcxxx" {
		t.Errorf("got %q", out)
	}
}

func TestCompression(t *testing.T) {
	buf := &bytes.Buffer{}
	enc := Encode(withDummyClose{buf})
	enc.Write(bytes.Repeat([]byte{0}, 1280))
	enc.Close()
	if buf.Len() != 10*2+1 {
		t.Errorf("encoded length %d, want %d", buf.Len(), 10*2+1)
	}
}

type withDummyClose struct {
	io.Writer
}

func (w withDummyClose) Close() error {
	return nil
}

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

package lzw

import (
	"bytes"
	"io"
	"math/rand"
	"testing"
)

func TestExample(t *testing.T) {
	// example 1 from section 7.4.4.2 of PDF 32000-1:2008
	in := []byte{45, 45, 45, 45, 45, 65, 45, 45, 45, 66}
	expected := []byte{0x80, 0x0B, 0x60, 0x50, 0x22, 0x0C, 0x0C, 0x85, 0x01}

	for _, ec := range []bool{false, true} {
		buf := &bytes.Buffer{}
		w := Encode(nopCloser{buf}, ec)
		_, err := w.Write(in)
		if err != nil {
			t.Fatal(err)
		}
		err = w.Close()
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(buf.Bytes(), expected) {
			t.Errorf("earlyChange=%t: got % X, want % X", ec, buf.Bytes(), expected)
		}

		out, err := io.ReadAll(Decode(bytes.NewReader(expected), ec))
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(out, in) {
			t.Errorf("earlyChange=%t: decoded % X", ec, out)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	var in []byte
	for len(in) < 100000 {
		// a mix of repetitive and random data fills the code table
		// several times
		if rng.Intn(2) == 0 {
			in = append(in, bytes.Repeat([]byte{byte(rng.Intn(4))}, rng.Intn(50))...)
		} else {
			for range rng.Intn(50) {
				in = append(in, byte(rng.Intn(256)))
			}
		}
	}

	for _, ec := range []bool{false, true} {
		buf := &bytes.Buffer{}
		w := Encode(nopCloser{buf}, ec)
		for k := 0; k < len(in); k += 1000 {
			_, err := w.Write(in[k:min(k+1000, len(in))])
			if err != nil {
				t.Fatal(err)
			}
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}

		out, err := io.ReadAll(Decode(buf, ec))
		if err != nil {
			t.Fatalf("earlyChange=%t: %v", ec, err)
		}
		if !bytes.Equal(out, in) {
			t.Errorf("earlyChange=%t: round trip failed", ec)
		}
	}
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

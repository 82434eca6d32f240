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

package predict

import (
	"bytes"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func decodeAll(t *testing.T, in []byte, p Params) []byte {
	t.Helper()
	r, err := NewReader(bytes.NewReader(in), p)
	if err != nil {
		t.Fatal(err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func TestPNG(t *testing.T) {
	p := Params{Predictor: 12, Colors: 1, BitsPerComponent: 8, Columns: 3}
	in := []byte{
		0, 1, 2, 3, // None
		1, 1, 1, 1, // Sub
		2, 1, 1, 1, // Up
		3, 2, 2, 2, // Average
		4, 0, 0, 0, // Paeth
	}
	want := []byte{
		1, 2, 3,
		1, 2, 3,
		2, 3, 4,
		3, 5, 6,
		3, 5, 6,
	}
	got := decodeAll(t, in, p)
	if d := cmp.Diff(want, got); d != "" {
		t.Error(d)
	}
}

func TestTIFF(t *testing.T) {
	p := Params{Predictor: 2, Colors: 2, BitsPerComponent: 8, Columns: 3}
	in := []byte{10, 20, 1, 2, 1, 2}
	want := []byte{10, 20, 11, 22, 12, 24}
	got := decodeAll(t, in, p)
	if d := cmp.Diff(want, got); d != "" {
		t.Error(d)
	}
}

func TestTIFFSmallComponents(t *testing.T) {
	// four 2-bit samples: 1, +1, +1, +0
	p := Params{Predictor: 2, Colors: 1, BitsPerComponent: 2, Columns: 4}
	in := []byte{0b01_01_01_00}
	want := []byte{0b01_10_11_11}
	got := decodeAll(t, in, p)
	if d := cmp.Diff(want, got); d != "" {
		t.Error(d)
	}
}

func TestIdentity(t *testing.T) {
	in := []byte("unchanged")
	got := decodeAll(t, in, Default())
	if !bytes.Equal(got, in) {
		t.Errorf("got %q", got)
	}
}

func TestValidate(t *testing.T) {
	bad := []Params{
		{Predictor: 3, Colors: 1, BitsPerComponent: 8, Columns: 1},
		{Predictor: 12, Colors: 0, BitsPerComponent: 8, Columns: 1},
		{Predictor: 12, Colors: 1, BitsPerComponent: 3, Columns: 1},
		{Predictor: 12, Colors: 1, BitsPerComponent: 8, Columns: 0},
	}
	for _, p := range bad {
		if err := p.Validate(); err == nil {
			t.Errorf("%v: expected an error", p)
		}
	}
}

type nopCloser struct {
	*bytes.Buffer
}

func (nopCloser) Close() error { return nil }

func TestRoundTrip(t *testing.T) {
	data := make([]byte, 0, 200)
	for i := range 200 {
		data = append(data, byte(i*i/7+3*i))
	}
	var params []Params
	for _, pred := range []int{2, 10, 11, 12, 13, 14, 15} {
		params = append(params,
			Params{Predictor: pred, Colors: 1, BitsPerComponent: 8, Columns: 10},
			Params{Predictor: pred, Colors: 3, BitsPerComponent: 8, Columns: 7},
			Params{Predictor: pred, Colors: 2, BitsPerComponent: 16, Columns: 5},
			Params{Predictor: pred, Colors: 1, BitsPerComponent: 4, Columns: 9},
			Params{Predictor: pred, Colors: 3, BitsPerComponent: 1, Columns: 13},
		)
	}
	for _, p := range params {
		// full rows and a truncated last row
		for _, n := range []int{0, 1, p.rowBytes() * 3, len(data)} {
			buf := &bytes.Buffer{}
			w, err := NewWriter(nopCloser{buf}, p)
			if err != nil {
				t.Fatal(err)
			}
			// write in uneven pieces
			in := data[:n]
			for len(in) > 0 {
				k := min(len(in), 7)
				if _, err := w.Write(in[:k]); err != nil {
					t.Fatal(err)
				}
				in = in[k:]
			}
			if err := w.Close(); err != nil {
				t.Fatal(err)
			}

			got := decodeAll(t, buf.Bytes(), p)
			if d := cmp.Diff(data[:n], got); d != "" && !(n == 0 && len(got) == 0) {
				t.Errorf("%v, %d bytes: (-want +got)\n%s", p, n, d)
			}
		}
	}
}

func TestEncodePNGUp(t *testing.T) {
	p := Params{Predictor: 12, Colors: 1, BitsPerComponent: 8, Columns: 3}
	buf := &bytes.Buffer{}
	w, err := NewWriter(nopCloser{buf}, p)
	if err != nil {
		t.Fatal(err)
	}
	w.Write([]byte{1, 2, 3, 2, 3, 4})
	w.Close()
	want := []byte{2, 1, 2, 3, 2, 1, 1, 1}
	if d := cmp.Diff(want, buf.Bytes()); d != "" {
		t.Error(d)
	}
}

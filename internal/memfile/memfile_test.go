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

package memfile

import (
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWriteRead(t *testing.T) {
	f := New()
	_, err := f.Write([]byte("hello world"))
	if err != nil {
		t.Fatal(err)
	}
	_, err = f.Seek(6, io.SeekStart)
	if err != nil {
		t.Fatal(err)
	}
	_, err = f.Write([]byte("there!"))
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff("hello there!", string(f.Data)); d != "" {
		t.Errorf("unexpected contents (-want +got):\n%s", d)
	}

	buf := make([]byte, 5)
	n, err := f.ReadAt(buf, 9)
	if n != 3 || err != io.EOF {
		t.Errorf("ReadAt: got %d, %v", n, err)
	}
}

func TestBlocks(t *testing.T) {
	f := New()
	err := f.WriteBlock([]byte("abc"), 2)
	if err != nil {
		t.Fatal(err)
	}
	if f.Size() != 5 {
		t.Fatalf("wrong size %d", f.Size())
	}
	buf := make([]byte, 3)
	err = f.ReadBlock(buf, 2)
	if err != nil {
		t.Fatal(err)
	}
	if string(buf) != "abc" {
		t.Errorf("got %q", buf)
	}
	err = f.ReadBlock(buf, 4)
	if err == nil {
		t.Error("reading beyond the end succeeded")
	}
}

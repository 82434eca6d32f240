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

// Package ascii85 implements the ASCII85Decode filter on top of the
// base-85 codec from the standard library.
package ascii85

import (
	"bufio"
	"encoding/ascii85"
	"io"
)

// Decode returns a reader which decodes ASCII base-85 data.  An optional
// leading "<~" is skipped and "~>" ends the data.
func Decode(r io.Reader) io.ReadCloser {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(2); err == nil && string(prefix) == "<~" {
		br.Discard(2)
	}
	return io.NopCloser(ascii85.NewDecoder(&eodReader{r: br}))
}

// eodReader passes data through up to the '~' of the end-of-data marker.
type eodReader struct {
	r    *bufio.Reader
	done bool
}

func (r *eodReader) Read(p []byte) (int, error) {
	if r.done {
		return 0, io.EOF
	}
	n := 0
	for n < len(p) {
		c, err := r.r.ReadByte()
		if err != nil {
			r.done = true
			break
		}
		if c == '~' {
			r.done = true
			break
		}
		p[n] = c
		n++
	}
	if n == 0 && r.done {
		return 0, io.EOF
	}
	return n, nil
}

// Encode returns a writer which encodes data in ASCII base-85 form.
// Closing the writer appends the "~>" marker and closes w.
func Encode(w io.WriteCloser) io.WriteCloser {
	return &writer{enc: ascii85.NewEncoder(w), w: w}
}

type writer struct {
	enc io.WriteCloser
	w   io.WriteCloser
}

func (w *writer) Write(p []byte) (int, error) {
	return w.enc.Write(p)
}

func (w *writer) Close() error {
	err := w.enc.Close()
	if err != nil {
		return err
	}
	_, err = w.w.Write([]byte("~>"))
	if err != nil {
		return err
	}
	return w.w.Close()
}

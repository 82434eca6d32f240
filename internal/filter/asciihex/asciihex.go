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

// Package asciihex implements the ASCIIHexDecode filter.
package asciihex

import (
	"bufio"
	"fmt"
	"io"
)

// Decode returns a reader which decodes ASCII hexadecimal data.
// White space is ignored and the '>' marker ends the data.  A missing final
// digit is taken to be zero.
func Decode(r io.Reader) io.ReadCloser {
	return &reader{r: bufio.NewReader(r)}
}

type reader struct {
	r   *bufio.Reader
	err error
}

func hexValue(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

func (r *reader) Read(p []byte) (int, error) {
	n := 0
	var nib [2]byte
	have := 0
	for n < len(p) && r.err == nil {
		c, err := r.r.ReadByte()
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		if err != nil {
			r.err = err
			break
		}

		if c == '>' {
			if have == 1 {
				p[n] = nib[0] << 4
				n++
			}
			r.err = io.EOF
			break
		}
		if v, ok := hexValue(c); ok {
			nib[have] = v
			have++
			if have == 2 {
				p[n] = nib[0]<<4 | nib[1]
				n++
				have = 0
			}
			continue
		}
		switch c {
		case 0, '\t', '\n', '\f', '\r', ' ':
			continue
		}
		r.err = fmt.Errorf("asciihex: invalid character %q", c)
	}
	if n > 0 {
		return n, nil
	}
	return 0, r.err
}

func (r *reader) Close() error {
	if r.err == io.EOF {
		return nil
	}
	return r.err
}

// Encode returns a writer which writes ASCII hexadecimal data to w,
// with lines of at most width characters.  Closing the returned writer
// appends the end-of-data marker and closes w.
func Encode(w io.WriteCloser, width int) io.WriteCloser {
	width = max(width, 2) &^ 1
	return &writer{w: w, width: width}
}

type writer struct {
	w     io.WriteCloser
	width int
	col   int
	buf   []byte
}

const digits = "0123456789abcdef"

func (w *writer) Write(p []byte) (int, error) {
	w.buf = w.buf[:0]
	for _, c := range p {
		if w.col+2 > w.width {
			w.buf = append(w.buf, '\n')
			w.col = 0
		}
		w.buf = append(w.buf, digits[c>>4], digits[c&15])
		w.col += 2
	}
	_, err := w.w.Write(w.buf)
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *writer) Close() error {
	marker := []byte(">")
	if w.col+1 > w.width {
		marker = []byte("\n>")
	}
	_, err := w.w.Write(marker)
	if err != nil {
		return err
	}
	return w.w.Close()
}

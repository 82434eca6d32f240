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

// Package runlength implements the RunLengthDecode filter.
package runlength

import (
	"bufio"
	"io"
)

// Decode returns a reader which decodes run-length encoded data.
func Decode(r io.Reader) io.ReadCloser {
	return &reader{r: bufio.NewReader(r)}
}

type reader struct {
	r *bufio.Reader

	// the current segment: either count literal bytes from r,
	// or count copies of val
	count   int
	literal bool
	val     byte

	err error
}

func (r *reader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) && r.err == nil {
		if r.count == 0 {
			r.nextSegment()
			continue
		}
		k := min(r.count, len(p)-n)
		if r.literal {
			m, err := io.ReadFull(r.r, p[n:n+k])
			n += m
			r.count -= m
			if err != nil {
				r.err = io.ErrUnexpectedEOF
			}
		} else {
			for i := range k {
				p[n+i] = r.val
			}
			n += k
			r.count -= k
		}
	}
	if n > 0 {
		return n, nil
	}
	return 0, r.err
}

func (r *reader) nextSegment() {
	length, err := r.r.ReadByte()
	if err != nil {
		// a missing EOD marker is tolerated
		r.err = io.EOF
		return
	}
	switch {
	case length == 128:
		r.err = io.EOF
	case length < 128:
		r.count = int(length) + 1
		r.literal = true
	default:
		val, err := r.r.ReadByte()
		if err != nil {
			r.err = io.ErrUnexpectedEOF
			return
		}
		r.count = 257 - int(length)
		r.literal = false
		r.val = val
	}
}

func (r *reader) Close() error {
	if r.err == io.EOF {
		return nil
	}
	return r.err
}

// Encode returns a writer which run-length encodes data and writes the
// result to w.  Closing the returned writer writes the end-of-data marker
// and closes w.
func Encode(w io.WriteCloser) io.WriteCloser {
	return &writer{w: w}
}

type writer struct {
	w       io.WriteCloser
	pending []byte
	out     []byte
}

// lookahead is the number of bytes needed to decide on the next segment.
const lookahead = 128 + 2

func (w *writer) Write(p []byte) (int, error) {
	w.pending = append(w.pending, p...)
	if len(w.pending) < 4*lookahead {
		return len(p), nil
	}
	err := w.flush(false)
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *writer) flush(final bool) error {
	p := w.pending
	out := w.out[:0]
	i := 0
	for i < len(p) {
		if !final && len(p)-i < lookahead {
			break
		}

		j := i + 1
		for j < len(p) && j-i < 128 && p[j] == p[i] {
			j++
		}
		if j-i >= 2 {
			out = append(out, byte(257-(j-i)), p[i])
			i = j
			continue
		}

		k := i
		for k < len(p) && k-i < 128 {
			if k+2 < len(p) && p[k] == p[k+1] && p[k] == p[k+2] {
				break
			}
			k++
		}
		out = append(out, byte(k-i-1))
		out = append(out, p[i:k]...)
		i = k
	}
	rest := copy(p, p[i:])
	w.pending = p[:rest]
	w.out = out

	_, err := w.w.Write(out)
	return err
}

func (w *writer) Close() error {
	err := w.flush(true)
	if err != nil {
		return err
	}
	_, err = w.w.Write([]byte{128})
	if err != nil {
		return err
	}
	return w.w.Close()
}

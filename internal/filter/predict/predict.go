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

// Package predict implements the TIFF and PNG predictors which can be
// applied to image data before Flate or LZW compression.
package predict

import (
	"errors"
	"fmt"
	"io"
)

// Params holds the predictor entries of a /DecodeParms dictionary.
type Params struct {
	Predictor        int
	Colors           int
	BitsPerComponent int
	Columns          int
}

// Default returns the parameters used when the dictionary has no
// predictor entries.
func Default() Params {
	return Params{Predictor: 1, Colors: 1, BitsPerComponent: 8, Columns: 1}
}

// Validate checks that the parameters describe a supported predictor.
func (p *Params) Validate() error {
	switch p.Predictor {
	case 1:
		return nil
	case 2, 10, 11, 12, 13, 14, 15:
		// pass
	default:
		return fmt.Errorf("unsupported predictor %d", p.Predictor)
	}
	if p.Colors < 1 || p.Colors > 256 {
		return errors.New("invalid number of colors")
	}
	switch p.BitsPerComponent {
	case 1, 2, 4, 8, 16:
		// pass
	default:
		return fmt.Errorf("invalid BitsPerComponent %d", p.BitsPerComponent)
	}
	if p.Columns < 1 || p.Columns > 1<<20 {
		return errors.New("invalid number of columns")
	}
	return nil
}

func (p *Params) rowBytes() int {
	return (p.Colors*p.BitsPerComponent*p.Columns + 7) / 8
}

func (p *Params) pixelBytes() int {
	return max(1, p.Colors*p.BitsPerComponent/8)
}

// NewReader returns a reader which undoes the predictor described by p on
// the data read from r.
func NewReader(r io.Reader, p Params) (io.Reader, error) {
	err := p.Validate()
	if err != nil {
		return nil, err
	}
	if p.Predictor == 1 {
		return r, nil
	}

	n := p.rowBytes()
	res := &reader{
		r:    r,
		p:    p,
		prev: make([]byte, n),
		cur:  make([]byte, n),
	}
	if p.Predictor >= 10 {
		res.in = make([]byte, n+1)
	} else {
		res.in = make([]byte, n)
	}
	return res, nil
}

type reader struct {
	r    io.Reader
	p    Params
	in   []byte
	prev []byte
	cur  []byte
	pend []byte
	err  error
}

func (r *reader) Read(buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		if len(r.pend) > 0 {
			k := copy(buf[n:], r.pend)
			r.pend = r.pend[k:]
			n += k
			continue
		}
		if r.err != nil {
			break
		}
		r.err = r.nextRow()
	}
	if n > 0 {
		return n, nil
	}
	return 0, r.err
}

func (r *reader) nextRow() error {
	m, err := io.ReadFull(r.r, r.in)
	if err == io.ErrUnexpectedEOF {
		// a truncated last row is decoded as far as possible
		clear(r.in[m:])
		err = nil
	}
	if err != nil {
		return err
	}

	if r.p.Predictor == 2 {
		copy(r.cur, r.in)
		r.undoTIFF()
	} else {
		err = r.undoPNG()
		if err != nil {
			return err
		}
	}
	r.prev, r.cur = r.cur, r.prev
	r.pend = r.prev
	if m < len(r.in) {
		// only the bytes present in the input are returned
		k := m
		if r.p.Predictor >= 10 {
			k = max(m-1, 0)
		}
		r.pend = r.prev[:k]
		return io.EOF
	}
	return nil
}

func (r *reader) undoPNG() error {
	bpp := r.p.pixelBytes()
	row := r.in[1:]
	cur, prev := r.cur, r.prev
	switch r.in[0] {
	case 0:
		copy(cur, row)
	case 1:
		for i := range row {
			var left byte
			if i >= bpp {
				left = cur[i-bpp]
			}
			cur[i] = row[i] + left
		}
	case 2:
		for i := range row {
			cur[i] = row[i] + prev[i]
		}
	case 3:
		for i := range row {
			var left int
			if i >= bpp {
				left = int(cur[i-bpp])
			}
			cur[i] = row[i] + byte((left+int(prev[i]))/2)
		}
	case 4:
		for i := range row {
			var left, upLeft byte
			if i >= bpp {
				left = cur[i-bpp]
				upLeft = prev[i-bpp]
			}
			cur[i] = row[i] + paeth(left, prev[i], upLeft)
		}
	default:
		return fmt.Errorf("invalid PNG filter type %d", r.in[0])
	}
	return nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa := abs(p - int(a))
	pb := abs(p - int(b))
	pc := abs(p - int(c))
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	default:
		return c
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func (r *reader) undoTIFF() {
	colors := r.p.Colors
	row := r.cur
	switch bpc := r.p.BitsPerComponent; bpc {
	case 8:
		for i := colors; i < len(row); i++ {
			row[i] += row[i-colors]
		}
	case 16:
		for i := 2 * colors; i+1 < len(row); i += 2 {
			v := uint16(row[i])<<8 | uint16(row[i+1])
			w := uint16(row[i-2*colors])<<8 | uint16(row[i-2*colors+1])
			v += w
			row[i], row[i+1] = byte(v>>8), byte(v)
		}
	default:
		mask := byte(1<<bpc - 1)
		n := colors * r.p.Columns
		get := func(k int) byte {
			bit := k * bpc
			return row[bit/8] >> (8 - bpc - bit%8) & mask
		}
		set := func(k int, v byte) {
			bit := k * bpc
			shift := 8 - bpc - bit%8
			row[bit/8] = row[bit/8]&^(mask<<shift) | (v&mask)<<shift
		}
		for k := colors; k < n; k++ {
			set(k, get(k)+get(k-colors))
		}
	}
}

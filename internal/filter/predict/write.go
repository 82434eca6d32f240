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
	"io"
)

// NewWriter returns a writer which applies the predictor described by p to
// the data written to it and writes the result to w.  Closing the returned
// writer closes w.  A final incomplete row is encoded as far as it goes.
func NewWriter(w io.WriteCloser, p Params) (io.WriteCloser, error) {
	err := p.Validate()
	if err != nil {
		return nil, err
	}
	if p.Predictor == 1 {
		return w, nil
	}

	n := p.rowBytes()
	res := &writer{
		w:    w,
		p:    p,
		row:  make([]byte, n),
		prev: make([]byte, n),
	}
	if p.Predictor >= 10 {
		res.out = make([]byte, n+1)
	} else {
		res.out = make([]byte, n)
	}
	return res, nil
}

type writer struct {
	w    io.WriteCloser
	p    Params
	row  []byte
	fill int
	prev []byte
	out  []byte
}

func (w *writer) Write(buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		k := copy(w.row[w.fill:], buf[n:])
		w.fill += k
		n += k
		if w.fill == len(w.row) {
			err := w.flushRow()
			if err != nil {
				return n, err
			}
		}
	}
	return n, nil
}

func (w *writer) Close() error {
	if w.fill > 0 {
		err := w.flushRow()
		if err != nil {
			return err
		}
	}
	return w.w.Close()
}

func (w *writer) flushRow() error {
	row := w.row[:w.fill]
	var out []byte
	if w.p.Predictor == 2 {
		out = w.out[:len(row)]
		w.applyTIFF(out, row)
	} else {
		out = w.out[:len(row)+1]
		tag := byte(w.p.Predictor - 10)
		if w.p.Predictor == 15 {
			tag = w.bestPNG(row)
		}
		w.applyPNG(out, row, tag)
	}
	clear(w.prev)
	copy(w.prev, row)
	w.fill = 0
	_, err := w.w.Write(out)
	return err
}

// bestPNG chooses the PNG filter type for a row, using the minimum sum of
// absolute differences heuristic from the PNG specification.
func (w *writer) bestPNG(row []byte) byte {
	out := make([]byte, len(row)+1)
	best, bestScore := byte(0), -1
	for tag := byte(0); tag <= 4; tag++ {
		w.applyPNG(out, row, tag)
		score := 0
		for _, b := range out[1:] {
			score += abs(int(int8(b)))
		}
		if bestScore < 0 || score < bestScore {
			best, bestScore = tag, score
		}
	}
	return best
}

func (w *writer) applyPNG(out, row []byte, tag byte) {
	bpp := w.p.pixelBytes()
	prev := w.prev
	out[0] = tag
	for i, x := range row {
		var left, upLeft byte
		if i >= bpp {
			left = row[i-bpp]
			upLeft = prev[i-bpp]
		}
		up := prev[i]
		switch tag {
		case 0:
			out[i+1] = x
		case 1:
			out[i+1] = x - left
		case 2:
			out[i+1] = x - up
		case 3:
			out[i+1] = x - byte((int(left)+int(up))/2)
		case 4:
			out[i+1] = x - paeth(left, up, upLeft)
		}
	}
}

func (w *writer) applyTIFF(out, row []byte) {
	colors := w.p.Colors
	copy(out, row)
	switch bpc := w.p.BitsPerComponent; bpc {
	case 8:
		for i := colors; i < len(row); i++ {
			out[i] = row[i] - row[i-colors]
		}
	case 16:
		for i := 2 * colors; i+1 < len(row); i += 2 {
			v := uint16(row[i])<<8 | uint16(row[i+1])
			u := uint16(row[i-2*colors])<<8 | uint16(row[i-2*colors+1])
			v -= u
			out[i], out[i+1] = byte(v>>8), byte(v)
		}
	default:
		mask := byte(1<<bpc - 1)
		n := min(colors*w.p.Columns, len(row)*8/bpc)
		get := func(buf []byte, k int) byte {
			bit := k * bpc
			return buf[bit/8] >> (8 - bpc - bit%8) & mask
		}
		for k := colors; k < n; k++ {
			bit := k * bpc
			shift := 8 - bpc - bit%8
			v := get(row, k) - get(row, k-colors)
			out[bit/8] = out[bit/8]&^(mask<<shift) | (v&mask)<<shift
		}
	}
}

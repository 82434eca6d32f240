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

// Package lzw implements the LZWDecode filter.
//
// Decoding uses compress/lzw for streams with EarlyChange 0 and the TIFF
// variant from golang.org/x/image, which increases the code width one code
// early, for EarlyChange 1.  Both variants are implemented by the encoder.
package lzw

import (
	"compress/lzw"
	"io"
	"math/bits"

	tifflzw "golang.org/x/image/tiff/lzw"
)

const (
	clearCode = 256
	eodCode   = 257
	firstCode = 258

	minWidth = 9
	maxWidth = 12

	// resetAt is the table size at which the encoder starts afresh.
	// This leaves some room below 4096, so that decoders which stop
	// adding entries early still see every code.
	resetAt = 4093
)

// Decode returns a reader which decodes LZW-compressed data.
func Decode(r io.Reader, earlyChange bool) io.ReadCloser {
	if earlyChange {
		return tifflzw.NewReader(r, tifflzw.MSB, 8)
	}
	return lzw.NewReader(r, lzw.MSB, 8)
}

// Encode returns a writer which LZW-compresses data and writes the result
// to w.  Closing the returned writer writes the end-of-data code and closes
// w.
func Encode(w io.WriteCloser, earlyChange bool) io.WriteCloser {
	enc := &writer{
		w:      w,
		table:  make(map[uint32]uint16),
		prefix: -1,
	}
	if earlyChange {
		enc.ec = 1
	}
	enc.reset()
	enc.emit(clearCode)
	return enc
}

type writer struct {
	w  io.WriteCloser
	ec int

	table  map[uint32]uint16
	next   int
	prefix int

	acc   uint32
	nAcc  int
	out   []byte
	err   error
}

func (w *writer) reset() {
	clear(w.table)
	w.next = firstCode
}

// width returns the code width the decoder expects for the next code.
// The decoder defines each table entry one code later than the encoder,
// and this is accounted for by the -1.
func (w *writer) width() int {
	return max(minWidth, min(maxWidth, bits.Len(uint(w.next-1+w.ec))))
}

func (w *writer) emit(code int) {
	width := w.width()
	w.acc = w.acc<<width | uint32(code)
	w.nAcc += width
	for w.nAcc >= 8 {
		w.out = append(w.out, byte(w.acc>>(w.nAcc-8)))
		w.nAcc -= 8
	}
	w.acc &= 1<<w.nAcc - 1
}

func (w *writer) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	for _, c := range p {
		if w.prefix < 0 {
			w.prefix = int(c)
			continue
		}
		key := uint32(w.prefix)<<8 | uint32(c)
		if code, ok := w.table[key]; ok {
			w.prefix = int(code)
			continue
		}
		w.emit(w.prefix)
		w.table[key] = uint16(w.next)
		w.next++
		w.prefix = int(c)
		if w.next >= resetAt {
			w.emit(clearCode)
			w.reset()
		}
	}

	_, w.err = w.w.Write(w.out)
	w.out = w.out[:0]
	if w.err != nil {
		return 0, w.err
	}
	return len(p), nil
}

func (w *writer) Close() error {
	if w.err != nil {
		return w.err
	}
	if w.prefix >= 0 {
		w.emit(w.prefix)
		w.next++
	}
	w.emit(eodCode)
	if w.nAcc > 0 {
		w.out = append(w.out, byte(w.acc<<(8-w.nAcc)))
		w.nAcc = 0
	}
	_, err := w.w.Write(w.out)
	if err != nil {
		return err
	}
	return w.w.Close()
}

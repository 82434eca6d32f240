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

package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/bits"
)

// xrefEntry describes where an object is stored in a file.
type xrefEntry struct {
	free bool
	pos  int64  // byte offset, or index within the object stream
	gen  uint16 // generation number
	stm  uint32 // number of the containing object stream, or 0
}

// findStartXRef returns the position given after the last "startxref"
// keyword of the file.
func (r *reader) findStartXRef() (int64, error) {
	pos, err := r.lastOccurrence("startxref")
	if err != nil {
		return 0, err
	}
	s := r.scannerAt(pos + 9)
	err = s.SkipWhiteSpace()
	if err != nil {
		return 0, err
	}
	xrefPos, err := s.ReadInteger()
	if err != nil {
		return 0, err
	}
	if xrefPos <= 0 || xrefPos >= r.size {
		return 0, &MalformedFileError{
			Pos: pos,
			Err: errors.New("invalid xref position"),
		}
	}
	return xrefPos, nil
}

func (r *reader) lastOccurrence(pat string) (int64, error) {
	const chunkSize = 1024

	buf := make([]byte, chunkSize)
	k := int64(len(pat))
	pos := r.size
	for pos >= k {
		start := max(pos-chunkSize, 0)
		n, err := r.r.ReadAt(buf[:pos-start], start)
		if err != nil && err != io.EOF {
			return 0, err
		}
		idx := bytes.LastIndex(buf[:n], []byte(pat))
		if idx >= 0 {
			return start + int64(idx), nil
		}
		if start == 0 {
			break
		}
		pos = start + k - 1
	}
	return 0, &MalformedFileError{Err: errors.New("startxref not found")}
}

// readXRef reads the chain of cross-reference sections, starting with the
// most recent one.  Entries from newer sections take precedence.  The
// trailer dictionaries are returned newest first.
func (r *reader) readXRef(start int64) (map[uint32]*xrefEntry, []*Dict, error) {
	xref := make(map[uint32]*xrefEntry)
	var trailers []*Dict

	seen := make(map[int64]bool)
	for {
		if seen[start] {
			slog.Debug("loop in xref chain", slog.Int64("pos", start))
			break
		}
		seen[start] = true

		s := r.scannerAt(start)
		buf, err := s.Peek(4)
		if err != nil {
			return nil, nil, err
		}

		var dict *Dict
		if bytes.Equal(buf, []byte("xref")) {
			// hybrid files list the compressed objects in an additional
			// xref stream
			dict, err = r.readXRefTable(xref, s)
			if err != nil {
				return nil, nil, err
			}
			if stmPos := dict.GetDirect("XRefStm"); stmPos.IsInteger() {
				_, err := r.readXRefStream(xref, r.scannerAt(stmPos.Integer()))
				if err != nil {
					slog.Debug("cannot read hybrid xref stream", slog.Any("err", err))
				}
			}
		} else {
			dict, err = r.readXRefStream(xref, s)
			if err != nil {
				return nil, nil, err
			}
		}
		trailers = append(trailers, dict)

		prev := dict.GetDirect("Prev")
		if prev == nil {
			break
		}
		if !prev.IsInteger() || prev.Integer() <= 0 || prev.Integer() >= r.size {
			return nil, nil, &MalformedFileError{
				Pos: start,
				Err: fmt.Errorf("invalid /Prev value %s", Format(prev)),
			}
		}
		start = prev.Integer()
	}

	return xref, trailers, nil
}

func (r *reader) readXRefTable(xref map[uint32]*xrefEntry, s *scanner) (*Dict, error) {
	err := s.SkipString("xref")
	if err != nil {
		return nil, err
	}

	for {
		err = s.SkipWhiteSpace()
		if err != nil {
			return nil, err
		}
		buf, err := s.Peek(1)
		if err != nil {
			return nil, err
		}
		if len(buf) == 0 || buf[0] < '0' || buf[0] > '9' {
			break
		}

		start, err := s.ReadInteger()
		if err != nil {
			return nil, err
		}
		s.SkipWhiteSpace()
		count, err := s.ReadInteger()
		if err != nil {
			return nil, err
		}
		if start < 0 || count < 0 || start+count > 1<<32-1 {
			return nil, s.malformed(errors.New("invalid xref subsection"))
		}
		for i := start; i < start+count; i++ {
			entry, err := readXRefLine(s)
			if err != nil {
				return nil, err
			}
			num := uint32(i)
			if xref[num] == nil && num != 0 {
				xref[num] = entry
			}
		}
	}

	err = s.SkipString("trailer")
	if err != nil {
		return nil, err
	}
	err = s.SkipWhiteSpace()
	if err != nil {
		return nil, err
	}
	return s.ReadDict()
}

// readXRefLine reads one "oooooooooo ggggg n" entry.  The fields are parsed
// as tokens, since some writers get the fixed widths wrong.
func readXRefLine(s *scanner) (*xrefEntry, error) {
	s.SkipWhiteSpace()
	pos, err := s.ReadInteger()
	if err != nil {
		return nil, err
	}
	s.SkipWhiteSpace()
	gen, err := s.ReadInteger()
	if err != nil {
		return nil, err
	}
	// fix a common error in some PDF files
	gen = min(max(gen, 0), 65535)
	s.SkipWhiteSpace()
	buf, err := s.Peek(1)
	if err != nil {
		return nil, err
	}
	if len(buf) == 0 {
		return nil, s.malformed(io.ErrUnexpectedEOF)
	}
	s.pos++
	switch buf[0] {
	case 'n':
		return &xrefEntry{pos: pos, gen: uint16(gen)}, nil
	case 'f':
		return &xrefEntry{free: true, gen: uint16(gen)}, nil
	default:
		return nil, s.malformed(errors.New("malformed xref table"))
	}
}

func (r *reader) readXRefStream(xref map[uint32]*xrefEntry, s *scanner) (*Dict, error) {
	_, obj, err := s.ReadIndirectObject()
	if err != nil {
		return nil, err
	}
	stm := obj.Stream()
	if stm == nil {
		return nil, s.malformed(errors.New("invalid xref stream"))
	}
	dict := stm.Dict()

	w, sections, err := checkXRefStreamDict(dict)
	if err != nil {
		return nil, Wrap(err, s.filePos())
	}
	data, err := stm.Data(false)
	if err != nil {
		return nil, Wrap(err, s.filePos())
	}
	decodeXRefStream(xref, data, w, sections)
	return dict, nil
}

type xrefSubsection struct {
	start, size int64
}

func checkXRefStreamDict(dict *Dict) ([3]int, []xrefSubsection, error) {
	var w [3]int
	size := dict.GetDirect("Size")
	W := dict.GetArray("W")
	if !size.IsInteger() || W.Len() < 3 {
		return w, nil, errors.New("invalid xref stream dictionary")
	}
	for i := range 3 {
		wi := W.GetDirect(i)
		if !wi.IsInteger() || wi.Integer() < 0 || wi.Integer() > 8 {
			return w, nil, errors.New("invalid /W in xref stream")
		}
		w[i] = int(wi.Integer())
	}

	index := dict.GetArray("Index")
	if index == nil {
		return w, []xrefSubsection{{0, size.Integer()}}, nil
	}
	if index.Len()%2 != 0 {
		return w, nil, errors.New("invalid /Index in xref stream")
	}
	var sections []xrefSubsection
	for i := 0; i < index.Len(); i += 2 {
		start, n := index.GetDirect(i), index.GetDirect(i+1)
		if !start.IsInteger() || !n.IsInteger() || start.Integer() < 0 || n.Integer() < 0 {
			return w, nil, errors.New("invalid /Index in xref stream")
		}
		sections = append(sections, xrefSubsection{start.Integer(), n.Integer()})
	}
	return w, sections, nil
}

func decodeXRefStream(xref map[uint32]*xrefEntry, data []byte, w [3]int, sections []xrefSubsection) {
	rowLen := w[0] + w[1] + w[2]
	if rowLen == 0 {
		return
	}
	for _, sec := range sections {
		for i := sec.start; i < sec.start+sec.size; i++ {
			if len(data) < rowLen {
				slog.Debug("xref stream too short")
				return
			}
			row := data[:rowLen]
			data = data[rowLen:]

			num := uint32(i)
			if num == 0 || xref[num] != nil {
				continue
			}

			tp := int64(1)
			if w[0] > 0 {
				tp = decodeInt(row[:w[0]])
			}
			a := decodeInt(row[w[0] : w[0]+w[1]])
			b := decodeInt(row[w[0]+w[1]:])
			switch tp {
			case 0:
				xref[num] = &xrefEntry{free: true, gen: uint16(b)}
			case 1:
				xref[num] = &xrefEntry{pos: a, gen: uint16(b)}
			case 2:
				xref[num] = &xrefEntry{pos: b, stm: uint32(a)}
			}
		}
	}
}

func decodeInt(buf []byte) (res int64) {
	for _, x := range buf {
		res = res<<8 | int64(x)
	}
	return res
}

// appendXRefTable writes a classic cross-reference table for the entries
// 0, ..., len(entries)-1.
func appendXRefTable(buf []byte, entries []*xrefEntry) []byte {
	buf = fmt.Appendf(buf, "xref\n0 %d\n", len(entries))
	for _, e := range entries {
		if e.free {
			buf = fmt.Appendf(buf, "%010d %05d f\r\n", e.pos, e.gen)
		} else {
			buf = fmt.Appendf(buf, "%010d %05d n\r\n", e.pos, e.gen)
		}
	}
	return buf
}

// encodeXRefStream returns the /W array and the data of an xref stream.
func encodeXRefStream(entries []*xrefEntry) ([3]int, []byte) {
	var max2, max3 int64
	for _, e := range entries {
		f2, f3 := xrefFields(e)
		max2 = max(max2, f2)
		max3 = max(max3, f3)
	}
	w := [3]int{
		1,
		max((bits.Len64(uint64(max2))+7)/8, 1),
		(bits.Len64(uint64(max3)) + 7) / 8,
	}

	data := make([]byte, 0, len(entries)*(w[0]+w[1]+w[2]))
	for _, e := range entries {
		tp := byte(1)
		if e.free {
			tp = 0
		} else if e.stm != 0 {
			tp = 2
		}
		f2, f3 := xrefFields(e)
		data = append(data, tp)
		data = encodeInt(data, f2, w[1])
		data = encodeInt(data, f3, w[2])
	}
	return w, data
}

func xrefFields(e *xrefEntry) (int64, int64) {
	if e.stm != 0 {
		return int64(e.stm), e.pos
	}
	return e.pos, int64(e.gen)
}

func encodeInt(data []byte, x int64, w int) []byte {
	for i := w - 1; i >= 0; i-- {
		data = append(data, byte(x>>(i*8)))
	}
	return data
}

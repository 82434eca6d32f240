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
	"strconv"
)

const scannerBufSize = 1024

// scanner reads PDF objects from a byte stream.
type scanner struct {
	r   io.Reader
	buf []byte

	used, pos int
	total     int64

	// doc is used for the references created by the scanner.
	doc *Document

	// streamLength resolves the /Length entry of a stream dictionary.
	// If it is nil, or returns an error, the data is delimited by
	// searching for "endstream".
	streamLength func(*Object) (int64, error)
}

func newScanner(r io.Reader, doc *Document) *scanner {
	return &scanner{
		r:   r,
		buf: make([]byte, scannerBufSize),
		doc: doc,
	}
}

func (s *scanner) filePos() int64 {
	return s.total + int64(s.pos)
}

func (s *scanner) malformed(err error) error {
	return &MalformedFileError{Pos: s.filePos(), Err: err}
}

// ReadIndirectObject reads an "N G obj ... endobj" block.
func (s *scanner) ReadIndirectObject() (Ref, *Object, error) {
	// Some files point the xref entries at the end of the previous line.
	err := s.SkipWhiteSpace()
	if err != nil {
		return 0, nil, err
	}

	number, err := s.ReadInteger()
	if err != nil {
		return 0, nil, err
	}
	err = s.SkipWhiteSpace()
	if err != nil {
		return 0, nil, err
	}
	generation, err := s.ReadInteger()
	if err != nil {
		return 0, nil, err
	}
	err = s.SkipWhiteSpace()
	if err != nil {
		return 0, nil, err
	}
	err = s.SkipString("obj")
	if err != nil {
		return 0, nil, err
	}
	if number < 0 || number > 1<<32-1 || generation < 0 || generation > 65535 {
		return 0, nil, s.malformed(errors.New("invalid object number"))
	}
	ref := NewRef(uint32(number), uint16(generation))

	obj, err := s.ReadObject()
	if err != nil {
		return 0, nil, err
	}
	err = s.SkipWhiteSpace()
	if err != nil {
		return 0, nil, err
	}
	buf, _ := s.Peek(6)
	if !bytes.Equal(buf, []byte("endobj")) {
		// tolerated, many writers get this wrong
		slog.Debug("missing endobj", slog.String("ref", ref.String()))
		return ref, obj, nil
	}
	s.pos += 6
	return ref, obj, nil
}

// ReadObject reads the next object.  References "N G R" are recognised.
func (s *scanner) ReadObject() (*Object, error) {
	err := s.SkipWhiteSpace()
	if err != nil {
		return nil, err
	}

	buf, err := s.Peek(5) // len("false") == 5
	if err != nil {
		return nil, err
	}
	switch {
	case len(buf) == 0:
		return nil, s.malformed(io.ErrUnexpectedEOF)
	case bytes.HasPrefix(buf, []byte("null")):
		s.pos += 4
		return NewNull(), nil
	case bytes.HasPrefix(buf, []byte("true")):
		s.pos += 4
		return NewBool(true), nil
	case bytes.HasPrefix(buf, []byte("false")):
		s.pos += 5
		return NewBool(false), nil
	case buf[0] == '/':
		name, err := s.ReadName()
		if err != nil {
			return nil, err
		}
		return NewName(name), nil
	case buf[0] >= '0' && buf[0] <= '9', buf[0] == '+', buf[0] == '-', buf[0] == '.':
		return s.readNumberOrReference()
	case bytes.HasPrefix(buf, []byte("<<")):
		dict, err := s.ReadDict()
		if err != nil {
			return nil, err
		}
		err = s.SkipWhiteSpace()
		if err != nil {
			return nil, err
		}
		buf, _ = s.Peek(6)
		if !bytes.Equal(buf, []byte("stream")) {
			return dict.Object(), nil
		}
		stm, err := s.ReadStreamData(dict)
		if err != nil {
			return nil, err
		}
		return stm.Object(), nil
	case buf[0] == '(':
		s.pos++
		str, err := s.ReadQuotedString()
		if err != nil {
			return nil, err
		}
		return &Object{typ: TypeString, str: str}, nil
	case buf[0] == '<':
		s.pos++
		str, err := s.ReadHexString()
		if err != nil {
			return nil, err
		}
		return &Object{typ: TypeString, str: str}, nil
	case buf[0] == '[':
		s.pos++
		a, err := s.ReadArray()
		if err != nil {
			return nil, err
		}
		return a.Object(), nil
	}
	return nil, s.malformed(fmt.Errorf("unexpected input %q", buf))
}

// readNumberOrReference reads a number.  If the number is followed by a
// second integer and "R", a reference is returned instead.
func (s *scanner) readNumberOrReference() (*Object, error) {
	num, err := s.ReadNumber()
	if err != nil {
		return nil, err
	}
	if !num.isInt || num.i < 0 {
		return num, nil
	}

	// Look ahead for "G R" without consuming input, in case this is
	// a plain integer.  The look-ahead is bounded by the buffer size.
	buf, _ := s.Peek(32)
	i := 0
	for i < len(buf) && isSpace[buf[i]] {
		i++
	}
	j := i
	for j < len(buf) && buf[j] >= '0' && buf[j] <= '9' {
		j++
	}
	if j == i || j-i > 5 {
		return num, nil
	}
	k := j
	for k < len(buf) && isSpace[buf[k]] {
		k++
	}
	if k >= len(buf) || buf[k] != 'R' || k+1 < len(buf) && !isSpace[buf[k+1]] && !isDelimiter[buf[k+1]] {
		return num, nil
	}
	gen, err := strconv.Atoi(string(buf[i:j]))
	if err != nil || gen > 65535 || num.i > 1<<32-1 {
		return num, nil
	}
	s.pos += k + 1
	return &Object{
		typ: TypeReference,
		doc: s.doc,
		ref: NewRef(uint32(num.i), uint16(gen)),
	}, nil
}

// ReadInteger reads an integer.
func (s *scanner) ReadInteger() (int64, error) {
	first := true
	var res []byte
	err := s.ScanBytes(func(c byte) bool {
		if first && (c == '+' || c == '-') {
			res = append(res, c)
		} else if c >= '0' && c <= '9' {
			res = append(res, c)
		} else {
			return false
		}
		first = false
		return true
	})
	if err != nil {
		return 0, err
	}

	x, err := strconv.ParseInt(string(res), 10, 64)
	if err != nil {
		return 0, s.malformed(err)
	}
	return x, nil
}

// ReadNumber reads an integer or real number.
func (s *scanner) ReadNumber() (*Object, error) {
	hasDot := false
	first := true
	var res []byte
	err := s.ScanBytes(func(c byte) bool {
		if !hasDot && c == '.' {
			hasDot = true
			res = append(res, c)
		} else if first && (c == '+' || c == '-') {
			res = append(res, c)
		} else if c >= '0' && c <= '9' {
			res = append(res, c)
		} else {
			return false
		}
		first = false
		return true
	})
	if err != nil {
		return nil, err
	}

	if hasDot {
		x, err := strconv.ParseFloat(string(res), 64)
		if err != nil {
			if string(res) == "." || string(res) == "-." {
				return NewReal(0), nil
			}
			return nil, s.malformed(err)
		}
		return NewReal(x), nil
	}

	x, err := strconv.ParseInt(string(res), 10, 64)
	if err != nil {
		f, err2 := strconv.ParseFloat(string(res), 64)
		if err2 != nil {
			return nil, s.malformed(err)
		}
		return NewReal(f), nil
	}
	return NewInteger(x), nil
}

// ReadQuotedString reads a ()-delimited string, starting after the opening
// bracket.
func (s *scanner) ReadQuotedString() ([]byte, error) {
	var res []byte
	parenCount := 0
	escape := false
	ignoreLF := false
	isOctal := 0
	octalVal := byte(0)
	err := s.ScanBytes(func(c byte) bool {
		if ignoreLF {
			ignoreLF = false
			if c == '\n' {
				return true
			}
		}
		if isOctal > 0 {
			if c >= '0' && c <= '7' {
				octalVal = octalVal*8 + (c - '0')
				isOctal--
				if isOctal == 0 {
					res = append(res, octalVal)
				}
				return true
			}
			res = append(res, octalVal)
			isOctal = 0
		}
		if escape {
			escape = false
			switch c {
			case '\n':
				return true
			case '\r':
				ignoreLF = true
				return true
			case 'n':
				c = '\n'
			case 'r':
				c = '\r'
			case 't':
				c = '\t'
			case 'b':
				c = '\b'
			case 'f':
				c = '\f'
			}
			if c >= '0' && c <= '7' {
				isOctal = 2
				octalVal = c - '0'
				return true
			}
		} else if c == '\\' {
			escape = true
			return true
		} else if c == '(' {
			parenCount++
		} else if c == ')' {
			if parenCount == 0 {
				return false
			}
			parenCount--
		} else if c == '\r' {
			c = '\n'
			ignoreLF = true
		}
		res = append(res, c)
		return true
	})
	if err != nil {
		return nil, err
	}

	if isOctal > 0 {
		res = append(res, octalVal)
	}
	err = s.SkipString(")")
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ReadHexString reads a <>-delimited string, starting after the opening
// angle bracket.
func (s *scanner) ReadHexString() ([]byte, error) {
	var res []byte
	var hexVal byte
	first := true
	err := s.ScanBytes(func(c byte) bool {
		var d byte
		switch {
		case c >= '0' && c <= '9':
			d = c - '0'
		case c >= 'A' && c <= 'F':
			d = c - 'A' + 10
		case c >= 'a' && c <= 'f':
			d = c - 'a' + 10
		case c == '>':
			return false
		default:
			return true
		}
		if first {
			hexVal = d
		} else {
			res = append(res, 16*hexVal+d)
		}
		first = !first
		return true
	})
	if err != nil && err != io.EOF {
		return nil, err
	}
	if !first {
		res = append(res, 16*hexVal)
	}

	// If we reach the end of the file, the trailing ">" will be missing.
	s.SkipString(">")
	return res, nil
}

// ReadName reads a PDF name, including the leading slash.
func (s *scanner) ReadName() (Name, error) {
	err := s.SkipString("/")
	if err != nil {
		return "", err
	}

	hex := 0
	var hexByte byte
	var res []byte
	err = s.ScanBytes(func(c byte) bool {
		if hex > 0 {
			v, ok := hexNibble(c)
			if !ok {
				// invalid escapes are kept literally
				res = append(res, '#')
				hex = 0
			} else {
				hexByte = 16*hexByte + v
				hex--
				if hex == 0 {
					res = append(res, hexByte)
				}
				return true
			}
		}
		if c == '#' {
			hexByte = 0
			hex = 2
		} else if isSpace[c] || isDelimiter[c] {
			return false
		} else {
			res = append(res, c)
		}
		return true
	})
	if err != nil && err != io.EOF {
		return "", err
	}
	return Name(res), nil
}

func hexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}

// ReadArray reads an array, starting after the opening "[".
func (s *scanner) ReadArray() (*Array, error) {
	a := NewArray()
	a.doc = s.doc
	for {
		err := s.SkipWhiteSpace()
		if err != nil {
			return nil, err
		}
		buf, err := s.Peek(1)
		if err != nil {
			return nil, err
		}
		if len(buf) == 0 {
			return nil, s.malformed(io.ErrUnexpectedEOF)
		}
		if buf[0] == ']' {
			break
		}

		obj, err := s.ReadObject()
		if err != nil {
			return nil, err
		}
		a.appendFresh(obj)
	}
	s.pos++ // we have already seen the closing "]"
	return a, nil
}

// ReadDict reads a PDF dictionary.
func (s *scanner) ReadDict() (*Dict, error) {
	err := s.SkipString("<<")
	if err != nil {
		return nil, err
	}

	dict := NewDict()
	dict.doc = s.doc
	for {
		err = s.SkipWhiteSpace()
		if err != nil {
			return nil, err
		}
		buf, err := s.Peek(2)
		if err != nil {
			return nil, err
		}
		if bytes.HasPrefix(buf, []byte(">>")) {
			s.pos += 2
			break
		}
		if len(buf) == 0 || buf[0] != '/' {
			return nil, s.malformed(fmt.Errorf("expected a name but found %q", buf))
		}

		key, err := s.ReadName()
		if err != nil {
			return nil, err
		}
		val, err := s.ReadObject()
		if err != nil {
			return nil, err
		}
		if val.typ == TypeNull {
			continue
		}
		if dict.Has(key) {
			slog.Debug("duplicate dictionary key", slog.String("key", string(key)))
		}
		dict.setFresh(key, val)
	}
	return dict, nil
}

// ReadStreamData reads the data of a stream, starting after the
// dictionary.
func (s *scanner) ReadStreamData(dict *Dict) (*Stream, error) {
	err := s.SkipString("stream")
	if err != nil {
		return nil, err
	}
	buf, _ := s.Peek(2)
	if len(buf) >= 1 && buf[0] == '\n' {
		s.pos++
	} else if len(buf) >= 2 && buf[0] == '\r' && buf[1] == '\n' {
		s.pos += 2
	} else if len(buf) >= 1 && buf[0] == '\r' {
		s.pos++
	}

	length := int64(-1)
	if s.streamLength != nil {
		l, err := s.streamLength(dict.Get("Length"))
		if err == nil && l >= 0 {
			length = l
		}
	}

	var data []byte
	if length >= 0 {
		data, err = s.readN(length)
		if err != nil {
			return nil, err
		}
		s.SkipWhiteSpace()
		buf, _ = s.Peek(9)
		if !bytes.Equal(buf, []byte("endstream")) {
			slog.Debug("stream length mismatch", slog.Int64("pos", s.filePos()))
			return nil, s.malformed(errors.New("invalid stream length"))
		}
		s.pos += 9
	} else {
		data, err = s.readUntil("endstream")
		if err != nil {
			return nil, err
		}
		data = bytes.TrimSuffix(data, []byte("\n"))
		data = bytes.TrimSuffix(data, []byte("\r"))
	}

	stm := &Stream{typ: TypeStream, doc: s.doc, data: data}
	stm.sdict = dict.Object()
	dict.parent = stm.Object()
	if l := dict.Get("Length"); !l.IsInteger() || l.Integer() != int64(len(data)) {
		dict.setFresh("Length", NewInteger(int64(len(data))))
	}
	return stm, nil
}

func (s *scanner) readN(n int64) ([]byte, error) {
	res := make([]byte, 0, min(n, 1<<20))
	for n > 0 {
		if s.pos == s.used {
			err := s.refill()
			if err != nil {
				return nil, err
			}
			if s.used == 0 {
				return nil, s.malformed(io.ErrUnexpectedEOF)
			}
		}
		k := min(int64(s.used-s.pos), n)
		res = append(res, s.buf[s.pos:s.pos+int(k)]...)
		s.pos += int(k)
		n -= k
	}
	return res, nil
}

// readUntil returns all bytes up to pat and skips pat.
func (s *scanner) readUntil(pat string) ([]byte, error) {
	var res []byte
	p := []byte(pat)
	for {
		idx := bytes.Index(s.buf[s.pos:s.used], p)
		if idx >= 0 {
			res = append(res, s.buf[s.pos:s.pos+idx]...)
			s.pos += idx + len(p)
			return res, nil
		}
		keep := max(s.pos, s.used-len(p)+1)
		res = append(res, s.buf[s.pos:keep]...)
		s.pos = keep
		err := s.refill()
		if err != nil {
			return nil, err
		}
		if s.used-s.pos < len(p) {
			return nil, s.malformed(fmt.Errorf("%q not found", pat))
		}
	}
}

func (s *scanner) readHeaderVersion() (Version, error) {
	buf, err := s.Peek(16)
	if err != nil {
		return 0, err
	}
	if !bytes.HasPrefix(buf, []byte("%PDF-")) || len(buf) < 8 {
		return 0, &MalformedFileError{Err: errors.New("PDF header not found")}
	}
	v, err := ParseVersion(string(buf[5:8]))
	if err != nil {
		return 0, &MalformedFileError{Pos: 5, Err: err}
	}
	return v, nil
}

// refill discards the read part of the buffer and reads as much new data as
// possible.  Once the end of file is reached, s.used will be smaller than the
// buffer size, but no error will be returned.
func (s *scanner) refill() error {
	s.total += int64(s.pos)
	copy(s.buf, s.buf[s.pos:s.used])
	s.used -= s.pos
	s.pos = 0

	n, err := io.ReadFull(s.r, s.buf[s.used:])
	s.used += n
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		err = nil
	}
	return err
}

// Peek returns a view of the next n bytes of input.  At the end of the
// input, a short buffer is returned without an error.
func (s *scanner) Peek(n int) ([]byte, error) {
	if n > scannerBufSize {
		panic("peek window too large")
	}
	var err error
	if s.pos+n > s.used {
		err = s.refill()
	}
	if s.pos+n > s.used {
		return s.buf[s.pos:s.used], err
	}
	return s.buf[s.pos : s.pos+n], nil
}

// ScanBytes consumes bytes as long as accept returns true.  If the end of
// input is reached before any byte was accepted, io.EOF is returned.
func (s *scanner) ScanBytes(accept func(c byte) bool) error {
	empty := true
	for {
		for s.pos < s.used {
			if !accept(s.buf[s.pos]) {
				return nil
			}
			s.pos++
			empty = false
		}
		err := s.refill()
		if err != nil {
			return err
		}
		if s.used == 0 {
			if empty {
				return io.EOF
			}
			return nil
		}
	}
}

// SkipWhiteSpace skips white space and comments.
func (s *scanner) SkipWhiteSpace() error {
	isComment := false
	err := s.ScanBytes(func(c byte) bool {
		if isComment {
			if c == '\r' || c == '\n' {
				isComment = false
			}
		} else if c == '%' {
			isComment = true
		} else {
			return isSpace[c]
		}
		return true
	})
	if err == io.EOF {
		return nil
	}
	return err
}

// SkipString consumes pat, which must be next in the input.
func (s *scanner) SkipString(pat string) error {
	n := len(pat)
	buf, err := s.Peek(n)
	if err != nil {
		return err
	}
	if string(buf) != pat {
		return s.malformed(fmt.Errorf("expected %q but found %q", pat, buf))
	}
	s.pos += n
	return nil
}

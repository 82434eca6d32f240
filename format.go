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
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// objectEncoder transforms strings and stream data before they are
// written.  Either function may be nil.
type objectEncoder struct {
	str func([]byte) ([]byte, error)
	stm func([]byte) ([]byte, error)
}

// PDF writes the PDF representation of o to w.  Streams are written with
// their raw data.
func (o *Object) PDF(w io.Writer) error {
	return writeObject(w, o, nil)
}

// Format returns the PDF representation of o as a string.
func Format(o *Object) string {
	if o == nil {
		return "null"
	}
	return o.String()
}

func writeObject(w io.Writer, o *Object, enc *objectEncoder) error {
	buf, err := appendObject(nil, o, enc)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

func appendObject(buf []byte, o *Object, enc *objectEncoder) ([]byte, error) {
	if o == nil {
		return append(buf, "null"...), nil
	}
	if o.released {
		return buf, ErrReleased
	}
	switch o.typ {
	case TypeBoolean:
		return strconv.AppendBool(buf, o.b), nil
	case TypeNumber:
		if o.isInt {
			return strconv.AppendInt(buf, o.i, 10), nil
		}
		return appendReal(buf, o.f), nil
	case TypeString:
		s := o.str
		if enc != nil && enc.str != nil {
			var err error
			s, err = enc.str(s)
			if err != nil {
				return buf, err
			}
		}
		return appendString(buf, s), nil
	case TypeName:
		return appendName(buf, o.name), nil
	case TypeNull:
		return append(buf, "null"...), nil
	case TypeReference:
		return fmt.Appendf(buf, "%d %d R", o.ref.Number(), o.ref.Generation()), nil
	case TypeArray:
		buf = append(buf, '[')
		for i, elem := range o.elems {
			if i > 0 {
				buf = append(buf, ' ')
			}
			var err error
			buf, err = appendObject(buf, elem, enc)
			if err != nil {
				return buf, err
			}
		}
		return append(buf, ']'), nil
	case TypeDictionary:
		return appendDict(buf, o, enc, -1)
	case TypeStream:
		data := o.data
		if enc != nil && enc.stm != nil {
			var err error
			data, err = enc.stm(data)
			if err != nil {
				return buf, err
			}
		}
		var err error
		buf, err = appendDict(buf, o.sdict, enc, int64(len(data)))
		if err != nil {
			return buf, err
		}
		buf = append(buf, "\nstream\n"...)
		buf = append(buf, data...)
		return append(buf, "\nendstream"...), nil
	}
	return buf, fmt.Errorf("cannot format object of type %s", o.typ)
}

// appendDict writes a dictionary.  If length is non-negative, it is
// written as the /Length entry.
func appendDict(buf []byte, o *Object, enc *objectEncoder, length int64) ([]byte, error) {
	buf = append(buf, "<<"...)
	hasLength := false
	for _, e := range o.entries {
		if e.key == "Length" && length >= 0 {
			buf = fmt.Appendf(buf, "\n/Length %d", length)
			hasLength = true
			continue
		}
		if e.val.Type() == TypeNull {
			continue
		}
		buf = append(buf, '\n')
		buf = appendName(buf, e.key)
		buf = append(buf, ' ')
		var err error
		buf, err = appendObject(buf, e.val, enc)
		if err != nil {
			return buf, err
		}
	}
	if length >= 0 && !hasLength {
		buf = fmt.Appendf(buf, "\n/Length %d", length)
	}
	return append(buf, "\n>>"...), nil
}

func appendReal(buf []byte, x float64) []byte {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return append(buf, '0')
	}
	s := strconv.FormatFloat(x, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += "."
	}
	return append(buf, s...)
}

// appendString writes s as a literal string, or as a hex string if too
// many characters would need escaping.
func appendString(buf []byte, s []byte) []byte {
	level := 0
	for _, c := range s {
		if c == '(' {
			level++
		} else if c == ')' {
			level--
			if level < 0 {
				break
			}
		}
	}
	balanced := level == 0

	funny := 0
	for _, c := range s {
		if c < 32 || c >= 127 || c == '\\' || !balanced && (c == '(' || c == ')') {
			funny++
		}
	}
	if 3*funny > len(s) {
		buf = append(buf, '<')
		for _, c := range s {
			buf = append(buf, hexDigits[c>>4], hexDigits[c&15])
		}
		return append(buf, '>')
	}

	buf = append(buf, '(')
	for _, c := range s {
		switch {
		case c == '\r':
			buf = append(buf, `\r`...)
		case c == '\n':
			buf = append(buf, `\n`...)
		case c == '\t':
			buf = append(buf, `\t`...)
		case c == '\b':
			buf = append(buf, `\b`...)
		case c == '\f':
			buf = append(buf, `\f`...)
		case c == '\\':
			buf = append(buf, `\\`...)
		case !balanced && (c == '(' || c == ')'):
			buf = append(buf, '\\', c)
		case c < 32 || c >= 127:
			buf = fmt.Appendf(buf, `\%03o`, c)
		default:
			buf = append(buf, c)
		}
	}
	return append(buf, ')')
}

const hexDigits = "0123456789abcdef"

func appendName(buf []byte, n Name) []byte {
	buf = append(buf, '/')
	for i := 0; i < len(n); i++ {
		c := n[i]
		if isSpace[c] || isDelimiter[c] || c < 0x21 || c > 0x7e || c == '#' {
			buf = append(buf, '#', hexDigits[c>>4], hexDigits[c&15])
		} else {
			buf = append(buf, c)
		}
	}
	return buf
}

var isSpace = map[byte]bool{
	0:  true,
	9:  true,
	10: true,
	12: true,
	13: true,
	32: true,
}

var isDelimiter = map[byte]bool{
	'(': true,
	')': true,
	'<': true,
	'>': true,
	'[': true,
	']': true,
	'{': true,
	'}': true,
	'/': true,
	'%': true,
}

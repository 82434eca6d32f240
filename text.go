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
	"errors"
	"strings"
	"time"
	"unicode/utf16"
	"unicode/utf8"
)

// pdfDocHigh lists the code points of PDFDocEncoding where the encoding
// differs from ISO Latin 1.  A value of 0 marks an undefined code.
var pdfDocHigh = map[byte]rune{
	0x18: 0x02D8, 0x19: 0x02C7, 0x1A: 0x02C6, 0x1B: 0x02D9,
	0x1C: 0x02DD, 0x1D: 0x02DB, 0x1E: 0x02DA, 0x1F: 0x02DC,
	0x7F: 0,
	0x80: 0x2022, 0x81: 0x2020, 0x82: 0x2021, 0x83: 0x2026,
	0x84: 0x2014, 0x85: 0x2013, 0x86: 0x0192, 0x87: 0x2044,
	0x88: 0x2039, 0x89: 0x203A, 0x8A: 0x2212, 0x8B: 0x2030,
	0x8C: 0x201E, 0x8D: 0x201C, 0x8E: 0x201D, 0x8F: 0x2018,
	0x90: 0x2019, 0x91: 0x201A, 0x92: 0x2122, 0x93: 0xFB01,
	0x94: 0xFB02, 0x95: 0x0141, 0x96: 0x0152, 0x97: 0x0160,
	0x98: 0x0178, 0x99: 0x017D, 0x9A: 0x0131, 0x9B: 0x0142,
	0x9C: 0x0153, 0x9D: 0x0161, 0x9E: 0x017E, 0x9F: 0,
	0xA0: 0x20AC, 0xAD: 0,
}

var pdfDocReverse = func() map[rune]byte {
	m := make(map[rune]byte, len(pdfDocHigh))
	for c, r := range pdfDocHigh {
		if r != 0 {
			m[r] = c
		}
	}
	return m
}()

func pdfDocDecode(c byte) rune {
	if r, ok := pdfDocHigh[c]; ok {
		if r == 0 {
			return utf8.RuneError
		}
		return r
	}
	return rune(c)
}

func pdfDocEncode(r rune) (byte, bool) {
	if c, ok := pdfDocReverse[r]; ok {
		return c, true
	}
	if r < 256 {
		if _, special := pdfDocHigh[byte(r)]; !special {
			return byte(r), true
		}
	}
	return 0, false
}

// TextString encodes a Go string as a PDF text string.  PDFDocEncoding is
// used where possible, UTF-16BE with a byte order mark otherwise.
func TextString(s string) []byte {
	buf := make([]byte, 0, len(s))
	for _, r := range s {
		c, ok := pdfDocEncode(r)
		if !ok {
			return utf16Encode(s)
		}
		buf = append(buf, c)
	}
	return buf
}

func utf16Encode(s string) []byte {
	u := utf16.Encode([]rune(s))
	buf := make([]byte, 2, 2+2*len(u))
	buf[0], buf[1] = 0xFE, 0xFF
	for _, x := range u {
		buf = append(buf, byte(x>>8), byte(x))
	}
	return buf
}

// AsTextString decodes a PDF text string.  UTF-16BE and UTF-8 strings are
// recognised by their byte order marks, everything else is interpreted as
// PDFDocEncoding.
func AsTextString(b []byte) string {
	switch {
	case len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF:
		var u []uint16
		for i := 2; i+1 < len(b); i += 2 {
			u = append(u, uint16(b[i])<<8|uint16(b[i+1]))
		}
		return string(utf16.Decode(u))
	case len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF:
		return string(b[3:])
	}

	var sb strings.Builder
	for _, c := range b {
		sb.WriteRune(pdfDocDecode(c))
	}
	return sb.String()
}

var errNoDate = errors.New("not a valid date string")

// DateString formats t in the format used for PDF date strings.
func DateString(t time.Time) []byte {
	s := t.Format("D:20060102150405-0700")
	k := len(s) - 2
	s = s[:k] + "'" + s[k:] + "'"
	if strings.HasSuffix(s, "+00'00'") {
		s = s[:len(s)-7] + "Z"
	}
	return []byte(s)
}

// ParseDate parses a PDF date string.  Several malformed variants found in
// the wild are accepted.
func ParseDate(b []byte) (time.Time, error) {
	s := AsTextString(b)
	s = strings.TrimSpace(strings.ReplaceAll(s, "'", ""))
	if s == "D:" || s == "" {
		return time.Time{}, errNoDate
	}
	if strings.HasPrefix(s, "19") || strings.HasPrefix(s, "20") {
		s = "D:" + s
	}

	formats := []string{
		"D:20060102150405-0700",
		"D:20060102150405-07",
		"D:20060102150405Z0000",
		"D:20060102150405Z00",
		"D:20060102150405Z",
		"D:20060102150405",
		"D:200601021504",
		"D:2006010215",
		"D:20060102",
		"D:200601",
		"D:2006",
		time.ANSIC,
	}
	for _, format := range formats {
		t, err := time.Parse(format, s)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, errNoDate
}

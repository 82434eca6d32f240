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

package annotsummary

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"seehuhn.de/go/geom/rect"

	"seehuhn.de/go/pdfsdk"
	"seehuhn.de/go/pdfsdk/internal/float"
)

const (
	margin = 50.0

	// courierWidth is the advance width of all Courier glyphs, as a
	// fraction of the font size.
	courierWidth = 0.6
)

type line struct {
	text   string
	indent int
}

// layout arranges lines of text on pages, using the Courier font.
type layout struct {
	box     rect.Rect
	size    float64
	leading float64
	cols    int
	rows    int
	lines   []line
}

func newLayout(box rect.Rect, size float64) *layout {
	if size <= 0 {
		size = 10
	}
	l := &layout{
		box:     box,
		size:    size,
		leading: 1.2 * size,
	}
	l.cols = max(int((box.Dx()-2*margin)/(courierWidth*size)), 20)
	// one row is kept free for the page number
	l.rows = max(int((box.Dy()-2*margin)/l.leading)-2, 1)
	return l
}

// addLine adds a single line of text, wrapped if necessary.  Each level
// of indentation is two characters wide.
func (l *layout) addLine(text string, indent int) {
	width := max(l.cols-2*indent, 10)
	for _, s := range wrap(text, width) {
		l.lines = append(l.lines, line{text: s, indent: indent})
	}
}

// addParagraph adds text which may contain newline characters.
func (l *layout) addParagraph(text string, indent int) {
	for _, s := range strings.Split(text, "\n") {
		l.addLine(s, indent)
	}
}

// wrap breaks text into lines of at most width characters.  Lines are
// broken at spaces where possible.
func wrap(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var res []string
	cur := ""
	for _, w := range words {
		for utf8.RuneCountInString(w) > width {
			if cur != "" {
				res = append(res, cur)
				cur = ""
			}
			r := []rune(w)
			res = append(res, string(r[:width]))
			w = string(r[width:])
		}
		switch {
		case cur == "":
			cur = w
		case utf8.RuneCountInString(cur)+1+utf8.RuneCountInString(w) <= width:
			cur += " " + w
		default:
			res = append(res, cur)
			cur = w
		}
	}
	if cur != "" {
		res = append(res, cur)
	}
	return res
}

// document creates a PDF document containing the laid out text.
func (l *layout) document(v pdf.Version) (*pdf.Document, error) {
	doc := pdf.NewDocument(v)
	pages := doc.Catalog().GetDict("Pages")
	pages.SetRect("MediaBox", l.box)

	font := pdf.NewDict()
	font.SetName("Type", "Font")
	font.SetName("Subtype", "Type1")
	font.SetName("BaseFont", "Courier")
	font.SetName("Encoding", "WinAnsiEncoding")
	fontNum, err := doc.AddIndirectObject(font.Object())
	if err != nil {
		return nil, err
	}
	res := pdf.NewDict()
	if err := pages.SetAt("Resources", res.Object()); err != nil {
		return nil, err
	}
	fonts := pdf.NewDict()
	if err := res.SetAt("Font", fonts.Object()); err != nil {
		return nil, err
	}
	fonts.SetRef("F1", fontNum)

	numPages := max((len(l.lines)+l.rows-1)/l.rows, 1)
	for p := range numPages {
		start := p * l.rows
		end := min(start+l.rows, len(l.lines))

		buf := &bytes.Buffer{}
		fmt.Fprintf(buf, "BT\n/F1 %s Tf\n%s TL\n%s %s Td\n",
			num(l.size), num(l.leading), num(l.box.LLx+margin), num(l.box.URy-margin-l.size))
		for _, ln := range l.lines[start:end] {
			text := strings.Repeat("  ", ln.indent) + ln.text
			fmt.Fprintf(buf, "%s Tj T*\n", pdf.Format(pdf.NewString(winAnsi(text))))
		}
		buf.WriteString("ET\n")

		footer := fmt.Sprintf("%d / %d", p+1, numPages)
		fmt.Fprintf(buf, "BT\n/F1 %s Tf\n%s %s Td\n%s Tj\nET\n",
			num(l.size), num(l.box.LLx+margin), num(l.box.LLy+margin-l.size),
			pdf.Format(pdf.NewString([]byte(footer))))

		page, err := doc.AppendPage(pdf.NewDict())
		if err != nil {
			return nil, err
		}
		if err := page.AppendContent(buf.Bytes()); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// winAnsi encodes text for a font with WinAnsiEncoding.  Characters which
// cannot be represented are replaced by question marks.
func winAnsi(text string) []byte {
	res := make([]byte, 0, len(text))
	for _, r := range text {
		b, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			b = '?'
		}
		res = append(res, b)
	}
	return res
}

func num(x float64) string {
	return float.Format(x, 2)
}

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

// Package annotsummary creates a document which lists the comments and
// markup annotations of a PDF document.
//
// Annotations are collected page by page, filtered, sorted and then laid
// out as plain text in the Courier font.  Localized labels are obtained
// from an [AnnotationSummaryCallback].
package annotsummary

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"seehuhn.de/go/geom/rect"

	"seehuhn.de/go/pdfsdk"
	"seehuhn.de/go/pdfsdk/metadata"
)

// pagesPerStep is the number of source pages scanned between two checks
// of the pause callback.
const pagesPerStep = 32

// ErrNoAnnotations is returned when no annotation matches the options.
var ErrNoAnnotations = fmt.Errorf("%w: no annotations to summarize", pdf.ErrUnsupported)

var errPageRange = errors.New("invalid page range")

// markupTypes lists the annotation types which are included in a
// summary.
var markupTypes = map[pdf.Name]bool{
	"Text":           true,
	"FreeText":       true,
	"Line":           true,
	"Square":         true,
	"Circle":         true,
	"Polygon":        true,
	"PolyLine":       true,
	"Highlight":      true,
	"Underline":      true,
	"Squiggly":       true,
	"StrikeOut":      true,
	"Stamp":          true,
	"Caret":          true,
	"Ink":            true,
	"FileAttachment": true,
	"Sound":          true,
	"Redact":         true,
}

// SortKey selects the order of the entries in a summary.
type SortKey int

// These are the possible sort keys.
const (
	ByPage SortKey = iota
	ByType
	ByAuthor
	ByDate
)

// PaperSize selects the page size of the summary document.
type PaperSize int

// These are the supported paper sizes.
const (
	A4 PaperSize = iota
	Letter
)

func (p PaperSize) rect() rect.Rect {
	if p == Letter {
		return rect.Rect{URx: 612, URy: 792}
	}
	return rect.Rect{URx: 595, URy: 842}
}

// Options controls which annotations are summarized and how the summary
// is laid out.
type Options struct {
	// Types restricts the summary to the given annotation subtypes.  If
	// this is empty, all markup annotations are included.
	Types []pdf.Name

	// Authors restricts the summary to annotations by the given authors.
	// If this is empty, annotations by all authors are included.
	Authors []string

	// Pages restricts the summary to a range of pages.  If this is nil,
	// annotations from all pages are included.
	Pages *PageRange

	// Order gives the sort keys, most significant first.  If this is
	// empty, entries are sorted by page, type, author and date.
	Order []SortKey

	Paper PaperSize

	// FontSize is the size of the text, in PDF units.  The default is 10.
	FontSize float64

	// Save is passed on when the summary document is written.
	Save *pdf.SaveOptions
}

// PageRange is a range of pages, given by 0-based page indices.  Both
// ends are included.  If Last is negative, the range extends to the last
// page of the document.
type PageRange struct {
	First, Last int
}

// An Entry is one annotation in a summary.
type Entry struct {
	Page     int
	Type     pdf.Name
	Author   string
	Subject  string
	Date     time.Time
	Contents string
	Rect     rect.Rect
}

// Start prepares a summary of the annotations in doc.  The summary
// document is written to dst when the returned operation finishes.
// If no annotation matches the options, the operation fails with
// [ErrNoAnnotations].  The callback cb may be nil, in which case English
// labels are used.
func Start(doc *pdf.Document, dst io.Writer, opts *Options, cb AnnotationSummaryCallback, pause pdf.PauseCallback) (*pdf.Progressive, error) {
	s, err := newSummarizer(doc, opts)
	if err != nil {
		return nil, err
	}
	s.dst = dst
	s.cb = cb
	if s.cb == nil {
		s.cb = English{}
	}
	return pdf.NewProgressive(pause, s.collect, s.sort, s.layout), nil
}

// Collect returns the annotations of doc which match the options, in the
// order in which they would be listed in a summary.
func Collect(doc *pdf.Document, opts *Options) ([]*Entry, error) {
	s, err := newSummarizer(doc, opts)
	if err != nil {
		return nil, err
	}
	for {
		done, _ := s.collect()
		if done {
			break
		}
	}
	if _, err := s.sort(); err != nil {
		return nil, err
	}
	return s.entries, nil
}

func newSummarizer(doc *pdf.Document, opts *Options) (*summarizer, error) {
	if opts == nil {
		opts = &Options{}
	}
	s := &summarizer{
		doc:  doc,
		opts: opts,
	}
	for _, page := range doc.Pages() {
		s.pages = append(s.pages, page)
	}
	s.end = len(s.pages)
	if r := opts.Pages; r != nil {
		last := r.Last
		if last < 0 {
			last = len(s.pages) - 1
		}
		if r.First < 0 || r.First > last || last >= len(s.pages) {
			return nil, fmt.Errorf("%w: %d-%d", errPageRange, r.First, r.Last)
		}
		s.pos = r.First
		s.end = last + 1
	}

	if len(opts.Types) > 0 {
		s.types = make(map[pdf.Name]bool)
		for _, t := range opts.Types {
			s.types[t] = true
		}
	}
	if len(opts.Authors) > 0 {
		s.authors = make(map[string]bool)
		for _, a := range opts.Authors {
			s.authors[a] = true
		}
	}
	return s, nil
}

type summarizer struct {
	doc  *pdf.Document
	dst  io.Writer
	opts *Options
	cb   AnnotationSummaryCallback

	pages    []*pdf.Page
	pos, end int

	types   map[pdf.Name]bool
	authors map[string]bool

	entries []*Entry
}

func (s *summarizer) collect() (bool, error) {
	stop := min(s.pos+pagesPerStep, s.end)
	for i := s.pos; i < stop; i++ {
		for _, annot := range s.pages[i].Annots() {
			e := s.entry(i, annot)
			if e != nil {
				s.entries = append(s.entries, e)
			}
		}
	}
	s.pos = stop
	return s.pos >= s.end, nil
}

// entry converts an annotation dictionary, or returns nil if the
// annotation is not included in the summary.
func (s *summarizer) entry(page int, annot *pdf.Dict) *Entry {
	typ := annot.GetName("Subtype")
	if s.types != nil && !s.types[typ] || s.types == nil && !markupTypes[typ] {
		return nil
	}
	author := annot.GetText("T")
	if s.authors != nil && !s.authors[author] {
		return nil
	}

	e := &Entry{
		Page:    page,
		Type:    typ,
		Author:  author,
		Subject: annot.GetText("Subj"),
		Rect:    annot.GetDirect("Rect").Rect(),
	}
	e.Date = annot.GetDirect("M").Date()
	if e.Date.IsZero() {
		e.Date = annot.GetDirect("CreationDate").Date()
	}

	var text string
	if rc := annot.GetDirect("RC"); rc != nil {
		if rc.Type() == pdf.TypeStream {
			data, err := rc.Stream().Data(false)
			if err == nil {
				text = RichText(string(data))
			}
		} else {
			text = RichText(rc.Text())
		}
	}
	if strings.TrimSpace(text) == "" {
		text = annot.GetText("Contents")
	}
	e.Contents = norm.NFC.String(text)
	return e
}

func (s *summarizer) sort() (bool, error) {
	if len(s.entries) == 0 {
		return false, ErrNoAnnotations
	}
	order := s.opts.Order
	if len(order) == 0 {
		order = []SortKey{ByPage, ByType, ByAuthor, ByDate}
	}
	slices.SortStableFunc(s.entries, func(a, b *Entry) int {
		for _, key := range order {
			var c int
			switch key {
			case ByPage:
				c = cmp.Compare(a.Page, b.Page)
			case ByType:
				c = cmp.Compare(a.Type, b.Type)
			case ByAuthor:
				c = cmp.Compare(a.Author, b.Author)
			case ByDate:
				c = a.Date.Compare(b.Date)
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
	return true, nil
}

func (s *summarizer) layout() (bool, error) {
	l := newLayout(s.opts.Paper.rect(), s.opts.FontSize)

	title := metadata.New(s.doc).Value(metadata.Title)
	heading := s.cb.Text(TextHeading)
	if title != "" {
		heading += ": " + title
	}
	l.addLine(heading, 0)
	l.addLine("", 0)

	lastPage := -1
	for _, e := range s.entries {
		if e.Page != lastPage {
			if lastPage >= 0 {
				l.addLine("", 0)
			}
			l.addLine(fmt.Sprintf("%s %d", s.cb.Text(TextPage), e.Page+1), 0)
			lastPage = e.Page
		}

		line := "[" + s.cb.TypeName(e.Type) + "]"
		if e.Author != "" {
			line += " " + e.Author
		}
		if !e.Date.IsZero() {
			line += ", " + s.cb.FormatDate(e.Date)
		}
		l.addLine(line, 1)
		if e.Subject != "" {
			l.addParagraph(s.cb.Text(TextSubject)+": "+e.Subject, 2)
		}
		if e.Contents != "" {
			l.addParagraph(e.Contents, 2)
		}
	}

	out, err := l.document(s.doc.Version())
	if err != nil {
		return false, err
	}
	m := metadata.New(out)
	if err := m.SetValue(metadata.Title, heading); err != nil {
		return false, err
	}
	m.SetCreationDate(time.Now())
	if err := out.Save(s.dst, s.opts.Save); err != nil {
		return false, err
	}
	return true, nil
}

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

// Package tagging adds a basic logical structure to untagged documents.
//
// Every page becomes a /Part element of a top-level /Document element.
// The page content is wrapped in a single marked-content sequence, which
// is attached to a /P element below the part.  Annotations can be tagged
// as well.  No attempt is made to recognise headings, lists or tables.
package tagging

import (
	"bytes"
	"errors"
	"log/slog"

	"golang.org/x/text/language"

	"seehuhn.de/go/pdfsdk"
	"seehuhn.de/go/pdfsdk/metadata"
	"seehuhn.de/go/pdfsdk/structure"
)

// pagesPerStep is the number of pages tagged between two checks of the
// pause callback.
const pagesPerStep = 8

// ErrAlreadyTagged is returned by [Start] if the document has a structure
// tree and [Options.Overwrite] is not set.
var ErrAlreadyTagged = errors.New("document is already tagged")

// Options controls the tagging of a document.
type Options struct {
	// Library must have the tagging module enabled.
	Library *pdf.Library

	// Lang is the natural language of the document.  If this is
	// language.Und, the /Lang entry of the catalog is not changed.
	Lang language.Tag

	// Title, if set, is stored as the document title, and viewers are
	// asked to display it in the window title.
	Title string

	// Annotations tags the annotations of every page.  Link annotations
	// become /Link elements, widget annotations become /Form elements.
	Annotations bool

	// Overwrite discards an existing structure tree.
	Overwrite bool
}

// ReportKind classifies the entries of a tagging report.
type ReportKind int

// These are the kinds of report entries.
const (
	// ReportMarkedContent means that the page content already contains
	// marked-content identifiers.  The content is left unchanged.
	ReportMarkedContent ReportKind = iota + 1

	// ReportEmptyPage means that the page has no content.
	ReportEmptyPage

	// ReportDirectAnnotation means that an annotation is not an indirect
	// object and cannot be referenced from the structure tree.
	ReportDirectAnnotation

	// ReportContentError means that the content of the page could not
	// be read.
	ReportContentError
)

func (k ReportKind) String() string {
	switch k {
	case ReportMarkedContent:
		return "marked content"
	case ReportEmptyPage:
		return "empty page"
	case ReportDirectAnnotation:
		return "direct annotation"
	case ReportContentError:
		return "content error"
	}
	return "unknown"
}

// ReportEntry describes a part of the document which could not be tagged.
type ReportEntry struct {
	Page    int
	Kind    ReportKind
	Message string
}

// TaggedPDFCallback receives progress information while a document is
// tagged.  All methods are called from the goroutine driving the
// operation.
type TaggedPDFCallback interface {
	// PageTagged is called after the page with the given index has been
	// processed.
	PageTagged(page, total int)

	// ReportEntry is called for content which could not be tagged.
	ReportEntry(entry ReportEntry)
}

// Start prepares the tagging of doc.  The returned operation performs the
// work.  The callback cb may be nil.
func Start(doc *pdf.Document, opts *Options, cb TaggedPDFCallback, pause pdf.PauseCallback) (*pdf.Progressive, error) {
	if opts == nil {
		opts = &Options{}
	}
	if err := opts.Library.Require(pdf.ModuleTagging); err != nil {
		return nil, err
	}
	if structure.Open(doc) != nil && !opts.Overwrite {
		return nil, ErrAlreadyTagged
	}

	t := &tagger{
		doc:  doc,
		opts: opts,
		cb:   cb,
		log:  opts.Library.Logger(),
	}
	for _, page := range doc.Pages() {
		t.pages = append(t.pages, page)
	}
	return pdf.NewProgressive(pause, t.setup, t.tagPages, t.finish), nil
}

type tagger struct {
	doc  *pdf.Document
	opts *Options
	cb   TaggedPDFCallback
	log  *slog.Logger

	pages []*pdf.Page
	pos   int

	tree *structure.StructTree
	top  *structure.Element
}

func (t *tagger) setup() (bool, error) {
	if structure.Open(t.doc) != nil {
		t.removeStructure()
	}

	tree, err := structure.Create(t.doc)
	if err != nil {
		return false, err
	}
	top, err := tree.AddChild("Document")
	if err != nil {
		return false, err
	}
	t.tree = tree
	t.top = top
	return true, nil
}

// removeStructure discards the existing structure tree, together with the
// references from pages and annotations into the parent tree.
func (t *tagger) removeStructure() {
	t.log.Debug("discarding structure tree")
	cat := t.doc.Catalog()
	cat.Remove("StructTreeRoot")
	for _, page := range t.pages {
		page.Dict().Remove("StructParents")
		for _, annot := range page.Annots() {
			annot.Remove("StructParent")
		}
	}
}

func (t *tagger) tagPages() (bool, error) {
	end := min(t.pos+pagesPerStep, len(t.pages))
	for i := t.pos; i < end; i++ {
		if err := t.tagPage(i, t.pages[i]); err != nil {
			return false, err
		}
		if t.cb != nil {
			t.cb.PageTagged(i, len(t.pages))
		}
	}
	t.pos = end
	return t.pos >= len(t.pages), nil
}

func (t *tagger) tagPage(i int, page *pdf.Page) error {
	part, err := t.top.AddChild("Part")
	if err != nil {
		return err
	}
	if err := part.SetPage(i); err != nil {
		return err
	}

	content, err := page.Contents()
	switch {
	case err != nil:
		t.report(i, ReportContentError, err.Error())
	case len(bytes.TrimSpace(content)) == 0:
		t.report(i, ReportEmptyPage, "page has no content")
	case bytes.Contains(content, []byte("/MCID")):
		t.report(i, ReportMarkedContent, "page content is already marked")
	default:
		p, err := part.AddChild("P")
		if err != nil {
			return err
		}
		if err := page.PrependContent([]byte("/P <</MCID 0>> BDC\n")); err != nil {
			return err
		}
		if err := page.AppendContent([]byte("\nEMC\n")); err != nil {
			return err
		}
		if _, err := p.AddMarkedContent(i, 0); err != nil {
			return err
		}
	}

	if t.doc.Version() >= pdf.V1_5 {
		page.Dict().SetName("Tabs", "S")
	}

	if t.opts.Annotations {
		if err := t.tagAnnotations(i, page, part); err != nil {
			return err
		}
	}
	return nil
}

func (t *tagger) tagAnnotations(i int, page *pdf.Page, part *structure.Element) error {
	for _, annot := range page.Annots() {
		var typ pdf.Name
		switch annot.GetName("Subtype") {
		case "Popup":
			continue
		case "Link":
			typ = "Link"
		case "Widget":
			typ = "Form"
		default:
			typ = "Annot"
		}
		if !annot.Object().IsIndirect() {
			t.report(i, ReportDirectAnnotation,
				"cannot tag direct "+string(annot.GetName("Subtype"))+" annotation")
			continue
		}

		elem, err := part.AddChild(typ)
		if err != nil {
			return err
		}
		if alt := annot.GetText("Contents"); alt != "" {
			elem.SetAlt(alt)
		}
		if _, err := elem.AddObjectContent(annot, i); err != nil {
			return err
		}
	}
	return nil
}

func (t *tagger) report(page int, kind ReportKind, msg string) {
	t.log.Debug("cannot tag content",
		slog.Int("page", page), slog.String("kind", kind.String()))
	if t.cb != nil {
		t.cb.ReportEntry(ReportEntry{Page: page, Kind: kind, Message: msg})
	}
}

func (t *tagger) finish() (bool, error) {
	cat := t.doc.Catalog()
	if t.opts.Lang != language.Und {
		cat.SetText("Lang", t.opts.Lang.String())
		t.top.SetLang(t.opts.Lang)
	}

	if t.opts.Title != "" {
		if err := metadata.New(t.doc).SetValue(metadata.Title, t.opts.Title); err != nil {
			return false, err
		}
		prefs := cat.GetDict("ViewerPreferences")
		if prefs == nil {
			prefs = pdf.NewDict()
			if err := cat.SetAt("ViewerPreferences", prefs.Object()); err != nil {
				return false, err
			}
		}
		prefs.SetBool("DisplayDocTitle", true)
	}

	if t.doc.Version() < pdf.V1_4 {
		// needed for /MarkInfo
		t.doc.SetVersion(pdf.V1_4)
	}
	return true, nil
}

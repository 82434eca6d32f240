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

// Package combine concatenates PDF documents.
//
// Pages are copied from each source document into a new document, with
// inherited page attributes resolved.  Optionally, a bookmark is created
// for every source, the document outlines are merged, and the name trees
// of the sources are combined.
package combine

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"seehuhn.de/go/pdfsdk"
	"seehuhn.de/go/pdfsdk/action"
	"seehuhn.de/go/pdfsdk/bookmark"
	"seehuhn.de/go/pdfsdk/destination"
	"seehuhn.de/go/pdfsdk/metadata"
	"seehuhn.de/go/pdfsdk/nametree"
)

// pagesPerStep is the number of pages copied between two checks of the
// pause callback.
const pagesPerStep = 16

var errNoSources = errors.New("no source documents")

// A Source is one of the documents to be combined.
type Source struct {
	Doc *pdf.Document

	// Title is used for the bookmark of the source.  If this is empty,
	// the document title is used.
	Title string

	// Pages selects the pages to copy.  If this is empty, all pages are
	// copied.
	Pages []PageRange
}

// PageRange is a range of pages, given by 0-based page indices.
// Both ends are included.  If Last is negative, the range extends to the
// last page of the document.
type PageRange struct {
	First, Last int
}

// Options controls how documents are combined.
type Options struct {
	// Bookmarks creates a top-level bookmark for every source document,
	// leading to its first page.
	Bookmarks bool

	// MergeOutlines copies the outlines of the source documents.  If
	// Bookmarks is set, the copied outline of a source is placed below
	// the bookmark of the source.
	MergeOutlines bool

	// MergeNames merges the name trees of the source documents.  Names
	// which occur in more than one source are renamed.
	MergeNames bool

	// UseFirstInfo copies the document information dictionary of the
	// first source.
	UseFirstInfo bool

	// Version is the PDF version of the result.  If this is zero, the
	// highest version of the sources is used.
	Version pdf.Version

	// Library provides the logger for diagnostic messages.  This may be
	// nil.
	Library *pdf.Library

	Save *pdf.SaveOptions
}

type combiner struct {
	dst     *pdf.Document
	w       io.Writer
	opts    *Options
	sources []Source
	outline *bookmark.Outline

	cur   int // current source
	state *sourceState
}

// sourceState holds the progress of copying one source document.
type sourceState struct {
	src    *pdf.Document
	copier *pdf.Copier
	pages  []int
	next   int

	srcPages []*pdf.Page
	newPages []*pdf.Page

	first *pdf.Object // reference to the first copied page

	log *slog.Logger

	// Named destinations which were renamed while merging.  Strings refer
	// to the /Dests name tree, names to the /Dests dictionary of the
	// catalog.
	destRenames   map[string]string
	legacyRenames map[pdf.Name]pdf.Name
}

// Start begins combining the source documents.  The result is written to
// w when the returned operation finishes.
func Start(w io.Writer, sources []Source, opts *Options, pause pdf.PauseCallback) (*pdf.Progressive, error) {
	if len(sources) == 0 {
		return nil, errNoSources
	}
	if opts == nil {
		opts = &Options{}
	}

	v := opts.Version
	for i, s := range sources {
		if s.Doc == nil {
			return nil, fmt.Errorf("source %d: %w", i, pdf.ErrWrongType)
		}
		if opts.Version == 0 && s.Doc.Version() > v {
			v = s.Doc.Version()
		}
	}

	c := &combiner{
		dst:     pdf.NewDocument(v),
		w:       w,
		opts:    opts,
		sources: sources,
		outline: &bookmark.Outline{},
	}
	return pdf.NewProgressive(pause, c.copySources, c.finish), nil
}

// copySources copies a chunk of pages.  When all pages of a source have
// been copied, the document-level structures of the source are merged.
func (c *combiner) copySources() (bool, error) {
	if c.cur >= len(c.sources) {
		return true, nil
	}
	if c.state == nil {
		st, err := c.newSourceState(c.sources[c.cur])
		if err != nil {
			return false, fmt.Errorf("source %d: %w", c.cur, err)
		}
		c.state = st
	}

	st := c.state
	for range pagesPerStep {
		if st.next >= len(st.pages) {
			break
		}
		if err := st.copyPage(st.next); err != nil {
			return false, fmt.Errorf("source %d, page %d: %w", c.cur, st.pages[st.next], err)
		}
		st.next++
	}
	if st.next < len(st.pages) {
		return false, nil
	}

	if err := c.mergeDocument(c.cur, st); err != nil {
		return false, fmt.Errorf("source %d: %w", c.cur, err)
	}
	st.log.Debug("source copied", slog.Int("source", c.cur), slog.Int("pages", len(st.pages)))
	c.cur++
	c.state = nil
	return c.cur >= len(c.sources), nil
}

func (c *combiner) newSourceState(s Source) (*sourceState, error) {
	n := s.Doc.PageCount()
	ranges := s.Pages
	if len(ranges) == 0 {
		ranges = []PageRange{{First: 0, Last: -1}}
	}

	var pages []int
	for _, r := range ranges {
		last := r.Last
		if last < 0 {
			last = n - 1
		}
		if r.First < 0 || r.First >= n || last >= n || last < r.First {
			return nil, fmt.Errorf("page range %d-%d: %w", r.First, r.Last, pdf.ErrIndexOutOfRange)
		}
		for i := r.First; i <= last; i++ {
			pages = append(pages, i)
		}
	}

	st := &sourceState{
		src:    s.Doc,
		copier: pdf.NewCopier(c.dst, s.Doc),
		pages:  pages,
		log:    c.opts.Library.Logger(),
	}

	// References to the page tree and to pages which are not copied
	// become null.
	var all []*pdf.Page
	for _, p := range s.Doc.Pages() {
		all = append(all, p)
		seen := map[uint32]bool{}
		for node := p.Dict(); node != nil; node = node.GetDict("Parent") {
			num := node.Object().ObjNum()
			if seen[num] {
				break
			}
			seen[num] = true
			if num != 0 {
				st.copier.Redirect(num, 0)
			}
		}
	}

	// The target pages are allocated up front, so that links to later
	// pages can be translated.
	st.srcPages = make([]*pdf.Page, len(pages))
	st.newPages = make([]*pdf.Page, len(pages))
	for k, idx := range pages {
		srcPage := all[idx]
		page, err := c.dst.AppendPage(pdf.NewDict())
		if err != nil {
			return nil, err
		}
		if srcNum := srcPage.ObjNum(); srcNum != 0 {
			st.copier.Redirect(srcNum, page.ObjNum())
		}
		st.srcPages[k] = srcPage
		st.newPages[k] = page
	}
	if len(pages) > 0 {
		st.first = pdf.NewReference(c.dst, st.newPages[0].ObjNum())
	}
	return st, nil
}

// inheritable lists the page attributes which may be given on an
// intermediate node of the page tree.
var inheritable = []pdf.Name{"Resources", "MediaBox", "CropBox", "Rotate"}

// copyPage fills the k-th target page from its source page.
func (st *sourceState) copyPage(k int) error {
	srcPage := st.srcPages[k]
	dict := st.newPages[k].Dict()
	for key, val := range srcPage.Dict().All() {
		switch key {
		case "Type", "Parent", "StructParents":
			continue
		}
		cp, err := st.copier.Copy(val)
		if err != nil {
			return err
		}
		if err := dict.SetAt(key, cp); err != nil {
			return err
		}
	}
	for _, key := range inheritable {
		if dict.Has(key) {
			continue
		}
		val := srcPage.Inherited(key)
		if val == nil {
			continue
		}
		if val.IsIndirect() {
			val = pdf.NewReference(st.src, val.ObjNum())
		}
		cp, err := st.copier.Copy(val)
		if err != nil {
			return err
		}
		if err := dict.SetAt(key, cp); err != nil {
			return err
		}
	}
	return nil
}

// mergeDocument merges the outline and the name trees of a source, after
// all of its pages have been copied.
func (c *combiner) mergeDocument(i int, st *sourceState) error {
	opts := c.opts

	// Names are merged first, so that references to renamed destinations
	// can be updated in the copied pages and outline.
	if opts.MergeNames {
		for _, kind := range nametree.Kinds {
			if err := st.mergeNames(c.dst, kind); err != nil {
				return fmt.Errorf("%s name tree: %w", kind, err)
			}
		}
		if err := st.mergeDests(c.dst); err != nil {
			return err
		}
		if err := st.renameDestRefs(); err != nil {
			return err
		}
	}

	var items []*bookmark.Item
	if opts.MergeOutlines {
		outline, err := bookmark.Read(st.src)
		if err != nil {
			return err
		}
		if outline != nil {
			items = st.translateItems(outline.Items)
		}
	}
	if opts.Bookmarks && st.first != nil {
		title := c.sources[i].Title
		if title == "" {
			title = metadata.New(st.src).Value(metadata.Title)
		}
		if title == "" {
			title = fmt.Sprintf("Document %d", i+1)
		}
		top := c.outline.AddItem(title)
		top.Action = &action.GoTo{Dest: &destination.Fit{Page: st.first}}
		top.Children = items
	} else {
		c.outline.Items = append(c.outline.Items, items...)
	}

	if opts.UseFirstInfo && i == 0 {
		if info := st.src.Info(false); info != nil {
			cp, err := st.copier.Copy(info.Object())
			if err != nil {
				return err
			}
			num, err := c.dst.AddIndirectObject(cp)
			if err != nil {
				return err
			}
			c.dst.Trailer().SetRef("Info", num)
		}
	}
	return nil
}

// translateItems converts outline items of the source into items of the
// combined document.  Items whose target cannot be translated keep their
// children but lose the target.
func (st *sourceState) translateItems(items []*bookmark.Item) []*bookmark.Item {
	res := make([]*bookmark.Item, 0, len(items))
	for _, item := range items {
		cp := *item
		cp.Action = st.translateAction(item.Action)
		cp.Children = st.translateItems(item.Children)
		res = append(res, &cp)
	}
	return res
}

// translateAction copies an action into the combined document.  Page
// references are mapped to the copied pages.
func (st *sourceState) translateAction(a action.Action) action.Action {
	if a == nil {
		return nil
	}
	dict, err := a.Encode(st.src)
	if err != nil {
		st.log.Debug("cannot encode action", slog.Any("err", err))
		return nil
	}
	cp, err := st.copier.Copy(dict.Object())
	if err != nil {
		return nil
	}
	if cpDict := cp.Direct().Dict(); cpDict != nil {
		if err := st.renameInAction(cpDict, map[*pdf.Object]bool{}); err != nil {
			return nil
		}
	}
	res, err := action.Decode(cp)
	if err != nil {
		st.log.Debug("dropping action", slog.String("type", string(a.ActionType())), slog.Any("err", err))
		return nil
	}
	return res
}

// mergeNames copies the entries of one name tree.  A name which is
// already present gets a numeric suffix.
func (st *sourceState) mergeNames(dst *pdf.Document, kind nametree.Kind) error {
	src := nametree.Find(st.src, kind)
	if src == nil || src.IsEmpty() {
		return nil
	}
	tree, err := nametree.Open(dst, kind)
	if err != nil {
		return err
	}
	for name, val := range src.All() {
		cp, err := st.copier.Copy(val)
		if err != nil {
			return err
		}
		newName := uniqueName(name, tree.HasName)
		if newName != name {
			st.log.Debug("renaming duplicate name",
				slog.String("tree", string(kind)),
				slog.String("name", name), slog.String("new", newName))
			if kind == nametree.Dests {
				if st.destRenames == nil {
					st.destRenames = make(map[string]string)
				}
				st.destRenames[name] = newName
			}
		}
		if err := tree.Add(newName, cp); err != nil {
			return err
		}
	}
	return nil
}

// mergeDests copies the /Dests dictionary of the document catalog, which
// was used for named destinations before PDF 1.2.
func (st *sourceState) mergeDests(dst *pdf.Document) error {
	srcDests := st.src.Catalog().GetDict("Dests")
	if srcDests.Len() == 0 {
		return nil
	}
	dests := dst.Catalog().GetDict("Dests")
	if dests == nil {
		dests = pdf.NewDict()
		num, err := dst.AddIndirectObject(dests.Object())
		if err != nil {
			return err
		}
		dst.Catalog().SetRef("Dests", num)
	}
	for key, val := range srcDests.All() {
		cp, err := st.copier.Copy(val)
		if err != nil {
			return err
		}
		newKey := pdf.Name(uniqueName(string(key), func(s string) bool {
			return dests.Has(pdf.Name(s))
		}))
		if newKey != key {
			if st.legacyRenames == nil {
				st.legacyRenames = make(map[pdf.Name]pdf.Name)
			}
			st.legacyRenames[key] = newKey
		}
		if err := dests.SetAt(newKey, cp); err != nil {
			return err
		}
	}
	return nil
}

// renameDestRefs updates the destinations of links and actions on the
// copied pages, which refer to renamed destinations.
func (st *sourceState) renameDestRefs() error {
	if len(st.destRenames) == 0 && len(st.legacyRenames) == 0 {
		return nil
	}
	seen := map[*pdf.Object]bool{}
	for _, page := range st.newPages {
		if aa := page.Dict().GetDict("AA"); aa != nil {
			if err := st.renameInTriggers(aa, seen); err != nil {
				return err
			}
		}
		for _, annot := range page.Dict().GetArray("Annots").All() {
			dict := annot.Direct().Dict()
			if dict == nil {
				continue
			}
			if err := st.renameDestEntry(dict, "Dest"); err != nil {
				return err
			}
			if a := dict.GetDict("A"); a != nil {
				if err := st.renameInAction(a, seen); err != nil {
					return err
				}
			}
			if aa := dict.GetDict("AA"); aa != nil {
				if err := st.renameInTriggers(aa, seen); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// renameInTriggers updates an additional-actions dictionary.
func (st *sourceState) renameInTriggers(aa *pdf.Dict, seen map[*pdf.Object]bool) error {
	for _, val := range aa.All() {
		if a := val.Direct().Dict(); a != nil {
			if err := st.renameInAction(a, seen); err != nil {
				return err
			}
		}
	}
	return nil
}

// renameInAction updates a GoTo action and the actions which follow it
// via /Next.
func (st *sourceState) renameInAction(a *pdf.Dict, seen map[*pdf.Object]bool) error {
	if seen[a.Object()] {
		return nil
	}
	seen[a.Object()] = true

	if a.GetName("S") == "GoTo" {
		if err := st.renameDestEntry(a, "D"); err != nil {
			return err
		}
	}

	next := a.GetDirect("Next")
	if d := next.Dict(); d != nil {
		return st.renameInAction(d, seen)
	}
	for _, elem := range next.Array().All() {
		if d := elem.Direct().Dict(); d != nil {
			if err := st.renameInAction(d, seen); err != nil {
				return err
			}
		}
	}
	return nil
}

// renameDestEntry replaces a named destination stored under key, if the
// name was changed while merging.
func (st *sourceState) renameDestEntry(dict *pdf.Dict, key pdf.Name) error {
	dest := dict.GetDirect(key)
	switch dest.Type() {
	case pdf.TypeString:
		if newName, ok := st.destRenames[dest.Text()]; ok {
			return dict.SetAt(key, pdf.NewTextString(newName))
		}
	case pdf.TypeName:
		if newName, ok := st.legacyRenames[dest.Name()]; ok {
			return dict.SetAt(key, pdf.NewName(newName))
		}
	}
	return nil
}

func uniqueName(name string, exists func(string) bool) string {
	if !exists(name) {
		return name
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s_%d", name, i)
		if !exists(candidate) {
			return candidate
		}
	}
}

// finish installs the combined outline and writes the document.
func (c *combiner) finish() (bool, error) {
	if len(c.outline.Items) > 0 {
		if err := c.outline.Write(c.dst); err != nil {
			return false, err
		}
		c.dst.Catalog().SetName("PageMode", "UseOutlines")
	}
	metadata.New(c.dst).SetModDate(time.Now())

	if err := c.dst.Save(c.w, c.opts.Save); err != nil {
		return false, err
	}
	return true, nil
}

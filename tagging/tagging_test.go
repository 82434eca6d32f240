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

package tagging

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/text/language"

	"seehuhn.de/go/geom/rect"

	"seehuhn.de/go/pdfsdk"
	"seehuhn.de/go/pdfsdk/metadata"
	"seehuhn.de/go/pdfsdk/structure"
)

type recorder struct {
	pages   []int
	entries []ReportEntry
}

func (r *recorder) PageTagged(page, total int) {
	r.pages = append(r.pages, page)
}

func (r *recorder) ReportEntry(entry ReportEntry) {
	r.entries = append(r.entries, entry)
}

func makeDocument(t *testing.T) (*pdf.Document, *pdf.Dict) {
	t.Helper()
	doc := pdf.NewDocument(pdf.V1_7)
	doc.Catalog().GetDict("Pages").SetRect("MediaBox", rect.Rect{URx: 200, URy: 200})

	contents := []string{
		"BT /F1 12 Tf 10 10 Td (Hello) Tj ET",
		"",
		"/Span <</MCID 3>> BDC BT (x) Tj ET EMC",
	}
	var pages []*pdf.Page
	for _, c := range contents {
		page, err := doc.AppendPage(pdf.NewDict())
		if err != nil {
			t.Fatal(err)
		}
		if c != "" {
			if err := page.AppendContent([]byte(c)); err != nil {
				t.Fatal(err)
			}
		}
		pages = append(pages, page)
	}

	link := pdf.NewDict()
	link.SetName("Type", "Annot")
	link.SetName("Subtype", "Link")
	link.SetRect("Rect", rect.Rect{LLx: 10, LLy: 10, URx: 50, URy: 20})
	link.SetText("Contents", "go to page 3")
	if _, err := doc.AddIndirectObject(link.Object()); err != nil {
		t.Fatal(err)
	}
	annots := pdf.NewArray()
	pages[0].Dict().SetAt("Annots", annots.Object())
	annots.Add(link.Object())

	note := pdf.NewDict()
	note.SetName("Subtype", "Text")
	note.SetRect("Rect", rect.Rect{URx: 10, URy: 10})
	annots = pdf.NewArray()
	pages[2].Dict().SetAt("Annots", annots.Object())
	annots.Add(note.Object())

	return doc, link
}

func TestTagging(t *testing.T) {
	lib, err := pdf.Initialize(pdf.Config{Modules: pdf.ModuleTagging})
	if err != nil {
		t.Fatal(err)
	}
	doc, link := makeDocument(t)

	opts := &Options{
		Library:     lib,
		Lang:        language.BritishEnglish,
		Title:       "Tagged",
		Annotations: true,
	}
	rec := &recorder{}
	p, err := Start(doc, opts, rec, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]int{0, 1, 2}, rec.pages); diff != "" {
		t.Errorf("progress (-want +got):\n%s", diff)
	}
	type kindAt struct {
		Page int
		Kind ReportKind
	}
	var got []kindAt
	for _, e := range rec.entries {
		got = append(got, kindAt{e.Page, e.Kind})
	}
	want := []kindAt{
		{1, ReportEmptyPage},
		{2, ReportMarkedContent},
		{2, ReportDirectAnnotation},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("report (-want +got):\n%s", diff)
	}

	tree := structure.Open(doc)
	if tree == nil {
		t.Fatal("no structure tree")
	}
	if tree.ChildCount() != 1 || tree.Child(0).Type() != "Document" {
		t.Fatal("wrong top-level element")
	}
	top := tree.Child(0)
	if top.ChildCount() != 3 {
		t.Fatalf("%d parts", top.ChildCount())
	}
	for i, kid := range top.Children() {
		part, ok := kid.(*structure.Element)
		if !ok || part.Type() != "Part" || part.Page() != i {
			t.Errorf("part %d is wrong", i)
		}
	}

	page, _ := doc.Page(0)
	content, err := page.Contents()
	if err != nil {
		t.Fatal(err)
	}
	s := string(content)
	if !strings.HasPrefix(s, "/P <</MCID 0>> BDC") || !strings.HasSuffix(strings.TrimSpace(s), "EMC") {
		t.Errorf("content not marked: %q", s)
	}
	if elem := tree.ElementForMCID(0, 0); elem == nil || elem.Type() != "P" {
		t.Error("MCID 0 not in parent tree")
	}
	if elem := tree.ElementForObject(link); elem == nil || elem.Type() != "Link" || elem.Alt() != "go to page 3" {
		t.Error("link annotation not tagged")
	}
	if page.Dict().GetName("Tabs") != "S" {
		t.Error("tab order not set")
	}

	cat := doc.Catalog()
	if cat.GetText("Lang") != "en-GB" {
		t.Errorf("language %q", cat.GetText("Lang"))
	}
	if !cat.GetDict("MarkInfo").GetDirect("Marked").Bool() {
		t.Error("document not marked")
	}
	if !cat.GetDict("ViewerPreferences").GetDirect("DisplayDocTitle").Bool() {
		t.Error("DisplayDocTitle not set")
	}
	if metadata.New(doc).Value(metadata.Title) != "Tagged" {
		t.Error("title not set")
	}
}

func TestAlreadyTagged(t *testing.T) {
	lib, _ := pdf.Initialize(pdf.Config{Modules: pdf.ModuleTagging})
	doc, _ := makeDocument(t)
	if _, err := structure.Create(doc); err != nil {
		t.Fatal(err)
	}

	_, err := Start(doc, &Options{Library: lib}, nil, nil)
	if !errors.Is(err, ErrAlreadyTagged) {
		t.Errorf("got %v", err)
	}

	pause := pdf.PauseFunc(func() bool { return true })
	p, err := Start(doc, &Options{Library: lib, Overwrite: true}, nil, pause)
	if err != nil {
		t.Fatal(err)
	}
	turns := 0
	for {
		state, err := p.Continue()
		if err != nil {
			t.Fatal(err)
		}
		turns++
		if state == pdf.StateFinished {
			break
		}
	}
	if turns != 3 {
		t.Errorf("finished after %d turns", turns)
	}
	tree := structure.Open(doc)
	if tree.ChildCount() != 1 || tree.Child(0).ChildCount() != 3 {
		t.Error("structure tree not replaced")
	}
}

func TestNoModule(t *testing.T) {
	doc, _ := makeDocument(t)
	lib, _ := pdf.Initialize(pdf.Config{Modules: pdf.ModuleCompliance})
	_, err := Start(doc, &Options{Library: lib}, nil, nil)
	if !errors.Is(err, pdf.ErrUnsupported) {
		t.Errorf("got %v", err)
	}
}

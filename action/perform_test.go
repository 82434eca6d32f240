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

package action

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/pdfsdk"
	"seehuhn.de/go/pdfsdk/destination"
	"seehuhn.de/go/pdfsdk/nametree"
)

type recorder struct {
	log []string
}

func (r *recorder) JumpToPage(page int, dest destination.Destination) error {
	r.log = append(r.log, fmt.Sprintf("page %d %s", page, dest.DestinationType()))
	return nil
}

func (r *recorder) OpenFile(file string, dest destination.Destination, mode NewWindowMode) error {
	r.log = append(r.log, fmt.Sprintf("open %s %d", file, mode))
	return nil
}

func (r *recorder) OpenURI(uri string) error {
	r.log = append(r.log, "uri "+uri)
	return nil
}

func (r *recorder) ExecuteNamed(name pdf.Name) error {
	r.log = append(r.log, "named "+string(name))
	return nil
}

func (r *recorder) RunJavaScript(script string) error {
	r.log = append(r.log, "js "+script)
	return nil
}

func (r *recorder) Other(a Action) error {
	r.log = append(r.log, "other "+string(a.ActionType()))
	return nil
}

func TestPerform(t *testing.T) {
	doc := newDoc(t, 4)
	page, _ := destination.PageTarget(doc, 3)
	destObj, _ := (&destination.Fit{Page: page}).Encode(doc)
	tree, err := nametree.Open(doc, nametree.Dests)
	if err != nil {
		t.Fatal(err)
	}
	tree.Add("end", destObj)

	shared := &Named{Name: LastPage}
	a := &GoTo{Dest: &destination.Named{Name: "end"}}
	a.Next = ActionList{
		&URI{URI: "https://example.com/", base: base{Next: ActionList{shared}}},
		&Launch{File: "x.txt", NewWindow: NewWindowNew},
		&ResetForm{},
		shared,
		&JavaScript{Script: "1+1"},
	}

	r := &recorder{}
	if err := Perform(doc, a, r); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"page 3 Fit",
		"uri https://example.com/",
		"named LastPage",
		"open x.txt 2",
		"other ResetForm",
		"js 1+1",
	}
	if d := cmp.Diff(want, r.log); d != "" {
		t.Errorf("wrong callbacks (-want +got):\n%s", d)
	}
}

func TestPerformHide(t *testing.T) {
	doc := newDoc(t, 1)
	annot := pdf.NewDict()
	annot.SetName("Subtype", "Text")
	annot.SetInteger("F", 4)
	if _, err := doc.AddIndirectObject(annot.Object()); err != nil {
		t.Fatal(err)
	}

	r := &recorder{}
	hide := &Hide{Annotations: []*pdf.Dict{annot}}
	if err := Perform(doc, hide, r); err != nil {
		t.Fatal(err)
	}
	if annot.GetInteger("F") != 6 {
		t.Errorf("flags = %d, want 6", annot.GetInteger("F"))
	}
	if len(r.log) != 0 {
		t.Errorf("unexpected callbacks %q", r.log)
	}

	show := &Hide{Annotations: []*pdf.Dict{annot}, Fields: []string{"f"}, Show: true}
	if err := Perform(doc, show, r); err != nil {
		t.Fatal(err)
	}
	if annot.GetInteger("F") != 4 {
		t.Errorf("flags = %d, want 4", annot.GetInteger("F"))
	}
	if d := cmp.Diff([]string{"other Hide"}, r.log); d != "" {
		t.Error(d)
	}

	// an encoded Hide action refers to the annotation by reference
	dict, err := hide.Encode(doc)
	if err != nil {
		t.Fatal(err)
	}
	if dict.Get("T").Type() != pdf.TypeReference {
		t.Errorf("T is %s", dict.Get("T").Type())
	}
}

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
	"testing"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/geom/rect"
)

func TestNewDocument(t *testing.T) {
	doc := NewDocument(V1_7)
	cat := doc.Catalog()
	if cat.GetName("Type") != "Catalog" {
		t.Errorf("catalog: %s", Format(cat.Object()))
	}
	if cat.GetDict("Pages").GetName("Type") != "Pages" {
		t.Error("page tree root missing")
	}
	if doc.PageCount() != 0 {
		t.Errorf("PageCount() = %d", doc.PageCount())
	}
	if doc.Version() != V1_7 {
		t.Errorf("Version() = %s", doc.Version())
	}
}

func TestStaleReference(t *testing.T) {
	doc := NewDocument(V1_7)
	a := NewDict()
	a.SetName("Name", "A")
	num, err := doc.AddIndirectObject(a.Object())
	if err != nil {
		t.Fatal(err)
	}
	ref := NewReference(doc, num)
	if ref.Direct() != a.Object() {
		t.Fatal("reference not resolved")
	}

	err = doc.DeleteIndirectObject(num)
	if err != nil {
		t.Fatal(err)
	}
	if ref.Direct() != nil {
		t.Error("stale reference resolves")
	}
	if a.Object().IsIndirect() {
		t.Error("deleted object is still indirect")
	}
	if err := a.Object().Release(); err != nil {
		t.Errorf("release of deleted object: %v", err)
	}
	if err := doc.DeleteIndirectObject(num); err != ErrNoObject {
		t.Errorf("second delete: %v", err)
	}

	// the number is reused with a new generation
	if doc.NextObjNum() != num {
		t.Errorf("NextObjNum() = %d, want %d", doc.NextObjNum(), num)
	}
	b := NewDict()
	num2, _ := doc.AddIndirectObject(b.Object())
	if num2 != num || b.Object().Gen() != 1 {
		t.Errorf("got %d/%d", num2, b.Object().Gen())
	}
	if ref.Direct() != nil {
		t.Error("stale reference resolves to the new object")
	}
	if NewReference(doc, num).Direct() != b.Object() {
		t.Error("new reference not resolved")
	}
}

func TestAddIndirectObject(t *testing.T) {
	doc := NewDocument(V1_7)
	d := NewDict()
	n1, err := doc.AddIndirectObject(d.Object())
	if err != nil {
		t.Fatal(err)
	}
	n2, err := doc.AddIndirectObject(d.Object())
	if err != nil || n1 != n2 {
		t.Errorf("second registration: %d %d %v", n1, n2, err)
	}

	parent := NewArray()
	child := NewDict()
	parent.Add(child.Object())
	if _, err := doc.AddIndirectObject(child.Object()); err != ErrAttached {
		t.Errorf("attached object: %v", err)
	}
	if _, err := doc.AddIndirectObject(NewReference(doc, n1)); err != ErrWrongType {
		t.Errorf("reference: %v", err)
	}

	var nums []uint32
	for num := range doc.Objects() {
		nums = append(nums, num)
	}
	want := []uint32{1, 2, 3}
	if diff := cmp.Diff(want, nums); diff != "" {
		t.Errorf("objects mismatch (-want +got):\n%s", diff)
	}
}

func TestInfo(t *testing.T) {
	doc := NewDocument(V1_7)
	if doc.Info(false) != nil {
		t.Error("new document has an info dictionary")
	}
	info := doc.Info(true)
	info.SetText("Title", "Test")
	if doc.Info(false).GetText("Title") != "Test" {
		t.Error("info dictionary not stored")
	}

	id := doc.FileID()
	if len(id[0]) != 16 || len(id[1]) != 16 {
		t.Errorf("wrong file ID %x", id)
	}
	if id2 := doc.FileID(); string(id2[0]) != string(id[0]) {
		t.Error("file ID not stable")
	}
}

func TestPages(t *testing.T) {
	doc := NewDocument(V1_7)
	for i := range 3 {
		dict := NewDict()
		dict.SetInteger("Idx", int64(i))
		if _, err := doc.AppendPage(dict); err != nil {
			t.Fatal(err)
		}
	}
	front := NewDict()
	front.SetInteger("Idx", -1)
	p, err := doc.InsertPage(0, front)
	if err != nil {
		t.Fatal(err)
	}
	if p.Index() != 0 {
		t.Errorf("Index() = %d", p.Index())
	}

	var got []int64
	for _, page := range doc.Pages() {
		got = append(got, page.Dict().GetInteger("Idx"))
	}
	if diff := cmp.Diff([]int64{-1, 0, 1, 2}, got); diff != "" {
		t.Errorf("page order (-want +got):\n%s", diff)
	}
	root := doc.Catalog().GetDict("Pages")
	if root.GetInteger("Count") != 4 {
		t.Errorf("/Count = %d", root.GetInteger("Count"))
	}
	if p.Dict().GetDict("Parent") != root {
		t.Error("wrong /Parent")
	}

	if err := doc.RemovePage(2); err != nil {
		t.Fatal(err)
	}
	if doc.PageCount() != 3 || root.GetInteger("Count") != 3 {
		t.Errorf("after removal: %d pages, /Count %d", doc.PageCount(), root.GetInteger("Count"))
	}
	if err := doc.RemovePage(3); err != ErrIndexOutOfRange {
		t.Errorf("removing missing page: %v", err)
	}
	if _, err := doc.Page(-1); err != ErrIndexOutOfRange {
		t.Errorf("Page(-1): %v", err)
	}
}

func TestInheritedAttributes(t *testing.T) {
	doc := NewDocument(V1_7)
	root := doc.Catalog().GetDict("Pages")
	root.SetRect("MediaBox", rect.Rect{URx: 595, URy: 842})
	root.SetInteger("Rotate", -90)
	res := NewDict()
	res.SetAt("Font", NewDict().Object())
	root.SetAt("Resources", res.Object())

	p, err := doc.AppendPage(NewDict())
	if err != nil {
		t.Fatal(err)
	}
	if got := p.MediaBox(); got != (rect.Rect{URx: 595, URy: 842}) {
		t.Errorf("MediaBox() = %v", got)
	}
	if got := p.CropBox(); got != p.MediaBox() {
		t.Errorf("CropBox() = %v", got)
	}
	if p.Rotate() != 270 {
		t.Errorf("Rotate() = %d", p.Rotate())
	}
	if !p.Resources().Has("Font") {
		t.Error("resources not inherited")
	}

	q, _ := doc.AppendPage(NewDict())
	root.Remove("MediaBox")
	if got := q.MediaBox(); got != (rect.Rect{URx: 612, URy: 792}) {
		t.Errorf("default MediaBox() = %v", got)
	}
}

func TestPageContents(t *testing.T) {
	doc := NewDocument(V1_7)
	p, _ := doc.AppendPage(NewDict())

	if err := p.AppendContent([]byte("B")); err != nil {
		t.Fatal(err)
	}
	if err := p.AppendContent([]byte("C")); err != nil {
		t.Fatal(err)
	}
	if err := p.PrependContent([]byte("A")); err != nil {
		t.Fatal(err)
	}
	got, err := p.Contents()
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "A\nB\nC" {
		t.Errorf("Contents() = %q", got)
	}
}

func TestCopier(t *testing.T) {
	src := NewDocument(V1_7)
	a := NewDict()
	b := NewDict()
	numA, _ := src.AddIndirectObject(a.Object())
	numB, _ := src.AddIndirectObject(b.Object())
	a.SetRef("Next", numB)
	b.SetRef("Next", numA)
	b.SetText("Label", "b")

	dst := NewDocument(V1_7)
	c := NewCopier(dst, src)
	newA, err := c.CopyIndirect(numA)
	if err != nil {
		t.Fatal(err)
	}
	copyA := dst.GetIndirectObject(newA).Dict()
	copyB := copyA.GetDict("Next")
	if copyB == nil || copyB.GetText("Label") != "b" {
		t.Fatalf("copy incomplete: %s", Format(copyA.Object()))
	}
	if copyB.Get("Next").Target().Number() != newA {
		t.Error("cycle not mapped to the copy")
	}
	if copyB.Object().Document() != dst {
		t.Error("copy belongs to the wrong document")
	}

	again, _ := c.CopyIndirect(numA)
	if again != newA {
		t.Error("object copied twice")
	}

	stm, _ := NewStream(nil)
	stm.SetData([]byte("stream data"))
	stm.Dict().SetAt("Ref", NewReference(src, numB))
	cp, err := c.Copy(stm.Object())
	if err != nil {
		t.Fatal(err)
	}
	data, _ := cp.Stream().Data(false)
	if string(data) != "stream data" {
		t.Errorf("stream data %q", data)
	}
	newB, _ := c.CopyIndirect(numB)
	if got := cp.Stream().Dict().Get("Ref").Target().Number(); got != newB {
		t.Errorf("reference translated to %d, want %d", got, newB)
	}
}

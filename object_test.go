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
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/geom/rect"
)

func TestTypedAccessors(t *testing.T) {
	objs := []*Object{
		NewBool(true),
		NewInteger(7),
		NewReal(1.5),
		NewString([]byte("abc")),
		NewName("N"),
		NewNull(),
		NewArray().Object(),
		NewDict().Object(),
	}
	for _, o := range objs {
		typ := o.Type()
		if typ != TypeBoolean && o.Bool() {
			t.Errorf("%s: Bool() = true", typ)
		}
		if typ != TypeNumber && (o.Integer() != 0 || o.Float() != 0) {
			t.Errorf("%s: number accessor returned non-zero", typ)
		}
		if typ != TypeString && o.Bytes() != nil {
			t.Errorf("%s: Bytes() = %q", typ, o.Bytes())
		}
		if typ != TypeName && o.Name() != "" {
			t.Errorf("%s: Name() = %q", typ, o.Name())
		}
		if typ != TypeArray && o.Array() != nil {
			t.Errorf("%s: Array() != nil", typ)
		}
		if typ != TypeDictionary && o.Dict() != nil {
			t.Errorf("%s: Dict() != nil", typ)
		}
		if o.Stream() != nil {
			t.Errorf("%s: Stream() != nil", typ)
		}
	}

	var missing *Object
	if missing.Type() != TypeInvalid || missing.Integer() != 0 || missing.Direct() != nil {
		t.Error("nil object not handled")
	}
}

func TestNumbers(t *testing.T) {
	if !NewNumber(3).IsInteger() {
		t.Error("NewNumber(3) is not an integer")
	}
	if NewNumber(3.25).IsInteger() {
		t.Error("NewNumber(3.25) is an integer")
	}
	if x := NewReal(-2.75).Integer(); x != -2 {
		t.Errorf("Integer() = %d, want -2", x)
	}
	if x := NewInteger(12).Float(); x != 12 {
		t.Errorf("Float() = %g, want 12", x)
	}
}

func TestRectAndMatrix(t *testing.T) {
	a := NewNumberArray(100, 200, 0, 50)
	got := a.Object().Rect()
	want := rect.Rect{LLx: 0, LLy: 50, URx: 100, URy: 200}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("Rect() mismatch (-want +got):\n%s", d)
	}

	if r := NewNumberArray(1, 2, 3).Object().Rect(); r != (rect.Rect{}) {
		t.Errorf("short array gave %v", r)
	}

	m := NewNumberArray(1, 0, 0, 1, 10, 20).Object().Matrix()
	if m[4] != 10 || m[5] != 20 || m[0] != 1 {
		t.Errorf("wrong matrix %v", m)
	}
}

func TestArrayOperations(t *testing.T) {
	a := NewArray()
	for i := range 3 {
		if err := a.Add(NewInteger(int64(i))); err != nil {
			t.Fatal(err)
		}
	}

	x := NewName("x")
	if err := a.InsertAt(-5, x); err != nil {
		t.Fatal(err)
	}
	if err := a.InsertAt(100, NewName("y")); err != nil {
		t.Fatal(err)
	}
	if got := Format(a.Object()); got != "[/x 0 1 2 /y]" {
		t.Errorf("got %s", got)
	}
	if a.Get(0) != x {
		t.Error("Get does not return the inserted object")
	}
	if x.Parent() != a.Object() {
		t.Error("wrong parent")
	}

	if err := a.SetAt(5, NewNull()); err != ErrIndexOutOfRange {
		t.Errorf("SetAt out of range: %v", err)
	}
	z := NewName("z")
	if err := a.SetAt(0, z); err != nil {
		t.Fatal(err)
	}
	if a.Get(0) != z {
		t.Error("SetAt/Get identity violated")
	}
	if x.Parent() != nil {
		t.Error("replaced element still attached")
	}

	if err := a.RemoveAt(0); err != nil {
		t.Fatal(err)
	}
	if z.Parent() != nil {
		t.Error("removed element still attached")
	}
	if a.Len() != 4 {
		t.Errorf("Len() = %d", a.Len())
	}
	if a.Get(-1) != nil || a.Get(4) != nil {
		t.Error("out of range Get returned an object")
	}

	a.Clear()
	if a.Len() != 0 {
		t.Errorf("Len() = %d after Clear", a.Len())
	}
}

func TestDictOperations(t *testing.T) {
	d := NewDict()
	d.SetName("Type", "Test")
	d.SetInteger("B", 2)
	d.SetInteger("A", 1)
	d.SetText("Title", "Hello")

	if d.Len() != 4 {
		t.Errorf("Len() = %d", d.Len())
	}
	wantKeys := []Name{"A", "B", "Title", "Type"}
	if diff := cmp.Diff(wantKeys, d.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	if d.GetText("Title") != "Hello" || d.GetName("Type") != "Test" {
		t.Error("wrong values")
	}

	v := NewInteger(3)
	if err := d.SetAt("B", v); err != nil {
		t.Fatal(err)
	}
	if d.Get("B") != v {
		t.Error("SetAt/Get identity violated")
	}
	if err := d.SetAt("C", nil); err != nil || d.Has("C") {
		t.Error("setting nil must not create a key")
	}
	if err := d.Remove("Missing"); err != nil {
		t.Error(err)
	}
	if err := d.Remove("B"); err != nil {
		t.Fatal(err)
	}
	if v.Parent() != nil {
		t.Error("removed value still attached")
	}

	var missing *Dict
	if missing.Len() != 0 || missing.Get("A") != nil || missing.Has("A") {
		t.Error("nil dictionary not handled")
	}
}

func TestMoveNext(t *testing.T) {
	d := NewDict()
	for _, key := range []Name{"d", "b", "a", "c"} {
		d.SetInteger(key, 0)
	}

	var seen []Name
	for pos := d.MoveNext(nil); pos != nil; pos = d.MoveNext(pos) {
		seen = append(seen, pos.Key())
		// modifications during the iteration must not cause keys to be
		// visited twice
		if pos.Key() == "b" {
			d.Remove("b")
			d.SetInteger("bb", 1)
			d.SetInteger("a", 1)
		}
	}
	want := []Name{"a", "b", "bb", "c", "d"}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Errorf("iteration mismatch (-want +got):\n%s", diff)
	}

	var empty *Dict
	if empty.MoveNext(nil) != nil {
		t.Error("MoveNext on nil dictionary")
	}
}

func TestAttachRules(t *testing.T) {
	a := NewArray()
	b := NewArray()
	x := NewName("x")
	if err := a.Add(x); err != nil {
		t.Fatal(err)
	}
	if err := b.Add(x); err != ErrAttached {
		t.Errorf("second parent: %v", err)
	}
	if err := x.Release(); err != ErrAttached {
		t.Errorf("release of attached object: %v", err)
	}

	// cycles
	if err := a.Add(a.Object()); err != ErrCycle {
		t.Errorf("self insertion: %v", err)
	}
	inner := NewDict()
	if err := a.Add(inner.Object()); err != nil {
		t.Fatal(err)
	}
	if err := inner.SetAt("Outer", a.Object()); err != ErrCycle && err != ErrAttached {
		t.Errorf("cycle via child: %v", err)
	}

	// release
	free := NewArray()
	free.Add(NewInteger(1))
	if err := free.Object().Release(); err != nil {
		t.Fatal(err)
	}
	if !free.Object().IsReleased() {
		t.Error("not released")
	}
	if err := free.Object().Release(); err != ErrReleased {
		t.Errorf("double release: %v", err)
	}
	if err := free.Add(NewNull()); err != ErrReleased {
		t.Errorf("use after release: %v", err)
	}
	if err := a.Add(free.Object()); err != ErrReleased {
		t.Errorf("attaching released object: %v", err)
	}
}

func TestForeignDocument(t *testing.T) {
	doc1 := NewDocument(V1_7)
	doc2 := NewDocument(V1_7)

	d1 := NewDict()
	num, err := doc1.AddIndirectObject(d1.Object())
	if err != nil {
		t.Fatal(err)
	}
	ref := NewReference(doc1, num)

	info := doc2.Info(true)
	if err := info.SetAt("X", ref); !errors.Is(err, ErrForeignDocument) {
		t.Errorf("foreign reference: %v", err)
	}
	if err := info.SetAt("Y", d1.Object()); !errors.Is(err, ErrForeignDocument) {
		t.Errorf("foreign indirect object: %v", err)
	}
	if _, err := doc2.AddIndirectObject(d1.Object()); !errors.Is(err, ErrForeignDocument) {
		t.Errorf("adding foreign object: %v", err)
	}

	// A free tree takes on the document of the first reference it gets.
	a := NewArray()
	a.Add(NewReference(doc1, num))
	if a.Object().Document() != doc1 {
		t.Error("document not inherited")
	}
}

func TestIndirectViaReference(t *testing.T) {
	doc := NewDocument(V1_7)
	target := NewDict()
	target.SetInteger("Value", 42)
	num, err := doc.AddIndirectObject(target.Object())
	if err != nil {
		t.Fatal(err)
	}

	info := doc.Info(true)
	if err := info.SetAt("T", target.Object()); err != nil {
		t.Fatal(err)
	}
	stored := info.Get("T")
	if stored.Type() != TypeReference || stored.Target().Number() != num {
		t.Fatalf("indirect object stored as %s", Format(stored))
	}
	if info.GetDict("T").GetInteger("Value") != 42 {
		t.Error("reference not resolved")
	}
	if !stored.IsIdentical(target.Object()) {
		t.Error("reference not identical to its target")
	}
	if target.Object().Parent() != nil {
		t.Error("indirect object got a parent")
	}
}

func TestClone(t *testing.T) {
	doc := NewDocument(V1_7)
	shared := NewDict()
	shared.SetName("Kind", "Shared")
	num, _ := doc.AddIndirectObject(shared.Object())

	orig := NewDict()
	orig.SetInteger("A", 1)
	orig.SetAt("S", NewReference(doc, num))
	sub := NewArray()
	sub.Add(NewName("x"))
	orig.SetAt("Sub", sub.Object())

	c := orig.Object().Clone().Dict()
	if c.Object().Parent() != nil || c.Object().IsIndirect() {
		t.Error("clone is not a free direct object")
	}
	if c.GetArray("Sub") == sub {
		t.Error("direct child not copied")
	}
	if !c.Get("S").IsIdentical(orig.Get("S")) {
		t.Error("reference not kept")
	}
	if c.Object().Document() != doc {
		t.Error("clone lost its document")
	}
	if Format(c.Object()) != Format(orig.Object()) {
		t.Errorf("clone differs:\n%s\n%s", Format(c.Object()), Format(orig.Object()))
	}

	dc := orig.Object().DeepClone().Dict()
	if dc.Get("S").Type() != TypeDictionary {
		t.Errorf("reference not resolved: %s", Format(dc.Get("S")))
	}
	if dc.Object().Document() != nil {
		t.Error("deep clone depends on a document")
	}
}

func TestDeepCloneCycle(t *testing.T) {
	doc := NewDocument(V1_7)
	a := NewDict()
	num, _ := doc.AddIndirectObject(a.Object())
	a.SetRef("Self", num)

	c := a.Object().DeepClone().Dict()
	if c.Get("Self").Type() != TypeDictionary {
		t.Fatalf("got %s", Format(c.Object()))
	}
	if inner := c.GetDict("Self").Get("Self"); inner.Type() != TypeNull {
		t.Errorf("cycle not broken: %s", Format(c.Object()))
	}
}

func TestIsIdentical(t *testing.T) {
	cases := []struct {
		a, b *Object
		want bool
	}{
		{NewInteger(1), NewInteger(1), true},
		{NewInteger(1), NewReal(1), true},
		{NewInteger(1), NewInteger(2), false},
		{NewName("a"), NewName("a"), true},
		{NewName("a"), NewString([]byte("a")), false},
		{NewNull(), NewNull(), true},
		{NewArray().Object(), NewArray().Object(), false},
	}
	for i, test := range cases {
		if got := test.a.IsIdentical(test.b); got != test.want {
			t.Errorf("%d: got %t, want %t", i, got, test.want)
		}
	}
}

func TestDateRoundTrip(t *testing.T) {
	loc := time.FixedZone("", 2*3600)
	t0 := time.Date(2023, 4, 5, 12, 34, 56, 0, loc)
	o := NewDate(t0)
	if got := string(o.Bytes()); got != "D:20230405123456+02'00'" {
		t.Errorf("got %q", got)
	}
	if t1 := o.Date(); !t1.Equal(t0) {
		t.Errorf("got %v, want %v", t1, t0)
	}

	utc := NewDate(time.Date(2000, 1, 2, 3, 4, 5, 0, time.UTC))
	if got := string(utc.Bytes()); got != "D:20000102030405Z" {
		t.Errorf("got %q", got)
	}
}

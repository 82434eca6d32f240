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

package destination

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/pdfsdk"
	"seehuhn.de/go/pdfsdk/nametree"
)

func newDoc(t *testing.T, pages int) *pdf.Document {
	t.Helper()
	doc := pdf.NewDocument(pdf.V1_7)
	for range pages {
		if _, err := doc.AppendPage(pdf.NewDict()); err != nil {
			t.Fatal(err)
		}
	}
	return doc
}

func TestEncodeFormat(t *testing.T) {
	doc := newDoc(t, 2)
	page, err := PageTarget(doc, 1)
	if err != nil {
		t.Fatal(err)
	}
	pageNum := page.Target().Number()
	ref := page.String()

	cases := []struct {
		dest Destination
		want string
	}{
		{&XYZ{Page: page, Left: 10, Top: Unset, Zoom: 1.5}, "[" + ref + " /XYZ 10 null 1.5]"},
		{&Fit{Page: page}, "[" + ref + " /Fit]"},
		{&FitH{Page: page, Top: 700}, "[" + ref + " /FitH 700]"},
		{&FitV{Page: page, Left: Unset}, "[" + ref + " /FitV null]"},
		{&FitR{Page: page, Rect: rect.Rect{LLx: 0, LLy: 0, URx: 100, URy: 50}}, "[" + ref + " /FitR 0 0 100 50]"},
		{&FitB{Page: page}, "[" + ref + " /FitB]"},
		{&FitBH{Page: page, Top: 1}, "[" + ref + " /FitBH 1]"},
		{&FitBV{Page: page, Left: 2}, "[" + ref + " /FitBV 2]"},
		{&Fit{Page: pdf.NewInteger(3)}, "[3 /Fit]"},
	}
	for _, c := range cases {
		obj, err := c.dest.Encode(doc)
		if err != nil {
			t.Errorf("%s: %v", c.dest.DestinationType(), err)
			continue
		}
		if got := pdf.Format(obj); got != c.want {
			t.Errorf("%s: got %q, want %q", c.dest.DestinationType(), got, c.want)
		}
		if obj.Array().Get(0).IsInteger() {
			continue
		}
		if obj.Array().Get(0).Target().Number() != pageNum {
			t.Errorf("%s: wrong page", c.dest.DestinationType())
		}
	}
}

func TestEncodeErrors(t *testing.T) {
	doc := newDoc(t, 1)
	page, _ := PageTarget(doc, 0)

	bad := []Destination{
		&Fit{},
		&XYZ{Page: page, Left: math.Inf(1)},
		&FitR{Page: page},
		&Named{},
	}
	for _, d := range bad {
		if _, err := d.Encode(doc); err == nil {
			t.Errorf("%T: missing error", d)
		}
	}

	old := pdf.NewDocument(pdf.V1_0)
	if _, err := (&FitB{Page: pdf.NewInteger(0)}).Encode(old); err == nil {
		t.Error("FitB accepted for PDF 1.0")
	}
}

func TestRoundTrip(t *testing.T) {
	doc := newDoc(t, 3)
	page, _ := PageTarget(doc, 2)

	dests := []Destination{
		&XYZ{Page: page, Left: 1, Top: 2, Zoom: 3},
		&Fit{Page: page},
		&FitH{Page: page, Top: 4},
		&FitV{Page: page, Left: 5},
		&FitR{Page: page, Rect: rect.Rect{LLx: 1, LLy: 2, URx: 3, URy: 4}},
		&FitB{Page: page},
		&FitBH{Page: page, Top: 6},
		&FitBV{Page: page, Left: 7},
		&Named{Name: "chapter1"},
		&Named{Name: "old", AsName: true},
	}
	for _, d := range dests {
		obj, err := d.Encode(doc)
		if err != nil {
			t.Fatal(err)
		}
		d2, err := Decode(obj)
		if err != nil {
			t.Fatalf("%s: %v", d.DestinationType(), err)
		}
		if d2.DestinationType() != d.DestinationType() {
			t.Errorf("type changed: %s -> %s", d.DestinationType(), d2.DestinationType())
		}
		if named, ok := d.(*Named); ok {
			if diff := cmp.Diff(named, d2); diff != "" {
				t.Errorf("named destination changed (-want +got):\n%s", diff)
			}
			continue
		}
		idx, err := PageIndex(doc, d2)
		if err != nil || idx != 2 {
			t.Errorf("%s: PageIndex = %d, %v", d.DestinationType(), idx, err)
		}
	}
}

func TestDecodeXYZ(t *testing.T) {
	arr := pdf.NewArray()
	arr.Add(pdf.NewInteger(0))
	arr.Add(pdf.NewName("XYZ"))
	arr.Add(pdf.NewNull())
	arr.Add(pdf.NewInteger(720))
	arr.Add(pdf.NewInteger(0))

	d, err := Decode(arr.Object())
	if err != nil {
		t.Fatal(err)
	}
	xyz := d.(*XYZ)
	if !math.IsNaN(xyz.Left) || xyz.Top != 720 || !math.IsNaN(xyz.Zoom) {
		t.Errorf("wrong XYZ values: %v %v %v", xyz.Left, xyz.Top, xyz.Zoom)
	}
}

func TestDecodeMalformed(t *testing.T) {
	short := pdf.NewArray()
	short.Add(pdf.NewInteger(0))
	noPage := pdf.NewArray()
	noPage.Add(pdf.NewName("x"))
	noPage.Add(pdf.NewName("Fit"))
	badType := pdf.NewArray()
	badType.Add(pdf.NewInteger(0))
	badType.Add(pdf.NewName("Zoom"))

	for _, obj := range []*pdf.Object{nil, pdf.NewInteger(1), short.Object(), noPage.Object(), badType.Object()} {
		if _, err := Decode(obj); err == nil {
			t.Errorf("%s: missing error", pdf.Format(obj))
		}
	}
}

func TestResolve(t *testing.T) {
	doc := newDoc(t, 2)
	page, _ := PageTarget(doc, 1)

	tree, err := nametree.Open(doc, nametree.Dests)
	if err != nil {
		t.Fatal(err)
	}
	obj, _ := (&Fit{Page: page}).Encode(doc)
	wrapper := pdf.NewDict()
	wrapper.SetAt("D", obj)
	if err := tree.Add("intro", wrapper.Object()); err != nil {
		t.Fatal(err)
	}

	legacy := pdf.NewDict()
	obj, _ = (&FitH{Page: page, Top: 10}).Encode(doc)
	legacy.SetAt("old", obj)
	doc.Catalog().SetAt("Dests", legacy.Object())

	d, err := Resolve(doc, &Named{Name: "intro"})
	if err != nil {
		t.Fatal(err)
	}
	if d.DestinationType() != TypeFit {
		t.Errorf("wrong type %s", d.DestinationType())
	}

	d, err = Resolve(doc, &Named{Name: "old", AsName: true})
	if err != nil {
		t.Fatal(err)
	}
	if d.DestinationType() != TypeFitH {
		t.Errorf("wrong type %s", d.DestinationType())
	}

	if idx, err := PageIndex(doc, &Named{Name: "intro"}); idx != 1 || err != nil {
		t.Errorf("PageIndex = %d, %v", idx, err)
	}

	_, err = Resolve(doc, &Named{Name: "missing"})
	if !errors.Is(err, nametree.ErrKeyNotFound) {
		t.Errorf("missing destination: %v", err)
	}
}

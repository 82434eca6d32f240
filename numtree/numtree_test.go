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

package numtree

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/pdfsdk"
	"seehuhn.de/go/pdfsdk/internal/memfile"
)

func TestNumTree(t *testing.T) {
	doc := pdf.NewDocument(pdf.V1_7)
	tree, err := Create(doc)
	if err != nil {
		t.Fatal(err)
	}

	tree.Set(5, pdf.NewName("five"))
	tree.Set(-1, pdf.NewName("negative one"))
	tree.Set(2, pdf.NewName("two"))

	type getCase struct {
		key  int64
		want pdf.Name
		err  error
	}
	getCases := []getCase{
		{-1, "negative one", nil},
		{0, "", ErrKeyNotFound},
		{2, "two", nil},
		{5, "five", nil},
		{6, "", ErrKeyNotFound},
	}
	for _, c := range getCases {
		val, err := tree.Get(c.key)
		if err != c.err || val.Name() != c.want {
			t.Errorf("Get(%d) == (%s, %v), want (%s, %v)",
				c.key, pdf.Format(val), err, c.want, c.err)
		}
	}

	if key, ok := tree.Next(2); key != 5 || !ok {
		t.Errorf("Next(2) = %d, %t", key, ok)
	}
	if _, ok := tree.Next(5); ok {
		t.Error("Next(5) found a key")
	}

	tree.Set(2, pdf.NewName("TWO"))
	if val, _ := tree.Get(2); val.Name() != "TWO" {
		t.Errorf("value not replaced: %s", pdf.Format(val))
	}
	if err := tree.Delete(2); err != nil {
		t.Fatal(err)
	}
	if err := tree.Delete(2); err != ErrKeyNotFound {
		t.Errorf("second delete: %v", err)
	}
	if tree.Count() != 2 {
		t.Errorf("Count() = %d", tree.Count())
	}
}

func TestLargeNumTree(t *testing.T) {
	doc := pdf.NewDocument(pdf.V1_7)
	tree, _ := Create(doc)
	var want []int64
	for i := int64(199); i >= 0; i-- {
		tree.Set(i*3, pdf.NewInteger(i))
	}
	for i := int64(0); i < 200; i++ {
		want = append(want, i*3)
	}

	f := memfile.New()
	num := tree.Dict().Object().ObjNum()
	doc.Catalog().SetRef("PageLabels", num)
	if err := doc.SaveTo(f, nil); err != nil {
		t.Fatal(err)
	}
	doc2, err := pdf.LoadFrom(f, nil)
	if err != nil {
		t.Fatal(err)
	}
	tree2 := New(doc2, doc2.Catalog().GetDict("PageLabels"))

	var got []int64
	for key, val := range tree2.All() {
		if val.Integer()*3 != key {
			t.Errorf("%d: wrong value %s", key, pdf.Format(val))
		}
		got = append(got, key)
	}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("keys differ (-want +got):\n%s", d)
	}
	if !tree2.Dict().Has("Kids") {
		t.Error("tree was not split")
	}
}

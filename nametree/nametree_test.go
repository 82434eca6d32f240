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

package nametree

import (
	"bytes"
	"fmt"
	"math/rand"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/pdfsdk"
	"seehuhn.de/go/pdfsdk/internal/memfile"
)

func TestAddLookup(t *testing.T) {
	doc := pdf.NewDocument(pdf.V1_7)
	tree, err := Open(doc, Dests)
	if err != nil {
		t.Fatal(err)
	}
	if !tree.IsEmpty() {
		t.Fatal("new tree is not empty")
	}

	obj := pdf.NewInteger(7)
	if err := tree.Add("seven", obj); err != nil {
		t.Fatal(err)
	}
	if !tree.HasName("seven") {
		t.Error("HasName after Add")
	}
	got, err := tree.Lookup("seven")
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsIdentical(obj) || got != obj {
		t.Error("Lookup does not return the added object")
	}

	if err := tree.Add("seven", pdf.NewNull()); err != ErrKeyExists {
		t.Errorf("duplicate Add: %v", err)
	}
	if _, err := tree.Lookup("eight"); err != ErrKeyNotFound {
		t.Errorf("missing key: %v", err)
	}

	if err := tree.RemoveObj("seven"); err != nil {
		t.Fatal(err)
	}
	if tree.HasName("seven") {
		t.Error("HasName after RemoveObj")
	}
	if err := tree.RemoveObj("seven"); err != ErrKeyNotFound {
		t.Errorf("second RemoveObj: %v", err)
	}
}

func TestIndirectValues(t *testing.T) {
	doc := pdf.NewDocument(pdf.V1_7)
	tree, _ := Open(doc, EmbeddedFiles)

	val := pdf.NewDict()
	val.SetName("Type", "Filespec")
	num, _ := doc.AddIndirectObject(val.Object())
	if err := tree.Add("file.txt", val.Object()); err != nil {
		t.Fatal(err)
	}
	got, _ := tree.Lookup("file.txt")
	if got != val.Object() {
		t.Error("indirect value not resolved")
	}
	stored := tree.Dict().GetArray("Names").Get(1)
	if stored.Type() != pdf.TypeReference || stored.Target().Number() != num {
		t.Errorf("value stored as %s", pdf.Format(stored))
	}
}

// checkTree verifies the structural invariants of a name tree and returns
// the keys in tree order.
func checkTree(t *testing.T, tree *Tree) []string {
	t.Helper()

	var keys []string
	var visit func(node *pdf.Dict, isRoot bool)
	visit = func(node *pdf.Dict, isRoot bool) {
		kids := node.GetArray("Kids")
		names := node.GetArray("Names")
		if kids.Len() > 0 && names != nil {
			t.Error("node has both /Kids and /Names")
		}
		if kids.Len() > 32 || names.Len() > 64 {
			t.Errorf("node too large: %d kids, %d names", kids.Len(), names.Len()/2)
		}
		if isRoot && node.Has("Limits") {
			t.Error("root has /Limits")
		}

		start := len(keys)
		for i := 0; i+1 < names.Len(); i += 2 {
			keys = append(keys, string(names.GetDirect(i).Bytes()))
		}
		for _, kid := range kids.All() {
			visit(kid.Direct().Dict(), false)
		}

		if !isRoot && len(keys) > start {
			limits := node.GetArray("Limits")
			lo := string(limits.GetDirect(0).Bytes())
			hi := string(limits.GetDirect(1).Bytes())
			if lo != keys[start] || hi != keys[len(keys)-1] {
				t.Errorf("wrong /Limits [%q %q], want [%q %q]",
					lo, hi, keys[start], keys[len(keys)-1])
			}
		}
	}
	visit(tree.Dict(), true)

	if !slices.IsSorted(keys) {
		t.Error("keys not sorted")
	}
	return keys
}

func TestLargeTree(t *testing.T) {
	doc := pdf.NewDocument(pdf.V1_7)
	tree, _ := Open(doc, JavaScript)

	const n = 1000
	rng := rand.New(rand.NewSource(1))
	var want []string
	for _, i := range rng.Perm(n) {
		name := fmt.Sprintf("key%04d", i)
		want = append(want, name)
		if err := tree.Add(name, pdf.NewInteger(int64(i))); err != nil {
			t.Fatal(err)
		}
	}
	slices.Sort(want)

	keys := checkTree(t, tree)
	if d := cmp.Diff(want, keys); d != "" {
		t.Fatalf("keys differ (-want +got):\n%s", d)
	}
	if tree.Count() != n {
		t.Errorf("Count() = %d", tree.Count())
	}
	if !tree.Dict().Has("Kids") {
		t.Error("large tree was not split")
	}

	for _, i := range []int{0, 1, 31, 32, 33, 500, 999} {
		name, err := tree.Name(i)
		if err != nil || name != want[i] {
			t.Errorf("Name(%d) = %q, %v", i, name, err)
		}
		val, err := tree.Lookup(want[i])
		if err != nil || fmt.Sprintf("key%04d", val.Integer()) != want[i] {
			t.Errorf("Lookup(%q) = %s, %v", want[i], pdf.Format(val), err)
		}
	}
	if _, err := tree.Name(n); err != pdf.ErrIndexOutOfRange {
		t.Errorf("Name(%d): %v", n, err)
	}

	// remove every other key
	for i, name := range want {
		if i%2 == 0 {
			if err := tree.RemoveObj(name); err != nil {
				t.Fatal(err)
			}
		}
	}
	keys = checkTree(t, tree)
	if len(keys) != n/2 || keys[0] != want[1] {
		t.Errorf("after removal: %d keys, first %q", len(keys), keys[0])
	}

	tree.RemoveAll()
	if !tree.IsEmpty() || tree.Dict().Has("Kids") {
		t.Error("RemoveAll left entries")
	}
}

func TestSetObjRename(t *testing.T) {
	doc := pdf.NewDocument(pdf.V1_7)
	tree, _ := Open(doc, Dests)
	tree.Add("a", pdf.NewInteger(1))
	tree.Add("b", pdf.NewInteger(2))

	if err := tree.SetObj("c", pdf.NewInteger(3)); err != ErrKeyNotFound {
		t.Errorf("SetObj on missing key: %v", err)
	}
	three := pdf.NewInteger(3)
	if err := tree.SetObj("a", three); err != nil {
		t.Fatal(err)
	}
	if got, _ := tree.Lookup("a"); got != three {
		t.Error("SetObj did not replace the value")
	}

	if err := tree.Rename("a", "b"); err != ErrKeyExists {
		t.Errorf("rename onto existing key: %v", err)
	}
	if err := tree.Rename("x", "y"); err != ErrKeyNotFound {
		t.Errorf("rename of missing key: %v", err)
	}
	if err := tree.Rename("a", "z"); err != nil {
		t.Fatal(err)
	}
	if tree.HasName("a") || !tree.HasName("z") {
		t.Error("rename failed")
	}
	if got, _ := tree.Lookup("z"); got != three {
		t.Error("rename lost the value")
	}

	var names []string
	for name := range tree.All() {
		names = append(names, name)
	}
	if d := cmp.Diff([]string{"b", "z"}, names); d != "" {
		t.Errorf("names differ (-want +got):\n%s", d)
	}
}

func TestUnicodeNames(t *testing.T) {
	doc := pdf.NewDocument(pdf.V1_7)
	tree, _ := Open(doc, Dests)
	for _, name := range []string{"Kapitel Ü", "章", "plain"} {
		if err := tree.Add(name, pdf.NewNull()); err != nil {
			t.Fatal(err)
		}
	}
	for _, name := range []string{"Kapitel Ü", "章", "plain"} {
		if !tree.HasName(name) {
			t.Errorf("%q missing", name)
		}
	}
}

func TestSaveLoad(t *testing.T) {
	doc := pdf.NewDocument(pdf.V1_7)
	tree, _ := Open(doc, Dests)
	for i := range 100 {
		tree.Add(fmt.Sprintf("dest%03d", i), pdf.NewInteger(int64(i)))
	}

	f := memfile.New()
	if err := doc.SaveTo(f, &pdf.SaveOptions{ObjectStreams: true}); err != nil {
		t.Fatal(err)
	}
	doc2, err := pdf.LoadFrom(f, nil)
	if err != nil {
		t.Fatal(err)
	}

	tree2 := Find(doc2, Dests)
	if tree2 == nil {
		t.Fatal("tree not found")
	}
	if tree2.Count() != 100 {
		t.Errorf("Count() = %d", tree2.Count())
	}
	val, err := tree2.Lookup("dest042")
	if err != nil || val.Integer() != 42 {
		t.Errorf("Lookup: %s, %v", pdf.Format(val), err)
	}
	if Find(doc2, AP) != nil {
		t.Error("unexpected AP tree")
	}
}

func TestHandWrittenTree(t *testing.T) {
	// a tree without /Limits, as written by some producers
	in := "<</Kids [<</Names [(a) 1 (b) 2]>> <</Names [(c) 3]>>]>>"
	doc := pdf.NewDocument(pdf.V1_7)
	root := parseDict(t, doc, in)
	tree := New(doc, root)

	for name, want := range map[string]int64{"a": 1, "b": 2, "c": 3} {
		val, err := tree.Lookup(name)
		if err != nil || val.Integer() != want {
			t.Errorf("%s: %s, %v", name, pdf.Format(val), err)
		}
	}
	if err := tree.Add("bb", pdf.NewInteger(4)); err != nil {
		t.Fatal(err)
	}
	var names []string
	for name := range tree.All() {
		names = append(names, name)
	}
	if d := cmp.Diff([]string{"a", "b", "bb", "c"}, names); d != "" {
		t.Errorf("names differ (-want +got):\n%s", d)
	}
}

func TestForeignEncodedKeys(t *testing.T) {
	// "A" as UTF-16, followed by a key which sorts before it
	in := "<</Names [<FEFF0041> 1 (x\x9fy) 2]>>"
	doc := pdf.NewDocument(pdf.V1_7)
	tree := New(doc, parseDict(t, doc, in))
	other := pdf.AsTextString([]byte("x\x9fy"))

	var names []string
	for name := range tree.All() {
		names = append(names, name)
	}
	if d := cmp.Diff([]string{"A", other}, names); d != "" {
		t.Errorf("names differ (-want +got):\n%s", d)
	}
	if tree.Count() != 2 {
		t.Errorf("Count() = %d", tree.Count())
	}

	if !tree.HasName("A") {
		t.Error("A not found")
	}
	val, err := tree.Lookup("A")
	if err != nil || val.Integer() != 1 {
		t.Errorf("Lookup(A): %s, %v", pdf.Format(val), err)
	}
	val, err = tree.Lookup(other)
	if err != nil || val.Integer() != 2 {
		t.Errorf("Lookup(%q): %s, %v", other, pdf.Format(val), err)
	}
	if err := tree.Add("A", pdf.NewInteger(3)); err != ErrKeyExists {
		t.Errorf("Add(A): %v", err)
	}

	if err := tree.SetObj("A", pdf.NewInteger(5)); err != nil {
		t.Fatal(err)
	}
	val, _ = tree.Lookup("A")
	if val.Integer() != 5 {
		t.Errorf("after SetObj: %s", pdf.Format(val))
	}

	if err := tree.Rename("A", "B"); err != nil {
		t.Fatal(err)
	}
	if tree.HasName("A") || !tree.HasName("B") {
		t.Error("rename failed")
	}
	val, _ = tree.Lookup("B")
	if val.Integer() != 5 {
		t.Errorf("after Rename: %s", pdf.Format(val))
	}

	if err := tree.RemoveObj(other); err != nil {
		t.Fatal(err)
	}
	if tree.Count() != 1 {
		t.Errorf("Count() = %d after RemoveObj", tree.Count())
	}
}

// parseDict loads a dictionary written in PDF syntax, by wrapping it in a
// minimal PDF file.
func parseDict(t *testing.T, doc *pdf.Document, in string) *pdf.Dict {
	t.Helper()
	buf := &bytes.Buffer{}
	fmt.Fprintf(buf, "%%PDF-1.7\n1 0 obj\n<</Type /Catalog /Test %s>>\nendobj\n", in)
	fmt.Fprintf(buf, "trailer\n<</Root 1 0 R>>\n%%%%EOF\n")
	src, err := pdf.Load(bytes.NewReader(buf.Bytes()), int64(buf.Len()), nil)
	if err != nil {
		t.Fatal(err)
	}
	c := pdf.NewCopier(doc, src)
	o, err := c.Copy(src.Catalog().Get("Test"))
	if err != nil {
		t.Fatal(err)
	}
	num, err := doc.AddIndirectObject(o)
	if err != nil {
		t.Fatal(err)
	}
	return doc.GetIndirectObject(num).Dict()
}

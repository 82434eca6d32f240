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

// Package numtree implements PDF number trees.
//
// Number trees map integers to PDF objects.  In PDF files these trees are used
// in two different contexts:
//   - The `PageLabels` entry in the document catalog is a number tree
//     defining page labels for the pages in the document.
//   - The `ParentTree` entry in the structure tree root dictionary
//     is a number tree used in finding the structure elements
//     to which content items belong.
package numtree

import (
	"iter"

	"seehuhn.de/go/pdfsdk"
	"seehuhn.de/go/pdfsdk/internal/pdftree"
)

// ErrKeyNotFound is returned when a key is not present in the tree.
var ErrKeyNotFound = pdftree.ErrKeyNotFound

var codec = &pdftree.Codec[int64]{
	Entries: "Nums",
	Encode:  pdf.NewInteger,
	Decode: func(o *pdf.Object) (int64, bool) {
		if !o.IsInteger() {
			return 0, false
		}
		return o.Integer(), true
	},
}

// Tree is a number tree of a document.
type Tree struct {
	t *pdftree.Tree[int64]
}

// New returns the number tree with the given root node.
func New(doc *pdf.Document, root *pdf.Dict) *Tree {
	return &Tree{t: pdftree.New(doc, root, codec)}
}

// Create adds an empty number tree to the document.
func Create(doc *pdf.Document) (*Tree, error) {
	root := pdf.NewDict()
	root.SetAt("Nums", pdf.NewArray().Object())
	_, err := doc.AddIndirectObject(root.Object())
	if err != nil {
		return nil, err
	}
	return New(doc, root), nil
}

// Dict returns the root node of the tree.
func (t *Tree) Dict() *pdf.Dict {
	return t.t.Root()
}

// Get returns the object stored under key, with references resolved.
func (t *Tree) Get(key int64) (*pdf.Object, error) {
	return t.t.Lookup(key)
}

// Set stores val under key, replacing any previous value.
func (t *Tree) Set(key int64, val *pdf.Object) error {
	if t.t.Has(key) {
		return t.t.Set(key, val)
	}
	return t.t.Add(key, val)
}

// Delete removes key from the tree.
func (t *Tree) Delete(key int64) error {
	return t.t.Delete(key)
}

// Count returns the number of entries.
func (t *Tree) Count() int {
	return t.t.Count()
}

// All iterates over the entries in increasing key order.
func (t *Tree) All() iter.Seq2[int64, *pdf.Object] {
	return t.t.All()
}

// Next returns the smallest key larger than after.  The second return
// value is false if there is no such key.
func (t *Tree) Next(after int64) (int64, bool) {
	for key := range t.t.All() {
		if key > after {
			return key, true
		}
	}
	return 0, false
}

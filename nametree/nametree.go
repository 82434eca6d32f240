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

// Package nametree implements PDF name trees.
//
// Name trees serve a similar purpose to dictionaries, associating keys and
// values, but using string keys that are ordered lexicographically.  The
// tree is stored as a hierarchy of dictionaries with /Kids, /Names and
// /Limits entries, so that large collections can be looked up without
// reading all entries.
//
// Keys are text strings.  New keys are stored in the encoding given by
// [pdf.TextString] and sorted by the bytes of this encoding.  Names are
// compared as text, so an entry which a file stores in a different
// encoding, for example as UTF-16, is found by its decoded name.
package nametree

import (
	"iter"

	"seehuhn.de/go/pdfsdk"
	"seehuhn.de/go/pdfsdk/internal/pdftree"
)

var (
	// ErrKeyNotFound is returned when a name is not present in the tree.
	ErrKeyNotFound = pdftree.ErrKeyNotFound

	// ErrKeyExists is returned by [Tree.Add] and [Tree.Rename] when the
	// new name is already present.
	ErrKeyExists = pdftree.ErrKeyExists
)

// Kind identifies one of the name trees in the /Names dictionary of the
// document catalog.
type Kind pdf.Name

// These are the name trees defined in ISO 32000-2, section 7.7.4.
const (
	Dests                  Kind = "Dests"
	AP                     Kind = "AP"
	JavaScript             Kind = "JavaScript"
	Pages                  Kind = "Pages"
	Templates              Kind = "Templates"
	IDS                    Kind = "IDS"
	URLS                   Kind = "URLS"
	EmbeddedFiles          Kind = "EmbeddedFiles"
	AlternatePresentations Kind = "AlternatePresentations"
	Renditions             Kind = "Renditions"
)

// Kinds lists all name tree kinds.
var Kinds = []Kind{
	Dests, AP, JavaScript, Pages, Templates, IDS, URLS,
	EmbeddedFiles, AlternatePresentations, Renditions,
}

var codec = &pdftree.Codec[string]{
	Entries: "Names",
	Encode: func(key string) *pdf.Object {
		return pdf.NewString([]byte(key))
	},
	Decode: func(o *pdf.Object) (string, bool) {
		if o.Type() != pdf.TypeString {
			return "", false
		}
		return string(o.Bytes()), true
	},
}

func encodeKey(name string) string {
	return string(pdf.TextString(name))
}

func decodeKey(key string) string {
	return pdf.AsTextString([]byte(key))
}

// Tree is a name tree of a document.
type Tree struct {
	t *pdftree.Tree[string]
}

// New returns the name tree with the given root node.
func New(doc *pdf.Document, root *pdf.Dict) *Tree {
	return &Tree{t: pdftree.New(doc, root, codec)}
}

// Find returns the name tree of the given kind, or nil if the document has
// no such tree.
func Find(doc *pdf.Document, kind Kind) *Tree {
	root := doc.Catalog().GetDict("Names").GetDict(pdf.Name(kind))
	if root == nil {
		return nil
	}
	return New(doc, root)
}

// Open returns the name tree of the given kind.  If the document has no
// such tree, an empty tree is created.
func Open(doc *pdf.Document, kind Kind) (*Tree, error) {
	if tree := Find(doc, kind); tree != nil {
		return tree, nil
	}

	catalog := doc.Catalog()
	names := catalog.GetDict("Names")
	if names == nil {
		names = pdf.NewDict()
		num, err := doc.AddIndirectObject(names.Object())
		if err != nil {
			return nil, err
		}
		catalog.SetRef("Names", num)
	}

	root := pdf.NewDict()
	root.SetAt("Names", pdf.NewArray().Object())
	num, err := doc.AddIndirectObject(root.Object())
	if err != nil {
		return nil, err
	}
	names.SetRef(pdf.Name(kind), num)
	return New(doc, root), nil
}

// Dict returns the root node of the tree.
func (t *Tree) Dict() *pdf.Dict {
	return t.t.Root()
}

// IsEmpty reports whether the tree has no entries.
func (t *Tree) IsEmpty() bool {
	for range t.t.All() {
		return false
	}
	return true
}

// Count returns the number of entries.
func (t *Tree) Count() int {
	n := 0
	for range t.All() {
		n++
	}
	return n
}

// storedKey returns the key under which name is stored.
func (t *Tree) storedKey(name string) (string, bool) {
	key := encodeKey(name)
	if t.t.Has(key) {
		return key, true
	}
	for raw := range t.t.All() {
		if raw != key && decodeKey(raw) == name {
			return raw, true
		}
	}
	return "", false
}

// HasName reports whether the tree contains name.
func (t *Tree) HasName(name string) bool {
	_, ok := t.storedKey(name)
	return ok
}

// Name returns the name at position index, in sorted order.  Adding or
// removing entries changes the positions of other names.
func (t *Tree) Name(index int) (string, error) {
	if index >= 0 {
		i := 0
		for name := range t.All() {
			if i == index {
				return name, nil
			}
			i++
		}
	}
	return "", pdf.ErrIndexOutOfRange
}

// Lookup returns the object stored under name, with references resolved.
func (t *Tree) Lookup(name string) (*pdf.Object, error) {
	key, ok := t.storedKey(name)
	if !ok {
		return nil, ErrKeyNotFound
	}
	return t.t.Lookup(key)
}

// SetObj replaces the object stored under an existing name.
func (t *Tree) SetObj(name string, obj *pdf.Object) error {
	key, ok := t.storedKey(name)
	if !ok {
		return ErrKeyNotFound
	}
	return t.t.Set(key, obj)
}

// Add inserts a new name.  Indirect objects are stored as references.
func (t *Tree) Add(name string, obj *pdf.Object) error {
	if t.HasName(name) {
		return ErrKeyExists
	}
	return t.t.Add(encodeKey(name), obj)
}

// Rename changes the name of an entry.  The old name must exist and the
// new name must be absent.
func (t *Tree) Rename(oldName, newName string) error {
	oldKey, ok := t.storedKey(oldName)
	if !ok {
		return ErrKeyNotFound
	}
	if t.HasName(newName) {
		return ErrKeyExists
	}
	val, err := t.t.Lookup(oldKey)
	if err != nil {
		return err
	}

	// Delete detaches direct values, so they can be stored again.
	err = t.t.Delete(oldKey)
	if err != nil {
		return err
	}
	return t.t.Add(encodeKey(newName), val)
}

// RemoveObj removes name from the tree.
func (t *Tree) RemoveObj(name string) error {
	key, ok := t.storedKey(name)
	if !ok {
		return ErrKeyNotFound
	}
	return t.t.Delete(key)
}

// RemoveAll removes all entries.
func (t *Tree) RemoveAll() {
	t.t.Clear()
}

// All iterates over the entries in stored order.  If a file stores the
// same name in two encodings, only the first entry is reported.
func (t *Tree) All() iter.Seq2[string, *pdf.Object] {
	return func(yield func(string, *pdf.Object) bool) {
		seen := make(map[string]bool)
		for key, val := range t.t.All() {
			name := decodeKey(key)
			if seen[name] {
				continue
			}
			seen[name] = true
			if !yield(name, val) {
				return
			}
		}
	}
}

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

// Package pdftree implements the balanced key/value trees used for PDF name
// trees and number trees.
//
// A tree consists of a root node, intermediate nodes with /Kids and /Limits
// entries, and leaf nodes where the entries are stored as alternating keys
// and values.  The tree is modified in place: nodes are dictionaries of the
// document, and new nodes become indirect objects.
package pdftree

import (
	"cmp"
	"errors"
	"iter"
	"slices"
	"sort"

	"seehuhn.de/go/pdfsdk"
)

// MaxNodeSize is the maximum number of entries in a leaf and the maximum
// number of children of an intermediate node.
const MaxNodeSize = 32

// maxDepth bounds the nesting of nodes, to protect against cycles.
const maxDepth = 64

var (
	// ErrKeyNotFound is returned when a key is not present in a tree.
	ErrKeyNotFound = errors.New("key not found")

	// ErrKeyExists is returned when a key is added which is already present.
	ErrKeyExists = errors.New("key already exists")

	errTooDeep = errors.New("tree nesting too deep")
)

// Codec describes how keys are stored in the tree.
type Codec[K cmp.Ordered] struct {
	// Entries is the key of the array holding the leaf entries, "Names"
	// for name trees and "Nums" for number trees.
	Entries pdf.Name

	Encode func(K) *pdf.Object
	Decode func(*pdf.Object) (K, bool)
}

// Tree is a name tree or number tree stored in a document.
type Tree[K cmp.Ordered] struct {
	doc   *pdf.Document
	root  *pdf.Dict
	codec *Codec[K]
}

// New returns a tree view of the given root node.
func New[K cmp.Ordered](doc *pdf.Document, root *pdf.Dict, codec *Codec[K]) *Tree[K] {
	return &Tree[K]{doc: doc, root: root, codec: codec}
}

// Root returns the root node of the tree.
func (t *Tree[K]) Root() *pdf.Dict {
	return t.root
}

// entriesOf returns the array which holds the entries of a node, together
// with the number of array elements per entry.
func (t *Tree[K]) entriesOf(node *pdf.Dict) (*pdf.Array, int) {
	if kids := node.GetArray("Kids"); kids.Len() > 0 {
		return kids, 1
	}
	return node.GetArray(t.codec.Entries), 2
}

func isLeaf(node *pdf.Dict) bool {
	return node.GetArray("Kids").Len() == 0
}

func (t *Tree[K]) keyAt(entries *pdf.Array, i int) K {
	k, _ := t.codec.Decode(entries.GetDirect(2 * i))
	return k
}

// search returns the position of key in a leaf, and whether the key is
// present.
func (t *Tree[K]) search(entries *pdf.Array, key K) (int, bool) {
	n := entries.Len() / 2
	i := sort.Search(n, func(i int) bool {
		return t.keyAt(entries, i) >= key
	})
	return i, i < n && t.keyAt(entries, i) == key
}

// bounds returns the smallest and largest key below node.  The /Limits
// entry is used where present.
func (t *Tree[K]) bounds(node *pdf.Dict, depth int) (lo, hi K, ok bool) {
	if depth > maxDepth {
		return lo, hi, false
	}
	if limits := node.GetArray("Limits"); limits.Len() == 2 {
		lo, ok1 := t.codec.Decode(limits.GetDirect(0))
		hi, ok2 := t.codec.Decode(limits.GetDirect(1))
		if ok1 && ok2 && lo <= hi {
			return lo, hi, true
		}
	}
	return t.computeBounds(node, depth)
}

func (t *Tree[K]) computeBounds(node *pdf.Dict, depth int) (lo, hi K, ok bool) {
	if isLeaf(node) {
		entries := node.GetArray(t.codec.Entries)
		n := entries.Len() / 2
		if n == 0 {
			return lo, hi, false
		}
		return t.keyAt(entries, 0), t.keyAt(entries, n-1), true
	}
	for _, kid := range node.GetArray("Kids").All() {
		klo, khi, kok := t.bounds(kid.Direct().Dict(), depth+1)
		if !kok {
			continue
		}
		if !ok {
			lo, hi, ok = klo, khi, true
			continue
		}
		lo, hi = min(lo, klo), max(hi, khi)
	}
	return lo, hi, ok
}

// setLimits updates the /Limits entry of a non-root node.
func (t *Tree[K]) setLimits(node *pdf.Dict) {
	node.Remove("Limits")
	lo, hi, ok := t.computeBounds(node, 0)
	if !ok {
		return
	}
	limits := pdf.NewArray()
	limits.Add(t.codec.Encode(lo))
	limits.Add(t.codec.Encode(hi))
	node.SetAt("Limits", limits.Object())
}

// findLeaf returns the path from the root to the leaf which holds key, or
// which would hold key if it was added.
func (t *Tree[K]) findLeaf(key K) ([]*pdf.Dict, error) {
	path := []*pdf.Dict{t.root}
	seen := map[*pdf.Dict]bool{t.root: true}
	node := t.root
	for !isLeaf(node) {
		if len(path) > maxDepth {
			return nil, errTooDeep
		}
		kids := node.GetArray("Kids")
		var next *pdf.Dict
		for _, kid := range kids.All() {
			kidDict := kid.Direct().Dict()
			if kidDict == nil || seen[kidDict] {
				continue
			}
			next = kidDict
			if _, hi, ok := t.bounds(kidDict, 0); ok && key <= hi {
				break
			}
		}
		if next == nil {
			break
		}
		seen[next] = true
		path = append(path, next)
		node = next
	}
	return path, nil
}

// find returns the path to the leaf which holds key, and the position of
// key in this leaf.  Keys which cannot be reached through the sorted
// structure of the tree, for example because a file stores its keys out
// of order, are found by searching all leaves.
func (t *Tree[K]) find(key K) ([]*pdf.Dict, int, error) {
	path, err := t.findLeaf(key)
	if err != nil {
		return nil, 0, err
	}
	if leaf := path[len(path)-1]; isLeaf(leaf) {
		if i, found := t.search(leaf.GetArray(t.codec.Entries), key); found {
			return path, i, nil
		}
	}

	var res []*pdf.Dict
	idx := -1
	t.walkLeaves([]*pdf.Dict{t.root}, map[*pdf.Dict]bool{}, func(p []*pdf.Dict) bool {
		entries := p[len(p)-1].GetArray(t.codec.Entries)
		for i := range entries.Len() / 2 {
			if k, ok := t.codec.Decode(entries.GetDirect(2 * i)); ok && k == key {
				res, idx = slices.Clone(p), i
				return false
			}
		}
		return true
	})
	if idx < 0 {
		return nil, 0, ErrKeyNotFound
	}
	return res, idx, nil
}

// walkLeaves calls fn with the path to every leaf, until fn returns false.
func (t *Tree[K]) walkLeaves(path []*pdf.Dict, seen map[*pdf.Dict]bool, fn func([]*pdf.Dict) bool) bool {
	node := path[len(path)-1]
	if node == nil || seen[node] || len(path) > maxDepth {
		return true
	}
	seen[node] = true
	if isLeaf(node) {
		return fn(path)
	}
	for _, kid := range node.GetArray("Kids").All() {
		if !t.walkLeaves(append(path, kid.Direct().Dict()), seen, fn) {
			return false
		}
	}
	return true
}

// Lookup returns the value stored under key.
func (t *Tree[K]) Lookup(key K) (*pdf.Object, error) {
	path, i, err := t.find(key)
	if err != nil {
		return nil, err
	}
	return path[len(path)-1].GetArray(t.codec.Entries).GetDirect(2*i + 1), nil
}

// Has reports whether key is present.
func (t *Tree[K]) Has(key K) bool {
	_, err := t.Lookup(key)
	return err == nil
}

// Set replaces the value of an existing key.
func (t *Tree[K]) Set(key K, val *pdf.Object) error {
	path, i, err := t.find(key)
	if err != nil {
		return err
	}
	return path[len(path)-1].GetArray(t.codec.Entries).SetAt(2*i+1, val)
}

// Add inserts a new key.  If the key is already present, ErrKeyExists is
// returned and the tree is not changed.
func (t *Tree[K]) Add(key K, val *pdf.Object) error {
	_, _, err := t.find(key)
	if err == nil {
		return ErrKeyExists
	} else if err != ErrKeyNotFound {
		return err
	}

	path, err := t.findLeaf(key)
	if err != nil {
		return err
	}
	leaf := path[len(path)-1]
	if !isLeaf(leaf) {
		// all children were invalid
		return ErrKeyNotFound
	}
	entries := leaf.GetArray(t.codec.Entries)
	if entries == nil {
		entries = pdf.NewArray()
		err = leaf.SetAt(t.codec.Entries, entries.Object())
		if err != nil {
			return err
		}
		leaf.Remove("Kids")
	}
	i, found := t.search(entries, key)
	if found {
		return ErrKeyExists
	}

	err = entries.InsertAt(2*i, t.codec.Encode(key))
	if err != nil {
		return err
	}
	err = entries.InsertAt(2*i+1, val)
	if err != nil {
		entries.RemoveAt(2 * i)
		return err
	}

	err = t.split(path)
	if err != nil {
		return err
	}
	t.updateLimits(path)
	return nil
}

// Delete removes key from the tree.  Nodes which become empty are removed.
func (t *Tree[K]) Delete(key K) error {
	path, i, err := t.find(key)
	if err != nil {
		return err
	}
	entries := path[len(path)-1].GetArray(t.codec.Entries)
	entries.RemoveAt(2*i + 1)
	entries.RemoveAt(2 * i)

	for level := len(path) - 1; level > 0; level-- {
		node := path[level]
		arr, _ := t.entriesOf(node)
		if arr.Len() > 0 {
			break
		}
		parent := path[level-1]
		kids := parent.GetArray("Kids")
		kids.RemoveAt(indexOf(kids, node))
		t.deleteNode(node)
		path = path[:level]
	}
	if t.root.GetArray("Kids").Len() == 0 && t.root.Has("Kids") {
		t.root.Remove("Kids")
		t.root.SetAt(t.codec.Entries, pdf.NewArray().Object())
	}
	t.updateLimits(path)
	return nil
}

// Clear removes all entries.
func (t *Tree[K]) Clear() {
	var nodes []*pdf.Dict
	t.walkNodes(t.root, 0, map[*pdf.Dict]bool{}, func(n *pdf.Dict) {
		if n != t.root {
			nodes = append(nodes, n)
		}
	})
	t.root.Remove("Kids")
	t.root.Remove("Limits")
	t.root.SetAt(t.codec.Entries, pdf.NewArray().Object())
	for _, n := range nodes {
		t.deleteNode(n)
	}
}

func (t *Tree[K]) deleteNode(node *pdf.Dict) {
	if num := node.Object().ObjNum(); num != 0 && t.doc != nil {
		t.doc.DeleteIndirectObject(num)
	}
}

func (t *Tree[K]) walkNodes(node *pdf.Dict, depth int, seen map[*pdf.Dict]bool, fn func(*pdf.Dict)) {
	if node == nil || seen[node] || depth > maxDepth {
		return
	}
	seen[node] = true
	fn(node)
	for _, kid := range node.GetArray("Kids").All() {
		t.walkNodes(kid.Direct().Dict(), depth+1, seen, fn)
	}
}

// Nodes iterates over all nodes of the tree, starting with the root.
func (t *Tree[K]) Nodes() iter.Seq[*pdf.Dict] {
	return func(yield func(*pdf.Dict) bool) {
		var nodes []*pdf.Dict
		t.walkNodes(t.root, 0, map[*pdf.Dict]bool{}, func(n *pdf.Dict) {
			nodes = append(nodes, n)
		})
		for _, n := range nodes {
			if !yield(n) {
				return
			}
		}
	}
}

// All iterates over the entries of the tree in the order in which they are
// stored, which is key order unless the file is damaged.  A key which
// occurs more than once is reported only the first time.
func (t *Tree[K]) All() iter.Seq2[K, *pdf.Object] {
	return func(yield func(K, *pdf.Object) bool) {
		seen := make(map[K]bool)
		for n := range t.Nodes() {
			if !isLeaf(n) {
				continue
			}
			entries := n.GetArray(t.codec.Entries)
			for i := 0; i+1 < entries.Len(); i += 2 {
				key, ok := t.codec.Decode(entries.GetDirect(i))
				if !ok || seen[key] {
					continue
				}
				seen[key] = true
				if !yield(key, entries.GetDirect(i+1)) {
					return
				}
			}
		}
	}
}

// Count returns the number of entries.
func (t *Tree[K]) Count() int {
	n := 0
	for range t.All() {
		n++
	}
	return n
}

// split breaks up the nodes on path which have too many entries, starting
// at the leaf.
func (t *Tree[K]) split(path []*pdf.Dict) error {
	for level := len(path) - 1; level >= 0; level-- {
		node := path[level]
		arr, unit := t.entriesOf(node)
		n := arr.Len() / unit
		if n <= MaxNodeSize {
			continue
		}
		key := t.codec.Entries
		if unit == 1 {
			key = "Kids"
		}

		upper, err := moveTail(arr, n/2*unit)
		if err != nil {
			return err
		}
		right := pdf.NewDict()
		right.SetAt(key, upper.Object())

		if level > 0 {
			_, err = t.doc.AddIndirectObject(right.Object())
			if err != nil {
				return err
			}
			kids := path[level-1].GetArray("Kids")
			err = kids.InsertAt(indexOf(kids, node)+1, right.Object())
			if err != nil {
				return err
			}
			t.setLimits(node)
			t.setLimits(right)
			continue
		}

		// The root keeps its identity, both halves move into new
		// children.
		lower, err := moveTail(arr, 0)
		if err != nil {
			return err
		}
		left := pdf.NewDict()
		left.SetAt(key, lower.Object())
		node.Remove(key)
		kids := pdf.NewArray()
		for _, child := range []*pdf.Dict{left, right} {
			_, err = t.doc.AddIndirectObject(child.Object())
			if err != nil {
				return err
			}
			err = kids.Add(child.Object())
			if err != nil {
				return err
			}
			t.setLimits(child)
		}
		node.Remove(t.codec.Entries)
		err = node.SetAt("Kids", kids.Object())
		if err != nil {
			return err
		}
	}
	return nil
}

// updateLimits recomputes the /Limits entries along a path, bottom-up.
func (t *Tree[K]) updateLimits(path []*pdf.Dict) {
	for level := len(path) - 1; level > 0; level-- {
		t.setLimits(path[level])
	}
}

// moveTail removes the elements from index from onwards and returns them
// in a new array.
func moveTail(a *pdf.Array, from int) (*pdf.Array, error) {
	var tail []*pdf.Object
	for i := from; i < a.Len(); i++ {
		tail = append(tail, a.Get(i))
	}
	for i := a.Len() - 1; i >= from; i-- {
		a.RemoveAt(i)
	}
	res := pdf.NewArray()
	for _, o := range tail {
		err := res.Add(o)
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

func indexOf(kids *pdf.Array, node *pdf.Dict) int {
	for i, kid := range kids.All() {
		if kid.Direct().Dict() == node {
			return i
		}
	}
	return -1
}

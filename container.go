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

import "iter"

// root returns the top-most ancestor of o.
func (o *Object) root() *Object {
	for o.parent != nil {
		o = o.parent
	}
	return o
}

// subtreeDoc returns the first document found in the tree rooted at o.
func (o *Object) subtreeDoc() *Document {
	var doc *Document
	o.walk(func(x *Object) {
		if doc == nil {
			doc = x.doc
		}
	})
	return doc
}

func (o *Object) setTreeDoc(doc *Document) {
	o.walk(func(x *Object) { x.doc = doc })
}

// prepareChild checks whether v can be attached to the container p and
// returns the object which is to be stored.  For indirect objects this is
// a new reference.
func (p *Object) prepareChild(v *Object) (*Object, error) {
	if p.released {
		return nil, ErrReleased
	}
	if v == nil {
		return NewNull(), nil
	}
	if v.released {
		return nil, ErrReleased
	}

	pdoc := p.doc
	if v.num != 0 {
		if pdoc != nil && v.doc != pdoc {
			return nil, ErrForeignDocument
		}
		ref := &Object{typ: TypeReference, doc: v.doc, ref: NewRef(v.num, v.gen)}
		if pdoc == nil {
			p.root().setTreeDoc(v.doc)
		}
		return ref, nil
	}

	if v.parent != nil {
		return nil, ErrAttached
	}
	for x := p; x != nil; x = x.parent {
		if x == v {
			return nil, ErrCycle
		}
	}
	vdoc := v.subtreeDoc()
	switch {
	case pdoc != nil && vdoc != nil && pdoc != vdoc:
		return nil, ErrForeignDocument
	case pdoc != nil:
		v.setTreeDoc(pdoc)
	case vdoc != nil:
		p.root().setTreeDoc(vdoc)
		v.setTreeDoc(vdoc)
	}
	return v, nil
}

func detach(o *Object) {
	if o != nil {
		o.parent = nil
	}
}

// Array is the view of an array object.
type Array Object

// NewArray creates a new, empty array.
func NewArray() *Array {
	return &Array{typ: TypeArray}
}

// NewNumberArray creates an array of numbers.
func NewNumberArray(x ...float64) *Array {
	a := NewArray()
	for _, xi := range x {
		a.appendFresh(NewNumber(xi))
	}
	return a
}

// NewNameArray creates an array of names.
func NewNameArray(names ...Name) *Array {
	a := NewArray()
	for _, n := range names {
		a.appendFresh(NewName(n))
	}
	return a
}

func (a *Array) appendFresh(v *Object) {
	v.parent = a.Object()
	v.doc = a.doc
	a.elems = append(a.elems, v)
}

// Object returns the underlying object.
func (a *Array) Object() *Object {
	return (*Object)(a)
}

// Len returns the number of elements.
func (a *Array) Len() int {
	if a == nil {
		return 0
	}
	return len(a.elems)
}

// Get returns the element at index i, or nil if i is out of range.
func (a *Array) Get(i int) *Object {
	if a == nil || i < 0 || i >= len(a.elems) {
		return nil
	}
	return a.elems[i]
}

// GetDirect returns the element at index i, with references resolved.
func (a *Array) GetDirect(i int) *Object {
	return a.Get(i).Direct()
}

// Add appends v to the array.  A nil value is stored as null.
func (a *Array) Add(v *Object) error {
	return a.InsertAt(a.Len(), v)
}

// InsertAt inserts v before index i.  Indices below zero insert at the
// start, indices beyond the end append.
func (a *Array) InsertAt(i int, v *Object) error {
	child, err := a.Object().prepareChild(v)
	if err != nil {
		return err
	}
	i = max(0, min(i, len(a.elems)))
	child.parent = a.Object()
	a.elems = append(a.elems, nil)
	copy(a.elems[i+1:], a.elems[i:])
	a.elems[i] = child
	return nil
}

// SetAt replaces the element at index i.
func (a *Array) SetAt(i int, v *Object) error {
	if i < 0 || i >= a.Len() {
		return ErrIndexOutOfRange
	}
	child, err := a.Object().prepareChild(v)
	if err != nil {
		return err
	}
	detach(a.elems[i])
	child.parent = a.Object()
	a.elems[i] = child
	return nil
}

// RemoveAt removes the element at index i.  The removed element is
// detached and can be attached elsewhere or released.
func (a *Array) RemoveAt(i int) error {
	if a.released {
		return ErrReleased
	}
	if i < 0 || i >= a.Len() {
		return ErrIndexOutOfRange
	}
	detach(a.elems[i])
	a.elems = append(a.elems[:i], a.elems[i+1:]...)
	return nil
}

// Clear removes all elements.
func (a *Array) Clear() {
	if a == nil {
		return
	}
	for _, elem := range a.elems {
		detach(elem)
	}
	a.elems = nil
}

// All iterates over the elements of the array.
func (a *Array) All() iter.Seq2[int, *Object] {
	return func(yield func(int, *Object) bool) {
		if a == nil {
			return
		}
		for i, elem := range a.elems {
			if !yield(i, elem) {
				return
			}
		}
	}
}

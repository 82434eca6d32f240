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
	"crypto/md5"
	"encoding/binary"
	"iter"
	"time"
)

// A Document owns the indirect objects of a PDF file.
//
// Indirect objects live in numbered slots.  Each slot has a generation
// number which is incremented when the object is deleted, so that stale
// references to a deleted object resolve to nil instead of to a new object
// which reuses the number.
type Document struct {
	version Version
	slots   []slot
	free    []uint32
	trailer *Dict

	encrypt *Object
	crypter Crypter
}

type slot struct {
	obj *Object
	gen uint16
}

// NewDocument creates a new document with an empty page tree.
func NewDocument(v Version) *Document {
	doc := newEmptyDocument(v)

	pages := NewDict()
	pages.SetName("Type", "Pages")
	pages.SetAt("Kids", NewArray().Object())
	pages.SetInteger("Count", 0)
	pagesNum, _ := doc.AddIndirectObject(pages.Object())

	catalog := NewDict()
	catalog.SetName("Type", "Catalog")
	catalogNum, _ := doc.AddIndirectObject(catalog.Object())
	catalog.SetRef("Pages", pagesNum)

	doc.trailer.SetRef("Root", catalogNum)
	return doc
}

func newEmptyDocument(v Version) *Document {
	doc := &Document{
		version: v,
		slots:   make([]slot, 1),
	}
	doc.trailer = NewDict()
	doc.trailer.doc = doc
	return doc
}

// Version returns the PDF version of the document.
func (d *Document) Version() Version {
	return d.version
}

// SetVersion changes the PDF version written when the document is saved.
// Use the compliance package to also adjust the document content.
func (d *Document) SetVersion(v Version) {
	d.version = v
}

// lookup resolves a reference.
func (d *Document) lookup(ref Ref) *Object {
	num := ref.Number()
	if num == 0 || int(num) >= len(d.slots) {
		return nil
	}
	s := d.slots[num]
	if s.obj == nil || s.gen != ref.Generation() {
		return nil
	}
	return s.obj
}

// AddIndirectObject registers o as an indirect object of the document and
// returns its object number.  If o already is an indirect object of d, its
// existing number is returned.
func (d *Document) AddIndirectObject(o *Object) (uint32, error) {
	if o == nil {
		return 0, ErrWrongType
	}
	if o.released {
		return 0, ErrReleased
	}
	if o.num != 0 {
		if o.doc != d {
			return 0, ErrForeignDocument
		}
		return o.num, nil
	}
	if o.typ == TypeReference {
		return 0, ErrWrongType
	}
	if o.parent != nil {
		return 0, ErrAttached
	}
	if od := o.subtreeDoc(); od != nil && od != d {
		return 0, ErrForeignDocument
	}

	var num uint32
	if n := len(d.free); n > 0 {
		num = d.free[n-1]
		d.free = d.free[:n-1]
	} else {
		num = uint32(len(d.slots))
		d.slots = append(d.slots, slot{})
	}
	d.slots[num].obj = o
	o.num = num
	o.gen = d.slots[num].gen
	o.setTreeDoc(d)
	return num, nil
}

// placeIndirectObject stores o under a given number and generation.
// This is used when reading files.
func (d *Document) placeIndirectObject(ref Ref, o *Object) {
	num := ref.Number()
	for int(num) >= len(d.slots) {
		d.slots = append(d.slots, slot{})
	}
	d.slots[num] = slot{obj: o, gen: ref.Generation()}
	o.num = num
	o.gen = ref.Generation()
	o.setTreeDoc(d)
}

// MakeIndirect registers o as an indirect object and returns a new
// reference to it.
func (d *Document) MakeIndirect(o *Object) (*Object, error) {
	num, err := d.AddIndirectObject(o)
	if err != nil {
		return nil, err
	}
	return NewReference(d, num), nil
}

// GetIndirectObject returns the indirect object with the given number, or
// nil if there is no such object.
func (d *Document) GetIndirectObject(num uint32) *Object {
	if num == 0 || int(num) >= len(d.slots) {
		return nil
	}
	return d.slots[num].obj
}

// DeleteIndirectObject removes an indirect object from the document.
// References to it become dangling and resolve to nil.  The removed
// object becomes a free object which may be released.
func (d *Document) DeleteIndirectObject(num uint32) error {
	o := d.GetIndirectObject(num)
	if o == nil {
		return ErrNoObject
	}
	o.num = 0
	o.gen = 0
	s := &d.slots[num]
	s.obj = nil
	if s.gen < 65535 {
		s.gen++
		d.free = append(d.free, num)
	}
	return nil
}

// NextObjNum returns the object number which the next call to
// AddIndirectObject will assign.
func (d *Document) NextObjNum() uint32 {
	if n := len(d.free); n > 0 {
		return d.free[n-1]
	}
	return uint32(len(d.slots))
}

// Objects iterates over all indirect objects in order of object number.
func (d *Document) Objects() iter.Seq2[uint32, *Object] {
	return func(yield func(uint32, *Object) bool) {
		for num := 1; num < len(d.slots); num++ {
			o := d.slots[num].obj
			if o == nil {
				continue
			}
			if !yield(uint32(num), o) {
				return
			}
		}
	}
}

// Trailer returns the trailer dictionary.  The entries /Root, /Info, /ID
// and /Encrypt are meaningful, all other entries are generated when the
// document is saved.
func (d *Document) Trailer() *Dict {
	return d.trailer
}

// Catalog returns the document catalog.
func (d *Document) Catalog() *Dict {
	return d.trailer.GetDict("Root")
}

// Info returns the document information dictionary.  If the document has
// none and create is true, an empty one is added.
func (d *Document) Info(create bool) *Dict {
	info := d.trailer.GetDict("Info")
	if info != nil || !create {
		return info
	}
	info = NewDict()
	num, err := d.AddIndirectObject(info.Object())
	if err != nil {
		return nil
	}
	d.trailer.SetRef("Info", num)
	return info
}

// FileID returns the two parts of the file identifier, creating the
// identifier if necessary.
func (d *Document) FileID() [2][]byte {
	id := d.trailer.GetArray("ID")
	if id.Len() == 2 {
		a, b := id.GetDirect(0).Bytes(), id.GetDirect(1).Bytes()
		if len(a) > 0 && len(b) > 0 {
			return [2][]byte{a, b}
		}
	}

	h := md5.New()
	binary.Write(h, binary.BigEndian, time.Now().UnixNano())
	binary.Write(h, binary.BigEndian, int64(len(d.slots)))
	if info := d.Info(false); info != nil {
		h.Write([]byte(info.Object().String()))
	}
	sum := h.Sum(nil)

	arr := NewArray()
	arr.Add(NewString(sum))
	arr.Add(NewString(sum))
	d.trailer.SetAt("ID", arr.Object())
	return [2][]byte{sum, sum}
}

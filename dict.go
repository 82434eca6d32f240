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
	"iter"
	"sort"
	"time"

	"seehuhn.de/go/geom/rect"
)

type dictEntry struct {
	key Name
	val *Object
}

// Dict is the view of a dictionary object.  Entries are kept sorted by key.
type Dict Object

// NewDict creates a new, empty dictionary.
func NewDict() *Dict {
	return &Dict{typ: TypeDictionary}
}

// Object returns the underlying object.
func (d *Dict) Object() *Object {
	return (*Object)(d)
}

func (d *Dict) search(key Name) (int, bool) {
	i := sort.Search(len(d.entries), func(i int) bool {
		return d.entries[i].key >= key
	})
	return i, i < len(d.entries) && d.entries[i].key == key
}

// Len returns the number of entries.
func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Has reports whether key is present.
func (d *Dict) Has(key Name) bool {
	if d == nil {
		return false
	}
	_, ok := d.search(key)
	return ok
}

// Get returns the value stored under key, or nil if there is none.
func (d *Dict) Get(key Name) *Object {
	if d == nil {
		return nil
	}
	i, ok := d.search(key)
	if !ok {
		return nil
	}
	return d.entries[i].val
}

// GetDirect returns the value stored under key, with references resolved.
func (d *Dict) GetDirect(key Name) *Object {
	return d.Get(key).Direct()
}

// GetName is a shortcut for d.GetDirect(key).Name().
func (d *Dict) GetName(key Name) Name {
	return d.GetDirect(key).Name()
}

// GetInteger is a shortcut for d.GetDirect(key).Integer().
func (d *Dict) GetInteger(key Name) int64 {
	return d.GetDirect(key).Integer()
}

// GetText is a shortcut for d.GetDirect(key).Text().
func (d *Dict) GetText(key Name) string {
	return d.GetDirect(key).Text()
}

// GetDict returns the dictionary stored under key, resolving references.
func (d *Dict) GetDict(key Name) *Dict {
	return d.GetDirect(key).Dict()
}

// GetArray returns the array stored under key, resolving references.
func (d *Dict) GetArray(key Name) *Array {
	return d.GetDirect(key).Array()
}

// SetAt stores v under key, replacing and detaching any previous value.
// Setting a nil value removes the key.
func (d *Dict) SetAt(key Name, v *Object) error {
	if v == nil {
		return d.Remove(key)
	}
	child, err := d.Object().prepareChild(v)
	if err != nil {
		return err
	}
	child.parent = d.Object()
	i, ok := d.search(key)
	if ok {
		detach(d.entries[i].val)
		d.entries[i].val = child
		return nil
	}
	d.entries = append(d.entries, dictEntry{})
	copy(d.entries[i+1:], d.entries[i:])
	d.entries[i] = dictEntry{key: key, val: child}
	return nil
}

// setFresh stores a value which was created by the caller and has no
// parent, without the attachment checks of SetAt.
func (d *Dict) setFresh(key Name, v *Object) {
	v.parent = d.Object()
	v.doc = d.doc
	i, ok := d.search(key)
	if ok {
		detach(d.entries[i].val)
		d.entries[i].val = v
		return
	}
	d.entries = append(d.entries, dictEntry{})
	copy(d.entries[i+1:], d.entries[i:])
	d.entries[i] = dictEntry{key: key, val: v}
}

// set stores a freshly created value.  Fresh values cannot fail the
// attachment checks, so only a released dictionary is a problem, and this
// case is ignored.
func (d *Dict) set(key Name, v *Object) {
	if d == nil || d.released {
		return
	}
	_ = d.SetAt(key, v)
}

// SetName stores a name object under key.
func (d *Dict) SetName(key Name, val Name) {
	d.set(key, NewName(val))
}

// SetInteger stores an integer under key.
func (d *Dict) SetInteger(key Name, val int64) {
	d.set(key, NewInteger(val))
}

// SetReal stores a number under key.
func (d *Dict) SetReal(key Name, val float64) {
	d.set(key, NewNumber(val))
}

// SetBool stores a boolean under key.
func (d *Dict) SetBool(key Name, val bool) {
	d.set(key, NewBool(val))
}

// SetText stores s as a text string under key.
func (d *Dict) SetText(key Name, s string) {
	d.set(key, NewTextString(s))
}

// SetDate stores t as a date string under key.
func (d *Dict) SetDate(key Name, t time.Time) {
	d.set(key, NewDate(t))
}

// SetRect stores a rectangle under key.
func (d *Dict) SetRect(key Name, r rect.Rect) {
	d.set(key, NewRect(r).Object())
}

// SetRef stores a reference to the indirect object num under key.
// The dictionary must belong to a document.
func (d *Dict) SetRef(key Name, num uint32) {
	if d == nil || d.doc == nil {
		return
	}
	d.set(key, NewReference(d.doc, num))
}

// Remove deletes key from the dictionary.  The removed value is detached.
// Removing a missing key is not an error.
func (d *Dict) Remove(key Name) error {
	if d.released {
		return ErrReleased
	}
	i, ok := d.search(key)
	if !ok {
		return nil
	}
	detach(d.entries[i].val)
	d.entries = append(d.entries[:i], d.entries[i+1:]...)
	return nil
}

// Keys returns the keys of the dictionary in sorted order.
func (d *Dict) Keys() []Name {
	if d == nil {
		return nil
	}
	keys := make([]Name, len(d.entries))
	for i, e := range d.entries {
		keys[i] = e.key
	}
	return keys
}

// A Position is a cursor into a dictionary, obtained from [Dict.MoveNext].
// A position stays meaningful when the dictionary is modified: the next
// call to MoveNext continues with the smallest key after Key().
type Position struct {
	d   *Dict
	key Name
}

// Key returns the key at the position.
func (p *Position) Key() Name {
	return p.key
}

// Value returns the value at the position, or nil if the key has since
// been removed.
func (p *Position) Value() *Object {
	return p.d.Get(p.key)
}

// MoveNext advances a dictionary cursor.  Passing nil yields the position
// of the first entry, passing a position yields the position of the
// following entry.  At the end of the dictionary, nil is returned.
func (d *Dict) MoveNext(pos *Position) *Position {
	if d == nil {
		return nil
	}
	i := 0
	if pos != nil {
		var ok bool
		i, ok = d.search(pos.key)
		if ok {
			i++
		}
	}
	if i >= len(d.entries) {
		return nil
	}
	return &Position{d: d, key: d.entries[i].key}
}

// All iterates over the entries of the dictionary in key order.
func (d *Dict) All() iter.Seq2[Name, *Object] {
	return func(yield func(Name, *Object) bool) {
		for pos := d.MoveNext(nil); pos != nil; pos = d.MoveNext(pos) {
			if !yield(pos.key, pos.Value()) {
				return
			}
		}
	}
}

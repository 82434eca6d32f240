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

package structure

import (
	"errors"

	"golang.org/x/text/language"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/pdfsdk"
)

// Element is a structure element.
type Element struct {
	tree *StructTree
	dict *pdf.Dict
}

// EntityType implements the [Entity] interface.
func (e *Element) EntityType() EntityType { return EntityElement }

// Dict returns the structure element dictionary.
func (e *Element) Dict() *pdf.Dict {
	return e.dict
}

// Equal reports whether e and other are views of the same element.
func (e *Element) Equal(other *Element) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.dict == other.dict
}

// Type returns the structure type (/S) of the element.
func (e *Element) Type() pdf.Name {
	return e.dict.GetName("S")
}

// StandardType returns the structure type of the element, mapped to a
// standard type through the role map.
func (e *Element) StandardType() pdf.Name {
	return e.tree.StandardType(e.Type())
}

// Title returns the title (/T) of the element.
func (e *Element) Title() string { return e.dict.GetText("T") }

// SetTitle changes the title of the element.
func (e *Element) SetTitle(s string) { e.setText("T", s) }

// ActualText returns the replacement text of the element.
func (e *Element) ActualText() string { return e.dict.GetText("ActualText") }

// SetActualText changes the replacement text of the element.
func (e *Element) SetActualText(s string) { e.setText("ActualText", s) }

// Alt returns the alternate description of the element.
func (e *Element) Alt() string { return e.dict.GetText("Alt") }

// SetAlt changes the alternate description of the element.
func (e *Element) SetAlt(s string) { e.setText("Alt", s) }

// Abbreviation returns the expanded form (/E) of an abbreviation.
func (e *Element) Abbreviation() string { return e.dict.GetText("E") }

// SetAbbreviation changes the expanded form of an abbreviation.
func (e *Element) SetAbbreviation(s string) { e.setText("E", s) }

func (e *Element) setText(key pdf.Name, s string) {
	if s == "" {
		e.dict.Remove(key)
		return
	}
	e.dict.SetText(key, s)
}

// Lang returns the language of the element.  If the element has no
// valid /Lang entry, the language is inherited from the parent elements
// and finally from the document catalog.  The result is language.Und if
// no language is specified.
func (e *Element) Lang() language.Tag {
	seen := map[*pdf.Dict]bool{}
	for d := e.dict; d != nil && !seen[d]; d = d.GetDict("P") {
		seen[d] = true
		if tag, err := language.Parse(d.GetText("Lang")); err == nil {
			return tag
		}
	}
	tag, err := language.Parse(e.tree.doc.Catalog().GetText("Lang"))
	if err != nil {
		return language.Und
	}
	return tag
}

// SetLang sets the language of the element.  language.Und removes the
// entry.
func (e *Element) SetLang(tag language.Tag) {
	if tag == language.Und {
		e.dict.Remove("Lang")
		return
	}
	e.dict.SetText("Lang", tag.String())
}

// ID returns the element identifier, or the empty string.
func (e *Element) ID() string {
	return string(e.dict.GetDirect("ID").Bytes())
}

// SetID sets the element identifier and registers it in the ID tree of
// the structure tree.  IDs must be unique within the document.
func (e *Element) SetID(id string) error {
	tree, err := e.tree.idTree(true)
	if err != nil {
		return err
	}
	if old := e.ID(); old != "" {
		tree.RemoveObj(old)
	}
	if id == "" {
		return e.dict.Remove("ID")
	}
	if tree.HasName(id) {
		return errors.New("duplicate structure element ID " + id)
	}
	if err := tree.Add(id, e.dict.Object()); err != nil {
		return err
	}
	return e.dict.SetAt("ID", pdf.NewString([]byte(id)))
}

// Page returns the index of the page (/Pg) on which the contents of the
// element are shown, or -1 if the element has no page.  The page is
// inherited from the parent elements.
func (e *Element) Page() int {
	pg := e.pageDict()
	if pg == nil {
		return -1
	}
	for i, p := range e.tree.doc.Pages() {
		if p.Dict() == pg {
			return i
		}
	}
	return -1
}

func (e *Element) pageDict() *pdf.Dict {
	seen := map[*pdf.Dict]bool{}
	for d := e.dict; d != nil && !seen[d]; d = d.GetDict("P") {
		seen[d] = true
		if pg := d.GetDict("Pg"); pg != nil {
			return pg
		}
	}
	return nil
}

// SetPage sets the page on which the contents of the element are shown.
func (e *Element) SetPage(pageIndex int) error {
	p, err := e.tree.doc.Page(pageIndex)
	if err != nil {
		return errNoPage
	}
	return e.dict.SetAt("Pg", p.Dict().Object())
}

// Parent returns the parent element, or nil if e is a top-level element.
func (e *Element) Parent() *Element {
	return e.tree.element(e.dict.GetDict("P"))
}

// ChildCount returns the number of kids of the element.
func (e *Element) ChildCount() int {
	return len(kids(e.dict))
}

// Child returns the i-th kid of the element, or nil if i is out of range
// or the kid is malformed.
func (e *Element) Child(i int) Entity {
	k := kids(e.dict)
	if i < 0 || i >= len(k) {
		return nil
	}
	kid := k[i].Direct()
	if kid.IsInteger() {
		return &MarkedContent{parent: e, kid: kid}
	}
	d := kid.Dict()
	if d == nil {
		return nil
	}
	switch d.GetName("Type") {
	case "MCR":
		return &MarkedContent{parent: e, kid: kid}
	case "OBJR":
		return &ObjectContent{parent: e, dict: d}
	}
	return e.tree.element(d)
}

// Children returns all kids of the element.
func (e *Element) Children() []Entity {
	n := e.ChildCount()
	res := make([]Entity, 0, n)
	for i := range n {
		if c := e.Child(i); c != nil {
			res = append(res, c)
		}
	}
	return res
}

// AddChild appends a new structure element of the given type.
func (e *Element) AddChild(typ pdf.Name) (*Element, error) {
	return e.tree.addElement(e.dict, typ)
}

// RemoveChild removes the kid at index i.  Removed structure elements stay
// in the document as unreferenced objects.
func (e *Element) RemoveChild(i int) error {
	k := e.dict.GetDirect("K")
	if arr := k.Array(); arr != nil {
		return arr.RemoveAt(i)
	}
	if k == nil || i != 0 {
		return errNotChild
	}
	return e.dict.Remove("K")
}

// Attribute returns the value of an attribute with the given owner (for
// example "Layout" or "Table").  Attribute objects may be given directly
// or through an array.
func (e *Element) Attribute(owner, key pdf.Name) *pdf.Object {
	a := e.dict.GetDirect("A")
	var objs []*pdf.Dict
	switch a.Type() {
	case pdf.TypeDictionary:
		objs = append(objs, a.Dict())
	case pdf.TypeArray:
		for _, x := range a.Array().All() {
			if d := x.Direct().Dict(); d != nil {
				objs = append(objs, d)
			}
		}
	}
	for _, d := range objs {
		if d.GetName("O") == owner && d.Has(key) {
			return d.GetDirect(key)
		}
	}
	return nil
}

// SetAttribute sets an attribute with the given owner.
func (e *Element) SetAttribute(owner, key pdf.Name, val *pdf.Object) error {
	a := e.dict.GetDirect("A")
	var arr *pdf.Array
	switch a.Type() {
	case pdf.TypeArray:
		arr = a.Array()
	case pdf.TypeDictionary:
		arr = pdf.NewArray()
		if err := arr.Add(e.dict.Get("A").Clone()); err != nil {
			return err
		}
		if err := e.dict.SetAt("A", arr.Object()); err != nil {
			return err
		}
	}
	for _, x := range arr.All() {
		if d := x.Direct().Dict(); d != nil && d.GetName("O") == owner {
			return d.SetAt(key, val)
		}
	}

	d := pdf.NewDict()
	d.SetName("O", owner)
	if err := d.SetAt(key, val); err != nil {
		return err
	}
	if arr == nil {
		return e.dict.SetAt("A", d.Object())
	}
	return arr.Add(d.Object())
}

// BBox returns the bounding box of the element, given by the BBox
// attribute of the Layout owner.  The zero rectangle is returned if the
// element has no bounding box.
func (e *Element) BBox() rect.Rect {
	return e.Attribute("Layout", "BBox").Rect()
}

// SetBBox sets the bounding box of the element.
func (e *Element) SetBBox(r rect.Rect) error {
	return e.SetAttribute("Layout", "BBox", pdf.NewRect(r).Object())
}

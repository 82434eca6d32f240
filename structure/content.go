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

	"seehuhn.de/go/pdfsdk"
)

// MarkedContent is a marked-content sequence in a content stream which
// belongs to a structure element.
type MarkedContent struct {
	parent *Element
	kid    *pdf.Object // an integer MCID, or an MCR dictionary
}

// EntityType implements the [Entity] interface.
func (mc *MarkedContent) EntityType() EntityType { return EntityMarkedContent }

// Parent implements the [Entity] interface.
func (mc *MarkedContent) Parent() *Element { return mc.parent }

// MCID returns the marked-content identifier of the sequence.
func (mc *MarkedContent) MCID() int {
	if mc.kid.IsInteger() {
		return int(mc.kid.Integer())
	}
	return int(mc.kid.Dict().GetInteger("MCID"))
}

// Page returns the index of the page containing the sequence, or -1.
func (mc *MarkedContent) Page() int {
	if d := mc.kid.Dict(); d != nil {
		if pg := d.GetDict("Pg"); pg != nil {
			return pageIndex(mc.parent.tree.doc, pg)
		}
	}
	return mc.parent.Page()
}

// StreamOwner returns the content stream (/Stm) containing the sequence,
// if it is not the content stream of the page, for example a form
// XObject.  The result is nil for page content.
func (mc *MarkedContent) StreamOwner() *pdf.Object {
	if d := mc.kid.Dict(); d != nil {
		return d.GetDirect("Stm")
	}
	return nil
}

// ObjectContent is a PDF object, for example an annotation, which belongs
// to a structure element.
type ObjectContent struct {
	parent *Element
	dict   *pdf.Dict // the OBJR dictionary
}

// EntityType implements the [Entity] interface.
func (oc *ObjectContent) EntityType() EntityType { return EntityObjectContent }

// Parent implements the [Entity] interface.
func (oc *ObjectContent) Parent() *Element { return oc.parent }

// Object returns the referenced object.
func (oc *ObjectContent) Object() *pdf.Object {
	return oc.dict.GetDirect("Obj")
}

// Page returns the index of the page on which the object is shown, or -1.
func (oc *ObjectContent) Page() int {
	if pg := oc.dict.GetDict("Pg"); pg != nil {
		return pageIndex(oc.parent.tree.doc, pg)
	}
	return oc.parent.Page()
}

func pageIndex(doc *pdf.Document, pg *pdf.Dict) int {
	for i, p := range doc.Pages() {
		if p.Dict() == pg {
			return i
		}
	}
	return -1
}

// AddMarkedContent registers the marked-content sequence with the given
// MCID on a page as the next kid of the element.  The parent tree entry of
// the page is updated.  The caller is responsible for the corresponding
// BDC/EMC operators in the content stream.
func (e *Element) AddMarkedContent(pageIndex int, mcid int) (*MarkedContent, error) {
	if mcid < 0 {
		return nil, errors.New("negative MCID")
	}
	page, err := e.tree.doc.Page(pageIndex)
	if err != nil {
		return nil, errNoPage
	}
	pg := page.Dict()

	var kid *pdf.Object
	if e.pageDict() == pg {
		kid = pdf.NewInteger(int64(mcid))
	} else {
		mcr := pdf.NewDict()
		mcr.SetName("Type", "MCR")
		mcr.SetAt("Pg", pg.Object())
		mcr.SetInteger("MCID", int64(mcid))
		kid = mcr.Object()
	}

	// update the parent tree: /StructParents of the page gives the key of
	// an array indexed by MCID
	pt, err := e.tree.ParentTree()
	if err != nil {
		return nil, err
	}
	var key int64
	if sp := pg.GetDirect("StructParents"); sp.IsInteger() {
		key = sp.Integer()
	} else {
		key, err = e.tree.nextKey()
		if err != nil {
			return nil, err
		}
		pg.SetInteger("StructParents", key)
	}
	arr, _ := pt.Get(key)
	if arr.Array() == nil {
		a := pdf.NewArray()
		if err := pt.Set(key, a.Object()); err != nil {
			return nil, err
		}
		arr, _ = pt.Get(key)
	}
	parents := arr.Array()
	for parents.Len() <= mcid {
		parents.Add(pdf.NewNull())
	}
	if err := parents.SetAt(mcid, e.dict.Object()); err != nil {
		return nil, err
	}

	if err := appendKid(e.dict, kid); err != nil {
		return nil, err
	}
	return &MarkedContent{parent: e, kid: kid}, nil
}

// AddObjectContent registers obj, for example an annotation dictionary,
// as the next kid of the element.  obj must be an indirect object.  If
// pageIndex is non-negative, it gives the page on which the object is
// shown.
func (e *Element) AddObjectContent(obj *pdf.Dict, pageIndex int) (*ObjectContent, error) {
	if !obj.Object().IsIndirect() {
		return nil, errors.New("content object must be indirect")
	}
	objr := pdf.NewDict()
	objr.SetName("Type", "OBJR")
	if err := objr.SetAt("Obj", obj.Object()); err != nil {
		return nil, err
	}
	if pageIndex >= 0 {
		page, err := e.tree.doc.Page(pageIndex)
		if err != nil {
			return nil, errNoPage
		}
		if page.Dict() != e.pageDict() {
			objr.SetAt("Pg", page.Dict().Object())
		}
	}

	key, err := e.tree.nextKey()
	if err != nil {
		return nil, err
	}
	pt, err := e.tree.ParentTree()
	if err != nil {
		return nil, err
	}
	if err := pt.Set(key, e.dict.Object()); err != nil {
		return nil, err
	}
	obj.SetInteger("StructParent", key)

	if err := appendKid(e.dict, objr.Object()); err != nil {
		return nil, err
	}
	return &ObjectContent{parent: e, dict: objr}, nil
}

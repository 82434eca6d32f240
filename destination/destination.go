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

package destination

import (
	"errors"
	"fmt"
	"math"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/pdfsdk"
	"seehuhn.de/go/pdfsdk/nametree"
)

// Destination represents a view of a document.
type Destination interface {
	DestinationType() Type

	// Encode converts the destination into a new, unattached PDF object.
	Encode(doc *pdf.Document) (*pdf.Object, error)
}

// Type identifies the type of destination.
type Type pdf.Name

// These are the destination types defined in the PDF standard.
const (
	TypeXYZ   Type = "XYZ"
	TypeFit   Type = "Fit"
	TypeFitH  Type = "FitH"
	TypeFitV  Type = "FitV"
	TypeFitR  Type = "FitR"
	TypeFitB  Type = "FitB"
	TypeFitBH Type = "FitBH"
	TypeFitBV Type = "FitBV"
	TypeNamed Type = "Named"
)

// Unset marks a coordinate which keeps its current value.
// Use math.IsNaN() to test for this value.
var Unset = math.NaN()

var (
	errMalformed = errors.New("malformed destination")
	errNoPage    = errors.New("destination has no target page")
)

// XYZ displays the page with (Left, Top) at the upper-left corner of the
// window and the contents magnified by Zoom.  A Zoom of 0 has the same
// meaning as Unset.
//
// Page is a reference to a page object, or an integer page number for
// destinations in other documents.
type XYZ struct {
	Page            *pdf.Object
	Left, Top, Zoom float64
}

// DestinationType implements the [Destination] interface.
func (d *XYZ) DestinationType() Type { return TypeXYZ }

// Encode implements the [Destination] interface.
func (d *XYZ) Encode(doc *pdf.Document) (*pdf.Object, error) {
	return encode(doc, d.Page, TypeXYZ, d.Left, d.Top, d.Zoom)
}

// Fit displays the whole page.
type Fit struct {
	Page *pdf.Object
}

// DestinationType implements the [Destination] interface.
func (d *Fit) DestinationType() Type { return TypeFit }

// Encode implements the [Destination] interface.
func (d *Fit) Encode(doc *pdf.Document) (*pdf.Object, error) {
	return encode(doc, d.Page, TypeFit)
}

// FitH fits the width of the page into the window, with Top at the top
// edge of the window.
type FitH struct {
	Page *pdf.Object
	Top  float64
}

// DestinationType implements the [Destination] interface.
func (d *FitH) DestinationType() Type { return TypeFitH }

// Encode implements the [Destination] interface.
func (d *FitH) Encode(doc *pdf.Document) (*pdf.Object, error) {
	return encode(doc, d.Page, TypeFitH, d.Top)
}

// FitV fits the height of the page into the window, with Left at the left
// edge of the window.
type FitV struct {
	Page *pdf.Object
	Left float64
}

// DestinationType implements the [Destination] interface.
func (d *FitV) DestinationType() Type { return TypeFitV }

// Encode implements the [Destination] interface.
func (d *FitV) Encode(doc *pdf.Document) (*pdf.Object, error) {
	return encode(doc, d.Page, TypeFitV, d.Left)
}

// FitR fits the given rectangle into the window.
type FitR struct {
	Page *pdf.Object
	Rect rect.Rect
}

// DestinationType implements the [Destination] interface.
func (d *FitR) DestinationType() Type { return TypeFitR }

// Encode implements the [Destination] interface.
func (d *FitR) Encode(doc *pdf.Document) (*pdf.Object, error) {
	r := d.Rect
	if r.IsZero() {
		return nil, fmt.Errorf("FitR: %w", errMalformed)
	}
	return encode(doc, d.Page, TypeFitR, r.LLx, r.LLy, r.URx, r.URy)
}

// FitB fits the bounding box of the page contents into the window.
type FitB struct {
	Page *pdf.Object
}

// DestinationType implements the [Destination] interface.
func (d *FitB) DestinationType() Type { return TypeFitB }

// Encode implements the [Destination] interface.
func (d *FitB) Encode(doc *pdf.Document) (*pdf.Object, error) {
	return encode(doc, d.Page, TypeFitB)
}

// FitBH fits the width of the bounding box into the window.
type FitBH struct {
	Page *pdf.Object
	Top  float64
}

// DestinationType implements the [Destination] interface.
func (d *FitBH) DestinationType() Type { return TypeFitBH }

// Encode implements the [Destination] interface.
func (d *FitBH) Encode(doc *pdf.Document) (*pdf.Object, error) {
	return encode(doc, d.Page, TypeFitBH, d.Top)
}

// FitBV fits the height of the bounding box into the window.
type FitBV struct {
	Page *pdf.Object
	Left float64
}

// DestinationType implements the [Destination] interface.
func (d *FitBV) DestinationType() Type { return TypeFitBV }

// Encode implements the [Destination] interface.
func (d *FitBV) Encode(doc *pdf.Document) (*pdf.Object, error) {
	return encode(doc, d.Page, TypeFitBV, d.Left)
}

// Named refers to a destination by name.  If AsName is set, the name is
// stored as a PDF name object, as used by the catalog /Dests dictionary of
// PDF 1.1.  Otherwise it is stored as a string, which refers to the Dests
// name tree.
type Named struct {
	Name   string
	AsName bool
}

// DestinationType implements the [Destination] interface.
func (d *Named) DestinationType() Type { return TypeNamed }

// Encode implements the [Destination] interface.
func (d *Named) Encode(doc *pdf.Document) (*pdf.Object, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("empty destination name: %w", errMalformed)
	}
	if d.AsName {
		return pdf.NewName(pdf.Name(d.Name)), nil
	}
	return pdf.NewTextString(d.Name), nil
}

func encode(doc *pdf.Document, page *pdf.Object, tp Type, args ...float64) (*pdf.Object, error) {
	if page == nil {
		return nil, errNoPage
	}
	switch tp {
	case TypeFitB, TypeFitBH, TypeFitBV:
		if doc != nil && doc.Version() < pdf.V1_1 {
			return nil, fmt.Errorf("%s destinations require PDF 1.1", tp)
		}
	}

	arr := pdf.NewArray()
	if !page.IsIndirect() {
		page = page.Clone()
	}
	if err := arr.Add(page); err != nil {
		return nil, err
	}
	arr.Add(pdf.NewName(pdf.Name(tp)))
	for _, x := range args {
		switch {
		case math.IsNaN(x):
			arr.Add(pdf.NewNull())
		case math.IsInf(x, 0):
			return nil, fmt.Errorf("%s: infinite coordinate: %w", tp, errMalformed)
		default:
			arr.Add(pdf.NewNumber(x))
		}
	}
	return arr.Object(), nil
}

// Decode reads a destination.  Names and strings give a [Named]
// destination, dictionaries are read through their /D entry.
func Decode(obj *pdf.Object) (Destination, error) {
	obj = obj.Direct()
	switch obj.Type() {
	case pdf.TypeName:
		return &Named{Name: string(obj.Name()), AsName: true}, nil
	case pdf.TypeString:
		return &Named{Name: obj.Text()}, nil
	case pdf.TypeDictionary:
		d := obj.Dict().GetDirect("D")
		if d.Type() != pdf.TypeArray {
			return nil, errMalformed
		}
		obj = d
	case pdf.TypeArray:
		// handled below
	default:
		return nil, errMalformed
	}

	arr := obj.Array()
	if arr.Len() < 2 {
		return nil, errMalformed
	}
	page := arr.Get(0).Clone()
	switch page.Type() {
	case pdf.TypeReference, pdf.TypeNumber:
	default:
		return nil, errNoPage
	}

	num := func(i int) float64 {
		x := arr.GetDirect(i)
		if x.Type() != pdf.TypeNumber {
			return Unset
		}
		return x.Float()
	}

	switch Type(arr.GetDirect(1).Name()) {
	case TypeXYZ:
		zoom := num(4)
		if zoom == 0 {
			zoom = Unset
		}
		return &XYZ{Page: page, Left: num(2), Top: num(3), Zoom: zoom}, nil
	case TypeFit:
		return &Fit{Page: page}, nil
	case TypeFitH:
		return &FitH{Page: page, Top: num(2)}, nil
	case TypeFitV:
		return &FitV{Page: page, Left: num(2)}, nil
	case TypeFitR:
		r := rect.Rect{LLx: num(2), LLy: num(3), URx: num(4), URy: num(5)}
		if math.IsNaN(r.LLx) || math.IsNaN(r.LLy) || math.IsNaN(r.URx) || math.IsNaN(r.URy) {
			return nil, errMalformed
		}
		return &FitR{Page: page, Rect: r}, nil
	case TypeFitB:
		return &FitB{Page: page}, nil
	case TypeFitBH:
		return &FitBH{Page: page, Top: num(2)}, nil
	case TypeFitBV:
		return &FitBV{Page: page, Left: num(2)}, nil
	}
	return nil, errMalformed
}

// Resolve looks up a named destination.  Explicit destinations are
// returned unchanged.  Chains of named destinations are not followed.
func Resolve(doc *pdf.Document, dest Destination) (Destination, error) {
	named, ok := dest.(*Named)
	if !ok {
		return dest, nil
	}

	var val *pdf.Object
	if !named.AsName {
		if tree := nametree.Find(doc, nametree.Dests); tree != nil {
			val, _ = tree.Lookup(named.Name)
		}
	}
	if val == nil {
		val = doc.Catalog().GetDict("Dests").GetDirect(pdf.Name(named.Name))
	}
	if val == nil {
		return nil, fmt.Errorf("destination %q: %w", named.Name, nametree.ErrKeyNotFound)
	}

	res, err := Decode(val)
	if err != nil {
		return nil, err
	}
	if _, ok := res.(*Named); ok {
		return nil, fmt.Errorf("destination %q: %w", named.Name, errMalformed)
	}
	return res, nil
}

// PageTarget returns a reference to page i of the document, for use as the
// Page field of an explicit destination.
func PageTarget(doc *pdf.Document, i int) (*pdf.Object, error) {
	p, err := doc.Page(i)
	if err != nil {
		return nil, err
	}
	return pdf.NewReference(doc, p.ObjNum()), nil
}

// PageIndex returns the index of the target page of dest within doc.
// Named destinations are resolved first.  Integer page numbers, as used
// for remote destinations, are returned directly.
func PageIndex(doc *pdf.Document, dest Destination) (int, error) {
	dest, err := Resolve(doc, dest)
	if err != nil {
		return -1, err
	}
	page := pageOf(dest)
	if page.IsInteger() {
		return int(page.Integer()), nil
	}
	if page.Type() != pdf.TypeReference {
		return -1, errNoPage
	}
	num := page.Target().Number()
	for i, p := range doc.Pages() {
		if p.ObjNum() == num {
			return i, nil
		}
	}
	return -1, errNoPage
}

func pageOf(dest Destination) *pdf.Object {
	switch d := dest.(type) {
	case *XYZ:
		return d.Page
	case *Fit:
		return d.Page
	case *FitH:
		return d.Page
	case *FitV:
		return d.Page
	case *FitR:
		return d.Page
	case *FitB:
		return d.Page
	case *FitBH:
		return d.Page
	case *FitBV:
		return d.Page
	}
	return nil
}

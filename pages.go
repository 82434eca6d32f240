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
	"bytes"
	"errors"
	"iter"

	"seehuhn.de/go/geom/rect"
)

var errInvalidPageTree = errors.New("invalid page tree")

// inheritable lists the page attributes which can be given on an
// intermediate node of the page tree.
var inheritable = []Name{"Resources", "MediaBox", "CropBox", "Rotate"}

// A Page is the view of a page object.
type Page struct {
	doc  *Document
	dict *Dict
}

// pageLoc describes where a page sits in the page tree.
type pageLoc struct {
	dict   *Dict
	parent *Dict // the /Pages node whose /Kids contains the page
	kidIdx int
}

// findPages lists the pages in document order.  Nodes reached a second
// time are ignored.
func (d *Document) findPages() ([]pageLoc, error) {
	root := d.Catalog().GetDict("Pages")
	if root == nil {
		return nil, errInvalidPageTree
	}

	type todoItem struct {
		node *Dict
		next int
	}
	seen := map[*Dict]bool{root: true}
	todo := []todoItem{{node: root}}
	var res []pageLoc
	for len(todo) > 0 {
		top := &todo[len(todo)-1]
		kids := top.node.GetArray("Kids")
		if top.next >= kids.Len() {
			todo = todo[:len(todo)-1]
			continue
		}
		idx := top.next
		top.next++

		kid := kids.GetDirect(idx).Dict()
		if kid == nil || seen[kid] {
			continue
		}
		seen[kid] = true
		if kid.GetName("Type") == "Pages" || kid.Has("Kids") && kid.GetName("Type") != "Page" {
			todo = append(todo, todoItem{node: kid})
			continue
		}
		res = append(res, pageLoc{dict: kid, parent: top.node, kidIdx: idx})
	}
	return res, nil
}

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int {
	pages, err := d.findPages()
	if err != nil {
		return 0
	}
	return len(pages)
}

// Pages iterates over the pages of the document.
func (d *Document) Pages() iter.Seq2[int, *Page] {
	return func(yield func(int, *Page) bool) {
		pages, _ := d.findPages()
		for i, loc := range pages {
			if !yield(i, &Page{doc: d, dict: loc.dict}) {
				return
			}
		}
	}
}

// Page returns the page with index i (starting from 0).
func (d *Document) Page(i int) (*Page, error) {
	pages, err := d.findPages()
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= len(pages) {
		return nil, ErrIndexOutOfRange
	}
	return &Page{doc: d, dict: pages[i].dict}, nil
}

// AppendPage adds a page at the end of the document.
func (d *Document) AppendPage(dict *Dict) (*Page, error) {
	return d.InsertPage(-1, dict)
}

// InsertPage inserts a page before the page with index i.  If i is
// negative or not smaller than the number of pages, the page is appended.
// The page dictionary is made an indirect object of the document.
func (d *Document) InsertPage(i int, dict *Dict) (*Page, error) {
	pages, err := d.findPages()
	if err != nil {
		return nil, err
	}

	var parent *Dict
	var pos int
	switch {
	case i >= 0 && i < len(pages):
		parent, pos = pages[i].parent, pages[i].kidIdx
	case len(pages) > 0:
		last := pages[len(pages)-1]
		parent, pos = last.parent, last.kidIdx+1
	default:
		parent = d.Catalog().GetDict("Pages")
		pos = parent.GetArray("Kids").Len()
	}
	kids := parent.GetArray("Kids")
	if kids == nil {
		kids = NewArray()
		err = parent.SetAt("Kids", kids.Object())
		if err != nil {
			return nil, err
		}
	}

	dict.SetName("Type", "Page")
	_, err = d.AddIndirectObject(dict.Object())
	if err != nil {
		return nil, err
	}
	if parent.Object().IsIndirect() {
		dict.SetRef("Parent", parent.Object().ObjNum())
	}
	err = kids.InsertAt(pos, dict.Object())
	if err != nil {
		return nil, err
	}
	adjustCount(parent, 1)
	return &Page{doc: d, dict: dict}, nil
}

// RemovePage removes the page with index i from the page tree.  The page
// object stays in the document.
func (d *Document) RemovePage(i int) error {
	pages, err := d.findPages()
	if err != nil {
		return err
	}
	if i < 0 || i >= len(pages) {
		return ErrIndexOutOfRange
	}
	loc := pages[i]
	err = loc.parent.GetArray("Kids").RemoveAt(loc.kidIdx)
	if err != nil {
		return err
	}
	loc.dict.Remove("Parent")
	adjustCount(loc.parent, -1)
	return nil
}

// adjustCount changes the /Count of node and of all its ancestors.
func adjustCount(node *Dict, delta int64) {
	seen := map[*Dict]bool{}
	for node != nil && !seen[node] {
		seen[node] = true
		node.SetInteger("Count", node.GetInteger("Count")+delta)
		node = node.GetDict("Parent")
	}
}

// Dict returns the page dictionary.
func (p *Page) Dict() *Dict {
	return p.dict
}

// ObjNum returns the object number of the page.
func (p *Page) ObjNum() uint32 {
	return p.dict.Object().ObjNum()
}

// Index returns the position of the page within the document, or -1 if
// the page is no longer part of the page tree.
func (p *Page) Index() int {
	for i, q := range p.doc.Pages() {
		if q.dict == p.dict {
			return i
		}
	}
	return -1
}

// Inherited returns the value of a page attribute, looking up the page
// tree if the attribute is not set on the page itself.
func (p *Page) Inherited(key Name) *Object {
	seen := map[*Dict]bool{}
	for node := p.dict; node != nil && !seen[node]; node = node.GetDict("Parent") {
		seen[node] = true
		if v := node.GetDirect(key); v != nil {
			return v
		}
	}
	return nil
}

// MediaBox returns the media box of the page.  If the page has no valid
// media box, US Letter size is returned.
func (p *Page) MediaBox() rect.Rect {
	box := p.Inherited("MediaBox").Rect()
	if !validBox(box) {
		return rect.Rect{URx: 612, URy: 792}
	}
	return box
}

// CropBox returns the crop box of the page, which defaults to the media
// box.
func (p *Page) CropBox() rect.Rect {
	box := p.Inherited("CropBox").Rect()
	if !validBox(box) {
		return p.MediaBox()
	}
	return box
}

func validBox(r rect.Rect) bool {
	return r.URx > r.LLx && r.URy > r.LLy
}

// Rotate returns the page rotation in degrees, normalised to 0, 90, 180
// or 270.
func (p *Page) Rotate() int {
	r := int(p.Inherited("Rotate").Integer()) % 360
	if r < 0 {
		r += 360
	}
	return r / 90 * 90
}

// Resources returns the resource dictionary of the page.
func (p *Page) Resources() *Dict {
	return p.Inherited("Resources").Dict()
}

// Annots returns the annotation dictionaries of the page.
func (p *Page) Annots() []*Dict {
	var res []*Dict
	for _, a := range p.dict.GetArray("Annots").All() {
		if annot := a.Direct().Dict(); annot != nil {
			res = append(res, annot)
		}
	}
	return res
}

// Contents returns the decoded content of the page.  If the page has more
// than one content stream, the streams are concatenated, separated by
// newline characters.
func (p *Page) Contents() ([]byte, error) {
	var streams []*Stream
	switch c := p.dict.GetDirect("Contents"); c.Type() {
	case TypeStream:
		streams = append(streams, c.Stream())
	case TypeArray:
		for _, elem := range c.Array().All() {
			if stm := elem.Direct().Stream(); stm != nil {
				streams = append(streams, stm)
			}
		}
	}

	buf := &bytes.Buffer{}
	for i, stm := range streams {
		if i > 0 {
			buf.WriteByte('\n')
		}
		err := stm.ExportData(buf, false)
		if err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// AppendContent adds a new content stream with the given data at the end
// of the page content.
func (p *Page) AppendContent(data []byte) error {
	return p.addContent(data, false)
}

// PrependContent adds a new content stream with the given data before the
// existing page content.
func (p *Page) PrependContent(data []byte) error {
	return p.addContent(data, true)
}

func (p *Page) addContent(data []byte, front bool) error {
	stm, err := NewStream(nil)
	if err != nil {
		return err
	}
	err = stm.SetData(data)
	if err != nil {
		return err
	}
	num, err := p.doc.AddIndirectObject(stm.Object())
	if err != nil {
		return err
	}

	contents := p.dict.Get("Contents")
	var arr *Array
	switch {
	case contents == nil:
		p.dict.SetRef("Contents", num)
		return nil
	case contents.Direct().Type() == TypeArray:
		arr = contents.Direct().Array()
	default:
		arr = NewArray()
		old := contents.Clone()
		p.dict.Remove("Contents")
		err = arr.Add(old)
		if err != nil {
			return err
		}
		err = p.dict.SetAt("Contents", arr.Object())
		if err != nil {
			return err
		}
	}
	if front {
		return arr.InsertAt(0, NewReference(p.doc, num))
	}
	return arr.Add(NewReference(p.doc, num))
}

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

package bookmark

import (
	"seehuhn.de/go/pdfsdk"
	"seehuhn.de/go/pdfsdk/action"
	"seehuhn.de/go/pdfsdk/destination"
)

// Outline is a detached copy of a document outline.
// Use [Read] to read an outline from a document, or create a new outline
// and install it using [Outline.Write].
type Outline struct {
	Items []*Item
}

// Item is a detached copy of one outline item.
type Item struct {
	Title  string
	Color  Color
	Style  Style
	Open   bool
	Action action.Action // a GoTo action for /Dest entries

	Children []*Item
}

// AddItem appends a new top-level item with the given title and returns it.
func (o *Outline) AddItem(title string) *Item {
	item := &Item{Title: title}
	o.Items = append(o.Items, item)
	return item
}

// AddChild appends a new child item with the given title and returns it.
func (item *Item) AddChild(title string) *Item {
	child := &Item{Title: title}
	item.Children = append(item.Children, child)
	return child
}

// Read reads the document outline.  The result is nil if the document
// has no outline.  Destinations and actions which cannot be decoded are
// left out.
func Read(doc *pdf.Document) (*Outline, error) {
	root := Root(doc)
	if root == nil {
		return nil, nil
	}

	res := &Outline{}
	parents := []*[]*Item{&res.Items}
	err := root.Walk(func(b *Bookmark, depth int) error {
		item := &Item{
			Title: b.Title(),
			Color: b.Color(),
			Style: b.Style(),
			Open:  b.dict.GetInteger("Count") > 0,
		}
		item.Action, _ = b.Target()

		parents = parents[:depth+1]
		list := parents[depth]
		*list = append(*list, item)
		parents = append(parents, &item.Children)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Write replaces the outline of the document with o.  If o has no items,
// the outline is removed.
func (o *Outline) Write(doc *pdf.Document) error {
	if old := Root(doc); old != nil {
		for child := old.FirstChild(); child != nil; child = old.FirstChild() {
			if err := child.Remove(); err != nil {
				return err
			}
		}
		if num := old.dict.Object().ObjNum(); num != 0 {
			doc.DeleteIndirectObject(num)
		}
		doc.Catalog().Remove("Outlines")
	}
	if o == nil || len(o.Items) == 0 {
		return nil
	}

	root, err := CreateRoot(doc)
	if err != nil {
		return err
	}
	return writeItems(root, o.Items)
}

func writeItems(parent *Bookmark, items []*Item) error {
	for _, item := range items {
		b, err := parent.Insert(item.Title, LastChild)
		if err != nil {
			return err
		}
		if err := b.SetColor(item.Color); err != nil {
			return err
		}
		if err := b.SetStyle(item.Style); err != nil {
			return err
		}

		if goTo, ok := item.Action.(*action.GoTo); ok && len(goTo.Next) == 0 {
			err = b.SetDestination(goTo.Dest)
		} else if item.Action != nil {
			err = b.SetAction(item.Action)
		}
		if err != nil {
			return err
		}

		if err := writeItems(b, item.Children); err != nil {
			return err
		}
		b.SetOpen(item.Open)
	}
	return nil
}

// Find returns the first bookmark below b, in document order, whose title
// equals title.
func (b *Bookmark) Find(title string) *Bookmark {
	var res *Bookmark
	b.Walk(func(item *Bookmark, _ int) error {
		if item.Title() == title {
			res = item
			return errFound
		}
		return nil
	})
	return res
}

// DestinationPage returns the index of the page which the bookmark leads
// to, or -1 if the bookmark does not lead to a page of this document.
func (b *Bookmark) DestinationPage() int {
	a, err := b.Target()
	if err != nil {
		return -1
	}
	goTo, ok := a.(*action.GoTo)
	if !ok {
		return -1
	}
	idx, err := destination.PageIndex(b.doc, goTo.Dest)
	if err != nil {
		return -1
	}
	return idx
}

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

// Package bookmark gives access to the document outline.
//
// The outline is a tree of bookmarks, stored in the /Outlines entry of
// the document catalog.  Each bookmark has a title and either a
// destination or an action.  A [Bookmark] is a view of an outline item
// dictionary: changes made through the view are immediately visible in
// the document.
package bookmark

import (
	"errors"
	"iter"
	"log/slog"

	"seehuhn.de/go/pdfsdk"
	"seehuhn.de/go/pdfsdk/action"
	"seehuhn.de/go/pdfsdk/destination"
)

// maxItems limits the number of items visited by a traversal.
const maxItems = 1 << 16

var (
	errRoot       = errors.New("operation not possible on the outline root")
	errDestAction = errors.New("bookmark has both destination and action")
	errTooLarge   = errors.New("outline too large")
	errFound      = errors.New("found")
)

// A Bookmark is a node of the outline tree.  The root node has no title
// and is not displayed.
type Bookmark struct {
	doc  *pdf.Document
	dict *pdf.Dict
}

// Root returns the root of the document outline, or nil if the document
// has no outline.
func Root(doc *pdf.Document) *Bookmark {
	dict := doc.Catalog().GetDict("Outlines")
	if dict == nil {
		return nil
	}
	return &Bookmark{doc: doc, dict: dict}
}

// CreateRoot returns the root of the document outline, creating an empty
// outline if necessary.
func CreateRoot(doc *pdf.Document) (*Bookmark, error) {
	if b := Root(doc); b != nil {
		return b, nil
	}
	dict := pdf.NewDict()
	dict.SetName("Type", "Outlines")
	num, err := doc.AddIndirectObject(dict.Object())
	if err != nil {
		return nil, err
	}
	doc.Catalog().SetRef("Outlines", num)
	return &Bookmark{doc: doc, dict: dict}, nil
}

func (b *Bookmark) wrap(dict *pdf.Dict) *Bookmark {
	if dict == nil {
		return nil
	}
	return &Bookmark{doc: b.doc, dict: dict}
}

// Dict returns the outline item dictionary.
func (b *Bookmark) Dict() *pdf.Dict {
	return b.dict
}

// IsRoot reports whether b is the root of the outline.
func (b *Bookmark) IsRoot() bool {
	return !b.dict.Has("Parent")
}

// Equal reports whether b and other are views of the same outline item.
func (b *Bookmark) Equal(other *Bookmark) bool {
	if b == nil || other == nil {
		return b == other
	}
	return b.dict == other.dict
}

// Title returns the text displayed for the bookmark.
func (b *Bookmark) Title() string {
	return b.dict.GetText("Title")
}

// SetTitle changes the text displayed for the bookmark.
func (b *Bookmark) SetTitle(title string) error {
	if b.IsRoot() {
		return errRoot
	}
	b.dict.SetText("Title", title)
	return nil
}

// Color is an RGB color with components in the range 0 to 1.
type Color [3]float64

// Color returns the color of the bookmark title.  The default is black.
func (b *Bookmark) Color() Color {
	var c Color
	arr := b.dict.GetArray("C")
	if arr.Len() != 3 {
		return c
	}
	for i := range c {
		c[i] = min(max(arr.GetDirect(i).Float(), 0), 1)
	}
	return c
}

// SetColor changes the color of the bookmark title.
func (b *Bookmark) SetColor(c Color) error {
	if b.IsRoot() {
		return errRoot
	}
	if c == (Color{}) {
		return b.dict.Remove("C")
	}
	return b.dict.SetAt("C", pdf.NewNumberArray(c[0], c[1], c[2]).Object())
}

// Style describes the font style of the bookmark title.
type Style int

// These are the bits of [Style].
const (
	StyleItalic Style = 1 << 0
	StyleBold   Style = 1 << 1
)

// Style returns the font style of the bookmark title.
func (b *Bookmark) Style() Style {
	return Style(b.dict.GetInteger("F")) & (StyleItalic | StyleBold)
}

// SetStyle changes the font style of the bookmark title.
func (b *Bookmark) SetStyle(s Style) error {
	if b.IsRoot() {
		return errRoot
	}
	if s == 0 {
		return b.dict.Remove("F")
	}
	b.dict.SetInteger("F", int64(s))
	return nil
}

// Destination returns the destination of the bookmark, or nil if the
// bookmark has no /Dest entry.
func (b *Bookmark) Destination() (destination.Destination, error) {
	d := b.dict.Get("Dest")
	if d == nil {
		return nil, nil
	}
	return destination.Decode(d)
}

// SetDestination sets the destination of the bookmark.  Any action is
// removed.
func (b *Bookmark) SetDestination(dest destination.Destination) error {
	if b.IsRoot() {
		return errRoot
	}
	if dest == nil {
		return b.dict.Remove("Dest")
	}
	obj, err := dest.Encode(b.doc)
	if err != nil {
		return err
	}
	b.dict.Remove("A")
	return b.dict.SetAt("Dest", obj)
}

// Action returns the action of the bookmark, or nil if the bookmark has no
// action.
func (b *Bookmark) Action() (action.Action, error) {
	a := b.dict.Get("A")
	if a == nil {
		return nil, nil
	}
	return action.Decode(a)
}

// SetAction sets the action of the bookmark.  Any destination is removed.
func (b *Bookmark) SetAction(a action.Action) error {
	if b.IsRoot() {
		return errRoot
	}
	if a == nil {
		return b.dict.Remove("A")
	}
	dict, err := a.Encode(b.doc)
	if err != nil {
		return err
	}
	b.dict.Remove("Dest")
	return b.dict.SetAt("A", dict.Object())
}

// Target returns the action which is performed when the bookmark is
// activated.  A destination is returned as a GoTo action.
func (b *Bookmark) Target() (action.Action, error) {
	if b.dict.Has("Dest") && b.dict.Has("A") {
		return nil, errDestAction
	}
	dest, err := b.Destination()
	if err != nil {
		return nil, err
	}
	if dest != nil {
		return &action.GoTo{Dest: dest}, nil
	}
	return b.Action()
}

// IsOpen reports whether the children of the bookmark are shown.
// The root is always open.
func (b *Bookmark) IsOpen() bool {
	return b.IsRoot() || b.dict.GetInteger("Count") > 0
}

// SetOpen opens or closes the bookmark.
func (b *Bookmark) SetOpen(open bool) {
	if b.IsRoot() || b.dict.GetInteger("Count") == 0 {
		return
	}
	count := b.dict.GetInteger("Count")
	if (count > 0) == open {
		return
	}
	b.dict.SetInteger("Count", -count)
	b.updateCounts(b.Parent())
}

// Parent returns the parent of the bookmark, or nil for the root.
func (b *Bookmark) Parent() *Bookmark {
	return b.wrap(b.dict.GetDict("Parent"))
}

// FirstChild returns the first child of the bookmark, or nil.
func (b *Bookmark) FirstChild() *Bookmark {
	return b.wrap(b.dict.GetDict("First"))
}

// LastChild returns the last child of the bookmark, or nil.
func (b *Bookmark) LastChild() *Bookmark {
	return b.wrap(b.dict.GetDict("Last"))
}

// NextSibling returns the next sibling of the bookmark, or nil.
func (b *Bookmark) NextSibling() *Bookmark {
	return b.wrap(b.dict.GetDict("Next"))
}

// PrevSibling returns the previous sibling of the bookmark, or nil.
func (b *Bookmark) PrevSibling() *Bookmark {
	return b.wrap(b.dict.GetDict("Prev"))
}

// Children iterates over the children of the bookmark.  A loop in the
// /Next chain ends the iteration.
func (b *Bookmark) Children() iter.Seq[*Bookmark] {
	return func(yield func(*Bookmark) bool) {
		seen := map[*pdf.Dict]bool{}
		for child := b.dict.GetDict("First"); child != nil; child = child.GetDict("Next") {
			if seen[child] || len(seen) >= maxItems {
				slog.Debug("outline loop", slog.Int("obj", int(child.Object().ObjNum())))
				return
			}
			seen[child] = true
			if !yield(b.wrap(child)) {
				return
			}
		}
	}
}

// Walk calls fn for every descendant of b in document order.  The depth
// of the children of b is 0.  Items which are reached a second time are
// skipped.
func (b *Bookmark) Walk(fn func(item *Bookmark, depth int) error) error {
	seen := map[*pdf.Dict]bool{b.dict: true}
	var walk func(node *Bookmark, depth int) error
	walk = func(node *Bookmark, depth int) error {
		for child := range node.Children() {
			if seen[child.dict] {
				continue
			}
			seen[child.dict] = true
			if len(seen) > maxItems {
				return errTooLarge
			}
			if err := fn(child, depth); err != nil {
				return err
			}
			if err := walk(child, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(b, 0)
}

// Pos describes where [Bookmark.Insert] places a new bookmark, relative to
// the receiver.
type Pos int

// These are the possible positions for a new bookmark.
const (
	FirstChild Pos = iota
	LastChild
	PrevSibling
	NextSibling
)

// Insert creates a new bookmark with the given title.  The new bookmark
// has no destination and is closed.
func (b *Bookmark) Insert(title string, pos Pos) (*Bookmark, error) {
	var parent, prev, next *pdf.Dict
	switch pos {
	case FirstChild:
		parent, next = b.dict, b.dict.GetDict("First")
	case LastChild:
		parent, prev = b.dict, b.dict.GetDict("Last")
	case PrevSibling, NextSibling:
		if b.IsRoot() {
			return nil, errRoot
		}
		parent = b.dict.GetDict("Parent")
		if pos == PrevSibling {
			prev, next = b.dict.GetDict("Prev"), b.dict
		} else {
			prev, next = b.dict, b.dict.GetDict("Next")
		}
	default:
		return nil, errors.New("invalid bookmark position")
	}

	dict := pdf.NewDict()
	dict.SetText("Title", title)
	num, err := b.doc.AddIndirectObject(dict.Object())
	if err != nil {
		return nil, err
	}
	dict.SetRef("Parent", parent.Object().ObjNum())

	if prev != nil {
		dict.SetRef("Prev", prev.Object().ObjNum())
		prev.SetRef("Next", num)
	} else {
		parent.SetRef("First", num)
	}
	if next != nil {
		dict.SetRef("Next", next.Object().ObjNum())
		next.SetRef("Prev", num)
	} else {
		parent.SetRef("Last", num)
	}

	res := b.wrap(dict)
	res.updateCounts(res.Parent())
	return res, nil
}

// Remove deletes the bookmark and all its descendants from the outline.
func (b *Bookmark) Remove() error {
	if b.IsRoot() {
		return errRoot
	}
	parent := b.Parent()
	prev, next := b.dict.GetDict("Prev"), b.dict.GetDict("Next")
	if prev != nil {
		prev.SetAt("Next", b.dict.Get("Next").Clone())
	} else {
		parent.dict.SetAt("First", b.dict.Get("Next").Clone())
	}
	if next != nil {
		next.SetAt("Prev", b.dict.Get("Prev").Clone())
	} else {
		parent.dict.SetAt("Last", b.dict.Get("Prev").Clone())
	}

	var nums []uint32
	b.Walk(func(item *Bookmark, _ int) error {
		nums = append(nums, item.dict.Object().ObjNum())
		return nil
	})
	nums = append(nums, b.dict.Object().ObjNum())
	for _, num := range nums {
		if num != 0 {
			b.doc.DeleteIndirectObject(num)
		}
	}

	parent.updateCounts(parent)
	return nil
}

// visible returns the number of descendants of b which are visible when b
// is open.
func (b *Bookmark) visible() int64 {
	var n int64
	for child := range b.Children() {
		n++
		if c := child.dict.GetInteger("Count"); c > 0 {
			n += c
		}
	}
	return n
}

// updateCounts recomputes the /Count entries of node and its ancestors.
func (b *Bookmark) updateCounts(node *Bookmark) {
	seen := map[*pdf.Dict]bool{}
	for ; node != nil && !seen[node.dict]; node = node.Parent() {
		seen[node.dict] = true
		n := node.visible()
		switch {
		case n == 0:
			node.dict.Remove("Count")
		case node.IsRoot() || node.dict.GetInteger("Count") > 0:
			node.dict.SetInteger("Count", n)
		default:
			node.dict.SetInteger("Count", -n)
		}
	}
}

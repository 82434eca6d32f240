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

// Package structure implements the logical structure tree of tagged PDF
// documents.
//
// The structure tree is rooted in the /StructTreeRoot entry of the
// document catalog.  Its nodes are structure elements ([Element]).  The
// leaves are marked-content sequences in page content streams
// ([MarkedContent]) and whole PDF objects such as annotations
// ([ObjectContent]).  The parent tree maps content back to the
// structure elements it belongs to, and is kept up to date when content
// is added through this package.
package structure

import (
	"errors"

	"seehuhn.de/go/pdfsdk"
	"seehuhn.de/go/pdfsdk/nametree"
	"seehuhn.de/go/pdfsdk/numtree"
)

// EntityType identifies the kind of a node in the structure tree.
type EntityType int

// These are the kinds of structure tree nodes.
const (
	EntityElement EntityType = iota
	EntityMarkedContent
	EntityObjectContent
)

func (t EntityType) String() string {
	switch t {
	case EntityElement:
		return "Element"
	case EntityMarkedContent:
		return "MarkedContent"
	case EntityObjectContent:
		return "ObjectContent"
	}
	return "EntityType(?)"
}

// Entity is a node of the structure tree: an [*Element], a
// [*MarkedContent] or an [*ObjectContent].
type Entity interface {
	EntityType() EntityType

	// Parent returns the structure element containing the node, or nil
	// if the node is a child of the structure tree root.
	Parent() *Element
}

var (
	errNoPage   = errors.New("no such page")
	errNotChild = errors.New("not a child of this element")
	errLoop     = errors.New("structure tree contains a loop")
)

// StructTree is the view of the structure tree root.
type StructTree struct {
	doc  *pdf.Document
	root *pdf.Dict
}

// Open returns the structure tree of doc, or nil if the document has no
// structure tree.
func Open(doc *pdf.Document) *StructTree {
	root := doc.Catalog().GetDict("StructTreeRoot")
	if root == nil {
		return nil
	}
	return &StructTree{doc: doc, root: root}
}

// Create returns the structure tree of doc, creating an empty tree if
// necessary.  The document is marked as tagged.
func Create(doc *pdf.Document) (*StructTree, error) {
	if t := Open(doc); t != nil {
		return t, nil
	}
	root := pdf.NewDict()
	root.SetName("Type", "StructTreeRoot")
	root.SetAt("K", pdf.NewArray().Object())
	num, err := doc.AddIndirectObject(root.Object())
	if err != nil {
		return nil, err
	}
	cat := doc.Catalog()
	cat.SetRef("StructTreeRoot", num)
	markInfo := cat.GetDict("MarkInfo")
	if markInfo == nil {
		markInfo = pdf.NewDict()
		cat.SetAt("MarkInfo", markInfo.Object())
	}
	markInfo.SetBool("Marked", true)
	return &StructTree{doc: doc, root: root}, nil
}

// Document returns the document the tree belongs to.
func (t *StructTree) Document() *pdf.Document {
	return t.doc
}

// Dict returns the structure tree root dictionary.
func (t *StructTree) Dict() *pdf.Dict {
	return t.root
}

// ChildCount returns the number of top-level structure elements.
func (t *StructTree) ChildCount() int {
	return len(kids(t.root))
}

// Child returns the i-th top-level structure element, or nil if the kid
// is not a structure element.
func (t *StructTree) Child(i int) *Element {
	k := kids(t.root)
	if i < 0 || i >= len(k) {
		return nil
	}
	return t.element(k[i].Direct().Dict())
}

// AddChild appends a new top-level structure element of the given type.
func (t *StructTree) AddChild(typ pdf.Name) (*Element, error) {
	return t.addElement(t.root, typ)
}

// RoleMap returns the role map, which maps custom structure types to
// standard structure types.
func (t *StructTree) RoleMap() map[pdf.Name]pdf.Name {
	res := make(map[pdf.Name]pdf.Name)
	for key, val := range t.root.GetDict("RoleMap").All() {
		if n := val.Direct().Name(); n != "" {
			res[key] = n
		}
	}
	return res
}

// SetRole maps the custom structure type custom to a standard type.
func (t *StructTree) SetRole(custom, standard pdf.Name) error {
	rm := t.root.GetDict("RoleMap")
	if rm == nil {
		rm = pdf.NewDict()
		if err := t.root.SetAt("RoleMap", rm.Object()); err != nil {
			return err
		}
	}
	rm.SetName(custom, standard)
	return nil
}

// StandardType returns the standard structure type for typ, following
// the role map.
func (t *StructTree) StandardType(typ pdf.Name) pdf.Name {
	rm := t.root.GetDict("RoleMap")
	seen := map[pdf.Name]bool{}
	for !seen[typ] {
		seen[typ] = true
		next := rm.GetName(typ)
		if next == "" {
			break
		}
		typ = next
	}
	return typ
}

// ParentTree returns the parent tree, creating it if necessary.
func (t *StructTree) ParentTree() (*numtree.Tree, error) {
	if pt := t.root.GetDict("ParentTree"); pt != nil {
		return numtree.New(t.doc, pt), nil
	}
	pt, err := numtree.Create(t.doc)
	if err != nil {
		return nil, err
	}
	if err := t.root.SetAt("ParentTree", pt.Dict().Object()); err != nil {
		return nil, err
	}
	return pt, nil
}

// nextKey allocates a new key in the parent tree.
func (t *StructTree) nextKey() (int64, error) {
	key := t.root.GetInteger("ParentTreeNextKey")
	if key == 0 {
		pt, err := t.ParentTree()
		if err != nil {
			return 0, err
		}
		for k := range pt.All() {
			key = max(key, k+1)
		}
	}
	t.root.SetInteger("ParentTreeNextKey", key+1)
	return key, nil
}

// idTree returns the tree which maps element IDs to elements.
func (t *StructTree) idTree(create bool) (*nametree.Tree, error) {
	if d := t.root.GetDict("IDTree"); d != nil {
		return nametree.New(t.doc, d), nil
	}
	if !create {
		return nil, nil
	}
	d := pdf.NewDict()
	d.SetAt("Names", pdf.NewArray().Object())
	if _, err := t.doc.AddIndirectObject(d.Object()); err != nil {
		return nil, err
	}
	if err := t.root.SetAt("IDTree", d.Object()); err != nil {
		return nil, err
	}
	return nametree.New(t.doc, d), nil
}

// FindByID returns the element with the given ID, or nil.
func (t *StructTree) FindByID(id string) *Element {
	tree, _ := t.idTree(false)
	if tree == nil {
		return nil
	}
	obj, err := tree.Lookup(id)
	if err != nil {
		return nil
	}
	return t.element(obj.Dict())
}

// ElementForMCID returns the structure element which contains the
// marked-content sequence with the given MCID on page pageIndex, or nil.
func (t *StructTree) ElementForMCID(pageIndex int, mcid int) *Element {
	page, err := t.doc.Page(pageIndex)
	if err != nil {
		return nil
	}
	key := page.Dict().GetDirect("StructParents")
	if !key.IsInteger() {
		return nil
	}
	pt, err := t.ParentTree()
	if err != nil {
		return nil
	}
	arr, err := pt.Get(key.Integer())
	if err != nil {
		return nil
	}
	return t.element(arr.Array().GetDirect(mcid).Dict())
}

// ElementForObject returns the structure element which contains the
// object obj, or nil.
func (t *StructTree) ElementForObject(obj *pdf.Dict) *Element {
	key := obj.GetDirect("StructParent")
	if !key.IsInteger() {
		return nil
	}
	pt, err := t.ParentTree()
	if err != nil {
		return nil
	}
	elem, err := pt.Get(key.Integer())
	if err != nil {
		return nil
	}
	return t.element(elem.Dict())
}

// Walk calls fn for every structure element in document order.
// Elements reached a second time end the walk with an error.
func (t *StructTree) Walk(fn func(e *Element, depth int) error) error {
	seen := map[*pdf.Dict]bool{}
	var walk func(parent *pdf.Dict, depth int) error
	walk = func(parent *pdf.Dict, depth int) error {
		for _, k := range kids(parent) {
			d := k.Direct().Dict()
			if d == nil || isReference(d) {
				continue
			}
			if seen[d] {
				return errLoop
			}
			seen[d] = true
			if err := fn(t.element(d), depth); err != nil {
				return err
			}
			if err := walk(d, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(t.root, 0)
}

func (t *StructTree) element(d *pdf.Dict) *Element {
	if d == nil || isReference(d) || d == t.root {
		return nil
	}
	return &Element{tree: t, dict: d}
}

func (t *StructTree) addElement(parent *pdf.Dict, typ pdf.Name) (*Element, error) {
	d := pdf.NewDict()
	d.SetName("Type", "StructElem")
	d.SetName("S", typ)
	num, err := t.doc.AddIndirectObject(d.Object())
	if err != nil {
		return nil, err
	}
	d.SetRef("P", parent.Object().ObjNum())
	if err := appendKid(parent, pdf.NewReference(t.doc, num)); err != nil {
		return nil, err
	}
	return &Element{tree: t, dict: d}, nil
}

// kids returns the entries of the /K entry of a structure node, which can
// be a single kid or an array of kids.
func kids(d *pdf.Dict) []*pdf.Object {
	k := d.Get("K")
	if arr := k.Direct().Array(); arr != nil {
		res := make([]*pdf.Object, 0, arr.Len())
		for _, kid := range arr.All() {
			res = append(res, kid)
		}
		return res
	}
	if k == nil || k.Direct() == nil {
		return nil
	}
	return []*pdf.Object{k}
}

// appendKid adds a kid to a structure node, converting a single kid into
// an array if necessary.
func appendKid(d *pdf.Dict, kid *pdf.Object) error {
	k := d.Get("K")
	arr := k.Direct().Array()
	if arr == nil {
		arr = pdf.NewArray()
		if k != nil && k.Direct() != nil {
			if err := arr.Add(k.Clone()); err != nil {
				return err
			}
		}
		if err := d.SetAt("K", arr.Object()); err != nil {
			return err
		}
	}
	return arr.Add(kid)
}

// isReference reports whether a kid dictionary is a marked-content
// reference or an object reference, rather than a structure element.
func isReference(d *pdf.Dict) bool {
	switch d.GetName("Type") {
	case "MCR", "OBJR":
		return true
	}
	return false
}

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

// Package action implements PDF actions.
//
// Actions are stored as dictionaries with an /S entry giving the action
// type.  Each action can be followed by a sequence of further actions,
// given in the /Next entry.  Use [Decode] to read an action and
// [Perform] to carry it out.
package action

import (
	"errors"
	"fmt"
	"log/slog"

	"seehuhn.de/go/pdfsdk"
)

// Type is the action type, as given by the /S entry.
type Type pdf.Name

// These are the action types supported by this package.
const (
	TypeGoTo       Type = "GoTo"
	TypeGoToR      Type = "GoToR"
	TypeGoToE      Type = "GoToE"
	TypeLaunch     Type = "Launch"
	TypeURI        Type = "URI"
	TypeHide       Type = "Hide"
	TypeNamed      Type = "Named"
	TypeSubmitForm Type = "SubmitForm"
	TypeResetForm  Type = "ResetForm"
	TypeImportData Type = "ImportData"
	TypeRendition  Type = "Rendition"
	TypeJavaScript Type = "JavaScript"
)

// Action is one of the action types of this package:
// [*GoTo], [*GoToR], [*GoToE], [*Launch], [*URI], [*Hide], [*Named],
// [*SubmitForm], [*ResetForm], [*ImportData], [*Rendition], [*JavaScript]
// or [*Unknown].
type Action interface {
	ActionType() Type

	// Encode converts the action into a new, unattached action
	// dictionary.  Actions listed in the Next field are included.
	Encode(doc *pdf.Document) (*pdf.Dict, error)

	next() ActionList
	setNext(ActionList)
}

// NewWindowMode specifies how a target document should be displayed.
type NewWindowMode uint8

const (
	// NewWindowDefault indicates the viewer should use its preference.
	NewWindowDefault NewWindowMode = iota
	// NewWindowReplace indicates the target should replace the current window.
	NewWindowReplace
	// NewWindowNew indicates the target should open in a new window.
	NewWindowNew
)

var (
	errMalformed = errors.New("malformed action")
	errCycle     = errors.New("action list contains a cycle")
)

// base holds the Next entry shared by all actions.
type base struct {
	// Next is the sequence of actions to perform after this action.
	Next ActionList
}

func (b *base) next() ActionList        { return b.Next }
func (b *base) setNext(next ActionList) { b.Next = next }

// ActionList is a sequence of actions to be performed in order.
type ActionList []Action

// encode converts the list for use as a /Next entry.  The result is nil
// for an empty list, a dictionary for a single action, and an array
// otherwise.
func (al ActionList) encode(doc *pdf.Document, active map[Action]bool) (*pdf.Object, error) {
	if len(al) == 0 {
		return nil, nil
	}
	var dicts []*pdf.Dict
	for _, a := range al {
		d, err := encodeAction(doc, a, active)
		if err != nil {
			return nil, err
		}
		dicts = append(dicts, d)
	}
	if len(dicts) == 1 {
		return dicts[0].Object(), nil
	}
	arr := pdf.NewArray()
	for _, d := range dicts {
		if err := arr.Add(d.Object()); err != nil {
			return nil, err
		}
	}
	return arr.Object(), nil
}

// encodeAction encodes a, including its Next list.  Actions which are
// reached again while encoding their own Next list give an error.
func encodeAction(doc *pdf.Document, a Action, active map[Action]bool) (*pdf.Dict, error) {
	if active[a] {
		return nil, errCycle
	}
	active[a] = true
	defer delete(active, a)

	var dict *pdf.Dict
	var err error
	switch a := a.(type) {
	case *GoTo:
		dict, err = a.encode(doc)
	case *GoToR:
		dict, err = a.encode(doc)
	case *GoToE:
		dict, err = a.encode(doc)
	case *Launch:
		dict, err = a.encode()
	case *URI:
		dict, err = a.encode()
	case *Hide:
		dict, err = a.encode()
	case *Named:
		dict, err = a.encode()
	case *SubmitForm:
		dict, err = a.encode()
	case *ResetForm:
		dict, err = a.encode()
	case *ImportData:
		dict, err = a.encode()
	case *Rendition:
		dict, err = a.encode()
	case *JavaScript:
		dict, err = a.encode()
	case *Unknown:
		dict, err = a.encode()
	default:
		return nil, fmt.Errorf("unsupported action %T", a)
	}
	if err != nil {
		return nil, err
	}

	next, err := a.next().encode(doc, active)
	if err != nil {
		return nil, err
	}
	if next != nil {
		if doc != nil && doc.Version() < pdf.V1_2 {
			return nil, errors.New("action /Next entry requires PDF 1.2")
		}
		if err := dict.SetAt("Next", next); err != nil {
			return nil, err
		}
	}
	return dict, nil
}

func newActionDict(tp Type) *pdf.Dict {
	dict := pdf.NewDict()
	dict.SetName("Type", "Action")
	dict.SetName("S", pdf.Name(tp))
	return dict
}

// Decode reads an action dictionary, including the actions in its /Next
// entry.  An action which is reached a second time while following the
// /Next entries is not repeated.
func Decode(obj *pdf.Object) (Action, error) {
	return decode(obj, make(map[*pdf.Object]bool))
}

// DecodeList reads an action list, given either as a single action
// dictionary or as an array of action dictionaries.
func DecodeList(obj *pdf.Object) (ActionList, error) {
	return decodeList(obj, make(map[*pdf.Object]bool))
}

func decode(obj *pdf.Object, seen map[*pdf.Object]bool) (Action, error) {
	obj = obj.Direct()
	dict := obj.Dict()
	if dict == nil {
		return nil, errMalformed
	}
	seen[obj] = true

	var a Action
	var err error
	switch tp := Type(dict.GetName("S")); tp {
	case TypeGoTo:
		a, err = decodeGoTo(dict)
	case TypeGoToR:
		a, err = decodeGoToR(dict)
	case TypeGoToE:
		a, err = decodeGoToE(dict)
	case TypeLaunch:
		a = &Launch{File: fileName(dict.GetDirect("F")), NewWindow: newWindow(dict)}
	case TypeURI:
		a, err = decodeURI(dict)
	case TypeHide:
		a = decodeHide(dict)
	case TypeNamed:
		a = &Named{Name: dict.GetName("N")}
	case TypeSubmitForm:
		a = decodeSubmitForm(dict)
	case TypeResetForm:
		a = &ResetForm{Fields: fieldNames(dict.GetArray("Fields")), Flags: uint32(dict.GetInteger("Flags"))}
	case TypeImportData:
		a = &ImportData{File: fileName(dict.GetDirect("F"))}
	case TypeRendition:
		a = decodeRendition(dict)
	case TypeJavaScript:
		a, err = decodeJavaScript(dict)
	case "":
		return nil, errMalformed
	default:
		a = &Unknown{Subtype: tp, Dict: dict.Object().Clone().Dict()}
	}
	if err != nil {
		return nil, err
	}

	next, err := decodeList(dict.Get("Next"), seen)
	if err != nil {
		return nil, err
	}
	a.setNext(next)
	return a, nil
}

func decodeList(obj *pdf.Object, seen map[*pdf.Object]bool) (ActionList, error) {
	obj = obj.Direct()
	var items []*pdf.Object
	switch obj.Type() {
	case pdf.TypeDictionary:
		items = append(items, obj)
	case pdf.TypeArray:
		for _, item := range obj.Array().All() {
			items = append(items, item.Direct())
		}
	default:
		return nil, nil
	}

	var res ActionList
	for _, item := range items {
		if seen[item] {
			slog.Debug("action loop detected", slog.Int("obj", int(item.ObjNum())))
			continue
		}
		a, err := decode(item, seen)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, nil
}

// Unknown represents an action type which is not supported by this
// package.  The action dictionary is kept as a copy.
type Unknown struct {
	Subtype Type
	Dict    *pdf.Dict
	base
}

// ActionType implements the [Action] interface.
func (a *Unknown) ActionType() Type { return a.Subtype }

// Encode implements the [Action] interface.
func (a *Unknown) Encode(doc *pdf.Document) (*pdf.Dict, error) {
	return encodeAction(doc, a, map[Action]bool{})
}

func (a *Unknown) encode() (*pdf.Dict, error) {
	if a.Subtype == "" {
		return nil, errMalformed
	}
	dict := pdf.NewDict()
	if a.Dict != nil {
		dict = a.Dict.Object().Clone().Dict()
	}
	dict.Remove("Next")
	dict.SetName("S", pdf.Name(a.Subtype))
	return dict, nil
}

func newWindow(dict *pdf.Dict) NewWindowMode {
	nw := dict.GetDirect("NewWindow")
	if nw.Type() != pdf.TypeBoolean {
		return NewWindowDefault
	}
	if nw.Bool() {
		return NewWindowNew
	}
	return NewWindowReplace
}

func setNewWindow(dict *pdf.Dict, mode NewWindowMode) {
	if mode != NewWindowDefault {
		dict.SetBool("NewWindow", mode == NewWindowNew)
	}
}

// fileName extracts the file name from a file specification, which can
// be a string or a file specification dictionary.
func fileName(spec *pdf.Object) string {
	switch spec.Type() {
	case pdf.TypeString:
		return spec.Text()
	case pdf.TypeDictionary:
		d := spec.Dict()
		if uf := d.GetText("UF"); uf != "" {
			return uf
		}
		return d.GetText("F")
	}
	return ""
}

func fieldNames(arr *pdf.Array) []string {
	var res []string
	for _, f := range arr.All() {
		f = f.Direct()
		switch f.Type() {
		case pdf.TypeString:
			res = append(res, f.Text())
		case pdf.TypeDictionary:
			res = append(res, f.Dict().GetText("T"))
		}
	}
	return res
}

func newStringArray(items []string) *pdf.Array {
	arr := pdf.NewArray()
	for _, s := range items {
		arr.Add(pdf.NewTextString(s))
	}
	return arr
}

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

package action

import (
	"errors"

	"seehuhn.de/go/pdfsdk"
)

// URI resolves a uniform resource identifier.
type URI struct {
	URI string

	// IsMap indicates that the mouse position is appended to the URI
	// when the link is activated.
	IsMap bool

	base
}

// ActionType implements the [Action] interface.
func (a *URI) ActionType() Type { return TypeURI }

// Encode implements the [Action] interface.
func (a *URI) Encode(doc *pdf.Document) (*pdf.Dict, error) {
	return encodeAction(doc, a, map[Action]bool{})
}

func (a *URI) encode() (*pdf.Dict, error) {
	if a.URI == "" {
		return nil, errors.New("URI action must have a non-empty URI")
	}
	dict := newActionDict(TypeURI)
	// URIs are ASCII strings, not text strings
	dict.SetAt("URI", pdf.NewString([]byte(a.URI)))
	if a.IsMap {
		dict.SetBool("IsMap", true)
	}
	return dict, nil
}

func decodeURI(dict *pdf.Dict) (*URI, error) {
	uri := dict.GetDirect("URI").Bytes()
	if len(uri) == 0 {
		return nil, errMalformed
	}
	return &URI{URI: string(uri), IsMap: dict.GetDirect("IsMap").Bool()}, nil
}

// Launch launches an application or opens a document.
type Launch struct {
	File      string
	NewWindow NewWindowMode
	base
}

// ActionType implements the [Action] interface.
func (a *Launch) ActionType() Type { return TypeLaunch }

// Encode implements the [Action] interface.
func (a *Launch) Encode(doc *pdf.Document) (*pdf.Dict, error) {
	return encodeAction(doc, a, map[Action]bool{})
}

func (a *Launch) encode() (*pdf.Dict, error) {
	dict := newActionDict(TypeLaunch)
	if a.File != "" {
		dict.SetText("F", a.File)
	}
	setNewWindow(dict, a.NewWindow)
	return dict, nil
}

// These are the named actions which conforming readers support.
const (
	NextPage  pdf.Name = "NextPage"
	PrevPage  pdf.Name = "PrevPage"
	FirstPage pdf.Name = "FirstPage"
	LastPage  pdf.Name = "LastPage"
)

// Named executes a predefined action of the viewer.
type Named struct {
	Name pdf.Name
	base
}

// ActionType implements the [Action] interface.
func (a *Named) ActionType() Type { return TypeNamed }

// Encode implements the [Action] interface.
func (a *Named) Encode(doc *pdf.Document) (*pdf.Dict, error) {
	return encodeAction(doc, a, map[Action]bool{})
}

func (a *Named) encode() (*pdf.Dict, error) {
	if a.Name == "" {
		return nil, errors.New("Named action without name")
	}
	dict := newActionDict(TypeNamed)
	dict.SetName("N", a.Name)
	return dict, nil
}

// JavaScript executes a script.
type JavaScript struct {
	Script string
	base
}

// ActionType implements the [Action] interface.
func (a *JavaScript) ActionType() Type { return TypeJavaScript }

// Encode implements the [Action] interface.
func (a *JavaScript) Encode(doc *pdf.Document) (*pdf.Dict, error) {
	return encodeAction(doc, a, map[Action]bool{})
}

func (a *JavaScript) encode() (*pdf.Dict, error) {
	dict := newActionDict(TypeJavaScript)
	dict.SetText("JS", a.Script)
	return dict, nil
}

func decodeJavaScript(dict *pdf.Dict) (*JavaScript, error) {
	js, err := Script(dict.GetDirect("JS"))
	if err != nil {
		return nil, err
	}
	return &JavaScript{Script: js}, nil
}

// Script returns the text of a script given either as a text string or
// as a stream.
func Script(obj *pdf.Object) (string, error) {
	obj = obj.Direct()
	switch obj.Type() {
	case pdf.TypeString:
		return obj.Text(), nil
	case pdf.TypeStream:
		data, err := obj.Stream().Data(false)
		if err != nil {
			return "", err
		}
		return pdf.AsTextString(data), nil
	}
	return "", errMalformed
}

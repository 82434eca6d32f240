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

// Hide shows or hides annotations.
type Hide struct {
	// Annotations lists annotation dictionaries to hide or show.
	Annotations []*pdf.Dict

	// Fields lists the fully qualified names of form fields to hide or show.
	Fields []string

	// Show reverses the action, so that the targets are shown.
	Show bool

	base
}

// ActionType implements the [Action] interface.
func (a *Hide) ActionType() Type { return TypeHide }

// Encode implements the [Action] interface.
func (a *Hide) Encode(doc *pdf.Document) (*pdf.Dict, error) {
	return encodeAction(doc, a, map[Action]bool{})
}

func (a *Hide) encode() (*pdf.Dict, error) {
	targets := pdf.NewArray()
	for _, annot := range a.Annotations {
		if !annot.Object().IsIndirect() {
			return nil, errors.New("Hide action targets must be indirect annotations")
		}
		if err := targets.Add(annot.Object()); err != nil {
			return nil, err
		}
	}
	for _, f := range a.Fields {
		targets.Add(pdf.NewTextString(f))
	}

	dict := newActionDict(TypeHide)
	switch targets.Len() {
	case 0:
		return nil, errors.New("Hide action without targets")
	case 1:
		dict.SetAt("T", targets.Get(0).Clone())
	default:
		dict.SetAt("T", targets.Object())
	}
	if a.Show {
		dict.SetBool("H", false)
	}
	return dict, nil
}

func decodeHide(dict *pdf.Dict) *Hide {
	a := &Hide{}
	add := func(t *pdf.Object) {
		t = t.Direct()
		switch t.Type() {
		case pdf.TypeDictionary:
			a.Annotations = append(a.Annotations, t.Dict())
		case pdf.TypeString:
			a.Fields = append(a.Fields, t.Text())
		}
	}
	t := dict.GetDirect("T")
	if arr := t.Array(); arr != nil {
		for _, elem := range arr.All() {
			add(elem)
		}
	} else {
		add(dict.Get("T"))
	}
	h := dict.GetDirect("H")
	a.Show = h.Type() == pdf.TypeBoolean && !h.Bool()
	return a
}

// Flags for [SubmitForm] and [ResetForm].
const (
	FlagExclude         uint32 = 1 << 0
	FlagIncludeNoValue  uint32 = 1 << 1
	FlagExportFormat    uint32 = 1 << 2
	FlagGetMethod       uint32 = 1 << 3
	FlagSubmitCoords    uint32 = 1 << 4
	FlagXFDF            uint32 = 1 << 5
	FlagIncludeAppendix uint32 = 1 << 6
	FlagIncludeAnnots   uint32 = 1 << 7
	FlagSubmitPDF       uint32 = 1 << 8
)

// SubmitForm sends form data to a URL.
type SubmitForm struct {
	URL    string
	Fields []string
	Flags  uint32
	base
}

// ActionType implements the [Action] interface.
func (a *SubmitForm) ActionType() Type { return TypeSubmitForm }

// Encode implements the [Action] interface.
func (a *SubmitForm) Encode(doc *pdf.Document) (*pdf.Dict, error) {
	return encodeAction(doc, a, map[Action]bool{})
}

func (a *SubmitForm) encode() (*pdf.Dict, error) {
	if a.URL == "" {
		return nil, errors.New("SubmitForm action without URL")
	}
	dict := newActionDict(TypeSubmitForm)
	spec := pdf.NewDict()
	spec.SetName("FS", "URL")
	spec.SetAt("F", pdf.NewString([]byte(a.URL)))
	dict.SetAt("F", spec.Object())
	if len(a.Fields) > 0 {
		dict.SetAt("Fields", newStringArray(a.Fields).Object())
	}
	if a.Flags != 0 {
		dict.SetInteger("Flags", int64(a.Flags))
	}
	return dict, nil
}

func decodeSubmitForm(dict *pdf.Dict) *SubmitForm {
	var url string
	switch f := dict.GetDirect("F"); f.Type() {
	case pdf.TypeDictionary:
		url = string(f.Dict().GetDirect("F").Bytes())
	case pdf.TypeString:
		url = string(f.Bytes())
	}
	return &SubmitForm{
		URL:    url,
		Fields: fieldNames(dict.GetArray("Fields")),
		Flags:  uint32(dict.GetInteger("Flags")),
	}
}

// ResetForm resets form fields to their default values.
type ResetForm struct {
	Fields []string
	Flags  uint32
	base
}

// ActionType implements the [Action] interface.
func (a *ResetForm) ActionType() Type { return TypeResetForm }

// Encode implements the [Action] interface.
func (a *ResetForm) Encode(doc *pdf.Document) (*pdf.Dict, error) {
	return encodeAction(doc, a, map[Action]bool{})
}

func (a *ResetForm) encode() (*pdf.Dict, error) {
	dict := newActionDict(TypeResetForm)
	if len(a.Fields) > 0 {
		dict.SetAt("Fields", newStringArray(a.Fields).Object())
	}
	if a.Flags != 0 {
		dict.SetInteger("Flags", int64(a.Flags))
	}
	return dict, nil
}

// ImportData imports field values from a file.
type ImportData struct {
	File string
	base
}

// ActionType implements the [Action] interface.
func (a *ImportData) ActionType() Type { return TypeImportData }

// Encode implements the [Action] interface.
func (a *ImportData) Encode(doc *pdf.Document) (*pdf.Dict, error) {
	return encodeAction(doc, a, map[Action]bool{})
}

func (a *ImportData) encode() (*pdf.Dict, error) {
	if a.File == "" {
		return nil, errors.New("ImportData action without file")
	}
	dict := newActionDict(TypeImportData)
	dict.SetText("F", a.File)
	return dict, nil
}

// RenditionOp is the operation of a [Rendition] action.
type RenditionOp int

// These are the rendition operations.
const (
	RenditionPlay RenditionOp = iota
	RenditionStop
	RenditionPause
	RenditionResume
	RenditionPlayAfterStop
)

// Rendition controls the playing of multimedia content.  Playing the
// media is left to the host application.
type Rendition struct {
	Op RenditionOp

	// Screen is the screen annotation which the operation applies to.
	Screen *pdf.Dict

	// Script is run instead of Op, if it is non-empty.
	Script string

	base
}

// ActionType implements the [Action] interface.
func (a *Rendition) ActionType() Type { return TypeRendition }

// Encode implements the [Action] interface.
func (a *Rendition) Encode(doc *pdf.Document) (*pdf.Dict, error) {
	return encodeAction(doc, a, map[Action]bool{})
}

func (a *Rendition) encode() (*pdf.Dict, error) {
	dict := newActionDict(TypeRendition)
	if a.Script != "" {
		dict.SetText("JS", a.Script)
	} else {
		dict.SetInteger("OP", int64(a.Op))
	}
	if a.Screen != nil {
		if !a.Screen.Object().IsIndirect() {
			return nil, errors.New("Rendition screen annotation must be indirect")
		}
		if err := dict.SetAt("AN", a.Screen.Object()); err != nil {
			return nil, err
		}
	}
	return dict, nil
}

func decodeRendition(dict *pdf.Dict) *Rendition {
	a := &Rendition{
		Op:     RenditionOp(dict.GetInteger("OP")),
		Screen: dict.GetDict("AN"),
	}
	a.Script, _ = Script(dict.GetDirect("JS"))
	return a
}

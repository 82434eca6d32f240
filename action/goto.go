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
	"seehuhn.de/go/pdfsdk/destination"
)

// GoTo changes the view to a destination in the current document.
type GoTo struct {
	Dest destination.Destination
	base
}

// ActionType implements the [Action] interface.
func (a *GoTo) ActionType() Type { return TypeGoTo }

// Encode implements the [Action] interface.
func (a *GoTo) Encode(doc *pdf.Document) (*pdf.Dict, error) {
	return encodeAction(doc, a, map[Action]bool{})
}

func (a *GoTo) encode(doc *pdf.Document) (*pdf.Dict, error) {
	if a.Dest == nil {
		return nil, errors.New("GoTo action without destination")
	}
	d, err := a.Dest.Encode(doc)
	if err != nil {
		return nil, err
	}
	dict := newActionDict(TypeGoTo)
	if err := dict.SetAt("D", d); err != nil {
		return nil, err
	}
	return dict, nil
}

func decodeGoTo(dict *pdf.Dict) (*GoTo, error) {
	dest, err := destination.Decode(dict.Get("D"))
	if err != nil {
		return nil, err
	}
	return &GoTo{Dest: dest}, nil
}

// GoToR changes the view to a destination in another PDF file.  For
// explicit destinations, the page is given as an integer page number.
type GoToR struct {
	File      string
	Dest      destination.Destination
	NewWindow NewWindowMode
	base
}

// ActionType implements the [Action] interface.
func (a *GoToR) ActionType() Type { return TypeGoToR }

// Encode implements the [Action] interface.
func (a *GoToR) Encode(doc *pdf.Document) (*pdf.Dict, error) {
	return encodeAction(doc, a, map[Action]bool{})
}

func (a *GoToR) encode(doc *pdf.Document) (*pdf.Dict, error) {
	if a.File == "" || a.Dest == nil {
		return nil, errors.New("GoToR action needs a file and a destination")
	}
	d, err := a.Dest.Encode(doc)
	if err != nil {
		return nil, err
	}
	dict := newActionDict(TypeGoToR)
	dict.SetText("F", a.File)
	if err := dict.SetAt("D", d); err != nil {
		return nil, err
	}
	setNewWindow(dict, a.NewWindow)
	return dict, nil
}

func decodeGoToR(dict *pdf.Dict) (*GoToR, error) {
	file := fileName(dict.GetDirect("F"))
	if file == "" {
		return nil, errMalformed
	}
	dest, err := destination.Decode(dict.Get("D"))
	if err != nil {
		return nil, err
	}
	return &GoToR{File: file, Dest: dest, NewWindow: newWindow(dict)}, nil
}

// GoToE changes the view to a destination in an embedded file.  If File
// is empty, the target is found by following Target from the current
// document.
type GoToE struct {
	File      string
	Dest      destination.Destination
	Target    *Target
	NewWindow NewWindowMode
	base
}

// Target is one step in the path from a document to an embedded file.
type Target struct {
	// Parent selects the parent document instead of a child.
	Parent bool

	// Name is the name of the child in the EmbeddedFiles name tree.
	Name string

	Next *Target
}

// ActionType implements the [Action] interface.
func (a *GoToE) ActionType() Type { return TypeGoToE }

// Encode implements the [Action] interface.
func (a *GoToE) Encode(doc *pdf.Document) (*pdf.Dict, error) {
	return encodeAction(doc, a, map[Action]bool{})
}

func (a *GoToE) encode(doc *pdf.Document) (*pdf.Dict, error) {
	if a.Dest == nil {
		return nil, errors.New("GoToE action without destination")
	}
	if a.File == "" && a.Target == nil {
		return nil, errors.New("GoToE action needs a file or a target")
	}
	if doc != nil && doc.Version() < pdf.V1_6 {
		return nil, errors.New("GoToE actions require PDF 1.6")
	}

	d, err := a.Dest.Encode(doc)
	if err != nil {
		return nil, err
	}
	dict := newActionDict(TypeGoToE)
	if a.File != "" {
		dict.SetText("F", a.File)
	}
	if err := dict.SetAt("D", d); err != nil {
		return nil, err
	}
	setNewWindow(dict, a.NewWindow)

	if a.Target != nil {
		t, err := a.Target.encode()
		if err != nil {
			return nil, err
		}
		dict.SetAt("T", t.Object())
	}
	return dict, nil
}

func (t *Target) encode() (*pdf.Dict, error) {
	seen := map[*Target]bool{}
	var first, prev *pdf.Dict
	for ; t != nil; t = t.Next {
		if seen[t] {
			return nil, errCycle
		}
		seen[t] = true

		d := pdf.NewDict()
		if t.Parent {
			d.SetName("R", "P")
		} else {
			d.SetName("R", "C")
			d.SetText("N", t.Name)
		}
		if prev == nil {
			first = d
		} else {
			prev.SetAt("T", d.Object())
		}
		prev = d
	}
	return first, nil
}

func decodeGoToE(dict *pdf.Dict) (*GoToE, error) {
	dest, err := destination.Decode(dict.Get("D"))
	if err != nil {
		return nil, err
	}
	a := &GoToE{
		File:      fileName(dict.GetDirect("F")),
		Dest:      dest,
		NewWindow: newWindow(dict),
	}

	seen := map[*pdf.Dict]bool{}
	last := &a.Target
	for t := dict.GetDict("T"); t != nil && !seen[t]; t = t.GetDict("T") {
		seen[t] = true
		step := &Target{Parent: t.GetName("R") == "P", Name: t.GetText("N")}
		*last = step
		last = &step.Next
	}
	return a, nil
}

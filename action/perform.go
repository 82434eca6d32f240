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
	"seehuhn.de/go/pdfsdk"
	"seehuhn.de/go/pdfsdk/destination"
)

// ActionCallback is implemented by host applications which display or
// otherwise interact with a document.  [Perform] calls the methods of the
// callback for all actions which cannot be carried out on the document
// itself.
type ActionCallback interface {
	// JumpToPage moves the view to the given page of the current
	// document.  dest is the resolved, explicit destination.
	JumpToPage(page int, dest destination.Destination) error

	// OpenFile opens another file.  dest is nil for Launch actions.
	OpenFile(file string, dest destination.Destination, mode NewWindowMode) error

	OpenURI(uri string) error

	ExecuteNamed(name pdf.Name) error

	RunJavaScript(script string) error

	// Other is called for all remaining action types.
	Other(a Action) error
}

// Perform carries out the action a followed by the actions in its Next
// list, depth first.  An action which occurs more than once in the tree
// of Next lists is only performed the first time.
//
// Hide actions on annotation dictionaries are carried out by changing the
// annotation flags of the document.  All other actions are passed to the
// callback.
func Perform(doc *pdf.Document, a Action, cb ActionCallback) error {
	return perform(doc, a, cb, make(map[Action]bool))
}

func perform(doc *pdf.Document, a Action, cb ActionCallback, done map[Action]bool) error {
	if a == nil || done[a] {
		return nil
	}
	done[a] = true

	var err error
	switch a := a.(type) {
	case *GoTo:
		var dest destination.Destination
		dest, err = destination.Resolve(doc, a.Dest)
		if err != nil {
			return err
		}
		var page int
		page, err = destination.PageIndex(doc, dest)
		if err != nil {
			return err
		}
		err = cb.JumpToPage(page, dest)
	case *GoToR:
		err = cb.OpenFile(a.File, a.Dest, a.NewWindow)
	case *GoToE:
		err = cb.OpenFile(a.File, a.Dest, a.NewWindow)
	case *Launch:
		err = cb.OpenFile(a.File, nil, a.NewWindow)
	case *URI:
		err = cb.OpenURI(a.URI)
	case *Named:
		err = cb.ExecuteNamed(a.Name)
	case *JavaScript:
		err = cb.RunJavaScript(a.Script)
	case *Hide:
		for _, annot := range a.Annotations {
			setHidden(annot, !a.Show)
		}
		if len(a.Fields) > 0 {
			err = cb.Other(a)
		}
	default:
		err = cb.Other(a)
	}
	if err != nil {
		return err
	}

	for _, next := range a.next() {
		if err := perform(doc, next, cb, done); err != nil {
			return err
		}
	}
	return nil
}

// annotFlagHidden is bit 2 of the annotation flags.
const annotFlagHidden = 1 << 1

func setHidden(annot *pdf.Dict, hidden bool) {
	flags := annot.GetInteger("F")
	if hidden {
		flags |= annotFlagHidden
	} else {
		flags &^= annotFlagHidden
	}
	annot.SetInteger("F", flags)
}

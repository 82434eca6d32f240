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
	"slices"

	"golang.org/x/exp/maps"
	"seehuhn.de/go/pdfsdk"
	"seehuhn.de/go/pdfsdk/destination"
)

// Trigger events of page objects.
const (
	PageOpen  pdf.Name = "O"
	PageClose pdf.Name = "C"
)

// Trigger events of the document catalog.
const (
	DocWillClose pdf.Name = "WC"
	DocWillSave  pdf.Name = "WS"
	DocDidSave   pdf.Name = "DS"
	DocWillPrint pdf.Name = "WP"
	DocDidPrint  pdf.Name = "DP"
)

// Triggers reads the additional-actions dictionary (/AA) of a page,
// an annotation or the document catalog.  Malformed entries are skipped.
func Triggers(dict *pdf.Dict) map[pdf.Name]Action {
	aa := dict.GetDict("AA")
	if aa == nil {
		return nil
	}
	res := make(map[pdf.Name]Action)
	for event, val := range aa.All() {
		a, err := Decode(val)
		if err != nil {
			continue
		}
		res[event] = a
	}
	return res
}

// SetTriggers replaces the additional-actions dictionary of dict.
// Events are written in sorted order.
func SetTriggers(doc *pdf.Document, dict *pdf.Dict, triggers map[pdf.Name]Action) error {
	if len(triggers) == 0 {
		return dict.Remove("AA")
	}
	aa := pdf.NewDict()
	events := maps.Keys(triggers)
	slices.Sort(events)
	for _, event := range events {
		a, err := triggers[event].Encode(doc)
		if err != nil {
			return err
		}
		if err := aa.SetAt(event, a.Object()); err != nil {
			return err
		}
	}
	return dict.SetAt("AA", aa.Object())
}

// OpenAction reads the /OpenAction entry of the document catalog.  The
// entry is either a destination, which is returned as a GoTo action, or
// an action.  The result is nil if the document has no open action.
func OpenAction(doc *pdf.Document) (Action, error) {
	val := doc.Catalog().GetDirect("OpenAction")
	switch val.Type() {
	case pdf.TypeArray:
		dest, err := destination.Decode(val)
		if err != nil {
			return nil, err
		}
		return &GoTo{Dest: dest}, nil
	case pdf.TypeDictionary:
		return Decode(val)
	}
	return nil, nil
}

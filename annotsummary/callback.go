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

package annotsummary

import (
	"time"

	"seehuhn.de/go/pdfsdk"
)

// TextID identifies a label used in a summary.
type TextID int

// These are the labels used in a summary.
const (
	TextHeading TextID = iota
	TextPage
	TextSubject
)

// AnnotationSummaryCallback provides the localized strings used in a
// summary.
type AnnotationSummaryCallback interface {
	// Text returns the label with the given ID.
	Text(id TextID) string

	// TypeName returns the name shown for an annotation subtype.
	TypeName(subtype pdf.Name) string

	// FormatDate formats the modification date of an annotation.
	FormatDate(t time.Time) string
}

// English is an [AnnotationSummaryCallback] which provides English
// labels.
type English struct{}

// Text implements the [AnnotationSummaryCallback] interface.
func (English) Text(id TextID) string {
	switch id {
	case TextHeading:
		return "Summary of Comments"
	case TextPage:
		return "Page"
	case TextSubject:
		return "Subject"
	}
	return ""
}

var englishTypes = map[pdf.Name]string{
	"Text":           "Note",
	"FreeText":       "Text Box",
	"Square":         "Rectangle",
	"Circle":         "Oval",
	"PolyLine":       "Polygonal Line",
	"StrikeOut":      "Strikethrough",
	"Caret":          "Inserted Text",
	"Ink":            "Pencil",
	"FileAttachment": "File Attachment",
}

// TypeName implements the [AnnotationSummaryCallback] interface.
func (English) TypeName(subtype pdf.Name) string {
	if name, ok := englishTypes[subtype]; ok {
		return name
	}
	return string(subtype)
}

// FormatDate implements the [AnnotationSummaryCallback] interface.
func (English) FormatDate(t time.Time) string {
	return t.Format("2006-01-02 15:04")
}

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

// Package pdf implements the object model of PDF documents, together with
// reading and writing of PDF files.
//
// A [Document] owns the indirect objects of a PDF file.  Documents are
// read using [Open], [Load] or [LoadFrom], or created from scratch using
// [NewDocument]:
//
//	doc, err := pdf.Open("in.pdf", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	info := doc.Info(true)
//	info.SetText("Title", "A New Title")
//	err = doc.SaveAs("out.pdf", nil)
//
// Every node of the object graph is an [*Object].  The type of an object
// is fixed when it is created.  Containers are accessed through typed
// views:
//
//	Array
//	Dict
//	Stream
//
// An object can be attached to at most one container.  Objects registered
// as indirect objects of a document are stored by reference instead.
// Objects which were never attached can be discarded with
// [Object.Release].
//
// Subpackages implement name trees, structure trees, actions, bookmarks,
// metadata, security handlers and the document-level operations built on
// top of the object model.
package pdf

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

// Package destination implements PDF destinations.
//
// A destination defines a particular view of a document, consisting of
// the page to display, the location of the window on that page and the
// magnification factor.
//
// # Explicit Destinations
//
// Eight explicit destination types are supported:
//
//   - XYZ: position at coordinates with zoom
//   - Fit: fit entire page in window
//   - FitH: fit width, position at top coordinate
//   - FitV: fit height, position at left coordinate
//   - FitR: fit rectangle in window
//   - FitB: fit bounding box in window (PDF 1.1)
//   - FitBH: fit bounding box width (PDF 1.1)
//   - FitBV: fit bounding box height (PDF 1.1)
//
// # Named Destinations
//
// Named destinations refer to an explicit destination stored in the
// Dests name tree of the document, or in the older /Dests dictionary of
// the document catalog.  Use [Resolve] to look them up.
//
// # Optional Coordinates
//
// Some destination types have optional parameters.  Use the Unset
// sentinel value (a NaN) to indicate that a parameter should retain its
// current value:
//
//	dest := &destination.XYZ{
//		Page: pageRef,
//		Left: 100,
//		Top:  destination.Unset,
//		Zoom: destination.Unset,
//	}
package destination

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

package pdf

import (
	"errors"
	"strconv"
)

// These errors are returned for the exceptional conditions of the
// document-level operations.
var (
	ErrUnknown          = errors.New("unknown error")
	ErrUnsupported      = errors.New("operation not supported")
	ErrNoRMSModuleRight = errors.New("no right to use the RMS module")
	ErrEncrypted        = errors.New("document is encrypted")
)

// These errors are returned by the object model.
var (
	ErrAttached        = errors.New("object is attached to a parent")
	ErrReleased        = errors.New("object has been released")
	ErrForeignDocument = errors.New("object belongs to a different document")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrWrongType       = errors.New("wrong object type")
	ErrCycle           = errors.New("object cannot contain itself")
	ErrNoObject        = errors.New("no such indirect object")
)

var errVersion = errors.New("unsupported PDF version")

// MalformedFileError indicates that the PDF file could not be parsed.
type MalformedFileError struct {
	Pos int64
	Err error
}

func (err *MalformedFileError) Error() string {
	middle := ""
	if err.Err != nil {
		middle = ": " + err.Err.Error()
	}
	tail := ""
	if err.Pos > 0 {
		tail = " (at byte " + strconv.FormatInt(err.Pos, 10) + ")"
	}
	return "not a valid PDF file" + middle + tail
}

func (err *MalformedFileError) Unwrap() error {
	return err.Err
}

// Wrap wraps an error in a MalformedFileError, unless it already is one.
func Wrap(err error, pos int64) error {
	if err == nil {
		return nil
	}
	var mf *MalformedFileError
	if errors.As(err, &mf) {
		return err
	}
	return &MalformedFileError{Pos: pos, Err: err}
}

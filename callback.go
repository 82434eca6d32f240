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

import "io"

// ReaderCallback gives random access to the bytes of a PDF file kept in a
// host-supplied storage backend.
type ReaderCallback interface {
	// Size returns the total number of bytes.
	Size() int64

	// ReadBlock fills buf with the bytes starting at offset.
	ReadBlock(buf []byte, offset int64) error
}

// WriterCallback receives the bytes of a PDF file written by
// [Document.SaveTo].
type WriterCallback interface {
	ReaderCallback

	// WriteBlock stores buf at the given offset.
	WriteBlock(buf []byte, offset int64) error

	// Flush is called once all data has been written.
	Flush() error
}

// callbackWriter adapts a WriterCallback to io.Writer, writing
// sequentially from offset 0.
type callbackWriter struct {
	cb  WriterCallback
	pos int64
}

func (w *callbackWriter) Write(p []byte) (int, error) {
	err := w.cb.WriteBlock(p, w.pos)
	if err != nil {
		return 0, err
	}
	w.pos += int64(len(p))
	return len(p), nil
}

var _ io.Writer = (*callbackWriter)(nil)

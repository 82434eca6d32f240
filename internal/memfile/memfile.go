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

// Package memfile provides an in-memory file, for use in tests.
package memfile

import (
	"errors"
	"io"
)

// MemFile is a temporary in-memory file.
//
// The type implements io.ReadWriteSeeker and io.ReaderAt, as well as the
// block-oriented callback interfaces used for loading and saving
// documents.
type MemFile struct {
	// Data are the file contents.
	Data []byte

	// Offset is the current file offset.
	Offset int64

	// Flushed counts the calls to Flush.
	Flushed int
}

// New creates a new MemFile.
func New() *MemFile {
	return &MemFile{}
}

// Write writes data at the current offset.
func (f *MemFile) Write(p []byte) (int, error) {
	err := f.WriteBlock(p, f.Offset)
	if err != nil {
		return 0, err
	}
	f.Offset += int64(len(p))
	return len(p), nil
}

// Read reads data from the current offset.
func (f *MemFile) Read(p []byte) (n int, err error) {
	if f.Offset >= int64(len(f.Data)) {
		return 0, io.EOF
	}
	n = copy(p, f.Data[f.Offset:])
	f.Offset += int64(n)
	return n, nil
}

// ReadAt implements the [io.ReaderAt] interface.
func (f *MemFile) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errInvalidOffset
	}
	if off >= int64(len(f.Data)) {
		return 0, io.EOF
	}
	n := copy(p, f.Data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Seek sets the offset in the file.
func (f *MemFile) Seek(offset int64, whence int) (int64, error) {
	var newOffset int64
	switch whence {
	case io.SeekStart:
		newOffset = offset
	case io.SeekCurrent:
		newOffset = f.Offset + offset
	case io.SeekEnd:
		newOffset = int64(len(f.Data)) + offset
	default:
		return 0, errInvalidWhence
	}
	if newOffset < 0 {
		return 0, errInvalidOffset
	}
	f.Offset = newOffset
	return newOffset, nil
}

// Size returns the length of the file.
func (f *MemFile) Size() int64 {
	return int64(len(f.Data))
}

// ReadBlock fills buf with the data starting at offset.
func (f *MemFile) ReadBlock(buf []byte, offset int64) error {
	if offset < 0 || offset+int64(len(buf)) > int64(len(f.Data)) {
		return io.ErrUnexpectedEOF
	}
	copy(buf, f.Data[offset:])
	return nil
}

// WriteBlock stores buf at the given offset, extending the file with
// zeros if needed.
func (f *MemFile) WriteBlock(buf []byte, offset int64) error {
	if offset < 0 {
		return errInvalidOffset
	}
	if end := offset + int64(len(buf)); end > int64(len(f.Data)) {
		f.Data = append(f.Data, make([]byte, end-int64(len(f.Data)))...)
	}
	copy(f.Data[offset:], buf)
	return nil
}

// Flush records that writing is complete.
func (f *MemFile) Flush() error {
	f.Flushed++
	return nil
}

var (
	errInvalidWhence = errors.New("invalid whence")
	errInvalidOffset = errors.New("invalid offset")
)

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
	"bytes"
	"io"
)

// Stream is the view of a stream object: a dictionary together with a
// byte payload.  The payload is held in encoded ("raw") form, as it is
// stored in the file.  The /Filter and /DecodeParms entries of the
// dictionary describe how the raw data is decoded.
type Stream Object

// NewStream creates a new stream with the given dictionary and no data.
// If dict is nil, an empty dictionary is used.
func NewStream(dict *Dict) (*Stream, error) {
	s := &Stream{typ: TypeStream}
	if dict == nil {
		dict = NewDict()
	}
	d, err := s.Object().prepareChild(dict.Object())
	if err != nil {
		return nil, err
	}
	if d.typ != TypeDictionary {
		return nil, ErrWrongType
	}
	d.parent = s.Object()
	s.sdict = d
	s.Dict().SetInteger("Length", 0)
	return s, nil
}

// Object returns the underlying object.
func (s *Stream) Object() *Object {
	return (*Object)(s)
}

// Dict returns the stream dictionary.
func (s *Stream) Dict() *Dict {
	if s == nil {
		return nil
	}
	return s.sdict.Dict()
}

// Filters returns the filter chain of the stream, in the order in which
// the filters are applied when decoding.
func (s *Stream) Filters() []Filter {
	dict := s.Dict()
	var names []Name
	var parms []*Dict

	switch f := dict.GetDirect("Filter"); f.Type() {
	case TypeName:
		names = append(names, f.Name())
		parms = append(parms, dict.GetDict("DecodeParms"))
	case TypeArray:
		pa := dict.GetArray("DecodeParms")
		for i, elem := range f.Array().All() {
			names = append(names, elem.Direct().Name())
			parms = append(parms, pa.GetDirect(i).Dict())
		}
	}

	res := make([]Filter, len(names))
	for i, name := range names {
		res[i] = makeFilter(name, parms[i])
	}
	return res
}

// SetFilters changes the filter chain of the stream.  The data is decoded
// with the old chain and re-encoded with the new one.
func (s *Stream) SetFilters(filters ...Filter) error {
	decoded, err := s.Data(false)
	if err != nil {
		return err
	}

	dict := s.Dict()
	dict.Remove("Filter")
	dict.Remove("DecodeParms")
	dict.Remove("DL")

	if len(filters) == 1 {
		name, parms := filters[0].Info()
		dict.SetName("Filter", name)
		if parms != nil {
			dict.SetAt("DecodeParms", parms.Object())
		}
	} else if len(filters) > 1 {
		names := NewArray()
		pa := NewArray()
		hasParms := false
		for _, f := range filters {
			name, parms := f.Info()
			names.Add(NewName(name))
			if parms != nil {
				hasParms = true
				pa.Add(parms.Object())
			} else {
				pa.Add(NewNull())
			}
		}
		dict.SetAt("Filter", names.Object())
		if hasParms {
			dict.SetAt("DecodeParms", pa.Object())
		}
	}

	return s.SetData(decoded)
}

// SetRawData replaces the stream data by raw, which must already be
// encoded with the filters given in the stream dictionary.
func (s *Stream) SetRawData(raw []byte) error {
	if s.released {
		return ErrReleased
	}
	s.data = bytes.Clone(raw)
	s.Dict().SetInteger("Length", int64(len(raw)))
	return nil
}

// SetData replaces the stream data.  The data is encoded with the filters
// given in the stream dictionary and /Length is updated.
func (s *Stream) SetData(decoded []byte) error {
	return s.ImportData(bytes.NewReader(decoded), false)
}

// ImportData reads the stream data from r.  If raw is true, the data is
// stored as is, otherwise it is encoded with the filters given in the
// stream dictionary while it is read.
func (s *Stream) ImportData(r io.Reader, raw bool) error {
	if s.released {
		return ErrReleased
	}
	buf := &bytes.Buffer{}
	var w io.WriteCloser = nopWriteCloser{buf}
	if !raw {
		filters := s.Filters()
		for _, f := range filters {
			var err error
			w, err = f.Encode(w)
			if err != nil {
				return err
			}
		}
	}
	_, err := io.Copy(w, r)
	if err != nil {
		return err
	}
	err = w.Close()
	if err != nil {
		return err
	}
	return s.SetRawData(buf.Bytes())
}

// ExportData writes the stream data to w.  If raw is false, the data
// is decoded while it is written.
func (s *Stream) ExportData(w io.Writer, raw bool) error {
	r, err := s.Reader(raw)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, r)
	return err
}

// Reader returns a reader for the stream data.
func (s *Stream) Reader(raw bool) (io.Reader, error) {
	if s.released {
		return nil, ErrReleased
	}
	var r io.Reader = bytes.NewReader(s.data)
	if raw {
		return r, nil
	}
	for _, f := range s.Filters() {
		var err error
		r, err = f.Decode(r)
		if err != nil {
			return nil, err
		}
	}
	return r, nil
}

// DataSize returns the length of the stream data.  For decoded data this
// requires decoding the whole stream.
func (s *Stream) DataSize(raw bool) (int, error) {
	if raw {
		if s.released {
			return 0, ErrReleased
		}
		return len(s.data), nil
	}
	cw := &countWriter{}
	err := s.ExportData(cw, false)
	if err != nil {
		return 0, err
	}
	return cw.n, nil
}

// CopyData copies the stream data into buf and returns the number of bytes
// copied.  Together with [Stream.DataSize] this allows the caller to
// allocate the buffer.  If buf is too small, [io.ErrShortBuffer] is
// returned.
func (s *Stream) CopyData(raw bool, buf []byte) (int, error) {
	r, err := s.Reader(raw)
	if err != nil {
		return 0, err
	}
	n, err := io.ReadFull(r, buf)
	switch err {
	case io.EOF, io.ErrUnexpectedEOF:
		return n, nil
	case nil:
		var extra [1]byte
		m, _ := r.Read(extra[:])
		if m > 0 {
			return n, io.ErrShortBuffer
		}
		return n, nil
	default:
		return n, err
	}
}

// Data returns the stream data.
func (s *Stream) Data(raw bool) ([]byte, error) {
	if raw {
		if s.released {
			return nil, ErrReleased
		}
		return bytes.Clone(s.data), nil
	}
	buf := &bytes.Buffer{}
	err := s.ExportData(buf, false)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type countWriter struct {
	n int
}

func (w *countWriter) Write(p []byte) (int, error) {
	w.n += len(p)
	return len(p), nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

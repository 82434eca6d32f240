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
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// SaveOptions controls how a document is written.  The zero value is a
// valid configuration.
type SaveOptions struct {
	// Compress applies FlateDecode to all streams which have no filter.
	// The streams of the document are modified in place.
	Compress bool

	// ObjectStreams stores non-stream objects in compressed object
	// streams.  This is ignored for PDF versions before 1.5.
	ObjectStreams bool
}

// objStmSize is the maximum number of objects per object stream.
const objStmSize = 100

// SaveAs writes the document to the named file.  An existing file is
// overwritten.
func (d *Document) SaveAs(path string, opt *SaveOptions) error {
	fd, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(fd)
	err = d.Save(bw, opt)
	if err == nil {
		err = bw.Flush()
	}
	err2 := fd.Close()
	if err == nil {
		err = err2
	}
	return err
}

// SaveTo writes the document through a callback.
func (d *Document) SaveTo(cb WriterCallback, opt *SaveOptions) error {
	err := d.Save(&callbackWriter{cb: cb}, opt)
	if err != nil {
		return err
	}
	return cb.Flush()
}

// Save writes the document in PDF format to w.  Indirect objects keep their
// object numbers.  A cross-reference table is used for PDF versions before
// 1.5, and a cross-reference stream otherwise.
func (d *Document) Save(w io.Writer, opt *SaveOptions) error {
	if opt == nil {
		opt = &SaveOptions{}
	}
	if d.Catalog() == nil {
		return fmt.Errorf("cannot save: %w", ErrNoObject)
	}
	verString, err := d.version.ToString()
	if err != nil {
		return err
	}
	useObjStm := opt.ObjectStreams && d.version >= V1_5
	if opt.ObjectStreams && !useObjStm {
		slog.Debug("object streams need PDF 1.5", slog.String("version", verString))
	}

	if opt.Compress {
		for _, o := range d.Objects() {
			stm := o.Stream()
			if stm == nil || stm.Dict().Has("Filter") {
				continue
			}
			err := stm.SetFilters(FilterFlate{})
			if err != nil {
				return err
			}
		}
	}

	id := d.FileID()

	pw := &posWriter{w: w}
	_, err = fmt.Fprintf(pw, "%%PDF-%s\n%%\x80\x80\x80\x80\n", verString)
	if err != nil {
		return err
	}

	entries := make([]*xrefEntry, len(d.slots))
	entries[0] = &xrefEntry{free: true, gen: 65535}
	var packed []uint32
	for num := 1; num < len(d.slots); num++ {
		sl := d.slots[num]
		if sl.obj == nil {
			entries[num] = &xrefEntry{free: true, gen: sl.gen}
			continue
		}
		if useObjStm && sl.gen == 0 && sl.obj.typ != TypeStream {
			packed = append(packed, uint32(num))
			continue
		}
		entries[num] = &xrefEntry{pos: pw.pos, gen: sl.gen}
		err := d.writeIndirect(pw, NewRef(uint32(num), sl.gen), sl.obj)
		if err != nil {
			return err
		}
	}

	var encNum uint32
	if d.encrypt != nil {
		encNum = uint32(len(entries))
		entries = append(entries, &xrefEntry{pos: pw.pos})
		buf := fmt.Appendf(nil, "%d 0 obj\n", encNum)
		buf, err = appendObject(buf, d.encrypt, nil)
		if err != nil {
			return err
		}
		buf = append(buf, "\nendobj\n"...)
		_, err = pw.Write(buf)
		if err != nil {
			return err
		}
	}

	for len(packed) > 0 {
		n := min(len(packed), objStmSize)
		stmNum := uint32(len(entries))
		entries = append(entries, &xrefEntry{pos: pw.pos})
		stm, err := d.makeObjStm(packed[:n])
		if err != nil {
			return err
		}
		err = d.writeIndirect(pw, NewRef(stmNum, 0), stm.Object())
		if err != nil {
			return err
		}
		for i, num := range packed[:n] {
			entries[num] = &xrefEntry{stm: stmNum, pos: int64(i)}
		}
		packed = packed[n:]
	}

	// link the free entries into a list
	last := entries[0]
	for num := 1; num < len(entries); num++ {
		if entries[num].free {
			last.pos = int64(num)
			last = entries[num]
		}
	}
	last.pos = 0

	xrefPos := pw.pos
	var tail []byte
	if d.version < V1_5 {
		tail = appendXRefTable(nil, entries)
		tail = append(tail, "trailer\n"...)
		tail, err = d.appendTrailer(tail, len(entries), encNum, id, nil)
		if err != nil {
			return err
		}
	} else {
		xrefNum := uint32(len(entries))
		entries = append(entries, &xrefEntry{pos: xrefPos})
		w, data := encodeXRefStream(entries)
		data, err = flateBytes(data)
		if err != nil {
			return err
		}
		tail = fmt.Appendf(tail, "%d 0 obj\n", xrefNum)
		extra := fmt.Appendf(nil, "\n/Type /XRef\n/W [%d %d %d]\n/Filter /FlateDecode\n/Length %d",
			w[0], w[1], w[2], len(data))
		tail, err = d.appendTrailer(tail, len(entries), encNum, id, extra)
		if err != nil {
			return err
		}
		tail = append(tail, "\nstream\n"...)
		tail = append(tail, data...)
		tail = append(tail, "\nendstream\nendobj"...)
	}
	tail = fmt.Appendf(tail, "\nstartxref\n%d\n%%%%EOF\n", xrefPos)
	_, err = pw.Write(tail)
	return err
}

// writeIndirect writes "N G obj ... endobj", encrypting strings and stream
// data if the document is encrypted.
func (d *Document) writeIndirect(w io.Writer, ref Ref, o *Object) error {
	var enc *objectEncoder
	if c := d.crypter; c != nil {
		enc = &objectEncoder{
			str: func(s []byte) ([]byte, error) {
				return c.Encrypt(ref, s, false)
			},
		}
		if stm := o.Stream(); stm != nil && d.encryptsStream(stm) {
			enc.stm = func(data []byte) ([]byte, error) {
				return c.Encrypt(ref, data, true)
			}
		}
	}

	buf := fmt.Appendf(nil, "%d %d obj\n", ref.Number(), ref.Generation())
	buf, err := appendObject(buf, o, enc)
	if err != nil {
		return fmt.Errorf("object %s: %w", ref, err)
	}
	buf = append(buf, "\nendobj\n"...)
	_, err = w.Write(buf)
	return err
}

// makeObjStm packs the given objects into a new object stream.  The
// objects themselves are never encrypted, the stream is encrypted as a
// whole.
func (d *Document) makeObjStm(nums []uint32) (*Stream, error) {
	var header, body []byte
	for i, num := range nums {
		if i > 0 {
			header = append(header, ' ')
			body = append(body, '\n')
		}
		header = fmt.Appendf(header, "%d %d", num, len(body))
		var err error
		body, err = appendObject(body, d.slots[num].obj, nil)
		if err != nil {
			return nil, fmt.Errorf("object %d: %w", num, err)
		}
	}
	header = append(header, '\n')

	dict := NewDict()
	dict.SetName("Type", "ObjStm")
	dict.SetInteger("N", int64(len(nums)))
	dict.SetInteger("First", int64(len(header)))
	dict.SetName("Filter", "FlateDecode")
	stm, err := NewStream(dict)
	if err != nil {
		return nil, err
	}
	err = stm.SetData(append(header, body...))
	if err != nil {
		return nil, err
	}
	return stm, nil
}

// appendTrailer writes the trailer dictionary.  The entries in extra are
// included verbatim.
func (d *Document) appendTrailer(buf []byte, size int, encNum uint32, id [2][]byte, extra []byte) ([]byte, error) {
	buf = fmt.Appendf(buf, "<<\n/Size %d", size)
	buf = append(buf, extra...)
	for _, key := range []Name{"Root", "Info"} {
		v := d.trailer.Get(key)
		if v == nil {
			continue
		}
		buf = append(buf, '\n')
		buf = appendName(buf, key)
		buf = append(buf, ' ')
		var err error
		buf, err = appendObject(buf, v, nil)
		if err != nil {
			return nil, err
		}
	}
	buf = append(buf, "\n/ID ["...)
	buf = appendString(buf, id[0])
	buf = appendString(buf, id[1])
	buf = append(buf, ']')
	if encNum != 0 {
		buf = fmt.Appendf(buf, "\n/Encrypt %d 0 R", encNum)
	}
	return append(buf, "\n>>"...), nil
}

func flateBytes(data []byte) ([]byte, error) {
	buf := &bytes.Buffer{}
	w, err := FilterFlate{}.Encode(nopWriteCloser{buf})
	if err != nil {
		return nil, err
	}
	_, err = w.Write(data)
	if err != nil {
		return nil, err
	}
	err = w.Close()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type posWriter struct {
	w   io.Writer
	pos int64
}

func (w *posWriter) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	w.pos += int64(n)
	return n, err
}

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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"slices"
	"strconv"

	"golang.org/x/exp/maps"
)

// LoadOptions controls how a document is read.  The zero value is a valid
// configuration.
type LoadOptions struct {
	// Decrypt is called for encrypted documents to obtain the Crypter.
	// If Decrypt is nil, loading an encrypted document fails with
	// [ErrEncrypted].
	Decrypt DecryptFunc

	// NoRepair disables the reconstruction of damaged cross-reference
	// information.
	NoRepair bool
}

// Open reads the named PDF file.
func Open(path string, opt *LoadOptions) (*Document, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	fi, err := fd.Stat()
	if err != nil {
		return nil, err
	}
	return Load(fd, fi.Size(), opt)
}

// LoadFrom reads a PDF file through a callback.
func LoadFrom(cb ReaderCallback, opt *LoadOptions) (*Document, error) {
	return Load(callbackReaderAt{cb}, cb.Size(), opt)
}

// Load reads a PDF document.  All objects are read into memory, so r is no
// longer needed once Load returns.
func Load(r io.ReaderAt, size int64, opt *LoadOptions) (*Document, error) {
	if opt == nil {
		opt = &LoadOptions{}
	}
	rd := &reader{r: r, size: size, opt: opt}

	version, err := rd.scannerAt(0).readHeaderVersion()
	if err != nil {
		return nil, err
	}

	doc, err := rd.load(version, false)
	if err != nil && !opt.NoRepair && isParseError(err) {
		slog.Debug("reconstructing cross-reference information", slog.Any("err", err))
		doc, err = rd.load(version, true)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func isParseError(err error) bool {
	var mf *MalformedFileError
	return errors.As(err, &mf) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

type reader struct {
	r    io.ReaderAt
	size int64
	opt  *LoadOptions

	doc     *Document
	xref    map[uint32]*xrefEntry
	loaded  map[uint32]bool
	loading map[uint32]bool
	objStms map[uint32]*objStm

	// special holds the objects which are not stored in the document:
	// object streams, xref streams and the encryption dictionary.
	special map[uint32]*Object

	// pendingObjStms lists object streams found while repairing a file.
	pendingObjStms []uint32

	encryptNum uint32
}

func (r *reader) scannerAt(pos int64) *scanner {
	s := newScanner(io.NewSectionReader(r.r, pos, r.size-pos), r.doc)
	s.total = pos
	s.streamLength = r.streamLength
	return s
}

// load reads all objects of the file into a new document.  If repair is
// set, the file is scanned for objects instead of using the
// cross-reference information.
func (r *reader) load(version Version, repair bool) (*Document, error) {
	r.doc = newEmptyDocument(version)
	r.loaded = make(map[uint32]bool)
	r.loading = make(map[uint32]bool)
	r.objStms = make(map[uint32]*objStm)
	r.special = make(map[uint32]*Object)
	r.pendingObjStms = nil
	r.encryptNum = 0

	var trailers []*Dict
	var err error
	if repair {
		r.xref, trailers, err = r.scanObjects()
	} else {
		var start int64
		start, err = r.findStartXRef()
		if err == nil {
			r.xref, trailers, err = r.readXRef(start)
		}
	}
	if err != nil {
		return nil, err
	}

	trailer := r.doc.trailer
	for _, key := range []Name{"Root", "Info", "ID", "Encrypt"} {
		for _, t := range trailers {
			if v := t.Get(key); v != nil && v.Type() != TypeNull {
				c := v.Clone()
				c.setTreeDoc(r.doc)
				trailer.set(key, c)
				break
			}
		}
	}
	if !trailer.Has("Root") {
		return nil, &MalformedFileError{Err: errors.New("no document catalog")}
	}

	err = r.setupDecryption()
	if err != nil {
		return nil, err
	}

	for _, stmNum := range r.pendingObjStms {
		contents, err := r.readObjStm(stmNum)
		if err != nil {
			slog.Debug("skipping damaged object stream", slog.Uint64("num", uint64(stmNum)))
			continue
		}
		for num, offs := range contents.offs {
			if r.xref[num] == nil {
				r.xref[num] = &xrefEntry{pos: offs, stm: stmNum}
			}
		}
	}

	nums := maps.Keys(r.xref)
	slices.Sort(nums)
	for _, num := range nums {
		if r.xref[num].free {
			continue
		}
		_, err := r.loadObject(num)
		if err != nil {
			return nil, err
		}
	}

	if r.doc.Catalog() == nil {
		return nil, &MalformedFileError{Err: errors.New("no document catalog")}
	}
	if v, err := ParseVersion(string(r.doc.Catalog().GetName("Version"))); err == nil && v > r.doc.version {
		r.doc.version = v
	}
	return r.doc, nil
}

// setupDecryption reads the encryption dictionary, if any.
func (r *reader) setupDecryption() error {
	trailer := r.doc.trailer
	enc := trailer.Get("Encrypt")
	if enc == nil {
		return nil
	}
	trailer.Remove("Encrypt")
	if r.opt.Decrypt == nil {
		return ErrEncrypted
	}

	var encDict *Dict
	if enc.Type() == TypeReference {
		r.encryptNum = enc.Target().Number()
		o, err := r.loadObject(r.encryptNum)
		if err != nil {
			return err
		}
		encDict = o.Dict()
	} else {
		encDict = enc.Dict()
	}
	if encDict == nil {
		return &MalformedFileError{Err: errors.New("invalid encryption dictionary")}
	}

	var id [2][]byte
	idArray := trailer.GetArray("ID")
	if idArray.Len() >= 2 {
		id = [2][]byte{idArray.GetDirect(0).Bytes(), idArray.GetDirect(1).Bytes()}
	}
	c, err := r.opt.Decrypt(encDict, id)
	if err != nil {
		return err
	}
	encDict.Object().parent = nil
	r.doc.encrypt = encDict.Object()
	r.doc.crypter = c
	return nil
}

// loadObject reads an indirect object and stores it in the document.
func (r *reader) loadObject(num uint32) (*Object, error) {
	if r.loaded[num] {
		if o, ok := r.special[num]; ok {
			return o, nil
		}
		return r.doc.GetIndirectObject(num), nil
	}
	if r.loading[num] {
		return nil, &MalformedFileError{Err: fmt.Errorf("object %d depends on itself", num)}
	}
	entry := r.xref[num]
	if entry == nil || entry.free {
		return nil, nil
	}
	r.loading[num] = true
	defer delete(r.loading, num)

	var obj *Object
	var ref Ref
	if entry.stm != 0 {
		o, err := r.fromObjectStream(num, entry)
		if err != nil {
			return nil, err
		}
		obj = o
		ref = NewRef(num, 0)
	} else {
		s := r.scannerAt(entry.pos)
		var err error
		ref, obj, err = s.ReadIndirectObject()
		if err != nil {
			return nil, err
		}
		if ref.Number() != num {
			return nil, &MalformedFileError{
				Pos: entry.pos,
				Err: fmt.Errorf("expected object %d but found %s", num, ref),
			}
		}
		if r.doc.crypter != nil && num != r.encryptNum {
			err = r.doc.decryptObject(ref, obj)
			if err != nil {
				return nil, err
			}
		}
	}

	r.loaded[num] = true
	if obj.Type() == TypeNull {
		// null objects are treated as free
		return nil, nil
	}
	if num == r.encryptNum || isSpecialStream(obj) {
		r.special[num] = obj
		return obj, nil
	}
	r.doc.placeIndirectObject(ref, obj)
	return obj, nil
}

// isSpecialStream reports whether o is an object stream or an xref stream.
// These are regenerated when the document is saved.
func isSpecialStream(o *Object) bool {
	switch o.Stream().Dict().GetName("Type") {
	case "ObjStm", "XRef":
		return true
	}
	return false
}

// streamLength resolves the /Length entry of a stream, loading the
// referenced object if needed.
func (r *reader) streamLength(length *Object) (int64, error) {
	if length.Type() == TypeReference {
		o, err := r.loadObject(length.Target().Number())
		if err != nil {
			return 0, err
		}
		length = o
	}
	if !length.IsInteger() {
		return 0, errors.New("invalid stream length")
	}
	return length.Integer(), nil
}

type objStm struct {
	data []byte
	offs map[uint32]int64
}

func (r *reader) fromObjectStream(num uint32, entry *xrefEntry) (*Object, error) {
	contents, err := r.readObjStm(entry.stm)
	if err != nil {
		return nil, err
	}
	offs, ok := contents.offs[num]
	if !ok {
		return nil, &MalformedFileError{
			Err: fmt.Errorf("object %d missing from object stream %d", num, entry.stm),
		}
	}
	s := newScanner(bytes.NewReader(contents.data[offs:]), r.doc)
	s.streamLength = r.streamLength
	return s.ReadObject()
}

func (r *reader) readObjStm(num uint32) (*objStm, error) {
	if res, ok := r.objStms[num]; ok {
		return res, nil
	}

	o, err := r.loadObject(num)
	if err != nil {
		return nil, err
	}
	stm := o.Stream()
	if stm == nil {
		return nil, &MalformedFileError{Err: fmt.Errorf("object %d is not an object stream", num)}
	}
	dict := stm.Dict()
	n := dict.GetInteger("N")
	first := dict.GetInteger("First")
	if n < 0 || n > 100000 || first < 0 {
		return nil, &MalformedFileError{Err: errors.New("invalid object stream dictionary")}
	}
	data, err := stm.Data(false)
	if err != nil {
		return nil, err
	}
	if first > int64(len(data)) {
		return nil, &MalformedFileError{Err: errors.New("invalid /First in object stream")}
	}

	res := &objStm{data: data, offs: make(map[uint32]int64, n)}
	s := newScanner(bytes.NewReader(data[:first]), r.doc)
	for range n {
		s.SkipWhiteSpace()
		objNum, err := s.ReadInteger()
		if err != nil {
			return nil, err
		}
		s.SkipWhiteSpace()
		offs, err := s.ReadInteger()
		if err != nil {
			return nil, err
		}
		if objNum <= 0 || objNum > 1<<32-1 || offs < 0 || first+offs > int64(len(data)) {
			return nil, &MalformedFileError{Err: errors.New("invalid object stream header")}
		}
		if _, seen := res.offs[uint32(objNum)]; !seen {
			res.offs[uint32(objNum)] = first + offs
		}
	}
	r.objStms[num] = res
	return res, nil
}

var objHeader = regexp.MustCompile(`(?m)(?:^|[\r\n\s])(\d+)[ \t\r\n]+(\d+)[ \t\r\n]+obj\b`)

// scanObjects reconstructs the cross-reference information of a damaged
// file by searching for "N G obj" headers.  Later definitions of an
// object replace earlier ones.
func (r *reader) scanObjects() (map[uint32]*xrefEntry, []*Dict, error) {
	data := make([]byte, r.size)
	n, err := r.r.ReadAt(data, 0)
	if err != nil && err != io.EOF {
		return nil, nil, err
	}
	data = data[:n]

	xref := make(map[uint32]*xrefEntry)
	for _, m := range objHeader.FindAllSubmatchIndex(data, -1) {
		num, err1 := strconv.ParseUint(string(data[m[2]:m[3]]), 10, 32)
		gen, err2 := strconv.ParseUint(string(data[m[4]:m[5]]), 10, 16)
		if err1 != nil || err2 != nil || num == 0 {
			continue
		}
		xref[uint32(num)] = &xrefEntry{pos: int64(m[2]), gen: uint16(gen)}
	}
	r.xref = xref

	var trailers []*Dict
	if idx := bytes.LastIndex(data, []byte("trailer")); idx >= 0 {
		s := r.scannerAt(int64(idx + 7))
		s.SkipWhiteSpace()
		if t, err := s.ReadDict(); err == nil {
			trailers = append(trailers, t)
		}
	}

	// object streams, and trailer information in xref streams
	nums := maps.Keys(xref)
	slices.Sort(nums)
	for _, num := range nums {
		_, obj, err := r.scannerAt(xref[num].pos).ReadIndirectObject()
		if err != nil {
			continue
		}
		stm := obj.Stream()
		if stm == nil {
			if d := obj.Dict(); d != nil && d.GetName("Type") == "Catalog" && len(trailers) == 0 {
				t := NewDict()
				t.doc = r.doc
				t.setFresh("Root", &Object{typ: TypeReference, ref: NewRef(num, xref[num].gen)})
				trailers = append(trailers, t)
			}
			continue
		}
		switch stm.Dict().GetName("Type") {
		case "XRef":
			trailers = append([]*Dict{stm.Dict()}, trailers...)
		case "ObjStm":
			r.pendingObjStms = append(r.pendingObjStms, num)
		}
	}
	return xref, trailers, nil
}

// callbackReaderAt adapts a ReaderCallback to io.ReaderAt.
type callbackReaderAt struct {
	cb ReaderCallback
}

func (c callbackReaderAt) ReadAt(p []byte, off int64) (int, error) {
	size := c.cb.Size()
	if off >= size {
		return 0, io.EOF
	}
	n := len(p)
	short := off+int64(n) > size
	if short {
		n = int(size - off)
	}
	err := c.cb.ReadBlock(p[:n], off)
	if err != nil {
		return 0, err
	}
	if short {
		return n, io.EOF
	}
	return n, nil
}

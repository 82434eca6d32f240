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
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
)

// ObjectType describes the kind of a PDF object.
type ObjectType int

// These are the types an Object can have.
const (
	TypeInvalid ObjectType = iota
	TypeBoolean
	TypeNumber
	TypeString
	TypeName
	TypeArray
	TypeDictionary
	TypeStream
	TypeNull
	TypeReference
)

func (t ObjectType) String() string {
	switch t {
	case TypeBoolean:
		return "boolean"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeName:
		return "name"
	case TypeArray:
		return "array"
	case TypeDictionary:
		return "dictionary"
	case TypeStream:
		return "stream"
	case TypeNull:
		return "null"
	case TypeReference:
		return "reference"
	default:
		return "invalid"
	}
}

// Name is a PDF name object, without the leading slash.
type Name string

// Ref identifies an indirect object by object number and generation.
type Ref uint64

// NewRef packs an object number and a generation number into a Ref.
func NewRef(number uint32, generation uint16) Ref {
	return Ref(uint64(number) | uint64(generation)<<32)
}

// Number returns the object number of the reference.
func (x Ref) Number() uint32 {
	return uint32(x)
}

// Generation returns the generation number of the reference.
func (x Ref) Generation() uint16 {
	return uint16(x >> 32)
}

func (x Ref) String() string {
	s := "obj_" + strconv.FormatUint(uint64(x.Number()), 10)
	if gen := x.Generation(); gen > 0 {
		s += "@" + strconv.FormatUint(uint64(gen), 10)
	}
	return s
}

// maxRefDepth limits the length of reference chains followed by Direct.
const maxRefDepth = 32

// An Object is a node in the object graph of a PDF document.
//
// The type of an object is fixed when the object is created.  Typed
// accessors like [Object.Integer] return the zero value when they are
// called on an object of a different type.  Containers are accessed through
// the views returned by [Object.Array], [Object.Dict] and [Object.Stream].
//
// An object has at most one parent container.  Objects which are neither
// attached to a parent nor registered as indirect objects of a document can
// be discarded with [Object.Release].
type Object struct {
	typ      ObjectType
	doc      *Document
	num      uint32
	gen      uint16
	parent   *Object
	released bool

	b     bool
	isInt bool
	i     int64
	f     float64
	str   []byte
	name  Name
	ref   Ref

	elems   []*Object
	entries []dictEntry

	sdict *Object
	data  []byte
}

// NewBool creates a new boolean object.
func NewBool(b bool) *Object {
	return &Object{typ: TypeBoolean, b: b}
}

// NewInteger creates a new integer number object.
func NewInteger(x int64) *Object {
	return &Object{typ: TypeNumber, isInt: true, i: x}
}

// NewReal creates a new real number object.
func NewReal(x float64) *Object {
	return &Object{typ: TypeNumber, f: x}
}

// NewNumber creates a number object.  Integral values are stored as
// integers.
func NewNumber(x float64) *Object {
	if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
		return NewInteger(int64(x))
	}
	return NewReal(x)
}

// NewString creates a new string object holding a copy of b.
func NewString(b []byte) *Object {
	return &Object{typ: TypeString, str: bytes.Clone(b)}
}

// NewTextString creates a new string object holding s as a PDF text string.
func NewTextString(s string) *Object {
	return &Object{typ: TypeString, str: TextString(s)}
}

// NewDate creates a string object which encodes t as a PDF date.
func NewDate(t time.Time) *Object {
	return &Object{typ: TypeString, str: DateString(t)}
}

// NewName creates a new name object.
func NewName(n Name) *Object {
	return &Object{typ: TypeName, name: n}
}

// NewNull creates a new null object.
func NewNull() *Object {
	return &Object{typ: TypeNull}
}

// NewReference creates a reference to the indirect object num in doc.
func NewReference(doc *Document, num uint32) *Object {
	var gen uint16
	if doc != nil && int(num) < len(doc.slots) {
		gen = doc.slots[num].gen
	}
	return &Object{typ: TypeReference, doc: doc, ref: NewRef(num, gen)}
}

// NewRect creates an array of four numbers describing a rectangle.
func NewRect(r rect.Rect) *Array {
	return NewNumberArray(r.LLx, r.LLy, r.URx, r.URy)
}

// NewMatrix creates an array of six numbers describing a transformation.
func NewMatrix(m matrix.Matrix) *Array {
	return NewNumberArray(m[:]...)
}

// Type returns the type of the object.
func (o *Object) Type() ObjectType {
	if o == nil {
		return TypeInvalid
	}
	return o.typ
}

// Bool returns the value of a boolean object.
func (o *Object) Bool() bool {
	if o.Type() != TypeBoolean {
		return false
	}
	return o.b
}

// IsInteger reports whether o is a number stored as an integer.
func (o *Object) IsInteger() bool {
	return o.Type() == TypeNumber && o.isInt
}

// Integer returns the value of a number object.  Real numbers are
// truncated towards zero.
func (o *Object) Integer() int64 {
	if o.Type() != TypeNumber {
		return 0
	}
	if o.isInt {
		return o.i
	}
	if math.IsNaN(o.f) {
		return 0
	}
	return int64(o.f)
}

// Float returns the value of a number object.
func (o *Object) Float() float64 {
	if o.Type() != TypeNumber {
		return 0
	}
	if o.isInt {
		return float64(o.i)
	}
	return o.f
}

// Bytes returns the raw bytes of a string object.
func (o *Object) Bytes() []byte {
	if o.Type() != TypeString {
		return nil
	}
	return o.str
}

// Text returns the value of a string object, decoded as a PDF text string.
func (o *Object) Text() string {
	if o.Type() != TypeString {
		return ""
	}
	return AsTextString(o.str)
}

// Name returns the value of a name object.
func (o *Object) Name() Name {
	if o.Type() != TypeName {
		return ""
	}
	return o.name
}

// Date interprets a string object as a PDF date.
// The zero time is returned if o is not a valid date string.
func (o *Object) Date() time.Time {
	if o.Type() != TypeString {
		return time.Time{}
	}
	t, err := ParseDate(o.str)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Rect interprets an array of four numbers as a rectangle.  The corners
// are normalised so that LLx <= URx and LLy <= URy.
func (o *Object) Rect() rect.Rect {
	x, ok := o.numbers(4)
	if !ok {
		return rect.Rect{}
	}
	return rect.Rect{
		LLx: min(x[0], x[2]),
		LLy: min(x[1], x[3]),
		URx: max(x[0], x[2]),
		URy: max(x[1], x[3]),
	}
}

// Matrix interprets an array of six numbers as a transformation matrix.
func (o *Object) Matrix() matrix.Matrix {
	x, ok := o.numbers(6)
	if !ok {
		return matrix.Matrix{}
	}
	var m matrix.Matrix
	copy(m[:], x)
	return m
}

func (o *Object) numbers(n int) ([]float64, bool) {
	a := o.Direct().Array()
	if a == nil || len(a.elems) != n {
		return nil, false
	}
	res := make([]float64, n)
	for i, elem := range a.elems {
		elem = elem.Direct()
		if elem.Type() != TypeNumber {
			return nil, false
		}
		res[i] = elem.Float()
	}
	return res, true
}

// Target returns the object a reference points to, as number and
// generation.
func (o *Object) Target() Ref {
	if o.Type() != TypeReference {
		return 0
	}
	return o.ref
}

// ObjNum returns the indirect object number, or 0 for direct objects.
func (o *Object) ObjNum() uint32 {
	if o == nil {
		return 0
	}
	return o.num
}

// Gen returns the generation number of an indirect object.
func (o *Object) Gen() uint16 {
	if o == nil {
		return 0
	}
	return o.gen
}

// IsIndirect reports whether o is an indirect object of its document.
func (o *Object) IsIndirect() bool {
	return o.ObjNum() != 0
}

// Document returns the document o belongs to, or nil for objects which are
// not yet part of a document.
func (o *Object) Document() *Document {
	if o == nil {
		return nil
	}
	return o.doc
}

// Parent returns the container o is attached to.
func (o *Object) Parent() *Object {
	if o == nil {
		return nil
	}
	return o.parent
}

// Direct resolves references.  If o is not a reference, o itself is
// returned.  For references, the indirect object is looked up in the owning
// document.  The result is nil if the reference cannot be resolved.
func (o *Object) Direct() *Object {
	for range maxRefDepth {
		if o.Type() != TypeReference {
			return o
		}
		if o.doc == nil {
			return nil
		}
		o = o.doc.lookup(o.ref)
	}
	if o.Type() == TypeReference {
		slog.Debug("reference chain too long", slog.String("ref", o.ref.String()))
		return nil
	}
	return o
}

// Array returns the array view of o, or nil if o is not an array.
func (o *Object) Array() *Array {
	if o.Type() != TypeArray {
		return nil
	}
	return (*Array)(o)
}

// Dict returns the dictionary view of o, or nil if o is not a dictionary.
// For streams, use [Stream.Dict].
func (o *Object) Dict() *Dict {
	if o.Type() != TypeDictionary {
		return nil
	}
	return (*Dict)(o)
}

// Stream returns the stream view of o, or nil if o is not a stream.
func (o *Object) Stream() *Stream {
	if o.Type() != TypeStream {
		return nil
	}
	return (*Stream)(o)
}

// Release discards an object which was never attached.  Attached objects
// and indirect objects are owned by their parent or document, and Release
// returns [ErrAttached] for them.
func (o *Object) Release() error {
	if o == nil {
		return nil
	}
	if o.released {
		return ErrReleased
	}
	if o.parent != nil || o.num != 0 {
		return ErrAttached
	}
	o.walk(func(x *Object) {
		x.released = true
		x.str = nil
		x.elems = nil
		x.entries = nil
		x.data = nil
		x.sdict = nil
		x.doc = nil
	})
	return nil
}

// IsReleased reports whether Release has been called on o.
func (o *Object) IsReleased() bool {
	return o != nil && o.released
}

// walk calls fn on o and on all directly contained objects.
// Stream dictionaries are included, referenced objects are not.
func (o *Object) walk(fn func(*Object)) {
	if o == nil {
		return
	}
	fn(o)
	switch o.typ {
	case TypeArray:
		for _, elem := range o.elems {
			elem.walk(fn)
		}
	case TypeDictionary:
		for _, e := range o.entries {
			e.val.walk(fn)
		}
	case TypeStream:
		o.sdict.walk(fn)
	}
}

// Clone returns a copy of o.  Directly contained objects are copied,
// references are kept and still point into the document of o.  The copy
// is a direct object without a parent.
func (o *Object) Clone() *Object {
	if o == nil {
		return nil
	}
	c := &Object{
		typ:   o.typ,
		b:     o.b,
		isInt: o.isInt,
		i:     o.i,
		f:     o.f,
		str:   bytes.Clone(o.str),
		name:  o.name,
		ref:   o.ref,
		data:  bytes.Clone(o.data),
	}
	if o.typ == TypeReference {
		c.doc = o.doc
	}
	switch o.typ {
	case TypeArray:
		c.elems = make([]*Object, len(o.elems))
		for i, elem := range o.elems {
			c.elems[i] = elem.Clone()
			c.elems[i].parent = c
		}
	case TypeDictionary:
		c.entries = make([]dictEntry, len(o.entries))
		for i, e := range o.entries {
			val := e.val.Clone()
			val.parent = c
			c.entries[i] = dictEntry{key: e.key, val: val}
		}
	case TypeStream:
		c.sdict = o.sdict.Clone()
		c.sdict.parent = c
	}
	c.inheritDoc()
	return c
}

// inheritDoc sets the document of a freshly built tree from the references
// it contains.
func (o *Object) inheritDoc() {
	var doc *Document
	o.walk(func(x *Object) {
		if doc == nil && x.doc != nil {
			doc = x.doc
		}
	})
	if doc != nil {
		o.walk(func(x *Object) { x.doc = doc })
	}
}

// DeepClone returns a self-contained copy of o.  References are resolved
// and the referenced objects are copied as direct objects, so that the
// result does not depend on any document.  A reference which would
// introduce a cycle is replaced by null.
func (o *Object) DeepClone() *Object {
	return o.deepClone(make(map[*Object]bool))
}

func (o *Object) deepClone(active map[*Object]bool) *Object {
	if o == nil {
		return nil
	}
	if o.typ == TypeReference {
		target := o.Direct()
		if target == nil {
			return NewNull()
		}
		if active[target] {
			slog.Debug("cycle replaced by null", slog.String("ref", o.ref.String()))
			return NewNull()
		}
		active[target] = true
		c := target.deepClone(active)
		delete(active, target)
		return c
	}

	c := &Object{
		typ:   o.typ,
		b:     o.b,
		isInt: o.isInt,
		i:     o.i,
		f:     o.f,
		str:   bytes.Clone(o.str),
		name:  o.name,
		data:  bytes.Clone(o.data),
	}
	switch o.typ {
	case TypeArray:
		c.elems = make([]*Object, len(o.elems))
		for i, elem := range o.elems {
			c.elems[i] = elem.deepClone(active)
			c.elems[i].parent = c
		}
	case TypeDictionary:
		c.entries = make([]dictEntry, len(o.entries))
		for i, e := range o.entries {
			val := e.val.deepClone(active)
			val.parent = c
			c.entries[i] = dictEntry{key: e.key, val: val}
		}
	case TypeStream:
		c.sdict = o.sdict.deepClone(active)
		c.sdict.parent = c
	}
	return c
}

// IsIdentical reports whether o and other denote the same PDF object: the
// same node, references to the same indirect object, a reference and its
// target, or scalars with equal type and value.  Containers are never
// compared by content.
func (o *Object) IsIdentical(other *Object) bool {
	if o == other {
		return true
	}
	if o == nil || other == nil {
		return false
	}

	if o.typ == TypeReference || other.typ == TypeReference {
		a, b := o.indirectKey(), other.indirectKey()
		return a.doc != nil && a == b
	}

	if o.typ != other.typ {
		return false
	}
	switch o.typ {
	case TypeBoolean:
		return o.b == other.b
	case TypeNumber:
		if o.isInt && other.isInt {
			return o.i == other.i
		}
		return o.Float() == other.Float()
	case TypeString:
		return bytes.Equal(o.str, other.str)
	case TypeName:
		return o.name == other.name
	case TypeNull:
		return true
	}
	return false
}

type indirectKey struct {
	doc *Document
	ref Ref
}

func (o *Object) indirectKey() indirectKey {
	switch {
	case o.typ == TypeReference:
		return indirectKey{o.doc, o.ref}
	case o.num != 0:
		return indirectKey{o.doc, NewRef(o.num, o.gen)}
	}
	return indirectKey{}
}

func (o *Object) String() string {
	if o == nil {
		return "<nil>"
	}
	if o.released {
		return "<released " + o.typ.String() + ">"
	}
	var sb strings.Builder
	_ = writeObject(&sb, o, nil)
	return sb.String()
}

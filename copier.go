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

// A Copier is used to copy objects from one document to another.  The
// Copier keeps track of the indirect objects that have already been copied
// and ensures that each object is copied only once.
//
// Indirect objects are allocated in the target document as needed, and
// references are translated accordingly.
type Copier struct {
	trans map[uint32]uint32
	src   *Document
	dst   *Document
}

// NewCopier creates a new Copier.
func NewCopier(dst, src *Document) *Copier {
	return &Copier{
		trans: make(map[uint32]uint32),
		src:   src,
		dst:   dst,
	}
}

// Copy copies an object from the source document to the target document,
// recursively.  The result is a new direct object which is not yet
// attached to anything.  References are replaced by references to copies
// of their targets.
func (c *Copier) Copy(o *Object) (*Object, error) {
	if o == nil {
		return nil, nil
	}
	if o.released {
		return nil, ErrReleased
	}
	switch o.typ {
	case TypeReference:
		num, err := c.CopyIndirect(o.ref.Number())
		if err != nil {
			return nil, err
		}
		if num == 0 {
			return NewNull(), nil
		}
		return NewReference(c.dst, num), nil
	case TypeArray:
		res := NewArray()
		err := c.fillArray(res, o.Array())
		if err != nil {
			return nil, err
		}
		return res.Object(), nil
	case TypeDictionary:
		res := NewDict()
		err := c.fillDict(res, o.Dict())
		if err != nil {
			return nil, err
		}
		return res.Object(), nil
	case TypeStream:
		res, err := NewStream(nil)
		if err != nil {
			return nil, err
		}
		err = c.fillStream(res, o.Stream())
		if err != nil {
			return nil, err
		}
		return res.Object(), nil
	default:
		res := o.Clone()
		return res, nil
	}
}

// CopyIndirect copies the indirect object num of the source document and
// returns the object number of the copy.  Zero is returned if the object
// does not exist.
func (c *Copier) CopyIndirect(num uint32) (uint32, error) {
	if newNum, ok := c.trans[num]; ok {
		return newNum, nil
	}
	o := c.src.GetIndirectObject(num)
	if o == nil {
		return 0, nil
	}

	// Containers are registered before they are filled, so that cycles
	// are mapped to the new object.
	var res *Object
	var fill func() error
	switch o.typ {
	case TypeArray:
		a := NewArray()
		res, fill = a.Object(), func() error { return c.fillArray(a, o.Array()) }
	case TypeDictionary:
		d := NewDict()
		res, fill = d.Object(), func() error { return c.fillDict(d, o.Dict()) }
	case TypeStream:
		s, err := NewStream(nil)
		if err != nil {
			return 0, err
		}
		res, fill = s.Object(), func() error { return c.fillStream(s, o.Stream()) }
	default:
		res = o.Clone()
	}

	newNum, err := c.dst.AddIndirectObject(res)
	if err != nil {
		return 0, err
	}
	c.trans[num] = newNum
	if fill != nil {
		err = fill()
		if err != nil {
			return 0, err
		}
	}
	return newNum, nil
}

// Redirect causes references to the source object srcNum to be translated
// into references to dstNum.
func (c *Copier) Redirect(srcNum, dstNum uint32) {
	c.trans[srcNum] = dstNum
}

func (c *Copier) fillArray(res, a *Array) error {
	for _, elem := range a.All() {
		repl, err := c.Copy(elem)
		if err != nil {
			return err
		}
		err = res.Add(repl)
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Copier) fillDict(res, d *Dict) error {
	for key, val := range d.All() {
		repl, err := c.Copy(val)
		if err != nil {
			return err
		}
		err = res.SetAt(key, repl)
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Copier) fillStream(res, s *Stream) error {
	err := c.fillDict(res.Dict(), s.Dict())
	if err != nil {
		return err
	}
	res.data = append([]byte(nil), s.data...)
	res.Dict().SetInteger("Length", int64(len(res.data)))
	return nil
}

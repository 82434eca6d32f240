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

// Package compliance converts documents between PDF versions and prepares
// documents for archiving as PDF/A.
//
// The conversions are mechanical: features which are not available in the
// target version are removed from the document.  No attempt is made to
// verify that the result conforms to the target standard.
package compliance

import (
	"errors"
	"fmt"
	"log/slog"

	"seehuhn.de/go/pdfsdk"
	"seehuhn.de/go/pdfsdk/metadata"
	"seehuhn.de/go/pdfsdk/security"
)

// objectsPerStep is the number of indirect objects processed between two
// checks of the pause callback.
const objectsPerStep = 256

var errInvalidVersion = errors.New("invalid PDF version")

// A feature is a part of the PDF format which was introduced in a given
// version.
type feature struct {
	name  string
	since pdf.Version

	// catalog lists the catalog entries which belong to the feature.
	catalog []pdf.Name

	// keys lists dictionary entries which belong to the feature, wherever
	// they occur.
	keys []pdf.Name

	// strip removes the feature from a single dictionary.  It reports
	// whether the dictionary was changed.
	strip func(d *pdf.Dict) bool
}

var features = []*feature{
	{
		name:    "structure tree",
		since:   pdf.V1_3,
		catalog: []pdf.Name{"StructTreeRoot", "MarkInfo"},
		keys:    []pdf.Name{"StructParents", "StructParent"},
	},
	{
		name:    "XMP metadata",
		since:   pdf.V1_4,
		catalog: []pdf.Name{"Metadata"},
		keys:    []pdf.Name{"Metadata"},
	},
	{
		name:  "transparency",
		since: pdf.V1_4,
		strip: stripTransparency,
	},
	{
		name:    "optional content",
		since:   pdf.V1_5,
		catalog: []pdf.Name{"OCProperties"},
		keys:    []pdf.Name{"OC"},
	},
	{
		name:    "portable collections",
		since:   pdf.V1_7,
		catalog: []pdf.Name{"Collection", "Requirements"},
	},
	{
		name:    "associated files",
		since:   pdf.V2_0,
		catalog: []pdf.Name{"AF", "DPartRoot"},
		keys:    []pdf.Name{"AF"},
	},
}

// stripTransparency removes transparency groups, soft masks and the
// transparency parameters of graphics state parameter dictionaries.
func stripTransparency(d *pdf.Dict) bool {
	changed := false
	if g := d.GetDict("Group"); g != nil && g.GetName("S") == "Transparency" {
		d.Remove("Group")
		changed = true
	}
	if sm := d.GetDirect("SMask"); sm != nil && sm.Name() != "None" {
		d.Remove("SMask")
		changed = true
	}
	if d.GetName("Type") == "ExtGState" {
		for _, key := range []pdf.Name{"BM", "CA", "ca", "AIS", "TK"} {
			if d.Has(key) {
				d.Remove(key)
				changed = true
			}
		}
	}
	return changed
}

// ConvertVersion changes the PDF version of doc to v.  When the version is
// lowered, features which are not available in v are removed from the
// document.  Raising the version to 2.0 moves the document information
// into the XMP metadata stream.
//
// Encrypted documents can only be converted if the cipher is available in
// the target version.  Object streams and cross-reference streams are
// chosen by the writer based on the document version, so no conversion is
// needed for them.
func ConvertVersion(doc *pdf.Document, v pdf.Version, pause pdf.PauseCallback) (*pdf.Progressive, error) {
	if _, err := v.ToString(); err != nil {
		return nil, fmt.Errorf("%w: %d", errInvalidVersion, int(v))
	}
	if err := checkEncryption(doc, v); err != nil {
		return nil, err
	}

	c := &converter{doc: doc, from: doc.Version(), to: v}
	for _, f := range features {
		if f.since > v {
			c.remove = append(c.remove, f)
		}
	}
	if c.from >= pdf.V1_5 && v < pdf.V1_5 {
		slog.Debug("object streams will not be used", slog.String("version", v.String()))
	}
	for num := range doc.Objects() {
		c.nums = append(c.nums, num)
	}

	return pdf.NewProgressive(pause, c.catalog, c.objects, c.finish), nil
}

// checkEncryption returns an error if the encryption of doc cannot be
// expressed in PDF version v.
func checkEncryption(doc *pdf.Document, v pdf.Version) error {
	info, err := security.ReadEncryptInfo(doc)
	if errors.Is(err, security.ErrNotEncrypted) {
		return nil
	} else if err != nil {
		return err
	}

	var need pdf.Version
	switch {
	case info.Cipher == security.CipherAES && info.KeyLength > 16:
		need = pdf.V2_0
	case info.Cipher == security.CipherAES:
		need = pdf.V1_6
	case info.Cipher == security.CipherRC4 && info.KeyLength > 5:
		need = pdf.V1_4
	default:
		need = pdf.V1_1
	}
	if v < need {
		return fmt.Errorf("%w: %s-%d encryption needs PDF %s",
			pdf.ErrUnsupported, info.Cipher, 8*info.KeyLength, need)
	}
	return nil
}

type converter struct {
	doc      *pdf.Document
	from, to pdf.Version
	remove   []*feature

	nums []uint32
	pos  int

	stripped map[string]int
}

func (c *converter) catalog() (bool, error) {
	cat := c.doc.Catalog()
	for _, f := range c.remove {
		for _, key := range f.catalog {
			if !cat.Has(key) {
				continue
			}
			if err := c.removeKey(cat, key); err != nil {
				return false, err
			}
			c.count(f)
		}
	}
	return true, nil
}

func (c *converter) objects() (bool, error) {
	if len(c.remove) == 0 {
		return true, nil
	}
	end := min(c.pos+objectsPerStep, len(c.nums))
	for _, num := range c.nums[c.pos:end] {
		obj := c.doc.GetIndirectObject(num)
		if obj == nil {
			// deleted while removing an earlier feature
			continue
		}
		var err error
		eachDict(obj, func(d *pdf.Dict) {
			for _, f := range c.remove {
				for _, key := range f.keys {
					if d.Has(key) {
						if e := c.removeKey(d, key); e != nil && err == nil {
							err = e
						}
						c.count(f)
					}
				}
				if f.strip != nil && f.strip(d) {
					c.count(f)
				}
			}
		})
		if err != nil {
			return false, err
		}
	}
	c.pos = end
	return c.pos >= len(c.nums), nil
}

func (c *converter) finish() (bool, error) {
	for name, n := range c.stripped {
		slog.Info("feature removed",
			slog.String("feature", name), slog.Int("count", n),
			slog.String("version", c.to.String()))
	}

	c.doc.SetVersion(c.to)

	cat := c.doc.Catalog()
	if c.to >= pdf.V2_0 || cat.Has("Metadata") {
		// updates pdf:PDFVersion
		if err := metadata.New(c.doc).SyncXMP(); err != nil {
			return false, err
		}
	}
	return true, nil
}

// removeKey removes key from d.  If the value is a reference to a metadata
// stream, the stream is deleted as well.
func (c *converter) removeKey(d *pdf.Dict, key pdf.Name) error {
	val := d.Get(key)
	if val.Type() == pdf.TypeReference && key == "Metadata" {
		num := val.Target().Number()
		if err := d.Remove(key); err != nil {
			return err
		}
		if c.doc.GetIndirectObject(num) != nil {
			return c.doc.DeleteIndirectObject(num)
		}
		return nil
	}
	return d.Remove(key)
}

func (c *converter) count(f *feature) {
	if c.stripped == nil {
		c.stripped = make(map[string]int)
	}
	c.stripped[f.name]++
}

// eachDict calls fn for every dictionary contained in o, including stream
// dictionaries.  References are not followed.
func eachDict(o *pdf.Object, fn func(*pdf.Dict)) {
	switch o.Type() {
	case pdf.TypeDictionary:
		d := o.Dict()
		fn(d)
		for _, val := range d.All() {
			eachDict(val, fn)
		}
	case pdf.TypeStream:
		d := o.Stream().Dict()
		fn(d)
		for _, val := range d.All() {
			eachDict(val, fn)
		}
	case pdf.TypeArray:
		for _, val := range o.Array().All() {
			eachDict(val, fn)
		}
	}
}

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

package compliance

import (
	"errors"
	"fmt"
	"log/slog"

	"seehuhn.de/go/icc"
	"seehuhn.de/go/xmp"

	"seehuhn.de/go/pdfsdk"
	"seehuhn.de/go/pdfsdk/action"
	"seehuhn.de/go/pdfsdk/metadata"
	"seehuhn.de/go/pdfsdk/nametree"
	"seehuhn.de/go/pdfsdk/security"
)

// Conformance is a PDF/A conformance level.
type Conformance string

// These are the PDF/A conformance levels.
const (
	LevelA Conformance = "A" // accessible
	LevelB Conformance = "B" // basic
	LevelU Conformance = "U" // Unicode
	LevelE Conformance = "E" // engineering, PDF/A-4 only
	LevelF Conformance = "F" // embedded files, PDF/A-4 only
)

var (
	errPart        = errors.New("invalid PDF/A part")
	errConformance = errors.New("invalid PDF/A conformance level")
	errNotTagged   = errors.New("PDF/A level A needs a tagged document")
)

// Options controls the PDF/A conversion.
type Options struct {
	// Library must have the compliance module enabled.
	Library *pdf.Library

	// OutputIntent is the ICC profile used for the output intent of the
	// document.  If this is nil, an sRGB profile is used.
	OutputIntent []byte

	// OutputCondition describes the intended output device.
	OutputCondition string
}

// PDFAID is the XMP namespace for PDF/A identification.
type PDFAID struct {
	_           xmp.Namespace `xmp:"http://www.aiim.org/pdfa/ns/id/"`
	_           xmp.Prefix    `xmp:"pdfaid"`
	Part        xmp.Text      `xmp:"part"`
	Conformance xmp.Text      `xmp:"conformance"`
	Rev         xmp.Text      `xmp:"rev"`
}

// forbiddenActions lists the action types which are not allowed in
// PDF/A files.
var forbiddenActions = map[pdf.Name]bool{
	pdf.Name(action.TypeLaunch):     true,
	pdf.Name(action.TypeJavaScript): true,
	pdf.Name(action.TypeImportData): true,
	pdf.Name(action.TypeResetForm):  true,
	pdf.Name(action.TypeHide):       true,
	pdf.Name(action.TypeRendition):  true,
	"Sound":                         true,
	"Movie":                         true,
	"SetOCGState":                   true,
	"Trans":                         true,
	"GoTo3DView":                    true,
}

// forbiddenAnnots lists the annotation types which are removed from the
// pages.
var forbiddenAnnots = map[pdf.Name]bool{
	"Sound":     true,
	"Movie":     true,
	"Screen":    true,
	"3D":        true,
	"RichMedia": true,
}

// Annotation flags, see ISO 32000-2, table 167.
const (
	annotInvisible    = 1 << 0
	annotHidden       = 1 << 1
	annotPrint        = 1 << 2
	annotNoView       = 1 << 5
	annotToggleNoView = 1 << 8
)

// ConvertToPDFA prepares doc for archiving as PDF/A-part, with the given
// conformance level.
//
// The conversion removes encryption, JavaScript and other forbidden
// actions, multimedia annotations and, for parts 1 and 2, embedded files.
// The PDF version is adjusted to the part, an output intent is added, and
// the PDF/A identification is written to the XMP metadata.  Fonts and
// content streams are not changed, so the result is not guaranteed to
// conform.
func ConvertToPDFA(doc *pdf.Document, part int, conformance Conformance, opts *Options, pause pdf.PauseCallback) (*pdf.Progressive, error) {
	if opts == nil {
		opts = &Options{}
	}
	if err := opts.Library.Require(pdf.ModuleCompliance); err != nil {
		return nil, err
	}
	if err := checkLevel(part, conformance); err != nil {
		return nil, err
	}
	if conformance == LevelA && !doc.Catalog().Has("StructTreeRoot") {
		return nil, errNotTagged
	}

	err := security.RemoveSecurity(doc)
	if err != nil && !errors.Is(err, security.ErrNotEncrypted) {
		return nil, err
	}

	profile := opts.OutputIntent
	if profile == nil {
		profile = srgbProfile()
	}
	p, err := icc.Decode(profile)
	if err != nil {
		return nil, fmt.Errorf("output intent: %w", err)
	}

	c := &pdfaConverter{
		doc:         doc,
		part:        part,
		conformance: conformance,
		profile:     profile,
		components:  p.ColorSpace.NumComponents(),
		condition:   opts.OutputCondition,
		pause:       pause,
		log:         opts.Library.Logger(),
	}
	if c.condition == "" {
		c.condition = "sRGB IEC61966-2.1"
	}
	switch part {
	case 1:
		c.target = pdf.V1_4
	case 2, 3:
		c.target = min(max(doc.Version(), pdf.V1_4), pdf.V1_7)
	default:
		c.target = pdf.V2_0
	}

	return pdf.NewProgressive(pause, c.catalog, c.version, c.objects, c.finish), nil
}

func checkLevel(part int, conformance Conformance) error {
	var ok bool
	switch part {
	case 1:
		ok = conformance == LevelA || conformance == LevelB
	case 2, 3:
		ok = conformance == LevelA || conformance == LevelB || conformance == LevelU
	case 4:
		ok = conformance == "" || conformance == LevelE || conformance == LevelF
	default:
		return fmt.Errorf("%w: %d", errPart, part)
	}
	if !ok {
		return fmt.Errorf("%w: PDF/A-%d%s", errConformance, part, conformance)
	}
	return nil
}

type pdfaConverter struct {
	doc         *pdf.Document
	part        int
	conformance Conformance
	target      pdf.Version

	profile    []byte
	components int
	condition  string

	pause pdf.PauseCallback
	log   *slog.Logger

	conv *pdf.Progressive
	nums []uint32
	pos  int
}

func (c *pdfaConverter) catalog() (bool, error) {
	cat := c.doc.Catalog()
	cat.Remove("AA")
	if a := cat.GetDict("OpenAction"); a != nil && forbiddenActions[a.GetName("S")] {
		cat.Remove("OpenAction")
	}

	remove := []nametree.Kind{nametree.JavaScript}
	if c.part <= 2 {
		remove = append(remove, nametree.EmbeddedFiles)
	}
	names := cat.GetDict("Names")
	for _, kind := range remove {
		t := nametree.Find(c.doc, kind)
		if t == nil {
			continue
		}
		c.log.Debug("removing name tree",
			slog.String("kind", string(kind)), slog.Int("count", t.Count()))
		t.RemoveAll()
		names.Remove(pdf.Name(kind))
		if num := t.Dict().Object().ObjNum(); num != 0 {
			if err := c.doc.DeleteIndirectObject(num); err != nil {
				return false, err
			}
		}
	}
	return true, nil
}

// version runs the version conversion as part of the PDF/A conversion.
func (c *pdfaConverter) version() (bool, error) {
	if c.conv == nil {
		conv, err := ConvertVersion(c.doc, c.target, c.pause)
		if err != nil {
			return false, err
		}
		c.conv = conv
	}
	state, err := c.conv.Continue()
	if err != nil {
		return false, err
	}
	if state != pdf.StateFinished {
		return false, nil
	}

	for num := range c.doc.Objects() {
		c.nums = append(c.nums, num)
	}
	return true, nil
}

func (c *pdfaConverter) objects() (bool, error) {
	end := min(c.pos+objectsPerStep, len(c.nums))
	for _, num := range c.nums[c.pos:end] {
		obj := c.doc.GetIndirectObject(num)
		if obj == nil {
			continue
		}
		eachDict(obj, c.fixDict)
	}
	c.pos = end
	return c.pos >= len(c.nums), nil
}

// fixDict removes forbidden actions from d and adjusts annotations and
// images.
func (c *pdfaConverter) fixDict(d *pdf.Dict) {
	d.Remove("AA")
	if a := d.GetDict("A"); a != nil && forbiddenActions[a.GetName("S")] {
		d.Remove("A")
	}
	if next := d.GetDirect("Next"); next != nil {
		switch {
		case next.Dict() != nil && forbiddenActions[next.Dict().GetName("S")]:
			d.Remove("Next")
		case next.Array() != nil:
			arr := next.Array()
			for i := arr.Len() - 1; i >= 0; i-- {
				if forbiddenActions[arr.GetDirect(i).Dict().GetName("S")] {
					arr.RemoveAt(i)
				}
			}
		}
	}

	if annots := d.GetArray("Annots"); annots != nil {
		for i := annots.Len() - 1; i >= 0; i-- {
			subtype := annots.GetDirect(i).Dict().GetName("Subtype")
			if forbiddenAnnots[subtype] || subtype == "FileAttachment" && c.part <= 2 {
				annots.RemoveAt(i)
			}
		}
	}

	if c.part == 1 {
		stripTransparency(d)
	}

	if isAnnotation(d) && d.GetName("Subtype") != "Popup" {
		f := d.GetInteger("F")
		f &^= annotInvisible | annotHidden | annotNoView | annotToggleNoView
		f |= annotPrint
		d.SetInteger("F", f)
	}

	if d.GetName("Subtype") == "Image" && d.GetDirect("Interpolate").Bool() {
		d.SetBool("Interpolate", false)
	}
}

func isAnnotation(d *pdf.Dict) bool {
	if d.GetName("Type") == "Annot" {
		return true
	}
	return d.Has("Rect") && d.Has("Subtype") && d.GetName("Type") == ""
}

func (c *pdfaConverter) finish() (bool, error) {
	if err := c.addOutputIntent(); err != nil {
		return false, err
	}

	m := metadata.New(c.doc)
	if err := m.SyncXMP(); err != nil {
		return false, err
	}
	packet, err := m.XMP()
	if err != nil {
		return false, err
	}
	id := &PDFAID{
		Part: xmp.NewText(fmt.Sprint(c.part)),
	}
	if c.conformance != "" {
		id.Conformance = xmp.NewText(string(c.conformance))
	}
	if c.part >= 4 {
		id.Rev = xmp.NewText("2020")
	}
	if err := packet.Set(id); err != nil {
		return false, err
	}
	if err := m.SetXMP(packet); err != nil {
		return false, err
	}

	c.doc.FileID()
	return true, nil
}

// addOutputIntent adds a PDF/A output intent to the catalog, unless one is
// present already.
func (c *pdfaConverter) addOutputIntent() error {
	cat := c.doc.Catalog()
	intents := cat.GetArray("OutputIntents")
	for _, intent := range intents.All() {
		if intent.Direct().Dict().GetName("S") == "GTS_PDFA1" {
			return nil
		}
	}

	stmDict := pdf.NewDict()
	stmDict.SetInteger("N", int64(c.components))
	stm, err := pdf.NewStream(stmDict)
	if err != nil {
		return err
	}
	if err := stm.SetFilters(pdf.FilterFlate{}); err != nil {
		return err
	}
	if err := stm.SetData(c.profile); err != nil {
		return err
	}
	profileNum, err := c.doc.AddIndirectObject(stm.Object())
	if err != nil {
		return err
	}

	intent := pdf.NewDict()
	intent.SetName("Type", "OutputIntent")
	intent.SetName("S", "GTS_PDFA1")
	intent.SetText("OutputConditionIdentifier", c.condition)
	intent.SetText("Info", c.condition)
	err = intent.SetAt("DestOutputProfile", pdf.NewReference(c.doc, profileNum))
	if err != nil {
		return err
	}

	if intents == nil {
		intents = pdf.NewArray()
		if err := cat.SetAt("OutputIntents", intents.Object()); err != nil {
			return err
		}
	}
	return intents.Add(intent.Object())
}

// IdentifyPDFA returns the PDF/A part and conformance level recorded in the
// XMP metadata of doc.  If the document has no PDF/A identification, part
// is 0.
func IdentifyPDFA(doc *pdf.Document) (part int, conformance Conformance, err error) {
	packet, err := metadata.New(doc).XMP()
	if err != nil || packet == nil {
		return 0, "", err
	}
	id := &PDFAID{}
	packet.Get(id)
	if _, err := fmt.Sscan(id.Part.V, &part); err != nil {
		return 0, "", nil
	}
	return part, Conformance(id.Conformance.V), nil
}

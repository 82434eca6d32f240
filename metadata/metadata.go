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

// Package metadata gives access to the document metadata.
//
// PDF documents store metadata in two places: the document information
// dictionary (/Info in the trailer), and an XMP metadata stream
// (/Metadata in the document catalog).  [Metadata] reads and writes the
// information dictionary, and [Metadata.SyncXMP] copies its entries into
// the XMP stream so that both agree.
package metadata

import (
	"bytes"
	"errors"
	"slices"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/text/language"
	"seehuhn.de/go/pdfsdk"
	"seehuhn.de/go/xmp"
)

// These are the standard keys of the document information dictionary.
const (
	Title        pdf.Name = "Title"
	Author       pdf.Name = "Author"
	Subject      pdf.Name = "Subject"
	Keywords     pdf.Name = "Keywords"
	Creator      pdf.Name = "Creator"
	Producer     pdf.Name = "Producer"
	CreationDate pdf.Name = "CreationDate"
	ModDate      pdf.Name = "ModDate"
	Trapped      pdf.Name = "Trapped"
)

var errNotText = errors.New("metadata entry is not a text string")

// Metadata is the view of the metadata of a document.
type Metadata struct {
	doc *pdf.Document
}

// New returns the metadata view of doc.
func New(doc *pdf.Document) *Metadata {
	return &Metadata{doc: doc}
}

// IsEmpty reports whether the document has neither information dictionary
// entries nor an XMP stream.
func (m *Metadata) IsEmpty() bool {
	return m.doc.Info(false).Len() == 0 && m.stream() == nil
}

// Keys returns the keys of the information dictionary in sorted order.
func (m *Metadata) Keys() []pdf.Name {
	info := m.doc.Info(false)
	if info == nil {
		return nil
	}
	set := make(map[pdf.Name]bool)
	for key, val := range info.All() {
		if val.Direct() != nil {
			set[key] = true
		}
	}
	keys := maps.Keys(set)
	slices.Sort(keys)
	return keys
}

// Value returns the value of an entry of the information dictionary.
// Text strings are decoded, names (as used for /Trapped) are returned
// as their string value.
func (m *Metadata) Value(key pdf.Name) string {
	val := m.doc.Info(false).GetDirect(key)
	switch val.Type() {
	case pdf.TypeString:
		return val.Text()
	case pdf.TypeName:
		return string(val.Name())
	}
	return ""
}

// SetValue changes an entry of the information dictionary.  An empty
// value removes the entry.  Dates must be set using [Metadata.SetCreationDate]
// and [Metadata.SetModDate].
func (m *Metadata) SetValue(key pdf.Name, text string) error {
	if text == "" {
		return m.RemoveKey(key)
	}
	switch key {
	case CreationDate, ModDate:
		return errNotText
	case Trapped:
		switch text {
		case "True", "False", "Unknown":
		default:
			return errors.New("invalid /Trapped value " + text)
		}
		m.doc.Info(true).SetName(key, pdf.Name(text))
		return nil
	}
	m.doc.Info(true).SetText(key, text)
	return nil
}

// RemoveKey removes an entry from the information dictionary.
func (m *Metadata) RemoveKey(key pdf.Name) error {
	info := m.doc.Info(false)
	if info == nil {
		return nil
	}
	return info.Remove(key)
}

// CreationDate returns the creation date of the document, or the zero
// time if no valid date is set.
func (m *Metadata) CreationDate() time.Time {
	return m.doc.Info(false).GetDirect(CreationDate).Date()
}

// SetCreationDate sets the creation date of the document.
func (m *Metadata) SetCreationDate(t time.Time) {
	m.doc.Info(true).SetDate(CreationDate, t)
}

// ModDate returns the modification date of the document, or the zero
// time if no valid date is set.
func (m *Metadata) ModDate() time.Time {
	return m.doc.Info(false).GetDirect(ModDate).Date()
}

// SetModDate sets the modification date of the document.
func (m *Metadata) SetModDate(t time.Time) {
	m.doc.Info(true).SetDate(ModDate, t)
}

func (m *Metadata) stream() *pdf.Stream {
	return m.doc.Catalog().GetDirect("Metadata").Stream()
}

// XMP returns the XMP packet of the document.  If the document has no
// metadata stream, the result is nil.
func (m *Metadata) XMP() (*xmp.Packet, error) {
	stm := m.stream()
	if stm == nil {
		return nil, nil
	}
	r, err := stm.Reader(false)
	if err != nil {
		return nil, err
	}
	return xmp.Read(r)
}

// SetXMP replaces the XMP metadata stream of the document.  The stream is
// stored without compression, so that the packet can be found by tools
// which do not parse PDF.
func (m *Metadata) SetXMP(packet *xmp.Packet) error {
	if packet == nil {
		return m.doc.Catalog().Remove("Metadata")
	}
	buf := &bytes.Buffer{}
	err := packet.Write(buf, &xmp.PacketOptions{Pretty: true})
	if err != nil {
		return err
	}

	if stm := m.stream(); stm != nil {
		if err := stm.SetFilters(); err != nil {
			return err
		}
		return stm.SetData(buf.Bytes())
	}

	dict := pdf.NewDict()
	dict.SetName("Type", "Metadata")
	dict.SetName("Subtype", "XML")
	stm, err := pdf.NewStream(dict)
	if err != nil {
		return err
	}
	if err := stm.SetData(buf.Bytes()); err != nil {
		return err
	}
	num, err := m.doc.AddIndirectObject(stm.Object())
	if err != nil {
		return err
	}
	m.doc.Catalog().SetRef("Metadata", num)
	return nil
}

// PDFInfo is the XMP namespace for PDF specific metadata.
type PDFInfo struct {
	_          xmp.Namespace `xmp:"http://ns.adobe.com/pdf/1.3/"`
	_          xmp.Prefix    `xmp:"pdf"`
	Keywords   xmp.Text
	PDFVersion xmp.Text
	Producer   xmp.AgentName
	Trapped    xmp.Text
}

// BasicInfo is the XMP basic namespace.
type BasicInfo struct {
	_            xmp.Namespace `xmp:"http://ns.adobe.com/xap/1.0/"`
	_            xmp.Prefix    `xmp:"xmp"`
	CreateDate   xmp.Date
	ModifyDate   xmp.Date
	MetadataDate xmp.Date
	CreatorTool  xmp.AgentName
}

// SyncXMP copies the entries of the information dictionary into the XMP
// metadata stream, creating the stream if necessary.  Properties of the
// existing packet which have no counterpart in the information
// dictionary are kept.
//
// Localized properties are stored as the default value, and in addition
// for the document language given by /Lang in the catalog.
func (m *Metadata) SyncXMP() error {
	packet, err := m.XMP()
	if err != nil || packet == nil {
		packet = xmp.NewPacket()
	}

	var lang []language.Tag
	if tag, err := language.Parse(m.doc.Catalog().GetText("Lang")); err == nil && tag != language.Und {
		lang = append(lang, tag)
	}

	dc := &xmp.DublinCore{}
	packet.Get(dc)
	if title := m.Value(Title); title != "" {
		setLocalized(&dc.Title, title, lang)
	}
	if subject := m.Value(Subject); subject != "" {
		setLocalized(&dc.Description, subject, lang)
	}
	if author := m.Value(Author); author != "" && dc.Creator.IsZero() {
		dc.Creator.Append(xmp.NewProperName(author))
	}

	info := &PDFInfo{}
	packet.Get(info)
	info.PDFVersion = xmp.NewText(m.doc.Version().String())
	if v := m.Value(Keywords); v != "" {
		info.Keywords = xmp.NewText(v)
	}
	if v := m.Value(Producer); v != "" {
		info.Producer = xmp.NewAgentName(v)
	}
	if v := m.Value(Trapped); v != "" {
		info.Trapped = xmp.NewText(v)
	}

	basic := &BasicInfo{}
	packet.Get(basic)
	if t := m.CreationDate(); !t.IsZero() {
		basic.CreateDate = xmp.NewDate(t)
	}
	if t := m.ModDate(); !t.IsZero() {
		basic.ModifyDate = xmp.NewDate(t)
	}
	basic.MetadataDate = xmp.NewDate(time.Now())
	if v := m.Value(Creator); v != "" {
		basic.CreatorTool = xmp.NewAgentName(v)
	}

	if err := packet.Set(dc, info, basic); err != nil {
		return err
	}
	return m.SetXMP(packet)
}

func setLocalized(l *xmp.Localized, text string, lang []language.Tag) {
	l.Set(language.Und, text)
	for _, tag := range lang {
		l.Set(tag, text)
	}
}

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

// Package security implements the encryption of PDF documents.
//
// A [Handler] describes how a document is encrypted.  The standard
// security handler ([StdHandler]) protects a document with a user and an
// owner password.  The remaining handlers obtain the file encryption key,
// or the complete transformation of the data, from the host application.
//
// Encryption is applied when the document is saved: [Encrypt] installs the
// encryption dictionary and a [pdf.Crypter] in the document.  To read an
// encrypted document, pass the DecryptFunc of a handler in
// [pdf.LoadOptions].
package security

import (
	"errors"
	"fmt"
	"strings"

	"seehuhn.de/go/pdfsdk"
)

// HandlerType identifies the kind of security handler.
type HandlerType int

// These are the supported security handlers.
const (
	HandlerNone HandlerType = iota
	HandlerStandard
	HandlerCertificate
	HandlerDRM
	HandlerCustom
	HandlerRMS
)

func (t HandlerType) String() string {
	switch t {
	case HandlerNone:
		return "none"
	case HandlerStandard:
		return "Standard"
	case HandlerCertificate:
		return "Certificate"
	case HandlerDRM:
		return "DRM"
	case HandlerCustom:
		return "Custom"
	case HandlerRMS:
		return "RMS"
	default:
		return fmt.Sprintf("handler#%d", int(t))
	}
}

// Cipher is the encryption algorithm applied to strings and streams.
type Cipher int

// These are the supported ciphers.
const (
	CipherNone Cipher = iota
	CipherRC4
	CipherAES
)

func (c Cipher) String() string {
	switch c {
	case CipherNone:
		return "none"
	case CipherRC4:
		return "RC4"
	case CipherAES:
		return "AES"
	default:
		return fmt.Sprintf("cipher#%d", int(c))
	}
}

// CheckKeyLength verifies that keyBytes is a valid key length for the
// cipher.  RC4 allows keys of 5 to 16 bytes, AES keys have 16 or 32 bytes.
func CheckKeyLength(c Cipher, keyBytes int) error {
	switch c {
	case CipherRC4:
		if keyBytes < 5 || keyBytes > 16 {
			return fmt.Errorf("%w: RC4 with %d byte key", ErrKeyLength, keyBytes)
		}
	case CipherAES:
		if keyBytes != 16 && keyBytes != 32 {
			return fmt.Errorf("%w: AES with %d byte key", ErrKeyLength, keyBytes)
		}
	default:
		return fmt.Errorf("%w: %s", ErrCipher, c)
	}
	return nil
}

// Permissions describes the operations which are allowed when a document is
// opened with user access.  The bits have the positions used in the /P
// entry of the encryption dictionary.
//
// The permissions are only reported, it is up to the viewer to enforce them.
type Permissions uint32

// These are the permission bits.
const (
	// PermPrint allows printing, possibly at degraded quality unless
	// PermPrintHigh is also set.
	PermPrint Permissions = 1 << 2

	// PermModify allows modifications other than those controlled by
	// PermAnnotForm, PermFillForm and PermAssemble.
	PermModify Permissions = 1 << 3

	// PermExtract allows copying text and graphics.
	PermExtract Permissions = 1 << 4

	// PermAnnotForm allows adding and modifying annotations and filling in
	// form fields.
	PermAnnotForm Permissions = 1 << 5

	// PermFillForm allows filling in form fields, even if PermAnnotForm is
	// not set.
	PermFillForm Permissions = 1 << 8

	// PermExtractAccess allows extracting text and graphics for
	// accessibility purposes.
	PermExtractAccess Permissions = 1 << 9

	// PermAssemble allows inserting, rotating and deleting pages and
	// creating bookmarks.
	PermAssemble Permissions = 1 << 10

	// PermPrintHigh allows printing at full quality.
	PermPrintHigh Permissions = 1 << 11

	PermAll = PermPrint | PermModify | PermExtract | PermAnnotForm |
		PermFillForm | PermExtractAccess | PermAssemble | PermPrintHigh
)

var permNames = []struct {
	p    Permissions
	name string
}{
	{PermPrint, "print"},
	{PermModify, "modify"},
	{PermExtract, "extract"},
	{PermAnnotForm, "annotate"},
	{PermFillForm, "fill-form"},
	{PermExtractAccess, "accessibility"},
	{PermAssemble, "assemble"},
	{PermPrintHigh, "print-high"},
}

func (p Permissions) String() string {
	if p&PermAll == 0 {
		return "none"
	}
	var parts []string
	for _, pn := range permNames {
		if p&pn.p != 0 {
			parts = append(parts, pn.name)
		}
	}
	return strings.Join(parts, ",")
}

// pReserved are the bits of /P which must be set.
const pReserved = 0xFFFFF0C0

func (p Permissions) toP() int64 {
	return int64(int32(uint32(p&PermAll) | pReserved))
}

func permissionsFromP(P int64) Permissions {
	return Permissions(uint32(P)) & PermAll
}

// These errors are returned by the security handlers.
var (
	ErrKeyLength      = errors.New("invalid key length")
	ErrCipher         = errors.New("unsupported cipher")
	ErrPassword       = errors.New("wrong password")
	ErrNotEncrypted   = errors.New("document is not encrypted")
	ErrOwnerRequired  = errors.New("owner access required")
	ErrWrongHandler   = errors.New("document uses a different security handler")
	errInvalidPasswd  = errors.New("password cannot be represented")
	errMissingFileKey = errors.New("missing file encryption key")
)

// A Handler describes how a document is encrypted.  The implementations
// are [*StdHandler], [*CertificateHandler], [*DRMHandler],
// [*CustomHandler] and [*RMSHandler].
type Handler interface {
	// Type returns the kind of the handler.
	Type() HandlerType

	// setup creates the encryption dictionary and the Crypter for doc.
	setup(doc *pdf.Document) (*pdf.Dict, pdf.Crypter, error)
}

// Encrypt installs the security handler h in the document.  Strings and
// streams are encrypted when the document is saved.  Any previous
// encryption of the document is replaced.
func Encrypt(doc *pdf.Document, h Handler) error {
	if old, c := doc.Encryption(); old != nil && !isOwner(c) {
		return ErrOwnerRequired
	}
	dict, c, err := h.setup(doc)
	if err != nil {
		return err
	}
	doc.RemoveEncryption()
	return doc.SetEncryption(dict, c)
}

// RemoveSecurity causes the document to be saved without encryption.
// For documents opened with a password, this requires owner access.
func RemoveSecurity(doc *pdf.Document) error {
	dict, c := doc.Encryption()
	if dict == nil {
		return ErrNotEncrypted
	}
	if !isOwner(c) {
		return ErrOwnerRequired
	}
	doc.RemoveEncryption()
	return nil
}

func isOwner(c pdf.Crypter) bool {
	switch c := c.(type) {
	case *fileCrypter:
		return c.owner
	case *callbackCrypter:
		return c.isOwner()
	}
	return true
}

// Info describes the encryption of a document.
type Info struct {
	Handler   HandlerType
	Filter    pdf.Name
	SubFilter pdf.Name

	// V and R are the algorithm version and the revision of the standard
	// security handler.  R is zero for other handlers.
	V, R int

	Cipher Cipher

	// KeyLength is the length of the file encryption key in bytes.
	KeyLength int

	Permissions     Permissions
	EncryptMetadata bool

	// OwnerAccess is true if the document was opened with the owner
	// password, or was encrypted in this session.
	OwnerAccess bool
}

// ReadEncryptInfo describes the encryption of doc.  If the document is not
// encrypted, [ErrNotEncrypted] is returned.
func ReadEncryptInfo(doc *pdf.Document) (*Info, error) {
	dict, c := doc.Encryption()
	if dict == nil {
		return nil, ErrNotEncrypted
	}

	info := &Info{
		Filter:          dict.GetName("Filter"),
		SubFilter:       dict.GetName("SubFilter"),
		V:               int(dict.GetInteger("V")),
		Permissions:     PermAll,
		EncryptMetadata: true,
		OwnerAccess:     true,
	}
	if em := dict.GetDirect("EncryptMetadata"); em.Type() == pdf.TypeBoolean {
		info.EncryptMetadata = em.Bool()
	}

	switch fc := c.(type) {
	case *fileCrypter:
		info.Cipher = fc.cipher
		info.KeyLength = len(fc.key)
		info.Permissions = fc.perm
		info.OwnerAccess = fc.owner
	case *callbackCrypter:
		info.Permissions = fc.perm()
		info.OwnerAccess = fc.isOwner()
	}

	switch info.Filter {
	case "Standard":
		info.Handler = HandlerStandard
		info.R = int(dict.GetInteger("R"))
		if _, ok := c.(*fileCrypter); !ok {
			info.Permissions = permissionsFromP(dict.GetInteger("P"))
		}
	case "Adobe.PubSec":
		info.Handler = HandlerCertificate
	case rmsFilter:
		info.Handler = HandlerRMS
	default:
		if _, ok := c.(*callbackCrypter); ok {
			info.Handler = HandlerCustom
		} else {
			info.Handler = HandlerDRM
		}
	}
	if info.Cipher == CipherNone {
		if p, err := parseCipher(dict); err == nil {
			info.Cipher = p.cipher
			info.KeyLength = p.keyBytes
		}
	}
	return info, nil
}

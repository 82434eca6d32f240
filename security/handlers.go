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

package security

import (
	"errors"
	"fmt"

	"seehuhn.de/go/pdfsdk"
)

// CertificateHandler is the public-key security handler.  The host
// application encrypts the file encryption key for each recipient and
// supplies the resulting PKCS#7 objects.
type CertificateHandler struct {
	// Recipients are the DER-encoded PKCS#7 objects, one per recipient.
	Recipients [][]byte

	// FileKey is the file encryption key.  The key length must be valid
	// for the cipher.
	FileKey []byte

	Cipher              Cipher
	Permissions         Permissions
	UnencryptedMetadata bool
}

// Type implements the [Handler] interface.
func (h *CertificateHandler) Type() HandlerType {
	return HandlerCertificate
}

func (h *CertificateHandler) setup(doc *pdf.Document) (*pdf.Dict, pdf.Crypter, error) {
	if len(h.Recipients) == 0 {
		return nil, nil, errors.New("no recipients")
	}
	subFilter := pdf.Name("adbe.pkcs7.s5")
	dict, c, err := setupKeyed(doc, "Adobe.PubSec", h.Cipher, h.FileKey,
		h.Permissions, h.UnencryptedMetadata)
	if err != nil {
		return nil, nil, err
	}

	recipients := pdf.NewArray()
	for _, r := range h.Recipients {
		recipients.Add(pdf.NewString(r))
	}
	if cf := c.params.cryptFilter(dict); cf != nil {
		cf.SetAt("Recipients", recipients.Object())
	} else {
		subFilter = "adbe.pkcs7.s4"
		dict.SetAt("Recipients", recipients.Object())
	}
	dict.SetName("SubFilter", subFilter)
	return dict, c, nil
}

// Decrypter returns a function which opens documents encrypted with the
// public-key security handler.  The key function receives the recipient
// data from the document and must return the file encryption key.
// If h.Permissions is zero, the document is opened with owner access.
func (h *CertificateHandler) Decrypter(key func(recipients [][]byte) ([]byte, error)) pdf.DecryptFunc {
	return func(dict *pdf.Dict, fileID [2][]byte) (pdf.Crypter, error) {
		if dict.GetName("Filter") != "Adobe.PubSec" {
			return nil, ErrWrongHandler
		}
		p, err := parseCipher(dict)
		if err != nil {
			return nil, err
		}

		arr := dict.GetArray("Recipients")
		if cf := p.cryptFilter(dict); cf != nil {
			arr = cf.GetArray("Recipients")
		}
		var recipients [][]byte
		for _, r := range arr.All() {
			recipients = append(recipients, r.Direct().Bytes())
		}

		fileKey, err := key(recipients)
		if err != nil {
			return nil, err
		}
		c, err := openKeyed(p, fileKey, h.Permissions)
		if err != nil {
			return nil, err
		}
		h.Recipients = recipients
		h.FileKey = fileKey
		h.Cipher = p.cipher
		return c, nil
	}
}

// DRMHandler is a security handler of a DRM vendor.  The vendor software
// supplies the file encryption key, and any additional entries of the
// encryption dictionary.
type DRMHandler struct {
	// Filter is the name of the vendor's security handler.
	Filter    pdf.Name
	SubFilter pdf.Name

	// VendorData holds additional entries for the encryption dictionary.
	VendorData *pdf.Dict

	FileKey             []byte
	Cipher              Cipher
	Permissions         Permissions
	UnencryptedMetadata bool
}

// Type implements the [Handler] interface.
func (h *DRMHandler) Type() HandlerType {
	return HandlerDRM
}

func (h *DRMHandler) setup(doc *pdf.Document) (*pdf.Dict, pdf.Crypter, error) {
	if h.Filter == "" || h.Filter == "Standard" {
		return nil, nil, fmt.Errorf("invalid DRM filter %q", h.Filter)
	}
	dict, c, err := setupKeyed(doc, h.Filter, h.Cipher, h.FileKey,
		h.Permissions, h.UnencryptedMetadata)
	if err != nil {
		return nil, nil, err
	}
	if h.SubFilter != "" {
		dict.SetName("SubFilter", h.SubFilter)
	}
	for key, val := range h.VendorData.All() {
		if dict.Has(key) {
			continue
		}
		if err := dict.SetAt(key, val.DeepClone()); err != nil {
			return nil, nil, err
		}
	}
	return dict, c, nil
}

// Decrypter returns a function which opens documents encrypted by the
// vendor's handler.  The key function receives the encryption dictionary
// and must return the file encryption key.
// If h.Permissions is zero, the document is opened with owner access.
func (h *DRMHandler) Decrypter(key func(encrypt *pdf.Dict) ([]byte, error)) pdf.DecryptFunc {
	return func(dict *pdf.Dict, fileID [2][]byte) (pdf.Crypter, error) {
		if h.Filter != "" && dict.GetName("Filter") != h.Filter {
			return nil, ErrWrongHandler
		}
		p, err := parseCipher(dict)
		if err != nil {
			return nil, err
		}
		fileKey, err := key(dict)
		if err != nil {
			return nil, err
		}
		c, err := openKeyed(p, fileKey, h.Permissions)
		if err != nil {
			return nil, err
		}
		h.Filter = dict.GetName("Filter")
		h.SubFilter = dict.GetName("SubFilter")
		h.FileKey = fileKey
		h.Cipher = p.cipher
		return c, nil
	}
}

// setupKeyed creates the encryption dictionary for a handler with a
// host-supplied file encryption key.
func setupKeyed(doc *pdf.Document, filter pdf.Name, c Cipher, key []byte, perm Permissions, unencryptedMeta bool) (*pdf.Dict, *fileCrypter, error) {
	if len(key) == 0 {
		return nil, nil, errMissingFileKey
	}
	p, err := newCipherParams(c, len(key), "DefaultCryptFilter", doc.Version())
	if err != nil {
		return nil, nil, err
	}
	dict := pdf.NewDict()
	dict.SetName("Filter", filter)
	p.fill(dict)
	if p.V >= 4 {
		dict.SetInteger("P", perm.toP())
		if unencryptedMeta {
			dict.SetBool("EncryptMetadata", false)
		}
	}
	doc.FileID()
	return dict, newFileCrypter(p, key, perm, true), nil
}

func openKeyed(p *cipherParams, key []byte, perm Permissions) (*fileCrypter, error) {
	if p.cipher != CipherNone {
		if err := CheckKeyLength(p.cipher, len(key)); err != nil {
			return nil, err
		}
		if len(key) != p.keyBytes {
			return nil, fmt.Errorf("%w: expected %d bytes, got %d",
				ErrKeyLength, p.keyBytes, len(key))
		}
	}
	if perm == 0 {
		perm = PermAll
	}
	return newFileCrypter(p, key, perm, perm == PermAll), nil
}

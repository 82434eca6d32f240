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

import "log/slog"

// A Crypter encrypts and decrypts the strings and stream data of a
// document.  The reference identifies the indirect object which contains
// the data, since the key may depend on it.
type Crypter interface {
	Encrypt(ref Ref, data []byte, isStream bool) ([]byte, error)
	Decrypt(ref Ref, data []byte, isStream bool) ([]byte, error)
}

// DecryptFunc is called when an encrypted document is loaded.  It receives
// the encryption dictionary and the file identifier and returns the
// Crypter used to decrypt the document.  The same Crypter is used to
// encrypt the document again when it is saved.
type DecryptFunc func(encrypt *Dict, fileID [2][]byte) (Crypter, error)

// SetEncryption marks the document for encryption.  The dictionary dict
// becomes the /Encrypt entry of the trailer when the document is saved, and
// c is used to encrypt all strings and streams.
func (d *Document) SetEncryption(dict *Dict, c Crypter) error {
	if dict == nil || c == nil {
		return ErrWrongType
	}
	o := dict.Object()
	if o.released {
		return ErrReleased
	}
	if o.parent != nil || o.num != 0 {
		return ErrAttached
	}
	if od := o.subtreeDoc(); od != nil && od != d {
		return ErrForeignDocument
	}
	o.setTreeDoc(d)
	d.encrypt = o
	d.crypter = c
	d.FileID()
	return nil
}

// Encryption returns the encryption dictionary and the Crypter of the
// document.  For unencrypted documents, both are nil.
func (d *Document) Encryption() (*Dict, Crypter) {
	if d.encrypt == nil {
		return nil, nil
	}
	return d.encrypt.Dict(), d.crypter
}

// RemoveEncryption causes the document to be saved without encryption.
func (d *Document) RemoveEncryption() {
	d.encrypt = nil
	d.crypter = nil
}

// encryptsStream reports whether the data of stm is subject to encryption.
func (d *Document) encryptsStream(stm *Stream) bool {
	dict := stm.Dict()
	switch dict.GetName("Type") {
	case "XRef":
		return false
	case "Metadata":
		if em := d.encrypt.Dict().GetDirect("EncryptMetadata"); em.Type() == TypeBoolean && !em.Bool() {
			return false
		}
	}
	for _, f := range stm.Filters() {
		if other, ok := f.(FilterOther); ok && other.Name == "Crypt" {
			if other.Parms.GetName("Name") == "Identity" || other.Parms.GetName("Name") == "" {
				return false
			}
		}
	}
	return true
}

// decryptObject decrypts the strings and stream data in place.
// Cross-reference streams are never encrypted, and are left unchanged.
func (d *Document) decryptObject(ref Ref, o *Object) error {
	if o.Stream().Dict().GetName("Type") == "XRef" {
		return nil
	}
	var err error
	o.walk(func(x *Object) {
		if err != nil {
			return
		}
		switch x.typ {
		case TypeString:
			x.str, err = d.crypter.Decrypt(ref, x.str, false)
		case TypeStream:
			if !d.encryptsStream(x.Stream()) {
				return
			}
			var plain []byte
			plain, err = d.crypter.Decrypt(ref, x.data, true)
			if err == nil {
				x.data = plain
				x.sdict.Dict().setFresh("Length", NewInteger(int64(len(plain))))
			}
		}
	})
	if err != nil {
		slog.Debug("cannot decrypt object", slog.String("ref", ref.String()), slog.Any("err", err))
	}
	return err
}

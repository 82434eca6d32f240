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
	"seehuhn.de/go/pdfsdk"
)

// CustomSecurityCallback lets the host application implement the
// encryption of a document.  C is the type of the per-document context.
type CustomSecurityCallback[C any] interface {
	// NewContext is called when a document is encrypted.  The callback
	// may add entries to the encryption dictionary, Filter and SubFilter
	// are already set.
	NewContext(encrypt *pdf.Dict, fileID [2][]byte) (C, error)

	// OpenContext is called when an encrypted document is loaded.
	OpenContext(encrypt *pdf.Dict, fileID [2][]byte) (C, error)

	Encrypt(ctx C, ref pdf.Ref, data []byte, isStream bool) ([]byte, error)
	Decrypt(ctx C, ref pdf.Ref, data []byte, isStream bool) ([]byte, error)

	// Permissions returns the permissions granted to the current user.
	Permissions(ctx C) Permissions

	// IsOwner reports whether the current user has full access.
	IsOwner(ctx C) bool
}

// CustomHandler is a security handler which is implemented by the host
// application.
type CustomHandler[C any] struct {
	Filter    pdf.Name
	SubFilter pdf.Name
	Callback  CustomSecurityCallback[C]

	// Context is the per-document context, after the handler has been used
	// to encrypt or open a document.
	Context C
}

// Type implements the [Handler] interface.
func (h *CustomHandler[C]) Type() HandlerType {
	return HandlerCustom
}

func (h *CustomHandler[C]) setup(doc *pdf.Document) (*pdf.Dict, pdf.Crypter, error) {
	if h.Filter == "" || h.Filter == "Standard" {
		return nil, nil, ErrWrongHandler
	}
	return setupCallback(doc, h.Filter, h.SubFilter, h.Callback, &h.Context)
}

// Decrypter returns a function which opens documents encrypted by the
// handler.
func (h *CustomHandler[C]) Decrypter() pdf.DecryptFunc {
	return openCallback(h.Filter, h.Callback, &h.Context)
}

const rmsFilter pdf.Name = "MicrosoftIRMServices"

// RMSSecurityCallback implements the Microsoft Rights Management Services
// security handler.
type RMSSecurityCallback[C any] interface {
	CustomSecurityCallback[C]

	// PublishingLicense returns the license which is stored in the
	// encryption dictionary.
	PublishingLicense(ctx C) []byte
}

// RMSHandler is the Microsoft Rights Management Services security handler.
// This handler is only available if the library was initialized with
// [pdf.ModuleRMS].
type RMSHandler[C any] struct {
	Library  *pdf.Library
	Callback RMSSecurityCallback[C]

	Context C
}

// Type implements the [Handler] interface.
func (h *RMSHandler[C]) Type() HandlerType {
	return HandlerRMS
}

func (h *RMSHandler[C]) setup(doc *pdf.Document) (*pdf.Dict, pdf.Crypter, error) {
	if err := h.Library.Require(pdf.ModuleRMS); err != nil {
		return nil, nil, err
	}
	dict, c, err := setupCallback(doc, rmsFilter, "", h.Callback, &h.Context)
	if err != nil {
		return nil, nil, err
	}
	if pl := h.Callback.PublishingLicense(h.Context); pl != nil {
		dict.SetAt("PublishingLicense", pdf.NewString(pl))
	}
	return dict, c, nil
}

// Decrypter returns a function which opens documents protected by Rights
// Management Services.
func (h *RMSHandler[C]) Decrypter() pdf.DecryptFunc {
	open := openCallback(rmsFilter, h.Callback, &h.Context)
	return func(dict *pdf.Dict, fileID [2][]byte) (pdf.Crypter, error) {
		if err := h.Library.Require(pdf.ModuleRMS); err != nil {
			return nil, err
		}
		return open(dict, fileID)
	}
}

// callbackCrypter forwards the encryption to a host callback.
type callbackCrypter struct {
	encrypt func(ref pdf.Ref, data []byte, isStream bool) ([]byte, error)
	decrypt func(ref pdf.Ref, data []byte, isStream bool) ([]byte, error)

	perm    func() Permissions
	isOwner func() bool
}

func newCallbackCrypter[C any](cb CustomSecurityCallback[C], ctx C) *callbackCrypter {
	return &callbackCrypter{
		encrypt: func(ref pdf.Ref, data []byte, isStream bool) ([]byte, error) {
			return cb.Encrypt(ctx, ref, data, isStream)
		},
		decrypt: func(ref pdf.Ref, data []byte, isStream bool) ([]byte, error) {
			return cb.Decrypt(ctx, ref, data, isStream)
		},
		perm:    func() Permissions { return cb.Permissions(ctx) },
		isOwner: func() bool { return cb.IsOwner(ctx) },
	}
}

// Encrypt implements the [pdf.Crypter] interface.
func (c *callbackCrypter) Encrypt(ref pdf.Ref, data []byte, isStream bool) ([]byte, error) {
	return c.encrypt(ref, data, isStream)
}

// Decrypt implements the [pdf.Crypter] interface.
func (c *callbackCrypter) Decrypt(ref pdf.Ref, data []byte, isStream bool) ([]byte, error) {
	return c.decrypt(ref, data, isStream)
}

func setupCallback[C any](doc *pdf.Document, filter, subFilter pdf.Name, cb CustomSecurityCallback[C], ctx *C) (*pdf.Dict, pdf.Crypter, error) {
	dict := pdf.NewDict()
	dict.SetName("Filter", filter)
	if subFilter != "" {
		dict.SetName("SubFilter", subFilter)
	}
	c, err := cb.NewContext(dict, doc.FileID())
	if err != nil {
		return nil, nil, err
	}
	*ctx = c
	return dict, newCallbackCrypter(cb, c), nil
}

func openCallback[C any](filter pdf.Name, cb CustomSecurityCallback[C], ctx *C) pdf.DecryptFunc {
	return func(dict *pdf.Dict, fileID [2][]byte) (pdf.Crypter, error) {
		if filter != "" && dict.GetName("Filter") != filter {
			return nil, ErrWrongHandler
		}
		c, err := cb.OpenContext(dict, fileID)
		if err != nil {
			return nil, err
		}
		*ctx = c
		return newCallbackCrypter(cb, c), nil
	}
}

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
	"bytes"
	"errors"
	"testing"

	"seehuhn.de/go/pdfsdk"
)

type xorContext struct {
	key    byte
	opened bool
}

// xorCallback is a toy cipher for testing the callback handlers.
type xorCallback struct{}

func (xorCallback) NewContext(encrypt *pdf.Dict, fileID [2][]byte) (*xorContext, error) {
	encrypt.SetInteger("XorKey", 0x5a)
	return &xorContext{key: 0x5a}, nil
}

func (xorCallback) OpenContext(encrypt *pdf.Dict, fileID [2][]byte) (*xorContext, error) {
	key := encrypt.GetInteger("XorKey")
	if key == 0 {
		return nil, errors.New("missing key")
	}
	return &xorContext{key: byte(key), opened: true}, nil
}

func (xorCallback) Encrypt(ctx *xorContext, ref pdf.Ref, data []byte, isStream bool) ([]byte, error) {
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ ctx.key ^ byte(ref.Number())
	}
	return out, nil
}

func (c xorCallback) Decrypt(ctx *xorContext, ref pdf.Ref, data []byte, isStream bool) ([]byte, error) {
	return c.Encrypt(ctx, ref, data, isStream)
}

func (xorCallback) Permissions(ctx *xorContext) Permissions {
	if ctx.opened {
		return PermPrint
	}
	return PermAll
}

func (xorCallback) IsOwner(ctx *xorContext) bool {
	return !ctx.opened
}

func (xorCallback) PublishingLicense(ctx *xorContext) []byte {
	return []byte("license")
}

func TestCustomHandler(t *testing.T) {
	doc := makeDocument(t, pdf.V1_7)
	h := &CustomHandler[*xorContext]{
		Filter:   "Toy",
		Callback: xorCallback{},
	}
	if err := Encrypt(doc, h); err != nil {
		t.Fatal(err)
	}
	if h.Context == nil || h.Context.opened {
		t.Fatal("context not created")
	}
	data := save(t, doc)
	if bytes.Contains(data, []byte(testTitle)) {
		t.Error("title written in clear")
	}

	_, err := load(data, (&StdHandler{}).Decrypter(""))
	if !errors.Is(err, ErrWrongHandler) {
		t.Errorf("standard handler: %v", err)
	}

	reader := &CustomHandler[*xorContext]{Filter: "Toy", Callback: xorCallback{}}
	doc2, err := load(data, reader.Decrypter())
	if err != nil {
		t.Fatal(err)
	}
	checkContents(t, doc2)
	if !reader.Context.opened {
		t.Error("context not opened")
	}

	info, err := ReadEncryptInfo(doc2)
	if err != nil {
		t.Fatal(err)
	}
	if info.Handler != HandlerCustom || info.Filter != "Toy" ||
		info.Permissions != PermPrint || info.OwnerAccess {
		t.Errorf("wrong info %+v", info)
	}
	if err := RemoveSecurity(doc2); !errors.Is(err, ErrOwnerRequired) {
		t.Errorf("RemoveSecurity: %v", err)
	}
}

func TestRMSHandler(t *testing.T) {
	lib, err := pdf.Initialize(pdf.Config{})
	if err != nil {
		t.Fatal(err)
	}
	doc := makeDocument(t, pdf.V1_7)
	h := &RMSHandler[*xorContext]{Library: lib, Callback: xorCallback{}}
	if err := Encrypt(doc, h); !errors.Is(err, pdf.ErrNoRMSModuleRight) {
		t.Errorf("RMS without module: %v", err)
	}

	lib, err = pdf.Initialize(pdf.Config{Modules: pdf.ModuleRMS})
	if err != nil {
		t.Fatal(err)
	}
	h.Library = lib
	if err := Encrypt(doc, h); err != nil {
		t.Fatal(err)
	}
	dict, _ := doc.Encryption()
	if dict.GetName("Filter") != "MicrosoftIRMServices" ||
		string(dict.GetDirect("PublishingLicense").Bytes()) != "license" {
		t.Error("wrong encryption dictionary")
	}
	data := save(t, doc)

	reader := &RMSHandler[*xorContext]{Library: lib, Callback: xorCallback{}}
	doc2, err := load(data, reader.Decrypter())
	if err != nil {
		t.Fatal(err)
	}
	checkContents(t, doc2)
	info, err := ReadEncryptInfo(doc2)
	if err != nil {
		t.Fatal(err)
	}
	if info.Handler != HandlerRMS {
		t.Errorf("wrong handler %s", info.Handler)
	}

	reader.Library = nil
	if _, err := load(data, reader.Decrypter()); !errors.Is(err, pdf.ErrNoRMSModuleRight) {
		t.Errorf("loading without module: %v", err)
	}
}

func TestDRMHandler(t *testing.T) {
	key := []byte("0123456789abcdef")
	vendor := pdf.NewDict()
	vendor.SetInteger("VendorID", 7)

	doc := makeDocument(t, pdf.V1_6)
	h := &DRMHandler{
		Filter:     "ACME.DRM",
		SubFilter:  "acme.v1",
		VendorData: vendor,
		FileKey:    key,
		Cipher:     CipherAES,
	}
	if err := Encrypt(doc, h); err != nil {
		t.Fatal(err)
	}
	data := save(t, doc)
	if bytes.Contains(data, []byte(testContent)) {
		t.Error("stream written in clear")
	}

	reader := &DRMHandler{}
	doc2, err := load(data, reader.Decrypter(func(encrypt *pdf.Dict) ([]byte, error) {
		if encrypt.GetInteger("VendorID") != 7 {
			return nil, errors.New("unknown vendor")
		}
		return key, nil
	}))
	if err != nil {
		t.Fatal(err)
	}
	checkContents(t, doc2)
	if reader.Filter != "ACME.DRM" || reader.SubFilter != "acme.v1" {
		t.Errorf("wrong filter %s/%s", reader.Filter, reader.SubFilter)
	}

	info, err := ReadEncryptInfo(doc2)
	if err != nil {
		t.Fatal(err)
	}
	if info.Handler != HandlerDRM || info.Cipher != CipherAES || info.KeyLength != 16 {
		t.Errorf("wrong info %+v", info)
	}

	_, err = load(data, reader.Decrypter(func(*pdf.Dict) ([]byte, error) {
		return key[:5], nil
	}))
	if !errors.Is(err, ErrKeyLength) {
		t.Errorf("short key: %v", err)
	}
}

func TestCertificateHandler(t *testing.T) {
	key := []byte("abcdefghijklmnop")
	recipients := [][]byte{[]byte("recipient 1"), []byte("recipient 2")}

	for _, c := range []Cipher{CipherRC4, CipherAES} {
		doc := makeDocument(t, pdf.V1_7)
		h := &CertificateHandler{
			Recipients: recipients,
			FileKey:    key,
			Cipher:     c,
		}
		if err := Encrypt(doc, h); err != nil {
			t.Fatal(err)
		}
		data := save(t, doc)

		reader := &CertificateHandler{}
		var seen [][]byte
		doc2, err := load(data, reader.Decrypter(func(r [][]byte) ([]byte, error) {
			seen = r
			return key, nil
		}))
		if err != nil {
			t.Fatal(err)
		}
		checkContents(t, doc2)
		if len(seen) != 2 || string(seen[1]) != "recipient 2" {
			t.Errorf("%s: wrong recipients %q", c, seen)
		}

		dict, _ := doc2.Encryption()
		subFilter := dict.GetName("SubFilter")
		if c == CipherAES && subFilter != "adbe.pkcs7.s5" || c == CipherRC4 && subFilter != "adbe.pkcs7.s4" {
			t.Errorf("%s: wrong SubFilter %s", c, subFilter)
		}
	}

	doc := makeDocument(t, pdf.V1_7)
	if err := Encrypt(doc, &CertificateHandler{FileKey: key, Cipher: CipherAES}); err == nil {
		t.Error("missing recipients not detected")
	}
}

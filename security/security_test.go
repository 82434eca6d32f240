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

	"github.com/google/go-cmp/cmp"

	"seehuhn.de/go/pdfsdk"
	"seehuhn.de/go/pdfsdk/internal/memfile"
)

const (
	testTitle   = "Secret Title"
	testContent = "0 0 m 100 100 l S"
)

func makeDocument(t *testing.T, v pdf.Version) *pdf.Document {
	t.Helper()
	doc := pdf.NewDocument(v)
	doc.Info(true).SetText("Title", testTitle)

	stm, err := pdf.NewStream(nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := stm.SetData([]byte(testContent)); err != nil {
		t.Fatal(err)
	}
	num, err := doc.AddIndirectObject(stm.Object())
	if err != nil {
		t.Fatal(err)
	}
	doc.Catalog().SetRef("TestData", num)
	return doc
}

func save(t *testing.T, doc *pdf.Document) []byte {
	t.Helper()
	f := memfile.New()
	if err := doc.SaveTo(f, nil); err != nil {
		t.Fatal(err)
	}
	return f.Data
}

func load(data []byte, decrypt pdf.DecryptFunc) (*pdf.Document, error) {
	return pdf.Load(bytes.NewReader(data), int64(len(data)), &pdf.LoadOptions{Decrypt: decrypt})
}

func checkContents(t *testing.T, doc *pdf.Document) {
	t.Helper()
	if title := doc.Info(false).GetText("Title"); title != testTitle {
		t.Errorf("wrong title %q", title)
	}
	stm := doc.Catalog().GetDirect("TestData").Stream()
	if stm == nil {
		t.Fatal("stream missing")
	}
	data, err := stm.Data(false)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != testContent {
		t.Errorf("wrong stream data %q", data)
	}
}

func TestStdRoundTrip(t *testing.T) {
	cases := []struct {
		version  pdf.Version
		cipher   Cipher
		keyBytes int
		R        int
	}{
		{pdf.V1_3, CipherRC4, 5, 3},
		{pdf.V1_4, CipherRC4, 7, 3},
		{pdf.V1_4, CipherRC4, 16, 3},
		{pdf.V1_5, CipherRC4, 5, 3},
		{pdf.V1_7, CipherRC4, 16, 3},
		{pdf.V1_6, CipherAES, 16, 4},
		{pdf.V2_0, CipherAES, 32, 6},
	}
	for _, c := range cases {
		t.Run(c.cipher.String(), func(t *testing.T) {
			doc := makeDocument(t, c.version)
			h := &StdHandler{
				UserPassword:  "user",
				OwnerPassword: "owner",
				Cipher:        c.cipher,
				KeyLength:     c.keyBytes,
				Permissions:   PermPrint | PermExtract,
			}
			if err := Encrypt(doc, h); err != nil {
				t.Fatal(err)
			}
			if h.Revision() != c.R {
				t.Errorf("revision %d, expected %d", h.Revision(), c.R)
			}

			data := save(t, doc)
			if bytes.Contains(data, []byte(testTitle)) {
				t.Error("title written in clear")
			}
			if bytes.Contains(data, []byte(testContent)) {
				t.Error("stream written in clear")
			}

			_, err := load(data, nil)
			if !errors.Is(err, pdf.ErrEncrypted) {
				t.Errorf("loading without password: %v", err)
			}
			_, err = load(data, (&StdHandler{}).Decrypter("wrong"))
			if !errors.Is(err, ErrPassword) {
				t.Errorf("loading with wrong password: %v", err)
			}

			user := &StdHandler{}
			doc2, err := load(data, user.Decrypter("user"))
			if err != nil {
				t.Fatal(err)
			}
			checkContents(t, doc2)
			if d := cmp.Diff(doc.FileID(), doc2.FileID()); d != "" {
				t.Errorf("file ID changed (-want +got):\n%s", d)
			}
			if user.OwnerAccess() {
				t.Error("user password gave owner access")
			}
			if user.Cipher != c.cipher || user.KeyLength != c.keyBytes || user.Revision() != c.R {
				t.Errorf("wrong parameters %s/%d/%d", user.Cipher, user.KeyLength, user.Revision())
			}
			if user.Permissions != PermPrint|PermExtract {
				t.Errorf("wrong permissions %x", user.Permissions)
			}
			if err := RemoveSecurity(doc2); !errors.Is(err, ErrOwnerRequired) {
				t.Errorf("RemoveSecurity with user access: %v", err)
			}

			owner := &StdHandler{}
			doc3, err := load(data, owner.Decrypter("owner"))
			if err != nil {
				t.Fatal(err)
			}
			checkContents(t, doc3)
			if !owner.OwnerAccess() {
				t.Error("owner password did not give owner access")
			}

			// saving again keeps the encryption
			data2 := save(t, doc3)
			if bytes.Contains(data2, []byte(testTitle)) {
				t.Error("title written in clear")
			}
			doc4, err := load(data2, (&StdHandler{}).Decrypter("user"))
			if err != nil {
				t.Fatal(err)
			}
			checkContents(t, doc4)

			if err := RemoveSecurity(doc3); err != nil {
				t.Fatal(err)
			}
			doc5, err := load(save(t, doc3), nil)
			if err != nil {
				t.Fatal(err)
			}
			checkContents(t, doc5)
		})
	}
}

func TestEmptyUserPassword(t *testing.T) {
	for _, c := range []Cipher{CipherRC4, CipherAES} {
		doc := makeDocument(t, pdf.V2_0)
		h := &StdHandler{OwnerPassword: "secret", Cipher: c, KeyLength: 16}
		if err := Encrypt(doc, h); err != nil {
			t.Fatal(err)
		}
		data := save(t, doc)

		reader := &StdHandler{}
		doc2, err := load(data, reader.Decrypter(""))
		if err != nil {
			t.Fatal(err)
		}
		checkContents(t, doc2)
		if reader.OwnerAccess() {
			t.Error("unexpected owner access")
		}
	}
}

func TestUnicodePassword(t *testing.T) {
	doc := makeDocument(t, pdf.V2_0)
	h := &StdHandler{UserPassword: "пароль", Cipher: CipherAES, KeyLength: 32}
	if err := Encrypt(doc, h); err != nil {
		t.Fatal(err)
	}
	data := save(t, doc)

	// SASLprep maps the non-ASCII space to an ordinary space
	doc = makeDocument(t, pdf.V2_0)
	h = &StdHandler{UserPassword: "a\u00a0b", Cipher: CipherAES, KeyLength: 32}
	if err := Encrypt(doc, h); err != nil {
		t.Fatal(err)
	}
	data2 := save(t, doc)

	reader := &StdHandler{}
	if _, err := load(data, reader.Decrypter("пароль")); err != nil {
		t.Error(err)
	}
	if !reader.OwnerAccess() {
		t.Error("owner password defaults to the user password")
	}
	if _, err := load(data2, reader.Decrypter("a b")); err != nil {
		t.Error(err)
	}

	// RC4 passwords must be representable in PDFDocEncoding
	doc = makeDocument(t, pdf.V1_4)
	h = &StdHandler{UserPassword: "пароль", Cipher: CipherRC4, KeyLength: 16}
	if err := Encrypt(doc, h); err == nil {
		t.Error("invalid RC4 password accepted")
	}
}

func TestUnencryptedMetadata(t *testing.T) {
	doc := makeDocument(t, pdf.V1_7)
	meta, err := pdf.NewStream(nil)
	if err != nil {
		t.Fatal(err)
	}
	meta.Dict().SetName("Type", "Metadata")
	meta.Dict().SetName("Subtype", "XML")
	meta.SetData([]byte("<x:xmpmeta>visible</x:xmpmeta>"))
	num, err := doc.AddIndirectObject(meta.Object())
	if err != nil {
		t.Fatal(err)
	}
	doc.Catalog().SetRef("Metadata", num)

	h := &StdHandler{
		UserPassword:        "x",
		Cipher:              CipherAES,
		KeyLength:           16,
		UnencryptedMetadata: true,
	}
	if err := Encrypt(doc, h); err != nil {
		t.Fatal(err)
	}
	data := save(t, doc)
	if !bytes.Contains(data, []byte("visible")) {
		t.Error("metadata was encrypted")
	}
	if bytes.Contains(data, []byte(testContent)) {
		t.Error("stream written in clear")
	}

	reader := &StdHandler{}
	doc2, err := load(data, reader.Decrypter("x"))
	if err != nil {
		t.Fatal(err)
	}
	checkContents(t, doc2)
	if !reader.UnencryptedMetadata {
		t.Error("EncryptMetadata not read")
	}
}

func TestReadEncryptInfo(t *testing.T) {
	doc := makeDocument(t, pdf.V1_6)
	if _, err := ReadEncryptInfo(doc); !errors.Is(err, ErrNotEncrypted) {
		t.Errorf("unencrypted document: %v", err)
	}
	if err := RemoveSecurity(doc); !errors.Is(err, ErrNotEncrypted) {
		t.Errorf("RemoveSecurity: %v", err)
	}

	h := &StdHandler{UserPassword: "u", Cipher: CipherAES, KeyLength: 16, Permissions: PermFillForm}
	if err := Encrypt(doc, h); err != nil {
		t.Fatal(err)
	}
	info, err := ReadEncryptInfo(doc)
	if err != nil {
		t.Fatal(err)
	}
	if info.Handler != HandlerStandard || info.Filter != "Standard" ||
		info.V != 4 || info.R != 4 || info.Cipher != CipherAES ||
		info.KeyLength != 16 || info.Permissions != PermFillForm ||
		!info.EncryptMetadata || !info.OwnerAccess {
		t.Errorf("wrong info %+v", info)
	}
}

func TestCheckKeyLength(t *testing.T) {
	cases := []struct {
		cipher   Cipher
		keyBytes int
		ok       bool
	}{
		{CipherRC4, 4, false},
		{CipherRC4, 5, true},
		{CipherRC4, 16, true},
		{CipherRC4, 17, false},
		{CipherAES, 8, false},
		{CipherAES, 16, true},
		{CipherAES, 24, false},
		{CipherAES, 32, true},
		{CipherNone, 16, false},
	}
	for _, c := range cases {
		err := CheckKeyLength(c.cipher, c.keyBytes)
		if (err == nil) != c.ok {
			t.Errorf("%s/%d: unexpected result %v", c.cipher, c.keyBytes, err)
		}
	}

	doc := makeDocument(t, pdf.V2_0)
	err := Encrypt(doc, &StdHandler{Cipher: CipherAES, KeyLength: 24})
	if !errors.Is(err, ErrKeyLength) {
		t.Errorf("AES-192: %v", err)
	}

	doc = makeDocument(t, pdf.V1_7)
	if err := Encrypt(doc, &StdHandler{Cipher: CipherAES, KeyLength: 32}); err == nil {
		t.Error("AES-256 accepted for PDF 1.7")
	}
}

func TestPermissionsR2(t *testing.T) {
	perm := PermPrint | PermPrintHigh | PermExtract | PermExtractAccess
	if !canR2(perm) {
		t.Error("permissions should be representable in revision 2")
	}
	if canR2(PermPrint) {
		t.Error("degraded printing cannot be represented in revision 2")
	}

	P := uint32(PermPrint.toP())
	if got := stdPermissions(2, P); got != PermPrint|PermPrintHigh {
		t.Errorf("revision 2: got %x", got)
	}
	if got := stdPermissions(3, P); got != PermPrint {
		t.Errorf("revision 3: got %x", got)
	}

	doc := makeDocument(t, pdf.V1_3)
	h := &StdHandler{UserPassword: "u", Cipher: CipherRC4, KeyLength: 5, Permissions: perm}
	if err := Encrypt(doc, h); err != nil {
		t.Fatal(err)
	}
	if h.Revision() != 2 {
		t.Errorf("revision %d, expected 2", h.Revision())
	}
}

func TestPermissionsString(t *testing.T) {
	cases := []struct {
		p    Permissions
		want string
	}{
		{0, "none"},
		{PermPrint | PermPrintHigh, "print,print-high"},
		{PermAll, "print,modify,extract,annotate,fill-form,accessibility,assemble,print-high"},
	}
	for _, c := range cases {
		if got := c.p.String(); got != c.want {
			t.Errorf("%d: got %q, want %q", uint32(c.p), got, c.want)
		}
	}
}

func TestXRefStreamNotDecrypted(t *testing.T) {
	for _, cipher := range []Cipher{CipherRC4, CipherAES} {
		doc := makeDocument(t, pdf.V1_6)
		h := &StdHandler{UserPassword: "u", OwnerPassword: "o", Cipher: cipher, KeyLength: 16}
		if err := Encrypt(doc, h); err != nil {
			t.Fatal(err)
		}
		id := doc.FileID()

		data := save(t, doc)
		if !bytes.Contains(data, []byte("/Type /XRef")) {
			t.Fatal("no cross-reference stream written")
		}
		doc2, err := load(data, (&StdHandler{}).Decrypter("u"))
		if err != nil {
			t.Fatalf("%s: %v", cipher, err)
		}
		checkContents(t, doc2)
		if d := cmp.Diff(id, doc2.FileID()); d != "" {
			t.Errorf("%s: file ID changed (-want +got):\n%s", cipher, d)
		}
	}
}

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
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rand"
	"crypto/rc4"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"hash"
	"log/slog"

	"github.com/xdg-go/stringprep"

	"seehuhn.de/go/pdfsdk"
)

// StdHandler is the standard security handler.  A document is protected by
// a user password, which gives access to the document subject to the
// permissions, and an owner password, which gives full access.
//
// The revision of the handler is chosen from the cipher and the key
// length:  RC4 with 40 bit keys uses revision 2 or 3, longer RC4 keys use
// revision 3, AES-128 uses revision 4 and AES-256 uses revision 6.
type StdHandler struct {
	UserPassword string

	// OwnerPassword defaults to the user password if empty.
	OwnerPassword string

	Cipher Cipher

	// KeyLength is the length of the file encryption key in bytes.
	// If this is zero, 16 bytes are used.
	KeyLength int

	Permissions Permissions

	// UnencryptedMetadata leaves the XMP metadata stream of the document
	// unencrypted.  This requires AES encryption.
	UnencryptedMetadata bool

	revision int
	owner    bool
}

// Type implements the [Handler] interface.
func (h *StdHandler) Type() HandlerType {
	return HandlerStandard
}

// Revision returns the revision of the handler, after the handler has been
// used to encrypt or decrypt a document.
func (h *StdHandler) Revision() int {
	return h.revision
}

// OwnerAccess reports whether the owner password was used to open the
// document.
func (h *StdHandler) OwnerAccess() bool {
	return h.owner
}

func (h *StdHandler) setup(doc *pdf.Document) (*pdf.Dict, pdf.Crypter, error) {
	keyBytes := h.KeyLength
	if keyBytes == 0 {
		keyBytes = 16
	}
	p, err := newCipherParams(h.Cipher, keyBytes, "StdCF", doc.Version())
	if err != nil {
		return nil, nil, err
	}

	id := doc.FileID()
	unencryptedMeta := h.UnencryptedMetadata && p.V >= 4
	sec, err := createStdSec(id[0], h.UserPassword, h.OwnerPassword,
		h.Permissions, p, unencryptedMeta)
	if err != nil {
		return nil, nil, err
	}

	dict := pdf.NewDict()
	dict.SetName("Filter", "Standard")
	p.fill(dict)
	dict.SetInteger("R", int64(sec.R))
	dict.SetAt("O", pdf.NewString(sec.O))
	dict.SetAt("U", pdf.NewString(sec.U))
	dict.SetInteger("P", int64(int32(sec.P)))
	if sec.unencryptedMetaData {
		dict.SetBool("EncryptMetadata", false)
	}
	if sec.R == 6 {
		dict.SetAt("OE", pdf.NewString(sec.OE))
		dict.SetAt("UE", pdf.NewString(sec.UE))
		dict.SetAt("Perms", pdf.NewString(sec.Perms))
	}

	h.revision = sec.R
	h.owner = true
	perm := stdPermissions(sec.R, sec.P)
	return dict, newFileCrypter(p, sec.key, perm, true), nil
}

// Decrypter returns a function which opens documents encrypted with the
// standard security handler.  The password is tried first as the owner
// password, then as the user password.  After a document has been loaded,
// the fields of h describe its encryption.
func (h *StdHandler) Decrypter(password string) pdf.DecryptFunc {
	return func(dict *pdf.Dict, fileID [2][]byte) (pdf.Crypter, error) {
		if dict.GetName("Filter") != "Standard" {
			return nil, ErrWrongHandler
		}
		p, err := parseCipher(dict)
		if err != nil {
			return nil, err
		}
		sec, err := openStdSec(dict, p.keyBytes, fileID[0])
		if err != nil {
			return nil, err
		}
		owner, err := sec.authenticate(password)
		if err != nil {
			return nil, err
		}
		slog.Debug("opened encrypted document",
			slog.Int("R", sec.R), slog.Bool("owner", owner))

		perm := stdPermissions(sec.R, sec.P)
		h.Cipher = p.cipher
		h.KeyLength = p.keyBytes
		h.Permissions = perm
		h.UnencryptedMetadata = sec.unencryptedMetaData
		h.revision = sec.R
		h.owner = owner
		return newFileCrypter(p, sec.key, perm, owner), nil
	}
}

// stdSec holds the values of the standard security handler, as stored in
// the encryption dictionary.
type stdSec struct {
	R  int
	ID []byte

	// O and U are derived from the owner and user passwords.
	O, U []byte

	// OE, UE and Perms are only used for revision 6.
	OE, UE, Perms []byte

	P uint32

	keyBytes int
	key      []byte

	// unencryptedMetaData is the negation of /EncryptMetadata.
	unencryptedMetaData bool
}

// openStdSec reads the standard security handler values from an
// encryption dictionary.
func openStdSec(dict *pdf.Dict, keyBytes int, id []byte) (*stdSec, error) {
	R := int(dict.GetInteger("R"))
	if R < 2 || R == 5 || R > 6 {
		return nil, &pdf.MalformedFileError{Err: errors.New("invalid Encrypt.R")}
	}
	ouLength := 32
	if R == 6 {
		ouLength = 48
	}

	get := func(key pdf.Name, n int) ([]byte, error) {
		b := dict.GetDirect(key).Bytes()
		if len(b) < n {
			return nil, &pdf.MalformedFileError{
				Err: errors.New("invalid Encrypt." + string(key)),
			}
		}
		return b[:n], nil
	}

	sec := &stdSec{
		R:        R,
		ID:       id,
		keyBytes: keyBytes,
	}
	var err error
	if sec.O, err = get("O", ouLength); err != nil {
		return nil, err
	}
	if sec.U, err = get("U", ouLength); err != nil {
		return nil, err
	}
	P := dict.GetDirect("P")
	if !P.IsInteger() {
		return nil, &pdf.MalformedFileError{Err: errors.New("invalid Encrypt.P")}
	}
	sec.P = uint32(P.Integer())
	if em := dict.GetDirect("EncryptMetadata"); em.Type() == pdf.TypeBoolean && R >= 4 {
		sec.unencryptedMetaData = !em.Bool()
	}

	if R == 6 {
		if sec.OE, err = get("OE", 32); err != nil {
			return nil, err
		}
		if sec.UE, err = get("UE", 32); err != nil {
			return nil, err
		}
		if sec.Perms, err = get("Perms", 16); err != nil {
			return nil, err
		}
	}
	return sec, nil
}

// createStdSec computes the values for a new standard security handler,
// together with a new file encryption key.
func createStdSec(id []byte, userPwd, ownerPwd string, perm Permissions, p *cipherParams, unencryptedMeta bool) (*stdSec, error) {
	if ownerPwd == "" {
		ownerPwd = userPwd
	}

	var R int
	switch p.V {
	case 1:
		R = 3
		if canR2(perm) {
			R = 2
		}
	case 2:
		R = 3
	case 4:
		R = 4
	default:
		R = 6
	}

	sec := &stdSec{
		R:                   R,
		ID:                  id,
		P:                   uint32(perm.toP()),
		keyBytes:            p.keyBytes,
		unencryptedMetaData: unencryptedMeta,
	}

	if R < 6 {
		paddedUserPwd, err := padPasswd(userPwd)
		if err != nil {
			return nil, err
		}
		paddedOwnerPwd, err := padPasswd(ownerPwd)
		if err != nil {
			return nil, err
		}
		sec.O = sec.computeO(paddedUserPwd, paddedOwnerPwd)
		sec.key = sec.computeFileEncryptionKey(paddedUserPwd)
		sec.U = sec.computeU(sec.key)
		return sec, nil
	}

	utf8UserPwd, err := utf8Passwd(userPwd)
	if err != nil {
		return nil, err
	}
	utf8OwnerPwd, err := utf8Passwd(ownerPwd)
	if err != nil {
		return nil, err
	}
	sec.key = make([]byte, 32)
	if _, err := rand.Read(sec.key); err != nil {
		return nil, err
	}
	sec.U, sec.UE, err = sec.computeUAndUE(utf8UserPwd)
	if err != nil {
		return nil, err
	}
	sec.O, sec.OE, err = sec.computeOAndOE(utf8OwnerPwd)
	if err != nil {
		return nil, err
	}
	sec.Perms = sec.computePerms(sec.key)
	return sec, nil
}

// authenticate checks the password, first as the owner password and then
// as the user password.  On success, the file encryption key is set.
func (sec *stdSec) authenticate(passwd string) (owner bool, err error) {
	if sec.R < 6 {
		padded, err := padPasswd(passwd)
		if err != nil {
			return false, ErrPassword
		}
		if sec.authenticateOwner(padded) {
			return true, nil
		}
		if sec.authenticateUser(padded) {
			return false, nil
		}
		return false, ErrPassword
	}

	prepared, err := utf8Passwd(passwd)
	if err != nil {
		return false, ErrPassword
	}
	if sec.authenticateOwner6(prepared) {
		return true, nil
	}
	if sec.authenticateUser6(prepared) {
		return false, nil
	}
	return false, ErrPassword
}

// computeFileEncryptionKey implements algorithm 2 (revisions 2 to 4).
func (sec *stdSec) computeFileEncryptionKey(paddedUserPwd []byte) []byte {
	h := md5.New()
	h.Write(paddedUserPwd)
	h.Write(sec.O)
	h.Write([]byte{
		byte(sec.P), byte(sec.P >> 8), byte(sec.P >> 16), byte(sec.P >> 24)})
	h.Write(sec.ID)
	if sec.unencryptedMetaData && sec.R >= 4 {
		h.Write([]byte{255, 255, 255, 255})
	}
	key := h.Sum(nil)

	if sec.R >= 3 {
		for range 50 {
			h.Reset()
			h.Write(key[:sec.keyBytes])
			key = h.Sum(key[:0])
		}
	}
	return key[:sec.keyBytes]
}

// ownerKey is the RC4 key used to compute and check O (revisions 2 to 4).
func (sec *stdSec) ownerKey(paddedOwnerPwd []byte) []byte {
	h := md5.New()
	h.Write(paddedOwnerPwd)
	sum := h.Sum(nil)
	if sec.R >= 3 {
		for range 50 {
			h.Reset()
			h.Write(sum[:sec.keyBytes])
			sum = h.Sum(sum[:0])
		}
	}
	return sum[:sec.keyBytes]
}

// rc4Rounds applies RC4 with the key XORed by 0..19 (or 19..0 if
// reverse is set) to buf.  For revision 2 only a single round is used.
func (sec *stdSec) rc4Rounds(key, buf []byte, reverse bool) {
	if sec.R == 2 {
		c, _ := rc4.NewCipher(key)
		c.XORKeyStream(buf, buf)
		return
	}
	tmp := make([]byte, len(key))
	for k := range 20 {
		i := byte(k)
		if reverse {
			i = byte(19 - k)
		}
		for j := range tmp {
			tmp[j] = key[j] ^ i
		}
		c, _ := rc4.NewCipher(tmp)
		c.XORKeyStream(buf, buf)
	}
}

// computeO implements algorithm 3.
func (sec *stdSec) computeO(paddedUserPwd, paddedOwnerPwd []byte) []byte {
	O := make([]byte, 32)
	copy(O, paddedUserPwd)
	sec.rc4Rounds(sec.ownerKey(paddedOwnerPwd), O, false)
	return O
}

// computeU implements algorithms 4 and 5.
func (sec *stdSec) computeU(key []byte) []byte {
	if sec.R == 2 {
		U := make([]byte, 32)
		copy(U, passwdPad)
		sec.rc4Rounds(key, U, false)
		return U
	}

	h := md5.New()
	h.Write(passwdPad)
	h.Write(sec.ID)
	U := h.Sum(make([]byte, 0, 32))
	sec.rc4Rounds(key, U, false)
	// the remaining 16 bytes are arbitrary padding
	return append(U, make([]byte, 16)...)
}

// authenticateUser implements algorithm 6.
func (sec *stdSec) authenticateUser(paddedUserPwd []byte) bool {
	key := sec.computeFileEncryptionKey(paddedUserPwd)
	U := sec.computeU(key)
	n := 32
	if sec.R >= 3 {
		n = 16
	}
	if !bytes.Equal(U[:n], sec.U[:n]) {
		return false
	}
	sec.key = key
	return true
}

// authenticateOwner implements algorithm 7.
func (sec *stdSec) authenticateOwner(paddedOwnerPwd []byte) bool {
	buf := make([]byte, 32)
	copy(buf, sec.O)
	sec.rc4Rounds(sec.ownerKey(paddedOwnerPwd), buf, true)
	return sec.authenticateUser(buf)
}

// slowHash implements algorithm 2.B (revision 6).  The 48 byte user key U
// is only used for owner passwords.
func slowHash(passwd, salt, U []byte) []byte {
	h := sha256.New()
	h.Write(passwd)
	h.Write(salt)
	h.Write(U)
	K := h.Sum(nil)

	K1 := make([]byte, 64*(len(passwd)+64+len(U)))

	// At least 64 rounds, then continue until the last byte of E is at
	// most round-32.
	for i := 0; i < 64 || K1[len(K1)-1] > byte(i-32); i++ {
		K1 = K1[:0]
		for range 64 {
			K1 = append(K1, passwd...)
			K1 = append(K1, K...)
			K1 = append(K1, U...)
		}

		// E = AES-128-CBC(K1), key K[:16], iv K[16:32]
		c, _ := aes.NewCipher(K[:16])
		cbc := cipher.NewCBCEncrypter(c, K[16:32])
		cbc.CryptBlocks(K1, K1)

		// The first 16 bytes of E modulo 3 select the next hash.
		// Since 256 = 1 mod 3, this is the sum of the bytes mod 3.
		var rem int
		for _, b := range K1[:16] {
			rem += int(b)
		}
		var h hash.Hash
		switch rem % 3 {
		case 0:
			h = sha256.New()
		case 1:
			h = sha512.New384()
		case 2:
			h = sha512.New()
		}
		h.Write(K1)
		K = h.Sum(K[:0])
	}

	return K[:32]
}

// computeUAndUE implements algorithm 8.
func (sec *stdSec) computeUAndUE(utf8UserPwd []byte) ([]byte, []byte, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, nil, err
	}

	U := make([]byte, 0, 48)
	U = append(U, slowHash(utf8UserPwd, salt[:8], nil)...)
	U = append(U, salt...)

	UE := sec.wrapKey(slowHash(utf8UserPwd, salt[8:], nil))
	return U, UE, nil
}

// computeOAndOE implements algorithm 9.  U must already be set.
func (sec *stdSec) computeOAndOE(utf8OwnerPwd []byte) ([]byte, []byte, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, nil, err
	}

	O := make([]byte, 0, 48)
	O = append(O, slowHash(utf8OwnerPwd, salt[:8], sec.U)...)
	O = append(O, salt...)

	OE := sec.wrapKey(slowHash(utf8OwnerPwd, salt[8:], sec.U))
	return O, OE, nil
}

// wrapKey encrypts the file encryption key with AES-256 in CBC mode with a
// zero initialization vector and no padding.
func (sec *stdSec) wrapKey(key []byte) []byte {
	c, _ := aes.NewCipher(key)
	out := make([]byte, 32)
	cipher.NewCBCEncrypter(c, zero16).CryptBlocks(out, sec.key)
	return out
}

func unwrapKey(key, wrapped []byte) []byte {
	c, _ := aes.NewCipher(key)
	out := make([]byte, 32)
	cipher.NewCBCDecrypter(c, zero16).CryptBlocks(out, wrapped)
	return out
}

// computePerms implements algorithm 10.
func (sec *stdSec) computePerms(key []byte) []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf, sec.P)
	copy(buf[4:], []byte{0xFF, 0xFF, 0xFF, 0xFF})
	buf[8] = sec.emdCode()
	copy(buf[9:], "adb")
	rand.Read(buf[12:])

	c, _ := aes.NewCipher(key)
	c.Encrypt(buf, buf)
	return buf
}

func (sec *stdSec) emdCode() byte {
	if sec.unencryptedMetaData {
		return 'F'
	}
	return 'T'
}

// authenticateUser6 implements algorithm 11.
func (sec *stdSec) authenticateUser6(utf8Passwd []byte) bool {
	if !bytes.Equal(slowHash(utf8Passwd, sec.U[32:40], nil), sec.U[:32]) {
		return false
	}
	key := unwrapKey(slowHash(utf8Passwd, sec.U[40:48], nil), sec.UE)
	if !sec.checkPerms(key) {
		return false
	}
	sec.key = key
	return true
}

// authenticateOwner6 implements algorithm 12.
func (sec *stdSec) authenticateOwner6(utf8Passwd []byte) bool {
	if !bytes.Equal(slowHash(utf8Passwd, sec.O[32:40], sec.U), sec.O[:32]) {
		return false
	}
	key := unwrapKey(slowHash(utf8Passwd, sec.O[40:48], sec.U), sec.OE)
	if !sec.checkPerms(key) {
		return false
	}
	sec.key = key
	return true
}

// checkPerms implements algorithm 13.
func (sec *stdSec) checkPerms(key []byte) bool {
	buf := make([]byte, 16)
	c, _ := aes.NewCipher(key)
	c.Decrypt(buf, sec.Perms)
	if string(buf[9:12]) != "adb" {
		return false
	}
	if binary.LittleEndian.Uint32(buf[:4]) != sec.P {
		slog.Debug("Perms does not match P")
		return false
	}
	return buf[8] == sec.emdCode()
}

// utf8Passwd prepares a password for revision 6.
func utf8Passwd(passwd string) ([]byte, error) {
	prepped, err := stringprep.SASLprep.Prepare(passwd)
	if err != nil {
		return nil, errInvalidPasswd
	}
	buf := []byte(prepped)
	if len(buf) > 127 {
		buf = buf[:127]
	}
	return buf, nil
}

// padPasswd prepares a password for revisions 2 to 4.  The result has
// length 32.
func padPasswd(passwd string) ([]byte, error) {
	buf := pdf.TextString(passwd)
	if len(buf) >= 2 && buf[0] == 0xFE && buf[1] == 0xFF {
		return nil, errInvalidPasswd
	}
	padded := make([]byte, 32)
	n := copy(padded, buf)
	copy(padded[n:], passwdPad)
	return padded, nil
}

var passwdPad = []byte{
	0x28, 0xBF, 0x4E, 0x5E, 0x4E, 0x75, 0x8A, 0x41,
	0x64, 0x00, 0x4E, 0x56, 0xFF, 0xFA, 0x01, 0x08,
	0x2E, 0x2E, 0x00, 0xB6, 0xD0, 0x68, 0x3E, 0x80,
	0x2F, 0x0C, 0xA9, 0xFE, 0x64, 0x53, 0x69, 0x7A,
}

var zero16 = make([]byte, 16)

// Revision 2 has no separate bits for high quality printing, form filling,
// accessibility extraction and assembly.  These are implied by the
// corresponding coarse permissions.
var r2Implied = []struct{ coarse, fine Permissions }{
	{PermPrint, PermPrintHigh},
	{PermAnnotForm, PermFillForm},
	{PermExtract, PermExtractAccess},
	{PermModify, PermAssemble},
}

// canR2 reports whether the permissions can be represented by revision 2.
func canR2(perm Permissions) bool {
	for _, x := range r2Implied {
		if (perm&x.coarse != 0) != (perm&x.fine != 0) {
			return false
		}
	}
	return true
}

func stdPermissions(R int, P uint32) Permissions {
	perm := permissionsFromP(int64(P))
	if R == 2 {
		for _, x := range r2Implied {
			if perm&x.coarse != 0 {
				perm |= x.fine
			} else {
				perm &^= x.fine
			}
		}
	}
	return perm
}

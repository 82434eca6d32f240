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
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rand"
	"crypto/rc4"
	"errors"
	"fmt"
	"io"

	"seehuhn.de/go/pdfsdk"
)

var errCorrupted = errors.New("corrupted ciphertext")

// cipherParams describes the crypt filters of an encryption dictionary.
type cipherParams struct {
	V        int
	cipher   Cipher
	keyBytes int

	// cfName is the name of the crypt filter used for strings and streams
	// if V >= 4.
	cfName pdf.Name

	strIdentity bool
	stmIdentity bool
}

// newCipherParams chooses the algorithm version for the given cipher and
// key length.  The PDF version must be recent enough for the result.
func newCipherParams(c Cipher, keyBytes int, cfName pdf.Name, v pdf.Version) (*cipherParams, error) {
	if err := CheckKeyLength(c, keyBytes); err != nil {
		return nil, err
	}
	p := &cipherParams{cipher: c, keyBytes: keyBytes, cfName: cfName}
	var need pdf.Version
	switch {
	case c == CipherRC4 && keyBytes == 5:
		p.V = 1
		need = pdf.V1_1
	case c == CipherRC4:
		p.V = 2
		need = pdf.V1_4
	case c == CipherAES && keyBytes == 16:
		p.V = 4
		need = pdf.V1_6
	default:
		p.V = 5
		need = pdf.V2_0
	}
	if v < need {
		return nil, fmt.Errorf("%s-%d needs PDF %s, document has %s",
			c, 8*keyBytes, need, v)
	}
	return p, nil
}

// fill writes the V, Length, CF, StmF and StrF entries.
func (p *cipherParams) fill(dict *pdf.Dict) {
	dict.SetInteger("V", int64(p.V))
	switch p.V {
	case 1:
		return
	case 2:
		dict.SetInteger("Length", int64(8*p.keyBytes))
		return
	case 5:
		dict.SetInteger("Length", 256)
	}

	cf := pdf.NewDict()
	if p.cipher == CipherAES && p.keyBytes == 32 {
		cf.SetName("CFM", "AESV3")
	} else {
		cf.SetName("CFM", "AESV2")
	}
	cf.SetInteger("Length", int64(8*p.keyBytes))
	cf.SetName("AuthEvent", "DocOpen")
	filters := pdf.NewDict()
	filters.SetAt(p.cfName, cf.Object())
	dict.SetAt("CF", filters.Object())
	dict.SetName("StmF", p.cfName)
	dict.SetName("StrF", p.cfName)
}

// cryptFilter returns the crypt filter dictionary, or nil for V < 4.
func (p *cipherParams) cryptFilter(dict *pdf.Dict) *pdf.Dict {
	if p.V < 4 {
		return nil
	}
	return dict.GetDict("CF").GetDict(p.cfName)
}

// parseCipher reads the crypt filter settings of an encryption dictionary.
func parseCipher(dict *pdf.Dict) (*cipherParams, error) {
	p := &cipherParams{V: int(dict.GetInteger("V"))}
	switch p.V {
	case 1:
		p.cipher = CipherRC4
		p.keyBytes = 5
	case 2, 3:
		p.cipher = CipherRC4
		p.keyBytes = 5
		if length := dict.GetDirect("Length"); length.IsInteger() {
			bits := int(length.Integer())
			if bits < 40 || bits > 128 || bits%8 != 0 {
				return nil, &pdf.MalformedFileError{
					Err: fmt.Errorf("invalid Length=%d", bits),
				}
			}
			p.keyBytes = bits / 8
		}
	case 4, 5:
		p.keyBytes = 16
		if p.V == 5 {
			p.keyBytes = 32
		}
		cf := dict.GetDict("CF")
		stmF := dict.GetName("StmF")
		strF := dict.GetName("StrF")
		p.stmIdentity = stmF == "" || stmF == "Identity"
		p.strIdentity = strF == "" || strF == "Identity"
		name := stmF
		if p.stmIdentity {
			name = strF
		}
		if name == "" || name == "Identity" {
			p.cipher = CipherNone
			return p, nil
		}
		if !p.stmIdentity && !p.strIdentity && stmF != strF {
			return nil, fmt.Errorf("%w: different crypt filters %s and %s",
				pdf.ErrUnsupported, stmF, strF)
		}
		p.cfName = name
		cfDict := cf.GetDict(name)
		if cfDict == nil {
			return nil, &pdf.MalformedFileError{
				Err: fmt.Errorf("missing crypt filter %s", name),
			}
		}
		switch cfDict.GetName("CFM") {
		case "V2":
			p.cipher = CipherRC4
			// Some writers give the length in bytes instead of bits.
			switch l := int(cfDict.GetInteger("Length")); {
			case l >= 5 && l <= 16:
				p.keyBytes = l
			case l >= 40 && l <= 128 && l%8 == 0:
				p.keyBytes = l / 8
			}
		case "AESV2":
			p.cipher = CipherAES
		case "AESV3":
			p.cipher = CipherAES
			p.keyBytes = 32
		case "None":
			p.cipher = CipherNone
		default:
			return nil, fmt.Errorf("%w: crypt filter method %q",
				ErrCipher, cfDict.GetName("CFM"))
		}
	default:
		return nil, &pdf.MalformedFileError{
			Err: fmt.Errorf("invalid V=%d", p.V),
		}
	}
	return p, nil
}

// fileCrypter encrypts strings and streams with a file encryption key,
// using algorithm 1 (for V < 5) or algorithm 1.A (for V = 5) of ISO
// 32000-2.
type fileCrypter struct {
	params *cipherParams
	cipher Cipher
	key    []byte

	perm  Permissions
	owner bool
}

func newFileCrypter(p *cipherParams, key []byte, perm Permissions, owner bool) *fileCrypter {
	return &fileCrypter{
		params: p,
		cipher: p.cipher,
		key:    key,
		perm:   perm,
		owner:  owner,
	}
}

// objectKey computes the key for the strings and streams of the indirect
// object ref.
func (c *fileCrypter) objectKey(ref pdf.Ref) []byte {
	if c.params.V >= 5 {
		return c.key
	}
	h := md5.New()
	h.Write(c.key)
	num := ref.Number()
	gen := ref.Generation()
	h.Write([]byte{
		byte(num), byte(num >> 8), byte(num >> 16),
		byte(gen), byte(gen >> 8)})
	if c.cipher == CipherAES {
		h.Write([]byte("sAlT"))
	}
	l := min(len(c.key)+5, 16)
	return h.Sum(nil)[:l]
}

func (c *fileCrypter) skip(isStream bool) bool {
	if c.cipher == CipherNone {
		return true
	}
	if isStream {
		return c.params.stmIdentity
	}
	return c.params.strIdentity
}

// Encrypt implements the [pdf.Crypter] interface.
// The input data is not modified.
func (c *fileCrypter) Encrypt(ref pdf.Ref, data []byte, isStream bool) ([]byte, error) {
	if c.skip(isStream) {
		return data, nil
	}
	key := c.objectKey(ref)
	switch c.cipher {
	case CipherAES:
		return aesEncrypt(key, data)
	default:
		out := make([]byte, len(data))
		s, err := rc4.NewCipher(key)
		if err != nil {
			return nil, err
		}
		s.XORKeyStream(out, data)
		return out, nil
	}
}

// Decrypt implements the [pdf.Crypter] interface.
func (c *fileCrypter) Decrypt(ref pdf.Ref, data []byte, isStream bool) ([]byte, error) {
	if c.skip(isStream) {
		return data, nil
	}
	key := c.objectKey(ref)
	switch c.cipher {
	case CipherAES:
		return aesDecrypt(key, data)
	default:
		out := make([]byte, len(data))
		s, err := rc4.NewCipher(key)
		if err != nil {
			return nil, err
		}
		s.XORKeyStream(out, data)
		return out, nil
	}
}

// aesEncrypt encrypts data in CBC mode.  The result consists of a random
// initialization vector followed by the ciphertext of the padded data.
func aesEncrypt(key, data []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	n := len(data)
	nPad := 16 - n%16
	out := make([]byte, 16+n+nPad) // iv | c(data|padding)
	iv := out[:16]
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, err
	}
	body := out[16:]
	copy(body, data)
	for i := n; i < len(body); i++ {
		body[i] = byte(nPad)
	}
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(body, body)
	return out, nil
}

func aesDecrypt(key, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}
	if len(data) < 32 || len(data)%16 != 0 {
		return nil, errCorrupted
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(data)-16)
	cipher.NewCBCDecrypter(block, data[:16]).CryptBlocks(out, data[16:])

	nPad := int(out[len(out)-1])
	if nPad < 1 || nPad > 16 {
		return nil, errCorrupted
	}
	return out[:len(out)-nPad], nil
}

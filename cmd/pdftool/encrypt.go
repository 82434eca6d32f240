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

package main

import (
	"errors"
	"flag"

	"seehuhn.de/go/pdfsdk"
	"seehuhn.de/go/pdfsdk/security"
)

func runEncrypt(args []string) error {
	flags := flag.NewFlagSet("encrypt", flag.ExitOnError)
	out := flags.String("o", "out.pdf", "output file name")
	force := flags.Bool("f", false, "overwrite output file if it exists")
	passwd := flags.String("passwd", "", "owner password of an encrypted input file")
	user := flags.String("user", "", "user password")
	owner := flags.String("owner", "", "owner password (prompted if not given)")
	cipher := flags.String("cipher", "aes-256", "cipher: rc4-40, rc4-128, aes-128 or aes-256")
	noPrint := flags.Bool("no-print", false, "do not allow printing")
	noCopy := flags.Bool("no-copy", false, "do not allow copying text and graphics")
	decrypt := flags.Bool("d", false, "remove the encryption instead")
	flags.Parse(args)
	if flags.NArg() != 1 {
		return errUsage
	}
	if err := checkOutput(*out, *force); err != nil {
		return err
	}

	doc, err := openFile(flags.Arg(0), *passwd)
	if err != nil {
		return err
	}

	if *decrypt {
		if err := security.RemoveSecurity(doc); err != nil {
			return err
		}
		return doc.SaveAs(*out, nil)
	}

	h := &security.StdHandler{
		UserPassword:  *user,
		OwnerPassword: *owner,
		Permissions:   security.PermAll,
	}
	switch *cipher {
	case "rc4-40":
		h.Cipher, h.KeyLength = security.CipherRC4, 5
	case "rc4-128":
		h.Cipher, h.KeyLength = security.CipherRC4, 16
	case "aes-128":
		h.Cipher, h.KeyLength = security.CipherAES, 16
	case "aes-256":
		h.Cipher, h.KeyLength = security.CipherAES, 32
	default:
		return errors.New("unknown cipher " + *cipher)
	}
	if *noPrint {
		h.Permissions &^= security.PermPrint | security.PermPrintHigh
	}
	if *noCopy {
		h.Permissions &^= security.PermExtract
	}
	if h.OwnerPassword == "" {
		h.OwnerPassword, err = readPassword("owner password")
		if err != nil {
			return err
		}
	}

	need := map[security.Cipher]pdf.Version{security.CipherRC4: pdf.V1_4, security.CipherAES: pdf.V1_6}[h.Cipher]
	if h.KeyLength == 32 {
		need = pdf.V2_0
	}
	if doc.Version() < need {
		doc.SetVersion(need)
	}

	if err := security.Encrypt(doc, h); err != nil {
		return err
	}
	return doc.SaveAs(*out, &pdf.SaveOptions{Compress: true})
}

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
	"fmt"
	"os"

	"golang.org/x/term"

	"seehuhn.de/go/pdfsdk"
	"seehuhn.de/go/pdfsdk/security"
)

// openFile reads a PDF file.  If the file is encrypted, the password is
// taken from the -passwd flag or read from the terminal.
func openFile(fname, passwd string) (*pdf.Document, error) {
	doc, err := pdf.Open(fname, nil)
	if !errors.Is(err, pdf.ErrEncrypted) {
		return doc, err
	}

	if passwd == "" {
		passwd, err = readPassword("password for " + fname)
		if err != nil {
			return nil, err
		}
	}
	h := &security.StdHandler{}
	return pdf.Open(fname, &pdf.LoadOptions{Decrypt: h.Decrypter(passwd)})
}

// readPassword reads a password from the terminal, without echo.
func readPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("no password given")
	}
	fmt.Fprint(os.Stderr, prompt+": ")
	passwd, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(passwd), nil
}

// checkOutput refuses to overwrite an existing file, unless force is set.
func checkOutput(fname string, force bool) error {
	if force {
		return nil
	}
	if _, err := os.Stat(fname); !os.IsNotExist(err) {
		return fmt.Errorf("output file %q already exists", fname)
	}
	return nil
}

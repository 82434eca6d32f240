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
	"fmt"
	"strings"

	"seehuhn.de/go/pdfsdk"
	"seehuhn.de/go/pdfsdk/bookmark"
	"seehuhn.de/go/pdfsdk/compliance"
	"seehuhn.de/go/pdfsdk/destination"
	"seehuhn.de/go/pdfsdk/metadata"
	"seehuhn.de/go/pdfsdk/nametree"
	"seehuhn.de/go/pdfsdk/security"
	"seehuhn.de/go/pdfsdk/structure"
)

func runInfo(args []string) error {
	flags := flag.NewFlagSet("info", flag.ExitOnError)
	passwd := flags.String("passwd", "", "password for encrypted files")
	flags.Parse(args)
	if flags.NArg() != 1 {
		return errUsage
	}

	doc, err := openFile(flags.Arg(0), *passwd)
	if err != nil {
		return err
	}

	fmt.Println("version:", doc.Version())
	fmt.Println("pages:", doc.PageCount())
	if box := firstPageBox(doc); box != "" {
		fmt.Println("page size:", box)
	}

	m := metadata.New(doc)
	for _, key := range m.Keys() {
		fmt.Printf("%s: %s\n", key, m.Value(key))
	}

	info, err := security.ReadEncryptInfo(doc)
	switch {
	case errors.Is(err, security.ErrNotEncrypted):
		fmt.Println("encryption: none")
	case err != nil:
		return err
	default:
		fmt.Printf("encryption: %s, %s-%d, V%d R%d\n",
			info.Handler, info.Cipher, 8*info.KeyLength, info.V, info.R)
		fmt.Println("permissions:", info.Permissions)
	}

	tagged := structure.Open(doc) != nil
	fmt.Println("tagged:", tagged)
	if part, level, err := compliance.IdentifyPDFA(doc); err == nil && part > 0 {
		fmt.Printf("PDF/A: %d%s\n", part, level)
	}
	return nil
}

func firstPageBox(doc *pdf.Document) string {
	page, err := doc.Page(0)
	if err != nil {
		return ""
	}
	box := page.MediaBox()
	return fmt.Sprintf("%g x %g", box.Dx(), box.Dy())
}

func runBookmarks(args []string) error {
	flags := flag.NewFlagSet("bookmarks", flag.ExitOnError)
	passwd := flags.String("passwd", "", "password for encrypted files")
	flags.Parse(args)
	if flags.NArg() != 1 {
		return errUsage
	}

	doc, err := openFile(flags.Arg(0), *passwd)
	if err != nil {
		return err
	}
	root := bookmark.Root(doc)
	if root == nil {
		fmt.Println("no bookmarks")
		return nil
	}
	return root.Walk(func(item *bookmark.Bookmark, depth int) error {
		target := ""
		if dest, err := item.Destination(); err == nil && dest != nil {
			if i, err := destination.PageIndex(doc, dest); err == nil {
				target = fmt.Sprintf(" (page %d)", i+1)
			}
		}
		fmt.Printf("%s%s%s\n", strings.Repeat("  ", depth), item.Title(), target)
		return nil
	})
}

func runNames(args []string) error {
	flags := flag.NewFlagSet("names", flag.ExitOnError)
	passwd := flags.String("passwd", "", "password for encrypted files")
	flags.Parse(args)
	if flags.NArg() != 1 {
		return errUsage
	}

	doc, err := openFile(flags.Arg(0), *passwd)
	if err != nil {
		return err
	}
	for _, kind := range nametree.Kinds {
		tree := nametree.Find(doc, kind)
		if tree == nil || tree.IsEmpty() {
			continue
		}
		fmt.Printf("%s:\n", kind)
		for name, obj := range tree.All() {
			fmt.Printf("  %q %s\n", name, pdf.Format(obj))
		}
	}
	return nil
}

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

// Pdftool reads, transforms and writes PDF files.
//
// Usage:
//
//	pdftool <command> [flags] <args>
//
// The commands are:
//
//	info       show version, metadata, encryption and page count
//	bookmarks  list the document outline
//	names      list the entries of the name trees
//	combine    concatenate PDF files
//	convert    change the PDF version, or prepare a file for PDF/A
//	tag        add a basic structure tree
//	summarize  create a summary of the annotations of a file
//	encrypt    encrypt a file with a password, or remove the encryption
package main

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
)

type command struct {
	name  string
	short string
	run   func(args []string) error
}

var commands []*command

func init() {
	commands = []*command{
		{"info", "show version, metadata, encryption and page count", runInfo},
		{"bookmarks", "list the document outline", runBookmarks},
		{"names", "list the entries of the name trees", runNames},
		{"combine", "concatenate PDF files", runCombine},
		{"convert", "change the PDF version, or prepare a file for PDF/A", runConvert},
		{"tag", "add a basic structure tree", runTag},
		{"summarize", "create a summary of the annotations of a file", runSummarize},
		{"encrypt", "encrypt a file with a password, or remove the encryption", runEncrypt},
	}
}

var errUsage = errors.New("usage error")

func main() {
	err := run(os.Args[1:])
	if errors.Is(err, errUsage) {
		usage()
		os.Exit(2)
	} else if err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	if len(args) < 1 {
		return errUsage
	}
	if os.Getenv("PDFTOOL_DEBUG") != "" {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}
	for _, c := range commands {
		if c.name == args[0] {
			return c.run(args[1:])
		}
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
}

func usage() {
	out := &strings.Builder{}
	fmt.Fprintln(out, "usage: pdftool <command> [flags] <args>")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "commands:")
	for _, c := range commands {
		fmt.Fprintf(out, "  %-10s %s\n", c.name, c.short)
	}
	fmt.Fprint(os.Stderr, out.String())
}

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
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"seehuhn.de/go/pdfsdk"
	"seehuhn.de/go/pdfsdk/annotsummary"
	"seehuhn.de/go/pdfsdk/combine"
	"seehuhn.de/go/pdfsdk/compliance"
	"seehuhn.de/go/pdfsdk/tagging"
)

func runCombine(args []string) error {
	flags := flag.NewFlagSet("combine", flag.ExitOnError)
	out := flags.String("o", "out.pdf", "output file name")
	force := flags.Bool("f", false, "overwrite output file if it exists")
	bookmarks := flags.Bool("bookmarks", false, "add a bookmark for every input file")
	names := flags.Bool("names", true, "merge the name trees of the input files")
	info := flags.Bool("info", false, "use the document information of the first file")
	compress := flags.Bool("z", true, "compress the output file")
	flags.Parse(args)
	if flags.NArg() < 1 {
		return errUsage
	}
	if err := checkOutput(*out, *force); err != nil {
		return err
	}

	var sources []combine.Source
	for _, arg := range flags.Args() {
		fname, ranges, err := parseSource(arg)
		if err != nil {
			return err
		}
		doc, err := openFile(fname, "")
		if err != nil {
			return err
		}
		sources = append(sources, combine.Source{Doc: doc, Pages: ranges})
	}

	fd, err := os.Create(*out)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(fd)
	opts := &combine.Options{
		Bookmarks:     *bookmarks,
		MergeOutlines: true,
		MergeNames:    *names,
		UseFirstInfo:  *info,
		Save:          &pdf.SaveOptions{Compress: *compress, ObjectStreams: *compress},
	}
	p, err := combine.Start(w, sources, opts, nil)
	if err == nil {
		err = p.Run(context.Background())
	}
	if err == nil {
		err = w.Flush()
	}
	if err2 := fd.Close(); err == nil {
		err = err2
	}
	return err
}

// parseSource splits an argument of the form "file.pdf:1-3,5" into the
// file name and the selected page ranges.  Page numbers start at 1, and
// an open range "4-" extends to the last page.
func parseSource(arg string) (string, []combine.PageRange, error) {
	fname, sel, found := strings.Cut(arg, ":")
	if !found || sel == "" {
		return arg, nil, nil
	}
	var ranges []combine.PageRange
	for _, part := range strings.Split(sel, ",") {
		first, last, isRange := strings.Cut(part, "-")
		a, err := strconv.Atoi(first)
		if err != nil || a < 1 {
			return "", nil, fmt.Errorf("invalid page range %q", part)
		}
		r := combine.PageRange{First: a - 1, Last: a - 1}
		if isRange {
			r.Last = -1
			if last != "" {
				b, err := strconv.Atoi(last)
				if err != nil || b < a {
					return "", nil, fmt.Errorf("invalid page range %q", part)
				}
				r.Last = b - 1
			}
		}
		ranges = append(ranges, r)
	}
	return fname, ranges, nil
}

func runConvert(args []string) error {
	flags := flag.NewFlagSet("convert", flag.ExitOnError)
	out := flags.String("o", "out.pdf", "output file name")
	force := flags.Bool("f", false, "overwrite output file if it exists")
	version := flags.String("version", "", "target PDF version, e.g. 1.4")
	pdfa := flags.String("pdfa", "", "PDF/A part and level, e.g. 2b")
	passwd := flags.String("passwd", "", "owner password for encrypted files")
	flags.Parse(args)
	if flags.NArg() != 1 || (*version == "") == (*pdfa == "") {
		return errUsage
	}
	if err := checkOutput(*out, *force); err != nil {
		return err
	}

	doc, err := openFile(flags.Arg(0), *passwd)
	if err != nil {
		return err
	}

	var p *pdf.Progressive
	if *version != "" {
		v, err := pdf.ParseVersion(*version)
		if err != nil {
			return err
		}
		p, err = compliance.ConvertVersion(doc, v, nil)
		if err != nil {
			return err
		}
	} else {
		part, level, err := parsePDFA(*pdfa)
		if err != nil {
			return err
		}
		lib, err := pdf.Initialize(pdf.Config{Modules: pdf.ModuleCompliance})
		if err != nil {
			return err
		}
		defer lib.Close()
		p, err = compliance.ConvertToPDFA(doc, part, level, &compliance.Options{Library: lib}, nil)
		if err != nil {
			return err
		}
	}
	if err := p.Run(context.Background()); err != nil {
		return err
	}
	return doc.SaveAs(*out, &pdf.SaveOptions{Compress: true})
}

func parsePDFA(s string) (int, compliance.Conformance, error) {
	if s == "" || s[0] < '1' || s[0] > '4' {
		return 0, "", fmt.Errorf("invalid PDF/A level %q", s)
	}
	return int(s[0] - '0'), compliance.Conformance(strings.ToUpper(s[1:])), nil
}

type tagReport struct{}

func (tagReport) PageTagged(page, total int) {}

func (tagReport) ReportEntry(e tagging.ReportEntry) {
	fmt.Fprintf(os.Stderr, "page %d: %s\n", e.Page+1, e.Message)
}

func runTag(args []string) error {
	flags := flag.NewFlagSet("tag", flag.ExitOnError)
	out := flags.String("o", "out.pdf", "output file name")
	force := flags.Bool("f", false, "overwrite output file if it exists")
	lang := flags.String("lang", "", "document language, e.g. en-GB")
	title := flags.String("title", "", "document title")
	annots := flags.Bool("annots", true, "tag annotations")
	overwrite := flags.Bool("overwrite", false, "replace an existing structure tree")
	flags.Parse(args)
	if flags.NArg() != 1 {
		return errUsage
	}
	if err := checkOutput(*out, *force); err != nil {
		return err
	}

	opts := &tagging.Options{
		Title:       *title,
		Annotations: *annots,
		Overwrite:   *overwrite,
	}
	if *lang != "" {
		tag, err := language.Parse(*lang)
		if err != nil {
			return err
		}
		opts.Lang = tag
	}

	doc, err := openFile(flags.Arg(0), "")
	if err != nil {
		return err
	}
	lib, err := pdf.Initialize(pdf.Config{Modules: pdf.ModuleTagging})
	if err != nil {
		return err
	}
	defer lib.Close()
	opts.Library = lib

	p, err := tagging.Start(doc, opts, tagReport{}, nil)
	if err != nil {
		return err
	}
	if err := p.Run(context.Background()); err != nil {
		return err
	}
	return doc.SaveAs(*out, &pdf.SaveOptions{Compress: true})
}

func runSummarize(args []string) error {
	flags := flag.NewFlagSet("summarize", flag.ExitOnError)
	out := flags.String("o", "summary.pdf", "output file name")
	force := flags.Bool("f", false, "overwrite output file if it exists")
	letter := flags.Bool("letter", false, "use US letter paper instead of A4")
	author := flags.String("author", "", "only include annotations by this author")
	flags.Parse(args)
	if flags.NArg() != 1 {
		return errUsage
	}
	if err := checkOutput(*out, *force); err != nil {
		return err
	}

	doc, err := openFile(flags.Arg(0), "")
	if err != nil {
		return err
	}
	opts := &annotsummary.Options{}
	if *letter {
		opts.Paper = annotsummary.Letter
	}
	if *author != "" {
		opts.Authors = []string{*author}
	}

	fd, err := os.Create(*out)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(fd)
	p, err := annotsummary.Start(doc, w, opts, nil, nil)
	if err == nil {
		err = p.Run(context.Background())
	}
	if err == nil {
		err = w.Flush()
	}
	if err2 := fd.Close(); err == nil {
		err = err2
	}
	if err != nil {
		os.Remove(*out)
	}
	return err
}

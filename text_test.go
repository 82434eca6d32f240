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

package pdf

import (
	"testing"
	"time"
)

func TestTextString(t *testing.T) {
	cases := []string{
		"",
		"Hello World",
		"Grüße",
		"€ 5 – “quoted”",
		"日本語",
		"mixed ☺ text",
	}
	for _, s := range cases {
		enc := TextString(s)
		if got := AsTextString(enc); got != s {
			t.Errorf("%q: round trip gave %q", s, got)
		}
	}

	if enc := TextString("Grüße"); len(enc) != 5 {
		t.Errorf("PDFDocEncoding not used: % x", enc)
	}
	if enc := TextString("日本語"); enc[0] != 0xFE || enc[1] != 0xFF {
		t.Errorf("UTF-16 not used: % x", enc)
	}
	if got := AsTextString([]byte{0xEF, 0xBB, 0xBF, 'o', 'k'}); got != "ok" {
		t.Errorf("UTF-8 string decoded as %q", got)
	}
	if got := AsTextString([]byte{0x80, 0x92}); got != "•™" {
		t.Errorf("PDFDocEncoding decoded as %q", got)
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"D:20230405123456+02'00'", time.Date(2023, 4, 5, 12, 34, 56, 0, time.FixedZone("", 7200))},
		{"D:20230405123456Z", time.Date(2023, 4, 5, 12, 34, 56, 0, time.UTC)},
		{"D:20230405123456-05'00", time.Date(2023, 4, 5, 12, 34, 56, 0, time.FixedZone("", -18000))},
		{"D:20230405", time.Date(2023, 4, 5, 0, 0, 0, 0, time.UTC)},
		{"D:2023", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"20230405123456", time.Date(2023, 4, 5, 12, 34, 56, 0, time.UTC)},
	}
	for _, test := range cases {
		got, err := ParseDate([]byte(test.in))
		if err != nil {
			t.Errorf("%q: %v", test.in, err)
			continue
		}
		if !got.Equal(test.want) {
			t.Errorf("%q: got %v, want %v", test.in, got, test.want)
		}
	}

	for _, bad := range []string{"", "D:", "yesterday"} {
		if _, err := ParseDate([]byte(bad)); err == nil {
			t.Errorf("%q: no error", bad)
		}
	}
}

func TestVersion(t *testing.T) {
	for v := V1_0; v <= V2_0; v++ {
		s, err := v.ToString()
		if err != nil {
			t.Fatal(err)
		}
		v2, err := ParseVersion(s)
		if err != nil || v2 != v {
			t.Errorf("%s: parsed as %s, %v", s, v2, err)
		}
		v3, err := VersionFromInt(v.Int())
		if err != nil || v3 != v {
			t.Errorf("%s: Int() round trip gave %s, %v", s, v3, err)
		}
	}
	if V1_7.Int() != 17 || V2_0.Int() != 20 {
		t.Error("wrong integer versions")
	}
	if _, err := ParseVersion("1.8"); err == nil {
		t.Error("1.8 accepted")
	}
	if _, err := VersionFromInt(18); err == nil {
		t.Error("18 accepted")
	}
	if s := Version(99).String(); s != "pdf.Version(99)" {
		t.Errorf("got %q", s)
	}
}

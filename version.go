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

import "strconv"

// Version represents a version of the PDF standard.
type Version int

// PDF versions supported by this library.
const (
	_ Version = iota
	V1_0
	V1_1
	V1_2
	V1_3
	V1_4
	V1_5
	V1_6
	V1_7
	V2_0
)

var versionStrings = [...]string{
	V1_0: "1.0",
	V1_1: "1.1",
	V1_2: "1.2",
	V1_3: "1.3",
	V1_4: "1.4",
	V1_5: "1.5",
	V1_6: "1.6",
	V1_7: "1.7",
	V2_0: "2.0",
}

// ParseVersion parses a PDF version string like "1.7".
func ParseVersion(verString string) (Version, error) {
	for v := V1_0; v <= V2_0; v++ {
		if versionStrings[v] == verString {
			return v, nil
		}
	}
	return 0, errVersion
}

// VersionFromInt converts the integer form of a version, as used in many
// PDF toolkits, to a Version.  The value 13 stands for PDF 1.3, 17 for
// PDF 1.7, and 20 for PDF 2.0.
func VersionFromInt(v int) (Version, error) {
	switch {
	case v >= 10 && v <= 17:
		return V1_0 + Version(v-10), nil
	case v == 20:
		return V2_0, nil
	}
	return 0, errVersion
}

// Int returns the integer form of the version, for example 17 for PDF 1.7.
func (ver Version) Int() int {
	switch {
	case ver >= V1_0 && ver <= V1_7:
		return 10 + int(ver-V1_0)
	case ver == V2_0:
		return 20
	}
	return 0
}

// ToString returns the string representation of ver, e.g. "1.7".
// If ver does not correspond to a supported PDF version, an error is
// returned.
func (ver Version) ToString() (string, error) {
	if ver >= V1_0 && ver <= V2_0 {
		return versionStrings[ver], nil
	}
	return "", errVersion
}

func (ver Version) String() string {
	s, err := ver.ToString()
	if err != nil {
		return "pdf.Version(" + strconv.Itoa(int(ver)) + ")"
	}
	return s
}

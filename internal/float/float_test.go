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

package float

import "testing"

func TestFormat(t *testing.T) {
	cases := []struct {
		x      float64
		digits int
		want   string
	}{
		{0, 2, "0"},
		{1, 2, "1"},
		{12.000000000000002, 2, "12"},
		{0.5, 2, ".5"},
		{-0.25, 2, "-.25"},
		{-0.001, 2, "0"},
		{742, 2, "742"},
		{100, 0, "100"},
		{3.14159, 3, "3.142"},
	}
	for _, c := range cases {
		if got := Format(c.x, c.digits); got != c.want {
			t.Errorf("Format(%g, %d) = %q, want %q", c.x, c.digits, got, c.want)
		}
	}
}

func TestRound(t *testing.T) {
	if got := Round(1.23456, 2); got != 1.23 {
		t.Errorf("Round: got %g", got)
	}
}

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

package compliance

import (
	"encoding/binary"
	"math"
	"time"

	"seehuhn.de/go/icc"
)

// Tag signatures which are not predefined by the icc package.
const (
	tagWhitePoint icc.TagType = 0x77747074 // "wtpt"
	tagRedXYZ     icc.TagType = 0x7258595A // "rXYZ"
	tagGreenXYZ   icc.TagType = 0x6758595A // "gXYZ"
	tagBlueXYZ    icc.TagType = 0x6258595A // "bXYZ"
	tagRedTRC     icc.TagType = 0x72545243 // "rTRC"
	tagGreenTRC   icc.TagType = 0x67545243 // "gTRC"
	tagBlueTRC    icc.TagType = 0x62545243 // "bTRC"
)

// srgbProfile returns an ICC version 2 display profile for the sRGB color
// space of IEC 61966-2.1.  The colorants are adapted to the D50 white
// point of the profile connection space.
func srgbProfile() []byte {
	trc := sRGBCurve(1024)
	p := &icc.Profile{
		Version:         icc.Version2_1_0,
		Class:           icc.DisplayDeviceProfile,
		ColorSpace:      icc.RGBSpace,
		PCS:             icc.CIEXYZSpace,
		CreationDate:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		RenderingIntent: icc.Perceptual,
		TagData: map[icc.TagType][]byte{
			icc.ProfileDescription: textDescription("sRGB IEC61966-2.1"),
			icc.Copyright:          text("No copyright, use freely"),
			tagWhitePoint:          xyz(0.9642, 1.0, 0.8249),
			tagRedXYZ:              xyz(0.4360747, 0.2225045, 0.0139322),
			tagGreenXYZ:            xyz(0.3850649, 0.7168786, 0.0971045),
			tagBlueXYZ:             xyz(0.1430804, 0.0606169, 0.7141733),
			tagRedTRC:              trc,
			tagGreenTRC:            trc,
			tagBlueTRC:             trc,
		},
	}
	return p.Encode()
}

func text(s string) []byte {
	buf := make([]byte, 8, 8+len(s)+1)
	copy(buf, "text")
	buf = append(buf, s...)
	return append(buf, 0)
}

// textDescription encodes a version 2 textDescriptionType with only the
// ASCII part filled in.
func textDescription(s string) []byte {
	buf := make([]byte, 12, 12+len(s)+1+8+3+67)
	copy(buf, "desc")
	binary.BigEndian.PutUint32(buf[8:], uint32(len(s)+1))
	buf = append(buf, s...)
	buf = append(buf, 0)
	// empty Unicode and ScriptCode descriptions
	return append(buf, make([]byte, 8+3+67)...)
}

func xyz(x, y, z float64) []byte {
	buf := make([]byte, 20)
	copy(buf, "XYZ ")
	for i, v := range []float64{x, y, z} {
		binary.BigEndian.PutUint32(buf[8+4*i:], uint32(int32(math.Round(v*65536))))
	}
	return buf
}

// sRGBCurve samples the sRGB transfer function at n points.
func sRGBCurve(n int) []byte {
	buf := make([]byte, 12+2*n)
	copy(buf, "curv")
	binary.BigEndian.PutUint32(buf[8:], uint32(n))
	for i := range n {
		v := float64(i) / float64(n-1)
		var lin float64
		if v <= 0.04045 {
			lin = v / 12.92
		} else {
			lin = math.Pow((v+0.055)/1.055, 2.4)
		}
		binary.BigEndian.PutUint16(buf[12+2*i:], uint16(math.Round(lin*65535)))
	}
	return buf
}

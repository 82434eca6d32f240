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
	"compress/zlib"
	"fmt"
	"io"

	"seehuhn.de/go/pdfsdk/internal/filter/ascii85"
	"seehuhn.de/go/pdfsdk/internal/filter/asciihex"
	"seehuhn.de/go/pdfsdk/internal/filter/lzw"
	"seehuhn.de/go/pdfsdk/internal/filter/predict"
	"seehuhn.de/go/pdfsdk/internal/filter/runlength"
)

// A Filter is one stage of the filter chain of a stream.
type Filter interface {
	// Info returns the filter name and the decode parameters.
	// The parameters are nil if all values are at their defaults.
	Info() (Name, *Dict)

	// Encode returns a writer which encodes data and writes it to w.
	// Closing the returned writer closes w.
	Encode(w io.WriteCloser) (io.WriteCloser, error)

	// Decode returns a reader for the decoded data.
	Decode(r io.Reader) (io.Reader, error)
}

// Predictor holds the predictor parameters of the Flate and LZW filters.
// The zero value means no prediction.
type Predictor struct {
	Predictor        int
	Colors           int
	BitsPerComponent int
	Columns          int
}

func (p Predictor) params() predict.Params {
	res := predict.Default()
	if p.Predictor > 0 {
		res.Predictor = p.Predictor
	}
	if p.Colors > 0 {
		res.Colors = p.Colors
	}
	if p.BitsPerComponent > 0 {
		res.BitsPerComponent = p.BitsPerComponent
	}
	if p.Columns > 0 {
		res.Columns = p.Columns
	}
	return res
}

func (p Predictor) addTo(d *Dict) *Dict {
	if p.Predictor <= 1 {
		return d
	}
	if d == nil {
		d = NewDict()
	}
	d.SetInteger("Predictor", int64(p.Predictor))
	if p.Colors > 1 {
		d.SetInteger("Colors", int64(p.Colors))
	}
	if p.BitsPerComponent > 0 && p.BitsPerComponent != 8 {
		d.SetInteger("BitsPerComponent", int64(p.BitsPerComponent))
	}
	if p.Columns > 1 {
		d.SetInteger("Columns", int64(p.Columns))
	}
	return d
}

func predictorFromDict(parms *Dict) Predictor {
	return Predictor{
		Predictor:        int(parms.GetInteger("Predictor")),
		Colors:           int(parms.GetInteger("Colors")),
		BitsPerComponent: int(parms.GetInteger("BitsPerComponent")),
		Columns:          int(parms.GetInteger("Columns")),
	}
}

func (p Predictor) decode(r io.Reader) (io.Reader, error) {
	return predict.NewReader(r, p.params())
}

// encode applies the predictor to the data written to the returned
// writer, before the data is passed on to w.
func (p Predictor) encode(w io.WriteCloser) (io.WriteCloser, error) {
	return predict.NewWriter(w, p.params())
}

// FilterFlate is the FlateDecode filter.
type FilterFlate Predictor

// Info implements the [Filter] interface.
func (f FilterFlate) Info() (Name, *Dict) {
	return "FlateDecode", Predictor(f).addTo(nil)
}

// Encode implements the [Filter] interface.
func (f FilterFlate) Encode(w io.WriteCloser) (io.WriteCloser, error) {
	zw, err := zlib.NewWriterLevel(w, zlib.BestCompression)
	if err != nil {
		return nil, err
	}
	return Predictor(f).encode(&closeBoth{WriteCloser: zw, next: w})
}

// Decode implements the [Filter] interface.
func (f FilterFlate) Decode(r io.Reader) (io.Reader, error) {
	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, err
	}
	return Predictor(f).decode(zr)
}

// FilterLZW is the LZWDecode filter.
type FilterLZW struct {
	Predictor

	// NoEarlyChange corresponds to an /EarlyChange value of 0.
	NoEarlyChange bool
}

// Info implements the [Filter] interface.
func (f FilterLZW) Info() (Name, *Dict) {
	var parms *Dict
	if f.NoEarlyChange {
		parms = NewDict()
		parms.SetInteger("EarlyChange", 0)
	}
	return "LZWDecode", f.Predictor.addTo(parms)
}

// Encode implements the [Filter] interface.
func (f FilterLZW) Encode(w io.WriteCloser) (io.WriteCloser, error) {
	return f.Predictor.encode(lzw.Encode(w, !f.NoEarlyChange))
}

// Decode implements the [Filter] interface.
func (f FilterLZW) Decode(r io.Reader) (io.Reader, error) {
	return f.Predictor.decode(lzw.Decode(r, !f.NoEarlyChange))
}

// FilterASCIIHex is the ASCIIHexDecode filter.
type FilterASCIIHex struct{}

// Info implements the [Filter] interface.
func (FilterASCIIHex) Info() (Name, *Dict) {
	return "ASCIIHexDecode", nil
}

// Encode implements the [Filter] interface.
func (FilterASCIIHex) Encode(w io.WriteCloser) (io.WriteCloser, error) {
	return asciihex.Encode(w, 79), nil
}

// Decode implements the [Filter] interface.
func (FilterASCIIHex) Decode(r io.Reader) (io.Reader, error) {
	return asciihex.Decode(r), nil
}

// FilterASCII85 is the ASCII85Decode filter.
type FilterASCII85 struct{}

// Info implements the [Filter] interface.
func (FilterASCII85) Info() (Name, *Dict) {
	return "ASCII85Decode", nil
}

// Encode implements the [Filter] interface.
func (FilterASCII85) Encode(w io.WriteCloser) (io.WriteCloser, error) {
	return ascii85.Encode(w), nil
}

// Decode implements the [Filter] interface.
func (FilterASCII85) Decode(r io.Reader) (io.Reader, error) {
	return ascii85.Decode(r), nil
}

// FilterRunLength is the RunLengthDecode filter.
type FilterRunLength struct{}

// Info implements the [Filter] interface.
func (FilterRunLength) Info() (Name, *Dict) {
	return "RunLengthDecode", nil
}

// Encode implements the [Filter] interface.
func (FilterRunLength) Encode(w io.WriteCloser) (io.WriteCloser, error) {
	return runlength.Encode(w), nil
}

// Decode implements the [Filter] interface.
func (FilterRunLength) Decode(r io.Reader) (io.Reader, error) {
	return runlength.Decode(r), nil
}

// FilterOther represents filters which are only passed through, for
// example the image compression filters.
type FilterOther struct {
	Name  Name
	Parms *Dict
}

// Info implements the [Filter] interface.
func (f FilterOther) Info() (Name, *Dict) {
	if f.Parms == nil {
		return f.Name, nil
	}
	return f.Name, f.Parms.Object().Clone().Dict()
}

// Encode implements the [Filter] interface.
func (f FilterOther) Encode(io.WriteCloser) (io.WriteCloser, error) {
	return nil, fmt.Errorf("%w: encoding with %s", ErrUnsupported, f.Name)
}

// Decode implements the [Filter] interface.
func (f FilterOther) Decode(r io.Reader) (io.Reader, error) {
	if f.Name == "Crypt" && f.Parms.GetName("Name") == "Identity" ||
		f.Name == "Crypt" && f.Parms == nil {
		return r, nil
	}
	return nil, fmt.Errorf("%w: decoding %s", ErrUnsupported, f.Name)
}

// makeFilter converts a filter name and its parameters into a Filter.
// Abbreviated names, as used in inline images, are accepted.
func makeFilter(name Name, parms *Dict) Filter {
	switch name {
	case "FlateDecode", "Fl":
		return FilterFlate(predictorFromDict(parms))
	case "LZWDecode", "LZW":
		f := FilterLZW{Predictor: predictorFromDict(parms)}
		if ec := parms.GetDirect("EarlyChange"); ec != nil && ec.Integer() == 0 {
			f.NoEarlyChange = true
		}
		return f
	case "ASCIIHexDecode", "AHx":
		return FilterASCIIHex{}
	case "ASCII85Decode", "A85":
		return FilterASCII85{}
	case "RunLengthDecode", "RL":
		return FilterRunLength{}
	default:
		return FilterOther{Name: name, Parms: parms}
	}
}

// closeBoth closes the encoder first and then the underlying writer.
type closeBoth struct {
	io.WriteCloser
	next io.Closer
}

func (w *closeBoth) Close() error {
	err := w.WriteCloser.Close()
	if err != nil {
		return err
	}
	return w.next.Close()
}

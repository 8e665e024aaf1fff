// Copyright (C) 2020 Markus L. Noga
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

package fits

import (
	"bytes"
	"io/ioutil"
	"math"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	naxisn := []int32{4, 3, 2}
	data := make([]float32, 24)
	for i := range data {
		data[i] = float32(i)*0.5 - 3
	}
	data[5] = float32(math.NaN()) // writer must replace NaNs with zero

	orig := NewImageFromNaxisn(naxisn, data)
	buf := bytes.Buffer{}
	if err := orig.Write(&buf); err != nil {
		t.Fatalf("write: %s", err)
	}
	if buf.Len()%2880 != 0 {
		t.Errorf("output size %d is not a multiple of the FITS block size", buf.Len())
	}

	res := NewImage()
	if err := res.Read(&buf, ioutil.Discard); err != nil {
		t.Fatalf("read: %s", err)
	}
	if !EqualInt32Slice(res.Naxisn, naxisn) {
		t.Fatalf("expected dimensions %v, got %v", naxisn, res.Naxisn)
	}
	if res.Pixels != orig.Pixels {
		t.Fatalf("expected %d pixels, got %d", orig.Pixels, res.Pixels)
	}
	for i, v := range res.Data {
		expected := data[i]
		if math.IsNaN(float64(expected)) {
			expected = 0
		}
		if v != expected {
			t.Errorf("pixel %d: expected %f, got %f", i, expected, v)
		}
	}
}

func TestReadRejectsGarbage(t *testing.T) {
	buf := bytes.NewBufferString("not a FITS file at all")
	res := NewImage()
	if err := res.Read(buf, ioutil.Discard); err == nil {
		t.Errorf("expected error reading garbage input")
	}
}

func TestNewImageFromImage(t *testing.T) {
	orig := NewImageFromNaxisn([]int32{2, 2}, []float32{1, 2, 3, 4})
	orig.FileName = "orig.fits"
	res := NewImageFromImage(orig, []float32{5, 6, 7, 8})
	if !EqualInt32Slice(res.Naxisn, orig.Naxisn) {
		t.Errorf("expected dimensions %v, got %v", orig.Naxisn, res.Naxisn)
	}
	if res.FileName != orig.FileName {
		t.Errorf("expected file name %s, got %s", orig.FileName, res.FileName)
	}
	if res.Data[0] != 5 || res.Data[3] != 8 {
		t.Errorf("expected replacement data, got %v", res.Data)
	}
	if &res.Data[0] == &orig.Data[0] {
		t.Errorf("expected data to be independent of the original")
	}
}

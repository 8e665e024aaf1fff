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
	"bufio"
	"image"
	"image/color"
	"io"
	"os"

	"golang.org/x/image/tiff"
)

// Write the first 2D plane of a FITS image to a 16-bit grayscale TIFF,
// scaling values from [min, max] into the uint16 range.
func (f *Image) WriteTIFF16ToFile(fileName string, min, max float32) error {
	file, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	defer writer.Flush()

	return f.WriteTIFF16(writer, min, max)
}

// Write the first 2D plane of a FITS image to a 16-bit grayscale TIFF,
// scaling values from [min, max] into the uint16 range.
func (f *Image) WriteTIFF16(writer io.Writer, min, max float32) error {
	width, height, err := f.planeDimensions()
	if err != nil {
		return err
	}

	img := image.NewGray16(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		yoffset := y * width
		for x := 0; x < width; x++ {
			v := normalize(f.Data[yoffset+x], min, max)
			img.SetGray16(x, y, color.Gray16{Y: uint16(v*65535 + 0.5)})
		}
	}

	return tiff.Encode(writer, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
}

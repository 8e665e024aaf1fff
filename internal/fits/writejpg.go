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
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"math"
	"os"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Write the first 2D plane of a FITS image to a grayscale JPG, scaling
// values from [min, max] to [0,1] and applying the given gamma.
func (f *Image) WriteMonoJPGToFile(fileName string, min, max, gamma float32, quality int) error {
	file, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	defer writer.Flush()

	return f.WriteMonoJPG(writer, min, max, gamma, quality)
}

// Write the first 2D plane of a FITS image to a grayscale JPG, scaling
// values from [min, max] to [0,1] and applying the given gamma.
func (f *Image) WriteMonoJPG(writer io.Writer, min, max, gamma float32, quality int) error {
	width, height, err := f.planeDimensions()
	if err != nil {
		return err
	}

	img := image.NewGray(image.Rect(0, 0, width, height))
	gammaInv := float64(1.0 / gamma)
	for y := 0; y < height; y++ {
		yoffset := y * width
		for x := 0; x < width; x++ {
			v := normalize(f.Data[yoffset+x], min, max)
			if gammaInv != 1.0 {
				v = float32(math.Pow(float64(v), gammaInv))
			}
			img.SetGray(x, y, color.Gray{Y: uint8(v*255 + 0.5)})
		}
	}

	return jpeg.Encode(writer, img, &jpeg.Options{Quality: quality})
}

// Write the first 2D plane of a FITS image to a false color JPG, mapping
// values from min (blue) over green to max (red). Useful for visualizing
// what a denoiser removed from an image.
func (f *Image) WriteHeatmapJPGToFile(fileName string, min, max float32, quality int) error {
	file, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	defer writer.Flush()

	return f.WriteHeatmapJPG(writer, min, max, quality)
}

// Write the first 2D plane of a FITS image to a false color JPG, mapping
// values from min (blue) over green to max (red).
func (f *Image) WriteHeatmapJPG(writer io.Writer, min, max float32, quality int) error {
	width, height, err := f.planeDimensions()
	if err != nil {
		return err
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		yoffset := y * width
		for x := 0; x < width; x++ {
			v := normalize(f.Data[yoffset+x], min, max)
			// hue 240 (blue) at min down to 0 (red) at max
			col := colorful.Hsv(240*(1-float64(v)), 1, 0.9)
			r, g, b := col.RGB255()
			img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}

	return jpeg.Encode(writer, img, &jpeg.Options{Quality: quality})
}

// Returns the dimensions of the first 2D plane of the image
func (f *Image) planeDimensions() (width, height int, err error) {
	if len(f.Naxisn) < 2 {
		return 0, 0, fmt.Errorf("%d: Unable to render %s pixel image, need at least two dimensions", f.ID, f.DimensionsToString())
	}
	return int(f.Naxisn[0]), int(f.Naxisn[1]), nil
}

// Scales a value from [min, max] into [0,1], replacing NaNs with zero
func normalize(v, min, max float32) float32 {
	v = (v - min) / (max - min)
	if math.IsNaN(float64(v)) || v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return v
}

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

package stats

import (
	"math"

	"gonum.org/v1/gonum/optimize"
)

// Estimates the location and scale of the data from its histogram peak,
// by fitting a gaussian to the binned value distribution.
// Falls back on the raw peak if the fit does not converge.
func HistogramScaleLoc(data []float32, min, max float32, numBins int32) (location, scale float32) {
	bins := make([]int32, numBins)
	Histogram(data, min, max, bins)
	loc, sc, err := GetModeStdDevFromHistogram(bins, min, max)
	if err != nil {
		loc, _ = GetPeak(bins, min, max)
		sc = 0
	}
	return loc, sc
}

// Calculate histogram of data between min and max into given bins
func Histogram(data []float32, min, max float32, bins []int32) {
	for i := range bins {
		bins[i] = 0
	}
	if max <= min {
		bins[0] = int32(len(data))
		return
	}
	scale := float32(len(bins)-1) / (max - min)
	for _, d := range data {
		index := (d - min) * scale
		bins[int(index)]++
	}
}

// Returns the location and the value of the histogram peak
func GetPeak(bins []int32, min, max float32) (x, y float32) {
	maxIndex, maxValue := -1, int32(math.MinInt32)
	for i, v := range bins {
		if v > maxValue {
			maxIndex, maxValue = i, v
		}
	}

	x = min + (float32(maxIndex)+0.5)*(max-min)/float32(len(bins)-1)
	y = float32(maxValue)
	return x, y
}

// Calculates the mode and the standard deviation of the given histogram,
// via a Nelder-Mead fit of a gaussian to the binned counts
func GetModeStdDevFromHistogram(bins []int32, min, max float32) (mode, stdDev float32, err error) {
	// Take an educated initial guess: the maximum value of the histogram
	peak, peakVal := GetPeak(bins, min, max)

	// Now minimize the distance between the histogram and a normal distribution
	x0 := []float64{float64(peakVal), float64(peak), 5.0}
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			alpha, mu, sigma := float32(x[0]), float32(x[1]), float32(x[2])
			scaler := alpha / (sigma * float32(math.Sqrt(2*math.Pi)))
			sumSqDiff := float32(0)

			for i, y := range bins {
				x := min + (float32(i)+0.5)*(max-min)/float32(len(bins)-1)

				xmusig := (x - mu) / sigma
				yPredict := scaler * float32(math.Exp(float64(-0.5*xmusig*xmusig)))

				diff := float32(y) - yPredict
				sumSqDiff += diff * diff
			}
			variance := sumSqDiff / float32(len(bins))
			return math.Sqrt(float64(variance))
		},
	}
	result, err := optimize.Minimize(problem, x0, nil, &optimize.NelderMead{})
	if err != nil {
		return -1, -1, err
	}

	return float32(result.X[1]), float32(math.Abs(result.X[2])), nil
}

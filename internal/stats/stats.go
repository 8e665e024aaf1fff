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
	"fmt"
	"math"
)

// Enumerated type for location and scale estimator modes
type LSEstimatorMode int
const (
	LSEMeanStdDev LSEstimatorMode = iota  // Mean and standard deviation
	LSEMedianMAD                          // Sampled median and median absolute deviation
	LSESCMedianQn                         // Iterative sigma-clipped sampled median and sampled Qn (standard)
	LSEHistogram                          // Histogram peak with gaussian fit
)

// Number of samples for the randomized estimators
const numSamples=128*1024

// Statistics on image data: basic min/max/mean/stddev, and lazily computed
// robust location and scale and noise estimates, which are more expensive.
type Stats struct {
	data  []float32  // The underlying data
	width int32      // Line width for noise estimation

	min, max, mean float32
	stdDev         float32
	haveStdDev     bool

	mode             LSEstimatorMode
	location, scale  float32
	haveLocScale     bool

	noise     float32
	haveNoise bool
}

// Calculates statistics for the data. Finds min, max and mean right away,
// all other indicators are computed on first access.
func NewStats(data []float32, width int32) *Stats {
	min, mean, max:=calcMinMeanMax(data)
	return &Stats{data: data, width: width, min: min, max: max, mean: mean, mode: LSESCMedianQn}
}

// Creates statistics with known min, max and mean, avoiding a pass over the data
func NewStatsWithMMM(data []float32, width int32, min, max, mean float32) *Stats {
	return &Stats{data: data, width: width, min: min, max: max, mean: mean, mode: LSESCMedianQn}
}

// Selects the location and scale estimator mode. Invalidates cached values
func (s *Stats) SetMode(mode LSEstimatorMode) {
	if mode!=s.mode { s.haveLocScale=false }
	s.mode=mode
}

func (s *Stats) Min()  float32 { return s.min  }
func (s *Stats) Max()  float32 { return s.max  }
func (s *Stats) Mean() float32 { return s.mean }

func (s *Stats) StdDev() float32 {
	if !s.haveStdDev {
		s.stdDev=float32(math.Sqrt(float64(calcVariance(s.data, s.mean))))
		s.haveStdDev=true
	}
	return s.stdDev
}

// Robust location indicator as per the selected estimator mode
func (s *Stats) Location() float32 {
	s.calcLocationScale()
	return s.location
}

// Robust scale indicator as per the selected estimator mode
func (s *Stats) Scale() float32 {
	s.calcLocationScale()
	return s.scale
}

func (s *Stats) calcLocationScale() {
	if s.haveLocScale { return }
	switch s.mode {
	case LSEMeanStdDev:
		s.location, s.scale=s.mean, s.StdDev()
	case LSEMedianMAD:
		samples:=make([]float32, numSamples)
		s.location=FastApproxMedian(s.data, samples)
		s.scale   =FastApproxMAD(s.data, s.location, samples)
	case LSESCMedianQn:
		s.location, s.scale=FastApproxSigmaClippedMedianAndQn(s.data, 2, 2, (s.max-s.min)/65535.0, numSamples)
	case LSEHistogram:
		s.location, s.scale=HistogramScaleLoc(s.data, s.min, s.max, 4096)
	}
	s.haveLocScale=true
}

// Estimate of the gaussian noise level on the data, computed on first access
func (s *Stats) Noise() float32 {
	if !s.haveNoise {
		s.noise=EstimateNoise(s.data, s.width)
		s.haveNoise=true
	}
	return s.noise
}

// Pretty print statistics to string
func (s *Stats) String() string {
	return fmt.Sprintf("Min %.6g Max %.6g Mean %.6g StdDev %.6g Location %.6g Scale %.6g",
		s.min, s.max, s.mean, s.StdDev(), s.Location(), s.Scale())
}

// Calculate minimum, mean and maximum of given data
func calcMinMeanMax(data []float32) (min, mean, max float32) {
	mmin, msum, mmax:=data[0], float64(0), data[0]
	for _,v:=range data {
		if v<mmin { mmin=v }
		if v>mmax { mmax=v }
		msum+=float64(v)
	}
	return mmin, float32(msum/float64(len(data))), mmax
}

// Calculate variance of given data from the provided mean
func calcVariance(data []float32, mean float32) float32 {
	sumSqDiff:=float64(0)
	for _,v:=range data {
		diff:=float64(v-mean)
		sumSqDiff+=diff*diff
	}
	return float32(sumSqDiff/float64(len(data)))
}

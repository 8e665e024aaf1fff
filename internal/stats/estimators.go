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
	"github.com/valyala/fastrand"
	"github.com/mlnoga/tvdenoise/internal/qsort"
)

// Calculates fast approximate median of the (presumably large) data by subsampling.
// Uses provided samples array as scratchpad
func FastApproxMedian(data []float32, samples []float32) float32 {
	max:=uint32(len(data))
	rng:=fastrand.RNG{}
	for i:=range samples {
		samples[i]=data[rng.Uint32n(max)]
	}
	return qsort.QSelectMedianFloat32(samples)
}

// Calculates fast approximate median of the data within the given bounds by subsampling.
// Uses provided samples array as scratchpad
func FastApproxBoundedMedian(data []float32, lowBound, highBound float32, samples []float32) float32 {
	max:=uint32(len(data))
	rng:=fastrand.RNG{}
	for i:=range samples {
		var d float32
		for {
			d=data[rng.Uint32n(max)]
			if d>=lowBound && d<=highBound { break }
		}
		samples[i]=d
	}
	return qsort.QSelectMedianFloat32(samples)
}

// Calculates fast approximate median of absolute differences from the given location by subsampling.
// Uses provided samples array as scratchpad
func FastApproxMAD(data []float32, location float32, samples []float32) float32 {
	max:=uint32(len(data))
	rng:=fastrand.RNG{}
	for i:=range samples {
		samples[i]=float32(math.Abs(float64(data[rng.Uint32n(max)]-location)))
	}
	return qsort.QSelectMedianFloat32(samples)*1.4826  // normalize to Gaussian std dev.
}

// Calculates fast approximate Qn scale estimate of the data by subsampling pairs
// and taking the first quartile of their absolute differences.
// Original paper http://web.ipac.caltech.edu/staff/fmasci/home/astro_refs/BetterThanMAD.pdf
func FastApproxQn(data []float32, samples []float32) float32 {
	max:=uint32(len(data))
	rng:=fastrand.RNG{}
	for i:=range samples {
		index1:=1+rng.Uint32n(max-1)
		index2:=rng.Uint32n(index1)
		samples[i]=float32(math.Abs(float64(data[index1]-data[index2])))
	}
	return qsort.QSelectFirstQuartileFloat32(samples)*2.21914  // normalize to Gaussian std dev, for numSamples >>1000.
	// Original paper had wrong constant, source for constant https://rdrr.io/cran/robustbase/man/Qn.html
}

// Calculates fast approximate Qn scale estimate of the data within the given bounds by subsampling pairs.
func FastApproxBoundedQn(data []float32, lowBound, highBound float32, samples []float32) float32 {
	max:=uint32(len(data))
	rng:=fastrand.RNG{}
	for i:=range samples {
		var d1, d2 float32
		for {
			index1:=1+rng.Uint32n(max-1)
			d1=data[index1]
			if d1< lowBound || d1> highBound { continue }
			d2=data[rng.Uint32n(index1)]
			if d2>=lowBound && d2<=highBound { break    }
		}
		samples[i]=float32(math.Abs(float64(d1-d2)))
	}
	return qsort.QSelectFirstQuartileFloat32(samples)*2.21914  // normalize to Gaussian std dev, for numSamples >>1000
}

// Returns a rapid robust estimation of location and scale. Uses a fast approximate
// median based on randomized sampling, iteratively sigma clipped with a fast
// approximate Qn based on random sampling. Exits once the absolute change in
// location and scale is below epsilon.
func FastApproxSigmaClippedMedianAndQn(data []float32, sigmaLow, sigmaHigh float32, epsilon float32, numSamples int) (location, scale float32) {
	samples:=make([]float32, numSamples)
	location=FastApproxMedian(data, samples) // sampling
	scale   =FastApproxQn    (data, samples) // sampling

	for i:=0; ; i++ {
		lowBound :=location - sigmaLow*scale
		highBound:=location + sigmaHigh*scale

		newLocation:=FastApproxBoundedMedian(data, lowBound, highBound, samples) // sampling
		newScale   :=FastApproxBoundedQn    (data, lowBound, highBound, samples) // sampling
		newScale   *=1.134                                    // adjust for subsequent clipping

		// once converged, return results
		if float32(math.Abs(float64(newLocation-location))+math.Abs(float64(newScale-scale)))<=epsilon || i>=10 {
			scale=FastApproxQn(data, samples) // sampling
			return location, scale
		}

		location, scale = newLocation, newScale
	}
}

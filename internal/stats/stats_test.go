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
	"testing"

	"github.com/valyala/fastrand"
)

func TestBasicStats(t *testing.T) {
	data := []float32{2, 4, 4, 4, 5, 5, 7, 9}
	s := NewStats(data, 4)

	if s.Min() != 2 {
		t.Errorf("min=%f; want 2", s.Min())
	}
	if s.Max() != 9 {
		t.Errorf("max=%f; want 9", s.Max())
	}
	if s.Mean() != 5 {
		t.Errorf("mean=%f; want 5", s.Mean())
	}
	if math.Abs(float64(s.StdDev()-2)) > 1e-6 {
		t.Errorf("stdDev=%f; want 2", s.StdDev())
	}
}

func TestLocationScaleOnGaussian(t *testing.T) {
	rng := fastrand.RNG{}
	rng.Seed(12)
	data := make([]float32, 256*1024)
	for i := range data {
		// approximate gaussian via central limit of four uniforms
		sum := float32(0)
		for k := 0; k < 4; k++ {
			sum += float32(rng.Uint32n(1000001)) * 1e-6
		}
		data[i] = 100 + 3*(sum-2)
	}

	modes := []LSEstimatorMode{LSEMeanStdDev, LSEMedianMAD, LSESCMedianQn, LSEHistogram}
	for _, mode := range modes {
		s := NewStats(data, 512)
		s.SetMode(mode)
		if math.Abs(float64(s.Location()-100)) > 0.5 {
			t.Errorf("mode %d: location=%f; want near 100", mode, s.Location())
		}
		if s.Scale() <= 0 || s.Scale() > 4 {
			t.Errorf("mode %d: scale=%f; want in (0,4]", mode, s.Scale())
		}
	}
}

func TestHistogramPeak(t *testing.T) {
	data := []float32{0, 1, 1, 1, 1, 2, 3, 4}
	bins := make([]int32, 5)
	Histogram(data, 0, 4, bins)

	want := []int32{1, 4, 1, 1, 1}
	for i, b := range bins {
		if b != want[i] {
			t.Errorf("bin[%d]=%d; want %d", i, b, want[i])
		}
	}
	x, y := GetPeak(bins, 0, 4)
	if math.Abs(float64(x-1.5)) > 1e-6 || y != 4 {
		t.Errorf("peak at %f value %f; want 1.5 and 4", x, y)
	}
}

func TestEstimateNoise(t *testing.T) {
	width, height := 64, 64
	flat := make([]float32, width*height)
	for i := range flat {
		flat[i] = 3.14
	}
	if n := EstimateNoise(flat, int32(width)); n != 0 {
		t.Errorf("noise on constant image=%f; want 0", n)
	}

	rng := fastrand.RNG{}
	rng.Seed(5)
	small := make([]float32, width*height)
	large := make([]float32, width*height)
	for i := range small {
		r := float32(rng.Uint32n(2001))*1e-3 - 1
		small[i] = 3.14 + 0.1*r
		large[i] = 3.14 + r
	}
	nSmall := EstimateNoise(small, int32(width))
	nLarge := EstimateNoise(large, int32(width))
	if nSmall <= 0 || nLarge <= 0 || nLarge <= nSmall {
		t.Errorf("noise estimates small=%f large=%f; want 0 < small < large", nSmall, nLarge)
	}
}

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

package tv

import (
	"math"
	"testing"

	"github.com/valyala/fastrand"
)

func fieldMagnitude(g *Grid, field []float32, i int32) float64 {
	normSq := float64(0)
	for c := range g.Active {
		v := float64(field[int32(c)*g.Pixels+i])
		normSq += v * v
	}
	return math.Sqrt(normSq)
}

func TestMagnitudeThresholdBounded(t *testing.T) {
	g, err := NewGrid([]int32{8, 6}, nil)
	if err != nil {
		t.Fatalf("grid: %s", err.Error())
	}

	rng := fastrand.RNG{}
	rng.Seed(7)
	field := make([]float32, int(g.Pixels)*len(g.Active))
	for i := range field {
		field[i] = float32(rng.Uint32n(40001))*1e-3 - 20
	}

	thresholds := []float32{0.1, 1, 5, 100}
	for _, threshold := range thresholds {
		dst := make([]float32, len(field))
		g.MagnitudeThreshold(dst, field, threshold)

		for i := int32(0); i < g.Pixels; i++ {
			before := fieldMagnitude(g, field, i)
			after := fieldMagnitude(g, dst, i)
			if after > float64(threshold)*(1+1e-6) {
				t.Errorf("t=%f element %d: magnitude %f exceeds threshold", threshold, i, after)
			}
			if before <= float64(threshold) {
				for c := range g.Active {
					o := int32(c)*g.Pixels + i
					if dst[o] != field[o] {
						t.Errorf("t=%f element %d comp %d: vector inside ball was changed", threshold, i, c)
					}
				}
			} else if before > 0 {
				// direction must be preserved: components scale uniformly
				scale := after / before
				for c := range g.Active {
					o := int32(c)*g.Pixels + i
					if math.Abs(float64(dst[o])-scale*float64(field[o])) > 1e-4 {
						t.Errorf("t=%f element %d comp %d: %f not a uniform rescale of %f", threshold, i, c, dst[o], field[o])
					}
				}
			}
		}
	}
}

func TestMagnitudeThresholdZeroVector(t *testing.T) {
	g, err := NewGrid([]int32{4, 4}, nil)
	if err != nil {
		t.Fatalf("grid: %s", err.Error())
	}
	field := make([]float32, int(g.Pixels)*len(g.Active))
	g.MagnitudeThreshold(field, field, 0.5)
	for i, v := range field {
		if v != 0 {
			t.Errorf("zero field changed at %d: %f", i, v)
		}
	}
}

func TestMagnitudeThresholdInPlace(t *testing.T) {
	g, err := NewGrid([]int32{5}, nil)
	if err != nil {
		t.Fatalf("grid: %s", err.Error())
	}
	field := []float32{3, -0.25, 0, 10, -4}
	g.MagnitudeThreshold(field, field, 1)

	want := []float32{1, -0.25, 0, 1, -1}
	for i, v := range field {
		if math.Abs(float64(v-want[i])) > 1e-6 {
			t.Errorf("field[%d]=%f; want %f", i, v, want[i])
		}
	}
}

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
)

// Projects every per-element gradient vector of the field onto the L2 ball
// of radius t: vectors with euclidean magnitude above t across the component
// planes are rescaled to magnitude t, all others pass through unchanged.
// In particular a zero vector stays zero, so no division by zero can occur.
// dst and field may be the same slice; both use the Gradient plane layout.
func (g *Grid) MagnitudeThreshold(dst, field []float32, t float32) {
	g.magnitudeThreshold(dst, field, t, 0, g.Pixels)
}

// Per-element L2 ball projection of the elements in [lo, hi).
func (g *Grid) magnitudeThreshold(dst, field []float32, t float32, lo, hi int32) {
	comps:=int32(len(g.Active))
	for i:=lo; i<hi; i++ {
		normSq:=float64(0)
		for c:=int32(0); c<comps; c++ {
			v:=float64(field[c*g.Pixels+i])
			normSq+=v*v
		}
		norm:=math.Sqrt(normSq)
		if norm>float64(t) {
			scale:=float32(float64(t)/norm)
			for c:=int32(0); c<comps; c++ {
				dst[c*g.Pixels+i]=field[c*g.Pixels+i]*scale
			}
		} else if &dst[0]!=&field[0] {
			for c:=int32(0); c<comps; c++ {
				dst[c*g.Pixels+i]=field[c*g.Pixels+i]
			}
		}
	}
}

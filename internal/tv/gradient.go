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

// Computes the forward difference gradient of src over the active dimensions.
// dst must hold g.Pixels values per active dimension, laid out as consecutive
// planes like the channels of a multi-channel image: component c for element i
// lives at dst[c*g.Pixels+i]. The difference at the trailing boundary of each
// dimension is zero; there is no wraparound or reflection.
func (g *Grid) Gradient(dst, src []float32) {
	g.gradient(dst, src, 0, g.Pixels)
}

// Forward difference gradient of the elements in [lo, hi). Elements outside
// the range are read but never written, so disjoint ranges can run concurrently.
func (g *Grid) gradient(dst, src []float32, lo, hi int32) {
	for c,d:=range g.Active {
		plane :=dst[int32(c)*g.Pixels : (int32(c)+1)*g.Pixels]
		stride:=g.Strides[d]
		n     :=g.Naxisn[d]
		for i:=lo; i<hi; i++ {
			if (i/stride)%n < n-1 {
				plane[i]=src[i+stride]-src[i]
			} else {
				plane[i]=0
			}
		}
	}
}

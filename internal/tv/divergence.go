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

// Computes the backward difference divergence of a gradient field, the
// negative adjoint of Gradient: <Gradient(x), y> == <x, -Divergence(y)>
// for all fields y whose trailing boundary entries are zero. field uses the
// same plane layout as Gradient output; dst holds one value per element.
// Reads outside the array boundaries count as zero.
func (g *Grid) Divergence(dst, field []float32) {
	g.divergence(dst, field, 0, g.Pixels)
}

// Backward difference divergence of the elements in [lo, hi).
func (g *Grid) divergence(dst, field []float32, lo, hi int32) {
	for i:=lo; i<hi; i++ {
		dst[i]=0
	}
	for c,d:=range g.Active {
		plane :=field[int32(c)*g.Pixels : (int32(c)+1)*g.Pixels]
		stride:=g.Strides[d]
		n     :=g.Naxisn[d]
		for i:=lo; i<hi; i++ {
			v:=plane[i]
			if (i/stride)%n > 0 {
				v-=plane[i-stride]
			}
			dst[i]+=v
		}
	}
}

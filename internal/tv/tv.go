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


// Package tv implements total variation denoising of n-dimensional arrays
// with basis pursuit dequantization (BPDQ), restricted to a chosen subset
// of the array dimensions. More information on the algorithm can be found
// at http://wiki.epfl.ch/bpdq#download
package tv

import (
	"fmt"
	"math"
)

// Geometry for one denoising run: array dimensions, flat strides and the
// subset of dimensions participating in gradient calculations. Built once
// via NewGrid and treated as read-only afterwards.
type Grid struct {
	Naxisn  []int32  // Axis dimensions, most quickly varying dimension first (i.e. X,Y)
	Strides []int32  // Flat data offset between neighboring elements, per dimension
	Pixels  int32    // Number of elements in the array. Product of Naxisn[]
	Active  []int32  // Indices of the dimensions participating in gradients
}

// Creates a grid for the given axis dimensions and dimension selection mask.
// A nil mask selects all dimensions. Returns an error if the array is empty,
// the mask length does not match the dimensionality, or no dimension is selected.
func NewGrid(naxisn []int32, dimsProcessed []bool) (g *Grid, err error) {
	if len(naxisn)==0 { return nil, fmt.Errorf("grid: empty dimension list") }
	if dimsProcessed!=nil && len(dimsProcessed)!=len(naxisn) {
		return nil, fmt.Errorf("grid: dimension mask has %d entries for %d axes", len(dimsProcessed), len(naxisn))
	}

	strides:=make([]int32, len(naxisn))
	pixels :=int32(1)
	for i,n:=range naxisn {
		if n<=0 { return nil, fmt.Errorf("grid: invalid axis %d dimension %d", i+1, n) }
		strides[i]=pixels
		pixels*=n
	}

	active:=make([]int32, 0, len(naxisn))
	for i:=range naxisn {
		if dimsProcessed==nil || dimsProcessed[i] {
			active=append(active, int32(i))
		}
	}
	if len(active)==0 { return nil, fmt.Errorf("grid: dimension mask selects no dimensions") }

	return &Grid{
		Naxisn : append([]int32(nil), naxisn...), // clone slice
		Strides: strides,
		Pixels : pixels,
		Active : active,
	}, nil
}

// Isotropic total variation of the data over the active dimensions:
// the sum over all elements of the euclidean norm of the forward
// difference vector, with zero padding at the trailing boundaries.
func (g *Grid) TotalVariation(data []float32) float32 {
	sum:=float64(0)
	for i:=int32(0); i<g.Pixels; i++ {
		normSq:=float64(0)
		for _,d:=range g.Active {
			stride:=g.Strides[d]
			if (i/stride)%g.Naxisn[d] < g.Naxisn[d]-1 {
				diff:=float64(data[i+stride]-data[i])
				normSq+=diff*diff
			}
		}
		sum+=math.Sqrt(normSq)
	}
	return float32(sum)
}

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
	"fmt"
	"runtime"
)

// Parameters for one TV denoising run. A nil DimsProcessed selects all
// dimensions of the array for gradient calculations.
type Params struct {
	Lambda        float32 `json:"lambda"`        // regularization weight, >0. Larger values smooth more strongly
	Iterations    int32   `json:"iterations"`    // number of projected gradient steps on the dual variable, >=0
	DimsProcessed []bool  `json:"dimsProcessed"` // dimension selection mask, nil=all
}

// Checks parameter preconditions. Lambda zero is rejected rather than treated
// as a degenerate identity run, so callers notice no-op configurations.
func (p *Params) Validate() error {
	if !(p.Lambda>0)   { return fmt.Errorf("tv: invalid lambda %g, must be greater than zero", p.Lambda) }
	if p.Iterations<0  { return fmt.Errorf("tv: invalid iteration count %d, must not be negative", p.Iterations) }
	return nil
}

// Denoises the given flat data array of the given dimensions by minimizing
// lambda * || f - f0 ||_2^2 + TV(f) with basis pursuit dequantization, where
// f0 is the input, and TV is calculated along the selected dimensions only.
// This can be used e.g. to perform 3D total variation denoising on a 4D
// dataset by selecting dimsProcessed [true true true false].
//
// The scheme is projected gradient ascent on a dual variable living in
// gradient space: starting from dual=0, each iteration computes the estimate
// f = f0 - Divergence(dual), steps the dual against the scaled gradient of
// the estimate, and projects it back onto the L2 ball of radius gamma. The
// step size beta=1/(4*activeDims) bounds the norm of the combined
// gradient/divergence operator, and gamma=lambda sets the projection radius.
// Convergence is not checked; the loop runs exactly params.Iterations times
// and zero iterations returns an unmodified copy of the input.
//
// Returns a newly allocated result of the same length; the input is left
// untouched. Per-element work within each pass is spread over up to
// maxThreads goroutines (0 selects GOMAXPROCS), iterations stay sequential.
func DenoiseBPDQ(data []float32, naxisn []int32, params Params, maxThreads int) (res []float32, err error) {
	if err=params.Validate(); err!=nil { return nil, err }
	g, err:=NewGrid(naxisn, params.DimsProcessed)
	if err!=nil { return nil, err }
	if int(g.Pixels)!=len(data) {
		return nil, fmt.Errorf("tv: data length %d does not match %d grid elements", len(data), g.Pixels)
	}
	if maxThreads<=0 { maxThreads=runtime.GOMAXPROCS(0) }

	beta :=float32(1)/float32(4*len(g.Active))
	gamma:=params.Lambda

	res     =make([]float32, g.Pixels)
	dual   :=make([]float32, int(g.Pixels)*len(g.Active))
	grad   :=make([]float32, int(g.Pixels)*len(g.Active))

	for iter:=int32(0); iter<params.Iterations; iter++ {
		g.forEachChunk(maxThreads, func(lo, hi int32) {
			g.divergence(res, dual, lo, hi)
			for i:=lo; i<hi; i++ {
				res[i]=data[i]-res[i]     // current estimate given the dual state
			}
		})
		g.forEachChunk(maxThreads, func(lo, hi int32) {
			g.gradient(grad, res, lo, hi)
			for c:=0; c<len(g.Active); c++ {
				plane:=int32(c)*g.Pixels
				for i:=lo; i<hi; i++ {
					dual[plane+i]-=beta*grad[plane+i]
				}
			}
			g.magnitudeThreshold(dual, dual, gamma, lo, hi)
		})
	}

	g.forEachChunk(maxThreads, func(lo, hi int32) {
		g.divergence(res, dual, lo, hi)
		for i:=lo; i<hi; i++ {
			res[i]=data[i]-res[i]
		}
	})
	return res, nil
}

// Minimum number of elements per chunk; smaller arrays run single threaded
const minChunkSize = 1024

// Runs fn over disjoint chunks of the element range [0, g.Pixels) with the
// given concurrency limit, and waits for all chunks to finish. fn must only
// write elements within its chunk.
func (g *Grid) forEachChunk(maxThreads int, fn func(lo, hi int32)) {
	chunks:=int32(maxThreads)
	if max:=(g.Pixels+minChunkSize-1)/minChunkSize; chunks>max { chunks=max }
	if chunks<=1 {
		fn(0, g.Pixels)
		return
	}

	limiter:=make(chan bool, chunks)
	chunkSize:=(g.Pixels+chunks-1)/chunks
	for lo:=int32(0); lo<g.Pixels; lo+=chunkSize {
		hi:=lo+chunkSize
		if hi>g.Pixels { hi=g.Pixels }
		limiter <- true
		go func(lo, hi int32) {
			defer func() { <-limiter }()
			fn(lo, hi)
		}(lo, hi)
	}
	for i:=0; i<cap(limiter); i++ {  // wait for goroutines to finish
		limiter <- true
	}
}

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

package tvop

import (
	"encoding/json"
	"fmt"
	"strings"
	"github.com/valyala/fastrand"
	"github.com/mlnoga/tvdenoise/internal/fits"
	"github.com/mlnoga/tvdenoise/internal/ops"
	"github.com/mlnoga/tvdenoise/internal/tv"
)


// Total variation denoising of an image with basis pursuit dequantization.
// Optionally writes the removed noise as a false color JPEG for inspection
type OpTVDenoise struct {
	ops.OpUnaryBase
	Lambda          float32   `json:"lambda"`
	Iterations      int32     `json:"iterations"`
	DimsProcessed   []bool    `json:"dimsProcessed"`
	ResidualPattern string    `json:"residualPattern"`
}

func init() { ops.SetOperatorFactory(func() ops.Operator { return NewOpTVDenoiseDefaults() })} // register the operator for JSON decoding

func NewOpTVDenoiseDefaults() *OpTVDenoise { return NewOpTVDenoise(0.5, 50, nil, "") }

func NewOpTVDenoise(lambda float32, iterations int32, dimsProcessed []bool, residualPattern string) *OpTVDenoise {
	op:=&OpTVDenoise{
		OpUnaryBase     : ops.OpUnaryBase{OpBase : ops.OpBase{Type: "tvDenoise"}},
		Lambda          : lambda,
		Iterations      : iterations,
		DimsProcessed   : dimsProcessed,
		ResidualPattern : residualPattern,
	}
	op.OpUnaryBase.Apply=op.Apply // assign class method to superclass abstract method
	return op
}

// Unmarshal the type from JSON with default values for missing entries
func (op *OpTVDenoise) UnmarshalJSON(data []byte) error {
	type defaults OpTVDenoise
	def:=defaults( *NewOpTVDenoiseDefaults() )
	err:=json.Unmarshal(data, &def)
	if err!=nil { return err }
	*op=OpTVDenoise(def)
	op.OpUnaryBase.Apply=op.Apply // make method receiver point to op, not def
	return nil
}

func (op *OpTVDenoise) Apply(f *fits.Image, c *ops.Context) (result *fits.Image, err error) {
	params:=tv.Params{
		Lambda        : op.Lambda,
		Iterations    : op.Iterations,
		DimsProcessed : op.DimsProcessed,
	}
	data, err:=tv.DenoiseBPDQ(f.Data, f.Naxisn, params, c.MaxThreads)
	if err!=nil { return nil, fmt.Errorf("%d: %s", f.ID, err.Error()) }

	result=fits.NewImageFromImage(f, data)
	fmt.Fprintf(c.Log, "%d: TV denoised with lambda %.3f in %d iterations, stats %v\n",
	            result.ID, op.Lambda, op.Iterations, result.Stats)

	if op.ResidualPattern!="" {
		if err=op.writeResidual(f, result, c); err!=nil { return nil, err }
	}
	return result, nil
}

// Writes the noise removed from the image as a false color JPEG
func (op *OpTVDenoise) writeResidual(in, out *fits.Image, c *ops.Context) error {
	residual:=make([]float32, in.Pixels)
	for i, v:=range in.Data {
		residual[i]=v-out.Data[i]
	}
	resImage:=fits.NewImageFromImage(in, residual)

	fileName:=op.ResidualPattern
	if strings.Contains(fileName, "%d") {
		fileName=fmt.Sprintf(op.ResidualPattern, in.ID)
	}
	fmt.Fprintf(c.Log, "%d: Writing %s pixel residual heatmap to %s ...\n",
	            in.ID, resImage.DimensionsToString(), fileName)
	return resImage.WriteHeatmapJPGToFile(fileName, resImage.Stats.Min(), resImage.Stats.Max(), 95)
}


// Adds pseudo-gaussian noise of given sigma to an image,
// for testing denoisers on synthetic data
type OpAddNoise struct {
	ops.OpUnaryBase
	Sigma      float32   `json:"sigma"`
	Seed       uint32    `json:"seed"`
}

func init() { ops.SetOperatorFactory(func() ops.Operator { return NewOpAddNoiseDefaults() })} // register the operator for JSON decoding

func NewOpAddNoiseDefaults() *OpAddNoise { return NewOpAddNoise(0, 0) }

func NewOpAddNoise(sigma float32, seed uint32) *OpAddNoise {
	op:=&OpAddNoise{
		OpUnaryBase : ops.OpUnaryBase{OpBase : ops.OpBase{Type: "addNoise"}},
		Sigma       : sigma,
		Seed        : seed,
	}
	op.OpUnaryBase.Apply=op.Apply // assign class method to superclass abstract method
	return op
}

// Unmarshal the type from JSON with default values for missing entries
func (op *OpAddNoise) UnmarshalJSON(data []byte) error {
	type defaults OpAddNoise
	def:=defaults( *NewOpAddNoiseDefaults() )
	err:=json.Unmarshal(data, &def)
	if err!=nil { return err }
	*op=OpAddNoise(def)
	op.OpUnaryBase.Apply=op.Apply // make method receiver point to op, not def
	return nil
}

func (op *OpAddNoise) Apply(f *fits.Image, c *ops.Context) (result *fits.Image, err error) {
	if op.Sigma<=0 { return f, nil }

	rng:=fastrand.RNG{}
	rng.Seed(op.Seed)
	data:=make([]float32, f.Pixels)
	// sum of twelve uniforms has unit variance and is close enough to gaussian
	for i, v:=range f.Data {
		sum:=float32(0)
		for j:=0; j<12; j++ {
			sum+=float32(rng.Uint32n(1<<24))*(1.0/(1<<24))
		}
		data[i]=v+op.Sigma*(sum-6)
	}

	result=fits.NewImageFromImage(f, data)
	fmt.Fprintf(c.Log, "%d: Added noise with sigma %.3f, stats %v\n", result.ID, op.Sigma, result.Stats)
	return result, nil
}


// Computes and logs extended image statistics including location, scale and
// noise estimates with the location/scale estimator mode from the context.
// Leaves the image unchanged
type OpStats struct {
	ops.OpUnaryBase
}

func init() { ops.SetOperatorFactory(func() ops.Operator { return NewOpStatsDefaults() })} // register the operator for JSON decoding

func NewOpStatsDefaults() *OpStats {
	op:=&OpStats{
		OpUnaryBase : ops.OpUnaryBase{OpBase : ops.OpBase{Type: "stats"}},
	}
	op.OpUnaryBase.Apply=op.Apply // assign class method to superclass abstract method
	return op
}

// Unmarshal the type from JSON with default values for missing entries
func (op *OpStats) UnmarshalJSON(data []byte) error {
	type defaults OpStats
	def:=defaults( *NewOpStatsDefaults() )
	err:=json.Unmarshal(data, &def)
	if err!=nil { return err }
	*op=OpStats(def)
	op.OpUnaryBase.Apply=op.Apply // make method receiver point to op, not def
	return nil
}

func (op *OpStats) Apply(f *fits.Image, c *ops.Context) (result *fits.Image, err error) {
	f.Stats.SetMode(c.LSEstimatorMode)
	fmt.Fprintf(c.Log, "%d: %s image stats %v loc %.4g scale %.4g noise %.4g tv %.6g\n",
	            f.ID, f.DimensionsToString(), f.Stats, f.Stats.Location(), f.Stats.Scale(),
	            f.Stats.Noise(), totalVariation(f))
	return f, nil
}

// Isotropic total variation of the image over all of its dimensions
func totalVariation(f *fits.Image) float32 {
	g, err:=tv.NewGrid(f.Naxisn, nil)
	if err!=nil { return 0 }
	return g.TotalVariation(f.Data)
}

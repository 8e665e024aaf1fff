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
	"io/ioutil"
	"testing"
	"github.com/mlnoga/tvdenoise/internal/fits"
	"github.com/mlnoga/tvdenoise/internal/ops"
	"github.com/mlnoga/tvdenoise/internal/stats"
	"github.com/mlnoga/tvdenoise/internal/tv"
)

// A 16x16 step image, left half dark and right half bright
func makeStepImage() *fits.Image {
	naxisn:=[]int32{16, 16}
	data:=make([]float32, 256)
	for y:=0; y<16; y++ {
		for x:=8; x<16; x++ {
			data[y*16+x]=100
		}
	}
	return fits.NewImageFromNaxisn(naxisn, data)
}

func imageTV(f *fits.Image) float32 {
	g, err:=tv.NewGrid(f.Naxisn, nil)
	if err!=nil { panic(err) }
	return g.TotalVariation(f.Data)
}

func TestOpAddNoiseDeterministic(t *testing.T) {
	c:=ops.NewContext(ioutil.Discard, stats.LSEMeanStdDev)
	f:=makeStepImage()

	op:=NewOpAddNoise(5, 42)
	n1, err:=op.Apply(f, c)
	if err!=nil { t.Fatalf("apply: %s", err) }
	n2, err:=NewOpAddNoise(5, 42).Apply(f, c)
	if err!=nil { t.Fatalf("apply: %s", err) }

	if &n1.Data[0]==&f.Data[0] {
		t.Errorf("expected noise operator to leave the input untouched")
	}
	for i:=range n1.Data {
		if n1.Data[i]!=n2.Data[i] {
			t.Fatalf("pixel %d: same seed produced different values %f and %f", i, n1.Data[i], n2.Data[i])
		}
	}

	sigma:=n1.Stats.StdDev()
	if sigma<30 || sigma>70 {
		// step alone has stddev 50, noise sigma 5 changes that only slightly
		t.Errorf("unexpected stddev %f after adding noise", sigma)
	}
}

func TestOpTVDenoiseReducesNoise(t *testing.T) {
	c:=ops.NewContext(ioutil.Discard, stats.LSEMeanStdDev)
	noisy, err:=NewOpAddNoise(10, 7).Apply(makeStepImage(), c)
	if err!=nil { t.Fatalf("add noise: %s", err) }

	op:=NewOpTVDenoise(2, 50, nil, "")
	res, err:=op.Apply(noisy, c)
	if err!=nil { t.Fatalf("denoise: %s", err) }

	tvBefore, tvAfter:=imageTV(noisy), imageTV(res)
	if tvAfter>=tvBefore {
		t.Errorf("expected denoising to lower total variation, got %f >= %f", tvAfter, tvBefore)
	}
	if res.Stats.Min()<noisy.Stats.Min()-1e-3 || res.Stats.Max()>noisy.Stats.Max()+1e-3 {
		t.Errorf("expected output range [%f, %f] within input range [%f, %f]",
			res.Stats.Min(), res.Stats.Max(), noisy.Stats.Min(), noisy.Stats.Max())
	}
}

func TestOpTVDenoiseInvalidLambda(t *testing.T) {
	c:=ops.NewContext(ioutil.Discard, stats.LSEMeanStdDev)
	op:=NewOpTVDenoise(0, 50, nil, "")
	if _, err:=op.Apply(makeStepImage(), c); err==nil {
		t.Errorf("expected error for lambda zero")
	}
}

func TestOpTVDenoiseJSONDefaults(t *testing.T) {
	op:=NewOpTVDenoiseDefaults()
	if err:=json.Unmarshal([]byte(`{"type":"tvDenoise","lambda":2.5}`), op); err!=nil {
		t.Fatalf("unmarshal: %s", err)
	}
	if op.Lambda!=2.5 {
		t.Errorf("expected lambda 2.5, got %f", op.Lambda)
	}
	if op.Iterations!=50 {
		t.Errorf("expected default iterations 50, got %d", op.Iterations)
	}
	if op.OpUnaryBase.Apply==nil {
		t.Errorf("expected Apply to be rebound after unmarshaling")
	}
}

func TestOpSequenceJSONRoundTrip(t *testing.T) {
	seq:=ops.NewOpSequence(
		NewOpAddNoise(3, 1),
		NewOpTVDenoise(1, 30, []bool{true, false}, ""),
		NewOpStatsDefaults(),
	)
	data, err:=json.Marshal(seq)
	if err!=nil { t.Fatalf("marshal: %s", err) }

	res:=ops.NewOpSequenceDefault()
	if err:=json.Unmarshal(data, res); err!=nil {
		t.Fatalf("unmarshal: %s", err)
	}
	if len(res.Steps)!=3 {
		t.Fatalf("expected 3 steps, got %d", len(res.Steps))
	}
	denoise, ok:=res.Steps[1].(*OpTVDenoise)
	if !ok {
		t.Fatalf("expected second step of type *OpTVDenoise, got %T", res.Steps[1])
	}
	if denoise.Lambda!=1 || denoise.Iterations!=30 {
		t.Errorf("expected lambda 1 iterations 30, got %f and %d", denoise.Lambda, denoise.Iterations)
	}
	if len(denoise.DimsProcessed)!=2 || !denoise.DimsProcessed[0] || denoise.DimsProcessed[1] {
		t.Errorf("unexpected dimension mask %v", denoise.DimsProcessed)
	}
}

func TestOpStatsLeavesImageUnchanged(t *testing.T) {
	buf:=&testLogBuffer{}
	c:=ops.NewContext(buf, stats.LSEMedianMAD)
	f:=makeStepImage()
	res, err:=NewOpStatsDefaults().Apply(f, c)
	if err!=nil { t.Fatalf("apply: %s", err) }
	if res!=f {
		t.Errorf("expected stats operator to return its input")
	}
	if len(buf.data)==0 {
		t.Errorf("expected stats operator to log a summary line")
	}
}

type testLogBuffer struct{ data []byte }

func (b *testLogBuffer) Write(p []byte) (int, error) {
	b.data=append(b.data, p...)
	return len(p), nil
}

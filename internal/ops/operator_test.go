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


package ops

import (
	"errors"
	"io/ioutil"
	"path/filepath"
	"testing"
	"github.com/mlnoga/tvdenoise/internal/fits"
	"github.com/mlnoga/tvdenoise/internal/stats"
)

func TestIsPathAllowed(t *testing.T) {
	allowed  :=[]string{"image.fits", "lights/image.fits", "out%d.fits"}
	forbidden:=[]string{"/etc/passwd", "../image.fits", "lights/../../image.fits"}
	for _, p:=range allowed {
		if !isPathAllowed(p) { t.Errorf("expected path %s to be allowed", p) }
	}
	for _, p:=range forbidden {
		if isPathAllowed(p) { t.Errorf("expected path %s to be forbidden", p) }
	}
}

func TestRemoveNils(t *testing.T) {
	a, b:=fits.NewImageFromNaxisn([]int32{2}, nil), fits.NewImageFromNaxisn([]int32{2}, nil)
	res:=RemoveNils([]*fits.Image{nil, a, nil, nil, b, nil})
	if len(res)!=2 || res[0]!=a || res[1]!=b {
		t.Errorf("expected [a b], got %v", res)
	}
}

func TestMaterializeAll(t *testing.T) {
	f:=fits.NewImageFromNaxisn([]int32{4}, []float32{1,2,3,4})
	good:=func() (*fits.Image, error) { return f, nil }
	bad :=func() (*fits.Image, error) { return nil, errors.New("boom") }

	outs, err:=MaterializeAll([]Promise{good, good, good}, 2, false)
	if err!=nil { t.Fatalf("materialize: %s", err) }
	if len(outs)!=3 {
		t.Fatalf("expected 3 images, got %d", len(outs))
	}

	outs, err=MaterializeAll([]Promise{good, bad, good}, 2, false)
	if err==nil { t.Fatalf("expected error from failing promise") }
	if len(outs)!=2 {
		t.Errorf("expected 2 surviving images, got %d", len(outs))
	}
}

func TestOpSaveFITS(t *testing.T) {
	c:=NewContext(ioutil.Discard, stats.LSEMeanStdDev)
	f:=fits.NewImageFromNaxisn([]int32{4, 2}, []float32{1,2,3,4,5,6,7,8})
	f.ID=3

	dir:=t.TempDir()
	op:=NewOpSave(filepath.Join(dir, "out%d.fits"), 1.0)
	res, err:=op.Apply(f, c)
	if err!=nil { t.Fatalf("save: %s", err) }
	if res!=f { t.Errorf("expected save to pass its input through") }

	reloaded:=fits.NewImage()
	if err:=reloaded.ReadFile(filepath.Join(dir, "out3.fits"), ioutil.Discard); err!=nil {
		t.Fatalf("reload: %s", err)
	}
	if !fits.EqualInt32Slice(reloaded.Naxisn, f.Naxisn) {
		t.Errorf("expected dimensions %v, got %v", f.Naxisn, reloaded.Naxisn)
	}
	for i, v:=range reloaded.Data {
		if v!=f.Data[i] {
			t.Errorf("pixel %d: expected %f, got %f", i, f.Data[i], v)
		}
	}
}

func TestOpSaveUnknownSuffix(t *testing.T) {
	c:=NewContext(ioutil.Discard, stats.LSEMeanStdDev)
	f:=fits.NewImageFromNaxisn([]int32{4, 2}, nil)
	op:=NewOpSave(filepath.Join(t.TempDir(), "out.xyz"), 1.0)
	if _, err:=op.Apply(f, c); err==nil {
		t.Errorf("expected error for unknown suffix")
	}
}

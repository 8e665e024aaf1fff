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

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"runtime/debug"
	"strings"
	"time"
	"github.com/mlnoga/tvdenoise/internal/ops"
	"github.com/mlnoga/tvdenoise/internal/ops/tvop"
	"github.com/mlnoga/tvdenoise/internal/rest"
	"github.com/mlnoga/tvdenoise/internal/stats"
)

const version = "0.1.0"

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")
var memprofile = flag.String("memprofile", "", "write memory profile to `file`")

var out  = flag.String("out", "out%d.fits", "save output to `file`, %d is replaced with the image id")
var jpg  = flag.String("jpg", "%auto",  "save 8bit preview of output as JPEG to `file`. `%auto` replaces suffix of output file with .jpg")
var tif  = flag.String("tif", "",  "save 16bit preview of output as TIFF to `file`")
var log_ = flag.String("log", "%auto",    "save log output to `file`. `%auto` replaces suffix of output file with .log")
var residual = flag.String("residual", "", "save removed noise as false color JPEG with given filename pattern, e.g. `res%d.jpg`")

var lambda     = flag.Float64("lambda", 0.5, "regularization weight for total variation denoising, larger values smooth more strongly")
var iterations = flag.Int64("iterations", 50, "number of projected gradient iterations for total variation denoising")
var dims       = flag.String("dims", "", "dimension selection mask as a string of 0s and 1s, e.g. 110 to denoise the first two of three dimensions; blank=all")

var sigma = flag.Float64("sigma", 0, "sigma of synthetic pseudo-gaussian noise for the noise command")
var seed  = flag.Int64("seed", 42, "random seed for synthetic noise generation")

var gamma = flag.Float64("gamma", 1.0, "gamma for 8bit JPEG previews, 1: linear")

var lsEst = flag.Int64("lsEst", 2, "location and scale estimators 0=mean/stddev, 1=median/MAD, 2=iterative sigma-clipped sampled median and sampled Qn, 3=histogram peak")

var port   = flag.Int("port", 8080, "port to serve the REST API on")
var chroot = flag.String("chroot", "", "directory to chroot the REST server into, requires root")
var setuid = flag.Int("setuid", -1, "user id to drop REST server privileges to, -1=no change")

func main() {
	debug.SetGCPercent(10)
	start:=time.Now()
	flag.Usage=func(){
 	    fmt.Fprintf(os.Stderr, `Tvdenoise Copyright (c) 2020 Markus L. Noga
This program comes with ABSOLUTELY NO WARRANTY.
This is free software, and you are welcome to redistribute it under certain conditions.
Refer to https://www.gnu.org/licenses/gpl-3.0.en.html for details.

Usage: %s [-flag value] (stats|denoise|noise|serve|legal|version) (img0.fits ... imgn.fits)

Commands:
  stats   Show input image statistics
  denoise Remove noise from input images with total variation regularization
  noise   Add synthetic noise to input images, for benchmarking denoisers
  serve   Start the REST API server
  legal   Show license and attribution information
  version Show version information

Flags:
`, os.Args[0])
	    flag.PrintDefaults()
	}
	flag.Parse()

	// Initialize logging to file in addition to stdout, if selected
	logWriter:=io.Writer(os.Stdout)
	if *log_=="%auto" {
		if *out!="" {
			*log_=strings.TrimSuffix(*out, filepath.Ext(*out))+".log"
			*log_=strings.ReplaceAll(*log_, "%d", "")
		} else {
			*log_=""
		}
	}
	if *log_!="" {
		logFile, err:=os.Create(*log_)
		if err!=nil {
			fmt.Fprintf(os.Stderr, "Unable to open logfile '%s': %s\n", *log_, err.Error())
			os.Exit(-1)
		}
		defer logFile.Close()
		logWriter=io.MultiWriter(os.Stdout, logFile)
	}

	// Also auto-select JPEG output target
	if *jpg=="%auto" {
		if *out!="" {
			*jpg=strings.TrimSuffix(*out, filepath.Ext(*out))+".jpg"
		} else {
			*jpg=""
		}
	}

	// Enable CPU profiling if flagged
    if *cpuprofile != "" {
        f, err := os.Create(*cpuprofile)
        if err != nil {
            fmt.Fprintf(logWriter, "Could not create CPU profile: %s\n", err.Error())
            os.Exit(-1)
        }
        defer f.Close()
        if err := pprof.StartCPUProfile(f); err != nil {
            fmt.Fprintf(logWriter, "Could not start CPU profile: %s\n", err.Error())
            os.Exit(-1)
        }
        defer pprof.StopCPUProfile()
    }

    args:=flag.Args()
    if len(args)<1 {
    	flag.Usage()
    	return
    }

	dimsProcessed, err:=parseDims(*dims)
	if err!=nil {
		fmt.Fprintf(logWriter, "Error parsing dims: %s\n", err.Error())
		os.Exit(-1)
	}

	oc:=ops.NewContext(logWriter, stats.LSEstimatorMode(*lsEst))

	// run actions
    switch args[0] {
    case "serve":
		rest.MakeSandbox(*chroot, *setuid)
    	rest.Serve(*port)

    case "stats":
		fmt.Fprintf(logWriter, "Using location and scale estimator %d\n", *lsEst)
		seq:=ops.NewOpSequence(ops.NewOpForEach(tvop.NewOpStatsDefaults()))
		err=runSequence(args[1:], seq, oc)

	case "denoise":
		opDenoise:=tvop.NewOpTVDenoise(float32(*lambda), int32(*iterations), dimsProcessed, *residual)
		perImage:=ops.NewOpSequence(opDenoise, ops.NewOpSave(*out, float32(*gamma)),
			ops.NewOpSave(*jpg, float32(*gamma)), ops.NewOpSave(*tif, float32(*gamma)))

		var m []byte
		m, err=json.MarshalIndent(perImage, "", "  ")
		if err!=nil { break }
		fmt.Fprintf(logWriter, "Denoising with these settings:\n%s\n", string(m))

		err=runSequence(args[1:], ops.NewOpSequence(ops.NewOpForEach(perImage)), oc)

	case "noise":
		perImage:=ops.NewOpSequence(tvop.NewOpAddNoise(float32(*sigma), uint32(*seed)),
			ops.NewOpSave(*out, float32(*gamma)), ops.NewOpSave(*jpg, float32(*gamma)))
		err=runSequence(args[1:], ops.NewOpSequence(ops.NewOpForEach(perImage)), oc)

    case "legal":
    	cmdLegal(logWriter)

    case "version":
    	fmt.Fprintf(logWriter, "Version %s\n", version)

    case "help", "?":
    	flag.Usage()

    default:
    	fmt.Fprintf(logWriter, "Unknown command '%s'\n\n", args[0])
    	flag.Usage()
    	return
    }

	now:=time.Now()
	elapsed:=now.Sub(start)
	fmt.Fprintf(logWriter, "\nDone after %v\n", elapsed)

	// Store memory profile if flagged
    if *memprofile != "" {
        f, err := os.Create(*memprofile)
        if err != nil {
            fmt.Fprintf(logWriter, "Could not create memory profile: %s\n", err.Error())
            os.Exit(-1)
        }
        defer f.Close()
        runtime.GC() // get up-to-date statistics
        if err := pprof.Lookup("allocs").WriteTo(f,0); err != nil {
            fmt.Fprintf(logWriter, "Could not write allocation profile: %s\n", err.Error())
            os.Exit(-1)
        }
    }

    if err!=nil {
		fmt.Fprintf(logWriter, "Error: %s\n", err.Error())
		os.Exit(-1)
	}
}

// Globs the given filename patterns, applies the operator sequence to each
// resulting image and materializes all results with full concurrency
func runSequence(filePatterns []string, seq *ops.OpSequence, oc *ops.Context) error {
	load:=ops.NewOpLoadMany(filePatterns)
	promises, err:=load.MakePromises(nil, oc)
	if err!=nil { return err }
	promises, err=seq.MakePromises(promises, oc)
	if err!=nil { return err }
	_, err=ops.MaterializeAll(promises, oc.MaxThreads, true)
	return err
}

// Parses a dimension selection mask given as a string of 0s and 1s.
// Blank selects all dimensions and returns nil
func parseDims(s string) ([]bool, error) {
	if s=="" { return nil, nil }
	mask:=make([]bool, len(s))
	for i, c:=range s {
		switch c {
		case '0':
			mask[i]=false
		case '1':
			mask[i]=true
		default:
			return nil, fmt.Errorf("invalid character '%c', expected a string of 0s and 1s", c)
		}
	}
	return mask, nil
}

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


package rest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"github.com/gin-gonic/gin"

	"github.com/mlnoga/tvdenoise/internal/ops"
	"github.com/mlnoga/tvdenoise/internal/ops/tvop"
	"github.com/mlnoga/tvdenoise/internal/stats"
)


func Serve(port int) {
	r := gin.Default()
	api := r.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			v1.GET ("/ping",    getPing)
			v1.POST("/stats",   postStats)
			v1.POST("/denoise", postDenoise)
		}
	}
	r.Run(fmt.Sprintf(":%d", port)) // listen and serve on 0.0.0.0:port
}

func getPing(c *gin.Context) {
	c.JSON(200, gin.H{
		"message": "pong",
	})
}

func printArgs(logWriter io.Writer, prefix, suffix string, args interface{}) error {
	m,err:=json.MarshalIndent(args, "", "  ")
	if err!=nil { return err }
	fmt.Fprintf(logWriter, "%s%s%s", prefix, string(m), suffix)
	return nil
}

// Materializes the given operator sequence on the given file patterns,
// streaming progress as plain text into the HTTP response
func runPipeline(c *gin.Context, args interface{}, filePatterns []string,
	             lsEstimatorMode stats.LSEstimatorMode, seq *ops.OpSequence) {
	logWriter := c.Writer
	header := logWriter.Header()
	header.Set("Content-Type", "text/plain")
	logWriter.WriteHeader(http.StatusOK)

	if err:=printArgs(logWriter, "Arguments:\n", "\n", args); err!=nil {
		fmt.Fprintf(logWriter, "Error printing arguments: %s\n", err.Error())
		return
	}

	oc:=ops.NewContext(logWriter, lsEstimatorMode)
	load:=ops.NewOpLoadMany(filePatterns)
	promises, err:=load.MakePromises(nil, oc)
	if err!=nil {
		fmt.Fprintf(logWriter, "Error globbing filenames: %s\n", err.Error())
		return
	}
	promises, err=seq.MakePromises(promises, oc)
	if err!=nil {
		fmt.Fprintf(logWriter, "error: %s\n", err.Error())
		return
	}
	_, err=ops.MaterializeAll(promises, oc.MaxThreads, true)
	if err!=nil {
		fmt.Fprintf(logWriter, "error: %s\n", err.Error())
	}
	logWriter.(http.Flusher).Flush()
}

type postStatsArgs struct {
	FilePatterns    []string              `json:"filePatterns"`
	LSEstimatorMode stats.LSEstimatorMode `json:"lsEstimatorMode"`
}

func postStats(c *gin.Context)  {
	var args postStatsArgs
	if err:=c.ShouldBind(&args); err!=nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error() } )
		return
	}

	seq:=ops.NewOpSequence(ops.NewOpForEach(tvop.NewOpStatsDefaults()))
	runPipeline(c, args, args.FilePatterns, args.LSEstimatorMode, seq)
}


type postDenoiseArgs struct {
	FilePatterns    []string              `json:"filePatterns"`
	LSEstimatorMode stats.LSEstimatorMode `json:"lsEstimatorMode"`
	TVDenoise       *tvop.OpTVDenoise     `json:"tvDenoise"`
	Save            *ops.OpSave           `json:"save"`
}

func postDenoise(c *gin.Context) {
	var args postDenoiseArgs
	if err:=c.ShouldBind(&args); err!=nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error() } )
		return
	}
	if args.TVDenoise==nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing tvDenoise argument"} )
		return
	}

	seq:=ops.NewOpSequence(ops.NewOpForEach(args.TVDenoise))
	if args.Save!=nil {
		seq.Append(ops.NewOpForEach(args.Save))
	}
	runPipeline(c, args, args.FilePatterns, args.LSEstimatorMode, seq)
}

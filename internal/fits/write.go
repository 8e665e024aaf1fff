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


package fits

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
)

// Writes an in-memory FITS image to a file with given filename.
// Creates/overwrites the file if necessary
func (f *Image) WriteFile(fileName string) error {
	file, err:=os.OpenFile(fileName, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err!=nil { return err }
	defer file.Close()
	return f.Write(file)
}

// Writes an in-memory FITS image to an io.Writer, as 32-bit floating point
func (f *Image) Write(w io.Writer) error {
	// Build header in string buffer
	sb:=strings.Builder{}
	writeBool  (&sb, "SIMPLE", true, "    FITS standard 4.0")
	writeInt32 (&sb, "BITPIX", -32, "    32-bit floating point")
	writeInt32 (&sb, "NAXIS",  int32(len(f.Naxisn)), "[1] Number of axis")
	for i:=0; i<len(f.Naxisn); i++ {
		writeInt32(&sb, fmt.Sprintf("NAXIS%d",i+1), f.Naxisn[i], "[1] Axis size")
	}
	writeFloat32(&sb, "BZERO", f.Bzero, "[1] Zero offset")
	writeEnd(&sb)

	// Pad current header block with spaces if necessary
	for i:=sb.Len() % fitsBlockSize; i>0 && i<fitsBlockSize; i++ {
		sb.WriteRune(' ')
	}

	// Write header block(s)
	if _, err:=w.Write([]byte(sb.String())); err!=nil { return err }

	// Write payload data, replacing NaNs with zeros for compatibility
	return writeFloat32Array(w, f.Data)
}

// Writes a FITS header boolean value
func writeBool(w io.Writer, key string, value bool, comment string) {
	if len(key)>8 { key=key[0:8] }
	if len(comment)>47 { comment=comment[0:47] }
	v:="F"
	if value { v="T" }
	fmt.Fprintf(w, "%-8s= %20s / %-47s", key, v, comment)
}

// Writes a FITS header int32 value
func writeInt32(w io.Writer, key string, value int32, comment string) {
	if len(key)>8 { key=key[0:8] }
	if len(comment)>47 { comment=comment[0:47] }
	fmt.Fprintf(w, "%-8s= %20d / %-47s", key, value, comment)
}

// Writes a FITS header float32 value
func writeFloat32(w io.Writer, key string, value float32, comment string) {
	if len(key)>8 { key=key[0:8] }
	if len(comment)>47 { comment=comment[0:47] }
	fmt.Fprintf(w, "%-8s= %20g / %-47s", key, value, comment)
}

// Writes a FITS header end record
func writeEnd(w io.Writer) {
	fmt.Fprintf(w, "%-80s", "END")
}

// Writes a float32 array as big-endian to the writer, replacing NaNs with
// zeros, and padding the final FITS block with zero bytes
func writeFloat32Array(w io.Writer, data []float32) error {
	buf:=bufio.NewWriter(w)
	bytesWritten:=0
	for _,v:=range data {
		if math.IsNaN(float64(v)) { v=0 }
		bits:=math.Float32bits(v)
		_, err:=buf.Write([]byte{byte(bits>>24), byte(bits>>16), byte(bits>>8), byte(bits)})
		if err!=nil { return err }
		bytesWritten+=4
	}
	for i:=bytesWritten % fitsBlockSize; i>0 && i<fitsBlockSize; i++ {
		if err:=buf.WriteByte(0); err!=nil { return err }
	}
	return buf.Flush()
}

// Copyright (C) 2026 The imfilter authors
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
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/cpuid"
	"github.com/pbnjay/memory"

	"github.com/obsframe/imfilter/internal/filter"
	"github.com/obsframe/imfilter/internal/kernel"
	"github.com/obsframe/imfilter/internal/logf"
	"github.com/obsframe/imfilter/internal/pix"
	"github.com/obsframe/imfilter/internal/rest"
)

const version = "0.1.0"

var totalMiBs = memory.TotalMemory() / 1024 / 1024

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")
var memprofile = flag.String("memprofile", "", "write memory profile to `file`")

var out = flag.String("out", "out.tif", "save filtered image as 16-bit TIFF to `file`")
var png = flag.String("png", "%auto", "save false-color preview of output as PNG to `file`. `%auto` replaces suffix of output file with .png")
var log = flag.String("log", "%auto", "save log output to `file`. `%auto` replaces suffix of output file with .log")

var filt = flag.String("filter", "median", "filter to apply, one of median, average, stdev, linear, linear-scale, morpho, morpho-scale")
var outType = flag.String("type", "", "output element type, one of int32, float32, float64, blank=same as input")
var radiusX = flag.Int64("radiusX", 1, "kernel half size in x, kernel width is 2*radiusX+1")
var radiusY = flag.Int64("radiusY", 1, "kernel half size in y, kernel height is 2*radiusY+1")
var border = flag.String("border", "filter", "border mode, one of filter, copy, nop, crop")
var cells = flag.String("cells", "", "comma-separated 0/1 kernel cell pattern in row-major order for median, average and stdev, blank=all cells active")
var weights = flag.String("weights", "", "comma-separated kernel weights in row-major order for linear and morphological filters, e.g. `1,2,1,2,4,2,1,2,1`")
var reciprocal = flag.Bool("reciprocal", false, "cache reciprocals of window populations when averaging")
var badCol = flag.Int64("badCol", -1, "mark input column rejected before filtering, -1=none")
var badRow = flag.Int64("badRow", -1, "mark input row rejected before filtering, -1=none")

var outMin = flag.Float64("min", -1, "black point for 16-bit output scaling, -1=use output minimum")
var outMax = flag.Float64("max", -1, "white point for 16-bit output scaling, -1=use output maximum")
var gamma = flag.Float64("gamma", 1, "apply output gamma, 1: keep linear light data")

var chroot = flag.String("chroot", "", "serve: change filesystem root to `dir` before serving (requires root)")
var setuid = flag.Int64("setuid", -1, "serve: switch to this user id before serving, -1=don't")

func main() {
	logWriter := os.Stdout
	debug.SetGCPercent(10)
	start := time.Now()
	flag.Usage = func() {
		fmt.Fprintf(logWriter, `Imfilter Copyright (c) 2026 The imfilter authors
This program comes with ABSOLUTELY NO WARRANTY.
This is free software, and you are welcome to redistribute it under certain conditions.
Refer to https://www.gnu.org/licenses/gpl-3.0.en.html for details.

Usage: %s [-flag value] (filter|serve|legal|version) (img0.tif ... imgn.tif)

Commands:
  filter  Apply the selected filter to the input images
  serve   Serve the filtering engine via HTTP on port 8080
  legal   Show license and attribution information
  version Show version information

Flags:
`, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	// Initialize logging to file in addition to stdout, if selected
	if *log == "%auto" {
		if *out != "" {
			*log = strings.TrimSuffix(*out, filepath.Ext(*out)) + ".log"
		} else {
			*log = ""
		}
	}
	if *log != "" {
		err := logf.AlsoToFile(*log)
		if err != nil {
			logf.Fatalf("Unable to open logfile '%s'\n", *log)
		}
	}

	// Also auto-select PNG preview target
	if *png == "%auto" {
		if *out != "" {
			*png = strings.TrimSuffix(*out, filepath.Ext(*out)) + ".png"
		} else {
			*png = ""
		}
	}

	// Enable CPU profiling if flagged
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			logf.Fatal("Could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			logf.Fatal("Could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		return
	}

	var err error
	switch args[0] {
	case "filter":
		fmt.Fprintf(logWriter, "Running on %s with %d cores and %d MiB of memory\n",
			cpuid.CPU.BrandName, runtime.NumCPU(), totalMiBs)
		err = cmdFilter(args[1:])

	case "serve":
		if err := rest.Sandbox(*chroot, int(*setuid)); err != nil {
			logf.Fatalf("Unable to sandbox server: %s\n", err.Error())
		}
		logf.Println("Serving filter requests on port 8080")
		rest.Serve()

	case "legal":
		logf.Print(legal)

	case "version":
		fmt.Fprintf(logWriter, "Version %s\n", version)

	case "help", "?":
		flag.Usage()

	default:
		fmt.Fprintf(logWriter, "Unknown command '%s'\n\n", args[0])
		flag.Usage()
		return
	}

	now := time.Now()
	elapsed := now.Sub(start)
	fmt.Fprintf(logWriter, "\nDone after %v\n", elapsed)

	// Store memory profile if flagged
	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			logf.Fatal("Could not create memory profile: ", err)
		}
		defer f.Close()
		runtime.GC() // get up-to-date statistics
		if err := pprof.Lookup("allocs").WriteTo(f, 0); err != nil {
			logf.Fatal("Could not write allocation profile: ", err)
		}
	}

	if err != nil {
		fmt.Fprintf(logWriter, "Error: %s\n", err.Error())
		os.Exit(-1)
	}
	logf.Sync()
}

// Apply the selected filter to each input file and save the results.
func cmdFilter(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("need at least one input file")
	}

	kind, ok := filter.ParseKind(*filt)
	if !ok {
		return fmt.Errorf("unknown filter '%s'", *filt)
	}
	bord, ok := filter.ParseBorder(*border)
	if !ok {
		return fmt.Errorf("unknown border mode '%s'", *border)
	}
	typ := pix.Type(0)
	if *outType != "" {
		typ, ok = pix.ParseType(*outType)
		if !ok {
			return fmt.Errorf("unknown element type '%s'", *outType)
		}
	}
	kw, kh := int(*radiusX)*2+1, int(*radiusY)*2+1

	for i, fileName := range args {
		logf.Printf("%d: Reading %s\n", i, fileName)
		src, err := readTIFF(fileName)
		if err != nil {
			return err
		}
		if err := rejectDemo(src, int(*badCol), int(*badRow)); err != nil {
			return err
		}
		dstType := typ
		if dstType == 0 {
			dstType = src.Type()
		}
		logf.Printf("%d: %dx%d pixels, applying %dx%d %s filter with %s borders\n",
			i, src.Width(), src.Height(), kw, kh, kind, bord)

		var dst *pix.Buffer
		switch {
		case kind == filter.Linear || kind == filter.LinearScale ||
			kind == filter.Morpho || kind == filter.MorphoScale:
			kern, err := parseWeights(kw, kh)
			if err != nil {
				return err
			}
			dst, err = newDst(src, dstType, kern.HalfX(), kern.HalfY(), bord)
			if err != nil {
				return err
			}
			err = filter.ApplyWeights(dst, src, kern, kind, bord)
			if err != nil {
				return err
			}
		default:
			kern, err := parseCells(kw, kh)
			if err != nil {
				return err
			}
			dst, err = newDst(src, dstType, kern.HalfX(), kern.HalfY(), bord)
			if err != nil {
				return err
			}
			opt := &filter.Options{UseReciprocal: *reciprocal}
			err = filter.ApplyMaskOpt(dst, src, kern, kind, bord, opt)
			if err != nil {
				return err
			}
		}

		if m := dst.Mask(); m != nil {
			logf.Printf("%d: %d of %d output pixels have an empty filter window\n",
				i, m.CountRejected(), dst.Pixels())
		}

		min, max := float32(*outMin), float32(*outMax)
		if *outMin < 0 || *outMax < 0 {
			lo, hi := sampleRange(dst)
			if *outMin < 0 {
				min = lo
			}
			if *outMax < 0 {
				max = hi
			}
			logf.Printf("%d: output range [%g,%g], scaling to [%g,%g]\n", i, lo, hi, min, max)
		}

		outName, pngName := *out, *png
		if len(args) > 1 {
			outName = numberedName(outName, i)
			pngName = numberedName(pngName, i)
		}
		if outName != "" {
			logf.Printf("%d: Writing %s\n", i, outName)
			if err := writeMonoTIFF16ToFile(dst, outName, min, max, float32(*gamma)); err != nil {
				return err
			}
		}
		if pngName != "" {
			logf.Printf("%d: Writing %s\n", i, pngName)
			if err := writeFalseColorPNGToFile(dst, pngName, min, max, float32(*gamma)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Allocate an output buffer of the given type matching the source size,
// shrunk by the kernel half sizes when cropping borders.
func newDst(src *pix.Buffer, typ pix.Type, hx, hy int, bord filter.Border) (*pix.Buffer, error) {
	w, h := src.Width(), src.Height()
	if bord == filter.BorderCrop {
		w, h = w-2*hx, h-2*hy
	}
	return pix.NewBuffer(typ, w, h)
}

// Mark one input column and/or row as rejected, to demonstrate bad-pixel
// handling from the command line.
func rejectDemo(src *pix.Buffer, col, row int) error {
	if col < 0 && row < 0 {
		return nil
	}
	if col >= src.Width() || row >= src.Height() {
		return fmt.Errorf("bad column/row %d/%d outside %dx%d image", col, row, src.Width(), src.Height())
	}
	m, err := pix.NewMask(src.Width(), src.Height())
	if err != nil {
		return err
	}
	if col >= 0 {
		for y := 0; y < src.Height(); y++ {
			m.Reject(col, y)
		}
	}
	if row >= 0 {
		for x := 0; x < src.Width(); x++ {
			m.Reject(x, row)
		}
	}
	return src.SetMask(m)
}

// Build the binary kernel from the -cells flag, or a full kernel if blank.
func parseCells(kw, kh int) (*kernel.Mask, error) {
	if *cells == "" {
		return kernel.FullMask((kw-1)/2, (kh-1)/2), nil
	}
	fields := strings.Split(*cells, ",")
	if len(fields) != kw*kh {
		return nil, fmt.Errorf("-cells needs %d entries for a %dx%d kernel, got %d", kw*kh, kw, kh, len(fields))
	}
	kern, err := kernel.NewMask(kw, kh)
	if err != nil {
		return nil, err
	}
	for i, f := range fields {
		switch strings.TrimSpace(f) {
		case "0":
		case "1":
			kern.Cells()[i] = true
		default:
			return nil, fmt.Errorf("-cells entry %d: want 0 or 1, got '%s'", i, f)
		}
	}
	return kern, nil
}

// Build the weight kernel from the -weights flag.
func parseWeights(kw, kh int) (*kernel.Weights, error) {
	if *weights == "" {
		return nil, fmt.Errorf("filter '%s' needs -weights", *filt)
	}
	fields := strings.Split(*weights, ",")
	if len(fields) != kw*kh {
		return nil, fmt.Errorf("-weights needs %d entries for a %dx%d kernel, got %d", kw*kh, kw, kh, len(fields))
	}
	kern, err := kernel.NewWeights(kw, kh)
	if err != nil {
		return nil, err
	}
	for i, f := range fields {
		w, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("-weights entry %d: %w", i, err)
		}
		kern.Values()[i] = w
	}
	return kern, nil
}

// Insert a running number before the file extension, e.g. out.tif -> out0003.tif
func numberedName(name string, i int) string {
	if name == "" {
		return ""
	}
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s%04d%s", strings.TrimSuffix(name, ext), i, ext)
}

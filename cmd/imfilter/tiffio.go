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
	"bufio"
	"image"
	"image/color"
	"io"
	"math"
	"os"

	"golang.org/x/image/tiff"

	"github.com/obsframe/imfilter/internal/pix"
)

// Read a color or grayscale TIFF image into a float32 pixel buffer.
// Color inputs are converted to grayscale using Rec. 709 luma weights.
func readTIFF(fileName string) (*pix.Buffer, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	reader := bufio.NewReader(file)

	t, err := tiff.Decode(reader)
	if err != nil {
		return nil, err
	}

	width, height := t.Bounds().Dx(), t.Bounds().Dy()
	data := make([]float32, width*height)
	for y := 0; y < height; y++ {
		yoffset := y * width
		for x := 0; x < width; x++ {
			r, g, b, _ := t.At(t.Bounds().Min.X+x, t.Bounds().Min.Y+y).RGBA()
			data[yoffset+x] = 0.2126*float32(r) + 0.7152*float32(g) + 0.0722*float32(b)
		}
	}
	return pix.FromFloat32(width, height, data)
}

// Write a pixel buffer to 16-bit grayscale TIFF, using the given min, max and gamma.
func writeMonoTIFF16ToFile(b *pix.Buffer, fileName string, min, max, gamma float32) error {
	file, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	defer writer.Flush()

	return writeMonoTIFF16(b, writer, min, max, gamma)
}

// Write a pixel buffer to 16-bit grayscale TIFF, using the given min, max and gamma.
func writeMonoTIFF16(b *pix.Buffer, writer io.Writer, min, max, gamma float32) error {
	// convert pixels into Golang Image
	width, height := b.Width(), b.Height()
	img := image.NewGray16(image.Rectangle{image.Point{0, 0}, image.Point{width, height}})
	scale := 1 / (max - min)
	gammaInv := float64(1.0 / gamma)
	for y := 0; y < height; y++ {
		yoffset := y * width
		for x := 0; x < width; x++ {
			gray := (sampleAt(b, yoffset+x) - min) * scale
			// replace NaNs with zeros for export, else TIFF output breaks
			if math.IsNaN(float64(gray)) || gray < 0 {
				gray = 0
			}
			if gray > 1 {
				gray = 1
			}
			if gammaInv != 1.0 {
				gray = float32(math.Pow(float64(gray), gammaInv))
			}
			c := color.Gray16{uint16(gray * 65535)}
			img.SetGray16(x, y, c)
		}
	}

	return tiff.Encode(writer, img, &tiff.Options{Compression: tiff.Uncompressed, Predictor: false})
}

// Return the i-th sample of a buffer of any element type as float32.
func sampleAt(b *pix.Buffer, i int) float32 {
	switch b.Type() {
	case pix.Int32:
		return float32(b.Int32s()[i])
	case pix.Float32:
		return b.Float32s()[i]
	default:
		return float32(b.Float64s()[i])
	}
}

// Return the minimum and maximum sample of a buffer, ignoring NaNs.
func sampleRange(b *pix.Buffer) (min, max float32) {
	min, max = float32(math.MaxFloat32), float32(-math.MaxFloat32)
	for i, n := 0, b.Pixels(); i < n; i++ {
		v := sampleAt(b, i)
		if math.IsNaN(float64(v)) {
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if min > max {
		min, max = 0, 1
	}
	return min, max
}

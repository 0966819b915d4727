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
	imagepng "image/png"
	"io"
	"math"
	"os"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/obsframe/imfilter/internal/pix"
)

// Write a false-color preview of a pixel buffer as PNG, using the given
// min, max and gamma. Values ramp from deep blue through to yellow;
// pixels flagged by the filter as having an empty window render magenta.
func writeFalseColorPNGToFile(b *pix.Buffer, fileName string, min, max, gamma float32) error {
	file, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	defer writer.Flush()

	return writeFalseColorPNG(b, writer, min, max, gamma)
}

func writeFalseColorPNG(b *pix.Buffer, writer io.Writer, min, max, gamma float32) error {
	width, height := b.Width(), b.Height()
	img := image.NewRGBA(image.Rectangle{image.Point{0, 0}, image.Point{width, height}})
	scale := 1 / (max - min)
	gammaInv := float64(1.0 / gamma)

	low := colorful.Hcl(280, 0.4, 0.05)
	high := colorful.Hcl(60, 0.9, 0.95)
	flagged := colorful.Hsv(300, 1, 1)
	mask := b.Mask()

	for y := 0; y < height; y++ {
		yoffset := y * width
		for x := 0; x < width; x++ {
			if mask != nil && mask.IsRejected(x, y) {
				img.Set(x, y, flagged)
				continue
			}
			v := (sampleAt(b, yoffset+x) - min) * scale
			if math.IsNaN(float64(v)) || v < 0 {
				v = 0
			}
			if v > 1 {
				v = 1
			}
			if gammaInv != 1.0 {
				v = float32(math.Pow(float64(v), gammaInv))
			}
			img.Set(x, y, low.BlendHcl(high, float64(v)).Clamped())
		}
	}

	return imagepng.Encode(writer, img)
}

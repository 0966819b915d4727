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

// Package rest exposes the filtering engine over a small REST API.
package rest

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/obsframe/imfilter/internal/filter"
	"github.com/obsframe/imfilter/internal/kernel"
	"github.com/obsframe/imfilter/internal/pix"
)

func Serve() {
	r := gin.Default()
	api := r.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			v1.GET("/ping", getPing)
			v1.POST("/filter", postFilter)
		}
	}
	r.Run() // listen and serve on 0.0.0.0:8080
}

func getPing(c *gin.Context) {
	c.JSON(200, gin.H{
		"message": "pong",
	})
}

type kernelArgs struct {
	Width   int       `json:"width"`
	Height  int       `json:"height"`
	Cells   []bool    `json:"cells,omitempty"`
	Weights []float64 `json:"weights,omitempty"`
}

type postFilterArgs struct {
	Width         int        `json:"width"`
	Height        int        `json:"height"`
	Type          string     `json:"type"`
	OutType       string     `json:"outType"`
	Data          []float64  `json:"data"`
	Rejected      []int      `json:"rejected"`
	Filter        string     `json:"filter"`
	Border        string     `json:"border"`
	Kernel        kernelArgs `json:"kernel"`
	UseReciprocal bool       `json:"useReciprocal"`
}

type postFilterReply struct {
	Width    int       `json:"width"`
	Height   int       `json:"height"`
	Type     string    `json:"type"`
	Data     []float64 `json:"data"`
	Rejected []int     `json:"rejected,omitempty"`
}

func postFilter(c *gin.Context) {
	var args postFilterArgs
	if err := c.ShouldBind(&args); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reply, err := runFilter(&args)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, reply)
}

func runFilter(args *postFilterArgs) (*postFilterReply, error) {
	typ, ok := pix.ParseType(args.Type)
	if !ok {
		return nil, fmt.Errorf("unknown element type %q", args.Type)
	}
	outTyp := typ
	if args.OutType != "" {
		if outTyp, ok = pix.ParseType(args.OutType); !ok {
			return nil, fmt.Errorf("unknown element type %q", args.OutType)
		}
	}
	kind, ok := filter.ParseKind(args.Filter)
	if !ok {
		return nil, fmt.Errorf("unknown filter %q", args.Filter)
	}
	border := filter.BorderFilter
	if args.Border != "" {
		if border, ok = filter.ParseBorder(args.Border); !ok {
			return nil, fmt.Errorf("unknown border mode %q", args.Border)
		}
	}

	src, err := newBufferFrom(typ, args.Width, args.Height, args.Data)
	if err != nil {
		return nil, err
	}
	if len(args.Rejected) > 0 {
		m, err := pix.NewMask(args.Width, args.Height)
		if err != nil {
			return nil, err
		}
		for _, i := range args.Rejected {
			if i < 0 || i >= src.Pixels() {
				return nil, fmt.Errorf("rejected index %d outside %d-pixel buffer", i, src.Pixels())
			}
			m.Rejected()[i] = true
		}
		if err := src.SetMask(m); err != nil {
			return nil, err
		}
	}

	outW, outH := args.Width, args.Height
	if border == filter.BorderCrop {
		outW -= args.Kernel.Width - 1
		outH -= args.Kernel.Height - 1
	}
	dst, err := pix.NewBuffer(outTyp, outW, outH)
	if err != nil {
		return nil, err
	}

	switch {
	case len(args.Kernel.Cells) > 0:
		if len(args.Kernel.Cells) != args.Kernel.Width*args.Kernel.Height {
			return nil, fmt.Errorf("kernel cell count %d does not match %dx%d",
				len(args.Kernel.Cells), args.Kernel.Width, args.Kernel.Height)
		}
		kern, err := kernel.NewMask(args.Kernel.Width, args.Kernel.Height)
		if err != nil {
			return nil, err
		}
		copy(kern.Cells(), args.Kernel.Cells)
		opt := filter.Options{UseReciprocal: args.UseReciprocal}
		if err := filter.ApplyMaskOpt(dst, src, kern, kind, border, &opt); err != nil {
			return nil, err
		}
	case len(args.Kernel.Weights) > 0:
		if len(args.Kernel.Weights) != args.Kernel.Width*args.Kernel.Height {
			return nil, fmt.Errorf("kernel weight count %d does not match %dx%d",
				len(args.Kernel.Weights), args.Kernel.Width, args.Kernel.Height)
		}
		kern, err := kernel.NewWeights(args.Kernel.Width, args.Kernel.Height)
		if err != nil {
			return nil, err
		}
		copy(kern.Values(), args.Kernel.Weights)
		if err := filter.ApplyWeights(dst, src, kern, kind, border); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("kernel needs cells or weights")
	}

	reply := &postFilterReply{
		Width:  dst.Width(),
		Height: dst.Height(),
		Type:   dst.Type().String(),
		Data:   bufferData(dst),
	}
	if m := dst.Mask(); m != nil {
		for i, r := range m.Rejected() {
			if r {
				reply.Rejected = append(reply.Rejected, i)
			}
		}
	}
	return reply, nil
}

func newBufferFrom(t pix.Type, w, h int, data []float64) (*pix.Buffer, error) {
	b, err := pix.NewBuffer(t, w, h)
	if err != nil {
		return nil, err
	}
	if len(data) != w*h {
		return nil, fmt.Errorf("data length %d does not match %dx%d buffer", len(data), w, h)
	}
	switch t {
	case pix.Int32:
		d := b.Int32s()
		for i, v := range data {
			d[i] = int32(v)
		}
	case pix.Float32:
		d := b.Float32s()
		for i, v := range data {
			d[i] = float32(v)
		}
	case pix.Float64:
		copy(b.Float64s(), data)
	}
	return b, nil
}

func bufferData(b *pix.Buffer) []float64 {
	data := make([]float64, b.Pixels())
	switch b.Type() {
	case pix.Int32:
		for i, v := range b.Int32s() {
			data[i] = float64(v)
		}
	case pix.Float32:
		for i, v := range b.Float32s() {
			data[i] = float64(v)
		}
	case pix.Float64:
		copy(data, b.Float64s())
	}
	return data
}

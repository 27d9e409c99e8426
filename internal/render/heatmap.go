// Copyright 2019 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package render

import (
	"image/color"
	"math"

	"github.com/googlegenomics/hicplot/internal/genomics"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// paletteSize is the number of discrete colors a heatmap is drawn with.
const paletteSize = 256

// Heatmap describes a contact matrix to draw.  Region must be resolved so
// that End is the end of the last bin.
type Heatmap struct {
	Matrix   *mat.Dense
	Region   genomics.Region
	Colormap palette.ColorMap
	Min, Max float64
	Title    string

	// Depth limits a triangular heatmap to contacts at most this many base
	// pairs apart.  Zero means the width of the region.
	Depth uint32
}

func (h *Heatmap) check() error {
	if h.Matrix == nil {
		return errors.New("no matrix to draw")
	}
	if r, c := h.Matrix.Dims(); r != c {
		return errors.Errorf("matrix is %dx%d, want a square matrix", r, c)
	}
	if h.Region.End <= h.Region.Start {
		return errors.Errorf("region %s is not resolved", h.Region)
	}
	if !(h.Min < h.Max) {
		return errors.Errorf("invalid color range [%v, %v]", h.Min, h.Max)
	}
	if h.Colormap == nil {
		return errors.New("no colormap")
	}
	return nil
}

// binWidth is the number of base pairs each matrix row spans on screen.
func (h *Heatmap) binWidth() float64 {
	n, _ := h.Matrix.Dims()
	return float64(h.Region.Width()) / float64(n)
}

// colors returns the palette of h with out of range values clamped to the
// extreme colors and NaN left transparent.
func (h *Heatmap) colors() (palette.Palette, color.Color, color.Color) {
	p := paletteOf(h.Colormap, h.Min, h.Max, paletteSize)
	colors := p.Colors()
	return p, colors[0], colors[len(colors)-1]
}

// grid adapts a matrix to plotter.GridXYZ in bin coordinates.
type grid struct{ m *mat.Dense }

func (g grid) Dims() (int, int) {
	r, c := g.m.Dims()
	return c, r
}

func (g grid) Z(c, r int) float64 { return g.m.At(r, c) }
func (g grid) X(c int) float64    { return float64(c) }
func (g grid) Y(r int) float64    { return float64(r) }

// binTicks places megabase ticks on an axis measured in bins of width bp
// starting at start.
type binTicks struct {
	start, width float64
}

func (t binTicks) Ticks(min, max float64) []plot.Tick {
	ticks := MbTicks{}.Ticks(t.position(min), t.position(max))
	for i := range ticks {
		ticks[i].Value = (ticks[i].Value-t.start)/t.width - 0.5
	}
	return ticks
}

func (t binTicks) position(bin float64) float64 {
	return t.start + (bin+0.5)*t.width
}

// SquareHeatmap draws h as a matrix with the first bin in the top left
// corner.
func SquareHeatmap(h Heatmap) (*plot.Plot, error) {
	if err := h.check(); err != nil {
		return nil, err
	}
	pal, under, over := h.colors()
	hm := plotter.NewHeatMap(grid{h.Matrix}, pal)
	hm.Min, hm.Max = h.Min, h.Max
	hm.Underflow, hm.Overflow = under, over

	p := newPlot(h.Title)
	p.Add(hm)
	n, _ := h.Matrix.Dims()
	ticks := binTicks{start: float64(h.Region.Start), width: h.binWidth()}
	for _, axis := range []*plot.Axis{&p.X, &p.Y} {
		axis.Min, axis.Max = -0.5, float64(n)-0.5
		axis.Tick.Marker = ticks
	}
	p.Y.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}
	return p, nil
}

// TriangleHeatmap draws the upper triangle of h rotated by 45 degrees, with
// genomic position on x and half the contact distance on y.
func TriangleHeatmap(h Heatmap) (*plot.Plot, error) {
	if err := h.check(); err != nil {
		return nil, err
	}
	pal, under, over := h.colors()
	depth := float64(h.Depth)
	if depth == 0 || depth > float64(h.Region.Width()) {
		depth = float64(h.Region.Width())
	}
	t := &triangle{
		m:         h.Matrix,
		start:     float64(h.Region.Start),
		width:     h.binWidth(),
		depth:     depth,
		palette:   pal.Colors(),
		min:       h.Min,
		max:       h.Max,
		underflow: under,
		overflow:  over,
	}

	p := newPlot(h.Title)
	p.Add(t)
	genomicAxis(&p.X, float64(h.Region.Start), float64(h.Region.End))
	p.Y.Min, p.Y.Max = 0, depth/2
	p.HideY()
	return p, nil
}

// triangle is a plot.Plotter drawing every contact (i, j) with j >= i as a
// diamond centered above the midpoint of bins i and j.
type triangle struct {
	m                   *mat.Dense
	start, width, depth float64
	palette             []color.Color
	min, max            float64
	underflow, overflow color.Color
}

var (
	_ plot.Plotter    = (*triangle)(nil)
	_ plot.DataRanger = (*triangle)(nil)
)

func (t *triangle) color(v float64) color.Color {
	switch {
	case math.IsNaN(v):
		return nil
	case v < t.min:
		return t.underflow
	case v > t.max:
		return t.overflow
	}
	scale := float64(len(t.palette)-1) / (t.max - t.min)
	return t.palette[int((v-t.min)*scale+0.5)]
}

func (t *triangle) Plot(c draw.Canvas, p *plot.Plot) {
	trX, trY := p.Transforms(&c)
	point := func(a, b float64) vg.Point {
		return vg.Point{
			X: trX(t.start + (a+b)/2*t.width),
			Y: trY((b - a) / 2 * t.width),
		}
	}

	n, _ := t.m.Dims()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			if float64(j-i)*t.width > t.depth {
				break
			}
			clr := t.color(t.m.At(i, j))
			if clr == nil {
				continue
			}
			a, b := float64(i), float64(j)
			pts := []vg.Point{point(a, b), point(a, b+1), point(a+1, b+1)}
			if j > i {
				pts = append(pts, point(a+1, b))
			}
			if clipped := c.ClipPolygonXY(pts); len(clipped) > 0 {
				c.FillPolygon(clr, clipped)
			}
		}
	}
}

func (t *triangle) DataRange() (xmin, xmax, ymin, ymax float64) {
	n, _ := t.m.Dims()
	return t.start, t.start + float64(n)*t.width, 0, t.depth / 2
}

// ColorBar draws a horizontal legend for cm over [min, max].
func ColorBar(cm palette.ColorMap, min, max float64, label string) (*plot.Plot, error) {
	if !(min < max) {
		return nil, errors.Errorf("invalid color range [%v, %v]", min, max)
	}
	cm.SetMin(min)
	cm.SetMax(max)

	p := newPlot("")
	p.Add(&plotter.ColorBar{ColorMap: cm, Colors: paletteSize})
	p.HideY()
	p.X.Min, p.X.Max = min, max
	p.X.Label.Text = label
	p.X.Tick.Marker = plot.DefaultTicks{}
	return p, nil
}

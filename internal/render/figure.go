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
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	// Register the output formats understood by draw.NewFormattedCanvas.
	_ "gonum.org/v1/plot/vg/vgeps"
	_ "gonum.org/v1/plot/vg/vgimg"
	_ "gonum.org/v1/plot/vg/vgpdf"
	_ "gonum.org/v1/plot/vg/vgsvg"
)

// Figure is a grid of panels.  Row 0 is at the top.  Empty cells are left
// blank.
type Figure struct {
	Width, Height vg.Length

	// HeightRatios holds the relative height of every row.  Rows default to
	// equal heights.
	HeightRatios []float64

	// HSpace and WSpace are the gaps between rows and columns as fractions
	// of the average panel height and width.
	HSpace, WSpace float64

	// Left, Right, Bottom and Top place the grid as fractions of the figure.
	Left, Right, Bottom, Top float64

	rows, cols int
	panels     [][]*plot.Plot
}

// NewFigure returns an empty rows x cols figure of the given size.
func NewFigure(rows, cols int, width, height vg.Length) *Figure {
	panels := make([][]*plot.Plot, rows)
	for i := range panels {
		panels[i] = make([]*plot.Plot, cols)
	}
	return &Figure{
		Width:  width,
		Height: height,
		HSpace: 0.2,
		WSpace: 0.2,
		Left:   0.1,
		Right:  0.95,
		Bottom: 0.1,
		Top:    0.95,
		rows:   rows,
		cols:   cols,
		panels: panels,
	}
}

// Set places p in the given cell.  A nil p leaves the cell blank.
func (f *Figure) Set(row, col int, p *plot.Plot) {
	f.panels[row][col] = p
}

// Panel returns the plot in the given cell.
func (f *Figure) Panel(row, col int) *plot.Plot {
	return f.panels[row][col]
}

// Dims returns the number of rows and columns.
func (f *Figure) Dims() (rows, cols int) {
	return f.rows, f.cols
}

// spans splits length into n cells separated by space times the average
// cell size, sized according to ratios.  It returns the offset of every
// cell from the start and its size.
func spans(length vg.Length, n int, space float64, ratios []float64) ([]vg.Length, []vg.Length) {
	if len(ratios) != n {
		ratios = make([]float64, n)
		for i := range ratios {
			ratios[i] = 1
		}
	}
	var total float64
	for _, r := range ratios {
		total += r
	}
	cell := float64(length) / (float64(n) + space*float64(n-1))
	gap := vg.Length(cell * space)

	offsets := make([]vg.Length, n)
	sizes := make([]vg.Length, n)
	var at vg.Length
	for i, r := range ratios {
		offsets[i] = at
		sizes[i] = vg.Length(cell * float64(n) * r / total)
		at += sizes[i] + gap
	}
	return offsets, sizes
}

// Draw draws every panel of the figure onto c.
func (f *Figure) Draw(c draw.Canvas) {
	c.SetColor(color.White)
	c.Fill(c.Rectangle.Path())

	size := c.Size()
	left := c.Min.X + vg.Length(f.Left)*size.X
	top := c.Min.Y + vg.Length(f.Top)*size.Y
	width := vg.Length(f.Right-f.Left) * size.X
	height := vg.Length(f.Top-f.Bottom) * size.Y

	rowOffsets, rowSizes := spans(height, f.rows, f.HSpace, f.HeightRatios)
	colOffsets, colSizes := spans(width, f.cols, f.WSpace, nil)
	for i, row := range f.panels {
		for j, p := range row {
			if p == nil {
				continue
			}
			cell := c
			cell.Rectangle = vg.Rectangle{
				Min: vg.Point{X: left + colOffsets[j], Y: top - rowOffsets[i] - rowSizes[i]},
				Max: vg.Point{X: left + colOffsets[j] + colSizes[j], Y: top - rowOffsets[i]},
			}
			p.Draw(cell)
		}
	}
}

// Format returns the image format implied by the extension of path.
func Format(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// WriteTo renders the figure to w in the given format (eps, jpg, jpeg, pdf,
// png, svg, tif or tiff).
func (f *Figure) WriteTo(w io.Writer, format string) error {
	if f.rows == 0 || f.cols == 0 {
		return errors.New("figure has no panels")
	}
	canvas, err := draw.NewFormattedCanvas(f.Width, f.Height, format)
	if err != nil {
		return errors.Wrapf(err, "unsupported output format %q", format)
	}
	f.Draw(draw.New(canvas))
	_, err = canvas.WriteTo(w)
	return err
}

// Save writes the figure to path in the format implied by its extension.
func (f *Figure) Save(path string) (err error) {
	format := Format(path)
	if !supported(format) {
		return errors.Errorf("%s: unsupported output format %q; use one of %s", path, format, strings.Join(draw.Formats(), ", "))
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	return errors.Wrapf(f.WriteTo(file, format), "writing %s", path)
}

func supported(format string) bool {
	for _, f := range draw.Formats() {
		if f == format {
			return true
		}
	}
	return false
}

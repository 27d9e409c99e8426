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

package plots

import (
	"context"
	"fmt"

	"github.com/googlegenomics/hicplot/internal/config"
	"github.com/googlegenomics/hicplot/internal/contact"
	"github.com/googlegenomics/hicplot/internal/genomics"
	"github.com/googlegenomics/hicplot/internal/render"
	"github.com/googlegenomics/hicplot/internal/signal"
	"github.com/googlegenomics/hicplot/internal/source"
	"github.com/pkg/errors"
	"gonum.org/v1/plot/vg"
)

// DifferenceOptions describes a case/control comparison figure.
type DifferenceOptions struct {
	Case, Control string
	Region        genomics.Region
	Matrix        MatrixOptions
	Operation     contact.Operation
	Method        contact.DivisionMethod
	Colormap      string
	// Title defaults to a description of the operation.
	Title     string
	Tracks    config.Tracks
	TrackSize float64
	// Spacing is the gap between rows as a fraction of the average row
	// height.
	Spacing float64
}

func (opts *DifferenceOptions) title() string {
	if opts.Title != "" {
		return opts.Title
	}
	a, b := config.DefaultLabel(opts.Case), config.DefaultLabel(opts.Control)
	if opts.Operation == contact.Subtract {
		return fmt.Sprintf("%s - %s", a, b)
	}
	switch opts.Method {
	case contact.Log2:
		return fmt.Sprintf("log2(%s / %s)", a, b)
	case contact.Add1:
		return fmt.Sprintf("(%s + 1) / (%s + 1)", a, b)
	case contact.Log2Add1:
		return fmt.Sprintf("log2((%s + 1) / (%s + 1))", a, b)
	}
	return fmt.Sprintf("%s / %s", a, b)
}

// Difference draws the difference of the case and control contacts with a
// symmetric color scale, followed by its color bar, the signal tracks of
// both samples, their BED tracks and the gene track.
func Difference(ctx context.Context, opener *source.Opener, opts DifferenceOptions) (*render.Figure, error) {
	if opts.TrackSize <= 0 {
		opts.TrackSize = DefaultTrackSize
	}
	if opts.Spacing <= 0 {
		opts.Spacing = heatmapSpacing
	}
	if opts.Operation == "" {
		opts.Operation = contact.Subtract
	}
	if opts.Method == "" {
		opts.Method = contact.Raw
	}

	c, err := LoadContacts(ctx, opener, opts.Case, opts.Region, opts.Matrix)
	if err != nil {
		return nil, err
	}
	matrix := opts.Matrix
	matrix.Resolution, matrix.Norm = c.Resolution, c.Norm
	control, err := LoadContacts(ctx, opener, opts.Control, c.Region, matrix)
	if err != nil {
		return nil, err
	}
	diff, err := contact.Difference(c.Matrix, control.Matrix, opts.Operation, opts.Method)
	if err != nil {
		return nil, errors.Wrapf(err, "comparing %s and %s", opts.Case, opts.Control)
	}

	lo, hi := contact.SymmetricLimits(diff)
	if opts.Matrix.VMin != nil && opts.Matrix.VMax != nil {
		if lo, hi, err = contact.Limits(diff, opts.Matrix.VMin, opts.Matrix.VMax, 0); err != nil {
			return nil, err
		}
	}
	name := opts.Colormap
	if name == "" {
		name = render.DefaultDiffColormap
	}
	cm, err := render.Colormap(name)
	if err != nil {
		return nil, err
	}
	heatmap, err := render.SquareHeatmap(render.Heatmap{
		Matrix:   diff,
		Region:   c.Region,
		Colormap: cm,
		Min:      lo,
		Max:      hi,
		Title:    opts.title(),
	})
	if err != nil {
		return nil, err
	}
	barColors, err := render.Colormap(name)
	if err != nil {
		return nil, err
	}
	bar, err := render.ColorBar(barColors, lo, hi, "")
	if err != nil {
		return nil, err
	}

	a, err := loadAnnotations(ctx, opener, opts.Tracks, c.Region, 2)
	if err != nil {
		return nil, err
	}
	trackRatio := opts.TrackSize / 5
	// Case and control track i share one y range.
	tracks, err := a.scaledColumns(signal.Vertical, signal.Horizontal, c.Region, trackRatio)
	if err != nil {
		return nil, err
	}
	genes, err := a.genePanel(c.Region, 1, trackRatio)
	if err != nil {
		return nil, err
	}

	stacked := column{{heatmap, opts.TrackSize}, {bar, colorbarRatio}}
	stacked = append(stacked, tracks[0]...)
	fig := grid(withGenes([]column{stacked}, genes))
	fig.HSpace = opts.Spacing
	fig.Width = vg.Length(opts.TrackSize) * vg.Inch
	fig.Height = vg.Length(sum(fig.HeightRatios)+2) * vg.Inch
	return fig, nil
}

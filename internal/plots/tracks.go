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

	"github.com/googlegenomics/hicplot/internal/config"
	"github.com/googlegenomics/hicplot/internal/genomics"
	"github.com/googlegenomics/hicplot/internal/render"
	"github.com/googlegenomics/hicplot/internal/signal"
	"github.com/googlegenomics/hicplot/internal/source"
	"github.com/pkg/errors"
	"gonum.org/v1/plot/vg"
)

// Default track geometry, in inches.
const (
	DefaultTrackWidth   = 10.0
	DefaultTrackHeight  = 1.0
	DefaultTrackSpacing = 0.5
)

// TrackOptions describes a figure of genomic tracks without heatmaps.
type TrackOptions struct {
	Region genomics.Region
	Tracks config.Tracks
	Layout signal.Layout

	// Width and Height size every track.  Spacing is the vertical gap
	// between tracks of the vertical layout.
	Width, Height, Spacing float64
}

// Tracks draws the signal and BED tracks of one or two samples and the gene
// track.  The horizontal layout gives each sample a column, with the gene
// track repeated under both; the vertical layout stacks everything.
func Tracks(ctx context.Context, opener *source.Opener, opts TrackOptions) (*render.Figure, error) {
	if opts.Width <= 0 {
		opts.Width = DefaultTrackWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultTrackHeight
	}
	if opts.Spacing <= 0 {
		opts.Spacing = DefaultTrackSpacing
	}
	if opts.Layout == "" {
		opts.Layout = signal.Vertical
	}
	if len(opts.Tracks) == 0 {
		return nil, errors.New("no tracks to draw")
	}

	samples := 1
	for _, t := range opts.Tracks {
		if t.Kind != config.Genes {
			samples = max(samples, t.Sample)
		}
	}
	a, err := loadAnnotations(ctx, opener, opts.Tracks, opts.Region, samples)
	if err != nil {
		return nil, err
	}
	columns, err := a.trackColumns(opts.Layout, opts.Region, opts.Height)
	if err != nil {
		return nil, err
	}
	genes, err := a.genePanel(opts.Region, opts.Height, opts.Height)
	if err != nil {
		return nil, err
	}

	fig := grid(withGenes(columns, genes))
	rows, cols := fig.Dims()
	if opts.Layout == signal.Horizontal {
		fig.HSpace, fig.WSpace = 0.5, 0.3
	} else {
		fig.HSpace = opts.Spacing * 1.2 / opts.Height
	}
	fig.Width = vg.Length(opts.Width*float64(cols)) * vg.Inch
	fig.Height = vg.Length(opts.Height*float64(rows)) * vg.Inch
	return fig, nil
}

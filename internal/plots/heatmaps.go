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

const (
	// DefaultTrackSize is the width in inches of a heatmap column.
	DefaultTrackSize = 5.0

	// colorbarRatio is the height of a color bar row.
	colorbarRatio = 0.1

	// heatmapSpacing is the gap between heatmap rows, as a fraction of the
	// average row height.
	heatmapSpacing = 0.5
)

// HeatmapOptions describes a figure of one or two contact heatmaps, each
// followed by the tracks of its sample.
type HeatmapOptions struct {
	// Files holds the contact file of sample 1 and, optionally, sample 2.
	Files []string
	// Titles overrides the file-derived heatmap titles.
	Titles   []string
	Region   genomics.Region
	Matrix   MatrixOptions
	Colormap string

	// Triangle draws the upper triangle rotated by 45 degrees, cut at
	// Depth base pairs from the diagonal.
	Triangle bool
	Depth    uint32

	Layout    signal.Layout
	Tracks    config.Tracks
	TrackSize float64
}

func (opts *HeatmapOptions) title(i int) string {
	if i < len(opts.Titles) && opts.Titles[i] != "" {
		return opts.Titles[i]
	}
	return config.DefaultLabel(opts.Files[i])
}

// heatmapRatio returns the height of a heatmap row.
func (opts *HeatmapOptions) heatmapRatio(region genomics.Region) float64 {
	if !opts.Triangle {
		return opts.TrackSize
	}
	width := float64(region.Width())
	depth := float64(opts.Depth)
	if depth == 0 || depth > width {
		depth = width
	}
	return opts.TrackSize * depth / (2 * width)
}

// Heatmaps draws the contacts of every file over the region, each with a
// horizontal color bar and the tracks of its sample.  The horizontal layout
// puts the samples side by side; the vertical layout stacks them and ends
// with a single gene track.
func Heatmaps(ctx context.Context, opener *source.Opener, opts HeatmapOptions) (*render.Figure, error) {
	if n := len(opts.Files); n < 1 || n > 2 {
		return nil, errors.Errorf("expected one or two contact files, got %d", n)
	}
	for _, t := range opts.Tracks {
		if t.Kind != config.Genes && t.Sample > len(opts.Files) {
			return nil, errors.Errorf("%s: sample %d has no contact file", t.File, t.Sample)
		}
	}
	if opts.TrackSize <= 0 {
		opts.TrackSize = DefaultTrackSize
	}
	if opts.Layout == "" {
		opts.Layout = signal.Vertical
	}

	samples := make([]*Contacts, len(opts.Files))
	for i, path := range opts.Files {
		c, err := LoadContacts(ctx, opener, path, opts.Region, opts.Matrix)
		if err != nil {
			return nil, err
		}
		samples[i] = c
	}
	region := samples[0].Region

	a, err := loadAnnotations(ctx, opener, opts.Tracks, region, len(samples))
	if err != nil {
		return nil, err
	}
	trackRatio := opts.TrackSize / 5
	tracks, err := a.trackColumns(opts.Layout, region, trackRatio)
	if err != nil {
		return nil, err
	}
	genes, err := a.genePanel(region, 1, trackRatio)
	if err != nil {
		return nil, err
	}

	heatmaps := make([]column, len(samples))
	for i, c := range samples {
		if heatmaps[i], err = opts.heatmapPanels(c, opts.title(i)); err != nil {
			return nil, err
		}
	}

	var columns []column
	switch opts.Layout {
	case signal.Horizontal:
		columns = make([]column, len(samples))
		for i := range samples {
			columns[i] = append(heatmaps[i], tracks[i]...)
		}
	case signal.Vertical:
		// tracks holds a single column: sample 1 signals, sample 2 signals,
		// then BED tracks.  Split it back per sample.
		var stacked column
		sampleTracks := splitSamples(a, tracks[0])
		for i := range samples {
			stacked = append(stacked, heatmaps[i]...)
			stacked = append(stacked, sampleTracks[i]...)
		}
		columns = []column{stacked}
	default:
		return nil, errors.Errorf("invalid layout %q", opts.Layout)
	}
	columns = withGenes(columns, genes)

	fig := grid(columns)
	fig.HSpace = heatmapSpacing
	fig.WSpace = 0.3
	fig.Width = vg.Length(opts.TrackSize*float64(len(columns))) * vg.Inch
	fig.Height = vg.Length(sum(fig.HeightRatios)+2) * vg.Inch
	return fig, nil
}

// splitSamples regroups the stacked vertical track column per sample, so
// that each sample's tracks follow its heatmap.
func splitSamples(a *annotations, stacked column) []column {
	split := make([]column, len(a.samples))
	at := 0
	for i, s := range a.samples {
		split[i] = append(split[i], stacked[at:at+len(s.signals)]...)
		at += len(s.signals)
	}
	for i, s := range a.samples {
		split[i] = append(split[i], stacked[at:at+len(s.beds)]...)
		at += len(s.beds)
	}
	return split
}

// heatmapPanels draws c and its color bar.
func (opts *HeatmapOptions) heatmapPanels(c *Contacts, title string) (column, error) {
	matrix, label := c.Matrix, string(c.Norm)
	if opts.Matrix.Log {
		matrix = contact.Log(matrix, 1)
		label = fmt.Sprintf("log10(%s + 1)", c.Norm)
	}
	lo, hi, err := contact.Limits(matrix, opts.Matrix.VMin, opts.Matrix.VMax, opts.Matrix.Percentile)
	if err != nil {
		return nil, err
	}

	name := opts.Colormap
	if name == "" {
		name = render.DefaultColormap
	}
	cm, err := render.Colormap(name)
	if err != nil {
		return nil, err
	}
	h := render.Heatmap{
		Matrix:   matrix,
		Region:   c.Region,
		Colormap: cm,
		Min:      lo,
		Max:      hi,
		Title:    fmt.Sprintf("%s (%s)", title, resolutionLabel(c.Resolution)),
		Depth:    opts.Depth,
	}
	draw := render.SquareHeatmap
	if opts.Triangle {
		draw = render.TriangleHeatmap
	}
	heatmap, err := draw(h)
	if err != nil {
		return nil, errors.Wrap(err, c.Path)
	}

	barColors, err := render.Colormap(name)
	if err != nil {
		return nil, err
	}
	bar, err := render.ColorBar(barColors, lo, hi, label)
	if err != nil {
		return nil, err
	}
	return column{{heatmap, opts.heatmapRatio(c.Region)}, {bar, colorbarRatio}}, nil
}

// resolutionLabel formats a bin size the way Juicebox does: 5 kb, 1 Mb.
func resolutionLabel(resolution int32) string {
	switch {
	case resolution >= 1e6 && resolution%1e6 == 0:
		return fmt.Sprintf("%d Mb", resolution/1e6)
	case resolution >= 1e3 && resolution%1e3 == 0:
		return fmt.Sprintf("%d kb", resolution/1e3)
	}
	return fmt.Sprintf("%d bp", resolution)
}

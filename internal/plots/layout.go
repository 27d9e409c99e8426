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
	"github.com/googlegenomics/hicplot/internal/genomics"
	"github.com/googlegenomics/hicplot/internal/render"
	"github.com/googlegenomics/hicplot/internal/signal"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
)

// panel is one cell of a figure.  A nil plot leaves the cell empty.
type panel struct {
	plot  *plot.Plot
	ratio float64
}

// column is a stack of panels, top first.
type column []panel

// pad extends c with empty panels up to n rows.
func (c column) pad(n int) column {
	for len(c) < n {
		c = append(c, panel{})
	}
	return c
}

// grid places columns side by side.  The height of a row is the largest
// ratio of its panels.
func grid(columns []column) *render.Figure {
	rows := 0
	for _, c := range columns {
		rows = max(rows, len(c))
	}
	fig := render.NewFigure(rows, len(columns), 0, 0)
	fig.HeightRatios = make([]float64, rows)
	for j, c := range columns {
		for i, p := range c {
			fig.HeightRatios[i] = max(fig.HeightRatios[i], p.ratio)
			if p.plot != nil {
				fig.Set(i, j, p.plot)
			}
		}
	}
	return fig
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

// signalPanels draws the signal tracks of s.  ranges holds the y range of
// every slot, starting at offset for the first track of s.
func (s *sampleTracks) signalPanels(ranges []signal.Range, offset int, ratio float64) (column, error) {
	var c column
	for i, track := range s.signals {
		cfg := s.signalConfigs[i]
		clr, err := render.ParseColor(cfg.Color)
		if err != nil {
			return nil, errors.Wrap(err, cfg.File)
		}
		var limits signal.Range
		if offset+i < len(ranges) {
			limits = ranges[offset+i]
		}
		p, err := render.SignalPanel(track, limits, clr, cfg.Label)
		if err != nil {
			return nil, err
		}
		c = append(c, panel{p, ratio})
	}
	return c, nil
}

// bedPanels draws the BED tracks of s.
func (s *sampleTracks) bedPanels(region genomics.Region, ratio float64) (column, error) {
	var c column
	for i, intervals := range s.beds {
		cfg := s.bedConfigs[i]
		clr, err := render.ParseColor(cfg.Color)
		if err != nil {
			return nil, errors.Wrap(err, cfg.File)
		}
		p, err := render.BedPanel(intervals, region, clr, cfg.Label)
		if err != nil {
			return nil, err
		}
		c = append(c, panel{p, ratio})
	}
	return c, nil
}

// genePanel draws the gene track, or returns an empty column if there is
// none.
func (a *annotations) genePanel(region genomics.Region, trackHeight, ratio float64) (column, error) {
	if a.geneConfig == nil {
		return nil, nil
	}
	clr, err := render.ParseColor(a.geneConfig.Color)
	if err != nil {
		return nil, errors.Wrap(err, a.geneConfig.File)
	}
	p, err := render.GenePanel(a.genes, a.geneRows, region, clr, trackHeight)
	if err != nil {
		return nil, err
	}
	return column{{p, ratio}}, nil
}

// trackColumns draws the signal and BED tracks of every sample.  With the
// horizontal layout each sample gets its own column and the BED tracks of
// both samples start on the same row.  With the vertical layout the tracks
// form a single column: signals of sample 1 then sample 2, then BED tracks
// in the same order.  Signal y ranges are paired as the layout places them.
func (a *annotations) trackColumns(layout signal.Layout, region genomics.Region, ratio float64) ([]column, error) {
	return a.scaledColumns(layout, layout, region, ratio)
}

// scaledColumns is trackColumns with the signal y ranges paired by scale
// rather than by layout.  A horizontal scale gives track i of both samples
// one range.
func (a *annotations) scaledColumns(layout, scale signal.Layout, region genomics.Region, ratio float64) ([]column, error) {
	ranges, err := a.signalRanges(scale)
	if err != nil {
		return nil, err
	}

	signals := make([]column, len(a.samples))
	beds := make([]column, len(a.samples))
	for i := range a.samples {
		s := &a.samples[i]
		if signals[i], err = s.signalPanels(ranges, a.rangeOffset(i, scale), ratio); err != nil {
			return nil, err
		}
		if beds[i], err = s.bedPanels(region, ratio); err != nil {
			return nil, err
		}
	}

	if layout == signal.Horizontal {
		columns := make([]column, len(a.samples))
		for i := range columns {
			columns[i] = append(signals[i].pad(a.maxSignals()), beds[i]...)
		}
		return columns, nil
	}
	var stacked column
	for _, c := range signals {
		stacked = append(stacked, c...)
	}
	for _, c := range beds {
		stacked = append(stacked, c...)
	}
	return []column{stacked}, nil
}

// withGenes appends the gene panel to every column, aligned on one row.
func withGenes(columns []column, genes column) []column {
	if len(genes) == 0 {
		return columns
	}
	rows := 0
	for _, c := range columns {
		rows = max(rows, len(c))
	}
	for i := range columns {
		columns[i] = append(columns[i].pad(rows), genes...)
	}
	return columns
}

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

	"github.com/apex/log"
	"github.com/googlegenomics/hicplot/internal/annot"
	"github.com/googlegenomics/hicplot/internal/genomics"
	"github.com/googlegenomics/hicplot/internal/signal"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const (
	// signalAlpha is the opacity of the area under a signal track.
	signalAlpha = 0.7

	// geneSpacing is the distance between gene rows in track heights.
	geneSpacing = 1.5
)

// SignalPanel draws track as a filled line.  When limits is valid the y axis
// spans [limits.Min, 1.1*limits.Max].  It returns nil if the track has no
// data in its region.
func SignalPanel(track *signal.Track, limits signal.Range, clr color.Color, title string) (*plot.Plot, error) {
	if track.Empty() {
		log.WithFields(log.Fields{"path": track.Path, "region": track.Region.String()}).Warn("no signal in region")
		return nil, nil
	}

	xys := make(plotter.XYs, len(track.Values))
	for i, v := range track.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		xys[i] = plotter.XY{X: track.Positions[i], Y: v}
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, errors.Wrapf(err, "plotting %s", track.Path)
	}
	line.Color = clr
	line.Width = vg.Points(0.5)
	line.FillColor = withAlpha(clr, signalAlpha)

	p := newPlot(title)
	p.Add(line)
	genomicAxis(&p.X, float64(track.Region.Start), float64(track.Region.End))
	if limits.Valid {
		p.Y.Min, p.Y.Max = limits.Min, limits.Max*1.1
		if p.Y.Max <= p.Y.Min {
			p.Y.Max = p.Y.Min + 1
		}
	}
	return p, nil
}

// BedPanel draws one box per interval between y=0.1 and y=0.9 with the axes
// hidden.  It returns nil if there are no intervals.
func BedPanel(intervals []annot.Interval, region genomics.Region, clr color.Color, title string) (*plot.Plot, error) {
	if len(intervals) == 0 {
		log.WithField("region", region.String()).Warn("no BED entries in region")
		return nil, nil
	}

	p := newPlot(title)
	for _, iv := range intervals {
		box, err := rectangle(float64(iv.Start), float64(iv.End), 0.1, 0.9, clr)
		if err != nil {
			return nil, err
		}
		p.Add(box)
	}
	p.X.Min, p.X.Max = float64(region.Start), float64(region.End)
	p.Y.Min, p.Y.Max = 0, 1
	p.HideAxes()
	return p, nil
}

// GenePanel draws each gene as a line on its row with its exons as boxes
// 0.6 track heights tall and its name above.  Genes must have been assigned
// rows by annot.PackRows.  It returns nil if there are no genes.
func GenePanel(genes []annot.Gene, rows int, region genomics.Region, clr color.Color, trackHeight float64) (*plot.Plot, error) {
	if len(genes) == 0 {
		log.WithField("region", region.String()).Warn("no genes in region")
		return nil, nil
	}

	p := newPlot("")
	labels := plotter.XYLabels{}
	for _, g := range genes {
		y := float64(g.Row) * geneSpacing * trackHeight
		line, err := plotter.NewLine(plotter.XYs{{X: float64(g.Start), Y: y}, {X: float64(g.End), Y: y}})
		if err != nil {
			return nil, err
		}
		line.Color = clr
		line.Width = vg.Points(1)
		p.Add(line)

		for _, exon := range g.Exons {
			box, err := rectangle(float64(exon.Start), float64(exon.End), y-0.3*trackHeight, y+0.3*trackHeight, clr)
			if err != nil {
				return nil, err
			}
			p.Add(box)
		}

		labels.XYs = append(labels.XYs, plotter.XY{X: (float64(g.Start) + float64(g.End)) / 2, Y: y + 0.4*trackHeight})
		labels.Labels = append(labels.Labels, g.Name)
	}

	names, err := plotter.NewLabels(labels)
	if err != nil {
		return nil, err
	}
	for i := range names.TextStyle {
		names.TextStyle[i].Font.Size = FontSize
		names.TextStyle[i].XAlign = draw.XCenter
		names.TextStyle[i].YAlign = draw.YBottom
	}
	p.Add(names)

	genomicAxis(&p.X, float64(region.Start), float64(region.End))
	p.X.Label.Text = "Position (Mb)"
	p.Y.Min = -trackHeight
	p.Y.Max = float64(rows-1)*geneSpacing*trackHeight + 2*trackHeight
	p.Y.Label.Text = "Genes"
	p.Y.Tick.Marker = plot.ConstantTicks{}
	return p, nil
}

// rectangle returns a filled box without an outline.
func rectangle(x0, x1, y0, y1 float64, clr color.Color) (*plotter.Polygon, error) {
	box, err := plotter.NewPolygon(plotter.XYs{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}})
	if err != nil {
		return nil, err
	}
	box.Color = clr
	box.LineStyle.Width = 0
	return box, nil
}

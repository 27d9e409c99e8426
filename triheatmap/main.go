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

// This binary draws triangular Hi-C contact heatmaps, the upper triangle of
// the matrix rotated by 45 degrees, above the genomic tracks of each sample.
package main

import (
	"context"

	"github.com/apex/log"
	"github.com/googlegenomics/hicplot/internal/cli"
	"github.com/googlegenomics/hicplot/internal/plots"
	"github.com/googlegenomics/hicplot/internal/signal"
)

var (
	app = cli.New("TriHeatmap", "Draw triangular Hi-C heatmaps with genomic tracks.")

	file1  = app.Flag("cooler_file1", "Path to the .hic or HiC-Pro .matrix file of sample 1.").Required().String()
	file2  = app.Flag("cooler_file2", "Path to the .hic or HiC-Pro .matrix file of sample 2.").String()
	title1 = app.Flag("title1", "Title of the sample 1 heatmap (default: file name).").String()
	title2 = app.Flag("title2", "Title of the sample 2 heatmap (default: file name).").String()
	depth  = app.Flag("depth", "Largest contact distance to draw, in base pairs (default: region width).").Default("0").Uint32()
	output = app.Flag("output_file", "Output file; the extension selects the format.").Default("comparison_triheatmap.pdf").String()
	size   = app.Flag("track_size", "Width of each heatmap in inches.").Default("5").Float64()

	region  = app.RegionFlags()
	heatmap = app.HeatmapFlags()
	tracks  = app.TrackFlags(2)
	layout  = app.LayoutFlag()
)

func main() {
	app.Main(run)
}

func run(ctx context.Context) error {
	r, err := region.Region()
	if err != nil {
		return err
	}
	ts, err := tracks.Tracks()
	if err != nil {
		return err
	}
	files := []string{*file1}
	if *file2 != "" {
		files = append(files, *file2)
	}

	opener, err := app.Opener(ctx, append(files, ts.Files()...)...)
	if err != nil {
		return err
	}
	fig, err := plots.Heatmaps(ctx, opener, plots.HeatmapOptions{
		Files:     files,
		Titles:    []string{*title1, *title2},
		Region:    r,
		Matrix:    heatmap.Options(),
		Colormap:  *heatmap.Cmap,
		Triangle:  true,
		Depth:     *depth,
		Layout:    signal.Layout(*layout),
		Tracks:    ts,
		TrackSize: *size,
	})
	if err != nil {
		return err
	}
	if err := fig.Save(*output); err != nil {
		return err
	}
	log.WithField("file", *output).Info("saved heatmap")
	return nil
}

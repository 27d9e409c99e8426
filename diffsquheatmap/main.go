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

// This binary draws the difference between a case and a control Hi-C
// matrix, followed by the genomic tracks of both samples.
package main

import (
	"context"

	"github.com/apex/log"
	"github.com/googlegenomics/hicplot/internal/cli"
	"github.com/googlegenomics/hicplot/internal/contact"
	"github.com/googlegenomics/hicplot/internal/plots"
	"github.com/googlegenomics/hicplot/internal/render"
)

var (
	app = cli.New("DiffSquHeatmap", "Draw the difference of two Hi-C matrices with genomic tracks.")

	caseFile    = app.Flag("cooler_file1", "Path to the case .hic or HiC-Pro .matrix file.").Required().String()
	controlFile = app.Flag("cooler_file2", "Path to the control .hic or HiC-Pro .matrix file.").Required().String()

	operation = app.Flag("operation", "Compare by 'subtract' or 'divide'.").Default("subtract").Enum("subtract", "divide")
	method    = app.Flag("division_method", "Ratio used by --operation divide.").Default("raw").Enum("raw", "log2", "add1", "log2_add1")

	cmap    = app.Flag("diff_cmap", "Colormap of the difference matrix.").Default(render.DefaultDiffColormap).String()
	title   = app.Flag("diff_title", "Title of the difference matrix (default: the operation).").String()
	size    = app.Flag("track_size", "Width of the figure in inches.").Default("5").Float64()
	spacing = app.Flag("track_spacing", "Gap between rows as a fraction of the average row height.").Default("0.5").Float64()
	output  = app.Flag("output_file", "Output file; the extension selects the format.").Default("comparison_heatmap.pdf").String()

	region = app.RegionFlags()
	matrix = app.MatrixFlags()
	tracks = app.TrackFlags(2)
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

	opener, err := app.Opener(ctx, append([]string{*caseFile, *controlFile}, ts.Files()...)...)
	if err != nil {
		return err
	}
	fig, err := plots.Difference(ctx, opener, plots.DifferenceOptions{
		Case:      *caseFile,
		Control:   *controlFile,
		Region:    r,
		Matrix:    matrix.Options(),
		Operation: contact.Operation(*operation),
		Method:    contact.DivisionMethod(*method),
		Colormap:  *cmap,
		Title:     *title,
		Tracks:    ts,
		TrackSize: *size,
		Spacing:   *spacing,
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

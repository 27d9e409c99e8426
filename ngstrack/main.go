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

// This binary draws bigWig, bedGraph, BED and gene tracks of one or two
// samples over a genomic region.
package main

import (
	"context"

	"github.com/apex/log"
	"github.com/googlegenomics/hicplot/internal/cli"
	"github.com/googlegenomics/hicplot/internal/plots"
	"github.com/googlegenomics/hicplot/internal/signal"
	"github.com/pkg/errors"
)

var (
	app = cli.New("NGStrack", "Draw genomic tracks of one or two samples.")

	width   = app.Flag("track_width", "Width of each track in inches.").Default("10").Float64()
	height  = app.Flag("track_height", "Height of each track in inches.").Default("1").Float64()
	spacing = app.Flag("track_spacing", "Spacing between tracks in inches.").Default("0.5").Float64()
	output  = app.Flag("output_file", "Output file; the extension selects the format.").Default("comparison_tracks.pdf").String()

	region = app.RegionFlags()
	tracks = app.TrackFlags(2)
	layout = app.LayoutFlag()
)

func main() {
	app.Main(run)
}

func run(ctx context.Context) error {
	r, err := region.Region()
	if err != nil {
		return err
	}
	if r.End == 0 {
		return errors.New("--end is required")
	}
	ts, err := tracks.Tracks()
	if err != nil {
		return err
	}

	opener, err := app.Opener(ctx, ts.Files()...)
	if err != nil {
		return err
	}
	fig, err := plots.Tracks(ctx, opener, plots.TrackOptions{
		Region:  r,
		Tracks:  ts,
		Layout:  signal.Layout(*layout),
		Width:   *width,
		Height:  *height,
		Spacing: *spacing,
	})
	if err != nil {
		return err
	}
	if err := fig.Save(*output); err != nil {
		return err
	}
	log.WithField("file", *output).Info("saved tracks")
	return nil
}

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

package cli

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"github.com/googlegenomics/hicplot/internal/config"
	"github.com/googlegenomics/hicplot/internal/contact"
	"github.com/googlegenomics/hicplot/internal/genomics"
	"github.com/googlegenomics/hicplot/internal/plots"
	"github.com/googlegenomics/hicplot/internal/render"
	"github.com/googlegenomics/hicplot/internal/signal"
	"github.com/pkg/errors"
)

// listValue collects the values of a repeatable flag.  Each occurrence may
// hold several comma separated values.
type listValue []string

var _ kingpin.Value = (*listValue)(nil)

func (l *listValue) Set(value string) error {
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			*l = append(*l, v)
		}
	}
	return nil
}

func (l *listValue) String() string    { return strings.Join(*l, ",") }
func (l *listValue) IsCumulative() bool { return true }

// List registers a repeatable flag taking one or more values.
func (app *App) List(name, help string) *[]string {
	values := new(listValue)
	app.Flag(name, help).SetValue(values)
	return (*[]string)(values)
}

// RegionFlags selects the region to draw.
type RegionFlags struct {
	chrom      *string
	start, end *uint32
}

// RegionFlags registers --chrid, --start and --end.
func (app *App) RegionFlags() *RegionFlags {
	return &RegionFlags{
		chrom: app.Flag("chrid", "Chromosome ID.").Required().String(),
		start: app.Flag("start", "Start position for the region of interest.").Default("0").Uint32(),
		end:   app.Flag("end", "End position for the region of interest (default: end of chromosome).").Default("0").Uint32(),
	}
}

// Region returns the validated region.
func (f *RegionFlags) Region() (genomics.Region, error) {
	return genomics.NewRegion(*f.chrom, *f.start, *f.end)
}

// TrackFlags collects the signal, BED and gene tracks of up to two samples.
type TrackFlags struct {
	samples []sampleFlags
	gtf     *string
	layout  *string
}

type sampleFlags struct {
	signal, signalLabels, signalColors *[]string
	bed, bedLabels, bedColors          *[]string
}

// TrackFlags registers the track flags of the given number of samples, plus
// --gtf_file and --layout_file.
func (app *App) TrackFlags(samples int) *TrackFlags {
	f := &TrackFlags{
		gtf:    app.Flag("gtf_file", "Path to the GTF file for gene annotations.").String(),
		layout: app.Flag("layout_file", "YAML file listing additional tracks.").String(),
	}
	for i := 1; i <= samples; i++ {
		f.samples = append(f.samples, sampleFlags{
			signal:       app.List(fmt.Sprintf("bigwig_files_sample%d", i), fmt.Sprintf("Paths to bigWig or bedGraph files for sample %d.", i)),
			signalLabels: app.List(fmt.Sprintf("bigwig_labels_sample%d", i), fmt.Sprintf("Labels for signal tracks of sample %d.", i)),
			signalColors: app.List(fmt.Sprintf("colors_sample%d", i), fmt.Sprintf("Colors for signal tracks of sample %d.", i)),
			bed:          app.List(fmt.Sprintf("bed_files_sample%d", i), fmt.Sprintf("Paths to BED files for sample %d.", i)),
			bedLabels:    app.List(fmt.Sprintf("bed_labels_sample%d", i), fmt.Sprintf("Labels for BED tracks of sample %d.", i)),
			bedColors:    app.List(fmt.Sprintf("colors_bed_sample%d", i), fmt.Sprintf("Colors for BED tracks of sample %d.", i)),
		})
	}
	return f
}

// Tracks returns the validated tracks given on the command line followed by
// those of the layout file.
func (f *TrackFlags) Tracks() (config.Tracks, error) {
	var tracks config.Tracks
	for i, s := range f.samples {
		signalTracks, err := config.FromFlags(config.Signal, i+1, *s.signal, *s.signalLabels, *s.signalColors)
		if err != nil {
			return nil, err
		}
		bedTracks, err := config.FromFlags(config.BED, i+1, *s.bed, *s.bedLabels, *s.bedColors)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, signalTracks...)
		tracks = append(tracks, bedTracks...)
	}
	if *f.gtf != "" {
		tracks = append(tracks, config.Track{Kind: config.Genes, File: *f.gtf})
	}
	if *f.layout != "" {
		layout, err := config.LoadFile(*f.layout)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, layout.Tracks...)
	}
	for _, t := range tracks {
		if t.Sample > len(f.samples) {
			return nil, errors.Errorf("%s: sample %d is not plotted", t.File, t.Sample)
		}
	}
	if err := tracks.Validate(); err != nil {
		return nil, err
	}
	for _, t := range tracks {
		if _, err := render.ParseColor(t.Color); err != nil {
			return nil, errors.Wrap(err, t.File)
		}
	}
	return tracks, nil
}

// MatrixFlags controls how contact matrices are fetched.
type MatrixFlags struct {
	Resolution *int32
	Norm       *string

	vmin, vmax       *float64
	vminSet, vmaxSet bool
}

// MatrixFlags registers --resolution, --norm, --vmin and --vmax.
func (app *App) MatrixFlags() *MatrixFlags {
	f := &MatrixFlags{}
	f.Resolution = app.Flag("resolution", "Resolution in base pairs (default: finest with at most 1000 bins in the region).").Default("0").Int32()
	f.Norm = app.Flag("norm", "Normalization: NONE, VC, VC_SQRT, KR, SCALE or ICE (default: KR or ICE when available).").String()
	f.vmin = app.Flag("vmin", "Minimum value of the color scale.").IsSetByUser(&f.vminSet).Float64()
	f.vmax = app.Flag("vmax", "Maximum value of the color scale.").IsSetByUser(&f.vmaxSet).Float64()
	return f
}

// Bounds returns the color limits given on the command line.  Unset limits
// are nil.
func (f *MatrixFlags) Bounds() (vmin, vmax *float64) {
	if f.vminSet {
		vmin = f.vmin
	}
	if f.vmaxSet {
		vmax = f.vmax
	}
	return vmin, vmax
}

// Options returns the matrix options given on the command line.  Unset
// resolution and normalization are left for plots.LoadContacts to choose.
func (f *MatrixFlags) Options() plots.MatrixOptions {
	opts := plots.MatrixOptions{
		Resolution: *f.Resolution,
		Norm:       contact.Normalization(strings.ToUpper(*f.Norm)),
	}
	opts.VMin, opts.VMax = f.Bounds()
	return opts
}

// HeatmapFlags adds coloring to MatrixFlags.
type HeatmapFlags struct {
	*MatrixFlags
	Cmap       *string
	Log        *bool
	Percentile *float64
}

// HeatmapFlags registers the matrix flags plus --cmap, --log and
// --percentile.
func (app *App) HeatmapFlags() *HeatmapFlags {
	return &HeatmapFlags{
		MatrixFlags: app.MatrixFlags(),
		Cmap:        app.Flag("cmap", "Colormap of the heatmaps.").Default(render.DefaultColormap).String(),
		Log:         app.Flag("log", "Color by log10(value + 1).").Bool(),
		Percentile:  app.Flag("percentile", "Clip unset color limits to this upper percentile (0 disables).").Default("0").Float64(),
	}
}

// Options returns the matrix and scaling options given on the command line.
func (f *HeatmapFlags) Options() plots.MatrixOptions {
	opts := f.MatrixFlags.Options()
	opts.Log = *f.Log
	opts.Percentile = *f.Percentile
	return opts
}

// LayoutFlag registers --layout.
func (app *App) LayoutFlag() *string {
	return app.Flag("layout", "Arrange two samples side by side (horizontal) or stacked (vertical).").
		Default(string(signal.Vertical)).Enum(string(signal.Horizontal), string(signal.Vertical))
}

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

// Package plots assembles the figures drawn by the hicplot tools: contact
// heatmaps, their case/control difference and stacks of genomic tracks.
package plots

import (
	"context"

	"github.com/apex/log"
	"github.com/googlegenomics/hicplot/internal/annot"
	"github.com/googlegenomics/hicplot/internal/config"
	"github.com/googlegenomics/hicplot/internal/contact"
	"github.com/googlegenomics/hicplot/internal/genomics"
	"github.com/googlegenomics/hicplot/internal/signal"
	"github.com/googlegenomics/hicplot/internal/source"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// MatrixOptions controls how contact matrices are fetched and scaled.
type MatrixOptions struct {
	// Resolution is the bin size in base pairs.  Zero selects
	// contact.DefaultResolution.
	Resolution int32
	// Norm is the balancing to apply.  Empty selects
	// contact.DefaultNormalization.
	Norm contact.Normalization
	// Log colors by log10(value + 1).
	Log bool
	// VMin and VMax fix the color scale.  Nil bounds follow the data.
	VMin, VMax *float64
	// Percentile clips unset bounds to this percentile when positive.
	Percentile float64
}

// Contacts is a matrix fetched from a contact file.
type Contacts struct {
	Path       string
	Matrix     *mat.Dense
	Region     genomics.Region
	Resolution int32
	Norm       contact.Normalization
}

// LoadContacts fetches the contacts of path over region.  An open-ended
// region is resolved against the chromosome length recorded in the file.
func LoadContacts(ctx context.Context, opener *source.Opener, path string, region genomics.Region, opts MatrixOptions) (*Contacts, error) {
	m, err := contact.Open(ctx, opener, path)
	if err != nil {
		return nil, err
	}
	defer m.Close()

	info := m.Info()
	length, err := info.ChromosomeLength(region.Chrom)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	region = region.Resolve(length)
	if err := region.Validate(); err != nil {
		return nil, err
	}

	resolution := opts.Resolution
	if resolution == 0 {
		if resolution, err = contact.DefaultResolution(info, region.Width()); err != nil {
			return nil, errors.Wrap(err, path)
		}
	}
	norm := opts.Norm
	if norm == "" {
		norm = contact.DefaultNormalization(info)
	}

	log.WithFields(log.Fields{
		"file":       path,
		"region":     region.String(),
		"resolution": resolution,
		"norm":       norm,
	}).Debug("fetching contacts")
	matrix, err := m.Fetch(ctx, region, resolution, norm)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching %s from %s", region, path)
	}
	return &Contacts{Path: path, Matrix: matrix, Region: region, Resolution: resolution, Norm: norm}, nil
}

// sampleTracks holds the loaded annotation tracks of one sample.
type sampleTracks struct {
	signals       []*signal.Track
	signalConfigs config.Tracks
	beds          [][]annot.Interval
	bedConfigs    config.Tracks
}

// annotations holds every track drawn below or beside the heatmaps.
type annotations struct {
	samples    []sampleTracks
	genes      []annot.Gene
	geneRows   int
	geneConfig *config.Track
}

// loadAnnotations reads the tracks of the given number of samples over
// region.  Tracks must be validated.
func loadAnnotations(ctx context.Context, opener *source.Opener, tracks config.Tracks, region genomics.Region, samples int) (*annotations, error) {
	if region.End == 0 {
		return nil, errors.Wrapf(genomics.ErrInvalidRegion, "%s: tracks need an end position", region)
	}
	a := &annotations{samples: make([]sampleTracks, samples)}
	for i := range a.samples {
		s := &a.samples[i]
		s.signalConfigs = tracks.Select(config.Signal, i+1)
		for _, cfg := range s.signalConfigs {
			track, err := signal.Read(ctx, opener, cfg.File, region)
			if err != nil {
				return nil, err
			}
			s.signals = append(s.signals, track)
		}
		s.bedConfigs = tracks.Select(config.BED, i+1)
		for _, cfg := range s.bedConfigs {
			intervals, err := readBED(ctx, opener, cfg.File, region)
			if err != nil {
				return nil, err
			}
			s.beds = append(s.beds, intervals)
		}
	}

	if genes := tracks.Select(config.Genes, 0); len(genes) > 0 {
		a.geneConfig = &genes[0]
		features, err := readGTF(ctx, opener, a.geneConfig.File, region)
		if err != nil {
			return nil, err
		}
		a.genes = annot.Genes(features)
		a.geneRows = annot.PackRows(a.genes)
	}
	return a, nil
}

func readBED(ctx context.Context, opener *source.Opener, path string, region genomics.Region) ([]annot.Interval, error) {
	r, err := opener.OpenReader(ctx, path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	intervals, err := annot.ReadBED(r, region)
	return intervals, errors.Wrapf(err, "reading %s", path)
}

func readGTF(ctx context.Context, opener *source.Opener, path string, region genomics.Region) ([]annot.Feature, error) {
	r, err := opener.OpenReader(ctx, path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	features, err := annot.ReadGTF(r, region)
	return features, errors.Wrapf(err, "reading %s", path)
}

// signalRanges returns the shared y range of every signal slot.
func (a *annotations) signalRanges(layout signal.Layout) ([]signal.Range, error) {
	var sample1, sample2 []*signal.Track
	if len(a.samples) > 0 {
		sample1 = a.samples[0].signals
	}
	if len(a.samples) > 1 {
		sample2 = a.samples[1].signals
	}
	return signal.MinMax(sample1, sample2, layout)
}

// rangeOffset returns the index of the first slot of sample i in the ranges
// returned by signalRanges.
func (a *annotations) rangeOffset(i int, layout signal.Layout) int {
	if layout == signal.Horizontal || i == 0 {
		return 0
	}
	return len(a.samples[0].signals)
}

func (a *annotations) maxSignals() int {
	n := 0
	for _, s := range a.samples {
		n = max(n, len(s.signals))
	}
	return n
}

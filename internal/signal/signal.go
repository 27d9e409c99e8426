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

// Package signal loads coverage-like tracks (bigWig and bedGraph) for a
// genomic region.
package signal

import (
	"context"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/googlegenomics/hicplot/internal/annot"
	"github.com/googlegenomics/hicplot/internal/bigwig"
	"github.com/googlegenomics/hicplot/internal/genomics"
	"github.com/googlegenomics/hicplot/internal/source"
	"github.com/pkg/errors"
)

// ErrUnsupportedFormat is returned by Read for files that are neither bigWig
// nor bedGraph.
var ErrUnsupportedFormat = errors.New("unsupported track format")

// Track is the signal of one file over a region.
type Track struct {
	Path      string
	Region    genomics.Region
	Positions []float64
	Values    []float64
}

// Empty reports whether the track has no finite value in its region.
func (t *Track) Empty() bool {
	_, ok := t.Range()
	return !ok
}

// Range returns the finite extremes of the track.  The second result is false
// if there are none.
func (t *Track) Range() (Range, bool) {
	r := Range{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, v := range t.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		r.Min = math.Min(r.Min, v)
		r.Max = math.Max(r.Max, v)
		r.Valid = true
	}
	return r, r.Valid
}

// Format returns the track format implied by the extension of path, ignoring
// a trailing ".gz".
func Format(path string) string {
	ext := strings.ToLower(filepath.Ext(strings.TrimSuffix(path, ".gz")))
	switch ext {
	case ".bw", ".bigwig":
		return "bigwig"
	case ".bedgraph", ".bg":
		return "bedgraph"
	}
	return ""
}

// Read loads the signal of path over region.
func Read(ctx context.Context, opener *source.Opener, path string, region genomics.Region) (*Track, error) {
	switch Format(path) {
	case "bigwig":
		return readBigWig(ctx, opener, path, region)
	case "bedgraph":
		return readBedGraph(ctx, opener, path, region)
	}
	return nil, errors.Wrapf(ErrUnsupportedFormat, "%s: supported formats are bigWig (.bw) and bedGraph (.bedgraph, .bg)", path)
}

func readBigWig(ctx context.Context, opener *source.Opener, path string, region genomics.Region) (*Track, error) {
	f, err := opener.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	bw, err := bigwig.Open(f, f.Size())
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	values, err := bw.Values(region.Chrom, region.Start, region.End)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	start := float64(region.Start)
	end := start + float64(len(values))
	return &Track{Path: path, Region: region, Positions: linspace(start, end, len(values)), Values: values}, nil
}

// linspace returns n evenly spaced values from start to end inclusive.
func linspace(start, end float64, n int) []float64 {
	positions := make([]float64, n)
	if n == 1 {
		positions[0] = start
		return positions
	}
	step := (end - start) / float64(n-1)
	for i := range positions {
		positions[i] = start + float64(i)*step
	}
	return positions
}

func readBedGraph(ctx context.Context, opener *source.Opener, path string, region genomics.Region) (*Track, error) {
	r, err := opener.OpenReader(ctx, path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	intervals, err := annot.ReadBedGraph(r, region)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	positions, values := steps(intervals)
	return &Track{Path: path, Region: region, Positions: positions, Values: values}, nil
}

// steps returns the sorted distinct interval boundaries and, for each, the
// value of the last interval that contains it (boundaries included).
// Boundaries outside every interval are zero.
func steps(intervals []annot.Interval) ([]float64, []float64) {
	if len(intervals) == 0 {
		return nil, nil
	}
	seen := make(map[uint32]bool)
	var bounds []uint32
	for _, iv := range intervals {
		for _, p := range []uint32{iv.Start, iv.End} {
			if !seen[p] {
				seen[p] = true
				bounds = append(bounds, p)
			}
		}
	}
	sort.Slice(bounds, func(i, j int) bool { return bounds[i] < bounds[j] })

	positions := make([]float64, len(bounds))
	values := make([]float64, len(bounds))
	for i, p := range bounds {
		positions[i] = float64(p)
	}
	for _, iv := range intervals {
		lo := sort.Search(len(bounds), func(i int) bool { return bounds[i] >= iv.Start })
		for i := lo; i < len(bounds) && bounds[i] <= iv.End; i++ {
			values[i] = iv.Value
		}
	}
	return positions, values
}

// Layout arranges the panels of two samples.
type Layout string

// Supported layouts.
const (
	Horizontal Layout = "horizontal"
	Vertical   Layout = "vertical"
)

// ParseLayout validates a layout name.
func ParseLayout(input string) (Layout, error) {
	switch layout := Layout(strings.ToLower(input)); layout {
	case Horizontal, Vertical:
		return layout, nil
	}
	return "", errors.Errorf("invalid layout %q; use 'horizontal' or 'vertical'", input)
}

// Range is a y axis range shared by a group of tracks.
type Range struct {
	Min, Max float64
	Valid    bool
}

// Merge widens r to cover o.
func (r Range) Merge(o Range) Range {
	switch {
	case !o.Valid:
		return r
	case !r.Valid:
		return o
	}
	return Range{Min: math.Min(r.Min, o.Min), Max: math.Max(r.Max, o.Max), Valid: true}
}

// MinMax returns the shared y range of every track slot.  With the horizontal
// layout slot i holds sample1[i] and sample2[i]; with the vertical layout
// slots run through sample1 and then sample2.  Slots without data are not
// Valid.
func MinMax(sample1, sample2 []*Track, layout Layout) ([]Range, error) {
	var slots [][]*Track
	switch layout {
	case Horizontal:
		n := len(sample1)
		if len(sample2) > n {
			n = len(sample2)
		}
		slots = make([][]*Track, n)
		for i := range slots {
			if i < len(sample1) {
				slots[i] = append(slots[i], sample1[i])
			}
			if i < len(sample2) {
				slots[i] = append(slots[i], sample2[i])
			}
		}
	case Vertical:
		for _, t := range sample1 {
			slots = append(slots, []*Track{t})
		}
		for _, t := range sample2 {
			slots = append(slots, []*Track{t})
		}
	default:
		return nil, errors.Errorf("invalid layout %q; use 'horizontal' or 'vertical'", layout)
	}

	ranges := make([]Range, len(slots))
	for i, tracks := range slots {
		for _, t := range tracks {
			if t == nil {
				continue
			}
			r, _ := t.Range()
			ranges[i] = ranges[i].Merge(r)
		}
	}
	return ranges, nil
}

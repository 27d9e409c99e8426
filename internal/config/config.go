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

// Package config describes the tracks drawn below a heatmap, whether they
// come from command line flags or from a YAML layout file.
package config

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Kind is the type of a track.
type Kind string

// Supported track kinds.
const (
	Signal Kind = "signal"
	BED    Kind = "bed"
	Genes  Kind = "genes"
)

// Track is one annotation file to draw.
type Track struct {
	Kind   Kind   `yaml:"type"`
	File   string `yaml:"file"`
	Label  string `yaml:"label,omitempty"`
	Color  string `yaml:"color,omitempty"`
	Sample int    `yaml:"sample,omitempty"`
}

// Layout is the contents of a layout file.
type Layout struct {
	Tracks Tracks `yaml:"tracks"`
}

// DefaultColors are assigned in turn to tracks without a color.
var DefaultColors = []string{"blue", "red", "green", "orange", "purple", "brown", "magenta", "gray", "olive", "cyan"}

// Load decodes a layout from r.  Unknown keys are an error.
func Load(r io.Reader) (*Layout, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var layout Layout
	if err := yaml.UnmarshalStrict(data, &layout); err != nil {
		return nil, errors.Wrap(err, "decoding layout")
	}
	return &layout, nil
}

// LoadFile reads the layout stored at path.
func LoadFile(path string) (*Layout, error) {
	f, err := os.Open(os.ExpandEnv(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	layout, err := Load(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return layout, nil
}

// Tracks is an ordered list of tracks.
type Tracks []Track

// Validate checks every track and fills in defaults: sample 1, the base name
// of the file as label and the next unused default color of the same kind
// and sample.  At most one gene track is allowed.
func (ts Tracks) Validate() error {
	type group struct {
		kind   Kind
		sample int
	}
	used := make(map[group]int)
	genes := 0
	for i := range ts {
		t := &ts[i]
		switch t.Kind {
		case Signal, BED:
		case Genes:
			genes++
			if genes > 1 {
				return errors.Errorf("track %d: only one gene track is supported", i+1)
			}
		default:
			return errors.Errorf("track %d: unknown type %q; use %q, %q or %q", i+1, t.Kind, Signal, BED, Genes)
		}
		if t.File == "" {
			return errors.Errorf("track %d: missing file", i+1)
		}
		switch t.Sample {
		case 0:
			t.Sample = 1
		case 1, 2:
		default:
			return errors.Errorf("track %d: sample must be 1 or 2, not %d", i+1, t.Sample)
		}
		if t.Label == "" {
			t.Label = DefaultLabel(t.File)
		}
		if t.Color == "" {
			g := group{t.Kind, t.Sample}
			t.Color = DefaultColors[used[g]%len(DefaultColors)]
			used[g]++
		}
	}
	return nil
}

// Select returns the tracks of the given kind and sample, in order.
func (ts Tracks) Select(kind Kind, sample int) Tracks {
	var selected Tracks
	for _, t := range ts {
		if t.Kind == kind && (t.Sample == sample || kind == Genes) {
			selected = append(selected, t)
		}
	}
	return selected
}

// Files returns the file of every track.
func (ts Tracks) Files() []string {
	files := make([]string, len(ts))
	for i, t := range ts {
		files[i] = t.File
	}
	return files
}

// GeneFile returns the file of the gene track, or "" if there is none.
func (ts Tracks) GeneFile() string {
	if genes := ts.Select(Genes, 0); len(genes) > 0 {
		return genes[0].File
	}
	return ""
}

// DefaultLabel derives a track label from a file name by dropping its
// directory and extension.
func DefaultLabel(path string) string {
	base := filepath.Base(strings.TrimSuffix(path, ".gz"))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// FromFlags builds the tracks of one sample from parallel flag lists.  Labels
// and colors may be shorter than files; missing entries are defaulted by
// Validate.
func FromFlags(kind Kind, sample int, files, labels, colors []string) (Tracks, error) {
	if len(labels) > len(files) {
		return nil, errors.Errorf("%d labels given for %d %s files of sample %d", len(labels), len(files), kind, sample)
	}
	if len(colors) > len(files) {
		return nil, errors.Errorf("%d colors given for %d %s files of sample %d", len(colors), len(files), kind, sample)
	}
	tracks := make(Tracks, len(files))
	for i, file := range files {
		tracks[i] = Track{Kind: kind, File: file, Sample: sample}
		if i < len(labels) {
			tracks[i].Label = labels[i]
		}
		if i < len(colors) {
			tracks[i].Color = colors[i]
		}
	}
	return tracks, nil
}

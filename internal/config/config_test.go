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

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testLayout = `
tracks:
  - type: signal
    file: data/H3K27ac.bw
  - type: signal
    file: data/input.bedgraph.gz
    label: Input
    sample: 2
  - type: signal
    file: data/ctcf.bw
    color: "#00ff00"
  - type: bed
    file: peaks.bed
  - type: genes
    file: genes.gtf
`

func TestLoad(t *testing.T) {
	layout, err := Load(strings.NewReader(testLayout))
	require.NoError(t, err)
	require.NoError(t, layout.Tracks.Validate())

	want := Tracks{
		{Kind: Signal, File: "data/H3K27ac.bw", Label: "H3K27ac", Color: "blue", Sample: 1},
		{Kind: Signal, File: "data/input.bedgraph.gz", Label: "Input", Color: "blue", Sample: 2},
		{Kind: Signal, File: "data/ctcf.bw", Label: "ctcf", Color: "#00ff00", Sample: 1},
		{Kind: BED, File: "peaks.bed", Label: "peaks", Color: "blue", Sample: 1},
		{Kind: Genes, File: "genes.gtf", Label: "genes", Color: "blue", Sample: 1},
	}
	if diff := cmp.Diff(want, layout.Tracks); diff != "" {
		t.Fatalf("Tracks mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, []string{"data/H3K27ac.bw", "data/ctcf.bw"}, layout.Tracks.Select(Signal, 1).Files())
	assert.Equal(t, []string{"data/input.bedgraph.gz"}, layout.Tracks.Select(Signal, 2).Files())
	assert.Empty(t, layout.Tracks.Select(BED, 2))
	assert.Equal(t, "genes.gtf", layout.Tracks.GeneFile())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testLayout), 0644))
	layout, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, layout.Tracks, 5)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, os.IsNotExist(err))

	_, err = Load(strings.NewReader("tracks:\n  - type: bed\n    path: x.bed\n"))
	assert.Error(t, err, "unknown keys must be rejected")
}

func TestValidate_Errors(t *testing.T) {
	testCases := []struct {
		name   string
		tracks Tracks
	}{
		{"unknown type", Tracks{{Kind: "wiggle", File: "a.wig"}}},
		{"missing file", Tracks{{Kind: BED}}},
		{"bad sample", Tracks{{Kind: BED, File: "a.bed", Sample: 3}}},
		{"two gene tracks", Tracks{{Kind: Genes, File: "a.gtf"}, {Kind: Genes, File: "b.gtf"}}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, tc.tracks.Validate())
		})
	}
}

func TestDefaultColorsCycle(t *testing.T) {
	tracks := make(Tracks, len(DefaultColors)+1)
	for i := range tracks {
		tracks[i] = Track{Kind: Signal, File: "x.bw"}
	}
	require.NoError(t, tracks.Validate())
	assert.Equal(t, DefaultColors[1], tracks[1].Color)
	assert.Equal(t, DefaultColors[0], tracks[len(DefaultColors)].Color)
}

func TestFromFlags(t *testing.T) {
	tracks, err := FromFlags(BED, 2, []string{"a.bed", "b.bed"}, []string{"A"}, nil)
	require.NoError(t, err)
	assert.Equal(t, Tracks{
		{Kind: BED, File: "a.bed", Label: "A", Sample: 2},
		{Kind: BED, File: "b.bed", Sample: 2},
	}, tracks)

	_, err = FromFlags(Signal, 1, []string{"a.bw"}, []string{"A", "B"}, nil)
	assert.Error(t, err)
	_, err = FromFlags(Signal, 1, nil, nil, []string{"red"})
	assert.Error(t, err)
}

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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/googlegenomics/hicplot/internal/config"
	"github.com/googlegenomics/hicplot/internal/contact"
	"github.com/googlegenomics/hicplot/internal/genomics"
	"github.com/googlegenomics/hicplot/internal/plots"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp() *App {
	app := New("test", "test application")
	app.Terminate(nil)
	app.ErrorWriter(&bytes.Buffer{})
	app.UsageWriter(&bytes.Buffer{})
	return app
}

func TestRegionFlags(t *testing.T) {
	app := newTestApp()
	region := app.RegionFlags()

	ran := false
	err := app.Run([]string{"--chrid", "chr2", "--start", "100", "--end", "900"}, func(ctx context.Context) error {
		ran = true
		got, err := region.Region()
		require.NoError(t, err)
		assert.Equal(t, genomics.Region{Chrom: "chr2", Start: 100, End: 900}, got)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)

	app = newTestApp()
	app.RegionFlags()
	assert.Error(t, app.Run([]string{"--start", "1"}, func(context.Context) error { return nil }), "--chrid is required")

	app = newTestApp()
	region = app.RegionFlags()
	require.NoError(t, app.Run([]string{"--chrid", "chr1", "--start", "10", "--end", "5"}, func(context.Context) error { return nil }))
	_, err = region.Region()
	assert.Error(t, err)
}

func TestTrackFlags(t *testing.T) {
	layout := filepath.Join(t.TempDir(), "layout.yaml")
	require.NoError(t, os.WriteFile(layout, []byte("tracks:\n  - type: bed\n    file: extra.bed\n    sample: 2\n"), 0644))

	app := newTestApp()
	flags := app.TrackFlags(2)
	args := []string{
		"--bigwig_files_sample1", "a.bw,b.bw",
		"--bigwig_labels_sample1", "A",
		"--colors_sample1", "#112233",
		"--bigwig_files_sample2", "c.bw",
		"--bed_files_sample1", "peaks.bed",
		"--bed_files_sample1", "more.bed",
		"--gtf_file", "genes.gtf",
		"--layout_file", layout,
	}
	require.NoError(t, app.Run(args, func(context.Context) error { return nil }))

	tracks, err := flags.Tracks()
	require.NoError(t, err)
	assert.Equal(t, config.Tracks{
		{Kind: config.Signal, File: "a.bw", Label: "A", Color: "#112233", Sample: 1},
		{Kind: config.Signal, File: "b.bw", Label: "b", Color: "blue", Sample: 1},
		{Kind: config.BED, File: "peaks.bed", Label: "peaks", Color: "blue", Sample: 1},
		{Kind: config.BED, File: "more.bed", Label: "more", Color: "red", Sample: 1},
		{Kind: config.Signal, File: "c.bw", Label: "c", Color: "blue", Sample: 2},
		{Kind: config.Genes, File: "genes.gtf", Label: "genes", Color: "blue", Sample: 1},
		{Kind: config.BED, File: "extra.bed", Label: "extra", Color: "blue", Sample: 2},
	}, tracks)
}

func TestTrackFlags_Errors(t *testing.T) {
	testCases := []struct {
		name string
		args []string
	}{
		{"too many labels", []string{"--bigwig_files_sample1", "a.bw", "--bigwig_labels_sample1", "A,B"}},
		{"bad color", []string{"--bed_files_sample1", "a.bed", "--colors_bed_sample1", "not-a-color"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp()
			flags := app.TrackFlags(1)
			require.NoError(t, app.Run(tc.args, func(context.Context) error { return nil }))
			_, err := flags.Tracks()
			assert.Error(t, err)
		})
	}

	layout := filepath.Join(t.TempDir(), "layout.yaml")
	require.NoError(t, os.WriteFile(layout, []byte("tracks:\n  - type: bed\n    file: x.bed\n    sample: 2\n"), 0644))
	app := newTestApp()
	flags := app.TrackFlags(1)
	require.NoError(t, app.Run([]string{"--layout_file", layout}, func(context.Context) error { return nil }))
	_, err := flags.Tracks()
	assert.Error(t, err, "sample 2 is not drawn by a single sample tool")
}

func TestHeatmapFlags(t *testing.T) {
	app := newTestApp()
	flags := app.HeatmapFlags()
	require.NoError(t, app.Run([]string{"--vmax", "0", "--norm", "vc"}, func(context.Context) error { return nil }))

	vmin, vmax := flags.Bounds()
	assert.Nil(t, vmin)
	require.NotNil(t, vmax)
	assert.Equal(t, 0.0, *vmax)
	assert.Equal(t, "autumn_r", *flags.Cmap)
	assert.Equal(t, int32(0), *flags.Resolution)
	opts := flags.Options()
	assert.Equal(t, contact.Normalization("VC"), opts.Norm)
	assert.Nil(t, opts.VMin)
	assert.Equal(t, 0.0, *opts.VMax)

	app = newTestApp()
	flags = app.HeatmapFlags()
	require.NoError(t, app.Run([]string{"--resolution", "5000", "--log"}, func(context.Context) error { return nil }))
	assert.Equal(t, plots.MatrixOptions{Resolution: 5000, Log: true}, flags.Options())
}

func TestLayoutFlag(t *testing.T) {
	app := newTestApp()
	layout := app.LayoutFlag()
	require.NoError(t, app.Run(nil, func(context.Context) error { return nil }))
	assert.Equal(t, "vertical", *layout)

	app = newTestApp()
	app.LayoutFlag()
	assert.Error(t, app.Run([]string{"--layout", "diagonal"}, func(context.Context) error { return nil }))
}

func TestOpener(t *testing.T) {
	app := newTestApp()
	require.NoError(t, app.Run(nil, func(ctx context.Context) error {
		opener, err := app.Opener(ctx, "local.hic", "/tmp/x.bw")
		require.NoError(t, err)
		assert.NotNil(t, opener)
		return nil
	}))
}

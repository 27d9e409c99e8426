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

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/googlegenomics/hicplot/internal/bigwig/bigwigtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	dir := t.TempDir()
	bw := filepath.Join(dir, "signal.bw")
	require.NoError(t, os.WriteFile(bw, bigwigtest.Encode(bigwigtest.File{
		Chromosomes: []bigwigtest.Chromosome{{Name: "chr1", Length: 1000}},
		Sections: []bigwigtest.Section{{
			Type: bigwigtest.FixedStep, Start: 100, End: 400, Step: 100, Span: 100,
			Items: []bigwigtest.Item{{Value: 1}, {Value: 4}, {Value: 2}},
		}},
		Compress: true,
	}), 0644))
	gtf := filepath.Join(dir, "genes.gtf")
	require.NoError(t, os.WriteFile(gtf, []byte(
		"chr1\ttest\texon\t101\t200\t.\t-\t.\tgene_id \"g1\"; gene_name \"ALPHA\"; transcript_id \"t1\";\n"+
			"chr1\ttest\texon\t151\t300\t.\t+\t.\tgene_id \"g2\"; gene_name \"BETA\"; transcript_id \"t2\";\n"), 0644))
	output := filepath.Join(dir, "tracks.png")

	_, err := app.Parse([]string{
		"--chrid", "chr1",
		"--start", "0",
		"--end", "500",
		"--bigwig_files_sample1", bw,
		"--bigwig_labels_sample1", "Signal",
		"--colors_sample1", "#ff8800",
		"--bigwig_files_sample2", bw,
		"--gtf_file", gtf,
		"--layout", "horizontal",
		"--output_file", output,
	})
	require.NoError(t, err)
	require.NoError(t, run(context.Background()))

	stat, err := os.Stat(output)
	require.NoError(t, err)
	assert.NotZero(t, stat.Size())
}

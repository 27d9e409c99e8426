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

	"github.com/googlegenomics/hicplot/internal/hic/hictest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeHiC(t *testing.T, path string, scale float32) {
	require.NoError(t, os.WriteFile(path, hictest.Encode(hictest.File{
		Version:     9,
		Chromosomes: []hictest.Chromosome{{Name: "All", Length: 1}, {Name: "chr1", Length: 400}},
		Resolution:  100,
		Chromosome:  1,
		Contacts:    map[[2]int32]float32{{0, 0}: 10 * scale, {0, 1}: 4, {1, 1}: 8 * scale, {3, 3}: 6},
	}), 0644))
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	caseHiC, controlHiC := filepath.Join(dir, "case.hic"), filepath.Join(dir, "control.hic")
	writeHiC(t, caseHiC, 2)
	writeHiC(t, controlHiC, 1)
	bedGraph := filepath.Join(dir, "coverage.bedgraph")
	require.NoError(t, os.WriteFile(bedGraph, []byte("chr1\t0\t200\t1.5\nchr1\t200\t400\t0.5\n"), 0644))
	output := filepath.Join(dir, "diff.pdf")

	_, err := app.Parse([]string{
		"--cooler_file1", caseHiC,
		"--cooler_file2", controlHiC,
		"--chrid", "chr1",
		"--start", "0",
		"--end", "400",
		"--operation", "divide",
		"--division_method", "log2_add1",
		"--bigwig_files_sample1", bedGraph,
		"--bigwig_files_sample2", bedGraph,
		"--output_file", output,
	})
	require.NoError(t, err)
	require.NoError(t, run(context.Background()))

	stat, err := os.Stat(output)
	require.NoError(t, err)
	assert.NotZero(t, stat.Size())
}

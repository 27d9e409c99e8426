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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/googlegenomics/hicplot/internal/contact"
	"github.com/googlegenomics/hicplot/internal/hic/hictest"
	"github.com/googlegenomics/hicplot/internal/source"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func TestDescribe(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.hic")
	require.NoError(t, os.WriteFile(path, hictest.Encode(hictest.File{
		Version:     8,
		Chromosomes: []hictest.Chromosome{{Name: "All", Length: 1}, {Name: "chr1", Length: 400}},
		Resolution:  100,
		Chromosome:  1,
		Contacts:    map[[2]int32]float32{{0, 0}: 1},
		Norms:       map[string][]float64{"KR": {1, 1, 1, 1}},
	}), 0644))

	var out bytes.Buffer
	require.NoError(t, describe(context.Background(), &source.Opener{}, []string{path}, &out))

	var got summary
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))
	want := summary{
		File:           path,
		Format:         "hic",
		Genome:         "hg19",
		Chromosomes:    []chromosome{{"All", 1}, {"chr1", 400}},
		Resolutions:    []int32{100},
		Normalizations: []contact.Normalization{contact.None, "KR"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}

	require.Error(t, describe(context.Background(), &source.Opener{}, []string{filepath.Join(dir, "missing.hic")}, &out))
}

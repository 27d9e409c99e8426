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

package bigwig

import (
	"bytes"
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/googlegenomics/hicplot/internal/bigwig/bigwigtest"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func testFile(compress, bigEndian bool) bigwigtest.File {
	return bigwigtest.File{
		Chromosomes: []bigwigtest.Chromosome{{Name: "chr1", Length: 100}, {Name: "chr2", Length: 50}},
		Sections: []bigwigtest.Section{
			{Chrom: 0, Type: bigwigtest.BedGraph, Start: 10, End: 20, Items: []bigwigtest.Item{
				{Start: 10, End: 12, Value: 1}, {Start: 15, End: 20, Value: 2},
			}},
			{Chrom: 0, Type: bigwigtest.VarStep, Start: 30, End: 36, Span: 2, Items: []bigwigtest.Item{
				{Start: 30, Value: 3}, {Start: 34, Value: 4},
			}},
			{Chrom: 0, Type: bigwigtest.FixedStep, Start: 40, End: 46, Step: 3, Span: 1, Items: []bigwigtest.Item{
				{Value: 5}, {Value: 6},
			}},
			{Chrom: 1, Type: bigwigtest.BedGraph, Start: 0, End: 5, Items: []bigwigtest.Item{
				{Start: 0, End: 5, Value: 7},
			}},
		},
		Compress:  compress,
		BigEndian: bigEndian,
	}
}

func nans(n int) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = math.NaN()
	}
	return values
}

func TestValues(t *testing.T) {
	nan := math.NaN()
	testCases := []struct {
		chrom      string
		start, end uint32
		want       []float64
	}{
		{"chr1", 9, 17, []float64{nan, 1, 1, nan, nan, nan, 2, 2}},
		{"chr1", 29, 37, []float64{nan, 3, 3, nan, nan, 4, 4, nan}},
		{"chr1", 40, 46, []float64{5, nan, nan, 6, nan, nan}},
		{"chr1", 60, 64, []float64{nan, nan, nan, nan}},
		{"2", 3, 0, append([]float64{7, 7}, nans(45)...)},
	}

	for _, compress := range []bool{false, true} {
		for _, bigEndian := range []bool{false, true} {
			data := bigwigtest.Encode(testFile(compress, bigEndian))
			bw, err := Open(bytes.NewReader(data), int64(len(data)))
			require.NoError(t, err)

			for _, tc := range testCases {
				name := fmt.Sprintf("compress=%v,bigEndian=%v,%s:%d-%d", compress, bigEndian, tc.chrom, tc.start, tc.end)
				t.Run(name, func(t *testing.T) {
					got, err := bw.Values(tc.chrom, tc.start, tc.end)
					require.NoError(t, err)
					if diff := cmp.Diff(tc.want, got, cmpopts.EquateNaNs()); diff != "" {
						t.Fatalf("Values() mismatch (-want +got):\n%s", diff)
					}
				})
			}
		}
	}
}

func TestChromosomesAndSummary(t *testing.T) {
	data := bigwigtest.Encode(testFile(true, false))
	bw, err := Open(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	want := []Chromosome{{0, "chr1", 100}, {1, "chr2", 50}}
	require.Equal(t, want, bw.Chromosomes())

	summary := bw.Summary()
	require.Equal(t, 1.0, summary.Min)
	require.Equal(t, 7.0, summary.Max)
}

func TestErrors(t *testing.T) {
	data := bigwigtest.Encode(testFile(false, false))
	bw, err := Open(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	_, err = bw.Values("chrX", 0, 10)
	require.Equal(t, ErrUnknownChromosome, errors.Cause(err))

	_, err = bw.Values("chr1", 120, 130)
	require.Error(t, err)

	_, err = Open(bytes.NewReader([]byte("not a bigwig file")), 17)
	require.Error(t, err)
}

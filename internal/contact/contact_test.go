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

package contact

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/googlegenomics/hicplot/internal/genomics"
	"github.com/googlegenomics/hicplot/internal/hic"
	"github.com/googlegenomics/hicplot/internal/hic/hictest"
	"github.com/googlegenomics/hicplot/internal/source"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func writeHiC(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "sample.hic")
	data := hictest.Encode(hictest.File{
		Version:     8,
		Chromosomes: []hictest.Chromosome{{Name: "All", Length: 1}, {Name: "chr1", Length: 400}},
		Resolution:  100,
		Chromosome:  1,
		Contacts:    map[[2]int32]float32{{0, 0}: 1, {1, 2}: 4},
		Norms:       map[string][]float64{"VC": {1, 2, 2, 1}},
	})
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestOpenHiC(t *testing.T) {
	ctx := context.Background()
	m, err := Open(ctx, &source.Opener{}, writeHiC(t))
	require.NoError(t, err)
	defer m.Close()

	got, err := m.Fetch(ctx, genomics.Region{Chrom: "chr1", Start: 0, End: 300}, 100, "VC")
	require.NoError(t, err)
	want := []float64{1, 0, 0, 0, 0, 1, 0, 1, 0}
	require.Equal(t, want, got.RawMatrix().Data)

	info := m.Info()
	require.Equal(t, "hic", info.Format)
	require.Equal(t, []string{"All", "chr1"}, info.Chromosomes)
	require.Equal(t, []int32{100}, info.Resolutions)
	require.Equal(t, []Normalization{None, "VC"}, info.Normalizations)
}

func TestOpenHiCPro(t *testing.T) {
	dir := t.TempDir()
	matrix := filepath.Join(dir, "s.matrix")
	require.NoError(t, os.WriteFile(matrix, []byte("1 2 5\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "s_abs.bed"), []byte("chr1 0 10 1\nchr1 10 20 2\n"), 0644))

	ctx := context.Background()
	m, err := Open(ctx, &source.Opener{}, matrix)
	require.NoError(t, err)
	defer m.Close()

	got, err := m.Fetch(ctx, genomics.Region{Chrom: "chr1"}, 10, None)
	require.NoError(t, err)
	require.Equal(t, []float64{0, 5, 5, 0}, got.RawMatrix().Data)

	_, err = m.Fetch(ctx, genomics.Region{Chrom: "chr1"}, 20, None)
	require.Error(t, err)
	_, err = m.Fetch(ctx, genomics.Region{Chrom: "chr1"}, 10, "KR")
	require.Error(t, err)
}

func TestOpenUnknownFormat(t *testing.T) {
	for _, path := range []string{"a.cool", "b.mcool", "c.txt"} {
		t.Run(path, func(t *testing.T) {
			_, err := Open(context.Background(), &source.Opener{}, path)
			require.Equal(t, ErrUnknownFormat, errors.Cause(err))
		})
	}
}

func TestDifference(t *testing.T) {
	c := mat.NewDense(2, 2, []float64{4, 0, 2, 3})
	control := mat.NewDense(2, 2, []float64{2, 0, 0, 3})
	nan := math.NaN()

	testCases := []struct {
		op     Operation
		method DivisionMethod
		want   []float64
	}{
		{Subtract, "", []float64{2, 0, 2, 0}},
		{Divide, Raw, []float64{2, 0, 0, 1}},
		{Divide, Log2, []float64{1, nan, nan, 0}},
		{Divide, Add1, []float64{5.0 / 3, 1, 3, 1}},
		{Divide, Log2Add1, []float64{math.Log2(5.0 / 3), 0, math.Log2(3), 0}},
	}

	for _, tc := range testCases {
		t.Run(string(tc.op)+"/"+string(tc.method), func(t *testing.T) {
			got, err := Difference(c, control, tc.op, tc.method)
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, got.RawMatrix().Data, cmpopts.EquateNaNs(), cmpopts.EquateApprox(0, 1e-12)); diff != "" {
				t.Fatalf("Difference() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDifference_Errors(t *testing.T) {
	a := mat.NewDense(2, 2, nil)
	_, err := Difference(a, mat.NewDense(3, 3, nil), Subtract, "")
	require.Error(t, err)
	_, err = Difference(a, a, "multiply", "")
	require.Error(t, err)
	_, err = Difference(a, a, Divide, "log10")
	require.Error(t, err)
}

func TestLimits(t *testing.T) {
	m := mat.NewDense(2, 3, []float64{1, math.NaN(), 3, -4, 10, math.Inf(1)})
	low, high := -2.0, 20.0

	lo, hi, err := Limits(m, nil, nil, 0)
	require.NoError(t, err)
	require.Equal(t, -4.0, lo)
	require.Equal(t, 10.0, hi)

	lo, hi, err = Limits(m, &low, nil, 0)
	require.NoError(t, err)
	require.Equal(t, -2.0, lo)
	require.Equal(t, 10.0, hi)

	lo, hi, err = Limits(m, &low, &high, 0)
	require.NoError(t, err)
	require.Equal(t, -2.0, lo)
	require.Equal(t, 20.0, hi)

	_, _, err = Limits(m, &high, &low, 0)
	require.Error(t, err)

	lo, hi, err = Limits(m, nil, nil, 90)
	require.NoError(t, err)
	require.True(t, lo < hi)
	require.True(t, hi <= 10)

	lo, hi, err = Limits(mat.NewDense(1, 1, []float64{math.NaN()}), nil, nil, 0)
	require.NoError(t, err)
	require.Equal(t, 0.0, lo)
	require.Equal(t, 1.0, hi)

	lo, hi = SymmetricLimits(m)
	require.Equal(t, -10.0, lo)
	require.Equal(t, 10.0, hi)
}

func TestTriangles(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	b := mat.NewDense(2, 2, []float64{5, 6, 7, 8})

	upper := MaskTriangle(a, true)
	require.True(t, math.IsNaN(upper.At(0, 1)))
	require.Equal(t, 3.0, upper.At(1, 0))

	lower := MaskTriangle(a, false)
	require.True(t, math.IsNaN(lower.At(1, 0)))
	require.Equal(t, 2.0, lower.At(0, 1))

	combined, err := Combine(a, b)
	require.NoError(t, err)
	require.Equal(t, []float64{5, 2, 7, 8}, combined.RawMatrix().Data)

	logged := Log(mat.NewDense(1, 3, []float64{9, 0, -5}), 1)
	require.Equal(t, 1.0, logged.At(0, 0))
	require.Equal(t, 0.0, logged.At(0, 1))
	require.True(t, math.IsNaN(logged.At(0, 2)))
}

func TestDefaults(t *testing.T) {
	info := Info{
		Chromosomes:    []string{"chr1", "chr2"},
		Lengths:        []int64{1000000, 500},
		Resolutions:    []int32{25000, 5000, 1000},
		Normalizations: []Normalization{None, "SCALE", "KR"},
	}
	require.Equal(t, Normalization("KR"), DefaultNormalization(info))
	require.Equal(t, None, DefaultNormalization(Info{Normalizations: []Normalization{None, "VC"}}))
	require.Equal(t, ICE, DefaultNormalization(Info{Normalizations: []Normalization{None, ICE}}))

	for _, tc := range []struct {
		width uint32
		want  int32
	}{
		{500000, 1000},
		{1000001, 5000},
		{5000000, 5000},
		{100000000, 25000},
	} {
		got, err := DefaultResolution(info, tc.width)
		require.NoError(t, err)
		require.Equal(t, tc.want, got, "width %d", tc.width)
	}
	_, err := DefaultResolution(Info{}, 100)
	require.Error(t, err)

	length, err := info.ChromosomeLength("chr2")
	require.NoError(t, err)
	require.Equal(t, uint32(500), length)
	_, err = info.ChromosomeLength("chrX")
	require.Equal(t, hic.ErrUnknownChromosome, errors.Cause(err))

	numbered := Info{Chromosomes: []string{"All", "1", "X"}, Lengths: []int64{1, 300, 200}}
	for name, want := range map[string]uint32{"1": 300, "chr1": 300, "CHRX": 200, "x": 200} {
		length, err := numbered.ChromosomeLength(name)
		require.NoError(t, err, name)
		require.Equal(t, want, length, name)
	}
}

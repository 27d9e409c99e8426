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

package hic

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"testing"

	hbinary "github.com/googlegenomics/hicplot/internal/binary"
	"github.com/googlegenomics/hicplot/internal/genomics"
	"github.com/googlegenomics/hicplot/internal/hic/hictest"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

var testContacts = map[[2]int32]float32{
	{0, 0}: 5,
	{0, 1}: 3,
	{2, 5}: 7,
	{9, 9}: 1,
}

func testVector() []float64 {
	v := make([]float64, 10)
	for i := range v {
		v[i] = 2
	}
	v[9] = 0
	return v
}

func openTestFile(t *testing.T, version int32, representation uint8) *File {
	data := hictest.Encode(hictest.File{
		Version:        version,
		Chromosomes:    []hictest.Chromosome{{Name: "All", Length: 2}, {Name: "chr1", Length: 1000}, {Name: "chr2", Length: 500}},
		Resolution:     100,
		Chromosome:     1,
		Contacts:       testContacts,
		Representation: representation,
		Norms:          map[string][]float64{"KR": testVector()},
	})
	f, err := Open(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	return f
}

func TestOpen(t *testing.T) {
	f := openTestFile(t, 8, hictest.ListOfRows)

	require.Equal(t, int32(8), f.Version)
	require.Equal(t, "hg19", f.Genome)
	require.Equal(t, "test", f.Attributes["software"])
	require.Equal(t, []int32{100}, f.Resolutions())
	require.Equal(t, []Normalization{None, KR}, f.Normalizations())

	chr, err := f.Chromosome("1")
	require.NoError(t, err)
	require.Equal(t, Chromosome{Index: 1, Name: "chr1", Length: 1000}, chr)

	_, err = f.Chromosome("chr3")
	require.Equal(t, ErrUnknownChromosome, errors.Cause(err))
}

func TestOpen_Errors(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"wrong magic", []byte("HIX\x00\x08\x00\x00\x00")},
		{"unsupported version", []byte("HIC\x00\x05\x00\x00\x00")},
		{"truncated header", []byte("HIC\x00\x08\x00\x00\x00\x01")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Open(bytes.NewReader(tc.data), int64(len(tc.data))); err == nil {
				t.Fatalf("Open() accepted malformed input")
			}
		})
	}
}

func TestMatrix(t *testing.T) {
	for _, version := range []int32{7, 8, 9} {
		for _, representation := range []uint8{hictest.ListOfRows, hictest.Dense} {
			t.Run(fmt.Sprintf("v%d/type%d", version, representation), func(t *testing.T) {
				f := openTestFile(t, version, representation)

				m, err := f.Matrix(genomics.Region{Chrom: "chr1"}, 100, None)
				require.NoError(t, err)
				rows, cols := m.Dims()
				require.Equal(t, 10, rows)
				require.Equal(t, 10, cols)
				for key, value := range testContacts {
					require.Equal(t, float64(value), m.At(int(key[0]), int(key[1])))
					require.Equal(t, float64(value), m.At(int(key[1]), int(key[0])))
				}
				require.Equal(t, 0.0, m.At(3, 4))

				m, err = f.Matrix(genomics.Region{Chrom: "chr1", Start: 250, End: 600}, 100, None)
				require.NoError(t, err)
				rows, _ = m.Dims()
				require.Equal(t, 4, rows)
				require.Equal(t, 7.0, m.At(0, 3))
			})
		}
	}
}

func TestMatrixVersion6(t *testing.T) {
	f := openTestFile(t, 6, 0)
	m, err := f.Matrix(genomics.Region{Chrom: "chr1", Start: 0, End: 200}, 100, None)
	require.NoError(t, err)
	require.Equal(t, 5.0, m.At(0, 0))
	require.Equal(t, 3.0, m.At(1, 0))
}

func TestMatrixNormalized(t *testing.T) {
	for _, version := range []int32{7, 8, 9} {
		t.Run(fmt.Sprintf("v%d", version), func(t *testing.T) {
			f := openTestFile(t, version, hictest.ListOfRows)
			require.Equal(t, []Normalization{None, KR}, f.Normalizations())

			m, err := f.Matrix(genomics.Region{Chrom: "chr1"}, 100, KR)
			require.NoError(t, err)
			require.Equal(t, 0.75, m.At(0, 1))
			require.Equal(t, 1.25, m.At(0, 0))
			require.Equal(t, 0.0, m.At(3, 4))
			require.True(t, math.IsNaN(m.At(9, 9)))
			require.True(t, math.IsNaN(m.At(0, 9)))
		})
	}
}

func TestDecodeBlockVersion9(t *testing.T) {
	var (
		short = new(bytes.Buffer)
		wide  = new(bytes.Buffer)
	)
	put := func(buf *bytes.Buffer, values ...interface{}) {
		for _, v := range values {
			require.NoError(t, binary.Write(buf, binary.LittleEndian, v))
		}
	}
	// Count, offsets, float counts, 16-bit x and y, list of rows, then a
	// single row y=3 holding x=5.
	put(short, int32(1), int32(0), int32(0), uint8(1), [2]uint8{0, 0}, uint8(listOfRows),
		int16(1), int16(3), int16(1), int16(5), float32(7))
	// The same record with 32-bit positions.
	put(wide, int32(1), int32(0), int32(0), uint8(1), [2]uint8{1, 1}, uint8(listOfRows),
		int32(1), int32(3), int32(1), int32(5), float32(7))

	for name, buf := range map[string]*bytes.Buffer{"short": short, "int": wide} {
		t.Run(name, func(t *testing.T) {
			records, err := decodeBlock(hbinary.NewReader(buf, binary.LittleEndian), 9)
			require.NoError(t, err)
			require.Equal(t, []record{{5, 3, 7}}, records)
		})
	}
}

func TestMatrix_Errors(t *testing.T) {
	f := openTestFile(t, 8, hictest.ListOfRows)

	testCases := []struct {
		name       string
		region     genomics.Region
		resolution int32
		norm       Normalization
		want       error
	}{
		{"unknown chromosome", genomics.Region{Chrom: "chrZ"}, 100, None, ErrUnknownChromosome},
		{"missing resolution", genomics.Region{Chrom: "chr1"}, 50, None, ErrResolutionNotFound},
		{"missing normalization", genomics.Region{Chrom: "chr1"}, 100, VC, ErrNormalizationNotFound},
		{"region past end", genomics.Region{Chrom: "chr1", Start: 2000, End: 3000}, 100, None, genomics.ErrInvalidRegion},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.Matrix(tc.region, tc.resolution, tc.norm)
			require.Equal(t, tc.want, errors.Cause(err))
		})
	}
}

func TestMatrixWithoutContacts(t *testing.T) {
	f := openTestFile(t, 8, hictest.ListOfRows)
	m, err := f.Matrix(genomics.Region{Chrom: "chr2"}, 100, None)
	require.NoError(t, err)
	rows, _ := m.Dims()
	require.Equal(t, 5, rows)
}

func TestParseNormalization(t *testing.T) {
	testCases := []struct {
		input string
		want  Normalization
		ok    bool
	}{
		{"", None, true},
		{"none", None, true},
		{"KR", KR, true},
		{"vc_sqrt", VCSqrt, true},
		{"scale", SCALE, true},
		{"ICE", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseNormalization(tc.input)
			if !tc.ok {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

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

package annot

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/googlegenomics/hicplot/internal/genomics"
	"github.com/stretchr/testify/require"
)

var region = genomics.Region{Chrom: "chr1", Start: 100, End: 200}

func TestReadBED(t *testing.T) {
	input := strings.Join([]string{
		"track name=peaks",
		"# comment",
		"chr1\t50\t120\tpeak1",
		"chr1\t150\t160",
		"chr1\t200\t300\toutside",
		"chr2\t100\t200\twrong_chromosome",
		"chr1\t190\t400\tpeak3\t0\t+",
	}, "\n")

	got, err := ReadBED(strings.NewReader(input), region)
	require.NoError(t, err)
	want := []Interval{
		{Chrom: "chr1", Start: 100, End: 120, Name: "peak1"},
		{Chrom: "chr1", Start: 150, End: 160},
		{Chrom: "chr1", Start: 190, End: 200, Name: "peak3"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ReadBED() mismatch (-want +got):\n%s", diff)
	}
}

func TestReadBED_Errors(t *testing.T) {
	for _, input := range []string{"chr1\t10", "chr1\tx\t20", "chr1\t10\t-1"} {
		t.Run(input, func(t *testing.T) {
			_, err := ReadBED(strings.NewReader(input), region)
			require.Error(t, err)
		})
	}
}

func TestReadBedGraph(t *testing.T) {
	input := "chr1\t0\t100\t1\nchr1\t90\t110\t2.5\nchr1\t110\t250\t-3\n"
	got, err := ReadBedGraph(strings.NewReader(input), region)
	require.NoError(t, err)
	want := []Interval{
		{Chrom: "chr1", Start: 90, End: 110, Value: 2.5},
		{Chrom: "chr1", Start: 110, End: 250, Value: -3},
	}
	require.Equal(t, want, got)

	_, err = ReadBedGraph(strings.NewReader("chr1\t0\t100\n"), region)
	require.Error(t, err)
	_, err = ReadBedGraph(strings.NewReader("chr1\t0\t150\tn/a\n"), region)
	require.Error(t, err)
}

const testGTF = `#!genome-build test
chr1	src	gene	101	180	.	+	.	gene_id "g1"; gene_name "ALPHA";
chr1	src	transcript	101	150	.	+	.	gene_id "g1"; transcript_id "t1"; gene_name "ALPHA";
chr1	src	exon	101	120	.	+	.	gene_id "g1"; transcript_id "t1"; gene_name "ALPHA";
chr1	src	exon	141	150	.	+	.	gene_id "g1"; transcript_id "t1"; gene_name "ALPHA";
chr1	src	transcript	121	190	.	-	.	gene_id "g0"; transcript_id "t2";
chr1	src	exon	121	130	.	-	.	gene_id "g0"; transcript_id "t2";
chr1	src	exon	181	190	.	-	.	gene_id "g0"; transcript_id "t2";
chr1	src	gene	191	260	.	+	.	gene_id "g2"; gene_name "GAMMA";
chr1	src	gene	500	600	.	+	.	gene_id "g3"; gene_name "OUTSIDE";
chr2	src	gene	101	180	.	+	.	gene_id "g4"; gene_name "OTHER";
`

func TestReadGTF(t *testing.T) {
	features, err := ReadGTF(strings.NewReader(testGTF), region)
	require.NoError(t, err)
	require.Len(t, features, 8)
	require.Equal(t, Feature{
		Chrom:    "chr1",
		Type:     "gene",
		Start:    100,
		End:      180,
		Strand:   "+",
		GeneID:   "g1",
		GeneName: "ALPHA",
	}, features[0])
	require.Equal(t, "g0", features[4].GeneName)

	genes := Genes(features)
	want := []Gene{
		{
			ID: "g0", Name: "g0", Chrom: "chr1", Start: 120, End: 190, Strand: "-", TranscriptID: "t2",
			Exons: []Interval{{"chr1", 120, 130, "t2", 0}, {"chr1", 180, 190, "t2", 0}},
		},
		{
			ID: "g1", Name: "ALPHA", Chrom: "chr1", Start: 100, End: 180, Strand: "+",
			Exons: []Interval{{"chr1", 100, 120, "t1", 0}, {"chr1", 140, 150, "t1", 0}},
		},
		{ID: "g2", Name: "GAMMA", Chrom: "chr1", Start: 190, End: 260, Strand: "+"},
	}
	if diff := cmp.Diff(want, genes); diff != "" {
		t.Fatalf("Genes() mismatch (-want +got):\n%s", diff)
	}

	rows := PackRows(genes)
	require.Equal(t, 2, rows)
	require.Equal(t, []int{0, 1, 1}, []int{genes[0].Row, genes[1].Row, genes[2].Row})
}

func TestReadGTF_Errors(t *testing.T) {
	for _, input := range []string{
		"chr1\tsrc\tgene\t1\t10",
		"chr1\tsrc\tgene\t0\t10\t.\t+\t.\tgene_id \"g\";",
		"chr1\tsrc\tgene\t1\tx\t.\t+\t.\tgene_id \"g\";",
	} {
		_, err := ReadGTF(strings.NewReader(input), genomics.Region{Chrom: "chr1"})
		require.Error(t, err)
	}
}

func TestPackRows(t *testing.T) {
	genes := []Gene{
		{ID: "a", Start: 0, End: 100},
		{ID: "b", Start: 50, End: 150},
		{ID: "c", Start: 120, End: 200},
		{ID: "d", Start: 300, End: 400},
		{ID: "e", Start: 10, End: 350},
	}
	require.Equal(t, 4, PackRows(genes))

	for i := range genes {
		for j := i + 1; j < len(genes); j++ {
			overlap := !(genes[i].End < genes[j].Start || genes[i].Start > genes[j].End)
			if overlap {
				require.NotEqual(t, genes[i].Row, genes[j].Row, "%s and %s share a row", genes[i].ID, genes[j].ID)
			}
		}
	}
	require.Equal(t, 0, genes[3].Row)
}

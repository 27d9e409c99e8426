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
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/googlegenomics/hicplot/internal/genomics"
	"github.com/pkg/errors"
)

// Feature is one row of a GTF file.  Coordinates are 0-based and half-open.
type Feature struct {
	Chrom        string
	Type         string
	Start, End   uint32
	Strand       string
	GeneID       string
	GeneName     string
	TranscriptID string
}

// ReadGTF returns the features of r that overlap region.  Rows without a
// gene_id attribute are ignored.
func ReadGTF(r io.Reader, region genomics.Region) ([]Feature, error) {
	var features []Feature
	err := scan(r, func(line int, fields []string) error {
		if len(fields) < 9 {
			return errors.Errorf("line %d: expected 9 fields, found %d", line, len(fields))
		}
		start, err := strconv.ParseUint(fields[3], 10, 32)
		if err != nil || start == 0 {
			return errors.Errorf("line %d: malformed start %q", line, fields[3])
		}
		end, err := strconv.ParseUint(fields[4], 10, 32)
		if err != nil {
			return errors.Errorf("line %d: malformed end %q", line, fields[4])
		}

		f := Feature{
			Chrom:  fields[0],
			Type:   fields[2],
			Start:  uint32(start - 1),
			End:    uint32(end),
			Strand: fields[6],
		}
		if !region.Overlaps(f.Chrom, f.Start, f.End) {
			return nil
		}
		attributes := parseAttributes(fields[8])
		f.GeneID = attributes["gene_id"]
		f.GeneName = attributes["gene_name"]
		f.TranscriptID = attributes["transcript_id"]
		if f.GeneID == "" {
			return nil
		}
		if f.GeneName == "" {
			f.GeneName = f.GeneID
		}
		features = append(features, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return features, nil
}

// parseAttributes splits `key "value"; key "value";` pairs.
func parseAttributes(field string) map[string]string {
	attributes := make(map[string]string)
	for _, pair := range strings.Split(field, ";") {
		pair = strings.TrimSpace(pair)
		space := strings.IndexAny(pair, " \t")
		if space < 0 {
			continue
		}
		key := pair[:space]
		if _, ok := attributes[key]; ok {
			continue
		}
		attributes[key] = strings.Trim(strings.TrimSpace(pair[space+1:]), `"`)
	}
	return attributes
}

// Gene is the longest isoform of a gene, with all of the gene's exons.
type Gene struct {
	ID, Name     string
	Chrom        string
	Start, End   uint32
	Strand       string
	TranscriptID string
	Exons        []Interval

	// Row is the display row assigned by PackRows.
	Row int
}

// Genes collapses features into one Gene per gene_id, ordered by gene_id.
// The span of a gene is that of its first feature reaching the greatest End.
func Genes(features []Feature) []Gene {
	index := make(map[string]int)
	var genes []Gene
	for _, f := range features {
		i, ok := index[f.GeneID]
		if !ok {
			i = len(genes)
			index[f.GeneID] = i
			genes = append(genes, Gene{
				ID:           f.GeneID,
				Name:         f.GeneName,
				Chrom:        f.Chrom,
				Start:        f.Start,
				End:          f.End,
				Strand:       f.Strand,
				TranscriptID: f.TranscriptID,
			})
		}
		g := &genes[i]
		if f.End > g.End {
			g.Name, g.Start, g.End, g.Strand, g.TranscriptID = f.GeneName, f.Start, f.End, f.Strand, f.TranscriptID
		}
		if f.Type == "exon" {
			g.Exons = append(g.Exons, Interval{Chrom: f.Chrom, Start: f.Start, End: f.End, Name: f.TranscriptID})
		}
	}
	sort.SliceStable(genes, func(i, j int) bool { return genes[i].ID < genes[j].ID })
	return genes
}

// PackRows assigns display rows in order: each gene goes one row above the
// highest previously placed gene it touches, so overlapping genes never
// share a row.  It returns the number of rows used.
func PackRows(genes []Gene) int {
	rows := 0
	for i := range genes {
		row := 0
		for _, placed := range genes[:i] {
			if genes[i].End < placed.Start || genes[i].Start > placed.End {
				continue
			}
			if placed.Row+1 > row {
				row = placed.Row + 1
			}
		}
		genes[i].Row = row
		if row+1 > rows {
			rows = row + 1
		}
	}
	return rows
}

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

// Package hicpro reads HiC-Pro sparse contact matrices: a ".matrix" file of
// "bin_i bin_j count" triplets and an "_abs.bed" file describing the bins.
package hicpro

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/googlegenomics/hicplot/internal/genomics"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Separator splits an explicit "matrix::bins" path pair.
const Separator = "::"

// ErrUnknownChromosome is returned when no bin lies on the requested
// chromosome.
var ErrUnknownChromosome = errors.New("unknown chromosome")

// Opener opens text inputs for sequential reading.
type Opener interface {
	OpenReader(ctx context.Context, path string) (io.ReadCloser, error)
}

type bin struct {
	chrom      string
	start, end uint32
}

type span struct {
	first, last int
}

// Matrix is a HiC-Pro matrix.  Bins are loaded by Open; contacts are read
// on demand for each requested region.
type Matrix struct {
	opener     Opener
	path       string
	resolution int32
	bins       map[int]bin
	chroms     map[string]span
	order      []string
}

// BinsPath returns the bins file HiC-Pro writes next to matrixPath.
func BinsPath(matrixPath string) (string, string) {
	if parts := strings.SplitN(matrixPath, Separator, 2); len(parts) == 2 {
		return parts[0], parts[1]
	}
	return matrixPath, strings.TrimSuffix(matrixPath, ".matrix") + "_abs.bed"
}

// Open loads the bins of the matrix at path.
func Open(ctx context.Context, opener Opener, path string) (*Matrix, error) {
	matrixPath, binsPath := BinsPath(path)
	r, err := opener.OpenReader(ctx, binsPath)
	if err != nil {
		return nil, errors.Wrap(err, "opening bins")
	}
	defer r.Close()

	m := &Matrix{
		opener: opener,
		path:   matrixPath,
		bins:   make(map[int]bin),
		chroms: make(map[string]span),
	}
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if len(fields) < 4 {
			return nil, errors.Errorf("%s:%d: expected 4 fields, found %d", binsPath, line, len(fields))
		}
		start, err1 := strconv.ParseUint(fields[1], 10, 32)
		end, err2 := strconv.ParseUint(fields[2], 10, 32)
		id, err3 := strconv.Atoi(fields[3])
		if err1 != nil || err2 != nil || err3 != nil {
			return nil, errors.Errorf("%s:%d: malformed bin", binsPath, line)
		}

		b := bin{fields[0], uint32(start), uint32(end)}
		m.bins[id] = b
		if s, ok := m.chroms[b.chrom]; ok {
			if id < s.first {
				s.first = id
			}
			if id > s.last {
				s.last = id
			}
			m.chroms[b.chrom] = s
		} else {
			m.chroms[b.chrom] = span{id, id}
			m.order = append(m.order, b.chrom)
		}
		if m.resolution == 0 {
			m.resolution = int32(end - start)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading bins")
	}
	if len(m.bins) == 0 {
		return nil, errors.Errorf("%s: no bins", binsPath)
	}
	return m, nil
}

// Resolution returns the bin size of the matrix.
func (m *Matrix) Resolution() int32 {
	return m.resolution
}

// Chromosomes returns the chromosome names in file order along with their
// lengths (the end of their last bin).
func (m *Matrix) Chromosomes() ([]string, []uint32) {
	lengths := make([]uint32, len(m.order))
	for i, chrom := range m.order {
		lengths[i] = m.bins[m.chroms[chrom].last].end
	}
	return append([]string(nil), m.order...), lengths
}

// lookup returns the bins of the named chromosome, ignoring case and a "chr"
// prefix when there is no exact match.
func (m *Matrix) lookup(name string) (span, bool) {
	if s, ok := m.chroms[name]; ok {
		return s, true
	}
	bare := strings.TrimPrefix(strings.ToLower(name), "chr")
	for chrom, s := range m.chroms {
		if strings.TrimPrefix(strings.ToLower(chrom), "chr") == bare {
			return s, true
		}
	}
	return span{}, false
}

// Contacts returns the raw symmetric contact matrix of the bins overlapping
// region.
func (m *Matrix) Contacts(ctx context.Context, region genomics.Region) (*mat.Dense, error) {
	s, ok := m.lookup(region.Chrom)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownChromosome, "%q", region.Chrom)
	}
	region = region.Resolve(m.bins[s.last].end)
	if err := region.Validate(); err != nil {
		return nil, err
	}

	first, last := -1, -1
	for id := s.first; id <= s.last; id++ {
		b, ok := m.bins[id]
		if !ok || !region.Overlaps(b.chrom, b.start, b.end) {
			continue
		}
		if first < 0 {
			first = id
		}
		last = id
	}
	if first < 0 {
		return nil, errors.Wrapf(genomics.ErrInvalidRegion, "%s: no bins", region)
	}

	n := last - first + 1
	dense := mat.NewDense(n, n, nil)
	r, err := m.opener.OpenReader(ctx, m.path)
	if err != nil {
		return nil, errors.Wrap(err, "opening matrix")
	}
	defer r.Close()

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 3 {
			return nil, errors.Errorf("%s:%d: expected 3 fields, found %d", m.path, line, len(fields))
		}
		i, err1 := strconv.Atoi(fields[0])
		j, err2 := strconv.Atoi(fields[1])
		if err1 != nil || err2 != nil {
			return nil, errors.Errorf("%s:%d: malformed bin id", m.path, line)
		}
		if i < first || i > last || j < first || j > last {
			continue
		}
		count, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, errors.Errorf("%s:%d: malformed count", m.path, line)
		}
		dense.Set(i-first, j-first, count)
		dense.Set(j-first, i-first, count)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading matrix")
	}
	return dense, nil
}

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

// Package contact provides uniform access to Hi-C contact matrices stored in
// the supported file formats, and the matrix arithmetic used to compare them.
package contact

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/googlegenomics/hicplot/internal/genomics"
	"github.com/googlegenomics/hicplot/internal/hic"
	"github.com/googlegenomics/hicplot/internal/hicpro"
	"github.com/googlegenomics/hicplot/internal/source"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrUnknownFormat is returned by Open for unsupported file types.
var ErrUnknownFormat = errors.New("unknown contact matrix format")

// Normalization names the bias correction applied to raw contacts.  The
// Juicer names (NONE, VC, VC_SQRT, KR, SCALE) apply to .hic files; ICE
// applies to HiC-Pro matrices.
type Normalization string

// Normalizations understood by at least one format.
const (
	None Normalization = "NONE"
	ICE  Normalization = "ICE"
)

// Matrix is an open contact matrix file.
type Matrix interface {
	// Fetch returns the symmetric matrix of the bins covering region at
	// resolution base pairs, normalized with norm.
	Fetch(ctx context.Context, region genomics.Region, resolution int32, norm Normalization) (*mat.Dense, error)
	// Info describes the content of the file.
	Info() Info
	Close() error
}

// Info summarizes a contact matrix file.
type Info struct {
	Format         string
	Genome         string
	Chromosomes    []string
	Lengths        []int64
	Resolutions    []int32
	Normalizations []Normalization
}

// Open opens the contact matrix at path, selecting the format by extension.
func Open(ctx context.Context, opener *source.Opener, path string) (Matrix, error) {
	name, _ := hicpro.BinsPath(path)
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".hic":
		f, err := opener.Open(ctx, path)
		if err != nil {
			return nil, err
		}
		h, err := hic.Open(f, f.Size())
		if err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "opening %s", path)
		}
		return &hicMatrix{h, f}, nil
	case ".matrix":
		m, err := hicpro.Open(ctx, opener, path)
		if err != nil {
			return nil, errors.Wrapf(err, "opening %s", path)
		}
		return &hicproMatrix{m}, nil
	case ".cool", ".mcool":
		return nil, errors.Wrapf(ErrUnknownFormat,
			"%s: cooler files are not supported; convert with 'hicConvertFormat --outputFormat hic' or 'cooler dump'", path)
	default:
		return nil, errors.Wrapf(ErrUnknownFormat, "%s", path)
	}
}

type hicMatrix struct {
	file   *hic.File
	closer source.File
}

func (m *hicMatrix) Fetch(_ context.Context, region genomics.Region, resolution int32, norm Normalization) (*mat.Dense, error) {
	n, err := hic.ParseNormalization(string(norm))
	if err != nil {
		return nil, err
	}
	return m.file.Matrix(region, resolution, n)
}

func (m *hicMatrix) Info() Info {
	info := Info{
		Format:      "hic",
		Genome:      m.file.Genome,
		Resolutions: m.file.Resolutions(),
	}
	for _, chr := range m.file.Chromosomes() {
		info.Chromosomes = append(info.Chromosomes, chr.Name)
		info.Lengths = append(info.Lengths, chr.Length)
	}
	for _, norm := range m.file.Normalizations() {
		info.Normalizations = append(info.Normalizations, Normalization(norm))
	}
	return info
}

func (m *hicMatrix) Close() error {
	return m.closer.Close()
}

type hicproMatrix struct {
	matrix *hicpro.Matrix
}

func (m *hicproMatrix) Fetch(ctx context.Context, region genomics.Region, resolution int32, norm Normalization) (*mat.Dense, error) {
	if resolution != 0 && resolution != m.matrix.Resolution() {
		return nil, errors.Errorf("matrix has resolution %d, not %d", m.matrix.Resolution(), resolution)
	}
	switch Normalization(strings.ToUpper(string(norm))) {
	case "", None:
		return m.matrix.Contacts(ctx, region)
	case ICE:
		contacts, err := m.matrix.Contacts(ctx, region)
		if err != nil {
			return nil, err
		}
		return hicpro.Balance(contacts), nil
	default:
		return nil, errors.Errorf("unsupported normalization %q for HiC-Pro matrices", norm)
	}
}

func (m *hicproMatrix) Info() Info {
	names, lengths := m.matrix.Chromosomes()
	info := Info{
		Format:         "hicpro",
		Chromosomes:    names,
		Resolutions:    []int32{m.matrix.Resolution()},
		Normalizations: []Normalization{None, ICE},
	}
	for _, length := range lengths {
		info.Lengths = append(info.Lengths, int64(length))
	}
	return info
}

func (m *hicproMatrix) Close() error {
	return nil
}

// DefaultNormalization picks the balancing to use when none is requested:
// ICE or KR when the file provides them, then SCALE, otherwise raw counts.
func DefaultNormalization(info Info) Normalization {
	for _, preferred := range []Normalization{ICE, "KR", "SCALE"} {
		for _, norm := range info.Normalizations {
			if norm == preferred {
				return norm
			}
		}
	}
	return None
}

// maxBins bounds the size of the matrix selected by DefaultResolution.
const maxBins = 1000

// DefaultResolution returns the finest resolution of info that splits width
// base pairs into at most maxBins bins, or the coarsest one if none does.
func DefaultResolution(info Info, width uint32) (int32, error) {
	if len(info.Resolutions) == 0 {
		return 0, errors.New("file has no resolutions")
	}
	resolutions := append([]int32(nil), info.Resolutions...)
	sort.Slice(resolutions, func(i, j int) bool { return resolutions[i] < resolutions[j] })
	for _, resolution := range resolutions {
		if int64(width) <= int64(resolution)*maxBins {
			return resolution, nil
		}
	}
	return resolutions[len(resolutions)-1], nil
}

// ChromosomeLength returns the length of the named chromosome.  Names match
// the way the readers match them: exactly, or else ignoring case and a "chr"
// prefix, so "chr1" finds "1".
func (info Info) ChromosomeLength(name string) (uint32, error) {
	for i, chrom := range info.Chromosomes {
		if chrom == name {
			return uint32(info.Lengths[i]), nil
		}
	}
	bare := strings.TrimPrefix(strings.ToLower(name), "chr")
	for i, chrom := range info.Chromosomes {
		if strings.TrimPrefix(strings.ToLower(chrom), "chr") == bare {
			return uint32(info.Lengths[i]), nil
		}
	}
	return 0, errors.Wrapf(hic.ErrUnknownChromosome, "%q", name)
}

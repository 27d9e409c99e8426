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

// Package hic provides support for reading contact matrices from Juicer .hic
// files (versions 6 through 9).
package hic

import (
	"encoding/binary"
	"io"
	"sort"
	"strings"

	hbinary "github.com/googlegenomics/hicplot/internal/binary"
	"github.com/pkg/errors"
)

const (
	hicMagic = "HIC\x00"

	minimumVersion = 6
	maximumVersion = 9

	// This is just to prevent arbitrarily long allocations due to malformed
	// data.  No genome has more sequences than this in practice.
	maximumChromosomes = 1 << 20
	maximumResolutions = 1024

	// Juicer stores every normalization vector against the base pair unit we
	// support; fragment resolutions are ignored.
	unitBP = "BP"
)

var (
	// ErrUnknownChromosome is returned when a region names a chromosome that
	// is not in the file.
	ErrUnknownChromosome = errors.New("unknown chromosome")
	// ErrResolutionNotFound is returned when the requested resolution is not
	// stored in the file.
	ErrResolutionNotFound = errors.New("resolution not found")
	// ErrNormalizationNotFound is returned when no vector exists for the
	// requested normalization.
	ErrNormalizationNotFound = errors.New("normalization not found")
)

// Normalization names a Juicer normalization vector.
type Normalization string

// The normalizations understood by Juicer tools.  NONE selects raw counts.
const (
	None   Normalization = "NONE"
	VC     Normalization = "VC"
	VCSqrt Normalization = "VC_SQRT"
	KR     Normalization = "KR"
	SCALE  Normalization = "SCALE"
)

// ParseNormalization converts input (case-insensitively) to a Normalization.
// The empty string selects None.
func ParseNormalization(input string) (Normalization, error) {
	switch norm := Normalization(strings.ToUpper(input)); norm {
	case "":
		return None, nil
	case None, VC, VCSqrt, KR, SCALE:
		return norm, nil
	default:
		return "", errors.Errorf("unsupported normalization %q", input)
	}
}

// Chromosome describes a sequence in the file's genome.
type Chromosome struct {
	Index  int32
	Name   string
	Length int64
}

// File is an open .hic file.  Create with Open.
type File struct {
	r    io.ReaderAt
	size int64

	Version     int32
	Genome      string
	Attributes  map[string]string
	chromosomes []Chromosome
	resolutions []int32

	masterIndexPosition int64
	footer              *footer
}

// Open reads the header and footer of the .hic file stored in r, which must
// be size bytes long.
func Open(r io.ReaderAt, size int64) (*File, error) {
	f := &File{r: r, size: size, Attributes: make(map[string]string)}
	if err := f.readHeader(); err != nil {
		return nil, errors.Wrap(err, "reading header")
	}
	footer, err := f.readFooter()
	if err != nil {
		return nil, errors.Wrap(err, "reading footer")
	}
	f.footer = footer
	return f, nil
}

func (f *File) reader(offset int64) *hbinary.Reader {
	return hbinary.NewSectionReader(f.r, offset, f.size-offset, binary.LittleEndian)
}

func (f *File) readHeader() error {
	r := f.reader(0)
	if err := r.Expect([]byte(hicMagic)); err != nil {
		return err
	}

	if err := r.Read(&f.Version); err != nil {
		return errors.Wrap(err, "reading version")
	}
	if f.Version < minimumVersion || f.Version > maximumVersion {
		return errors.Errorf("unsupported version %d", f.Version)
	}
	if err := r.Read(&f.masterIndexPosition); err != nil {
		return errors.Wrap(err, "reading master index position")
	}
	genome, err := r.CString()
	if err != nil {
		return errors.Wrap(err, "reading genome")
	}
	f.Genome = genome

	if f.Version > 8 {
		// Position and length of the normalization vector index; the index is
		// also reachable through the footer, which is where it is read from.
		if err := r.Skip(16); err != nil {
			return errors.Wrap(err, "reading normalization index position")
		}
	}

	var attributes int32
	if err := r.Read(&attributes); err != nil {
		return errors.Wrap(err, "reading attribute count")
	}
	for i := int32(0); i < attributes; i++ {
		key, err := r.CString()
		if err != nil {
			return errors.Wrap(err, "reading attribute key")
		}
		value, err := r.CString()
		if err != nil {
			return errors.Wrap(err, "reading attribute value")
		}
		f.Attributes[key] = value
	}

	var count int32
	if err := r.Read(&count); err != nil {
		return errors.Wrap(err, "reading chromosome count")
	}
	if count < 0 || count > maximumChromosomes {
		return errors.Errorf("invalid chromosome count (%d)", count)
	}
	f.chromosomes = make([]Chromosome, count)
	for i := range f.chromosomes {
		name, err := r.CString()
		if err != nil {
			return errors.Wrap(err, "reading chromosome name")
		}
		length, err := f.readLength(r)
		if err != nil {
			return errors.Wrapf(err, "reading length of %q", name)
		}
		f.chromosomes[i] = Chromosome{Index: int32(i), Name: name, Length: length}
	}

	if err := r.Read(&count); err != nil {
		return errors.Wrap(err, "reading resolution count")
	}
	if count < 0 || count > maximumResolutions {
		return errors.Errorf("invalid resolution count (%d)", count)
	}
	f.resolutions = make([]int32, count)
	if err := r.Read(&f.resolutions); err != nil {
		return errors.Wrap(err, "reading resolutions")
	}
	return nil
}

// readLength reads a value that was widened from 32 to 64 bits in version 9.
func (f *File) readLength(r *hbinary.Reader) (int64, error) {
	if f.Version > 8 {
		var n int64
		err := r.Read(&n)
		return n, err
	}
	var n int32
	err := r.Read(&n)
	return int64(n), err
}

// Chromosomes returns the sequences of the file's genome in index order.  The
// first entry of most files is the pseudo chromosome "All".
func (f *File) Chromosomes() []Chromosome {
	return append([]Chromosome(nil), f.chromosomes...)
}

// Chromosome returns the named chromosome.  Names are compared exactly first,
// then with and without a "chr" prefix and case-insensitively, matching what
// Juicebox accepts.
func (f *File) Chromosome(name string) (Chromosome, error) {
	for _, chr := range f.chromosomes {
		if chr.Name == name {
			return chr, nil
		}
	}
	bare := strings.TrimPrefix(strings.ToLower(name), "chr")
	for _, chr := range f.chromosomes {
		if strings.TrimPrefix(strings.ToLower(chr.Name), "chr") == bare {
			return chr, nil
		}
	}
	return Chromosome{}, errors.Wrapf(ErrUnknownChromosome, "%q", name)
}

// Resolutions returns the base pair resolutions stored in the file, finest
// first.
func (f *File) Resolutions() []int32 {
	resolutions := append([]int32(nil), f.resolutions...)
	sort.Slice(resolutions, func(i, j int) bool { return resolutions[i] < resolutions[j] })
	return resolutions
}

// Normalizations returns the normalization types that have at least one
// vector in the file, always including None.
func (f *File) Normalizations() []Normalization {
	seen := map[Normalization]bool{None: true}
	norms := []Normalization{None}
	for key := range f.footer.norms {
		if !seen[key.norm] {
			seen[key.norm] = true
			norms = append(norms, key.norm)
		}
	}
	sort.Slice(norms[1:], func(i, j int) bool { return norms[i+1] < norms[j+1] })
	return norms
}

func (f *File) hasResolution(resolution int32) bool {
	for _, r := range f.resolutions {
		if r == resolution {
			return true
		}
	}
	return false
}

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
	"fmt"
	"io"
	"math"

	hbinary "github.com/googlegenomics/hicplot/internal/binary"
	"github.com/pkg/errors"
)

// maximumVectorLength bounds the number of values in a single normalization
// or expected value vector.
const maximumVectorLength = 1 << 28

type index struct {
	position int64
	size     int64
}

type normKey struct {
	norm       Normalization
	chromosome int32
	binSize    int32
}

type footer struct {
	// matrices maps "<chr1>_<chr2>" index pairs to matrix metadata.
	matrices map[string]index
	norms    map[normKey]index
}

func matrixKey(chr1, chr2 int32) string {
	if chr1 > chr2 {
		chr1, chr2 = chr2, chr1
	}
	return fmt.Sprintf("%d_%d", chr1, chr2)
}

func (f *File) readFooter() (*footer, error) {
	if f.masterIndexPosition <= 0 || f.masterIndexPosition >= f.size {
		return nil, errors.Errorf("invalid master index position %d", f.masterIndexPosition)
	}
	r := f.reader(f.masterIndexPosition)
	if _, err := f.readLength(r); err != nil {
		return nil, errors.Wrap(err, "reading footer size")
	}

	footer := &footer{
		matrices: make(map[string]index),
		norms:    make(map[normKey]index),
	}
	var entries int32
	if err := r.Read(&entries); err != nil {
		return nil, errors.Wrap(err, "reading entry count")
	}
	for i := int32(0); i < entries; i++ {
		key, err := r.CString()
		if err != nil {
			return nil, errors.Wrap(err, "reading entry key")
		}
		var entry struct {
			Position int64
			Size     int32
		}
		if err := r.Read(&entry); err != nil {
			return nil, errors.Wrapf(err, "reading entry %q", key)
		}
		footer.matrices[key] = index{entry.Position, int64(entry.Size)}
	}

	if err := f.skipExpectedValues(r, false); err != nil {
		return nil, errors.Wrap(err, "reading expected values")
	}
	if err := f.skipExpectedValues(r, true); err != nil {
		if errors.Cause(err) == io.EOF {
			// Older files stop after the raw expected values.
			return footer, nil
		}
		return nil, errors.Wrap(err, "reading normalized expected values")
	}

	var vectors int32
	if err := r.Read(&vectors); err != nil {
		return nil, errors.Wrap(err, "reading normalization vector count")
	}
	for i := int32(0); i < vectors; i++ {
		norm, err := r.CString()
		if err != nil {
			return nil, errors.Wrap(err, "reading normalization type")
		}
		var chromosome int32
		if err := r.Read(&chromosome); err != nil {
			return nil, errors.Wrap(err, "reading normalization chromosome")
		}
		unit, err := r.CString()
		if err != nil {
			return nil, errors.Wrap(err, "reading normalization unit")
		}
		var entry struct {
			BinSize  int32
			Position int64
		}
		if err := r.Read(&entry); err != nil {
			return nil, errors.Wrap(err, "reading normalization entry")
		}
		size, err := f.readLength(r)
		if err != nil {
			return nil, errors.Wrap(err, "reading normalization size")
		}
		if unit != unitBP {
			continue
		}
		key := normKey{Normalization(norm), chromosome, entry.BinSize}
		footer.norms[key] = index{entry.Position, size}
	}
	return footer, nil
}

// skipExpectedValues reads past one expected value section.  Normalized
// sections prefix every vector with the normalization type.
func (f *File) skipExpectedValues(r *hbinary.Reader, normalized bool) error {
	valueSize := int64(8)
	if f.Version > 8 {
		valueSize = 4
	}

	var count int32
	if err := r.Read(&count); err != nil {
		return err
	}
	for i := int32(0); i < count; i++ {
		if normalized {
			if _, err := r.CString(); err != nil {
				return errors.Wrap(err, "reading type")
			}
		}
		if _, err := r.CString(); err != nil {
			return errors.Wrap(err, "reading unit")
		}
		var binSize int32
		if err := r.Read(&binSize); err != nil {
			return errors.Wrap(err, "reading bin size")
		}
		values, err := f.readLength(r)
		if err != nil {
			return errors.Wrap(err, "reading value count")
		}
		if values < 0 || values > maximumVectorLength {
			return errors.Errorf("invalid value count (%d)", values)
		}
		if err := r.Skip(values * valueSize); err != nil {
			return errors.Wrap(err, "skipping values")
		}
		var factors int32
		if err := r.Read(&factors); err != nil {
			return errors.Wrap(err, "reading scale factor count")
		}
		if err := r.Skip(int64(factors) * (4 + valueSize)); err != nil {
			return errors.Wrap(err, "skipping scale factors")
		}
	}
	return nil
}

// normVector reads the normalization vector for chromosome at binSize.
func (f *File) normVector(norm Normalization, chromosome, binSize int32) ([]float64, error) {
	entry, ok := f.footer.norms[normKey{norm, chromosome, binSize}]
	if !ok {
		return nil, errors.Wrapf(ErrNormalizationNotFound, "%s at %d bp", norm, binSize)
	}

	r := f.reader(entry.position)
	count, err := f.readLength(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading vector length")
	}
	if count < 0 || count > maximumVectorLength {
		return nil, errors.Errorf("invalid vector length (%d)", count)
	}

	values := make([]float64, count)
	if f.Version > 8 {
		narrow := make([]float32, count)
		if err := r.Read(&narrow); err != nil {
			return nil, errors.Wrap(err, "reading vector")
		}
		for i, v := range narrow {
			values[i] = float64(v)
		}
	} else if err := r.Read(&values); err != nil {
		return nil, errors.Wrap(err, "reading vector")
	}

	for i, v := range values {
		if v < 0 {
			values[i] = math.NaN()
		}
	}
	return values, nil
}

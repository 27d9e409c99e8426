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
	"math"
	"sort"

	"github.com/googlegenomics/hicplot/internal/genomics"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const maximumBlocks = 1 << 24

type zoom struct {
	binSize          int32
	blockBinCount    int32
	blockColumnCount int32
	blocks           map[int32]index
}

// readZoom reads the matrix metadata stored at entry and returns the base
// pair zoom level for binSize.
func (f *File) readZoom(entry index, binSize int32) (*zoom, error) {
	r := f.reader(entry.position)
	var header struct {
		Chr1, Chr2  int32
		Resolutions int32
	}
	if err := r.Read(&header); err != nil {
		return nil, errors.Wrap(err, "reading matrix header")
	}

	for i := int32(0); i < header.Resolutions; i++ {
		unit, err := r.CString()
		if err != nil {
			return nil, errors.Wrap(err, "reading zoom unit")
		}
		var meta struct {
			ZoomIndex         int32
			SumCounts         float32
			OccupiedCellCount float32
			StdDev            float32
			Percent95         float32
			BinSize           int32
			BlockBinCount     int32
			BlockColumnCount  int32
			BlockCount        int32
		}
		if err := r.Read(&meta); err != nil {
			return nil, errors.Wrap(err, "reading zoom metadata")
		}
		if meta.BlockCount < 0 || meta.BlockCount > maximumBlocks {
			return nil, errors.Errorf("invalid block count (%d)", meta.BlockCount)
		}

		match := unit == unitBP && meta.BinSize == binSize
		z := &zoom{
			binSize:          meta.BinSize,
			blockBinCount:    meta.BlockBinCount,
			blockColumnCount: meta.BlockColumnCount,
			blocks:           make(map[int32]index),
		}
		for j := int32(0); j < meta.BlockCount; j++ {
			var block struct {
				ID       int32
				Position int64
				Size     int32
			}
			if err := r.Read(&block); err != nil {
				return nil, errors.Wrap(err, "reading block index")
			}
			if match {
				z.blocks[block.ID] = index{block.Position, int64(block.Size)}
			}
		}
		if match {
			if z.blockBinCount <= 0 || z.blockColumnCount <= 0 {
				return nil, errors.Errorf("invalid block geometry %dx%d", z.blockBinCount, z.blockColumnCount)
			}
			return z, nil
		}
	}
	return nil, errors.Wrapf(ErrResolutionNotFound, "%d bp", binSize)
}

// blockNumbers returns the IDs of the blocks that may hold contacts between
// bins first and last (inclusive) of an intra-chromosomal matrix.
func (z *zoom) blockNumbers(first, last int32, version int32) []int32 {
	set := make(map[int32]bool)
	if version > 8 {
		// Version 9 lays out intra-chromosomal blocks by position along the
		// diagonal and by (logarithmic) depth away from it.
		lower := first / z.blockBinCount
		higher := last/z.blockBinCount + 1
		depth := int32(math.Log2(1 + float64(last-first)/math.Sqrt2/float64(z.blockBinCount)))
		for d := int32(0); d <= depth+1; d++ {
			for pad := lower; pad <= higher; pad++ {
				set[d*z.blockColumnCount+pad] = true
			}
		}
	} else {
		col1, col2 := first/z.blockBinCount, last/z.blockBinCount
		for row := col1; row <= col2; row++ {
			for col := col1; col <= col2; col++ {
				set[row*z.blockColumnCount+col] = true
				set[col*z.blockColumnCount+row] = true
			}
		}
	}

	ids := make([]int32, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Matrix returns the symmetric contact matrix of the bins covering region at
// resolution (in base pairs).  With a normalization other than None every
// cell is divided by the product of the normalization vector entries of its
// row and column; cells with undefined normalization are NaN.
func (f *File) Matrix(region genomics.Region, resolution int32, norm Normalization) (*mat.Dense, error) {
	chr, err := f.Chromosome(region.Chrom)
	if err != nil {
		return nil, err
	}
	region = region.Resolve(uint32(chr.Length))
	if err := region.Validate(); err != nil {
		return nil, err
	}
	if resolution <= 0 || !f.hasResolution(resolution) {
		return nil, errors.Wrapf(ErrResolutionNotFound, "%d bp (have %v)", resolution, f.Resolutions())
	}

	first := int32(region.Start) / resolution
	last := int32(region.End-1) / resolution
	n := int(last - first + 1)
	m := mat.NewDense(n, n, nil)

	entry, ok := f.footer.matrices[matrixKey(chr.Index, chr.Index)]
	if !ok {
		// No contacts were recorded for the chromosome.
		return m, nil
	}
	z, err := f.readZoom(entry, resolution)
	if err != nil {
		return nil, err
	}

	for _, id := range z.blockNumbers(first, last, f.Version) {
		block, ok := z.blocks[id]
		if !ok {
			continue
		}
		records, err := f.readBlock(block)
		if err != nil {
			return nil, errors.Wrapf(err, "reading block %d", id)
		}
		for _, rec := range records {
			if rec.x < first || rec.x > last || rec.y < first || rec.y > last {
				continue
			}
			i, j := int(rec.x-first), int(rec.y-first)
			m.Set(i, j, float64(rec.value))
			m.Set(j, i, float64(rec.value))
		}
	}

	if norm == None || norm == "" {
		return m, nil
	}
	vector, err := f.normVector(norm, chr.Index, resolution)
	if err != nil {
		return nil, err
	}
	factor := func(bin int32) float64 {
		if int(bin) >= len(vector) {
			return math.NaN()
		}
		return vector[bin]
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			d := factor(first+int32(i)) * factor(first+int32(j))
			if d == 0 || math.IsNaN(d) {
				m.Set(i, j, math.NaN())
				continue
			}
			m.Set(i, j, m.At(i, j)/d)
		}
	}
	return m, nil
}

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
	"compress/zlib"
	"encoding/binary"
	"io"
	"math"

	hbinary "github.com/googlegenomics/hicplot/internal/binary"
	"github.com/pkg/errors"
)

const (
	listOfRows = 1
	denseBlock = 2

	// Dense blocks mark empty cells of short encoded counts with this value.
	emptyShortCount = math.MinInt16

	maximumRecords = 1 << 26
)

type record struct {
	x, y  int32
	value float32
}

// readBlock decompresses and decodes the contact records of a single block.
func (f *File) readBlock(block index) ([]record, error) {
	zr, err := zlib.NewReader(io.NewSectionReader(f.r, block.position, block.size))
	if err != nil {
		return nil, errors.Wrap(err, "initializing zlib reader")
	}
	defer zr.Close()
	return decodeBlock(hbinary.NewReader(zr, binary.LittleEndian), f.Version)
}

func decodeBlock(r *hbinary.Reader, version int32) ([]record, error) {
	var count int32
	if err := r.Read(&count); err != nil {
		return nil, errors.Wrap(err, "reading record count")
	}
	if count < 0 || count > maximumRecords {
		return nil, errors.Errorf("invalid record count (%d)", count)
	}

	if version < 7 {
		raw := make([]struct {
			X, Y  int32
			Value float32
		}, count)
		if err := r.Read(&raw); err != nil {
			return nil, errors.Wrap(err, "reading records")
		}
		records := make([]record, len(raw))
		for i, rec := range raw {
			records[i] = record{rec.X, rec.Y, rec.Value}
		}
		return records, nil
	}

	var header struct {
		BinXOffset, BinYOffset int32
		UseFloatCounts         uint8
	}
	if err := r.Read(&header); err != nil {
		return nil, errors.Wrap(err, "reading block header")
	}
	shortX, shortY := true, true
	if version > 8 {
		// A zero flag selects 16-bit positions.
		var useInt [2]uint8
		if err := r.Read(&useInt); err != nil {
			return nil, errors.Wrap(err, "reading position widths")
		}
		shortX, shortY = useInt[0] == 0, useInt[1] == 0
	}
	var representation uint8
	if err := r.Read(&representation); err != nil {
		return nil, errors.Wrap(err, "reading matrix representation")
	}

	d := &blockDecoder{r: r, floats: header.UseFloatCounts != 0}
	records := make([]record, 0, count)
	switch representation {
	case listOfRows:
		rows := d.int(shortY)
		for i := int32(0); i < rows && d.err == nil; i++ {
			y := header.BinYOffset + d.int(shortY)
			cols := d.int(shortX)
			for j := int32(0); j < cols && d.err == nil; j++ {
				x := header.BinXOffset + d.int(shortX)
				if value, ok := d.count(); ok {
					records = append(records, record{x, y, value})
				}
			}
		}
	case denseBlock:
		points := d.int(false)
		width := d.int(true)
		if d.err == nil && width <= 0 {
			return nil, errors.Errorf("invalid dense block width (%d)", width)
		}
		for i := int32(0); i < points && d.err == nil; i++ {
			row := i / width
			col := i - row*width
			if value, ok := d.count(); ok {
				records = append(records, record{header.BinXOffset + col, header.BinYOffset + row, value})
			}
		}
	default:
		return nil, errors.Errorf("unknown matrix representation %d", representation)
	}
	if d.err != nil {
		return nil, errors.Wrap(d.err, "reading records")
	}
	return records, nil
}

// blockDecoder reads the variable width fields of a block body, recording
// the first error encountered.
type blockDecoder struct {
	r      *hbinary.Reader
	floats bool
	err    error
}

func (d *blockDecoder) int(short bool) int32 {
	if d.err != nil {
		return 0
	}
	if short {
		var v int16
		d.err = d.r.Read(&v)
		return int32(v)
	}
	var v int32
	d.err = d.r.Read(&v)
	return v
}

// count reads a contact value and reports whether it marks a real contact.
func (d *blockDecoder) count() (float32, bool) {
	if d.err != nil {
		return 0, false
	}
	if d.floats {
		var v float32
		d.err = d.r.Read(&v)
		return v, d.err == nil && !math.IsNaN(float64(v))
	}
	var v int16
	d.err = d.r.Read(&v)
	return float32(v), d.err == nil && v != emptyShortCount
}

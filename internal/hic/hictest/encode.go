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

// Package hictest builds small .hic files for tests.
package hictest

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

// Representations of the contact records inside a block.  Version 6 files
// ignore the representation.
const (
	ListOfRows = 1
	Dense      = 2
)

// Chromosome is a genome sequence.
type Chromosome struct {
	Name   string
	Length int64
}

// File describes the content of a single resolution .hic file with contacts
// on one chromosome.
type File struct {
	Version     int32
	Chromosomes []Chromosome
	Resolution  int32
	// Chromosome is the index of the chromosome holding Contacts.
	Chromosome int32
	// Contacts maps (x, y) bin pairs to counts.
	Contacts       map[[2]int32]float32
	Representation uint8
	// Norms maps normalization names to vectors for Chromosome.
	Norms map[string][]float64
}

type encoder struct {
	bytes.Buffer
	version int32
}

func (e *encoder) put(v interface{}) {
	binary.Write(&e.Buffer, binary.LittleEndian, v)
}

func (e *encoder) str(s string) {
	e.WriteString(s)
	e.WriteByte(0)
}

// long writes a value that is 64 bits wide from version 9 on.
func (e *encoder) long(v int64) {
	if e.version > 8 {
		e.put(v)
	} else {
		e.put(int32(v))
	}
}

// Encode returns the bytes of a .hic file holding f.
func Encode(f File) []byte {
	e := &encoder{version: f.Version}
	e.WriteString("HIC\x00")
	e.put(f.Version)
	masterIndex := e.Len()
	e.put(int64(0))
	e.str("hg19")
	if f.Version > 8 {
		e.put(int64(0))
		e.put(int64(0))
	}
	e.put(int32(1))
	e.str("software")
	e.str("test")
	e.put(int32(len(f.Chromosomes)))
	for _, chr := range f.Chromosomes {
		e.str(chr.Name)
		e.long(chr.Length)
	}
	e.put(int32(1))
	e.put(f.Resolution)
	e.put(int32(0))

	blockPosition := int64(e.Len())
	e.Write(compress(encodeBlock(f)))
	blockSize := int64(e.Len()) - blockPosition

	metaPosition := int64(e.Len())
	e.put(f.Chromosome)
	e.put(f.Chromosome)
	e.put(int32(1))
	e.str("BP")
	e.put(int32(0))
	e.put([4]float32{})
	e.put(f.Resolution)
	e.put(int32(1 << 12)) // block bin count
	e.put(int32(1))       // block column count
	e.put(int32(1))
	e.put(int32(0))
	e.put(blockPosition)
	e.put(int32(blockSize))
	metaSize := int64(e.Len()) - metaPosition

	names := make([]string, 0, len(f.Norms))
	for name := range f.Norms {
		names = append(names, name)
	}
	sort.Strings(names)
	normPositions := make([][2]int64, len(names))
	for i, name := range names {
		start := int64(e.Len())
		e.long(int64(len(f.Norms[name])))
		for _, v := range f.Norms[name] {
			e.float(v)
		}
		normPositions[i] = [2]int64{start, int64(e.Len()) - start}
	}

	footer := int64(e.Len())
	e.long(0)
	e.put(int32(1))
	e.str(fmt.Sprintf("%d_%d", f.Chromosome, f.Chromosome))
	e.put(metaPosition)
	e.put(int32(metaSize))
	e.put(int32(1))
	e.expected(f, "")
	if f.Version >= 7 {
		e.put(int32(len(names)))
		for _, name := range names {
			e.expected(f, name)
		}
		e.put(int32(len(names)))
		for i, name := range names {
			e.str(name)
			e.put(f.Chromosome)
			e.str("BP")
			e.put(f.Resolution)
			e.put(normPositions[i][0])
			e.long(normPositions[i][1])
		}
	}

	data := e.Bytes()
	binary.LittleEndian.PutUint64(data[masterIndex:], uint64(footer))
	return data
}

// expected writes one expected value vector, prefixed with norm when it is
// not empty.  Values are float32 from version 9 on.
func (e *encoder) expected(f File, norm string) {
	if norm != "" {
		e.str(norm)
	}
	e.str("BP")
	e.put(f.Resolution)
	values := []float64{4, 2, 1}
	e.long(int64(len(values)))
	for _, v := range values {
		e.float(v)
	}
	e.put(int32(1))
	e.put(f.Chromosome)
	e.float(1)
}

func (e *encoder) float(v float64) {
	if e.version > 8 {
		e.put(float32(v))
	} else {
		e.put(v)
	}
}

func compress(data []byte) []byte {
	var buffer bytes.Buffer
	w := zlib.NewWriter(&buffer)
	w.Write(data)
	w.Close()
	return buffer.Bytes()
}

func encodeBlock(f File) []byte {
	e := &encoder{version: f.Version}
	keys := make([][2]int32, 0, len(f.Contacts))
	for key := range f.Contacts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][1] != keys[j][1] {
			return keys[i][1] < keys[j][1]
		}
		return keys[i][0] < keys[j][0]
	})

	e.put(int32(len(keys)))
	if f.Version < 7 {
		for _, key := range keys {
			e.put(key)
			e.put(f.Contacts[key])
		}
		return e.Bytes()
	}

	switch f.Representation {
	case Dense:
		minX, minY, maxX, maxY := int32(math.MaxInt32), int32(math.MaxInt32), int32(0), int32(0)
		for _, key := range keys {
			minX, maxX = min(minX, key[0]), max(maxX, key[0])
			minY, maxY = min(minY, key[1]), max(maxY, key[1])
		}
		width := maxX - minX + 1
		height := maxY - minY + 1
		e.put(minX)
		e.put(minY)
		e.put(uint8(0)) // short counts
		if f.Version > 8 {
			e.put([2]uint8{0, 0}) // short positions
		}
		e.put(uint8(Dense))
		e.put(width * height)
		e.put(int16(width))
		for i := int32(0); i < width*height; i++ {
			row, col := i/width, i%width
			if v, ok := f.Contacts[[2]int32{minX + col, minY + row}]; ok {
				e.put(int16(v))
			} else {
				e.put(int16(math.MinInt16))
			}
		}
	default:
		e.put(int32(0))
		e.put(int32(0))
		e.put(uint8(1)) // float counts
		if f.Version > 8 {
			e.put([2]uint8{0, 0}) // short positions
		}
		e.put(uint8(ListOfRows))
		var rows [][][2]int32
		for _, key := range keys {
			if n := len(rows); n == 0 || rows[n-1][0][1] != key[1] {
				rows = append(rows, nil)
			}
			rows[len(rows)-1] = append(rows[len(rows)-1], key)
		}
		e.put(int16(len(rows)))
		for _, row := range rows {
			e.put(int16(row[0][1]))
			e.put(int16(len(row)))
			for _, key := range row {
				e.put(int16(key[0]))
				e.put(f.Contacts[key])
			}
		}
	}
	return e.Bytes()
}

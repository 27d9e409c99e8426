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

// Package bigwigtest writes small bigWig files for tests.
package bigwigtest

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"math"
)

// Section types.
const (
	BedGraph  = 1
	VarStep   = 2
	FixedStep = 3
)

// Chromosome is a sequence of the encoded file.
type Chromosome struct {
	Name   string
	Length uint32
}

// Item is one record of a section.  End is only used by bedGraph sections and
// Start is ignored by fixedStep sections.
type Item struct {
	Start, End uint32
	Value      float32
}

// Section is a single data block.
type Section struct {
	Chrom      uint32
	Type       uint8
	Start, End uint32
	Step, Span uint32
	Items      []Item
}

// File describes the content of a bigWig file.
type File struct {
	Chromosomes []Chromosome
	Sections    []Section
	Compress    bool
	BigEndian   bool
}

// Encode returns the bigWig encoding of f.  Every section is stored in its own
// block, indexed by a single-node R-tree.
func Encode(f File) []byte {
	var order binary.ByteOrder = binary.LittleEndian
	if f.BigEndian {
		order = binary.BigEndian
	}
	put := func(buf *bytes.Buffer, v interface{}) {
		if err := binary.Write(buf, order, v); err != nil {
			panic(err)
		}
	}

	var blocks [][]byte
	var uncompressed int
	var summary struct {
		Bases               uint64
		Min, Max, Sum, Sum2 float64
	}
	summary.Min, summary.Max = math.Inf(1), math.Inf(-1)
	for _, s := range f.Sections {
		var buf bytes.Buffer
		put(&buf, struct {
			Chrom, Start, End, Step, Span uint32
			Type, Reserved                uint8
			Count                         uint16
		}{s.Chrom, s.Start, s.End, s.Step, s.Span, s.Type, 0, uint16(len(s.Items))})
		for _, item := range s.Items {
			switch s.Type {
			case BedGraph:
				put(&buf, item)
			case VarStep:
				put(&buf, struct {
					Start uint32
					Value float32
				}{item.Start, item.Value})
			case FixedStep:
				put(&buf, item.Value)
			}
			v := float64(item.Value)
			summary.Bases++
			summary.Min, summary.Max = math.Min(summary.Min, v), math.Max(summary.Max, v)
			summary.Sum += v
			summary.Sum2 += v * v
		}
		if buf.Len() > uncompressed {
			uncompressed = buf.Len()
		}
		data := buf.Bytes()
		if f.Compress {
			var z bytes.Buffer
			w := zlib.NewWriter(&z)
			w.Write(data)
			w.Close()
			data = z.Bytes()
		}
		blocks = append(blocks, data)
	}
	if !f.Compress {
		uncompressed = 0
	}

	keySize := 1
	for _, chr := range f.Chromosomes {
		if len(chr.Name) > keySize {
			keySize = len(chr.Name)
		}
	}

	const headerSize, summarySize, treeHeaderSize = 64, 40, 32
	summaryOffset := uint64(headerSize)
	chromTreeOffset := summaryOffset + summarySize
	chromTreeSize := uint64(treeHeaderSize + 4 + len(f.Chromosomes)*(keySize+8))
	dataOffset := chromTreeOffset + chromTreeSize
	offsets := make([]uint64, len(blocks))
	next := dataOffset + 4
	for i, b := range blocks {
		offsets[i] = next
		next += uint64(len(b))
	}
	indexOffset := next

	var out bytes.Buffer
	put(&out, struct {
		Magic                         uint32
		Version, Zooms                uint16
		ChromTree, Data, Index        uint64
		FieldCount, DefinedFieldCount uint16
		AutoSQL, Summary              uint64
		UncompressBufSize             uint32
		Extension                     uint64
	}{0x888FFC26, 4, 0, chromTreeOffset, dataOffset, indexOffset, 0, 0, 0, summaryOffset, uint32(uncompressed), 0})
	put(&out, summary)

	put(&out, struct {
		Magic, BlockSize, KeySize, ValSize uint32
		Count, Reserved                    uint64
	}{0x78CA8C91, uint32(len(f.Chromosomes)), uint32(keySize), 8, uint64(len(f.Chromosomes)), 0})
	put(&out, struct {
		IsLeaf, Reserved uint8
		Count            uint16
	}{1, 0, uint16(len(f.Chromosomes))})
	for i, chr := range f.Chromosomes {
		key := make([]byte, keySize)
		copy(key, chr.Name)
		out.Write(key)
		put(&out, struct{ ID, Size uint32 }{uint32(i), chr.Length})
	}

	put(&out, uint32(len(blocks)))
	for _, b := range blocks {
		out.Write(b)
	}

	put(&out, struct {
		Magic, BlockSize       uint32
		Count                  uint64
		StartChrom, StartBase  uint32
		EndChrom, EndBase      uint32
		EndFileOffset          uint64
		ItemsPerSlot, Reserved uint32
	}{0x2468ACE0, 256, uint64(len(blocks)), 0, 0, 0, 0, indexOffset, 1, 0})
	put(&out, struct {
		IsLeaf, Reserved uint8
		Count            uint16
	}{1, 0, uint16(len(blocks))})
	for i, s := range f.Sections {
		put(&out, struct {
			StartChrom, StartBase uint32
			EndChrom, EndBase     uint32
			Offset, Size          uint64
		}{s.Chrom, s.Start, s.Chrom, s.End, offsets[i], uint64(len(blocks[i]))})
	}
	return out.Bytes()
}

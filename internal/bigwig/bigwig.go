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

// Package bigwig provides support for reading per-base values from UCSC
// bigWig files.
package bigwig

import (
	"compress/zlib"
	"encoding/binary"
	"io"
	"math"
	"strings"

	hbinary "github.com/googlegenomics/hicplot/internal/binary"
	"github.com/pkg/errors"
)

const (
	bigWigMagic    = 0x888FFC26
	chromTreeMagic = 0x78CA8C91
	indexTreeMagic = 0x2468ACE0

	maximumItems     = 1 << 24
	maximumKeySize   = 1 << 10
	maximumBlockSize = 1 << 24
)

// Section types of bigWig data blocks.
const (
	BedGraph  = 1
	VarStep   = 2
	FixedStep = 3
)

// ErrUnknownChromosome is returned when a query names a chromosome that is not
// in the file.
var ErrUnknownChromosome = errors.New("unknown chromosome")

type header struct {
	Magic              uint32
	Version            uint16
	ZoomLevels         uint16
	ChromTreeOffset    uint64
	FullDataOffset     uint64
	FullIndexOffset    uint64
	FieldCount         uint16
	DefinedFieldCount  uint16
	AutoSQLOffset      uint64
	TotalSummaryOffset uint64
	UncompressBufSize  uint32
	ExtensionOffset    uint64
}

// Summary holds the whole-file statistics stored after the header.
type Summary struct {
	BasesCovered uint64
	Min, Max     float64
	Sum          float64
	SumSquares   float64
}

// Chromosome describes a sequence indexed by the file.
type Chromosome struct {
	ID     uint32
	Name   string
	Length uint32
}

// Reader is an open bigWig file.  Create with Open.
type Reader struct {
	r     io.ReaderAt
	size  int64
	order binary.ByteOrder

	header      header
	summary     Summary
	chromosomes []Chromosome
}

// Open parses the header, the summary and the chromosome tree of the bigWig
// file stored in r, which must be size bytes long.  Files written in
// either byte order are accepted.
func Open(r io.ReaderAt, size int64) (*Reader, error) {
	var magic [4]byte
	if _, err := r.ReadAt(magic[:], 0); err != nil {
		return nil, errors.Wrap(err, "reading magic")
	}
	bw := &Reader{r: r, size: size}
	switch {
	case binary.LittleEndian.Uint32(magic[:]) == bigWigMagic:
		bw.order = binary.LittleEndian
	case binary.BigEndian.Uint32(magic[:]) == bigWigMagic:
		bw.order = binary.BigEndian
	default:
		return nil, errors.Errorf("wrong magic %v", magic)
	}

	if err := bw.reader(0).Read(&bw.header); err != nil {
		return nil, errors.Wrap(err, "reading header")
	}
	if off := bw.header.TotalSummaryOffset; off != 0 {
		if err := bw.reader(int64(off)).Read(&bw.summary); err != nil {
			return nil, errors.Wrap(err, "reading summary")
		}
	}
	if err := bw.readChromosomes(); err != nil {
		return nil, errors.Wrap(err, "reading chromosome tree")
	}
	return bw, nil
}

func (bw *Reader) reader(offset int64) *hbinary.Reader {
	return hbinary.NewSectionReader(bw.r, offset, bw.size-offset, bw.order)
}

// Summary returns the whole-file statistics.
func (bw *Reader) Summary() Summary {
	return bw.summary
}

// Chromosomes returns the sequences indexed by the file.
func (bw *Reader) Chromosomes() []Chromosome {
	return append([]Chromosome(nil), bw.chromosomes...)
}

// Chromosome returns the named chromosome, compared exactly and then with and
// without a "chr" prefix.
func (bw *Reader) Chromosome(name string) (Chromosome, error) {
	for _, chr := range bw.chromosomes {
		if chr.Name == name {
			return chr, nil
		}
	}
	bare := strings.TrimPrefix(strings.ToLower(name), "chr")
	for _, chr := range bw.chromosomes {
		if strings.TrimPrefix(strings.ToLower(chr.Name), "chr") == bare {
			return chr, nil
		}
	}
	return Chromosome{}, errors.Wrapf(ErrUnknownChromosome, "%q", name)
}

func (bw *Reader) readChromosomes() error {
	r := bw.reader(int64(bw.header.ChromTreeOffset))
	var tree struct {
		Magic     uint32
		BlockSize uint32
		KeySize   uint32
		ValSize   uint32
		ItemCount uint64
		Reserved  uint64
	}
	if err := r.Read(&tree); err != nil {
		return errors.Wrap(err, "reading header")
	}
	if tree.Magic != chromTreeMagic {
		return errors.Errorf("wrong magic %#x", tree.Magic)
	}
	if tree.KeySize == 0 || tree.KeySize > maximumKeySize || tree.ItemCount > maximumItems {
		return errors.Errorf("invalid tree geometry (key size %d, %d items)", tree.KeySize, tree.ItemCount)
	}
	return bw.readChromNode(int64(bw.header.ChromTreeOffset)+32, int(tree.KeySize), 0)
}

func (bw *Reader) readChromNode(offset int64, keySize int, depth int) error {
	if depth > 64 {
		return errors.New("chromosome tree is too deep")
	}
	r := bw.reader(offset)
	var node struct {
		IsLeaf   uint8
		Reserved uint8
		Count    uint16
	}
	if err := r.Read(&node); err != nil {
		return errors.Wrap(err, "reading node")
	}

	var children []int64
	for i := 0; i < int(node.Count); i++ {
		key, err := r.FixedString(keySize)
		if err != nil {
			return err
		}
		if node.IsLeaf != 0 {
			var value struct{ ID, Size uint32 }
			if err := r.Read(&value); err != nil {
				return errors.Wrap(err, "reading chromosome")
			}
			bw.chromosomes = append(bw.chromosomes, Chromosome{ID: value.ID, Name: key, Length: value.Size})
			continue
		}
		var child uint64
		if err := r.Read(&child); err != nil {
			return errors.Wrap(err, "reading child offset")
		}
		children = append(children, int64(child))
	}
	for _, child := range children {
		if err := bw.readChromNode(child, keySize, depth+1); err != nil {
			return err
		}
	}
	return nil
}

type block struct {
	offset, size int64
}

type position struct {
	chrom, base uint32
}

func (p position) less(q position) bool {
	return p.chrom < q.chrom || (p.chrom == q.chrom && p.base < q.base)
}

// blocks returns the data blocks overlapping [start, end) on chrom.
func (bw *Reader) blocks(chrom, start, end uint32) ([]block, error) {
	offset := int64(bw.header.FullIndexOffset)
	r := bw.reader(offset)
	var index struct {
		Magic         uint32
		BlockSize     uint32
		ItemCount     uint64
		StartChromIx  uint32
		StartBase     uint32
		EndChromIx    uint32
		EndBase       uint32
		EndFileOffset uint64
		ItemsPerSlot  uint32
		Reserved      uint32
	}
	if err := r.Read(&index); err != nil {
		return nil, errors.Wrap(err, "reading index header")
	}
	if index.Magic != indexTreeMagic {
		return nil, errors.Errorf("wrong index magic %#x", index.Magic)
	}
	var blocks []block
	lo, hi := position{chrom, start}, position{chrom, end}
	if err := bw.searchIndex(offset+48, lo, hi, &blocks, 0); err != nil {
		return nil, err
	}
	return blocks, nil
}

func (bw *Reader) searchIndex(offset int64, lo, hi position, blocks *[]block, depth int) error {
	if depth > 64 {
		return errors.New("index tree is too deep")
	}
	r := bw.reader(offset)
	var node struct {
		IsLeaf   uint8
		Reserved uint8
		Count    uint16
	}
	if err := r.Read(&node); err != nil {
		return errors.Wrap(err, "reading index node")
	}

	var children []int64
	for i := 0; i < int(node.Count); i++ {
		var bounds struct {
			StartChromIx, StartBase uint32
			EndChromIx, EndBase     uint32
		}
		if err := r.Read(&bounds); err != nil {
			return errors.Wrap(err, "reading index item")
		}
		overlaps := lo.less(position{bounds.EndChromIx, bounds.EndBase}) &&
			position{bounds.StartChromIx, bounds.StartBase}.less(hi)
		if node.IsLeaf != 0 {
			var data struct{ Offset, Size uint64 }
			if err := r.Read(&data); err != nil {
				return errors.Wrap(err, "reading index item")
			}
			if overlaps {
				if data.Size > maximumBlockSize {
					return errors.Errorf("invalid block size (%d)", data.Size)
				}
				*blocks = append(*blocks, block{int64(data.Offset), int64(data.Size)})
			}
			continue
		}
		var child uint64
		if err := r.Read(&child); err != nil {
			return errors.Wrap(err, "reading child offset")
		}
		if overlaps {
			children = append(children, int64(child))
		}
	}
	for _, child := range children {
		if err := bw.searchIndex(child, lo, hi, blocks, depth+1); err != nil {
			return err
		}
	}
	return nil
}

type section struct {
	ChromID   uint32
	Start     uint32
	End       uint32
	ItemStep  uint32
	ItemSpan  uint32
	Type      uint8
	Reserved  uint8
	ItemCount uint16
}

// interval is a run of bases sharing one value.
type interval struct {
	start, end uint32
	value      float32
}

func (bw *Reader) readSection(b block) (section, []interval, error) {
	var src io.Reader = io.NewSectionReader(bw.r, b.offset, b.size)
	if bw.header.UncompressBufSize > 0 {
		zr, err := zlib.NewReader(src)
		if err != nil {
			return section{}, nil, errors.Wrap(err, "initializing zlib reader")
		}
		defer zr.Close()
		src = zr
	}
	r := hbinary.NewReader(src, bw.order)

	var s section
	if err := r.Read(&s); err != nil {
		return s, nil, errors.Wrap(err, "reading section header")
	}
	intervals := make([]interval, s.ItemCount)
	for i := range intervals {
		switch s.Type {
		case BedGraph:
			var item struct {
				Start, End uint32
				Value      float32
			}
			if err := r.Read(&item); err != nil {
				return s, nil, errors.Wrap(err, "reading bedGraph item")
			}
			intervals[i] = interval{item.Start, item.End, item.Value}
		case VarStep:
			var item struct {
				Start uint32
				Value float32
			}
			if err := r.Read(&item); err != nil {
				return s, nil, errors.Wrap(err, "reading varStep item")
			}
			intervals[i] = interval{item.Start, item.Start + s.ItemSpan, item.Value}
		case FixedStep:
			var value float32
			if err := r.Read(&value); err != nil {
				return s, nil, errors.Wrap(err, "reading fixedStep item")
			}
			start := s.Start + uint32(i)*s.ItemStep
			intervals[i] = interval{start, start + s.ItemSpan, value}
		default:
			return s, nil, errors.Errorf("unknown section type %d", s.Type)
		}
	}
	return s, intervals, nil
}

// Values returns one value per base of [start, end) on chrom.  Bases without
// data are NaN.  The end is clipped to the chromosome length; an end of zero
// selects the whole chromosome from start.
func (bw *Reader) Values(chrom string, start, end uint32) ([]float64, error) {
	chr, err := bw.Chromosome(chrom)
	if err != nil {
		return nil, err
	}
	if end == 0 || end > chr.Length {
		end = chr.Length
	}
	if start >= end {
		return nil, errors.Errorf("empty interval %s:%d-%d", chrom, start, end)
	}

	values := make([]float64, end-start)
	for i := range values {
		values[i] = math.NaN()
	}
	blocks, err := bw.blocks(chr.ID, start, end)
	if err != nil {
		return nil, err
	}
	for _, b := range blocks {
		s, intervals, err := bw.readSection(b)
		if err != nil {
			return nil, errors.Wrapf(err, "reading block at %d", b.offset)
		}
		if s.ChromID != chr.ID {
			continue
		}
		for _, iv := range intervals {
			lo, hi := iv.start, iv.end
			if lo < start {
				lo = start
			}
			if hi > end {
				hi = end
			}
			for p := lo; p < hi; p++ {
				values[p-start] = float64(iv.value)
			}
		}
	}
	return values, nil
}

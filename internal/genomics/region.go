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

// Package genomics contains definitions related to Genomic data.
package genomics

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidRegion is returned (possibly wrapped) for any malformed region.
var ErrInvalidRegion = errors.New("invalid region")

// Region defines a region of genomic interest.
type Region struct {
	// Chrom names the chromosome (or contig) the region lies on.
	Chrom string
	// Start and End specify the half-open range [Start, End) in base pairs.
	// If End is zero, it is treated as though it was set to the length of the
	// chromosome.
	Start, End uint32
}

// NewRegion returns a validated Region.
func NewRegion(chrom string, start, end uint32) (Region, error) {
	region := Region{Chrom: chrom, Start: start, End: end}
	if err := region.Validate(); err != nil {
		return Region{}, err
	}
	return region, nil
}

// Validate checks that the region names a chromosome and that, if End is
// set, it lies strictly after Start.
func (region Region) Validate() error {
	if region.Chrom == "" {
		return errors.Wrap(ErrInvalidRegion, "missing chromosome")
	}
	if region.End != 0 && region.End <= region.Start {
		return errors.Wrapf(ErrInvalidRegion, "%s: start >= end", region)
	}
	return nil
}

// ParseRegion parses strings of the form "chr1", "chr1:1000-2000" and
// "chr1:1,000,000-2,000,000".
func ParseRegion(input string) (Region, error) {
	input = strings.TrimSpace(input)
	colon := strings.LastIndex(input, ":")
	if colon < 0 {
		return NewRegion(input, 0, 0)
	}

	chrom, span := input[:colon], strings.Replace(input[colon+1:], ",", "", -1)
	dash := strings.Index(span, "-")
	if dash < 0 {
		return Region{}, errors.Wrapf(ErrInvalidRegion, "%q: missing end", input)
	}
	start, err := strconv.ParseUint(span[:dash], 10, 32)
	if err != nil {
		return Region{}, errors.Wrapf(ErrInvalidRegion, "parsing start: %v", err)
	}
	end, err := strconv.ParseUint(span[dash+1:], 10, 32)
	if err != nil {
		return Region{}, errors.Wrapf(ErrInvalidRegion, "parsing end: %v", err)
	}
	if end == 0 {
		return Region{}, errors.Wrapf(ErrInvalidRegion, "%q: zero end", input)
	}
	return NewRegion(chrom, uint32(start), uint32(end))
}

// Resolve returns a copy of region with a zero End replaced by length.
func (region Region) Resolve(length uint32) Region {
	if region.End == 0 || region.End > length {
		region.End = length
	}
	return region
}

// Width returns the number of base pairs covered by the region.
func (region Region) Width() uint32 {
	if region.End <= region.Start {
		return 0
	}
	return region.End - region.Start
}

// Overlaps reports whether [start, end) on chrom intersects the region.
func (region Region) Overlaps(chrom string, start, end uint32) bool {
	if chrom != region.Chrom {
		return false
	}
	if region.End != 0 && start >= region.End {
		return false
	}
	return end > region.Start
}

// Clip limits [start, end) to the region boundaries.
func (region Region) Clip(start, end uint32) (uint32, uint32) {
	if start < region.Start {
		start = region.Start
	}
	if region.End != 0 && end > region.End {
		end = region.End
	}
	return start, end
}

func (region Region) String() string {
	if region.End == 0 {
		return fmt.Sprintf("%s:%d-", region.Chrom, region.Start)
	}
	return fmt.Sprintf("%s:%d-%d", region.Chrom, region.Start, region.End)
}

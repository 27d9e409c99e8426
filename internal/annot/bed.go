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

// Package annot reads genomic annotations (BED intervals, bedGraph signal and
// GTF gene models) from tab-separated text.
package annot

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/googlegenomics/hicplot/internal/genomics"
	"github.com/pkg/errors"
)

// Interval is a half-open range of bases on a chromosome.
type Interval struct {
	Chrom      string
	Start, End uint32
	Name       string
	Value      float64
}

// skip reports whether line carries no record.
func skip(line string) bool {
	return line == "" || strings.HasPrefix(line, "#") ||
		strings.HasPrefix(line, "track") || strings.HasPrefix(line, "browser")
}

// scan calls fn with the tab-separated fields of every record line of r.
func scan(r io.Reader, fn func(line int, fields []string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if skip(text) {
			continue
		}
		if err := fn(line, strings.Split(text, "\t")); err != nil {
			return err
		}
	}
	return errors.Wrap(scanner.Err(), "reading input")
}

func parseSpan(line int, fields []string) (uint32, uint32, error) {
	if len(fields) < 3 {
		return 0, 0, errors.Errorf("line %d: expected at least 3 fields, found %d", line, len(fields))
	}
	start, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return 0, 0, errors.Errorf("line %d: malformed start %q", line, fields[1])
	}
	end, err := strconv.ParseUint(fields[2], 10, 32)
	if err != nil {
		return 0, 0, errors.Errorf("line %d: malformed end %q", line, fields[2])
	}
	return uint32(start), uint32(end), nil
}

// ReadBED returns the intervals of r that overlap region, clipped to it.
func ReadBED(r io.Reader, region genomics.Region) ([]Interval, error) {
	var intervals []Interval
	err := scan(r, func(line int, fields []string) error {
		start, end, err := parseSpan(line, fields)
		if err != nil {
			return err
		}
		if !region.Overlaps(fields[0], start, end) {
			return nil
		}
		iv := Interval{Chrom: fields[0]}
		iv.Start, iv.End = region.Clip(start, end)
		if len(fields) > 3 {
			iv.Name = fields[3]
		}
		intervals = append(intervals, iv)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return intervals, nil
}

// ReadBedGraph returns the (unclipped) records of r that overlap region.
func ReadBedGraph(r io.Reader, region genomics.Region) ([]Interval, error) {
	var intervals []Interval
	err := scan(r, func(line int, fields []string) error {
		start, end, err := parseSpan(line, fields)
		if err != nil {
			return err
		}
		if len(fields) < 4 {
			return errors.Errorf("line %d: missing value", line)
		}
		if !region.Overlaps(fields[0], start, end) {
			return nil
		}
		value, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return errors.Errorf("line %d: malformed value %q", line, fields[3])
		}
		intervals = append(intervals, Interval{Chrom: fields[0], Start: start, End: end, Value: value})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return intervals, nil
}

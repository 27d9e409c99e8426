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

package binary

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestExpectBytes(t *testing.T) {
	testCases := []struct {
		want  []byte
		input []byte
		match bool
	}{
		{[]byte("HIC\x00"), []byte("HIC\x00"), true},
		{[]byte("HIC\x00"), []byte("HIC\x00EXTRA"), true},
		{[]byte("HIC\x00"), []byte("HIC\x01"), false},
		{[]byte("HIC\x00"), []byte("HIC"), false},
		{[]byte("HIC\x00"), []byte(""), false},
	}

	for _, tc := range testCases {
		t.Run(string(tc.input), func(t *testing.T) {
			err := ExpectBytes(bytes.NewReader(tc.input), tc.want)
			if err != nil && tc.match {
				t.Fatalf("ExpectBytes returned unexpected error: %v", err)
			} else if err == nil && !tc.match {
				t.Fatalf("ExpectBytes accepted mismatched input %v", tc.input)
			}
		})
	}
}

func TestReader(t *testing.T) {
	var buffer bytes.Buffer
	binary.Write(&buffer, binary.BigEndian, int32(-7))
	buffer.WriteString("chr1\x00")
	buffer.WriteString("ab\x00\x00")
	binary.Write(&buffer, binary.BigEndian, float64(2.5))

	r := NewReader(&buffer, binary.BigEndian)
	var n int32
	if err := r.Read(&n); err != nil || n != -7 {
		t.Fatalf("Read() = %d, %v; want -7", n, err)
	}
	if s, err := r.CString(); err != nil || s != "chr1" {
		t.Fatalf("CString() = %q, %v; want chr1", s, err)
	}
	if s, err := r.FixedString(4); err != nil || s != "ab" {
		t.Fatalf("FixedString() = %q, %v; want ab", s, err)
	}
	var f float64
	if err := r.Read(&f); err != nil || f != 2.5 {
		t.Fatalf("Read() = %v, %v; want 2.5", f, err)
	}
	if got, want := r.Offset(), int64(4+5+4+8); got != want {
		t.Fatalf("Offset() = %d, want %d", got, want)
	}
	if _, err := r.CString(); err == nil {
		t.Fatalf("CString() at EOF returned no error")
	}
}

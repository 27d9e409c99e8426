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

// Package binary provides support for operating on binary data.
package binary

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// maximumStringLength guards against arbitrarily long allocations when a
// malformed file is missing its null terminator.
const maximumStringLength = 1 << 16

// ExpectBytes checks that the next bytes read from r match want.
func ExpectBytes(r io.Reader, want []byte) error {
	got := make([]byte, len(want))
	if _, err := io.ReadFull(r, got); err != nil {
		return errors.Wrap(err, "reading magic")
	}
	if !bytes.Equal(got, want) {
		return errors.Errorf("wrong magic %v (wanted %v)", got, want)
	}
	return nil
}

// Read reads a little endian value from r into v using binary.Read.
func Read(r io.Reader, v interface{}) error {
	return binary.Read(r, binary.LittleEndian, v)
}

// Reader reads fixed-size values in a single byte order.  The reader is
// buffered, so callers must not read from the underlying source directly.
type Reader struct {
	r     *bufio.Reader
	order binary.ByteOrder
	n     int64
}

// NewReader returns a Reader decoding values from r using order.
func NewReader(r io.Reader, order binary.ByteOrder) *Reader {
	return &Reader{r: bufio.NewReader(r), order: order}
}

// NewSectionReader returns a Reader positioned at offset within r.
func NewSectionReader(r io.ReaderAt, offset, size int64, order binary.ByteOrder) *Reader {
	return NewReader(io.NewSectionReader(r, offset, size), order)
}

// Read decodes the next value into v.
func (r *Reader) Read(v interface{}) error {
	if err := binary.Read(r.r, r.order, v); err != nil {
		return err
	}
	r.n += int64(binary.Size(v))
	return nil
}

// Expect checks that the next bytes match want.
func (r *Reader) Expect(want []byte) error {
	if err := ExpectBytes(r.r, want); err != nil {
		return err
	}
	r.n += int64(len(want))
	return nil
}

// Skip discards n bytes.
func (r *Reader) Skip(n int64) error {
	m, err := io.CopyN(io.Discard, r.r, n)
	r.n += m
	return err
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int64 {
	return r.n
}

// CString reads a null-terminated string.
func (r *Reader) CString() (string, error) {
	var buffer bytes.Buffer
	for {
		b, err := r.r.ReadByte()
		if err != nil {
			return "", errors.Wrap(err, "reading string")
		}
		r.n++
		if b == 0 {
			return buffer.String(), nil
		}
		if buffer.Len() >= maximumStringLength {
			return "", errors.New("unterminated string")
		}
		buffer.WriteByte(b)
	}
}

// FixedString reads an n byte field and strips trailing null padding.
func (r *Reader) FixedString(n int) (string, error) {
	data := make([]byte, n)
	if _, err := io.ReadFull(r.r, data); err != nil {
		return "", errors.Wrap(err, "reading fixed string")
	}
	r.n += int64(n)
	return string(bytes.TrimRight(data, "\x00")), nil
}

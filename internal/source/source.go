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

// Package source opens input files for random and sequential access, either
// from the local file system or from Google Cloud Storage (gs:// URLs).
package source

import (
	"bufio"
	"compress/gzip"
	"context"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

const gcsScheme = "gs://"

// File provides random access to an input.
type File interface {
	io.ReaderAt
	io.Closer
	// Size returns the total size of the input in bytes.
	Size() int64
}

// Opener opens inputs.  The zero value opens local files only; use
// WithStorage to enable gs:// URLs.
type Opener struct {
	storage *StorageClient
}

// WithStorage returns an Opener that resolves gs:// URLs using client.
func WithStorage(client *StorageClient) *Opener {
	return &Opener{storage: client}
}

// IsRemote reports whether path refers to a Cloud Storage object.
func IsRemote(path string) bool {
	return strings.HasPrefix(path, gcsScheme)
}

// Open opens path for random access.
func (o *Opener) Open(ctx context.Context, path string) (File, error) {
	if IsRemote(path) {
		if o == nil || o.storage == nil {
			return nil, errors.Errorf("%s: cloud storage access is not configured", path)
		}
		bucket, object, err := ParseURL(path)
		if err != nil {
			return nil, err
		}
		return o.storage.Open(ctx, bucket, object)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "reading file size")
	}
	return &localFile{f, info.Size()}, nil
}

// OpenReader opens path for sequential reading.  Paths ending in .gz are
// decompressed transparently (this includes BGZF compressed files).
func (o *Opener) OpenReader(ctx context.Context, path string) (io.ReadCloser, error) {
	f, err := o.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	var r io.Reader = bufio.NewReader(io.NewSectionReader(f, 0, f.Size()))
	if strings.HasSuffix(path, ".gz") {
		gzr, err := gzip.NewReader(r)
		if err != nil {
			f.Close()
			return nil, errors.Wrap(err, "initializing gzip reader")
		}
		r = gzr
	}
	return readCloser{r, f}, nil
}

// ParseURL splits a gs://bucket/object URL into its parts.
func ParseURL(path string) (string, string, error) {
	trimmed := strings.TrimPrefix(path, gcsScheme)
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.Errorf("%q: invalid storage URL", path)
	}
	return parts[0], parts[1], nil
}

type localFile struct {
	*os.File
	size int64
}

func (f *localFile) Size() int64 {
	return f.size
}

type readCloser struct {
	io.Reader
	io.Closer
}

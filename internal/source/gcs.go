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

package source

import (
	"context"
	"io"
	"net/http"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

var (
	// ErrNotFound is returned when a storage object does not exist.
	ErrNotFound = errors.New("object does not exist")
	// ErrPermissionDenied is returned when storage rejects the credentials.
	ErrPermissionDenied = errors.New("permission denied")

	errMissingOrInvalidToken = errors.New("missing or invalid token")
)

// StorageClient reads objects from Google Cloud Storage.
type StorageClient struct {
	client *storage.Client
}

// NewDefaultClient returns a storage client that uses the application default
// credentials.
func NewDefaultClient(ctx context.Context) (*StorageClient, error) {
	return newClientWithOptions(ctx)
}

// NewPublicClient returns a storage client that does not use any form of
// client authorization.  It can only be used to read publicly-readable
// objects.
func NewPublicClient(ctx context.Context) (*StorageClient, error) {
	return newClientWithOptions(ctx, option.WithoutAuthentication())
}

// NewClientFromBearerToken constructs a storage client that uses the OAuth2
// bearer token found in req to make storage requests.
func NewClientFromBearerToken(req *http.Request) (*StorageClient, error) {
	fields := strings.Split(req.Header.Get("Authorization"), " ")
	if len(fields) != 2 || fields[0] != "Bearer" {
		return nil, newStorageError(errMissingOrInvalidToken)
	}

	token := oauth2.Token{
		TokenType:   fields[0],
		AccessToken: fields[1],
	}
	return newClientWithOptions(req.Context(), option.WithTokenSource(oauth2.StaticTokenSource(&token)))
}

func newClientWithOptions(ctx context.Context, opts ...option.ClientOption) (*StorageClient, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "creating storage client")
	}
	return &StorageClient{client}, nil
}

// Open returns a File reading the named object with ranged requests.
func (c *StorageClient) Open(ctx context.Context, bucket, object string) (File, error) {
	handle := c.client.Bucket(bucket).Object(object)
	attrs, err := handle.Attrs(ctx)
	if err != nil {
		return nil, newStorageError(err)
	}
	return &gcsObject{ctx: ctx, handle: handle, size: attrs.Size}, nil
}

// Close releases the underlying client.
func (c *StorageClient) Close() error {
	return c.client.Close()
}

type gcsObject struct {
	ctx    context.Context
	handle *storage.ObjectHandle
	size   int64
}

func (o *gcsObject) ReadAt(p []byte, offset int64) (int, error) {
	if offset >= o.size {
		return 0, io.EOF
	}
	length := int64(len(p))
	if offset+length > o.size {
		length = o.size - offset
	}
	r, err := o.handle.NewRangeReader(o.ctx, offset, length)
	if err != nil {
		return 0, newStorageError(err)
	}
	defer r.Close()

	n, err := io.ReadFull(r, p[:length])
	if err == nil && int(length) < len(p) {
		err = io.EOF
	}
	return n, err
}

func (o *gcsObject) Size() int64 {
	return o.size
}

func (o *gcsObject) Close() error {
	return nil
}

func newStorageError(err error) error {
	if err == errMissingOrInvalidToken {
		return errors.Wrap(ErrPermissionDenied, err.Error())
	}
	if err == storage.ErrObjectNotExist || err == storage.ErrBucketNotExist {
		return errors.Wrap(ErrNotFound, err.Error())
	}
	if err, ok := err.(*googleapi.Error); ok {
		switch err.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return errors.Wrap(ErrPermissionDenied, err.Error())
		case http.StatusNotFound:
			return errors.Wrap(ErrNotFound, err.Error())
		}
	}
	return errors.Wrap(err, "reading storage object")
}

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

package server

import (
	"fmt"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/googlegenomics/hicplot/internal/bigwig"
	"github.com/googlegenomics/hicplot/internal/contact"
	"github.com/googlegenomics/hicplot/internal/genomics"
	"github.com/googlegenomics/hicplot/internal/hic"
	"github.com/googlegenomics/hicplot/internal/hicpro"
	"github.com/googlegenomics/hicplot/internal/signal"
	"github.com/googlegenomics/hicplot/internal/source"
	"github.com/pkg/errors"
)

// apiError is an error with a name and status code reported to clients.
type apiError struct {
	name  string
	code  int
	cause error
}

func (err *apiError) Error() string {
	return fmt.Sprintf("%s (%d): %v", err.name, err.code, err.cause)
}

func (err *apiError) Cause() error  { return err.cause }
func (err *apiError) Unwrap() error { return err.cause }

func newAPIError(name string, code int, context string, err error) error {
	return &apiError{name, code, errors.Wrap(err, context)}
}

func newInvalidInputError(context string, err error) error {
	return newAPIError("InvalidInput", http.StatusBadRequest, context, err)
}

func newPermissionDeniedError(context string, err error) error {
	return newAPIError("PermissionDenied", http.StatusForbidden, context, err)
}

func newNotFoundError(context string, err error) error {
	return newAPIError("NotFound", http.StatusNotFound, context, err)
}

// badInput lists the errors caused by the request rather than the server.
var badInput = []error{
	genomics.ErrInvalidRegion,
	hic.ErrUnknownChromosome,
	hic.ErrResolutionNotFound,
	hic.ErrNormalizationNotFound,
	hicpro.ErrUnknownChromosome,
	bigwig.ErrUnknownChromosome,
	contact.ErrUnknownFormat,
	signal.ErrUnsupportedFormat,
}

// classify returns err as an *apiError when its cause is known, or nil.
func classify(err error) *apiError {
	var known *apiError
	if errors.As(err, &known) {
		return known
	}
	switch {
	case errors.Is(err, source.ErrPermissionDenied):
		return newPermissionDeniedError("reading input", err).(*apiError)
	case errors.Is(err, source.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return newNotFoundError("reading input", err).(*apiError)
	}
	for _, target := range badInput {
		if errors.Is(err, target) {
			return newInvalidInputError("drawing figure", err).(*apiError)
		}
	}
	return nil
}

// writeError attaches err to the request and writes either a JSON object
// naming the error or a bare internal server error.
func writeError(c *gin.Context, err error) {
	c.Error(err)
	if known := classify(err); known != nil {
		c.AbortWithStatusJSON(known.code, gin.H{
			"error":   known.name,
			"message": fmt.Sprintf("%s: %v", http.StatusText(known.code), known.cause),
		})
		return
	}
	c.Abort()
	c.String(http.StatusInternalServerError, "%s: %v", http.StatusText(http.StatusInternalServerError), err)
}

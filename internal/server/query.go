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
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/googlegenomics/hicplot/internal/config"
	"github.com/googlegenomics/hicplot/internal/contact"
	"github.com/googlegenomics/hicplot/internal/genomics"
	"github.com/googlegenomics/hicplot/internal/plots"
	"github.com/googlegenomics/hicplot/internal/render"
	"github.com/googlegenomics/hicplot/internal/signal"
	"github.com/pkg/errors"
)

// contentTypes lists the figure formats served and their media types.
var contentTypes = map[string]string{
	"png": "image/png",
	"svg": "image/svg+xml",
	"pdf": "application/pdf",
}

var (
	errMissingRegion = errors.New("missing region")
	errMissingFile   = errors.New("missing file")
	errMissingTracks = errors.New("no tracks requested")
)

func parseFormat(c *gin.Context) (string, error) {
	format := strings.ToLower(c.DefaultQuery("format", "png"))
	if _, ok := contentTypes[format]; !ok {
		return "", errors.Errorf("unsupported format %q; use png, svg or pdf", format)
	}
	return format, nil
}

func parseRegion(c *gin.Context) (genomics.Region, error) {
	input := c.Query("region")
	if input == "" {
		return genomics.Region{}, errMissingRegion
	}
	return genomics.ParseRegion(input)
}

func parseLayout(c *gin.Context) (signal.Layout, error) {
	return signal.ParseLayout(c.DefaultQuery("layout", string(signal.Vertical)))
}

func parseFloat(c *gin.Context, key string, fallback float64) (float64, error) {
	value := c.Query(key)
	if value == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing %s", key)
	}
	return f, nil
}

func parseOptionalFloat(c *gin.Context, key string) (*float64, error) {
	if _, ok := c.GetQuery(key); !ok {
		return nil, nil
	}
	f, err := parseFloat(c, key, 0)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func parseBool(c *gin.Context, key string) (bool, error) {
	value := c.Query(key)
	if value == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(value)
	return b, errors.Wrapf(err, "parsing %s", key)
}

func parseMatrix(c *gin.Context) (plots.MatrixOptions, error) {
	var (
		opts plots.MatrixOptions
		err  error
	)
	if value := c.Query("resolution"); value != "" {
		n, err := strconv.ParseInt(value, 10, 32)
		if err != nil {
			return opts, errors.Wrap(err, "parsing resolution")
		}
		opts.Resolution = int32(n)
	}
	opts.Norm = contact.Normalization(strings.ToUpper(c.Query("norm")))
	if opts.Log, err = parseBool(c, "log"); err != nil {
		return opts, err
	}
	if opts.Percentile, err = parseFloat(c, "percentile", 0); err != nil {
		return opts, err
	}
	if opts.VMin, err = parseOptionalFloat(c, "vmin"); err != nil {
		return opts, err
	}
	opts.VMax, err = parseOptionalFloat(c, "vmax")
	return opts, err
}

func parseColormap(c *gin.Context, fallback string) (string, error) {
	name := c.DefaultQuery("cmap", fallback)
	if _, err := render.Colormap(name); err != nil {
		return "", err
	}
	return name, nil
}

// parseTracks reads the signal, bed, signal2, bed2 and genes parameters.
// Sample 2 parameters are rejected unless samples is 2.
func parseTracks(c *gin.Context, samples int) (config.Tracks, error) {
	var tracks config.Tracks
	for sample := 1; sample <= 2; sample++ {
		suffix := ""
		if sample == 2 {
			suffix = "2"
		}
		for _, kind := range []config.Kind{config.Signal, config.BED} {
			files := c.QueryArray(string(kind) + suffix)
			if len(files) > 0 && sample > samples {
				return nil, errors.Errorf("%s%s: sample %d is not drawn", kind, suffix, sample)
			}
			for _, file := range files {
				tracks = append(tracks, config.Track{Kind: kind, File: file, Sample: sample})
			}
		}
	}
	if genes := c.Query("genes"); genes != "" {
		tracks = append(tracks, config.Track{Kind: config.Genes, File: genes})
	}
	if err := tracks.Validate(); err != nil {
		return nil, err
	}
	return tracks, nil
}

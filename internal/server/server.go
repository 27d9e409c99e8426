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

// Package server serves contact heatmaps and genomic track figures over HTTP.
package server

import (
	"bytes"
	"context"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/googlegenomics/hicplot/internal/analytics"
	"github.com/googlegenomics/hicplot/internal/config"
	"github.com/googlegenomics/hicplot/internal/contact"
	"github.com/googlegenomics/hicplot/internal/hicpro"
	"github.com/googlegenomics/hicplot/internal/plots"
	"github.com/googlegenomics/hicplot/internal/render"
	"github.com/googlegenomics/hicplot/internal/source"
	"github.com/pkg/errors"
)

const (
	heatmapPath = "/heatmap"
	tracksPath  = "/tracks"
	infoPath    = "/info"
)

// Server draws figures from files below a local directory and from Cloud
// Storage buckets.  To create a properly initialized Server, use New.
type Server struct {
	directory        string
	newStorageClient func(*http.Request) (*source.StorageClient, error)
	whitelist        map[string]bool
}

// New returns a Server reading relative paths below directory and gs://
// URLs with clients returned by newStorageClient.  Local files are refused
// when directory is empty.
func New(directory string, newStorageClient func(*http.Request) (*source.StorageClient, error)) *Server {
	if directory != "" {
		directory = filepath.Clean(directory)
	}
	return &Server{directory: directory, newStorageClient: newStorageClient}
}

// Whitelist restricts the server to the provided Cloud Storage buckets.  An
// empty list allows every bucket.
func (server *Server) Whitelist(buckets []string) {
	server.whitelist = make(map[string]bool)
	for _, bucket := range buckets {
		server.whitelist[bucket] = true
	}
}

// Export registers the figure handlers with router.
func (server *Server) Export(router gin.IRoutes) {
	router.GET(heatmapPath, server.serveHeatmap)
	router.GET(tracksPath, server.serveTracks)
	router.GET(infoPath, server.serveInfo)
}

// RequestLogger tags every response with an X-Request-Id header and logs
// the request once it has been handled.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.New().String()
		c.Header("X-Request-Id", id)
		if origin := c.GetHeader("Origin"); origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
		}
		start := time.Now()
		c.Next()

		entry := log.WithFields(log.Fields{
			"id":       id,
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		})
		if err := c.Errors.Last(); err != nil {
			entry.WithError(err).Warn("request failed")
			return
		}
		entry.Info("request")
	}
}

func (server *Server) serveHeatmap(c *gin.Context) {
	files := c.QueryArray("file")
	if len(files) == 0 || len(files) > 2 {
		writeError(c, newInvalidInputError("parsing file", errors.Wrapf(errMissingFile, "expected one or two files, got %d", len(files))))
		return
	}
	opts := plots.HeatmapOptions{Files: files, Titles: c.QueryArray("title")}

	var err error
	if opts.Region, err = parseRegion(c); err != nil {
		writeError(c, newInvalidInputError("parsing region", err))
		return
	}
	if opts.Matrix, err = parseMatrix(c); err != nil {
		writeError(c, newInvalidInputError("parsing matrix options", err))
		return
	}
	if opts.Colormap, err = parseColormap(c, render.DefaultColormap); err != nil {
		writeError(c, newInvalidInputError("parsing cmap", err))
		return
	}
	if opts.Triangle, err = parseBool(c, "triangle"); err != nil {
		writeError(c, newInvalidInputError("parsing triangle", err))
		return
	}
	if depth := c.Query("depth"); depth != "" {
		n, err := strconv.ParseUint(depth, 10, 32)
		if err != nil {
			writeError(c, newInvalidInputError("parsing depth", err))
			return
		}
		opts.Depth = uint32(n)
	}
	if opts.TrackSize, err = parseFloat(c, "size", plots.DefaultTrackSize); err != nil {
		writeError(c, newInvalidInputError("parsing size", err))
		return
	}
	if opts.Layout, err = parseLayout(c); err != nil {
		writeError(c, newInvalidInputError("parsing layout", err))
		return
	}
	if opts.Tracks, err = parseTracks(c, len(files)); err != nil {
		writeError(c, newInvalidInputError("parsing tracks", err))
		return
	}
	format, err := parseFormat(c)
	if err != nil {
		writeError(c, newInvalidInputError("parsing format", err))
		return
	}

	kind := "SquHeatmap"
	if opts.Triangle {
		kind = "TriHeatmap"
	}
	paths := append(append([]string{}, files...), opts.Tracks.Files()...)
	server.serveFigure(c, kind, format, paths, func(ctx context.Context, opener *source.Opener, resolved []string) (*render.Figure, error) {
		opts.Files = resolved[:len(files)]
		opts.Tracks = relocate(opts.Tracks, resolved[len(files):])
		return plots.Heatmaps(ctx, opener, opts)
	})
}

func (server *Server) serveTracks(c *gin.Context) {
	var (
		opts plots.TrackOptions
		err  error
	)
	if opts.Region, err = parseRegion(c); err != nil {
		writeError(c, newInvalidInputError("parsing region", err))
		return
	}
	if opts.Region.End == 0 {
		writeError(c, newInvalidInputError("parsing region", errors.Errorf("%s: missing end", opts.Region)))
		return
	}
	if opts.Tracks, err = parseTracks(c, 2); err != nil {
		writeError(c, newInvalidInputError("parsing tracks", err))
		return
	}
	if len(opts.Tracks) == 0 {
		writeError(c, newInvalidInputError("parsing tracks", errMissingTracks))
		return
	}
	if opts.Layout, err = parseLayout(c); err != nil {
		writeError(c, newInvalidInputError("parsing layout", err))
		return
	}
	for key, dst := range map[string]*float64{"width": &opts.Width, "height": &opts.Height, "spacing": &opts.Spacing} {
		if *dst, err = parseFloat(c, key, 0); err != nil {
			writeError(c, newInvalidInputError("parsing "+key, err))
			return
		}
	}
	format, err := parseFormat(c)
	if err != nil {
		writeError(c, newInvalidInputError("parsing format", err))
		return
	}

	server.serveFigure(c, "NGStrack", format, opts.Tracks.Files(), func(ctx context.Context, opener *source.Opener, resolved []string) (*render.Figure, error) {
		opts.Tracks = relocate(opts.Tracks, resolved)
		return plots.Tracks(ctx, opener, opts)
	})
}

type chromosome struct {
	Name   string `json:"name"`
	Length int64  `json:"length"`
}

type summary struct {
	File           string                  `json:"file"`
	Format         string                  `json:"format"`
	Genome         string                  `json:"genome,omitempty"`
	Chromosomes    []chromosome            `json:"chromosomes"`
	Resolutions    []int32                 `json:"resolutions"`
	Normalizations []contact.Normalization `json:"normalizations"`
}

func (server *Server) serveInfo(c *gin.Context) {
	files := c.QueryArray("file")
	if len(files) == 0 {
		writeError(c, newInvalidInputError("parsing file", errMissingFile))
		return
	}
	ctx := c.Request.Context()
	resolved, opener, done, err := server.open(c.Request, files)
	if err != nil {
		writeError(c, err)
		return
	}
	defer done()

	summaries := make([]summary, len(files))
	for i, path := range resolved {
		m, err := contact.Open(ctx, opener, path)
		if err != nil {
			writeError(c, errors.Wrapf(err, "opening %s", files[i]))
			return
		}
		info := m.Info()
		m.Close()

		summaries[i] = summary{
			File:           files[i],
			Format:         info.Format,
			Genome:         info.Genome,
			Resolutions:    info.Resolutions,
			Normalizations: info.Normalizations,
		}
		for j, name := range info.Chromosomes {
			summaries[i].Chromosomes = append(summaries[i].Chromosomes, chromosome{name, info.Lengths[j]})
		}
	}
	c.JSON(http.StatusOK, summaries)
}

// serveFigure resolves paths, draws the figure and writes it in format.
func (server *Server) serveFigure(c *gin.Context, kind, format string, paths []string, draw func(context.Context, *source.Opener, []string) (*render.Figure, error)) {
	resolved, opener, done, err := server.open(c.Request, paths)
	if err != nil {
		writeError(c, err)
		return
	}
	defer done()

	fig, err := draw(c.Request.Context(), opener, resolved)
	if err != nil {
		writeError(c, err)
		return
	}
	var body bytes.Buffer
	if err := fig.WriteTo(&body, format); err != nil {
		writeError(c, errors.Wrap(err, "rendering figure"))
		return
	}

	rows, cols := fig.Dims()
	analytics.TrackerFromContext(c.Request.Context())(analytics.Figure(kind, format, rows*cols))
	c.Data(http.StatusOK, contentTypes[format], body.Bytes())
}

// open checks and resolves every path and returns an opener able to read
// them.  done releases the opener.
func (server *Server) open(req *http.Request, paths []string) ([]string, *source.Opener, func(), error) {
	resolved := make([]string, len(paths))
	remote := false
	for i, path := range paths {
		var err error
		if resolved[i], err = server.resolve(path); err != nil {
			return nil, nil, nil, err
		}
		remote = remote || isRemote(resolved[i])
	}
	if !remote {
		return resolved, &source.Opener{}, func() {}, nil
	}

	client, err := server.newStorageClient(req)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "creating storage client")
	}
	return resolved, source.WithStorage(client), func() { client.Close() }, nil
}

// resolve maps a requested path to gs:// URLs in whitelisted buckets or to
// files below the served directory.  Both halves of a "matrix::bins" pair
// are checked.
func (server *Server) resolve(path string) (string, error) {
	parts := strings.SplitN(path, hicpro.Separator, 2)
	for i, part := range parts {
		resolved, err := server.resolvePart(part)
		if err != nil {
			return "", err
		}
		parts[i] = resolved
	}
	return strings.Join(parts, hicpro.Separator), nil
}

func (server *Server) resolvePart(path string) (string, error) {
	if source.IsRemote(path) {
		bucket, _, err := source.ParseURL(path)
		if err != nil {
			return "", newInvalidInputError("parsing file", err)
		}
		if err := server.checkWhitelist(bucket); err != nil {
			return "", newPermissionDeniedError("checking whitelist", err)
		}
		return path, nil
	}

	if server.directory == "" {
		return "", newPermissionDeniedError(path, errors.New("local files are not served"))
	}
	if filepath.IsAbs(path) {
		return "", newPermissionDeniedError(path, errors.New("paths must be relative to the served directory"))
	}
	full := filepath.Join(server.directory, filepath.FromSlash(path))
	rel, err := filepath.Rel(server.directory, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", newPermissionDeniedError(path, errors.New("path is outside of the served directory"))
	}
	return full, nil
}

// isRemote reports whether any half of a resolved path is a gs:// URL.
func isRemote(path string) bool {
	for _, part := range strings.SplitN(path, hicpro.Separator, 2) {
		if source.IsRemote(part) {
			return true
		}
	}
	return false
}

func (server *Server) checkWhitelist(bucket string) error {
	if len(server.whitelist) == 0 || server.whitelist[bucket] {
		return nil
	}
	return errors.Errorf("access to bucket %s is not allowed", bucket)
}

// relocate returns a copy of tracks reading from files.  Labels keep the
// requested names.
func relocate(tracks config.Tracks, files []string) config.Tracks {
	moved := make(config.Tracks, len(tracks))
	copy(moved, tracks)
	for i := range moved {
		moved[i].File = files[i]
	}
	return moved
}

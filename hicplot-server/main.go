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

// This binary serves contact heatmaps and genomic tracks of files in a local
// directory or in Cloud Storage.
package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/googlegenomics/hicplot/internal/analytics"
	"github.com/googlegenomics/hicplot/internal/cli"
	"github.com/googlegenomics/hicplot/internal/server"
	"github.com/googlegenomics/hicplot/internal/source"
	"github.com/pkg/errors"
)

const shutdownTimeout = 10 * time.Second

var (
	app = cli.New("hicplot-server", "Serve Hi-C heatmaps and genomic tracks over HTTP.")

	port      = app.Flag("port", "HTTP service port.").Default("8080").Int()
	directory = app.Flag("directory", "Serve files below this directory.").ExistingDir()
	buckets   = app.List("buckets", "If set, restricts gs:// reads to these buckets.")

	secure    = app.Flag("secure", "Serve in HTTPS-only mode and forward client bearer tokens.").Bool()
	httpsCert = app.Flag("https_cert", "HTTPS certificate file.").ExistingFile()
	httpsKey  = app.Flag("https_key", "HTTPS key file.").ExistingFile()

	// If enabled, the kind and format of every figure served is reported
	// anonymously through Google Analytics.
	trackUsage = app.Flag("track_usage", "Anonymous usage tracking.").Bool()
)

func main() {
	app.Main(run)
}

func run(ctx context.Context) error {
	if *secure && (*httpsCert == "" || *httpsKey == "") {
		return errors.New("--https_cert and --https_key are required in secure mode")
	}

	newStorageClient := func(req *http.Request) (*source.StorageClient, error) {
		return source.NewPublicClient(req.Context())
	}
	if *secure {
		newStorageClient = source.NewClientFromBearerToken
	}

	srv := server.New(*directory, newStorageClient)
	srv.Whitelist(*buckets)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), server.RequestLogger())
	if *trackUsage {
		log.Info("enabling anonymous usage tracking")
		client := analytics.NewClient("UA-103022118-1", uuid.New().String())
		router.Use(analytics.Middleware(func(hits []analytics.Hit) {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := client.Send(ctx, hits); err != nil {
				log.WithError(err).Warnf("failed to send %d hits to analytics", len(hits))
			}
		}))
	}
	srv.Export(router)

	httpServer := &http.Server{Addr: fmt.Sprintf(":%d", *port), Handler: router}
	errc := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{"address": httpServer.Addr, "secure": *secure}).Info("serving")
		if *secure {
			errc <- httpServer.ListenAndServeTLS(*httpsCert, *httpsKey)
		} else {
			errc <- httpServer.ListenAndServe()
		}
	}()

	select {
	case err := <-errc:
		return errors.Wrap(err, "serving")
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdown, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdown)
}

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

// Package cli holds the flag groups and the process lifecycle shared by the
// hicplot binaries.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/apex/log"
	logcli "github.com/apex/log/handlers/cli"
	"github.com/googlegenomics/hicplot/internal/source"
	"github.com/pkg/errors"
	"github.com/pkg/profile"
)

// Version is reported by --version.  Release builds override it with
// -ldflags "-X github.com/googlegenomics/hicplot/internal/cli.Version=...".
var Version = "0.1.0"

// App is a single-command kingpin application.
type App struct {
	*kingpin.Application

	verbose   *bool
	profile   *string
	anonymous *bool
}

// New returns an application with --verbose, --profile and -V/--version.
func New(name, help string) *App {
	app := &App{Application: kingpin.New(name, help)}
	app.HelpFlag.Short('h')
	app.Version(fmt.Sprintf("%s %s", name, Version))
	app.VersionFlag.Short('V')
	app.verbose = app.Flag("verbose", "Enable verbose log output.").Short('v').Bool()
	app.profile = app.Flag("profile", "Write a CPU profile to this directory.").PlaceHolder("DIR").String()
	app.anonymous = app.Flag("gcs_anonymous", "Read gs:// inputs without credentials.").Envar("HICPLOT_GCS_ANONYMOUS").Bool()

	app.PreAction(func(*kingpin.ParseContext) error {
		log.SetHandler(logcli.Default)
		if *app.verbose {
			log.SetLevel(log.DebugLevel)
			log.Debugf("%s version %s", name, Version)
		}
		return nil
	})
	return app
}

// Run parses args and calls action with a context that is cancelled on
// SIGINT or SIGTERM.
func (app *App) Run(args []string, action func(ctx context.Context) error) error {
	if _, err := app.Parse(args); err != nil {
		return err
	}

	if *app.profile != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(*app.profile), profile.Quiet).Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return action(ctx)
}

// Main runs the application on the process arguments and exits with status 1
// if it fails.
func (app *App) Main(action func(ctx context.Context) error) {
	if err := app.Run(os.Args[1:], action); err != nil {
		log.WithError(err).Errorf("%s failed", app.Name)
		os.Exit(1)
	}
}

// Opener returns an opener for the inputs.  gs:// paths are only resolved
// when needed, using default credentials unless --gcs_anonymous is set.
func (app *App) Opener(ctx context.Context, paths ...string) (*source.Opener, error) {
	remote := false
	for _, path := range paths {
		remote = remote || source.IsRemote(path)
	}
	if !remote {
		return &source.Opener{}, nil
	}

	newClient := source.NewDefaultClient
	if *app.anonymous {
		newClient = source.NewPublicClient
	}
	client, err := newClient(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to cloud storage")
	}
	return source.WithStorage(client), nil
}

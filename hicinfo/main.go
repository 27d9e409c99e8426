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

// This binary prints the chromosomes, resolutions and normalizations stored
// in contact matrix files, as a YAML document per file.
package main

import (
	"context"
	"io"
	"os"

	"github.com/googlegenomics/hicplot/internal/cli"
	"github.com/googlegenomics/hicplot/internal/contact"
	"github.com/googlegenomics/hicplot/internal/source"
	"gopkg.in/yaml.v2"
)

var (
	app   = cli.New("hicinfo", "Describe .hic and HiC-Pro contact matrix files.")
	files = app.Arg("files", "Contact matrix files.").Required().Strings()
)

type chromosome struct {
	Name   string `yaml:"name"`
	Length int64  `yaml:"length"`
}

type summary struct {
	File           string                  `yaml:"file"`
	Format         string                  `yaml:"format"`
	Genome         string                  `yaml:"genome,omitempty"`
	Chromosomes    []chromosome            `yaml:"chromosomes"`
	Resolutions    []int32                 `yaml:"resolutions"`
	Normalizations []contact.Normalization `yaml:"normalizations"`
}

func main() {
	app.Main(func(ctx context.Context) error {
		opener, err := app.Opener(ctx, *files...)
		if err != nil {
			return err
		}
		return describe(ctx, opener, *files, os.Stdout)
	})
}

func describe(ctx context.Context, opener *source.Opener, paths []string, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	for _, path := range paths {
		m, err := contact.Open(ctx, opener, path)
		if err != nil {
			return err
		}
		info := m.Info()
		m.Close()

		s := summary{
			File:           path,
			Format:         info.Format,
			Genome:         info.Genome,
			Resolutions:    info.Resolutions,
			Normalizations: info.Normalizations,
		}
		for i, name := range info.Chromosomes {
			s.Chromosomes = append(s.Chromosomes, chromosome{name, info.Lengths[i]})
		}
		if err := enc.Encode(s); err != nil {
			return err
		}
	}
	return nil
}

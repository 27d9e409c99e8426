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

// Package render draws Hi-C heatmaps and genomic tracks with gonum/plot and
// assembles them into multi-panel figures.
package render

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/image/colornames"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
)

// FontSize is the size of every title, label and tick label.
var FontSize = vg.Points(8)

// newPlot returns a plot whose text uses FontSize.
func newPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = FontSize
	p.Title.Padding = vg.Points(2)
	for _, axis := range []*plot.Axis{&p.X, &p.Y} {
		axis.Label.TextStyle.Font.Size = FontSize
		axis.Tick.Label.Font.Size = FontSize
		axis.Padding = 0
	}
	return p
}

// MbTicks labels genomic positions in megabases with two decimals.
type MbTicks struct{}

var _ plot.Ticker = MbTicks{}

// Ticks implements plot.Ticker.
func (MbTicks) Ticks(min, max float64) []plot.Tick {
	ticks := plot.DefaultTicks{}.Ticks(min, max)
	for i := range ticks {
		if ticks[i].Label != "" {
			ticks[i].Label = FormatMb(ticks[i].Value)
		}
	}
	return ticks
}

// FormatMb formats a base pair position in megabases.
func FormatMb(position float64) string {
	return fmt.Sprintf("%.2f", position/1e6)
}

// genomicAxis sets a to span [start, end] with megabase ticks.
func genomicAxis(a *plot.Axis, start, end float64) {
	a.Min, a.Max = start, end
	a.Tick.Marker = MbTicks{}
}

// ParseColor accepts "#rgb", "#rrggbb", "#rrggbbaa", SVG color names and the
// single letter matplotlib shorthands.
func ParseColor(input string) (color.Color, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	if short, ok := shorthands[s]; ok {
		s = short
	}
	if c, ok := colornames.Map[s]; ok {
		return c, nil
	}
	if !strings.HasPrefix(s, "#") {
		return nil, errors.Errorf("unknown color %q", input)
	}

	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return nil, errors.Errorf("malformed color %q", input)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, errors.Errorf("malformed color %q", input)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

var shorthands = map[string]string{
	"b": "blue",
	"g": "green",
	"r": "red",
	"c": "cyan",
	"m": "magenta",
	"y": "yellow",
	"k": "black",
	"w": "white",
}

// withAlpha returns c with its opacity scaled by alpha.
func withAlpha(c color.Color, alpha float64) color.Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	n.A = uint8(float64(n.A) * alpha)
	return n
}

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

package render

import (
	"image/color"
	"math"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/palette/moreland"
)

// Default colormap names.
const (
	DefaultColormap     = "autumn_r"
	DefaultDiffColormap = "bwr"
)

// Colormap returns the named colormap.  A "_r" suffix reverses it.  Besides
// the ColorBrewer names, the common matplotlib names are approximated.
func Colormap(name string) (palette.ColorMap, error) {
	base := strings.TrimSuffix(name, "_r")
	cm, err := baseColormap(base)
	if err != nil {
		return nil, err
	}
	if base != name {
		cm = palette.Reverse(cm)
	}
	return cm, nil
}

func baseColormap(name string) (palette.ColorMap, error) {
	switch strings.ToLower(name) {
	case "autumn":
		return newGradient(color.NRGBA{R: 255, A: 255}, color.NRGBA{R: 255, G: 255, A: 255}), nil
	case "bwr":
		return newGradient(color.NRGBA{B: 255, A: 255}, color.White, color.NRGBA{R: 255, A: 255}), nil
	case "seismic":
		return newGradient(
			color.NRGBA{B: 77, A: 255}, color.NRGBA{B: 255, A: 255}, color.White,
			color.NRGBA{R: 255, A: 255}, color.NRGBA{R: 128, A: 255}), nil
	case "coolwarm":
		return moreland.SmoothBlueRed(), nil
	case "greys", "gray", "grey":
		return newGradient(color.White, color.Black), nil
	case "hot", "afmhot":
		return moreland.BlackBody(), nil
	case "inferno", "magma":
		return moreland.ExtendedBlackBody(), nil
	case "viridis", "kindlmann":
		return moreland.Kindlmann(), nil
	case "plasma":
		return moreland.ExtendedKindlmann(), nil
	}

	for _, n := range []int{9, 11, 8, 12, 10, 7, 6, 5, 4, 3} {
		p, err := brewer.GetPalette(brewer.TypeAny, brewerName(name), n)
		if err == nil {
			return newGradient(p.Colors()...), nil
		}
	}
	return nil, errors.Errorf("unknown colormap %q", name)
}

// brewerName maps a case-insensitive name onto its ColorBrewer spelling.
func brewerName(name string) string {
	for _, names := range [][]string{
		keys(brewer.SequentialPalettes),
		keys(brewer.DivergingPalettes),
		keys(brewer.QualitativePalettes),
	} {
		for _, n := range names {
			if strings.EqualFold(n, name) {
				return n
			}
		}
	}
	return name
}

func keys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	return names
}

// gradient interpolates linearly in RGB between evenly spaced stops.
type gradient struct {
	stops    []color.NRGBA
	min, max float64
	alpha    float64
}

func newGradient(stops ...color.Color) *gradient {
	g := &gradient{max: 1, alpha: 1}
	for _, c := range stops {
		g.stops = append(g.stops, color.NRGBAModel.Convert(c).(color.NRGBA))
	}
	return g
}

var _ palette.ColorMap = (*gradient)(nil)

func (g *gradient) At(v float64) (color.Color, error) {
	if math.IsNaN(v) || v < g.min || v > g.max {
		return nil, errors.Errorf("value %v outside colormap range [%v, %v]", v, g.min, g.max)
	}
	if g.max == g.min || len(g.stops) == 1 {
		return g.blend(g.stops[0], g.stops[0], 0), nil
	}
	pos := (v - g.min) / (g.max - g.min) * float64(len(g.stops)-1)
	i := int(pos)
	if i >= len(g.stops)-1 {
		return g.blend(g.stops[len(g.stops)-1], g.stops[len(g.stops)-1], 0), nil
	}
	return g.blend(g.stops[i], g.stops[i+1], pos-float64(i)), nil
}

func (g *gradient) blend(a, b color.NRGBA, t float64) color.Color {
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return color.NRGBA{
		R: mix(a.R, b.R),
		G: mix(a.G, b.G),
		B: mix(a.B, b.B),
		A: uint8(math.Round(float64(mix(a.A, b.A)) * g.alpha)),
	}
}

func (g *gradient) Max() float64     { return g.max }
func (g *gradient) SetMax(v float64) { g.max = v }
func (g *gradient) Min() float64     { return g.min }
func (g *gradient) SetMin(v float64) { g.min = v }
func (g *gradient) Alpha() float64   { return g.alpha }

func (g *gradient) SetAlpha(alpha float64) {
	if alpha < 0 || alpha > 1 {
		panic("render: alpha out of range")
	}
	g.alpha = alpha
}

func (g *gradient) Palette(colors int) palette.Palette {
	p := make(colorList, colors)
	for i := range p {
		t := 0.0
		if colors > 1 {
			t = float64(i) / float64(colors-1)
		}
		p[i], _ = g.At(math.Min(g.min+t*(g.max-g.min), g.max))
	}
	return p
}

type colorList []color.Color

func (l colorList) Colors() []color.Color { return l }

// paletteOf samples n colors of cm evenly, leaving cm scaled to [min, max].
func paletteOf(cm palette.ColorMap, min, max float64, n int) palette.Palette {
	cm.SetMin(0)
	cm.SetMax(1)
	p := cm.Palette(n)
	cm.SetMin(min)
	cm.SetMax(max)
	return p
}

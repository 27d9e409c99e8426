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

package contact

import (
	"math"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Operation combines a case and a control matrix.
type Operation string

// Supported operations.
const (
	Subtract Operation = "subtract"
	Divide   Operation = "divide"
)

// DivisionMethod selects how Divide computes the ratio.
type DivisionMethod string

// Supported division methods.
const (
	Raw      DivisionMethod = "raw"       // case/control
	Log2     DivisionMethod = "log2"      // log2(case/control)
	Add1     DivisionMethod = "add1"      // (case+1)/(control+1)
	Log2Add1 DivisionMethod = "log2_add1" // log2((case+1)/(control+1))
)

// Difference compares two matrices of equal shape.  Non-finite ratios of the
// raw and add1 methods become zero; the log2 methods turn non-positive
// ratios into NaN before taking the logarithm.
func Difference(c, control *mat.Dense, op Operation, method DivisionMethod) (*mat.Dense, error) {
	r1, c1 := c.Dims()
	r2, c2 := control.Dims()
	if r1 != r2 || c1 != c2 {
		return nil, errors.Errorf("matrix shapes differ: %dx%d and %dx%d", r1, c1, r2, c2)
	}

	var f func(a, b float64) float64
	switch op {
	case Subtract:
		f = func(a, b float64) float64 { return a - b }
	case Divide:
		switch method {
		case Raw:
			f = func(a, b float64) float64 { return finiteOrZero(a / b) }
		case Log2:
			f = func(a, b float64) float64 { return log2Ratio(a / b) }
		case Add1:
			f = func(a, b float64) float64 { return finiteOrZero((a + 1) / (b + 1)) }
		case Log2Add1:
			f = func(a, b float64) float64 { return log2Ratio((a + 1) / (b + 1)) }
		default:
			return nil, errors.Errorf("invalid division method %q; choose among raw, log2, add1, log2_add1", method)
		}
	default:
		return nil, errors.Errorf("invalid operation %q; choose subtract or divide", op)
	}

	diff := mat.NewDense(r1, c1, nil)
	diff.Apply(func(i, j int, _ float64) float64 {
		return f(c.At(i, j), control.At(i, j))
	}, diff)
	return diff, nil
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func log2Ratio(ratio float64) float64 {
	if ratio <= 0 || math.IsNaN(ratio) {
		return math.NaN()
	}
	return math.Log2(ratio)
}

// finite returns the finite values of m.
func finite(m mat.Matrix) []float64 {
	r, c := m.Dims()
	values := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := m.At(i, j); !math.IsNaN(v) && !math.IsInf(v, 0) {
				values = append(values, v)
			}
		}
	}
	return values
}

// SymmetricLimits returns [-max|v|, max|v|] over the finite values of m, or
// [-1, 1] when there are none.
func SymmetricLimits(m mat.Matrix) (float64, float64) {
	var bound float64
	for _, v := range finite(m) {
		bound = math.Max(bound, math.Abs(v))
	}
	if bound == 0 {
		bound = 1
	}
	return -bound, bound
}

// Limits chooses the color scale bounds for m.  Explicit bounds win.  A
// missing bound is the minimum (or maximum) finite value, or, if percentile
// is positive, the given lower (or upper) percentile of the finite values.
func Limits(m mat.Matrix, vmin, vmax *float64, percentile float64) (float64, float64, error) {
	if vmin != nil && vmax != nil {
		if *vmin >= *vmax {
			return 0, 0, errors.Errorf("vmin (%g) must be below vmax (%g)", *vmin, *vmax)
		}
		return *vmin, *vmax, nil
	}

	values := stats.Float64Data(finite(m))
	if len(values) == 0 {
		return 0, 1, nil
	}

	var lo, hi float64
	var err error
	if percentile > 0 {
		if lo, err = values.Percentile(100 - percentile); err != nil {
			return 0, 0, errors.Wrap(err, "computing lower percentile")
		}
		if hi, err = values.Percentile(percentile); err != nil {
			return 0, 0, errors.Wrap(err, "computing upper percentile")
		}
	} else {
		if lo, err = values.Min(); err != nil {
			return 0, 0, err
		}
		if hi, err = values.Max(); err != nil {
			return 0, 0, err
		}
	}
	if vmin != nil {
		lo = *vmin
	}
	if vmax != nil {
		hi = *vmax
	}
	if lo >= hi {
		hi = lo + 1
	}
	return lo, hi, nil
}

// Log returns log10(v + pseudo) of every cell; non-positive results are NaN.
func Log(m *mat.Dense, pseudo float64) *mat.Dense {
	r, c := m.Dims()
	out := mat.NewDense(r, c, nil)
	out.Apply(func(i, j int, v float64) float64 {
		v += pseudo
		if v <= 0 || math.IsNaN(v) {
			return math.NaN()
		}
		return math.Log10(v)
	}, m)
	return out
}

// MaskTriangle returns a copy of m with the strictly upper (or strictly
// lower) triangle set to NaN.
func MaskTriangle(m *mat.Dense, upper bool) *mat.Dense {
	out := mat.DenseCopyOf(m)
	r, c := out.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if (upper && j > i) || (!upper && j < i) {
				out.Set(i, j, math.NaN())
			}
		}
	}
	return out
}

// Combine returns a matrix whose upper triangle comes from upper and whose
// lower triangle (and diagonal) comes from lower.
func Combine(upper, lower *mat.Dense) (*mat.Dense, error) {
	r1, c1 := upper.Dims()
	r2, c2 := lower.Dims()
	if r1 != r2 || c1 != c2 {
		return nil, errors.Errorf("matrix shapes differ: %dx%d and %dx%d", r1, c1, r2, c2)
	}
	out := mat.NewDense(r1, c1, nil)
	out.Apply(func(i, j int, _ float64) float64 {
		if j > i {
			return upper.At(i, j)
		}
		return lower.At(i, j)
	}, out)
	return out, nil
}

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

package hicpro

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	defaultIterations = 200
	defaultTolerance  = 1e-5
)

// Balance returns the iteratively corrected (ICE) copy of the symmetric
// matrix m: every row of the result sums to the same value.  Rows without
// contacts cannot be corrected and are NaN in the result.
func Balance(m *mat.Dense) *mat.Dense {
	n, _ := m.Dims()
	work := mat.DenseCopyOf(m)
	masked := make([]bool, n)
	for i := 0; i < n; i++ {
		masked[i] = floats.Sum(work.RawRowView(i)) == 0
	}

	marginals := make([]float64, n)
	for iter := 0; iter < defaultIterations; iter++ {
		var nonzero []float64
		for i := 0; i < n; i++ {
			marginals[i] = floats.Sum(work.RawRowView(i))
			if !masked[i] {
				nonzero = append(nonzero, marginals[i])
			}
		}
		if len(nonzero) == 0 {
			break
		}
		mean, variance := stat.MeanVariance(nonzero, nil)
		if math.IsNaN(variance) || variance/(mean*mean) < defaultTolerance {
			break
		}
		for i := 0; i < n; i++ {
			if masked[i] {
				continue
			}
			marginals[i] /= mean
		}
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if masked[i] || masked[j] {
					continue
				}
				work.Set(i, j, work.At(i, j)/(marginals[i]*marginals[j]))
			}
		}
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if masked[i] || masked[j] {
				work.Set(i, j, math.NaN())
			}
		}
	}
	return work
}

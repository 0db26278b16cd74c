/*
 * mapping.go, part of gocrystal.
 *
 * Copyright 2026 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package mixed

import (
	"fmt"
	"math"

	crystal "github.com/rmera/gocrystal"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

//Mapping holds the target value and the weight of each training structure, and the
//structures left out of the fit (for leave-one-out or leave-many-out validation).
type Mapping struct {
	Targets []float64
	Weights []float64
	skip    map[int]bool
}

//NewMapping returns a mapping with the given targets and weights. If weights is nil, all weights are 1.
func NewMapping(targets, weights []float64) (*Mapping, error) {
	if weights == nil {
		weights = make([]float64, len(targets))
		for i := range weights {
			weights[i] = 1
		}
	}
	if len(weights) != len(targets) {
		return nil, crystal.NewError(crystal.Shape, "NewMapping", "%d targets and %d weights", len(targets), len(weights))
	}
	for i, w := range weights {
		if w < 0 {
			return nil, crystal.NewError(crystal.Input, "NewMapping", "negative weight %g for structure %d", w, i)
		}
	}
	return &Mapping{Targets: targets, Weights: weights, skip: make(map[int]bool)}, nil
}

//Len returns the number of structures, including those skipped.
func (M *Mapping) Len() int {
	return len(M.Targets)
}

//Target returns the target value of the structure i.
func (M *Mapping) Target(i int) float64 {
	return M.Targets[i]
}

//Weight returns the weight of the structure i.
func (M *Mapping) Weight(i int) float64 {
	return M.Weights[i]
}

//DoSkip returns true if the structure i is left out of the fit.
func (M *Mapping) DoSkip(i int) bool {
	return M.skip[i]
}

//Skip leaves the given structures out of the fit, replacing any previous set of skipped structures.
func (M *Mapping) Skip(indexes ...int) {
	M.skip = make(map[int]bool, len(indexes))
	for _, v := range indexes {
		M.skip[v] = true
	}
}

//ErrorTuple summarizes the errors of a fit: the weighted mean squared error, the weighted mean
//absolute error, and the maximum absolute error.
type ErrorTuple struct {
	MSE  float64
	Mean float64
	Max  float64
	N    int
}

//NewErrorTuple returns the errors for the given deviations and weights. If weights is nil,
//all deviations weigh the same.
func NewErrorTuple(deltas, weights []float64) ErrorTuple {
	if len(deltas) == 0 {
		return ErrorTuple{}
	}
	abs := make([]float64, len(deltas))
	sq := make([]float64, len(deltas))
	for i, v := range deltas {
		abs[i] = math.Abs(v)
		sq[i] = v * v
	}
	return ErrorTuple{MSE: stat.Mean(sq, weights), Mean: stat.Mean(abs, weights), Max: floats.Max(abs), N: len(deltas)}
}

//RMS returns the root of the mean squared error.
func (E ErrorTuple) RMS() float64 {
	return math.Sqrt(E.MSE)
}

func (E ErrorTuple) String() string {
	return fmt.Sprintf("mse: %.6g mean: %.6g max: %.6g (%d values)", E.MSE, E.Mean, E.Max, E.N)
}

/*
 * fit.go, part of gocrystal.
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
	"log"
	"math"
	"math/rand"

	crystal "github.com/rmera/gocrystal"
	"github.com/rmera/gocrystal/separable"
)

//FitOptions contains the settings for a fit. They can be read from JSON.
type FitOptions struct {
	Tolerance float64 `json:"tolerance"` //on the change of the mean squared error between sweeps
	Itermax   int     `json:"itermax"`
	HowRandom float64 `json:"howrandom"` //width of the interval for the random starting coefficients
	Seed      int64   `json:"seed"`
	Verbose   bool    `json:"verbose"`
}

//DefaultFitOptions returns the default fit options.
func DefaultFitOptions() *FitOptions {
	return &FitOptions{Tolerance: 1e-10, Itermax: 100, HowRandom: 0.5, Seed: 1}
}

//ReadFitOptions reads fit options from a JSON file, which can be zstd-compressed.
//Missing settings take the values of DefaultFitOptions.
func ReadFitOptions(name string) (*FitOptions, error) {
	O := DefaultFitOptions()
	if err := crystal.ReadJSON(name, O); err != nil {
		return nil, crystal.ErrDecorate(err, "ReadFitOptions")
	}
	return O, nil
}

//History records the errors after each sweep of a fit.
type History struct {
	Errors    []ErrorTuple
	Converged bool
}

//Last returns the errors after the last sweep.
func (H *History) Last() ErrorTuple {
	if len(H.Errors) == 0 {
		return ErrorTuple{}
	}
	return H.Errors[len(H.Errors)-1]
}

//Sweep solves for the coefficients of each dimension in turn, synchronizes the ECIs
//and returns the resulting errors.
func (A *Approach) Sweep() (ErrorTuple, error) {
	for d := 0; d < A.Dims(); d++ {
		M, b, err := A.Assemble(d)
		if err != nil {
			return ErrorTuple{}, crystal.ErrDecorate(err, "Approach.Sweep")
		}
		x, err := separable.Solve(M, b)
		if err != nil {
			return ErrorTuple{}, crystal.ErrDecorate(err, "Approach.Sweep")
		}
		if err := A.Update(d, x.RawVector().Data); err != nil {
			return ErrorTuple{}, crystal.ErrDecorate(err, "Approach.Sweep")
		}
	}
	A.UpdateAll()
	return A.Evaluate(), nil
}

//Fit sweeps, starting from the current coefficients, until the mean squared error changes by less than
//O.Tolerance or O.Itermax sweeps are done. Not converging is not an error: it is reported in the history.
func Fit(A *Approach, O *FitOptions) (*History, error) {
	if O == nil {
		O = DefaultFitOptions()
	}
	H := new(History)
	prev := math.Inf(1)
	for i := 0; i < O.Itermax; i++ {
		e, err := A.Sweep()
		if err != nil {
			return H, crystal.ErrDecorate(err, "Fit")
		}
		H.Errors = append(H.Errors, e)
		if O.Verbose {
			log.Printf("goCrystal/mixed: sweep %d %s", i, e)
		}
		if math.Abs(prev-e.MSE) < O.Tolerance {
			H.Converged = true
			break
		}
		prev = e.MSE
	}
	return H, nil
}

//LeaveOneOut fits A once per structure, leaving that structure out, from random starting
//coefficients. It returns the training errors of each fit and the prediction errors on the left-out structures.
//The approach is left with no skipped structures, and with the coefficients of the last fit.
func LeaveOneOut(A *Approach, O *FitOptions) ([]ErrorTuple, ErrorTuple, error) {
	if O == nil {
		O = DefaultFitOptions()
	}
	defer A.Mapping.Skip()
	rng := rand.New(rand.NewSource(O.Seed))
	n := A.Mapping.Len()
	training := make([]ErrorTuple, 0, n)
	deltas := make([]float64, 0, n)
	weights := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		A.Mapping.Skip(i)
		A.Randomize(O.HowRandom, rng)
		H, err := Fit(A, O)
		if err != nil {
			return nil, ErrorTuple{}, crystal.ErrDecorate(err, "LeaveOneOut")
		}
		training = append(training, H.Last())
		deltas = append(deltas, A.Mapping.Target(i)-A.Value(i))
		weights = append(weights, A.Mapping.Weight(i))
	}
	return training, NewErrorTuple(deltas, weights), nil
}

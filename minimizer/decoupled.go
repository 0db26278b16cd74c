/*
 * decoupled.go, part of gocrystal.
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

package minimizer

import (
	"log"
	"math"

	crystal "github.com/rmera/gocrystal"
)

//DecoupledMin minimizes the variables [0,Mid) and [Mid,N) separately and alternately, with the Inner
//minimizer, until the change in the functional between two rounds is below Tolerance, or Itermax rounds
//are done (Itermax < 1 means no limit).
type DecoupledMin struct {
	Mid       int
	Tolerance float64
	Itermax   int
	Inner     Minimizer
	Verbose   bool
}

//ranged exposes a slice of the variables of a functional. The rest of the
//variables are taken from full.
type ranged struct {
	f           Functional
	full        []float64
	first, last int
	grad        []float64
}

func (r *ranged) Func(x []float64) float64 {
	copy(r.full[r.first:r.last], x)
	return r.f.Func(r.full)
}

func (r *ranged) Grad(grad, x []float64) {
	copy(r.full[r.first:r.last], x)
	for i := range r.grad {
		r.grad[i] = 0
	}
	r.f.Grad(r.grad, r.full)
	copy(grad, r.grad[r.first:r.last])
}

//Minimize minimizes f starting from x, which is overwritten with the best point found.
func (D *DecoupledMin) Minimize(f Functional, x []float64) (float64, error) {
	if D.Mid <= 0 || D.Mid >= len(x) {
		return 0, crystal.NewError(crystal.Config, "DecoupledMin.Minimize", "mid=%d, but there are %d variables: nothing to decouple", D.Mid, len(x))
	}
	if D.Inner == nil {
		return 0, crystal.NewError(crystal.Config, "DecoupledMin.Minimize", "no inner minimizer")
	}
	grad := make([]float64, len(x))
	A := &ranged{f: f, full: x, first: 0, last: D.Mid, grad: grad}
	B := &ranged{f: f, full: x, first: D.Mid, last: len(x), grad: grad}
	xa := append([]float64(nil), x[:D.Mid]...)
	xb := append([]float64(nil), x[D.Mid:]...)
	val := f.Func(x)
	for iter := 0; D.Itermax < 1 || iter < D.Itermax; iter++ {
		if _, err := D.Inner.Minimize(A, xa); err != nil {
			copy(x[:D.Mid], xa)
			return f.Func(x), crystal.ErrDecorate(err, "DecoupledMin.Minimize")
		}
		copy(x[:D.Mid], xa)
		if _, err := D.Inner.Minimize(B, xb); err != nil {
			copy(x[D.Mid:], xb)
			return f.Func(x), crystal.ErrDecorate(err, "DecoupledMin.Minimize")
		}
		copy(x[D.Mid:], xb)
		old := val
		val = f.Func(x)
		if D.Verbose {
			log.Printf("goCrystal/minimizer: decoupled round %d, value %g", iter, val)
		}
		if math.Abs(old-val) < D.Tolerance {
			break
		}
	}
	return val, nil
}

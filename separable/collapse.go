/*
 * collapse.go, part of gocrystal.
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

package separable

import (
	"math/rand"

	crystal "github.com/rmera/gocrystal"
	"gonum.org/v1/gonum/mat"
)

//Collapse fits a separable function to a set of targets by alternating least squares: for each
//dimension in turn, the coefficients of all the other dimensions are kept fixed, which turns the
//fit into a linear least-squares problem on the coefficients of that dimension.
//
//Each target is the weighted sum of the function over a set of equivalent inputs (for instance,
//the symmetry-equivalent configurations of a structure), with the equivalence weights given to Init.
type Collapse struct {
	F              *Function
	Regularization float64 //added, times the squared rank norm, to the even basis coefficients. 0 means none.

	x  [][][]float64 //[target][equivalent][dimension]
	w  []float64     //[target]
	ew [][]float64   //[target][equivalent]
	//[rank][target][equivalent*dims+d], Σ_i c[r,i,d] φ_i(x_d) for each input.
	factors [][][]float64
}

//NewCollapse returns a collapse fitting the function F.
func NewCollapse(F *Function) *Collapse {
	return &Collapse{F: F}
}

//Init sets the inputs of the fit: x[t][e] is the e-th equivalent input of target t, with equivalence
//weight eweights[t][e], and w[t] is the weight of the target t in the fit. The factors are computed
//from the current coefficients.
func (C *Collapse) Init(x [][][]float64, w []float64, eweights [][]float64) error {
	if len(x) != len(w) || len(x) != len(eweights) {
		return crystal.NewError(crystal.Shape, "Collapse.Init", "%d inputs, %d weights and %d sets of equivalence weights", len(x), len(w), len(eweights))
	}
	dims := C.F.Dims()
	for t, v := range x {
		if len(v) != len(eweights[t]) {
			return crystal.NewError(crystal.Shape, "Collapse.Init", "target %d: %d equivalent inputs and %d equivalence weights", t, len(v), len(eweights[t]))
		}
		for e, u := range v {
			if len(u) != dims {
				return crystal.NewError(crystal.Shape, "Collapse.Init", "target %d, equivalent %d: input of %d dimensions for a function of %d", t, e, len(u), dims)
			}
		}
	}
	C.x, C.w, C.ew = x, w, eweights
	C.factors = make([][][]float64, C.F.Ranks())
	for r := range C.factors {
		C.factors[r] = make([][]float64, len(x))
		for t, v := range x {
			C.factors[r][t] = make([]float64, len(v)*dims)
		}
	}
	C.UpdateAllFactors()
	return nil
}

//Len returns the number of targets.
func (C *Collapse) Len() int {
	return len(C.x)
}

//UpdateFactors recomputes the factors of dimension d from the current coefficients.
func (C *Collapse) UpdateFactors(d int) {
	dims := C.F.Dims()
	for r := range C.factors {
		for t, v := range C.x {
			for e, u := range v {
				C.factors[r][t][e*dims+d] = C.F.factor(r, d, u[d])
			}
		}
	}
}

//UpdateAllFactors recomputes the factors of every dimension.
func (C *Collapse) UpdateAllFactors() {
	for d := 0; d < C.F.Dims(); d++ {
		C.UpdateFactors(d)
	}
}

//FeatureVector puts in dst (which must have F.DOF() elements) the derivatives of the value
//for target t with respect to the coefficients of dimension dim. As the value is linear in those
//coefficients, the value is the dot product of this vector with them.
func (C *Collapse) FeatureVector(dim, t int, dst []float64) {
	n := C.F.Basis.Len()
	dims := C.F.Dims()
	for i := range dst {
		dst[i] = 0
	}
	for r, norm := range C.F.Norms {
		for e, u := range C.x[t] {
			U := norm * C.ew[t][e]
			f := C.factors[r][t][e*dims : (e+1)*dims]
			for d, v := range f {
				if d != dim {
					U *= v
				}
			}
			if U == 0 {
				continue
			}
			for i := 0; i < n; i++ {
				dst[r*n+i] += U * C.F.Basis.Value(i, u[dim])
			}
		}
	}
}

//Assemble returns the normal equations, A x = b, for the coefficients of dimension dim,
//given the other dimensions: A = Σ_t w_t X_t X_tᵀ and b = Σ_t w_t targets_t X_t, where X_t is the feature vector
//of target t. Regularization, if any, is added to A.
func (C *Collapse) Assemble(dim int, targets []float64) (*mat.SymDense, *mat.VecDense, error) {
	if err := C.check(dim, targets); err != nil {
		return nil, nil, crystal.ErrDecorate(err, "Collapse.Assemble")
	}
	dof := C.F.DOF()
	A := mat.NewSymDense(dof, nil)
	b := mat.NewVecDense(dof, nil)
	X := make([]float64, dof)
	xv := mat.NewVecDense(dof, X)
	for t := range C.x {
		C.FeatureVector(dim, t, X)
		A.SymRankOne(A, C.w[t], xv)
		b.AddScaledVec(b, C.w[t]*targets[t], xv)
	}
	C.Regularize(A, 0)
	return A, b, nil
}

func (C *Collapse) check(dim int, targets []float64) error {
	if C.x == nil {
		return crystal.NewError(crystal.Input, "check", "Collapse used before Init")
	}
	if dim < 0 || dim >= C.F.Dims() {
		return crystal.NewError(crystal.Input, "check", "dimension %d out of range for a function of %d", dim, C.F.Dims())
	}
	if len(targets) != len(C.x) {
		return crystal.NewError(crystal.Shape, "check", "%d targets for %d inputs", len(targets), len(C.x))
	}
	return nil
}

//Regularize adds the regularization term to the diagonal elements of A corresponding to the
//even basis functions, starting at the row offset.
func (C *Collapse) Regularize(A *mat.SymDense, offset int) {
	if C.Regularization <= 0 {
		return
	}
	n := C.F.Basis.Len()
	for r, norm := range C.F.Norms {
		for i := 0; i < n; i += 2 {
			k := offset + r*n + i
			A.SetSym(k, k, A.At(k, k)+C.Regularization*norm*norm)
		}
	}
}

//Update sets the coefficients of dimension dim to x, normalizes them, and updates the factors.
func (C *Collapse) Update(dim int, x []float64) error {
	if len(x) != C.F.DOF() {
		return crystal.NewError(crystal.Shape, "Collapse.Update", "%d coefficients, expected %d", len(x), C.F.DOF())
	}
	C.F.Coefs.SetCol(dim, x)
	C.F.Normalize(dim)
	C.UpdateFactors(dim)
	return nil
}

//Value returns the current value of the function for target t: the equivalence-weighted sum over its
//equivalent inputs.
func (C *Collapse) Value(t int) float64 {
	dims := C.F.Dims()
	var ret float64
	for r, norm := range C.F.Norms {
		for e := range C.x[t] {
			p := norm * C.ew[t][e]
			for _, v := range C.factors[r][t][e*dims : (e+1)*dims] {
				p *= v
			}
			ret += p
		}
	}
	return ret
}

//Evaluate returns the weighted sum of the squared residuals, plus the regularization, divided by the
//number of targets.
func (C *Collapse) Evaluate(targets []float64) (float64, error) {
	if err := C.check(0, targets); err != nil {
		return 0, crystal.ErrDecorate(err, "Collapse.Evaluate")
	}
	var res float64
	for t, v := range targets {
		d := v - C.Value(t)
		res += C.w[t] * d * d
	}
	res += C.penalty()
	return res / float64(len(targets)), nil
}

func (C *Collapse) penalty() float64 {
	if C.Regularization <= 0 {
		return 0
	}
	var ret float64
	n := C.F.Basis.Len()
	for d := 0; d < C.F.Dims(); d++ {
		for r, norm := range C.F.Norms {
			for i := 0; i < n; i += 2 {
				a := C.F.Coefs.At(r*n+i, d) * norm
				ret += 0.5 * C.Regularization * a * a
			}
		}
	}
	return ret
}

//Sweep updates the coefficients of each dimension in turn, and returns the resulting fit error.
func (C *Collapse) Sweep(targets []float64) (float64, error) {
	for d := 0; d < C.F.Dims(); d++ {
		A, b, err := C.Assemble(d, targets)
		if err != nil {
			return 0, crystal.ErrDecorate(err, "Collapse.Sweep")
		}
		x, err := Solve(A, b)
		if err != nil {
			return 0, crystal.ErrDecorate(err, "Collapse.Sweep")
		}
		if err := C.Update(d, x.RawVector().Data); err != nil {
			return 0, crystal.ErrDecorate(err, "Collapse.Sweep")
		}
	}
	return C.Evaluate(targets)
}

//CreateCoefficients sets random coefficients, of unit norm for each rank and dimension. Each coefficient
//is drawn from an interval of width howrandom, centered alternately at 0 and at 1. If all the coefficients of
//a rank come out zero, the first one is set to 1. The rank norms are set to 1.
//The factors are updated if the collapse was initialized.
func (C *Collapse) CreateCoefficients(howrandom float64, rng *rand.Rand) {
	F := C.F
	n := F.Basis.Len()
	for r := range F.Norms {
		F.Norms[r] = 1
	}
	for d := 0; d < F.Dims(); d++ {
		for r := range F.Norms {
			var s float64
			for i := 0; i < n; i++ {
				v := howrandom * (rng.Float64() - 0.5)
				if i%2 == 1 {
					v += 1
				}
				F.Coefs.Set(r*n+i, d, v)
				s += v * v
			}
			//for instance, a single basis function and howrandom 0.
			if s == 0 {
				F.Coefs.Set(r*n, d, 1)
			}
		}
		F.Normalize(d)
	}
	for r := range F.Norms {
		F.Norms[r] = 1
	}
	if C.x != nil {
		C.UpdateAllFactors()
	}
}

/*
 * mixed.go, part of gocrystal.
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

//Package mixed fits the sum of a separable function and a cluster expansion.
package mixed

import (
	"fmt"
	"math/rand"

	crystal "github.com/rmera/gocrystal"
	"github.com/rmera/gocrystal/separable"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

//Approach fits the sum of a separable function and a cluster expansion to a set of structures.
//The coefficients form a matrix with one column per dimension of the separable function: the first
//SepDOF rows of column d are the separable coefficients of dimension d, and the remaining rows are the ECIs.
//The ECIs don't depend on the dimension: column 0 holds the authoritative copy, and the other
//columns are synchronized from it.
type Approach struct {
	Sep              *separable.Collapse //nil for a pure cluster expansion
	Pis              [][]float64         //[structure][cluster], the correlation functions of each structure
	Mapping          *Mapping
	CERegularization float64 //Tikhonov term added to the diagonal of the ECI block

	coefs *mat.Dense
	sep   int
	ce    int
}

//New returns an approach fitting the separable function of sep (which must be initialized with one target per structure
//of m) plus a cluster expansion with correlation functions pis. Either can be absent, but not both.
//The separable coefficients are moved into the coefficient matrix of the approach, which the function then views.
func New(sep *separable.Collapse, pis [][]float64, m *Mapping) (*Approach, error) {
	A := &Approach{Sep: sep, Pis: pis, Mapping: m}
	if err := A.check(); err != nil {
		return nil, crystal.ErrDecorate(err, "mixed.New")
	}
	dims := 1
	if sep != nil {
		A.sep = sep.F.DOF()
		dims = sep.F.Dims()
	}
	if len(pis) > 0 {
		A.ce = len(pis[0])
	}
	A.coefs = mat.NewDense(A.sep+A.ce, dims, nil)
	if sep != nil {
		view := A.coefs.Slice(0, A.sep, 0, dims).(*mat.Dense)
		view.Copy(sep.F.Coefs)
		sep.F.Coefs = view
	}
	return A, nil
}

func (A *Approach) check() error {
	if A.Mapping == nil {
		return crystal.NewError(crystal.Input, "check", "no mapping")
	}
	n := A.Mapping.Len()
	if A.Sep == nil && len(A.Pis) == 0 {
		return crystal.NewError(crystal.Input, "check", "neither separable function nor cluster expansion")
	}
	if A.Sep != nil && A.Sep.Len() != n {
		return crystal.NewError(crystal.Shape, "check", "separable function initialized with %d structures, mapping has %d", A.Sep.Len(), n)
	}
	if len(A.Pis) == 0 {
		return nil
	}
	if len(A.Pis) != n {
		return crystal.NewError(crystal.Shape, "check", "correlation functions for %d structures, mapping has %d", len(A.Pis), n)
	}
	for i, v := range A.Pis {
		if len(v) != len(A.Pis[0]) || len(v) == 0 {
			return crystal.NewError(crystal.Shape, "check", "structure %d has %d correlation functions, not %d", i, len(v), len(A.Pis[0]))
		}
	}
	return nil
}

//SepDOF returns the number of separable coefficients per dimension.
func (A *Approach) SepDOF() int { return A.sep }

//CEDOF returns the number of ECIs.
func (A *Approach) CEDOF() int { return A.ce }

//DOF returns the number of coefficients per dimension.
func (A *Approach) DOF() int { return A.sep + A.ce }

//Dims returns the number of dimensions (columns of the coefficient matrix).
func (A *Approach) Dims() int {
	_, c := A.coefs.Dims()
	return c
}

//Coefficients returns the coefficient matrix. It is not a copy.
func (A *Approach) Coefficients() *mat.Dense {
	return A.coefs
}

//Assemble returns the normal equations for the coefficients of dimension dim: A = Σ w X Xᵀ, b = Σ w t X,
//over the structures not skipped, where X is the separable feature vector of the structure followed by its
//correlation functions. The separable regularization and the ECI Tikhonov term are added to A.
//The ECIs of column dim are reset to the authoritative ones.
func (A *Approach) Assemble(dim int) (*mat.SymDense, *mat.VecDense, error) {
	if dim < 0 || dim >= A.Dims() {
		return nil, nil, crystal.NewError(crystal.Input, "Approach.Assemble", "dimension %d out of range, %d dimensions", dim, A.Dims())
	}
	dof := A.DOF()
	M := mat.NewSymDense(dof, nil)
	b := mat.NewVecDense(dof, nil)
	X := make([]float64, dof)
	xv := mat.NewVecDense(dof, X)
	for i := 0; i < A.Mapping.Len(); i++ {
		if A.Mapping.DoSkip(i) {
			continue
		}
		if A.sep > 0 {
			A.Sep.FeatureVector(dim, i, X[:A.sep])
		}
		if A.ce > 0 {
			copy(X[A.sep:], A.Pis[i])
		}
		w := A.Mapping.Weight(i)
		M.SymRankOne(M, w, xv)
		b.AddScaledVec(b, w*A.Mapping.Target(i), xv)
	}
	if A.sep > 0 {
		A.Sep.Regularize(M, 0)
	}
	if A.CERegularization > 0 {
		for k := A.sep; k < dof; k++ {
			M.SetSym(k, k, M.At(k, k)+A.CERegularization)
		}
	}
	if A.ce > 0 && dim != 0 {
		A.copyECIs(0, dim)
	}
	return M, b, nil
}

func (A *Approach) copyECIs(from, to int) {
	for k := A.sep; k < A.sep+A.ce; k++ {
		A.coefs.Set(k, to, A.coefs.At(k, from))
	}
}

//Update sets the coefficients of dimension d to x (the separable part is normalized), and makes its ECIs the authoritative ones.
func (A *Approach) Update(d int, x []float64) error {
	if len(x) != A.DOF() {
		return crystal.NewError(crystal.Shape, "Approach.Update", "%d coefficients, expected %d", len(x), A.DOF())
	}
	if A.sep > 0 {
		if err := A.Sep.Update(d, x[:A.sep]); err != nil {
			return crystal.ErrDecorate(err, "Approach.Update")
		}
	}
	for k := A.sep; k < A.sep+A.ce; k++ {
		A.coefs.Set(k, d, x[k])
	}
	if A.ce > 0 && d != 0 {
		A.copyECIs(d, 0)
	}
	return nil
}

//UpdateAll copies the authoritative ECIs to every dimension, and recomputes all the separable factors.
func (A *Approach) UpdateAll() {
	for d := 1; d < A.Dims(); d++ {
		A.copyECIs(0, d)
	}
	if A.sep > 0 {
		A.Sep.UpdateAllFactors()
	}
}

//ECIs returns a copy of the authoritative ECIs.
func (A *Approach) ECIs() []float64 {
	ret := make([]float64, A.ce)
	for k := range ret {
		ret[k] = A.coefs.At(A.sep+k, 0)
	}
	return ret
}

//Value returns the current prediction for the structure n.
func (A *Approach) Value(n int) float64 {
	var ret float64
	if A.sep > 0 {
		ret += A.Sep.Value(n)
	}
	if A.ce > 0 {
		ret += floats.Dot(A.ECIs(), A.Pis[n])
	}
	return ret
}

//Evaluate returns the errors of the current prediction over the structures not skipped.
func (A *Approach) Evaluate() ErrorTuple {
	var deltas, weights []float64
	for i := 0; i < A.Mapping.Len(); i++ {
		if A.Mapping.DoSkip(i) {
			continue
		}
		deltas = append(deltas, A.Mapping.Target(i)-A.Value(i))
		weights = append(weights, A.Mapping.Weight(i))
	}
	return NewErrorTuple(deltas, weights)
}

//Randomize sets random separable coefficients (see separable.Collapse.CreateCoefficients) and ECIs uniformly
//distributed in [-howrandom/2, howrandom/2).
func (A *Approach) Randomize(howrandom float64, rng *rand.Rand) {
	if A.sep > 0 {
		A.Sep.CreateCoefficients(howrandom, rng)
	}
	for k := A.sep; k < A.sep+A.ce; k++ {
		A.coefs.Set(k, 0, (rng.Float64()-0.5)*howrandom)
	}
	A.UpdateAll()
}

//Reassign sets the ECI of each class of clusters to the fitted one.
func (A *Approach) Reassign(clusters []*Cluster) error {
	if len(clusters) != A.ce {
		return crystal.NewError(crystal.Shape, "Approach.Reassign", "%d clusters for %d ECIs", len(clusters), A.ce)
	}
	for k, v := range A.ECIs() {
		clusters[k].ECI = v
	}
	return nil
}

func (A *Approach) String() string {
	ret := fmt.Sprintf("mixed approach: %d separable coefficients per dimension, %d ECIs, %d dimensions\n", A.sep, A.ce, A.Dims())
	if A.sep > 0 {
		ret += A.Sep.F.String() + "\n"
	}
	if A.ce > 0 {
		ret += fmt.Sprintf("ECIs: %v", A.ECIs())
	}
	return ret
}

type jsonCoefficients struct {
	Separable *separable.Function `json:"separable,omitempty"`
	ECIs      []float64           `json:"ecis,omitempty"`
}

//WriteCoefficients writes the fitted separable function and ECIs to a JSON file, zstd-compressed if the name
//ends in ".zst".
func (A *Approach) WriteCoefficients(name string) error {
	j := jsonCoefficients{ECIs: A.ECIs()}
	if A.sep > 0 {
		j.Separable = A.Sep.F
	}
	return crystal.ErrDecorate(crystal.WriteJSON(name, j), "Approach.WriteCoefficients")
}

//ReadCoefficients reads coefficients written by WriteCoefficients into A, which must have the same shape.
func (A *Approach) ReadCoefficients(name string) error {
	var j jsonCoefficients
	if err := crystal.ReadJSON(name, &j); err != nil {
		return crystal.ErrDecorate(err, "Approach.ReadCoefficients")
	}
	if len(j.ECIs) != A.ce || (j.Separable == nil) != (A.sep == 0) {
		return crystal.NewError(crystal.Shape, "Approach.ReadCoefficients", "coefficients in %s don't match the approach", name)
	}
	if j.Separable != nil {
		r, c := j.Separable.Coefs.Dims()
		if r != A.sep || c != A.Dims() {
			return crystal.NewError(crystal.Shape, "Approach.ReadCoefficients", "%dx%d separable coefficients, expected %dx%d", r, c, A.sep, A.Dims())
		}
		A.Sep.F.Coefs.Copy(j.Separable.Coefs)
		copy(A.Sep.F.Norms, j.Separable.Norms)
	}
	for k, v := range j.ECIs {
		A.coefs.Set(A.sep+k, 0, v)
	}
	A.UpdateAll()
	return nil
}

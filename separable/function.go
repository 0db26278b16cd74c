/*
 * function.go, part of gocrystal.
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

//Package separable implements sums of separable functions (products of one-dimensional basis
//expansions) and their fit to targets by alternating least squares.
package separable

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	crystal "github.com/rmera/gocrystal"
	"gonum.org/v1/gonum/mat"
)

//Basis is a set of one-dimensional functions.
type Basis interface {
	Len() int
	Value(i int, x float64) float64
	Name() string
}

//Polynomial is the basis 1, x, x², ... with as many functions as its value.
type Polynomial int

func (P Polynomial) Len() int { return int(P) }

func (P Polynomial) Value(i int, x float64) float64 {
	r := 1.0
	for ; i > 0; i-- {
		r *= x
	}
	return r
}

func (P Polynomial) Name() string { return "polynomial" }

//HalfHalf is a basis of 2 functions for occupation variables that take the values
//1 and -1: (1+x)/2 and (1-x)/2.
type HalfHalf struct{}

func (H HalfHalf) Len() int { return 2 }

func (H HalfHalf) Value(i int, x float64) float64 {
	if i%2 == 0 {
		return 0.5 * (1 + x)
	}
	return 0.5 * (1 - x)
}

func (H HalfHalf) Name() string { return "halfhalf" }

//NewBasis returns the basis with the given name and size. The size is ignored
//for bases with a fixed number of functions.
func NewBasis(name string, n int) (Basis, error) {
	switch strings.ToLower(name) {
	case "polynomial", "poly":
		if n < 1 {
			return nil, crystal.NewError(crystal.Config, "NewBasis", "a polynomial basis needs at least one function, not %d", n)
		}
		return Polynomial(n), nil
	case "halfhalf":
		return HalfHalf{}, nil
	}
	return nil, crystal.NewError(crystal.Config, "NewBasis", "unknown basis %q", name)
}

//Function is a sum over ranks of products, over dimensions, of linear combinations of the functions of a basis:
//f(x) = Σ_r Norms[r] Π_d Σ_i c[r,i,d] φ_i(x_d).
//Coefs has one column per dimension, and the coefficients of each rank in consecutive rows:
//c[r,i,d] = Coefs.At(r*Basis.Len()+i, d).
type Function struct {
	Basis Basis
	Norms []float64
	Coefs *mat.Dense
}

//NewFunction returns a function with the given basis, ranks and dimensions. All norms are 1 and
//all coefficients are 0.
func NewFunction(basis Basis, ranks, dims int) (*Function, error) {
	if ranks < 1 || dims < 1 {
		return nil, crystal.NewError(crystal.Input, "NewFunction", "need at least one rank and one dimension, not %d and %d", ranks, dims)
	}
	norms := make([]float64, ranks)
	for i := range norms {
		norms[i] = 1
	}
	return &Function{Basis: basis, Norms: norms, Coefs: mat.NewDense(ranks*basis.Len(), dims, nil)}, nil
}

//Ranks returns the number of ranks of the function.
func (F *Function) Ranks() int {
	return len(F.Norms)
}

//Dims returns the number of dimensions of the function.
func (F *Function) Dims() int {
	_, c := F.Coefs.Dims()
	return c
}

//DOF returns the number of coefficients per dimension.
func (F *Function) DOF() int {
	return F.Ranks() * F.Basis.Len()
}

//factor returns Σ_i c[r,i,d] φ_i(x).
func (F *Function) factor(r, d int, x float64) float64 {
	n := F.Basis.Len()
	var s float64
	for i := 0; i < n; i++ {
		s += F.Coefs.At(r*n+i, d) * F.Basis.Value(i, x)
	}
	return s
}

//Value returns the value of the function at x, which must have one element per dimension.
func (F *Function) Value(x []float64) float64 {
	if len(x) != F.Dims() {
		panic(fmt.Sprintf("goCrystal/separable: %d values for a function of %d dimensions", len(x), F.Dims()))
	}
	var ret float64
	for r, norm := range F.Norms {
		p := norm
		for d, v := range x {
			p *= F.factor(r, d, v)
		}
		ret += p
	}
	return ret
}

//Normalize scales the coefficients of each rank in dimension d to unit norm, moving their norm into Norms.
//Ranks with all-zero coefficients are left alone.
func (F *Function) Normalize(d int) {
	n := F.Basis.Len()
	for r := range F.Norms {
		var s float64
		for i := 0; i < n; i++ {
			v := F.Coefs.At(r*n+i, d)
			s += v * v
		}
		if s == 0 {
			continue
		}
		s = math.Sqrt(s)
		for i := 0; i < n; i++ {
			F.Coefs.Set(r*n+i, d, F.Coefs.At(r*n+i, d)/s)
		}
		F.Norms[r] *= s
	}
}

func (F *Function) String() string {
	return fmt.Sprintf("separable function: %s basis of %d, %d ranks, %d dimensions\nnorms: %v\n%v", F.Basis.Name(), F.Basis.Len(), F.Ranks(), F.Dims(), F.Norms, mat.Formatted(F.Coefs, mat.Squeeze()))
}

type jsonFunction struct {
	Basis string      `json:"basis"`
	Size  int         `json:"size"`
	Norms []float64   `json:"norms"`
	Coefs [][]float64 `json:"coefs"` //one row per rank and basis function
}

func (F *Function) MarshalJSON() ([]byte, error) {
	r, c := F.Coefs.Dims()
	j := jsonFunction{Basis: F.Basis.Name(), Size: F.Basis.Len(), Norms: F.Norms, Coefs: make([][]float64, r)}
	for i := range j.Coefs {
		j.Coefs[i] = mat.Row(make([]float64, c), i, F.Coefs)
	}
	return json.Marshal(j)
}

func (F *Function) UnmarshalJSON(b []byte) error {
	var j jsonFunction
	if err := json.Unmarshal(b, &j); err != nil {
		return err
	}
	basis, err := NewBasis(j.Basis, j.Size)
	if err != nil {
		return err
	}
	if len(j.Norms) == 0 || len(j.Coefs) != len(j.Norms)*basis.Len() || len(j.Coefs[0]) == 0 {
		return crystal.NewError(crystal.Shape, "Function.UnmarshalJSON", "%d coefficient rows for %d ranks of a basis of %d", len(j.Coefs), len(j.Norms), basis.Len())
	}
	dims := len(j.Coefs[0])
	coefs := mat.NewDense(len(j.Coefs), dims, nil)
	for i, row := range j.Coefs {
		if len(row) != dims {
			return crystal.NewError(crystal.Shape, "Function.UnmarshalJSON", "row %d has %d coefficients, not %d", i, len(row), dims)
		}
		coefs.SetRow(i, row)
	}
	F.Basis, F.Norms, F.Coefs = basis, j.Norms, coefs
	return nil
}

//Read reads a function from a JSON file, which can be zstd-compressed.
func Read(name string) (*Function, error) {
	F := new(Function)
	if err := crystal.ReadJSON(name, F); err != nil {
		return nil, crystal.ErrDecorate(err, "separable.Read")
	}
	return F, nil
}

//Write writes F to a JSON file, zstd-compressed if the name ends in ".zst".
func Write(name string, F *Function) error {
	return crystal.ErrDecorate(crystal.WriteJSON(name, F), "separable.Write")
}

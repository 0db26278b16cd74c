/*
 * separable_test.go, part of gocrystal.
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
	"fmt"
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	crystal "github.com/rmera/gocrystal"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

//single wraps each input as its own, only, equivalent, with weight 1.
func single(x [][]float64) ([][][]float64, [][]float64) {
	xx := make([][][]float64, len(x))
	ew := make([][]float64, len(x))
	for i, v := range x {
		xx[i] = [][]float64{v}
		ew[i] = []float64{1}
	}
	return xx, ew
}

func ones(n int) []float64 {
	r := make([]float64, n)
	for i := range r {
		r[i] = 1
	}
	return r
}

func TestLinearFit(Te *testing.T) {
	F, err := NewFunction(Polynomial(2), 1, 1)
	require.NoError(Te, err)
	C := NewCollapse(F)
	var x [][]float64
	var targets []float64
	for i := 0; i < 10; i++ {
		v := -1 + 0.25*float64(i)
		x = append(x, []float64{v})
		targets = append(targets, 2+3*v)
	}
	xx, ew := single(x)
	require.NoError(Te, C.Init(xx, ones(len(x)), ew))
	A, b, err := C.Assemble(0, targets)
	require.NoError(Te, err)
	sol, err := Solve(A, b)
	require.NoError(Te, err)
	require.InDelta(Te, 2, sol.AtVec(0), 1e-10)
	require.InDelta(Te, 3, sol.AtVec(1), 1e-10)
	require.NoError(Te, C.Update(0, sol.RawVector().Data))
	require.InDelta(Te, math.Sqrt(13), F.Norms[0], 1e-10)
	res, err := C.Evaluate(targets)
	require.NoError(Te, err)
	require.Less(Te, res, 1e-10)
	require.InDelta(Te, 2+3*0.4, F.Value([]float64{0.4}), 1e-10)
}

//product is the rank-1 function (1+x)(2-y)(0.5+z).
func product(x []float64) float64 {
	return (1 + x[0]) * (2 - x[1]) * (0.5 + x[2])
}

func TestSweeps(Te *testing.T) {
	F, err := NewFunction(Polynomial(2), 1, 3)
	require.NoError(Te, err)
	C := NewCollapse(F)
	rng := rand.New(rand.NewSource(7))
	var x [][]float64
	var targets []float64
	for i := 0; i < 40; i++ {
		v := []float64{rng.Float64()*2 - 1, rng.Float64()*2 - 1, rng.Float64()*2 - 1}
		x = append(x, v)
		targets = append(targets, product(v))
	}
	xx, ew := single(x)
	require.NoError(Te, C.Init(xx, ones(len(x)), ew))
	C.CreateCoefficients(0.5, rng)
	var res float64
	for i := 0; i < 50; i++ {
		res, err = C.Sweep(targets)
		require.NoError(Te, err)
		if res < 1e-20 {
			break
		}
	}
	require.Less(Te, res, 1e-10)
	require.InDelta(Te, product([]float64{0.1, 0.2, 0.3}), F.Value([]float64{0.1, 0.2, 0.3}), 1e-4)
	fmt.Println(F)
}

func TestEquivalents(Te *testing.T) {
	//Each target is the average of a function over two equivalent inputs.
	F, err := NewFunction(HalfHalf{}, 1, 2)
	require.NoError(Te, err)
	F.Coefs.SetCol(0, []float64{1, 2})
	F.Coefs.SetCol(1, []float64{0.5, -1})
	C := NewCollapse(F)
	x := [][][]float64{
		{{1, 1}, {-1, -1}},
		{{1, -1}, {-1, 1}},
	}
	ew := [][]float64{{0.5, 0.5}, {0.5, 0.5}}
	require.NoError(Te, C.Init(x, []float64{1, 1}, ew))
	want := []float64{0.5 * (1*0.5 + 2*-1), 0.5 * (1*-1 + 2*0.5)}
	for t := range want {
		require.InDelta(Te, want[t], C.Value(t), 1e-12)
	}
	X := make([]float64, F.DOF())
	C.FeatureVector(0, 0, X)
	require.True(Te, floats.EqualApprox(X, []float64{0.25, -0.5}, 1e-12), "%v", X)
	require.InDelta(Te, want[0], floats.Dot(X, mat.Col(nil, 0, F.Coefs)), 1e-12)
}

func TestRegularization(Te *testing.T) {
	F, err := NewFunction(HalfHalf{}, 2, 1)
	require.NoError(Te, err)
	F.Norms[1] = 2
	C := NewCollapse(F)
	C.Regularization = 0.1
	xx, ew := single([][]float64{{1}, {-1}})
	require.NoError(Te, C.Init(xx, ones(2), ew))
	A, _, err := C.Assemble(0, []float64{1, 2})
	require.NoError(Te, err)
	//Features are norm·φ_i(x): only the regularized diagonal entries are affected.
	require.InDelta(Te, 1+0.1, A.At(0, 0), 1e-12)
	require.InDelta(Te, 1, A.At(1, 1), 1e-12)
	require.InDelta(Te, 4+0.1*4, A.At(2, 2), 1e-12)
	require.InDelta(Te, 4, A.At(3, 3), 1e-12)
}

func TestTargetWeights(Te *testing.T) {
	//A constant fitted to inconsistent targets: the weighted mean.
	F, err := NewFunction(Polynomial(1), 1, 1)
	require.NoError(Te, err)
	C := NewCollapse(F)
	xx, ew := single([][]float64{{0.1}, {0.5}, {0.9}})
	require.NoError(Te, C.Init(xx, []float64{1, 1, 2}, ew))
	targets := []float64{1, 2, 4}
	A, b, err := C.Assemble(0, targets)
	require.NoError(Te, err)
	require.InDelta(Te, 4, A.At(0, 0), 1e-12)
	require.InDelta(Te, 11, b.AtVec(0), 1e-12)
	sol, err := Solve(A, b)
	require.NoError(Te, err)
	require.InDelta(Te, 2.75, sol.AtVec(0), 1e-12)
	require.NoError(Te, C.Update(0, sol.RawVector().Data))
	require.InDelta(Te, 2.75, C.Value(1), 1e-12)
	res, err := C.Evaluate(targets)
	require.NoError(Te, err)
	require.InDelta(Te, (1.75*1.75+0.75*0.75+2*1.25*1.25)/3, res, 1e-12)
}

func TestCreateCoefficientsNoSpread(Te *testing.T) {
	F, err := NewFunction(Polynomial(1), 1, 2)
	require.NoError(Te, err)
	C := NewCollapse(F)
	C.CreateCoefficients(0, rand.New(rand.NewSource(1)))
	require.Equal(Te, []float64{1, 1}, mat.Row(nil, 0, F.Coefs))
	require.Equal(Te, []float64{1}, F.Norms)
	F, err = NewFunction(Polynomial(2), 2, 1)
	require.NoError(Te, err)
	C = NewCollapse(F)
	C.CreateCoefficients(0, rand.New(rand.NewSource(1)))
	require.Equal(Te, []float64{0, 1, 0, 1}, mat.Col(nil, 0, F.Coefs))
}

func TestSizeErrors(Te *testing.T) {
	F, err := NewFunction(Polynomial(3), 2, 2)
	require.NoError(Te, err)
	C := NewCollapse(F)
	err = C.Init([][][]float64{{{1, 2}}}, []float64{1, 1}, [][]float64{{1}})
	require.True(Te, crystal.IsKind(err, crystal.Shape), "unexpected error: %v", err)
	err = C.Init([][][]float64{{{1, 2, 3}}}, []float64{1}, [][]float64{{1}})
	require.True(Te, crystal.IsKind(err, crystal.Shape), "unexpected error: %v", err)
	_, _, err = C.Assemble(0, []float64{1})
	require.True(Te, crystal.IsKind(err, crystal.Input), "unexpected error: %v", err)
	require.NoError(Te, C.Init([][][]float64{{{1, 2}}}, []float64{1}, [][]float64{{1}}))
	_, _, err = C.Assemble(0, []float64{1, 2})
	require.True(Te, crystal.IsKind(err, crystal.Shape), "unexpected error: %v", err)
	_, _, err = C.Assemble(2, []float64{1})
	require.True(Te, crystal.IsKind(err, crystal.Input), "unexpected error: %v", err)
	_, err = NewBasis("fourier", 3)
	require.True(Te, crystal.IsKind(err, crystal.Config), "unexpected error: %v", err)
}

func TestSingularSolve(Te *testing.T) {
	A := mat.NewSymDense(2, []float64{1, 1, 1, 1})
	b := mat.NewVecDense(2, []float64{2, 2})
	x, err := Solve(A, b)
	require.NoError(Te, err)
	require.InDelta(Te, 1, x.AtVec(0), 1e-10)
	require.InDelta(Te, 1, x.AtVec(1), 1e-10)
}

func TestFunctionIO(Te *testing.T) {
	F, err := NewFunction(Polynomial(3), 2, 4)
	require.NoError(Te, err)
	C := NewCollapse(F)
	C.CreateCoefficients(1, rand.New(rand.NewSource(1)))
	F.Norms[1] = 3.5
	name := filepath.Join(Te.TempDir(), "f.json.zst")
	require.NoError(Te, Write(name, F))
	F2, err := Read(name)
	require.NoError(Te, err)
	require.Equal(Te, F.Norms, F2.Norms)
	require.True(Te, mat.Equal(F.Coefs, F2.Coefs))
	require.Equal(Te, Polynomial(3), F2.Basis)
	x := []float64{0.1, -0.3, 0.7, 1.2}
	require.Equal(Te, F.Value(x), F2.Value(x))
}

/*
 * mixed_test.go, part of gocrystal.
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
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	crystal "github.com/rmera/gocrystal"
	"github.com/rmera/gocrystal/separable"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

var testPis = [][]float64{
	{1, 0.2},
	{1, -0.4},
	{1, 1},
	{1, 0.5},
	{1, -1},
}

func ceTargets() []float64 {
	t := make([]float64, len(testPis))
	for i, v := range testPis {
		t[i] = 1.5*v[0] - 0.5*v[1]
	}
	return t
}

func TestPureCE(Te *testing.T) {
	m, err := NewMapping(ceTargets(), nil)
	require.NoError(Te, err)
	A, err := New(nil, testPis, m)
	require.NoError(Te, err)
	require.Equal(Te, 0, A.SepDOF())
	require.Equal(Te, 2, A.DOF())
	require.Equal(Te, 1, A.Dims())
	H, err := Fit(A, nil)
	require.NoError(Te, err)
	require.True(Te, H.Converged)
	e := A.ECIs()
	require.InDelta(Te, 1.5, e[0], 1e-10)
	require.InDelta(Te, -0.5, e[1], 1e-10)
	require.Less(Te, H.Last().MSE, 1e-18)
	clusters := []*Cluster{{Name: "empty"}, {Name: "point"}}
	require.NoError(Te, A.Reassign(clusters))
	require.InDelta(Te, -0.5, clusters[1].ECI, 1e-10)
	err = A.Reassign(clusters[:1])
	require.True(Te, crystal.IsKind(err, crystal.Shape), "unexpected error: %v", err)
}

func TestCERegularization(Te *testing.T) {
	m, err := NewMapping(ceTargets(), nil)
	require.NoError(Te, err)
	A, err := New(nil, testPis, m)
	require.NoError(Te, err)
	A.CERegularization = 0.5
	M, _, err := A.Assemble(0)
	require.NoError(Te, err)
	require.InDelta(Te, 5.5, M.At(0, 0), 1e-12)
	require.InDelta(Te, 0.04+0.16+1+0.25+1+0.5, M.At(1, 1), 1e-12)
	require.InDelta(Te, 0.2-0.4+1+0.5-1, M.At(0, 1), 1e-12)
}

//mixedSetup returns an approach fitting (1+x)(2-y) plus 0.7 times a single cluster function.
func mixedSetup(Te *testing.T, n int, seed int64) *Approach {
	rng := rand.New(rand.NewSource(seed))
	x := make([][][]float64, n)
	ew := make([][]float64, n)
	w := make([]float64, n)
	pis := make([][]float64, n)
	targets := make([]float64, n)
	for i := range x {
		v := []float64{rng.Float64()*2 - 1, rng.Float64()*2 - 1}
		x[i] = [][]float64{v}
		ew[i] = []float64{1}
		w[i] = 1
		pis[i] = []float64{math.Sin(3 * float64(i))}
		targets[i] = (1+v[0])*(2-v[1]) + 0.7*pis[i][0]
	}
	F, err := separable.NewFunction(separable.Polynomial(2), 1, 2)
	require.NoError(Te, err)
	C := separable.NewCollapse(F)
	require.NoError(Te, C.Init(x, w, ew))
	m, err := NewMapping(targets, nil)
	require.NoError(Te, err)
	A, err := New(C, pis, m)
	require.NoError(Te, err)
	return A
}

func TestMixedFit(Te *testing.T) {
	A := mixedSetup(Te, 30, 3)
	require.Equal(Te, 2, A.SepDOF())
	require.Equal(Te, 1, A.CEDOF())
	require.Equal(Te, 2, A.Dims())
	A.Randomize(0.5, rand.New(rand.NewSource(11)))
	O := DefaultFitOptions()
	O.Itermax = 300
	O.Tolerance = 1e-20
	H, err := Fit(A, O)
	require.NoError(Te, err)
	require.Less(Te, H.Last().MSE, 1e-8)
	require.InDelta(Te, 0.7, A.ECIs()[0], 1e-3)
	//The ECIs are the same in every column after a sweep.
	c := A.Coefficients()
	for d := 1; d < A.Dims(); d++ {
		require.Equal(Te, c.At(A.SepDOF(), 0), c.At(A.SepDOF(), d))
	}
}

func TestSharedCoefficients(Te *testing.T) {
	A := mixedSetup(Te, 6, 5)
	A.Randomize(1, rand.New(rand.NewSource(2)))
	c := A.Coefficients()
	require.True(Te, mat.Equal(A.Sep.F.Coefs, c.Slice(0, A.SepDOF(), 0, A.Dims())))
	c.Set(1, 1, 42)
	require.Equal(Te, 42.0, A.Sep.F.Coefs.At(1, 1))
	//Updating a dimension makes its ECIs the authoritative ones.
	x := []float64{1, 0, 3}
	require.NoError(Te, A.Update(1, x))
	require.Equal(Te, 3.0, A.ECIs()[0])
	require.Equal(Te, 1.0, A.Sep.F.Coefs.At(0, 1))
	//and assembling another dimension synchronizes its ECIs.
	c.Set(A.SepDOF(), 0, -2)
	_, _, err := A.Assemble(1)
	require.NoError(Te, err)
	require.Equal(Te, -2.0, c.At(A.SepDOF(), 1))
	_, _, err = A.Assemble(2)
	require.True(Te, crystal.IsKind(err, crystal.Input), "unexpected error: %v", err)
	err = A.Update(0, x[:2])
	require.True(Te, crystal.IsKind(err, crystal.Shape), "unexpected error: %v", err)
}

func TestLeaveOneOut(Te *testing.T) {
	m, err := NewMapping(ceTargets(), nil)
	require.NoError(Te, err)
	A, err := New(nil, testPis, m)
	require.NoError(Te, err)
	training, prediction, err := LeaveOneOut(A, nil)
	require.NoError(Te, err)
	require.Len(Te, training, len(testPis))
	for _, v := range training {
		require.Equal(Te, len(testPis)-1, v.N)
		require.Less(Te, v.MSE, 1e-18)
	}
	require.Equal(Te, len(testPis), prediction.N)
	require.Less(Te, prediction.Max, 1e-9)
	for i := range testPis {
		require.False(Te, A.Mapping.DoSkip(i))
	}
	require.Equal(Te, len(testPis), A.Evaluate().N)
}

func TestErrorTuple(Te *testing.T) {
	e := NewErrorTuple([]float64{1, -2, 3}, nil)
	require.InDelta(Te, 14.0/3, e.MSE, 1e-12)
	require.InDelta(Te, 2, e.Mean, 1e-12)
	require.Equal(Te, 3.0, e.Max)
	require.Equal(Te, 3, e.N)
	require.InDelta(Te, math.Sqrt(14.0/3), e.RMS(), 1e-12)
	e = NewErrorTuple([]float64{1, -2, 3}, []float64{1, 1, 2})
	require.InDelta(Te, 23.0/4, e.MSE, 1e-12)
	require.InDelta(Te, 9.0/4, e.Mean, 1e-12)
	require.Equal(Te, ErrorTuple{}, NewErrorTuple(nil, nil))
}

func TestInputErrors(Te *testing.T) {
	_, err := NewMapping([]float64{1, 2}, []float64{1})
	require.True(Te, crystal.IsKind(err, crystal.Shape), "unexpected error: %v", err)
	_, err = NewMapping([]float64{1, 2}, []float64{1, -1})
	require.True(Te, crystal.IsKind(err, crystal.Input), "unexpected error: %v", err)
	m, err := NewMapping([]float64{1, 2}, nil)
	require.NoError(Te, err)
	_, err = New(nil, nil, m)
	require.True(Te, crystal.IsKind(err, crystal.Input), "unexpected error: %v", err)
	_, err = New(nil, testPis, m)
	require.True(Te, crystal.IsKind(err, crystal.Shape), "unexpected error: %v", err)
	_, err = New(nil, [][]float64{{1, 2}, {1}}, m)
	require.True(Te, crystal.IsKind(err, crystal.Shape), "unexpected error: %v", err)
}

func TestCoefficientsIO(Te *testing.T) {
	A := mixedSetup(Te, 8, 4)
	A.Randomize(1, rand.New(rand.NewSource(9)))
	name := filepath.Join(Te.TempDir(), "coefs.json.zst")
	require.NoError(Te, A.WriteCoefficients(name))
	B := mixedSetup(Te, 8, 4)
	require.NoError(Te, B.ReadCoefficients(name))
	for i := 0; i < 8; i++ {
		require.InDelta(Te, A.Value(i), B.Value(i), 1e-12)
	}
	m, err := NewMapping(ceTargets(), nil)
	require.NoError(Te, err)
	C, err := New(nil, testPis, m)
	require.NoError(Te, err)
	err = C.ReadCoefficients(name)
	require.True(Te, crystal.IsKind(err, crystal.Shape), "unexpected error: %v", err)
}

func TestRemoveContained(Te *testing.T) {
	positions := [][3]float64{{1, 0, 0}, {0, 1, 0}}
	clusters := []*Cluster{
		{Name: "empty"},
		{Name: "point", Figures: [][][3]float64{{{0, 0, 0}}}},
		{Name: "pair1", Figures: [][][3]float64{{{0, 0, 0}, {0, 0, 1}}, {{0, 0, 0}, {1, 0, 0}}}},
		{Name: "pair2", Figures: [][][3]float64{{{0, 0, 0}, {0, 0, 2}}}},
		{Name: "triplet1", Figures: [][][3]float64{{{0, 0, 0}, {1, 0, 1e-6}, {0, 1, 0}}}},
		{Name: "triplet2", Figures: [][][3]float64{{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}}}},
	}
	kept := RemoveContained(positions, clusters)
	names := make([]string, len(kept))
	for i, v := range kept {
		names[i] = v.Name
	}
	require.Equal(Te, []string{"empty", "point", "pair2", "triplet2"}, names)
	require.Len(Te, clusters, 6)
	require.Equal(Te, 0, clusters[0].Sites())
	require.Equal(Te, 3, clusters[5].Sites())
	//No positions, nothing is contained.
	require.Len(Te, RemoveContained(nil, clusters), 6)
}

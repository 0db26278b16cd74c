/*
 * vff_test.go, part of gocrystal.
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

package vff

import (
	"fmt"
	"math"
	"path/filepath"
	"reflect"
	"testing"

	crystal "github.com/rmera/gocrystal"
	"github.com/rmera/gocrystal/histo"
	"github.com/rmera/gocrystal/minimizer"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

const (
	dGaAs = 2.45
	dInAs = 2.62
)

func cubic(n float64) *mat.Dense {
	return mat.NewDense(3, 3, []float64{n, 0, 0, 0, n, 0, 0, 0, n})
}

//testParams returns parameters for (Ga,In)As. They are not fitted to anything.
func testParams() *Params {
	alphas := []float64{1.2, -0.4, 0.3}
	betas := []float64{0.9, 0.2}
	return &Params{
		Bonds: []*BondParams{
			{A: "Ga", B: "As", Length: dGaAs, Alphas: alphas},
			{A: "In", B: "As", Length: dInAs, Alphas: []float64{1.0, -0.3, 0.2}},
		},
		Angles: []*AngleParams{
			{A: "As", B: "Ga", C: "As", Gamma: Tetrahedral, Sigma: 0.1, Betas: betas},
			{A: "As", B: "In", C: "As", Gamma: Tetrahedral, Sigma: 0.05, Betas: betas},
			{A: "Ga", B: "As", C: "Ga", Gamma: Tetrahedral, Sigma: 0.1, Betas: betas},
			{A: "Ga", B: "As", C: "In", Gamma: Tetrahedral, Sigma: 0.07, Betas: []float64{0.8}},
			{A: "In", B: "As", C: "In", Gamma: Tetrahedral, Sigma: 0.05, Betas: betas},
		},
	}
}

//idealScale is the cubic lattice constant at which all the bonds have length d.
func idealScale(d float64) float64 {
	return 4 * d / math.Sqrt(3)
}

//setup returns a force field on (Ga,In)As and the ideal supercell with the given cell.
func setup(Te *testing.T, opts *Options, cell *mat.Dense) (*Vff, *crystal.Structure) {
	L := crystal.ZincBlende(idealScale(dGaAs), []string{"Ga", "In"}, []string{"As"})
	V := New(L, opts)
	require.NoError(Te, V.Load(testParams()))
	S, err := crystal.Supercell(L, cell)
	require.NoError(Te, err)
	return V, S
}

//perturb displaces the atoms of S by small, deterministic, amounts.
func perturb(S *crystal.Structure, amount float64) {
	for i := 0; i < S.Len(); i++ {
		p := S.Pos(i)
		for j := 0; j < 3; j++ {
			p[j] += amount * math.Sin(float64(7*i+3*j+1))
		}
		S.Coords.SetVec(i, p)
	}
}

var supercells = []*mat.Dense{
	cubic(1),
	cubic(2),
	mat.NewDense(3, 3, []float64{0, 0.5, 0.5, 0.5, 0, 0.5, 0.5, 0.5, 0}),
	mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 2}),
	mat.NewDense(3, 3, []float64{1, 0.5, 0, 0, 1, 0.5, 0, 0.5, 1.5}),
	mat.NewDense(3, 3, []float64{-1, 0.5, 0.5, 0.5, -1, 0.5, 0.5, 0.5, 1}),
}

func TestTreeZincBlende(Te *testing.T) {
	V, S := setup(Te, nil, cubic(1))
	require.Equal(Te, 8, S.Len())
	require.NoError(Te, V.Init(S))
	T := V.Tree()
	require.NoError(Te, T.Check())
	for _, c := range T.Centers {
		require.Len(Te, c.Bonds, NBonds)
		for _, b := range c.Bonds {
			require.NotEqual(Te, S.Atoms[c.Index].Site, S.Atoms[b.Center].Site)
			require.InDelta(Te, math.Sqrt(3)/4, norm(T.BondVector(c, b)), 1e-10)
		}
	}
	require.Equal(Te, 4*S.Len(), T.NBonds())
	require.Equal(Te, 2*S.Len(), distinctBonds(T))
	require.NoError(Te, T.Symmetric())
	require.Len(Te, T.Components(), 1)
	fmt.Println(T)
}

//distinctBonds counts the bonds of T, taking (i,j,t) and (j,i,-t) as the same bond.
func distinctBonds(T *Tree) int {
	type key struct {
		i, j int
		t    [3]float64
	}
	seen := make(map[key]bool)
	for _, c := range T.Centers {
		for _, b := range c.Bonds {
			var t [3]float64
			if b.DoTranslate {
				t = b.Translation
			}
			k := key{c.Index, b.Center, t}
			if k.i > k.j {
				k = key{b.Center, c.Index, [3]float64{-t[0], -t[1], -t[2]}}
			}
			seen[k] = true
		}
	}
	return len(seen)
}

func norm(v [3]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

func TestBuildersAgree(Te *testing.T) {
	for _, cell := range supercells {
		V, S := setup(Te, nil, cell)
		perturb(S, 0.01)
		smith, err := BuildTreeSmith(S, V.fn)
		require.NoError(Te, err, "cell %v", mat.Formatted(cell, mat.Squeeze()))
		d, err := FirstNeighborDistance(V.lattice)
		require.NoError(Te, err)
		brute, err := BuildTreeBruteForce(S, DefaultCutoff*d)
		require.NoError(Te, err, "cell %v", mat.Formatted(cell, mat.Squeeze()))
		require.NoError(Te, Equivalent(smith, brute))
		require.Equal(Te, 4*S.Len(), smith.NBonds())
		require.NoError(Te, smith.Symmetric())
	}
}

func TestCheckOption(Te *testing.T) {
	opts := DefaultOptions()
	opts.Check(true)
	opts.Verbose(true)
	V, S := setup(Te, opts, cubic(2))
	require.NoError(Te, V.Init(S))
	opts = DefaultOptions()
	opts.Builder(BruteForceBuilder)
	V2, S2 := setup(Te, opts, cubic(2))
	require.NoError(Te, V2.Init(S2))
	require.NoError(Te, Equivalent(V.Tree(), V2.Tree()))
	require.InDelta(Te, V.Energy(), V2.Energy(), 1e-12)
}

func TestSmithIdempotent(Te *testing.T) {
	V, S := setup(Te, nil, supercells[4])
	perturb(S, 0.02)
	A, err := BuildTreeSmith(S, V.fn)
	require.NoError(Te, err)
	B, err := BuildTreeSmith(S, V.fn)
	require.NoError(Te, err)
	if !reflect.DeepEqual(A.Centers, B.Centers) {
		Te.Error("two trees built from the same structure differ")
	}
}

func TestNotSupercell(Te *testing.T) {
	V, S := setup(Te, nil, cubic(1))
	S.Cell = cubic(1.05)
	err := V.Init(S)
	require.Error(Te, err)
	require.True(Te, crystal.IsKind(err, crystal.NotSupercell), "unexpected error: %v", err)
	require.Contains(Te, err.Error(), "not a supercell")
	fmt.Println(err)
}

func TestBruteForceBondCount(Te *testing.T) {
	_, S := setup(Te, nil, cubic(1))
	d := math.Sqrt(3) / 4
	_, err := BuildTreeBruteForce(S, 1.7*d) //reaches second neighbors
	require.Error(Te, err)
	require.True(Te, crystal.IsKind(err, crystal.BondCount))
}

func TestLoadErrors(Te *testing.T) {
	//3 sites
	L := crystal.ZincBlende(5.65, []string{"Ga"}, []string{"As"})
	L.Sites = append(L.Sites, &crystal.Site{Pos: [3]float64{0.5, 0.5, 0.5}, Types: []string{"Si"}})
	err := New(L, nil).Load(testParams())
	require.True(Te, crystal.IsKind(err, crystal.SiteCount), "unexpected error: %v", err)
	//too many types
	L = crystal.ZincBlende(5.65, []string{"Ga", "In", "Al"}, []string{"As"})
	err = New(L, nil).Load(testParams())
	require.True(Te, crystal.IsKind(err, crystal.TypeCount), "unexpected error: %v", err)
	//an empty site
	L = crystal.ZincBlende(5.65, []string{"Ga", "In"}, nil)
	err = New(L, nil).Load(testParams())
	require.True(Te, crystal.IsKind(err, crystal.TypeCount), "unexpected error: %v", err)
	//missing parameters
	L = crystal.ZincBlende(5.65, []string{"Ga"}, []string{"P"})
	err = New(L, nil).Load(testParams())
	require.True(Te, crystal.IsKind(err, crystal.Config), "unexpected error: %v", err)
	fmt.Println(err)
	//bad parameters
	P := testParams()
	P.Bonds[0].Length = -1
	L = crystal.ZincBlende(5.65, []string{"Ga"}, []string{"As"})
	err = New(L, nil).Load(P)
	require.True(Te, crystal.IsKind(err, crystal.Config), "unexpected error: %v", err)
	//Init before Load
	S, err := crystal.Supercell(L, cubic(1))
	require.NoError(Te, err)
	err = New(L, nil).Init(S)
	require.True(Te, crystal.IsKind(err, crystal.Config), "unexpected error: %v", err)
}

func TestIdealEnergy(Te *testing.T) {
	V, S := setup(Te, nil, cubic(2))
	require.NoError(Te, V.Init(S))
	E, g := V.Gradient()
	require.InDelta(Te, 0, E, 1e-12)
	for i := 0; i < g.NVecs(); i++ {
		for j := 0; j < 3; j++ {
			require.InDelta(Te, 0, g.At(i, j), 1e-10)
		}
	}
	st := V.Stress()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			require.InDelta(Te, 0, st.At(i, j), 1e-10)
		}
	}
	for _, v := range V.MicroStrain() {
		require.InDelta(Te, 0, v, 1e-10)
	}
	for k, v := range V.BondLengths() {
		require.Equal(Te, "Ga-As", k)
		require.Len(Te, v, 2*S.Len())
		for _, l := range v {
			require.InDelta(Te, dGaAs, l, 1e-10)
		}
	}
	H := V.BondHistograms(histo.Dividers(2, 3, 20))
	r, c := H.Dims()
	require.Equal(Te, [2]int{2, 1}, [2]int{r, c})
	require.Equal(Te, 2*S.Len(), H.View(0, 0).Total())
	require.Zero(Te, H.View(1, 0).Total())
	require.InDelta(Te, dGaAs, H.View(0, 0).Mean(), 0.025)
}

//alloy puts In in every third site-0 atom of S.
func alloy(S *crystal.Structure) {
	n := 0
	for _, at := range S.Atoms {
		if at.Site != 0 {
			continue
		}
		if n%3 == 0 {
			at.Symbol = "In"
		}
		n++
	}
}

func TestGradient(Te *testing.T) {
	V, S := setup(Te, nil, supercells[4])
	alloy(S)
	perturb(S, 0.01)
	require.NoError(Te, V.Init(S))
	E, g := V.Gradient()
	require.NotZero(Te, E)
	const h = 1e-6
	for i := 0; i < S.Len(); i++ {
		for j := 0; j < 3; j++ {
			v := S.Coords.At(i, j)
			S.Coords.Set(i, j, v+h)
			ep := V.Energy()
			S.Coords.Set(i, j, v-h)
			em := V.Energy()
			S.Coords.Set(i, j, v)
			require.InDelta(Te, (ep-em)/(2*h), g.At(i, j), 1e-5*math.Max(1, math.Abs(g.At(i, j))), "atom %d, component %d", i, j)
		}
	}
}

func TestStrainGradient(Te *testing.T) {
	V, S := setup(Te, nil, cubic(1))
	alloy(S)
	perturb(S, 0.01)
	require.NoError(Te, V.Init(S))
	R := NewRelaxation(V, true)
	x := R.X()
	require.Len(Te, x, 3*S.Len()+NStrain)
	for k := 0; k < NStrain; k++ {
		x[3*S.Len()+k] = 0.003 * float64(k+1)
	}
	grad := make([]float64, len(x))
	R.Grad(grad, x)
	const h = 1e-6
	for k := range x {
		v := x[k]
		x[k] = v + h
		ep := R.Func(x)
		x[k] = v - h
		em := R.Func(x)
		x[k] = v
		require.InDelta(Te, (ep-em)/(2*h), grad[k], 1e-5*math.Max(1, math.Abs(grad[k])), "variable %d", k)
	}
}

func TestApplyStrain(Te *testing.T) {
	V, S := setup(Te, nil, cubic(1))
	perturb(S, 0.01)
	require.NoError(Te, V.Init(S))
	R := NewRelaxation(V, true)
	x := R.X()
	u := append([]float64(nil), x...)
	cell0 := mat.DenseCopyOf(S.Cell)
	x[3*S.Len()] = 0.01 //xx
	R.Apply(x)
	for i := 0; i < S.Len(); i++ {
		p := S.Pos(i)
		require.InDelta(Te, 1.01*u[3*i], p[0], 1e-12)
		require.InDelta(Te, u[3*i+1], p[1], 1e-12)
		require.InDelta(Te, u[3*i+2], p[2], 1e-12)
	}
	require.InDelta(Te, 1.01*cell0.At(0, 0), S.Cell.At(0, 0), 1e-12)
	require.InDelta(Te, cell0.At(1, 1), S.Cell.At(1, 1), 1e-12)
	//the undeformed positions are not touched.
	require.Equal(Te, u[:3*S.Len()], x[:3*S.Len()])
	x[3*S.Len()] = 0
	R.Apply(x)
	require.True(Te, mat.EqualApprox(cell0, S.Cell, 1e-14))
}

func TestRelax(Te *testing.T) {
	V, S := setup(Te, nil, cubic(1))
	alloy(S)
	perturb(S, 0.01)
	require.NoError(Te, V.Init(S))
	E0 := V.Energy()
	mo := minimizer.DefaultOptions()
	mo.Method = minimizer.LBFGS
	mo.GradTol = 1e-3
	mo.Tolerance = 0
	mo.Itermax = 500
	m, err := minimizer.New(mo)
	require.NoError(Te, err)
	S.Atoms[0].Freeze = true
	p0 := S.Pos(0)
	E1, err := V.Relax(m, false)
	require.NoError(Te, err)
	require.Less(Te, E1, E0)
	require.InDelta(Te, E1, V.Energy(), 1e-10)
	require.Equal(Te, p0, S.Pos(0))
	vol := S.Volume()
	E2, err := V.Relax(m, true)
	require.NoError(Te, err)
	require.LessOrEqual(Te, E2, E1+1e-10)
	fmt.Println("relaxed:", E0, "->", E1, "->", E2, "volume", vol, "->", S.Volume())
}

func TestRelaxDecoupled(Te *testing.T) {
	V, S := setup(Te, nil, cubic(1))
	alloy(S)
	perturb(S, 0.01)
	require.NoError(Te, V.Init(S))
	E0 := V.Energy()
	mo := minimizer.DefaultOptions()
	mo.Method = minimizer.Decoupled
	mo.Inner = minimizer.LBFGS
	mo.GradTol = 1e-3
	mo.Tolerance = 1e-8
	mo.Itermax = 20
	m, err := minimizer.New(mo)
	require.NoError(Te, err)
	cell0 := mat.DenseCopyOf(S.Cell)
	E, err := V.Relax(m, true)
	require.NoError(Te, err)
	require.Less(Te, E, E0)
	require.InDelta(Te, E, V.Energy(), 1e-10)
	require.False(Te, mat.Equal(cell0, S.Cell))
	//the split is set per relaxation, the minimizer is left alone.
	require.Equal(Te, 0, m.(*minimizer.DecoupledMin).Mid)
	E2, err := V.Relax(m, false)
	require.NoError(Te, err)
	require.LessOrEqual(Te, E2, E+1e-10)
}

func TestParamsIO(Te *testing.T) {
	dir := Te.TempDir()
	name := filepath.Join(dir, "gaas.json.zst")
	P := testParams()
	P.Cutoff = 1.3
	require.NoError(Te, WriteParams(name, P))
	P2, err := ReadParams(name)
	require.NoError(Te, err)
	require.Equal(Te, P, P2)
	name = filepath.Join(dir, "tet.json")
	w, err := crystal.CreateWriter(name)
	require.NoError(Te, err)
	_, err = w.Write([]byte(`{"bonds":[{"A":"Ga","B":"As","d0":2.45,"alphas":[1]}],"angles":[{"A":"As","B":"Ga","C":"As","gamma":"tet","sigma":0,"betas":[1]},{"A":"Ga","B":"As","C":"Ga","gamma":"-0.25","sigma":0,"betas":[1]}]}`))
	require.NoError(Te, err)
	require.NoError(Te, w.Close())
	P3, err := ReadParams(name)
	require.NoError(Te, err)
	require.Equal(Te, Gamma(Tetrahedral), P3.Angles[0].Gamma)
	require.Equal(Te, Gamma(-0.25), P3.Angles[1].Gamma)
	require.Equal(Te, P3.Angles[0], P3.Angle("As", "Ga", "As"))
	require.Nil(Te, P3.Angle("Ga", "Ga", "As"))
}

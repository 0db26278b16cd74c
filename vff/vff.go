/*
 * vff.go, part of gocrystal.
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

//Package vff implements a valence force field for zinc-blende-like crystals: bond trees built
//over periodic structures, the energy with its analytic gradient and stress, and relaxation of
//positions and cell.
package vff

import (
	"fmt"
	"log"
	"math"

	crystal "github.com/rmera/gocrystal"
	"github.com/rmera/gocrystal/histo"
	v3 "github.com/rmera/gocrystal/v3"
	"gonum.org/v1/gonum/mat"
)

//Vff is a valence force field over a two-site lattice. It evaluates the energy of a structure,
//and its derivatives, by walking the first-neighbor tree of the structure. It does
//not minimize anything by itself; see Relaxation for that.
type Vff struct {
	lattice     *crystal.Lattice
	params      *Params
	functionals []*AtomicFunctional
	fn          [2][][3]float64
	opts        *Options

	str   *crystal.Structure
	tree  *Tree
	kind  []int   //functional of each center
	kinds [][]int //type, in the neighbor site, of the other end of each bond
}

//New returns a force field for structures on the lattice L. If opts is nil, DefaultOptions are used.
func New(L *crystal.Lattice, opts *Options) *Vff {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Vff{lattice: L, opts: opts}
}

//Load checks that the lattice is suitable for the force field (2 sites, and between 2 and 4 atomic
//types in total, at most 2 per site) and loads the functionals for each atomic type from P. Failures are
//logged and returned.
func (V *Vff) Load(P *Params) error {
	err := V.load(P)
	if err != nil {
		log.Printf("goCrystal/vff: cannot do vff on this lattice: %v", err)
		return crystal.ErrDecorate(err, "Vff.Load")
	}
	return nil
}

func (V *Vff) load(P *Params) error {
	L := V.lattice
	if L == nil {
		return crystal.NewError(crystal.Input, "load", "lattice not set")
	}
	if len(L.Sites) != 2 {
		return crystal.NewError(crystal.SiteCount, "load", "need 2 and only 2 different sites per unit cell, not %d", len(L.Sites))
	}
	n0, n1 := len(L.Sites[0].Types), len(L.Sites[1].Types)
	if n0+n1 < 2 || n0+n1 > 4 || n0 < 1 || n1 < 1 || n0 > 2 || n1 > 2 {
		return crystal.NewError(crystal.TypeCount, "load", "need two sites with one or two atomic types each, not %d and %d", n0, n1)
	}
	if err := P.validate(); err != nil {
		return err
	}
	fn, err := FirstNeighbors(L)
	if err != nil {
		return err
	}
	functionals := make([]*AtomicFunctional, 0, n0+n1)
	for s := 0; s < 2; s++ {
		for _, t := range L.Sites[s].Types {
			f, err := newAtomicFunctional(P, t, s, L.Sites[1-s].Types)
			if err != nil {
				return err
			}
			functionals = append(functionals, f)
		}
	}
	V.params = P
	V.fn = fn
	V.functionals = functionals
	return nil
}

//Functionals returns the atomic functionals, the first ones for the types of site 0, then
//those of site 1.
func (V *Vff) Functionals() []*AtomicFunctional {
	return V.functionals
}

//functional returns the index of the functional for the type symbol in site.
func (V *Vff) functional(site int, symbol string) int {
	t := V.lattice.Sites[site].TypeIndex(symbol)
	if t < 0 {
		return -1
	}
	if site == 0 {
		return t
	}
	return len(V.lattice.Sites[0].Types) + t
}

//Init builds the tree for the structure S, which the force field will evaluate from now on.
//S should be a supercell of the lattice given to New, and Load should have been called before.
func (V *Vff) Init(S *crystal.Structure) error {
	if V.functionals == nil {
		return crystal.NewError(crystal.Config, "Vff.Init", "functionals not loaded")
	}
	if S.Lattice == nil {
		S.Lattice = V.lattice
	}
	if len(S.Lattice.Sites) != 2 {
		return crystal.NewError(crystal.SiteCount, "Vff.Init", "the structure's lattice has %d sites", len(S.Lattice.Sites))
	}
	kind := make([]int, S.Len())
	for i, at := range S.Atoms {
		if at.Site < 0 || at.Site > 1 {
			return crystal.NewError(crystal.Input, "Vff.Init", "atom %d has site %d", i, at.Site)
		}
		kind[i] = V.functional(at.Site, at.Symbol)
		if kind[i] < 0 {
			return crystal.NewError(crystal.Input, "Vff.Init", "atom %d: type %s can't occupy site %d", i, at.Symbol, at.Site)
		}
	}
	tree, err := V.buildTree(S)
	if err != nil {
		return crystal.ErrDecorate(err, "Vff.Init")
	}
	kinds := make([][]int, tree.Len())
	for i, c := range tree.Centers {
		kinds[i] = make([]int, len(c.Bonds))
		for j, b := range c.Bonds {
			other := S.Atoms[b.Center]
			kinds[i][j] = V.lattice.Sites[other.Site].TypeIndex(other.Symbol)
		}
	}
	V.str = S
	V.tree = tree
	V.kind = kind
	V.kinds = kinds
	return nil
}

func (V *Vff) buildTree(S *crystal.Structure) (*Tree, error) {
	cutoff := V.opts.Cutoff()
	if cutoff == 0 && V.params != nil {
		cutoff = V.params.Cutoff
	}
	if cutoff == 0 {
		cutoff = DefaultCutoff
	}
	d, err := FirstNeighborDistance(V.lattice)
	if err != nil {
		return nil, err
	}
	cutoff *= d
	if V.opts.Builder() == BruteForceBuilder {
		return BuildTreeBruteForce(S, cutoff)
	}
	tree, err := BuildTreeSmith(S, V.fn)
	if err != nil {
		return nil, err
	}
	if V.opts.Check() {
		brute, err := BuildTreeBruteForce(S, cutoff)
		if err != nil {
			return nil, err
		}
		if err := Equivalent(tree, brute); err != nil {
			return nil, err
		}
	}
	if V.opts.Verbose() {
		if cc := tree.Components(); len(cc) > 1 {
			log.Printf("goCrystal/vff: the tree has %d disconnected components", len(cc))
		}
	}
	return tree, nil
}

//Tree returns the current tree.
func (V *Vff) Tree() *Tree {
	return V.tree
}

//Structure returns the current structure.
func (V *Vff) Structure() *crystal.Structure {
	return V.str
}

//Kind returns the index of the functional applied to the center c.
func (V *Vff) Kind(c *Center) int {
	return V.kind[c.Index]
}

//evaluate returns the energy of the current structure. If grad is not nil, the derivatives
//of the energy with respect to the atomic positions are put in it. If virial is not nil,
//sum over bonds of g⊗e, where e are the bond vectors and g the derivative of the energy
//with respect to them, is put in it.
func (V *Vff) evaluate(grad *v3.Matrix, virial *mat.Dense) float64 {
	if V.tree == nil {
		panic("goCrystal/vff: Vff used before Init")
	}
	if grad != nil {
		grad.Zero()
	}
	if virial != nil {
		virial.Zero()
	}
	var energy float64
	e := make([][3]float64, NBonds)
	var g [][3]float64
	if grad != nil || virial != nil {
		g = make([][3]float64, NBonds)
	}
	scale := V.str.Scale
	for _, c := range V.tree.Centers {
		for j, b := range c.Bonds {
			e[j] = V.tree.BondVector(c, b)
		}
		for j := range g {
			g[j] = [3]float64{}
		}
		F := V.functionals[V.kind[c.Index]]
		energy += F.Evaluate(e, V.kinds[c.Index], scale, F.Site == 0, g)
		if g == nil {
			continue
		}
		for j, b := range c.Bonds {
			if grad != nil {
				grad.SetVec(b.Center, v3.Add(grad.Vec(b.Center), g[j]))
				grad.SetVec(c.Index, v3.Sub(grad.Vec(c.Index), g[j]))
			}
			if virial != nil {
				for a := 0; a < 3; a++ {
					for k := 0; k < 3; k++ {
						virial.Set(a, k, virial.At(a, k)+g[j][a]*e[j][k])
					}
				}
			}
		}
	}
	return energy
}

//Energy returns the energy of the current structure.
func (V *Vff) Energy() float64 {
	return V.evaluate(nil, nil)
}

//Gradient returns the energy of the current structure and its derivatives with respect to the
//atomic positions (given in units of the structure scale).
func (V *Vff) Gradient() (float64, *v3.Matrix) {
	grad := v3.Zeros(V.str.Len())
	E := V.evaluate(grad, nil)
	return E, grad
}

//Stress returns the derivative of the energy with respect to a homogeneous, symmetric, strain
//of the current structure.
func (V *Vff) Stress() *mat.Dense {
	W := mat.NewDense(3, 3, nil)
	V.evaluate(nil, W)
	return symmetrize(W)
}

func symmetrize(W *mat.Dense) *mat.Dense {
	S := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			S.Set(i, j, 0.5*(W.At(i, j)+W.At(j, i)))
		}
	}
	return S
}

//MicroStrain returns the micro-strain of each center of the current structure.
func (V *Vff) MicroStrain() []float64 {
	ret := make([]float64, V.tree.Len())
	e := make([][3]float64, NBonds)
	for i, c := range V.tree.Centers {
		for j, b := range c.Bonds {
			e[j] = V.tree.BondVector(c, b)
		}
		ret[i] = V.functionals[V.kind[i]].MicroStrain(e, V.kinds[i], V.str.Scale)
	}
	return ret
}

//BondLengths returns the lengths, in Angstroms, of the bonds in the current structure, grouped by the types
//of the atoms at each end ("A-B", with A on site 0). Each bond is counted once.
func (V *Vff) BondLengths() map[string][]float64 {
	ret := make(map[string][]float64)
	for _, c := range V.tree.Centers {
		at := V.str.Atoms[c.Index]
		if at.Site != 0 {
			continue
		}
		for _, b := range c.Bonds {
			e := V.tree.BondVector(c, b)
			key := fmt.Sprintf("%s-%s", at.Symbol, V.str.Atoms[b.Center].Symbol)
			ret[key] = append(ret[key], V.str.Scale*math.Sqrt(v3.Norm2(e)))
		}
	}
	return ret
}

//BondHistograms returns histograms of the bond lengths (in Angstroms) of the current structure, with the
//given dividers. Row i, column j, holds the bonds between the type i of site 0 and the type j of site 1.
func (V *Vff) BondHistograms(dividers []float64) *histo.Matrix {
	s0, s1 := V.lattice.Sites[0], V.lattice.Sites[1]
	M := histo.NewMatrix(len(s0.Types), len(s1.Types), dividers)
	M.Fill()
	for _, c := range V.tree.Centers {
		at := V.str.Atoms[c.Index]
		if at.Site != 0 {
			continue
		}
		r := s0.TypeIndex(at.Symbol)
		for j, b := range c.Bonds {
			e := V.tree.BondVector(c, b)
			M.AddData(r, V.kinds[c.Index][j], V.str.Scale*math.Sqrt(v3.Norm2(e)))
		}
	}
	return M
}

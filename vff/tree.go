/*
 * tree.go, part of gocrystal.
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
	"log"
	"math"

	crystal "github.com/rmera/gocrystal"
	"github.com/rmera/gocrystal/smith"
	v3 "github.com/rmera/gocrystal/v3"
	"gonum.org/v1/gonum/mat"
)

//NBonds is the number of first neighbors of each atom in a tetrahedral lattice.
const NBonds = 4

//DefaultCutoff is the default bond cutoff for the brute-force tree builder,
//in units of the first-neighbor distance of the lattice.
const DefaultCutoff = 1.25

//Bond is an edge of the tree. Center is the index of the center at the other end
//of the bond, Translation is the periodic translation (in units of the structure cell)
//that has to be added to that center's position to get the bonded image.
type Bond struct {
	Center      int
	Translation [3]float64
	DoTranslate bool //true iff Translation is not zero
}

//Center is a node of the tree. Each center corresponds to the atom of the
//structure with the same index, and has an ordered list of bonds.
type Center struct {
	Index int
	Bonds []Bond
}

//Tree is the first-neighbor graph of a structure. The centers are
//stored in an arena, and refer to each other by index. A tree refers to the
//atoms of its structure, and must not outlive it.
type Tree struct {
	Centers []*Center
	str     *crystal.Structure
}

func newTree(S *crystal.Structure) *Tree {
	T := &Tree{str: S, Centers: make([]*Center, S.Len())}
	for i := range T.Centers {
		T.Centers[i] = &Center{Index: i, Bonds: make([]Bond, 0, NBonds)}
	}
	return T
}

//Len returns the number of centers in the tree.
func (T *Tree) Len() int {
	return len(T.Centers)
}

//Structure returns the structure the tree refers to.
func (T *Tree) Structure() *crystal.Structure {
	return T.str
}

//NBonds returns the total number of bonds in the tree, each bond being counted from both ends.
func (T *Tree) NBonds() int {
	n := 0
	for _, c := range T.Centers {
		n += len(c.Bonds)
	}
	return n
}

//BondVector returns the vector going from the center c to the periodic image of the atom at the other end of b,
//in units of the structure scale.
func (T *Tree) BondVector(c *Center, b Bond) [3]float64 {
	e := v3.Sub(T.str.Pos(b.Center), T.str.Pos(c.Index))
	if b.DoTranslate {
		e = v3.Add(e, v3.MulVec(T.str.Cell, b.Translation))
	}
	return e
}

//Check returns an error if any center in the tree doesn't have exactly 4 bonds, or if
//a bond points to a center that doesn't exist.
func (T *Tree) Check() error {
	for i, c := range T.Centers {
		if c.Index != i {
			return crystal.NewError(crystal.Input, "Tree.Check", "center %d has index %d", i, c.Index)
		}
		if len(c.Bonds) != NBonds {
			return crystal.NewError(crystal.BondCount, "Tree.Check", "atomic center %d at %v has %d bonds", i, T.str.Pos(i), len(c.Bonds))
		}
		for _, b := range c.Bonds {
			if b.Center < 0 || b.Center >= len(T.Centers) {
				return crystal.NewError(crystal.Input, "Tree.Check", "center %d is bonded to non-existent center %d", i, b.Center)
			}
			if b.DoTranslate == v3.IsZero(b.Translation, -1) {
				return crystal.NewError(crystal.Input, "Tree.Check", "center %d: translation %v with DoTranslate %v", i, b.Translation, b.DoTranslate)
			}
		}
	}
	return nil
}

func (T *Tree) String() string {
	ret := ""
	for _, c := range T.Centers {
		ret += fmt.Sprintf("%d %s:", c.Index, T.str.Atoms[c.Index].Symbol)
		for _, b := range c.Bonds {
			ret += fmt.Sprintf(" %d%v", b.Center, b.Translation)
		}
		ret += "\n"
	}
	return ret
}

//FirstNeighbors returns, for each of the 2 sites of the lattice, the 4 vectors going from the site to its first neighbors.
func FirstNeighbors(L *crystal.Lattice) ([2][][3]float64, error) {
	fn, err := crystal.FirstNeighborShell(L, NBonds)
	if err != nil {
		return fn, crystal.ErrDecorate(err, "FirstNeighbors")
	}
	return fn, nil
}

//FirstNeighborDistance returns the distance between first neighbors in the lattice, in units of the lattice scale.
func FirstNeighborDistance(L *crystal.Lattice) (float64, error) {
	fn, err := FirstNeighbors(L)
	if err != nil {
		return 0, crystal.ErrDecorate(err, "FirstNeighborDistance")
	}
	return math.Sqrt(v3.Norm2(fn[0][0])), nil
}

func translation(t [3]int) ([3]float64, bool) {
	f := [3]float64{float64(t[0]), float64(t[1]), float64(t[2])}
	return f, t != [3]int{}
}

//BuildTreeBruteForce builds the tree of S by testing every atom, and every periodic image
//of it, against every other atom. Each image closer than cutoff (in units of the
//structure scale) becomes a bond. The bonds of each center are ordered by the index
//of the bonded atom, then by translation.
//The construction fails if any center doesn't end up with exactly 4 bonds.
func BuildTreeBruteForce(S *crystal.Structure, cutoff float64) (*Tree, error) {
	if S.Len() == 0 {
		return nil, crystal.NewError(crystal.Input, "BuildTreeBruteForce", "empty structure")
	}
	T := newTree(S)
	positions := make([][3]float64, S.Len())
	for i := range positions {
		positions[i] = S.Pos(i)
	}
	for i, c := range T.Centers {
		images, err := crystal.ImagesWithin(positions[i], positions, S.Cell, cutoff)
		if err != nil {
			return nil, crystal.ErrDecorate(err, "BuildTreeBruteForce")
		}
		for _, v := range images {
			t, do := translation(v.Translation)
			c.Bonds = append(c.Bonds, Bond{Center: v.Index, Translation: t, DoTranslate: do})
		}
		if len(c.Bonds) != NBonds {
			log.Printf("goCrystal/vff: atomic center %d at %v has %d bonds", i, positions[i], len(c.Bonds))
			return nil, crystal.NewError(crystal.BondCount, "BuildTreeBruteForce", "atomic center %d at %v has %d bonds, not %d", i, positions[i], len(c.Bonds), NBonds)
		}
	}
	return T, nil
}

//BuildTreeSmith builds the tree of S by indexing each atom in the quotient group of the structure
//cell over the lattice cell, and looking up, for each atom and each of the first-neighbor
//vectors fn of its site, the atom at the other end. The bonds of each center follow the order of fn.
//The construction fails, logging the reason, if the lattice doesn't have 2 sites, if S is not a supercell
//of the lattice, or if some lattice slot is empty or occupied more than once.
func BuildTreeSmith(S *crystal.Structure, fn [2][][3]float64) (*Tree, error) {
	T, err := buildTreeSmith(S, fn)
	if err != nil {
		log.Printf("goCrystal/vff: could not build tree: %v", err)
		return nil, crystal.ErrDecorate(err, "BuildTreeSmith")
	}
	return T, nil
}

func buildTreeSmith(S *crystal.Structure, fn [2][][3]float64) (*Tree, error) {
	if S.Lattice == nil {
		return nil, crystal.NewError(crystal.Input, "buildTreeSmith", "lattice not set")
	}
	L := S.Lattice
	if len(L.Sites) != 2 {
		return nil, crystal.NewError(crystal.SiteCount, "buildTreeSmith", "lattice should contain 2 different sites, not %d", len(L.Sites))
	}
	transform, err := smith.ToSmithMatrix(L.Cell, S.Cell, len(L.Sites), S.Len())
	if err != nil {
		return nil, err
	}
	table, err := transform.Table(S)
	if err != nil {
		return nil, err
	}
	invcell := mat.NewDense(3, 3, nil)
	if err := invcell.Inverse(S.Cell); err != nil {
		return nil, crystal.NewError(crystal.Input, "buildTreeSmith", "can't invert the structure cell: %v", err)
	}
	T := newTree(S)
	for i, c := range T.Centers {
		site := S.Atoms[i].Site
		nsite := 1 - site
		center := S.Pos(i)
		pos := v3.Sub(center, L.Sites[nsite].Pos)
		for _, v := range fn[site] {
			idx, err := transform.Index(v3.Add(pos, v))
			if err != nil {
				return nil, err
			}
			j := table[transform.Flat(nsite, idx)]
			if j == smith.Empty {
				return nil, crystal.NewError(crystal.MissingIndex, "buildTreeSmith", "index %v of site %d corresponds to no atom", idx, nsite)
			}
			//center + v is the image of atom j we bond to.
			t := v3.Rint(v3.MulVec(invcell, v3.Add(v3.Sub(center, S.Pos(j)), v)))
			c.Bonds = append(c.Bonds, Bond{Center: j, Translation: t, DoTranslate: !v3.IsZero(t, -1)})
		}
	}
	if err := T.Check(); err != nil {
		return nil, err
	}
	return T, nil
}

type bondKey struct {
	center, other int
	t             [3]float64
}

//Equivalent returns an error unless the trees A and B have the same bonds (the same pairs
//of bonded atom and translation, for each center), possibly in different order.
func Equivalent(A, B *Tree) error {
	if A.Len() != B.Len() {
		return crystal.NewError(crystal.Input, "Equivalent", "trees with %d and %d centers", A.Len(), B.Len())
	}
	count := make(map[bondKey]int)
	for _, c := range A.Centers {
		for _, b := range c.Bonds {
			count[bondKey{c.Index, b.Center, b.Translation}]++
		}
	}
	for _, c := range B.Centers {
		for _, b := range c.Bonds {
			k := bondKey{c.Index, b.Center, b.Translation}
			if count[k] == 0 {
				return crystal.NewError(crystal.Input, "Equivalent", "bond %d->%d %v is only in the second tree", c.Index, b.Center, b.Translation)
			}
			count[k]--
		}
	}
	for k, v := range count {
		if v != 0 {
			return crystal.NewError(crystal.Input, "Equivalent", "bond %d->%d %v is only in the first tree", k.center, k.other, k.t)
		}
	}
	return nil
}

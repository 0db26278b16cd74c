/*
 * smith.go, part of gocrystal.
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

//Package smith maps the atoms of an ideal supercell to canonical lattice indexes, using the
//Smith normal form of the supercell in lattice coordinates.
package smith

import (
	"fmt"
	"log"
	"math"

	crystal "github.com/rmera/gocrystal"
	v3 "github.com/rmera/gocrystal/v3"
	"gonum.org/v1/gonum/mat"
)

//IdealTolerance is the default largest distance, in fractional units of the Smith
//transform, an atom can be from its ideal lattice position.
const IdealTolerance = 0.5

//Transform maps positions in a supercell onto canonical indexes in the
//quotient group of the supercell over the lattice.
type Transform struct {
	Matrix    *mat.Dense //U*inv(lattice cell)
	Quotients [3]int     //diagonal of the Smith normal form
	Left      [3][3]int  //U
	Right     [3][3]int  //V
	NSites    int
	Tolerance float64 //see IdealTolerance
}

//ToSmithMatrix returns the transform of the structure cell on the lattice cell. cell must be latticeCell*M for an integer
//matrix M, and the number of atoms must be nsites*det(M). The returned errors have the crystal.NotSupercell
//and crystal.AtomCount kinds, respectively, if that is not the case.
func ToSmithMatrix(latticeCell, cell mat.Matrix, nsites, natoms int) (*Transform, error) {
	M, err := crystal.IntegerCell(latticeCell, cell)
	if err != nil {
		return nil, crystal.ErrDecorate(err, "ToSmithMatrix")
	}
	U, D, V := NormalForm(M)
	T := &Transform{Left: U, Right: V, NSites: nsites, Tolerance: IdealTolerance}
	for i := 0; i < 3; i++ {
		T.Quotients[i] = D[i][i]
		if D[i][i] == 0 {
			return nil, crystal.NewError(crystal.Input, "ToSmithMatrix", "singular supercell matrix %v", M)
		}
	}
	inv := mat.NewDense(3, 3, nil)
	if err := inv.Inverse(latticeCell); err != nil {
		return nil, crystal.NewError(crystal.Input, "ToSmithMatrix", "can't invert lattice cell: %v", err)
	}
	T.Matrix = mat.NewDense(3, 3, nil)
	T.Matrix.Mul(intDense(U), inv)
	if n := nsites * T.Quotients[0] * T.Quotients[1] * T.Quotients[2]; n != natoms {
		return nil, crystal.NewError(crystal.AtomCount, "ToSmithMatrix", "%d sites and quotients %v require %d atoms, structure has %d", nsites, T.Quotients, n, natoms)
	}
	return T, nil
}

//Index returns the canonical index of the position p, which should be relative to the
//origin of a lattice site. It returns a crystal.NotIdeal error if p is further than T.Tolerance
//(in fractional units of the transform) from a lattice point.
func (T *Transform) Index(p [3]float64) ([3]int, error) {
	var idx [3]int
	frac := v3.MulVec(T.Matrix, p)
	tol := T.Tolerance
	if tol <= 0 {
		tol = IdealTolerance
	}
	for i := 0; i < 3; i++ {
		r := math.RoundToEven(frac[i])
		if math.Abs(frac[i]-r) > tol {
			return idx, crystal.NewError(crystal.NotIdeal, "Transform.Index", "structure is not ideal: position %v is %g away from a lattice point", p, math.Abs(frac[i]-r))
		}
		q := T.Quotients[i]
		idx[i] = int(r) % q
		if idx[i] < 0 {
			idx[i] += q
		}
	}
	return idx, nil
}

//Size returns the number of slots, i.e. sites times the number of lattice points in the supercell.
func (T *Transform) Size() int {
	return T.NSites * T.Quotients[0] * T.Quotients[1] * T.Quotients[2]
}

//Flat returns the position of the slot for the given site and canonical index, in a
//slice of T.Size() elements.
func (T *Transform) Flat(site int, idx [3]int) int {
	return ((site*T.Quotients[0]+idx[0])*T.Quotients[1]+idx[1])*T.Quotients[2] + idx[2]
}

//Unflat is the inverse of Flat.
func (T *Transform) Unflat(flat int) (int, [3]int) {
	var idx [3]int
	idx[2] = flat % T.Quotients[2]
	flat /= T.Quotients[2]
	idx[1] = flat % T.Quotients[1]
	flat /= T.Quotients[1]
	idx[0] = flat % T.Quotients[0]
	return flat / T.Quotients[0], idx
}

//Empty marks a slot not occupied by any atom in the tables returned by Table.
const Empty = -1

//Table returns a slice of T.Size() elements, where the element T.Flat(site,index) contains the index
//of the atom of S occupying that slot. Each atom is indexed by its position relative to its lattice site.
//Two atoms occupying the same slot, and a slot without any atom, are errors of the crystal.DuplicateIndex
//and crystal.MissingIndex kinds. All the problems found are logged before returning.
func (T *Transform) Table(S *crystal.Structure) ([]int, error) {
	if S.Lattice == nil || len(S.Lattice.Sites) != T.NSites {
		return nil, crystal.NewError(crystal.SiteCount, "Transform.Table", "the structure's lattice must have %d sites", T.NSites)
	}
	table := make([]int, T.Size())
	for i := range table {
		table[i] = Empty
	}
	var dups, missing int
	var firsterr error
	for i, atom := range S.Atoms {
		if atom.Site < 0 || atom.Site >= T.NSites {
			return nil, crystal.NewError(crystal.Input, "Transform.Table", "atom %d has site index %d", i, atom.Site)
		}
		idx, err := T.Index(v3.Sub(S.Pos(i), S.Lattice.Sites[atom.Site].Pos))
		if err != nil {
			return nil, crystal.ErrDecorate(err, "Transform.Table")
		}
		f := T.Flat(atom.Site, idx)
		if prev := table[f]; prev != Empty {
			log.Printf("goCrystal/smith: site %d index %v claimed by atoms %d (%v) and %d (%v)", atom.Site, idx, prev, S.Pos(prev), i, S.Pos(i))
			dups++
			if firsterr == nil {
				firsterr = crystal.NewError(crystal.DuplicateIndex, "Transform.Table", "atoms %d and %d occupy the same slot %d %v", prev, i, atom.Site, idx)
			}
			continue
		}
		table[f] = i
	}
	for f, v := range table {
		if v != Empty {
			continue
		}
		site, idx := T.Unflat(f)
		log.Printf("goCrystal/smith: site %d index %v: could not find all indices", site, idx)
		missing++
		if firsterr == nil {
			firsterr = crystal.NewError(crystal.MissingIndex, "Transform.Table", "no atom occupies slot %d %v", site, idx)
		}
	}
	if firsterr != nil {
		log.Printf("goCrystal/smith: %d duplicated and %d missing slots", dups, missing)
		return nil, firsterr
	}
	return table, nil
}

func (T *Transform) String() string {
	return fmt.Sprintf("quotients %v\n%v", T.Quotients, mat.Formatted(T.Matrix, mat.Prefix("")))
}

func intDense(M [3][3]int) *mat.Dense {
	r := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r.Set(i, j, float64(M[i][j]))
		}
	}
	return r
}

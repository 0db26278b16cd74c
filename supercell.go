/*
 * supercell.go, part of gocrystal.
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

package crystal

import (
	"log"
	"math"

	v3 "github.com/rmera/gocrystal/v3"
	"gonum.org/v1/gonum/mat"
)

//SupercellTolerance is the largest deviation from an integer that an element
//of inv(lattice cell)*(structure cell) can have, for the structure to be considered
//a supercell of the lattice.
const SupercellTolerance = 0.01

//IntegerCell returns the integer matrix M such that cell = latticeCell * M.
//It returns a NotSupercell error if any element of inv(latticeCell)*cell deviates more
//than SupercellTolerance from the nearest integer.
func IntegerCell(latticeCell, cell mat.Matrix) ([3][3]int, error) {
	var M [3][3]int
	inv := mat.NewDense(3, 3, nil)
	if err := inv.Inverse(latticeCell); err != nil {
		return M, NewError(Input, "IntegerCell", "can't invert lattice cell: %v", err)
	}
	frac := mat.NewDense(3, 3, nil)
	frac.Mul(inv, cell)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			v := frac.At(i, j)
			r := math.RoundToEven(v)
			if math.Abs(r-v) > SupercellTolerance {
				return M, NewError(NotSupercell, "IntegerCell", "input structure is not a supercell of the lattice: element %d,%d of inv(lattice)*cell is %g", i, j, v)
			}
			M[i][j] = int(r)
		}
	}
	return M, nil
}

//Supercell builds the ideal structure with the given cell (its columns are the periodicity vectors, in units
//of the lattice scale) on the lattice L. Each site is occupied by its first type.
//The atoms are ordered by lattice translation, and, for each translation, by site.
func Supercell(L *Lattice, cell *mat.Dense) (*Structure, error) {
	M, err := IntegerCell(L.Cell, cell)
	if err != nil {
		return nil, ErrDecorate(err, "Supercell")
	}
	det := 0
	for j := 0; j < 3; j++ {
		det += M[0][j] * (M[1][(j+1)%3]*M[2][(j+2)%3] - M[1][(j+2)%3]*M[2][(j+1)%3])
	}
	if det < 0 {
		det = -det
	}
	if det == 0 {
		return nil, NewError(Input, "Supercell", "singular supercell")
	}
	//The bounding box of the supercell in lattice coordinates.
	var lo, hi [3]int
	for c := 0; c < 8; c++ {
		var corner [3]int
		for j := 0; j < 3; j++ {
			if c&(1<<uint(j)) == 0 {
				continue
			}
			for i := 0; i < 3; i++ {
				corner[i] += M[i][j]
			}
		}
		for i := 0; i < 3; i++ {
			lo[i] = min(lo[i], corner[i])
			hi[i] = max(hi[i], corner[i])
		}
	}
	inv := mat.NewDense(3, 3, nil)
	if err := inv.Inverse(cell); err != nil {
		return nil, NewError(Input, "Supercell", "can't invert cell: %v", err)
	}
	const eps = 1e-8
	atoms := make([]*Atom, 0, det*len(L.Sites))
	var pos [][3]float64
	for a := lo[0]; a <= hi[0]; a++ {
		for b := lo[1]; b <= hi[1]; b++ {
			for c := lo[2]; c <= hi[2]; c++ {
				t := v3.MulVec(L.Cell, [3]float64{float64(a), float64(b), float64(c)})
				for s, site := range L.Sites {
					p := v3.Add(t, site.Pos)
					f := v3.MulVec(inv, p)
					if f[0] < -eps || f[0] >= 1-eps || f[1] < -eps || f[1] >= 1-eps || f[2] < -eps || f[2] >= 1-eps {
						continue
					}
					symbol := ""
					if len(site.Types) > 0 {
						symbol = site.Types[0]
					}
					atoms = append(atoms, &Atom{Symbol: symbol, Site: s, Index: len(atoms)})
					pos = append(pos, p)
				}
			}
		}
	}
	if len(atoms) != det*len(L.Sites) {
		log.Printf("goCrystal/Supercell: found %d atoms, expected %d", len(atoms), det*len(L.Sites))
		return nil, NewError(AtomCount, "Supercell", "found %d atoms for a supercell of volume %d with %d sites", len(atoms), det, len(L.Sites))
	}
	coords := v3.Zeros(len(pos))
	for i, v := range pos {
		coords.SetVec(i, v)
	}
	return NewStructure(atoms, coords, cell, L.Scale, L)
}

//ScaledCell returns the lattice cell multiplied by the integer matrix M, i.e. the cell of
//the supercell M of the lattice.
func (L *Lattice) ScaledCell(M [3][3]int) *mat.Dense {
	m := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.Set(i, j, float64(M[i][j]))
		}
	}
	r := mat.NewDense(3, 3, nil)
	r.Mul(L.Cell, m)
	return r
}

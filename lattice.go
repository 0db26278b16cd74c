/*
 * lattice.go, part of gocrystal.
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
	"fmt"

	"gonum.org/v1/gonum/mat"
)

//Site is a position in the unit cell of a lattice, together with the
//atomic types that can occupy it.
type Site struct {
	Pos   [3]float64 `json:"pos"`
	Types []string   `json:"types"`
}

//TypeIndex returns the index of the atomic type symbol in the types of the site, or
//-1 if the symbol can't occupy the site.
func (S *Site) TypeIndex(symbol string) int {
	for i, v := range S.Types {
		if v == symbol {
			return i
		}
	}
	return -1
}

//Lattice is the ideal, site-labeled unit cell that structures are supercells of.
//The columns of Cell are the lattice vectors. Positions and cell are given in units
//of Scale (Angstroms). A Lattice should not be modified once it is in use.
type Lattice struct {
	Cell  *mat.Dense
	Sites []*Site
	Scale float64
}

//NewLattice returns a lattice with the given cell (its columns are the lattice vectors),
//scale and sites.
func NewLattice(cell *mat.Dense, scale float64, sites ...*Site) (*Lattice, error) {
	r, c := cell.Dims()
	if r != 3 || c != 3 {
		return nil, NewError(Shape, "NewLattice", "cell must be 3x3, got %dx%d", r, c)
	}
	if mat.Det(cell) == 0 {
		return nil, NewError(Input, "NewLattice", "singular lattice cell")
	}
	if scale <= 0 {
		return nil, NewError(Input, "NewLattice", "non-positive scale %g", scale)
	}
	L := &Lattice{Cell: mat.DenseCopyOf(cell), Scale: scale, Sites: sites}
	return L, nil
}

//ZincBlende returns the fcc lattice with two sites, at the origin and at
//(1/4,1/4,1/4), with the given scale (the cubic lattice constant) and types
//for each site.
func ZincBlende(scale float64, types0, types1 []string) *Lattice {
	cell := mat.NewDense(3, 3, []float64{
		0, 0.5, 0.5,
		0.5, 0, 0.5,
		0.5, 0.5, 0,
	})
	s0 := &Site{Pos: [3]float64{0, 0, 0}, Types: append([]string(nil), types0...)}
	s1 := &Site{Pos: [3]float64{0.25, 0.25, 0.25}, Types: append([]string(nil), types1...)}
	return &Lattice{Cell: cell, Sites: []*Site{s0, s1}, Scale: scale}
}

//NTypes returns the total number of atomic types, summed over all the sites.
func (L *Lattice) NTypes() int {
	n := 0
	for _, v := range L.Sites {
		n += len(v.Types)
	}
	return n
}

//InvCell returns the inverse of the lattice cell.
func (L *Lattice) InvCell() (*mat.Dense, error) {
	inv := mat.NewDense(3, 3, nil)
	if err := inv.Inverse(L.Cell); err != nil {
		return nil, NewError(Input, "Lattice.InvCell", "can't invert lattice cell: %v", err)
	}
	return inv, nil
}

//Positions returns the positions of the sites of the lattice.
func (L *Lattice) Positions() [][3]float64 {
	ret := make([][3]float64, len(L.Sites))
	for i, v := range L.Sites {
		ret[i] = v.Pos
	}
	return ret
}

func (L *Lattice) String() string {
	ret := fmt.Sprintf("Lattice (scale %g)\n%v\n", L.Scale, mat.Formatted(L.Cell, mat.Prefix("")))
	for i, v := range L.Sites {
		ret += fmt.Sprintf("Site %d: %v %v\n", i, v.Pos, v.Types)
	}
	return ret
}

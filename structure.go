/*
 * structure.go, part of gocrystal.
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
	"encoding/json"
	"fmt"
	"strings"

	v3 "github.com/rmera/gocrystal/v3"
	"gonum.org/v1/gonum/mat"
)

//Atom contains the atomic information for one atom of a structure. The
//position of the atom is in the Coords matrix of the structure, at the row
//given by Index.
type Atom struct {
	Symbol string `json:"symbol"`
	Site   int    `json:"site"`  //index of the lattice site the atom occupies
	Index  int    `json:"index"` //index of the atom in the structure
	Freeze bool   `json:"freeze,omitempty"`
}

//Copy returns a copy of the atom.
func (A *Atom) Copy() *Atom {
	r := *A
	return &r
}

//Structure is a periodic crystal structure: an ordered set of atoms, their
//positions (in units of Scale), a cell whose columns are the periodicity vectors and
//the lattice the structure is a supercell of.
//The structure owns its atoms. Everything built from a structure (bond trees, for instance)
//refers to its atoms by index, and must not outlive it.
type Structure struct {
	Name    string
	Atoms   []*Atom
	Coords  *v3.Matrix
	Cell    *mat.Dense
	Scale   float64
	Energy  float64
	Lattice *Lattice
}

//NewStructure returns a structure with the given atoms, coordinates (in units of scale), cell and lattice.
func NewStructure(atoms []*Atom, coords *v3.Matrix, cell *mat.Dense, scale float64, lattice *Lattice) (*Structure, error) {
	if coords == nil || len(atoms) != coords.NVecs() {
		n := 0
		if coords != nil {
			n = coords.NVecs()
		}
		return nil, NewError(Shape, "NewStructure", "%d atoms but %d positions", len(atoms), n)
	}
	r, c := cell.Dims()
	if r != 3 || c != 3 {
		return nil, NewError(Shape, "NewStructure", "cell must be 3x3, got %dx%d", r, c)
	}
	for i, v := range atoms {
		v.Index = i
	}
	S := &Structure{Atoms: atoms, Coords: coords, Cell: mat.DenseCopyOf(cell), Scale: scale, Lattice: lattice}
	return S, nil
}

//Len returns the number of atoms in the structure.
func (S *Structure) Len() int {
	return len(S.Atoms)
}

//Atom returns the ith atom of the structure.
func (S *Structure) Atom(i int) *Atom {
	return S.Atoms[i]
}

//Pos returns the position of the ith atom.
func (S *Structure) Pos(i int) [3]float64 {
	return S.Coords.Vec(i)
}

//Copy returns a deep copy of the structure. The lattice is shared, not copied.
func (S *Structure) Copy() *Structure {
	r := new(Structure)
	r.Name = S.Name
	r.Energy = S.Energy
	r.Scale = S.Scale
	r.Lattice = S.Lattice
	r.Cell = mat.DenseCopyOf(S.Cell)
	r.Coords = v3.Zeros(S.Coords.NVecs())
	r.Coords.Copy(S.Coords)
	r.Atoms = make([]*Atom, len(S.Atoms))
	for i, v := range S.Atoms {
		r.Atoms[i] = v.Copy()
	}
	return r
}

//Volume returns the volume of the cell, in units of scale cubed.
func (S *Structure) Volume() float64 {
	d := mat.Det(S.Cell)
	if d < 0 {
		return -d
	}
	return d
}

//InvCell returns the inverse of the structure's cell.
func (S *Structure) InvCell() (*mat.Dense, error) {
	inv := mat.NewDense(3, 3, nil)
	if err := inv.Inverse(S.Cell); err != nil {
		return nil, NewError(Input, "Structure.InvCell", "can't invert structure cell: %v", err)
	}
	return inv, nil
}

//Concentration returns, for each site of the lattice, the fraction of atoms of the site
//with the first type of the site.
func (S *Structure) Concentration() []float64 {
	if S.Lattice == nil {
		return nil
	}
	first := make([]float64, len(S.Lattice.Sites))
	total := make([]float64, len(S.Lattice.Sites))
	for _, v := range S.Atoms {
		if v.Site < 0 || v.Site >= len(first) {
			continue
		}
		total[v.Site]++
		if S.Lattice.Sites[v.Site].TypeIndex(v.Symbol) == 0 {
			first[v.Site]++
		}
	}
	for i := range first {
		if total[i] > 0 {
			first[i] /= total[i]
		}
	}
	return first
}

func (S *Structure) String() string {
	ret := make([]string, 0, len(S.Atoms)+2)
	ret = append(ret, fmt.Sprintf("Structure %s, %d atoms, scale %g, energy %g", S.Name, len(S.Atoms), S.Scale, S.Energy))
	ret = append(ret, fmt.Sprintf("%v", mat.Formatted(S.Cell, mat.Prefix(""))))
	for i, v := range S.Atoms {
		p := S.Coords.Vec(i)
		ret = append(ret, fmt.Sprintf("%-3s %d %8.4f %8.4f %8.4f", v.Symbol, v.Site, p[0], p[1], p[2]))
	}
	return strings.Join(ret, "\n")
}

//jsonStructure is the on-disk representation of a structure.
type jsonStructure struct {
	Name    string        `json:"name,omitempty"`
	Scale   float64       `json:"scale"`
	Energy  float64       `json:"energy,omitempty"`
	Cell    [3][3]float64 `json:"cell"` //row-major, the columns are the cell vectors.
	Atoms   []*Atom       `json:"atoms"`
	Pos     [][3]float64  `json:"positions"`
	Lattice *jsonLattice  `json:"lattice,omitempty"`
}

type jsonLattice struct {
	Scale float64       `json:"scale"`
	Cell  [3][3]float64 `json:"cell"`
	Sites []*Site       `json:"sites"`
}

func dense2array(D *mat.Dense) [3][3]float64 {
	var r [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = D.At(i, j)
		}
	}
	return r
}

func array2dense(a [3][3]float64) *mat.Dense {
	return mat.NewDense(3, 3, []float64{a[0][0], a[0][1], a[0][2], a[1][0], a[1][1], a[1][2], a[2][0], a[2][1], a[2][2]})
}

//MarshalJSON encodes the structure, including its lattice, in JSON.
func (S *Structure) MarshalJSON() ([]byte, error) {
	js := jsonStructure{Name: S.Name, Scale: S.Scale, Energy: S.Energy, Cell: dense2array(S.Cell), Atoms: S.Atoms}
	js.Pos = make([][3]float64, S.Len())
	for i := range js.Pos {
		js.Pos[i] = S.Coords.Vec(i)
	}
	if S.Lattice != nil {
		js.Lattice = &jsonLattice{Scale: S.Lattice.Scale, Cell: dense2array(S.Lattice.Cell), Sites: S.Lattice.Sites}
	}
	return json.Marshal(js)
}

//UnmarshalJSON decodes a structure from JSON.
func (S *Structure) UnmarshalJSON(b []byte) error {
	var js jsonStructure
	if err := json.Unmarshal(b, &js); err != nil {
		return err
	}
	if len(js.Atoms) != len(js.Pos) || len(js.Atoms) == 0 {
		return NewError(Shape, "Structure.UnmarshalJSON", "%d atoms but %d positions", len(js.Atoms), len(js.Pos))
	}
	S.Name = js.Name
	S.Scale = js.Scale
	S.Energy = js.Energy
	S.Cell = array2dense(js.Cell)
	S.Atoms = js.Atoms
	S.Coords = v3.Zeros(len(js.Pos))
	for i, v := range js.Pos {
		S.Coords.SetVec(i, v)
		S.Atoms[i].Index = i
	}
	if js.Lattice != nil {
		S.Lattice = &Lattice{Scale: js.Lattice.Scale, Cell: array2dense(js.Lattice.Cell), Sites: js.Lattice.Sites}
	}
	return nil
}

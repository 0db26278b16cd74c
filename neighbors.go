/*
 * neighbors.go, part of gocrystal.
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
	"math"
	"sort"

	v3 "github.com/rmera/gocrystal/v3"
	"gonum.org/v1/gonum/mat"
)

//Neighbor is a periodic image of a point, as seen from some origin.
type Neighbor struct {
	Index       int        //index of the point in the set of positions
	Vector      [3]float64 //vector from the origin to the image
	Distance    float64
	Translation [3]int //the image is position + cell*Translation
}

const maxImageRange = 16

//imageRange returns, for each axis, the largest number of cells (in absolute value) a periodic image
//can be translated and still be within a distance cutoff from a point inside the cell. Given a vector
//v=cell*f, |f_k|<=|row_k(inv(cell))|*|v|, so it is enough to look at translations up to
//that bound, plus one to account for the points not being in the [0,1) cube.
func imageRange(invcell mat.Matrix, cutoff float64) [3]int {
	var r [3]int
	for k := 0; k < 3; k++ {
		row := [3]float64{invcell.At(k, 0), invcell.At(k, 1), invcell.At(k, 2)}
		r[k] = int(math.Ceil(math.Sqrt(v3.Norm2(row))*cutoff)) + 1
	}
	return r
}

//ImagesWithin returns all the periodic images of the given positions, with the given cell (columns are the
//periodicity vectors) that are within cutoff of origin, except for the origin itself.
//The images are returned in a deterministic order: by position index, then by translation.
func ImagesWithin(origin [3]float64, positions [][3]float64, cell mat.Matrix, cutoff float64) ([]Neighbor, error) {
	invcell := mat.NewDense(3, 3, nil)
	if err := invcell.Inverse(cell); err != nil {
		return nil, NewError(Input, "ImagesWithin", "can't invert cell: %v", err)
	}
	rng := imageRange(invcell, cutoff)
	for _, v := range rng {
		if v > maxImageRange {
			return nil, NewError(Input, "ImagesWithin", "cutoff %g too large for the cell", cutoff)
		}
	}
	cut2 := cutoff * cutoff
	var ret []Neighbor
	for i, p := range positions {
		//we start from the image of p closest to the origin in fractional terms.
		d0 := v3.Sub(p, origin)
		f := v3.MulVec(invcell, d0)
		shift := [3]int{-int(math.Round(f[0])), -int(math.Round(f[1])), -int(math.Round(f[2]))}
		for a := -rng[0]; a <= rng[0]; a++ {
			for b := -rng[1]; b <= rng[1]; b++ {
				for c := -rng[2]; c <= rng[2]; c++ {
					t := [3]int{a + shift[0], b + shift[1], c + shift[2]}
					d := v3.Add(d0, v3.MulVec(cell, [3]float64{float64(t[0]), float64(t[1]), float64(t[2])}))
					n2 := v3.Norm2(d)
					if n2 > cut2 || n2 < 1e-12 {
						continue
					}
					ret = append(ret, Neighbor{Index: i, Vector: d, Distance: math.Sqrt(n2), Translation: t})
				}
			}
		}
	}
	return ret, nil
}

//FindFirstNeighbors returns the n shortest vectors going from origin to the periodic images
//of the given positions, within the given cell. The vectors are sorted by length; vectors with
//the same length (within distanceQuantum) are ordered by position index, then by translation.
func FindFirstNeighbors(origin [3]float64, positions [][3]float64, cell mat.Matrix, n int) ([]Neighbor, error) {
	if n <= 0 || len(positions) == 0 {
		return nil, NewError(Input, "FindFirstNeighbors", "need a positive number of neighbors (%d) and at least one position (%d)", n, len(positions))
	}
	//a starting cutoff: the largest cell vector.
	cutoff := 0.0
	for j := 0; j < 3; j++ {
		col := [3]float64{cell.At(0, j), cell.At(1, j), cell.At(2, j)}
		cutoff = math.Max(cutoff, math.Sqrt(v3.Norm2(col)))
	}
	for iter := 0; iter < 8; iter++ {
		images, err := ImagesWithin(origin, positions, cell, cutoff)
		if err != nil {
			return nil, ErrDecorate(err, "FindFirstNeighbors")
		}
		if len(images) >= n {
			sortNeighbors(images)
			return images[:n], nil
		}
		cutoff *= 2
	}
	return nil, NewError(Input, "FindFirstNeighbors", "could not find %d neighbors", n)
}

//distanceQuantum is the resolution at which neighbor distances are compared.
const distanceQuantum = 1e-8

//neighborLess orders neighbors by distance, rounded to distanceQuantum, then by index and translation.
func neighborLess(a, b Neighbor) bool {
	qa, qb := math.Round(a.Distance/distanceQuantum), math.Round(b.Distance/distanceQuantum)
	if qa != qb {
		return qa < qb
	}
	if a.Index != b.Index {
		return a.Index < b.Index
	}
	for k := range a.Translation {
		if a.Translation[k] != b.Translation[k] {
			return a.Translation[k] < b.Translation[k]
		}
	}
	return false
}

func sortNeighbors(n []Neighbor) {
	sort.Slice(n, func(i, j int) bool { return neighborLess(n[i], n[j]) })
}

//FirstNeighborShell returns, for each site of the two-site lattice L, the n shortest vectors
//going from the site to periodic images of the other site.
func FirstNeighborShell(L *Lattice, n int) ([2][][3]float64, error) {
	var ret [2][][3]float64
	if len(L.Sites) != 2 {
		return ret, NewError(SiteCount, "FirstNeighborShell", "lattice should contain 2 sites, not %d", len(L.Sites))
	}
	for s := 0; s < 2; s++ {
		other := [][3]float64{L.Sites[1-s].Pos}
		neighs, err := FindFirstNeighbors(L.Sites[s].Pos, other, L.Cell, n)
		if err != nil {
			return ret, ErrDecorate(err, "FirstNeighborShell")
		}
		ret[s] = make([][3]float64, len(neighs))
		for i, v := range neighs {
			ret[s][i] = v.Vector
		}
	}
	return ret, nil
}

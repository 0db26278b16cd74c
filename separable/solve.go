/*
 * solve.go, part of gocrystal.
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
	"log"

	crystal "github.com/rmera/gocrystal"
	"gonum.org/v1/gonum/mat"
)

//SVDCondition is the relative threshold below which singular values are dropped when
//a system has to be solved by SVD.
const SVDCondition = 1e-12

//Solve solves the symmetric system A x = b. It tries a Cholesky factorization first, then an
//LU factorization, and finally, for singular or ill-conditioned systems, the minimum-norm least-squares
//solution from an SVD.
func Solve(A mat.Symmetric, b mat.Vector) (*mat.VecDense, error) {
	n := A.SymmetricDim()
	if b.Len() != n {
		return nil, crystal.NewError(crystal.Shape, "Solve", "%dx%d matrix and vector of %d", n, n, b.Len())
	}
	x := mat.NewVecDense(n, nil)
	var ch mat.Cholesky
	if ch.Factorize(A) {
		if err := ch.SolveVecTo(x, b); err == nil {
			return x, nil
		}
	}
	var lu mat.LU
	lu.Factorize(A)
	if err := lu.SolveVecTo(x, false, b); err == nil {
		return x, nil
	}
	var svd mat.SVD
	if !svd.Factorize(A, mat.SVDThin) {
		return nil, crystal.NewError(crystal.Other, "Solve", "SVD factorization failed")
	}
	values := svd.Values(nil)
	rank := 0
	for _, v := range values {
		if v > SVDCondition*values[0] {
			rank++
		}
	}
	if rank == 0 {
		return nil, crystal.NewError(crystal.Other, "Solve", "null matrix")
	}
	if rank < n {
		log.Printf("goCrystal/separable: singular system of %d equations solved with rank %d", n, rank)
	}
	svd.SolveVecTo(x, b, rank)
	return x, nil
}

/*
 * normalform.go, part of gocrystal.
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

package smith

//Mat3 is a 3x3 integer matrix.
type Mat3 = [3][3]int

func identity() Mat3 {
	return Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

//Mul returns the product A*B
func Mul(A, B Mat3) Mat3 {
	var r Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				r[i][j] += A[i][k] * B[k][j]
			}
		}
	}
	return r
}

//Det returns the determinant of A.
func Det(A Mat3) int {
	return A[0][0]*(A[1][1]*A[2][2]-A[1][2]*A[2][1]) -
		A[0][1]*(A[1][0]*A[2][2]-A[1][2]*A[2][0]) +
		A[0][2]*(A[1][0]*A[2][1]-A[1][1]*A[2][0])
}

func abs(a int) int {
	if a < 0 {
		return -a
	}
	return a
}

//Row and column operations. Each one is applied to the working matrix and, to keep
//U*M*V equal to the working matrix, to U (rows) or V (columns).

func swapRows(A, U *Mat3, i, j int) {
	A[i], A[j] = A[j], A[i]
	U[i], U[j] = U[j], U[i]
}

func swapCols(A, V *Mat3, i, j int) {
	for k := 0; k < 3; k++ {
		A[k][i], A[k][j] = A[k][j], A[k][i]
		V[k][i], V[k][j] = V[k][j], V[k][i]
	}
}

//row i -= q*row j
func subRow(A, U *Mat3, i, j, q int) {
	for k := 0; k < 3; k++ {
		A[i][k] -= q * A[j][k]
		U[i][k] -= q * U[j][k]
	}
}

//col i -= q*col j
func subCol(A, V *Mat3, i, j, q int) {
	for k := 0; k < 3; k++ {
		A[k][i] -= q * A[k][j]
		V[k][i] -= q * V[k][j]
	}
}

//pivot moves the smallest non-zero (in absolute value) element of the
//submatrix A[t:][t:] to A[t][t]. It returns false if the submatrix is zero.
func pivot(A, U, V *Mat3, t int) bool {
	bi, bj := -1, -1
	for i := t; i < 3; i++ {
		for j := t; j < 3; j++ {
			if A[i][j] == 0 {
				continue
			}
			if bi < 0 || abs(A[i][j]) < abs(A[bi][bj]) {
				bi, bj = i, j
			}
		}
	}
	if bi < 0 {
		return false
	}
	if bi != t {
		swapRows(A, U, t, bi)
	}
	if bj != t {
		swapCols(A, V, t, bj)
	}
	return true
}

//NormalForm returns the Smith normal form D of M, together with the unimodular
//matrices U and V such that U*M*V=D. D is diagonal, its elements are non-negative, and
//each one divides the next.
func NormalForm(M Mat3) (U, D, V Mat3) {
	A := M
	U = identity()
	V = identity()
	for t := 0; t < 3; t++ {
		for {
			if !pivot(&A, &U, &V, t) {
				break
			}
			clean := true
			for i := t + 1; i < 3; i++ {
				q := A[i][t] / A[t][t]
				subRow(&A, &U, i, t, q)
				if A[i][t] != 0 {
					clean = false
				}
			}
			for j := t + 1; j < 3; j++ {
				q := A[t][j] / A[t][t]
				subCol(&A, &V, j, t, q)
				if A[t][j] != 0 {
					clean = false
				}
			}
			if !clean {
				continue
			}
			//the pivot must divide all the remaining elements.
			divides := true
			for i := t + 1; i < 3 && divides; i++ {
				for j := t + 1; j < 3; j++ {
					if A[i][j]%A[t][t] != 0 {
						//row t += row i brings the offending element to row t, and the
						//next round reduces it.
						subRow(&A, &U, t, i, -1)
						divides = false
						break
					}
				}
			}
			if divides {
				break
			}
		}
		if A[t][t] < 0 {
			for k := 0; k < 3; k++ {
				A[t][k] = -A[t][k]
				U[t][k] = -U[t][k]
			}
		}
	}
	return U, A, V
}

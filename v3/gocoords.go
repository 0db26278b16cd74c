/*
 * gocoords.go, part of gocrystal.
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

package v3

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

const appzero float64 = 0.000000000001 //used to correct floating point
//errors. Everything equal or less than this is considered zero.

//Zeros returns a zero-filled Matrix with vecs vectors and 3 in the other dimension.
func Zeros(vecs int) *Matrix {
	const cols int = 3
	f := make([]float64, cols*vecs)
	return &Matrix{mat.NewDense(vecs, cols, f)}
}

//METHODS

//NVecs returns the number of vecs in F.
func (F *Matrix) NVecs() int {
	r, c := F.Dims()
	if c != 3 {
		panic(ErrNotXx3Matrix)
	}
	return r
}

//Len is the same as NVecs, so a Matrix can be used where something with a Len() method is expected.
func (F *Matrix) Len() int {
	return F.NVecs()
}

//Vec returns a copy of the ith vector in F as an array.
func (F *Matrix) Vec(i int) [3]float64 {
	if i >= F.NVecs() || i < 0 {
		panic(ErrIndexOutOfRange)
	}
	r := F.RawRowView(i)
	return [3]float64{r[0], r[1], r[2]}
}

//SetVec sets the ith vector of F to v.
func (F *Matrix) SetVec(i int, v [3]float64) {
	if i >= F.NVecs() || i < 0 {
		panic(ErrIndexOutOfRange)
	}
	copy(F.RawRowView(i), v[:])
}

//Transform applies the 3x3 matrix T to each vector of A (v -> T v), putting the result on the receiver.
func (F *Matrix) Transform(T mat.Matrix, A *Matrix) {
	tr, tc := T.Dims()
	if tr != 3 || tc != 3 || F.NVecs() != A.NVecs() {
		panic(ErrShape)
	}
	var tmp [3]float64
	for i := 0; i < A.NVecs(); i++ {
		a := A.RawRowView(i)
		for k := 0; k < 3; k++ {
			tmp[k] = T.At(k, 0)*a[0] + T.At(k, 1)*a[1] + T.At(k, 2)*a[2]
		}
		F.SetVec(i, tmp)
	}
}

//Returns a neat string representation of a Matrix
func (F *Matrix) String() string {
	r, c := F.Dims()
	v := make([]string, r+2)
	v[0] = "\n["
	v[len(v)-1] = " ]"
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, F.Dense)
		if i == 0 {
			v[i+1] = fmt.Sprintf("%6.2f %6.2f %6.2f\n", row[0], row[1], row[2])
			continue
		} else if i == r-1 {
			v[i+1] = fmt.Sprintf(" %6.2f %6.2f %6.2f", row[0], row[1], row[2])
			continue
		} else {
			v[i+1] = fmt.Sprintf(" %6.2f %6.2f %6.2f\n", row[0], row[1], row[2])
		}
	}
	v[len(v)-2] = strings.Replace(v[len(v)-2], "\n", "", 1)
	return strings.Join(v, "")
}

//Array helpers. The inner loops of the force-field and the tree builders
//work on plain arrays, the Matrix is used for storage and I/O.

//Dot returns the dot product of a and b.
func Dot(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

//Cross returns the cross product of a and b.
func Cross(a, b [3]float64) [3]float64 {
	return [3]float64{a[1]*b[2] - a[2]*b[1], a[2]*b[0] - a[0]*b[2], a[0]*b[1] - a[1]*b[0]}
}

//Sub returns a-b
func Sub(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

//Add returns a+b
func Add(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

//Scale returns s*a
func Scale(s float64, a [3]float64) [3]float64 {
	return [3]float64{s * a[0], s * a[1], s * a[2]}
}

//Norm2 returns the squared euclidean norm of a.
func Norm2(a [3]float64) float64 {
	return Dot(a, a)
}

//MulVec returns T a, where T is a 3x3 matrix.
func MulVec(T mat.Matrix, a [3]float64) [3]float64 {
	var ret [3]float64
	for k := 0; k < 3; k++ {
		ret[k] = T.At(k, 0)*a[0] + T.At(k, 1)*a[1] + T.At(k, 2)*a[2]
	}
	return ret
}

//IsZero returns true if all the components of a are, in absolute value, not larger than epsilon.
//If epsilon is negative, a very small default value is used.
func IsZero(a [3]float64, epsilon float64) bool {
	if epsilon < 0 {
		epsilon = appzero
	}
	return math.Abs(a[0]) <= epsilon && math.Abs(a[1]) <= epsilon && math.Abs(a[2]) <= epsilon
}

//Rint returns a with each component rounded to the nearest integer (ties to even, like rint).
func Rint(a [3]float64) [3]float64 {
	return [3]float64{math.RoundToEven(a[0]), math.RoundToEven(a[1]), math.RoundToEven(a[2])}
}

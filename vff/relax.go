/*
 * relax.go, part of gocrystal.
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
	crystal "github.com/rmera/gocrystal"
	"github.com/rmera/gocrystal/minimizer"
	v3 "github.com/rmera/gocrystal/v3"
	"gonum.org/v1/gonum/mat"
)

//NStrain is the number of independent components of a symmetric strain.
const NStrain = 6

//strain components, in the order they appear in the variables of a Relaxation.
var strainIndex = [NStrain][2]int{{0, 0}, {1, 1}, {2, 2}, {0, 1}, {0, 2}, {1, 2}}

//Relaxation exposes the energy of a force field as a function of the atomic positions
//and, optionally, of a homogeneous strain of the structure, so it can be minimized.
//The variables are the 3N reference positions u, followed by the 6 components of a symmetric
//strain ε (xx, yy, zz, xy, xz, yz) if strain is relaxed. Atomic positions are (I+ε)u
//and the cell is (I+ε) times the initial cell.
//Relaxation implements minimizer.Functional.
type Relaxation struct {
	V      *Vff
	strain bool
	cell0  *mat.Dense
	n      int
	//buffers
	grad   *v3.Matrix
	virial *mat.Dense
}

//NewRelaxation returns a Relaxation for the current structure of V. If strain is true,
//the cell is relaxed too.
func NewRelaxation(V *Vff, strain bool) *Relaxation {
	n := V.str.Len()
	return &Relaxation{V: V, strain: strain, cell0: mat.DenseCopyOf(V.str.Cell), n: n, grad: v3.Zeros(n), virial: mat.NewDense(3, 3, nil)}
}

//Len returns the number of variables.
func (R *Relaxation) Len() int {
	if R.strain {
		return 3*R.n + NStrain
	}
	return 3 * R.n
}

//X returns the variables corresponding to the current structure, with no strain.
func (R *Relaxation) X() []float64 {
	x := make([]float64, R.Len())
	for i := 0; i < R.n; i++ {
		p := R.V.str.Pos(i)
		copy(x[3*i:3*i+3], p[:])
	}
	return x
}

//deformation returns I+ε for the variables x.
func (R *Relaxation) deformation(x []float64) *mat.Dense {
	D := mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	if !R.strain {
		return D
	}
	for k, ij := range strainIndex {
		v := x[3*R.n+k]
		D.Set(ij[0], ij[1], D.At(ij[0], ij[1])+v)
		if ij[0] != ij[1] {
			D.Set(ij[1], ij[0], D.At(ij[1], ij[0])+v)
		}
	}
	return D
}

//Apply sets the positions and the cell of the structure from the variables x.
func (R *Relaxation) Apply(x []float64) {
	D := R.deformation(x)
	S := R.V.str
	//U views the undeformed positions in x.
	if U, err := v3.NewMatrix(x[:3*R.n]); err == nil {
		S.Coords.Transform(D, U)
	}
	S.Cell.Mul(D, R.cell0)
}

//Func returns the energy at x. It leaves the structure at x.
func (R *Relaxation) Func(x []float64) float64 {
	R.Apply(x)
	return R.V.Energy()
}

//Grad puts in grad the gradient of the energy at x. It leaves the structure at x.
//The gradient of frozen atoms is zero.
func (R *Relaxation) Grad(grad, x []float64) {
	R.Apply(x)
	var W *mat.Dense
	if R.strain {
		W = R.virial
	}
	R.V.evaluate(R.grad, W)
	D := R.deformation(x)
	for i := 0; i < R.n; i++ {
		if R.V.str.Atoms[i].Freeze {
			grad[3*i], grad[3*i+1], grad[3*i+2] = 0, 0, 0
			continue
		}
		//dE/du = (I+ε)^T dE/dr
		g := v3.MulVec(D.T(), R.grad.Vec(i))
		copy(grad[3*i:3*i+3], g[:])
	}
	if !R.strain {
		return
	}
	//dE/dε = W (I+ε)^-T
	inv := mat.NewDense(3, 3, nil)
	if err := inv.Inverse(D); err != nil {
		panic("goCrystal/vff: singular deformation: " + err.Error())
	}
	G := mat.NewDense(3, 3, nil)
	G.Mul(W, inv.T())
	for k, ij := range strainIndex {
		v := G.At(ij[0], ij[1])
		if ij[0] != ij[1] {
			v += G.At(ij[1], ij[0])
		}
		grad[3*R.n+k] = v
	}
}

//Split returns the number of position variables, which come before the strain ones.
func (R *Relaxation) Split() int {
	return 3 * R.n
}

//Relax minimizes the energy of the current structure with m, relaxing the cell too if strain is true.
//The structure is left at the minimum found, whose energy is returned.
//A decoupled minimizer with no split set alternates between positions and strain. Without strain there is
//nothing to alternate, and its inner minimizer is used directly.
func (V *Vff) Relax(m minimizer.Minimizer, strain bool) (float64, error) {
	if V.tree == nil {
		return 0, crystal.NewError(crystal.Input, "Vff.Relax", "Vff used before Init")
	}
	R := NewRelaxation(V, strain)
	if d, ok := m.(*minimizer.DecoupledMin); ok && d.Mid == 0 && d.Inner != nil {
		if strain {
			split := *d
			split.Mid = R.Split()
			m = &split
		} else {
			m = d.Inner
		}
	}
	x := R.X()
	E, err := m.Minimize(R, x)
	//x holds the best point found, even if the minimizer failed.
	R.Apply(x)
	if err != nil {
		return V.Energy(), crystal.ErrDecorate(err, "Vff.Relax")
	}
	return E, nil
}

/*
 * functional.go, part of gocrystal.
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
	"math"

	crystal "github.com/rmera/gocrystal"
	v3 "github.com/rmera/gocrystal/v3"
)

//energyFactor multiplies the sum of bond-stretching, angle-bending and coupling terms.
const energyFactor = 3.0 / 8.0

//AtomicFunctional holds the parameters of the force field for a center of a given atomic type
//on a given site. Bond terms are indexed by the type (in the neighbor site) of the atom at
//the other end, and angle terms by the sum of the types of both neighbors.
type AtomicFunctional struct {
	Symbol  string
	Site    int
	Lengths []float64         //ideal bond lengths, in Angstroms
	Alphas  [][NCoefs]float64 //bond-stretching
	Gammas  []float64         //cosine of the ideal angles
	Sigmas  []float64         //bond-angle coupling
	Betas   [][NCoefs]float64 //angle-bending
}

//newAtomicFunctional builds the functional for the type symbol on site, with neighbors from the given types.
func newAtomicFunctional(P *Params, symbol string, site int, neighbors []string) (*AtomicFunctional, error) {
	F := &AtomicFunctional{Symbol: symbol, Site: site}
	n := len(neighbors)
	F.Lengths = make([]float64, n)
	F.Alphas = make([][NCoefs]float64, n)
	for k, v := range neighbors {
		b := P.Bond(symbol, v)
		if b == nil {
			return nil, crystal.NewError(crystal.Config, "newAtomicFunctional", "no bond parameters for %s-%s", symbol, v)
		}
		F.Lengths[k] = b.Length
		F.Alphas[k] = coefs(b.Alphas)
	}
	nangles := 2*n - 1
	F.Gammas = make([]float64, nangles)
	F.Sigmas = make([]float64, nangles)
	F.Betas = make([][NCoefs]float64, nangles)
	for k1 := 0; k1 < n; k1++ {
		for k2 := k1; k2 < n; k2++ {
			a := P.Angle(neighbors[k1], symbol, neighbors[k2])
			if a == nil {
				return nil, crystal.NewError(crystal.Config, "newAtomicFunctional", "no angle parameters for %s-%s-%s", neighbors[k1], symbol, neighbors[k2])
			}
			F.Gammas[k1+k2] = float64(a.Gamma)
			F.Sigmas[k1+k2] = a.Sigma
			F.Betas[k1+k2] = coefs(a.Betas)
		}
	}
	return F, nil
}

//poly returns sum_i c_i x^(i+2) and its derivative.
func poly(c *[NCoefs]float64, x float64) (float64, float64) {
	var e, de float64
	p := x //x^(i+1)
	for i := 0; i < NCoefs; i++ {
		de += float64(i+2) * c[i] * p
		p *= x
		e += c[i] * p
	}
	return e, de
}

//Evaluate returns the energy of a center, given its bond vectors e (in units of scale)
//and the types (in the neighbor site) of the bonded atoms. Bond-stretching terms are only added
//if stretch is true, so each bond is counted once when the functional is evaluated over all
//the centers. If grad is not nil, the derivatives of the energy with respect to each bond vector
//are added to it.
func (F *AtomicFunctional) Evaluate(e [][3]float64, kinds []int, scale float64, stretch bool, grad [][3]float64) float64 {
	s2 := scale * scale
	n := len(e)
	var delta, dl [NBonds]float64
	var energy float64
	for i := 0; i < n; i++ {
		d := F.Lengths[kinds[i]]
		dl[i] = d
		delta[i] = (s2*v3.Norm2(e[i]) - d*d) / d
		if !stretch {
			continue
		}
		es, des := poly(&F.Alphas[kinds[i]], delta[i])
		energy += es
		if grad != nil {
			grad[i] = v3.Add(grad[i], v3.Scale(energyFactor*des*2*s2/d, e[i]))
		}
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			k := kinds[i] + kinds[j]
			l := math.Sqrt(dl[i] * dl[j])
			theta := s2*v3.Dot(e[i], e[j])/l - l*F.Gammas[k]
			eb, deb := poly(&F.Betas[k], theta)
			sigma := F.Sigmas[k]
			energy += eb + sigma*(delta[i]+delta[j])*theta
			if grad == nil {
				continue
			}
			dtheta := deb + sigma*(delta[i]+delta[j])
			gi := v3.Add(v3.Scale(dtheta*s2/l, e[j]), v3.Scale(sigma*theta*2*s2/dl[i], e[i]))
			gj := v3.Add(v3.Scale(dtheta*s2/l, e[i]), v3.Scale(sigma*theta*2*s2/dl[j], e[j]))
			grad[i] = v3.Add(grad[i], v3.Scale(energyFactor, gi))
			grad[j] = v3.Add(grad[j], v3.Scale(energyFactor, gj))
		}
	}
	return energyFactor * energy
}

//MicroStrain returns the relative deviation of the volume of the tetrahedron formed by the four
//bond vectors e (in units of scale) from the volume of the ideal tetrahedron of the center.
func (F *AtomicFunctional) MicroStrain(e [][3]float64, kinds []int, scale float64) float64 {
	if len(e) != NBonds {
		return math.NaN()
	}
	a := v3.Scale(scale, v3.Sub(e[1], e[0]))
	b := v3.Scale(scale, v3.Sub(e[2], e[0]))
	c := v3.Scale(scale, v3.Sub(e[3], e[0]))
	vol := math.Abs(v3.Dot(a, v3.Cross(b, c))) / 6
	var d float64
	for _, k := range kinds {
		d += F.Lengths[k]
	}
	d /= float64(len(kinds))
	//edge of the regular tetrahedron with center-vertex distance d
	edge := d * math.Sqrt(8.0/3.0)
	ideal := edge * edge * edge / (6 * math.Sqrt2)
	return vol/ideal - 1
}

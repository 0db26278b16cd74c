/*
 * params.go, part of gocrystal.
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
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	crystal "github.com/rmera/gocrystal"
)

//NCoefs is the number of polynomial coefficients for bond-stretching and angle-bending terms.
const NCoefs = 5

//Tetrahedral is the cosine of the tetrahedral angle.
const Tetrahedral = -1.0 / 3.0

//Gamma is the cosine of the ideal angle of an angle-bending term. In JSON it can be given
//either as a number or as the string "tet", for the tetrahedral angle.
type Gamma float64

func (G *Gamma) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if strings.HasPrefix(s, "\"") {
		u, err := strconv.Unquote(s)
		if err != nil {
			return err
		}
		if strings.EqualFold(u, "tet") || strings.EqualFold(u, "tetrahedral") {
			*G = Gamma(Tetrahedral)
			return nil
		}
		f, err := strconv.ParseFloat(u, 64)
		if err != nil {
			return fmt.Errorf("gamma should be a number or \"tet\", not %q", u)
		}
		*G = Gamma(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*G = Gamma(f)
	return nil
}

//BondParams are the bond-stretching parameters for a pair of atomic types.
type BondParams struct {
	A      string    `json:"A"`
	B      string    `json:"B"`
	Length float64   `json:"d0"`
	Alphas []float64 `json:"alphas"`
}

//AngleParams are the angle-bending and bond-angle coupling parameters for the angle A-B-C,
//where B is the center.
type AngleParams struct {
	A     string    `json:"A"`
	B     string    `json:"B"`
	C     string    `json:"C"`
	Gamma Gamma     `json:"gamma"`
	Sigma float64   `json:"sigma"`
	Betas []float64 `json:"betas"`
}

//Params is the whole set of parameters of the force field.
type Params struct {
	Cutoff float64        `json:"cutoff,omitempty"` //in units of the first-neighbor distance. 0 means DefaultCutoff.
	Bonds  []*BondParams  `json:"bonds"`
	Angles []*AngleParams `json:"angles"`
}

//ReadParams reads the parameters from the JSON file name, which can be zstd-compressed (if its name ends in ".zst").
func ReadParams(name string) (*Params, error) {
	P := new(Params)
	if err := crystal.ReadJSON(name, P); err != nil {
		return nil, crystal.ErrDecorate(err, "ReadParams")
	}
	if err := P.validate(); err != nil {
		return nil, crystal.ErrDecorate(err, "ReadParams")
	}
	return P, nil
}

//WriteParams writes P to the JSON file name.
func WriteParams(name string, P *Params) error {
	return crystal.ErrDecorate(crystal.WriteJSON(name, P), "WriteParams")
}

func (P *Params) validate() error {
	for _, b := range P.Bonds {
		if b.Length <= 0 {
			return crystal.NewError(crystal.Config, "Params.validate", "bond %s-%s: non-positive length %g", b.A, b.B, b.Length)
		}
		if len(b.Alphas) > NCoefs {
			return crystal.NewError(crystal.Config, "Params.validate", "bond %s-%s: %d alphas, at most %d allowed", b.A, b.B, len(b.Alphas), NCoefs)
		}
	}
	for _, a := range P.Angles {
		if len(a.Betas) > NCoefs {
			return crystal.NewError(crystal.Config, "Params.validate", "angle %s-%s-%s: %d betas, at most %d allowed", a.A, a.B, a.C, len(a.Betas), NCoefs)
		}
	}
	if P.Cutoff < 0 {
		return crystal.NewError(crystal.Config, "Params.validate", "negative cutoff %g", P.Cutoff)
	}
	return nil
}

//Bond returns the parameters for the bond between the types a and b, in any order, or nil.
func (P *Params) Bond(a, b string) *BondParams {
	for _, v := range P.Bonds {
		if (v.A == a && v.B == b) || (v.A == b && v.B == a) {
			return v
		}
	}
	return nil
}

//Angle returns the parameters for the angle a-center-c (or c-center-a), or nil.
func (P *Params) Angle(a, center, c string) *AngleParams {
	for _, v := range P.Angles {
		if v.B != center {
			continue
		}
		if (v.A == a && v.C == c) || (v.A == c && v.C == a) {
			return v
		}
	}
	return nil
}

func coefs(c []float64) [NCoefs]float64 {
	var r [NCoefs]float64
	copy(r[:], c)
	return r
}

/*
 * options.go, part of gocrystal.
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

//Builders for the bond tree.
const (
	SmithBuilder      = "smith"
	BruteForceBuilder = "bruteforce"
)

//Options contains the settings for building the tree and evaluating the force field.
type Options struct {
	builder string
	cutoff  float64 //in units of the first neighbor distance. If 0, the one in the parameters is used.
	check   bool    //cross-check the tree against the brute-force builder
	verbose bool
}

//DefaultOptions returns options that build the tree with the Smith normal form indexing,
//without cross-checking it.
func DefaultOptions() *Options {
	r := new(Options)
	r.builder = SmithBuilder
	return r
}

//Builder returns the name of the tree builder to use, and sets it to a new value, if given.
//Unknown builders are ignored.
func (O *Options) Builder(b ...string) string {
	if len(b) > 0 && (b[0] == SmithBuilder || b[0] == BruteForceBuilder) {
		O.builder = b[0]
	}
	return O.builder
}

//Cutoff returns the bond cutoff for the brute-force builder, in units of the first-neighbor
//distance, and sets it to a new value, if given.
func (O *Options) Cutoff(c ...float64) float64 {
	if len(c) > 0 && c[0] >= 0 {
		O.cutoff = c[0]
	}
	return O.cutoff
}

//Check returns whether trees built with the Smith indexing are checked against the brute-force builder,
//and sets it to a new value, if given.
func (O *Options) Check(c ...bool) bool {
	if len(c) > 0 {
		O.check = c[0]
	}
	return O.check
}

//Verbose returns whether diagnostics are logged, and sets it to a new value, if given.
func (O *Options) Verbose(v ...bool) bool {
	if len(v) > 0 {
		O.verbose = v[0]
	}
	return O.verbose
}

/*
 * doc.go, part of gocrystal.
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

//Package crystal provides the lattice and structure types shared by the goCrystal packages,
//functions to build ideal supercells and to find neighbor shells in periodic systems,
//the common error type, and facilities to read and write structures and parameters as
//JSON, optionally zstd-compressed.
//
//The packages smith (lattice indexing through the Smith normal form), vff (bond trees and the
//valence force field), minimizer, separable (fits of separable functions) and mixed
//(cluster expansion plus separable functions) build on it.
package crystal

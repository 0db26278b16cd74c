/*
 * main.go, part of gocrystal.
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

// Command vffrelax relaxes a crystal structure with a valence force field, and writes
// the relaxed structure and, optionally, plots of its bond-length distributions.
package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	crystal "github.com/rmera/gocrystal"
	"github.com/rmera/gocrystal/fitplot"
	"github.com/rmera/gocrystal/histo"
	"github.com/rmera/gocrystal/minimizer"
	"github.com/rmera/gocrystal/vff"
)

func main() {
	params := flag.String("params", "vff.json", "force field parameters (JSON, optionally .zst)")
	structure := flag.String("structure", "structure.json", "structure to relax (JSON, optionally .zst)")
	out := flag.String("out", "relaxed.json", "file for the relaxed structure")
	minopts := flag.String("minimizer", "", "minimizer options (JSON). Default: conjugate gradient")
	method := flag.String("method", "", "minimization method, overrides the options file. One of: "+strings.Join(minimizer.Methods(), ", "))
	strain := flag.Bool("strain", true, "relax the cell as well as the positions")
	builder := flag.String("builder", vff.SmithBuilder, "bond tree builder: smith or bruteforce")
	check := flag.Bool("check", false, "check the Smith bond tree against the brute-force one")
	plots := flag.String("plots", "", "if given, directory for bond-length histogram plots and their data (histograms.json)")
	bins := flag.Int("bins", 40, "number of bins for the histograms")
	verbose := flag.Bool("v", false, "verbose output")
	flag.Parse()

	P, err := vff.ReadParams(*params)
	if err != nil {
		log.Fatalf("reading parameters: %v", err)
	}
	S, err := crystal.ReadStructure(*structure)
	if err != nil {
		log.Fatalf("reading structure: %v", err)
	}
	if S.Lattice == nil {
		log.Fatalf("structure %s has no lattice", *structure)
	}
	O := vff.DefaultOptions()
	O.Builder(*builder)
	O.Check(*check)
	O.Verbose(*verbose)
	V := vff.New(S.Lattice, O)
	if err := V.Load(P); err != nil {
		log.Fatalf("loading parameters: %v", err)
	}
	if err := V.Init(S); err != nil {
		log.Fatalf("building the bond tree: %v", err)
	}
	mo := minimizer.DefaultOptions()
	if *minopts != "" {
		mo, err = minimizer.ReadOptions(*minopts)
		if err != nil {
			log.Fatalf("reading minimizer options: %v", err)
		}
	}
	if *method != "" {
		mo.Method = *method
	}
	mo.Verbose = mo.Verbose || *verbose
	m, err := minimizer.New(mo)
	if err != nil {
		log.Fatalf("minimizer: %v", err)
	}
	E0 := V.Energy()
	E, err := V.Relax(m, *strain)
	if err != nil {
		log.Printf("relaxation did not finish cleanly: %v", err)
	}
	log.Printf("energy: %.8g -> %.8g", E0, E)
	relaxed := V.Structure()
	relaxed.Energy = E
	if err := crystal.WriteStructure(*out, relaxed); err != nil {
		log.Fatalf("writing %s: %v", *out, err)
	}
	if *plots == "" {
		return
	}
	if err := bondPlots(V, *plots, *bins); err != nil {
		log.Fatalf("plotting: %v", err)
	}
}

//bondPlots draws one histogram for each pair of types present in the structure.
func bondPlots(V *vff.Vff, dir string, bins int) error {
	L := V.Structure().Lattice
	lengths := V.BondLengths()
	lo, hi := 1e300, -1e300
	for _, l := range lengths {
		for _, v := range l {
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}
	if hi <= lo {
		hi = lo + 0.1
	}
	pad := 0.05 * (hi - lo)
	M := V.BondHistograms(histo.Dividers(lo-pad, hi+pad, bins))
	if err := crystal.WriteJSON(filepath.Join(dir, "histograms.json"), M); err != nil {
		return err
	}
	r, c := M.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			D := M.View(i, j)
			if D.Total() == 0 {
				continue
			}
			pair := fmt.Sprintf("%s-%s", L.Sites[0].Types[i], L.Sites[1].Types[j])
			name := filepath.Join(dir, pair+".png")
			if err := fitplot.Histogram(D, pair+" bonds", "Bond length (Å)", name); err != nil {
				return err
			}
		}
	}
	return nil
}

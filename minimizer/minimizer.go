/*
 * minimizer.go, part of gocrystal.
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

//Package minimizer wraps gonum's optimize methods behind a small interface, and adds a minimizer
//that alternates between two ranges of variables.
package minimizer

import (
	"fmt"
	"log"
	"sort"
	"strings"

	crystal "github.com/rmera/gocrystal"
	"gonum.org/v1/gonum/optimize"
)

//Functional is something that can be minimized. Func returns the value at x, and Grad puts the
//gradient at x in grad, which has the same length as x.
type Functional interface {
	Func(x []float64) float64
	Grad(grad, x []float64)
}

//Minimizer minimizes a functional starting from x, which is overwritten with the best point found.
//It returns the value of the functional at that point.
type Minimizer interface {
	Minimize(f Functional, x []float64) (float64, error)
}

//Names of the available methods.
const (
	BFGS            = "bfgs"
	LBFGS           = "lbfgs"
	CG              = "cg"
	GradientDescent = "gradientdescent"
	NelderMead      = "neldermead"
	Decoupled       = "decoupled"
)

//Options contains the settings for a minimizer. They can be read from JSON.
type Options struct {
	Method    string  `json:"method"`
	Tolerance float64 `json:"tolerance"` //on the change in the functional between iterations
	GradTol   float64 `json:"gradtol"`   //on the norm of the gradient. 0 means the gonum default.
	Itermax   int     `json:"itermax"`   //0 means no limit
	Verbose   bool    `json:"verbose"`
	//The following only apply to the decoupled method.
	Mid   int    `json:"mid"`   //the variables [0,Mid) and [Mid,N) are minimized alternately
	Inner string `json:"inner"` //method used for each half. Default: the same as the decoupled default.
}

//DefaultOptions returns options for a conjugate gradient minimization with a tolerance of 1e-8.
func DefaultOptions() *Options {
	r := new(Options)
	r.Method = CG
	r.Tolerance = 1e-8
	r.Itermax = 500
	return r
}

//ReadOptions reads minimizer options from a JSON file, which can be zstd-compressed.
//Missing settings take the values of DefaultOptions.
func ReadOptions(name string) (*Options, error) {
	O := DefaultOptions()
	if err := crystal.ReadJSON(name, O); err != nil {
		return nil, crystal.ErrDecorate(err, "ReadOptions")
	}
	return O, nil
}

//methods is the table of gonum methods. Each call returns a new method, as
//gonum methods keep state between iterations.
var methods = map[string]func() optimize.Method{
	BFGS:            func() optimize.Method { return &optimize.BFGS{} },
	LBFGS:           func() optimize.Method { return &optimize.LBFGS{} },
	CG:              func() optimize.Method { return &optimize.CG{} },
	GradientDescent: func() optimize.Method { return &optimize.GradientDescent{} },
	NelderMead:      func() optimize.Method { return &optimize.NelderMead{} },
}

//Methods returns the names of the available methods, sorted.
func Methods() []string {
	ret := make([]string, 0, len(methods)+1)
	for k := range methods {
		ret = append(ret, k)
	}
	ret = append(ret, Decoupled)
	sort.Strings(ret)
	return ret
}

//New returns the minimizer named in O. If O is nil, DefaultOptions are used.
func New(O *Options) (Minimizer, error) {
	if O == nil {
		O = DefaultOptions()
	}
	name := strings.ToLower(O.Method)
	if name == Decoupled {
		inner := *O
		inner.Method = O.Inner
		if inner.Method == "" || strings.EqualFold(inner.Method, Decoupled) {
			inner.Method = CG
		}
		in, err := New(&inner)
		if err != nil {
			return nil, crystal.ErrDecorate(err, "New")
		}
		return &DecoupledMin{Mid: O.Mid, Tolerance: O.Tolerance, Itermax: O.Itermax, Inner: in, Verbose: O.Verbose}, nil
	}
	if _, ok := methods[name]; !ok {
		return nil, crystal.NewError(crystal.Config, "minimizer.New", "unknown method %q, use one of %s", O.Method, strings.Join(Methods(), ", "))
	}
	return &Gonum{method: name, o: *O}, nil
}

//Gonum minimizes with one of the methods of gonum's optimize package.
type Gonum struct {
	method string
	o      Options
}

//Method returns the name of the gonum method used.
func (G *Gonum) Method() string {
	return G.method
}

//Minimize minimizes f starting from x. x is overwritten with the best point found.
func (G *Gonum) Minimize(f Functional, x []float64) (float64, error) {
	p := optimize.Problem{Func: f.Func}
	if G.method != NelderMead {
		p.Grad = f.Grad
	}
	settings := &optimize.Settings{
		GradientThreshold: G.o.GradTol,
		MajorIterations:   G.o.Itermax,
	}
	if G.o.Tolerance > 0 {
		settings.Converger = &optimize.FunctionConverge{Absolute: G.o.Tolerance, Iterations: 5}
	}
	res, err := optimize.Minimize(p, x, settings, methods[G.method]())
	if res != nil {
		copy(x, res.X)
	}
	if err != nil {
		return f.Func(x), crystal.NewError(crystal.Other, "Gonum.Minimize", "%s: %v", G.method, err)
	}
	if G.o.Verbose {
		log.Printf("goCrystal/minimizer: %s: %s after %d iterations, value %g", G.method, res.Status, res.Stats.MajorIterations, res.F)
	}
	return res.F, nil
}

func (G *Gonum) String() string {
	return fmt.Sprintf("gonum %s, tolerance %g, itermax %d", G.method, G.o.Tolerance, G.o.Itermax)
}

/*
 * fitplot.go, part of gocrystal.
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

//Package fitplot draws diagnostic plots for fits and relaxations: parity plots of predicted against
//target values, the convergence of a fit, and bond-length histograms.
package fitplot

import (
	"image/color"
	"math"

	crystal "github.com/rmera/gocrystal"
	"github.com/rmera/gocrystal/histo"
	"github.com/rmera/gocrystal/mixed"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

//Size is the side of the (square) plots produced.
var Size = 4 * vg.Inch

func basicPlot(title, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())
	return p
}

//Parity saves to the file name a scatter plot of predicted against target values, with the
//y=x line. The format is given by the extension of name (png, svg, pdf...).
func Parity(targets, predicted []float64, title, name string) error {
	if len(targets) != len(predicted) || len(targets) == 0 {
		return crystal.NewError(crystal.Shape, "fitplot.Parity", "%d targets and %d predictions", len(targets), len(predicted))
	}
	p := basicPlot(title, "Target", "Predicted")
	pts := make(plotter.XYs, len(targets))
	for i := range targets {
		pts[i].X = targets[i]
		pts[i].Y = predicted[i]
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return crystal.ErrDecorate(err, "fitplot.Parity")
	}
	s.GlyphStyle.Color = color.RGBA{R: 200, B: 30, A: 255}
	lo := math.Min(floats.Min(targets), floats.Min(predicted))
	hi := math.Max(floats.Max(targets), floats.Max(predicted))
	diag, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return crystal.ErrDecorate(err, "fitplot.Parity")
	}
	diag.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(s, diag)
	return crystal.ErrDecorate(p.Save(Size, Size, name), "fitplot.Parity")
}

//ApproachParity draws the parity plot for the current predictions of A on the structures not skipped.
func ApproachParity(A *mixed.Approach, title, name string) error {
	var t, pred []float64
	for i := 0; i < A.Mapping.Len(); i++ {
		if A.Mapping.DoSkip(i) {
			continue
		}
		t = append(t, A.Mapping.Target(i))
		pred = append(pred, A.Value(i))
	}
	return crystal.ErrDecorate(Parity(t, pred, title, name), "fitplot.ApproachParity")
}

//Convergence saves to the file name a plot of the base-10 logarithm of the mean squared error
//after each sweep of a fit. Errors of exactly zero are drawn at the smallest positive float64.
func Convergence(H *mixed.History, title, name string) error {
	if H == nil || len(H.Errors) == 0 {
		return crystal.NewError(crystal.Input, "fitplot.Convergence", "empty fit history")
	}
	p := basicPlot(title, "Sweep", "log10(MSE)")
	pts := make(plotter.XYs, len(H.Errors))
	for i, v := range H.Errors {
		pts[i].X = float64(i + 1)
		pts[i].Y = math.Log10(math.Max(v.MSE, math.SmallestNonzeroFloat64))
	}
	l, s, err := plotter.NewLinePoints(pts)
	if err != nil {
		return crystal.ErrDecorate(err, "fitplot.Convergence")
	}
	l.Color = color.RGBA{B: 200, A: 255}
	p.Add(l, s)
	return crystal.ErrDecorate(p.Save(Size, Size, name), "fitplot.Convergence")
}

//Histogram saves to the file name a plot of the histogram D.
func Histogram(D *histo.Data, title, xlabel, name string) error {
	div := D.CopyDividers()
	counts := D.View()
	if len(counts) == 0 || len(div) != len(counts)+1 {
		return crystal.NewError(crystal.Input, "fitplot.Histogram", "histogram with %d dividers and %d bins", len(div), len(counts))
	}
	p := basicPlot(title, xlabel, "Count")
	if D.Normalized() {
		p.Y.Label.Text = "Frequency"
	}
	h := &plotter.Histogram{
		Bins:      make([]plotter.HistogramBin, len(counts)),
		Width:     div[1] - div[0],
		FillColor: color.RGBA{G: 120, B: 180, A: 255},
		LineStyle: plotter.DefaultLineStyle,
	}
	for i, v := range counts {
		h.Bins[i] = plotter.HistogramBin{Min: div[i], Max: div[i+1], Weight: v}
	}
	p.Add(h)
	return crystal.ErrDecorate(p.Save(Size, Size, name), "fitplot.Histogram")
}

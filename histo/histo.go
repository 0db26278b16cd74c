/*
 * histo.go, part of gocrystal.
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

//Package histo provides histograms and matrices of histograms.
package histo

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

//Dividers returns n+1 evenly spaced dividers going from lo to hi, for
//a histogram with n bins.
func Dividers(lo, hi float64, n int) []float64 {
	if n < 1 || hi <= lo {
		panic("goCrystal/histo.Dividers: need at least one bin and hi > lo")
	}
	return floats.Span(make([]float64, n+1), lo, hi)
}

//Matrix is a row-major matrix of histograms, usually one for each pair of atomic types.
type Matrix struct {
	rows, cols int
	d          []*Data
	dividers   []float64 //if not nil, all histograms have the same dividers
}

//NewMatrix returns a r x c matrix of empty slots. If dividers is not nil,
//all the histograms in the matrix will share them.
func NewMatrix(r, c int, dividers []float64) *Matrix {
	M := &Matrix{rows: r, cols: c, d: make([]*Data, r*c)}
	if dividers != nil {
		M.dividers = append([]float64(nil), dividers...)
	}
	return M
}

//Dims returns the number of rows and columns of the matrix.
func (M *Matrix) Dims() (int, int) {
	return M.rows, M.cols
}

func (M *Matrix) String() string {
	t := make([]string, 0, len(M.d))
	for i, v := range M.d {
		if v == nil {
			continue
		}
		t = append(t, fmt.Sprintf("[%d,%d] %s", i/M.cols, i%M.cols, v.String()))
	}
	return fmt.Sprintf("rows:%d cols:%d\n", M.rows, M.cols) + strings.Join(t, "\n")
}

type jsonMatrix struct {
	Rows     int       `json:"rows"`
	Cols     int       `json:"cols"`
	D        []*Data   `json:"data"`
	Dividers []float64 `json:"dividers"`
}

func (M *Matrix) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonMatrix{Rows: M.rows, Cols: M.cols, D: M.d, Dividers: M.dividers})
}

func (M *Matrix) UnmarshalJSON(b []byte) error {
	var a jsonMatrix
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	if len(a.D) != a.Rows*a.Cols {
		return fmt.Errorf("goCrystal/histo: %d histograms for a %dx%d matrix", len(a.D), a.Rows, a.Cols)
	}
	M.rows, M.cols, M.d, M.dividers = a.Rows, a.Cols, a.D, a.Dividers
	return nil
}

func (M *Matrix) index(r, c int) int {
	if err := M.Check(r, c); err != nil {
		panic(err.Error())
	}
	return M.cols*r + c
}

//Fill puts an empty histogram in every slot of the matrix. The matrix must have shared dividers.
func (M *Matrix) Fill() {
	for i := 0; i < M.rows; i++ {
		for j := 0; j < M.cols; j++ {
			M.NewHisto(i, j, nil, nil)
		}
	}
}

//Check returns an error if r,c is not a position in the matrix.
func (M *Matrix) Check(r, c int) error {
	if r < 0 || r >= M.rows {
		return fmt.Errorf("goCrystal/histo: row %d out of range", r)
	}
	if c < 0 || c >= M.cols {
		return fmt.Errorf("goCrystal/histo: column %d out of range", c)
	}
	return nil
}

//NewHisto puts a new histogram of rawdata (which can be nil) in the r,c position.
//If dividers is nil, the shared dividers are used. If both are given and they differ,
//the shared ones are used.
func (M *Matrix) NewHisto(r, c int, dividers []float64, rawdata []float64) {
	if dividers == nil {
		if M.dividers == nil {
			panic("goCrystal/histo.Matrix.NewHisto: no dividers given, and the matrix has none")
		}
		dividers = M.dividers
	} else if M.dividers != nil && !floats.Equal(M.dividers, dividers) {
		log.Printf("goCrystal/histo: dividers given for [%d,%d] don't match those of the matrix, which will be used", r, c)
		dividers = M.dividers
	}
	M.d[M.index(r, c)] = NewData(dividers, rawdata, M.cols*r+c)
}

//View returns the histogram at r,c. It is not a copy.
func (M *Matrix) View(r, c int) *Data {
	return M.d[M.index(r, c)]
}

//AddData adds points to the histogram at r,c.
func (M *Matrix) AddData(r, c int, point ...float64) {
	M.d[M.index(r, c)].AddData(point...)
}

//Data is a histogram: the counts of the values that fall between consecutive dividers.
type Data struct {
	id         int
	normalized bool
	total      int
	dividers   []float64
	histo      []float64
}

type jsonData struct {
	ID         int       `json:"id"`
	Normalized bool      `json:"normalized"`
	Total      int       `json:"total"`
	Dividers   []float64 `json:"dividers"`
	Histo      []float64 `json:"histo"`
}

func (D *Data) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonData{ID: D.id, Normalized: D.normalized, Total: D.total, Dividers: D.dividers, Histo: D.histo})
}

func (D *Data) UnmarshalJSON(b []byte) error {
	var a jsonData
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	D.id, D.normalized, D.total, D.dividers, D.histo = a.ID, a.Normalized, a.Total, a.Dividers, a.Histo
	return nil
}

//ID returns the ID of the histogram, -1 if it has none.
func (D *Data) ID() int {
	return D.id
}

//Total returns the number of values in the histogram, including those that fell
//outside the dividers when added with AddData.
func (D *Data) Total() int {
	return D.total
}

//String returns a two-line representation of the histogram: the bins, and the counts.
func (D *Data) String() string {
	ret := fmt.Sprintf("ID: %d, Normalized: %v, TotalData: %d\n", D.id, D.normalized, D.total)
	d := make([]string, 0, len(D.histo))
	h := make([]string, 0, len(D.histo))
	for i, v := range D.histo {
		d = append(d, fmt.Sprintf("%4.2f-%4.2f", D.dividers[i], D.dividers[i+1]))
		h = append(h, fmt.Sprintf("%9.3f", v))
	}
	return ret + fmt.Sprintf("%s\n%s", strings.Join(d, " "), strings.Join(h, " "))
}

//NewData returns a histogram of rawdata (which can be nil) with the given dividers.
//rawdata is sorted in the process. The ID is -1 unless given.
func NewData(dividers []float64, rawdata []float64, ID ...int) *Data {
	if len(dividers) < 2 {
		panic("goCrystal/histo.NewData: need at least 2 dividers")
	}
	d := &Data{id: -1, dividers: append([]float64(nil), dividers...)}
	d.histo = make([]float64, len(dividers)-1)
	if rawdata != nil {
		d.rehisto(rawdata)
	}
	if len(ID) > 0 {
		d.id = ID[0]
	}
	return d
}

//AddData adds points to the histogram. Points outside the dividers are counted in the total, but
//not in any bin.
func (D *Data) AddData(point ...float64) {
	norma := D.normalized
	if norma {
		D.normalize(false)
	}
	last := len(D.dividers) - 1
	for _, v := range point {
		//the first divider larger than v
		j := sort.Search(len(D.dividers), func(i int) bool { return D.dividers[i] > v })
		if j > 0 && j <= last {
			D.histo[j-1]++
		}
	}
	D.total += len(point)
	if norma {
		D.Normalize()
	}
}

//Normalized returns true if the histogram is normalized.
func (D *Data) Normalized() bool {
	return D.normalized
}

//Normalize divides the histogram by the total number of values in it.
func (D *Data) Normalize() {
	D.normalize(true)
}

func (D *Data) normalize(norm bool) {
	if D.total <= 0 || norm == D.normalized {
		return
	}
	n := float64(D.total)
	if norm {
		n = 1 / n
	}
	D.normalized = norm
	floats.Scale(n, D.histo)
}

//CopyDividers copies the dividers into dest, if given and large enough, or into a new slice.
func (D *Data) CopyDividers(dest ...[]float64) []float64 {
	d := getCopySlice(len(D.dividers), dest...)
	copy(d, D.dividers)
	return d
}

//View returns the histogram itself, not a copy.
func (D *Data) View() []float64 {
	return D.histo
}

//Mean returns the mean of the histogrammed values, estimated from the bin centers.
func (D *Data) Mean() float64 {
	centers := make([]float64, len(D.histo))
	for i := range centers {
		centers[i] = 0.5 * (D.dividers[i] + D.dividers[i+1])
	}
	return stat.Mean(centers, D.histo)
}

//rehisto replaces the histogram with that of rawdata. Values outside
//the dividers are dropped, also from the total. rawdata is sorted in the process.
func (D *Data) rehisto(rawdata []float64) {
	sort.Float64s(rawdata)
	//stat.Histogram panics on values off limits.
	lo := sort.SearchFloat64s(rawdata, D.dividers[0])
	hi := sort.SearchFloat64s(rawdata, D.dividers[len(D.dividers)-1])
	rawdata = rawdata[lo:hi]
	D.total = len(rawdata)
	D.normalized = false
	D.histo = stat.Histogram(nil, D.dividers, rawdata, nil)
}

func getCopySlice(N int, dest ...[]float64) []float64 {
	if len(dest) > 0 && len(dest[0]) >= N {
		return dest[0][:N]
	}
	return make([]float64, N)
}

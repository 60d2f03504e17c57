/*
 * histo.go, part of atomchain.
 *
 * Copyright 2024 Raul Mera <rmeraatusachdotcl>
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

package histo

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Data is a histogram: a set of dividers (bin edges, ascending) and
// the counts for each of the len(dividers)-1 bins.
type Data struct {
	id         int
	normalized bool
	total      int
	dividers   []float64
	histo      []float64
}

// Dividers returns n+1 evenly spaced dividers between min and max, that is,
// the edges of n bins of the same width.
func Dividers(min, max float64, n int) []float64 {
	if n < 1 || max <= min {
		panic(fmt.Sprintf("atomchain/histo.Dividers: Can't divide [%g,%g] in %d bins", min, max, n))
	}
	d := make([]float64, n+1)
	return floats.Span(d, min, max)
}

// NewData returns a new histogram from the dividers and rawdata given.
// rawdata can be nil. In that case, an empty histogram is created.
// If an ID for the histogram is given, it will be set. If not, the ID will
// be set to -1.
func NewData(dividers []float64, rawdata []float64, ID ...int) *Data {
	if len(dividers) < 2 {
		panic("atomchain/histo.NewData: At least 2 dividers are needed")
	}
	d := new(Data)
	d.dividers = make([]float64, len(dividers))
	copy(d.dividers, dividers)
	d.histo = make([]float64, len(dividers)-1)
	if rawdata != nil {
		d.ReHisto(rawdata)
	}
	d.id = -1
	if len(ID) > 0 {
		d.id = ID[0]
	}
	return d
}

// ID returns the ID of the histogram
func (D *Data) ID() int {
	return D.id
}

// Total returns the number of data points in the histogram.
func (D *Data) Total() int {
	return D.total
}

// String returns a 3-line representation of the histogram.
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

// AddData adds the given data point(s) to the histogram. Points outside
// the dividers are omitted.
func (D *Data) AddData(point ...float64) {
	norma := D.normalized
	if norma {
		D.UnNormalize()
	}
	last := len(D.dividers) - 1
	for _, v := range point {
		if v < D.dividers[0] || v >= D.dividers[last] {
			continue
		}
		//the first divider larger than v closes v's bin.
		j := sort.SearchFloat64s(D.dividers, v)
		if j < len(D.dividers) && D.dividers[j] == v {
			j++
		}
		D.histo[j-1]++
		D.total++
	}
	if norma {
		D.Normalize()
	}
}

// ReHisto replaces the contents of the histogram with the histogram of rawdata.
// Values outside the dividers are omitted. rawdata is not modified.
func (D *Data) ReHisto(rawdata []float64) {
	data := make([]float64, len(rawdata))
	copy(data, rawdata)
	sort.Float64s(data)
	//stat.Histogram panics with values outside the dividers.
	maxi := sort.SearchFloat64s(data, D.dividers[len(D.dividers)-1])
	mini := sort.SearchFloat64s(data, D.dividers[0])
	data = data[mini:maxi]
	D.total = len(data)
	D.normalized = false
	if len(D.histo) != len(D.dividers)-1 {
		D.histo = nil
	}
	D.histo = stat.Histogram(D.histo, D.dividers, data, nil)
}

// Normalized Returns true if the histogram is normalized
func (D *Data) Normalized() bool {
	return D.normalized
}

// Normalize divides the counts by the total number of data points.
func (D *Data) Normalize() {
	D.normaunnorma(true)
}

// UnNormalize reverts Normalize.
func (D *Data) UnNormalize() {
	D.normaunnorma(false)
}

func (D *Data) normaunnorma(normalize bool) {
	if D.total <= 0 || D.normalized == normalize {
		return
	}
	n := float64(D.total)
	D.normalized = false
	if normalize {
		n = 1 / float64(D.total)
		D.normalized = true
	}
	floats.Scale(n, D.histo)
}

// Centers returns the center of each bin.
func (D *Data) Centers(dest ...[]float64) []float64 {
	c := getCopySlice(len(D.histo), dest...)
	for i := range c {
		c[i] = (D.dividers[i] + D.dividers[i+1]) / 2
	}
	return c
}

// Density returns the histogram as a density: each bin is divided by its width
// and scaled by factor. The histogram is not modified.
func (D *Data) Density(factor float64, dest ...[]float64) []float64 {
	d := D.Copy(dest...)
	for i := range d {
		w := D.dividers[i+1] - D.dividers[i]
		d[i] *= factor / w
	}
	return d
}

// CopyDividers copies the dividers of the histogram to dest, if given and
// large enough, or to a new slice, and returns it.
func (D *Data) CopyDividers(dest ...[]float64) []float64 {
	d := getCopySlice(len(D.dividers), dest...)
	copy(d, D.dividers)
	return d
}

// Copy copies the counts of the histogram.
func (D *Data) Copy(dest ...[]float64) []float64 {
	d := getCopySlice(len(D.histo), dest...)
	copy(d, D.histo)
	return d
}

// View returns the counts of the histogram, not a copy.
func (D *Data) View() []float64 {
	return D.histo
}

// Add adds the histograms a and b putting the result in the receiver.
func (D *Data) Add(a, b *Data) {
	D.combine(a, b, func(x, y float64) float64 { return x + y }, "Add")
	D.total = a.total + b.total
}

// Sub substracts b from a putting the results in the receiver.
// If abs is given and true the absolute value of the difference is used.
func (D *Data) Sub(a, b *Data, abs ...bool) {
	f := func(x, y float64) float64 { return x - y }
	if len(abs) > 0 && abs[0] {
		f = func(x, y float64) float64 { return math.Abs(x - y) }
	}
	D.combine(a, b, f, "Sub")
}

func (D *Data) combine(a, b *Data, f func(x, y float64) float64, name string) {
	if !floats.Equal(a.dividers, b.dividers) {
		panic("atomchain/histo.Data." + name + ": Dividers must match")
	}
	D.dividers = a.CopyDividers(D.dividers)
	if len(D.histo) != len(a.histo) {
		D.histo = make([]float64, len(a.histo))
	}
	for i := range a.histo {
		D.histo[i] = f(a.histo[i], b.histo[i])
	}
	D.normalized = a.normalized && b.normalized
}

// Sum returns the sum of all bins.
func (D *Data) Sum() float64 {
	return floats.Sum(D.histo)
}

func getCopySlice(N int, dest ...[]float64) []float64 {
	if len(dest) > 0 && len(dest[0]) >= N {
		return dest[0][:N]
	}
	return make([]float64, N)
}

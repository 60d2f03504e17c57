/*
 * bands.go, part of atomchain.
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
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

package chemplot

import (
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// BandSegment is a continuous piece of a band structure. Distances contains the
// position of each point along the path, and Frequencies, for each point,
// the frequency of each branch.
type BandSegment struct {
	Distances   []float64
	Frequencies [][]float64
}

// Bands is a band structure to be plotted. Ticks contains the positions of the
// high-symmetry points along the path, and Labels their names.
type Bands struct {
	Segments []BandSegment
	Ticks    []float64
	Labels   []string
	Unit     string //for the Y axis, THz if empty.
}

func (B *Bands) limits() (xmin, xmax, ymin, ymax float64, branches int) {
	xmin, ymin = math.Inf(1), math.Inf(1)
	xmax, ymax = math.Inf(-1), math.Inf(-1)
	for _, s := range B.Segments {
		for i, d := range s.Distances {
			xmin = math.Min(xmin, d)
			xmax = math.Max(xmax, d)
			for _, f := range s.Frequencies[i] {
				ymin = math.Min(ymin, f)
				ymax = math.Max(ymax, f)
			}
			if len(s.Frequencies[i]) > branches {
				branches = len(s.Frequencies[i])
			}
		}
	}
	return
}

// BandPlot draws the band structure B to filename, with the given title.
// The format is taken from the file extension (.png is used if it has none).
// It returns the name of the written file.
func BandPlot(B *Bands, title, filename string) (string, error) {
	if B == nil || len(B.Segments) == 0 {
		return "", Error{"No bands to plot", filename, []string{"BandPlot"}}
	}
	for _, s := range B.Segments {
		if len(s.Distances) != len(s.Frequencies) {
			return "", Error{"Distances and frequencies don't match", filename, []string{"BandPlot"}}
		}
	}
	xmin, xmax, ymin, ymax, branches := B.limits()
	ymin = math.Min(ymin, 0)
	pad := 0.05 * (ymax - ymin)
	if pad == 0 {
		pad = 1
	}
	ymin -= pad
	ymax += pad
	unit := B.Unit
	if unit == "" {
		unit = "THz"
	}
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = title
	p.Y.Label.Text = "Frequency (" + unit + ")"
	p.X.Min, p.X.Max = xmin, xmax
	p.Y.Min, p.Y.Max = ymin, ymax
	ticks := make([]plot.Tick, 0, len(B.Ticks))
	for i, v := range B.Ticks {
		label := ""
		if i < len(B.Labels) {
			label = Label(B.Labels[i])
		}
		ticks = append(ticks, plot.Tick{Value: v, Label: label})
		vl, err := plotter.NewLine(plotter.XYs{{X: v, Y: ymin}, {X: v, Y: ymax}})
		if err != nil {
			return "", Error{err.Error(), filename, []string{"plotter.NewLine", "BandPlot"}}
		}
		vl.LineStyle.Color = color.Gray{Y: 128}
		vl.LineStyle.Width = vg.Points(0.5)
		p.Add(vl)
	}
	if len(ticks) > 0 {
		p.X.Tick.Marker = plot.ConstantTicks(ticks)
	}
	zero, err := plotter.NewLine(plotter.XYs{{X: xmin, Y: 0}, {X: xmax, Y: 0}})
	if err != nil {
		return "", Error{err.Error(), filename, []string{"plotter.NewLine", "BandPlot"}}
	}
	zero.LineStyle.Dashes = []vg.Length{vg.Points(3), vg.Points(3)}
	zero.LineStyle.Color = color.Gray{Y: 96}
	p.Add(zero)
	for _, s := range B.Segments {
		for b := 0; b < branches; b++ {
			pts := make(plotter.XYs, 0, len(s.Distances))
			for i, d := range s.Distances {
				if b < len(s.Frequencies[i]) {
					pts = append(pts, plotter.XY{X: d, Y: s.Frequencies[i][b]})
				}
			}
			if len(pts) < 2 {
				continue
			}
			l, err := plotter.NewLine(pts)
			if err != nil {
				return "", Error{err.Error(), filename, []string{"plotter.NewLine", "BandPlot"}}
			}
			l.LineStyle.Color = branchColor(b, branches)
			l.LineStyle.Width = vg.Points(1)
			p.Add(l)
		}
	}
	return save(p, filename)
}

// DOSPlot draws a density of states, given as the frequencies at the center of each
// bin and the corresponding densities, to filename.
func DOSPlot(freqs, dos []float64, title, filename string) (string, error) {
	if len(freqs) != len(dos) || len(freqs) < 2 {
		return "", Error{"Ill-formed density of states", filename, []string{"DOSPlot"}}
	}
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = title
	p.X.Label.Text = "Frequency (THz)"
	p.Y.Label.Text = "DOS"
	p.Add(plotter.NewGrid())
	pts := make(plotter.XYs, len(freqs))
	for i := range freqs {
		pts[i].X = freqs[i]
		pts[i].Y = dos[i]
	}
	l, err := plotter.NewLine(pts)
	if err != nil {
		return "", Error{err.Error(), filename, []string{"plotter.NewLine", "DOSPlot"}}
	}
	l.LineStyle.Color = branchColor(0, 1)
	l.FillColor = color.RGBA{R: 230, G: 120, B: 120, A: 100}
	p.Add(l)
	return save(p, filename)
}

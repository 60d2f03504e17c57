/*
 * plot_test.go, part of atomchain.
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

package chemplot

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func chainBands() *Bands {
	//a 1D monoatomic chain, twice
	n := 21
	seg := BandSegment{Distances: make([]float64, n), Frequencies: make([][]float64, n)}
	for i := 0; i < n; i++ {
		q := float64(i) / float64(n-1)
		seg.Distances[i] = q
		w := 2 * math.Abs(math.Sin(math.Pi*q/2))
		seg.Frequencies[i] = []float64{w, 2 * w}
	}
	return &Bands{Segments: []BandSegment{seg}, Ticks: []float64{0, 1}, Labels: []string{"G", "X"}}
}

func TestBandPlot(Te *testing.T) {
	dir := Te.TempDir()
	for _, name := range []string{"phonon.pdf", "phonon.png", "phonon.svg", "phonon"} {
		out, err := BandPlot(chainBands(), "Test bands", filepath.Join(dir, name))
		if err != nil {
			Te.Fatal(err)
		}
		if st, err := os.Stat(out); err != nil || st.Size() == 0 {
			Te.Errorf("Plot %s not written: %v", out, err)
		}
	}
	if _, err := BandPlot(chainBands(), "", filepath.Join(dir, "phonon.xyz")); err == nil {
		Te.Error("An unknown extension should give an error")
	}
	if _, err := BandPlot(&Bands{}, "", filepath.Join(dir, "empty.png")); err == nil {
		Te.Error("Empty bands should give an error")
	}
}

func TestDOSPlot(Te *testing.T) {
	name := filepath.Join(Te.TempDir(), "dos.png")
	if _, err := DOSPlot([]float64{0, 1, 2, 3}, []float64{0, 0.5, 1, 0.2}, "DOS", name); err != nil {
		Te.Fatal(err)
	}
	if _, err := os.Stat(name); err != nil {
		Te.Error(err)
	}
}

func TestLabels(Te *testing.T) {
	for _, v := range [][2]string{{"G", "Γ"}, {"\\Gamma", "Γ"}, {"X", "X"}, {"M", "M"}} {
		if l := Label(v[0]); l != v[1] {
			Te.Errorf("Label(%q)=%q, expected %q", v[0], l, v[1])
		}
	}
	c := branchColor(0, 3)
	if c.A != 255 {
		Te.Errorf("Wrong color %v", c)
	}
}

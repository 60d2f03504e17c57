/*
 * histo_test.go, part of atomchain.
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
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHisto(Te *testing.T) {
	rawdata := []float64{1, 6, 3, 2, 4, 5, 7, 6, 3.5, 3, 5, 1, 1, 0, 0, 5, 8, 1, 2, 3, 44, 3, 7, 3, 1, 3, 5, 32, 1}
	D := NewData([]float64{0, 1, 2, 3, 4, 8}, rawdata, 3)
	fmt.Println(D.String())
	//8, 32 and 44 are out of range
	if D.Total() != len(rawdata)-3 {
		Te.Errorf("Wrong total %d", D.Total())
	}
	if diff := cmp.Diff([]float64{2, 6, 2, 7, 9}, D.View()); diff != "" {
		Te.Errorf("Wrong histogram (-want +got):\n%s", diff)
	}
	if rawdata[0] != 1 || rawdata[1] != 6 {
		Te.Error("ReHisto modified its input")
	}
	D2 := NewData([]float64{0, 1, 2, 3, 4, 8}, nil)
	D2.AddData(rawdata...)
	if diff := cmp.Diff(D.View(), D2.View()); diff != "" {
		Te.Errorf("AddData and NewData disagree (-NewData +AddData):\n%s", diff)
	}
	D.Normalize()
	D.Normalize()
	if math.Abs(D.Sum()-1) > 1e-12 {
		Te.Errorf("Normalized histogram sums %f", D.Sum())
	}
	D.AddData(0.5)
	D.UnNormalize()
	if math.Abs(D.View()[0]-3) > 1e-12 {
		Te.Errorf("AddData on a normalized histogram: %v", D.View())
	}
}

func TestDensity(Te *testing.T) {
	D := NewData(Dividers(0, 4, 2), []float64{0.5, 1, 1.5, 3})
	if diff := cmp.Diff([]float64{1, 3}, D.Centers()); diff != "" {
		Te.Errorf("Wrong centers (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{1.5, 0.5}, D.Density(1)); diff != "" {
		Te.Errorf("Wrong density (-want +got):\n%s", diff)
	}
	S := NewData(Dividers(0, 4, 2), nil)
	S.Add(D, D)
	if S.View()[0] != 6 || S.Total() != 8 {
		Te.Errorf("Wrong sum of histograms: %v", S.View())
	}
}

func TestReHisto(Te *testing.T) {
	D := NewData(Dividers(0, 1, 4), []float64{0.1, 0.2, 0.6})
	if diff := cmp.Diff([]float64{2, 0, 1, 0}, D.View()); diff != "" {
		Te.Errorf("Wrong histogram (-want +got):\n%s", diff)
	}
	D.ReHisto([]float64{0.9, 1.5})
	if diff := cmp.Diff([]float64{0, 0, 0, 1}, D.View()); diff != "" {
		Te.Errorf("The old counts were kept (-want +got):\n%s", diff)
	}
	if D.Total() != 1 {
		Te.Errorf("Wrong total %d", D.Total())
	}
}

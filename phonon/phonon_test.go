/*
 * phonon_test.go, part of atomchain.
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

package phonon

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/rmera/atomchain/calc"
	"github.com/rmera/atomchain/chem"
	v3 "github.com/rmera/atomchain/v3"
	"gopkg.in/yaml.v3"
)

// a simple cubic crystal with Morse springs between nearest neighbors only.
var springs = calc.MorseParams{D: 0.5, Alpha: 1.5, R0: 2.5, Cutoff: 3.0}

func simpleCubic(Te *testing.T) *chem.Structure {
	top, err := chem.TopologyFromSymbols([]string{"Ar"})
	if err != nil {
		Te.Fatal(err)
	}
	cell, _ := v3.NewMatrix([]float64{2.5, 0, 0, 0, 2.5, 0, 0, 0, 2.5})
	s, err := chem.NewStructure(top, v3.Zeros(1), cell, [3]bool{true, true, true})
	if err != nil {
		Te.Fatal(err)
	}
	return s
}

// longitudinal returns the frequency of the longitudinal mode of the simple cubic
// crystal at the reduced coordinate q along an axis.
func longitudinal(q, mass float64) float64 {
	k := 2 * springs.D * springs.Alpha * springs.Alpha
	return math.Sqrt(2*k/mass*(1-math.Cos(2*math.Pi*q))) * chem.VaspToTHz
}

func testOptions() *Options {
	o := DefaultOptions()
	o.Dir = ""
	o.Distance = 0.01
	return o
}

type counter struct {
	calc.Calculator
	n atomic.Int64
}

func (C *counter) Calculate(ctx context.Context, s *chem.Structure) (*calc.Results, error) {
	C.n.Add(1)
	return C.Calculator.Calculate(ctx, s)
}

func checkFreqs(Te *testing.T, P *Phonon, q [3]float64, expected []float64, tol float64) {
	Te.Helper()
	f, err := P.Frequencies(q)
	if err != nil {
		Te.Fatal(err)
	}
	if len(f) != len(expected) {
		Te.Fatalf("%d frequencies at %v, expected %d", len(f), q, len(expected))
	}
	for i, v := range expected {
		if math.Abs(f[i]-v) > tol {
			Te.Errorf("Frequency %d at %v is %.4f, expected %.4f (all: %v)", i, q, f[i], v, f)
		}
	}
}

func TestSimpleCubic(Te *testing.T) {
	s := simpleCubic(Te)
	dir := Te.TempDir()
	opts := testOptions()
	opts.Dir = dir
	P, err := Calculate(context.Background(), s, calc.NewMorse(springs), opts)
	if err != nil {
		Te.Fatal(err)
	}
	//inversion gives the negative displacements
	if len(P.Computed()) != 3 || len(P.Displacements) != 6 {
		Te.Errorf("%d computed displacements out of %d, expected 3 out of 6", len(P.Computed()), len(P.Displacements))
	}
	if P.Supercell.Len() != 8 {
		Te.Errorf("Wrong supercell with %d atoms", P.Supercell.Len())
	}
	m := P.masses[0]
	wx := longitudinal(0.5, m)
	checkFreqs(Te, P, [3]float64{}, []float64{0, 0, 0}, 0.05)
	checkFreqs(Te, P, [3]float64{0.5, 0, 0}, []float64{0, 0, wx}, 0.05)
	checkFreqs(Te, P, [3]float64{0, 0.25, 0}, []float64{0, 0, longitudinal(0.25, m)}, 0.05)
	checkFreqs(Te, P, [3]float64{0.5, 0.5, 0.5}, []float64{wx, wx, wx}, 0.05)
	for _, name := range []string{ForceSetsName, "disp-000/POSCAR", "disp-003/forces.dat"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			Te.Errorf("File %s not written: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "disp-004")); err == nil {
		Te.Error("Displacements obtained by symmetry should not be computed")
	}
}

func TestPlusMinus(Te *testing.T) {
	s := simpleCubic(Te)
	m := 0.0
	for _, v := range []struct {
		pm       string
		sym      bool
		computed int
	}{
		{PlusMinusTrue, false, 6},
		{PlusMinusFalse, false, 3},
		{PlusMinusAuto, false, 6},
		{PlusMinusTrue, true, 6},
	} {
		opts := testOptions()
		opts.PlusMinus = v.pm
		opts.Symmetry = v.sym
		P, err := Calculate(context.Background(), s, calc.NewMorse(springs), opts)
		if err != nil {
			Te.Fatal(err)
		}
		if n := len(P.Computed()); n != v.computed {
			Te.Errorf("PlusMinus %s, symmetry %v: %d computed displacements, expected %d", v.pm, v.sym, n, v.computed)
		}
		m = P.masses[0]
		wx := longitudinal(0.5, m)
		checkFreqs(Te, P, [3]float64{0.5, 0.5, 0.5}, []float64{wx, wx, wx}, 0.05)
	}
	opts := testOptions()
	opts.PlusMinus = "sometimes"
	if _, err := Calculate(context.Background(), s, calc.NewMorse(springs), opts); err == nil {
		Te.Error("An invalid PlusMinus should give an error")
	}
}

func TestRocksalt(Te *testing.T) {
	s, err := chem.ReadStructure("../chem/testdata/NaCl.vasp")
	if err != nil {
		Te.Fatal(err)
	}
	p := calc.MorseParams{D: 0.5, Alpha: 1.5, R0: 2.82, Cutoff: 3.5}
	opts := testOptions()
	opts.Parallel = true
	opts.MaxProcs = 4
	P, err := Calculate(context.Background(), s, calc.NewMorse(p), opts)
	if err != nil {
		Te.Fatal(err)
	}
	if P.Supercell.Len() != 16 || len(P.Computed()) != 6 {
		Te.Errorf("%d supercell atoms and %d computed displacements, expected 16 and 6", P.Supercell.Len(), len(P.Computed()))
	}
	m, _ := s.Masses()
	k := 2 * p.D * p.Alpha * p.Alpha
	wo := math.Sqrt(2*k*(1/m[0]+1/m[1])) * chem.VaspToTHz
	checkFreqs(Te, P, [3]float64{}, []float64{0, 0, 0, wo, wo, wo}, 0.05)
	f, err := P.Frequencies([3]float64{0.5, 0, 0.5})
	if err != nil {
		Te.Fatal(err)
	}
	for _, v := range f {
		if v < -0.05 {
			Te.Errorf("Imaginary frequencies in a stable crystal: %v", f)
		}
	}
}

func TestForceSetsRestart(Te *testing.T) {
	s := simpleCubic(Te)
	dir := Te.TempDir()
	c := &counter{Calculator: calc.NewMorse(springs)}
	opts := testOptions()
	opts.Dir = dir
	P, err := Calculate(context.Background(), s, c, opts)
	if err != nil {
		Te.Fatal(err)
	}
	if c.n.Load() != 4 {
		Te.Errorf("%d force evaluations, expected 4", c.n.Load())
	}
	ref, _ := P.Frequencies([3]float64{0.5, 0.25, 0})
	//restart
	opts.Restart = true
	P2, err := Calculate(context.Background(), s, c, opts)
	if err != nil {
		Te.Fatal(err)
	}
	if c.n.Load() != 4 {
		Te.Errorf("A restart should reuse the stored forces, %d force evaluations", c.n.Load())
	}
	checkFreqs(Te, P2, [3]float64{0.5, 0.25, 0}, ref, 1e-8)
	//from the FORCE_SETS file, no calculator needed.
	opts2 := testOptions()
	opts2.ForceSetsFile = filepath.Join(dir, ForceSetsName)
	P3, err := Calculate(context.Background(), s, nil, opts2)
	if err != nil {
		Te.Fatal(err)
	}
	if len(P3.Displacements) != len(P.Displacements) {
		Te.Errorf("%d displacements read, expected %d", len(P3.Displacements), len(P.Displacements))
	}
	checkFreqs(Te, P3, [3]float64{0.5, 0.25, 0}, ref, 1e-6)
	natoms, disps, err := ReadForceSets(opts2.ForceSetsFile)
	if err != nil {
		Te.Fatal(err)
	}
	if natoms != 8 || len(disps) != 3 || disps[0].Vector[0] != 0.01 {
		Te.Errorf("Wrong FORCE_SETS: %d atoms, %d displacements", natoms, len(disps))
	}
	//a FORCE_SETS that doesn't exist yet is written.
	opts3 := testOptions()
	opts3.ForceSetsFile = filepath.Join(Te.TempDir(), "FORCE_SETS_new")
	if _, err := Calculate(context.Background(), s, calc.NewMorse(springs), opts3); err != nil {
		Te.Fatal(err)
	}
	if _, err := os.Stat(opts3.ForceSetsFile); err != nil {
		Te.Error(err)
	}
	if _, err := Calculate(context.Background(), s, nil, testOptions()); err == nil {
		Te.Error("Calculate without forces nor a calculator should fail")
	}
}

func TestBands(Te *testing.T) {
	s := simpleCubic(Te)
	P, err := Calculate(context.Background(), s, calc.NewMorse(springs), testOptions())
	if err != nil {
		Te.Fatal(err)
	}
	path, err := NewPath(ParseKnames("GXMGR"), nil)
	if err != nil {
		Te.Fatal(err)
	}
	B, err := P.BandStructure(path, 11)
	if err != nil {
		Te.Fatal(err)
	}
	if len(B.Segments) != 4 || len(B.Segments[0].Points) != 11 {
		Te.Fatalf("Wrong band structure: %d segments", len(B.Segments))
	}
	//|X-G| is 0.5/a
	if d := B.Segments[0].Points[10].Distance; math.Abs(d-0.2) > 1e-10 {
		Te.Errorf("Wrong distance to X: %f", d)
	}
	prev := -1.0
	for _, seg := range B.Segments {
		for _, p := range seg.Points {
			if p.Distance < prev {
				Te.Errorf("Distances along the path must not decrease")
			}
			prev = p.Distance
		}
	}
	pl := B.ToPlot()
	if len(pl.Ticks) != 5 || pl.Labels[4] != "R" || len(pl.Labels) != 5 {
		Te.Errorf("Wrong ticks %v %v", pl.Ticks, pl.Labels)
	}
	dir := Te.TempDir()
	name := filepath.Join(dir, BandYAMLName)
	if err := P.WriteBandYAML(name, B); err != nil {
		Te.Fatal(err)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		Te.Fatal(err)
	}
	var doc struct {
		Nqpoint int `yaml:"nqpoint"`
		Npath   int `yaml:"npath"`
		Phonon  []struct {
			Label string `yaml:"label"`
			Band  []struct {
				Frequency float64 `yaml:"frequency"`
			} `yaml:"band"`
		} `yaml:"phonon"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		Te.Fatal(err)
	}
	if doc.Nqpoint != 44 || doc.Npath != 4 || doc.Phonon[10].Label != "X" || len(doc.Phonon[10].Band) != 3 {
		Te.Errorf("Wrong band.yaml: %d points, %d paths", doc.Nqpoint, doc.Npath)
	}
	if _, err := B.Plot("test", filepath.Join(dir, "phonon.png")); err != nil {
		Te.Error(err)
	}
}

func TestPaths(Te *testing.T) {
	if _, err := NewPath([]string{"G", "Q"}, nil); err == nil {
		Te.Error("An unknown point without coordinates should give an error")
	}
	if _, err := NewPath([]string{"G"}, [][3]float64{{0, 0, 0}, {0.5, 0, 0}}); err == nil {
		Te.Error("Names and points must match")
	}
	p, err := NewPath(nil, [][3]float64{{0, 0, 0}, {0.5, 0, 0}})
	if err != nil || len(p.Labels) != 2 {
		Te.Errorf("Wrong path without names: %v %v", p, err)
	}
	if n := ParseKnames("G, X, M"); len(n) != 3 || n[1] != "X" {
		Te.Errorf("Wrong names %v", n)
	}
	if d := DefaultPath(); len(d.Points) != 5 || d.Points[4] != [3]float64{0.5, 0.5, 0.5} {
		Te.Errorf("Wrong default path %v", d)
	}
}

func TestDOS(Te *testing.T) {
	s := simpleCubic(Te)
	P, err := Calculate(context.Background(), s, calc.NewMorse(springs), testOptions())
	if err != nil {
		Te.Fatal(err)
	}
	freqs, dos, err := P.DOS([3]int{4, 4, 4}, 20)
	if err != nil {
		Te.Fatal(err)
	}
	if len(freqs) != 20 || len(dos) != 20 {
		Te.Fatalf("Wrong DOS lengths %d %d", len(freqs), len(dos))
	}
	width := freqs[1] - freqs[0]
	sum := 0.0
	for _, v := range dos {
		sum += v * width
	}
	if math.Abs(sum-3) > 1e-6 {
		Te.Errorf("The DOS integrates to %f, expected 3", sum)
	}
}

func TestNotPeriodic(Te *testing.T) {
	s, err := chem.ReadStructure("../chem/testdata/water.xyz")
	if err != nil {
		Te.Fatal(err)
	}
	if _, err := Calculate(context.Background(), s, calc.NewMorse(springs), testOptions()); err == nil {
		Te.Error("Phonons of a molecule should give an error")
	}
}

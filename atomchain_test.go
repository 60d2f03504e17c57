/*
 * atomchain_test.go, part of atomchain.
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

package atomchain

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rmera/atomchain/calc"
	"github.com/rmera/atomchain/chem"
	"github.com/rmera/atomchain/phonon"
	"github.com/rmera/atomchain/traj/stf"
	v3 "github.com/rmera/atomchain/v3"
	"gonum.org/v1/gonum/mat"
)

var argon = calc.LJParams{Epsilon: 0.0104, Sigma: 3.40, Cutoff: 8.0}

func testRelaxOptions(dir string) *RelaxOptions {
	o := DefaultRelaxOptions()
	o.Calc = calc.NewLennardJones(argon)
	o.TrajFile = filepath.Join(dir, "relax.stz")
	o.OutputFile = filepath.Join(dir, DefaultOutputFile)
	o.MaxSteps = 5000
	return o
}

func TestRelaxWithML(Te *testing.T) {
	dir := Te.TempDir()
	S, err := chem.ReadStructure("chem/testdata/Ar_fcc.extxyz")
	if err != nil {
		Te.Fatal(err)
	}
	expanded := S.Cell.Clone()
	expanded.Scale(1.03, expanded)
	S.SetCell(expanded, true)
	a0 := S.Cell.At(0, 0)
	opts := testRelaxOptions(dir)
	opts.CellFactor = 4
	opts.Fmax = 1e-4
	R, err := RelaxWithML(context.Background(), S, opts)
	if err != nil {
		Te.Fatal(err)
	}
	if S.Cell.At(0, 0) != a0 {
		Te.Error("The original structure was modified")
	}
	lj := calc.NewLennardJones(argon)
	e0, _ := lj.Calculate(context.Background(), S)
	e1, err := lj.Calculate(context.Background(), R)
	if err != nil {
		Te.Fatal(err)
	}
	if e1.Energy >= e0.Energy {
		Te.Errorf("The energy didn't decrease: %f -> %f", e0.Energy, e1.Energy)
	}
	for _, v := range e1.Stress {
		if math.Abs(v) > 1e-4 {
			Te.Errorf("Residual stress too large: %v", e1.Stress)
		}
	}
	frames, err := stf.ReadStructures(opts.TrajFile)
	if err != nil {
		Te.Fatal(err)
	}
	if len(frames) == 0 {
		Te.Fatal("No frames in the trajectory")
	}
	last := frames[len(frames)-1]
	if math.Abs(last.Cell.At(0, 0)-R.Cell.At(0, 0)) > 1e-3 {
		Te.Errorf("The last frame has a=%f, the relaxed structure %f", last.Cell.At(0, 0), R.Cell.At(0, 0))
	}
	out, err := chem.ReadStructure(opts.OutputFile)
	if err != nil {
		Te.Fatal(err)
	}
	if out.Len() != R.Len() || math.Abs(out.Cell.At(1, 1)-R.Cell.At(1, 1)) > 1e-5 {
		Te.Errorf("Wrong output structure %v", out.Cell)
	}
	Te.Logf("Relaxed LJ argon from a=%.4f to a=%.4f A", a0, R.Cell.At(0, 0))
}

func TestRelaxRattled(Te *testing.T) {
	dir := Te.TempDir()
	S, err := chem.ReadStructure("chem/testdata/Ar_fcc.extxyz")
	if err != nil {
		Te.Fatal(err)
	}
	orig := S.Coords.Clone()
	opts := testRelaxOptions(dir)
	opts.RelaxCell = false
	opts.Sym = false
	opts.Rattle = 0.05
	opts.TrajFile = ""
	opts.OutputFile = ""
	R, err := RelaxWithML(context.Background(), S, opts)
	if err != nil {
		Te.Fatal(err)
	}
	diff := v3.Zeros(S.Len())
	diff.Sub(S.Coords, orig)
	if diff.MaxVecNorm() != 0 {
		Te.Error("The original structure was modified")
	}
	res, err := calc.NewLennardJones(argon).Calculate(context.Background(), R)
	if err != nil {
		Te.Fatal(err)
	}
	if f := res.Forces.MaxVecNorm(); f > opts.Fmax {
		Te.Errorf("Largest force %f above %f", f, opts.Fmax)
	}
	if !mat.Equal(R.Cell, S.Cell) {
		Te.Error("The cell changed in a fixed-cell relaxation")
	}
	if _, err := os.Stat(filepath.Join(dir, DefaultOutputFile)); err == nil {
		Te.Error("An output file was written when none was requested")
	}
}

func TestRelaxUnknownModel(Te *testing.T) {
	S, err := chem.ReadStructure("chem/testdata/Ar_fcc.extxyz")
	if err != nil {
		Te.Fatal(err)
	}
	opts := DefaultRelaxOptions()
	opts.Model = "not-a-model"
	_, err = RelaxWithML(context.Background(), S, opts)
	if !errors.Is(err, calc.ErrUnknownModel) {
		Te.Errorf("Expected ErrUnknownModel, got %v", err)
	}
	if _, err := PhononWithML(context.Background(), S, &PhononOptions{Model: "nope"}); !errors.Is(err, calc.ErrUnknownModel) {
		Te.Errorf("Expected ErrUnknownModel, got %v", err)
	}
}

// simple cubic crystal with springs between nearest neighbors.
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

func TestPhononWithML(Te *testing.T) {
	dir := Te.TempDir()
	S := simpleCubic(Te)
	opts := DefaultPhononOptions()
	opts.Calc = calc.NewMorse(calc.MorseParams{D: 0.5, Alpha: 1.5, R0: 2.5, Cutoff: 3.0})
	opts.Relax = true
	ro := DefaultRelaxOptions()
	ro.TrajFile = filepath.Join(dir, "relax.traj")
	ro.OutputFile = ""
	ro.MaxSteps = 1000
	opts.RelaxOpts = ro
	opts.Phonon.Dir = dir
	opts.Phonon.Distance = 0.01
	opts.Knames = phonon.ParseKnames("GXMGR")
	opts.Npoints = 20
	opts.Figname = filepath.Join(dir, "phonon.png")
	P, err := PhononWithML(context.Background(), S, opts)
	if err != nil {
		Te.Fatal(err)
	}
	for _, name := range []string{"phonon.png", phonon.BandYAMLName, phonon.ForceSetsName, "relax.traj"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			Te.Errorf("File %s not written: %v", name, err)
		}
	}
	f, err := P.Frequencies([3]float64{})
	if err != nil {
		Te.Fatal(err)
	}
	for _, v := range f {
		if math.Abs(v) > 0.05 {
			Te.Errorf("Non-zero acoustic frequency at Gamma: %v", f)
		}
	}
	f, err = P.Frequencies([3]float64{0.5, 0, 0})
	if err != nil {
		Te.Fatal(err)
	}
	if f[2] <= 1 {
		Te.Errorf("Wrong longitudinal frequency at X: %v", f)
	}
}

func TestPhononWrongPath(Te *testing.T) {
	S := simpleCubic(Te)
	opts := DefaultPhononOptions()
	opts.Calc = calc.NewMorse(calc.MorseParams{D: 0.5, Alpha: 1.5, R0: 2.5, Cutoff: 3.0})
	opts.Phonon.Dir = ""
	opts.Knames = []string{"G", "Q"}
	if _, err := PhononWithML(context.Background(), S, opts); err == nil {
		Te.Error("An unknown special point should give an error")
	}
}

func TestOptionsUnchanged(Te *testing.T) {
	Te.Chdir(Te.TempDir()) //the default phonon directory is the current one
	S := simpleCubic(Te)
	ro := &RelaxOptions{Calc: calc.NewMorse(calc.MorseParams{D: 0.5, Alpha: 1.5, R0: 2.5, Cutoff: 3.0}), MaxSteps: 100}
	if _, err := RelaxWithML(context.Background(), S, ro); err != nil {
		Te.Fatal(err)
	}
	if ro.Fmax != 0 || ro.CellFactor != 0 || ro.Symprec != 0 {
		Te.Errorf("RelaxWithML changed its options: %+v", ro)
	}
	po := &PhononOptions{Calc: ro.Calc}
	if _, err := PhononWithML(context.Background(), S, po); err != nil {
		Te.Fatal(err)
	}
	if po.Phonon != nil || po.Npoints != 0 {
		Te.Errorf("PhononWithML changed its options: %+v", po)
	}
}

func TestCachedCalculator(Te *testing.T) {
	lj := calc.NewLennardJones(argon)
	c, err := resolveCalc(lj, "", "", nil, 0)
	if err != nil {
		Te.Fatal(err)
	}
	if c != calc.Calculator(lj) {
		Te.Error("Without a cache lifetime the calculator should be used as given")
	}
	c, err = resolveCalc(lj, "", "", nil, time.Minute)
	if err != nil {
		Te.Fatal(err)
	}
	m, ok := c.(*calc.Memoized)
	if !ok {
		Te.Fatalf("Expected a cached calculator, got %T", c)
	}
	again, _ := resolveCalc(m, "", "", nil, time.Minute)
	if again != calc.Calculator(m) {
		Te.Error("A cached calculator was wrapped twice")
	}
	S, err := chem.ReadStructure("chem/testdata/Ar_fcc.extxyz")
	if err != nil {
		Te.Fatal(err)
	}
	opts := testRelaxOptions(Te.TempDir())
	opts.Calc = m
	opts.RelaxCell = false
	opts.Sym = false
	opts.Rattle = 0.02
	if _, err := RelaxWithML(context.Background(), S, opts); err != nil {
		Te.Fatal(err)
	}
	if m.Len() == 0 {
		Te.Error("The relaxation didn't go through the cache")
	}
}

func TestPhononDOS(Te *testing.T) {
	dir := Te.TempDir()
	S := simpleCubic(Te)
	opts := DefaultPhononOptions()
	opts.Calc = calc.NewMorse(calc.MorseParams{D: 0.5, Alpha: 1.5, R0: 2.5, Cutoff: 3.0})
	opts.CacheTTL = time.Minute
	opts.Phonon.Dir = ""
	opts.Plot = false
	opts.DOSFig = filepath.Join(dir, "dos.svg")
	opts.DOSMesh = [3]int{4, 4, 4}
	opts.DOSBins = 20
	if _, err := PhononWithML(context.Background(), S, opts); err != nil {
		Te.Fatal(err)
	}
	if _, err := os.Stat(opts.DOSFig); err != nil {
		Te.Errorf("The density of states was not plotted: %v", err)
	}
	opts.DOSMesh = [3]int{4, 0, 4}
	if _, err := PhononWithML(context.Background(), S, opts); err == nil {
		Te.Error("A mesh with an empty direction should give an error")
	}
}

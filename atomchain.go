/*
 * atomchain.go, part of atomchain.
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

package atomchain

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rmera/atomchain/calc"
	"github.com/rmera/atomchain/chem"
	"github.com/rmera/atomchain/chemplot"
	"github.com/rmera/atomchain/optimize"
	"github.com/rmera/atomchain/phonon"
	"github.com/rmera/atomchain/symmetry"
	"github.com/rmera/atomchain/traj/stf"
	"github.com/rs/zerolog"
)

const (
	DefaultTrajFile   = "relax.traj"
	DefaultOutputFile = "POSCAR_relax.vasp"
	DefaultFmax       = 0.001
	DefaultCellFactor = 1000
	DefaultSymprec    = 0.01
	DefaultMaxSteps   = 100000
	DefaultFigname    = "phonon.pdf"
	DefaultNpoints    = 100
	DefaultDOSBins    = 100
)

// DefaultDOSMesh is the q-point mesh used for the density of states.
var DefaultDOSMesh = [3]int{8, 8, 8}

// RelaxOptions are the settings of RelaxWithML.
type RelaxOptions struct {
	Model       string          //model type for calc.New. Ignored if Calc is set.
	ModelPath   string          //path to the model files, for the models that need one.
	Calc        calc.Calculator //if not nil, used instead of Model.
	CalcOptions []calc.Option
	CacheTTL    time.Duration //if positive, results are reused for identical structures for this long.
	RelaxCell   bool
	Sym         bool
	Symprec     float64
	Fmax        float64 //eV/A
	CellFactor  float64
	UCF         optimize.UCFOptions //CellFactor here is ignored in favor of the field above.
	Rattle      float64             //standard deviation of the initial rattle, in A. 0 means no rattle.
	Seed        int64
	TrajFile    string //if empty, no trajectory is written.
	OutputFile  string //if empty, the relaxed structure is not written.
	MaxSteps    int    //per optimization stage
	Logger      zerolog.Logger
}

// DefaultRelaxOptions returns the settings used by RelaxWithML when none are given.
func DefaultRelaxOptions() *RelaxOptions {
	return &RelaxOptions{
		Model:      calc.DefaultModel,
		RelaxCell:  true,
		Sym:        true,
		Symprec:    DefaultSymprec,
		Fmax:       DefaultFmax,
		CellFactor: DefaultCellFactor,
		Seed:       chem.DefaultRattleSeed,
		TrajFile:   DefaultTrajFile,
		OutputFile: DefaultOutputFile,
		MaxSteps:   DefaultMaxSteps,
		Logger:     zerolog.Nop(),
	}
}

func resolveCalc(c calc.Calculator, model, modelPath string, opts []calc.Option, ttl time.Duration) (calc.Calculator, error) {
	if c == nil {
		var err error
		c, err = calc.New(model, modelPath, opts...)
		if err != nil {
			return nil, err
		}
	}
	if ttl > 0 {
		if _, ok := c.(*calc.Memoized); !ok {
			c = calc.Memo(c, ttl)
		}
	}
	return c, nil
}

// RelaxWithML relaxes the atomic positions and, if opts.RelaxCell is set, the cell of a copy
// of s with the FIRE algorithm, and returns the relaxed copy. s is not modified.
// With a cell relaxation, a first stage is converged to 10 times opts.Fmax, and a second one,
// recorded in the trajectory, to opts.Fmax. If opts is nil, DefaultRelaxOptions() is used.
func RelaxWithML(ctx context.Context, s *chem.Structure, opts *RelaxOptions) (*chem.Structure, error) {
	if opts == nil {
		opts = DefaultRelaxOptions()
	}
	o := *opts
	opts = &o
	if opts.Fmax <= 0 {
		opts.Fmax = DefaultFmax
	}
	if opts.CellFactor <= 0 {
		opts.CellFactor = DefaultCellFactor
	}
	if opts.Symprec <= 0 {
		opts.Symprec = DefaultSymprec
	}
	log := opts.Logger
	cs := s.Copy()
	if opts.Rattle != 0 {
		cs.Rattle(opts.Rattle, opts.Seed)
	}
	c, err := resolveCalc(opts.Calc, opts.Model, opts.ModelPath, opts.CalcOptions, opts.CacheTTL)
	if err != nil {
		return nil, errDecorate(err, "RelaxWithML")
	}
	var constraint optimize.Constraint
	if opts.Sym {
		fix, err := symmetry.NewFixSymmetry(cs, opts.Symprec, log)
		if err != nil {
			return nil, errDecorate(err, "RelaxWithML")
		}
		log.Info().Int("operations", fix.Dataset().Len()).Msg("symmetry constraint set")
		constraint = fix
	}
	atoms := optimize.NewAtomsTarget(cs, c, constraint)
	var target optimize.Optimizable = atoms
	if opts.RelaxCell {
		ucf := opts.UCF
		ucf.CellFactor = opts.CellFactor
		U, err := optimize.NewUnitCellFilter(atoms, ucf)
		if err != nil {
			return nil, errDecorate(err, "RelaxWithML")
		}
		target = U
		first := optimize.NewFIRE(target, optimize.DefaultFIREParams(), log)
		if _, err := first.Run(ctx, opts.Fmax*10, opts.MaxSteps); err != nil {
			return nil, Error{"Preliminary relaxation failed", "", []string{"RelaxWithML"}, true, err}
		}
		log.Info().Int("steps", first.Steps()).Float64("fmax", opts.Fmax*10).Msg("preliminary relaxation done")
	}
	opt := optimize.NewFIRE(target, optimize.DefaultFIREParams(), log)
	var traj *stf.StfW
	if opts.TrajFile != "" {
		traj, err = stf.NewStructureWriter(opts.TrajFile, cs, map[string]string{"model": c.Name()})
		if err != nil {
			return nil, errDecorate(err, "RelaxWithML")
		}
		defer traj.Close() //no-op after the explicit Close below
		opt.Attach(func() error { return traj.WStructure(cs) }, 1)
	}
	if _, err := opt.Run(ctx, opts.Fmax, opts.MaxSteps); err != nil {
		return nil, Error{"Relaxation failed", opts.TrajFile, []string{"RelaxWithML"}, true, err}
	}
	if traj != nil {
		if err := traj.Close(); err != nil {
			return nil, errDecorate(err, "RelaxWithML")
		}
		log.Debug().Str("file", opts.TrajFile).Int("frames", traj.Frames()).Msg("trajectory written")
	}
	log.Info().Int("steps", opt.Steps()).Float64("fmax", opt.FMax()).Msg("relaxation done")
	if opts.OutputFile != "" {
		if err := chem.WriteStructure(opts.OutputFile, cs); err != nil {
			return nil, errDecorate(err, "RelaxWithML")
		}
	}
	return cs, nil
}

// RelaxWithMatGL is RelaxWithML with the universal M3GNet potential from matgl.
func RelaxWithMatGL(ctx context.Context, s *chem.Structure, opts *RelaxOptions) (*chem.Structure, error) {
	if opts == nil {
		opts = DefaultRelaxOptions()
	}
	o := *opts
	o.Model = calc.MatGL
	o.Calc = nil
	return RelaxWithML(ctx, s, &o)
}

// PhononOptions are the settings of PhononWithML.
type PhononOptions struct {
	Model       string
	ModelPath   string
	Calc        calc.Calculator
	CalcOptions []calc.Option
	CacheTTL    time.Duration
	Relax       bool
	RelaxOpts   *RelaxOptions //used if Relax is set. nil means DefaultRelaxOptions().
	Phonon      *phonon.Options
	Plot        bool
	Knames      []string     //labels of the path vertices. nil means the default path.
	Kvectors    [][3]float64 //reduced coordinates of the path vertices, nil means the special points named in Knames.
	Npoints     int          //q-points per path segment
	Figname     string
	BandYAML    bool   //write band.yaml in the phonon directory
	DOSFig      string //if not empty, the density of states is plotted to this file.
	DOSMesh     [3]int
	DOSBins     int
	Logger      zerolog.Logger
}

// DefaultPhononOptions returns the settings used by PhononWithML when none are given.
func DefaultPhononOptions() *PhononOptions {
	return &PhononOptions{
		Model:    calc.DefaultModel,
		Phonon:   phonon.DefaultOptions(),
		Plot:     true,
		Npoints:  DefaultNpoints,
		Figname:  DefaultFigname,
		BandYAML: true,
		DOSMesh:  DefaultDOSMesh,
		DOSBins:  DefaultDOSBins,
		Logger:   zerolog.Nop(),
	}
}

func plotDOS(P *phonon.Phonon, title string, opts *PhononOptions) error {
	mesh := opts.DOSMesh
	if mesh == ([3]int{}) {
		mesh = DefaultDOSMesh
	}
	freqs, dos, err := P.DOS(mesh, opts.DOSBins)
	if err != nil {
		return err
	}
	written, err := chemplot.DOSPlot(freqs, dos, title, opts.DOSFig)
	if err != nil {
		return err
	}
	opts.Logger.Info().Str("file", written).Ints("mesh", mesh[:]).Msg("density of states plotted")
	return nil
}

// PhononWithML computes the phonons of s with a machine-learning potential, optionally
// relaxing s first, and plots the band structure along the requested path and,
// if opts.DOSFig is set, the density of states.
// s is not modified. If opts is nil, DefaultPhononOptions() is used.
func PhononWithML(ctx context.Context, s *chem.Structure, opts *PhononOptions) (*phonon.Phonon, error) {
	if opts == nil {
		opts = DefaultPhononOptions()
	}
	o := *opts
	opts = &o
	if opts.Npoints < 2 {
		opts.Npoints = DefaultNpoints
	}
	if opts.Phonon == nil {
		opts.Phonon = phonon.DefaultOptions()
		opts.Phonon.Logger = opts.Logger
	}
	log := opts.Logger
	path := phonon.DefaultPath()
	if opts.Knames != nil || opts.Kvectors != nil {
		var err error
		path, err = phonon.NewPath(opts.Knames, opts.Kvectors)
		if err != nil {
			return nil, errDecorate(err, "PhononWithML")
		}
	}
	c, err := resolveCalc(opts.Calc, opts.Model, opts.ModelPath, opts.CalcOptions, opts.CacheTTL)
	if err != nil {
		return nil, errDecorate(err, "PhononWithML")
	}
	if opts.Relax {
		ro := DefaultRelaxOptions()
		if opts.RelaxOpts != nil {
			r := *opts.RelaxOpts
			ro = &r
		}
		ro.Calc = c
		s, err = RelaxWithML(ctx, s, ro)
		if err != nil {
			return nil, errDecorate(err, "PhononWithML")
		}
	}
	P, err := phonon.Calculate(ctx, s, c, opts.Phonon)
	if err != nil {
		return nil, errDecorate(err, "PhononWithML")
	}
	if opts.DOSFig != "" {
		if err := plotDOS(P, s.Formula()+" phonon DOS", opts); err != nil {
			return nil, errDecorate(err, "PhononWithML")
		}
	}
	if !opts.Plot && !opts.BandYAML {
		return P, nil
	}
	B, err := P.BandStructure(path, opts.Npoints)
	if err != nil {
		return nil, errDecorate(err, "PhononWithML")
	}
	if opts.BandYAML && opts.Phonon.Dir != "" {
		name := filepath.Join(opts.Phonon.Dir, phonon.BandYAMLName)
		if err := P.WriteBandYAML(name, B); err != nil {
			return nil, errDecorate(err, "PhononWithML")
		}
	}
	if opts.Plot {
		figname := opts.Figname
		if figname == "" {
			figname = DefaultFigname
		}
		written, err := B.Plot(s.Formula()+" phonons", figname)
		if err != nil {
			return nil, errDecorate(err, "PhononWithML")
		}
		log.Info().Str("file", written).Msg("band structure plotted")
	}
	return P, nil
}

/*
 * options.go, part of atomchain.
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
	"github.com/rmera/atomchain/chem"
	"github.com/rs/zerolog"
)

// Values for Options.PlusMinus.
const (
	PlusMinusAuto  = "auto"
	PlusMinusTrue  = "true"
	PlusMinusFalse = "false"
)

// Default names of the files written by Calculate and the drivers.
const (
	ForceSetsName = "FORCE_SETS"
	BandYAMLName  = "band.yaml"
	DispPrefix    = "disp-"
	forcesName    = "forces.dat"
)

// Options contains the settings for a phonon calculation.
type Options struct {
	Ndim            [3][3]int     //supercell matrix
	PrimitiveMatrix [3][3]float64 //only the identity is supported
	Distance        float64       //displacement length, A
	Factor          float64       //converts sqrt(eV/A^2/amu) to the frequency unit
	//PlusMinus is "true" to displace every atom in both directions, "false" to
	//only do positive displacements, and "auto" to do negative displacements only
	//when no symmetry operation of the site maps the positive displacement onto the
	//negative one.
	PlusMinus     string
	Symmetry      bool
	Symprec       float64
	ForceSetsFile string //if it exists, forces are read from it, otherwise written to it.
	Restart       bool   //reuse forces already stored in the displacement directories
	Parallel      bool
	MaxProcs      int        //concurrent force evaluations when Parallel. 0 means runtime.NumCPU()
	MaskForce     [3]float64 //multiplies each cartesian component of the forces
	Dir           string     //where files are written. If empty, no files are written.
	Logger        zerolog.Logger
}

// DefaultOptions returns the default settings: a 2x2x2 supercell, 0.05 A displacements,
// automatic plus-minus displacements, symmetry with a 1e-3 A tolerance, and files
// written in the current directory.
func DefaultOptions() *Options {
	return &Options{
		Ndim:            chem.Diag(2, 2, 2),
		PrimitiveMatrix: [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		Distance:        0.05,
		Factor:          chem.VaspToTHz,
		PlusMinus:       PlusMinusAuto,
		Symmetry:        true,
		Symprec:         1e-3,
		MaskForce:       [3]float64{1, 1, 1},
		Dir:             ".",
		Logger:          zerolog.Nop(),
	}
}

func (o *Options) check() error {
	switch o.PlusMinus {
	case PlusMinusAuto, PlusMinusTrue, PlusMinusFalse:
	default:
		return Error{ErrPlusMinus + ", got " + o.PlusMinus, "", []string{"check"}, true, nil}
	}
	if o.Distance <= 0 {
		return Error{ErrDistance, "", []string{"check"}, true, nil}
	}
	if o.PrimitiveMatrix == [3][3]float64{} {
		o.PrimitiveMatrix = [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	}
	if o.MaskForce == [3]float64{} {
		o.MaskForce = [3]float64{1, 1, 1}
	}
	if o.Ndim == [3][3]int{} {
		o.Ndim = chem.Diag(2, 2, 2)
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			id := 0.0
			if i == j {
				id = 1
			}
			if o.PrimitiveMatrix[i][j] != id {
				return Error{ErrPrimitive, "", []string{"check"}, true, nil}
			}
		}
	}
	if o.Factor == 0 {
		o.Factor = chem.VaspToTHz
	}
	if o.Symprec <= 0 {
		o.Symprec = 1e-3
	}
	return nil
}

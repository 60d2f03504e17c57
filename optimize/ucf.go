/*
 * ucf.go, part of atomchain.
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

package optimize

import (
	"context"

	"github.com/rmera/atomchain/calc"
	v3 "github.com/rmera/atomchain/v3"
	"gonum.org/v1/gonum/mat"
)

// UCFOptions are the settings of a UnitCellFilter.
type UCFOptions struct {
	//CellFactor scales the cell degrees of freedom. 0 means the number of atoms.
	CellFactor float64
	//Mask, in Voigt order, multiplies the cell forces. nil means all ones.
	Mask []float64
	//HydrostaticStrain restricts the cell to isotropic deformations.
	HydrostaticStrain bool
	//ConstantVolume removes the volume change from the cell forces.
	ConstantVolume bool
	//ScalarPressure, in eV/A^3, is added to the stress, and P·V to the energy.
	ScalarPressure float64
}

// UnitCellFilter lets an optimizer relax the cell of a periodic structure together
// with the atomic positions. The generalized positions are the atomic positions
// without the current deformation of the cell, followed by three rows with
// CellFactor times the deformation gradient with respect to the original cell.
// The generalized forces are the atomic forces times the deformation gradient,
// followed by the virial divided by CellFactor.
type UnitCellFilter struct {
	atoms      *AtomsTarget
	origCell   *mat.Dense
	cellFactor float64
	mask       *mat.Dense
	opts       UCFOptions
	stress     [6]float64
}

// NewUnitCellFilter returns a filter for the (periodic) structure in atoms.
func NewUnitCellFilter(atoms *AtomsTarget, opts UCFOptions) (*UnitCellFilter, error) {
	s := atoms.Structure()
	if !s.Periodic() {
		return nil, Error{"UnitCellFilter requires a periodic structure", []string{"NewUnitCellFilter"}, true, nil}
	}
	if s.Volume() < 1e-10 {
		return nil, Error{"Singular cell", []string{"NewUnitCellFilter"}, true, nil}
	}
	U := &UnitCellFilter{atoms: atoms, opts: opts}
	U.origCell = mat.DenseCopyOf(v3.Matrix2Dense(s.Cell))
	U.cellFactor = opts.CellFactor
	if U.cellFactor <= 0 {
		U.cellFactor = float64(s.Len())
	}
	if opts.Mask != nil {
		if len(opts.Mask) != 6 {
			return nil, Error{"The cell mask must have 6 elements", []string{"NewUnitCellFilter"}, true, nil}
		}
		m := calc.VoigtToTensor([6]float64(opts.Mask))
		U.mask = mat.DenseCopyOf(v3.Matrix2Dense(m))
	}
	return U, nil
}

// Atoms returns the wrapped target.
func (U *UnitCellFilter) Atoms() *AtomsTarget { return U.atoms }

// Len returns the number of atoms plus 3.
func (U *UnitCellFilter) Len() int { return U.atoms.Len() + 3 }

// deformGrad returns the deformation gradient F, such that cell = origCell·Fᵀ.
func (U *UnitCellFilter) deformGrad() *mat.Dense {
	var M mat.Dense
	if err := M.Solve(U.origCell, v3.Matrix2Dense(U.atoms.Structure().Cell)); err != nil {
		panic(err.Error()) //the original cell was checked when the filter was created
	}
	return mat.DenseCopyOf(M.T())
}

// Positions returns the generalized positions.
func (U *UnitCellFilter) Positions() *v3.Matrix {
	s := U.atoms.Structure()
	n := s.Len()
	F := U.deformGrad()
	ret := v3.Zeros(n + 3)
	//positions without the deformation: solve F·x = r for each atom
	var Finv mat.Dense
	if err := Finv.Inverse(F); err != nil {
		panic(err.Error())
	}
	atoms := ret.View(0, n)
	atoms.Mul(s.Coords, Finv.T())
	cell := ret.View(n, 3)
	cell.Scale(U.cellFactor, F)
	return ret
}

// SetPositions sets the cell from the last 3 rows of pos and the atomic positions
// from the first ones.
func (U *UnitCellFilter) SetPositions(pos *v3.Matrix) error {
	n := U.atoms.Len()
	if pos.NVecs() != n+3 {
		return Error{"Wrong number of generalized positions", []string{"SetPositions"}, true, nil}
	}
	F := mat.DenseCopyOf(pos.View(n, 3))
	F.Scale(1/U.cellFactor, F)
	cell := v3.Zeros(3)
	cell.Mul(U.origCell, F.T())
	if err := U.atoms.SetCell(cell); err != nil {
		return err
	}
	newpos := v3.Zeros(n)
	newpos.Mul(pos.View(0, n), F.T())
	return U.atoms.SetPositions(newpos)
}

// Forces returns the generalized forces.
func (U *UnitCellFilter) Forces(ctx context.Context) (*v3.Matrix, error) {
	forces, err := U.atoms.Forces(ctx)
	if err != nil {
		return nil, err
	}
	stress, err := U.atoms.Stress(ctx)
	if err != nil {
		return nil, err
	}
	s := U.atoms.Structure()
	n := s.Len()
	vol := s.Volume()
	virial := mat.DenseCopyOf(v3.Matrix2Dense(calc.VoigtToTensor(stress)))
	for i := 0; i < 3; i++ {
		virial.Set(i, i, virial.At(i, i)+U.opts.ScalarPressure)
	}
	virial.Scale(-vol, virial)
	F := U.deformGrad()
	ret := v3.Zeros(n + 3)
	ret.View(0, n).Mul(forces, F)
	//virial = (F⁻¹·virialᵀ)ᵀ
	var tmp mat.Dense
	if err := tmp.Solve(F, virial.T()); err != nil {
		return nil, Error{"Singular deformation gradient", []string{"Forces"}, true, err}
	}
	virial = mat.DenseCopyOf(tmp.T())
	if U.opts.HydrostaticStrain {
		tr := mat.Trace(virial)
		virial = mat.NewDense(3, 3, []float64{tr / 3, 0, 0, 0, tr / 3, 0, 0, 0, tr / 3})
	}
	if U.mask != nil {
		virial.MulElem(virial, U.mask)
	}
	if U.opts.ConstantVolume {
		tr := mat.Trace(virial)
		for i := 0; i < 3; i++ {
			virial.Set(i, i, virial.At(i, i)-tr/3)
		}
	}
	cell := ret.View(n, 3)
	cell.Scale(1/U.cellFactor, virial)
	vv := calc.TensorToVoigt(v3.Dense2Matrix(virial))
	for i := range vv {
		U.stress[i] = -vv[i] / vol
	}
	return ret, nil
}

// Energy returns the potential energy plus the ScalarPressure times the volume.
func (U *UnitCellFilter) Energy(ctx context.Context) (float64, error) {
	e, err := U.atoms.Energy(ctx)
	if err != nil {
		return 0, err
	}
	return e + U.opts.ScalarPressure*U.atoms.Structure().Volume(), nil
}

// Stress returns the stress corresponding to the cell forces of the last call to Forces.
func (U *UnitCellFilter) Stress() [6]float64 { return U.stress }

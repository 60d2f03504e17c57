/*
 * target.go, part of atomchain.
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

package optimize

import (
	"context"

	"github.com/rmera/atomchain/calc"
	"github.com/rmera/atomchain/chem"
	v3 "github.com/rmera/atomchain/v3"
)

// Optimizable is anything an optimizer can move: a set of generalized positions
// with the corresponding generalized forces and an energy.
type Optimizable interface {
	//Positions returns a copy of the current generalized positions.
	Positions() *v3.Matrix
	SetPositions(*v3.Matrix) error
	Forces(ctx context.Context) (*v3.Matrix, error)
	Energy(ctx context.Context) (float64, error)
	//Len is the number of rows of the positions and forces.
	Len() int
}

// Constraint modifies the forces, stresses and steps of an AtomsTarget.
// symmetry.FixSymmetry is a Constraint.
type Constraint interface {
	AdjustPositions(s *chem.Structure, newpos *v3.Matrix)
	AdjustForces(s *chem.Structure, forces *v3.Matrix)
	AdjustStress(s *chem.Structure, stress *[6]float64)
	AdjustCell(s *chem.Structure, newcell *v3.Matrix)
}

// AtomsTarget exposes the atomic positions of a structure to an optimizer.
// The structure is modified in place. The results of the calculator are kept
// until the positions or the cell change.
type AtomsTarget struct {
	s          *chem.Structure
	calc       calc.Calculator
	constraint Constraint
	results    *calc.Results
}

// NewAtomsTarget returns a target for the structure s, with energies and forces from
// c. constraint can be nil.
func NewAtomsTarget(s *chem.Structure, c calc.Calculator, constraint Constraint) *AtomsTarget {
	return &AtomsTarget{s: s, calc: c, constraint: constraint}
}

// Structure returns the structure being optimized.
func (A *AtomsTarget) Structure() *chem.Structure { return A.s }

// Len returns the number of atoms.
func (A *AtomsTarget) Len() int { return A.s.Len() }

// Positions returns a copy of the cartesian coordinates.
func (A *AtomsTarget) Positions() *v3.Matrix { return A.s.Coords.Clone() }

// SetPositions sets the coordinates, after applying the constraint, if any.
func (A *AtomsTarget) SetPositions(pos *v3.Matrix) error {
	if pos.NVecs() != A.s.Len() {
		return Error{"Wrong number of positions", []string{"SetPositions"}, true, nil}
	}
	p := pos.Clone()
	if A.constraint != nil {
		A.constraint.AdjustPositions(A.s, p)
	}
	A.s.Coords.Copy(p)
	A.results = nil
	return nil
}

// SetCell sets the cell, after applying the constraint, and scales the atoms with it.
func (A *AtomsTarget) SetCell(cell *v3.Matrix) error {
	c := cell.Clone()
	if A.constraint != nil {
		A.constraint.AdjustCell(A.s, c)
	}
	if err := A.s.SetCell(c, true); err != nil {
		return Error{"", []string{"SetCell"}, true, err}
	}
	A.results = nil
	return nil
}

// Results returns the calculator results for the current structure.
func (A *AtomsTarget) Results(ctx context.Context) (*calc.Results, error) {
	if A.results != nil {
		return A.results, nil
	}
	r, err := A.calc.Calculate(ctx, A.s)
	if err != nil {
		return nil, Error{"", []string{"Results"}, true, err}
	}
	A.results = r
	return r, nil
}

// Forces returns a copy of the forces, after applying the constraint.
func (A *AtomsTarget) Forces(ctx context.Context) (*v3.Matrix, error) {
	r, err := A.Results(ctx)
	if err != nil {
		return nil, err
	}
	f := r.Forces.Clone()
	if A.constraint != nil {
		A.constraint.AdjustForces(A.s, f)
	}
	return f, nil
}

// Energy returns the potential energy.
func (A *AtomsTarget) Energy(ctx context.Context) (float64, error) {
	r, err := A.Results(ctx)
	if err != nil {
		return 0, err
	}
	return r.Energy, nil
}

// Stress returns the stress, after applying the constraint. It returns an error if the
// calculator doesn't provide stresses.
func (A *AtomsTarget) Stress(ctx context.Context) ([6]float64, error) {
	r, err := A.Results(ctx)
	if err != nil {
		return [6]float64{}, err
	}
	if !r.HasStress {
		return [6]float64{}, Error{"The calculator " + A.calc.Name() + " gave no stress", []string{"Stress"}, true, nil}
	}
	s := r.Stress
	if A.constraint != nil {
		A.constraint.AdjustStress(A.s, &s)
	}
	return s, nil
}

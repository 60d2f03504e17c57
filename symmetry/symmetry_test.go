/*
 * symmetry_test.go, part of atomchain.
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

package symmetry

import (
	"math"
	"math/rand"
	"testing"

	"github.com/rmera/atomchain/chem"
	v3 "github.com/rmera/atomchain/v3"
)

func read(Te *testing.T, name string) *chem.Structure {
	S, err := chem.ReadStructure("../chem/testdata/" + name)
	if err != nil {
		Te.Fatal(err)
	}
	return S
}

func TestFind(Te *testing.T) {
	for _, v := range []struct {
		file    string
		ops, pg int
	}{
		{"NaCl.vasp", 48, 48},
		{"Ar_fcc.extxyz", 192, 48},
		{"water.xyz", 1, 1},
	} {
		S := read(Te, v.file)
		d, err := Find(S, 0.01)
		if err != nil {
			Te.Fatal(err)
		}
		if d.Len() != v.ops || d.PointGroupOrder() != v.pg {
			Te.Errorf("%s: %d operations and point group order %d, expected %d and %d", v.file, d.Len(), d.PointGroupOrder(), v.ops, v.pg)
		}
		if !d.Operations[0].IsIdentity() && v.ops == 1 {
			Te.Errorf("%s: the only operation should be the identity", v.file)
		}
		//every operation must be a permutation
		for _, o := range d.Operations {
			seen := make(map[int]bool)
			for _, p := range o.Perm {
				seen[p] = true
			}
			if len(seen) != S.Len() {
				Te.Errorf("%s: operation is not a permutation: %v", v.file, o.Perm)
			}
		}
	}
}

func TestFindLowSymmetry(Te *testing.T) {
	S := read(Te, "NaCl.vasp")
	S.Coords.Set(1, 0, S.Coords.At(1, 0)+0.1) //Cl moved along x
	d, err := Find(S, 0.01)
	if err != nil {
		Te.Fatal(err)
	}
	if d.Len() >= 48 || d.Len() < 1 {
		Te.Errorf("A distorted structure should have lower symmetry, got %d operations", d.Len())
	}
	//with a large tolerance the distortion is ignored
	d, _ = Find(S, 0.25)
	if d.Len() != 48 {
		Te.Errorf("Expected 48 operations with a loose tolerance, got %d", d.Len())
	}
}

func TestSiteOperations(Te *testing.T) {
	S := read(Te, "NaCl.vasp")
	d, _ := Find(S, 0.01)
	if n := len(d.SiteOperations(0)); n != 48 {
		Te.Errorf("The Na site should have 48 operations, got %d", n)
	}
}

func TestFixSymmetry(Te *testing.T) {
	S := read(Te, "NaCl.vasp")
	F, err := NewFixSymmetry(S, 0.01)
	if err != nil {
		Te.Fatal(err)
	}
	r := rand.New(rand.NewSource(3))
	forces := v3.Zeros(2)
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			forces.Set(i, j, r.NormFloat64())
		}
	}
	F.AdjustForces(S, forces)
	if forces.MaxVecNorm() > 1e-10 {
		Te.Errorf("Forces on Oh sites should vanish after symmetrization: %v", forces)
	}
	stress := [6]float64{1, 2, 3, 0.5, 0.2, 0.1}
	F.AdjustStress(S, &stress)
	for i := 0; i < 3; i++ {
		if math.Abs(stress[i]-2) > 1e-10 || math.Abs(stress[i+3]) > 1e-10 {
			Te.Errorf("A cubic stress must be hydrostatic: %v", stress)
		}
	}
	//a random step can only rescale the cubic cell, and can't move the atoms.
	newcell := S.Cell.Clone()
	newcell.Set(0, 1, newcell.At(0, 1)+0.05)
	newcell.Set(2, 0, newcell.At(2, 0)-0.02)
	F.AdjustCell(S, newcell)
	ratio := newcell.VecNorm(0) / S.Cell.VecNorm(0)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(newcell.At(i, j)-ratio*S.Cell.At(i, j)) > 1e-10 {
				Te.Errorf("The symmetrized cell is not a scaled cubic cell: %v", newcell)
			}
		}
	}
	newpos := S.Coords.Clone()
	newpos.Set(1, 2, newpos.At(1, 2)+0.1)
	F.AdjustPositions(S, newpos)
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(newpos.At(i, j)-S.Coords.At(i, j)) > 1e-10 {
				Te.Errorf("Atoms on Oh sites can't move: %v", newpos)
			}
		}
	}
}

// In a molecule the constraint does nothing.
func TestFixSymmetryMolecule(Te *testing.T) {
	S := read(Te, "water.xyz")
	F, err := NewFixSymmetry(S, 0.01)
	if err != nil {
		Te.Fatal(err)
	}
	forces := v3.Zeros(3)
	forces.Set(1, 1, 0.3)
	F.AdjustForces(S, forces)
	if forces.At(1, 1) != 0.3 {
		Te.Errorf("The forces of a molecule should not change: %v", forces)
	}
}

/*
 * structure.go, part of atomchain.
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

package chem

import (
	"fmt"
	"math"
	"math/rand"

	v3 "github.com/rmera/atomchain/v3"
	"gonum.org/v1/gonum/mat"
)

// DefaultRattleSeed is the seed used by Rattle when none is given.
const DefaultRattleSeed int64 = 42

// Structure contains all the information needed to describe an atomic
// system at one point in time: the atoms, their cartesian coordinates, and, for
// periodic systems, the cell vectors (as rows) and the periodic boundary conditions.
type Structure struct {
	*Topology
	Coords *v3.Matrix
	Cell   *v3.Matrix //nil for non-periodic systems
	PBC    [3]bool
}

// NewStructure returns a new structure. It returns an error if the number of atoms and
// coordinates don't match, or if PBCs are requested without a cell.
func NewStructure(top *Topology, coords, cell *v3.Matrix, pbc [3]bool) (*Structure, error) {
	if top == nil || coords == nil {
		return nil, CError{ErrNilCoords, "", []string{"NewStructure"}, true}
	}
	if top.Len() != coords.NVecs() {
		return nil, CError{fmt.Sprintf("%s: %d atoms, %d coordinates", ErrLenMismatch, top.Len(), coords.NVecs()), "", []string{"NewStructure"}, true}
	}
	if cell == nil && (pbc[0] || pbc[1] || pbc[2]) {
		return nil, CError{"Periodic boundary conditions requested without a cell", "", []string{"NewStructure"}, true}
	}
	if cell != nil && cell.NVecs() != 3 {
		return nil, CError{"The cell must have 3 vectors", "", []string{"NewStructure"}, true}
	}
	return &Structure{Topology: top, Coords: coords, Cell: cell, PBC: pbc}, nil
}

// Copy returns a deep copy of the structure.
func (S *Structure) Copy() *Structure {
	ret := new(Structure)
	ret.Topology = S.Topology.Copy()
	ret.Coords = S.Coords.Clone()
	if S.Cell != nil {
		ret.Cell = S.Cell.Clone()
	}
	ret.PBC = S.PBC
	return ret
}

// Periodic returns true if the structure has a cell and periodic boundary
// conditions in at least one direction.
func (S *Structure) Periodic() bool {
	return S.Cell != nil && (S.PBC[0] || S.PBC[1] || S.PBC[2])
}

// Volume returns the volume of the cell, or 0 if there is no cell.
func (S *Structure) Volume() float64 {
	if S.Cell == nil {
		return 0
	}
	return math.Abs(v3.Det(S.Cell))
}

// Reciprocal returns the reciprocal cell vectors (as rows) without the 2pi factor, i.e.
// b_i such that a_i·b_j=delta_ij.
func (S *Structure) Reciprocal() (*v3.Matrix, error) {
	if S.Cell == nil {
		return nil, CError{ErrNotPeriodic, "", []string{"Reciprocal"}, true}
	}
	inv := v3.Zeros(3)
	if err := inv.Inverse(S.Cell); err != nil {
		return nil, CError{ErrSingularCell, "", []string{"Reciprocal"}, true}
	}
	ret := v3.Zeros(3)
	ret.Copy(inv.T())
	return ret, nil
}

// Scaled returns the fractional coordinates of the atoms in the structure.
func (S *Structure) Scaled() (*v3.Matrix, error) {
	if S.Cell == nil {
		return nil, CError{ErrNotPeriodic, "", []string{"Scaled"}, true}
	}
	inv := v3.Zeros(3)
	if err := inv.Inverse(S.Cell); err != nil {
		return nil, CError{ErrSingularCell, "", []string{"Scaled"}, true}
	}
	ret := v3.Zeros(S.Len())
	ret.Mul(S.Coords, inv)
	return ret, nil
}

// SetScaled sets the cartesian coordinates of the structure from the given fractional ones.
func (S *Structure) SetScaled(frac *v3.Matrix) error {
	if S.Cell == nil {
		return CError{ErrNotPeriodic, "", []string{"SetScaled"}, true}
	}
	if frac.NVecs() != S.Len() {
		return CError{ErrLenMismatch, "", []string{"SetScaled"}, true}
	}
	S.Coords.Mul(frac, S.Cell)
	return nil
}

// SetCell sets a new cell for the structure. If scaleAtoms is true, the atoms are
// moved so their fractional coordinates are kept.
func (S *Structure) SetCell(cell *v3.Matrix, scaleAtoms bool) error {
	if !scaleAtoms || S.Cell == nil {
		S.Cell = cell.Clone()
		return nil
	}
	frac, err := S.Scaled()
	if err != nil {
		return errDecorate(err, "SetCell")
	}
	S.Cell = cell.Clone()
	return S.SetScaled(frac)
}

// Wrap puts all the atoms inside the cell along the periodic directions.
func (S *Structure) Wrap() error {
	frac, err := S.Scaled()
	if err != nil {
		return errDecorate(err, "Wrap")
	}
	for i := 0; i < frac.NVecs(); i++ {
		for j := 0; j < 3; j++ {
			if !S.PBC[j] {
				continue
			}
			f := frac.At(i, j)
			f -= math.Floor(f)
			if f >= 1 { //can happen with -1e-17
				f = 0
			}
			frac.Set(i, j, f)
		}
	}
	return S.SetScaled(frac)
}

// Rattle displaces every coordinate of every atom by a random number drawn from a normal
// distribution with standard deviation stdev. The random source is seeded with seed, if given,
// or with DefaultRattleSeed, so the operation is reproducible.
func (S *Structure) Rattle(stdev float64, seed ...int64) {
	sd := DefaultRattleSeed
	if len(seed) > 0 {
		sd = seed[0]
	}
	r := rand.New(rand.NewSource(sd))
	for i := 0; i < S.Len(); i++ {
		for j := 0; j < 3; j++ {
			S.Coords.Set(i, j, S.Coords.At(i, j)+r.NormFloat64()*stdev)
		}
	}
}

// Diag returns the diagonal integer matrix with the elements a, b and c.
func Diag(a, b, c int) [3][3]int {
	return [3][3]int{{a, 0, 0}, {0, b, 0}, {0, 0, c}}
}

// Supercell builds the supercell with cell vectors P·A, where A contains the cell
// vectors of S as rows. It returns the supercell and a slice with, for each atom in the
// supercell, the index of the atom in S it is an image of. Atoms are ordered by unit-cell
// atom: all the images of atom 0 first, then those of atom 1, and so on.
func (S *Structure) Supercell(P [3][3]int) (*Structure, []int, error) {
	if S.Cell == nil {
		return nil, nil, CError{ErrNotPeriodic, "", []string{"Supercell"}, true}
	}
	pm := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			pm.Set(i, j, float64(P[i][j]))
		}
	}
	det := mat.Det(pm)
	n := int(math.Round(math.Abs(det)))
	if n == 0 {
		return nil, nil, CError{"Singular supercell matrix", "", []string{"Supercell"}, true}
	}
	pinv := mat.NewDense(3, 3, nil)
	if err := pinv.Inverse(pm); err != nil {
		return nil, nil, CError{"Singular supercell matrix", "", []string{"Supercell"}, true}
	}
	//bounds of the lattice points, from the corners of the supercell
	var lo, hi [3]int
	for c := 0; c < 8; c++ {
		corner := [3]int{c & 1, (c >> 1) & 1, (c >> 2) & 1}
		for j := 0; j < 3; j++ {
			v := 0
			for k := 0; k < 3; k++ {
				v += corner[k] * P[k][j]
			}
			if v < lo[j] {
				lo[j] = v
			}
			if v > hi[j] {
				hi[j] = v
			}
		}
	}
	const tol = 1e-8
	points := make([][3]float64, 0, n)
	for a := lo[0]; a <= hi[0]; a++ {
		for b := lo[1]; b <= hi[1]; b++ {
			for c := lo[2]; c <= hi[2]; c++ {
				p := [3]float64{float64(a), float64(b), float64(c)}
				in := true
				for j := 0; j < 3; j++ {
					s := p[0]*pinv.At(0, j) + p[1]*pinv.At(1, j) + p[2]*pinv.At(2, j)
					if s < -tol || s >= 1-tol {
						in = false
						break
					}
				}
				if in {
					points = append(points, p)
				}
			}
		}
	}
	if len(points) != n {
		return nil, nil, CError{fmt.Sprintf("Found %d lattice points for a supercell of multiplicity %d", len(points), n), "", []string{"Supercell"}, true}
	}
	frac, err := S.Scaled()
	if err != nil {
		return nil, nil, errDecorate(err, "Supercell")
	}
	natoms := S.Len() * n
	ats := make([]*Atom, 0, natoms)
	mapping := make([]int, 0, natoms)
	coords := v3.Zeros(natoms)
	k := 0
	for i := 0; i < S.Len(); i++ {
		for _, p := range points {
			at := S.Atom(i).Copy()
			at.ID = k + 1
			ats = append(ats, at)
			mapping = append(mapping, i)
			var f [3]float64
			for j := 0; j < 3; j++ {
				f[j] = frac.At(i, j) + p[j]
			}
			for j := 0; j < 3; j++ {
				coords.Set(k, j, f[0]*S.Cell.At(0, j)+f[1]*S.Cell.At(1, j)+f[2]*S.Cell.At(2, j))
			}
			k++
		}
	}
	cell := v3.Zeros(3)
	cell.Mul(pm, S.Cell)
	top := NewTopology(ats, S.Charge()*n, S.Multi())
	sc, err := NewStructure(top, coords, cell, S.PBC)
	if err != nil {
		return nil, nil, errDecorate(err, "Supercell")
	}
	return sc, mapping, nil
}

// MinimumImage replaces the cartesian vector d by its shortest periodic image
// along the periodic directions of S. It is exact for reasonably shaped cells,
// as it checks the neighboring images.
func (S *Structure) MinimumImage(d []float64) {
	if !S.Periodic() {
		return
	}
	rec, err := S.Reciprocal()
	if err != nil {
		return
	}
	var f [3]float64
	for j := 0; j < 3; j++ {
		f[j] = d[0]*rec.At(j, 0) + d[1]*rec.At(j, 1) + d[2]*rec.At(j, 2)
		if S.PBC[j] {
			f[j] -= math.Round(f[j])
		}
	}
	best := math.Inf(1)
	var bestv [3]float64
	lim := [3]int{0, 0, 0}
	for j := 0; j < 3; j++ {
		if S.PBC[j] {
			lim[j] = 1
		}
	}
	for a := -lim[0]; a <= lim[0]; a++ {
		for b := -lim[1]; b <= lim[1]; b++ {
			for c := -lim[2]; c <= lim[2]; c++ {
				g := [3]float64{f[0] + float64(a), f[1] + float64(b), f[2] + float64(c)}
				var v [3]float64
				for j := 0; j < 3; j++ {
					v[j] = g[0]*S.Cell.At(0, j) + g[1]*S.Cell.At(1, j) + g[2]*S.Cell.At(2, j)
				}
				n := v[0]*v[0] + v[1]*v[1] + v[2]*v[2]
				if n < best {
					best = n
					bestv = v
				}
			}
		}
	}
	copy(d, bestv[:])
}

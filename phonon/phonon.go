/*
 * phonon.go, part of atomchain.
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

package phonon

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"path/filepath"

	"github.com/rmera/atomchain/calc"
	"github.com/rmera/atomchain/chem"
	"github.com/rmera/atomchain/symmetry"
	v3 "github.com/rmera/atomchain/v3"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

// Phonon contains the result of a finite-displacement calculation: the supercell,
// the displacements with their forces, and the force constants.
type Phonon struct {
	Unit          *chem.Structure
	Supercell     *chem.Structure
	Mapping       []int //unit-cell atom for each supercell atom
	Displacements []Displacement
	Residual      *v3.Matrix //forces on the undisplaced supercell, nil if not computed

	factor  float64
	home    []int //supercell index of the image of each unit-cell atom at the origin
	masses  []float64
	fc      []float64
	dataset *symmetry.Dataset
	rots    []*mat.Dense
	lat     *superLattice
	phases  [][][][3]float64 //[u][j] minimum image vectors, unit-cell fractional coordinates
	log     zerolog.Logger
}

// Calculate performs a finite-displacement phonon calculation for the periodic
// structure s, using c to obtain the forces. If opts is nil, DefaultOptions() is used.
// If opts.ForceSetsFile names an existing file, the displacements and forces are read
// from it, and c is not used (it can be nil).
func Calculate(ctx context.Context, s *chem.Structure, c calc.Calculator, opts *Options) (*Phonon, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := opts.check(); err != nil {
		return nil, errDecorate(err, "Calculate")
	}
	P, err := newPhonon(s, opts)
	if err != nil {
		return nil, errDecorate(err, "Calculate")
	}
	fsname := opts.ForceSetsFile
	if fsname == "" && opts.Dir != "" {
		fsname = filepath.Join(opts.Dir, ForceSetsName)
	}
	loaded := false
	if opts.ForceSetsFile != "" {
		natoms, disps, err := ReadForceSets(opts.ForceSetsFile)
		switch {
		case err == nil:
			if natoms != P.Supercell.Len() {
				return nil, Error{fmt.Sprintf("The file has %d atoms, the supercell %d", natoms, P.Supercell.Len()), opts.ForceSetsFile, []string{"Calculate"}, true, nil}
			}
			P.Displacements = disps
			loaded = true
			P.log.Info().Str("file", opts.ForceSetsFile).Int("displacements", len(disps)).Msg("forces read")
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, errDecorate(err, "Calculate")
		}
	}
	if !loaded {
		if c == nil {
			return nil, Error{"A calculator is needed to compute the forces", "", []string{"Calculate"}, true, nil}
		}
		P.Displacements = P.generateDisplacements(opts.PlusMinus, opts.Distance)
		if err := P.computeForces(ctx, c, opts); err != nil {
			return nil, errDecorate(err, "Calculate")
		}
		if fsname != "" {
			if err := WriteForceSets(fsname, P.Supercell.Len(), P.Displacements); err != nil {
				return nil, errDecorate(err, "Calculate")
			}
		}
	}
	if opts.Symmetry {
		P.complete()
	}
	if err := P.buildFC(); err != nil {
		return nil, errDecorate(err, "Calculate")
	}
	if opts.Symmetry {
		P.symmetrizeFC(3)
	}
	if err := P.preparePhases(); err != nil {
		return nil, errDecorate(err, "Calculate")
	}
	return P, nil
}

func newPhonon(s *chem.Structure, opts *Options) (*Phonon, error) {
	if !s.Periodic() {
		return nil, Error{ErrNotPeriodic, "", []string{"newPhonon"}, true, nil}
	}
	P := &Phonon{Unit: s.Copy(), factor: opts.Factor, log: opts.Logger}
	var err error
	P.masses, err = P.Unit.Masses()
	if err != nil {
		return nil, errDecorate(err, "newPhonon")
	}
	P.Supercell, P.Mapping, err = P.Unit.Supercell(opts.Ndim)
	if err != nil {
		return nil, errDecorate(err, "newPhonon")
	}
	tol := math.Max(2*opts.Symprec, 1e-4)
	P.lat, err = newSuperLattice(P.Supercell, tol)
	if err != nil {
		return nil, errDecorate(err, "newPhonon")
	}
	P.home = make([]int, P.Unit.Len())
	for u := range P.home {
		P.home[u] = P.lat.find(P.Unit.Coords.RawRowView(u))
		if P.home[u] < 0 || P.Mapping[P.home[u]] != u {
			return nil, Error{fmt.Sprintf("Can't find atom %d in the supercell", u), "", []string{"newPhonon"}, true, nil}
		}
	}
	if opts.Symmetry {
		P.dataset, err = symmetry.Find(P.Unit, opts.Symprec)
		if err != nil {
			return nil, errDecorate(err, "newPhonon")
		}
	} else {
		perm := make([]int, P.Unit.Len())
		for i := range perm {
			perm[i] = i
		}
		P.dataset = &symmetry.Dataset{Operations: []symmetry.Operation{{Rot: [3][3]int{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}, Perm: perm}}, Symprec: opts.Symprec}
	}
	P.rots, err = P.dataset.CartesianRotations(P.Unit.Cell)
	if err != nil {
		return nil, errDecorate(err, "newPhonon")
	}
	P.log.Debug().Int("operations", P.dataset.Len()).Int("supercell_atoms", P.Supercell.Len()).Msg("phonon setup")
	return P, nil
}

func (P *Phonon) fcIndex(i, j, a, b int) int {
	N := P.Supercell.Len()
	return ((i*N+j)*3+a)*3 + b
}

// ForceConstant returns the 3x3 force-constant block between the supercell atoms i and j,
// in eV/A^2.
func (P *Phonon) ForceConstant(i, j int) *mat.Dense {
	ret := mat.NewDense(3, 3, nil)
	for a := 0; a < 3; a++ {
		for b := 0; b < 3; b++ {
			ret.Set(a, b, P.fc[P.fcIndex(i, j, a, b)])
		}
	}
	return ret
}

// buildFC obtains the force constants from the displacements, by a least-squares
// fit of the forces on each displaced atom, and copies them to all the lattice images.
func (P *Phonon) buildFC() error {
	N := P.Supercell.Len()
	byAtom := make(map[int][]int)
	for k, d := range P.Displacements {
		byAtom[d.Atom] = append(byAtom[d.Atom], k)
	}
	rows := make(map[int]*mat.Dense) //[3 x 3N] for each displaced atom
	for a, list := range byAtom {
		D := mat.NewDense(len(list), 3, nil)
		F := mat.NewDense(len(list), 3*N, nil)
		for r, k := range list {
			d := P.Displacements[k]
			D.SetRow(r, d.Vector[:])
			for j := 0; j < N; j++ {
				for b := 0; b < 3; b++ {
					F.Set(r, 3*j+b, -d.Forces.At(j, b))
				}
			}
		}
		if len(list) < 3 {
			return Error{fmt.Sprintf("%s %d: %d displacements", ErrUnderdefined, a, len(list)), "", []string{"buildFC"}, true, nil}
		}
		var x mat.Dense
		if err := x.Solve(D, F); err != nil {
			return Error{fmt.Sprintf("%s %d", ErrUnderdefined, a), "", []string{"buildFC"}, true, err}
		}
		rows[a] = &x
	}
	P.fc = make([]float64, N*N*9)
	t := make([]float64, 3)
	for u := 0; u < P.Unit.Len(); u++ {
		src := -1
		if _, ok := rows[P.home[u]]; ok {
			src = P.home[u]
		} else {
			for a := range rows {
				if P.Mapping[a] == u && (src < 0 || a < src) {
					src = a
				}
			}
		}
		if src < 0 {
			return Error{fmt.Sprintf("%s %d: not displaced", ErrUnderdefined, u), "", []string{"buildFC"}, true, nil}
		}
		x := rows[src]
		for b := 0; b < N; b++ {
			if P.Mapping[b] != u {
				continue
			}
			for k := 0; k < 3; k++ {
				t[k] = P.Supercell.Coords.At(b, k) - P.Supercell.Coords.At(src, k)
			}
			perm, ok := P.lat.translate(t)
			if !ok {
				return Error{"The supercell is not invariant under its lattice translations", "", []string{"buildFC"}, true, nil}
			}
			for j := 0; j < N; j++ {
				for a := 0; a < 3; a++ {
					for c := 0; c < 3; c++ {
						P.fc[P.fcIndex(b, perm[j], a, c)] = x.At(a, 3*j+c)
					}
				}
			}
		}
	}
	return nil
}

// symmetrizeFC makes the force constants symmetric under the exchange of atoms and
// imposes the acoustic sum rule, iter times.
func (P *Phonon) symmetrizeFC(iter int) {
	N := P.Supercell.Len()
	for it := 0; it < iter; it++ {
		for i := 0; i < N; i++ {
			for j := i; j < N; j++ {
				for a := 0; a < 3; a++ {
					for b := 0; b < 3; b++ {
						if i == j && b < a {
							continue
						}
						k1, k2 := P.fcIndex(i, j, a, b), P.fcIndex(j, i, b, a)
						avg := (P.fc[k1] + P.fc[k2]) / 2
						P.fc[k1], P.fc[k2] = avg, avg
					}
				}
			}
		}
		for i := 0; i < N; i++ {
			var sum [3][3]float64
			for j := 0; j < N; j++ {
				if j == i {
					continue
				}
				for a := 0; a < 3; a++ {
					for b := 0; b < 3; b++ {
						sum[a][b] += P.fc[P.fcIndex(i, j, a, b)]
					}
				}
			}
			for a := 0; a < 3; a++ {
				for b := 0; b < 3; b++ {
					P.fc[P.fcIndex(i, i, a, b)] = -(sum[a][b] + sum[b][a]) / 2
				}
			}
		}
	}
}

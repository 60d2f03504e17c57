/*
 * lattice.go, part of atomchain.
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
	"math"

	"github.com/rmera/atomchain/chem"
	v3 "github.com/rmera/atomchain/v3"
	"gonum.org/v1/gonum/mat"
)

// superLattice finds atoms in a supercell from their cartesian positions.
type superLattice struct {
	s    *chem.Structure
	inv  *mat.Dense   //inverse of the cell matrix
	frac [][3]float64 //wrapped fractional coordinates of each atom
	tol  float64      //A
}

func newSuperLattice(s *chem.Structure, tol float64) (*superLattice, error) {
	L := &superLattice{s: s, tol: tol}
	L.inv = mat.NewDense(3, 3, nil)
	if err := L.inv.Inverse(v3.Matrix2Dense(s.Cell)); err != nil {
		return nil, Error{chem.ErrSingularCell, "", []string{"newSuperLattice"}, true, nil}
	}
	L.frac = make([][3]float64, s.Len())
	for i := range L.frac {
		L.frac[i] = L.toFrac(s.Coords.RawRowView(i))
	}
	return L, nil
}

// toFrac returns the wrapped fractional coordinates of the cartesian vector r.
func (L *superLattice) toFrac(r []float64) [3]float64 {
	var f [3]float64
	for j := 0; j < 3; j++ {
		f[j] = r[0]*L.inv.At(0, j) + r[1]*L.inv.At(1, j) + r[2]*L.inv.At(2, j)
		f[j] -= math.Floor(f[j])
	}
	return f
}

// find returns the index of the atom at the cartesian position r, modulo the
// supercell lattice, or -1 if there is none.
func (L *superLattice) find(r []float64) int {
	f := L.toFrac(r)
	cell := L.s.Cell
	for i, g := range L.frac {
		var d [3]float64
		for j := 0; j < 3; j++ {
			d[j] = f[j] - g[j]
			d[j] -= math.Round(d[j])
		}
		var n2 float64
		for j := 0; j < 3; j++ {
			c := d[0]*cell.At(0, j) + d[1]*cell.At(1, j) + d[2]*cell.At(2, j)
			n2 += c * c
		}
		if n2 < L.tol*L.tol {
			return i
		}
	}
	return -1
}

// translate returns, for each atom j, the atom found at r_j+t.
func (L *superLattice) translate(t []float64) ([]int, bool) {
	ret := make([]int, L.s.Len())
	r := make([]float64, 3)
	for j := range ret {
		for k := 0; k < 3; k++ {
			r[k] = L.s.Coords.At(j, k) + t[k]
		}
		ret[j] = L.find(r)
		if ret[j] < 0 {
			return nil, false
		}
	}
	return ret, true
}

// rotate returns, for each atom j, the atom found at C·(r_j-r_c)+r_c,
// where C is a cartesian rotation. It returns false if the operation doesn't map
// the supercell onto itself.
func (L *superLattice) rotate(C mat.Matrix, center []float64) ([]int, bool) {
	n := L.s.Len()
	ret := make([]int, n)
	var d [3]float64
	r := make([]float64, 3)
	for j := 0; j < n; j++ {
		for k := 0; k < 3; k++ {
			d[k] = L.s.Coords.At(j, k) - center[k]
		}
		for k := 0; k < 3; k++ {
			r[k] = center[k] + C.At(k, 0)*d[0] + C.At(k, 1)*d[1] + C.At(k, 2)*d[2]
		}
		ret[j] = L.find(r)
		if ret[j] < 0 || L.s.Atom(ret[j]).Symbol != L.s.Atom(j).Symbol {
			return nil, false
		}
	}
	return ret, true
}

// images returns the shortest vectors from atom i to the periodic images of atom j.
// All the images within 1e-4 A of the shortest distance are returned.
func (L *superLattice) images(i, j int) [][3]float64 {
	cell := L.s.Cell
	var d0 [3]float64
	for k := 0; k < 3; k++ {
		d0[k] = L.frac[j][k] - L.frac[i][k]
		d0[k] -= math.Round(d0[k])
	}
	const n = 2
	type cand struct {
		v [3]float64
		r float64
	}
	cands := make([]cand, 0, (2*n+1)*(2*n+1)*(2*n+1))
	best := math.Inf(1)
	for a := -n; a <= n; a++ {
		for b := -n; b <= n; b++ {
			for c := -n; c <= n; c++ {
				f := [3]float64{d0[0] + float64(a), d0[1] + float64(b), d0[2] + float64(c)}
				var v [3]float64
				for k := 0; k < 3; k++ {
					v[k] = f[0]*cell.At(0, k) + f[1]*cell.At(1, k) + f[2]*cell.At(2, k)
				}
				r := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
				best = math.Min(best, r)
				cands = append(cands, cand{v, r})
			}
		}
	}
	ret := make([][3]float64, 0, 1)
	for _, c := range cands {
		if c.r-best < 1e-4 {
			ret = append(ret, c.v)
		}
	}
	return ret
}

/*
 * find.go, part of atomchain.
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

package symmetry

import (
	"fmt"
	"math"

	"github.com/rmera/atomchain/chem"
	v3 "github.com/rmera/atomchain/v3"
	"gonum.org/v1/gonum/mat"
)

// DefaultSymprec is the tolerance, in A, used to find symmetry operations.
const DefaultSymprec = 0.01

// Operation is a space-group operation in fractional coordinates, acting on
// column vectors as x' = Rot·x + Trans. Perm[i] is the atom that atom i is mapped onto.
type Operation struct {
	Rot   [3][3]int
	Trans [3]float64
	Perm  []int
}

// IsIdentity returns true if the operation is the identity (with no translation).
func (O Operation) IsIdentity() bool {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if O.Rot[i][j] != kron(i, j) {
				return false
			}
		}
		if math.Abs(O.Trans[i]) > 1e-8 && math.Abs(O.Trans[i]-1) > 1e-8 {
			return false
		}
	}
	return true
}

// Dataset contains the symmetry operations of a structure.
type Dataset struct {
	Operations []Operation
	Symprec    float64
}

// Len returns the number of operations.
func (D *Dataset) Len() int { return len(D.Operations) }

// PointGroupOrder returns the number of distinct rotations in the dataset.
func (D *Dataset) PointGroupOrder() int {
	seen := make(map[[3][3]int]bool)
	for _, o := range D.Operations {
		seen[o.Rot] = true
	}
	return len(seen)
}

// SiteOperations returns the indexes of the operations that map atom i onto itself.
func (D *Dataset) SiteOperations(i int) []int {
	ret := make([]int, 0, len(D.Operations))
	for k, o := range D.Operations {
		if o.Perm[i] == i {
			ret = append(ret, k)
		}
	}
	return ret
}

// CartesianRotations returns, for each operation, the rotation matrix that acts on
// cartesian column vectors, for the given cell (lattice vectors as rows).
func (D *Dataset) CartesianRotations(cell *v3.Matrix) ([]*mat.Dense, error) {
	if len(D.Operations) == 1 && D.Operations[0].IsIdentity() {
		return []*mat.Dense{identity()}, nil
	}
	if cell == nil {
		return nil, Error{"A cell is needed for non-trivial operations", []string{"CartesianRotations"}, true}
	}
	A := v3.Matrix2Dense(cell)
	var AinvT mat.Dense
	if err := AinvT.Inverse(A.T()); err != nil {
		return nil, Error{"Singular cell", []string{"CartesianRotations"}, true}
	}
	ret := make([]*mat.Dense, len(D.Operations))
	for k, o := range D.Operations {
		C := mat.NewDense(3, 3, nil)
		C.Product(A.T(), rotDense(o.Rot), &AinvT)
		ret[k] = C
	}
	return ret, nil
}

// Find returns the symmetry operations of s, within a tolerance of symprec A.
// The lattice point group is obtained by testing all the integer matrices with
// elements in {-1, 0, 1} that preserve the metric tensor of the cell. For each of
// those, the translations that map atom 0 onto atoms of the same element are tried,
// and an operation is kept if it maps every atom onto an atom of the same element.
// Non-periodic structures only get the identity.
func Find(s *chem.Structure, symprec float64) (*Dataset, error) {
	if symprec <= 0 {
		symprec = DefaultSymprec
	}
	n := s.Len()
	if !s.Periodic() || n == 0 {
		perm := make([]int, n)
		for i := range perm {
			perm[i] = i
		}
		return &Dataset{Operations: []Operation{{Rot: [3][3]int{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}, Perm: perm}}, Symprec: symprec}, nil
	}
	frac, err := s.Scaled()
	if err != nil {
		return nil, errDecorate(err, "Find")
	}
	rots := latticeRotations(s.Cell, symprec)
	ops := make([]Operation, 0, 48)
	f0 := frac.RawRowView(0)
	for _, R := range rots {
		//R applied to atom 0
		var rf0 [3]float64
		for a := 0; a < 3; a++ {
			for b := 0; b < 3; b++ {
				rf0[a] += float64(R[a][b]) * f0[b]
			}
		}
		for k := 0; k < n; k++ {
			if s.Atom(k).Symbol != s.Atom(0).Symbol {
				continue
			}
			fk := frac.RawRowView(k)
			var t [3]float64
			for a := 0; a < 3; a++ {
				t[a] = fk[a] - rf0[a]
				t[a] -= math.Floor(t[a])
				if t[a] > 1-1e-10 {
					t[a] = 0
				}
			}
			perm, ok := mapAtoms(s, frac, R, t, symprec)
			if ok {
				ops = append(ops, Operation{Rot: R, Trans: t, Perm: perm})
			}
		}
	}
	if len(ops) == 0 {
		return nil, Error{fmt.Sprintf("No symmetry operations found with symprec %g, not even the identity", symprec), []string{"Find"}, true}
	}
	return &Dataset{Operations: ops, Symprec: symprec}, nil
}

// mapAtoms applies the operation (R, t) to all the atoms and returns the resulting
// permutation, or false if some atom is not mapped onto an atom of the same element.
func mapAtoms(s *chem.Structure, frac *v3.Matrix, R [3][3]int, t [3]float64, symprec float64) ([]int, bool) {
	n := s.Len()
	perm := make([]int, n)
	used := make([]bool, n)
	d := make([]float64, 3)
	for i := 0; i < n; i++ {
		fi := frac.RawRowView(i)
		var rf [3]float64
		for a := 0; a < 3; a++ {
			for b := 0; b < 3; b++ {
				rf[a] += float64(R[a][b]) * fi[b]
			}
			rf[a] += t[a]
		}
		found := false
		for j := 0; j < n; j++ {
			if used[j] || s.Atom(j).Symbol != s.Atom(i).Symbol {
				continue
			}
			fj := frac.RawRowView(j)
			var df [3]float64
			for a := 0; a < 3; a++ {
				df[a] = rf[a] - fj[a]
				df[a] -= math.Round(df[a])
			}
			for a := 0; a < 3; a++ {
				d[a] = df[0]*s.Cell.At(0, a) + df[1]*s.Cell.At(1, a) + df[2]*s.Cell.At(2, a)
			}
			s.MinimumImage(d)
			if math.Sqrt(d[0]*d[0]+d[1]*d[1]+d[2]*d[2]) < symprec {
				perm[i] = j
				used[j] = true
				found = true
				break
			}
		}
		if !found {
			return nil, false
		}
	}
	return perm, true
}

// latticeRotations returns the integer matrices, with elements in {-1, 0, 1} and determinant
// ±1, that leave the metric tensor of the cell unchanged within the tolerance.
func latticeRotations(cell *v3.Matrix, symprec float64) [][3][3]int {
	A := v3.Matrix2Dense(cell)
	var G mat.Dense
	G.Mul(A, A.T())
	var lengths [3]float64
	for i := 0; i < 3; i++ {
		lengths[i] = math.Sqrt(G.At(i, i))
	}
	ret := make([][3][3]int, 0, 48)
	var R [3][3]int
	var RG, RGR mat.Dense
	for code := 0; code < 19683; code++ {
		c := code
		for i := 0; i < 9; i++ {
			R[i/3][i%3] = c%3 - 1
			c /= 3
		}
		if det := idet(R); det != 1 && det != -1 {
			continue
		}
		//the metric is preserved if Rᵀ·G·R = G
		Rd := rotDense(R)
		RG.Mul(Rd.T(), &G)
		RGR.Mul(&RG, Rd)
		ok := true
		for i := 0; i < 3 && ok; i++ {
			for j := 0; j < 3; j++ {
				//compare lengths and, roughly, angles
				if math.Abs(RGR.At(i, j)-G.At(i, j)) > 2*symprec*math.Max(lengths[i], lengths[j]) {
					ok = false
					break
				}
			}
		}
		if ok {
			ret = append(ret, R)
		}
	}
	return ret
}

func idet(R [3][3]int) int {
	return R[0][0]*(R[1][1]*R[2][2]-R[1][2]*R[2][1]) -
		R[0][1]*(R[1][0]*R[2][2]-R[1][2]*R[2][0]) +
		R[0][2]*(R[1][0]*R[2][1]-R[1][1]*R[2][0])
}

func rotDense(R [3][3]int) *mat.Dense {
	ret := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			ret.Set(i, j, float64(R[i][j]))
		}
	}
	return ret
}

func identity() *mat.Dense {
	return mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
}

func kron(i, j int) int {
	if i == j {
		return 1
	}
	return 0
}

/*
 * fixsym.go, part of atomchain.
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
	"github.com/rmera/atomchain/chem"
	v3 "github.com/rmera/atomchain/v3"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

// FixSymmetry is a constraint that preserves the symmetry of a structure. Forces,
// stresses and the steps proposed by an optimizer are replaced by their averages
// over the symmetry operations found in the structure when the constraint was created.
type FixSymmetry struct {
	data *Dataset
	log  zerolog.Logger
}

// NewFixSymmetry finds the symmetry of s with tolerance symprec and returns the
// corresponding constraint.
func NewFixSymmetry(s *chem.Structure, symprec float64, logger ...zerolog.Logger) (*FixSymmetry, error) {
	d, err := Find(s, symprec)
	if err != nil {
		return nil, errDecorate(err, "NewFixSymmetry")
	}
	F := &FixSymmetry{data: d, log: zerolog.Nop()}
	if len(logger) > 0 {
		F.log = logger[0]
	}
	F.log.Info().Int("operations", d.Len()).Int("point_group_order", d.PointGroupOrder()).Float64("symprec", d.Symprec).Msg("symmetry constraint set")
	return F, nil
}

// Dataset returns the symmetry operations used by the constraint.
func (F *FixSymmetry) Dataset() *Dataset { return F.data }

// symmetrizeVectors replaces each row of vecs by the average, over all the operations, of
// the rotated rows of the atoms mapped onto it.
func (F *FixSymmetry) symmetrizeVectors(cell *v3.Matrix, vecs *v3.Matrix) {
	rots, err := F.data.CartesianRotations(cell)
	if err != nil {
		//can only happen with a singular cell, in which case there is nothing sensible to do.
		return
	}
	n := vecs.NVecs()
	sym := v3.Zeros(n)
	var rv mat.VecDense
	for k, o := range F.data.Operations {
		for i := 0; i < n; i++ {
			rv.MulVec(rots[k], vecs.RowView(i))
			j := o.Perm[i]
			for a := 0; a < 3; a++ {
				sym.Set(j, a, sym.At(j, a)+rv.AtVec(a))
			}
		}
	}
	sym.Scale(1/float64(len(rots)), sym)
	vecs.Copy(sym)
}

// symmetrizeTensor returns the average of C·T·Cᵀ over the operations.
func (F *FixSymmetry) symmetrizeTensor(cell *v3.Matrix, T *mat.Dense) *mat.Dense {
	rots, err := F.data.CartesianRotations(cell)
	if err != nil {
		return T
	}
	sym := mat.NewDense(3, 3, nil)
	var tmp mat.Dense
	for _, C := range rots {
		tmp.Product(C, T, C.T())
		sym.Add(sym, &tmp)
	}
	sym.Scale(1/float64(len(rots)), sym)
	return sym
}

// AdjustForces symmetrizes the forces on the atoms of s.
func (F *FixSymmetry) AdjustForces(s *chem.Structure, forces *v3.Matrix) {
	F.symmetrizeVectors(s.Cell, forces)
}

// AdjustPositions symmetrizes the step from the current positions of s to newpos,
// and sets newpos to the current positions plus the symmetrized step.
func (F *FixSymmetry) AdjustPositions(s *chem.Structure, newpos *v3.Matrix) {
	step := v3.Zeros(newpos.NVecs())
	step.Sub(newpos, s.Coords)
	F.symmetrizeVectors(s.Cell, step)
	newpos.Add(s.Coords, step)
}

// AdjustStress symmetrizes the stress, given in Voigt order (xx, yy, zz, yz, xz, xy).
func (F *FixSymmetry) AdjustStress(s *chem.Structure, stress *[6]float64) {
	v := *stress
	T := mat.NewDense(3, 3, []float64{
		v[0], v[5], v[4],
		v[5], v[1], v[3],
		v[4], v[3], v[2],
	})
	S := F.symmetrizeTensor(s.Cell, T)
	*stress = [6]float64{S.At(0, 0), S.At(1, 1), S.At(2, 2), S.At(1, 2), S.At(0, 2), S.At(0, 1)}
}

// AdjustCell symmetrizes the deformation that takes the cell of s to newcell, and
// replaces newcell with the cell obtained with the symmetrized deformation.
func (F *FixSymmetry) AdjustCell(s *chem.Structure, newcell *v3.Matrix) {
	if s.Cell == nil {
		return
	}
	//newcell = cell·M, the deformation gradient on cartesian column vectors is Mᵀ.
	A := v3.Matrix2Dense(s.Cell)
	var Ainv, M mat.Dense
	if err := Ainv.Inverse(A); err != nil {
		return
	}
	M.Mul(&Ainv, v3.Matrix2Dense(newcell))
	D := mat.DenseCopyOf(M.T())
	D.Sub(D, identity())
	Dsym := F.symmetrizeTensor(s.Cell, D)
	Dsym.Add(Dsym, identity())
	newcell.Mul(A, Dsym.T())
}

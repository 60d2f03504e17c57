/*
 * dynmat.go, part of atomchain.
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
	"math/cmplx"

	v3 "github.com/rmera/atomchain/v3"
	"gonum.org/v1/gonum/mat"
)

// preparePhases stores, for each unit-cell atom and supercell atom, the minimum
// image vectors between them, in fractional coordinates of the unit cell.
func (P *Phonon) preparePhases() error {
	inv := v3.Zeros(3)
	if err := inv.Inverse(P.Unit.Cell); err != nil {
		return Error{"Singular cell", "", []string{"preparePhases"}, true, err}
	}
	N := P.Supercell.Len()
	P.phases = make([][][][3]float64, P.Unit.Len())
	for u := range P.phases {
		P.phases[u] = make([][][3]float64, N)
		for j := 0; j < N; j++ {
			vecs := P.lat.images(P.home[u], j)
			fr := make([][3]float64, len(vecs))
			for k, v := range vecs {
				for c := 0; c < 3; c++ {
					fr[k][c] = v[0]*inv.At(0, c) + v[1]*inv.At(1, c) + v[2]*inv.At(2, c)
				}
			}
			P.phases[u][j] = fr
		}
	}
	return nil
}

// DynamicalMatrix returns the 3n x 3n dynamical matrix, in eV/A^2/amu, at the point q of
// the reciprocal space, given in reduced coordinates of the reciprocal lattice of the
// unit cell. n is the number of atoms in the unit cell.
func (P *Phonon) DynamicalMatrix(q [3]float64) *mat.CDense {
	n := P.Unit.Len()
	D := mat.NewCDense(3*n, 3*n, nil)
	for u := 0; u < n; u++ {
		h := P.home[u]
		for j, vecs := range P.phases[u] {
			v := P.Mapping[j]
			var ph complex128
			for _, f := range vecs {
				arg := 2 * math.Pi * (q[0]*f[0] + q[1]*f[1] + q[2]*f[2])
				ph += cmplx.Exp(complex(0, arg))
			}
			ph /= complex(float64(len(vecs)), 0)
			w := 1 / math.Sqrt(P.masses[u]*P.masses[v])
			for a := 0; a < 3; a++ {
				for b := 0; b < 3; b++ {
					fc := P.fc[P.fcIndex(h, j, a, b)]
					if fc == 0 {
						continue
					}
					D.Set(3*u+a, 3*v+b, D.At(3*u+a, 3*v+b)+complex(fc*w, 0)*ph)
				}
			}
		}
	}
	//hermitize
	for i := 0; i < 3*n; i++ {
		for j := i; j < 3*n; j++ {
			avg := (D.At(i, j) + cmplx.Conj(D.At(j, i))) / 2
			D.Set(i, j, avg)
			D.Set(j, i, cmplx.Conj(avg))
		}
	}
	return D
}

// Frequencies returns the phonon frequencies at the point q (see DynamicalMatrix),
// in ascending order. Imaginary frequencies are returned as negative numbers.
func (P *Phonon) Frequencies(q [3]float64) ([]float64, error) {
	D := P.DynamicalMatrix(q)
	m, _ := D.Dims()
	//the hermitian matrix A+iB has the same eigenvalues as the real symmetric
	//matrix [[A, -B], [B, A]], each of them twice.
	S := mat.NewSymDense(2*m, nil)
	for i := 0; i < m; i++ {
		for j := i; j < m; j++ {
			c := D.At(i, j)
			S.SetSym(i, j, real(c))
			S.SetSym(i+m, j+m, real(c))
			S.SetSym(i, j+m, -imag(c))
			S.SetSym(j, i+m, imag(c))
		}
	}
	var es mat.EigenSym
	if ok := es.Factorize(S, false); !ok {
		return nil, Error{"Diagonalization of the dynamical matrix failed", "", []string{"Frequencies"}, true, nil}
	}
	vals := es.Values(nil)
	ret := make([]float64, m)
	for i := range ret {
		l := vals[2*i]
		ret[i] = math.Copysign(math.Sqrt(math.Abs(l)), l) * P.factor
	}
	return ret, nil
}

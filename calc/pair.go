/*
 * pair.go, part of atomchain.
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

package calc

import (
	"context"
	"math"

	"github.com/rmera/atomchain/chem"
	v3 "github.com/rmera/atomchain/v3"
)

// LJParams are the parameters of a Lennard-Jones potential, in eV and A.
type LJParams struct {
	Epsilon float64
	Sigma   float64
	Cutoff  float64
}

// MorseParams are the parameters of a Morse potential, in eV, 1/A and A.
type MorseParams struct {
	D      float64
	Alpha  float64
	R0     float64
	Cutoff float64
}

// pairFunc returns the pair energy and its derivative with respect to r.
type pairFunc func(r float64) (float64, float64)

// Pair is a calculator for a potential that is a sum of isotropic pair terms,
// truncated and shifted to zero at the cutoff. Periodic images are included
// along the periodic directions of the structure.
type Pair struct {
	name   string
	cutoff float64
	phi    pairFunc
}

// NewLennardJones returns a Lennard-Jones pair calculator.
func NewLennardJones(p LJParams) *Pair {
	lj := func(r float64) (float64, float64) {
		s6 := math.Pow(p.Sigma/r, 6)
		return 4 * p.Epsilon * (s6*s6 - s6), -24 * p.Epsilon * (2*s6*s6 - s6) / r
	}
	return &Pair{name: LJ, cutoff: p.Cutoff, phi: shifted(lj, p.Cutoff)}
}

// NewMorse returns a Morse pair calculator.
func NewMorse(p MorseParams) *Pair {
	morse := func(r float64) (float64, float64) {
		e := math.Exp(-p.Alpha * (r - p.R0))
		return p.D * (e*e - 2*e), -2 * p.Alpha * p.D * (e*e - e)
	}
	return &Pair{name: Morse, cutoff: p.Cutoff, phi: shifted(morse, p.Cutoff)}
}

func shifted(f pairFunc, cutoff float64) pairFunc {
	ec, _ := f(cutoff)
	return func(r float64) (float64, float64) {
		e, de := f(r)
		return e - ec, de
	}
}

// Name returns the name of the potential.
func (P *Pair) Name() string { return P.name }

// Calculate returns the energy, forces and, for periodic structures, the virial stress.
func (P *Pair) Calculate(ctx context.Context, s *chem.Structure) (*Results, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := s.Len()
	forces := v3.Zeros(n)
	var virial [3][3]float64
	energy := 0.0
	periodic := s.Periodic()
	var images [3]int
	var rec *v3.Matrix
	if periodic {
		var err error
		rec, err = s.Reciprocal()
		if err != nil {
			return nil, Error{err.Error(), P.name, "", "", []string{"Calculate"}, true, err}
		}
		for k := 0; k < 3; k++ {
			if s.PBC[k] {
				images[k] = int(math.Ceil(P.cutoff*rec.VecNorm(k) + 0.5))
			}
		}
	}
	rc2 := P.cutoff * P.cutoff
	var d, f0 [3]float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			for k := 0; k < 3; k++ {
				d[k] = s.Coords.At(j, k) - s.Coords.At(i, k)
			}
			if periodic {
				//take the difference to the closest lattice translation first
				for k := 0; k < 3; k++ {
					if !s.PBC[k] {
						continue
					}
					fr := d[0]*rec.At(k, 0) + d[1]*rec.At(k, 1) + d[2]*rec.At(k, 2)
					sh := math.Round(fr)
					for l := 0; l < 3; l++ {
						d[l] -= sh * s.Cell.At(k, l)
					}
				}
			}
			f0 = d
			for a := -images[0]; a <= images[0]; a++ {
				for b := -images[1]; b <= images[1]; b++ {
					for c := -images[2]; c <= images[2]; c++ {
						if i == j && a == 0 && b == 0 && c == 0 {
							continue
						}
						var r2 float64
						for l := 0; l < 3; l++ {
							d[l] = f0[l]
							if periodic {
								d[l] += float64(a)*s.Cell.At(0, l) + float64(b)*s.Cell.At(1, l) + float64(c)*s.Cell.At(2, l)
							}
							r2 += d[l] * d[l]
						}
						if r2 > rc2 {
							continue
						}
						r := math.Sqrt(r2)
						e, de := P.phi(r)
						energy += 0.5 * e
						for l := 0; l < 3; l++ {
							forces.Set(i, l, forces.At(i, l)+de*d[l]/r)
							for m := 0; m < 3; m++ {
								virial[l][m] += 0.5 * de * d[l] * d[m] / r
							}
						}
					}
				}
			}
		}
	}
	res := &Results{Energy: energy, Forces: forces}
	if periodic {
		vol := s.Volume()
		res.Stress = [6]float64{virial[0][0], virial[1][1], virial[2][2], virial[1][2], virial[0][2], virial[0][1]}
		for k := range res.Stress {
			res.Stress[k] /= vol
		}
		res.HasStress = true
	}
	return res, nil
}

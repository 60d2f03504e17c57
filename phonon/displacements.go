/*
 * displacements.go, part of atomchain.
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
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"

	"github.com/rmera/atomchain/calc"
	"github.com/rmera/atomchain/chem"
	v3 "github.com/rmera/atomchain/v3"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// Displacement is a displacement of one supercell atom, with the forces it produces
// on all the atoms of the supercell.
type Displacement struct {
	Atom   int //supercell index
	Vector [3]float64
	Forces *v3.Matrix
	//Source is the index of the displacement this one was obtained from by symmetry,
	//or -1 if its forces were computed.
	Source int
}

// Computed returns the displacements whose forces were computed (or read), i.e. those
// not obtained by symmetry.
func (P *Phonon) Computed() []Displacement {
	ret := make([]Displacement, 0, len(P.Displacements))
	for _, d := range P.Displacements {
		if d.Source < 0 {
			ret = append(ret, d)
		}
	}
	return ret
}

// generateDisplacements displaces the image at the origin of each unit-cell atom
// along x, y and z. Negative displacements are added according to pm.
func (P *Phonon) generateDisplacements(pm string, distance float64) []Displacement {
	ret := make([]Displacement, 0, 6*P.Unit.Len())
	for u := 0; u < P.Unit.Len(); u++ {
		for a := 0; a < 3; a++ {
			var d [3]float64
			d[a] = distance
			ret = append(ret, Displacement{Atom: P.home[u], Vector: d, Source: -1})
			minus := pm == PlusMinusTrue
			if pm == PlusMinusAuto {
				k, _ := P.invertingOperation(P.home[u], d)
				minus = k < 0
			}
			if minus {
				d[a] = -distance
				ret = append(ret, Displacement{Atom: P.home[u], Vector: d, Source: -1})
			}
		}
	}
	return ret
}

// invertingOperation returns the index of a site-symmetry operation of the supercell
// atom a that maps the displacement d onto -d, and the permutation of the supercell
// atoms it produces. It returns -1 if there is none.
func (P *Phonon) invertingOperation(a int, d [3]float64) (int, []int) {
	dv := mat.NewVecDense(3, []float64{d[0], d[1], d[2]})
	n := math.Sqrt(d[0]*d[0] + d[1]*d[1] + d[2]*d[2])
	var r mat.VecDense
	for _, k := range P.dataset.SiteOperations(P.Mapping[a]) {
		r.MulVec(P.rots[k], dv)
		ok := true
		for i := 0; i < 3; i++ {
			if math.Abs(r.AtVec(i)+d[i]) > 1e-6*n {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		perm, ok := P.lat.rotate(P.rots[k], P.Supercell.Coords.RawRowView(a))
		if ok {
			return k, perm
		}
	}
	return -1, nil
}

// complete adds, for each computed displacement without a negative counterpart,
// the negative displacement obtained by a site-symmetry operation, if there is one.
func (P *Phonon) complete() {
	N := P.Supercell.Len()
	n := len(P.Displacements)
	for i := 0; i < n; i++ {
		d := P.Displacements[i]
		if d.Source >= 0 || P.hasOpposite(d) {
			continue
		}
		k, perm := P.invertingOperation(d.Atom, d.Vector)
		if k < 0 {
			continue
		}
		C := P.rots[k]
		f := v3.Zeros(N)
		for j := 0; j < N; j++ {
			for a := 0; a < 3; a++ {
				v := C.At(a, 0)*d.Forces.At(j, 0) + C.At(a, 1)*d.Forces.At(j, 1) + C.At(a, 2)*d.Forces.At(j, 2)
				f.Set(perm[j], a, v)
			}
		}
		var vec [3]float64
		for a := 0; a < 3; a++ {
			vec[a] = -d.Vector[a]
		}
		P.Displacements = append(P.Displacements, Displacement{Atom: perm[d.Atom], Vector: vec, Forces: f, Source: i})
		P.log.Debug().Int("atom", d.Atom).Int("operation", k).Msg("negative displacement from symmetry")
	}
}

func (P *Phonon) hasOpposite(d Displacement) bool {
	for _, e := range P.Displacements {
		if e.Atom != d.Atom {
			continue
		}
		opp := true
		for a := 0; a < 3; a++ {
			if math.Abs(e.Vector[a]+d.Vector[a]) > 1e-8 {
				opp = false
				break
			}
		}
		if opp {
			return true
		}
	}
	return false
}

// DispDir returns the directory where the files for the k-th job are written. Job 0 is
// the undisplaced supercell, job k>0 the displacement k-1.
func DispDir(dir string, k int) string {
	return filepath.Join(dir, fmt.Sprintf("%s%03d", DispPrefix, k))
}

// computeForces obtains the forces for the undisplaced supercell and for each
// displacement, applies the force mask and substracts the residual forces.
func (P *Phonon) computeForces(ctx context.Context, c calc.Calculator, opts *Options) error {
	nd := len(P.Displacements)
	forces := make([]*v3.Matrix, nd+1)
	limit := 1
	if opts.Parallel {
		limit = opts.MaxProcs
		if limit <= 0 {
			limit = runtime.NumCPU()
		}
	}
	P.log.Info().Str("calculator", c.Name()).Int("displacements", nd).Int("procs", limit).Msg("computing forces")
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for k := 0; k <= nd; k++ {
		g.Go(func() error {
			f, err := P.jobForces(gctx, c, k, opts)
			if err != nil {
				return err
			}
			forces[k] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return errDecorate(err, "computeForces")
	}
	for _, f := range forces {
		for j := 0; j < f.NVecs(); j++ {
			for a := 0; a < 3; a++ {
				f.Set(j, a, f.At(j, a)*opts.MaskForce[a])
			}
		}
	}
	P.Residual = forces[0]
	P.log.Debug().Float64("max_residual", P.Residual.MaxVecNorm()).Msg("residual forces")
	for k := range P.Displacements {
		f := forces[k+1]
		f.Sub(f, P.Residual)
		P.Displacements[k].Forces = f
	}
	return nil
}

// jobForces returns the forces for the k-th job (see DispDir).
func (P *Phonon) jobForces(ctx context.Context, c calc.Calculator, k int, opts *Options) (*v3.Matrix, error) {
	s := P.Supercell.Copy()
	if k > 0 {
		d := P.Displacements[k-1]
		for a := 0; a < 3; a++ {
			s.Coords.Set(d.Atom, a, s.Coords.At(d.Atom, a)+d.Vector[a])
		}
	}
	dir := ""
	if opts.Dir != "" {
		dir = DispDir(opts.Dir, k)
		fname := filepath.Join(dir, forcesName)
		if opts.Restart {
			if f, err := ReadForces(fname, s.Len()); err == nil {
				P.log.Debug().Str("file", fname).Msg("reusing forces")
				return f, nil
			}
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, Error{err.Error(), dir, []string{"os.MkdirAll", "jobForces"}, true, nil}
		}
		if err := chem.WriteStructure(filepath.Join(dir, "POSCAR"), s); err != nil {
			return nil, errDecorate(err, "jobForces")
		}
	}
	res, err := c.Calculate(ctx, s)
	if err != nil {
		return nil, Error{fmt.Sprintf("Forces for displacement %d", k), dir, []string{"jobForces"}, true, err}
	}
	if res.Forces == nil || res.Forces.NVecs() != s.Len() {
		return nil, Error{fmt.Sprintf("Wrong forces for displacement %d", k), dir, []string{"jobForces"}, true, nil}
	}
	f := res.Forces.Clone()
	if dir != "" {
		if err := WriteForces(filepath.Join(dir, forcesName), f); err != nil {
			return nil, errDecorate(err, "jobForces")
		}
	}
	P.log.Debug().Int("job", k).Msg("forces computed")
	return f, nil
}

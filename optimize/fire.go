/*
 * fire.go, part of atomchain.
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
	"fmt"
	"math"

	v3 "github.com/rmera/atomchain/v3"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
)

// FIREParams are the parameters of the FIRE algorithm. Times are in the
// ASE units used by the algorithm, MaxStep in A.
type FIREParams struct {
	Dt      float64
	MaxStep float64
	DtMax   float64
	NMin    int
	FInc    float64
	FDec    float64
	AStart  float64
	FA      float64
}

// DefaultFIREParams returns the standard FIRE parameters.
func DefaultFIREParams() FIREParams {
	return FIREParams{
		Dt:      0.1,
		MaxStep: 0.2,
		DtMax:   1.0,
		NMin:    5,
		FInc:    1.1,
		FDec:    0.5,
		AStart:  0.1,
		FA:      0.99,
	}
}

// Observer is a function called by an optimizer after each step.
type Observer func() error

type observer struct {
	f        Observer
	interval int
}

// FIRE implements the Fast Inertial Relaxation Engine of Bitzek et al,
// Phys. Rev. Lett. 97, 170201 (2006).
type FIRE struct {
	target    Optimizable
	p         FIREParams
	dt        float64
	a         float64
	v         []float64
	nPositive int //steps since the last uphill step
	nsteps    int //total steps taken by this optimizer
	observers []observer
	log       zerolog.Logger
	fmax      float64
}

// NewFIRE returns a FIRE optimizer for target. The optional logger receives a
// debug line for each step.
func NewFIRE(target Optimizable, p FIREParams, logger ...zerolog.Logger) *FIRE {
	F := &FIRE{target: target, p: p, dt: p.Dt, a: p.AStart, log: zerolog.Nop()}
	if len(logger) > 0 {
		F.log = logger[0]
	}
	return F
}

// Attach adds an observer, called every interval steps and also before the
// first step. interval < 1 is taken as 1.
func (F *FIRE) Attach(f Observer, interval int) {
	if interval < 1 {
		interval = 1
	}
	F.observers = append(F.observers, observer{f, interval})
}

// Steps returns the number of steps taken by the optimizer.
func (F *FIRE) Steps() int { return F.nsteps }

// FMax returns the largest generalized force norm found in the last convergence check.
func (F *FIRE) FMax() float64 { return F.fmax }

func (F *FIRE) callObservers() error {
	for _, o := range F.observers {
		if F.nsteps%o.interval == 0 {
			if err := o.f(); err != nil {
				return Error{"Observer failed", []string{"callObservers"}, true, err}
			}
		}
	}
	return nil
}

// step performs one FIRE step with the forces f.
func (F *FIRE) step(f *v3.Matrix) error {
	ff := f.Flat()
	if F.v == nil {
		F.v = make([]float64, len(ff))
	} else {
		vf := floats.Dot(ff, F.v)
		if vf > 0 {
			vnorm := floats.Norm(F.v, 2)
			fnorm := floats.Norm(ff, 2)
			floats.Scale(1-F.a, F.v)
			if fnorm > 0 {
				floats.AddScaled(F.v, F.a*vnorm/fnorm, ff)
			}
			if F.nPositive > F.p.NMin {
				F.dt = math.Min(F.dt*F.p.FInc, F.p.DtMax)
				F.a *= F.p.FA
			}
			F.nPositive++
		} else {
			for i := range F.v {
				F.v[i] = 0
			}
			F.a = F.p.AStart
			F.dt *= F.p.FDec
			F.nPositive = 0
		}
	}
	floats.AddScaled(F.v, F.dt, ff)
	dr := make([]float64, len(ff))
	floats.ScaleTo(dr, F.dt, F.v)
	if n := floats.Norm(dr, 2); n > F.p.MaxStep {
		floats.Scale(F.p.MaxStep/n, dr)
	}
	r := F.target.Positions()
	drm, _ := v3.NewMatrix(dr)
	r.Add(r, drm)
	return F.target.SetPositions(r)
}

// converged returns true if the largest row norm of the generalized forces is below fmax.
func (F *FIRE) converged(ctx context.Context, fmax float64) (bool, *v3.Matrix, error) {
	f, err := F.target.Forces(ctx)
	if err != nil {
		return false, nil, err
	}
	F.fmax = f.MaxVecNorm()
	return F.fmax < fmax, f, nil
}

func (F *FIRE) logStep(ctx context.Context) {
	if F.log.GetLevel() > zerolog.DebugLevel {
		return
	}
	e, err := F.target.Energy(ctx)
	if err != nil {
		return
	}
	F.log.Debug().Int("step", F.nsteps).Float64("energy", e).Float64("fmax", F.fmax).Float64("dt", F.dt).Msg("FIRE")
}

// Run optimizes the target until the largest generalized force is below fmax,
// or until steps steps have been taken in this call (steps <= 0 means no limit).
// It returns true if the optimization converged. If the step limit is reached,
// the returned error wraps ErrNotConverged. The context is checked before each step.
func (F *FIRE) Run(ctx context.Context, fmax float64, steps int) (bool, error) {
	conv, f, err := F.converged(ctx, fmax)
	if err != nil {
		return false, Error{"", []string{"Run"}, true, err}
	}
	if F.nsteps == 0 {
		F.logStep(ctx)
		if err := F.callObservers(); err != nil {
			return false, err
		}
	}
	for taken := 0; !conv; taken++ {
		if steps > 0 && taken >= steps {
			return false, Error{fmt.Sprintf("fmax %.5f after %d steps", F.fmax, taken), []string{"Run"}, false, ErrNotConverged}
		}
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if err := F.step(f); err != nil {
			return false, Error{"", []string{"Run"}, true, err}
		}
		F.nsteps++
		conv, f, err = F.converged(ctx, fmax)
		if err != nil {
			return false, Error{"", []string{"Run"}, true, err}
		}
		F.logStep(ctx)
		if err := F.callObservers(); err != nil {
			return false, err
		}
	}
	F.log.Info().Int("steps", F.nsteps).Float64("fmax", F.fmax).Msg("FIRE converged")
	return true, nil
}

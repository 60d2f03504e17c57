/*
 * gap.go, part of atomchain.
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

package gap

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rmera/atomchain/calc"
	"github.com/rmera/atomchain/chem"
	"github.com/rs/zerolog"
)

// BandGapModel is the multi-fidelity band gap model used by MatGLPredictor.
const BandGapModel = "MEGNet-MP-2019.4.1-BandGap-mfi"

// DefaultXC is the functional used when none is given.
const DefaultXC = "PBE"

// ErrUnknownXC is returned (wrapped) for functionals the model was not trained with.
var ErrUnknownXC = errors.New("unknown exchange-correlation functional")

// XC gives the state feature (fidelity) of the model for each functional.
var XC = map[string]int{
	"PBE":     0,
	"GLLB-SC": 1,
	"HSE":     2,
	"SCAN":    3,
}

// Fidelity returns the state feature for the functional xc. The comparison
// ignores case. An empty xc means DefaultXC.
func Fidelity(xc string) (int, error) {
	if xc == "" {
		xc = DefaultXC
	}
	if f, ok := XC[strings.ToUpper(xc)]; ok {
		return f, nil
	}
	return -1, Error{fmt.Sprintf("%q, use one of %s", xc, strings.Join(Functionals(), ", ")), []string{"Fidelity"}, ErrUnknownXC}
}

// Functionals returns the supported functionals, sorted by fidelity.
func Functionals() []string {
	ret := make([]string, 0, len(XC))
	for k := range XC {
		ret = append(ret, k)
	}
	sort.Slice(ret, func(i, j int) bool { return XC[ret[i]] < XC[ret[j]] })
	return ret
}

// Predictor predicts the band gap, in eV, of a structure, at the level
// of theory given by the functional xc.
type Predictor interface {
	PredictGap(ctx context.Context, s *chem.Structure, xc string) (float64, error)
}

// MatGLPredictor predicts band gaps with BandGapModel.
type MatGLPredictor struct {
	bridge *calc.Bridge
	log    zerolog.Logger
}

// NewMatGLPredictor returns a predictor that runs BandGapModel through the model bridge
// configured by opts.
func NewMatGLPredictor(opts ...calc.Option) *MatGLPredictor {
	o := calc.DefaultOptions()
	for _, f := range opts {
		f(o)
	}
	return &MatGLPredictor{bridge: calc.NewBridge(BandGapModel, "", nil, o), log: o.Logger}
}

// PredictGap returns the band gap of s, in eV, for the functional xc.
func (M *MatGLPredictor) PredictGap(ctx context.Context, s *chem.Structure, xc string) (float64, error) {
	fid, err := Fidelity(xc)
	if err != nil {
		return 0, errDecorate(err, "PredictGap")
	}
	res, err := M.bridge.Run(ctx, s, calc.TaskGap, map[string]any{"state_feats": []int{fid}})
	if err != nil {
		return 0, Error{"Running the band gap model", []string{"PredictGap"}, err}
	}
	if res.Gap == nil {
		return 0, Error{"The model returned no band gap", []string{"PredictGap"}, nil}
	}
	M.log.Debug().Str("formula", s.Formula()).Int("fidelity", fid).Float64("gap", *res.Gap).Msg("band gap predicted")
	return *res.Gap, nil
}

// PredictGap predicts the band gap of s, in eV, for the functional xc (DefaultXC if empty)
// with a new MatGLPredictor.
func PredictGap(ctx context.Context, s *chem.Structure, xc string, opts ...calc.Option) (float64, error) {
	g, err := NewMatGLPredictor(opts...).PredictGap(ctx, s, xc)
	return g, errDecorate(err, "gap.PredictGap")
}

// Error is the error type for the gap package.
type Error struct {
	message string
	deco    []string
	err     error
}

// Error returns a string with an error message.
func (err Error) Error() string {
	if err.err != nil {
		return fmt.Sprintf("atomchain/gap: %s: %s", err.err.Error(), err.message)
	}
	return fmt.Sprintf("atomchain/gap: %s", err.message)
}

// Decorate will add the dec string to the decoration slice of strings of the error,
// and return the resulting slice.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// Unwrap returns the error that caused err, if any.
func (err Error) Unwrap() error { return err.err }

func errDecorate(err error, caller string) error {
	if err == nil {
		return nil
	}
	if err2, ok := err.(Error); ok {
		err2.deco = err2.Decorate(caller)
		return err2
	}
	return err
}

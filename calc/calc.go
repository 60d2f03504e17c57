/*
 * calc.go, part of atomchain.
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

package calc

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/rmera/atomchain/chem"
	v3 "github.com/rmera/atomchain/v3"
	"github.com/rs/zerolog"
)

// Model types understood by New.
const (
	MatGL  = "matgl"
	M3GNet = "m3gnet"
	CHGNet = "chgnet"
	DeepMD = "deepmd"
	XTBGFN = "xtb"
	LJ     = "lj"
	Morse  = "morse"
)

// DefaultModel is the model used when none is given.
const DefaultModel = CHGNet

// MatGLPotential is the universal potential loaded for the matgl model type.
const MatGLPotential = "M3GNet-MP-2021.2.8-PES"

// DefaultBridgeCommand is the program that runs the machine-learning models.
const DefaultBridgeCommand = "atomchain-bridge"

// Results contains the quantities computed by a Calculator. Energies are in eV,
// forces in eV/A and the stress, in Voigt order (xx, yy, zz, yz, xz, xy), in eV/A^3,
// with positive values meaning tensile stress.
type Results struct {
	Energy    float64
	Forces    *v3.Matrix
	Stress    [6]float64
	HasStress bool
}

// Copy returns a deep copy of the results.
func (R *Results) Copy() *Results {
	ret := *R
	if R.Forces != nil {
		ret.Forces = R.Forces.Clone()
	}
	return &ret
}

// Calculator is an atomic model. Calculate must not modify s, and must be
// safe to call concurrently with different structures.
type Calculator interface {
	Calculate(ctx context.Context, s *chem.Structure) (*Results, error)
	Name() string
}

// Options contains the settings shared by the calculators created by New.
type Options struct {
	BridgeCommand string
	XTBCommand    string
	GFN           int
	NCPU          int
	WorkDir       string //where the job directories are created
	KeepFiles     bool
	Logger        zerolog.Logger
	Params        map[string]any //extra parameters passed to the model bridge
	LJ            LJParams
	Morse         MorseParams
}

// Option modifies the Options used by New.
type Option func(*Options)

// DefaultOptions returns the options used by New when none are given.
func DefaultOptions() *Options {
	return &Options{
		BridgeCommand: DefaultBridgeCommand,
		XTBCommand:    "xtb",
		GFN:           2,
		NCPU:          runtime.NumCPU() / 2,
		WorkDir:       os.TempDir(),
		Logger:        zerolog.Nop(),
		LJ:            LJParams{Epsilon: 1, Sigma: 1, Cutoff: 3},
		Morse:         MorseParams{D: 1, Alpha: 1, R0: 1, Cutoff: 6},
	}
}

// WithBridgeCommand sets the command that runs the machine-learning models. It can
// contain arguments, i.e. "python -m atomchain_bridge".
func WithBridgeCommand(command string) Option {
	return func(o *Options) {
		if command != "" {
			o.BridgeCommand = command
		}
	}
}

// WithXTBCommand sets the xtb executable.
func WithXTBCommand(command string) Option {
	return func(o *Options) {
		if command != "" {
			o.XTBCommand = command
		}
	}
}

// WithGFN sets the GFN-xTB version (0, 1 or 2) used by the xtb model.
func WithGFN(gfn int) Option {
	return func(o *Options) { o.GFN = gfn }
}

// WithWorkDir sets the directory where the calculation directories are created.
func WithWorkDir(dir string) Option {
	return func(o *Options) {
		if dir != "" {
			o.WorkDir = dir
		}
	}
}

// WithKeepFiles prevents the removal of the calculation directories.
func WithKeepFiles(keep bool) Option {
	return func(o *Options) { o.KeepFiles = keep }
}

// WithLogger sets the logger for the calculators.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithParams adds parameters to be passed to the model bridge.
func WithParams(p map[string]any) Option {
	return func(o *Options) {
		if o.Params == nil {
			o.Params = make(map[string]any, len(p))
		}
		for k, v := range p {
			o.Params[k] = v
		}
	}
}

// WithLJ sets the Lennard-Jones parameters.
func WithLJ(p LJParams) Option {
	return func(o *Options) { o.LJ = p }
}

// WithMorse sets the Morse parameters.
func WithMorse(p MorseParams) Option {
	return func(o *Options) { o.Morse = p }
}

// New returns the calculator for the given model type (case insensitive).
// matgl loads the M3GNet universal potential, m3gnet the default M3GNet model
// or the one in modelPath, chgnet the pretrained CHGNet model and deepmd the
// DeePMD model in modelPath, which is then required. Those run through the model
// bridge. xtb uses the xtb program, lj and morse are in-process pair potentials.
// An empty modelType gives DefaultModel. Other types give an error wrapping
// ErrUnknownModel.
func New(modelType, modelPath string, opts ...Option) (Calculator, error) {
	o := DefaultOptions()
	for _, f := range opts {
		f(o)
	}
	t := strings.ToLower(strings.TrimSpace(modelType))
	if t == "" {
		t = DefaultModel
	}
	params := make(map[string]any)
	for k, v := range o.Params {
		params[k] = v
	}
	switch t {
	case MatGL:
		params["potential"] = MatGLPotential
		params["stress_weight"] = 1.0
		return NewBridge(t, "", params, o), nil
	case M3GNet, CHGNet:
		return NewBridge(t, modelPath, params, o), nil
	case DeepMD:
		if modelPath == "" {
			return nil, Error{ErrModelPath, t, "", "", []string{"New"}, true, nil}
		}
		return NewBridge(t, modelPath, params, o), nil
	case XTBGFN:
		return NewXTB(o), nil
	case LJ:
		return NewLennardJones(o.LJ), nil
	case Morse:
		return NewMorse(o.Morse), nil
	}
	return nil, Error{fmt.Sprintf("%q", modelType), "", "", "", []string{"New"}, true, ErrUnknownModel}
}

// VoigtToTensor returns the 3x3 symmetric tensor for the Voigt vector
// v (xx, yy, zz, yz, xz, xy).
func VoigtToTensor(v [6]float64) *v3.Matrix {
	t := v3.Zeros(3)
	t.Set(0, 0, v[0])
	t.Set(1, 1, v[1])
	t.Set(2, 2, v[2])
	t.Set(1, 2, v[3])
	t.Set(2, 1, v[3])
	t.Set(0, 2, v[4])
	t.Set(2, 0, v[4])
	t.Set(0, 1, v[5])
	t.Set(1, 0, v[5])
	return t
}

// TensorToVoigt returns the Voigt vector of the symmetric part of the 3x3 tensor t.
func TensorToVoigt(t *v3.Matrix) [6]float64 {
	return [6]float64{
		t.At(0, 0),
		t.At(1, 1),
		t.At(2, 2),
		0.5 * (t.At(1, 2) + t.At(2, 1)),
		0.5 * (t.At(0, 2) + t.At(2, 0)),
		0.5 * (t.At(0, 1) + t.At(1, 0)),
	}
}

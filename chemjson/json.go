/*
 * json.go, part of atomchain.
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

package chemjson

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/rmera/atomchain/chem"
	v3 "github.com/rmera/atomchain/v3"
)

// NonPeriodicBox is the side, in A, of the cubic box given to non-periodic
// structures, which pymatgen can't represent as Structures.
const NonPeriodicBox = 100.0

// Lattice is the pymatgen Lattice dictionary.
type Lattice struct {
	Module string       `json:"@module"`
	Class  string       `json:"@class"`
	Matrix [][3]float64 `json:"matrix"`
	PBC    [3]bool      `json:"pbc"`
	A      float64      `json:"a"`
	B      float64      `json:"b"`
	C      float64      `json:"c"`
	Alpha  float64      `json:"alpha"`
	Beta   float64      `json:"beta"`
	Gamma  float64      `json:"gamma"`
	Volume float64      `json:"volume"`
}

// Species is one of the (possibly partially occupied) species in a site.
type Species struct {
	Element string  `json:"element"`
	Occu    float64 `json:"occu"`
}

// Site is a pymatgen PeriodicSite dictionary.
type Site struct {
	Species    []Species      `json:"species"`
	ABC        [3]float64     `json:"abc"`
	XYZ        [3]float64     `json:"xyz"`
	Label      string         `json:"label"`
	Properties map[string]any `json:"properties"`
}

// Structure is the pymatgen Structure dictionary, as produced by Structure.as_dict().
type Structure struct {
	Module     string         `json:"@module"`
	Class      string         `json:"@class"`
	Charge     float64        `json:"charge"`
	Lattice    Lattice        `json:"lattice"`
	Properties map[string]any `json:"properties"`
	Sites      []Site         `json:"sites"`
}

// Encode returns the pymatgen dictionary for S. Non-periodic structures
// are placed in a cubic box of side NonPeriodicBox.
func Encode(S *chem.Structure) (*Structure, error) {
	const funcname = "Encode"
	if S == nil || S.Coords == nil {
		return nil, NewError(funcname, fmt.Errorf("nil structure"))
	}
	T := S
	if !S.Periodic() {
		T = S.Copy()
		T.Cell = v3.Zeros(3)
		for i := 0; i < 3; i++ {
			T.Cell.Set(i, i, NonPeriodicBox)
		}
	}
	frac, err := T.Scaled()
	if err != nil {
		return nil, NewError(funcname, err)
	}
	P := &Structure{
		Module:     "pymatgen.core.structure",
		Class:      "Structure",
		Charge:     float64(S.Charge()),
		Properties: map[string]any{},
		Sites:      make([]Site, 0, S.Len()),
	}
	P.Lattice = lattice(T.Cell, S.PBC)
	for i := 0; i < S.Len(); i++ {
		at := S.Atom(i)
		site := Site{
			Species:    []Species{{Element: at.Symbol, Occu: 1}},
			Label:      at.Symbol,
			Properties: map[string]any{},
		}
		for j := 0; j < 3; j++ {
			site.ABC[j] = frac.At(i, j)
			site.XYZ[j] = T.Coords.At(i, j)
		}
		P.Sites = append(P.Sites, site)
	}
	return P, nil
}

func lattice(cell *v3.Matrix, pbc [3]bool) Lattice {
	L := Lattice{Module: "pymatgen.core.lattice", Class: "Lattice", PBC: pbc}
	L.Matrix = make([][3]float64, 3)
	var norms [3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			L.Matrix[i][j] = cell.At(i, j)
		}
		norms[i] = cell.VecNorm(i)
	}
	angle := func(i, j int) float64 {
		d := cell.VecView(i).Dot(cell.VecView(j)) / (norms[i] * norms[j])
		return chem.Rad2Deg(math.Acos(math.Max(-1, math.Min(1, d))))
	}
	L.A, L.B, L.C = norms[0], norms[1], norms[2]
	L.Alpha, L.Beta, L.Gamma = angle(1, 2), angle(0, 2), angle(0, 1)
	L.Volume = math.Abs(v3.Det(cell))
	return L
}

// Decode builds a chem.Structure from a pymatgen dictionary. Sites with
// several species take the one with the largest occupation. Cartesian
// coordinates are used when present, fractional ones otherwise.
func Decode(P *Structure) (*chem.Structure, error) {
	const funcname = "Decode"
	if len(P.Lattice.Matrix) != 3 {
		return nil, NewError(funcname, fmt.Errorf("the lattice needs 3 vectors, got %d", len(P.Lattice.Matrix)))
	}
	symbols := make([]string, len(P.Sites))
	for i, s := range P.Sites {
		if len(s.Species) == 0 {
			return nil, NewError(funcname, fmt.Errorf("site %d has no species", i))
		}
		best := s.Species[0]
		for _, sp := range s.Species[1:] {
			if sp.Occu > best.Occu {
				best = sp
			}
		}
		symbols[i] = best.Element
	}
	top, err := chem.TopologyFromSymbols(symbols)
	if err != nil {
		return nil, NewError(funcname, err)
	}
	top.SetCharge(int(math.Round(P.Charge)))
	cell := v3.Zeros(3)
	for i, v := range P.Lattice.Matrix {
		for j := 0; j < 3; j++ {
			cell.Set(i, j, v[j])
		}
	}
	pbc := P.Lattice.PBC
	if pbc == [3]bool{} {
		//older pymatgen versions don't write the pbc key
		pbc = [3]bool{true, true, true}
	}
	S, err := chem.NewStructure(top, v3.Zeros(len(P.Sites)), cell, pbc)
	if err != nil {
		return nil, NewError(funcname, err)
	}
	frac := v3.Zeros(len(P.Sites))
	usexyz := true
	for i, s := range P.Sites {
		if s.XYZ == [3]float64{} && s.ABC != [3]float64{} {
			usexyz = false
		}
		for j := 0; j < 3; j++ {
			S.Coords.Set(i, j, s.XYZ[j])
			frac.Set(i, j, s.ABC[j])
		}
	}
	if !usexyz {
		if err := S.SetScaled(frac); err != nil {
			return nil, NewError(funcname, err)
		}
	}
	return S, nil
}

// WriteStructure encodes S as a pymatgen dictionary and writes it to out.
func WriteStructure(out io.Writer, S *chem.Structure) error {
	P, err := Encode(S)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", " ")
	if err := enc.Encode(P); err != nil {
		return NewError("WriteStructure", err)
	}
	return nil
}

// ReadStructure reads a pymatgen dictionary from in and decodes it.
func ReadStructure(in io.Reader) (*chem.Structure, error) {
	P := new(Structure)
	if err := json.NewDecoder(in).Decode(P); err != nil {
		return nil, NewError("ReadStructure", err)
	}
	return Decode(P)
}

// Request is the document sent to an external model program.
type Request struct {
	Structure *Structure     `json:"structure"`
	Model     string         `json:"model"`
	ModelPath string         `json:"model_path,omitempty"`
	Task      string         `json:"task"`
	Params    map[string]any `json:"params,omitempty"`
}

// Result is the document returned by an external model program. Fields
// not computed for the task are left out. Stress is in Voigt order
// (xx, yy, zz, yz, xz, xy), eV/A^3.
type Result struct {
	Energy *float64     `json:"energy,omitempty"`
	Forces [][3]float64 `json:"forces,omitempty"`
	Stress []float64    `json:"stress,omitempty"`
	Gap    *float64     `json:"gap,omitempty"`
	Error  string       `json:"error,omitempty"`
}

// ForcesMatrix returns the forces in the result as a v3.Matrix, or nil if
// the result has no forces.
func (R *Result) ForcesMatrix() *v3.Matrix {
	if len(R.Forces) == 0 {
		return nil
	}
	ret := v3.Zeros(len(R.Forces))
	for i, v := range R.Forces {
		for j := 0; j < 3; j++ {
			ret.Set(i, j, v[j])
		}
	}
	return ret
}

// Error is an easily JSON-serializable error type.
type Error struct {
	deco     []string
	Function string //which go function gave the error
	Message  string //the error itself
	err      error
}

// NewError takes an error and the function where it happened to
// create a json-marshal-able error.
func NewError(function string, err error) *Error {
	return &Error{Function: function, Message: err.Error(), err: err, deco: []string{function}}
}

// Error implements the error interface
func (J *Error) Error() string {
	return "atomchain/chemjson: " + J.Function + ": " + J.Message
}

// Unwrap returns the error that originated J, if any.
func (J *Error) Unwrap() error { return J.err }

// Decorate will add the dec string to the decoration slice of strings of the error,
// and return the resulting slice.
func (J *Error) Decorate(dec string) []string {
	if dec == "" {
		return J.deco
	}
	J.deco = append(J.deco, dec)
	return J.deco
}

// Marshal serializes the error. Panics on failure.
func (J *Error) Marshal() []byte {
	ret, err2 := json.Marshal(J)
	if err2 != nil {
		panic(strings.Join([]string{J.Error(), err2.Error()}, " - "))
	}
	return ret
}

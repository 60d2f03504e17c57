/*
 * atom.go, part of atomchain.
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

package chem

import (
	"fmt"
	"sort"
	"strings"
)

// Atom contains the atoms read except for the coordinates, which will be in a matrix.
type Atom struct {
	Name   string
	ID     int
	Tag    int //Just added this for something that someone might want to keep that is not a float.
	Mass   float64
	Charge float64
	Symbol string
}

// Copy returns a copy of the Atom object.
func (A *Atom) Copy() *Atom {
	if A == nil {
		panic("Attempted to copy a nil atom")
	}
	ret := *A
	return &ret
}

/*****Topology type***/

// Topology contains information about a system which is not expected to change
// during a relaxation (i.e. everything except for coordinates and cell)
type Topology struct {
	Atoms  []*Atom
	charge int
	multi  int
}

// NewTopology returns a topology with the given atoms, charge and multiplicity.
// If multi is less than 1, it is set to 1.
func NewTopology(ats []*Atom, charge, multi int) *Topology {
	if multi < 1 {
		multi = 1
	}
	return &Topology{Atoms: ats, charge: charge, multi: multi}
}

// TopologyFromSymbols builds a topology, with masses filled in, from a
// list of element symbols. It returns an error if a symbol is not known.
func TopologyFromSymbols(symbols []string) (*Topology, error) {
	ats := make([]*Atom, 0, len(symbols))
	for i, v := range symbols {
		s := normalizeSymbol(v)
		m, ok := SymbolMass(s)
		if !ok {
			return nil, CError{fmt.Sprintf("Unknown element symbol %q", v), "", []string{"TopologyFromSymbols"}, true}
		}
		ats = append(ats, &Atom{Name: s, Symbol: s, ID: i + 1, Mass: m})
	}
	return NewTopology(ats, 0, 1), nil
}

//Topology methods

// Charge gets the total charge of the topology
func (T *Topology) Charge() int {
	return T.charge
}

// Multi returns the multiplicity of the topology
func (T *Topology) Multi() int {
	if T.multi < 1 {
		return 1
	}
	return T.multi
}

// SetCharge sets the total charge of the topology to i
func (T *Topology) SetCharge(i int) {
	T.charge = i
}

// SetMulti sets the multiplicity of the topology to i
func (T *Topology) SetMulti(i int) {
	T.multi = i
}

// Copy returns a deep copy of the topology
func (T *Topology) Copy() *Topology {
	top := new(Topology)
	top.Atoms = make([]*Atom, T.Len())
	for key, val := range T.Atoms {
		top.Atoms[key] = val.Copy()
	}
	top.charge = T.charge
	top.multi = T.multi
	return top
}

// Atom returns the Atom corresponding to the index i
// of the Atom slice in the Topology. Panics if
// out of range.
func (T *Topology) Atom(i int) *Atom {
	if i >= T.Len() {
		panic("Topology: Requested Atom out of bounds")
	}
	return T.Atoms[i]
}

// Len returns the number of atoms in the topology.
func (T *Topology) Len() int {
	return len(T.Atoms)
}

// Symbols returns a slice with the element symbols of all atoms.
func (T *Topology) Symbols() []string {
	ret := make([]string, T.Len())
	for i, v := range T.Atoms {
		ret[i] = v.Symbol
	}
	return ret
}

// Masses returns a slice with the masses of each atom. Masses that
// are zero are taken from the element tables (and set in the atom).
// Returns an error if a mass can't be obtained.
func (T *Topology) Masses() ([]float64, error) {
	mass := make([]float64, T.Len())
	for i, v := range T.Atoms {
		if v.Mass == 0 {
			m, ok := SymbolMass(v.Symbol)
			if !ok {
				return nil, CError{fmt.Sprintf("Can't obtain the mass of atom %d (%s)", i, v.Symbol), "", []string{"Masses"}, true}
			}
			v.Mass = m
		}
		mass[i] = v.Mass
	}
	return mass, nil
}

// Formula returns the chemical formula of the topology, with the elements
// in alphabetical order, i.e. "ClNa" for NaCl.
func (T *Topology) Formula() string {
	count := make(map[string]int)
	for _, v := range T.Atoms {
		count[v.Symbol]++
	}
	syms := make([]string, 0, len(count))
	for k := range count {
		syms = append(syms, k)
	}
	sort.Strings(syms)
	var b strings.Builder
	for _, s := range syms {
		b.WriteString(s)
		if count[s] > 1 {
			fmt.Fprintf(&b, "%d", count[s])
		}
	}
	return b.String()
}

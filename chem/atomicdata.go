/*
 * atomicdata.go, part of atomchain.
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

package chem

import "strings"

// Standard atomic weights, in atomic mass units, ordered by atomic number.
// For elements without stable isotopes the mass of the longest-lived
// isotope is used.
var elements = [...]struct {
	symbol string
	mass   float64
}{
	{"H", 1.008}, {"He", 4.002602}, {"Li", 6.94}, {"Be", 9.0121831}, {"B", 10.81},
	{"C", 12.011}, {"N", 14.007}, {"O", 15.999}, {"F", 18.998403163}, {"Ne", 20.1797},
	{"Na", 22.98976928}, {"Mg", 24.305}, {"Al", 26.9815385}, {"Si", 28.085}, {"P", 30.973761998},
	{"S", 32.06}, {"Cl", 35.45}, {"Ar", 39.948}, {"K", 39.0983}, {"Ca", 40.078},
	{"Sc", 44.955908}, {"Ti", 47.867}, {"V", 50.9415}, {"Cr", 51.9961}, {"Mn", 54.938044},
	{"Fe", 55.845}, {"Co", 58.933194}, {"Ni", 58.6934}, {"Cu", 63.546}, {"Zn", 65.38},
	{"Ga", 69.723}, {"Ge", 72.630}, {"As", 74.921595}, {"Se", 78.971}, {"Br", 79.904},
	{"Kr", 83.798}, {"Rb", 85.4678}, {"Sr", 87.62}, {"Y", 88.90584}, {"Zr", 91.224},
	{"Nb", 92.90637}, {"Mo", 95.95}, {"Tc", 97.90721}, {"Ru", 101.07}, {"Rh", 102.90550},
	{"Pd", 106.42}, {"Ag", 107.8682}, {"Cd", 112.414}, {"In", 114.818}, {"Sn", 118.710},
	{"Sb", 121.760}, {"Te", 127.60}, {"I", 126.90447}, {"Xe", 131.293}, {"Cs", 132.90545196},
	{"Ba", 137.327}, {"La", 138.90547}, {"Ce", 140.116}, {"Pr", 140.90766}, {"Nd", 144.242},
	{"Pm", 144.91276}, {"Sm", 150.36}, {"Eu", 151.964}, {"Gd", 157.25}, {"Tb", 158.92535},
	{"Dy", 162.500}, {"Ho", 164.93033}, {"Er", 167.259}, {"Tm", 168.93422}, {"Yb", 173.054},
	{"Lu", 174.9668}, {"Hf", 178.49}, {"Ta", 180.94788}, {"W", 183.84}, {"Re", 186.207},
	{"Os", 190.23}, {"Ir", 192.217}, {"Pt", 195.084}, {"Au", 196.966569}, {"Hg", 200.592},
	{"Tl", 204.38}, {"Pb", 207.2}, {"Bi", 208.98040}, {"Po", 208.98243}, {"At", 209.98715},
	{"Rn", 222.01758}, {"Fr", 223.01974}, {"Ra", 226.02541}, {"Ac", 227.02775}, {"Th", 232.0377},
	{"Pa", 231.03588}, {"U", 238.02891}, {"Np", 237.04817}, {"Pu", 244.06421},
}

var symbolIndex map[string]int

func init() {
	symbolIndex = make(map[string]int, len(elements))
	for i, v := range elements {
		symbolIndex[v.symbol] = i
	}
}

// normalizeSymbol capitalizes the first letter of a symbol and
// lowercases the rest, so "CL" and "cl" become "Cl". Trailing labels
// such as in "Fe1" or "O_a" are removed.
func normalizeSymbol(s string) string {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && end < 2 {
		c := s[end]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
			break
		}
		end++
	}
	s = s[:end]
	if s == "" {
		return s
	}
	ret := strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
	if _, ok := symbolIndex[ret]; !ok && len(ret) == 2 {
		//things like "Ca" are fine, but "CA" from a label like "CA1" could be "C"
		if _, ok := symbolIndex[ret[:1]]; ok {
			return ret[:1]
		}
	}
	return ret
}

// SymbolMass returns the standard atomic mass of the element with the given
// symbol, and whether the element was found.
func SymbolMass(symbol string) (float64, bool) {
	i, ok := symbolIndex[symbol]
	if !ok {
		return 0, false
	}
	return elements[i].mass, true
}

// AtomicNumber returns the atomic number for the symbol, or 0 if
// the element is not known.
func AtomicNumber(symbol string) int {
	i, ok := symbolIndex[symbol]
	if !ok {
		return 0
	}
	return i + 1
}

// ElementSymbol returns the symbol for the atomic number z, or an
// empty string if z is out of range.
func ElementSymbol(z int) string {
	if z < 1 || z > len(elements) {
		return ""
	}
	return elements[z-1].symbol
}

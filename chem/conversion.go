/*
 * conversion.go, part of atomchain.
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

import "math"

// Conversion factors. Energies in atomchain are in eV, distances in Angstrom,
// masses in atomic mass units and frequencies in THz, unless noted.
const (
	Hartree2eV    = 27.211386245988
	Bohr2Angstrom = 0.529177210903
	Angstrom2Bohr = 1 / Bohr2Angstrom
	H2Kcal        = 627.509 //HArtree 2 Kcal/mol
	Kcal2eV       = Hartree2eV / H2Kcal
	//VaspToTHz converts the square root of eigenvalues of the dynamical matrix
	//in eV/(Angstrom^2 amu) to THz. sqrt(eV/amu)/Angstrom/(2pi)/1e12.
	VaspToTHz = 15.633302
	THz2Cm    = 33.35641 //THz to cm^-1
	THz2meV   = 4.1356676
	EVA3ToGPa = 160.21766208 //eV/A^3 to GPa
)

// Deg2Rad converts degrees to radians
func Deg2Rad(f float64) float64 {
	return f * math.Pi / 180
}

// Rad2Deg converts radians to degrees
func Rad2Deg(f float64) float64 {
	return f * 180 / math.Pi
}

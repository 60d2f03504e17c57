/*
 * doc.go, part of atomchain.
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

//Package phonon computes phonons with the finite-displacement (frozen phonon)
//method. A supercell of the structure is built, each atom of the unit cell is
//displaced along the cartesian axes, and the forces obtained with a calc.Calculator
//give the force constants, from which the dynamical matrix, the phonon band
//structure and the density of states are obtained.
//
//Force constants are in eV/A^2, masses in atomic mass units, and frequencies
//in THz (with the default conversion factor, chem.VaspToTHz). Imaginary
//frequencies are returned as negative numbers.
//
//The displacements and forces can be stored in the phonopy FORCE_SETS format,
//and the band structure in a phonopy-style band.yaml file.
package phonon

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

//Package atomchain relaxes crystal structures and computes their phonons and
//band gaps with machine-learning interatomic potentials.
//
//RelaxWithML relaxes the atoms, and optionally the cell, of a structure with
//the FIRE algorithm, keeping its symmetry. PhononWithML runs a finite-displacement
//phonon calculation, optionally after a relaxation, and plots the band structure.
//The potentials are provided by the calc package: the machine-learning models
//(CHGNet, M3GNet, DeePMD) run through an external model bridge, while xtb and
//simple pair potentials are also available. Band gaps are predicted by the gap
//package.
package atomchain

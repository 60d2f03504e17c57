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
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

/*
Package chem provides atom, topology and structure types, facilities for reading and writing
some files used in computational materials science and some functions for geometric
manipulations of periodic and non-periodic systems.

	**Capabilities**

	Reads/writes VASP POSCAR/CONTCAR files (VASP5 format, direct or cartesian coordinates,
	negative scale factors as target volumes).

	Reads/writes XYZ and extended XYZ files (Lattice and pbc keys in the comment line).
	All the writes are atomic: the file is written to a temporary file and renamed.

	A Structure contains a Topology (atoms, total charge and multiplicity), the cartesian
	coordinates of the atoms, and, for periodic systems, the cell vectors and the periodic
	boundary conditions.

	Builds supercells from integer transformation matrices, keeping track of the unit-cell
	atom that each supercell atom images.

	Converts between cartesian and fractional coordinates, wraps atoms into the cell and
	rattles structures with reproducible gaussian noise.

The coordinates are kept in v3.Matrix objects, one row per atom, in Angstrom.
*/
package chem

/*
 * interfaces.go, part of atomchain.
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

// Atomer is anything that gives access to a list of atoms.
type Atomer interface {
	Atom(i int) *Atom //panics if i is out of range
	Len() int
}

// AtomMultiCharger is an Atomer with a total charge and a spin multiplicity,
// which is what quantum chemistry programs need besides the coordinates.
type AtomMultiCharger interface {
	Atomer
	Charge() int
	Multi() int
}

// Error is implemented by the errors of all the atomchain packages. Decorate adds
// the name of a function in the call stack, plus, optionally, some extra information
// ("Function: info"), and returns the resulting list. An empty string only returns it.
type Error interface {
	Error() string
	Decorate(string) []string
}

// TrajError is an error reading or writing a trajectory file.
type TrajError interface {
	Error
	Critical() bool
	FileName() string
	Format() string
}

// LastFrameError is returned when a trajectory has no more frames. It is not a
// failure, and it is told apart from other TrajErrors by its marker method.
type LastFrameError interface {
	TrajError
	NormalLastFrameTermination()
}

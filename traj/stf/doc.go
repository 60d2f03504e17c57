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

//Package stf implements the simple trajectory format, used by atomchain to
//store relaxation trajectories. stf aims to produce reasonably small files that
//are very easy to read and write from other programs and languages.

/******************** Format Specification   ***************************************************

A STF file is compressed with z-standard (zstd), unless its name ends in "z" (gzip),
"r" (raw deflate) or "l" (lzw). It may only contain ASCII symbols.

A STF file has a "header" starting in the first line, and ending with a line that starts with the
characters "**" followed by one or more spaces, and the number of atoms per frame.

Each line of the header is a pair key=value. The precision (an integer greater than 0, see
below) is given with the key "prec". The element symbols of the atoms, separated by spaces,
may be given with the key "symbols", which allows rebuilding the structures from the file.

After the header, the file has one line per atom, per frame. Each line contains 3 integers,
the x y and z cartesian coordinates in Angstrom, multiplied by 10 to the power of the
precision and rounded.

Each frame ends with a line starting with the character "*" (no whitespaces before), optionally
followed by one or more whitespace and 9 floating-point numbers separated by spaces. If present,
these numbers are the cell vectors, in Angstrom, one after the other.

The "**" sequence may only be used as a header termination.

***************************************************************************************************/
package stf

/*
 * poscar.go, part of atomchain.
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

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	v3 "github.com/rmera/atomchain/v3"
)

// ReadPOSCAR reads a VASP POSCAR/CONTCAR structure. Both the VASP5 format (with
// a line with the element symbols) and the VASP4 format (where the symbols are
// taken from the comment line) are supported. A negative scale factor is
// interpreted as the target volume of the cell.
func ReadPOSCAR(r io.Reader) (*Structure, error) {
	sc := bufio.NewScanner(r)
	lines := make([]string, 0, 64)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, CError{err.Error(), "", []string{"ReadPOSCAR"}, true}
	}
	if len(lines) < 8 {
		return nil, CError{"POSCAR too short", "", []string{"ReadPOSCAR"}, true}
	}
	comment := lines[0]
	sf := strings.Fields(lines[1])
	if len(sf) == 0 {
		return nil, CError{"Missing scale factor", "", []string{"ReadPOSCAR"}, true}
	}
	scale, err := strconv.ParseFloat(sf[0], 64)
	if err != nil {
		return nil, CError{"Can't read the scale factor: " + err.Error(), "", []string{"ReadPOSCAR"}, true}
	}
	cell := v3.Zeros(3)
	for i := 0; i < 3; i++ {
		f := strings.Fields(lines[2+i])
		if len(f) < 3 {
			return nil, CError{fmt.Sprintf("Malformed cell vector %d", i+1), "", []string{"ReadPOSCAR"}, true}
		}
		for j := 0; j < 3; j++ {
			c, err := strconv.ParseFloat(f[j], 64)
			if err != nil {
				return nil, CError{fmt.Sprintf("Can't read cell vector %d: %s", i+1, err.Error()), "", []string{"ReadPOSCAR"}, true}
			}
			cell.Set(i, j, c)
		}
	}
	if scale < 0 {
		vol := math.Abs(v3.Det(cell))
		scale = math.Cbrt(-scale / vol)
	}
	cell.Scale(scale, cell)
	cur := 5
	var species []string
	first := strings.Fields(lines[cur])
	if len(first) == 0 {
		return nil, CError{"Missing species or atom counts", "", []string{"ReadPOSCAR"}, true}
	}
	if _, err := strconv.Atoi(first[0]); err != nil {
		species = first
		cur++
	} else {
		//VASP4, the species should be in the comment line.
		species = strings.Fields(comment)
	}
	countf := strings.Fields(lines[cur])
	cur++
	if len(species) < len(countf) {
		return nil, CError{"Can't determine the element symbols", "", []string{"ReadPOSCAR"}, true}
	}
	symbols := make([]string, 0, 32)
	for i, v := range countf {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, CError{"Can't read the atom counts: " + err.Error(), "", []string{"ReadPOSCAR"}, true}
		}
		for j := 0; j < n; j++ {
			symbols = append(symbols, species[i])
		}
	}
	if cur < len(lines) && strings.HasPrefix(strings.ToLower(strings.TrimSpace(lines[cur])), "s") {
		cur++ //selective dynamics
	}
	if cur >= len(lines) {
		return nil, CError{"POSCAR too short", "", []string{"ReadPOSCAR"}, true}
	}
	mode := strings.ToLower(strings.TrimSpace(lines[cur]))
	cur++
	cartesian := strings.HasPrefix(mode, "c") || strings.HasPrefix(mode, "k")
	natoms := len(symbols)
	if len(lines) < cur+natoms {
		return nil, CError{fmt.Sprintf("Expected %d atoms, found %d coordinate lines", natoms, len(lines)-cur), "", []string{"ReadPOSCAR"}, true}
	}
	coords := v3.Zeros(natoms)
	for i := 0; i < natoms; i++ {
		f := strings.Fields(lines[cur+i])
		if len(f) < 3 {
			return nil, CError{fmt.Sprintf("Malformed coordinates for atom %d", i+1), "", []string{"ReadPOSCAR"}, true}
		}
		for j := 0; j < 3; j++ {
			c, err := strconv.ParseFloat(f[j], 64)
			if err != nil {
				return nil, CError{fmt.Sprintf("Can't read coordinates of atom %d: %s", i+1, err.Error()), "", []string{"ReadPOSCAR"}, true}
			}
			coords.Set(i, j, c)
		}
	}
	top, err := TopologyFromSymbols(symbols)
	if err != nil {
		return nil, errDecorate(err, "ReadPOSCAR")
	}
	S, err := NewStructure(top, v3.Zeros(natoms), cell, [3]bool{true, true, true})
	if err != nil {
		return nil, errDecorate(err, "ReadPOSCAR")
	}
	if cartesian {
		coords.Scale(scale, coords)
		S.Coords = coords
	} else if err := S.SetScaled(coords); err != nil {
		return nil, errDecorate(err, "ReadPOSCAR")
	}
	return S, nil
}

// WritePOSCAR writes S in the VASP5 POSCAR format, with direct coordinates.
// Consecutive atoms of the same element are grouped, the order of the atoms is not changed.
func WritePOSCAR(out io.Writer, S *Structure) error {
	if !S.Periodic() {
		return CError{ErrNotPeriodic, "", []string{"WritePOSCAR"}, true}
	}
	frac, err := S.Scaled()
	if err != nil {
		return errDecorate(err, "WritePOSCAR")
	}
	var species []string
	var counts []string
	for i := 0; i < S.Len(); {
		s := S.Atom(i).Symbol
		j := i
		for j < S.Len() && S.Atom(j).Symbol == s {
			j++
		}
		species = append(species, s)
		counts = append(counts, strconv.Itoa(j-i))
		i = j
	}
	w := bufio.NewWriter(out)
	fmt.Fprintf(w, "%s\n", strings.Join(species, " "))
	fmt.Fprintf(w, "%19.14f\n", 1.0)
	for i := 0; i < 3; i++ {
		fmt.Fprintf(w, " %21.16f %21.16f %21.16f\n", S.Cell.At(i, 0), S.Cell.At(i, 1), S.Cell.At(i, 2))
	}
	fmt.Fprintf(w, " %s\n", strings.Join(species, " "))
	fmt.Fprintf(w, " %s\n", strings.Join(counts, " "))
	fmt.Fprintf(w, "Direct\n")
	for i := 0; i < S.Len(); i++ {
		fmt.Fprintf(w, " %19.16f %19.16f %19.16f\n", frac.At(i, 0), frac.At(i, 1), frac.At(i, 2))
	}
	if err := w.Flush(); err != nil {
		return CError{err.Error(), "", []string{"WritePOSCAR"}, true}
	}
	return nil
}

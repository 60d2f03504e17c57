/*
 * xyz.go, part of atomchain.
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
	"strconv"
	"strings"

	v3 "github.com/rmera/atomchain/v3"
)

// ReadXYZ reads all the frames in an XYZ or extended XYZ file. If the comment
// line of a frame contains a Lattice key, the frame is read as a periodic
// structure, with the PBC given by the pbc key (default "T T T").
// Only the element symbol and the first three numbers of each atom line are read.
func ReadXYZ(r io.Reader) ([]*Structure, error) {
	br := bufio.NewReader(r)
	frames := make([]*Structure, 0, 1)
	for {
		S, err := readXYZFrame(br)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errDecorate(err, fmt.Sprintf("ReadXYZ: frame %d", len(frames)))
		}
		frames = append(frames, S)
	}
	if len(frames) == 0 {
		return nil, CError{"No frames found", "", []string{"ReadXYZ"}, true}
	}
	return frames, nil
}

func readXYZFrame(br *bufio.Reader) (*Structure, error) {
	var line string
	var err error
	//skip empty lines between frames
	for {
		line, err = br.ReadString('\n')
		if strings.TrimSpace(line) != "" {
			break
		}
		if err != nil {
			return nil, io.EOF
		}
	}
	natoms, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return nil, CError{"Can't read the number of atoms: " + err.Error(), "", []string{"readXYZFrame"}, true}
	}
	comment, err := br.ReadString('\n')
	if err != nil && comment == "" {
		return nil, CError{"Missing comment line", "", []string{"readXYZFrame"}, true}
	}
	info := ParseExtXYZComment(comment)
	symbols := make([]string, natoms)
	coords := v3.Zeros(natoms)
	for i := 0; i < natoms; i++ {
		line, err = br.ReadString('\n')
		if err != nil && line == "" {
			return nil, CError{fmt.Sprintf("Expected %d atoms, found %d", natoms, i), "", []string{"readXYZFrame"}, true}
		}
		f := strings.Fields(line)
		if len(f) < 4 {
			return nil, CError{fmt.Sprintf("Malformed line for atom %d", i+1), "", []string{"readXYZFrame"}, true}
		}
		symbols[i] = f[0]
		if z, err := strconv.Atoi(f[0]); err == nil {
			symbols[i] = ElementSymbol(z)
		}
		for j := 0; j < 3; j++ {
			c, err := strconv.ParseFloat(f[j+1], 64)
			if err != nil {
				return nil, CError{fmt.Sprintf("Can't read coordinates of atom %d: %s", i+1, err.Error()), "", []string{"readXYZFrame"}, true}
			}
			coords.Set(i, j, c)
		}
	}
	top, err := TopologyFromSymbols(symbols)
	if err != nil {
		return nil, errDecorate(err, "readXYZFrame")
	}
	var cell *v3.Matrix
	var pbc [3]bool
	if lat, ok := info["lattice"]; ok {
		f := strings.Fields(lat)
		if len(f) != 9 {
			return nil, CError{"The Lattice key must contain 9 numbers", "", []string{"readXYZFrame"}, true}
		}
		data := make([]float64, 9)
		for i, v := range f {
			data[i], err = strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, CError{"Can't read the Lattice key: " + err.Error(), "", []string{"readXYZFrame"}, true}
			}
		}
		cell, _ = v3.NewMatrix(data)
		pbc = [3]bool{true, true, true}
		if p, ok := info["pbc"]; ok {
			pf := strings.Fields(p)
			for i := 0; i < 3 && i < len(pf); i++ {
				pbc[i] = strings.HasPrefix(strings.ToUpper(pf[i]), "T")
			}
		}
	}
	if c, ok := info["charge"]; ok {
		if q, err := strconv.Atoi(c); err == nil {
			top.SetCharge(q)
		}
	}
	if m, ok := info["multiplicity"]; ok {
		if q, err := strconv.Atoi(m); err == nil {
			top.SetMulti(q)
		}
	}
	return NewStructure(top, coords, cell, pbc)
}

// ParseExtXYZComment parses the key=value pairs in an extended XYZ comment line.
// Values can be quoted with double quotes. Keys are returned in lowercase.
// Tokens without a "=" are stored with the value "T".
func ParseExtXYZComment(comment string) map[string]string {
	ret := make(map[string]string)
	s := strings.TrimSpace(comment)
	for len(s) > 0 {
		s = strings.TrimLeft(s, " \t")
		if s == "" {
			break
		}
		var key, val string
		eq := strings.IndexAny(s, "= \t")
		if eq < 0 {
			ret[strings.ToLower(s)] = "T"
			break
		}
		key = s[:eq]
		if s[eq] != '=' {
			ret[strings.ToLower(key)] = "T"
			s = s[eq:]
			continue
		}
		s = s[eq+1:]
		if strings.HasPrefix(s, "\"") {
			end := strings.Index(s[1:], "\"")
			if end < 0 {
				val = s[1:]
				s = ""
			} else {
				val = s[1 : end+1]
				s = s[end+2:]
			}
		} else {
			end := strings.IndexAny(s, " \t")
			if end < 0 {
				val = s
				s = ""
			} else {
				val = s[:end]
				s = s[end:]
			}
		}
		ret[strings.ToLower(key)] = val
	}
	return ret
}

// WriteXYZ writes S as an XYZ frame to out. If S is periodic, the frame is written in
// the extended XYZ format, with the Lattice and pbc keys. comment, if not empty, is
// appended to the comment line.
func WriteXYZ(out io.Writer, S *Structure, comment string) error {
	w := bufio.NewWriter(out)
	fmt.Fprintf(w, "%d\n", S.Len())
	keys := make([]string, 0, 4)
	if S.Cell != nil {
		f := S.Cell.Flat()
		s := make([]string, len(f))
		for i, v := range f {
			s[i] = strconv.FormatFloat(v, 'f', 8, 64)
		}
		keys = append(keys, fmt.Sprintf("Lattice=\"%s\"", strings.Join(s, " ")))
		keys = append(keys, "Properties=species:S:1:pos:R:3")
		p := make([]string, 3)
		for i, v := range S.PBC {
			p[i] = "F"
			if v {
				p[i] = "T"
			}
		}
		keys = append(keys, fmt.Sprintf("pbc=\"%s\"", strings.Join(p, " ")))
	}
	if S.Charge() != 0 || S.Multi() != 1 {
		keys = append(keys, fmt.Sprintf("charge=%d multiplicity=%d", S.Charge(), S.Multi()))
	}
	if comment != "" {
		keys = append(keys, comment)
	}
	fmt.Fprintf(w, "%s\n", strings.Join(keys, " "))
	for i := 0; i < S.Len(); i++ {
		fmt.Fprintf(w, "%-2s  %15.8f %15.8f %15.8f\n", S.Atom(i).Symbol, S.Coords.At(i, 0), S.Coords.At(i, 1), S.Coords.At(i, 2))
	}
	if err := w.Flush(); err != nil {
		return CError{err.Error(), "", []string{"WriteXYZ"}, true}
	}
	return nil
}

// XYZFileWrite writes the coordinates and atoms to an XYZ file. Unlike WriteStructure
// it doesn't need a Structure, so it can be used to write, for instance, input
// files for external programs.
func XYZFileWrite(name string, coords *v3.Matrix, atoms Atomer) error {
	if coords == nil || atoms == nil || coords.NVecs() != atoms.Len() {
		return CError{ErrLenMismatch, name, []string{"XYZFileWrite"}, true}
	}
	return WriteFileAtomic(name, func(out io.Writer) error {
		fmt.Fprintf(out, "%d\n\n", atoms.Len())
		for i := 0; i < atoms.Len(); i++ {
			if _, err := fmt.Fprintf(out, "%-2s  %15.8f %15.8f %15.8f\n", atoms.Atom(i).Symbol, coords.At(i, 0), coords.At(i, 1), coords.At(i, 2)); err != nil {
				return CError{err.Error(), name, []string{"XYZFileWrite"}, true}
			}
		}
		return nil
	})
}

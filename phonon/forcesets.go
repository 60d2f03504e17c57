/*
 * forcesets.go, part of atomchain.
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

package phonon

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rmera/atomchain/chem"
	v3 "github.com/rmera/atomchain/v3"
)

// WriteForceSets writes the computed displacements (those with Source<0) and their
// forces to name, in the phonopy FORCE_SETS format. natoms is the number of atoms
// in the supercell. The file is written atomically.
func WriteForceSets(name string, natoms int, disps []Displacement) error {
	computed := make([]Displacement, 0, len(disps))
	for _, d := range disps {
		if d.Source < 0 {
			computed = append(computed, d)
		}
	}
	err := chem.WriteFileAtomic(name, func(out io.Writer) error {
		fmt.Fprintf(out, "%d\n%d\n", natoms, len(computed))
		for _, d := range computed {
			if d.Forces == nil || d.Forces.NVecs() != natoms {
				return Error{fmt.Sprintf("Missing forces for the displacement of atom %d", d.Atom), name, []string{"WriteForceSets"}, true, nil}
			}
			fmt.Fprintf(out, "\n%d\n", d.Atom+1)
			fmt.Fprintf(out, "  %20.16f %20.16f %20.16f\n", d.Vector[0], d.Vector[1], d.Vector[2])
			for j := 0; j < natoms; j++ {
				if _, err := fmt.Fprintf(out, "  %15.10f %15.10f %15.10f\n", d.Forces.At(j, 0), d.Forces.At(j, 1), d.Forces.At(j, 2)); err != nil {
					return Error{err.Error(), name, []string{"WriteForceSets"}, true, nil}
				}
			}
		}
		return nil
	})
	return errDecorate(err, "WriteForceSets")
}

// ReadForceSets reads a phonopy FORCE_SETS file (type 1). It returns the number
// of atoms in the supercell, and the displacements with their forces.
// If the file doesn't exist, the error wraps fs.ErrNotExist.
func ReadForceSets(name string) (int, []Displacement, error) {
	f, err := os.Open(name)
	if err != nil {
		return 0, nil, Error{"", name, []string{"os.Open", "ReadForceSets"}, true, err}
	}
	defer f.Close()
	lines := make([]string, 0, 128)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		l := strings.TrimSpace(sc.Text())
		if l != "" && !strings.HasPrefix(l, "#") {
			lines = append(lines, l)
		}
	}
	if err := sc.Err(); err != nil {
		return 0, nil, Error{"", name, []string{"Scan", "ReadForceSets"}, true, err}
	}
	if len(lines) < 2 {
		return 0, nil, Error{"File too short", name, []string{"ReadForceSets"}, true, nil}
	}
	natoms, err1 := strconv.Atoi(lines[0])
	ndisp, err2 := strconv.Atoi(lines[1])
	if err1 != nil || err2 != nil || natoms < 1 {
		return 0, nil, Error{"Can't read the number of atoms and displacements", name, []string{"ReadForceSets"}, true, nil}
	}
	if len(lines) < 2+ndisp*(natoms+2) {
		return 0, nil, Error{fmt.Sprintf("Expected %d displacements of %d atoms", ndisp, natoms), name, []string{"ReadForceSets"}, true, nil}
	}
	disps := make([]Displacement, ndisp)
	cur := 2
	for k := range disps {
		at, err := strconv.Atoi(strings.Fields(lines[cur])[0])
		if err != nil || at < 1 || at > natoms {
			return 0, nil, Error{fmt.Sprintf("Wrong atom index in displacement %d", k+1), name, []string{"ReadForceSets"}, true, err}
		}
		vec, err := parse3(lines[cur+1])
		if err != nil {
			return 0, nil, Error{fmt.Sprintf("Displacement %d", k+1), name, []string{"ReadForceSets"}, true, err}
		}
		forces := v3.Zeros(natoms)
		for j := 0; j < natoms; j++ {
			fv, err := parse3(lines[cur+2+j])
			if err != nil {
				return 0, nil, Error{fmt.Sprintf("Forces of displacement %d", k+1), name, []string{"ReadForceSets"}, true, err}
			}
			forces.SetRow(j, fv[:])
		}
		disps[k] = Displacement{Atom: at - 1, Vector: vec, Forces: forces, Source: -1}
		cur += natoms + 2
	}
	return natoms, disps, nil
}

func parse3(line string) ([3]float64, error) {
	var ret [3]float64
	f := strings.Fields(line)
	if len(f) < 3 {
		return ret, fmt.Errorf("expected 3 numbers in %q", line)
	}
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(f[i], 64)
		if err != nil {
			return ret, err
		}
		ret[i] = v
	}
	return ret, nil
}

// WriteForces writes the forces, one atom per line, to name.
func WriteForces(name string, forces *v3.Matrix) error {
	err := chem.WriteFileAtomic(name, func(out io.Writer) error {
		for j := 0; j < forces.NVecs(); j++ {
			if _, err := fmt.Fprintf(out, "%22.14e %22.14e %22.14e\n", forces.At(j, 0), forces.At(j, 1), forces.At(j, 2)); err != nil {
				return Error{err.Error(), name, []string{"WriteForces"}, true, nil}
			}
		}
		return nil
	})
	return errDecorate(err, "WriteForces")
}

// ReadForces reads the forces on natoms atoms written by WriteForces.
func ReadForces(name string, natoms int) (*v3.Matrix, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, Error{"", name, []string{"os.Open", "ReadForces"}, true, err}
	}
	defer f.Close()
	ret := v3.Zeros(natoms)
	sc := bufio.NewScanner(f)
	i := 0
	for sc.Scan() {
		l := strings.TrimSpace(sc.Text())
		if l == "" {
			continue
		}
		if i >= natoms {
			return nil, Error{"Too many atoms", name, []string{"ReadForces"}, true, nil}
		}
		v, err := parse3(l)
		if err != nil {
			return nil, Error{"", name, []string{"ReadForces"}, true, err}
		}
		ret.SetRow(i, v[:])
		i++
	}
	if i != natoms {
		return nil, Error{fmt.Sprintf("Expected %d atoms, found %d", natoms, i), name, []string{"ReadForces"}, true, nil}
	}
	return ret, nil
}

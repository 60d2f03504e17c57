/*
 * xtb.go, part of atomchain.
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
//In order to use this part of the library you need the xtb program, which must be obtained from Prof. Stefan Grimme's group.
//Please cite the the xtb references if you used the program.

/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

package calc

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rmera/atomchain/chem"
	v3 "github.com/rmera/atomchain/v3"
	"github.com/rs/zerolog"
)

// XTB runs single-point gradient calculations with the GFN-xTB methods, through
// the xtb program. Only non-periodic structures are supported.
type XTB struct {
	command string
	gfn     int
	nCPU    int
	workdir string
	keep    bool
	log     zerolog.Logger
}

// NewXTB returns an xtb calculator. A nil o gives the defaults.
func NewXTB(o *Options) *XTB {
	if o == nil {
		o = DefaultOptions()
	}
	return &XTB{
		command: o.XTBCommand,
		gfn:     o.GFN,
		nCPU:    o.NCPU,
		workdir: o.WorkDir,
		keep:    o.KeepFiles,
		log:     o.Logger.With().Str("model", XTBGFN).Logger(),
	}
}

// Name returns the name of the calculator.
func (O *XTB) Name() string { return XTBGFN }

// Calculate runs xtb with the --grad option and collects the energy and forces
// from the gradient file, converting them to eV and eV/A.
func (O *XTB) Calculate(ctx context.Context, s *chem.Structure) (*Results, error) {
	if s.Periodic() {
		return nil, Error{ErrNotMolecule, XTBGFN, "", "", []string{"Calculate"}, true, nil}
	}
	inputname := "job"
	dir := filepath.Join(O.workdir, "atomchain-xtb-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, Error{ErrCantInput, XTBGFN, inputname, err.Error(), []string{"os.MkdirAll", "Calculate"}, true, err}
	}
	if !O.keep {
		defer os.RemoveAll(dir)
	}
	if err := chem.XYZFileWrite(filepath.Join(dir, inputname+".xyz"), s.Coords, s); err != nil {
		return nil, Error{ErrCantInput, XTBGFN, inputname, err.Error(), []string{"chem.XYZFileWrite", "Calculate"}, true, err}
	}
	options := O.args(inputname+".xyz", s)
	out, err := os.Create(filepath.Join(dir, inputname+".out"))
	if err != nil {
		return nil, Error{ErrCantInput, XTBGFN, inputname, err.Error(), []string{"os.Create", "Calculate"}, true, err}
	}
	defer out.Close()
	command := exec.CommandContext(ctx, O.command, options...)
	command.Dir = dir
	command.WaitDelay = 5 * time.Second
	command.Stdout = out
	command.Stderr = out
	O.log.Debug().Str("dir", dir).Strs("options", options).Msg("running xtb")
	if err := command.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, Error{ErrNotRunning, XTBGFN, inputname, err.Error(), []string{"exec.Run", "Calculate"}, true, err}
	}
	if searchBackwards("abnormal termination of x", filepath.Join(dir, inputname+".out")) != "" {
		return nil, Error{ErrNotRunning, XTBGFN, inputname, "Calculation didn't end normally", []string{"Calculate"}, true, nil}
	}
	energy, grad, err := readGradient(filepath.Join(dir, "gradient"), s.Len())
	if err != nil {
		return nil, errDecorate(err, "Calculate")
	}
	grad.Scale(-chem.Hartree2eV*chem.Angstrom2Bohr, grad)
	return &Results{Energy: energy * chem.Hartree2eV, Forces: grad}, nil
}

// readGradient reads the energy (Hartree) and the gradient (Hartree/Bohr) from a
// Turbomole-format gradient file, as written by xtb. Only the last cycle is read.
// args returns the command line for a gradient calculation on the molecule in
// the file xyzname, with charge and multiplicity taken from mol.
func (O *XTB) args(xyzname string, mol chem.AtomMultiCharger) []string {
	gfn := O.gfn
	if gfn < 0 || gfn > 2 {
		gfn = 2 //default method
	}
	options := []string{xyzname, "--grad", "--gfn", strconv.Itoa(gfn), "-c", strconv.Itoa(mol.Charge()), "-u", strconv.Itoa(mol.Multi() - 1)}
	if O.nCPU > 1 {
		options = append(options, "-P", strconv.Itoa(O.nCPU))
	}
	return options
}

func readGradient(name string, natoms int) (float64, *v3.Matrix, error) {
	f, err := os.Open(name)
	if err != nil {
		return 0, nil, Error{ErrNoForces, XTBGFN, name, err.Error(), []string{"os.Open", "readGradient"}, true, err}
	}
	defer f.Close()
	lines := make([]string, 0, 2*natoms+4)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return 0, nil, Error{ErrNoForces, XTBGFN, name, err.Error(), []string{"bufio.Scan", "readGradient"}, true, err}
	}
	cycle := -1
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.Contains(lines[i], "cycle =") {
			cycle = i
			break
		}
	}
	if cycle < 0 || len(lines) < cycle+1+2*natoms {
		return 0, nil, Error{ErrNoForces, XTBGFN, name, "gradient file too short", []string{"readGradient"}, true, nil}
	}
	var energy float64
	fields := strings.Fields(lines[cycle])
	for i, v := range fields {
		if v == "energy" && i+2 < len(fields) {
			energy, err = strconv.ParseFloat(dToE(fields[i+2]), 64)
			if err != nil {
				return 0, nil, Error{ErrNoEnergy, XTBGFN, name, err.Error(), []string{"strconv.ParseFloat", "readGradient"}, true, err}
			}
			break
		}
	}
	grad := v3.Zeros(natoms)
	start := cycle + 1 + natoms //skip the coordinates
	for i := 0; i < natoms; i++ {
		f := strings.Fields(lines[start+i])
		if len(f) < 3 {
			return 0, nil, Error{ErrNoForces, XTBGFN, name, fmt.Sprintf("malformed gradient for atom %d", i+1), []string{"readGradient"}, true, nil}
		}
		for j := 0; j < 3; j++ {
			g, err := strconv.ParseFloat(dToE(f[j]), 64)
			if err != nil {
				return 0, nil, Error{ErrNoForces, XTBGFN, name, err.Error(), []string{"strconv.ParseFloat", "readGradient"}, true, err}
			}
			grad.Set(i, j, g)
		}
	}
	return energy, grad, nil
}

// dToE replaces the Fortran D exponent with an E.
func dToE(s string) string {
	return strings.Replace(strings.Replace(s, "D", "E", 1), "d", "e", 1)
}

// searchBackwards searches a file, starting from the end, for a string. Returns the line that contains the string, or an empty string.
func searchBackwards(str, filename string) string {
	data, err := os.ReadFile(filename)
	if err != nil {
		return ""
	}
	lines := strings.Split(string(data), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.Contains(lines[i], str) {
			return lines[i]
		}
	}
	return ""
}

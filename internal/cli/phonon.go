/*
 * phonon.go, part of atomchain.
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

package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rmera/atomchain"
	"github.com/rmera/atomchain/chem"
	"github.com/rmera/atomchain/internal/config"
	"github.com/spf13/cobra"
)

// PhononCommand returns the mlphonon command, which computes the phonon band
// structure of a crystal with a machine-learning potential.
func PhononCommand() *cobra.Command {
	cmd, a := newCommand("mlphonon", "Compute phonons with a machine-learning potential", runPhonon)
	cmd.Long = `Computes the phonons of a crystal by finite displacements in a supercell, with the
forces given by a machine-learning potential. The force sets are written in phonopy
format, together with the band structure (band.yaml) and its plot.`
	cmd.Example = `  mlphonon POSCAR --ndim 2,2,2 --knames GXMGR
  mlphonon NaCl.vasp --relax --parallel --knames GXL --kvectors 0,0,0,0.5,0,0.5,0.5,0.5,0.5`
	addPhononFlags(cmd, a)
	addRelaxFlags(cmd, a)
	return cmd
}

func joinInts(v []int) string {
	s := make([]string, len(v))
	for i, n := range v {
		s[i] = strconv.Itoa(n)
	}
	return strings.Join(s, ",")
}

func addPhononFlags(cmd *cobra.Command, a *app) {
	d := config.Defaults().Phonon
	f := cmd.Flags()
	f.Bool("relax", d.Relax, "relax the structure before computing the phonons")
	f.Bool("plot", d.Plot, "plot the band structure")
	f.String("ndim", joinInts(d.Ndim), "supercell size along each lattice vector, i.e. 2,2,2")
	f.Float64("distance", d.Distance, "displacement length, A")
	f.String("plusminus", d.PlusMinus, "plus-minus displacements: auto, true or false")
	f.Bool("symmetry", d.Symmetry, "use the crystal symmetry")
	f.Float64("symprec", d.Symprec, "symmetry tolerance, A")
	f.Bool("parallel", d.Parallel, "evaluate the displaced supercells concurrently")
	f.Int("max-procs", d.MaxProcs, "concurrent evaluations with --parallel, 0 for the number of CPUs")
	f.Bool("restart", d.Restart, "reuse the forces found in the displacement directories")
	f.String("force-sets", d.ForceSets, "FORCE_SETS file to read, or to write if it doesn't exist")
	f.String("dir", d.Dir, "directory for the phonon files, empty for none")
	f.String("knames", d.Knames, "names of the path points, i.e. GXMGR or G,X,M")
	f.String("kvectors", "", "flattened reduced coordinates of the path points, i.e. 0,0,0,0.5,0,0")
	f.Int("npoints", d.Npoints, "q-points per path segment")
	f.String("figname", d.Figname, "band structure plot, its extension sets the format")
	f.String("dos", d.DOS, "density of states plot, empty for none")
	f.String("dos-mesh", joinInts(d.DOSMesh), "q-point mesh for the density of states, i.e. 8,8,8")
	f.Int("dos-bins", d.DOSBins, "frequency bins of the density of states")
	a.bind(map[string]string{
		"phonon.relax":      "relax",
		"phonon.plot":       "plot",
		"phonon.ndim":       "ndim",
		"phonon.distance":   "distance",
		"phonon.plusminus":  "plusminus",
		"phonon.symmetry":   "symmetry",
		"phonon.symprec":    "symprec",
		"phonon.parallel":   "parallel",
		"phonon.max_procs":  "max-procs",
		"phonon.restart":    "restart",
		"phonon.force_sets": "force-sets",
		"phonon.dir":        "dir",
		"phonon.knames":     "knames",
		"phonon.kvectors":   "kvectors",
		"phonon.npoints":    "npoints",
		"phonon.figname":    "figname",
		"phonon.dos":        "dos",
		"phonon.dos_mesh":   "dos-mesh",
		"phonon.dos_bins":   "dos-bins",
	}, cmd)
}

func runPhonon(cmd *cobra.Command, a *app, s *chem.Structure) error {
	opts := a.cfg.PhononOptions(a.log)
	P, err := atomchain.PhononWithML(cmd.Context(), s, opts)
	if err != nil {
		return err
	}
	gamma, err := P.Frequencies([3]float64{})
	if err != nil {
		return err
	}
	a.log.Info().Int("displacements", len(P.Computed())).Int("supercell", P.Supercell.Len()).Msg("phonons computed")
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Frequencies at Gamma (THz):\n")
	for i, f := range gamma {
		if _, err := fmt.Fprintf(out, "%4d %10.4f\n", i+1, f); err != nil {
			return err
		}
	}
	return nil
}

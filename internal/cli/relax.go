/*
 * relax.go, part of atomchain.
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

	"github.com/rmera/atomchain"
	"github.com/rmera/atomchain/chem"
	"github.com/rmera/atomchain/internal/config"
	"github.com/spf13/cobra"
)

// RelaxCommand returns the mlrelax command, which relaxes a structure with a
// machine-learning potential.
func RelaxCommand() *cobra.Command {
	cmd, a := newCommand("mlrelax", "Relax a structure with a machine-learning potential", runRelax)
	cmd.Long = `Relaxes the atomic positions and, by default, the cell of a structure with the FIRE
algorithm, keeping its symmetry. The relaxed structure is written in VASP format and
the last stage of the optimization is recorded in a compressed trajectory.`
	cmd.Example = `  mlrelax POSCAR --model chgnet --fmax 0.005
  mlrelax Si.vasp --model lj --relax-cell=false --output Si_relax.vasp`
	addRelaxFlags(cmd, a)
	return cmd
}

func addRelaxFlags(cmd *cobra.Command, a *app) {
	d := config.Defaults().Relax
	f := cmd.Flags()
	f.Float64("fmax", d.Fmax, "force convergence criterion, eV/A")
	f.Bool("relax-cell", d.RelaxCell, "relax the cell together with the atoms")
	f.Bool("sym", d.Sym, "keep the symmetry of the structure")
	f.Float64("cell-factor", d.CellFactor, "scale of the cell degrees of freedom")
	f.Float64("rattle", d.Rattle, "standard deviation of a random initial displacement, A")
	f.String("traj", d.Traj, "trajectory file, empty for none")
	f.String("output", d.Output, "relaxed structure file, empty for none")
	f.Int("max-steps", d.MaxSteps, "maximum steps for each optimization stage")
	f.Duration("cache-ttl", config.Defaults().CacheTTL, "reuse the results for identical structures for this long, 0 for no cache")
	a.bind(map[string]string{
		"relax.fmax":        "fmax",
		"relax.relax_cell":  "relax-cell",
		"relax.sym":         "sym",
		"relax.cell_factor": "cell-factor",
		"relax.rattle":      "rattle",
		"relax.traj":        "traj",
		"relax.output":      "output",
		"relax.max_steps":   "max-steps",
		"cache_ttl":         "cache-ttl",
	}, cmd)
}

func runRelax(cmd *cobra.Command, a *app, s *chem.Structure) error {
	opts := a.cfg.RelaxOptions(a.log)
	r, err := atomchain.RelaxWithML(cmd.Context(), s, opts)
	if err != nil {
		return err
	}
	ev := a.log.Info().Str("formula", r.Formula()).Float64("volume", r.Volume())
	if opts.OutputFile != "" {
		ev = ev.Str("output", opts.OutputFile)
	}
	ev.Msg("relaxed")
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s relaxed, volume %.4f A^3\n", r.Formula(), r.Volume())
	return err
}

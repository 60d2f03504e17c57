/*
 * gap.go, part of atomchain.
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

	"github.com/rmera/atomchain/chem"
	"github.com/rmera/atomchain/gap"
	"github.com/spf13/cobra"
)

// GapCommand returns the mlgap command, which predicts the band gap of a crystal.
func GapCommand() *cobra.Command {
	cmd, a := newCommand("mlgap", "Predict the band gap of a crystal", runGap)
	cmd.Long = `Predicts the band gap of a crystal with the multi-fidelity MEGNet model. The
fidelity is the exchange-correlation functional the gap corresponds to.`
	cmd.Example = `  mlgap POSCAR --xc HSE`
	cmd.Flags().String("xc", gap.DefaultXC, fmt.Sprintf("functional, one of %v", gap.Functionals()))
	a.bind(map[string]string{"gap.xc": "xc"}, cmd)
	return cmd
}

func runGap(cmd *cobra.Command, a *app, s *chem.Structure) error {
	p := gap.NewMatGLPredictor(a.cfg.CalcOptions(a.log)...)
	g, err := p.PredictGap(cmd.Context(), s, a.cfg.Gap.XC)
	if err != nil {
		return err
	}
	a.log.Info().Str("xc", a.cfg.Gap.XC).Float64("gap", g).Msg("band gap predicted")
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%.4f eV\n", g)
	return err
}

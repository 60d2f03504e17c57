/*
 * cli.go, part of atomchain.
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

// Package cli builds the atomchain commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rmera/atomchain/chem"
	"github.com/rmera/atomchain/internal/config"
	"github.com/rmera/atomchain/internal/log"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app holds what every command needs once its flags are parsed.
type app struct {
	name    string
	v       *viper.Viper
	cfgFile string
	cfg     config.Config
	log     zerolog.Logger
}

// newCommand returns a command taking one structure file, with the flags shared by
// all the commands. The configuration is loaded and the logger set up before run
// is called.
func newCommand(name, short string, run func(cmd *cobra.Command, a *app, s *chem.Structure) error) (*cobra.Command, *app) {
	a := &app{name: name, v: viper.New()}
	d := config.Defaults()
	cmd := &cobra.Command{
		Use:           name + " STRUCTURE",
		Short:         short,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.v, a.cfgFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			log.Configure(log.Config{Level: cfg.Log.Level, Output: cmd.ErrOrStderr(), Service: "atomchain", Console: cfg.Log.Console})
			a.log = log.Derive(func(c *zerolog.Context) {
				*c = c.Str("component", name).Str("structure", args[0])
			})
			if used := a.v.ConfigFileUsed(); used != "" {
				a.log.Debug().Str("file", used).Msg("configuration read")
			}
			s, err := chem.ReadStructure(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			return run(cmd, a, s)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&a.cfgFile, "config", "c", "", "config file (default: ./atomchain.yaml or ~/.config/atomchain/config.yaml)")
	f.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
	f.Bool("log-console", d.Log.Console, "human-readable logs instead of JSON")
	f.String("model", d.Model, "model type: chgnet, m3gnet, matgl, deepmd, xtb, lj or morse")
	f.String("model-path", d.ModelPath, "path to the model files, if needed")
	f.String("bridge", d.Bridge.Command, "command that runs the machine-learning models")
	a.bind(map[string]string{
		"log.level":      "log-level",
		"log.console":    "log-console",
		"model":          "model",
		"model_path":     "model-path",
		"bridge.command": "bridge",
	}, cmd)
	return cmd, a
}

// bind binds the flags given as values to the configuration keys.
func (a *app) bind(keys map[string]string, cmd *cobra.Command) {
	for key, flag := range keys {
		if err := a.v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			panic(fmt.Sprintf("binding flag %s: %v", flag, err))
		}
	}
}

// Execute runs cmd until it finishes or the process is interrupted, and returns
// the exit code: 0 on success, 1 on any error.
func Execute(cmd *cobra.Command) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cmd.ExecuteContext(ctx); err != nil {
		l := log.WithComponent(cmd.Name())
		l.Error().Err(err).Msg("failed")
		return 1
	}
	return 0
}

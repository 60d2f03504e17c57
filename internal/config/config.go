/*
 * config.go, part of atomchain.
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

// Package config loads the settings of the atomchain commands from an optional
// YAML file, ATOMCHAIN_ environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rmera/atomchain"
	"github.com/rmera/atomchain/calc"
	"github.com/rmera/atomchain/chem"
	"github.com/rmera/atomchain/gap"
	"github.com/rmera/atomchain/phonon"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of the environment variables read, i.e.
// ATOMCHAIN_RELAX_FMAX sets relax.fmax.
const EnvPrefix = "ATOMCHAIN"

// LocalFile is the configuration file looked for in the current directory.
const LocalFile = "atomchain.yaml"

// Config holds all configuration options for the atomchain commands.
type Config struct {
	Model     string        `mapstructure:"model"`
	ModelPath string        `mapstructure:"model_path"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"` //0 disables the result cache
	Bridge    BridgeConfig  `mapstructure:"bridge"`
	XTB       XTBConfig     `mapstructure:"xtb"`
	Log       LogConfig     `mapstructure:"log"`
	Relax     RelaxConfig   `mapstructure:"relax"`
	Phonon    PhononConfig  `mapstructure:"phonon"`
	Gap       GapConfig     `mapstructure:"gap"`
}

// BridgeConfig configures the external program that runs the machine-learning models.
type BridgeConfig struct {
	Command   string `mapstructure:"command"`
	WorkDir   string `mapstructure:"workdir"`
	KeepFiles bool   `mapstructure:"keep_files"`
}

// XTBConfig configures the xtb program.
type XTBConfig struct {
	Command string `mapstructure:"command"`
	GFN     int    `mapstructure:"gfn"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

// RelaxConfig holds the settings of a relaxation.
type RelaxConfig struct {
	Fmax       float64 `mapstructure:"fmax"`
	RelaxCell  bool    `mapstructure:"relax_cell"`
	Sym        bool    `mapstructure:"sym"`
	Symprec    float64 `mapstructure:"symprec"`
	CellFactor float64 `mapstructure:"cell_factor"`
	Rattle     float64 `mapstructure:"rattle"`
	Traj       string  `mapstructure:"traj"`
	Output     string  `mapstructure:"output"`
	MaxSteps   int     `mapstructure:"max_steps"`
}

// PhononConfig holds the settings of a phonon calculation.
type PhononConfig struct {
	Relax     bool      `mapstructure:"relax"`
	Plot      bool      `mapstructure:"plot"`
	Ndim      []int     `mapstructure:"ndim"`
	Distance  float64   `mapstructure:"distance"`
	PlusMinus string    `mapstructure:"plusminus"`
	Symmetry  bool      `mapstructure:"symmetry"`
	Symprec   float64   `mapstructure:"symprec"`
	Parallel  bool      `mapstructure:"parallel"`
	MaxProcs  int       `mapstructure:"max_procs"`
	Restart   bool      `mapstructure:"restart"`
	ForceSets string    `mapstructure:"force_sets"`
	Dir       string    `mapstructure:"dir"`
	Knames    string    `mapstructure:"knames"`
	Kvectors  []float64 `mapstructure:"kvectors"` //flattened reduced coordinates
	Npoints   int       `mapstructure:"npoints"`
	Figname   string    `mapstructure:"figname"`
	DOS       string    `mapstructure:"dos"` //density of states plot, empty for none
	DOSMesh   []int     `mapstructure:"dos_mesh"`
	DOSBins   int       `mapstructure:"dos_bins"`
}

// GapConfig holds the settings of a band gap prediction.
type GapConfig struct {
	XC string `mapstructure:"xc"`
}

// Defaults returns the default configuration.
func Defaults() Config {
	return Config{
		Model:  calc.DefaultModel,
		Bridge: BridgeConfig{Command: calc.DefaultBridgeCommand, WorkDir: os.TempDir()},
		XTB:    XTBConfig{Command: "xtb", GFN: 2},
		Log:    LogConfig{Level: "info"},
		Relax: RelaxConfig{
			Fmax:       atomchain.DefaultFmax,
			RelaxCell:  true,
			Sym:        true,
			Symprec:    atomchain.DefaultSymprec,
			CellFactor: atomchain.DefaultCellFactor,
			Traj:       atomchain.DefaultTrajFile,
			Output:     atomchain.DefaultOutputFile,
			MaxSteps:   atomchain.DefaultMaxSteps,
		},
		Phonon: PhononConfig{
			Plot:      true,
			Ndim:      []int{2, 2, 2},
			Distance:  0.05,
			PlusMinus: phonon.PlusMinusAuto,
			Symmetry:  true,
			Symprec:   1e-3,
			Dir:       ".",
			Knames:    "GXMGR",
			Npoints:   atomchain.DefaultNpoints,
			Figname:   atomchain.DefaultFigname,
			DOSMesh:   append([]int(nil), atomchain.DefaultDOSMesh[:]...),
			DOSBins:   atomchain.DefaultDOSBins,
		},
		Gap: GapConfig{XC: gap.DefaultXC},
	}
}

// SetDefaults registers the default configuration in v. Every key needs a default
// for the environment variables to be considered.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("model", d.Model)
	v.SetDefault("model_path", d.ModelPath)
	v.SetDefault("cache_ttl", d.CacheTTL)
	v.SetDefault("bridge.command", d.Bridge.Command)
	v.SetDefault("bridge.workdir", d.Bridge.WorkDir)
	v.SetDefault("bridge.keep_files", d.Bridge.KeepFiles)
	v.SetDefault("xtb.command", d.XTB.Command)
	v.SetDefault("xtb.gfn", d.XTB.GFN)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.console", d.Log.Console)

	v.SetDefault("relax.fmax", d.Relax.Fmax)
	v.SetDefault("relax.relax_cell", d.Relax.RelaxCell)
	v.SetDefault("relax.sym", d.Relax.Sym)
	v.SetDefault("relax.symprec", d.Relax.Symprec)
	v.SetDefault("relax.cell_factor", d.Relax.CellFactor)
	v.SetDefault("relax.rattle", d.Relax.Rattle)
	v.SetDefault("relax.traj", d.Relax.Traj)
	v.SetDefault("relax.output", d.Relax.Output)
	v.SetDefault("relax.max_steps", d.Relax.MaxSteps)

	v.SetDefault("phonon.relax", d.Phonon.Relax)
	v.SetDefault("phonon.plot", d.Phonon.Plot)
	v.SetDefault("phonon.ndim", d.Phonon.Ndim)
	v.SetDefault("phonon.distance", d.Phonon.Distance)
	v.SetDefault("phonon.plusminus", d.Phonon.PlusMinus)
	v.SetDefault("phonon.symmetry", d.Phonon.Symmetry)
	v.SetDefault("phonon.symprec", d.Phonon.Symprec)
	v.SetDefault("phonon.parallel", d.Phonon.Parallel)
	v.SetDefault("phonon.max_procs", d.Phonon.MaxProcs)
	v.SetDefault("phonon.restart", d.Phonon.Restart)
	v.SetDefault("phonon.force_sets", d.Phonon.ForceSets)
	v.SetDefault("phonon.dir", d.Phonon.Dir)
	v.SetDefault("phonon.knames", d.Phonon.Knames)
	v.SetDefault("phonon.kvectors", d.Phonon.Kvectors)
	v.SetDefault("phonon.npoints", d.Phonon.Npoints)
	v.SetDefault("phonon.figname", d.Phonon.Figname)
	v.SetDefault("phonon.dos", d.Phonon.DOS)
	v.SetDefault("phonon.dos_mesh", d.Phonon.DOSMesh)
	v.SetDefault("phonon.dos_bins", d.Phonon.DOSBins)

	v.SetDefault("gap.xc", d.Gap.XC)
}

// Load reads the configuration into v and returns it. cfgFile, if not empty, must
// exist. Otherwise atomchain.yaml in the current directory is used, or
// config.yaml in the atomchain directory under the user's configuration directory,
// if any of those exist. Flags should be bound to v before calling Load.
func Load(v *viper.Viper, cfgFile string) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else if _, err := os.Stat(LocalFile); err == nil {
		v.SetConfigFile(LocalFile)
	} else {
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "atomchain"))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values that can't be checked by the decoder.
func (c Config) Validate() error {
	if len(c.Phonon.Ndim) != 3 {
		return fmt.Errorf("phonon.ndim needs 3 values, got %v", c.Phonon.Ndim)
	}
	for _, n := range c.Phonon.Ndim {
		if n < 1 {
			return fmt.Errorf("phonon.ndim values must be positive, got %v", c.Phonon.Ndim)
		}
	}
	if len(c.Phonon.DOSMesh) != 3 {
		return fmt.Errorf("phonon.dos_mesh needs 3 values, got %v", c.Phonon.DOSMesh)
	}
	for _, n := range c.Phonon.DOSMesh {
		if n < 1 {
			return fmt.Errorf("phonon.dos_mesh values must be positive, got %v", c.Phonon.DOSMesh)
		}
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl can't be negative, got %s", c.CacheTTL)
	}
	if len(c.Phonon.Kvectors)%3 != 0 {
		return fmt.Errorf("phonon.kvectors needs 3 values per point, got %d values", len(c.Phonon.Kvectors))
	}
	if _, err := gap.Fidelity(c.Gap.XC); err != nil {
		return fmt.Errorf("gap.xc: %w", err)
	}
	return nil
}

// CalcOptions returns the options for the calculators and the model bridge.
func (c Config) CalcOptions(logger zerolog.Logger) []calc.Option {
	return []calc.Option{
		calc.WithBridgeCommand(c.Bridge.Command),
		calc.WithWorkDir(c.Bridge.WorkDir),
		calc.WithKeepFiles(c.Bridge.KeepFiles),
		calc.WithXTBCommand(c.XTB.Command),
		calc.WithGFN(c.XTB.GFN),
		calc.WithLogger(logger),
	}
}

// RelaxOptions returns the settings for atomchain.RelaxWithML.
func (c Config) RelaxOptions(logger zerolog.Logger) *atomchain.RelaxOptions {
	o := atomchain.DefaultRelaxOptions()
	o.Model = c.Model
	o.ModelPath = c.ModelPath
	o.CalcOptions = c.CalcOptions(logger)
	o.CacheTTL = c.CacheTTL
	o.Fmax = c.Relax.Fmax
	o.RelaxCell = c.Relax.RelaxCell
	o.Sym = c.Relax.Sym
	o.Symprec = c.Relax.Symprec
	o.CellFactor = c.Relax.CellFactor
	o.Rattle = c.Relax.Rattle
	o.TrajFile = c.Relax.Traj
	o.OutputFile = c.Relax.Output
	o.MaxSteps = c.Relax.MaxSteps
	o.Logger = logger
	return o
}

// PhononOptions returns the settings for atomchain.PhononWithML. Validate must
// have succeeded on c.
func (c Config) PhononOptions(logger zerolog.Logger) *atomchain.PhononOptions {
	p := phonon.DefaultOptions()
	nd := c.Phonon.Ndim
	p.Ndim = chem.Diag(nd[0], nd[1], nd[2])
	p.Distance = c.Phonon.Distance
	p.PlusMinus = c.Phonon.PlusMinus
	p.Symmetry = c.Phonon.Symmetry
	p.Symprec = c.Phonon.Symprec
	p.Parallel = c.Phonon.Parallel
	p.MaxProcs = c.Phonon.MaxProcs
	p.Restart = c.Phonon.Restart
	p.ForceSetsFile = c.Phonon.ForceSets
	p.Dir = c.Phonon.Dir
	p.Logger = logger

	o := atomchain.DefaultPhononOptions()
	o.Model = c.Model
	o.ModelPath = c.ModelPath
	o.CalcOptions = c.CalcOptions(logger)
	o.CacheTTL = c.CacheTTL
	o.Relax = c.Phonon.Relax
	o.RelaxOpts = c.RelaxOptions(logger)
	o.Phonon = p
	o.Plot = c.Phonon.Plot
	o.Knames = phonon.ParseKnames(c.Phonon.Knames)
	if len(c.Phonon.Kvectors) > 0 {
		kv := c.Phonon.Kvectors
		o.Kvectors = make([][3]float64, 0, len(kv)/3)
		for i := 0; i+2 < len(kv); i += 3 {
			o.Kvectors = append(o.Kvectors, [3]float64{kv[i], kv[i+1], kv[i+2]})
		}
	}
	o.Npoints = c.Phonon.Npoints
	o.Figname = c.Phonon.Figname
	o.DOSFig = c.Phonon.DOS
	copy(o.DOSMesh[:], c.Phonon.DOSMesh)
	o.DOSBins = c.Phonon.DOSBins
	o.Logger = logger
	return o
}

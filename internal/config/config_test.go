/*
 * config_test.go, part of atomchain.
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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rmera/atomchain/calc"
	"github.com/rmera/atomchain/phonon"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

// isolate keeps the user's own configuration files out of the tests.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, ".config"))
	t.Chdir(dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	v := viper.New()
	cfg, err := Load(v, "")
	require.NoError(t, err)
	require.Empty(t, v.ConfigFileUsed())
	if diff := cmp.Diff(Defaults(), cfg); diff != "" {
		t.Errorf("Loaded config differs from the defaults (-want +got):\n%s", diff)
	}
}

func TestLoadFile(t *testing.T) {
	dir := isolate(t)
	content := `model: m3gnet
model_path: /models/m3gnet
cache_ttl: 90s
bridge:
  command: python -m atomchain_bridge
relax:
  fmax: 0.01
  relax_cell: false
phonon:
  ndim: [3, 3, 1]
  knames: "G,X,M"
  kvectors: [0, 0, 0, 0, 0.5, 0, 0.5, 0.5, 0]
  dos: dos.png
  dos_mesh: [6, 6, 2]
gap:
  xc: hse
`
	name := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(name, []byte(content), 0o644))
	v := viper.New()
	cfg, err := Load(v, name)
	require.NoError(t, err)
	require.Equal(t, "m3gnet", cfg.Model)
	require.Equal(t, "python -m atomchain_bridge", cfg.Bridge.Command)
	require.Equal(t, 0.01, cfg.Relax.Fmax)
	require.False(t, cfg.Relax.RelaxCell)
	require.True(t, cfg.Relax.Sym, "unset keys keep their defaults")
	require.Equal(t, []int{3, 3, 1}, cfg.Phonon.Ndim)
	require.Equal(t, 90*time.Second, cfg.CacheTTL)

	po := cfg.PhononOptions(zerolog.Nop())
	require.Equal(t, [3][3]int{{3, 0, 0}, {0, 3, 0}, {0, 0, 1}}, po.Phonon.Ndim)
	require.Equal(t, []string{"G", "X", "M"}, po.Knames)
	require.Equal(t, [][3]float64{{0, 0, 0}, {0, 0.5, 0}, {0.5, 0.5, 0}}, po.Kvectors)
	_, err = phonon.NewPath(po.Knames, po.Kvectors)
	require.NoError(t, err)
	require.Equal(t, "dos.png", po.DOSFig)
	require.Equal(t, [3]int{6, 6, 2}, po.DOSMesh)
	require.Equal(t, 100, po.DOSBins)
	require.Equal(t, 90*time.Second, po.CacheTTL)

	ro := cfg.RelaxOptions(zerolog.Nop())
	require.Equal(t, "m3gnet", ro.Model)
	require.Equal(t, "/models/m3gnet", ro.ModelPath)
	require.False(t, ro.RelaxCell)
	require.Equal(t, 0.01, ro.Fmax)
	require.Equal(t, 90*time.Second, ro.CacheTTL)
}

func TestLocalFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, LocalFile), []byte("model: lj\n"), 0o644))
	v := viper.New()
	cfg, err := Load(v, "")
	require.NoError(t, err)
	require.Equal(t, calc.LJ, cfg.Model)
	require.Equal(t, LocalFile, v.ConfigFileUsed())
}

func TestEnvOverride(t *testing.T) {
	isolate(t)
	t.Setenv("ATOMCHAIN_RELAX_FMAX", "0.05")
	t.Setenv("ATOMCHAIN_MODEL", "morse")
	t.Setenv("ATOMCHAIN_PHONON_PARALLEL", "true")
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	require.Equal(t, 0.05, cfg.Relax.Fmax)
	require.Equal(t, calc.Morse, cfg.Model)
	require.True(t, cfg.Phonon.Parallel)
}

func TestInvalid(t *testing.T) {
	dir := isolate(t)
	_, err := Load(viper.New(), filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)

	for _, content := range []string{"phonon:\n  ndim: [2, 2]\n", "phonon:\n  kvectors: [0, 0]\n", "phonon:\n  dos_mesh: [4, 0, 4]\n", "cache_ttl: -5s\n", "gap:\n  xc: B3LYP\n"} {
		name := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(name, []byte(content), 0o644))
		_, err := Load(viper.New(), name)
		require.Error(t, err, content)
	}
}

func TestCalcOptions(t *testing.T) {
	cfg := Defaults()
	cfg.Bridge.Command = "my-bridge --gpu"
	cfg.XTB.GFN = 1
	o := calc.DefaultOptions()
	for _, f := range cfg.CalcOptions(zerolog.Nop()) {
		f(o)
	}
	require.Equal(t, "my-bridge --gpu", o.BridgeCommand)
	require.Equal(t, 1, o.GFN)
	require.Equal(t, "xtb", o.XTBCommand)
}

/*
 * cli_test.go, part of atomchain.
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
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/rmera/atomchain/traj/stf"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// testdata returns the absolute path of a file in chem/testdata.
func testdata(t *testing.T, name string) string {
	t.Helper()
	p, err := filepath.Abs(filepath.Join("..", "..", "chem", "testdata", name))
	require.NoError(t, err)
	return p
}

// isolate runs the test in an empty directory, without user configuration.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, ".config"))
	t.Chdir(dir)
	return dir
}

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out, errout bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errout)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRelaxCommand(t *testing.T) {
	ar := testdata(t, "Ar_fcc.extxyz")
	dir := isolate(t)
	out, err := run(t, RelaxCommand(), ar, "--model", "lj", "--fmax", "0.01", "--traj", "ar.stz")
	require.NoError(t, err)
	require.Contains(t, out, "Ar4 relaxed")
	_, err = os.Stat(filepath.Join(dir, "POSCAR_relax.vasp"))
	require.NoError(t, err)
	frames, err := stf.ReadStructures(filepath.Join(dir, "ar.stz"))
	require.NoError(t, err)
	require.NotEmpty(t, frames)
	require.Equal(t, 4, frames[0].Len())
}

func TestRelaxCommandConfig(t *testing.T) {
	ar := testdata(t, "Ar_fcc.extxyz")
	dir := isolate(t)
	conf := "model: lj\nrelax:\n  output: relaxed.vasp\n  traj: \"\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "atomchain.yaml"), []byte(conf), 0o644))
	_, err := run(t, RelaxCommand(), ar, "--output", "flag.vasp")
	require.NoError(t, err)
	//flags win over the configuration file
	_, err = os.Stat(filepath.Join(dir, "flag.vasp"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "relaxed.vasp"))
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "relax.traj"))
	require.True(t, os.IsNotExist(err), "the configuration disabled the trajectory")
}

func TestPhononCommand(t *testing.T) {
	nacl := testdata(t, "NaCl.vasp")
	dir := isolate(t)
	out, err := run(t, PhononCommand(), nacl, "--model", "morse", "--plot=false", "--ndim", "2,2,2", "--parallel", "--npoints", "10")
	require.NoError(t, err)
	require.Contains(t, out, "Frequencies at Gamma")
	require.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 7)
	for _, name := range []string{"FORCE_SETS", "band.yaml"} {
		_, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
	}
}

func TestPhononCommandDOS(t *testing.T) {
	nacl := testdata(t, "NaCl.vasp")
	dir := isolate(t)
	_, err := run(t, PhononCommand(), nacl, "--model", "morse", "--plot=false", "--ndim", "1,1,1",
		"--dos", "dos.png", "--dos-mesh", "3,3,3", "--dos-bins", "20", "--cache-ttl", "1m")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "dos.png"))
	require.NoError(t, err)

	_, err = run(t, PhononCommand(), nacl, "--model", "morse", "--dos-mesh", "3,3")
	require.Error(t, err)
}

func TestGapCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	nacl := testdata(t, "NaCl.vasp")
	dir := isolate(t)
	script := filepath.Join(dir, "bridge.sh")
	body := fmt.Sprintf(`#!/bin/sh
echo "$@" > %s/args
out=""
while [ $# -gt 0 ]; do
  case "$1" in
    --output) out="$2"; shift;;
  esac
  shift
done
echo '{"gap": 4.5}' > "$out"
`, dir)
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))
	t.Setenv("ATOMCHAIN_BRIDGE_WORKDIR", dir)
	out, err := run(t, GapCommand(), nacl, "--bridge", script, "--xc", "SCAN")
	require.NoError(t, err)
	require.Equal(t, "4.5000 eV\n", out)

	_, err = run(t, GapCommand(), nacl, "--bridge", script, "--xc", "LDA")
	require.Error(t, err)
}

func TestErrors(t *testing.T) {
	ar := testdata(t, "Ar_fcc.extxyz")
	isolate(t)
	_, err := run(t, RelaxCommand())
	require.Error(t, err, "a structure is required")
	_, err = run(t, RelaxCommand(), "missing.vasp", "--model", "lj")
	require.Error(t, err)
	_, err = run(t, RelaxCommand(), ar, "--model", "no-such-model")
	require.Error(t, err)

	cmd := RelaxCommand()
	cmd.SetArgs([]string{ar, "--model", "no-such-model"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	require.Equal(t, 1, Execute(cmd))
}

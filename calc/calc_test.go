/*
 * calc_test.go, part of atomchain.
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

package calc

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/rmera/atomchain/chem"
	v3 "github.com/rmera/atomchain/v3"
)

var argon = LJParams{Epsilon: 0.0104, Sigma: 3.40, Cutoff: 6.5}

func argonFCC(Te *testing.T) *chem.Structure {
	S, err := chem.ReadStructure("../chem/testdata/Ar_fcc.extxyz")
	if err != nil {
		Te.Fatal(err)
	}
	return S
}

// writeScript writes an executable shell script to dir and returns its path.
func writeScript(Te *testing.T, dir, name, body string) string {
	if runtime.GOOS == "windows" {
		Te.Skip("shell scripts not supported")
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		Te.Fatal(err)
	}
	return path
}

func TestNew(Te *testing.T) {
	for _, v := range []struct {
		model, path, name string
		fail               bool
	}{
		{"", "", CHGNet, false},
		{"CHGNet", "", CHGNet, false},
		{"matgl", "", MatGL, false},
		{"m3gnet", "my.model", M3GNet, false},
		{"deepmd", "", "", true},
		{"deepmd", "graph.pb", DeepMD, false},
		{"xtb", "", XTBGFN, false},
		{"lj", "", LJ, false},
		{"morse", "", Morse, false},
		{"vasp", "", "", true},
	} {
		c, err := New(v.model, v.path)
		if v.fail {
			if err == nil {
				Te.Errorf("New(%q, %q) should fail", v.model, v.path)
			}
			continue
		}
		if err != nil {
			Te.Errorf("New(%q, %q): %v", v.model, v.path, err)
			continue
		}
		if c.Name() != v.name {
			Te.Errorf("New(%q) gave %q, expected %q", v.model, c.Name(), v.name)
		}
	}
	_, err := New("gaussian", "")
	if !errors.Is(err, ErrUnknownModel) {
		Te.Errorf("Expected ErrUnknownModel, got %v", err)
	}
	c, _ := New("matgl", "")
	if p := c.(*Bridge).params; p["potential"] != MatGLPotential || p["stress_weight"] != 1.0 {
		Te.Errorf("Wrong matgl parameters: %v", p)
	}
}

func TestLJDimer(Te *testing.T) {
	p := LJParams{Epsilon: 1, Sigma: 1, Cutoff: 100}
	lj := NewLennardJones(p)
	top, _ := chem.TopologyFromSymbols([]string{"Ar", "Ar"})
	rmin := math.Pow(2, 1.0/6)
	coords, _ := v3.NewMatrix([]float64{0, 0, 0, rmin, 0, 0})
	S, err := chem.NewStructure(top, coords, nil, [3]bool{})
	if err != nil {
		Te.Fatal(err)
	}
	res, err := lj.Calculate(context.Background(), S)
	if err != nil {
		Te.Fatal(err)
	}
	ec := 4 * (math.Pow(100, -12) - math.Pow(100, -6))
	if math.Abs(res.Energy-(-1-ec)) > 1e-10 {
		Te.Errorf("Wrong energy at the minimum: %f", res.Energy)
	}
	if res.Forces.MaxVecNorm() > 1e-10 {
		Te.Errorf("Forces at the minimum should be zero: %v", res.Forces)
	}
	if res.HasStress {
		Te.Error("A molecule shouldn't have stress")
	}
	//compressed dimer: repulsion pushes atom 0 towards -x
	coords.Set(1, 0, 1.0)
	res, _ = lj.Calculate(context.Background(), S)
	if res.Forces.At(0, 0) >= 0 || math.Abs(res.Forces.At(0, 0)+res.Forces.At(1, 0)) > 1e-10 {
		Te.Errorf("Wrong forces for a compressed dimer: %v", res.Forces)
	}
}

// Forces and stress must be the derivatives of the energy.
func TestPairFiniteDifferences(Te *testing.T) {
	for _, c := range []*Pair{NewLennardJones(argon), NewMorse(MorseParams{D: 0.3, Alpha: 1.2, R0: 3.7, Cutoff: 7})} {
		S := argonFCC(Te)
		S.Rattle(0.05)
		ctx := context.Background()
		res, err := c.Calculate(ctx, S)
		if err != nil {
			Te.Fatal(err)
		}
		fmt.Println(c.Name(), res.Energy, res.Stress)
		const h = 1e-5
		for i := 0; i < S.Len(); i++ {
			for j := 0; j < 3; j++ {
				P := S.Copy()
				P.Coords.Set(i, j, S.Coords.At(i, j)+h)
				ep, _ := c.Calculate(ctx, P)
				P.Coords.Set(i, j, S.Coords.At(i, j)-h)
				em, _ := c.Calculate(ctx, P)
				num := -(ep.Energy - em.Energy) / (2 * h)
				if math.Abs(num-res.Forces.At(i, j)) > 1e-6 {
					Te.Errorf("%s: force %d,%d is %g, numerical %g", c.Name(), i, j, res.Forces.At(i, j), num)
				}
			}
		}
		//stress from homogeneous strains
		for k, idx := range [][2]int{{0, 0}, {1, 1}, {2, 2}, {1, 2}, {0, 2}, {0, 1}} {
			strained := func(e float64) float64 {
				eps := v3.Eye()
				eps.Set(idx[0], idx[1], eps.At(idx[0], idx[1])+e/2)
				eps.Set(idx[1], idx[0], eps.At(idx[1], idx[0])+e/2)
				P := S.Copy()
				cell := v3.Zeros(3)
				cell.Mul(S.Cell, eps)
				P.SetCell(cell, true)
				r, _ := c.Calculate(ctx, P)
				return r.Energy
			}
			num := (strained(h) - strained(-h)) / (2 * h) / S.Volume()
			if math.Abs(num-res.Stress[k]) > 1e-7 {
				Te.Errorf("%s: stress %d is %g, numerical %g", c.Name(), k, res.Stress[k], num)
			}
		}
	}
}

func TestBridge(Te *testing.T) {
	dir := Te.TempDir()
	argsfile := filepath.Join(dir, "args")
	script := writeScript(Te, dir, "bridge.sh", fmt.Sprintf(`echo "$@" > %s
out=""
task=""
while [ $# -gt 0 ]; do
  case "$1" in
    --output) out="$2"; shift;;
    --task) task="$2"; shift;;
  esac
  shift
done
test -f in.json || exit 3
if [ "$task" = "gap" ]; then echo '{"gap": 1.25}' > "$out"; exit 0; fi
echo '{"energy": -1.5, "forces": [[0.1,0,0],[-0.1,0,0]], "stress": [0.01,0.01,0.01,0,0,0]}' > "$out"
`, argsfile))
	c, err := New("m3gnet", "/models/m3g", WithBridgeCommand(script), WithWorkDir(dir))
	if err != nil {
		Te.Fatal(err)
	}
	S, err := chem.ReadStructure("../chem/testdata/NaCl.vasp")
	if err != nil {
		Te.Fatal(err)
	}
	res, err := c.Calculate(context.Background(), S)
	if err != nil {
		Te.Fatal(err)
	}
	if res.Energy != -1.5 || res.Forces.At(1, 0) != -0.1 || !res.HasStress || res.Stress[2] != 0.01 {
		Te.Errorf("Wrong results %+v", res)
	}
	args, err := os.ReadFile(argsfile)
	if err != nil {
		Te.Fatal(err)
	}
	if !strings.Contains(string(args), "--model m3gnet --model-path /models/m3g --task forces --input") {
		Te.Errorf("Wrong arguments: %s", args)
	}
	gap, err := c.(*Bridge).Run(context.Background(), S, TaskGap, map[string]any{"state_attr": 0})
	if err != nil {
		Te.Fatal(err)
	}
	if gap.Gap == nil || *gap.Gap != 1.25 {
		Te.Errorf("Wrong gap: %+v", gap)
	}
	//the job directories must have been removed
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if e.IsDir() {
			Te.Errorf("Job directory %s not removed", e.Name())
		}
	}
	//4 atoms but 2 forces
	S3, _ := chem.ReadStructure("../chem/testdata/Ar_fcc.extxyz")
	if _, err := c.Calculate(context.Background(), S3); err == nil {
		Te.Error("A wrong number of forces should give an error")
	}
}

func TestBridgeFailure(Te *testing.T) {
	dir := Te.TempDir()
	script := writeScript(Te, dir, "bad.sh", "echo 'CUDA out of memory' >&2\nexit 1\n")
	o := DefaultOptions()
	o.BridgeCommand = script
	o.WorkDir = dir
	c := NewBridge(CHGNet, "", nil, o)
	S, _ := chem.ReadStructure("../chem/testdata/NaCl.vasp")
	_, err := c.Calculate(context.Background(), S)
	if err == nil {
		Te.Fatal("A failing bridge should give an error")
	}
	var cerr Error
	if !errors.As(err, &cerr) || cerr.Program() != CHGNet || !strings.Contains(err.Error(), "CUDA out of memory") {
		Te.Errorf("Wrong error: %v", err)
	}
	slow := writeScript(Te, dir, "slow.sh", "exec sleep 10\n")
	o.BridgeCommand = slow
	c = NewBridge(CHGNet, "", nil, o)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = c.Calculate(ctx, S)
	if !errors.Is(err, context.DeadlineExceeded) {
		Te.Errorf("Expected a deadline error, got %v", err)
	}
}

func TestXTB(Te *testing.T) {
	dir := Te.TempDir()
	//a fake xtb that writes a gradient file for a water molecule
	script := writeScript(Te, dir, "xtb", `test -f job.xyz || exit 2
cat > gradient <<'EOF2'
$grad
  cycle =      1    SCF energy =    -5.0705444406   |dE/dxyz| =  0.010000
    0.00000000000000      0.00000000000000      0.22166920000000      o
    0.00000000000000      1.43088200000000     -0.88667680000000      h
    0.00000000000000     -1.43088200000000     -0.88667680000000      h
   0.0000000000000D+00   0.0000000000000D+00  -0.1000000000000D-01
   0.0000000000000D+00   0.5000000000000D-02   0.5000000000000D-02
   0.0000000000000D+00  -0.5000000000000D-02   0.5000000000000D-02
$end
EOF2
echo "normal termination of xtb"
`)
	c, err := New("xtb", "", WithXTBCommand(script), WithWorkDir(dir))
	if err != nil {
		Te.Fatal(err)
	}
	S, err := chem.ReadStructure("../chem/testdata/water.xyz")
	if err != nil {
		Te.Fatal(err)
	}
	res, err := c.Calculate(context.Background(), S)
	if err != nil {
		Te.Fatal(err)
	}
	if math.Abs(res.Energy-(-5.0705444406*chem.Hartree2eV)) > 1e-8 {
		Te.Errorf("Wrong energy %f", res.Energy)
	}
	conv := chem.Hartree2eV / chem.Bohr2Angstrom
	if math.Abs(res.Forces.At(0, 2)-0.01*conv) > 1e-10 || math.Abs(res.Forces.At(1, 1)+0.005*conv) > 1e-10 {
		Te.Errorf("Wrong forces %v", res.Forces)
	}
	P, _ := chem.ReadStructure("../chem/testdata/NaCl.vasp")
	if _, err := c.Calculate(context.Background(), P); err == nil {
		Te.Error("xtb should refuse periodic structures")
	}
}

type counter struct {
	Calculator
	n int
}

func (C *counter) Calculate(ctx context.Context, s *chem.Structure) (*Results, error) {
	C.n++
	return C.Calculator.Calculate(ctx, s)
}

func TestMemo(Te *testing.T) {
	cnt := &counter{Calculator: NewLennardJones(argon)}
	m := Memo(cnt, time.Minute)
	S := argonFCC(Te)
	ctx := context.Background()
	r1, err := m.Calculate(ctx, S)
	if err != nil {
		Te.Fatal(err)
	}
	r1.Forces.Set(0, 0, 1000) //must not alter the cache
	r2, _ := m.Calculate(ctx, S.Copy())
	if cnt.n != 1 || m.Len() != 1 {
		Te.Errorf("The second calculation should come from the cache: %d calls", cnt.n)
	}
	if r2.Forces.At(0, 0) == 1000 {
		Te.Error("Cached results share memory with returned results")
	}
	P := S.Copy()
	P.Coords.Set(0, 0, 1e-3)
	m.Calculate(ctx, P)
	if cnt.n != 2 || m.Name() != LJ {
		Te.Errorf("A different structure should be calculated, %d calls", cnt.n)
	}
}

func TestVoigt(Te *testing.T) {
	v := [6]float64{1, 2, 3, 4, 5, 6}
	t := VoigtToTensor(v)
	if t.At(2, 1) != 4 || t.At(0, 2) != 5 || t.At(1, 0) != 6 {
		Te.Errorf("Wrong tensor %v", t)
	}
	if TensorToVoigt(t) != v {
		Te.Errorf("Wrong Voigt vector %v", TensorToVoigt(t))
	}
}

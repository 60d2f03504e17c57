/*
 * bridge.go, part of atomchain.
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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rmera/atomchain/chem"
	"github.com/rmera/atomchain/chemjson"
	"github.com/rs/zerolog"
)

// Bridge tasks.
const (
	TaskForces = "forces"
	TaskGap    = "gap"
)

// Bridge runs a machine-learning model through an external program.
// For each evaluation, a directory with a unique name is created, the structure
// is written there as a JSON request (in.json) and the program is called as
//
//	command --model MODEL [--model-path PATH] --task TASK --input in.json --output out.json
//
// The program must write the results to out.json and exit with status 0.
type Bridge struct {
	model     string
	modelPath string
	command   []string
	params    map[string]any
	workdir   string
	keep      bool
	log       zerolog.Logger
}

// NewBridge returns a bridge calculator for the given model. Only the BridgeCommand,
// WorkDir, KeepFiles and Logger fields of o are used. A nil o gives the defaults.
func NewBridge(model, modelPath string, params map[string]any, o *Options) *Bridge {
	if o == nil {
		o = DefaultOptions()
	}
	return &Bridge{
		model:     model,
		modelPath: modelPath,
		command:   strings.Fields(o.BridgeCommand),
		params:    params,
		workdir:   o.WorkDir,
		keep:      o.KeepFiles,
		log:       o.Logger.With().Str("model", model).Logger(),
	}
}

// Name returns the model name.
func (B *Bridge) Name() string { return B.model }

// Calculate obtains energy, forces and, for periodic systems, stress from the model.
func (B *Bridge) Calculate(ctx context.Context, s *chem.Structure) (*Results, error) {
	r, err := B.Run(ctx, s, TaskForces, nil)
	if err != nil {
		return nil, errDecorate(err, "Calculate")
	}
	if r.Energy == nil {
		return nil, Error{ErrNoEnergy, B.model, "", "", []string{"Calculate"}, true, nil}
	}
	forces := r.ForcesMatrix()
	if forces == nil {
		return nil, Error{ErrNoForces, B.model, "", "", []string{"Calculate"}, true, nil}
	}
	if forces.NVecs() != s.Len() {
		return nil, Error{ErrForcesLength, B.model, "", fmt.Sprintf("%d forces, %d atoms", forces.NVecs(), s.Len()), []string{"Calculate"}, true, nil}
	}
	res := &Results{Energy: *r.Energy, Forces: forces}
	if len(r.Stress) == 6 && s.Periodic() {
		copy(res.Stress[:], r.Stress)
		res.HasStress = true
	}
	return res, nil
}

// Run performs the given task on s, with extra parameters params (which take
// precedence over those of the Bridge), and returns the raw result.
func (B *Bridge) Run(ctx context.Context, s *chem.Structure, task string, params map[string]any) (*chemjson.Result, error) {
	if len(B.command) == 0 {
		return nil, Error{ErrNotRunning, B.model, "", "empty bridge command", []string{"Run"}, true, nil}
	}
	job := "atomchain-" + uuid.NewString()
	dir := filepath.Join(B.workdir, job)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, Error{ErrCantInput, B.model, job, err.Error(), []string{"os.MkdirAll", "Run"}, true, err}
	}
	if !B.keep {
		defer os.RemoveAll(dir)
	}
	P, err := chemjson.Encode(s)
	if err != nil {
		return nil, Error{ErrCantInput, B.model, job, err.Error(), []string{"Run"}, true, err}
	}
	req := chemjson.Request{Structure: P, Model: B.model, ModelPath: B.modelPath, Task: task}
	if len(B.params)+len(params) > 0 {
		req.Params = make(map[string]any, len(B.params)+len(params))
		for k, v := range B.params {
			req.Params[k] = v
		}
		for k, v := range params {
			req.Params[k] = v
		}
	}
	in := filepath.Join(dir, "in.json")
	out := filepath.Join(dir, "out.json")
	err = chem.WriteFileAtomic(in, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", " ")
		return enc.Encode(req)
	})
	if err != nil {
		return nil, Error{ErrCantInput, B.model, job, err.Error(), []string{"Run"}, true, err}
	}
	args := append([]string{}, B.command[1:]...)
	args = append(args, "--model", B.model)
	if B.modelPath != "" {
		args = append(args, "--model-path", B.modelPath)
	}
	args = append(args, "--task", task, "--input", in, "--output", out)
	cmd := exec.CommandContext(ctx, B.command[0], args...)
	cmd.Dir = dir
	cmd.WaitDelay = 5 * time.Second
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	B.log.Debug().Str("job", job).Str("task", task).Strs("args", args).Msg("running model bridge")
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, Error{ErrNotRunning, B.model, job, strings.TrimSpace(tail(stderr.String(), 512)) + " " + err.Error(), []string{"exec.Run", "Run"}, true, err}
	}
	data, err := os.ReadFile(out)
	if err != nil {
		return nil, Error{ErrNoOutput, B.model, job, err.Error(), []string{"os.ReadFile", "Run"}, true, err}
	}
	res := new(chemjson.Result)
	if err := json.Unmarshal(data, res); err != nil {
		return nil, Error{ErrNoOutput, B.model, job, err.Error(), []string{"json.Unmarshal", "Run"}, true, err}
	}
	if res.Error != "" {
		return nil, Error{res.Error, B.model, job, "", []string{"Run"}, true, nil}
	}
	return res, nil
}

// tail returns the last n bytes of s.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

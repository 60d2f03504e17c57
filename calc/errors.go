/*
 * errors.go, part of atomchain.
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
	"errors"
	"fmt"
)

// ErrUnknownModel is returned (wrapped) by New when the model type is not supported.
var ErrUnknownModel = errors.New("unknown model type")

// Error is the error type for the calc package.
type Error struct {
	message    string
	program    string //the program (or model) that gave the error
	name       string //the job name
	additional string
	deco       []string
	critical   bool
	err        error
}

// Error returns a string with an error message.
func (err Error) Error() string {
	msg := fmt.Sprintf("atomchain/calc: %s", err.message)
	if err.program != "" {
		msg = fmt.Sprintf("atomchain/calc: %s (%s): %s", err.program, err.name, err.message)
	}
	if err.additional != "" {
		msg += ": " + err.additional
	}
	return msg
}

// Decorate will add the dec string to the decoration slice of strings of the error,
// and return the resulting slice.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// Critical returns true if the error is critical, false otherwise.
func (err Error) Critical() bool { return err.critical }

// Unwrap returns the error that caused err, if any.
func (err Error) Unwrap() error { return err.err }

// Program returns the program or model that produced the error.
func (err Error) Program() string { return err.program }

func errDecorate(err error, caller string) error {
	if err == nil {
		return nil
	}
	if err2, ok := err.(Error); ok {
		err2.deco = err2.Decorate(caller)
		return err2
	}
	return err
}

const (
	ErrNotRunning   = "Program not running"
	ErrNoOutput     = "Can't read the program output"
	ErrNoEnergy     = "Can't obtain the energy"
	ErrNoForces     = "Can't obtain the forces"
	ErrCantInput    = "Can't build the input"
	ErrModelPath    = "The model requires a model path"
	ErrNotMolecule  = "The program only supports non-periodic systems"
	ErrForcesLength = "The number of forces doesn't match the number of atoms"
)

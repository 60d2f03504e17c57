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

package optimize

import (
	"errors"
	"fmt"
)

// ErrNotConverged is returned (wrapped) when an optimization reaches its step limit
// without converging.
var ErrNotConverged = errors.New("optimization did not converge")

// Error is the error type for the optimize package.
type Error struct {
	message  string
	deco     []string
	critical bool
	err      error
}

// Error returns a string with an error message.
func (err Error) Error() string {
	if err.err != nil && err.message == "" {
		return fmt.Sprintf("atomchain/optimize: %s", err.err.Error())
	}
	if err.err != nil {
		return fmt.Sprintf("atomchain/optimize: %s: %s", err.message, err.err.Error())
	}
	return fmt.Sprintf("atomchain/optimize: %s", err.message)
}

// Decorate will add the dec string to the decoration slice of strings of the error,
// and return the resulting slice.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// Critical returns true if the error is critical, false otherwise
func (err Error) Critical() bool { return err.critical }

// Unwrap returns the error that caused err, if any.
func (err Error) Unwrap() error { return err.err }

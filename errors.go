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

package atomchain

import "fmt"

// Error is the error type for the atomchain drivers.
type Error struct {
	message  string
	filename string
	deco     []string
	critical bool
	err      error
}

// Error returns a string with an error message.
func (err Error) Error() string {
	msg := err.message
	if err.err != nil {
		msg = msg + ": " + err.err.Error()
	}
	if err.filename != "" {
		return fmt.Sprintf("atomchain: %s: %s", err.filename, msg)
	}
	return fmt.Sprintf("atomchain: %s", msg)
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

type decorator interface {
	Decorate(string) []string
}

func errDecorate(err error, caller string) error {
	if err == nil {
		return nil
	}
	if err2, ok := err.(Error); ok {
		err2.deco = err2.Decorate(caller)
		return err2
	}
	if err2, ok := err.(decorator); ok {
		err2.Decorate(caller)
	}
	return err
}

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

package chem

import "fmt"

// CError is the error type for the chem package. It fulfills the Error interface.
type CError struct {
	message  string
	filename string //the file that has problems, or empty string if none.
	deco     []string
	critical bool
}

// Error returns a string with an error message.
func (err CError) Error() string {
	if err.filename != "" {
		return fmt.Sprintf("atomchain/chem: %s: %s", err.filename, err.message)
	}
	return fmt.Sprintf("atomchain/chem: %s", err.message)
}

// Decorate will add the dec string to the decoration slice of strings of the error,
// and return the resulting slice.
func (err CError) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// FileName returns the file to which the error is related, if any
func (err CError) FileName() string { return err.filename }

// Critical returns true if the error is critical, false otherwise
func (err CError) Critical() bool { return err.critical }

// errDecorate decorates err with the caller name if err implements
// Error. Otherwise it returns err unchanged.
func errDecorate(err error, caller string) error {
	if err == nil {
		return nil
	}
	if err2, ok := err.(CError); ok {
		err2.deco = err2.Decorate(caller)
		return err2
	}
	return err
}

const (
	ErrNilCoords     = "Given nil coordinates"
	ErrNotPeriodic   = "The structure is not periodic"
	ErrLenMismatch   = "Number of atoms and coordinates don't match"
	ErrSingularCell  = "The cell is singular"
	ErrUnknownFormat = "Can't determine the file format from the file name"
)

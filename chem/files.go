/*
 * files.go, part of atomchain.
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
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

package chem

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
)

// Format is a structure file format
type Format int

const (
	FormatUnknown Format = iota
	FormatPOSCAR
	FormatXYZ
)

// FormatFromName guesses the file format from the name of the file.
// VASP files are recognized by the .vasp extension, or by names starting
// with POSCAR or CONTCAR. XYZ files by the .xyz and .extxyz extensions.
func FormatFromName(name string) Format {
	base := filepath.Base(name)
	ext := strings.ToLower(filepath.Ext(base))
	upper := strings.ToUpper(base)
	switch {
	case ext == ".vasp" || ext == ".poscar":
		return FormatPOSCAR
	case strings.HasPrefix(upper, "POSCAR") || strings.HasPrefix(upper, "CONTCAR"):
		return FormatPOSCAR
	case ext == ".xyz" || ext == ".extxyz":
		return FormatXYZ
	}
	return FormatUnknown
}

// ReadStructure reads a structure from the file name. The format is obtained
// from the file name. For XYZ files with several frames, only the first is returned.
func ReadStructure(name string) (*Structure, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, CError{err.Error(), name, []string{"os.Open", "ReadStructure"}, true}
	}
	defer f.Close()
	r := bufio.NewReader(f)
	var S *Structure
	switch FormatFromName(name) {
	case FormatPOSCAR:
		S, err = ReadPOSCAR(r)
	case FormatXYZ:
		var frames []*Structure
		frames, err = ReadXYZ(r)
		if err == nil {
			S = frames[0]
		}
	default:
		return nil, CError{ErrUnknownFormat, name, []string{"ReadStructure"}, true}
	}
	if err != nil {
		if e, ok := err.(CError); ok {
			e.filename = name
			return nil, errDecorate(e, "ReadStructure")
		}
		return nil, err
	}
	return S, nil
}

// WriteStructure writes S to the file name, in the format given by the name.
// The file is written atomically.
func WriteStructure(name string, S *Structure) error {
	var w func(io.Writer) error
	switch FormatFromName(name) {
	case FormatPOSCAR:
		w = func(out io.Writer) error { return WritePOSCAR(out, S) }
	case FormatXYZ:
		w = func(out io.Writer) error { return WriteXYZ(out, S, "") }
	default:
		return CError{ErrUnknownFormat, name, []string{"WriteStructure"}, true}
	}
	return WriteFileAtomic(name, w)
}

// WriteFileAtomic writes a file by calling write on a temporary file, which is
// synced and renamed to name only if write succeeds.
func WriteFileAtomic(name string, write func(io.Writer) error) error {
	pending, err := renameio.NewPendingFile(name)
	if err != nil {
		return CError{err.Error(), name, []string{"renameio.NewPendingFile", "WriteFileAtomic"}, true}
	}
	defer pending.Cleanup()
	bw := bufio.NewWriter(pending)
	if err := write(bw); err != nil {
		return errDecorate(err, "WriteFileAtomic")
	}
	if err := bw.Flush(); err != nil {
		return CError{err.Error(), name, []string{"Flush", "WriteFileAtomic"}, true}
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return CError{err.Error(), name, []string{"CloseAtomicallyReplace", "WriteFileAtomic"}, true}
	}
	return nil
}

/*
 * stf_test.go, part of atomchain.
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

package stf

import (
	"fmt"
	"math"
	"path/filepath"
	"testing"

	"github.com/rmera/atomchain/chem"
	v3 "github.com/rmera/atomchain/v3"
)

func writeFrames(Te *testing.T, name string, s *chem.Structure, frames int) {
	w, err := NewStructureWriter(name, s, map[string]string{"prec": "5"})
	if err != nil {
		Te.Fatal(err)
	}
	for i := 0; i < frames; i++ {
		c := s.Copy()
		c.Coords.Set(0, 0, float64(i)*0.1)
		if err := w.WStructure(c); err != nil {
			Te.Fatal(err)
		}
	}
	if w.Frames() != frames {
		Te.Errorf("Expected %d frames written, got %d", frames, w.Frames())
	}
	if err := w.Close(); err != nil {
		Te.Fatal(err)
	}
}

func TestSTFWriteRead(Te *testing.T) {
	s, err := chem.ReadStructure("../../chem/testdata/NaCl.vasp")
	if err != nil {
		Te.Fatal(err)
	}
	dir := Te.TempDir()
	for _, name := range []string{"relax.stf", "relax.stz", "relax.stl", "relax.str"} {
		name = filepath.Join(dir, name)
		writeFrames(Te, name, s, 3)
		r, h, err := New(name)
		if err != nil {
			Te.Fatal(err)
		}
		if h["symbols"] != "Na Cl" || h["prec"] != "5" {
			Te.Errorf("Wrong header in %s: %v", name, h)
		}
		coords := v3.Zeros(r.Len())
		box := make([]float64, 9)
		i := 0
		for ; ; i++ {
			err := r.Next(coords, box)
			if err != nil {
				if _, ok := err.(chem.LastFrameError); ok {
					break
				}
				Te.Fatal(err)
			}
			if math.Abs(coords.At(0, 0)-float64(i)*0.1) > 1e-5 {
				Te.Errorf("Wrong coordinates in frame %d of %s: %v", i, name, coords)
			}
			if math.Abs(coords.At(1, 1)-2.82) > 1e-5 {
				Te.Errorf("Wrong coordinates in frame %d of %s: %v", i, name, coords)
			}
			if math.Abs(box[1]-2.82) > 1e-6 || box[0] != 0 {
				Te.Errorf("Wrong cell in frame %d of %s: %v", i, name, box)
			}
		}
		if i != 3 {
			Te.Errorf("Expected 3 frames in %s, read %d", name, i)
		}
		if r.Readable() {
			Te.Error("The reader should be closed after the last frame")
		}
	}
}

func TestReadStructures(Te *testing.T) {
	s, err := chem.ReadStructure("../../chem/testdata/water.xyz")
	if err != nil {
		Te.Fatal(err)
	}
	name := filepath.Join(Te.TempDir(), "water.stf")
	writeFrames(Te, name, s, 2)
	frames, err := ReadStructures(name)
	if err != nil {
		Te.Fatal(err)
	}
	if len(frames) != 2 {
		Te.Fatalf("Expected 2 frames, got %d", len(frames))
	}
	if frames[1].Periodic() || frames[1].Atom(0).Symbol != "O" {
		Te.Errorf("Wrong structure read: %v %v", frames[1].Symbols(), frames[1].Cell)
	}
	fmt.Println(frames[1].Coords)
}

func TestWrongFrame(Te *testing.T) {
	name := filepath.Join(Te.TempDir(), "bad.stf")
	w, err := NewWriter(name, 2, nil)
	if err != nil {
		Te.Fatal(err)
	}
	defer w.Close()
	if err := w.WNext(v3.Zeros(3)); err == nil {
		Te.Error("Writing a frame with the wrong number of atoms should fail")
	}
	if _, err := NewWriter(name, 2, map[string]string{"prec": "x"}); err == nil {
		Te.Error("An invalid precision should give an error")
	}
}

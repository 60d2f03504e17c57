/*
 * plotutils.go, part of atomchain.
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

package chemplot

import (
	"fmt"
	"image/color"
	"math"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
)

// DefaultWidth and DefaultHeight are the sizes used for the saved plots.
const (
	DefaultWidth  = 5 * vg.Inch
	DefaultHeight = 4 * vg.Inch
)

var formats = map[string]bool{".pdf": true, ".png": true, ".svg": true, ".eps": true, ".jpg": true, ".jpeg": true, ".tif": true, ".tiff": true}

// save writes the plot to filename. The format is taken from the extension.
// If the name has no extension, .png is appended.
func save(p *plot.Plot, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		filename += ".png"
	} else if !formats[ext] {
		return "", Error{fmt.Sprintf("Unsupported plot format %q", ext), filename, []string{"save"}}
	}
	if err := p.Save(DefaultWidth, DefaultHeight, filename); err != nil {
		return "", Error{err.Error(), filename, []string{"plot.Save", "save"}}
	}
	return filename, nil
}

// iHVS2RGB takes hue (0-360), v and s (0-1), returns r,g,b (0-255)
func iHVS2RGB(h, v, s float64) (uint8, uint8, uint8) {
	maxcolor := 255.0 * v
	if s == 0.0 {
		return uint8(maxcolor), uint8(maxcolor), uint8(maxcolor)
	}
	h = h / 60
	i := math.Floor(h)
	f := h - i
	p := 1 - s
	q := 1 - s*f
	t := 1 - s*(1-f)
	var r, g, b float64
	switch int(i) % 6 {
	case 0:
		r, g, b = 1, t, p
	case 1:
		r, g, b = q, 1, p
	case 2:
		r, g, b = p, 1, t
	case 3:
		r, g, b = p, q, 1
	case 4:
		r, g, b = t, p, 1
	default:
		r, g, b = 1, p, q
	}
	return uint8(r * maxcolor), uint8(g * maxcolor), uint8(b * maxcolor)
}

// branchColor returns the color for the key-th of steps lines, going from red to
// violet, skipping the yellows.
func branchColor(key, steps int) color.RGBA {
	if steps < 1 {
		steps = 1
	}
	norm := 260.0 / float64(steps)
	hp := float64(key)*norm + 20.0
	h := hp + 20.0
	if hp < 55 {
		h = hp - 20.0
	}
	r, g, b := iHVS2RGB(h, 0.85, 1.0)
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// Label returns the label for a high-symmetry point as it should appear in a
// plot. "G", "Gamma" and "\Gamma" are drawn as Γ.
func Label(name string) string {
	switch strings.ToLower(strings.TrimPrefix(name, "\\")) {
	case "g", "gamma", "γ":
		return "Γ"
	}
	return name
}

// Error is the error type for the chemplot package.
type Error struct {
	message  string
	filename string
	deco     []string
}

func (err Error) Error() string {
	return fmt.Sprintf("atomchain/chemplot: %s: %s", err.filename, err.message)
}

// Decorate will add the dec string to the decoration slice of strings of the error,
// and return the resulting slice.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// FileName returns the plot file related to the error.
func (err Error) FileName() string { return err.filename }

/*
 * bands.go, part of atomchain.
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

package phonon

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/rmera/atomchain/chem"
	"github.com/rmera/atomchain/chemplot"
	"github.com/rmera/atomchain/histo"
	"gopkg.in/yaml.v3"
)

// SpecialPoints are the high-symmetry points, in reduced coordinates, that can be
// given by name only.
var SpecialPoints = map[string][3]float64{
	"G": {0, 0, 0},
	"X": {0, 0.5, 0},
	"M": {0.5, 0.5, 0},
	"R": {0.5, 0.5, 0.5},
}

// Path is a path in reciprocal space, made of straight segments between
// consecutive points.
type Path struct {
	Labels []string
	Points [][3]float64
}

// DefaultPath returns the Γ-X-M-Γ-R path.
func DefaultPath() Path {
	p, _ := NewPath([]string{"G", "X", "M", "G", "R"}, nil)
	return p
}

// ParseKnames splits a list of point names. Names can be separated by commas or
// spaces, otherwise each character is taken as a name, so "GXMGR" gives
// G, X, M, G, R.
func ParseKnames(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if strings.ContainsAny(s, ", ") {
		return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	}
	ret := make([]string, 0, len(s))
	for _, r := range s {
		ret = append(ret, string(r))
	}
	return ret
}

// NewPath returns the path through the given points. If kvectors is nil, the points
// are taken from SpecialPoints. If knames is nil, the points have empty labels. If
// both are nil, DefaultPath is returned.
func NewPath(knames []string, kvectors [][3]float64) (Path, error) {
	if knames == nil && kvectors == nil {
		return DefaultPath(), nil
	}
	if kvectors == nil {
		kvectors = make([][3]float64, len(knames))
		for i, n := range knames {
			key := strings.ToUpper(n)
			if chemplot.Label(n) == "Γ" {
				key = "G"
			}
			p, ok := SpecialPoints[key]
			if !ok {
				return Path{}, Error{fmt.Sprintf("Unknown special point %q, its coordinates must be given", n), "", []string{"NewPath"}, true, nil}
			}
			kvectors[i] = p
		}
	}
	if knames == nil {
		knames = make([]string, len(kvectors))
	}
	if len(knames) != len(kvectors) {
		return Path{}, Error{fmt.Sprintf("%d names given for %d points", len(knames), len(kvectors)), "", []string{"NewPath"}, true, nil}
	}
	if len(kvectors) < 2 {
		return Path{}, Error{"A path needs at least 2 points", "", []string{"NewPath"}, true, nil}
	}
	return Path{Labels: knames, Points: kvectors}, nil
}

// QPoint is a point of a band structure.
type QPoint struct {
	Q           [3]float64
	Distance    float64 //along the path, in 1/A (without the 2pi factor)
	Frequencies []float64
}

// Segment is a straight piece of a band structure.
type Segment struct {
	Start, End string
	Points     []QPoint
}

// Bands is a phonon band structure.
type Bands struct {
	Segments []Segment
}

// BandStructure computes the frequencies along path, with npoints points per segment
// (both ends included).
func (P *Phonon) BandStructure(path Path, npoints int) (*Bands, error) {
	if npoints < 2 {
		npoints = 2
	}
	rec, err := P.Unit.Reciprocal()
	if err != nil {
		return nil, errDecorate(err, "BandStructure")
	}
	ret := &Bands{Segments: make([]Segment, 0, len(path.Points)-1)}
	dist := 0.0
	for s := 0; s+1 < len(path.Points); s++ {
		a, b := path.Points[s], path.Points[s+1]
		seg := Segment{Start: path.Labels[s], End: path.Labels[s+1], Points: make([]QPoint, npoints)}
		prev := a
		for i := 0; i < npoints; i++ {
			t := float64(i) / float64(npoints-1)
			var q [3]float64
			for k := 0; k < 3; k++ {
				q[k] = a[k] + t*(b[k]-a[k])
			}
			dist += qDistance(rec, prev, q)
			prev = q
			f, err := P.Frequencies(q)
			if err != nil {
				return nil, errDecorate(err, "BandStructure")
			}
			seg.Points[i] = QPoint{Q: q, Distance: dist, Frequencies: f}
		}
		ret.Segments = append(ret.Segments, seg)
	}
	return ret, nil
}

func qDistance(rec interface{ At(int, int) float64 }, a, b [3]float64) float64 {
	var c [3]float64
	for k := 0; k < 3; k++ {
		for l := 0; l < 3; l++ {
			c[k] += (b[l] - a[l]) * rec.At(l, k)
		}
	}
	return math.Sqrt(c[0]*c[0] + c[1]*c[1] + c[2]*c[2])
}

// ToPlot returns the band structure in the form used by chemplot.BandPlot.
func (B *Bands) ToPlot() *chemplot.Bands {
	ret := &chemplot.Bands{Unit: "THz"}
	for i, s := range B.Segments {
		ps := chemplot.BandSegment{Distances: make([]float64, len(s.Points)), Frequencies: make([][]float64, len(s.Points))}
		for k, p := range s.Points {
			ps.Distances[k] = p.Distance
			ps.Frequencies[k] = p.Frequencies
		}
		ret.Segments = append(ret.Segments, ps)
		if len(s.Points) == 0 {
			continue
		}
		start := s.Start
		if i > 0 && B.Segments[i-1].End != s.Start {
			//discontinuous path, both labels at the same tick.
			start = B.Segments[i-1].End + "|" + s.Start
			ret.Labels[len(ret.Labels)-1] = start
		} else if i == 0 {
			ret.Ticks = append(ret.Ticks, s.Points[0].Distance)
			ret.Labels = append(ret.Labels, start)
		}
		ret.Ticks = append(ret.Ticks, s.Points[len(s.Points)-1].Distance)
		ret.Labels = append(ret.Labels, s.End)
	}
	return ret
}

// Plot draws the band structure to filename, in the format given by its extension.
func (B *Bands) Plot(title, filename string) (string, error) {
	return chemplot.BandPlot(B.ToPlot(), title, filename)
}

type yamlBand struct {
	Frequency float64 `yaml:"frequency"`
}

type yamlPoint struct {
	QPosition []float64  `yaml:"q-position,flow"`
	Distance  float64    `yaml:"distance"`
	Label     string     `yaml:"label,omitempty"`
	Band      []yamlBand `yaml:"band"`
}

type yamlBandFile struct {
	Nqpoint           int         `yaml:"nqpoint"`
	Npath             int         `yaml:"npath"`
	SegmentNqpoint    []int       `yaml:"segment_nqpoint,flow"`
	Labels            [][2]string `yaml:"labels"`
	ReciprocalLattice [][]float64 `yaml:"reciprocal_lattice"`
	Natom             int         `yaml:"natom"`
	Lattice           [][]float64 `yaml:"lattice"`
	Points            []yamlAtom  `yaml:"points"`
	Phonon            []yamlPoint `yaml:"phonon"`
}

type yamlAtom struct {
	Symbol      string    `yaml:"symbol"`
	Coordinates []float64 `yaml:"coordinates,flow"`
	Mass        float64   `yaml:"mass"`
}

// WriteBandYAML writes the band structure B to name, in the band.yaml format used by
// phonopy. The file is written atomically.
func (P *Phonon) WriteBandYAML(name string, B *Bands) error {
	rec, err := P.Unit.Reciprocal()
	if err != nil {
		return errDecorate(err, "WriteBandYAML")
	}
	frac, err := P.Unit.Scaled()
	if err != nil {
		return errDecorate(err, "WriteBandYAML")
	}
	doc := yamlBandFile{Npath: len(B.Segments), Natom: P.Unit.Len()}
	for i := 0; i < 3; i++ {
		doc.ReciprocalLattice = append(doc.ReciprocalLattice, []float64{rec.At(i, 0), rec.At(i, 1), rec.At(i, 2)})
		doc.Lattice = append(doc.Lattice, []float64{P.Unit.Cell.At(i, 0), P.Unit.Cell.At(i, 1), P.Unit.Cell.At(i, 2)})
	}
	for i := 0; i < P.Unit.Len(); i++ {
		doc.Points = append(doc.Points, yamlAtom{Symbol: P.Unit.Atom(i).Symbol, Coordinates: []float64{frac.At(i, 0), frac.At(i, 1), frac.At(i, 2)}, Mass: P.masses[i]})
	}
	for _, s := range B.Segments {
		doc.SegmentNqpoint = append(doc.SegmentNqpoint, len(s.Points))
		doc.Labels = append(doc.Labels, [2]string{s.Start, s.End})
		for k, p := range s.Points {
			yp := yamlPoint{QPosition: p.Q[:], Distance: p.Distance}
			switch k {
			case 0:
				yp.Label = s.Start
			case len(s.Points) - 1:
				yp.Label = s.End
			}
			for _, f := range p.Frequencies {
				yp.Band = append(yp.Band, yamlBand{Frequency: f})
			}
			doc.Phonon = append(doc.Phonon, yp)
		}
	}
	doc.Nqpoint = len(doc.Phonon)
	err = chem.WriteFileAtomic(name, func(out io.Writer) error {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return Error{err.Error(), name, []string{"yaml.Encode", "WriteBandYAML"}, true, nil}
		}
		return enc.Close()
	})
	return errDecorate(err, "WriteBandYAML")
}

// DOS returns the phonon density of states, sampled on a Γ-centered mesh of q points,
// and histogrammed in bins bins between the lowest and the highest frequency. It
// returns the frequency at the center of each bin and the density, in states per
// THz per unit cell, so the density integrates to 3n.
func (P *Phonon) DOS(mesh [3]int, bins int) ([]float64, []float64, error) {
	for _, m := range mesh {
		if m < 1 {
			return nil, nil, Error{"The mesh must have at least one point per direction", "", []string{"DOS"}, true, nil}
		}
	}
	if bins < 1 {
		bins = 100
	}
	nq := mesh[0] * mesh[1] * mesh[2]
	all := make([]float64, 0, nq*3*P.Unit.Len())
	for i := 0; i < mesh[0]; i++ {
		for j := 0; j < mesh[1]; j++ {
			for k := 0; k < mesh[2]; k++ {
				q := [3]float64{float64(i) / float64(mesh[0]), float64(j) / float64(mesh[1]), float64(k) / float64(mesh[2])}
				f, err := P.Frequencies(q)
				if err != nil {
					return nil, nil, errDecorate(err, "DOS")
				}
				all = append(all, f...)
			}
		}
	}
	min, max := all[0], all[0]
	for _, f := range all {
		min = math.Min(min, f)
		max = math.Max(max, f)
	}
	pad := 1e-6 * math.Max(1, max-min)
	h := histo.NewData(histo.Dividers(min-pad, max+pad, bins), all)
	return h.Centers(), h.Density(1 / float64(nq)), nil
}

/*
 * memo.go, part of atomchain.
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
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rmera/atomchain/chem"
)

// Memoized wraps a Calculator, keeping the results of recent calculations
// in memory, so identical structures are not computed twice.
type Memoized struct {
	calc  Calculator
	cache *cache.Cache
}

// Memo returns c wrapped in a result cache. Entries expire after ttl.
// A non-positive ttl means entries never expire.
func Memo(c Calculator, ttl time.Duration) *Memoized {
	if ttl <= 0 {
		return &Memoized{calc: c, cache: cache.New(cache.NoExpiration, 0)}
	}
	return &Memoized{calc: c, cache: cache.New(ttl, 2*ttl)}
}

// Name returns the name of the wrapped calculator.
func (M *Memoized) Name() string { return M.calc.Name() }

// Calculate returns a copy of the cached results for s if present, otherwise
// runs the wrapped calculator and stores its results.
func (M *Memoized) Calculate(ctx context.Context, s *chem.Structure) (*Results, error) {
	key := structureKey(s)
	if r, ok := M.cache.Get(key); ok {
		return r.(*Results).Copy(), nil
	}
	r, err := M.calc.Calculate(ctx, s)
	if err != nil {
		return nil, err
	}
	M.cache.SetDefault(key, r.Copy())
	return r, nil
}

// Len returns the number of cached results.
func (M *Memoized) Len() int { return M.cache.ItemCount() }

// structureKey hashes the species, positions, cell, periodicity and charge of s.
func structureKey(s *chem.Structure) string {
	h := sha256.New()
	buf := make([]byte, 8)
	putf := func(f float64) {
		binary.LittleEndian.PutUint64(buf, math.Float64bits(f))
		h.Write(buf)
	}
	for i := 0; i < s.Len(); i++ {
		h.Write([]byte(s.Atom(i).Symbol))
		for j := 0; j < 3; j++ {
			putf(s.Coords.At(i, j))
		}
	}
	if s.Cell != nil {
		for _, v := range s.Cell.Flat() {
			putf(v)
		}
	}
	for _, p := range s.PBC {
		if p {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
	}
	putf(float64(s.Charge()))
	putf(float64(s.Multi()))
	return hex.EncodeToString(h.Sum(nil))
}

/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package quantiles implements the classic Greenwald-style leveled-buffer
// doubles quantiles sketch: a mergeable, rank-error-bounded approximation
// of the empirical distribution of a stream of float64 values.
package quantiles

import (
	"errors"
	"fmt"
	"math"

	"github.com/niketh/sketches-core/internal"
)

var (
	// ErrInvalidK is returned when k is out of range or not a power of two.
	ErrInvalidK = errors.New("quantiles: k must be a power of two in [2, 32768]")
	// ErrEmptySketch is returned by queries on a sketch with no retained items.
	ErrEmptySketch = errors.New("quantiles: sketch is empty")
	// ErrInvalidRank is returned when a rank argument is outside [0, 1].
	ErrInvalidRank = errors.New("quantiles: rank must be in [0, 1]")
	// ErrInvalidSplitPoints is returned when split points are not strictly
	// increasing or contain NaN.
	ErrInvalidSplitPoints = errors.New("quantiles: split points must be strictly increasing and not NaN")
	// ErrCorruption is returned when a serialized image fails a structural
	// validity check (bad family id, reserved bits set, truncated buffer).
	ErrCorruption = errors.New("quantiles: corrupt or incompatible serialized image")
	// ErrBufferTooSmall is returned when a direct-mode ByteStore's capacity
	// is smaller than what k and N require.
	ErrBufferTooSmall = errors.New("quantiles: buffer too small")
	// ErrNotSupported is returned when an operation is not valid for the
	// sketch's current mode, such as wrapping a compact image as mutable.
	ErrNotSupported = errors.New("quantiles: operation not supported")
)

// DoublesSketch is a heap-resident Doubles Quantiles sketch.
//
// State is kept in the same shape as the algorithm's logical model: a base
// buffer of up to 2k unsorted doubles, and a sparse array of level buffers
// where level ℓ, when present, holds exactly k sorted doubles representing
// 2^(ℓ+1) logical stream items each. Level ℓ is present iff bit ℓ of
// bitPattern = N/(2k) is set.
type DoublesSketch struct {
	k          int
	n          uint64
	minValue   float64
	maxValue   float64
	baseBuffer []float64   // len() is always the current base-buffer count
	levels     [][]float64 // levels[l] is nil when level l is absent
	rng        randSource  // source for the downSample parity draw
}

type doublesSketchConfig struct {
	k   int
	rng randSource
}

// DoublesSketchOptionFunc configures a new DoublesSketch.
type DoublesSketchOptionFunc func(*doublesSketchConfig)

// WithK sets k, the parameter controlling space usage and accuracy. Must be
// a power of two in [2, 32768]. Defaults to DefaultK (128).
func WithK(k int) DoublesSketchOptionFunc {
	return func(c *doublesSketchConfig) {
		c.k = k
	}
}

// WithRNG overrides the sketch's source of randomness for the downSample
// parity draw. Use this to obtain a reproducible level hierarchy across
// runs by passing a rand.Rand seeded with a fixed value; sketches built
// without this option draw from the package-level math/rand source.
func WithRNG(rng randSource) DoublesSketchOptionFunc {
	return func(c *doublesSketchConfig) {
		c.rng = rng
	}
}

// NewDoublesSketch creates a new, empty heap-resident Doubles Quantiles
// sketch.
func NewDoublesSketch(opts ...DoublesSketchOptionFunc) (*DoublesSketch, error) {
	cfg := &doublesSketchConfig{k: DefaultK, rng: globalRandSource{}}
	for _, opt := range opts {
		opt(cfg)
	}
	if err := checkK(cfg.k); err != nil {
		return nil, err
	}
	return &DoublesSketch{
		k:          cfg.k,
		n:          0,
		minValue:   math.Inf(1),
		maxValue:   math.Inf(-1),
		baseBuffer: make([]float64, 0, 2*cfg.k),
		levels:     nil,
		rng:        cfg.rng,
	}, nil
}

func checkK(k int) error {
	if k < MinK || k > MaxK || !internal.IsPowerOf2(k) {
		return fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}
	return nil
}

// K returns the configured accuracy/space parameter.
func (s *DoublesSketch) K() int { return s.k }

// N returns the total number of items processed so far.
func (s *DoublesSketch) N() uint64 { return s.n }

// IsEmpty returns true if no items have been processed.
func (s *DoublesSketch) IsEmpty() bool { return s.n == 0 }

// MinValue returns the smallest value seen, or +Inf if empty.
func (s *DoublesSketch) MinValue() float64 { return s.minValue }

// MaxValue returns the largest value seen, or -Inf if empty.
func (s *DoublesSketch) MaxValue() float64 { return s.maxValue }

// NumRetained returns the number of doubles currently retained across the
// base buffer and all present levels.
func (s *DoublesSketch) NumRetained() int {
	count := len(s.baseBuffer)
	for _, lvl := range s.levels {
		if lvl != nil {
			count += s.k
		}
	}
	return count
}

// bitPattern returns N/(2k), the level occupancy bitmask, derived from N.
func (s *DoublesSketch) bitPattern() uint64 {
	return computeBitPattern(s.k, s.n)
}

// Update feeds a single value into the sketch. NaN values are silently
// dropped, as documented by the core's error-handling policy.
func (s *DoublesSketch) Update(x float64) {
	if math.IsNaN(x) {
		return
	}
	if x > s.maxValue {
		s.maxValue = x
	}
	if x < s.minValue {
		s.minValue = x
	}

	s.baseBuffer = append(s.baseBuffer, x)
	s.n++

	if len(s.baseBuffer) == 2*s.k {
		s.ensureLevelCapacity(computeNumLevelsNeeded(s.k, s.n))
		sortFloat64s(s.baseBuffer)
		s.propagateWithCarry(s.baseBuffer)
		s.baseBuffer = s.baseBuffer[:0]
	}
}

// ensureLevelCapacity grows the sparse level array so index numLevels-1 is
// addressable. For the heap variant this is a plain Go slice append; the
// direct variant performs the analogous growth through a ByteStore
// callback instead.
func (s *DoublesSketch) ensureLevelCapacity(numLevels int) {
	for len(s.levels) < numLevels {
		s.levels = append(s.levels, nil)
	}
}

// propagateWithCarry implements the carry-propagation step of the update
// algorithm: the sorted 2k base buffer is down-sampled to a k-item carry,
// which is then folded upward through the level hierarchy exactly like a
// binary counter increment, zip-merging with any occupied level and
// down-sampling the 2k result back to k until an empty level absorbs it.
func (s *DoublesSketch) propagateWithCarry(sortedBaseBuffer []float64) {
	carry := downSample(sortedBaseBuffer, s.k, s.rng)
	level := 0
	for level < len(s.levels) && s.levels[level] != nil {
		merged := zipMerge(s.levels[level], carry)
		carry = downSample(merged, s.k, s.rng)
		s.levels[level] = nil
		level++
	}
	s.ensureLevelCapacity(level + 1)
	s.levels[level] = carry
}

// Reset clears the sketch back to its initial empty state, preserving k.
func (s *DoublesSketch) Reset() {
	s.n = 0
	s.minValue = math.Inf(1)
	s.maxValue = math.Inf(-1)
	s.baseBuffer = s.baseBuffer[:0]
	s.levels = nil
}

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

package quantiles

import (
	"fmt"
	"math"

	"github.com/niketh/sketches-core/memstore"
)

// DirectDoublesSketch is a Doubles Quantiles sketch whose entire state
// lives in a caller-owned memstore.ByteStore rather than in heap-resident
// Go slices. bbCount, bitPattern and combinedBufferItemCapacity are never
// stored; they are derived from N on every access, exactly as the heap
// variant derives them from its own N field. Growth beyond the store's
// current capacity is requested through ByteStore.RequestGrow, which may
// hand back a different store instance; callers must not keep references
// to a DirectDoublesSketch's store across an Update call that could grow.
type DirectDoublesSketch struct {
	store memstore.ByteStore
	k     int
	rng   randSource // source for the downSample parity draw
}

// NewDirectDoublesSketch initializes a new, empty Doubles Quantiles sketch
// in the given store. The store must already have at least
// requiredDirectCapacityBytes(k, 0) bytes of capacity.
func NewDirectDoublesSketch(k int, store memstore.ByteStore, opts ...DoublesSketchOptionFunc) (*DirectDoublesSketch, error) {
	if err := checkK(k); err != nil {
		return nil, err
	}
	cfg := &doublesSketchConfig{rng: globalRandSource{}}
	for _, opt := range opts {
		opt(cfg)
	}
	need := requiredDirectCapacityBytes(k, 0)
	if store.Capacity() < need {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrBufferTooSmall, need, store.Capacity())
	}

	if err := store.WriteU8(offsetPreLongs, preambleLongsEmpty); err != nil {
		return nil, err
	}
	if err := store.WriteU8(offsetSerVer, SerialVersion); err != nil {
		return nil, err
	}
	if err := store.WriteU8(offsetFamilyID, FamilyID); err != nil {
		return nil, err
	}
	if err := store.WriteU8(offsetFlags, flagEmptyMask); err != nil {
		return nil, err
	}
	if err := store.WriteU16(offsetK, uint16(k)); err != nil {
		return nil, err
	}
	if err := store.WriteU64(offsetN, 0); err != nil {
		return nil, err
	}
	if err := store.WriteF64(offsetMin, math.Inf(1)); err != nil {
		return nil, err
	}
	if err := store.WriteF64(offsetMax, math.Inf(-1)); err != nil {
		return nil, err
	}
	return &DirectDoublesSketch{store: store, k: k, rng: cfg.rng}, nil
}

// WrapDirectDoublesSketch wraps an existing non-compact serialized image
// held in store as a mutable direct sketch. Compact images cannot be
// wrapped mutably; deserialize them with Deserialize into a heap sketch
// instead.
func WrapDirectDoublesSketch(store memstore.ByteStore, opts ...DoublesSketchOptionFunc) (*DirectDoublesSketch, error) {
	preLongs, err := store.ReadU8(offsetPreLongs)
	if err != nil {
		return nil, err
	}
	serVer, err := store.ReadU8(offsetSerVer)
	if err != nil {
		return nil, err
	}
	familyID, err := store.ReadU8(offsetFamilyID)
	if err != nil {
		return nil, err
	}
	flags, err := store.ReadU8(offsetFlags)
	if err != nil {
		return nil, err
	}
	k16, err := store.ReadU16(offsetK)
	if err != nil {
		return nil, err
	}
	k := int(k16)

	if serVer < SerialVersion {
		return nil, fmt.Errorf("%w: unsupported serialization version %d", ErrCorruption, serVer)
	}
	if familyID != FamilyID {
		return nil, fmt.Errorf("%w: unexpected family id %d, want %d", ErrCorruption, familyID, FamilyID)
	}
	if flags&flagCompactMask != 0 {
		return nil, fmt.Errorf("%w: cannot wrap a compact image as a mutable direct sketch", ErrNotSupported)
	}
	if err := checkK(k); err != nil {
		return nil, err
	}
	isEmpty := flags&flagEmptyMask != 0
	if isEmpty && preLongs != preambleLongsEmpty {
		return nil, fmt.Errorf("%w: empty sketch must have preLongs=1, got %d", ErrCorruption, preLongs)
	}
	if !isEmpty && preLongs != preambleLongsNonEmpty {
		return nil, fmt.Errorf("%w: non-empty sketch must have preLongs=2, got %d", ErrCorruption, preLongs)
	}

	var n uint64
	if !isEmpty {
		n, err = store.ReadU64(offsetN)
		if err != nil {
			return nil, err
		}
	}
	need := requiredDirectCapacityBytes(k, n)
	if store.Capacity() < need {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrBufferTooSmall, need, store.Capacity())
	}
	cfg := &doublesSketchConfig{rng: globalRandSource{}}
	for _, opt := range opts {
		opt(cfg)
	}
	return &DirectDoublesSketch{store: store, k: k, rng: cfg.rng}, nil
}

// requiredDirectCapacityBytes returns the minimum ByteStore capacity for a
// direct sketch with parameter k that has processed n items.
func requiredDirectCapacityBytes(k int, n uint64) int64 {
	return int64(offsetCombined + computeCombinedBufferItemCapacity(k, n)*8)
}

// Checksum returns an xxhash64 digest over the sketch's current logical
// byte range (preamble plus combined buffer), letting callers detect a
// torn or corrupted backing buffer across a wrap or IPC hand-off without
// re-reading every field.
func (s *DirectDoublesSketch) Checksum() (uint64, error) {
	return s.store.Checksum(requiredDirectCapacityBytes(s.k, s.N()))
}

func (s *DirectDoublesSketch) K() int { return s.k }

func (s *DirectDoublesSketch) N() uint64 {
	n, _ := s.store.ReadU64(offsetN)
	return n
}

func (s *DirectDoublesSketch) IsEmpty() bool { return s.N() == 0 }

func (s *DirectDoublesSketch) MinValue() float64 {
	v, _ := s.store.ReadF64(offsetMin)
	return v
}

func (s *DirectDoublesSketch) MaxValue() float64 {
	v, _ := s.store.ReadF64(offsetMax)
	return v
}

func (s *DirectDoublesSketch) baseBufferCount() int {
	return computeBaseBufferCount(s.k, s.N())
}

// levelOffset returns the byte offset of level l's k-item region.
func levelOffset(k, l int) int64 {
	return int64(offsetCombined + (2+l)*k*8)
}

// Update feeds a single value into the direct sketch, mutating the backing
// store in place and requesting growth when the base buffer fills and the
// level hierarchy needs another slot.
func (s *DirectDoublesSketch) Update(x float64) error {
	if math.IsNaN(x) {
		return nil
	}
	if x > s.MaxValue() {
		if err := s.store.WriteF64(offsetMax, x); err != nil {
			return err
		}
	}
	if x < s.MinValue() {
		if err := s.store.WriteF64(offsetMin, x); err != nil {
			return err
		}
	}

	n := s.N()
	bbCount := computeBaseBufferCount(s.k, n)
	if err := s.store.WriteF64(offsetCombined+int64(bbCount)*8, x); err != nil {
		return err
	}
	newN := n + 1

	if err := s.store.WriteU8(offsetPreLongs, preambleLongsNonEmpty); err != nil {
		return err
	}
	if err := s.store.WriteU8(offsetFlags, 0); err != nil {
		return err
	}

	if bbCount+1 == 2*s.k {
		needed := requiredDirectCapacityBytes(s.k, newN)
		if s.store.Capacity() < needed {
			grown, err := s.store.RequestGrow(needed, true)
			if err != nil {
				return err
			}
			s.store = grown
		}

		baseBuf, err := s.store.ReadF64Array(offsetCombined, 2*s.k)
		if err != nil {
			return err
		}
		sortFloat64s(baseBuf)
		if err := s.store.WriteF64Array(offsetCombined, baseBuf); err != nil {
			return err
		}

		if err := s.propagateWithCarry(baseBuf, n); err != nil {
			return err
		}
	}

	return s.store.WriteU64(offsetN, newN)
}

// propagateWithCarry mirrors DoublesSketch.propagateWithCarry but reads and
// writes level runs through the store instead of Go slices.
func (s *DirectDoublesSketch) propagateWithCarry(sortedBaseBuffer []float64, preUpdateN uint64) error {
	bitPattern := computeBitPattern(s.k, preUpdateN)
	carry := downSample(sortedBaseBuffer, s.k, s.rng)

	level := 0
	for bitPattern&(1<<uint(level)) != 0 {
		existing, err := s.store.ReadF64Array(levelOffset(s.k, level), s.k)
		if err != nil {
			return err
		}
		merged := zipMerge(existing, carry)
		carry = downSample(merged, s.k, s.rng)
		level++
	}
	return s.store.WriteF64Array(levelOffset(s.k, level), carry)
}

// ToHeap materializes a heap-resident snapshot of the current direct-mode
// state, for use with the query surface (GetQuantile/GetRank/GetPMF/GetCDF).
func (s *DirectDoublesSketch) ToHeap() (*DoublesSketch, error) {
	n := s.N()
	bbCount := s.baseBufferCount()
	numLevels := computeNumLevelsNeeded(s.k, n)
	bitPattern := computeBitPattern(s.k, n)

	baseBuf, err := s.store.ReadF64Array(offsetCombined, 2*s.k)
	if err != nil {
		return nil, err
	}

	out := &DoublesSketch{
		k:          s.k,
		n:          n,
		minValue:   s.MinValue(),
		maxValue:   s.MaxValue(),
		baseBuffer: append([]float64(nil), baseBuf[:bbCount]...),
		levels:     make([][]float64, numLevels),
		rng:        globalRandSource{},
	}
	for l := 0; l < numLevels; l++ {
		if bitPattern&(1<<uint(l)) == 0 {
			continue
		}
		lvl, err := s.store.ReadF64Array(levelOffset(s.k, l), s.k)
		if err != nil {
			return nil, err
		}
		out.levels[l] = lvl
	}
	return out, nil
}

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

package theta

import (
	"errors"
	"fmt"
	"iter"

	"github.com/niketh/sketches-core/internal"
	"github.com/niketh/sketches-core/memstore"
)

// ErrBufferTooSmall is returned when a direct-mode ByteStore's capacity is
// smaller than what the requested lgCurSize requires.
var ErrBufferTooSmall = errors.New("theta: buffer too small")

// ErrCorruption is returned when a direct-mode image fails a structural
// validity check on wrap (bad preamble longs, serial version or family id).
var ErrCorruption = errors.New("theta: corrupt or incompatible direct image")

// Byte offsets within a direct sketch's ByteStore. Unlike the compact wire
// formats in compact_sketch.go and decoder.go, this is not a form meant to
// travel between processes of different sketch implementations: it exists
// so a QuickSelect update sketch's hash table can live in a caller-owned
// buffer (shared memory, a memory-mapped file, an off-heap arena) instead
// of on the Go heap, mirroring direct_doubles_sketch.go in the quantiles
// package. Interop with Java's DirectQuickSelectSketch wire format is not
// attempted; there is no grounding source for it in this repository.
const (
	directOffsetPreLongs   = 0 // uint8, fixed at directPreLongs
	directOffsetSerVer     = 1 // uint8
	directOffsetFamilyID   = 2 // uint8
	directOffsetFlags      = 3 // uint8, bit 0 = empty
	directOffsetLgNomSize  = 4 // uint8
	directOffsetLgCurSize  = 5 // uint8
	directOffsetRF         = 6 // uint8
	directOffsetP          = 8 // float64 (widened from float32)
	directOffsetTheta      = 16
	directOffsetSeed       = 24
	directOffsetNumEntries = 32 // uint32
	directOffsetEntries    = 40
)

const (
	directSerVer   = 1
	directPreLongs = 5 // in units of 8 bytes, i.e. directOffsetEntries/8
	// directFamilyID marks this store's layout as a direct QuickSelect
	// update sketch. It has no relationship to Java's family id values;
	// this format never leaves the process, so there is nothing for it
	// to stay compatible with.
	directFamilyID = 1
)

const directFlagEmptyMask uint8 = 1

// DirectQuickSelectSketch is a QuickSelect update sketch whose hash table
// lives in a caller-owned memstore.ByteStore. It supports the same
// incremental Update* operations as QuickSelectUpdateSketch; queries,
// trimming and compaction are performed by first materializing a heap
// snapshot with ToHeap, exactly as DirectDoublesSketch.ToHeap is used
// before running the quantiles query surface.
type DirectQuickSelectSketch struct {
	store     memstore.ByteStore
	lgNomSize uint8
	rf        ResizeFactor
	seed      uint64
}

// requiredDirectCapacityBytes returns the minimum ByteStore capacity for a
// direct sketch whose current hash table has 2^lgCurSize slots.
func requiredDirectCapacityBytes(lgCurSize uint8) int64 {
	return directOffsetEntries + int64(1<<lgCurSize)*8
}

// NewDirectQuickSelectSketch initializes a new, empty QuickSelect update
// sketch whose hash table lives in store. The store must already have at
// least requiredDirectCapacityBytes(startingLgCurSize) bytes of capacity,
// where startingLgCurSize is derived from lgK and rf exactly as the heap
// variant's NewQuickSelectUpdateSketch does.
func NewDirectQuickSelectSketch(store memstore.ByteStore, opts ...UpdateSketchOptionFunc) (*DirectQuickSelectSketch, error) {
	options := &updateSketchOptions{
		lgK:  DefaultLgK,
		rf:   DefaultResizeFactor,
		p:    1.0,
		seed: DefaultSeed,
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.lgK < MinLgK {
		return nil, fmt.Errorf("lg_k must not be less than %d: %d", MinLgK, options.lgK)
	}
	if options.lgK > MaxLgK {
		return nil, fmt.Errorf("lg_k must not be greater than %d: %d", MaxLgK, options.lgK)
	}
	if options.p <= 0 || options.p > 1 {
		return nil, errors.New("sampling probability must be between 0 and 1")
	}

	lgCurSize := startingSubMultiple(options.lgK+1, MinLgK, uint8(options.rf))
	theta := startingThetaFromP(options.p)

	need := requiredDirectCapacityBytes(lgCurSize)
	if store.Capacity() < need {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrBufferTooSmall, need, store.Capacity())
	}

	if err := store.WriteU8(directOffsetPreLongs, directPreLongs); err != nil {
		return nil, err
	}
	if err := store.WriteU8(directOffsetSerVer, directSerVer); err != nil {
		return nil, err
	}
	if err := store.WriteU8(directOffsetFamilyID, directFamilyID); err != nil {
		return nil, err
	}
	if err := store.WriteU8(directOffsetFlags, directFlagEmptyMask); err != nil {
		return nil, err
	}
	if err := store.WriteU8(directOffsetLgNomSize, options.lgK); err != nil {
		return nil, err
	}
	if err := store.WriteU8(directOffsetLgCurSize, lgCurSize); err != nil {
		return nil, err
	}
	if err := store.WriteU8(directOffsetRF, uint8(options.rf)); err != nil {
		return nil, err
	}
	if err := store.WriteF64(directOffsetP, float64(options.p)); err != nil {
		return nil, err
	}
	if err := store.WriteU64(directOffsetTheta, theta); err != nil {
		return nil, err
	}
	if err := store.WriteU64(directOffsetSeed, options.seed); err != nil {
		return nil, err
	}
	if err := store.WriteU32(directOffsetNumEntries, 0); err != nil {
		return nil, err
	}

	return &DirectQuickSelectSketch{
		store:     store,
		lgNomSize: options.lgK,
		rf:        options.rf,
		seed:      options.seed,
	}, nil
}

// WrapDirectQuickSelectSketch resumes operation against an existing direct
// sketch image held in store, e.g. after the process that created it with
// NewDirectQuickSelectSketch exited and a new process mapped the same
// buffer back in.
func WrapDirectQuickSelectSketch(store memstore.ByteStore) (*DirectQuickSelectSketch, error) {
	preLongs, err := store.ReadU8(directOffsetPreLongs)
	if err != nil {
		return nil, err
	}
	if preLongs != directPreLongs {
		return nil, fmt.Errorf("%w: unexpected preamble longs %d, want %d", ErrCorruption, preLongs, directPreLongs)
	}
	serVer, err := store.ReadU8(directOffsetSerVer)
	if err != nil {
		return nil, err
	}
	if serVer != directSerVer {
		return nil, fmt.Errorf("%w: unsupported direct serialization version %d", ErrCorruption, serVer)
	}
	familyID, err := store.ReadU8(directOffsetFamilyID)
	if err != nil {
		return nil, err
	}
	if familyID != directFamilyID {
		return nil, fmt.Errorf("%w: unexpected family id %d, want %d", ErrCorruption, familyID, directFamilyID)
	}
	lgNomSize, err := store.ReadU8(directOffsetLgNomSize)
	if err != nil {
		return nil, err
	}
	lgCurSize, err := store.ReadU8(directOffsetLgCurSize)
	if err != nil {
		return nil, err
	}
	rf, err := store.ReadU8(directOffsetRF)
	if err != nil {
		return nil, err
	}
	seed, err := store.ReadU64(directOffsetSeed)
	if err != nil {
		return nil, err
	}

	need := requiredDirectCapacityBytes(lgCurSize)
	if store.Capacity() < need {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrBufferTooSmall, need, store.Capacity())
	}

	return &DirectQuickSelectSketch{
		store:     store,
		lgNomSize: lgNomSize,
		rf:        ResizeFactor(rf),
		seed:      seed,
	}, nil
}

func (s *DirectQuickSelectSketch) lgCurSize() uint8 {
	v, _ := s.store.ReadU8(directOffsetLgCurSize)
	return v
}

func (s *DirectQuickSelectSketch) numEntries() uint32 {
	v, _ := s.store.ReadU32(directOffsetNumEntries)
	return v
}

func (s *DirectQuickSelectSketch) theta() uint64 {
	v, _ := s.store.ReadU64(directOffsetTheta)
	return v
}

// IsEmpty returns true if this sketch represents an empty set (not the
// same as no retained entries!).
func (s *DirectQuickSelectSketch) IsEmpty() bool {
	flags, _ := s.store.ReadU8(directOffsetFlags)
	return flags&directFlagEmptyMask != 0
}

// IsOrdered returns true if retained entries happen to be ordered.
func (s *DirectQuickSelectSketch) IsOrdered() bool {
	return s.numEntries() <= 1
}

// Theta64 returns theta as a positive integer between 0 and MaxTheta.
func (s *DirectQuickSelectSketch) Theta64() uint64 {
	if s.IsEmpty() {
		return MaxTheta
	}
	return s.theta()
}

// NumRetained returns the number of retained entries in the sketch.
func (s *DirectQuickSelectSketch) NumRetained() uint32 {
	return s.numEntries()
}

// SeedHash returns hash of the seed that was used to hash the input.
func (s *DirectQuickSelectSketch) SeedHash() (uint16, error) {
	seedHash, err := internal.ComputeSeedHash(int64(s.seed))
	if err != nil {
		return 0, err
	}
	return uint16(seedHash), nil
}

// LgK returns the configured nominal number of entries in the sketch.
func (s *DirectQuickSelectSketch) LgK() uint8 { return s.lgNomSize }

// ResizeFactor returns the configured resize factor of the sketch.
func (s *DirectQuickSelectSketch) ResizeFactor() ResizeFactor { return s.rf }

// readEntries copies the current hash table out of the store into a Go
// slice. Direct mode still pays this copy for the probe/insert path today;
// unlike the quantiles direct variant there is no typed bulk array
// accessor for uint64 in memstore.ByteStore, only per-slot ReadU64/WriteU64.
func (s *DirectQuickSelectSketch) readEntries(lgSize uint8) ([]uint64, error) {
	size := 1 << lgSize
	entries := make([]uint64, size)
	for i := 0; i < size; i++ {
		v, err := s.store.ReadU64(directOffsetEntries + int64(i)*8)
		if err != nil {
			return nil, err
		}
		entries[i] = v
	}
	return entries, nil
}

func (s *DirectQuickSelectSketch) writeEntries(entries []uint64) error {
	for i, v := range entries {
		if err := s.store.WriteU64(directOffsetEntries+int64(i)*8, v); err != nil {
			return err
		}
	}
	return nil
}

// hashInt64AndScreen hashes value with the sketch's seed and rejects it if it
// does not pass the current theta threshold, exactly like
// Hashtable.HashInt64AndScreen and friends.
func (s *DirectQuickSelectSketch) hashInt64AndScreen(value int64) (uint64, error) {
	if err := s.markNonEmpty(); err != nil {
		return 0, err
	}
	h1, _ := internal.HashInt64SliceMurmur3([]int64{value}, 0, 1, s.seed)
	hash := h1 >> 1
	if hash >= s.theta() {
		return 0, ErrHashExceedsTheta
	}
	if hash == 0 {
		return 0, ErrZeroHashValue
	}
	return hash, nil
}

func (s *DirectQuickSelectSketch) hashStringAndScreen(data string) (uint64, error) {
	if err := s.markNonEmpty(); err != nil {
		return 0, err
	}
	h1, _ := internal.HashCharSliceMurmur3([]byte(data), 0, len(data), s.seed)
	hash := h1 >> 1
	if hash >= s.theta() {
		return 0, ErrHashExceedsTheta
	}
	if hash == 0 {
		return 0, ErrZeroHashValue
	}
	return hash, nil
}

func (s *DirectQuickSelectSketch) markNonEmpty() error {
	flags, err := s.store.ReadU8(directOffsetFlags)
	if err != nil {
		return err
	}
	if flags&directFlagEmptyMask == 0 {
		return nil
	}
	return s.store.WriteU8(directOffsetFlags, flags&^directFlagEmptyMask)
}

// UpdateInt64 updates the sketch with a signed 64-bit integer. Only
// updates when the value is not already present.
func (s *DirectQuickSelectSketch) UpdateInt64(value int64) error {
	hash, err := s.hashInt64AndScreen(value)
	if err != nil {
		return err
	}
	return s.insertHash(hash)
}

// UpdateString updates the sketch with a string. Only updates when the
// value is not already present.
func (s *DirectQuickSelectSketch) UpdateString(value string) error {
	if value == "" {
		return ErrUpdateEmptyString
	}
	hash, err := s.hashStringAndScreen(value)
	if err != nil {
		return err
	}
	return s.insertHash(hash)
}

// insertHash performs the probe/insert/resize-or-rebuild sequence for a
// screened hash, reading the table out of the store, mutating it in
// memory, and writing the result back exactly like Hashtable.Insert does
// against a heap slice.
func (s *DirectQuickSelectSketch) insertHash(hash uint64) error {
	lgCur := s.lgCurSize()
	entries, err := s.readEntries(lgCur)
	if err != nil {
		return err
	}

	index, err := find(entries, lgCur, hash)
	if err == nil {
		return ErrDuplicateKey
	}
	if err != ErrKeyNotFound {
		return err
	}

	entries[index] = hash
	numEntries := s.numEntries() + 1
	if err := s.store.WriteU64(directOffsetEntries+int64(index)*8, hash); err != nil {
		return err
	}
	if err := s.store.WriteU32(directOffsetNumEntries, numEntries); err != nil {
		return err
	}

	if numEntries > computeCapacity(lgCur, s.lgNomSize) {
		if lgCur <= s.lgNomSize {
			return s.resize(lgCur, entries)
		}
		return s.rebuild(lgCur, entries)
	}
	return nil
}

// resize grows the table to the next size dictated by the resize factor
// and reinserts every entry, requesting more store capacity first if the
// backing buffer cannot hold the larger table.
func (s *DirectQuickSelectSketch) resize(lgCur uint8, entries []uint64) error {
	oldSize := 1 << lgCur
	lgNew := min(lgCur+uint8(s.rf), s.lgNomSize+1)
	newSize := 1 << lgNew

	need := requiredDirectCapacityBytes(lgNew)
	if s.store.Capacity() < need {
		grown, err := s.store.RequestGrow(need, true)
		if err != nil {
			return err
		}
		s.store = grown
	}

	newEntries := make([]uint64, newSize)
	for i := 0; i < oldSize; i++ {
		key := entries[i]
		if key != 0 {
			index, _ := find(newEntries, lgNew, key)
			newEntries[index] = key
		}
	}

	if err := s.store.WriteU8(directOffsetLgCurSize, lgNew); err != nil {
		return err
	}
	return s.writeEntries(newEntries)
}

// rebuild consolidates non-empty entries, quick-selects a new theta at the
// nominal size, and reinserts everything below it, exactly mirroring
// Hashtable.rebuild but through the store.
func (s *DirectQuickSelectSketch) rebuild(lgCur uint8, entries []uint64) error {
	size := 1 << lgCur
	nominalSize := 1 << s.lgNomSize
	numEntries := int(s.numEntries())

	consolidateNonEmpty(entries, size, numEntries)
	internal.QuickSelect(entries[:numEntries], 0, numEntries-1, nominalSize)
	newTheta := entries[nominalSize]

	oldEntries := entries
	newEntries := make([]uint64, size)
	for i := 0; i < nominalSize; i++ {
		index, _ := find(newEntries, lgCur, oldEntries[i])
		newEntries[index] = oldEntries[i]
	}

	if err := s.store.WriteU64(directOffsetTheta, newTheta); err != nil {
		return err
	}
	if err := s.store.WriteU32(directOffsetNumEntries, uint32(nominalSize)); err != nil {
		return err
	}
	return s.writeEntries(newEntries)
}

// All returns an iterator over the non-zero hash values currently in the
// table.
func (s *DirectQuickSelectSketch) All() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		entries, err := s.readEntries(s.lgCurSize())
		if err != nil {
			return
		}
		for _, entry := range entries {
			if entry != 0 {
				if !yield(entry) {
					return
				}
			}
		}
	}
}

// ToHeap materializes a heap-resident QuickSelectUpdateSketch carrying the
// same entries, theta, seed and configuration as the direct sketch's
// current state, for use with Trim, Compact and the estimator surface.
func (s *DirectQuickSelectSketch) ToHeap() (*QuickSelectUpdateSketch, error) {
	lgCur := s.lgCurSize()
	entries, err := s.readEntries(lgCur)
	if err != nil {
		return nil, err
	}

	p, err := s.store.ReadF64(directOffsetP)
	if err != nil {
		return nil, err
	}

	table := &Hashtable{
		entries:    entries,
		theta:      s.theta(),
		seed:       s.seed,
		numEntries: s.numEntries(),
		p:          float32(p),
		lgCurSize:  lgCur,
		lgNomSize:  s.lgNomSize,
		rf:         s.rf,
		isEmpty:    s.IsEmpty(),
	}
	return &QuickSelectUpdateSketch{table: table}, nil
}

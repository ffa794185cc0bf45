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
	"encoding/binary"
	"fmt"
	"math"
)

// Serialize writes the sketch to its updatable (non-compact) wire form:
// every level slot up to the highest occupied level is present, including
// unoccupied ones below it, matching the layout a direct-mode buffer is read from.
func (s *DoublesSketch) Serialize() []byte {
	return s.serialize(false)
}

// SerializeCompact writes the sketch to its compact wire form: only the
// valid base-buffer items and present levels are emitted, in ascending
// level order. The image carries the COMPACT and READ_ONLY flags, so
// WrapDirectDoublesSketch rejects it; Deserialize still rebuilds an
// updatable heap sketch from it.
func (s *DoublesSketch) SerializeCompact() []byte {
	return s.serialize(true)
}

func (s *DoublesSketch) serialize(compact bool) []byte {
	if s.IsEmpty() {
		buf := make([]byte, 8)
		buf[offsetPreLongs] = preambleLongsEmpty
		buf[offsetSerVer] = SerialVersion
		buf[offsetFamilyID] = FamilyID
		buf[offsetFlags] = flagEmptyMask
		binary.LittleEndian.PutUint16(buf[offsetK:], uint16(s.k))
		return buf
	}

	numLevels := computeNumLevelsNeeded(s.k, s.n)
	bbCount := len(s.baseBuffer)

	var payloadItems int
	if compact {
		payloadItems = bbCount
		for _, lvl := range s.levels {
			if lvl != nil {
				payloadItems += s.k
			}
		}
	} else {
		payloadItems = 2*s.k + numLevels*s.k
	}

	buf := make([]byte, offsetCombined+payloadItems*8)
	buf[offsetPreLongs] = preambleLongsNonEmpty
	buf[offsetSerVer] = SerialVersion
	buf[offsetFamilyID] = FamilyID
	flags := uint8(0)
	if compact {
		flags |= flagCompactMask | flagReadOnlyMask
	}
	buf[offsetFlags] = flags
	binary.LittleEndian.PutUint16(buf[offsetK:], uint16(s.k))
	binary.LittleEndian.PutUint64(buf[offsetN:], s.n)
	binary.LittleEndian.PutUint64(buf[offsetMin:], math.Float64bits(s.minValue))
	binary.LittleEndian.PutUint64(buf[offsetMax:], math.Float64bits(s.maxValue))

	off := offsetCombined
	if compact {
		for _, v := range s.baseBuffer {
			binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(v))
			off += 8
		}
		for _, lvl := range s.levels {
			if lvl == nil {
				continue
			}
			for _, v := range lvl {
				binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(v))
				off += 8
			}
		}
		return buf
	}

	for i := 0; i < 2*s.k; i++ {
		var v float64
		if i < bbCount {
			v = s.baseBuffer[i]
		}
		binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(v))
		off += 8
	}
	for l := 0; l < numLevels; l++ {
		for i := 0; i < s.k; i++ {
			var v float64
			if l < len(s.levels) && s.levels[l] != nil {
				v = s.levels[l][i]
			}
			binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(v))
			off += 8
		}
	}
	return buf
}

// Deserialize reconstructs a DoublesSketch (heap-resident) from either a
// compact or updatable wire image.
func Deserialize(buf []byte) (*DoublesSketch, error) {
	if len(buf) < 8 {
		return nil, fmt.Errorf("%w: need at least 8 bytes, got %d", ErrCorruption, len(buf))
	}
	preLongs := buf[offsetPreLongs]
	serVer := buf[offsetSerVer]
	familyID := buf[offsetFamilyID]
	flags := buf[offsetFlags]
	k := int(binary.LittleEndian.Uint16(buf[offsetK:]))

	if serVer < SerialVersion {
		return nil, fmt.Errorf("%w: unsupported serialization version %d", ErrCorruption, serVer)
	}
	if familyID != FamilyID {
		return nil, fmt.Errorf("%w: unexpected family id %d, want %d", ErrCorruption, familyID, FamilyID)
	}
	if flags&flagBigEndianMask != 0 {
		return nil, fmt.Errorf("%w: big-endian images are not supported", ErrCorruption)
	}
	if err := checkK(k); err != nil {
		return nil, err
	}

	isEmpty := flags&flagEmptyMask != 0
	if isEmpty {
		if preLongs != preambleLongsEmpty {
			return nil, fmt.Errorf("%w: empty sketch must have preLongs=1, got %d", ErrCorruption, preLongs)
		}
		return NewDoublesSketch(WithK(k))
	}
	if preLongs != preambleLongsNonEmpty {
		return nil, fmt.Errorf("%w: non-empty sketch must have preLongs=2, got %d", ErrCorruption, preLongs)
	}
	if len(buf) < offsetCombined {
		return nil, fmt.Errorf("%w: need at least %d bytes, got %d", ErrCorruption, offsetCombined, len(buf))
	}

	n := binary.LittleEndian.Uint64(buf[offsetN:])
	minValue := math.Float64frombits(binary.LittleEndian.Uint64(buf[offsetMin:]))
	maxValue := math.Float64frombits(binary.LittleEndian.Uint64(buf[offsetMax:]))

	bbCount := computeBaseBufferCount(k, n)
	numLevels := computeNumLevelsNeeded(k, n)
	bitPattern := computeBitPattern(k, n)

	compact := flags&flagCompactMask != 0

	s := &DoublesSketch{
		k:          k,
		n:          n,
		minValue:   minValue,
		maxValue:   maxValue,
		baseBuffer: make([]float64, bbCount),
		levels:     make([][]float64, numLevels),
		rng:        globalRandSource{},
	}

	off := offsetCombined
	readF64s := func(count int) ([]float64, error) {
		need := off + count*8
		if len(buf) < need {
			return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrCorruption, need, len(buf))
		}
		out := make([]float64, count)
		for i := 0; i < count; i++ {
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[off:]))
			off += 8
		}
		return out, nil
	}

	if compact {
		bb, err := readF64s(bbCount)
		if err != nil {
			return nil, err
		}
		s.baseBuffer = bb
		for l := 0; l < numLevels; l++ {
			if bitPattern&(1<<uint(l)) == 0 {
				continue
			}
			lvl, err := readF64s(k)
			if err != nil {
				return nil, err
			}
			s.levels[l] = lvl
		}
		return s, nil
	}

	bb, err := readF64s(2 * k)
	if err != nil {
		return nil, err
	}
	s.baseBuffer = bb[:bbCount]
	for l := 0; l < numLevels; l++ {
		lvl, err := readF64s(k)
		if err != nil {
			return nil, err
		}
		if bitPattern&(1<<uint(l)) != 0 {
			s.levels[l] = lvl
		}
	}
	return s, nil
}

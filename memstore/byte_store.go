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

// Package memstore provides the ByteStore abstraction: a random-access,
// fixed- or growable-capacity byte region with typed little-endian
// read/write helpers. Theta and Doubles Quantiles sketches use it as the
// backing for their "direct" storage mode, where every state mutation
// happens in a caller-owned buffer instead of heap-resident Go slices.
package memstore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
)

// ErrBufferTooSmall is returned when an indexed access exceeds capacity.
var ErrBufferTooSmall = errors.New("memstore: buffer too small")

// ByteStore is a random-access byte region with typed little-endian
// accessors. Implementations may be fixed-capacity or growable via
// RequestGrow.
type ByteStore interface {
	// Capacity returns the total addressable size of the store in bytes.
	Capacity() int64

	ReadU8(offset int64) (uint8, error)
	ReadU16(offset int64) (uint16, error)
	ReadU32(offset int64) (uint32, error)
	ReadU64(offset int64) (uint64, error)
	ReadF64(offset int64) (float64, error)

	WriteU8(offset int64, v uint8) error
	WriteU16(offset int64, v uint16) error
	WriteU32(offset int64, v uint32) error
	WriteU64(offset int64, v uint64) error
	WriteF64(offset int64, v float64) error

	// ReadF64Array reads length float64 values starting at offset.
	ReadF64Array(offset int64, length int) ([]float64, error)
	// WriteF64Array writes values starting at offset.
	WriteF64Array(offset int64, values []float64) error

	// Checksum returns an xxhash64 digest of the first n bytes of the
	// store, for cheap integrity checks across a serialize/deserialize or
	// wrap round trip.
	Checksum(n int64) (uint64, error)

	// RequestGrow asks for a store with at least newCapacityBytes of
	// capacity. If copyExisting is true, the bytes already written to the
	// current store are preserved at the same offsets in the returned
	// store. The returned store may be the same instance (if it already
	// had enough capacity) or an entirely new one; callers must treat the
	// receiver as invalid after a RequestGrow that returns a new store and
	// must not retain stale references to it.
	RequestGrow(newCapacityBytes int64, copyExisting bool) (ByteStore, error)
}

// SliceByteStore is a ByteStore backed by a Go byte slice held entirely on
// the Go heap. Growth reallocates a larger slice.
type SliceByteStore struct {
	buf []byte
}

// NewSliceByteStore allocates a heap-backed ByteStore of the given size.
func NewSliceByteStore(sizeBytes int64) *SliceByteStore {
	return &SliceByteStore{buf: make([]byte, sizeBytes)}
}

// WrapSliceByteStore wraps an existing byte slice as a ByteStore without
// copying it. Growth beyond the wrapped slice's capacity reallocates.
func WrapSliceByteStore(buf []byte) *SliceByteStore {
	return &SliceByteStore{buf: buf}
}

// Bytes returns the store's backing slice. Callers must not retain it
// across a RequestGrow call.
func (s *SliceByteStore) Bytes() []byte { return s.buf }

func (s *SliceByteStore) Capacity() int64 { return int64(len(s.buf)) }

func (s *SliceByteStore) checkRange(offset, width int64) error {
	if offset < 0 || offset+width > int64(len(s.buf)) {
		return fmt.Errorf("%w: offset=%d width=%d capacity=%d", ErrBufferTooSmall, offset, width, len(s.buf))
	}
	return nil
}

func (s *SliceByteStore) ReadU8(offset int64) (uint8, error) {
	if err := s.checkRange(offset, 1); err != nil {
		return 0, err
	}
	return s.buf[offset], nil
}

func (s *SliceByteStore) ReadU16(offset int64) (uint16, error) {
	if err := s.checkRange(offset, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(s.buf[offset:]), nil
}

func (s *SliceByteStore) ReadU32(offset int64) (uint32, error) {
	if err := s.checkRange(offset, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(s.buf[offset:]), nil
}

func (s *SliceByteStore) ReadU64(offset int64) (uint64, error) {
	if err := s.checkRange(offset, 8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(s.buf[offset:]), nil
}

func (s *SliceByteStore) ReadF64(offset int64) (float64, error) {
	bits, err := s.ReadU64(offset)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}

func (s *SliceByteStore) WriteU8(offset int64, v uint8) error {
	if err := s.checkRange(offset, 1); err != nil {
		return err
	}
	s.buf[offset] = v
	return nil
}

func (s *SliceByteStore) WriteU16(offset int64, v uint16) error {
	if err := s.checkRange(offset, 2); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(s.buf[offset:], v)
	return nil
}

func (s *SliceByteStore) WriteU32(offset int64, v uint32) error {
	if err := s.checkRange(offset, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(s.buf[offset:], v)
	return nil
}

func (s *SliceByteStore) WriteU64(offset int64, v uint64) error {
	if err := s.checkRange(offset, 8); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(s.buf[offset:], v)
	return nil
}

func (s *SliceByteStore) WriteF64(offset int64, v float64) error {
	return s.WriteU64(offset, math.Float64bits(v))
}

func (s *SliceByteStore) ReadF64Array(offset int64, length int) ([]float64, error) {
	if err := s.checkRange(offset, int64(length)*8); err != nil {
		return nil, err
	}
	out := make([]float64, length)
	for i := 0; i < length; i++ {
		bits := binary.LittleEndian.Uint64(s.buf[offset+int64(i)*8:])
		out[i] = math.Float64frombits(bits)
	}
	return out, nil
}

func (s *SliceByteStore) WriteF64Array(offset int64, values []float64) error {
	if err := s.checkRange(offset, int64(len(values))*8); err != nil {
		return err
	}
	for i, v := range values {
		binary.LittleEndian.PutUint64(s.buf[offset+int64(i)*8:], math.Float64bits(v))
	}
	return nil
}

// Checksum returns the xxhash64 digest of the first n bytes of the store.
func (s *SliceByteStore) Checksum(n int64) (uint64, error) {
	if err := s.checkRange(0, n); err != nil {
		return 0, err
	}
	return xxhash.Sum64(s.buf[:n]), nil
}

// RequestGrow reallocates the backing slice if it is smaller than
// newCapacityBytes, copying existing bytes when copyExisting is true.
func (s *SliceByteStore) RequestGrow(newCapacityBytes int64, copyExisting bool) (ByteStore, error) {
	if newCapacityBytes <= int64(len(s.buf)) {
		return s, nil
	}
	next := make([]byte, newCapacityBytes)
	if copyExisting {
		copy(next, s.buf)
	}
	return &SliceByteStore{buf: next}, nil
}

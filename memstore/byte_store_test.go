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

package memstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceByteStoreReadWriteRoundTrip(t *testing.T) {
	s := NewSliceByteStore(64)

	require.NoError(t, s.WriteU8(0, 0xAB))
	require.NoError(t, s.WriteU16(1, 0x1234))
	require.NoError(t, s.WriteU32(3, 0xDEADBEEF))
	require.NoError(t, s.WriteU64(7, 0x1122334455667788))
	require.NoError(t, s.WriteF64(15, 3.14159265358979))

	u8, err := s.ReadU8(0)
	require.NoError(t, err)
	assert.Equal(t, uint8(0xAB), u8)

	u16, err := s.ReadU16(1)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), u16)

	u32, err := s.ReadU32(3)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), u32)

	u64, err := s.ReadU64(7)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1122334455667788), u64)

	f64, err := s.ReadF64(15)
	require.NoError(t, err)
	assert.Equal(t, 3.14159265358979, f64)
}

func TestSliceByteStoreArrayRoundTrip(t *testing.T) {
	s := NewSliceByteStore(80)
	values := []float64{1.5, -2.25, 0, 1e300, -1e-300}

	require.NoError(t, s.WriteF64Array(8, values))
	roundTrip, err := s.ReadF64Array(8, len(values))
	require.NoError(t, err)
	assert.Equal(t, values, roundTrip)
}

func TestSliceByteStoreBufferTooSmall(t *testing.T) {
	s := NewSliceByteStore(4)

	_, err := s.ReadU64(0)
	assert.ErrorIs(t, err, ErrBufferTooSmall)

	err = s.WriteU64(0, 1)
	assert.ErrorIs(t, err, ErrBufferTooSmall)

	_, err = s.ReadF64Array(0, 10)
	assert.ErrorIs(t, err, ErrBufferTooSmall)
}

func TestSliceByteStoreRequestGrowCopiesExisting(t *testing.T) {
	s := NewSliceByteStore(8)
	require.NoError(t, s.WriteU64(0, 0xCAFEBABECAFEBABE))

	grown, err := s.RequestGrow(32, true)
	require.NoError(t, err)
	assert.Equal(t, int64(32), grown.Capacity())

	v, err := grown.ReadU64(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xCAFEBABECAFEBABE), v)
}

func TestSliceByteStoreRequestGrowNoOpWhenAlreadyLargeEnough(t *testing.T) {
	s := NewSliceByteStore(32)
	grown, err := s.RequestGrow(16, true)
	require.NoError(t, err)
	assert.Same(t, s, grown)
}

func TestSliceByteStoreChecksum(t *testing.T) {
	s := NewSliceByteStore(16)
	require.NoError(t, s.WriteU64(0, 0x1122334455667788))

	sum1, err := s.Checksum(8)
	require.NoError(t, err)

	other := NewSliceByteStore(16)
	require.NoError(t, other.WriteU64(0, 0x1122334455667788))
	sum2, err := other.Checksum(8)
	require.NoError(t, err)
	assert.Equal(t, sum1, sum2)

	require.NoError(t, s.WriteU8(0, 0xFF))
	sum3, err := s.Checksum(8)
	require.NoError(t, err)
	assert.NotEqual(t, sum1, sum3)

	_, err = s.Checksum(100)
	assert.ErrorIs(t, err, ErrBufferTooSmall)
}

func TestSliceByteStoreRequestGrowWithoutCopy(t *testing.T) {
	s := NewSliceByteStore(8)
	require.NoError(t, s.WriteU64(0, 0xFFFFFFFFFFFFFFFF))

	grown, err := s.RequestGrow(16, false)
	require.NoError(t, err)
	v, err := grown.ReadU64(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v)
}

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

package internal

import "fmt"

const (
	C1 = 0x87c37b91114253d5
	C2 = 0x4cf5ad432745937f
)

type SimpleMurmur3 struct {
	h1 uint64
	h2 uint64
}

func HashInt64SliceMurmur3(key []int64, offsetLongs int, lengthLongs int, seed uint64) (uint64, uint64) {
	hashState := SimpleMurmur3{h1: seed, h2: seed}

	// Number of full 128-bit blocks of 2 longs (the body).
	// Possible exclusion of a remainder of 1 long.
	nblocks := lengthLongs >> 1 //longs / 2

	// Process the 128-bit blocks (the body) into the hash
	for i := 0; i < nblocks; i++ {
		k1 := uint64(key[offsetLongs+(i<<1)])   //offsetLongs + 0, 2, 4, ...
		k2 := uint64(key[offsetLongs+(i<<1)+1]) //offsetLongs + 1, 3, 5, ...
		hashState.blockMix128(k1, k2)
	}

	// Get the tail index wrt hashed portion, remainder length
	tail := nblocks << 1      // 2 longs / block
	rem := lengthLongs - tail // remainder longs: 0,1

	// Get the tail
	k1 := uint64(0)
	if rem != 0 {
		k1 = uint64(key[offsetLongs+tail]) //k2 -> 0
	}

	return hashState.finalMix128(k1, 0, uint64(lengthLongs)<<3)
}

// HashInt32SliceMurmur3 computes a Java-compatible MurmurHash3_x64_128 over a slice
// of signed 32-bit integers, packing two ints per 64-bit lane the way the Java
// reference implementation does.
func HashInt32SliceMurmur3(key []int32, offsetInts int, lengthInts int, seed uint64) (uint64, uint64) {
	hashState := SimpleMurmur3{h1: seed, h2: seed}

	nblocks := lengthInts >> 2 // 4 ints per 128-bit block
	for i := 0; i < nblocks; i++ {
		i4 := offsetInts + (i << 2)
		k1 := uint64(uint32(key[i4])) | (uint64(uint32(key[i4+1])) << 32)
		k2 := uint64(uint32(key[i4+2])) | (uint64(uint32(key[i4+3])) << 32)
		hashState.blockMix128(k1, k2)
	}

	tail := offsetInts + (nblocks << 2)
	rem := lengthInts - (nblocks << 2)
	k1 := uint64(0)
	k2 := uint64(0)
	switch rem {
	case 3:
		k2 ^= uint64(uint32(key[tail+2]))
		fallthrough
	case 2:
		k1 ^= uint64(uint32(key[tail+1])) << 32
		fallthrough
	case 1:
		k1 ^= uint64(uint32(key[tail+0]))
	}

	return hashState.finalMix128(k1, k2, uint64(lengthInts)<<2)
}

// HashByteArrMurmur3 computes a Java-compatible MurmurHash3_x64_128 over a byte slice,
// processing 16-byte blocks and packing the trailing 0-15 bytes into the tail lanes in
// the same byte order as the Java and C++ reference implementations.
func HashByteArrMurmur3(key []byte, offsetBytes int, lengthBytes int, seed uint64) (uint64, uint64) {
	hashState := SimpleMurmur3{h1: seed, h2: seed}

	nblocks := lengthBytes >> 4 // 16 bytes per 128-bit block
	for i := 0; i < nblocks; i++ {
		off := offsetBytes + (i << 4)
		k1 := getLongLE(key, off)
		k2 := getLongLE(key, off+8)
		hashState.blockMix128(k1, k2)
	}

	tail := offsetBytes + (nblocks << 4)
	rem := lengthBytes - (nblocks << 4)
	k1 := uint64(0)
	k2 := uint64(0)
	switch rem {
	case 15:
		k2 ^= uint64(key[tail+14]) << 48
		fallthrough
	case 14:
		k2 ^= uint64(key[tail+13]) << 40
		fallthrough
	case 13:
		k2 ^= uint64(key[tail+12]) << 32
		fallthrough
	case 12:
		k2 ^= uint64(key[tail+11]) << 24
		fallthrough
	case 11:
		k2 ^= uint64(key[tail+10]) << 16
		fallthrough
	case 10:
		k2 ^= uint64(key[tail+9]) << 8
		fallthrough
	case 9:
		k2 ^= uint64(key[tail+8])
		fallthrough
	case 8:
		k1 ^= uint64(key[tail+7]) << 56
		fallthrough
	case 7:
		k1 ^= uint64(key[tail+6]) << 48
		fallthrough
	case 6:
		k1 ^= uint64(key[tail+5]) << 40
		fallthrough
	case 5:
		k1 ^= uint64(key[tail+4]) << 32
		fallthrough
	case 4:
		k1 ^= uint64(key[tail+3]) << 24
		fallthrough
	case 3:
		k1 ^= uint64(key[tail+2]) << 16
		fallthrough
	case 2:
		k1 ^= uint64(key[tail+1]) << 8
		fallthrough
	case 1:
		k1 ^= uint64(key[tail+0])
	}

	return hashState.finalMix128(k1, k2, uint64(lengthBytes))
}

// HashCharSliceMurmur3 computes a Java-compatible MurmurHash3_x64_128 over a string's
// raw bytes. Go strings are stored as UTF-8 byte sequences rather than Java's UTF-16
// char arrays, so this hashes the byte representation directly; callers that need
// cross-language wire compatibility for string keys should pre-encode accordingly.
func HashCharSliceMurmur3(key []byte, offsetBytes int, lengthBytes int, seed uint64) (uint64, uint64) {
	return HashByteArrMurmur3(key, offsetBytes, lengthBytes, seed)
}

func getLongLE(b []byte, off int) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[off+i]) << (8 * uint(i))
	}
	return v
}

// ComputeSeedHash derives the 16-bit seed hash embedded in serialized sketches from a
// 64-bit update seed, matching the Java reference's Util.computeSeedHash: hash the
// seed as a single-element int64 array with hash-seed zero, keep the low 16 bits of
// h1, and reject the seed if that collapses to zero.
func ComputeSeedHash(seed int64) (int16, error) {
	h1, _ := HashInt64SliceMurmur3([]int64{seed}, 0, 1, 0)
	seedHash := h1 & 0xffff
	if seedHash == 0 {
		return 0, fmt.Errorf("the given seed: %d produced a seed hash of zero, choose a different seed", seed)
	}
	return int16(seedHash), nil
}

func mixK1(k1 uint64) uint64 {
	k1 *= C1
	k1 = (k1 << 31) | (k1 >> (64 - 31))
	k1 *= C2
	return k1

}

func mixK2(k2 uint64) uint64 {
	k2 *= C2
	k2 = (k2 << 33) | (k2 >> (64 - 33))
	k2 *= C1
	return k2
}

func finalMix64(h uint64) uint64 {
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	h *= 0xc4ceb9fe1a85ec53
	h ^= h >> 33
	return h

}

func (m *SimpleMurmur3) blockMix128(k1, k2 uint64) {
	m.h1 ^= mixK1(k1)
	m.h1 = (m.h1 << 27) | (m.h1 >> (64 - 27))
	m.h1 += m.h2
	m.h1 = m.h1*5 + 0x52dce729

	m.h2 ^= mixK2(k2)
	m.h2 = (m.h2 << 31) | (m.h2 >> (64 - 31))
	m.h2 += m.h1
	m.h2 = m.h2*5 + 0x38495ab5
}

func (m *SimpleMurmur3) finalMix128(k1, k2, inputLengthBytes uint64) (uint64, uint64) {
	m.h1 ^= mixK1(k1)
	m.h2 ^= mixK2(k2)
	m.h1 ^= inputLengthBytes
	m.h2 ^= inputLengthBytes
	m.h1 += m.h2
	m.h2 += m.h1
	m.h1 = finalMix64(m.h1)
	m.h2 = finalMix64(m.h2)
	m.h1 += m.h2
	m.h2 += m.h1
	return m.h1, m.h2
}

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
	"math/bits"
	"sort"

	"golang.org/x/exp/constraints"
)

// computeBitPattern returns N / (2k) viewed as a binary number whose set
// bits indicate which level buffers are occupied.
func computeBitPattern(k int, n uint64) uint64 {
	return n / (2 * uint64(k))
}

// computeBaseBufferCount returns the number of valid items in the base
// buffer, derived from N (N mod 2k).
func computeBaseBufferCount(k int, n uint64) int {
	return int(n % (2 * uint64(k)))
}

// computeNumLevelsNeeded returns how many levels must exist to hold a
// stream of length n with parameter k: one more than the position of the
// highest set bit of the bit pattern, or 0 if the bit pattern is 0.
func computeNumLevelsNeeded(k int, n uint64) int {
	bp := computeBitPattern(k, n)
	if bp == 0 {
		return 0
	}
	return bits.Len64(bp)
}

// computeCombinedBufferItemCapacity returns the total number of float64
// slots required for the base buffer (2k) plus every level slot up to and
// including numLevelsNeeded(k, n).
func computeCombinedBufferItemCapacity(k int, n uint64) int {
	return (2 + computeNumLevelsNeeded(k, n)) * k
}

// downSample halves a sorted run of 2k items to k items by keeping every
// other element starting from a randomly chosen parity (0 or 1 with equal
// probability). Because the input is sorted, the output remains sorted.
// This is the variance-preserving step that gives the sketch its formal
// error bound.
func downSample[T constraints.Float](sorted2k []T, k int, rng randSource) []T {
	out := make([]T, k)
	offset := rng.Intn(2)
	for i := 0; i < k; i++ {
		out[i] = sorted2k[offset+2*i]
	}
	return out
}

// zipMerge merges two sorted k-item runs into one sorted 2k-item run.
func zipMerge[T constraints.Float](a, b []T) []T {
	k := len(a)
	out := make([]T, 0, 2*k)
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i] <= b[j] {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

// sortFloat64s sorts s ascending in place.
func sortFloat64s(s []float64) {
	sort.Float64s(s)
}

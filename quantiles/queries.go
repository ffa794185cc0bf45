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

// GetQuantile returns the value at the given normalized rank in [0, 1].
// Rank 0 always returns the minimum value seen and rank 1 always returns
// the maximum value seen, exactly.
func (s *DoublesSketch) GetQuantile(rank float64, inclusive bool) (float64, error) {
	if s.IsEmpty() {
		return 0, ErrEmptySketch
	}
	if err := checkNormalizedRankBounds(rank); err != nil {
		return 0, err
	}
	if rank == 0 {
		return s.minValue, nil
	}
	if rank == 1 {
		return s.maxValue, nil
	}
	sv, err := newSortedView(s)
	if err != nil {
		return 0, err
	}
	return sv.getQuantile(rank, inclusive), nil
}

// GetRank returns the normalized rank (fraction of the stream) at or below
// the given value.
func (s *DoublesSketch) GetRank(value float64, inclusive bool) (float64, error) {
	if s.IsEmpty() {
		return 0, ErrEmptySketch
	}
	sv, err := newSortedView(s)
	if err != nil {
		return 0, err
	}
	return sv.getRank(value, inclusive), nil
}

// GetPMF returns the probability mass function over the buckets induced by
// splitPoints: len(splitPoints)+1 masses summing to 1, where bucket i
// covers (splitPoints[i-1], splitPoints[i]].
func (s *DoublesSketch) GetPMF(splitPoints []float64, inclusive bool) ([]float64, error) {
	cdf, err := s.GetCDF(splitPoints, inclusive)
	if err != nil {
		return nil, err
	}
	pmf := make([]float64, len(cdf))
	prev := 0.0
	for i, c := range cdf {
		pmf[i] = c - prev
		prev = c
	}
	return pmf, nil
}

// GetCDF returns the cumulative distribution function over splitPoints:
// len(splitPoints)+1 increasing values ending in 1.0.
func (s *DoublesSketch) GetCDF(splitPoints []float64, inclusive bool) ([]float64, error) {
	if s.IsEmpty() {
		return nil, ErrEmptySketch
	}
	if err := checkSplitPoints(splitPoints); err != nil {
		return nil, err
	}
	sv, err := newSortedView(s)
	if err != nil {
		return nil, err
	}
	buckets := make([]float64, len(splitPoints)+1)
	for i, sp := range splitPoints {
		buckets[i] = sv.getRank(sp, inclusive)
	}
	buckets[len(splitPoints)] = 1.0
	return buckets, nil
}

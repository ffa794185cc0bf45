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
	"math"
	"sort"

	"github.com/niketh/sketches-core/internal"
)

const tailRoundingFactor = 1e7

// sortedView is a flattened, weighted view over every retained item: the
// base buffer contributes weight 1 per item, and each present level ℓ
// contributes weight 2^(ℓ+1) per item, matching the logical stream
// position each retained value stands in for.
type sortedView struct {
	quantiles  []float64
	cumWeights []int64
	totalN     uint64
}

func newSortedView(s *DoublesSketch) (*sortedView, error) {
	if s.IsEmpty() {
		return nil, ErrEmptySketch
	}

	total := len(s.baseBuffer)
	for _, lvl := range s.levels {
		if lvl != nil {
			total += s.k
		}
	}

	values := make([]float64, 0, total)
	weights := make([]int64, 0, total)

	if len(s.baseBuffer) > 0 {
		for _, v := range s.baseBuffer {
			values = append(values, v)
			weights = append(weights, 1)
		}
	}
	for l, lvl := range s.levels {
		if lvl == nil {
			continue
		}
		w := int64(1) << uint(l+1)
		for _, v := range lvl {
			values = append(values, v)
			weights = append(weights, w)
		}
	}

	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })

	quantiles := make([]float64, len(values))
	cumWeights := make([]int64, len(values))
	var running int64
	for i, j := range idx {
		quantiles[i] = values[j]
		running += weights[j]
		cumWeights[i] = running
	}

	return &sortedView{quantiles: quantiles, cumWeights: cumWeights, totalN: s.n}, nil
}

func lessFloat64(a, b float64) bool { return a < b }
func lessInt64(a, b int64) bool     { return a < b }

// getRank returns the fraction of retained weight at or below (inclusive)
// or strictly below (exclusive) value.
func (sv *sortedView) getRank(value float64, inclusive bool) float64 {
	crit := internal.InequalityLT
	if inclusive {
		crit = internal.InequalityLE
	}
	index := internal.FindWithInequality(sv.quantiles, 0, len(sv.quantiles)-1, value, crit, lessFloat64)
	if index == -1 {
		return 0
	}
	return float64(sv.cumWeights[index]) / float64(sv.totalN)
}

// getQuantile returns the value whose cumulative weight crosses
// rank*totalN, per the inclusive/exclusive search criterion.
func (sv *sortedView) getQuantile(rank float64, inclusive bool) float64 {
	naturalRank := getNaturalRank(rank, sv.totalN, inclusive)
	crit := internal.InequalityGT
	if inclusive {
		crit = internal.InequalityGE
	}
	length := len(sv.quantiles)
	index := internal.FindWithInequality(sv.cumWeights, 0, length-1, naturalRank, crit, lessInt64)
	if index == -1 {
		index = length - 1
	}
	return sv.quantiles[index]
}

func getNaturalRank(normalizedRank float64, totalN uint64, inclusive bool) int64 {
	naturalRank := normalizedRank * float64(totalN)
	if totalN <= tailRoundingFactor {
		naturalRank = math.Round(naturalRank*tailRoundingFactor) / tailRoundingFactor
	}
	if inclusive {
		return int64(math.Ceil(naturalRank))
	}
	return int64(math.Floor(naturalRank))
}

func checkNormalizedRankBounds(rank float64) error {
	if math.IsNaN(rank) || rank < 0 || rank > 1 {
		return ErrInvalidRank
	}
	return nil
}

func checkSplitPoints(splits []float64) error {
	for i, v := range splits {
		if math.IsNaN(v) {
			return ErrInvalidSplitPoints
		}
		if i > 0 && splits[i-1] >= v {
			return ErrInvalidSplitPoints
		}
	}
	return nil
}

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

package sampling

import "math/rand"

// randSource is the seedable source of randomness VarOptItemsSketch draws
// from for its two random decisions: which candidate index to evict from
// the R region, and the uniform draw used to decide the boundary item
// during downsampling. Satisfied by *rand.Rand, so callers that need
// reproducible sequences across runs can inject one seeded with a fixed
// value via WithRNG; the sketch itself never seeds or owns global state.
type randSource interface {
	Intn(n int) int
	Float64() float64
}

// globalRandSource defers to the package-level math/rand functions, which
// is the default used when a sketch is constructed without WithRNG.
type globalRandSource struct{}

func (globalRandSource) Intn(n int) int   { return rand.Intn(n) }
func (globalRandSource) Float64() float64 { return rand.Float64() }

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

// MinK is the smallest allowed value of k.
const MinK = 2

// MaxK is the largest allowed value of k (power of two).
const MaxK = 1 << 15

// DefaultK is the default value of k, giving a rank error of about 1.7%.
const DefaultK = 128

// SerialVersion is the minimum supported non-legacy serialization version.
// Versions below this are documented as unsupported legacy formats.
const SerialVersion uint8 = 3

// FamilyID is the family identifier for Doubles Quantiles sketches
// (QUANTILES family), matching internal.FamilyEnum.Quantiles.
const FamilyID uint8 = 8

const (
	flagBigEndian = 0
	flagReadOnly  = 1
	flagEmpty     = 2
	flagCompact   = 3
	flagOrdered   = 4
)

const (
	flagBigEndianMask = 1 << flagBigEndian
	flagReadOnlyMask  = 1 << flagReadOnly
	flagEmptyMask     = 1 << flagEmpty
	flagCompactMask   = 1 << flagCompact
	flagOrderedMask   = 1 << flagOrdered
)

// preamble byte offsets, shared by heap and direct serialized forms.
const (
	offsetPreLongs = 0
	offsetSerVer   = 1
	offsetFamilyID = 2
	offsetFlags    = 3
	offsetK        = 4 // uint16
	offsetN        = 8 // uint64, preLongs == 2 only
	offsetMin      = 16
	offsetMax      = 24
	offsetCombined = 32
)

// preambleLongsEmpty / preambleLongsNonEmpty are the two legal preLongs
// values for this family: 1 when empty, 2 otherwise (N, min and max all
// need to be carried once the sketch holds data).
const (
	preambleLongsEmpty    = 1
	preambleLongsNonEmpty = 2
)

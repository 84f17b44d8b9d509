// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package allele

import (
	"fmt"
)

// Base-quality and canonical-base predicates shared by the translator.

func isCanonicalBase(b byte) bool {
	switch b {
	case 'A', 'C', 'G', 'T', 'a', 'c', 'g', 't':
		return true
	}
	return false
}

func areCanonicalBases(bases string) bool {
	if len(bases) == 0 {
		return false
	}
	for i := 0; i < len(bases); i++ {
		if !isCanonicalBase(bases[i]) {
			return false
		}
	}
	return true
}

// canBasesBeUsed reports whether the read bases in [offset, offset+length)
// can contribute an allele.  A run containing any non-canonical base is
// unusable.  Otherwise the run is usable, with isLowQuality set when the
// summed base quality falls below minBaseQual * length; single bases are the
// length == 1 case, indels are judged by aggregate quality over the whole
// span.
//
// offset+length extending past the aligned sequence is a caller bug, not a
// data-quality condition, and panics.
func canBasesBeUsed(seq, qual []byte, offset, length, minBaseQual int) (ok, isLowQuality bool) {
	if offset+length > len(qual) || offset+length > len(seq) {
		panic(fmt.Sprintf("allele.canBasesBeUsed: range [%d,%d) extends past aligned sequence of length %d", offset, offset+length, len(qual)))
	}
	qualSum := 0
	for i := 0; i < length; i++ {
		qualSum += int(qual[offset+i])
		if !isCanonicalBase(seq[offset+i]) {
			return false, false
		}
	}
	return true, qualSum < minBaseQual*length
}

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
	"sort"
)

// Pure summarization functions over AlleleCounts.

type alleleKey struct {
	bases string
	typ   Type
}

func sumReadAlleles(sums map[alleleKey]int, ac *AlleleCount, includeLowQuality bool) {
	for _, al := range ac.ReadAlleles {
		if includeLowQuality || !al.IsLowQuality {
			sums[alleleKey{al.Bases, al.Type}]++
		}
	}
}

// sortedAlleles flattens the grouped sums, ordered by (bases, type) so output
// is deterministic.
func sortedAlleles(sums map[alleleKey]int) []Allele {
	out := make([]Allele, 0, len(sums))
	for k, n := range sums {
		out = append(out, MakeAllele(k.bases, k.typ, n, false))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Bases != out[j].Bases {
			return out[i].Bases < out[j].Bases
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// SumAlleleCounts groups one position's per-read allele entries by (bases,
// type) and returns the aggregate counts.  When reference support was tracked
// only as a counter (TrackRefReads disabled), no per-read reference records
// exist to count, so a single synthetic REFERENCE aggregate is appended from
// the stored counter instead.
func SumAlleleCounts(ac AlleleCount, includeLowQuality bool) []Allele {
	sums := make(map[alleleKey]int)
	sumReadAlleles(sums, &ac, includeLowQuality)
	out := sortedAlleles(sums)
	if ac.RefSupportingReadCount > 0 && !ac.TrackRefReads {
		out = append(out, MakeAllele(ac.RefBase, Reference, ac.RefSupportingReadCount, false))
	}
	return out
}

// SumAlleleCountsAcross is SumAlleleCounts over several positions at once,
// for callers assessing multi-position alleles.  The synthetic REFERENCE
// entry sums reference support across all positions and takes its bases from
// the first.
func SumAlleleCountsAcross(acs []AlleleCount, includeLowQuality bool) []Allele {
	sums := make(map[alleleKey]int)
	for i := range acs {
		sumReadAlleles(sums, &acs[i], includeLowQuality)
	}
	out := sortedAlleles(sums)
	refSupport := 0
	for i := range acs {
		refSupport += acs[i].RefSupportingReadCount
	}
	if refSupport > 0 && len(acs) > 0 && !acs[0].TrackRefReads {
		out = append(out, MakeAllele(acs[0].RefBase, Reference, refSupport, false))
	}
	return out
}

// TotalAlleleCounts returns the total number of qualifying observations at
// one position: the reference-support counter plus every non-reference
// per-read entry, optionally excluding low-quality ones.
func TotalAlleleCounts(ac AlleleCount, includeLowQuality bool) int {
	total := ac.RefSupportingReadCount
	for _, al := range ac.ReadAlleles {
		if al.Type != Reference && (includeLowQuality || !al.IsLowQuality) {
			total++
		}
	}
	return total
}

// TotalAlleleCountsAcross sums TotalAlleleCounts over several positions.
func TotalAlleleCountsAcross(acs []AlleleCount, includeLowQuality bool) int {
	total := 0
	for i := range acs {
		total += TotalAlleleCounts(acs[i], includeLowQuality)
	}
	return total
}

// AlleleIndex returns the index of the AlleleCount at exactly pos in counts
// (which must be sorted ascending by position), or -1 if absent.
func AlleleIndex(counts []AlleleCount, pos int64) int {
	idx := sort.Search(len(counts), func(i int) bool { return counts[i].Pos >= pos })
	if idx == len(counts) || counts[idx].Pos != pos {
		return -1
	}
	return idx
}

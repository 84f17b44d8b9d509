package allele_test

import (
	"testing"

	"github.com/grailbio/allelecount/allele"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestSumAlleleCounts(t *testing.T) {
	ac := allele.AlleleCount{
		RefName:                "chr1",
		Pos:                    100,
		RefBase:                "A",
		RefSupportingReadCount: 5,
		ReadAlleles: map[string]allele.Allele{
			"r1/0": allele.MakeAllele("T", allele.Substitution, 1, false),
			"r2/0": allele.MakeAllele("T", allele.Substitution, 1, false),
			"r3/0": allele.MakeAllele("AGG", allele.Insertion, 1, false),
			"r4/0": allele.MakeAllele("C", allele.Substitution, 1, true),
		},
	}

	// Reference support was tracked only as a counter, so a synthetic
	// REFERENCE aggregate is appended after the sorted entries.
	assert.EQ(t, allele.SumAlleleCounts(ac, false), []allele.Allele{
		allele.MakeAllele("AGG", allele.Insertion, 1, false),
		allele.MakeAllele("T", allele.Substitution, 2, false),
		allele.MakeAllele("A", allele.Reference, 5, false),
	})

	got := allele.SumAlleleCounts(ac, true)
	assert.EQ(t, got, []allele.Allele{
		allele.MakeAllele("AGG", allele.Insertion, 1, false),
		allele.MakeAllele("C", allele.Substitution, 1, false),
		allele.MakeAllele("T", allele.Substitution, 2, false),
		allele.MakeAllele("A", allele.Reference, 5, false),
	})
}

func TestSumAlleleCountsTrackedRef(t *testing.T) {
	ac := allele.AlleleCount{
		RefBase:                "A",
		RefSupportingReadCount: 2,
		TrackRefReads:          true,
		ReadAlleles: map[string]allele.Allele{
			"r1/0": allele.MakeAllele("A", allele.Reference, 1, false),
			"r2/0": allele.MakeAllele("A", allele.Reference, 1, false),
		},
	}
	// With per-read reference tracking, the entries themselves are the record;
	// nothing synthetic is appended.
	assert.EQ(t, allele.SumAlleleCounts(ac, false), []allele.Allele{
		allele.MakeAllele("A", allele.Reference, 2, false),
	})
}

func TestSumAlleleCountsAcross(t *testing.T) {
	acs := []allele.AlleleCount{
		{
			RefBase:                "A",
			RefSupportingReadCount: 3,
			ReadAlleles: map[string]allele.Allele{
				"r1/0": allele.MakeAllele("T", allele.Substitution, 1, false),
			},
		},
		{
			RefBase:                "C",
			RefSupportingReadCount: 4,
			ReadAlleles: map[string]allele.Allele{
				"r1/0": allele.MakeAllele("G", allele.Substitution, 1, false),
				"r2/0": allele.MakeAllele("G", allele.Substitution, 1, false),
			},
		},
	}
	// Reference support sums across positions; the bases come from the first.
	assert.EQ(t, allele.SumAlleleCountsAcross(acs, false), []allele.Allele{
		allele.MakeAllele("G", allele.Substitution, 2, false),
		allele.MakeAllele("T", allele.Substitution, 1, false),
		allele.MakeAllele("A", allele.Reference, 7, false),
	})
}

func TestTotalAlleleCounts(t *testing.T) {
	ac := allele.AlleleCount{
		RefSupportingReadCount: 3,
		ReadAlleles: map[string]allele.Allele{
			"r1/0": allele.MakeAllele("T", allele.Substitution, 1, false),
			"r2/0": allele.MakeAllele("T", allele.Substitution, 1, true),
			"r3/0": allele.MakeAllele("A", allele.Reference, 1, false),
		},
	}
	// Tracked reference entries must not be double-counted against the
	// counter; low-quality entries are excluded unless requested.
	expect.EQ(t, allele.TotalAlleleCounts(ac, false), 4)
	expect.EQ(t, allele.TotalAlleleCounts(ac, true), 5)
	expect.EQ(t, allele.TotalAlleleCountsAcross([]allele.AlleleCount{ac, ac}, false), 8)
}

func TestAlleleIndex(t *testing.T) {
	counts := []allele.AlleleCount{
		{Pos: 100}, {Pos: 101}, {Pos: 105},
	}
	expect.EQ(t, allele.AlleleIndex(counts, 100), 0)
	expect.EQ(t, allele.AlleleIndex(counts, 105), 2)
	expect.EQ(t, allele.AlleleIndex(counts, 103), -1)
	expect.EQ(t, allele.AlleleIndex(counts, 99), -1)
	expect.EQ(t, allele.AlleleIndex(counts, 106), -1)
	expect.EQ(t, allele.AlleleIndex(nil, 100), -1)
}

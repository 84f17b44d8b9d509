package allele_test

import (
	"bytes"
	"testing"

	"github.com/grailbio/allelecount/allele"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestSummariesRio(t *testing.T) {
	summaries := []allele.Summary{
		{RefName: "chr1", Pos: 0, RefBase: "A", RefSupportingReadCount: 31, TotalReadCount: 33, RefNonconfidentReadCount: 1},
		{RefName: "chr1", Pos: 1, RefBase: "C", RefSupportingReadCount: 30, TotalReadCount: 33},
		{RefName: "chr20_alt", Pos: 123456789, RefBase: "T", TotalReadCount: 2},
	}
	var buf bytes.Buffer
	assert.NoError(t, allele.WriteSummariesRio(summaries, &buf))

	got, err := allele.ReadSummariesRio(bytes.NewReader(buf.Bytes()))
	assert.NoError(t, err)
	assert.EQ(t, got, summaries)
}

func TestMarshalSummaryRejectsBadRefBase(t *testing.T) {
	_, err := allele.MarshalSummary(nil, &allele.Summary{RefName: "chr1", RefBase: "AC"})
	expect.True(t, err != nil)
	_, err = allele.MarshalSummary(nil, &allele.Summary{RefName: "chr1"})
	expect.True(t, err != nil)
}

package interval_test

import (
	"testing"

	"github.com/grailbio/allelecount/interval"
	"github.com/grailbio/testutil/expect"
)

func TestParseRegionString(t *testing.T) {
	tests := []struct {
		region  string
		want    interval.Interval
		wantErr bool
	}{
		{
			region: "chr1:100-200",
			want:   interval.Interval{RefName: "chr1", Start: 99, End: 200},
		},
		{
			region: "chr1:100",
			want:   interval.Interval{RefName: "chr1", Start: 99, End: 100},
		},
		{
			// Single-position ranges are valid.
			region: "chrX:7-7",
			want:   interval.Interval{RefName: "chrX", Start: 6, End: 7},
		},
		{
			region:  "",
			wantErr: true,
		},
		{
			region:  ":100-200",
			wantErr: true,
		},
		{
			region:  "chr1:0-200",
			wantErr: true,
		},
		{
			region:  "chr1:300-200",
			wantErr: true,
		},
		{
			region:  "chr1:abc",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		got, err := interval.ParseRegionString(tt.region)
		if tt.wantErr {
			expect.True(t, err != nil, "region=%s", tt.region)
			continue
		}
		expect.NoError(t, err, "region=%s", tt.region)
		expect.EQ(t, got, tt.want)
	}
}

func TestIntervalBasics(t *testing.T) {
	ival := interval.New("chr20", 9999, 10005)
	expect.EQ(t, ival.Len(), int64(6))
	expect.True(t, ival.Contains(9999))
	expect.True(t, ival.Contains(10004))
	expect.False(t, ival.Contains(10005))
	expect.False(t, ival.Contains(9998))
	expect.EQ(t, ival.String(), "chr20:10000-10005")
}

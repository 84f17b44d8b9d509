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

// Package interval provides the genomic-interval type shared by the allele
// counting packages, along with region-string parsing.
package interval

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// posMax is the largest position representable in a region string.  We
// prohibit it as an actual interval bound so that [Start, End) is always
// nonempty and overflow-free.
const posMax = math.MaxInt64

// Interval is a half-open [Start, End) 0-based coordinate range on a single
// reference sequence.
type Interval struct {
	RefName string
	Start   int64
	End     int64
}

// New returns the interval [start, end) on the given reference sequence.
func New(refName string, start, end int64) Interval {
	return Interval{RefName: refName, Start: start, End: end}
}

// Len returns the number of bases the interval covers.
func (i Interval) Len() int64 {
	return i.End - i.Start
}

// Contains reports whether pos lies within the interval.
func (i Interval) Contains(pos int64) bool {
	return pos >= i.Start && pos < i.End
}

// String renders the interval in the usual 1-based text form.
func (i Interval) String() string {
	return fmt.Sprintf("%s:%d-%d", i.RefName, i.Start+1, i.End)
}

// ParseRegionString parses a region string of one of the forms
//   [contig ID]:[1-based first pos]-[last pos]
//   [contig ID]:[1-based pos]
//   [contig ID]
// into a 0-based half-open Interval.  A bare contig ID covers the whole
// contig; callers are expected to clamp End to the contig length.
func ParseRegionString(region string) (result Interval, err error) {
	if len(region) == 0 {
		err = fmt.Errorf("interval.ParseRegionString: empty region string")
		return
	}
	colonPos := strings.IndexByte(region, ':')
	if colonPos == -1 {
		result.RefName = region
		result.Start = 0
		result.End = posMax - 1
		return
	}
	if colonPos == 0 {
		err = fmt.Errorf("interval.ParseRegionString: empty contig ID")
		return
	}
	result.RefName = region[0:colonPos]
	rangeStr := region[colonPos+1:]
	dashPos := strings.IndexByte(rangeStr, '-')
	if dashPos == -1 {
		var pos1 int64
		if pos1, err = strconv.ParseInt(rangeStr, 10, 64); err != nil {
			return
		}
		if pos1 <= 0 {
			err = fmt.Errorf("interval.ParseRegionString: position %v in region string out of range", rangeStr)
			return
		}
		result.Start = pos1 - 1
		result.End = pos1
		return
	}
	start1Str := rangeStr[:dashPos]
	endStr := rangeStr[dashPos+1:]
	var start1 int64
	if start1, err = strconv.ParseInt(start1Str, 10, 64); err != nil {
		return
	}
	if start1 <= 0 {
		err = fmt.Errorf("interval.ParseRegionString: position %v in region string out of range", start1Str)
		return
	}
	var end0 int64
	if end0, err = strconv.ParseInt(endStr, 10, 64); err != nil {
		return
	}
	if end0 < start1 || end0 >= posMax {
		err = fmt.Errorf("interval.ParseRegionString: invalid range string %v", rangeStr)
		return
	}
	result.Start = start1 - 1
	result.End = end0
	return
}

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
	"sort"
	"strconv"

	"github.com/grailbio/allelecount/interval"
	"github.com/grailbio/allelecount/reference"
	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/sam"
)

// fragmentNameReadNumberSeparator appears between the fragment name and the
// read number in the key constructed by ReadKey.
const fragmentNameReadNumberSeparator = "/"

// Options configures a Counter.  All fields are fixed at construction.
type Options struct {
	// MinBaseQual is the base-quality threshold.  Single bases are compared
	// against it directly; inserted/clipped spans must meet it on average.
	MinBaseQual int
	// MinMapQ is the mapping-quality threshold; reads below it are discarded
	// whole.
	MinMapQ int
	// TrackRefReads enables per-read tracking of reference-supporting alleles
	// at candidate positions.
	TrackRefReads bool
}

// Counter accumulates per-position allele tallies for the reads covering one
// genomic interval.
//
// A Counter is not safe for concurrent use.  Parallelism is achieved by
// partitioning the genome into disjoint intervals and running one Counter per
// interval; the reference.Genome may then be shared since it is read-only.
type Counter struct {
	ref  reference.Genome
	ival interval.Interval
	// candidatePositions is interval-relative and sorted ascending, as required
	// for the binary-search membership test in addReadAlleles.
	candidatePositions []int
	opts               Options
	refBases           string
	counts             []AlleleCount
	nReadsCounted      int
	// nDupReads rate-limits the duplicate-read-key diagnostic.  Per-instance so
	// that counters on different intervals stay independent.
	nDupReads int
}

// NewCounter creates a Counter over the given interval.  The reference base
// sequence for the whole interval is fetched once, up front; candidate
// positions are absolute and may be unsorted.
func NewCounter(ref reference.Genome, ival interval.Interval, candidatePositions []int64, opts Options) (*Counter, error) {
	refBases, err := ref.Bases(ival)
	if err != nil {
		return nil, fmt.Errorf("allele.NewCounter: fetching reference bases for %v: %v", ival, err)
	}
	c := &Counter{
		ref:      ref,
		ival:     ival,
		opts:     opts,
		refBases: refBases,
		counts:   make([]AlleleCount, ival.Len()),
	}
	c.candidatePositions = make([]int, 0, len(candidatePositions))
	for _, pos := range candidatePositions {
		c.candidatePositions = append(c.candidatePositions, int(pos-ival.Start))
	}
	sort.Ints(c.candidatePositions)
	for i := range c.counts {
		c.counts[i] = AlleleCount{
			RefName:       ival.RefName,
			Pos:           ival.Start + int64(i),
			RefBase:       refBases[i : i+1],
			TrackRefReads: opts.TrackRefReads,
		}
	}
	return c, nil
}

// Interval returns the interval the counter was constructed over.
func (c *Counter) Interval() interval.Interval {
	return c.ival
}

// Counts returns the per-position tallies, ordered by position.  The slice is
// valid (and queryable) at any time, including mid-ingestion.
func (c *Counter) Counts() []AlleleCount {
	return c.counts
}

// NReadsCounted returns the number of reads ingested so far, excluding reads
// discarded by the mapping-quality filter.
func (c *Counter) NReadsCounted() int {
	return c.nReadsCounted
}

// RefBases returns the reference bases for the interval-relative sub-range
// [relStart, relStart+length), or "" if the absolute range falls outside the
// contig.  Callers treat absence as "could not determine", not as an error.
func (c *Counter) RefBases(relStart, length int64) string {
	if length <= 0 {
		panic(fmt.Sprintf("allele.Counter.RefBases: length %d must be >= 1", length))
	}
	absStart := c.ival.Start + relStart
	region := interval.New(c.ival.RefName, absStart, absStart+length)
	if !c.ref.IsValidInterval(region) {
		return ""
	}
	bases, err := c.ref.Bases(region)
	if err != nil {
		return ""
	}
	return bases
}

// ReadKey returns the identity key used to deduplicate per-read allele
// entries: fragment name, a separator, and the read number (0 for an unpaired
// read or the first read of a pair, 1 for the second).
func ReadKey(samr *sam.Record) string {
	readNumber := 0
	if samr.Flags&sam.Read2 != 0 {
		readNumber = 1
	}
	return samr.Name + fragmentNameReadNumberSeparator + strconv.Itoa(readNumber)
}

func (c *Counter) isValidRefOffset(off int) bool {
	return off >= 0 && off < len(c.counts)
}

// prevBase returns the base immediately preceding an indel event, for use as
// the event's anchor.  When the event is the read's first operation there is
// no previous read base, so the base comes from the reference instead.
func (c *Counter) prevBase(seq []byte, readOffset, intervalOffset int) string {
	if readOffset == 0 {
		return c.RefBases(int64(intervalOffset)-1, 1)
	}
	return string(seq[readOffset-1 : readOffset])
}

// makeIndelReadAllele builds the single ReadAllele describing an insertion,
// deletion or soft-clip.  Following VCF convention the event is anchored at
// the reference position preceding it, and its bases start with the anchor
// base.  Events whose anchor or span cannot be determined are skipped.
func (c *Counter) makeIndelReadAllele(samr *sam.Record, seq []byte, intervalOffset, readOffset int, op sam.CigarOp) ReadAllele {
	opLen := op.Len()
	prev := c.prevBase(seq, readOffset, intervalOffset)
	if prev == "" || !areCanonicalBases(prev) {
		// No anchor base (start of contig), or an anchor we can't represent.
		return skippedReadAllele
	}
	isLowQuality := false
	if op.Type() != sam.CigarDeletion {
		ok, low := canBasesBeUsed(seq, samr.Qual, readOffset, opLen, c.opts.MinBaseQual)
		if !ok {
			return skippedReadAllele
		}
		isLowQuality = low
	}

	var typ Type
	var bases string
	switch op.Type() {
	case sam.CigarDeletion:
		typ = Deletion
		bases = c.RefBases(int64(intervalOffset), int64(opLen))
		if bases == "" {
			// The deletion can run off the end of the contig; this shows up in
			// practice with incomplete assemblies and circular chromosomes.
			log.Debug.Printf("allele: deletion spans off the contig for read %s at %v (intervalOffset %d, readOffset %d)",
				samr.Name, c.ival, intervalOffset, readOffset)
			return skippedReadAllele
		}
		if !areCanonicalBases(bases) {
			return skippedReadAllele
		}
	case sam.CigarInsertion:
		typ = Insertion
		bases = string(seq[readOffset : readOffset+opLen])
	case sam.CigarSoftClipped:
		typ = SoftClip
		bases = string(seq[readOffset : readOffset+opLen])
	default:
		panic(fmt.Sprintf("allele.makeIndelReadAllele: unexpected CIGAR op %v", op))
	}
	return ReadAllele{
		position:     intervalOffset - 1,
		bases:        prev + bases,
		typ:          typ,
		isLowQuality: isLowQuality,
	}
}

// Add ingests one aligned read for the given sample.  Reads below the
// mapping-quality threshold are discarded whole.  Malformed-but-real data
// (duplicate reads, deletions off a contig end) is skipped with a low-verbosity
// diagnostic; it never aborts ingestion of the rest of the read.
func (c *Counter) Add(samr *sam.Record, sampleID string) {
	if int(samr.MapQ) < c.opts.MinMapQ {
		return
	}

	seq := samr.Seq.Expand()
	toAdd := make([]ReadAllele, 0, len(samr.Qual))
	readOffset := 0
	intervalOffset := int(int64(samr.Pos) - c.ival.Start)

	for _, op := range samr.Cigar {
		opLen := op.Len()
		switch op.Type() {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
			for i := 0; i < opLen; i++ {
				refOffset := intervalOffset + i
				baseOffset := readOffset + i
				if !c.isValidRefOffset(refOffset) {
					// Reads can extend beyond the interval on either side.
					continue
				}
				ok, isLowQuality := canBasesBeUsed(seq, samr.Qual, baseOffset, 1, c.opts.MinBaseQual)
				if !ok {
					continue
				}
				typ := Substitution
				if c.refBases[refOffset] == seq[baseOffset] {
					typ = Reference
				}
				toAdd = append(toAdd, ReadAllele{
					position:     refOffset,
					bases:        string(seq[baseOffset : baseOffset+1]),
					typ:          typ,
					isLowQuality: isLowQuality,
				})
			}
			readOffset += opLen
			intervalOffset += opLen
		case sam.CigarSoftClipped, sam.CigarInsertion:
			// By VCF convention indels are reported at the preceding base.
			toAdd = append(toAdd, c.makeIndelReadAllele(samr, seq, intervalOffset, readOffset, op))
			// No intervalOffset change, since an insertion doesn't move us on ref.
			readOffset += opLen
		case sam.CigarDeletion:
			toAdd = append(toAdd, c.makeIndelReadAllele(samr, seq, intervalOffset, readOffset, op))
			// No readOffset change, since a deletion doesn't consume read bases.
			intervalOffset += opLen
		case sam.CigarPadded, sam.CigarSkipped:
			intervalOffset += opLen
		case sam.CigarHardClipped:
			// do nothing
		default:
			// Remaining op types (e.g. back) aren't expected in our inputs; they
			// consume nothing here.
		}
	}

	c.addReadAlleles(samr, sampleID, toAdd)
	c.nReadsCounted++
}

// addReadAlleles applies candidate gating and same-position conflict
// resolution, then folds the surviving observations into the tallies.
func (c *Counter) addReadAlleles(samr *sam.Record, sampleID string, toAdd []ReadAllele) {
	for i := range toAdd {
		ra := &toAdd[i]
		if ra.Skip() || !c.isValidRefOffset(ra.position) {
			continue
		}

		// When sequential observations land on the same position, drop the
		// earlier one.  This happens when a base call at position p is followed
		// by an indel which, because of VCF anchoring, is also placed at p; the
		// indel supersedes the point call.  Resolving the conflict here keeps the
		// translation loop above simple.
		if i+1 < len(toAdd) && ra.position == toAdd[i+1].position {
			continue
		}

		count := &c.counts[ra.position]
		if ra.typ == Reference {
			if !ra.isLowQuality {
				count.RefSupportingReadCount++
			} else {
				count.RefNonconfidentReadCount++
			}
		}

		// Non-reference alleles are always recorded per-read.  Reference alleles
		// are recorded per-read only when TrackRefReads is set and the position
		// is a known candidate; everywhere else the bare
		// RefSupportingReadCount counter suffices, which bounds memory on deep
		// pileups.
		if ra.typ != Reference ||
			(c.opts.TrackRefReads && c.isCandidatePosition(ra.position)) {
			key := ReadKey(samr)
			al := MakeAllele(ra.bases, ra.typ, 1, ra.isLowQuality)
			if count.ReadAlleles == nil {
				count.ReadAlleles = make(map[string]Allele)
			}
			if _, dup := count.ReadAlleles[key]; dup {
				// There should never be multiple entries for one read key, but
				// duplicate reads occur in data we need to process anyway.  Last
				// write wins.
				if c.nDupReads < 1 {
					log.Debug.Printf("allele: duplicate read %s at %s:%d", key, count.RefName, count.Pos)
				}
				c.nDupReads++
			}
			count.ReadAlleles[key] = al
			if count.SampleAlleles == nil {
				count.SampleAlleles = make(map[string][]Allele)
			}
			count.SampleAlleles[sampleID] = append(count.SampleAlleles[sampleID], al)
		}
	}
}

// isCandidatePosition reports whether the interval-relative position was
// flagged as a potential variant site at construction.  Binary search over
// the sorted positions keeps this cheap at tens of millions of calls.
func (c *Counter) isCandidatePosition(pos int) bool {
	idx := sort.SearchInts(c.candidatePositions, pos)
	return idx < len(c.candidatePositions) && c.candidatePositions[idx] == pos
}

// SummaryCounts flattens the tallies into one Summary per interval position,
// in order.  TotalReadCount excludes low-quality non-reference entries unless
// includeLowQuality is set.
func (c *Counter) SummaryCounts(includeLowQuality bool) []Summary {
	summaries := make([]Summary, 0, len(c.counts))
	for i := range c.counts {
		ac := &c.counts[i]
		summaries = append(summaries, Summary{
			RefName:                  ac.RefName,
			Pos:                      ac.Pos,
			RefBase:                  ac.RefBase,
			RefSupportingReadCount:   ac.RefSupportingReadCount,
			TotalReadCount:           TotalAlleleCounts(*ac, includeLowQuality),
			RefNonconfidentReadCount: ac.RefNonconfidentReadCount,
		})
	}
	return summaries
}

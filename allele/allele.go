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

// Package allele converts aligned reads covering a genomic interval into
// per-position tallies of the alleles they support.  The tallies are suitable
// as direct input to downstream candidate-variant generation.
package allele

// Type classifies a single allele observation.
type Type uint8

const (
	// TypeUnspecified is the zero value; it never appears in emitted alleles.
	TypeUnspecified Type = iota
	// Reference means the read base matches the reference base.
	Reference
	// Substitution means the read base differs from the reference base.
	Substitution
	// Insertion means the read carries extra bases relative to the reference.
	Insertion
	// Deletion means the read lacks bases present in the reference.
	Deletion
	// SoftClip means the bases were soft-clipped by the aligner.
	SoftClip
)

var typeNames = [...]string{"UNSPECIFIED", "REFERENCE", "SUBSTITUTION", "INSERTION", "DELETION", "SOFT_CLIP"}

func (t Type) String() string {
	if int(t) >= len(typeNames) {
		return "UNKNOWN"
	}
	return typeNames[t]
}

// Allele is one observed base/indel variant, with the number of reads
// supporting it.  Per-read entries always have Count == 1; aggregated entries
// carry the number of reads sharing identical (Bases, Type).
type Allele struct {
	Bases        string
	Type         Type
	Count        int
	IsLowQuality bool
}

// MakeAllele constructs an Allele.
func MakeAllele(bases string, typ Type, count int, isLowQuality bool) Allele {
	return Allele{Bases: bases, Type: typ, Count: count, IsLowQuality: isLowQuality}
}

// ReadAllele is a single candidate observation produced while walking one
// read's alignment.  position is relative to the counter's interval start.
// It is consumed immediately by the counter and never persisted.
type ReadAllele struct {
	position     int
	bases        string
	typ          Type
	isLowQuality bool
}

// skippedReadAllele marks an event that was discarded during construction
// (missing or non-canonical anchor base, unfetchable deletion span).
var skippedReadAllele = ReadAllele{position: -1}

// Skip reports whether this observation must be ignored.
func (r ReadAllele) Skip() bool {
	return r.position < 0
}

// AlleleCount tallies every allele observed at a single reference position.
// One AlleleCount exists per base of the counter's interval; they are created
// at construction and only mutated afterwards, never removed.
type AlleleCount struct {
	RefName string
	Pos     int64
	RefBase string

	// RefSupportingReadCount counts reads whose base at this position matched
	// the reference and passed the base-quality threshold.  It is maintained
	// regardless of TrackRefReads; tracking reference support as a bare counter
	// is what keeps large pileups affordable.
	RefSupportingReadCount int

	// RefNonconfidentReadCount counts reference-matching observations that
	// failed the base-quality threshold.
	RefNonconfidentReadCount int

	// ReadAlleles maps a read key (see ReadKey) to the single allele that read
	// contributed at this position.  A duplicate key means duplicate reads in
	// the input; the last write wins.
	ReadAlleles map[string]Allele

	// SampleAlleles maps a sample ID to the alleles its qualifying reads
	// contributed, one appended entry per read.  Unlike ReadAlleles it is never
	// deduplicated.
	SampleAlleles map[string][]Allele

	// TrackRefReads records whether reference-supporting reads are entered into
	// the per-read maps at candidate positions.  Fixed at construction.
	TrackRefReads bool
}

// Summary is the flattened per-position record returned by
// Counter.SummaryCounts.
type Summary struct {
	RefName                  string
	Pos                      int64
	RefBase                  string
	RefSupportingReadCount   int
	TotalReadCount           int
	RefNonconfidentReadCount int
}

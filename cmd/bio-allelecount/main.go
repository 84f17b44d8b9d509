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
package main

/*
bio-allelecount walks the reads in a BAM overlapping a genomic region and
reports, for each position, how many reads support the reference base and how
many support something else.
*/

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/grailbio/allelecount/allele"
	"github.com/grailbio/allelecount/interval"
	"github.com/grailbio/allelecount/reference"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
)

var (
	region        = flag.String("region", "", "Region to count over. Format as <contig ID>:<1-based first pos>-<last pos>, <contig ID>:<1-based pos>, or just <contig ID>; required")
	sample        = flag.String("sample", "default", "Sample ID to associate ingested reads with")
	mapq          = flag.Int("mapq", 20, "Reads with MAPQ below this level are skipped")
	minBaseQual   = flag.Int("min-base-qual", 10, "Lower bound on base quality (indels are judged by their mean)")
	trackRefReads = flag.Bool("track-ref-reads", false, "Track reference-supporting reads per-read at candidate positions")
	candidates    = flag.String("candidates", "", "Comma-separated 1-based candidate positions for per-read reference tracking")
	format        = flag.String("format", "tsv", "Output format; 'tsv' and 'rio' supported")
	outPath       = flag.String("out", "bio-allelecount", "Output path prefix")
	includeLowQ   = flag.Bool("include-low-qual", false, "Include low-quality entries in the total read count column")
)

func bioAllelecountUsage() {
	fmt.Printf("Usage: %s [OPTIONS] bampath fapath\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

func parseCandidates(s string) (positions []int64, err error) {
	if s == "" {
		return
	}
	for _, part := range strings.Split(s, ",") {
		var pos1 int64
		if pos1, err = strconv.ParseInt(part, 10, 64); err != nil {
			return
		}
		if pos1 <= 0 {
			err = fmt.Errorf("candidate position %v out of range", part)
			return
		}
		positions = append(positions, pos1-1)
	}
	return
}

func countRegion(bampath string, genome reference.Genome, ival interval.Interval, candidatePositions []int64, opts allele.Options, sampleID string) (counter *allele.Counter, err error) {
	if counter, err = allele.NewCounter(genome, ival, candidatePositions, opts); err != nil {
		return
	}
	ctx := vcontext.Background()
	var inBam file.File
	if inBam, err = file.Open(ctx, bampath); err != nil {
		return
	}
	defer file.CloseAndReport(ctx, inBam, &err)

	var bamReader *bam.Reader
	if bamReader, err = bam.NewReader(inBam.Reader(ctx), 1); err != nil {
		return
	}
	defer func() {
		if cerr := bamReader.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	nOverlapping := 0
	for {
		var samr *sam.Record
		samr, err = bamReader.Read()
		if err == io.EOF {
			err = nil
			break
		}
		if err != nil {
			return
		}
		if samr.Ref == nil || samr.Ref.Name() != ival.RefName {
			continue
		}
		span, _ := samr.Cigar.Lengths()
		if int64(samr.Pos) >= ival.End || int64(samr.Pos+span) <= ival.Start {
			continue
		}
		counter.Add(samr, sampleID)
		nOverlapping++
	}
	log.Printf("bio-allelecount: %d overlapping reads, %d counted", nOverlapping, counter.NReadsCounted())
	return
}

func writeSummariesTSV(summaries []allele.Summary, path string) (err error) {
	ctx := vcontext.Background()
	var dst file.File
	if dst, err = file.Create(ctx, path); err != nil {
		return
	}
	defer file.CloseAndReport(ctx, dst, &err)

	w := tsv.NewWriter(dst.Writer(ctx))
	w.WriteString("#CHROM")
	w.WriteString("POS")
	w.WriteString("REF")
	w.WriteString("REF_COUNT")
	w.WriteString("TOTAL_COUNT")
	w.WriteString("REF_NONCONF_COUNT")
	if err = w.EndLine(); err != nil {
		return
	}
	for _, s := range summaries {
		w.WriteString(s.RefName)
		w.WriteUint32(uint32(s.Pos + 1)) // POS (1-based in VCF text)
		w.WriteString(s.RefBase)
		w.WriteUint32(uint32(s.RefSupportingReadCount))
		w.WriteUint32(uint32(s.TotalReadCount))
		w.WriteUint32(uint32(s.RefNonconfidentReadCount))
		if err = w.EndLine(); err != nil {
			return
		}
	}
	return w.Flush()
}

func writeSummariesRio(summaries []allele.Summary, path string) (err error) {
	ctx := vcontext.Background()
	var dst file.File
	if dst, err = file.Create(ctx, path); err != nil {
		return
	}
	defer file.CloseAndReport(ctx, dst, &err)
	return allele.WriteSummariesRio(summaries, dst.Writer(ctx))
}

func main() {
	flag.Usage = bioAllelecountUsage
	shutdown := grail.Init()
	defer shutdown()

	allArgs := flag.Args()
	nPositionalArgs := flag.NArg()
	positionalArgs := allArgs[len(allArgs)-nPositionalArgs:]
	if nPositionalArgs != 2 {
		log.Fatalf("Expected exactly two positional arguments (bampath and fapath); please check flag syntax: '%s'", strings.Join(positionalArgs, " "))
	}
	if *region == "" {
		log.Fatalf("-region is required")
	}
	if *format != "tsv" && *format != "rio" {
		log.Fatalf("Unrecognized -format %q", *format)
	}

	ival, err := interval.ParseRegionString(*region)
	if err != nil {
		log.Fatalf("%v", err)
	}
	genome, err := reference.NewFromPath(positionalArgs[1])
	if err != nil {
		log.Fatalf("%v", err)
	}
	refLen, err := genome.Len(ival.RefName)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if ival.End > refLen {
		ival.End = refLen
	}

	candidatePositions, err := parseCandidates(*candidates)
	if err != nil {
		log.Fatalf("-candidates: %v", err)
	}
	opts := allele.Options{
		MinBaseQual:   *minBaseQual,
		MinMapQ:       *mapq,
		TrackRefReads: *trackRefReads,
	}
	counter, err := countRegion(positionalArgs[0], genome, ival, candidatePositions, opts, *sample)
	if err != nil {
		log.Fatalf("%v", err)
	}

	summaries := counter.SummaryCounts(*includeLowQ)
	switch *format {
	case "tsv":
		err = writeSummariesTSV(summaries, *outPath+".tsv")
	case "rio":
		err = writeSummariesRio(summaries, *outPath+".rio")
	}
	if err != nil {
		log.Fatalf("%v", err)
	}
	log.Debug.Printf("exiting")
}

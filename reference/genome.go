// Package reference provides access to reference-genome base sequences for
// allele counting.  The data is FASTA-formatted; for example:
//
// >chr7
// ACGTAC
// GAGGAC
// GCG
// >chr8
// ACGT
//
// Sequence names are defined to be the stretch of characters excluding spaces
// immediately after '>'; any text after a space is ignored.
package reference

import (
	"bufio"
	"io"
	"strings"

	"github.com/grailbio/allelecount/interval"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/vcontext"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// Genome is a read-only view of a reference genome.  Implementations must be
// safe for concurrent use.
type Genome interface {
	// Bases returns the base sequence covering the given interval.  It is an
	// error to query an interval for which IsValidInterval returns false.
	Bases(ival interval.Interval) (string, error)

	// Len returns the length of the given contig.
	Len(refName string) (int64, error)

	// IsValidInterval reports whether the interval lies within the bounds of a
	// known contig.  A fetch on an invalid interval fails; a fetch on a valid
	// interval always succeeds, even when the interval is empty.
	IsValidInterval(ival interval.Interval) bool

	// SeqNames returns the names of all contigs, in order of appearance.
	SeqNames() []string
}

type genome struct {
	seqs     map[string]string
	seqNames []string
}

// New creates a Genome holding all FASTA data from the given reader in
// memory.
func New(r io.Reader) (Genome, error) {
	g := &genome{seqs: make(map[string]string)}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, 1024*1024*300)
	var seqName string
	var seq strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			if seqName != "" {
				g.seqs[seqName] = seq.String()
				g.seqNames = append(g.seqNames, seqName)
				seq.Reset()
			} else if seq.Len() != 0 {
				return nil, errors.Errorf("reference.New: sequence data before first header")
			}
			seqName = strings.Split(line[1:], " ")[0]
			if seqName == "" {
				return nil, errors.Errorf("reference.New: empty sequence name")
			}
			if _, ok := g.seqs[seqName]; ok {
				return nil, errors.Errorf("reference.New: duplicate sequence name %s", seqName)
			}
		} else {
			seq.WriteString(line)
		}
	}
	if scanner.Err() != nil {
		return nil, errors.Wrap(scanner.Err(), "couldn't read FASTA data")
	}
	if seqName == "" {
		return nil, errors.Errorf("reference.New: no sequences found")
	}
	g.seqs[seqName] = seq.String()
	g.seqNames = append(g.seqNames, seqName)
	return g, nil
}

// NewFromPath creates a Genome from the FASTA file at the given path.  Files
// with a .gz/.bgz suffix are decompressed on the fly.
func NewFromPath(path string) (g Genome, err error) {
	ctx := vcontext.Background()
	var infile file.File
	if infile, err = file.Open(ctx, path); err != nil {
		return
	}
	defer func() {
		if cerr := infile.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	reader := io.Reader(infile.Reader(ctx))
	switch fileio.DetermineType(path) {
	case fileio.Gzip:
		if reader, err = gzip.NewReader(reader); err != nil {
			return
		}
	}
	return New(reader)
}

// Bases implements Genome.Bases().
func (g *genome) Bases(ival interval.Interval) (string, error) {
	s, ok := g.seqs[ival.RefName]
	if !ok {
		return "", errors.Errorf("reference: sequence not found: %s", ival.RefName)
	}
	if ival.Start < 0 || ival.End < ival.Start || ival.End > int64(len(s)) {
		return "", errors.Errorf("reference: invalid query range %d-%d for sequence %s with length %d",
			ival.Start, ival.End, ival.RefName, len(s))
	}
	return s[ival.Start:ival.End], nil
}

// Len implements Genome.Len().
func (g *genome) Len(refName string) (int64, error) {
	s, ok := g.seqs[refName]
	if !ok {
		return 0, errors.Errorf("reference: sequence not found: %s", refName)
	}
	return int64(len(s)), nil
}

// IsValidInterval implements Genome.IsValidInterval().
func (g *genome) IsValidInterval(ival interval.Interval) bool {
	s, ok := g.seqs[ival.RefName]
	if !ok {
		return false
	}
	return ival.Start >= 0 && ival.Start <= ival.End && ival.End <= int64(len(s))
}

// SeqNames implements Genome.SeqNames().
func (g *genome) SeqNames() []string {
	return g.seqNames
}

package reference_test

import (
	"strings"
	"testing"

	"github.com/grailbio/allelecount/interval"
	"github.com/grailbio/allelecount/reference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFasta = `>chr1 human
ACGTAC
GAGGAC
GCG
>chr2
ACGT
`

func TestNew(t *testing.T) {
	g, err := reference.New(strings.NewReader(testFasta))
	require.NoError(t, err)

	assert.Equal(t, []string{"chr1", "chr2"}, g.SeqNames())

	n, err := g.Len("chr1")
	require.NoError(t, err)
	assert.Equal(t, int64(15), n)

	bases, err := g.Bases(interval.New("chr1", 0, 15))
	require.NoError(t, err)
	assert.Equal(t, "ACGTACGAGGACGCG", bases)

	// Fetches spanning the original line breaks.
	bases, err = g.Bases(interval.New("chr1", 4, 8))
	require.NoError(t, err)
	assert.Equal(t, "ACGA", bases)

	bases, err = g.Bases(interval.New("chr2", 1, 3))
	require.NoError(t, err)
	assert.Equal(t, "CG", bases)
}

func TestIsValidInterval(t *testing.T) {
	g, err := reference.New(strings.NewReader(testFasta))
	require.NoError(t, err)

	assert.True(t, g.IsValidInterval(interval.New("chr2", 0, 4)))
	// Valid-but-empty is distinguishable from invalid.
	assert.True(t, g.IsValidInterval(interval.New("chr2", 2, 2)))
	assert.False(t, g.IsValidInterval(interval.New("chr2", -1, 0)))
	assert.False(t, g.IsValidInterval(interval.New("chr2", 0, 5)))
	assert.False(t, g.IsValidInterval(interval.New("chr3", 0, 1)))

	_, err = g.Bases(interval.New("chr2", 0, 5))
	assert.Error(t, err)
	bases, err := g.Bases(interval.New("chr2", 2, 2))
	require.NoError(t, err)
	assert.Equal(t, "", bases)
}

func TestNewErrors(t *testing.T) {
	_, err := reference.New(strings.NewReader(""))
	assert.Error(t, err)

	_, err = reference.New(strings.NewReader("ACGT\n"))
	assert.Error(t, err)

	_, err = reference.New(strings.NewReader(">chr1\nAC\n>chr1\nGT\n"))
	assert.Error(t, err)
}

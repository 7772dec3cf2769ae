package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissingFileDefaultsToZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pairing.yaml")
	s, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, byte(0), s.PairID())
}

func TestSetAndReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pairing.yaml")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SetPairID(5))

	s2, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, byte(5), s2.PairID())
}

func TestNamespaceIsolation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pairing.yaml")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SetPairID(2))

	require.Equal(t, map[string]int{PairIDKey: 2}, s.doc[Namespace])
}

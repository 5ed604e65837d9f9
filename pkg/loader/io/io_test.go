package io

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(path, []byte("Alice works at Acme."), 0o644))

	l := NewIOTextLoader()
	data, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Alice works at Acme.", string(data))

	// Cached: a change on disk is not seen.
	require.NoError(t, os.WriteFile(path, []byte("changed"), 0o644))
	data, err = l.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Alice works at Acme.", string(data))
}

func TestLoadStdin(t *testing.T) {
	l := NewIOTextLoaderWithStdin(strings.NewReader("from stdin"))
	data, err := l.Load(context.Background(), "-")
	require.NoError(t, err)
	assert.Equal(t, "from stdin", string(data))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewIOTextLoader().Load(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

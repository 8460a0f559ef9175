package fsmeta

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docingest/internal/common"
	"github.com/joseph-ayodele/docingest/internal/entity"
)

func TestProbe(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))
	mtime := time.Date(2023, 5, 17, 8, 30, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(path, mtime, mtime))

	m, err := Probe(path)
	require.NoError(t, err)

	assert.Equal(t, []string{entity.KeyFileName, entity.KeyFileSize, entity.KeyCreatedDate, entity.KeyModifiedDate}, m.Keys())
	assert.Equal(t, "notes.txt", m.GetString(entity.KeyFileName))
	size, _ := m.Get(entity.KeyFileSize)
	assert.Equal(t, int64(11), size)

	mod, err := time.Parse(TimeLayout, m.GetString(entity.KeyModifiedDate))
	require.NoError(t, err)
	assert.True(t, mod.Equal(mtime))

	_, err = time.Parse(TimeLayout, m.GetString(entity.KeyCreatedDate))
	assert.NoError(t, err)
}

func TestProbe_Missing(t *testing.T) {
	_, err := Probe(filepath.Join(t.TempDir(), "nope.pdf"))
	assert.ErrorIs(t, err, common.ErrPathNotFound)
}

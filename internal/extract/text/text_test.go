package text

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docingest/constants"
	"github.com/joseph-ayodele/docingest/internal/entity"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"utf8", []byte("Brașov, țară"), "Brașov, țară"},
		{"latin1 fallback", []byte{'c', 'a', 'f', 0xE9}, "café"},
		{"bom stripped", append([]byte{0xEF, 0xBB, 0xBF}, "hi"...), "hi"},
		{"crlf normalized", []byte("a\r\nb\rc"), "a\nb\nc"},
		{"empty", nil, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Decode(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExtract_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n"), 0o644))

	doc, err := New(constants.CSV, nil).Extract(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, constants.CSV, doc.Format)
	assert.Equal(t, "a,b\n1,2\n", doc.Content)
	assert.Equal(t, "data.csv", doc.Metadata.GetString(entity.KeyFileName))
	assert.Equal(t, 4, doc.Metadata.Len())
	assert.Nil(t, doc.OCR)
}

func TestExtract_MissingFile(t *testing.T) {
	_, err := New(constants.TXT, nil).Extract(context.Background(), filepath.Join(t.TempDir(), "x.txt"))
	assert.Error(t, err)
}

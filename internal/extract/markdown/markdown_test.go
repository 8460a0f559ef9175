package markdown

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docingest/constants"
)

const sample = "# Raport lunar\n\n" +
	"Venituri **crescute** cu 10%\nfață de luna trecută.\n\n" +
	"- primul punct\n- al doilea [link](https://example.com)\n\n" +
	"```\ntotal := 42\n```\n\n" +
	"| Luna | Suma |\n|------|------|\n| Ian | 100 |\n\n" +
	"<div>ignored</div>\n"

func TestPlainText(t *testing.T) {
	got := New(nil).PlainText([]byte(sample))
	assert.Equal(t,
		"Raport lunar\n"+
			"Venituri crescute cu 10% față de luna trecută.\n"+
			"primul punct\n"+
			"al doilea link\n"+
			"total := 42\n"+
			"Luna | Suma\n"+
			"Ian | 100",
		got)
}

func TestExtract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "README.md")
	require.NoError(t, os.WriteFile(path, []byte("Hello *world*\n"), 0o644))

	doc, err := New(nil).Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, constants.MARKDOWN, doc.Format)
	assert.Equal(t, "Hello world", doc.Content)
}

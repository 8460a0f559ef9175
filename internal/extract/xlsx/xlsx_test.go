package xlsx

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docingest/constants"
	"github.com/joseph-ayodele/docingest/internal/common"
	"github.com/joseph-ayodele/docingest/internal/entity"
)

func writeWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", "Facturi"))
	require.NoError(t, f.SetCellValue("Facturi", "A1", "Client"))
	require.NoError(t, f.SetCellValue("Facturi", "B1", "Total"))
	require.NoError(t, f.SetCellValue("Facturi", "A2", "ACME"))
	require.NoError(t, f.SetCellValue("Facturi", "C2", 150))
	// row 3 left empty
	require.NoError(t, f.SetCellValue("Facturi", "B4", "only B"))

	_, err := f.NewSheet("Gol")
	require.NoError(t, err)

	require.NoError(t, f.SetDocProps(&excelize.DocProperties{
		Creator:        "Ana Pop",
		LastModifiedBy: "Ion Ionescu",
	}))

	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestExtract(t *testing.T) {
	path := writeWorkbook(t)

	doc, err := New(nil).Extract(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, constants.XLSX, doc.Format)
	assert.Equal(t, "--- Sheet: Facturi ---\nClient | Total\nACME | 150\nonly B\n--- Sheet: Gol ---", doc.Content)
	assert.Equal(t, "Ana Pop", doc.Metadata.GetString(entity.KeyCreatedAuthor))
	assert.Equal(t, "Ion Ionescu", doc.Metadata.GetString(entity.KeyModifiedAuthor))
	assert.Equal(t, "book.xlsx", doc.Metadata.GetString(entity.KeyFileName))
}

func TestExtract_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("nope"), 0o644))

	_, err := New(nil).Extract(context.Background(), path)
	assert.ErrorIs(t, err, common.ErrInvalidDocument)
}

func TestJoinRow(t *testing.T) {
	assert.Equal(t, "a | c", joinRow([]string{"a", "", "c"}))
	assert.Equal(t, "", joinRow([]string{"", ""}))
}

package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("OCR_LANGUAGES", "")
	t.Setenv("OCR_SCAN_THRESHOLD", "")

	cfg := LoadConfig()
	assert.Equal(t, "docker", cfg.OCR.Engine)
	assert.Equal(t, "local-ocr", cfg.OCR.Image)
	assert.Equal(t, []string{"ron", "eng"}, cfg.OCR.Languages)
	assert.Equal(t, 50, cfg.OCR.ScanThreshold)
	assert.Equal(t, 10*time.Minute, cfg.OCR.Timeout)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("OCR_ENGINE", "ocrmypdf")
	t.Setenv("OCR_LANGUAGES", "deu+fra")
	t.Setenv("OCR_SCAN_THRESHOLD", "120")
	t.Setenv("OCR_TIMEOUT", "90s")
	t.Setenv("BATCH_WORKERS", "not-a-number")

	cfg := LoadConfig()
	assert.Equal(t, "ocrmypdf", cfg.OCR.Engine)
	assert.Equal(t, []string{"deu", "fra"}, cfg.OCR.Languages)
	assert.Equal(t, 120, cfg.OCR.ScanThreshold)
	assert.Equal(t, 90*time.Second, cfg.OCR.Timeout)
	assert.Equal(t, 4, cfg.Batch.Workers, "invalid values fall back to the default")
}

func TestLoad_TOMLOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[ocr]
engine = "ocrmypdf"
languages = ["eng"]
scan_threshold = 10
timeout = "2m"

[store]
driver = "postgres"
dsn = "postgres://localhost/docs"
dial_timeout = "1s"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ocrmypdf", cfg.OCR.Engine)
	assert.Equal(t, []string{"eng"}, cfg.OCR.Languages)
	assert.Equal(t, 10, cfg.OCR.ScanThreshold)
	assert.Equal(t, 2*time.Minute, cfg.OCR.Timeout)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, time.Second, cfg.Store.DialTimeout)
	// untouched keys keep env/default values
	assert.Equal(t, "docker", cfg.OCR.DockerBinary)
	require.NoError(t, cfg.Validate())
}

func TestLoad_BadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[ocr]\ntimeout = \"soon\"\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "CONFIG_ERROR", appErr.Code)
}

func TestConfig_Validate(t *testing.T) {
	cfg := LoadConfig()
	cfg.OCR.Engine = "tesseract"
	cfg.OCR.Languages = nil
	cfg.Store.Driver = "postgres"
	cfg.Store.DSN = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "ocr.engine")
	assert.Contains(t, err.Error(), "ocr.languages")
	assert.Contains(t, err.Error(), "store.dsn")
}

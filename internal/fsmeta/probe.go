// Package fsmeta reads the filesystem-level metadata common to every ingested file.
package fsmeta

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/docingest/internal/common"
	"github.com/joseph-ayodele/docingest/internal/entity"
)

// TimeLayout is used for created_date and modified_date.
const TimeLayout = time.RFC3339

// Probe returns file_name, file_size_bytes, created_date and modified_date, in
// that order. The created time is the platform's birth or change time, falling
// back to the modification time.
func Probe(path string) (*entity.Metadata, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", common.ErrPathNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return FromFileInfo(filepath.Base(path), fi), nil
}

// FromFileInfo builds the metadata from an existing stat result.
func FromFileInfo(name string, fi os.FileInfo) *entity.Metadata {
	m := entity.NewMetadata()
	m.Set(entity.KeyFileName, name)
	m.Set(entity.KeyFileSize, fi.Size())
	m.Set(entity.KeyCreatedDate, createdTime(fi).Local().Format(TimeLayout))
	m.Set(entity.KeyModifiedDate, fi.ModTime().Local().Format(TimeLayout))
	return m
}

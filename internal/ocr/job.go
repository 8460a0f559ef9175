package ocr

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const containerPrefix = "docingest-ocr-"

// Job holds the paths of one OCR run. Artifact names derive from the source base
// name and live next to the source.
type Job struct {
	SourcePath  string
	WorkDir     string
	SourceName  string
	SidecarName string
	SidecarPath string
	DerivedName string
	DerivedPath string

	// ContainerName is unique per job so an abandoned container can be removed
	// by name.
	ContainerName string
}

// NewJob resolves sourcePath to an absolute, cleaned path and derives the
// artifact locations.
func NewJob(sourcePath string) (Job, error) {
	if strings.TrimSpace(sourcePath) == "" {
		return Job{}, fmt.Errorf("empty source path")
	}
	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		return Job{}, fmt.Errorf("resolve %q: %w", sourcePath, err)
	}
	dir := filepath.Dir(abs)
	name := filepath.Base(abs)

	j := Job{
		SourcePath:  abs,
		WorkDir:     dir,
		SourceName:  name,
		SidecarName: name + ".txt",
		DerivedName: name + "_ocr.pdf",

		ContainerName: containerPrefix + uuid.NewString(),
	}
	j.SidecarPath = filepath.Join(dir, j.SidecarName)
	j.DerivedPath = filepath.Join(dir, j.DerivedName)
	return j, nil
}

// MountDir is WorkDir with forward slashes, as container runtimes expect on
// every host OS.
func (j Job) MountDir() string {
	return filepath.ToSlash(j.WorkDir)
}

// IsArtifact reports whether name looks like a file an OCR run leaves behind.
func IsArtifact(name string) bool {
	base := strings.ToLower(filepath.Base(name))
	return strings.HasSuffix(base, ".pdf.txt") || strings.HasSuffix(base, "_ocr.pdf")
}

//go:build !linux && !darwin && !windows

package fsmeta

import (
	"os"
	"time"
)

func createdTime(fi os.FileInfo) time.Time {
	return fi.ModTime()
}

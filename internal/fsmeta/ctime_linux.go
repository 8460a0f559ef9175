//go:build linux

package fsmeta

import (
	"os"
	"syscall"
	"time"
)

// Linux stat exposes no birth time; st_ctime is what the OS reports as "created".
func createdTime(fi os.FileInfo) time.Time {
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		return time.Unix(int64(st.Ctim.Sec), int64(st.Ctim.Nsec))
	}
	return fi.ModTime()
}

//go:build !unix

package ocr

import "os/exec"

// killProcessGroup keeps the default cancellation, which kills only the direct
// child. WaitDelay still bounds the wait for its output pipes.
func killProcessGroup(*exec.Cmd) {}

package ocr

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// CommandSpec describes one external process invocation.
type CommandSpec struct {
	Program string
	Dir     string // working directory; empty means the current one
	Args    []string

	// Stop force-stops work the process handed off elsewhere, such as a
	// container the docker client started. It runs after an abandoned run.
	Stop *CommandSpec
}

// String renders the command line for logs.
func (c CommandSpec) String() string {
	return strings.Join(append([]string{c.Program}, c.Args...), " ")
}

// Runner lets us stub external commands in tests.
type Runner interface {
	Run(ctx context.Context, spec CommandSpec) (stdout, stderr []byte, err error)
}

// defaultWaitDelay bounds how long Run waits for the output pipes after the
// process was killed.
const defaultWaitDelay = 5 * time.Second

// ExecRunner runs commands with os/exec, capturing both streams. On
// cancellation the whole process group is killed, not just the direct child.
type ExecRunner struct {
	Logger    *slog.Logger
	WaitDelay time.Duration // 0 means defaultWaitDelay
}

func (r ExecRunner) Run(ctx context.Context, spec CommandSpec) ([]byte, []byte, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()
	logger.Debug("running command", "cmd_line", spec.String(), "dir", spec.Dir)

	cmd := exec.CommandContext(ctx, spec.Program, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.WaitDelay = r.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = defaultWaitDelay
	}
	killProcessGroup(cmd)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	dur := time.Since(start)

	if err != nil {
		logger.Debug("exec failed",
			"cmd", spec.Program,
			"duration_ms", dur.Milliseconds(),
			"error", err,
		)
	} else {
		logger.Debug("exec ok",
			"cmd", spec.Program,
			"duration_ms", dur.Milliseconds(),
			"stdout_bytes", out.Len(),
			"stderr_bytes", errb.Len(),
		)
	}

	return out.Bytes(), errb.Bytes(), err
}

const maxLoggedStderr = 8 << 10

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}

package ocr

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/joseph-ayodele/docingest/internal/common"
)

const (
	EngineDocker   = "docker"
	EngineOCRmyPDF = "ocrmypdf"

	// containerWorkDir is where the source directory is mounted inside the image.
	containerWorkDir = "/home/docker"

	// stopTimeout bounds the command that removes an abandoned container.
	stopTimeout = 30 * time.Second
)

type Config struct {
	Engine       string // EngineDocker (default) | EngineOCRmyPDF
	DockerBinary string // if empty -> "docker"
	Image        string // if empty -> "local-ocr"
	Binary       string // if empty -> "ocrmypdf"
	Languages    []string
	Timeout      time.Duration // 0 = no limit beyond ctx
}

// ConfigFrom maps the application OCR settings.
func ConfigFrom(c common.OCRConfig) Config {
	return Config{
		Engine:       c.Engine,
		DockerBinary: c.DockerBinary,
		Image:        c.Image,
		Binary:       c.Binary,
		Languages:    c.Languages,
		Timeout:      c.Timeout,
	}
}

// Kind tags the outcome of one OCR run.
type Kind int

const (
	KindOK Kind = iota
	KindFailed
	KindNoSidecar
	KindError
	KindTimeout
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindFailed:
		return "failed"
	case KindNoSidecar:
		return "no_sidecar"
	case KindError:
		return "error"
	case KindTimeout:
		return "timeout"
	case KindCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

const (
	SentinelFailed    = "[ERROR: OCR Failed]"
	SentinelNoSidecar = "[ERROR: OCR finished but no text file was created]"
	SentinelTimeout   = "[ERROR: OCR timed out]"
	SentinelCanceled  = "[ERROR: OCR canceled]"
)

// Result is the tagged outcome of Orchestrator.Run.
type Result struct {
	Kind     Kind
	Text     string // sidecar text, set only for KindOK
	Err      error
	Stderr   string // truncated stderr of a failed process
	Duration time.Duration
}

// OK reports whether recognized text is available.
func (r Result) OK() bool { return r.Kind == KindOK }

// Content flattens the result into the string stored on a document.
func (r Result) Content() string {
	switch r.Kind {
	case KindOK:
		return r.Text
	case KindFailed:
		return SentinelFailed
	case KindNoSidecar:
		return SentinelNoSidecar
	case KindTimeout:
		return SentinelTimeout
	case KindCanceled:
		return SentinelCanceled
	default:
		msg := "unknown error"
		if r.Err != nil {
			msg = r.Err.Error()
		}
		return "[ERROR: " + msg + "]"
	}
}

// exitCoder matches *exec.ExitError without tying callers to os/exec.
type exitCoder interface {
	ExitCode() int
}

// Orchestrator runs the external OCR tool on one PDF and always removes the
// artifacts it leaves next to the source.
type Orchestrator struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
	locks  *keyedMutex
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRunner replaces the os/exec runner.
func WithRunner(r Runner) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.runner = r
		}
	}
}

func NewOrchestrator(cfg Config, logger *slog.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Engine == "" {
		cfg.Engine = EngineDocker
	}
	if cfg.DockerBinary == "" {
		cfg.DockerBinary = "docker"
	}
	if cfg.Image == "" {
		cfg.Image = "local-ocr"
	}
	if cfg.Binary == "" {
		cfg.Binary = "ocrmypdf"
	}
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{"ron", "eng"}
	}
	o := &Orchestrator{
		cfg:    cfg,
		runner: ExecRunner{Logger: logger},
		logger: logger,
		locks:  newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Command builds the invocation for job.
func (o *Orchestrator) Command(job Job) CommandSpec {
	flags := []string{
		"--skip-text",
		"--rotate-pages",
		"--deskew",
		"--clean",
		"-l", strings.Join(o.cfg.Languages, "+"),
		"--sidecar", job.SidecarName,
		job.SourceName,
		job.DerivedName,
	}
	if o.cfg.Engine == EngineOCRmyPDF {
		return CommandSpec{Program: o.cfg.Binary, Dir: job.WorkDir, Args: flags}
	}
	args := []string{"run", "--rm"}
	var stop *CommandSpec
	if job.ContainerName != "" {
		args = append(args, "--name", job.ContainerName)
		stop = &CommandSpec{Program: o.cfg.DockerBinary, Args: []string{"rm", "-f", job.ContainerName}}
	}
	args = append(args,
		"-w", containerWorkDir,
		"-v", job.MountDir() + ":" + containerWorkDir,
		o.cfg.Image,
	)
	return CommandSpec{Program: o.cfg.DockerBinary, Args: append(args, flags...), Stop: stop}
}

// Run performs OCR on sourcePath. It never returns an error or panics; every
// failure is reported through Result.Kind. The directory lock is held and the
// artifacts are removed only after the engine has stopped.
func (o *Orchestrator) Run(ctx context.Context, sourcePath string) (res Result) {
	start := time.Now()
	defer func() { res.Duration = time.Since(start) }()

	job, err := NewJob(sourcePath)
	if err != nil {
		return Result{Kind: KindError, Err: err}
	}

	unlock := o.locks.Lock(job.WorkDir)
	defer unlock()
	defer o.cleanup(job)
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("ocr panicked", "path", job.SourcePath, "panic", r)
			res = Result{Kind: KindError, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	ctx, cancel := common.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()
	if ctx.Err() != nil {
		return o.abandoned(job, ctx.Err())
	}

	spec := o.Command(job)
	o.logger.Debug("running ocr", "path", job.SourcePath, "engine", o.cfg.Engine)

	_, stderr, err := o.runner.Run(ctx, spec)
	if err != nil {
		if ctx.Err() != nil {
			o.stop(ctx, job, spec)
			return o.abandoned(job, ctx.Err())
		}
		var ec exitCoder
		if errors.As(err, &ec) {
			tail := truncate(string(stderr), maxLoggedStderr)
			o.logger.Warn("ocr process failed",
				"path", job.SourcePath,
				"exit_code", ec.ExitCode(),
				"error", err,
				"stderr", tail,
			)
			return Result{Kind: KindFailed, Err: err, Stderr: tail}
		}
		o.logger.Error("ocr process could not run", "path", job.SourcePath, "cmd", spec.Program, "error", err)
		return Result{Kind: KindError, Err: err}
	}

	raw, err := os.ReadFile(job.SidecarPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			o.logger.Warn("ocr produced no sidecar", "path", job.SourcePath, "sidecar", job.SidecarPath)
			return Result{Kind: KindNoSidecar, Err: err}
		}
		return Result{Kind: KindError, Err: fmt.Errorf("read sidecar: %w", err)}
	}
	if !utf8.Valid(raw) {
		o.logger.Warn("ocr sidecar is not valid utf-8; replacing invalid bytes", "path", job.SourcePath)
		raw = []byte(strings.ToValidUTF8(string(raw), "�"))
	}
	return Result{Kind: KindOK, Text: string(raw)}
}

// abandoned reports a run cut short by ctx. Only a missed deadline is a
// timeout; a parent cancellation is reported as such.
func (o *Orchestrator) abandoned(job Job, err error) Result {
	if errors.Is(err, context.DeadlineExceeded) {
		o.logger.Warn("ocr timed out", "path", job.SourcePath, "timeout", o.cfg.Timeout, "error", err)
		return Result{Kind: KindTimeout, Err: err}
	}
	o.logger.Info("ocr canceled", "path", job.SourcePath, "error", err)
	return Result{Kind: KindCanceled, Err: err}
}

// stop runs spec.Stop once the client process is gone, so a container that
// outlived its docker client cannot write artifacts after cleanup.
func (o *Orchestrator) stop(ctx context.Context, job Job, spec CommandSpec) {
	if spec.Stop == nil {
		return
	}
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
	defer cancel()
	_, stderr, err := o.runner.Run(sctx, *spec.Stop)
	if err != nil && !strings.Contains(string(stderr), "No such container") {
		o.logger.Error("failed to stop ocr engine",
			"path", job.SourcePath,
			"cmd_line", spec.Stop.String(),
			"error", err,
			"stderr", truncate(string(stderr), maxLoggedStderr),
		)
		return
	}
	o.logger.Debug("ocr engine stopped", "path", job.SourcePath, "cmd_line", spec.Stop.String())
}

func (o *Orchestrator) cleanup(job Job) {
	for _, p := range []string{job.SidecarPath, job.DerivedPath} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			o.logger.Warn("failed to remove ocr artifact", "artifact", p, "error", err)
		}
	}
}

// keyedMutex serializes work per key and drops idle entries.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

func (k *keyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

package headers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/aatumaykin/anisette/internal/logger"
)

const (
	DefaultCommandTimeout = 30 * time.Second
	maxStderrInError      = 512
	waitDelay             = time.Second
)

// CommandConfig describes an external generator executable.
type CommandConfig struct {
	Path    string
	Args    []string
	Timeout time.Duration
	Env     []string // appended to the inherited environment
}

// CommandProvider runs an external generator and reads a JSON object of
// string values from its stdout.
type CommandProvider struct {
	cfg    CommandConfig
	logger *logger.Logger
}

func NewCommandProvider(cfg CommandConfig, log *logger.Logger) *CommandProvider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultCommandTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	return &CommandProvider{cfg: cfg, logger: log}
}

func (p *CommandProvider) Generate() (Headers, error) {
	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.cfg.Path, p.cfg.Args...)
	cmd.WaitDelay = waitDelay
	if len(p.cfg.Env) > 0 {
		cmd.Env = append(cmd.Environ(), p.cfg.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, generationError("command %s timed out after %s", p.cfg.Path, p.cfg.Timeout)
		}
		return nil, generationError("command %s (exit code %d): %w: %s",
			p.cfg.Path, getExitCode(err), err, truncate(stderr.String(), maxStderrInError))
	}

	var h Headers
	if err := json.Unmarshal(stdout.Bytes(), &h); err != nil {
		return nil, generationError("command %s: decode output: %w", p.cfg.Path, err)
	}
	if len(h) == 0 {
		return nil, generationError("command %s: %w", p.cfg.Path, ErrEmptyHeaders)
	}

	p.logger.Debug("headers generated",
		logger.Field{Key: "command", Value: p.cfg.Path},
		logger.Field{Key: "duration_ms", Value: duration.Milliseconds()},
		logger.Field{Key: "names", Value: h.Names()})

	return h, nil
}

// getExitCode extracts the exit code from an error.
func getExitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

package sevenzip

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"switchlib/internal/services"
)

// Result captures one finished tool invocation.
type Result struct {
	ExitCode int
	Output   string
}

// Runner abstracts process execution so failure classification can be tested
// without spawning real processes. Run returns an error only when the process
// could not be launched or ctx ended; a non-zero exit is reported through
// Result.ExitCode.
type Runner interface {
	Run(ctx context.Context, binary string, args []string) (Result, error)
}

// Option configures the client.
type Option func(*Client)

// WithRunner injects a custom runner (primarily for tests).
func WithRunner(r Runner) Option {
	return func(c *Client) {
		if r != nil {
			c.runner = r
		}
	}
}

// Client wraps the 7-Zip compatible CLI used for listing and extraction.
type Client struct {
	binary      string
	listTimeout time.Duration
	runner      Runner
}

// New constructs a client for the given binary. listTimeoutSeconds bounds each
// listing call; zero disables the bound.
func New(binary string, listTimeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("7z binary required")
	}
	client := &Client{
		binary:      binary,
		listTimeout: time.Duration(listTimeoutSeconds) * time.Second,
		runner:      commandRunner{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Binary returns the configured executable.
func (c *Client) Binary() string {
	return c.binary
}

// Extract unpacks archive into outputDir using exactly one password. An
// explicit -p flag is always passed so the tool never prompts. Exit codes 0
// and 1 count as success; anything else yields an *Error.
func (c *Client) Extract(ctx context.Context, archive, outputDir, password string) error {
	args := []string{"x", "-y", "-p" + password, archive, "-o" + outputDir}
	res, err := c.runner.Run(ctx, c.binary, args)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return services.Wrap(services.ErrCancelled, "extract", archive, "", ctxErr)
		}
		return &Error{Category: CategoryLaunch, ExitCode: -1, Err: err}
	}
	switch res.ExitCode {
	case 0, 1:
		return nil
	default:
		return Classify(res.ExitCode, res.Output)
	}
}

// List runs the non-extracting listing mode with one password and returns the
// output lines. Success requires exit code zero and non-empty output.
func (c *Client) List(ctx context.Context, archive, password string) ([]string, error) {
	listCtx := ctx
	if c.listTimeout > 0 {
		var cancel context.CancelFunc
		listCtx, cancel = context.WithTimeout(ctx, c.listTimeout)
		defer cancel()
	}
	res, err := c.runner.Run(listCtx, c.binary, []string{"l", "-p" + password, archive})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, services.Wrap(services.ErrCancelled, "list", archive, "", ctxErr)
		}
		if errors.Is(listCtx.Err(), context.DeadlineExceeded) {
			return nil, services.Wrap(services.ErrTimeout, "list", archive, "", listCtx.Err())
		}
		return nil, &Error{Category: CategoryLaunch, ExitCode: -1, Err: err}
	}
	if res.ExitCode != 0 {
		return nil, Classify(res.ExitCode, res.Output)
	}
	output := strings.TrimSpace(res.Output)
	if output == "" {
		return nil, fmt.Errorf("%w: list %s: empty output", services.ErrExternalTool, archive)
	}
	return strings.Split(strings.ReplaceAll(output, "\r\n", "\n"), "\n"), nil
}

type commandRunner struct{}

func (commandRunner) Run(ctx context.Context, binary string, args []string) (Result, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("start command: %w", err)
	}
	err := cmd.Wait()
	output := strings.TrimSpace(stderr.String() + "\n" + stdout.String())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{ExitCode: -1, Output: output}, ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{ExitCode: exitErr.ExitCode(), Output: output}, nil
		}
		return Result{ExitCode: -1, Output: output}, fmt.Errorf("wait command: %w", err)
	}
	return Result{ExitCode: 0, Output: output}, nil
}

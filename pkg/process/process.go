// Package process runs external tools (fetch, extract, compile) and captures
// their output for diagnostics.
package process

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	zerrors "github.com/matzehuels/zap/pkg/errors"
)

// waitDelay bounds how long Run waits for output pipes after the process is killed.
const waitDelay = time.Second

// Command describes one subprocess invocation.
type Command struct {
	Name    string
	Args    []string
	Dir     string        // working directory
	Env     []string      // extra KEY=VALUE pairs appended to the parent environment
	Timeout time.Duration // 0 means unbounded

	// Stdout and Stderr, when set, also receive the output as it is produced.
	Stdout io.Writer
	Stderr io.Writer
}

// String renders the command line for logs and error messages.
func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Result is the captured outcome of a finished subprocess.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
}

// Runner executes commands. Implementations must return a SUBPROCESS_ERROR
// wrapping a *errors.SubprocessError when the command exits non-zero.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// Local runs commands on the host with os/exec.
type Local struct{}

// NewLocal returns a Runner backed by os/exec.
func NewLocal() *Local { return &Local{} }

// Run starts cmd, waits for it and captures stdout and stderr.
// A failure to start the process is reported as SUBPROCESS_ERROR as well,
// with exit code -1.
func (l *Local) Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.WaitDelay = waitDelay
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = tee(&stdout, cmd.Stdout)
	c.Stderr = tee(&stderr, cmd.Stderr)

	start := time.Now()
	err := c.Run()
	res := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}

	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
	} else {
		res.ExitCode = -1
		if len(res.Stderr) == 0 {
			res.Stderr = []byte(err.Error())
		}
	}
	if ctx.Err() != nil {
		return res, zerrors.Wrap(zerrors.ErrCodeSubprocess, ctx.Err(), "%s interrupted", cmd.Name)
	}
	return res, Failed(cmd, res)
}

func tee(buf *bytes.Buffer, w io.Writer) io.Writer {
	if w == nil {
		return buf
	}
	return io.MultiWriter(buf, w)
}

// Failed builds the coded error for a command that exited non-zero.
func Failed(cmd Command, res *Result) error {
	se := &zerrors.SubprocessError{
		Command:  cmd.String(),
		Dir:      cmd.Dir,
		ExitCode: res.ExitCode,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
	}
	return zerrors.Wrap(zerrors.ErrCodeSubprocess, se, "%s failed", cmd.Name)
}

// Ensure Local implements Runner.
var _ Runner = (*Local)(nil)

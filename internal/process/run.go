package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	apperrors "github.com/skillsenselab/telepathy/internal/errors"
)

const defaultGracePeriod = 5 * time.Second

// Run executes the command and waits for it to finish. The process runs in
// its own process group so that cancellation also reaps any children it
// spawned. On context cancellation the group receives SIGTERM, then SIGKILL
// after the grace period.
func Run(ctx context.Context, cmd Command) (Result, error) {
	if cmd.Binary == "" {
		return Result{}, fmt.Errorf("process: binary is required")
	}

	gracePeriod := cmd.GracePeriod
	if gracePeriod <= 0 {
		gracePeriod = defaultGracePeriod
	}

	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = mergeEnv(cmd.Env)
	c.Stdin = cmd.Stdin

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		// Negative pid signals the whole process group.
		return syscall.Kill(-c.Process.Pid, syscall.SIGTERM)
	}
	c.WaitDelay = gracePeriod

	start := time.Now()
	err := c.Run()
	duration := time.Since(start)

	result := Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: -1,
		Duration: duration,
	}
	if c.ProcessState != nil {
		result.ExitCode = c.ProcessState.ExitCode()
	}

	if err != nil {
		if ctx.Err() != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return result, apperrors.Timeout(cmd.Binary).WithCause(err)
			}
			return result, fmt.Errorf("process: killed by context: %w", ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return result, fmt.Errorf("process: exit code %d: %w", result.ExitCode, err)
		}
		return result, fmt.Errorf("process: %w", err)
	}

	return result, nil
}

func mergeEnv(extra []string) []string {
	if len(extra) == 0 {
		return nil // nil means inherit os.Environ
	}
	env := os.Environ()
	return append(env, extra...)
}

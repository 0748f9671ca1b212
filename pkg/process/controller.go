package process

import (
	"context"
	"fmt"
	"time"

	procs "github.com/shirou/gopsutil/v4/process"

	"github.com/vein-tools/veind/pkg/log"
)

const defaultPollInterval = 250 * time.Millisecond

// Controller signals a running process by pid and observes its exit.
// The pid may belong to a process this daemon did not spawn, so it
// operates on the host process table rather than an exec.Cmd handle.
type Controller interface {
	// Terminate sends SIGTERM to the process.
	Terminate(ctx context.Context, pid int32) error
	// Kill sends SIGKILL to the process.
	Kill(ctx context.Context, pid int32) error
	// WaitExit polls until the process is gone or the timeout elapses.
	// Returns true if the process exited within the timeout.
	WaitExit(ctx context.Context, pid int32, timeout time.Duration) (bool, error)
}

type osController struct {
	pollInterval time.Duration
}

func NewController() Controller {
	return &osController{pollInterval: defaultPollInterval}
}

func (c *osController) Terminate(ctx context.Context, pid int32) error {
	p, err := procs.NewProcessWithContext(ctx, pid)
	if err != nil {
		return fmt.Errorf("failed to find process %d: %w", pid, err)
	}

	log.Logger.Infow("sending SIGTERM", "pid", pid)
	if err := p.TerminateWithContext(ctx); err != nil {
		return fmt.Errorf("failed to terminate process %d: %w", pid, err)
	}
	return nil
}

func (c *osController) Kill(ctx context.Context, pid int32) error {
	p, err := procs.NewProcessWithContext(ctx, pid)
	if err != nil {
		return fmt.Errorf("failed to find process %d: %w", pid, err)
	}

	log.Logger.Warnw("sending SIGKILL", "pid", pid)
	if err := p.KillWithContext(ctx); err != nil {
		return fmt.Errorf("failed to kill process %d: %w", pid, err)
	}
	return nil
}

func (c *osController) WaitExit(ctx context.Context, pid int32, timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		exists, err := procs.PidExistsWithContext(ctx, pid)
		if err != nil {
			return false, fmt.Errorf("failed to check process %d: %w", pid, err)
		}
		if !exists {
			return true, nil
		}
		if time.Now().After(deadline) {
			return false, nil
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
		}
	}
}

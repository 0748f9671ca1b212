// Package process provides the external command runner on the host,
// used to invoke the game server launcher and the update tool.
package process

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"syscall"

	"github.com/vein-tools/veind/pkg/log"
)

type Process interface {
	// Starts the process but does not wait for it to exit.
	Start(ctx context.Context) error
	// Returns true if the process is started.
	Started() bool

	// StartAndWaitForCombinedOutput starts the process and returns the
	// combined stdout/stderr of the command once it exits.
	StartAndWaitForCombinedOutput(ctx context.Context) ([]byte, error)

	// Waits for the process to exit and returns the error, if any.
	// If the command completes successfully, the error will be nil.
	Wait() <-chan error

	// Returns the current pid of the process.
	PID() int32

	// Returns the exit code of the process.
	// Returns 0 if the process is not started yet.
	ExitCode() int32
}

type process struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	cmd     *exec.Cmd
	started bool

	errc chan error

	pid      int32
	exitCode int32

	commandArgs []string
	envs        []string
	workDir     string
}

func New(opts ...OpOption) (Process, error) {
	op := &Op{}
	if err := op.applyOpts(opts); err != nil {
		return nil, err
	}

	return &process{
		errc:        make(chan error, 1),
		commandArgs: op.commandArgs,
		envs:        op.envs,
		workDir:     op.workDir,
	}, nil
}

func (p *process) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd != nil {
		return errors.New("process already started")
	}

	cctx, ccancel := context.WithCancel(ctx)
	p.ctx = cctx
	p.cancel = ccancel

	if err := p.startCommand(); err != nil {
		ccancel()
		return err
	}

	go p.watchCmd()
	return nil
}

func (p *process) startCommand() error {
	log.Logger.Debugw("starting command", "command", p.commandArgs)

	p.cmd = exec.CommandContext(p.ctx, p.commandArgs[0], p.commandArgs[1:]...)
	if len(p.envs) > 0 {
		p.cmd.Env = p.envs
	}
	p.cmd.Dir = p.workDir

	// New process group so the spawned server (and anything it forks)
	// is not signaled together with this daemon, and survives restarts
	// of the control plane.
	p.cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := p.cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %q: %w", p.commandArgs[0], err)
	}

	p.started = true
	if p.cmd.Process != nil {
		p.pid = int32(p.cmd.Process.Pid)
	}
	return nil
}

func (p *process) watchCmd() {
	err := p.cmd.Wait()

	p.mu.Lock()
	if p.cmd.ProcessState != nil {
		p.exitCode = int32(p.cmd.ProcessState.ExitCode())
	}
	p.mu.Unlock()

	p.errc <- err
	close(p.errc)
}

func (p *process) Started() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.started
}

func (p *process) StartAndWaitForCombinedOutput(ctx context.Context) ([]byte, error) {
	p.mu.Lock()
	if p.cmd != nil {
		p.mu.Unlock()
		return nil, errors.New("process already started")
	}

	cctx, ccancel := context.WithCancel(ctx)
	p.ctx = cctx
	p.cancel = ccancel
	defer ccancel()

	log.Logger.Debugw("running command for combined output", "command", p.commandArgs)

	p.cmd = exec.CommandContext(cctx, p.commandArgs[0], p.commandArgs[1:]...)
	if len(p.envs) > 0 {
		p.cmd.Env = p.envs
	}
	p.cmd.Dir = p.workDir
	p.cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	p.started = true
	p.mu.Unlock()

	out, err := p.cmd.CombinedOutput()

	p.mu.Lock()
	if p.cmd.Process != nil {
		p.pid = int32(p.cmd.Process.Pid)
	}
	if p.cmd.ProcessState != nil {
		p.exitCode = int32(p.cmd.ProcessState.ExitCode())
	}
	p.mu.Unlock()

	return out, err
}

func (p *process) Wait() <-chan error {
	return p.errc
}

func (p *process) PID() int32 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.pid
}

func (p *process) ExitCode() int32 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.exitCode
}

package process

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

type OpOption func(*Op)

type Op struct {
	commandArgs []string
	envs        []string
	workDir     string
}

func (op *Op) applyOpts(opts []OpOption) error {
	for _, opt := range opts {
		opt(op)
	}

	if len(op.commandArgs) == 0 {
		return errors.New("no command provided")
	}
	if !commandExists(op.commandArgs[0]) {
		return fmt.Errorf("command not found: %q", op.commandArgs[0])
	}

	foundEnvs := make(map[string]any)
	for _, env := range op.envs {
		parts := strings.SplitN(env, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid environment variable format: %s", env)
		}
		if _, ok := foundEnvs[parts[0]]; ok {
			return fmt.Errorf("duplicate environment variable: %s", parts[0])
		}
		foundEnvs[parts[0]] = parts[1]
	}

	return nil
}

// Sets the command and its arguments to run.
func WithCommand(args ...string) OpOption {
	return func(op *Op) {
		op.commandArgs = args
	}
}

// Add a new environment variable to the process
// in the format of `KEY=VALUE`.
func WithEnvs(envs ...string) OpOption {
	return func(op *Op) {
		op.envs = append(op.envs, envs...)
	}
}

// Sets the working directory of the command.
func WithWorkingDir(dir string) OpOption {
	return func(op *Op) {
		op.workDir = dir
	}
}

func commandExists(name string) bool {
	p, err := exec.LookPath(name)
	if err != nil {
		return false
	}
	return p != ""
}
